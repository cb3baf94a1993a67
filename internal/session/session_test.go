package session_test

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"filesort/internal/caption"
	"filesort/internal/organizer"
	"filesort/internal/services"
	"filesort/internal/session"
)

func newFs(t *testing.T, dir string, names ...string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, name := range names {
		if err := afero.WriteFile(fs, filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return fs
}

func waitTask(t *testing.T, task *session.Task) (*organizer.Result, error) {
	t.Helper()
	select {
	case <-task.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("task did not finish")
	}
	return task.Wait()
}

func TestStartPublishesSnapshotOnSuccess(t *testing.T) {
	fs := newFs(t, "/src", "x.txt", "y.jpg")
	captioner := caption.Func(func(context.Context, []byte) (string, bool) { return "dog", true })
	org := organizer.New(organizer.WithFs(fs), organizer.WithCaptioner(captioner))
	sess := session.New(org, session.WithFs(fs))

	if got := sess.Search(""); got == nil || len(got) != 0 {
		t.Fatalf("expected empty results before any pass, got %v", got)
	}
	if sess.Locate("x.txt").Found {
		t.Fatal("nothing should be found before any pass")
	}

	task, err := sess.Start(context.Background(), organizer.Request{Source: "/src", Destination: "/dest"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	res, err := waitTask(t, task)
	if err != nil {
		t.Fatalf("organize failed: %v", err)
	}
	if res.RunID != task.RunID() {
		t.Fatalf("run id mismatch: %s vs %s", res.RunID, task.RunID())
	}
	if !task.Finished() {
		t.Fatal("task should report finished")
	}

	if got := sess.Search("y"); !slices.Equal(got, []string{"y.jpg"}) {
		t.Fatalf("unexpected search results %v", got)
	}
	loc := sess.Locate("y.jpg")
	if !loc.Found || loc.Path != filepath.Join("/dest", "images", "dog", "y.jpg") {
		t.Fatalf("unexpected locate result %+v", loc)
	}
	if snap := sess.Snapshot(); snap == nil || snap.RunID != res.RunID {
		t.Fatalf("expected published snapshot for %s, got %+v", res.RunID, snap)
	}
}

func TestFailedPassKeepsPreviousSnapshot(t *testing.T) {
	fs := newFs(t, "/src", "a.txt")
	sess := session.New(organizer.New(organizer.WithFs(fs)), session.WithFs(fs))

	task, _ := sess.Start(context.Background(), organizer.Request{Source: "/src", Destination: "/dest"})
	if _, err := waitTask(t, task); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	before := sess.Snapshot()

	task, err := sess.Start(context.Background(), organizer.Request{Source: "/missing", Destination: "/dest"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := waitTask(t, task); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if sess.Snapshot() != before {
		t.Fatal("failed pass must not replace the snapshot")
	}
	if got := sess.Search(""); !slices.Equal(got, []string{"a.txt"}) {
		t.Fatalf("expected previous results, got %v", got)
	}
}

func TestCancelKeepsPreviousSnapshotAndBlocksConcurrentStart(t *testing.T) {
	fs := newFs(t, "/src", "old.txt")
	var (
		once    sync.Once
		started = make(chan struct{})
	)
	captioner := caption.Func(func(ctx context.Context, _ []byte) (string, bool) {
		once.Do(func() { close(started) })
		<-ctx.Done()
		return "", false
	})
	org := organizer.New(organizer.WithFs(fs), organizer.WithCaptioner(captioner))
	sess := session.New(org, session.WithFs(fs))

	task, _ := sess.Start(context.Background(), organizer.Request{Source: "/src", Destination: "/dest"})
	if _, err := waitTask(t, task); err != nil {
		t.Fatalf("first pass: %v", err)
	}

	if err := afero.WriteFile(fs, "/src2/new.png", []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	task, err := sess.Start(context.Background(), organizer.Request{Source: "/src2", Destination: "/dest"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("captioning never started")
	}

	if _, err := sess.Start(context.Background(), organizer.Request{Source: "/src2", Destination: "/dest"}); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict for concurrent start, got %v", err)
	}
	if got := sess.Search(""); !slices.Equal(got, []string{"old.txt"}) {
		t.Fatalf("readers must see the previous snapshot while a pass runs, got %v", got)
	}

	task.Cancel()
	if _, err := waitTask(t, task); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if got := sess.Search(""); !slices.Equal(got, []string{"old.txt"}) {
		t.Fatalf("cancelled pass must keep the previous snapshot, got %v", got)
	}
	if ok, _ := afero.Exists(fs, "/src2/new.png"); !ok {
		t.Fatal("cancelled image should remain in the source")
	}
}

func TestDryRunDoesNotPublish(t *testing.T) {
	fs := newFs(t, "/src", "a.txt")
	sess := session.New(organizer.New(organizer.WithFs(fs)), session.WithFs(fs))

	task, _ := sess.Start(context.Background(), organizer.Request{Source: "/src", Destination: "/dest", DryRun: true})
	if _, err := waitTask(t, task); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if sess.Snapshot() != nil {
		t.Fatal("dry run must not publish a snapshot")
	}
}

func TestRecorderSeesEveryPass(t *testing.T) {
	fs := newFs(t, "/src", "a.txt")
	var (
		mu       sync.Mutex
		recorded []error
	)
	recorder := func(_ context.Context, _ organizer.Request, _ *organizer.Result, err error) error {
		mu.Lock()
		defer mu.Unlock()
		recorded = append(recorded, err)
		return nil
	}
	sess := session.New(organizer.New(organizer.WithFs(fs)), session.WithFs(fs), session.WithRecorder(recorder))

	task, _ := sess.Start(context.Background(), organizer.Request{Source: "/src", Destination: "/dest"})
	_, _ = waitTask(t, task)
	task, _ = sess.Start(context.Background(), organizer.Request{Source: "/missing", Destination: "/dest"})
	_, _ = waitTask(t, task)

	mu.Lock()
	defer mu.Unlock()
	if len(recorded) != 2 || recorded[0] != nil || recorded[1] == nil {
		t.Fatalf("unexpected recorded outcomes %v", recorded)
	}
}

func TestLoadAndSuggest(t *testing.T) {
	fs := afero.NewMemMapFs()
	sess := session.New(nil, session.WithFs(fs))
	org := organizer.New(organizer.WithFs(newFs(t, "/src", "report.pdf", "photo.png")))
	res, err := org.Organize(context.Background(), organizer.Request{Source: "/src", Destination: "/dest", DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	sess.Load(&session.Snapshot{RunID: res.RunID, Destination: "/dest", Index: res.Index, Buckets: res.Buckets})

	if got := sess.Suggest("rep", 3); !slices.Equal(got, []string{"report.pdf"}) {
		t.Fatalf("unexpected suggestions %v", got)
	}
	if got := sess.Locate("report.pdf").Path; got != filepath.Join("/dest", "pdf", "report.pdf") {
		t.Fatalf("unexpected path %s", got)
	}
}
