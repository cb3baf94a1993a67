package catalog_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"filesort/internal/catalog"
	"filesort/internal/organizer"
	"filesort/internal/services"
	"filesort/internal/testsupport"
)

func organize(t *testing.T, req organizer.Request) *organizer.Result {
	t.Helper()
	res, err := organizer.New().Organize(context.Background(), req)
	if err != nil {
		t.Fatalf("Organize: %v", err)
	}
	return res
}

func TestSaveRunAndSnapshotRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	testsupport.WriteFiles(t, cfg.Paths.SourceDir, "b.txt", "a.txt", "c.png", "README")

	res := organize(t, organizer.Request{Source: cfg.Paths.SourceDir, Destination: cfg.Paths.DestinationDir})
	run, entries := catalog.FromResult(res, "", "")
	if run.Status != catalog.StatusCompleted {
		t.Fatalf("expected completed status, got %s", run.Status)
	}
	ctx := context.Background()
	if err := store.SaveRun(ctx, run, entries); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	snap, err := store.Snapshot(ctx, "")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Run.ID != res.RunID {
		t.Fatalf("expected run %s, got %s", res.RunID, snap.Run.ID)
	}
	if got, want := snap.Index.SearchAutocomplete(""), res.Index.SearchAutocomplete(""); !slices.Equal(got, want) {
		t.Fatalf("index mismatch: %v vs %v", got, want)
	}
	if got, want := snap.Buckets.Files(".txt"), res.Buckets.Files(".txt"); !slices.Equal(got, want) {
		t.Fatalf("bucket mismatch: %v vs %v", got, want)
	}
	if snap.Run.MovedCount != 4 {
		t.Fatalf("expected 4 moves recorded, got %d", snap.Run.MovedCount)
	}

	stored, err := store.Entries(ctx, run.ID)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(stored) != len(entries) {
		t.Fatalf("expected %d entries, got %d", len(entries), len(stored))
	}
	for i := range stored {
		if stored[i] != entries[i] {
			t.Fatalf("entry %d mismatch: %+v vs %+v", i, stored[i], entries[i])
		}
	}
}

func TestLatestRunIgnoresDryRuns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	if _, err := store.LatestRun(ctx); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found on empty catalog, got %v", err)
	}

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	runs := []catalog.Run{
		{ID: "11111111-aaaa", Source: "/s", Destination: "/d", Status: catalog.StatusCompleted, StartedAt: base, FinishedAt: base.Add(time.Second)},
		{ID: "22222222-bbbb", Source: "/s", Destination: "/d", Status: catalog.StatusDryRun, StartedAt: base.Add(time.Hour), FinishedAt: base.Add(time.Hour)},
	}
	for _, run := range runs {
		if err := store.SaveRun(ctx, run, nil); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}

	latest, err := store.LatestRun(ctx)
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if latest.ID != "11111111-aaaa" {
		t.Fatalf("expected completed run, got %s", latest.ID)
	}
	if !latest.StartedAt.Equal(base) {
		t.Fatalf("started_at round trip mismatch: %v", latest.StartedAt)
	}

	listed, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(listed) != 2 || listed[0].ID != "22222222-bbbb" {
		t.Fatalf("expected newest first, got %+v", listed)
	}
	limited, err := store.ListRuns(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("expected 1 run with limit, got %d (%v)", len(limited), err)
	}
}

func TestGetRunByPrefix(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()
	now := time.Now()
	for _, id := range []string{"abcd1111", "abcd2222", "ffff0000"} {
		if err := store.SaveRun(ctx, catalog.Run{ID: id, Status: catalog.StatusCompleted, StartedAt: now, FinishedAt: now}, nil); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}

	run, err := store.GetRun(ctx, "ffff")
	if err != nil || run.ID != "ffff0000" {
		t.Fatalf("expected prefix match, got %+v (%v)", run, err)
	}
	if _, err := store.GetRun(ctx, "abcd"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ambiguity error, got %v", err)
	}
	if _, err := store.GetRun(ctx, "abc"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected short prefix error, got %v", err)
	}
	if _, err := store.GetRun(ctx, "9999"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	run, err = store.GetRun(ctx, "abcd2222")
	if err != nil || run.ID != "abcd2222" {
		t.Fatalf("expected exact match, got %+v (%v)", run, err)
	}
}

func TestDeleteRunCascadesEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()
	now := time.Now()
	entries := []catalog.Entry{{Filename: "x.txt", Extension: ".txt", Outcome: catalog.OutcomeMoved}}
	if err := store.SaveRun(ctx, catalog.Run{ID: "run-1234", Status: catalog.StatusCompleted, StartedAt: now, FinishedAt: now}, entries); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if err := store.DeleteRun(ctx, "run-1234"); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	left, err := store.Entries(ctx, "run-1234")
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("expected entries removed, got %d", len(left))
	}
	if err := store.DeleteRun(ctx, "run-1234"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestFromResultRecordsConflictsAndDryRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFiles(t, cfg.Paths.SourceDir, "x.txt", "y.txt")
	testsupport.WriteFiles(t, cfg.Paths.DestinationDir+"/txt", "x.txt")

	res := organize(t, organizer.Request{Source: cfg.Paths.SourceDir, Destination: cfg.Paths.DestinationDir, DryRun: true})
	run, entries := catalog.FromResult(res, "", "")
	if run.Status != catalog.StatusDryRun {
		t.Fatalf("expected dry run status, got %s", run.Status)
	}
	outcomes := map[string]catalog.Outcome{}
	for _, e := range entries {
		outcomes[e.Filename] = e.Outcome
	}
	if outcomes["x.txt"] != catalog.OutcomeConflict || outcomes["y.txt"] != catalog.OutcomePlanned {
		t.Fatalf("unexpected outcomes %v", outcomes)
	}
}

func TestSaveRunRequiresID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	if err := store.SaveRun(context.Background(), catalog.Run{}, nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
