package browse

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"

	"filesort/internal/buckets"
	"filesort/internal/organizer"
	"filesort/internal/prefixindex"
	"filesort/internal/session"
)

func typeText(t *testing.T, m *Model, text string) {
	t.Helper()
	for _, r := range text {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func loadedSession(fs afero.Fs, names ...string) *session.Session {
	sess := session.New(nil, session.WithFs(fs))
	sess.Load(&session.Snapshot{
		RunID:       "0123456789",
		Destination: "/dest",
		Index:       prefixindex.FromNames(names),
		Buckets:     buckets.Build(names),
	})
	return sess
}

func TestTypingFiltersMatches(t *testing.T) {
	m := New(context.Background(), loadedSession(afero.NewMemMapFs(), "cat.png", "car.txt", "dog.jpg"), organizer.Request{})
	if len(m.matches) != 3 {
		t.Fatalf("expected all names before typing, got %v", m.matches)
	}

	typeText(t, m, "ca")
	if !slices.Equal(m.matches, []string{"car.txt", "cat.png"}) {
		t.Fatalf("unexpected matches %v", m.matches)
	}
	if !strings.Contains(m.View(), "car.txt") {
		t.Fatal("view should list matches")
	}
}

func TestEnterLocatesSelectedMatch(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/dest/images/cat/cat.png", []byte("x"), 0o644)
	m := New(context.Background(), loadedSession(fs, "cat.png", "car.txt"), organizer.Request{})

	typeText(t, m, "ca")
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if m.located == nil || !m.located.Found {
		t.Fatalf("expected located result, got %+v", m.located)
	}
	if want := filepath.Join("/dest", "images", "cat", "cat.png"); m.located.Path != want {
		t.Fatalf("expected %s, got %s", want, m.located.Path)
	}
}

func TestEnterOnUnknownNameSuggests(t *testing.T) {
	m := New(context.Background(), loadedSession(afero.NewMemMapFs(), "report.pdf"), organizer.Request{})

	typeText(t, m, "rpt")
	if len(m.matches) != 0 {
		t.Fatalf("expected no prefix matches, got %v", m.matches)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.located == nil || m.located.Found {
		t.Fatalf("expected not-found result, got %+v", m.located)
	}
	if !slices.Equal(m.suggestions, []string{"report.pdf"}) {
		t.Fatalf("unexpected suggestions %v", m.suggestions)
	}
	if !strings.Contains(m.View(), "did you mean") {
		t.Fatal("view should show suggestions")
	}
}

func TestOrganizeKeyRunsPassAndRefreshes(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/src/new.txt", []byte("x"), 0o644)
	sess := session.New(organizer.New(organizer.WithFs(fs)), session.WithFs(fs))
	m := New(context.Background(), sess, organizer.Request{Source: "/src", Destination: "/dest"})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	if cmd == nil {
		t.Fatal("expected a command waiting for the pass")
	}
	msg := cmd()
	m.Update(msg)

	if m.task != nil {
		t.Fatal("task should be cleared once done")
	}
	if !slices.Equal(m.matches, []string{"new.txt"}) {
		t.Fatalf("expected refreshed matches, got %v", m.matches)
	}
	if m.err != nil {
		t.Fatalf("unexpected error %v", m.err)
	}
}

func TestOrganizeWithoutSourceIsDisabled(t *testing.T) {
	m := New(context.Background(), loadedSession(afero.NewMemMapFs()), organizer.Request{})
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR}); cmd != nil {
		t.Fatal("organize must be disabled without a source")
	}
}

func TestQuit(t *testing.T) {
	m := New(context.Background(), loadedSession(afero.NewMemMapFs()), organizer.Request{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}
