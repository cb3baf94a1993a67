// Package browse implements the interactive terminal surface: a search box
// with live autocomplete over the current snapshot, locate on enter, and
// organize passes that run in the background while the view stays live.
package browse

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"filesort/internal/locator"
	"filesort/internal/organizer"
	"filesort/internal/session"
)

const (
	defaultWidth    = 80
	defaultHeight   = 24
	reservedLines   = 9
	suggestionLimit = 3
)

// Model is the bubbletea model for the browse view.
type Model struct {
	ctx  context.Context
	sess *session.Session
	req  organizer.Request
	keys KeyMap

	input   textinput.Model
	matches []string
	cursor  int
	offset  int

	located     *locator.Result
	suggestions []string

	task   *session.Task
	status string
	err    error

	width  int
	height int
}

type taskDoneMsg struct {
	res *organizer.Result
	err error
}

// New creates a browse model over sess. req is the organize request started
// by the organize key; a zero Source disables it.
func New(ctx context.Context, sess *session.Session, req organizer.Request) *Model {
	input := textinput.New()
	input.Placeholder = "type a filename prefix"
	input.Prompt = "› "
	input.Focus()

	m := &Model{
		ctx:    ctx,
		sess:   sess,
		req:    req,
		keys:   Keys,
		input:  input,
		width:  defaultWidth,
		height: defaultHeight,
	}
	m.refreshMatches()
	if snap := sess.Snapshot(); snap != nil {
		m.status = fmt.Sprintf("run %s · %d files", shortID(snap.RunID), snap.Index.Len())
	} else {
		m.status = "no organize run yet"
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-4, 10)
		return m, nil

	case taskDoneMsg:
		m.task = nil
		if msg.err != nil {
			m.err = msg.err
			m.status = "organize pass failed; previous results kept"
		} else if msg.res != nil {
			m.err = nil
			m.status = fmt.Sprintf("run %s · moved %d · skipped %d · conflicts %d",
				shortID(msg.res.RunID), len(msg.res.Moves), len(msg.res.Skipped), len(msg.res.Conflicts))
		}
		m.refreshMatches()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			if m.task != nil {
				m.task.Cancel()
			}
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.move(-1)
			return m, nil
		case key.Matches(msg, m.keys.Down):
			m.move(1)
			return m, nil
		case key.Matches(msg, m.keys.Locate):
			m.locate()
			return m, nil
		case key.Matches(msg, m.keys.Organize):
			return m, m.startOrganize()
		case key.Matches(msg, m.keys.Cancel):
			if m.task != nil {
				m.task.Cancel()
				m.status = "cancelling organize pass…"
			}
			return m, nil
		}
	}

	prev := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != prev {
		m.located = nil
		m.suggestions = nil
		m.refreshMatches()
	}
	return m, cmd
}

func (m *Model) refreshMatches() {
	m.matches = m.sess.Search(m.input.Value())
	m.cursor = 0
	m.offset = 0
}

func (m *Model) move(delta int) {
	if len(m.matches) == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.matches)-1)
	visible := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

func (m *Model) locate() {
	name := strings.TrimSpace(m.input.Value())
	if len(m.matches) > 0 {
		name = m.matches[m.cursor]
	}
	if name == "" {
		return
	}
	res := m.sess.Locate(name)
	m.located = &res
	m.suggestions = nil
	if !res.Found {
		m.suggestions = m.sess.Suggest(name, suggestionLimit)
	}
}

func (m *Model) startOrganize() tea.Cmd {
	if m.task != nil {
		m.status = "an organize pass is already running"
		return nil
	}
	if strings.TrimSpace(m.req.Source) == "" {
		m.status = "no source directory configured"
		return nil
	}
	req := m.req
	req.RunID = ""
	task, err := m.sess.Start(m.ctx, req)
	if err != nil {
		m.err = err
		return nil
	}
	m.task = task
	m.err = nil
	m.status = fmt.Sprintf("organizing %s → %s", req.Source, req.Destination)
	return waitForTask(task)
}

func waitForTask(task *session.Task) tea.Cmd {
	return func() tea.Msg {
		res, err := task.Wait()
		return taskDoneMsg{res: res, err: err}
	}
}

func (m *Model) visibleRows() int {
	return max(m.height-reservedLines, 1)
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("filesort"))
	b.WriteString("  ")
	b.WriteString(helpStyle.Render(m.fit(m.status, m.width-12)))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	if len(m.matches) == 0 {
		b.WriteString(helpStyle.Render("  no matches"))
		b.WriteByte('\n')
	}
	end := min(m.offset+m.visibleRows(), len(m.matches))
	for i := m.offset; i < end; i++ {
		line := m.fit(m.matches[i], m.width-4)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("▸ " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteByte('\n')
	}
	if hidden := len(m.matches) - end; hidden > 0 {
		b.WriteString(helpStyle.Render(fmt.Sprintf("  + %d more", hidden)))
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	if m.located != nil {
		if m.located.Found {
			b.WriteString(pathStyle.Render(wordwrap.String(m.located.Path, max(m.width, 20))))
		} else {
			b.WriteString(errorStyle.Render(fmt.Sprintf("%s was not organized by this run", m.located.Filename)))
			if len(m.suggestions) > 0 {
				b.WriteString("\n")
				b.WriteString(helpStyle.Render("did you mean: " + strings.Join(m.suggestions, ", ")))
			}
		}
		b.WriteByte('\n')
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render(wordwrap.String(m.err.Error(), max(m.width, 20))))
		b.WriteByte('\n')
	}

	help := make([]string, 0, len(m.keys.help()))
	for _, binding := range m.keys.help() {
		h := binding.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	b.WriteString(helpStyle.Render(m.fit(strings.Join(help, " · "), m.width)))
	return b.String()
}

func (m *Model) fit(s string, width int) string {
	if width <= 1 {
		return s
	}
	return truncate.StringWithTail(s, uint(width), "…")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// PendingTask returns the organize pass still running when the program
// exited, if any.
func (m *Model) PendingTask() *session.Task {
	return m.task
}
