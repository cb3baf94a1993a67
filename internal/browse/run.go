package browse

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the full-screen program and blocks until the user quits.
func Run(ctx context.Context, m *Model) error {
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}
