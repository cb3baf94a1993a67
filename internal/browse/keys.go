package browse

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines key bindings for the browse view. Letters are left free for
// the search input.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Locate   key.Binding
	Organize key.Binding
	Cancel   key.Binding
	Quit     key.Binding
}

// Keys is the default key map.
var Keys = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "ctrl+p"),
		key.WithHelp("↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "ctrl+n"),
		key.WithHelp("↓", "down"),
	),
	Locate: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "locate"),
	),
	Organize: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "organize"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("ctrl+x"),
		key.WithHelp("ctrl+x", "cancel pass"),
	),
	Quit: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "quit"),
	),
}

func (k KeyMap) help() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Locate, k.Organize, k.Cancel, k.Quit}
}
