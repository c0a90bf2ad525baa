package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard bindings for the TUI.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Enter    key.Binding
	Gather   key.Binding
	Train    key.Binding
	Mode     key.Binding
	Optimize key.Binding
	Room     key.Binding
	Refresh  key.Binding
	Escape   key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "prev device"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next device"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select device"),
		),
		Gather: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "toggle gathering"),
		),
		Train: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle training"),
		),
		Mode: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "gathering mode"),
		),
		Optimize: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "optimize"),
		),
		Room: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "label room"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "reload devices"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear notice"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
