package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the main view bindings. ctrl+h is left alone since many
// terminals send it for backspace.
type keyMap struct {
	History key.Binding
	Sidebar key.Binding
	NewChat key.Binding
	Focus   key.Binding
	Back    key.Binding
	Send    key.Binding
	Scroll  key.Binding
	Quit    key.Binding
}

var keys = defaultKeyMap()

func defaultKeyMap() keyMap {
	return keyMap{
		History: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("^o", "history"),
		),
		Sidebar: key.NewBinding(
			key.WithKeys("ctrl+b"),
			key.WithHelp("^b", "sidebar"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("^n", "new chat"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "focus"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
		),
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Scroll: key.NewBinding(
			key.WithKeys("pgup", "pgdown"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("^c", "quit"),
		),
	}
}

// hint renders a binding as "key action"
func hint(b key.Binding) string {
	h := b.Help()
	return h.Key + " " + h.Desc
}
