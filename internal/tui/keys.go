package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit      key.Binding
	NextDrill key.Binding
	Backspace key.Binding
	Enter     key.Binding
	Cancel    key.Binding
	Help      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:      key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
		NextDrill: key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "skip drill")),
		Backspace: key.NewBinding(key.WithKeys("backspace"), key.WithHelp("⌫", "backspace")),
		Enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("⏎", "enter")),
		Cancel:    key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "cancel gesture")),
		Help:      key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "help")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.NextDrill, k.Help}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Quit, k.NextDrill, k.Cancel},
		{k.Backspace, k.Enter, k.Help},
	}
}
