package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Select   key.Binding
	Filter   key.Binding
	Tab      key.Binding
	Focus    key.Binding
	Back     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Reload   key.Binding
	Copy     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k/↑", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/↓", "down")),
	Top:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
	Bottom:   key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
	Select:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open part")),
	Filter:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
	Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "detail/assistant")),
	Focus:    key.NewBinding(key.WithKeys("i", "l", "right"), key.WithHelp("i", "focus side pane")),
	Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back to graph")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "scroll up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "scroll down")),
	Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload graph")),
	Copy:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy panel")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Tab, k.Filter, k.Reload, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom, k.Select, k.Filter},
		{k.Tab, k.Focus, k.Back, k.PageUp, k.PageDown},
		{k.Reload, k.Copy, k.Help, k.Quit},
	}
}
