package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit        key.Binding
	Help        key.Binding
	Toggle      key.Binding
	SkipBack    key.Binding
	SkipForward key.Binding
	ScrubBack   key.Binding
	ScrubAhead  key.Binding
	Commit      key.Binding
	Cancel      key.Binding
	VolumeUp    key.Binding
	VolumeDown  key.Binding
	Mute        key.Binding
	Rate        key.Binding
	AddMark     key.Binding
	PrevMark    key.Binding
	NextMark    key.Binding
	JumpMark    key.Binding
	RemoveMark  key.Binding
	Search      key.Binding
	FocusNext   key.Binding
	Up          key.Binding
	Down        key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Toggle:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		SkipBack:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "skip back")),
		SkipForward: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "skip ahead")),
		ScrubBack:   key.NewBinding(key.WithKeys("shift+left", "H"), key.WithHelp("shift+←", "scrub back")),
		ScrubAhead:  key.NewBinding(key.WithKeys("shift+right", "L"), key.WithHelp("shift+→", "scrub ahead")),
		Commit:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "commit")),
		Cancel:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		VolumeUp:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "volume up")),
		VolumeDown:  key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "volume down")),
		Mute:        key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")),
		Rate:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "cycle rate")),
		AddMark:     key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "add bookmark")),
		PrevMark:    key.NewBinding(key.WithKeys("["), key.WithHelp("[", "previous bookmark")),
		NextMark:    key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next bookmark")),
		JumpMark:    key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "jump to bookmark")),
		RemoveMark:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove bookmark")),
		Search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search transcript")),
		FocusNext:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch panel")),
		Up:          key.NewBinding(key.WithKeys("up", "k", "ctrl+p")),
		Down:        key.NewBinding(key.WithKeys("down", "j", "ctrl+n")),
	}
}

// helpRows lists bindings in the order the help overlay shows them.
func (k keyMap) helpRows() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.SkipBack, k.SkipForward, k.ScrubBack, k.ScrubAhead, k.Commit, k.Cancel},
		{k.VolumeUp, k.VolumeDown, k.Mute, k.Rate},
		{k.AddMark, k.PrevMark, k.NextMark, k.JumpMark, k.RemoveMark},
		{k.Search, k.FocusNext, k.Help, k.Quit},
	}
}
