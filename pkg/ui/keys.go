package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the chart key bindings. It satisfies help.KeyMap.
type KeyMap struct {
	ZoomIn        key.Binding
	ZoomOut       key.Binding
	Left          key.Binding
	Right         key.Binding
	Up            key.Binding
	Down          key.Binding
	Reset         key.Binding
	ThresholdDown key.Binding
	ThresholdUp   key.Binding
	ThresholdPgDn key.Binding
	ThresholdPgUp key.Binding
	Select        key.Binding
	Clear         key.Binding
	Copy          key.Binding
	Export        key.Binding
	Help          key.Binding
	Quit          key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		ZoomIn:        key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut:       key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
		Left:          key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "pan left")),
		Right:         key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "pan right")),
		Up:            key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "pan up")),
		Down:          key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "pan down")),
		Reset:         key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset zoom")),
		ThresholdDown: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "density -1")),
		ThresholdUp:   key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "density +1")),
		ThresholdPgDn: key.NewBinding(key.WithKeys("{"), key.WithHelp("{", "density -10%")),
		ThresholdPgUp: key.NewBinding(key.WithKeys("}"), key.WithHelp("}", "density +10%")),
		Select:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select centre")),
		Clear:         key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear selection")),
		Copy:          key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy cluster id")),
		Export:        key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),
		Help:          key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp returns the footer bindings.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ZoomIn, k.ZoomOut, k.Reset, k.ThresholdDown, k.ThresholdUp, k.Select, k.Export, k.Help, k.Quit}
}

// FullHelp returns every binding grouped by concern.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ZoomIn, k.ZoomOut, k.Reset},
		{k.Left, k.Right, k.Up, k.Down},
		{k.ThresholdDown, k.ThresholdUp, k.ThresholdPgDn, k.ThresholdPgUp},
		{k.Select, k.Clear, k.Copy, k.Export, k.Help, k.Quit},
	}
}
