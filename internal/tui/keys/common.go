package keys

import "github.com/charmbracelet/bubbles/key"

// Common key bindings used across TUI commands
type CommonKeys struct {
	Quit       key.Binding
	Help       key.Binding
	InsertMode key.Binding
	Escape     key.Binding
}

func NewCommonKeys() CommonKeys {
	return CommonKeys{
		Quit: key.NewBinding(
			key.WithKeys("q", "Q", "ctrl+c"),
			key.WithHelp("q/ctrl+c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		InsertMode: key.NewBinding(
			key.WithKeys("i", "I"),
			key.WithHelp("i", "insert mode"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "normal mode"),
		),
	}
}

// Terminal-specific key bindings for commands that display frames
type TerminalKeys struct {
	CommonKeys
	Clear            key.Binding
	ToggleHex        key.Binding
	ToggleDecimal    key.Binding
	ToggleOctal      key.Binding
	ToggleBinary     key.Binding
	ToggleASCII      key.Binding
	ToggleTimestamps key.Binding
	ToggleModbus     key.Binding
	VisualMode       key.Binding
	Up               key.Binding
	Down             key.Binding
	GotoTop          key.Binding
	GotoBottom       key.Binding
	Export           key.Binding
}

func NewTerminalKeys() TerminalKeys {
	return TerminalKeys{
		CommonKeys: NewCommonKeys(),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear buffer"),
		),
		ToggleHex: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "toggle hex"),
		),
		ToggleDecimal: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "toggle decimal"),
		),
		ToggleOctal: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "toggle octal"),
		),
		ToggleBinary: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "toggle binary"),
		),
		ToggleASCII: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "toggle ascii"),
		),
		ToggleTimestamps: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle timestamps"),
		),
		ToggleModbus: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "toggle modbus decode"),
		),
		VisualMode: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "inspect frames"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		GotoTop: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "goto top"),
		),
		GotoBottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "goto bottom"),
		),
		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export capture"),
		),
	}
}

func (k TerminalKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.VisualMode, k.Clear, k.Quit}
}

func (k TerminalKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ToggleHex, k.ToggleDecimal, k.ToggleOctal, k.ToggleBinary, k.ToggleASCII},
		{k.ToggleTimestamps, k.ToggleModbus, k.Clear, k.Export},
		{k.VisualMode, k.Escape, k.Up, k.Down, k.GotoTop, k.GotoBottom},
		{k.Help, k.Quit},
	}
}
