package keys

import "github.com/charmbracelet/bubbles/key"

// ConnectKeys adds the send line to the frame view keys. HistoryPrev and
// HistoryNext only apply while typing.
type ConnectKeys struct {
	TerminalKeys
	Send            key.Binding
	CycleSendFormat key.Binding
	CycleLineEnding key.Binding
	HistoryPrev     key.Binding
	HistoryNext     key.Binding
}

func NewConnectKeys() ConnectKeys {
	return ConnectKeys{
		TerminalKeys: NewTerminalKeys(),
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		CycleSendFormat: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "text/hex/dec/bin"),
		),
		CycleLineEnding: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "line ending"),
		),
		HistoryPrev: key.NewBinding(
			key.WithKeys("up", "ctrl+p"),
			key.WithHelp("↑", "previous sent"),
		),
		HistoryNext: key.NewBinding(
			key.WithKeys("down", "ctrl+n"),
			key.WithHelp("↓", "next sent"),
		),
	}
}

func (k ConnectKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.InsertMode, k.VisualMode, k.Send, k.Quit}
}

func (k ConnectKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.InsertMode, k.Send, k.CycleSendFormat, k.CycleLineEnding, k.HistoryPrev, k.HistoryNext},
		{k.ToggleHex, k.ToggleDecimal, k.ToggleOctal, k.ToggleBinary, k.ToggleASCII},
		{k.ToggleTimestamps, k.ToggleModbus, k.Clear, k.Export},
		{k.VisualMode, k.Escape, k.GotoTop, k.GotoBottom, k.Up, k.Down},
		{k.Help, k.Quit},
	}
}
