package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/go-serialscope/internal/tui/colors"
	"github.com/allbin/go-serialscope/internal/tui/styles"
	"github.com/allbin/go-serialscope/monitor"
	"github.com/allbin/go-serialscope/numeric"
)

// sendingModes is the Tab cycle of input formats.
var sendingModes = []numeric.Format{
	numeric.FormatASCII,
	numeric.FormatHex,
	numeric.FormatDecimal,
	numeric.FormatBinary,
}

var placeholders = map[numeric.Format]string{
	numeric.FormatASCII:   "Type message and press Enter to send...",
	numeric.FormatHex:     "Enter hex (e.g. 48656C6C6F or 48 65 6C 6C 6F)...",
	numeric.FormatDecimal: "Enter decimal bytes (e.g. 72 101 108 108 111)...",
	numeric.FormatBinary:  "Enter binary bytes (e.g. 01001000 01101001)...",
}

type Input struct {
	textInput     textinput.Model
	sendingMode   numeric.Format
	lineEnding    numeric.LineEnding
	history       *monitor.SendHistory
	terminalWidth int
}

func NewInput(mode numeric.Format, ending numeric.LineEnding) *Input {
	ti := textinput.New()
	ti.CharLimit = 1024
	ti.Prompt = "" // We handle prompt styling separately
	ti.Focus()

	i := &Input{
		textInput:   ti,
		sendingMode: numeric.FormatASCII,
		lineEnding:  ending,
		history:     monitor.NewSendHistory(monitor.DefaultSendHistory),
	}
	i.SetSendingMode(mode)
	return i
}

func (i *Input) SetWidth(width int) {
	i.terminalWidth = width
	// Account for: border(2) + padding(2) + prompt(1) + space(1) = 6 characters
	usableWidth := width - 6
	if usableWidth < 20 {
		usableWidth = 20
	}
	i.textInput.Width = usableWidth
}

func (i *Input) Focus() {
	i.textInput.Focus()
}

func (i *Input) Blur() {
	i.textInput.Blur()
}

func (i *Input) Value() string {
	return i.textInput.Value()
}

func (i *Input) SetValue(value string) {
	i.textInput.SetValue(value)
}

// SetSendingMode selects the input format; formats without an input
// syntax fall back to ASCII.
func (i *Input) SetSendingMode(f numeric.Format) {
	if _, ok := placeholders[f]; !ok {
		f = numeric.FormatASCII
	}
	i.sendingMode = f
	i.textInput.Placeholder = placeholders[f]
}

func (i *Input) ToggleSendingMode() {
	for n, f := range sendingModes {
		if f == i.sendingMode {
			i.SetSendingMode(sendingModes[(n+1)%len(sendingModes)])
			return
		}
	}
	i.SetSendingMode(numeric.FormatASCII)
}

func (i *Input) GetSendingMode() numeric.Format {
	return i.sendingMode
}

// Bytes parses the current value in the sending mode. Text input gets the
// line ending appended; byte formats are sent exactly as typed.
func (i *Input) Bytes() ([]byte, error) {
	b, err := numeric.ParseBytes(i.textInput.Value(), i.sendingMode)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: nothing to send", numeric.ErrInvalidInput)
	}
	if i.sendingMode == numeric.FormatASCII {
		b = i.lineEnding.Append(b)
	}
	return b, nil
}

func (i *Input) Update(msg tea.Msg) (*Input, tea.Cmd) {
	var cmd tea.Cmd
	i.textInput, cmd = i.textInput.Update(msg)
	return i, cmd
}

func modeLabel(f numeric.Format) string {
	if f == numeric.FormatASCII {
		return "TEXT"
	}
	return viewLabels[f]
}

// ModeLabel is the sending mode as shown in the status bar. Text mode
// carries its line ending.
func (i *Input) ModeLabel() string {
	if i.sendingMode == numeric.FormatASCII && i.lineEnding != numeric.LineEndingNone {
		return modeLabel(i.sendingMode) + "+" + i.lineEnding.String()
	}
	return modeLabel(i.sendingMode)
}

// CycleLineEnding steps through none, CR, LF and CRLF.
func (i *Input) CycleLineEnding() {
	i.lineEnding = (i.lineEnding + 1) % (numeric.LineEndingCRLF + 1)
}

func (i *Input) LineEnding() numeric.LineEnding {
	return i.lineEnding
}

func (i *Input) ViewWithMode(isInsertMode bool) string {
	var promptStyle lipgloss.Style
	var promptSymbol string
	switch i.sendingMode {
	case numeric.FormatASCII:
		promptSymbol = ">"
		promptStyle = lipgloss.NewStyle().Foreground(colors.Green).Bold(true)
	case numeric.FormatHex:
		promptSymbol = "#"
		promptStyle = lipgloss.NewStyle().Foreground(colors.Yellow).Bold(true)
	default:
		promptSymbol = "%"
		promptStyle = lipgloss.NewStyle().Foreground(colors.Teal).Bold(true)
	}
	styledPrompt := promptStyle.Render(promptSymbol)

	var inputContent string
	if isInsertMode {
		inputContent = lipgloss.JoinHorizontal(lipgloss.Left, styledPrompt, " ", i.textInput.View())
	} else {
		instruction := lipgloss.NewStyle().
			Foreground(colors.Overlay0).
			Render("Press 'i' to enter insert mode")
		inputContent = lipgloss.JoinHorizontal(lipgloss.Left, styledPrompt, " ", instruction)
	}

	// RoundedBorder and the horizontal padding take 4 columns
	adjustedWidth := i.terminalWidth - 4
	if adjustedWidth < 10 {
		adjustedWidth = 10
	}

	inputStyle := styles.InputStyle.
		Width(adjustedWidth).
		AlignHorizontal(lipgloss.Left)
	if isInsertMode {
		inputStyle = inputStyle.BorderForeground(colors.Green)
	}

	return inputStyle.Render(inputContent)
}

// AddToHistory records a sent entry.
func (i *Input) AddToHistory(command string) {
	i.history.Add(command)
}

func (i *Input) History() []string {
	return i.history.Entries()
}

// NavigateHistoryUp moves up in command history
func (i *Input) NavigateHistoryUp() {
	if v, ok := i.history.Prev(i.textInput.Value()); ok {
		i.textInput.SetValue(v)
	}
}

// NavigateHistoryDown moves down in command history
func (i *Input) NavigateHistoryDown() {
	if v, ok := i.history.Next(); ok {
		i.textInput.SetValue(v)
	}
}
