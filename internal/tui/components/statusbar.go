package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	serial "github.com/allbin/go-serialscope"
	"github.com/allbin/go-serialscope/internal/tui/colors"
	"github.com/allbin/go-serialscope/internal/tui/styles"
	"github.com/allbin/go-serialscope/monitor"
)

// StatsMsg asks the status bar to show new session totals.
type StatsMsg struct {
	Stats   monitor.Stats
	Pending int
}

type ConnectionInfo struct {
	Config  serial.Config
	Silence time.Duration
}

func (ci ConnectionInfo) String() string {
	s := fmt.Sprintf("⚡ %s", ci.Config)
	if ci.Config.FlowControl != serial.FlowControlNone {
		s += " " + ci.Config.FlowControl.String()
	}
	if ci.Silence > 0 {
		s += fmt.Sprintf(" gap %s", ci.Silence.Round(time.Microsecond))
	}
	return s
}

// LineState is the state of the line as shown by the status bar.
type LineState int

const (
	LineConnecting LineState = iota
	LineOpen
	LineClosed
	LineFailed
)

func (s LineState) indicator() (string, styles.Status) {
	switch s {
	case LineOpen:
		return "●", styles.StatusOK
	case LineConnecting:
		return "○", styles.StatusPending
	case LineFailed:
		return "✗", styles.StatusFailed
	default:
		return "○", styles.StatusFailed
	}
}

// modeColors are the backgrounds of the input mode badge.
var modeColors = map[string]lipgloss.Color{
	"NORMAL": colors.Blue,
	"INSERT": colors.Green,
	"VISUAL": colors.Mauve,
}

// titleMinWidth is the bar width from which the command title is shown.
const titleMinWidth = 120

type StatusBar struct {
	title          string
	portPath       string
	state          LineState
	err            error
	width          int
	connectionInfo *ConnectionInfo
	stats          monitor.Stats
	pending        int
}

func NewStatusBar(title, portPath string) *StatusBar {
	return &StatusBar{
		title:    title,
		portPath: portPath,
		state:    LineConnecting,
	}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) SetConnectionInfo(info *ConnectionInfo) {
	sb.connectionInfo = info
}

func (sb *StatusBar) SetStats(msg StatsMsg) {
	sb.stats = msg.Stats
	sb.pending = msg.Pending
}

func (sb *StatusBar) SetConnecting() {
	sb.state, sb.err = LineConnecting, nil
}

func (sb *StatusBar) SetConnected() {
	sb.state, sb.err = LineOpen, nil
}

// SetDisconnected marks the line closed, or failed when err is set.
func (sb *StatusBar) SetDisconnected(err error) {
	sb.state, sb.err = LineClosed, err
	if err != nil {
		sb.state = LineFailed
	}
}

func (sb *StatusBar) State() LineState { return sb.state }

// Err is the error that closed the line, if any.
func (sb *StatusBar) Err() error { return sb.err }

// StatsText summarizes the session totals.
func (sb *StatusBar) StatsText() string {
	s := fmt.Sprintf("RX %d/%dB TX %d/%dB", sb.stats.RXFrames, sb.stats.RXBytes, sb.stats.TXFrames, sb.stats.TXBytes)
	if sb.stats.Matches > 0 {
		s += fmt.Sprintf(" ★%d", sb.stats.Matches)
	}
	if sb.pending > 0 {
		s += fmt.Sprintf(" …%dB", sb.pending)
	}
	return s
}

func segment(fg lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(fg).Padding(0, 1)
}

// ComprehensiveStatusBar renders the bottom bar: input mode, port and
// line state on the left, line settings, totals and clock on the right.
// sendingMode is shown in insert mode and viewMode when non-empty.
func (sb *StatusBar) ComprehensiveStatusBar(inputMode, sendingMode, viewMode string, connected bool, timestamp string) string {
	width := sb.width
	if width <= 0 {
		width = 80
	}

	modeText := inputMode
	bg, ok := modeColors[modeText]
	if !ok {
		modeText, bg = "NORMAL", modeColors["NORMAL"]
	}
	mode := lipgloss.NewStyle().
		Foreground(colors.Base).
		Background(bg).
		Bold(true).
		Padding(0, 1).
		Render(modeText)

	state := sb.state
	if connected && state != LineFailed {
		state = LineOpen
	}
	symbol, status := state.indicator()

	divider := segment(colors.Surface2).Render("│")

	var left []string
	if width >= titleMinWidth && sb.title != "" {
		left = append(left, styles.TitleStyle.Render(sb.title))
	}
	left = append(left,
		mode,
		segment(colors.Mauve).Bold(true).Render(sb.portPath),
		styles.GetStatusStyle(status).UnsetBold().Render(symbol),
	)
	if inputMode == "INSERT" && sendingMode != "" {
		left = append(left, segment(colors.Peach).Bold(true).Render(fmt.Sprintf("[%s] Tab to toggle", sendingMode)))
	}
	if viewMode != "" {
		left = append(left, segment(colors.Lavender).Render(viewMode))
	}
	left = append(left, divider)
	leftSide := lipgloss.JoinHorizontal(lipgloss.Left, left...)

	info := "⚡ serial"
	if sb.connectionInfo != nil {
		info = sb.connectionInfo.String()
	}
	rightSide := lipgloss.JoinHorizontal(lipgloss.Left,
		segment(colors.Subtext0).Render(info),
		divider,
		segment(colors.Teal).Render(sb.StatsText()),
		divider,
		segment(colors.Subtext1).Render(timestamp),
	)

	spacerWidth := max(width-lipgloss.Width(leftSide)-lipgloss.Width(rightSide), 1)
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	return lipgloss.NewStyle().
		Foreground(colors.Text).
		Background(colors.Surface0).
		Width(width).
		Render(lipgloss.JoinHorizontal(lipgloss.Left, leftSide, spacer, rightSide))
}
