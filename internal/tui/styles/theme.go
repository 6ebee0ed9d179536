package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/go-serialscope/internal/tui/colors"
	"github.com/allbin/go-serialscope/stream"
)

var (
	// Header styles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve).
			Background(colors.Surface0).
			Padding(0, 1)

	// Result styles
	OKStyle = lipgloss.NewStyle().
		Foreground(colors.Green).
		Bold(true)

	FailStyle = lipgloss.NewStyle().
			Foreground(colors.Red).
			Bold(true)

	PendingStyle = lipgloss.NewStyle().
			Foreground(colors.Yellow).
			Bold(true)

	// Frame line styles
	RXStyle = lipgloss.NewStyle().
		Foreground(colors.Sky).
		Bold(true)

	TXStyle = lipgloss.NewStyle().
		Foreground(colors.Peach).
		Bold(true)

	TimestampStyle = lipgloss.NewStyle().Foreground(colors.Subtext0)
	SeqStyle       = lipgloss.NewStyle().Foreground(colors.Overlay1)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(colors.Overlay2).
			Italic(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(colors.Red).
			Italic(true)

	// Content area styles
	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(colors.Surface1)

	// Input styles
	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Surface2).
			Padding(0, 1)

	// Info styles
	InfoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve)
)

// Status is the outcome shown next to a check, transaction or connection.
type Status int

const (
	StatusOK Status = iota
	StatusFailed
	StatusPending
)

func GetStatusStyle(status Status) lipgloss.Style {
	switch status {
	case StatusOK:
		return OKStyle
	case StatusPending:
		return PendingStyle
	default:
		return FailStyle
	}
}

// DirectionStyle colors a frame's RX/TX marker.
func DirectionStyle(dir stream.Direction) lipgloss.Style {
	if dir == stream.TX {
		return TXStyle
	}
	return RXStyle
}

// HighlightStyle draws bytes covered by a highlight rule. Rules without a
// color get one from the highlight palette by name.
func HighlightStyle(rule, color string) lipgloss.Style {
	c := lipgloss.Color(color)
	if color == "" {
		c = colors.ForRule(rule)
	}
	return lipgloss.NewStyle().Foreground(c).Bold(true).Underline(true)
}
