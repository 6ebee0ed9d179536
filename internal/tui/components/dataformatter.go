package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/allbin/go-serialscope/internal/tui/styles"
	"github.com/allbin/go-serialscope/modbus"
	"github.com/allbin/go-serialscope/monitor"
	"github.com/allbin/go-serialscope/numeric"
	"github.com/allbin/go-serialscope/stream"
)

// FrameMsg carries a completed frame from the session to the UI.
type FrameMsg struct {
	Record monitor.Record
}

// NoticeMsg is a line of status text shown between frames, such as a
// rejected input or a write error.
type NoticeMsg struct {
	Timestamp time.Time
	Text      string
	IsError   bool
}

// viewOrder is the left to right order of the byte views.
var viewOrder = []numeric.Format{
	numeric.FormatHex,
	numeric.FormatDecimal,
	numeric.FormatOctal,
	numeric.FormatBinary,
	numeric.FormatASCII,
}

var viewLabels = map[numeric.Format]string{
	numeric.FormatHex:     "HEX",
	numeric.FormatDecimal: "DEC",
	numeric.FormatOctal:   "OCT",
	numeric.FormatBinary:  "BIN",
	numeric.FormatASCII:   "ASCII",
}

type DisplayMode struct {
	Views          map[numeric.Format]bool
	ShowTimestamps bool
	ShowModbus     bool
}

// Has reports whether view f is shown.
func (d DisplayMode) Has(f numeric.Format) bool { return d.Views[f] }

// Enabled returns the shown views in display order.
func (d DisplayMode) Enabled() []numeric.Format {
	var out []numeric.Format
	for _, f := range viewOrder {
		if d.Views[f] {
			out = append(out, f)
		}
	}
	return out
}

type DataFormatter struct {
	mode DisplayMode
}

// NewDataFormatter shows the given views with timestamps on.
func NewDataFormatter(views ...numeric.Format) *DataFormatter {
	df := &DataFormatter{mode: DisplayMode{Views: map[numeric.Format]bool{}, ShowTimestamps: true}}
	for _, f := range views {
		df.mode.Views[f] = true
	}
	return df
}

func (df *DataFormatter) GetDisplayMode() DisplayMode {
	views := make(map[numeric.Format]bool, len(df.mode.Views))
	for f, on := range df.mode.Views {
		views[f] = on
	}
	mode := df.mode
	mode.Views = views
	return mode
}

// Toggle shows or hides one byte view.
func (df *DataFormatter) Toggle(f numeric.Format) {
	df.mode.Views[f] = !df.mode.Views[f]
}

func (df *DataFormatter) ToggleTimestamps() {
	df.mode.ShowTimestamps = !df.mode.ShowTimestamps
}

func (df *DataFormatter) ToggleModbus() {
	df.mode.ShowModbus = !df.mode.ShowModbus
}

func (df *DataFormatter) SetModbus(on bool) {
	df.mode.ShowModbus = on
}

func directionIndicator(dir stream.Direction) string {
	arrow := "↙"
	if dir == stream.TX {
		arrow = "↗"
	}
	return styles.DirectionStyle(dir).Render(arrow + " " + dir.String())
}

func (df *DataFormatter) timestamp(ts time.Time) string {
	if !df.mode.ShowTimestamps {
		return ""
	}
	return styles.TimestampStyle.Render(fmt.Sprintf("[%s] ", ts.Format("15:04:05.000")))
}

// FormatRecord renders one frame as a single line with every enabled view.
// Bytes covered by a highlight match are drawn in the rule's color.
func (df *DataFormatter) FormatRecord(r monitor.Record) string {
	data := r.Frame.Bytes()

	var parts []string
	for _, f := range df.mode.Enabled() {
		parts = append(parts, fmt.Sprintf("%s: %s", viewLabels[f], RenderView(data, f, r.Matches)))
	}
	if len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("BYTES: %d", len(data)))
	}
	if df.mode.ShowModbus {
		parts = append(parts, "MODBUS: "+ModbusSummary(r.Modbus()))
	}

	seq := styles.SeqStyle.Render(fmt.Sprintf("#%d", r.Seq))
	return fmt.Sprintf("%s%s %s: %s", df.timestamp(r.Frame.Timestamp()), directionIndicator(r.Frame.Direction()), seq, strings.Join(parts, "  "))
}

// FormatNotice renders a status line.
func (df *DataFormatter) FormatNotice(msg NoticeMsg) string {
	style := styles.NoticeStyle
	if msg.IsError {
		style = styles.ErrorStyle
	}
	return df.timestamp(msg.Timestamp) + style.Render(msg.Text)
}

// RenderView renders data in format f, coloring bytes inside matches.
func RenderView(data []byte, f numeric.Format, matches []monitor.Match) string {
	if len(matches) == 0 {
		return numeric.FormatBytes(data, f)
	}
	sep := " "
	if f == numeric.FormatASCII {
		sep = ""
	}
	var sb strings.Builder
	for i, c := range data {
		if i > 0 {
			sb.WriteString(sep)
		}
		tok := numeric.FormatByte(c, f)
		if m, ok := matchAt(matches, i); ok {
			tok = styles.HighlightStyle(m.Rule, m.Color).Render(tok)
		}
		sb.WriteString(tok)
	}
	return sb.String()
}

func matchAt(matches []monitor.Match, i int) (monitor.Match, bool) {
	for _, m := range matches {
		if i >= m.Offset && i < m.End() {
			return m, true
		}
	}
	return monitor.Match{}, false
}

// ModbusSummary describes a frame read as Modbus RTU.
func ModbusSummary(resp modbus.Response) string {
	if resp.Validity != modbus.Ok {
		return resp.Validity.String()
	}
	s := fmt.Sprintf("slave %d %s", resp.SlaveID, resp.Function)
	if resp.IsException() {
		s += " " + resp.Exception.String()
	}
	return s
}
