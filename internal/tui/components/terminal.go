package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/allbin/go-serialscope/monitor"
	"github.com/allbin/go-serialscope/numeric"
)

// entry is one displayed line: a frame or a notice.
type entry struct {
	record *monitor.Record
	notice NoticeMsg
}

type Terminal struct {
	viewport  viewport.Model
	formatter *DataFormatter
	entries   []entry
	data      []string
	limit     int
}

func NewTerminal(width, height int) *Terminal {
	vp := viewport.New(width, height)
	return &Terminal{
		viewport:  vp,
		formatter: NewDataFormatter(numeric.FormatHex, numeric.FormatASCII),
		limit:     monitor.DefaultCapacity,
	}
}

// SetLimit caps the number of lines kept for display.
func (t *Terminal) SetLimit(n int) {
	if n > 0 {
		t.limit = n
	}
}

func (t *Terminal) SetSize(width, height int) {
	t.viewport.Width = width
	t.viewport.Height = height
}

func (t *Terminal) Formatter() *DataFormatter {
	return t.formatter
}

func (t *Terminal) AddRecord(r monitor.Record) {
	t.push(entry{record: &r}, t.formatter.FormatRecord(r))
}

func (t *Terminal) AddNotice(msg NoticeMsg) {
	t.push(entry{notice: msg}, t.formatter.FormatNotice(msg))
}

func (t *Terminal) push(e entry, line string) {
	t.entries = append(t.entries, e)
	t.data = append(t.data, line)
	if over := len(t.entries) - t.limit; over > 0 {
		t.entries = append(t.entries[:0], t.entries[over:]...)
		t.data = append(t.data[:0], t.data[over:]...)
	}
	t.viewport.SetContent(strings.Join(t.data, "\n"))
	t.viewport.GotoBottom()
}

// Lines returns the rendered lines.
func (t *Terminal) Lines() []string {
	return append([]string(nil), t.data...)
}

// Refresh re-renders every line, after a display toggle.
func (t *Terminal) Refresh() {
	t.data = t.data[:0]
	for _, e := range t.entries {
		if e.record != nil {
			t.data = append(t.data, t.formatter.FormatRecord(*e.record))
		} else {
			t.data = append(t.data, t.formatter.FormatNotice(e.notice))
		}
	}
	t.viewport.SetContent(strings.Join(t.data, "\n"))
	t.viewport.GotoBottom()
}

func (t *Terminal) Clear() {
	t.entries = nil
	t.data = nil
	t.viewport.SetContent("")
}

func (t *Terminal) Toggle(f numeric.Format) {
	t.formatter.Toggle(f)
	t.Refresh()
}

func (t *Terminal) ToggleTimestamps() {
	t.formatter.ToggleTimestamps()
	t.Refresh()
}

func (t *Terminal) ToggleModbus() {
	t.formatter.ToggleModbus()
	t.Refresh()
}

func (t *Terminal) GetDisplayMode() DisplayMode {
	return t.formatter.GetDisplayMode()
}

func (t *Terminal) Update(msg tea.Msg) (viewport.Model, tea.Cmd) {
	// Only pass certain message types to viewport to prevent it from consuming our key bindings
	switch msg.(type) {
	case tea.WindowSizeMsg, tea.MouseMsg:
		var cmd tea.Cmd
		t.viewport, cmd = t.viewport.Update(msg)
		return t.viewport, cmd
	default:
		return t.viewport, nil
	}
}

func (t *Terminal) View() string {
	return t.viewport.View()
}
