package components

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/go-serialscope/internal/tui/colors"
	"github.com/allbin/go-serialscope/monitor"
	"github.com/allbin/go-serialscope/numeric"
	"github.com/allbin/go-serialscope/stream"
)

type ViewMode int

const (
	ViewModeFollow ViewMode = iota
	ViewModeVisual
)

func (v ViewMode) String() string {
	if v == ViewModeVisual {
		return "VISUAL"
	}
	return "FOLLOW"
}

// TerminalTable lists frames one per row so a single frame can be
// selected and inspected in every view.
type TerminalTable struct {
	table     table.Model
	formatter *DataFormatter
	viewMode  ViewMode
	records   []monitor.Record
	width     int
}

func NewTerminalTable(width, height int, formatter *DataFormatter) *TerminalTable {
	if width < 80 {
		width = 80
	}
	if height < 5 {
		height = 5
	}
	if formatter == nil {
		formatter = NewDataFormatter(numeric.FormatHex, numeric.FormatASCII)
	}

	t := table.New(
		table.WithFocused(false),
		table.WithHeight(height),
		table.WithWidth(width),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colors.Subtext0).
		BorderBottom(true).
		Bold(true).
		Foreground(colors.Text)
	s.Selected = s.Selected.
		Foreground(colors.Text).
		Background(colors.Surface1).
		Bold(false)
	t.SetStyles(s)

	tt := &TerminalTable{
		table:     t,
		formatter: formatter,
		viewMode:  ViewModeFollow,
		width:     width,
	}
	tt.updateColumns()
	return tt
}

func (tt *TerminalTable) SetSize(width, height int) {
	if width < 80 {
		width = 80
	}
	tt.width = width
	tt.updateColumns()
	tt.table.SetHeight(height)
	tt.table.SetWidth(width)
	tt.table.UpdateViewport()
}

// dataFormat is the view shown in the data column: the first enabled
// one, hex when none is.
func (tt *TerminalTable) dataFormat() numeric.Format {
	if views := tt.formatter.GetDisplayMode().Enabled(); len(views) > 0 {
		return views[0]
	}
	return numeric.FormatHex
}

func (tt *TerminalTable) updateColumns() {
	const (
		seqWidth  = 7
		timeWidth = 13
		dirWidth  = 3
		lenWidth  = 5
	)
	showModbus := tt.formatter.GetDisplayMode().ShowModbus

	remaining := tt.width - seqWidth - timeWidth - dirWidth - lenWidth - 12
	modbusWidth := 0
	if showModbus {
		modbusWidth = remaining * 4 / 10
		remaining -= modbusWidth
	}
	if remaining < 20 {
		remaining = 20
	}

	columns := []table.Column{
		{Title: "#", Width: seqWidth},
		{Title: "Time", Width: timeWidth},
		{Title: "↕", Width: dirWidth},
		{Title: "Len", Width: lenWidth},
		{Title: strings.ToUpper(tt.dataFormat().String()), Width: remaining},
	}
	if showModbus {
		columns = append(columns, table.Column{Title: "Modbus", Width: modbusWidth})
	}

	// Rows must match the new column count before the columns change
	tt.table.SetRows(nil)
	tt.table.SetColumns(columns)
	tt.refreshTable()
}

func (tt *TerminalTable) AddRecord(r monitor.Record) {
	tt.records = append(tt.records, r)
	tt.refreshTable()
	if tt.viewMode == ViewModeFollow {
		tt.table.GotoBottom()
	}
}

// SetRecords replaces the rows, typically with the session history.
func (tt *TerminalTable) SetRecords(records []monitor.Record) {
	tt.records = records
	tt.refreshTable()
	if tt.viewMode == ViewModeFollow {
		tt.table.GotoBottom()
	}
}

func (tt *TerminalTable) refreshTable() {
	rows := make([]table.Row, len(tt.records))
	for i, r := range tt.records {
		rows[i] = tt.recordRow(r)
	}
	tt.table.SetRows(rows)
	tt.table.UpdateViewport()
}

func (tt *TerminalTable) recordRow(r monitor.Record) table.Row {
	direction := "↙"
	if r.Frame.Direction() == stream.TX {
		direction = "↗"
	}
	row := table.Row{
		strconv.FormatUint(r.Seq, 10),
		r.Frame.Timestamp().Format("15:04:05.000"),
		direction,
		strconv.Itoa(r.Frame.Len()),
		r.View(tt.dataFormat()),
	}
	if tt.formatter.GetDisplayMode().ShowModbus {
		row = append(row, ModbusSummary(r.Modbus()))
	}
	return row
}

// Selected returns the frame under the cursor.
func (tt *TerminalTable) Selected() (monitor.Record, bool) {
	i := tt.table.Cursor()
	if i < 0 || i >= len(tt.records) {
		return monitor.Record{}, false
	}
	return tt.records[i], true
}

// Detail renders the selected frame in every view with its matches.
func (tt *TerminalTable) Detail() string {
	r, ok := tt.Selected()
	if !ok {
		return ""
	}
	data := r.Frame.Bytes()
	label := lipgloss.NewStyle().Foreground(colors.Mauve).Bold(true)

	lines := []string{label.Render(fmt.Sprintf("Frame #%d  %s  %d bytes", r.Seq, r.Frame.Direction(), len(data)))}
	for _, f := range viewOrder {
		lines = append(lines, fmt.Sprintf("%-6s %s", viewLabels[f], RenderView(data, f, r.Matches)))
	}
	for _, m := range r.Matches {
		lines = append(lines, fmt.Sprintf("match  %s at %d..%d", m.Rule, m.Offset, m.End()))
	}
	lines = append(lines, "MODBUS "+ModbusSummary(r.Modbus()))
	return strings.Join(lines, "\n")
}

func (tt *TerminalTable) Clear() {
	tt.records = nil
	tt.table.SetRows([]table.Row{})
}

// Refresh rebuilds the columns after a display toggle.
func (tt *TerminalTable) Refresh() {
	tt.updateColumns()
}

func (tt *TerminalTable) GetViewMode() ViewMode {
	return tt.viewMode
}

func (tt *TerminalTable) SetViewMode(mode ViewMode) {
	tt.viewMode = mode
	if mode == ViewModeFollow {
		if len(tt.records) > 0 {
			tt.table.SetCursor(len(tt.records) - 1)
		}
		tt.table.GotoBottom()
		tt.table.Blur()
	} else {
		tt.table.Focus()
	}
	tt.table.UpdateViewport()
}

func (tt *TerminalTable) GotoTop()    { tt.table.GotoTop() }
func (tt *TerminalTable) GotoBottom() { tt.table.GotoBottom() }

func (tt *TerminalTable) Init() tea.Cmd {
	return nil
}

func (tt *TerminalTable) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	// Only allow table navigation in visual mode
	if tt.viewMode == ViewModeVisual {
		tt.table, cmd = tt.table.Update(msg)
	}

	return tt, cmd
}

func (tt *TerminalTable) View() string {
	return tt.table.View()
}
