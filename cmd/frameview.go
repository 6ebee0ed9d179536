/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/allbin/go-serialscope/internal/tui/components"
	"github.com/allbin/go-serialscope/internal/tui/keys"
	"github.com/allbin/go-serialscope/internal/tui/models"
	"github.com/allbin/go-serialscope/internal/tui/styles"
	"github.com/allbin/go-serialscope/monitor"
	"github.com/allbin/go-serialscope/numeric"
)

var allViews = []numeric.Format{
	numeric.FormatHex,
	numeric.FormatDecimal,
	numeric.FormatOctal,
	numeric.FormatBinary,
	numeric.FormatASCII,
}

// displayFlags are the flags shared by the interactive commands.
type displayFlags struct {
	views        []string
	noTimestamps bool
	modbus       bool
	silence      time.Duration
	highlights   []string
	exportDir    string
}

func addDisplayFlags(cmd *cobra.Command, f *displayFlags) {
	cmd.Flags().StringSliceVar(&f.views, "view", []string{"hex", "ascii"}, "Byte views to show: hex, decimal, octal, binary, ascii")
	cmd.Flags().BoolVar(&f.noTimestamps, "no-timestamps", false, "Hide timestamps from output")
	cmd.Flags().BoolVar(&f.modbus, "modbus", false, "Use Modbus RTU frame timing and decode frames")
	cmd.Flags().DurationVar(&f.silence, "silence", 0, "Frame gap override (default 3.5 character times)")
	cmd.Flags().StringArrayVar(&f.highlights, "highlight", nil, "Highlight rule name=pattern[:text|hex|decimal], repeatable")
	cmd.Flags().StringVar(&f.exportDir, "export-dir", ".", "Directory for captures exported with 'e'")
}

func (f displayFlags) formats() ([]numeric.Format, error) {
	out := make([]numeric.Format, 0, len(f.views))
	for _, v := range f.views {
		format, err := numeric.ParseFormat(v)
		if err != nil {
			return nil, err
		}
		out = append(out, format)
	}
	return out, nil
}

// frameView is the frame display of the interactive commands: a live
// terminal in follow mode and a selectable frame table in visual mode.
type frameView struct {
	terminal  *components.Terminal
	table     *components.TerminalTable
	statusBar *components.StatusBar
	help      help.Model
	exportDir string
	width     int
	height    int
}

func newFrameView(title, portPath string, flags displayFlags, info components.ConnectionInfo, capacity int) (*frameView, error) {
	formats, err := flags.formats()
	if err != nil {
		return nil, err
	}

	terminal := components.NewTerminal(80, 20)
	terminal.SetLimit(capacity)
	formatter := terminal.Formatter()
	mode := formatter.GetDisplayMode()
	for _, f := range allViews {
		want := false
		for _, w := range formats {
			want = want || w == f
		}
		if mode.Has(f) != want {
			formatter.Toggle(f)
		}
	}
	if flags.noTimestamps {
		formatter.ToggleTimestamps()
	}
	formatter.SetModbus(flags.modbus)

	v := &frameView{
		terminal:  terminal,
		table:     components.NewTerminalTable(80, 20, formatter),
		statusBar: components.NewStatusBar(title, portPath),
		help:      help.New(),
		exportDir: flags.exportDir,
		width:     80,
		height:    20,
	}
	v.statusBar.SetConnecting()
	v.statusBar.SetConnectionInfo(&info)
	return v, nil
}

func (v *frameView) setSize(width, height int) {
	v.width, v.height = width, height
	v.terminal.SetSize(width, height)
	v.table.SetSize(width, tableHeight(height))
	v.statusBar.SetWidth(width)
}

func (v *frameView) addRecord(r monitor.Record) {
	v.terminal.AddRecord(r)
	if v.table.GetViewMode() == components.ViewModeVisual {
		v.table.AddRecord(r)
	}
}

func (v *frameView) notice(text string, isError bool) {
	v.terminal.AddNotice(components.NoticeMsg{Timestamp: time.Now(), Text: text, IsError: isError})
}

// handleStatus applies connection and session messages. It reports
// whether msg was one of them.
func (v *frameView) handleStatus(sm *models.SerialModel, msg tea.Msg) bool {
	switch msg := msg.(type) {
	case models.ConnectionStatusMsg:
		sm.SetConnected(msg.Connected)
		if msg.Error != nil {
			v.statusBar.SetDisconnected(msg.Error)
			v.notice(styles.GetStatusStyle(styles.StatusFailed).Render(msg.Error.Error()), true)
		} else {
			v.statusBar.SetConnected()
		}
	case models.SessionEndedMsg:
		sm.SetConnected(false)
		v.statusBar.SetDisconnected(msg.Error)
		if msg.Error != nil {
			v.notice(fmt.Sprintf("line closed: %v", msg.Error), true)
		} else {
			v.notice("line closed", false)
		}
	case components.FrameMsg:
		v.addRecord(msg.Record)
	case components.StatsMsg:
		v.statusBar.SetStats(msg)
	default:
		return false
	}
	return true
}

// handleKey applies the display keys available outside insert mode.
func (v *frameView) handleKey(sm *models.SerialModel, k keys.TerminalKeys, msg tea.KeyMsg) bool {
	switch {
	case key.Matches(msg, k.Help):
		v.help.ShowAll = !v.help.ShowAll
	case key.Matches(msg, k.Clear):
		sm.ClearData()
		v.terminal.Clear()
		v.table.Clear()
	case key.Matches(msg, k.ToggleHex):
		v.toggle(numeric.FormatHex)
	case key.Matches(msg, k.ToggleDecimal):
		v.toggle(numeric.FormatDecimal)
	case key.Matches(msg, k.ToggleOctal):
		v.toggle(numeric.FormatOctal)
	case key.Matches(msg, k.ToggleBinary):
		v.toggle(numeric.FormatBinary)
	case key.Matches(msg, k.ToggleASCII):
		v.toggle(numeric.FormatASCII)
	case key.Matches(msg, k.ToggleTimestamps):
		v.terminal.ToggleTimestamps()
		v.table.Refresh()
	case key.Matches(msg, k.ToggleModbus):
		v.terminal.ToggleModbus()
		v.table.Refresh()
	case key.Matches(msg, k.VisualMode):
		v.table.SetRecords(sm.Session().History())
		v.table.SetViewMode(components.ViewModeVisual)
		sm.SetInputMode(models.InputModeVisual)
	case key.Matches(msg, k.Escape) && sm.IsInVisualMode():
		v.table.SetViewMode(components.ViewModeFollow)
		sm.SetInputMode(models.InputModeNormal)
	case key.Matches(msg, k.GotoTop) && sm.IsInVisualMode():
		v.table.GotoTop()
	case key.Matches(msg, k.GotoBottom) && sm.IsInVisualMode():
		v.table.GotoBottom()
	case key.Matches(msg, k.Export):
		v.export(sm)
	default:
		if sm.IsInVisualMode() {
			v.table.Update(msg)
			return true
		}
		return false
	}
	return true
}

func (v *frameView) toggle(f numeric.Format) {
	v.terminal.Toggle(f)
	v.table.Refresh()
}

func (v *frameView) export(sm *models.SerialModel) {
	name := fmt.Sprintf("capture-%s.yaml", time.Now().Format("20060102-150405"))
	path := filepath.Join(v.exportDir, name)
	if err := sm.ExportCapture(path, v.terminal.GetDisplayMode().ShowModbus); err != nil {
		v.notice(fmt.Sprintf("export failed: %v", err), true)
		return
	}
	v.notice(styles.GetStatusStyle(styles.StatusOK).Render("exported "+path), false)
}

// content renders the frame area, with the frame detail pane in visual
// mode.
func (v *frameView) content(sm *models.SerialModel) string {
	if !sm.IsReady() {
		return "Initializing..."
	}
	if !sm.IsInVisualMode() {
		return v.terminal.View()
	}
	detail := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Width(v.width - 4).
		Render(v.table.Detail())
	return lipgloss.JoinVertical(lipgloss.Left, v.table.View(), detail)
}

// tableHeight leaves room for the detail pane under the table.
func tableHeight(height int) int {
	const detailHeight = 10
	if height-detailHeight < 5 {
		return 5
	}
	return height - detailHeight
}

func (v *frameView) layout(sm *models.SerialModel, km help.KeyMap, inputMode, sendingMode string, extra ...string) string {
	viewMode := v.table.GetViewMode().String()
	statusBar := v.statusBar.ComprehensiveStatusBar(inputMode, sendingMode, viewMode, sm.IsConnected(), time.Now().Format("15:04:05"))

	parts := []string{styles.ContentBorderStyle.Render(v.content(sm))}
	parts = append(parts, extra...)
	if v.help.ShowAll {
		helpStyle := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2).
			Margin(1, 0)
		parts = append(parts, helpStyle.Render(v.help.View(km)))
	}
	parts = append(parts, statusBar)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
