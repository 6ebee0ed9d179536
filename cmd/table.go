/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"

	"github.com/allbin/go-serialscope/internal/tui/colors"
)

// column describes one column of a static report table.
type column struct {
	key   string
	title string
	width int
}

// renderTable renders rows, keyed by column key, as a bordered table for
// plain command output.
func renderTable(columns []column, rows []map[string]any) string {
	cols := make([]table.Column, 0, len(columns))
	for _, c := range columns {
		cols = append(cols, table.NewColumn(c.key, c.title, c.width))
	}

	tableRows := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, table.NewRow(table.RowData(r)))
	}

	return table.New(cols).
		WithRows(tableRows).
		BorderRounded().
		HeaderStyle(lipgloss.NewStyle().Bold(true).Foreground(colors.Mauve)).
		WithBaseStyle(lipgloss.NewStyle().Align(lipgloss.Left).BorderForeground(colors.Surface2)).
		View()
}
