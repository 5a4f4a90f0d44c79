package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// columnGap separates table columns.
const columnGap = "  "

// TableColumn defines a column in a table. A zero Width sizes the column
// to its widest cell; a positive Width truncates longer cells.
type TableColumn struct {
	Name  string
	Width int
}

// Table buffers rows and renders them as aligned columns.
type Table struct {
	w       io.Writer
	header  lipgloss.Style
	columns []TableColumn
	rows    [][]string
}

// NewTable creates a table with the given columns.
func NewTable(w io.Writer, columns []TableColumn) *Table {
	CheckNoColor()
	return &Table{
		w:       w,
		header:  lipgloss.NewStyle().Bold(true).Foreground(ColorMuted),
		columns: columns,
	}
}

// AddRow buffers one row. Missing trailing cells render empty.
func (t *Table) AddRow(values ...string) {
	row := make([]string, len(t.columns))
	for i := range t.columns {
		if i < len(values) {
			row[i] = values[i]
		}
		if limit := t.columns[i].Width; limit > 0 {
			row[i] = TruncateLabel(row[i], limit)
		}
	}
	t.rows = append(t.rows, row)
}

// Render writes the header and every buffered row.
func (t *Table) Render() error {
	widths := t.widths()

	names := make([]string, len(t.columns))
	for i, col := range t.columns {
		names[i] = col.Name
	}
	if _, err := fmt.Fprintln(t.w, t.header.Render(t.line(names, widths))); err != nil {
		return err
	}
	for _, row := range t.rows {
		if _, err := fmt.Fprintln(t.w, t.line(row, widths)); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) widths() []int {
	widths := make([]int, len(t.columns))
	for i, col := range t.columns {
		widths[i] = runewidth.StringWidth(col.Name)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	return widths
}

// line pads every cell but the last to its column width.
func (t *Table) line(cells []string, widths []int) string {
	var b strings.Builder
	for i, cell := range cells {
		if i > 0 {
			b.WriteString(columnGap)
		}
		if i == len(cells)-1 {
			b.WriteString(cell)
			continue
		}
		b.WriteString(runewidth.FillRight(cell, widths[i]))
	}
	return b.String()
}
