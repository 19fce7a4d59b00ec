package style

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Align controls horizontal alignment of a table column.
type Align int

// Column alignments.
const (
	AlignLeft Align = iota
	AlignRight
	AlignCenter
)

// Column describes one table column.
type Column struct {
	Name  string
	Width int
	Align Align
	Style *lipgloss.Style // nil renders plain
}

// Table renders fixed-width rows for reports such as value counts.
type Table struct {
	columns   []Column
	rows      [][]string
	indent    string
	separator bool
}

// NewTable creates a table with the given columns.
func NewTable(columns ...Column) *Table {
	return &Table{
		columns:   columns,
		indent:    "  ",
		separator: true,
	}
}

// SetIndent sets the prefix written before every line.
func (t *Table) SetIndent(indent string) *Table {
	t.indent = indent
	return t
}

// SetHeaderSeparator toggles the line under the header.
func (t *Table) SetHeaderSeparator(on bool) *Table {
	t.separator = on
	return t
}

// AddRow appends a row. Missing trailing values render empty.
func (t *Table) AddRow(values ...string) *Table {
	row := make([]string, len(t.columns))
	copy(row, values)
	t.rows = append(t.rows, row)
	return t
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.rows) }

// Render returns the table as a string, one line per row.
func (t *Table) Render() string {
	if len(t.columns) == 0 {
		return ""
	}

	var b strings.Builder

	b.WriteString(t.indent)
	total := 0
	for i, col := range t.columns {
		if i > 0 {
			b.WriteString("  ")
			total += 2
		}
		name := truncate(col.Name, col.Width)
		b.WriteString(t.pad(Bold.Render(name), name, col.Width, col.Align))
		total += col.Width
	}
	b.WriteByte('\n')

	if t.separator {
		b.WriteString(t.indent)
		b.WriteString(Dim.Render(strings.Repeat("─", total)))
		b.WriteByte('\n')
	}

	for _, row := range t.rows {
		b.WriteString(t.indent)
		for i, col := range t.columns {
			if i > 0 {
				b.WriteString("  ")
			}
			val := truncate(row[i], col.Width)
			styled := val
			if col.Style != nil {
				styled = col.Style.Render(val)
			}
			b.WriteString(t.pad(styled, val, col.Width, col.Align))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// pad pads styled to width using the display width of plain.
func (t *Table) pad(styled, plain string, width int, align Align) string {
	gap := width - lipgloss.Width(plain)
	if gap <= 0 {
		return styled
	}
	switch align {
	case AlignRight:
		return strings.Repeat(" ", gap) + styled
	case AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + styled + strings.Repeat(" ", gap-left)
	default:
		return styled + strings.Repeat(" ", gap)
	}
}

// truncate shortens s to width display cells, ending with "...".
func truncate(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	if width <= 3 {
		return strings.Repeat(".", width)
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+3 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripAnsi(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}
