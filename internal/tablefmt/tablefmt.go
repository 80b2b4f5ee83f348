// Package tablefmt renders rows as plain-text tables:
//
//	 Id | Name
//	----+------
//	 1  | a
//	(1 row)
package tablefmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/width"

	"github.com/roach88/silo/internal/grid"
)

// Builder accumulates a header and rows of cells.
type Builder struct {
	headers []string
	rows    [][]string
}

// New returns a Builder with the given column headers.
func New(headers ...string) *Builder {
	return &Builder{headers: headers}
}

// Row appends one row. Missing cells render empty; extra cells are dropped.
func (b *Builder) Row(values ...any) {
	row := make([]string, len(b.headers))
	for i := range row {
		if i < len(values) {
			row[i] = Cell(values[i])
		}
	}
	b.rows = append(b.rows, row)
}

// Len returns the number of rows added.
func (b *Builder) Len() int {
	return len(b.rows)
}

// String renders the table.
func (b *Builder) String() string {
	var sb strings.Builder
	_ = b.Write(&sb)
	return sb.String()
}

// Write renders the table to w.
func (b *Builder) Write(w io.Writer) error {
	widths := make([]int, len(b.headers))
	for i, h := range b.headers {
		widths[i] = DisplayWidth(h)
	}
	for _, row := range b.rows {
		for i, c := range row {
			widths[i] = max(widths[i], DisplayWidth(c))
		}
	}

	var sb strings.Builder
	writeLine(&sb, b.headers, widths)
	for i, n := range widths {
		if i > 0 {
			sb.WriteByte('+')
		}
		sb.WriteString(strings.Repeat("-", n+2))
	}
	sb.WriteByte('\n')
	for _, row := range b.rows {
		writeLine(&sb, row, widths)
	}
	if len(b.rows) == 1 {
		sb.WriteString("(1 row)\n")
	} else {
		fmt.Fprintf(&sb, "(%d rows)\n", len(b.rows))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeLine(sb *strings.Builder, cells []string, widths []int) {
	var line strings.Builder
	for i, c := range cells {
		if i > 0 {
			line.WriteString("|")
		}
		line.WriteByte(' ')
		line.WriteString(c)
		line.WriteString(strings.Repeat(" ", widths[i]-DisplayWidth(c)+1))
	}
	sb.WriteString(strings.TrimRight(line.String(), " "))
	sb.WriteByte('\n')
}

// DisplayWidth returns the number of terminal cells s occupies.
// Wide and fullwidth runes count as two.
func DisplayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

// Cell formats a single value.
func Cell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	default:
		return fmt.Sprint(val)
	}
}

// Data renders table rows with a leading "Row #" column.
func Data(d *grid.Data) *Builder {
	b := New(append([]string{"Row #"}, d.Names()...)...)
	for i, row := range d.Rows() {
		b.Row(append([]any{d.RowNumbers[i]}, row...)...)
	}
	return b
}

// Files renders catalog file summaries.
func Files(files []grid.FileSummary) *Builder {
	b := New("Id", "Path", "Name", "Size")
	for _, f := range files {
		b.Row(f.ID, f.Path, f.Name, f.Size)
	}
	return b
}

// Columns renders column definitions.
func Columns(cols []grid.Column) *Builder {
	b := New("Name", "Type", "Size", "Description")
	for _, c := range cols {
		var size any
		if c.Kind == grid.KindString {
			size = c.Size
		}
		b.Row(c.Name, string(c.Kind), size, c.Description)
	}
	return b
}
