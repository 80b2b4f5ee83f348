package grid

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Kind is the logical type of a column.
type Kind string

const (
	// KindString holds bounded-length text. Size is the maximum rune count.
	KindString Kind = "String"

	// KindLong holds signed 64-bit integers.
	KindLong Kind = "Long"
)

// DefaultStringSize is used for String columns declared without a size.
const DefaultStringSize = 100

// ParseKind converts a descriptor type name into a Kind.
// Matching is case-sensitive, as in "String:name" and "Long:name".
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindString, KindLong:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown column type %q (want String or Long)", s)
	}
}

// Column is a named, typed column. When used to carry data, exactly one of
// Strings or Longs is populated according to Kind.
type Column struct {
	Name        string
	Kind        Kind
	Size        int
	Description string

	Strings []string
	Longs   []int64
}

// StringColumn returns an empty String column definition.
func StringColumn(name string, size int) Column {
	return Column{Name: name, Kind: KindString, Size: size}
}

// LongColumn returns an empty Long column definition.
func LongColumn(name string) Column {
	return Column{Name: name, Kind: KindLong}
}

// Len returns the number of values held by the column.
func (c Column) Len() int {
	if c.Kind == KindString {
		return len(c.Strings)
	}
	return len(c.Longs)
}

// Value returns the i-th value as a string or int64.
func (c Column) Value(i int) any {
	if c.Kind == KindString {
		return c.Strings[i]
	}
	return c.Longs[i]
}

// Header returns a copy of the column definition without values.
func (c Column) Header() Column {
	return Column{Name: c.Name, Kind: c.Kind, Size: c.Size, Description: c.Description}
}

// Append adds one value. String columns accept string; Long columns accept
// int64, int, or int32.
func (c *Column) Append(v any) error {
	switch c.Kind {
	case KindString:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("column %s: expected string, got %T", c.Name, v)
		}
		c.Strings = append(c.Strings, s)
	case KindLong:
		switch n := v.(type) {
		case int64:
			c.Longs = append(c.Longs, n)
		case int:
			c.Longs = append(c.Longs, int64(n))
		case int32:
			c.Longs = append(c.Longs, int64(n))
		default:
			return fmt.Errorf("column %s: expected integer, got %T", c.Name, v)
		}
	default:
		return fmt.Errorf("column %s: unknown kind %q", c.Name, c.Kind)
	}
	return nil
}

// AppendText parses s according to the column kind and appends it.
func (c *Column) AppendText(s string) error {
	if c.Kind == KindLong {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return fmt.Errorf("column %s: %q is not a Long", c.Name, s)
		}
		c.Longs = append(c.Longs, n)
		return nil
	}
	return c.Append(s)
}

// ValidateDefinition checks the definition fields only.
func (c Column) ValidateDefinition() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("column name is required")
	}
	if _, err := ParseKind(string(c.Kind)); err != nil {
		return fmt.Errorf("column %s: %w", c.Name, err)
	}
	if c.Kind == KindString && c.Size <= 0 {
		return fmt.Errorf("column %s: String size must be positive, got %d", c.Name, c.Size)
	}
	if c.Kind == KindLong && c.Size != 0 {
		return fmt.Errorf("column %s: size is only valid for String columns", c.Name)
	}
	return nil
}

// ValidateValues checks that held values respect the definition.
func (c Column) ValidateValues() error {
	if c.Kind == KindString {
		if len(c.Longs) > 0 {
			return fmt.Errorf("column %s: String column carries Long values", c.Name)
		}
		for i, s := range c.Strings {
			if n := utf8.RuneCountInString(s); n > c.Size {
				return fmt.Errorf("column %s: value %d has length %d, exceeds size %d", c.Name, i, n, c.Size)
			}
		}
		return nil
	}
	if len(c.Strings) > 0 {
		return fmt.Errorf("column %s: Long column carries String values", c.Name)
	}
	return nil
}

// Headers returns value-free copies of the given columns.
func Headers(cols []Column) []Column {
	out := make([]Column, len(cols))
	for i, c := range cols {
		out[i] = c.Header()
	}
	return out
}

// RowCount returns the common value count of cols, or an error when the
// columns disagree.
func RowCount(cols []Column) (int, error) {
	if len(cols) == 0 {
		return 0, nil
	}
	n := cols[0].Len()
	for _, c := range cols[1:] {
		if c.Len() != n {
			return 0, fmt.Errorf("column %s has %d values, column %s has %d", cols[0].Name, n, c.Name, c.Len())
		}
	}
	return n, nil
}

// Data is a block of rows read from a table, addressed by row number.
type Data struct {
	Columns    []Column
	RowNumbers []int64
}

// Len returns the number of rows.
func (d *Data) Len() int {
	if d == nil {
		return 0
	}
	return len(d.RowNumbers)
}

// Names returns the column names in order.
func (d *Data) Names() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Rows transposes the column data into row-major order.
func (d *Data) Rows() [][]any {
	rows := make([][]any, d.Len())
	for i := range rows {
		row := make([]any, len(d.Columns))
		for j, c := range d.Columns {
			row[j] = c.Value(i)
		}
		rows[i] = row
	}
	return rows
}
