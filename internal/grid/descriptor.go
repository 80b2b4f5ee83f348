package grid

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseDescriptor parses a column descriptor of the form
//
//	Type:name[:param=value[:param=value...]]
//
// where Type is String or Long. String accepts size (default 100); both kinds
// accept description. A parameter without "=" has an empty value.
func ParseDescriptor(s string) (Column, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || parts[1] == "" {
		return Column{}, fmt.Errorf("invalid column descriptor %q: want Type:name[:param=value...]", s)
	}

	kind, err := ParseKind(parts[0])
	if err != nil {
		return Column{}, fmt.Errorf("invalid column descriptor %q: %w", s, err)
	}

	col := Column{Name: parts[1], Kind: kind}
	if kind == KindString {
		col.Size = DefaultStringSize
	}

	for _, param := range parts[2:] {
		key, value, _ := strings.Cut(param, "=")
		switch key {
		case "size":
			if kind != KindString {
				return Column{}, fmt.Errorf("invalid column descriptor %q: size is only valid for String", s)
			}
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return Column{}, fmt.Errorf("invalid column descriptor %q: size must be a positive integer", s)
			}
			col.Size = n
		case "description":
			col.Description = value
		default:
			return Column{}, fmt.Errorf("invalid column descriptor %q: unknown parameter %q", s, key)
		}
	}

	return col, nil
}

// ParseDescriptors parses each descriptor in order.
func ParseDescriptors(args []string) ([]Column, error) {
	cols := make([]Column, 0, len(args))
	for _, arg := range args {
		col, err := ParseDescriptor(arg)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// FormatDescriptor renders a column definition in descriptor syntax.
func FormatDescriptor(c Column) string {
	var b strings.Builder
	b.WriteString(string(c.Kind))
	b.WriteString(":")
	b.WriteString(c.Name)
	if c.Kind == KindString {
		fmt.Fprintf(&b, ":size=%d", c.Size)
	}
	if c.Description != "" {
		b.WriteString(":description=")
		b.WriteString(c.Description)
	}
	return b.String()
}
