package schemafile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/roach88/silo/internal/grid"
)

// Schema is a HIC schema descriptor.
type Schema struct {
	Filename    string
	DateCreated string
	LineCount   string
	FileSize    string
	Separator   string
	DateFormat  string
	Descriptor  string
	Comment     string

	// Columns are ordered by position.
	Columns []SchemaColumn
}

// SchemaColumn is one /schema/columns/column element.
type SchemaColumn struct {
	Pos        int
	Name       string
	Type       string
	Descriptor string
}

var columnsExpr = xpath.MustCompile("columns/column")

// LoadXML reads a HIC schema descriptor from path.
func LoadXML(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schema: %w", err)
	}
	defer f.Close()

	s, err := ParseXML(f)
	if err != nil {
		var se *Error
		if errors.As(err, &se) {
			se.File = path
		}
		return nil, err
	}
	return s, nil
}

// ParseXML decodes a HIC schema descriptor.
func ParseXML(r io.Reader) (*Schema, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, &Error{Field: "xml", Message: err.Error()}
	}
	root := xmlquery.FindOne(doc, "/schema")
	if root == nil {
		return nil, &Error{Field: "schema", Message: "missing <schema> root element"}
	}
	summary := root.SelectElement("summary")
	if summary == nil {
		return nil, &Error{Field: "summary", Message: "missing <summary> element"}
	}

	text := func(name string) string {
		if n := summary.SelectElement(name); n != nil {
			return strings.TrimSpace(n.InnerText())
		}
		return ""
	}
	s := &Schema{
		Filename:    text("filename"),
		DateCreated: text("datecreated"),
		LineCount:   text("linecount"),
		FileSize:    text("filesize"),
		Separator:   text("separator"),
		DateFormat:  text("dateformat"),
		Descriptor:  text("descriptor"),
		Comment:     text("comment"),
	}

	if root.SelectElement("columns") == nil {
		return nil, &Error{Field: "columns", Message: "missing <columns> element"}
	}
	for _, n := range xmlquery.QuerySelectorAll(root, columnsExpr) {
		col, err := parseXMLColumn(n)
		if err != nil {
			return nil, err
		}
		s.Columns = append(s.Columns, col)
	}
	if len(s.Columns) == 0 {
		return nil, &Error{Field: "columns", Message: "no <column> elements"}
	}
	slices.SortStableFunc(s.Columns, func(a, b SchemaColumn) int { return a.Pos - b.Pos })
	return s, nil
}

func parseXMLColumn(n *xmlquery.Node) (SchemaColumn, error) {
	child := func(name string) string {
		if c := n.SelectElement(name); c != nil {
			return strings.TrimSpace(c.InnerText())
		}
		return ""
	}
	col := SchemaColumn{
		Name:       child("name"),
		Type:       child("type"),
		Descriptor: child("descriptor"),
	}
	pos, err := strconv.Atoi(strings.TrimSpace(n.SelectAttr("pos")))
	if err != nil {
		return col, &Error{Field: "column", Message: fmt.Sprintf("column %q: pos must be an integer", col.Name)}
	}
	col.Pos = pos
	if col.Name == "" {
		return col, &Error{Field: "column", Message: fmt.Sprintf("column at pos %d has no name", pos)}
	}
	return col, nil
}

// TableColumns returns the table definition: every column is a String of
// the default size, described by the summary descriptor.
func (s *Schema) TableColumns() []grid.Column {
	cols := make([]grid.Column, len(s.Columns))
	for i, c := range s.Columns {
		col := grid.StringColumn(c.Name, grid.DefaultStringSize)
		col.Description = s.Descriptor
		cols[i] = col
	}
	return cols
}

// Delimiter returns the field separator of the described data files.
// An empty separator yields fallback.
func (s *Schema) Delimiter(fallback rune) (rune, error) {
	switch strings.ToLower(s.Separator) {
	case "":
		return fallback, nil
	case "tab", `\t`:
		return '\t', nil
	case "comma":
		return ',', nil
	case "pipe":
		return '|', nil
	case "semicolon":
		return ';', nil
	}
	r := []rune(s.Separator)
	if len(r) != 1 {
		return 0, &Error{Field: "separator", Message: fmt.Sprintf("unsupported separator %q", s.Separator)}
	}
	return r[0], nil
}
