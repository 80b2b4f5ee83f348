package schemafile

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/silo/internal/grid"
)

// TableDef is one table of a CUE catalog.
type TableDef struct {
	Name    string
	Columns []grid.Column
}

// LoadCUE reads a CUE table catalog from path.
func LoadCUE(path string) ([]TableDef, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCUE(path, src)
}

// ParseCUE compiles a CUE table catalog. Tables are returned in
// declaration order.
func ParseCUE(filename string, src []byte) ([]TableDef, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	tablesVal := v.LookupPath(cue.ParsePath("tables"))
	if !tablesVal.Exists() {
		return nil, &Error{File: filename, Field: "tables", Message: "tables is required", Pos: v.Pos()}
	}
	iter, err := tablesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var defs []TableDef
	for iter.Next() {
		def := TableDef{Name: iter.Label()}
		cols, err := parseColumns(iter.Value())
		if err != nil {
			return nil, err
		}
		def.Columns = cols
		defs = append(defs, def)
	}
	if len(defs) == 0 {
		return nil, &Error{File: filename, Field: "tables", Message: "at least one table is required", Pos: tablesVal.Pos()}
	}
	return defs, nil
}

func parseColumns(table cue.Value) ([]grid.Column, error) {
	colsVal := table.LookupPath(cue.ParsePath("columns"))
	if !colsVal.Exists() {
		return nil, &Error{Field: "columns", Message: "columns is required", Pos: table.Pos()}
	}
	iter, err := colsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var cols []grid.Column
	for iter.Next() {
		col, err := parseColumn(iter.Value())
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	if len(cols) == 0 {
		return nil, &Error{Field: "columns", Message: "at least one column is required", Pos: colsVal.Pos()}
	}
	return cols, nil
}

// parseColumn accepts a descriptor string or a {name, type, size?,
// description?} struct.
func parseColumn(v cue.Value) (grid.Column, error) {
	if s, err := v.String(); err == nil {
		col, err := grid.ParseDescriptor(s)
		if err != nil {
			return grid.Column{}, &Error{Field: "column", Message: err.Error(), Pos: v.Pos()}
		}
		return col, nil
	}

	name, err := v.LookupPath(cue.ParsePath("name")).String()
	if err != nil {
		return grid.Column{}, columnError(v, "name", err)
	}
	typ, err := v.LookupPath(cue.ParsePath("type")).String()
	if err != nil {
		return grid.Column{}, columnError(v, "type", err)
	}
	kind, err := grid.ParseKind(typ)
	if err != nil {
		return grid.Column{}, &Error{Field: "type", Message: err.Error(), Pos: v.Pos()}
	}

	col := grid.Column{Name: name, Kind: kind}
	if kind == grid.KindString {
		col.Size = grid.DefaultStringSize
	}
	if sizeVal := v.LookupPath(cue.ParsePath("size")); sizeVal.Exists() {
		size, err := sizeVal.Int64()
		if err != nil {
			return grid.Column{}, formatCUEError(err)
		}
		col.Size = int(size)
	}
	if descVal := v.LookupPath(cue.ParsePath("description")); descVal.Exists() {
		desc, err := descVal.String()
		if err != nil {
			return grid.Column{}, formatCUEError(err)
		}
		col.Description = desc
	}

	if err := col.ValidateDefinition(); err != nil {
		return grid.Column{}, &Error{Field: "column", Message: err.Error(), Pos: v.Pos()}
	}
	return col, nil
}

func columnError(v cue.Value, field string, err error) error {
	if !v.LookupPath(cue.ParsePath(field)).Exists() {
		return &Error{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	return formatCUEError(err)
}
