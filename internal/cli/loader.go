package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/roach88/silo/internal/grid"
	"github.com/roach88/silo/internal/schemafile"
)

// SchemaFormat identifies a schema file by extension.
type SchemaFormat string

const (
	SchemaXML SchemaFormat = "xml" // HIC schema descriptor
	SchemaCUE SchemaFormat = "cue" // CUE table catalog
)

// SchemaFormatOf returns the format of path, judged by its extension.
func SchemaFormatOf(path string) (SchemaFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return SchemaXML, nil
	case ".cue":
		return SchemaCUE, nil
	}
	return "", NewExitError(ExitCommandError,
		fmt.Sprintf("unsupported schema file %s: want .xml or .cue", path))
}

// SchemaTables is a loaded schema file.
type SchemaTables struct {
	Format SchemaFormat
	Tables []schemafile.TableDef

	// XML is set for HIC schema descriptors.
	XML *schemafile.Schema
}

// LoadSchema reads a schema file. An XML descriptor yields one table named
// name; a CUE catalog yields its tables, filtered to name when it is set.
func LoadSchema(path, name string) (*SchemaTables, error) {
	format, err := SchemaFormatOf(path)
	if err != nil {
		return nil, err
	}

	switch format {
	case SchemaXML:
		if name == "" {
			return nil, NewExitError(ExitCommandError, "a table name is required with an XML schema")
		}
		s, err := schemafile.LoadXML(path)
		if err != nil {
			return nil, WrapExitError(ExitSchemaFile, "parser error", err)
		}
		return &SchemaTables{
			Format: format,
			Tables: []schemafile.TableDef{{Name: name, Columns: s.TableColumns()}},
			XML:    s,
		}, nil

	default:
		defs, err := schemafile.LoadCUE(path)
		if err != nil {
			return nil, WrapExitError(ExitSchemaFile, "parser error", err)
		}
		if name == "" {
			return &SchemaTables{Format: format, Tables: defs}, nil
		}
		for _, d := range defs {
			if d.Name == name {
				return &SchemaTables{Format: format, Tables: []schemafile.TableDef{d}}, nil
			}
		}
		return nil, NewExitError(ExitSchemaFile, fmt.Sprintf("parser error: table %q not found in %s", name, path))
	}
}

// Delimiter returns the field separator for data files described by the
// schema, or fallback.
func (s *SchemaTables) Delimiter(fallback rune) (rune, error) {
	if s.XML == nil {
		return fallback, nil
	}
	r, err := s.XML.Delimiter(fallback)
	if err != nil {
		return 0, WrapExitError(ExitSchemaFile, "parser error", err)
	}
	return r, nil
}

func parseDescriptors(args []string) ([]grid.Column, error) {
	cols, err := grid.ParseDescriptors(args)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid column descriptor", err)
	}
	return cols, nil
}
