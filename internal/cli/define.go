package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/silo/internal/schemafile"
	"github.com/roach88/silo/internal/silo"
)

// DefineOptions holds flags for the define command.
type DefineOptions struct {
	*RootOptions
	SiloID   int64
	Schema   string
	NoHeader bool
}

// NewDefineCommand creates the define command.
func NewDefineCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DefineOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "define [name] [descriptor... | data-file...]",
		Short: "Define a new table in a silo",
		Long: `Define a new table in a silo.

Columns are given as descriptors of the form Type:name[:param=value...],
where Type is String or Long. String takes size (default 100); both take
description.

With --schema, columns come from a file instead:
  .xml  a HIC schema descriptor; every column is String(size=100).
        Remaining arguments are data files loaded into the new table
        with the descriptor's separator.
  .cue  a table catalog; every table is defined, or only [name].

Examples:
  silo define --id 1 TypeA String:personal_id:size=12 Long:measurement_1
  silo define --id 1 --schema hic.xml Tayside data1.txt data2.txt
  silo define --id 1 --schema catalog.cue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := rootOpts.app
			siloID, err := a.siloID(opts.SiloID)
			if err != nil {
				return err
			}
			r, err := runDefine(cmd.Context(), a, siloID, opts.Schema, opts.NoHeader, args)
			if err != nil {
				return err
			}
			return a.out.Success(r)
		},
	}

	cmd.Flags().Int64Var(&opts.SiloID, "id", 0, "id of the selected silo (default: configured default silo)")
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "schema file (.xml or .cue) defining the columns")
	cmd.Flags().BoolVar(&opts.NoHeader, "no-header", false, "data files have no header row")

	return cmd
}

func runDefine(ctx context.Context, a *app, siloID int64, schemaPath string, noHeader bool, args []string) (DefineResult, error) {
	r := DefineResult{SiloID: siloID, Tables: []TableDefined{}}

	var (
		defs      []schemafile.TableDef
		dataFiles []string
		delim     = a.cfg.DelimiterRune()
	)
	if schemaPath == "" {
		if len(args) < 2 {
			return r, NewExitError(ExitCommandError, "define requires a table name and at least one column descriptor")
		}
		cols, err := parseDescriptors(args[1:])
		if err != nil {
			return r, err
		}
		defs = []schemafile.TableDef{{Name: args[0], Columns: cols}}
	} else {
		var name string
		if len(args) > 0 {
			name = args[0]
		}
		schema, err := LoadSchema(schemaPath, name)
		if err != nil {
			return r, err
		}
		if len(args) > 1 {
			if schema.Format != SchemaXML {
				return r, NewExitError(ExitCommandError, "data files can only be loaded with an XML schema")
			}
			dataFiles = args[1:]
		}
		if delim, err = schema.Delimiter(delim); err != nil {
			return r, err
		}
		defs = schema.Tables
	}

	err := a.withStore(ctx, "define", func(ctx context.Context, st *silo.Store) error {
		r.Tables = r.Tables[:0]
		for _, def := range defs {
			info, err := st.DefineTable(ctx, siloID, def.Name, def.Columns, false)
			if err != nil {
				return err
			}
			t := TableDefined{
				TableID: info.ID,
				Name:    info.Name,
				Path:    info.Path,
				Columns: columnInfos(info.Columns),
			}
			for _, path := range dataFiles {
				n, err := loadFile(ctx, st, info.ID, path, silo.LoadOptions{Delimiter: delim, SkipHeader: !noHeader})
				if err != nil {
					return err
				}
				t.Loaded = append(t.Loaded, FileLoaded{Path: path, Rows: n})
			}
			r.Tables = append(r.Tables, t)
		}
		return nil
	})
	return r, err
}

func loadFile(ctx context.Context, st *silo.Store, tableID int64, path string, opts silo.LoadOptions) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, WrapExitError(ExitCommandError, "failed to open data file", err)
	}
	defer f.Close()

	n, err := st.LoadDelimited(ctx, tableID, f, opts)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", path, err)
	}
	slog.Info("data file loaded", "table_id", tableID, "file", path, "rows", n)
	return n, nil
}
