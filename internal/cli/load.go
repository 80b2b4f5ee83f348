package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/silo/internal/silo"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	Delimiter string
	NoHeader  bool
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:     "load <table-id> <data-file>...",
		Aliases: []string{"write"},
		Short:   "Load delimited data files into a table",
		Long: `Load delimited data files into a table.

Each file is one audited write. Fields are matched to the table's columns
by position; the first record is a header row unless --no-header is set.

Example:
  silo load 12 measurements.txt
  silo load --delimiter , --no-header 12 extract.csv`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := rootOpts.app
			tableID, err := parseID("table", args[0])
			if err != nil {
				return err
			}
			delim, err := parseDelimiter(opts.Delimiter, a.cfg.DelimiterRune())
			if err != nil {
				return err
			}
			r, err := runLoad(cmd.Context(), a, tableID, args[1:], silo.LoadOptions{Delimiter: delim, SkipHeader: !opts.NoHeader})
			if err != nil {
				return err
			}
			return a.out.Success(r)
		},
	}

	cmd.Flags().StringVar(&opts.Delimiter, "delimiter", "", "field delimiter (default: configured delimiter)")
	cmd.Flags().BoolVar(&opts.NoHeader, "no-header", false, "data files have no header row")

	return cmd
}

func runLoad(ctx context.Context, a *app, tableID int64, files []string, opts silo.LoadOptions) (LoadResult, error) {
	r := LoadResult{TableID: tableID}
	err := a.withStore(ctx, "load", func(ctx context.Context, st *silo.Store) error {
		r.Files = r.Files[:0]
		for _, path := range files {
			n, err := loadFile(ctx, st, tableID, path, opts)
			if err != nil {
				return err
			}
			r.Files = append(r.Files, FileLoaded{Path: path, Rows: n})
		}
		return nil
	})
	return r, err
}
