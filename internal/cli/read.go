package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/silo/internal/grid"
	"github.com/roach88/silo/internal/silo"
)

// Default page sizes.
const (
	defaultListLimit = 10
	defaultTailLimit = 25
)

// PageOptions holds paging flags.
type PageOptions struct {
	Limit  int
	Offset int
}

func (p *PageOptions) register(cmd *cobra.Command, limit int) {
	cmd.Flags().IntVar(&p.Limit, "limit", limit, "limit the number of returned rows")
	cmd.Flags().IntVar(&p.Offset, "offset", 0, "number of rows to skip")
}

func (p *PageOptions) page() grid.Page {
	return grid.Page{Offset: p.Offset, Limit: p.Limit}
}

// NewTailCommand creates the tail command.
func NewTailCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PageOptions{}

	cmd := &cobra.Command{
		Use:   "tail <table-id>",
		Short: "Show the last rows of a table",
		Long: `Show the last rows of a table. The read is recorded in the silo's
audit log. Non-zero offsets are not supported.

Example:
  silo tail 12 --limit 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := rootOpts.app
			tableID, err := parseID("table", args[0])
			if err != nil {
				return err
			}
			r, err := runTail(cmd.Context(), a, tableID, *opts)
			if err != nil {
				return err
			}
			return a.out.Success(r)
		},
	}
	opts.register(cmd, defaultTailLimit)

	return cmd
}

func runTail(ctx context.Context, a *app, tableID int64, p PageOptions) (RowsResult, error) {
	var d *grid.Data
	err := a.withStore(ctx, "tail", func(ctx context.Context, st *silo.Store) error {
		var err error
		d, err = st.ReadTail(ctx, tableID, p.Offset, p.Limit)
		return err
	})
	return rows(tableID, d, err)
}

// NewAuditLogCommand creates the auditlog command.
func NewAuditLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PageOptions{}
	var siloID int64

	cmd := &cobra.Command{
		Use:   "auditlog",
		Short: "Show the last entries of a silo's audit log",
		Long: `Show the last entries of a silo's audit log. Reading the log is
itself recorded as READ once the entries are fetched, so this read shows
up in the next auditlog, not in its own output.

Example:
  silo auditlog --id 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := rootOpts.app
			id, err := a.siloID(siloID)
			if err != nil {
				return err
			}
			r, err := runAuditLog(cmd.Context(), a, id, *opts)
			if err != nil {
				return err
			}
			return a.out.Success(r)
		},
	}
	cmd.Flags().Int64Var(&siloID, "id", 0, "id of the selected silo (default: configured default silo)")
	opts.register(cmd, defaultTailLimit)

	return cmd
}

func runAuditLog(ctx context.Context, a *app, siloID int64, p PageOptions) (RowsResult, error) {
	var d *grid.Data
	err := a.withStore(ctx, "auditlog", func(ctx context.Context, st *silo.Store) error {
		var err error
		d, err = st.AuditLog(ctx, siloID, p.Offset, p.Limit)
		return err
	})
	r, err := rows(0, d, err)
	r.SiloID = siloID
	return r, err
}

// rows turns a read into a result. An empty read is a successful result
// with no rows.
func rows(tableID int64, d *grid.Data, err error) (RowsResult, error) {
	if silo.IsNoData(err) {
		return RowsResult{TableID: tableID, Columns: []string{}, Rows: []Row{}}, nil
	}
	if err != nil {
		return RowsResult{}, err
	}
	return rowsResult(tableID, d), nil
}

// NewHeadersCommand creates the headers command.
func NewHeadersCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "headers <table-id>",
		Aliases: []string{"describe"},
		Short:   "Show a table's column definitions",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := rootOpts.app
			tableID, err := parseID("table", args[0])
			if err != nil {
				return err
			}
			var cols []grid.Column
			err = a.withStore(cmd.Context(), "headers", func(ctx context.Context, st *silo.Store) error {
				var err error
				cols, err = st.Headers(ctx, tableID)
				return err
			})
			if err != nil {
				return err
			}
			return a.out.Success(HeadersResult{TableID: tableID, Columns: columnInfos(cols), cols: cols})
		},
	}
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PageOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List silos, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := rootOpts.app
			r, err := runList(cmd.Context(), a, *opts)
			if err != nil {
				return err
			}
			return a.out.Success(r)
		},
	}
	opts.register(cmd, defaultListLimit)

	return cmd
}

func runList(ctx context.Context, a *app, p PageOptions) (FilesResult, error) {
	var files []grid.FileSummary
	err := a.withCatalog(ctx, "list", func(ctx context.Context, st *silo.Store) error {
		var err error
		files, err = st.List(ctx, p.page())
		return err
	})
	return FilesResult{Files: nonNil(files)}, err
}

// NewTablesCommand creates the tables command.
func NewTablesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PageOptions{}
	var siloID int64

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List the tables of a silo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := rootOpts.app
			id, err := a.siloID(siloID)
			if err != nil {
				return err
			}
			r, err := runTables(cmd.Context(), a, id, *opts)
			if err != nil {
				return err
			}
			return a.out.Success(r)
		},
	}
	cmd.Flags().Int64Var(&siloID, "id", 0, "id of the selected silo (default: configured default silo)")
	opts.register(cmd, defaultTailLimit)

	return cmd
}

func runTables(ctx context.Context, a *app, siloID int64, p PageOptions) (FilesResult, error) {
	var files []grid.FileSummary
	err := a.withCatalog(ctx, "tables", func(ctx context.Context, st *silo.Store) error {
		var err error
		files, err = st.Tables(ctx, siloID, p.page())
		return err
	})
	return FilesResult{Files: nonNil(files)}, err
}

func nonNil(files []grid.FileSummary) []grid.FileSummary {
	if files == nil {
		return []grid.FileSummary{}
	}
	return files
}
