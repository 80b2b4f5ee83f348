package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/silo/internal/hic"
	"github.com/roach88/silo/internal/silo"
)

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	var siloID int64

	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a restricted SQL query against a silo",
		Long: `Run a single SELECT statement against the tables of a silo.

Supported: projection of columns from one table, optionally aliased, and
count(*) over one table. Table names are the silo's table names; every
data read is recorded in the audit log.

Examples:
  silo query --id 1 "select personal_id, measurement_1 from TypeA"
  silo query --id 1 "select count(*) from TypeA"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := rootOpts.app
			id, err := a.siloID(siloID)
			if err != nil {
				return err
			}
			r, err := runQuery(cmd.Context(), a, id, args[0])
			if err != nil {
				return err
			}
			return a.out.Success(r)
		},
	}
	cmd.Flags().Int64Var(&siloID, "id", 0, "id of the selected silo (default: configured default silo)")

	return cmd
}

func runQuery(ctx context.Context, a *app, siloID int64, sql string) (QueryResult, error) {
	q, err := hic.Parse(sql)
	if err != nil {
		return QueryResult{}, err
	}
	slog.Debug("query parsed", "silo_id", siloID, "query", q.String(), "tables", q.Tables())

	var res *hic.Result
	err = a.withStore(ctx, "query", func(ctx context.Context, st *silo.Store) error {
		src, err := st.Source(ctx, siloID)
		if err != nil {
			return err
		}
		res, err = q.Execute(ctx, src)
		return err
	})
	if err != nil {
		return QueryResult{}, err
	}
	rows := res.Rows
	if rows == nil {
		rows = [][]any{}
	}
	return QueryResult{SQL: sql, Columns: res.Columns, Rows: rows}, nil
}
