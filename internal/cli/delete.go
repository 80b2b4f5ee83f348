package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/silo/internal/silo"
)

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <silo-id>",
		Short: "Delete a silo and all of its tables",
		Long: `Delete a silo, every table linked to it (including its AuditLog),
their rows and their links, in one transaction.

Example:
  silo delete 1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := rootOpts.app
			siloID, err := parseID("silo", args[0])
			if err != nil {
				return err
			}
			if err := runDelete(cmd.Context(), a, siloID); err != nil {
				return err
			}
			return a.out.Success(DeleteResult{SiloID: siloID})
		},
	}
}

func runDelete(ctx context.Context, a *app, siloID int64) error {
	return a.withStore(ctx, "delete", func(ctx context.Context, st *silo.Store) error {
		return st.DeleteSilo(ctx, siloID)
	})
}
