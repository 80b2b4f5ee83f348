package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/silo/internal/silo"
)

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a silo with its audit log",
		Long: `Create a new silo and define its AuditLog table.

Example:
  silo create Demo`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := rootOpts.app
			r, err := runCreate(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}
			return a.out.Success(r)
		},
	}
}

func runCreate(ctx context.Context, a *app, name string) (SiloCreated, error) {
	var r SiloCreated
	err := a.withStore(ctx, "create", func(ctx context.Context, st *silo.Store) error {
		id, err := st.Init(ctx, name)
		if err != nil {
			return err
		}
		r = SiloCreated{SiloID: id, Name: name}
		return nil
	})
	if err == nil {
		slog.Debug("silo created", "silo_id", r.SiloID, "name", name)
	}
	return r, err
}
