package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/silo/internal/config"
)

// NewDefaultCommand creates the default command.
func NewDefaultCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "default [silo-id]",
		Short: "Read or write the default silo id",
		Long: `Print the default silo id, or set it when an id is given.

Commands taking --id use the default silo when the flag is omitted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := rootOpts.app
			if len(args) == 0 {
				return a.out.Success(DefaultResult{SiloID: a.fileCfg.DefaultSilo})
			}

			id, err := parseID("silo", args[0])
			if err != nil {
				return err
			}
			a.fileCfg.DefaultSilo = id
			if err := config.Save(a.configPath, a.fileCfg); err != nil {
				return WrapExitError(ExitFailure, "failed to save config", err)
			}
			a.cfg.DefaultSilo = id
			return a.out.Success(DefaultResult{SiloID: id, Set: true})
		},
	}
}
