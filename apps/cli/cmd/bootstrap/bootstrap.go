package bootstrap

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zenGate-Global/palmyra-mb-upgrade/apps/cli/internal/backend"
)

// Command creates the pre-upgrade message-board tables (dev/test helper).
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the message-board and release tables if missing",
		Long:  "Creates the 3.0.x message-board layout (messages without url_subject) and the release table. Safe to run repeatedly.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := backend.LoadConfig(cmd)
			if err != nil {
				return err
			}

			be, err := backend.Open(cmd.Context(), cfg, backend.OpenOptions{Bootstrap: true})
			if err != nil {
				return err
			}
			defer be.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Bootstrap complete (driver %s).\n", cfg.DatabaseDriver)
			return nil
		},
	}
}
