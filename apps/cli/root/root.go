package root

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/zenGate-Global/palmyra-mb-upgrade/apps/cli/internal/backend"
)

// rootCmd is the base command for the message-board upgrade CLI. Subcommands (upgrade, verify, etc.) are attached here.
var rootCmd = &cobra.Command{
	Use:           "mbupgrade",
	Short:         "Message-board schema upgrade CLI",
	Long:          "Runs the message-board schema upgrades (URL subject backfill and index) and checks their results.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	backend.RegisterFlags(rootCmd)
}

// Execute runs the CLI.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// Root returns the mutable root command for wiring from subpackages.
func Root() *cobra.Command {
	return rootCmd
}
