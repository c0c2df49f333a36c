package slug

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zenGate-Global/palmyra-mb-upgrade/domains/messageboards/be/service"
)

// Command previews the URL subject derived for a message without touching a database.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "slug <message-id> [subject...]",
		Short: "Preview the URL subject derived for a message",
		Long:  "Derives the URL subject for a message id and subject. Omit the subject to preview the absent-subject fallback.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid message id %q: %w", args[0], err)
			}

			var subject *string
			if len(args) > 1 {
				joined := strings.Join(args[1:], " ")
				subject = &joined
			}

			d := service.DeriveURLSubject(id, subject)
			if d.Fallback {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (fallback to message id)\n", d.Value)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), d.Value)
			return nil
		},
	}
}
