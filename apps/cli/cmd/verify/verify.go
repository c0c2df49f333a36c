package verify

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zenGate-Global/palmyra-mb-upgrade/apps/cli/internal/backend"
	"github.com/zenGate-Global/palmyra-mb-upgrade/domains/messageboards/be/service"
)

// ErrVerifyFailed is returned when the URL subject post-conditions do not hold.
var ErrVerifyFailed = errors.New("url subject verification failed")

// Command checks that every message has a URL subject and that none is shared.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check URL subject uniqueness and coverage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := backend.LoadConfig(cmd)
			if err != nil {
				return err
			}

			be, err := backend.Open(cmd.Context(), cfg, backend.OpenOptions{})
			if err != nil {
				return err
			}
			defer be.Close()

			res, err := service.New(be.Repository).Verify(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, d := range res.Duplicates {
				fmt.Fprintf(out, "duplicate %q shared by %d messages\n", d.URLSubject, d.Count)
			}
			if res.Missing > 0 {
				fmt.Fprintf(out, "%d messages have no url subject\n", res.Missing)
			}
			if !res.OK() {
				return ErrVerifyFailed
			}

			fmt.Fprintln(out, "OK: every message has a unique url subject")
			return nil
		},
	}
}
