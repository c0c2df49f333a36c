package upgrade

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-mb-upgrade/apps/cli/internal/backend"
	"github.com/zenGate-Global/palmyra-mb-upgrade/domains/messageboards/be/service"
	"github.com/zenGate-Global/palmyra-mb-upgrade/domains/messageboards/be/steps"
	"github.com/zenGate-Global/palmyra-mb-upgrade/platform/go/logging"
	"github.com/zenGate-Global/palmyra-mb-upgrade/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-mb-upgrade/platform/go/runtrace"
	platformupgrade "github.com/zenGate-Global/palmyra-mb-upgrade/platform/go/upgrade"
)

// Command groups the schema upgrade subcommands.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Run or inspect message-board schema upgrades",
	}

	cmd.AddCommand(runCommand())
	cmd.AddCommand(statusCommand())
	return cmd
}

// session is the wiring shared by the upgrade subcommands.
type session struct {
	ctx        context.Context
	logger     *zap.Logger
	backend    *backend.Backend
	runner     *platformupgrade.Runner
	urlSubject *steps.URLSubjectStep
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := backend.LoadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, err := backend.NewLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	ctx := logging.WithLogger(cmd.Context(), logger)

	be, err := backend.Open(ctx, cfg, backend.OpenOptions{})
	if err != nil {
		return nil, err
	}

	svc := service.New(be.Repository)
	urlSubject := steps.NewURLSubjectStep(svc, cfg.BatchSize)
	runner, err := platformupgrade.NewRunner(steps.Component, be.Releases, steps.All(svc, urlSubject), logger)
	if err != nil {
		be.Close()
		return nil, fmt.Errorf("init upgrade runner: %w", err)
	}

	return &session{ctx: ctx, logger: logger, backend: be, runner: runner, urlSubject: urlSubject}, nil
}

func (s *session) close() {
	s.backend.Close()
	_ = s.logger.Sync()
}

func runCommand() *cobra.Command {
	var (
		dryRun   bool
		force    bool
		operator string
	)

	c := &cobra.Command{
		Use:   "run",
		Short: "Apply pending message-board upgrade steps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			trace := runtrace.System()
			if operator != "" {
				if trace, err = runtrace.Operator(operator); err != nil {
					return err
				}
			}
			ctx := runtrace.IntoContext(s.ctx, trace)

			res, err := s.runner.Run(ctx, platformupgrade.RunOptions{Force: force, DryRun: dryRun})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(res.Applied) == 0 {
				fmt.Fprintf(out, "Schema %s is up to date.\n", versionLabel(res.From))
				return nil
			}

			for _, step := range res.Applied {
				fmt.Fprintf(out, "applied %s %s\n", step.Version(), step.Name())
			}
			if report, ok := s.urlSubject.LastReport(); ok {
				printReport(out, report)
			}

			if res.DryRun {
				fmt.Fprintln(out, "Dry run: no changes were written.")
				return nil
			}
			fmt.Fprintf(out, "Schema %s -> %s (run %s)\n", versionLabel(res.From), res.To, res.RunID)
			return nil
		},
	}

	c.Flags().BoolVar(&dryRun, "dry-run", false, "Derive URL subjects and log the outcome without writing")
	c.Flags().BoolVar(&force, "force", false, "Re-run every step even if already recorded")
	c.Flags().StringVar(&operator, "operator", "", "Name recorded in the run logs as the operator")
	return c
}

func statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the recorded schema version and pending steps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			current, err := s.runner.Current(s.ctx)
			if err != nil {
				return err
			}
			pending, err := s.runner.Pending(s.ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "component %s at schema %s\n", steps.Component, versionLabel(current))
			if len(pending) == 0 {
				fmt.Fprintln(out, "no pending steps")
				return nil
			}
			for _, step := range pending {
				fmt.Fprintf(out, "pending %s %s\n", step.Version(), step.Name())
			}
			return nil
		},
	}
}

func versionLabel(v persistence.SemanticVersion) string {
	if v.IsZero() {
		return "(none)"
	}
	return v.String()
}

func printReport(w io.Writer, r service.Report) {
	fmt.Fprintf(w, "url subjects: rows=%d duplicates=%d fallbacks=%d collisions=%d batches=%d column_created=%t\n",
		r.Rows, r.Duplicates, r.Fallbacks, r.Collisions, r.Batches, r.ColumnCreated)
	if r.ColumnMissing {
		fmt.Fprintln(w, "url_subject column is missing and would be added")
	}
	for _, u := range r.Sample {
		fmt.Fprintf(w, "  %d -> %s\n", u.MessageID, u.URLSubject)
	}
}
