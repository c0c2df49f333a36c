package upgrade

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-mb-upgrade/platform/go/logging"
	"github.com/zenGate-Global/palmyra-mb-upgrade/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-mb-upgrade/platform/go/runtrace"
)

// RunOptions controls a single Run.
type RunOptions struct {
	// Force re-runs every step regardless of the recorded version.
	Force bool
	// DryRun executes steps in dry-run mode and records nothing.
	DryRun bool
}

// RunResult summarises a Run.
type RunResult struct {
	RunID   uuid.UUID
	From    persistence.SemanticVersion
	To      persistence.SemanticVersion
	Applied []Step
	DryRun  bool
}

// Runner executes a component's steps sequentially in version order.
type Runner struct {
	component string
	releases  ReleaseStore
	steps     []Step
	logger    *zap.Logger
	now       func() time.Time
}

// NewRunner validates the step list and returns a runner for component.
// Steps may be passed in any order; duplicate versions are rejected.
func NewRunner(component string, releases ReleaseStore, steps []Step, logger *zap.Logger) (*Runner, error) {
	component = strings.TrimSpace(component)
	if component == "" {
		return nil, errors.New("component is required")
	}
	if releases == nil {
		return nil, errors.New("release store is required")
	}

	sorted := make([]Step, len(steps))
	copy(sorted, steps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Version().Compare(sorted[j].Version()) < 0
	})

	for i, step := range sorted {
		if step.Version().IsZero() {
			return nil, fmt.Errorf("step %q: version is required", step.Name())
		}
		if i > 0 && sorted[i-1].Version().Compare(step.Version()) == 0 {
			return nil, fmt.Errorf("duplicate step version %s (%q, %q)", step.Version(), sorted[i-1].Name(), step.Name())
		}
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Runner{
		component: component,
		releases:  releases,
		steps:     sorted,
		logger:    logger.With(zap.String("upgrade_component", component)),
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Current returns the recorded schema version; the zero version means nothing
// has been applied yet.
func (r *Runner) Current(ctx context.Context) (persistence.SemanticVersion, error) {
	rec, err := r.releases.Get(ctx, r.component)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.SemanticVersion{}, nil
		}
		return persistence.SemanticVersion{}, fmt.Errorf("get release: %w", err)
	}
	return rec.SchemaVersion, nil
}

// Steps returns every registered step in execution order.
func (r *Runner) Steps() []Step {
	out := make([]Step, len(r.steps))
	copy(out, r.steps)
	return out
}

// Pending returns the steps newer than the recorded version.
func (r *Runner) Pending(ctx context.Context) ([]Step, error) {
	current, err := r.Current(ctx)
	if err != nil {
		return nil, err
	}
	return r.after(current), nil
}

func (r *Runner) after(v persistence.SemanticVersion) []Step {
	var out []Step
	for _, step := range r.steps {
		if step.Version().Compare(v) > 0 {
			out = append(out, step)
		}
	}
	return out
}

// Run applies pending steps one at a time, recording the version after each
// success. The first failure stops the run; the recorded version then points at
// the last successful step so the next run resumes from the failed one.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (RunResult, error) {
	current, err := r.Current(ctx)
	if err != nil {
		return RunResult{}, err
	}

	trace := runtrace.FromContextOrSystem(ctx)
	result := RunResult{RunID: trace.RunID, From: current, To: current, DryRun: opts.DryRun}

	steps := r.after(current)
	if opts.Force {
		steps = r.Steps()
	}

	logger := r.logger.With(trace.Fields()...)
	if len(steps) == 0 {
		logger.Info("schema up to date", zap.String("schema_version", current.String()))
		return result, nil
	}

	for _, step := range steps {
		stepLogger := logger.With(
			zap.String("schema_version", step.Version().String()),
			zap.String("step", step.Name()),
			zap.Bool("dry_run", opts.DryRun),
		)
		stepLogger.Info("upgrade step started")

		start := r.now()
		stepCtx := logging.WithLogger(ctx, stepLogger)
		if err := step.Upgrade(stepCtx, Options{DryRun: opts.DryRun}); err != nil {
			stepLogger.Error("upgrade step failed", zap.Error(err))
			return result, fmt.Errorf("%w: %s %s: %w", ErrStepFailed, step.Version(), step.Name(), err)
		}

		if !opts.DryRun && step.Version().Compare(result.To) > 0 {
			if err := r.releases.Put(ctx, persistence.ReleaseRecord{
				Component:     r.component,
				SchemaVersion: step.Version(),
				RunID:         result.RunID,
				AppliedAt:     r.now(),
			}); err != nil {
				return result, fmt.Errorf("record release %s: %w", step.Version(), err)
			}
			result.To = step.Version()
		}

		result.Applied = append(result.Applied, step)
		stepLogger.Info("upgrade step finished", zap.Duration("duration", r.now().Sub(start)))
	}

	return result, nil
}
