// Package upgrade runs ordered, versioned schema/data steps for a component and
// records the version reached in a release store.
package upgrade

import (
	"context"
	"errors"

	"github.com/zenGate-Global/palmyra-mb-upgrade/platform/go/persistence"
)

// Options are handed to every step of a run.
type Options struct {
	// DryRun asks the step to compute and log its effect without writing.
	DryRun bool
}

// Step is one versioned unit of schema or data evolution.
type Step interface {
	Version() persistence.SemanticVersion
	Name() string
	Upgrade(ctx context.Context, opts Options) error
}

// ReleaseStore persists the schema version reached by a component.
type ReleaseStore interface {
	Get(ctx context.Context, component string) (persistence.ReleaseRecord, error)
	Put(ctx context.Context, rec persistence.ReleaseRecord) error
}

// ErrStepFailed wraps the error of the step that stopped a run.
var ErrStepFailed = errors.New("upgrade step failed")

type funcStep struct {
	version persistence.SemanticVersion
	name    string
	fn      func(ctx context.Context, opts Options) error
}

// NewStep adapts a function into a Step.
func NewStep(version string, name string, fn func(ctx context.Context, opts Options) error) Step {
	return &funcStep{version: persistence.MustParseSemanticVersion(version), name: name, fn: fn}
}

func (s *funcStep) Version() persistence.SemanticVersion {
	return s.version
}

func (s *funcStep) Name() string {
	return s.name
}

func (s *funcStep) Upgrade(ctx context.Context, opts Options) error {
	return s.fn(ctx, opts)
}
