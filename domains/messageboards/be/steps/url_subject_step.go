// Package steps registers the message-board schema steps with the upgrade runner.
package steps

import (
	"context"

	"github.com/zenGate-Global/palmyra-mb-upgrade/domains/messageboards/be/service"
	"github.com/zenGate-Global/palmyra-mb-upgrade/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-mb-upgrade/platform/go/upgrade"
)

// Component is the release-table key of the message-board schema.
const Component = "message-boards-service"

// URLSubjectStep backfills url_subject for every existing message (schema 3.1.0).
type URLSubjectStep struct {
	svc       service.Service
	batchSize int
	last      *service.Report
}

// NewURLSubjectStep builds the 3.1.0 step; batchSize 0 uses the store default.
func NewURLSubjectStep(svc service.Service, batchSize int) *URLSubjectStep {
	if svc == nil {
		panic("message-board service is required")
	}
	return &URLSubjectStep{svc: svc, batchSize: batchSize}
}

func (s *URLSubjectStep) Version() persistence.SemanticVersion {
	return persistence.MustParseSemanticVersion("3.1.0")
}

func (s *URLSubjectStep) Name() string {
	return "url subject"
}

func (s *URLSubjectStep) Upgrade(ctx context.Context, opts upgrade.Options) error {
	report, err := s.svc.Backfill(ctx, service.Options{BatchSize: s.batchSize, DryRun: opts.DryRun})
	if err != nil {
		return err
	}
	s.last = &report
	return nil
}

// LastReport returns the report of the most recent successful Upgrade, if any.
func (s *URLSubjectStep) LastReport() (service.Report, bool) {
	if s.last == nil {
		return service.Report{}, false
	}
	return *s.last, true
}

// All returns the message-board steps in registration order.
func All(svc service.Service, urlSubject *URLSubjectStep) []upgrade.Step {
	return []upgrade.Step{
		urlSubject,
		upgrade.NewStep("3.1.1", "url subject index", func(ctx context.Context, opts upgrade.Options) error {
			return svc.EnsureIndex(ctx, opts.DryRun)
		}),
	}
}
