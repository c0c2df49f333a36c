package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-mb-upgrade/domains/messageboards/be/repo"
	"github.com/zenGate-Global/palmyra-mb-upgrade/platform/go/logging"
	"github.com/zenGate-Global/palmyra-mb-upgrade/platform/go/persistence"
)

// ErrColumnMissing is returned by Verify when the url_subject column has not been added yet.
var ErrColumnMissing = errors.New("url_subject column missing")

// Options controls a backfill run.
type Options struct {
	// BatchSize caps the statements per update batch (0 uses the store default).
	BatchSize int
	// DryRun derives every URL subject but changes neither schema nor rows.
	DryRun bool
}

// Report summarises a backfill run.
type Report struct {
	Rows          int
	Fallbacks     int
	Duplicates    int
	Collisions    int
	Batches       int
	ColumnCreated bool
	ColumnMissing bool
	DryRun        bool
	Duration      time.Duration
	// Sample holds the first assignments of a dry run for preview output.
	Sample []persistence.URLSubjectUpdate
}

// VerifyResult reports the URL subject post-conditions of the messages table.
type VerifyResult struct {
	Duplicates []persistence.DuplicateURLSubject
	Missing    int
}

// OK reports whether every row has a URL subject and none is shared.
func (v VerifyResult) OK() bool {
	return len(v.Duplicates) == 0 && v.Missing == 0
}

// Service defines the message-board URL subject operations.
type Service interface {
	Backfill(ctx context.Context, opts Options) (Report, error)
	EnsureIndex(ctx context.Context, dryRun bool) error
	Verify(ctx context.Context) (VerifyResult, error)
}

// dryRunSampleSize bounds Report.Sample.
const dryRunSampleSize = 20

type service struct {
	repo repo.Repository
}

// New constructs a Service backed by the provided repository.
func New(r repo.Repository) Service {
	if r == nil {
		panic("message repository is required")
	}
	return &service{repo: r}
}

// Backfill adds the url_subject column when missing, derives a unique URL
// subject for every message in ascending id order and writes all of them in
// one transaction once the scan is complete.
func (s *service) Backfill(ctx context.Context, opts Options) (Report, error) {
	logger := logging.FromContextOr(ctx, nil)
	start := time.Now()
	report := Report{DryRun: opts.DryRun}

	has, err := s.repo.HasURLSubjectColumn(ctx)
	if err != nil {
		return report, fmt.Errorf("check url_subject column: %w", err)
	}
	if !has {
		if opts.DryRun {
			report.ColumnMissing = true
			logger.Info("url_subject column missing; dry run leaves the schema untouched")
		} else {
			if err := s.repo.AddURLSubjectColumn(ctx); err != nil {
				return report, fmt.Errorf("add url_subject column: %w", err)
			}
			report.ColumnCreated = true
			logger.Info("added url_subject column", zap.String("table", persistence.MessagesTable))
		}
	}

	assigner := NewAssigner()
	var updates []persistence.URLSubjectUpdate
	err = s.repo.ScanSubjects(ctx, func(row persistence.MessageSubject) error {
		updates = append(updates, persistence.URLSubjectUpdate{
			MessageID:  row.MessageID,
			URLSubject: assigner.Assign(row.MessageID, row.Subject),
		})
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("scan subjects: %w", err)
	}

	stats := assigner.Stats()
	report.Rows = stats.Rows
	report.Fallbacks = stats.Fallbacks
	report.Duplicates = stats.Duplicates
	report.Collisions = stats.Collisions

	if stats.Collisions > 0 {
		logger.Warn("suffixed url subjects collide with existing ones",
			zap.Int("collisions", stats.Collisions))
	}

	if opts.DryRun {
		report.Sample = updates[:min(len(updates), dryRunSampleSize)]
	} else {
		batches, err := s.repo.UpdateURLSubjects(ctx, updates, opts.BatchSize)
		if err != nil {
			return report, fmt.Errorf("update url subjects: %w", err)
		}
		report.Batches = batches
	}

	report.Duration = time.Since(start)
	logger.Info("url subject backfill finished",
		zap.Int("rows", report.Rows),
		zap.Int("fallbacks", report.Fallbacks),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("collisions", report.Collisions),
		zap.Int("batches", report.Batches),
		zap.Bool("column_created", report.ColumnCreated),
		zap.Duration("duration", report.Duration),
	)

	return report, nil
}

// EnsureIndex creates the non-unique url_subject index unless it exists.
func (s *service) EnsureIndex(ctx context.Context, dryRun bool) error {
	logger := logging.FromContextOr(ctx, nil)
	if dryRun {
		logger.Info("dry run skips index creation", zap.String("index", persistence.URLSubjectIndex))
		return nil
	}
	if err := s.repo.EnsureURLSubjectIndex(ctx); err != nil {
		return fmt.Errorf("ensure url_subject index: %w", err)
	}
	logger.Info("url_subject index ready", zap.String("index", persistence.URLSubjectIndex))
	return nil
}

// Verify checks that every message carries a URL subject and that none is shared.
func (s *service) Verify(ctx context.Context) (VerifyResult, error) {
	has, err := s.repo.HasURLSubjectColumn(ctx)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("check url_subject column: %w", err)
	}
	if !has {
		return VerifyResult{}, ErrColumnMissing
	}

	dups, err := s.repo.DuplicateURLSubjects(ctx)
	if err != nil {
		return VerifyResult{}, err
	}
	missing, err := s.repo.CountMissingURLSubjects(ctx)
	if err != nil {
		return VerifyResult{}, err
	}

	return VerifyResult{Duplicates: dups, Missing: missing}, nil
}
