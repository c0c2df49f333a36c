package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	sqlassets "github.com/zenGate-Global/palmyra-mb-upgrade/database"
)

// ReleaseTable records the schema version reached by each upgradable component.
const ReleaseTable = "upgrade_release"

// ReleaseRecord is the last schema version applied for a component.
type ReleaseRecord struct {
	Component     string          `db:"component"`
	SchemaVersion SemanticVersion `db:"schema_version"`
	RunID         uuid.UUID       `db:"run_id"`
	AppliedAt     time.Time       `db:"applied_at"`
}

func validateRelease(rec ReleaseRecord) error {
	if strings.TrimSpace(rec.Component) == "" {
		return errors.New("component is required")
	}
	if rec.SchemaVersion.IsZero() {
		return errors.New("schema version is required")
	}
	if rec.RunID == uuid.Nil {
		return errors.New("run id is required")
	}
	return nil
}

// ReleaseStore provides pgx access to the release table.
type ReleaseStore struct {
	pool *pgxpool.Pool
}

// NewReleaseStore creates the release table when missing and returns a store.
func NewReleaseStore(ctx context.Context, pool *pgxpool.Pool) (*ReleaseStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	for _, stmt := range splitStatements(sqlassets.PostgresReleaseSQL) {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return nil, fmt.Errorf("ensure release table: %w", err)
		}
	}
	return &ReleaseStore{pool: pool}, nil
}

// Get returns the release row for component or ErrNotFound.
func (s *ReleaseStore) Get(ctx context.Context, component string) (ReleaseRecord, error) {
	query := fmt.Sprintf(`SELECT component, schema_version, run_id, applied_at FROM %s WHERE component = $1`, ReleaseTable)

	var (
		rec     ReleaseRecord
		version string
	)
	if err := s.pool.QueryRow(ctx, query, component).Scan(&rec.Component, &version, &rec.RunID, &rec.AppliedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ReleaseRecord{}, ErrNotFound
		}
		return ReleaseRecord{}, fmt.Errorf("get release %s: %w", component, err)
	}

	ver, err := ParseSemanticVersion(version)
	if err != nil {
		return ReleaseRecord{}, fmt.Errorf("parse release version: %w", err)
	}
	rec.SchemaVersion = ver
	return rec, nil
}

// Put inserts or replaces the release row of rec.Component.
func (s *ReleaseStore) Put(ctx context.Context, rec ReleaseRecord) error {
	if err := validateRelease(rec); err != nil {
		return err
	}
	if rec.AppliedAt.IsZero() {
		rec.AppliedAt = time.Now().UTC()
	}

	query := fmt.Sprintf(`
        INSERT INTO %s (component, schema_version, run_id, applied_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (component) DO UPDATE
        SET schema_version = EXCLUDED.schema_version, run_id = EXCLUDED.run_id, applied_at = EXCLUDED.applied_at`, ReleaseTable)

	if _, err := s.pool.Exec(ctx, query, rec.Component, rec.SchemaVersion.String(), rec.RunID, rec.AppliedAt); err != nil {
		return fmt.Errorf("put release %s: %w", rec.Component, err)
	}
	return nil
}
