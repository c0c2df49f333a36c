package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	sqlassets "github.com/zenGate-Global/palmyra-mb-upgrade/database"
)

// SQLReleaseStore provides database/sql access to the release table.
type SQLReleaseStore struct {
	db *SQLDB
}

// NewSQLReleaseStore creates the release table when missing and returns a store.
func NewSQLReleaseStore(ctx context.Context, db *SQLDB) (*SQLReleaseStore, error) {
	if db == nil || db.DB == nil {
		return nil, errors.New("sql db is required")
	}

	ddl := sqlassets.PostgresReleaseSQL
	if db.Dialect == DialectSQLite {
		ddl = sqlassets.SQLiteReleaseSQL
	}
	for _, stmt := range splitStatements(ddl) {
		if _, err := db.DB.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("ensure release table: %w", err)
		}
	}
	return &SQLReleaseStore{db: db}, nil
}

func (s *SQLReleaseStore) Get(ctx context.Context, component string) (ReleaseRecord, error) {
	query := s.db.Dialect.Rebind(fmt.Sprintf(`SELECT component, schema_version, run_id, applied_at FROM %s WHERE component = ?`, ReleaseTable))

	var (
		rec     ReleaseRecord
		version string
		runID   string
	)
	if err := s.db.DB.QueryRowContext(ctx, query, component).Scan(&rec.Component, &version, &runID, &rec.AppliedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ReleaseRecord{}, ErrNotFound
		}
		return ReleaseRecord{}, fmt.Errorf("get release %s: %w", component, err)
	}

	ver, err := ParseSemanticVersion(version)
	if err != nil {
		return ReleaseRecord{}, fmt.Errorf("parse release version: %w", err)
	}
	id, err := uuid.Parse(runID)
	if err != nil {
		return ReleaseRecord{}, fmt.Errorf("parse release run id: %w", err)
	}

	rec.SchemaVersion = ver
	rec.RunID = id
	return rec, nil
}

func (s *SQLReleaseStore) Put(ctx context.Context, rec ReleaseRecord) error {
	if err := validateRelease(rec); err != nil {
		return err
	}
	if rec.AppliedAt.IsZero() {
		rec.AppliedAt = time.Now().UTC()
	}

	query := s.db.Dialect.Rebind(fmt.Sprintf(`
        INSERT INTO %s (component, schema_version, run_id, applied_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT (component) DO UPDATE
        SET schema_version = excluded.schema_version, run_id = excluded.run_id, applied_at = excluded.applied_at`, ReleaseTable))

	if _, err := s.db.DB.ExecContext(ctx, query, rec.Component, rec.SchemaVersion.String(), rec.RunID.String(), rec.AppliedAt); err != nil {
		return fmt.Errorf("put release %s: %w", rec.Component, err)
	}
	return nil
}
