package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgExecutor is the slice of pgxpool.Pool / pgx.Tx used by the schema helpers.
type pgExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgHasColumn reports whether table (in the current schema) carries column.
func pgHasColumn(ctx context.Context, db pgExecutor, table, column string) (bool, error) {
	table, err := normalizeIdentifier("table", table)
	if err != nil {
		return false, err
	}
	column, err = normalizeIdentifier("column", column)
	if err != nil {
		return false, err
	}

	var exists bool
	if err := db.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1
            FROM information_schema.columns
            WHERE table_schema = current_schema() AND table_name = $1 AND column_name = $2
        )`, table, column).Scan(&exists); err != nil {
		return false, fmt.Errorf("check column %s.%s: %w", table, column, err)
	}
	return exists, nil
}

func pgAddColumn(ctx context.Context, db pgExecutor, table, column, definition string) error {
	table, err := normalizeIdentifier("table", table)
	if err != nil {
		return err
	}
	column, err = normalizeIdentifier("column", column)
	if err != nil {
		return err
	}

	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
		pgx.Identifier{table}.Sanitize(), pgx.Identifier{column}.Sanitize(), definition)
	if _, err := db.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	return nil
}

func pgCreateIndex(ctx context.Context, db pgExecutor, name, table, column string) error {
	name, err := normalizeIdentifier("index", name)
	if err != nil {
		return err
	}
	table, err = normalizeIdentifier("table", table)
	if err != nil {
		return err
	}
	column, err = normalizeIdentifier("column", column)
	if err != nil {
		return err
	}

	stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
		pgx.Identifier{name}.Sanitize(), pgx.Identifier{table}.Sanitize(), pgx.Identifier{column}.Sanitize())
	if _, err := db.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}
