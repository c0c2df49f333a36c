package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	sqlassets "github.com/zenGate-Global/palmyra-mb-upgrade/database"
)

// BootstrapMessageBoards creates the messages and release tables (if missing)
// in a single transaction. It reproduces the pre-upgrade 3.0.x layout, so the
// messages table has no url_subject column. SQL is embedded at build time; the
// helper is idempotent and intended for CLI bootstrap and tests.
func BootstrapMessageBoards(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("bootstrap message boards: pool is required")
	}

	var statements []string
	statements = append(statements, splitStatements(sqlassets.PostgresMessagesSQL)...)
	statements = append(statements, splitStatements(sqlassets.PostgresReleaseSQL)...)

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply ddl: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// BootstrapMessageBoardsSQL is BootstrapMessageBoards for database/sql handles.
func BootstrapMessageBoardsSQL(ctx context.Context, db *SQLDB) error {
	if db == nil || db.DB == nil {
		return fmt.Errorf("bootstrap message boards: sql db is required")
	}

	var statements []string
	switch db.Dialect {
	case DialectSQLite:
		statements = append(statements, splitStatements(sqlassets.SQLiteMessagesSQL)...)
		statements = append(statements, splitStatements(sqlassets.SQLiteReleaseSQL)...)
	default:
		statements = append(statements, splitStatements(sqlassets.PostgresMessagesSQL)...)
		statements = append(statements, splitStatements(sqlassets.PostgresReleaseSQL)...)
	}

	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply ddl: %w", err)
		}
	}

	return tx.Commit()
}
