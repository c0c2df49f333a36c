package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect selects the SQL flavour spoken by a database/sql connection.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

// DialectForDriver maps a database/sql driver name onto its dialect.
func DialectForDriver(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite3", "sqlite":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pq":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unsupported database/sql driver %q (use sqlite3 or postgres)", driver)
	}
}

// Rebind rewrites '?' placeholders into the dialect's native form.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// SQLConfig configures a database/sql handle opened through OpenSQL.
type SQLConfig struct {
	Driver         string
	DSN            string
	MaxOpenConns   int
	ConnectTimeout time.Duration
}

// SQLDB pairs a database/sql handle with the dialect it speaks.
type SQLDB struct {
	DB      *sql.DB
	Dialect Dialect
}

// OpenSQL opens and pings a database/sql handle for the configured driver.
// SQLite handles are pinned to a single connection so ":memory:" databases
// and write transactions stay on one connection.
func OpenSQL(ctx context.Context, cfg SQLConfig) (*SQLDB, error) {
	dialect, err := DialectForDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("dsn is required")
	}

	db, err := sql.Open(string(dialect), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}

	switch {
	case dialect == DialectSQLite:
		db.SetMaxOpenConns(1)
	case cfg.MaxOpenConns > 0:
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	return &SQLDB{DB: db, Dialect: dialect}, nil
}

// Close releases the handle; safe to call with nil.
func (s *SQLDB) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// HasColumn reports whether table already carries column.
func (s *SQLDB) HasColumn(ctx context.Context, table, column string) (bool, error) {
	table, err := normalizeIdentifier("table", table)
	if err != nil {
		return false, err
	}
	column, err = normalizeIdentifier("column", column)
	if err != nil {
		return false, err
	}

	var query string
	switch s.Dialect {
	case DialectSQLite:
		query = `SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`
	default:
		query = `SELECT COUNT(*) FROM information_schema.columns
            WHERE table_schema = current_schema() AND table_name = ? AND column_name = ?`
	}

	var count int
	if err := s.DB.QueryRowContext(ctx, s.Dialect.Rebind(query), table, column).Scan(&count); err != nil {
		return false, fmt.Errorf("check column %s.%s: %w", table, column, err)
	}
	return count > 0, nil
}

// AddColumn appends column to table with the given SQL type definition.
func (s *SQLDB) AddColumn(ctx context.Context, table, column, definition string) error {
	table, err := normalizeIdentifier("table", table)
	if err != nil {
		return err
	}
	column, err = normalizeIdentifier("column", column)
	if err != nil {
		return err
	}

	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition)
	if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	return nil
}

// CreateIndex creates a non-unique index unless it already exists.
func (s *SQLDB) CreateIndex(ctx context.Context, name, table, column string) error {
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

	stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", name, table, column)
	if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}
