// Package backend opens the stores the CLI commands run against.
package backend

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-mb-upgrade/domains/messageboards/be/repo"
	"github.com/zenGate-Global/palmyra-mb-upgrade/platform/go/logging"
	"github.com/zenGate-Global/palmyra-mb-upgrade/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-mb-upgrade/platform/go/upgrade"
)

// DriverPGX selects the native pgx pool; every other driver goes through database/sql.
const DriverPGX = "pgx"

// Backend bundles the repositories for one CLI invocation.
type Backend struct {
	Repository repo.Repository
	Releases   upgrade.ReleaseStore
	closeFn    func()
}

// OpenOptions tweaks Open.
type OpenOptions struct {
	// Bootstrap creates the message-board tables before opening the stores.
	Bootstrap bool
}

// Open connects to the configured database and builds the stores.
func Open(ctx context.Context, cfg Config, opts OpenOptions) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.DatabaseDriver == DriverPGX {
		return openPGX(ctx, cfg, opts)
	}
	return openSQL(ctx, cfg, opts)
}

func openPGX(ctx context.Context, cfg Config, opts OpenOptions) (*Backend, error) {
	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{
		ConnString:     cfg.DatabaseURL,
		MaxConns:       cfg.MaxConns,
		ConnectTimeout: cfg.ConnectTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("init pool: %w", err)
	}

	if opts.Bootstrap {
		if err := persistence.BootstrapMessageBoards(ctx, pool); err != nil {
			persistence.ClosePool(pool)
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
	}

	messages, err := persistence.NewMessageStore(ctx, pool)
	if err != nil {
		persistence.ClosePool(pool)
		return nil, fmt.Errorf("init message store: %w", err)
	}
	releases, err := persistence.NewReleaseStore(ctx, pool)
	if err != nil {
		persistence.ClosePool(pool)
		return nil, fmt.Errorf("init release store: %w", err)
	}

	return &Backend{
		Repository: repo.NewPostgresRepository(messages),
		Releases:   releases,
		closeFn:    func() { persistence.ClosePool(pool) },
	}, nil
}

func openSQL(ctx context.Context, cfg Config, opts OpenOptions) (*Backend, error) {
	db, err := persistence.OpenSQL(ctx, persistence.SQLConfig{
		Driver:         cfg.DatabaseDriver,
		DSN:            cfg.DatabaseURL,
		MaxOpenConns:   int(cfg.MaxConns),
		ConnectTimeout: cfg.ConnectTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if opts.Bootstrap {
		if err := persistence.BootstrapMessageBoardsSQL(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
	}

	messages, err := persistence.NewSQLMessageStore(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message store: %w", err)
	}
	releases, err := persistence.NewSQLReleaseStore(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init release store: %w", err)
	}

	return &Backend{
		Repository: repo.NewSQLRepository(messages),
		Releases:   releases,
		closeFn:    func() { _ = db.Close() },
	}, nil
}

// Close releases the underlying connections; safe to call on nil.
func (b *Backend) Close() {
	if b != nil && b.closeFn != nil {
		b.closeFn()
	}
}

// NewLogger builds the CLI logger writing to w.
func NewLogger(cfg Config, w io.Writer) (*zap.Logger, error) {
	logger, err := logging.NewLogger(logging.Config{Component: "mbupgrade", Level: cfg.LogLevel, Output: w})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}
