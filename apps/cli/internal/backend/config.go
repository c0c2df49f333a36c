package backend

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
)

// Config is read from the environment and then overridden by explicit flags.
type Config struct {
	DatabaseURL    string        `env:"DATABASE_URL"`
	DatabaseDriver string        `env:"DATABASE_DRIVER" envDefault:"pgx"` // pgx | postgres | sqlite3
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	BatchSize      int           `env:"BATCH_SIZE" envDefault:"1000"`
	MaxConns       int32         `env:"DB_MAX_CONNS" envDefault:"2"`
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"10s"`
}

// Flag names shared by every command; registered on the root command.
const (
	FlagDatabaseURL = "database-url"
	FlagDriver      = "driver"
	FlagLogLevel    = "log-level"
	FlagBatchSize   = "batch-size"
)

// RegisterFlags attaches the connection flags to cmd as persistent flags.
func RegisterFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String(FlagDatabaseURL, "", "Database connection string (env DATABASE_URL)")
	cmd.PersistentFlags().String(FlagDriver, "", "Database driver: pgx, postgres or sqlite3 (env DATABASE_DRIVER)")
	cmd.PersistentFlags().String(FlagLogLevel, "", "Log level: debug, info, warn, error (env LOG_LEVEL)")
	cmd.PersistentFlags().Int(FlagBatchSize, 0, "Statements per update batch (env BATCH_SIZE)")
}

// LoadConfig parses the environment and applies flags the user set on cmd.
func LoadConfig(cmd *cobra.Command) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed(FlagDatabaseURL) {
		cfg.DatabaseURL, _ = flags.GetString(FlagDatabaseURL)
	}
	if flags.Changed(FlagDriver) {
		cfg.DatabaseDriver, _ = flags.GetString(FlagDriver)
	}
	if flags.Changed(FlagLogLevel) {
		cfg.LogLevel, _ = flags.GetString(FlagLogLevel)
	}
	if flags.Changed(FlagBatchSize) {
		cfg.BatchSize, _ = flags.GetInt(FlagBatchSize)
	}

	cfg.DatabaseDriver = strings.ToLower(strings.TrimSpace(cfg.DatabaseDriver))
	return cfg, nil
}

// Validate checks the settings needed to open a database.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("database url is required (--%s or DATABASE_URL)", FlagDatabaseURL)
	}
	switch c.DatabaseDriver {
	case DriverPGX, "postgres", "postgresql", "sqlite3", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.DatabaseDriver)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("batch size must not be negative")
	}
	return nil
}
