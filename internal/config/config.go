// Package config reads engineermaster settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/abhisek/engineermaster/internal/achievement"
	"github.com/abhisek/engineermaster/internal/progression"
	"github.com/abhisek/engineermaster/internal/store"
)

// Config holds all runtime configuration.
type Config struct {
	// DB is the SQLite path or Postgres DSN. Empty selects the default
	// SQLite file under $XDG_DATA_HOME.
	DB string `env:"ENGINEERMASTER_DB"`
	// DBDriver is "sqlite" or "postgres".
	DBDriver string `env:"ENGINEERMASTER_DB_DRIVER" envDefault:"sqlite"`
	// Catalog is a YAML catalog file. Empty selects the built-in catalog.
	Catalog string `env:"ENGINEERMASTER_CATALOG"`

	LogMode  string `env:"ENGINEERMASTER_LOG_MODE" envDefault:"dev"`
	LogLevel string `env:"ENGINEERMASTER_LOG_LEVEL" envDefault:"warn"`

	TreeBonusXP         int  `env:"ENGINEERMASTER_TREE_BONUS_XP" envDefault:"1000"`
	MasteryThreshold    int  `env:"ENGINEERMASTER_MASTERY_THRESHOLD" envDefault:"5"`
	FoundationThreshold int  `env:"ENGINEERMASTER_FOUNDATION_THRESHOLD" envDefault:"1"`
	AwardOnProgress     bool `env:"ENGINEERMASTER_AWARD_ON_PROGRESS" envDefault:"true"`

	Retry RetryConfig `envPrefix:"ENGINEERMASTER_RETRY_"`
}

// RetryConfig configures retries of transient store failures.
type RetryConfig struct {
	MaxAttempts int           `env:"MAX_ATTEMPTS" envDefault:"3"`
	InitialWait time.Duration `env:"INITIAL_WAIT" envDefault:"50ms"`
	MaxWait     time.Duration `env:"MAX_WAIT" envDefault:"1s"`
	Multiplier  float64       `env:"MULTIPLIER" envDefault:"2.0"`
}

// Load reads configuration from the process environment, falling back to
// values in dotenvPath when that file exists. Process variables win.
func Load(dotenvPath string) (Config, error) {
	environ := make(map[string]string)
	if dotenvPath != "" {
		fileVars, err := godotenv.Read(dotenvPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read %s: %w", dotenvPath, err)
		default:
			for k, v := range fileVars {
				environ[k] = v
			}
		}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			environ[k] = v
		}
	}
	return FromEnvironment(environ)
}

// FromEnvironment parses configuration from an explicit variable set.
func FromEnvironment(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	switch c.DBDriver {
	case store.DriverSQLite:
	case store.DriverPostgres:
		if c.DB == "" {
			return errors.New("ENGINEERMASTER_DB must be set when using the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.DBDriver)
	}
	if err := c.Progression().Validate(); err != nil {
		return err
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.Multiplier < 1 {
		return fmt.Errorf("retry multiplier must be at least 1, got %g", c.Retry.Multiplier)
	}
	return nil
}

// Progression returns the engine rules.
func (c Config) Progression() progression.Config {
	return progression.Config{
		TreeCompletionBonusXP: c.TreeBonusXP,
		Thresholds: achievement.Thresholds{
			MasteryNodes:    c.MasteryThreshold,
			FoundationNodes: c.FoundationThreshold,
		},
		AwardOnProgress: c.AwardOnProgress,
	}
}

// StoreRetry returns the retry policy for the store decorator.
func (c Config) StoreRetry() store.RetryConfig {
	return store.RetryConfig{
		MaxAttempts: c.Retry.MaxAttempts,
		InitialWait: c.Retry.InitialWait,
		MaxWait:     c.Retry.MaxWait,
		Multiplier:  c.Retry.Multiplier,
	}
}

// DSN resolves the database location, creating the default SQLite
// directory when needed.
func (c Config) DSN() (string, error) {
	if c.DB != "" {
		if c.DBDriver == store.DriverSQLite {
			return c.DB, store.EnsureDir(c.DB)
		}
		return c.DB, nil
	}
	return store.DefaultDBPath()
}
