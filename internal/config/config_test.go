package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/engineermaster/internal/progression"
)

func TestDefaults(t *testing.T) {
	cfg, err := FromEnvironment(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "dev", cfg.LogMode)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, progression.DefaultConfig(), cfg.Progression())
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, cfg.Retry.InitialWait)
	assert.Equal(t, time.Second, cfg.Retry.MaxWait)
	assert.Equal(t, 2.0, cfg.Retry.Multiplier)
}

func TestOverrides(t *testing.T) {
	cfg, err := FromEnvironment(map[string]string{
		"ENGINEERMASTER_DB":                   "postgres://localhost/em",
		"ENGINEERMASTER_DB_DRIVER":            "postgres",
		"ENGINEERMASTER_TREE_BONUS_XP":        "250",
		"ENGINEERMASTER_MASTERY_THRESHOLD":    "3",
		"ENGINEERMASTER_FOUNDATION_THRESHOLD": "2",
		"ENGINEERMASTER_AWARD_ON_PROGRESS":    "false",
		"ENGINEERMASTER_RETRY_MAX_ATTEMPTS":   "5",
		"ENGINEERMASTER_RETRY_INITIAL_WAIT":   "10ms",
	})
	require.NoError(t, err)

	p := cfg.Progression()
	assert.Equal(t, 250, p.TreeCompletionBonusXP)
	assert.Equal(t, 3, p.Thresholds.MasteryNodes)
	assert.Equal(t, 2, p.Thresholds.FoundationNodes)
	assert.False(t, p.AwardOnProgress)

	r := cfg.StoreRetry()
	assert.Equal(t, 5, r.MaxAttempts)
	assert.Equal(t, 10*time.Millisecond, r.InitialWait)

	dsn, err := cfg.DSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/em", dsn)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"ENGINEERMASTER_DB_DRIVER": "oracle"}},
		{"postgres without dsn", map[string]string{"ENGINEERMASTER_DB_DRIVER": "postgres"}},
		{"negative bonus", map[string]string{"ENGINEERMASTER_TREE_BONUS_XP": "-1"}},
		{"zero mastery threshold", map[string]string{"ENGINEERMASTER_MASTERY_THRESHOLD": "0"}},
		{"zero attempts", map[string]string{"ENGINEERMASTER_RETRY_MAX_ATTEMPTS": "0"}},
		{"shrinking backoff", map[string]string{"ENGINEERMASTER_RETRY_MULTIPLIER": "0.5"}},
		{"not a number", map[string]string{"ENGINEERMASTER_TREE_BONUS_XP": "lots"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromEnvironment(tt.env); err == nil {
				t.Errorf("expected error for %v", tt.env)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("ENGINEERMASTER_TREE_BONUS_XP=42\nENGINEERMASTER_LOG_MODE=prod\n"), 0o644))

	t.Setenv("ENGINEERMASTER_LOG_MODE", "nop")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.TreeBonusXP)
	assert.Equal(t, "nop", cfg.LogMode, "process environment wins over .env")

	_, err = Load(filepath.Join(dir, "absent.env"))
	assert.NoError(t, err)
}

func TestDSNCreatesSQLiteDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "em.db")
	cfg, err := FromEnvironment(map[string]string{"ENGINEERMASTER_DB": path})
	require.NoError(t, err)

	dsn, err := cfg.DSN()
	require.NoError(t, err)
	assert.Equal(t, path, dsn)
	_, err = os.Stat(filepath.Dir(path))
	assert.NoError(t, err)
}
