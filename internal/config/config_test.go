package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "scorecast.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10_000, cfg.MonteCarloIterations)
	assert.Equal(t, 1_000, cfg.SeasonTrials)
	assert.Greater(t, cfg.Workers, 0)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SCORECAST_ADDR", ":9999")
	t.Setenv("SCORECAST_DB_PATH", ":memory:")
	t.Setenv("SCORECAST_LOG_LEVEL", "debug")
	t.Setenv("SCORECAST_SEASON_TRIALS", "250")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, ":memory:", cfg.DBPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 250, cfg.SeasonTrials)
	assert.Equal(t, 10_000, cfg.MonteCarloIterations, "untouched keys keep their defaults")
}

func TestLoadYAMLFileThenEnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scorecast.yaml")
	yaml := "addr: \":7070\"\nlog_level: warn\nmonte_carlo_iterations: 500\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("SCORECAST_CONFIG", path)
	t.Setenv("SCORECAST_LOG_LEVEL", "error")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Addr, "file overrides defaults")
	assert.Equal(t, 500, cfg.MonteCarloIterations)
	assert.Equal(t, "error", cfg.LogLevel, "env overrides the file")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("SCORECAST_SEASON_TRIALS", "0")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("SCORECAST_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}
