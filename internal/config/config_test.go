package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewDefaultsAreValid(t *testing.T) {
	cfg := New()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 1, cfg.DaysPerChunk)
	require.Equal(t, 3, cfg.MaxAttempts)
	require.Equal(t, 55, cfg.TimezoneID)
	require.Equal(t, "timeOnly", cfg.TimeFilter)
	require.Equal(t, []int{1, 2, 3}, cfg.Importance)
	require.Equal(t, "empty", cfg.FallbackMode)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero days per chunk", mutate: func(c *Config) { c.DaysPerChunk = 0 }},
		{name: "negative max attempts", mutate: func(c *Config) { c.MaxAttempts = -1 }},
		{name: "negative delay", mutate: func(c *Config) { c.DelayMin = -time.Second }},
		{name: "min above max", mutate: func(c *Config) { c.DelayMin = 5 * time.Second; c.DelayMax = time.Second }},
		{name: "unknown fallback", mutate: func(c *Config) { c.FallbackMode = "sometimes" }},
		{name: "unknown timezone", mutate: func(c *Config) { c.TimezoneID = -7 }},
		{name: "importance out of range", mutate: func(c *Config) { c.Importance = []int{4} }},
		{name: "zero request timeout", mutate: func(c *Config) { c.RequestTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "econ.yaml")
	yaml := []byte("days_per_chunk: 2\ndelay_min: 500ms\ndelay_max: 2s\nfallback_mode: always\ncategories:\n  - _inflation\n  - _employment\n")
	require.NoError(t, os.WriteFile(path, yaml, 0o600))

	t.Setenv("ECONCAL_MAX_ATTEMPTS", "5")
	t.Setenv("ECONCAL_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.DaysPerChunk)
	require.Equal(t, 500*time.Millisecond, cfg.DelayMin)
	require.Equal(t, 2*time.Second, cfg.DelayMax)
	require.Equal(t, "always", cfg.FallbackMode)
	require.Equal(t, []string{"_inflation", "_employment"}, cfg.Categories)
	require.Equal(t, 5, cfg.MaxAttempts)
	require.Equal(t, "debug", cfg.LogLevel)
	// untouched keys keep their defaults
	require.Equal(t, 55, cfg.TimezoneID)
}

func TestLoadConfigPathFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "econ.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timezone_id: 58\n"), 0o600))
	t.Setenv("ECONCAL_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 58, cfg.TimezoneID)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.ErrorIs(t, err, ErrLoadConfig)
	})

	t.Run("invalid values", func(t *testing.T) {
		t.Setenv("ECONCAL_DAYS_PER_CHUNK", "0")
		_, err := Load("")
		require.ErrorIs(t, err, ErrInvalidConfig)
	})
}
