package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, 2, cfg.Allocation.QuotaScale)
	assert.Equal(t, "D30", cfg.Allocation.LadderHigh)
	assert.Equal(t, "D1", cfg.Allocation.LadderLow)
	assert.Equal(t, 4, cfg.Allocation.BatchWorkers)
	assert.Equal(t, 90, cfg.Jobs.ResultRetentionDays)
	assert.Equal(t, filepath.Join(dir, "allocation.db"), cfg.DatabasePath())

	ladder, err := cfg.DefaultLadder()
	require.NoError(t, err)
	assert.Equal(t, 0, ladder.High())
	assert.Equal(t, 29, ladder.Low())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9100")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("QUOTA_SCALE", "0")
	t.Setenv("LADDER_HIGH", "D25")
	t.Setenv("LADDER_LOW", "D5")
	t.Setenv("BATCH_WORKERS", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, int32(0), cfg.EngineOptions().Scale)
	assert.Equal(t, 8, cfg.Allocation.BatchWorkers)

	ladder, err := cfg.DefaultLadder()
	require.NoError(t, err)
	assert.Equal(t, 5, ladder.High())
	assert.Equal(t, 25, ladder.Low())
}

func TestLoad_IgnoresUnparsableNumbers(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("PORT", "not-a-port")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8001, cfg.Port)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port: 8001,
			Allocation: AllocationConfig{
				QuotaScale:   2,
				LadderHigh:   "D30",
				LadderLow:    "D1",
				BatchWorkers: 1,
			},
			Jobs: JobsConfig{
				ResultRetentionDays:   30,
				CleanupSchedule:       "0 30 3 * * *",
				WALCheckpointSchedule: "@every 15m",
			},
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"port", func(c *Config) { c.Port = 0 }},
		{"scale", func(c *Config) { c.Allocation.QuotaScale = 17 }},
		{"workers", func(c *Config) { c.Allocation.BatchWorkers = 0 }},
		{"reversed ladder", func(c *Config) { c.Allocation.LadderHigh, c.Allocation.LadderLow = "D1", "D30" }},
		{"bad grade", func(c *Config) { c.Allocation.LadderLow = "Z9" }},
		{"retention", func(c *Config) { c.Jobs.ResultRetentionDays = 0 }},
		{"cleanup schedule", func(c *Config) { c.Jobs.CleanupSchedule = "every day" }},
		{"checkpoint schedule", func(c *Config) { c.Jobs.WALCheckpointSchedule = "* * *" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
