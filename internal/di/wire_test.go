package di

import (
	"testing"

	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/allocation"
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		DataDir: t.TempDir(),
		Port:    8001,
		Allocation: config.AllocationConfig{
			QuotaScale:   2,
			LadderHigh:   "D30",
			LadderLow:    "D1",
			BatchWorkers: 2,
		},
		Jobs: config.JobsConfig{
			ResultRetentionDays:   30,
			CleanupSchedule:       "0 30 3 * * *",
			WALCheckpointSchedule: "0 */15 * * * *",
		},
	}
}

func TestWire(t *testing.T) {
	cfg := testConfig(t)

	container, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	assert.NotNil(t, container.AllocationDB)
	assert.NotNil(t, container.CustomerRepo)
	assert.NotNil(t, container.RatioRepo)
	assert.NotNil(t, container.LadderRepo)
	assert.NotNil(t, container.ResultRepo)
	assert.NotNil(t, container.DistributionService)
	assert.NotNil(t, container.AllocationHandler)
	assert.Equal(t, allocation.DefaultQuotaScale, container.Engine.Scale())

	require.NotNil(t, container.Jobs)
	assert.NotNil(t, container.Jobs.ResultCleanup)
	assert.NotNil(t, container.Jobs.WALCheckpoint)

	statuses := container.Scheduler.Jobs()
	require.Len(t, statuses, 3)
	assert.Equal(t, "integrity_check", statuses[0].Name)
	assert.Equal(t, "result_cleanup", statuses[1].Name)
	assert.Equal(t, "wal_checkpoint", statuses[2].Name)

	require.NoError(t, container.Scheduler.RunByName("wal_checkpoint"))
	require.NoError(t, container.Scheduler.RunByName("result_cleanup"))
}

func TestWire_InvalidLadder(t *testing.T) {
	cfg := testConfig(t)
	cfg.Allocation.LadderHigh = "D1"
	cfg.Allocation.LadderLow = "D30"

	_, err := Wire(cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestWire_InvalidSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Jobs.CleanupSchedule = "sometimes"

	_, err := Wire(cfg, zerolog.Nop())
	assert.Error(t, err)
}
