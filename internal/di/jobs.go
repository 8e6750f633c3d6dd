package di

import (
	"fmt"

	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/config"
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/scheduler"
	"github.com/rs/zerolog"
)

// integrityCheckSchedule runs the integrity check weekly, Sunday 04:00
const integrityCheckSchedule = "0 0 4 * * SUN"

// RegisterJobs creates the maintenance jobs and registers them with a new scheduler.
// The scheduler is not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	sched := scheduler.New(log)

	jobs := &JobInstances{
		ResultCleanup:  scheduler.NewResultCleanupJob(container.ResultRepo, cfg.Jobs.ResultRetentionDays, log),
		WALCheckpoint:  scheduler.NewWALCheckpointJob(container.AllocationDB, log),
		IntegrityCheck: scheduler.NewIntegrityCheckJob(container.AllocationDB, log),
	}

	if err := sched.AddJob(cfg.Jobs.CleanupSchedule, jobs.ResultCleanup); err != nil {
		return nil, fmt.Errorf("failed to register result cleanup job: %w", err)
	}
	if err := sched.AddJob(cfg.Jobs.WALCheckpointSchedule, jobs.WALCheckpoint); err != nil {
		return nil, fmt.Errorf("failed to register WAL checkpoint job: %w", err)
	}
	if err := sched.AddJob(integrityCheckSchedule, jobs.IntegrityCheck); err != nil {
		return nil, fmt.Errorf("failed to register integrity check job: %w", err)
	}

	container.Scheduler = sched
	container.Jobs = jobs
	return jobs, nil
}
