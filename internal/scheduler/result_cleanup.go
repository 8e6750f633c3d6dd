package scheduler

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// RunPruner deletes persisted allocation runs (implemented by results.Repository)
type RunPruner interface {
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

// ResultCleanupJob removes allocation runs older than the retention window
type ResultCleanupJob struct {
	JobBase
	log       zerolog.Logger
	pruner    RunPruner
	retention time.Duration
	now       func() time.Time
}

// NewResultCleanupJob creates a new ResultCleanupJob keeping retentionDays of runs
func NewResultCleanupJob(pruner RunPruner, retentionDays int, log zerolog.Logger) *ResultCleanupJob {
	return &ResultCleanupJob{
		log:       log.With().Str("job", "result_cleanup").Logger(),
		pruner:    pruner,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		now:       time.Now,
	}
}

// Name returns the job name
func (j *ResultCleanupJob) Name() string {
	return "result_cleanup"
}

// Run executes the cleanup
func (j *ResultCleanupJob) Run() (err error) {
	defer func() { j.RecordRun(err) }()

	if j.pruner == nil {
		return fmt.Errorf("result store not configured")
	}
	if j.retention <= 0 {
		return fmt.Errorf("retention must be positive")
	}

	cutoff := j.now().Add(-j.retention)
	deleted, err := j.pruner.DeleteOlderThan(cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete old runs: %w", err)
	}

	j.log.Info().
		Time("cutoff", cutoff).
		Int64("deleted", deleted).
		Msg("Result cleanup completed")

	return nil
}
