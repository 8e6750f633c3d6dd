package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/database"
	"github.com/rs/zerolog"
)

// IntegrityCheckJob verifies integrity of the allocation database
type IntegrityCheckJob struct {
	JobBase
	log     zerolog.Logger
	db      *database.DB
	timeout time.Duration
}

// NewIntegrityCheckJob creates a new IntegrityCheckJob
func NewIntegrityCheckJob(db *database.DB, log zerolog.Logger) *IntegrityCheckJob {
	return &IntegrityCheckJob{
		log:     log.With().Str("job", "integrity_check").Logger(),
		db:      db,
		timeout: 2 * time.Minute,
	}
}

// Name returns the job name
func (j *IntegrityCheckJob) Name() string {
	return "integrity_check"
}

// Run executes PRAGMA integrity_check through the database health check
func (j *IntegrityCheckJob) Run() (err error) {
	defer func() { j.RecordRun(err) }()

	if j.db == nil {
		return fmt.Errorf("database not initialized")
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.db.HealthCheck(ctx); err != nil {
		// corruption cannot be repaired automatically
		j.log.Error().Err(err).Str("database", j.db.Name()).Msg("Database integrity check failed")
		return fmt.Errorf("database %s is corrupted: %w", j.db.Name(), err)
	}

	j.log.Info().Str("database", j.db.Name()).Msg("Database integrity check passed")
	return nil
}
