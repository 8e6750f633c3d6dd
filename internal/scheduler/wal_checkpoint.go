package scheduler

import (
	"fmt"

	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/database"
	"github.com/rs/zerolog"
)

// walTruncateFrames is the WAL size (in frames) above which the job truncates
const walTruncateFrames = 1000

// WALCheckpointJob checkpoints the allocation database and truncates a large WAL
type WALCheckpointJob struct {
	JobBase
	log zerolog.Logger
	db  *database.DB
}

// NewWALCheckpointJob creates a new WALCheckpointJob
func NewWALCheckpointJob(db *database.DB, log zerolog.Logger) *WALCheckpointJob {
	return &WALCheckpointJob{
		log: log.With().Str("job", "wal_checkpoint").Logger(),
		db:  db,
	}
}

// Name returns the job name
func (j *WALCheckpointJob) Name() string {
	return "wal_checkpoint"
}

// Run executes the checkpoint
func (j *WALCheckpointJob) Run() (err error) {
	defer func() { j.RecordRun(err) }()

	if j.db == nil {
		j.log.Warn().Msg("Database not initialized, skipping")
		return nil
	}

	// PRAGMA wal_checkpoint returns: busy, log, checkpointed
	var busy, frames, checkpointed int
	if err := j.db.Conn().QueryRow("PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &frames, &checkpointed); err != nil {
		return fmt.Errorf("failed to checkpoint %s: %w", j.db.Name(), err)
	}

	if frames > walTruncateFrames {
		j.log.Warn().
			Str("database", j.db.Name()).
			Int("wal_frames", frames).
			Int("checkpointed", checkpointed).
			Msg("WAL file is large, truncating")
		if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
			return err
		}
	}

	j.log.Debug().
		Str("database", j.db.Name()).
		Int("busy", busy).
		Int("wal_frames", frames).
		Msg("WAL checkpoint completed")

	return nil
}
