// Package results persists allocation runs and their quota rows.
package results

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/allocation"
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/database"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrRunNotFound is returned by GetRun for unknown run ids
var ErrRunNotFound = errors.New("allocation run not found")

// Repository handles allocation run write-back
// Database: allocation.db (allocation_runs, allocation_rows)
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time
}

// NewRepository creates a new results repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "results").Logger(),
		now: time.Now,
	}
}

// Save writes a run and all of its rows in one transaction and returns the new run id
func (r *Repository) Save(record Record) (string, error) {
	if record.EntityCode == "" {
		return "", fmt.Errorf("entity code is required")
	}
	if len(record.Allocation.Rows) != len(record.Allocation.Segments) {
		return "", fmt.Errorf("allocation has %d rows for %d segments",
			len(record.Allocation.Rows), len(record.Allocation.Segments))
	}

	runID := uuid.New().String()
	createdAt := r.now().Unix()

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO allocation_runs
				(run_id, entity_code, partition_key, mode, high_grade, low_grade, target, achieved, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			runID,
			record.EntityCode,
			record.Partition,
			string(record.Mode),
			allocation.GradeLabel(record.Ladder.High()),
			allocation.GradeLabel(record.Ladder.Low()),
			record.Target.String(),
			record.Achieved.String(),
			createdAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert allocation run: %w", err)
		}

		for i, segment := range record.Allocation.Segments {
			values, err := json.Marshal(record.Allocation.Rows[i].Slice())
			if err != nil {
				return fmt.Errorf("failed to encode row %s: %w", segment, err)
			}
			if _, err := tx.Exec(
				"INSERT INTO allocation_rows (run_id, position, segment, tier_values) VALUES (?, ?, ?, ?)",
				runID, i, segment, string(values),
			); err != nil {
				return fmt.Errorf("failed to insert allocation row %s: %w", segment, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	r.log.Info().
		Str("run_id", runID).
		Str("entity", record.EntityCode).
		Str("mode", string(record.Mode)).
		Int("rows", len(record.Allocation.Segments)).
		Msg("Allocation run saved")

	return runID, nil
}

// GetRun loads a run with its rows
func (r *Repository) GetRun(runID string) (*Run, error) {
	var run Run
	var mode, target, achieved string
	var createdAt int64

	err := r.db.QueryRow(`
		SELECT run_id, entity_code, partition_key, mode, high_grade, low_grade, target, achieved, created_at
		FROM allocation_runs WHERE run_id = ?
	`, runID).Scan(
		&run.RunID,
		&run.EntityCode,
		&run.Partition,
		&mode,
		&run.HighGrade,
		&run.LowGrade,
		&target,
		&achieved,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query allocation run: %w", err)
	}

	run.Mode = Mode(mode)
	run.CreatedAt = time.Unix(createdAt, 0).UTC()
	if run.Target, err = decimal.NewFromString(target); err != nil {
		return nil, fmt.Errorf("invalid stored target %q: %w", target, err)
	}
	if run.Achieved, err = decimal.NewFromString(achieved); err != nil {
		return nil, fmt.Errorf("invalid stored achieved total %q: %w", achieved, err)
	}

	rows, err := r.db.Query(
		"SELECT segment, tier_values FROM allocation_rows WHERE run_id = ? ORDER BY position",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocation rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var segment, raw string
		if err := rows.Scan(&segment, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan allocation row: %w", err)
		}
		var values []decimal.Decimal
		if err := json.Unmarshal([]byte(raw), &values); err != nil {
			return nil, fmt.Errorf("failed to decode row %s: %w", segment, err)
		}
		if len(values) != allocation.TierCount {
			return nil, fmt.Errorf("row %s has %d tier values, expected %d", segment, len(values), allocation.TierCount)
		}
		run.Rows = append(run.Rows, Row{Segment: segment, Values: allocation.VectorFrom(values)})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allocation rows: %w", err)
	}

	return &run, nil
}

// ListRuns returns the run ids of an entity and partition, newest first
func (r *Repository) ListRuns(entityCode, partition string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT run_id FROM allocation_runs
		WHERE entity_code = ? AND partition_key = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, entityCode, partition, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocation runs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan run id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allocation runs: %w", err)
	}

	return ids, nil
}

// DeleteOlderThan removes runs created before cutoff and returns how many runs were removed.
// Rows are deleted explicitly so the result does not depend on foreign key enforcement.
func (r *Repository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	var deleted int64

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			DELETE FROM allocation_rows
			WHERE run_id IN (SELECT run_id FROM allocation_runs WHERE created_at < ?)
		`, cutoff.Unix()); err != nil {
			return fmt.Errorf("failed to delete allocation rows: %w", err)
		}

		result, err := tx.Exec("DELETE FROM allocation_runs WHERE created_at < ?", cutoff.Unix())
		if err != nil {
			return fmt.Errorf("failed to delete allocation runs: %w", err)
		}
		deleted, _ = result.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.log.Debug().
		Time("cutoff", cutoff).
		Int64("runs_deleted", deleted).
		Msg("Old allocation runs deleted")

	return deleted, nil
}
