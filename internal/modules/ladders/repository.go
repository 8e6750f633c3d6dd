// Package ladders resolves the grade range each entity is allocated over.
package ladders

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/allocation"
	"github.com/rs/zerolog"
)

// EntityLadder is a stored per-entity grade range
type EntityLadder struct {
	EntityCode string    `json:"entity_code"`
	HighGrade  string    `json:"high_grade"`
	LowGrade   string    `json:"low_grade"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Repository handles entity ladder operations
// Database: allocation.db (entity_ladders table)
type Repository struct {
	db       *sql.DB
	fallback allocation.GradeLadder
	log      zerolog.Logger
}

// NewRepository creates a new ladders repository.
// fallback is returned for entities without a stored range.
func NewRepository(db *sql.DB, fallback allocation.GradeLadder, log zerolog.Logger) *Repository {
	return &Repository{
		db:       db,
		fallback: fallback,
		log:      log.With().Str("repo", "ladders").Logger(),
	}
}

// Default returns the ladder used when an entity has no override
func (r *Repository) Default() allocation.GradeLadder {
	return r.fallback
}

// Get returns the stored range of an entity, nil when there is none
func (r *Repository) Get(entityCode string) (*EntityLadder, error) {
	var ladder EntityLadder
	var updatedAt sql.NullInt64

	err := r.db.QueryRow(
		"SELECT entity_code, high_grade, low_grade, updated_at FROM entity_ladders WHERE entity_code = ?",
		entityCode,
	).Scan(&ladder.EntityCode, &ladder.HighGrade, &ladder.LowGrade, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query entity ladder: %w", err)
	}

	if updatedAt.Valid {
		ladder.UpdatedAt = time.Unix(updatedAt.Int64, 0).UTC()
	}
	return &ladder, nil
}

// Resolve returns the ladder of an entity, falling back to the default
func (r *Repository) Resolve(entityCode string) (allocation.GradeLadder, error) {
	stored, err := r.Get(entityCode)
	if err != nil {
		return allocation.GradeLadder{}, err
	}
	if stored == nil {
		return r.fallback, nil
	}

	ladder, err := allocation.LadderFromGrades(stored.HighGrade, stored.LowGrade)
	if err != nil {
		return allocation.GradeLadder{}, fmt.Errorf("stored ladder of %s is invalid: %w", entityCode, err)
	}
	return ladder, nil
}

// Upsert stores the grade range of an entity after validating the labels
func (r *Repository) Upsert(entityCode, highGrade, lowGrade string) error {
	ladder, err := allocation.LadderFromGrades(highGrade, lowGrade)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO entity_ladders (entity_code, high_grade, low_grade, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(entity_code) DO UPDATE SET
			high_grade = excluded.high_grade,
			low_grade = excluded.low_grade,
			updated_at = excluded.updated_at
	`

	high := allocation.GradeLabel(ladder.High())
	low := allocation.GradeLabel(ladder.Low())
	if _, err := r.db.Exec(query, entityCode, high, low, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to upsert entity ladder: %w", err)
	}

	r.log.Debug().
		Str("entity", entityCode).
		Str("ladder", ladder.String()).
		Msg("Entity ladder upserted")

	return nil
}

// Delete removes the override of an entity
func (r *Repository) Delete(entityCode string) error {
	if _, err := r.db.Exec("DELETE FROM entity_ladders WHERE entity_code = ?", entityCode); err != nil {
		return fmt.Errorf("failed to delete entity ladder: %w", err)
	}
	return nil
}
