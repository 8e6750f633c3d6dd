// Package ratios stores group ratio tables and segment group assignments.
package ratios

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/allocation"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Scheme names a grouping dimension, e.g. "urban_rural" or "integrity_group"
type Scheme string

// GroupRatio is one stored ratio row
type GroupRatio struct {
	Scheme    Scheme          `json:"scheme"`
	Group     string          `json:"group"`
	Ratio     decimal.Decimal `json:"ratio"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Repository handles group ratio database operations
// Database: allocation.db (group_ratios, segment_groups)
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new ratios repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "ratios").Logger(),
	}
}

// GetRatios returns the raw ratios of a scheme keyed by group.
// The values are NOT normalized, the engine does that over the groups present.
func (r *Repository) GetRatios(scheme Scheme) (map[string]decimal.Decimal, error) {
	rows, err := r.db.Query("SELECT group_name, ratio FROM group_ratios WHERE scheme = ?", string(scheme))
	if err != nil {
		return nil, fmt.Errorf("failed to query group ratios: %w", err)
	}
	defer rows.Close()

	result := make(map[string]decimal.Decimal)
	for rows.Next() {
		var group, raw string
		if err := rows.Scan(&group, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan group ratio: %w", err)
		}
		ratio, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid ratio %q for group %s: %w", raw, group, err)
		}
		result[group] = ratio
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group ratios: %w", err)
	}

	return result, nil
}

// ListRatios returns the stored ratio rows of a scheme ordered by group name
func (r *Repository) ListRatios(scheme Scheme) ([]GroupRatio, error) {
	rows, err := r.db.Query(
		"SELECT group_name, ratio, updated_at FROM group_ratios WHERE scheme = ? ORDER BY group_name",
		string(scheme),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query group ratios: %w", err)
	}
	defer rows.Close()

	var out []GroupRatio
	for rows.Next() {
		var row GroupRatio
		var raw string
		var updatedAt sql.NullInt64
		if err := rows.Scan(&row.Group, &raw, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group ratio: %w", err)
		}
		ratio, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid ratio %q for group %s: %w", raw, row.Group, err)
		}
		row.Scheme = scheme
		row.Ratio = ratio
		if updatedAt.Valid {
			row.UpdatedAt = time.Unix(updatedAt.Int64, 0).UTC()
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group ratios: %w", err)
	}

	return out, nil
}

// UpsertRatio inserts or updates a group ratio
func (r *Repository) UpsertRatio(scheme Scheme, group string, ratio decimal.Decimal) error {
	group = strings.TrimSpace(group)
	if group == "" {
		return fmt.Errorf("group name is required")
	}
	if ratio.IsNegative() {
		return fmt.Errorf("ratio for group %s must not be negative", group)
	}

	query := `
		INSERT INTO group_ratios (scheme, group_name, ratio, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(scheme, group_name) DO UPDATE SET
			ratio = excluded.ratio,
			updated_at = excluded.updated_at
	`

	if _, err := r.db.Exec(query, string(scheme), group, ratio.String(), time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to upsert group ratio: %w", err)
	}

	r.log.Debug().
		Str("scheme", string(scheme)).
		Str("group", group).
		Str("ratio", ratio.String()).
		Msg("Group ratio upserted")

	return nil
}

// DeleteRatio removes a group ratio
func (r *Repository) DeleteRatio(scheme Scheme, group string) error {
	result, err := r.db.Exec("DELETE FROM group_ratios WHERE scheme = ? AND group_name = ?", string(scheme), group)
	if err != nil {
		return fmt.Errorf("failed to delete group ratio: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.log.Debug().
		Str("scheme", string(scheme)).
		Str("group", group).
		Int64("rows_affected", rowsAffected).
		Msg("Group ratio deleted")

	return nil
}

// AssignSegment puts a segment into a group of the scheme, replacing any earlier assignment
func (r *Repository) AssignSegment(scheme Scheme, segment, group string) error {
	query := `
		INSERT INTO segment_groups (scheme, segment, group_name)
		VALUES (?, ?, ?)
		ON CONFLICT(scheme, segment) DO UPDATE SET
			group_name = excluded.group_name
	`

	if _, err := r.db.Exec(query, string(scheme), segment, group); err != nil {
		return fmt.Errorf("failed to assign segment group: %w", err)
	}
	return nil
}

// GetGrouping returns the segment to group assignment of a scheme
func (r *Repository) GetGrouping(scheme Scheme) (allocation.GroupMap, error) {
	rows, err := r.db.Query("SELECT segment, group_name FROM segment_groups WHERE scheme = ?", string(scheme))
	if err != nil {
		return nil, fmt.Errorf("failed to query segment groups: %w", err)
	}
	defer rows.Close()

	grouping := make(allocation.GroupMap)
	for rows.Next() {
		var segment, group string
		if err := rows.Scan(&segment, &group); err != nil {
			return nil, fmt.Errorf("failed to scan segment group: %w", err)
		}
		grouping[segment] = group
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating segment groups: %w", err)
	}

	return grouping, nil
}
