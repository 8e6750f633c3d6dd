// Package customers provides access to per-segment customer counts.
package customers

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/allocation"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repository handles segment customer count operations
// Database: allocation.db (segment_customer_counts, segment_boost_increments)
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new customers repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "customers").Logger(),
	}
}

// GetMatrix loads the customer matrix of a partition with rows in the requested order.
// Segments without stored counts come back as all-zero rows. A segment named
// twice is rejected as invalid input.
func (r *Repository) GetMatrix(partition string, segments []string) (allocation.CustomerMatrix, error) {
	matrix := allocation.CustomerMatrix{
		Segments: append([]string(nil), segments...),
		Counts:   make([]allocation.Vector, len(segments)),
	}
	if len(segments) == 0 {
		return matrix, nil
	}

	index := make(map[string]int, len(segments))
	for i, s := range segments {
		if _, dup := index[s]; dup {
			return allocation.CustomerMatrix{}, &allocation.AllocationError{
				Kind:    allocation.ErrInvalidInput,
				Subject: s,
				Message: "segment requested more than once",
			}
		}
		index[s] = i
	}

	rows, err := r.db.Query(
		"SELECT segment, tier, customer_count FROM segment_customer_counts WHERE partition_key = ?",
		partition,
	)
	if err != nil {
		return allocation.CustomerMatrix{}, fmt.Errorf("failed to query customer counts: %w", err)
	}
	defer rows.Close()

	loaded := 0
	for rows.Next() {
		var segment, raw string
		var tier int
		if err := rows.Scan(&segment, &tier, &raw); err != nil {
			return allocation.CustomerMatrix{}, fmt.Errorf("failed to scan customer count: %w", err)
		}
		pos, wanted := index[segment]
		if !wanted {
			continue
		}
		count, err := decimal.NewFromString(raw)
		if err != nil {
			return allocation.CustomerMatrix{}, fmt.Errorf("invalid customer count %q for %s tier %d: %w", raw, segment, tier, err)
		}
		matrix.Counts[pos][tier] = count
		loaded++
	}

	if err := rows.Err(); err != nil {
		return allocation.CustomerMatrix{}, fmt.Errorf("error iterating customer counts: %w", err)
	}

	r.log.Debug().
		Str("partition", partition).
		Int("segments", len(segments)).
		Int("cells", loaded).
		Msg("Customer matrix loaded")

	return matrix, nil
}

// ListSegments returns the distinct segments stored for a partition, sorted by name
func (r *Repository) ListSegments(partition string) ([]string, error) {
	rows, err := r.db.Query(
		"SELECT DISTINCT segment FROM segment_customer_counts WHERE partition_key = ? ORDER BY segment",
		partition,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query segments: %w", err)
	}
	defer rows.Close()

	var segments []string
	for rows.Next() {
		var segment string
		if err := rows.Scan(&segment); err != nil {
			return nil, fmt.Errorf("failed to scan segment: %w", err)
		}
		segments = append(segments, segment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating segments: %w", err)
	}

	return segments, nil
}

// UpsertCounts replaces the stored counts of one segment.
// Zero tiers are removed so that the table only carries populated cells.
func (r *Repository) UpsertCounts(partition, segment string, counts allocation.Vector) error {
	return r.replaceVector("segment_customer_counts", "customer_count", partition, segment, counts)
}

// UpsertBoostIncrements replaces the stored boost increments of one segment
func (r *Repository) UpsertBoostIncrements(partition, segment string, increments allocation.Vector) error {
	return r.replaceVector("segment_boost_increments", "increment", partition, segment, increments)
}

// GetBoostIncrements returns the boost increments of a segment, zero where nothing is stored
func (r *Repository) GetBoostIncrements(partition, segment string) ([]decimal.Decimal, error) {
	rows, err := r.db.Query(
		"SELECT tier, increment FROM segment_boost_increments WHERE partition_key = ? AND segment = ?",
		partition, segment,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query boost increments: %w", err)
	}
	defer rows.Close()

	var increments allocation.Vector
	for rows.Next() {
		var tier int
		var raw string
		if err := rows.Scan(&tier, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan boost increment: %w", err)
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid boost increment %q for %s tier %d: %w", raw, segment, tier, err)
		}
		increments[tier] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating boost increments: %w", err)
	}

	return increments.Slice(), nil
}

func (r *Repository) replaceVector(table, column, partition, segment string, values allocation.Vector) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		fmt.Sprintf("DELETE FROM %s WHERE partition_key = ? AND segment = ?", table),
		partition, segment,
	); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}

	now := time.Now().Unix()
	insert := fmt.Sprintf(
		"INSERT INTO %s (partition_key, segment, tier, %s, updated_at) VALUES (?, ?, ?, ?, ?)",
		table, column,
	)
	written := 0
	for tier, value := range values {
		if value.IsZero() {
			continue
		}
		if _, err := tx.Exec(insert, partition, segment, tier, value.String(), now); err != nil {
			return fmt.Errorf("failed to insert %s tier %d: %w", table, tier, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.log.Debug().
		Str("table", table).
		Str("partition", partition).
		Str("segment", segment).
		Int("tiers", written).
		Msg("Segment vector replaced")

	return nil
}
