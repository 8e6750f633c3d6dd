package testing

import (
	"database/sql"
	"testing"
	"time"

	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/allocation"
	"github.com/shopspring/decimal"
)

// UniformCounts returns a count vector with the same value on every tier.
func UniformCounts(value int64) allocation.Vector {
	var v allocation.Vector
	for i := range v {
		v[i] = decimal.NewFromInt(value)
	}
	return v
}

// RangeCounts returns value on tiers [from, to] and zero elsewhere.
func RangeCounts(value int64, from, to int) allocation.Vector {
	var v allocation.Vector
	for i := from; i <= to; i++ {
		v[i] = decimal.NewFromInt(value)
	}
	return v
}

// SeedCustomerCounts writes one segment's counts straight into segment_customer_counts.
// Zero tiers are skipped, mirroring what the statistics build writes.
func SeedCustomerCounts(t *testing.T, db *sql.DB, partition, segment string, counts allocation.Vector) {
	t.Helper()
	now := time.Now().Unix()
	for tier, c := range counts {
		if c.IsZero() {
			continue
		}
		_, err := db.Exec(`INSERT INTO segment_customer_counts (partition_key, segment, tier, customer_count, updated_at)
			VALUES (?, ?, ?, ?, ?)`, partition, segment, tier, c.String(), now)
		if err != nil {
			t.Fatalf("Failed to seed counts for %s/%s: %v", partition, segment, err)
		}
	}
}

// SeedGroup assigns a segment to a group and sets the group's ratio for scheme.
func SeedGroup(t *testing.T, db *sql.DB, scheme, segment, group string, ratio string) {
	t.Helper()
	if _, err := db.Exec(`INSERT OR REPLACE INTO segment_groups (scheme, segment, group_name) VALUES (?, ?, ?)`,
		scheme, segment, group); err != nil {
		t.Fatalf("Failed to seed segment group: %v", err)
	}
	if _, err := db.Exec(`INSERT OR REPLACE INTO group_ratios (scheme, group_name, ratio, updated_at) VALUES (?, ?, ?, ?)`,
		scheme, group, ratio, time.Now().Unix()); err != nil {
		t.Fatalf("Failed to seed group ratio: %v", err)
	}
}
