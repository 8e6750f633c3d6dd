package allocation

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Vector holds one value per tier, index 0 being the highest grade.
// The zero value is an all-zero vector.
type Vector [TierCount]decimal.Decimal

// VectorFrom copies up to TierCount values into a Vector. Missing values are zero.
func VectorFrom(values []decimal.Decimal) Vector {
	var v Vector
	copy(v[:], values)
	return v
}

// UnmarshalJSON accepts an array of at most TierCount values. Missing
// trailing tiers are zero.
func (v *Vector) UnmarshalJSON(data []byte) error {
	var values []decimal.Decimal
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	if len(values) > TierCount {
		return newError(ErrInvalidInput, "", "vector has %d tiers, want at most %d", len(values), TierCount)
	}
	*v = VectorFrom(values)
	return nil
}

// Dot returns Σ v[t] * w[t] over every tier.
func (v Vector) Dot(w Vector) decimal.Decimal {
	total := decimal.Zero
	for t := 0; t < TierCount; t++ {
		if v[t].IsZero() || w[t].IsZero() {
			continue
		}
		total = total.Add(v[t].Mul(w[t]))
	}
	return total
}

// SumRange adds the values in [from, to].
func (v Vector) SumRange(from, to int) decimal.Decimal {
	total := decimal.Zero
	for t := from; t <= to; t++ {
		total = total.Add(v[t])
	}
	return total
}

// IsZeroRange reports whether every value in [from, to] is zero.
func (v Vector) IsZeroRange(from, to int) bool {
	for t := from; t <= to; t++ {
		if !v[t].IsZero() {
			return false
		}
	}
	return true
}

// Equal compares two vectors numerically.
func (v Vector) Equal(other Vector) bool {
	for t := 0; t < TierCount; t++ {
		if !v[t].Equal(other[t]) {
			return false
		}
	}
	return true
}

// Slice returns the values as a plain slice.
func (v Vector) Slice() []decimal.Decimal {
	out := make([]decimal.Decimal, TierCount)
	copy(out, v[:])
	return out
}

// IsMonotonic reports whether v is non-increasing inside the ladder and zero outside it.
func (v Vector) IsMonotonic(ladder GradeLadder) bool {
	for t := 0; t < TierCount; t++ {
		if !ladder.Contains(t) && !v[t].IsZero() {
			return false
		}
	}
	for t := ladder.high; t < ladder.low; t++ {
		if v[t].LessThan(v[t+1]) {
			return false
		}
	}
	return true
}

// AchievedTotal is the quantity delivered by a quota row against its
// customer counts: Σ row[t] * counts[t].
func AchievedTotal(row, counts Vector) decimal.Decimal {
	return row.Dot(counts)
}

// CustomerMatrix pairs segment names with their per-tier customer counts.
// Row order follows Segments and is preserved in every output.
type CustomerMatrix struct {
	Segments []string `json:"segments"`
	Counts   []Vector `json:"counts"`
}

// NewCustomerMatrix builds a matrix from ragged input rows. Every row must
// carry at most TierCount non-negative values; missing values are zero.
func NewCustomerMatrix(segments []string, rows [][]decimal.Decimal) (CustomerMatrix, error) {
	if len(segments) != len(rows) {
		return CustomerMatrix{}, newError(ErrInvalidInput, "", "%d segments but %d count rows", len(segments), len(rows))
	}
	m := CustomerMatrix{
		Segments: append([]string(nil), segments...),
		Counts:   make([]Vector, len(rows)),
	}
	for i, row := range rows {
		if len(row) > TierCount {
			return CustomerMatrix{}, newError(ErrInvalidInput, segments[i], "count row has %d tiers, want %d", len(row), TierCount)
		}
		m.Counts[i] = VectorFrom(row)
	}
	if err := m.Validate(); err != nil {
		return CustomerMatrix{}, err
	}
	return m, nil
}

// Validate checks shape and sign of the matrix.
func (m CustomerMatrix) Validate() error {
	if len(m.Segments) == 0 {
		return newError(ErrInvalidInput, "", "customer matrix has no segments")
	}
	if len(m.Segments) != len(m.Counts) {
		return newError(ErrInvalidInput, "", "%d segments but %d count rows", len(m.Segments), len(m.Counts))
	}
	for i, row := range m.Counts {
		for t := 0; t < TierCount; t++ {
			if row[t].IsNegative() {
				return newError(ErrInvalidInput, m.Segments[i], "negative customer count at %s", GradeLabel(t))
			}
		}
	}
	return nil
}

// ColumnTotals sums the counts of every segment per tier.
func (m CustomerMatrix) ColumnTotals() Vector {
	var totals Vector
	for _, row := range m.Counts {
		for t := 0; t < TierCount; t++ {
			totals[t] = totals[t].Add(row[t])
		}
	}
	return totals
}

// Subset returns the rows at the given indices, in that order.
func (m CustomerMatrix) Subset(indices []int) CustomerMatrix {
	sub := CustomerMatrix{
		Segments: make([]string, len(indices)),
		Counts:   make([]Vector, len(indices)),
	}
	for i, idx := range indices {
		sub.Segments[i] = m.Segments[idx]
		sub.Counts[i] = m.Counts[idx]
	}
	return sub
}

// AllocationMatrix is the per-segment quota output, same shape as the input matrix.
type AllocationMatrix struct {
	Segments []string `json:"segments"`
	Rows     []Vector `json:"rows"`
}

func newAllocationMatrix(segments []string) AllocationMatrix {
	return AllocationMatrix{
		Segments: append([]string(nil), segments...),
		Rows:     make([]Vector, len(segments)),
	}
}

// Achieved sums AchievedTotal of every row against its own counts.
func (a AllocationMatrix) Achieved(m CustomerMatrix) decimal.Decimal {
	total := decimal.Zero
	for i := range a.Rows {
		if i < len(m.Counts) {
			total = total.Add(a.Rows[i].Dot(m.Counts[i]))
		}
	}
	return total
}

// Row looks up a segment's quotas by name.
func (a AllocationMatrix) Row(segment string) (Vector, bool) {
	for i, s := range a.Segments {
		if s == segment {
			return a.Rows[i], true
		}
	}
	return Vector{}, false
}

// checkRequest validates the common preconditions of every allocator.
func checkRequest(segments []string, matrix CustomerMatrix, target decimal.Decimal) error {
	if !target.IsPositive() {
		return newError(ErrInvalidInput, "", "target amount must be positive, got %s", target.String())
	}
	if err := matrix.Validate(); err != nil {
		return err
	}
	if len(segments) != len(matrix.Segments) {
		return newError(ErrInvalidInput, "", "%d segments requested but matrix has %d", len(segments), len(matrix.Segments))
	}
	for i, s := range segments {
		if matrix.Segments[i] != s {
			return newError(ErrInvalidInput, s, "segment order differs from customer matrix (found %q)", matrix.Segments[i])
		}
	}
	return nil
}

// checkCustomerData fails for the first segment with no customers inside the ladder.
func checkCustomerData(matrix CustomerMatrix, ladder GradeLadder) error {
	for i, row := range matrix.Counts {
		if row.IsZeroRange(ladder.high, ladder.low) {
			return newError(ErrNoCustomerData, matrix.Segments[i], "no customers between %s and %s", GradeLabel(ladder.high), GradeLabel(ladder.low))
		}
	}
	return nil
}
