package allocation

import (
	"sort"

	"github.com/shopspring/decimal"
)

// DistributeMultiSegment allocates with the shared coarse plan and then lets
// every segment fine tune its own boundary independently.
//
// The coarse remainder is handed out segment by segment in segmentOrder, each
// segment receiving a share proportional to its boundary-tier customers of
// what is still unabsorbed, so the last segment soaks up any rounding drift.
// A nil segmentOrder ranks segments by their in-range customer total,
// largest first. The divergent plan is returned unless the uniform broadcast
// plan tracks the target strictly better.
func (e *Engine) DistributeMultiSegment(segments []string, matrix CustomerMatrix, target decimal.Decimal, ladder GradeLadder, segmentOrder []int) (AllocationMatrix, error) {
	if err := checkRequest(segments, matrix, target); err != nil {
		return AllocationMatrix{}, err
	}
	if err := checkCustomerData(matrix, ladder); err != nil {
		return AllocationMatrix{}, err
	}

	order := segmentOrder
	if order == nil {
		order = DefaultSegmentOrder(matrix, ladder)
	} else if err := checkOrder(order, len(segments)); err != nil {
		return AllocationMatrix{}, err
	}

	columns := matrix.ColumnTotals()
	coarse, ok := runCoarse(Vector{}, columns, ladder, target)
	if !ok {
		return AllocationMatrix{}, newError(ErrNoCustomerData, "", "no customers between %s and %s", GradeLabel(ladder.high), GradeLabel(ladder.low))
	}

	uniform, uniformErr := e.fineTune(coarse, columns, ladder, target)

	divergent := newAllocationMatrix(segments)
	for i := range divergent.Rows {
		divergent.Rows[i] = coarse.quotas
	}

	b := coarse.boundary
	residual := target.Sub(coarse.total)
	pending := columns[b]
	kinds := append([]Candidate{CandidateCoarse}, fineCandidates...)

	for _, idx := range order {
		weights := matrix.Counts[idx]
		share := decimal.Zero
		if pending.IsPositive() {
			share = residual.Mul(weights[b]).Div(pending)
		}
		pending = pending.Sub(weights[b])

		cands := evaluateCandidates(kinds, coarse, weights, ladder, share, e.scale)
		best, found := selectBestSegment(cands)
		if !found {
			continue
		}
		divergent.Rows[idx] = best.quotas
		residual = residual.Sub(best.absorbed)
	}

	if uniformErr != nil {
		return divergent, nil
	}

	divergentErr := divergent.Achieved(matrix).Sub(target).Abs()
	if uniform.Achieved.Sub(target).Abs().LessThan(divergentErr) {
		out := newAllocationMatrix(segments)
		for i := range out.Rows {
			out.Rows[i] = uniform.Quotas
		}
		return out, nil
	}
	return divergent, nil
}

// DefaultSegmentOrder ranks segment indices by in-range customer total,
// largest first, ties by original position.
func DefaultSegmentOrder(matrix CustomerMatrix, ladder GradeLadder) []int {
	order := make([]int, len(matrix.Counts))
	totals := make([]decimal.Decimal, len(matrix.Counts))
	for i, row := range matrix.Counts {
		order[i] = i
		totals[i] = row.SumRange(ladder.high, ladder.low)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return totals[order[a]].GreaterThan(totals[order[b]])
	})
	return order
}

func checkOrder(order []int, n int) error {
	if len(order) != n {
		return newError(ErrInvalidInput, "", "segment order has %d entries, want %d", len(order), n)
	}
	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n || seen[idx] {
			return newError(ErrInvalidInput, "", "segment order is not a permutation of 0..%d", n-1)
		}
		seen[idx] = true
	}
	return nil
}
