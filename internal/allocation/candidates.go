package allocation

import (
	"github.com/shopspring/decimal"
)

// Candidate identifies one way of absorbing the remainder left by the coarse plan.
// Higher values win ties.
type Candidate int

const (
	// CandidateCoarse keeps the coarse plan untouched. Only per-segment
	// fine tuning considers it.
	CandidateCoarse Candidate = iota
	// CandidateBoundary adds the remainder to the boundary tier.
	CandidateBoundary
	// CandidateUpperNeighbor adds the remainder to the tier above the boundary.
	CandidateUpperNeighbor
	// CandidateProportionalSplit spreads the remainder over the boundary tier
	// and the tier above in proportion to their customer counts.
	CandidateProportionalSplit
	// CandidateDiscountedOvershoot re-applies the reverted increment and takes
	// the overshoot back off the boundary tier.
	CandidateDiscountedOvershoot
)

var fineCandidates = []Candidate{
	CandidateBoundary,
	CandidateUpperNeighbor,
	CandidateProportionalSplit,
	CandidateDiscountedOvershoot,
}

func (c Candidate) String() string {
	switch c {
	case CandidateCoarse:
		return "coarse"
	case CandidateBoundary:
		return "boundary"
	case CandidateUpperNeighbor:
		return "upper_neighbor"
	case CandidateProportionalSplit:
		return "proportional_split"
	case CandidateDiscountedOvershoot:
		return "discounted_overshoot"
	default:
		return "unknown"
	}
}

// evaluated is a candidate plan that passed the monotonicity check.
type evaluated struct {
	kind     Candidate
	quotas   Vector
	absorbed decimal.Decimal // weighted quantity added on top of the coarse plan
	err      decimal.Decimal // |absorbed - remainder|
}

// applyCandidate builds the quota vector for one candidate. remainder is the
// weighted quantity the plan should absorb on top of plan.total. Returns
// false when the candidate does not apply (no tier above the boundary, or a
// zero weight it would have to divide by).
func applyCandidate(kind Candidate, plan coarsePlan, weights Vector, ladder GradeLadder, remainder decimal.Decimal, scale int32) (Vector, bool) {
	q := plan.quotas
	b := plan.boundary
	hasUpper := b > ladder.high

	switch kind {
	case CandidateCoarse:
		return q, true

	case CandidateBoundary:
		if weights[b].IsZero() {
			return q, false
		}
		q[b] = q[b].Add(remainder.Div(weights[b])).Round(scale)
		return q, true

	case CandidateUpperNeighbor:
		if !hasUpper || weights[b-1].IsZero() {
			return q, false
		}
		q[b-1] = q[b-1].Add(remainder.Div(weights[b-1])).Round(scale)
		return q, true

	case CandidateProportionalSplit:
		if !hasUpper {
			return q, false
		}
		combined := weights[b].Add(weights[b-1])
		if combined.IsZero() {
			return q, false
		}
		delta := remainder.Div(combined)
		q[b] = q[b].Add(delta).Round(scale)
		q[b-1] = q[b-1].Add(delta).Round(scale)
		return q, true

	case CandidateDiscountedOvershoot:
		if weights[b].IsZero() {
			return q, false
		}
		excess := weights[b].Sub(remainder)
		q[b] = q[b].Add(one).Sub(excess.Div(weights[b])).Round(scale)
		return q, true
	}
	return q, false
}

// evaluateCandidates applies each kind, drops those that break the
// non-increasing invariant, and scores the rest against remainder.
func evaluateCandidates(kinds []Candidate, plan coarsePlan, weights Vector, ladder GradeLadder, remainder decimal.Decimal, scale int32) []evaluated {
	base := plan.quotas.Dot(weights)
	out := make([]evaluated, 0, len(kinds))
	for _, kind := range kinds {
		q, ok := applyCandidate(kind, plan, weights, ladder, remainder, scale)
		if !ok || q.hasNegative() || !q.IsMonotonic(ladder) {
			continue
		}
		absorbed := q.Dot(weights).Sub(base)
		out = append(out, evaluated{
			kind:     kind,
			quotas:   q,
			absorbed: absorbed,
			err:      absorbed.Sub(remainder).Abs(),
		})
	}
	return out
}

// selectBest picks the smallest error; ties go to the higher-numbered candidate.
func selectBest(cands []evaluated) (evaluated, bool) {
	var best evaluated
	found := false
	for _, c := range cands {
		if !found || c.err.LessThan(best.err) || (c.err.Equal(best.err) && c.kind > best.kind) {
			best = c
			found = true
		}
	}
	return best, found
}

// selectBestSegment is selectBest with an extra preference, on equal error,
// for the candidate that moves the larger quantity.
func selectBestSegment(cands []evaluated) (evaluated, bool) {
	var best evaluated
	found := false
	for _, c := range cands {
		if !found || c.err.LessThan(best.err) {
			best, found = c, true
			continue
		}
		if !c.err.Equal(best.err) {
			continue
		}
		cmp := c.absorbed.Abs().Cmp(best.absorbed.Abs())
		if cmp > 0 || (cmp == 0 && c.kind > best.kind) {
			best = c
		}
	}
	return best, found
}

func (v Vector) hasNegative() bool {
	for t := 0; t < TierCount; t++ {
		if v[t].IsNegative() {
			return true
		}
	}
	return false
}
