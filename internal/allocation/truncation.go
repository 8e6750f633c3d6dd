package allocation

import (
	"github.com/shopspring/decimal"
)

// EntityAllocation is one independently allocated entity inside a
// shared-ladder batch, for example one good inside a price band.
type EntityAllocation struct {
	ID         string
	Target     decimal.Decimal
	Allocation Vector
	// Boosted selects the boosted weight vector instead of the base one.
	Boosted bool
}

// TruncationWeights are the customer-count vectors used to total an entity.
type TruncationWeights struct {
	Base    Vector
	Boosted *Vector
}

func (w TruncationWeights) forEntity(e EntityAllocation) Vector {
	if e.Boosted && w.Boosted != nil {
		return *w.Boosted
	}
	return w.Base
}

// TruncationResult reports what the adjuster did to a batch.
type TruncationResult struct {
	// Cutoff is the lowest tier still shared by at least two entities.
	// Tiers below it were zeroed. Equal to the ladder's low bound when
	// nothing was truncated.
	Cutoff    int
	Truncated bool
	// Refilled lists the entities that were re-optimized inside the
	// narrowed range because truncation left them short of target.
	Refilled []string
}

// AdjustTruncation removes low tiers that fewer than two entities use and
// re-optimizes each entity inside the narrowed ladder. Tiers outside the
// ladder are zeroed first. Entities are mutated in place. On any failure every entity is restored to its state on entry.
func (e *Engine) AdjustTruncation(entities []EntityAllocation, weights TruncationWeights, ladder GradeLadder) (TruncationResult, error) {
	for _, ent := range entities {
		if !ent.Target.IsPositive() {
			return TruncationResult{}, newError(ErrInvalidInput, ent.ID, "target amount must be positive, got %s", ent.Target.String())
		}
		if ent.Boosted && weights.Boosted == nil {
			return TruncationResult{}, newError(ErrInvalidInput, ent.ID, "boosted entity but no boosted weight vector")
		}
	}

	snapshot := make([]Vector, len(entities))
	for i := range entities {
		snapshot[i] = entities[i].Allocation
	}
	restore := func() {
		for i := range entities {
			entities[i].Allocation = snapshot[i]
		}
	}

	for i := range entities {
		for t := 0; t < TierCount; t++ {
			if !ladder.Contains(t) {
				entities[i].Allocation[t] = decimal.Zero
			}
		}
	}

	cutoff, found := FindCutoff(entities, ladder)
	result := TruncationResult{Cutoff: cutoff}
	if found && cutoff < ladder.low {
		result.Truncated = true
		for i := range entities {
			for t := cutoff + 1; t <= ladder.low; t++ {
				entities[i].Allocation[t] = decimal.Zero
			}
		}
	}

	narrowed := ladder.narrow(cutoff)
	for i := range entities {
		refilled, err := e.refill(&entities[i], weights.forEntity(entities[i]), narrowed)
		if err != nil {
			restore()
			return TruncationResult{}, err
		}
		if refilled {
			result.Refilled = append(result.Refilled, entities[i].ID)
		}
	}

	for i := range entities {
		if entities[i].Allocation.IsZeroRange(narrowed.high, narrowed.low) {
			id := entities[i].ID
			restore()
			return TruncationResult{}, newError(ErrDegenerateAllocation, id, "allocation is zero between %s and %s after truncation", GradeLabel(narrowed.high), GradeLabel(narrowed.low))
		}
	}
	return result, nil
}

// FindCutoff scans from the lowest tier upward and returns the first tier at
// which at least two entities hold a positive allocation. When no tier
// qualifies it returns the ladder's low bound and false.
func FindCutoff(entities []EntityAllocation, ladder GradeLadder) (int, bool) {
	for t := ladder.low; t >= ladder.high; t-- {
		positive := 0
		for i := range entities {
			if entities[i].Allocation[t].IsPositive() {
				positive++
			}
		}
		if positive >= 2 {
			return t, true
		}
	}
	return ladder.low, false
}

// refill continues the coarse sweep from the entity's current vector when it
// fell short of target, then fine tunes the boundary. Entities already at or
// above target, or with no weight left in range, are left alone.
func (e *Engine) refill(ent *EntityAllocation, weights Vector, ladder GradeLadder) (bool, error) {
	if ent.Allocation.Dot(weights).GreaterThanOrEqual(ent.Target) {
		return false, nil
	}
	coarse, ok := runCoarse(ent.Allocation, weights, ladder, ent.Target)
	if !ok {
		return false, nil
	}
	plan, err := e.fineTune(coarse, weights, ladder, ent.Target)
	if err != nil {
		return false, newError(ErrAllocationInfeasible, ent.ID, "no candidate keeps quotas non-increasing at %s", GradeLabel(coarse.boundary))
	}
	ent.Allocation = plan.Quotas
	return true, nil
}
