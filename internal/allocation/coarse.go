package allocation

import (
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// coarsePlan is the state right before the sweep crossed the target.
type coarsePlan struct {
	quotas   Vector
	boundary int
	total    decimal.Decimal
}

// runCoarse sweeps whole-unit increments over [ladder.high, ladder.low]
// starting from base, weighting each tier by weights, until the total
// first exceeds target. The crossing increment is reverted, so the
// returned total never exceeds target.
//
// Whole sweeps that cannot cross the target are applied in one step;
// at most two sweeps are then simulated tier by tier. Returns false when
// the weights are all zero inside the ladder and the target is out of reach.
func runCoarse(base Vector, weights Vector, ladder GradeLadder, target decimal.Decimal) (coarsePlan, bool) {
	sweepWeight := weights.SumRange(ladder.high, ladder.low)
	if !sweepWeight.IsPositive() {
		return coarsePlan{}, false
	}

	quotas := base
	total := base.Dot(weights)

	remaining := target.Sub(total)
	if remaining.IsPositive() {
		skip := remaining.Div(sweepWeight).Floor().Sub(one)
		if skip.IsPositive() {
			for t := ladder.high; t <= ladder.low; t++ {
				quotas[t] = quotas[t].Add(skip)
			}
			total = total.Add(skip.Mul(sweepWeight))
		}
	}

	for {
		for t := ladder.high; t <= ladder.low; t++ {
			next := total.Add(weights[t])
			if next.GreaterThan(target) {
				return coarsePlan{quotas: quotas, boundary: t, total: total}, true
			}
			quotas[t] = quotas[t].Add(one)
			total = next
		}
	}
}
