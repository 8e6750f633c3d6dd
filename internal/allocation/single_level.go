package allocation

import (
	"github.com/shopspring/decimal"
)

// UniformPlan is one shared quota vector and how it was chosen.
type UniformPlan struct {
	Quotas   Vector
	Boundary int
	Winner   Candidate
	Achieved decimal.Decimal
}

// DistributeSingleLevel computes one quota vector shared by every segment.
// The coarse sweep runs against the column totals of the matrix, then the
// four boundary candidates are scored and the closest to target wins.
func (e *Engine) DistributeSingleLevel(segments []string, matrix CustomerMatrix, target decimal.Decimal, ladder GradeLadder) (AllocationMatrix, error) {
	if err := checkRequest(segments, matrix, target); err != nil {
		return AllocationMatrix{}, err
	}
	if err := checkCustomerData(matrix, ladder); err != nil {
		return AllocationMatrix{}, err
	}

	plan, err := e.uniformPlan(matrix.ColumnTotals(), target, ladder)
	if err != nil {
		return AllocationMatrix{}, err
	}

	out := newAllocationMatrix(segments)
	for i := range out.Rows {
		out.Rows[i] = plan.Quotas
	}
	return out, nil
}

// PlanUniform exposes the shared vector chosen for the given matrix.
func (e *Engine) PlanUniform(matrix CustomerMatrix, target decimal.Decimal, ladder GradeLadder) (UniformPlan, error) {
	if err := checkRequest(matrix.Segments, matrix, target); err != nil {
		return UniformPlan{}, err
	}
	if err := checkCustomerData(matrix, ladder); err != nil {
		return UniformPlan{}, err
	}
	return e.uniformPlan(matrix.ColumnTotals(), target, ladder)
}

func (e *Engine) uniformPlan(weights Vector, target decimal.Decimal, ladder GradeLadder) (UniformPlan, error) {
	coarse, ok := runCoarse(Vector{}, weights, ladder, target)
	if !ok {
		return UniformPlan{}, newError(ErrNoCustomerData, "", "no customers between %s and %s", GradeLabel(ladder.high), GradeLabel(ladder.low))
	}
	return e.fineTune(coarse, weights, ladder, target)
}

// fineTune scores the four boundary candidates for a coarse plan.
func (e *Engine) fineTune(coarse coarsePlan, weights Vector, ladder GradeLadder, target decimal.Decimal) (UniformPlan, error) {
	remainder := target.Sub(coarse.total)
	cands := evaluateCandidates(fineCandidates, coarse, weights, ladder, remainder, e.scale)
	best, ok := selectBest(cands)
	if !ok {
		return UniformPlan{}, newError(ErrAllocationInfeasible, "", "no candidate keeps quotas non-increasing at %s", GradeLabel(coarse.boundary))
	}
	return UniformPlan{
		Quotas:   best.quotas,
		Boundary: coarse.boundary,
		Winner:   best.kind,
		Achieved: coarse.total.Add(best.absorbed),
	}, nil
}
