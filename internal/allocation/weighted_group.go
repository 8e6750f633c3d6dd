package allocation

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Grouping maps a segment name to its group.
type Grouping interface {
	GroupOf(segment string) (string, bool)
}

// GroupMap is the plain map form of Grouping.
type GroupMap map[string]string

// GroupOf implements Grouping.
func (m GroupMap) GroupOf(segment string) (string, bool) {
	g, ok := m[segment]
	return g, ok
}

// NormalizeRatios drops non-positive ratios and scales the rest to sum to 1.
func NormalizeRatios(ratios map[string]decimal.Decimal) (map[string]decimal.Decimal, error) {
	sum := decimal.Zero
	for _, r := range ratios {
		if r.IsPositive() {
			sum = sum.Add(r)
		}
	}
	if !sum.IsPositive() {
		return nil, newError(ErrInvalidGroupRatio, "", "no positive group ratio among %d entries", len(ratios))
	}
	out := make(map[string]decimal.Decimal, len(ratios))
	for g, r := range ratios {
		if r.IsPositive() {
			out[g] = r.Div(sum)
		}
	}
	return out, nil
}

// GroupShare is one group's slice of a weighted allocation.
type GroupShare struct {
	Group    string
	Ratio    decimal.Decimal
	Target   decimal.Decimal
	Segments []string
}

// DistributeWeighted splits target across groups of segments by ratio and
// allocates each group on its own: a single-segment group uses the uniform
// allocator, larger groups the multi-segment one. Segments whose group has a
// non-positive ratio are left at zero. Any group failure fails the call.
func (e *Engine) DistributeWeighted(segments []string, matrix CustomerMatrix, target decimal.Decimal, ladder GradeLadder, grouping Grouping, ratios map[string]decimal.Decimal) (AllocationMatrix, error) {
	if err := checkRequest(segments, matrix, target); err != nil {
		return AllocationMatrix{}, err
	}
	if grouping == nil {
		return AllocationMatrix{}, newError(ErrInvalidInput, "", "grouping is required")
	}

	shares, members, err := partition(segments, target, grouping, ratios)
	if err != nil {
		return AllocationMatrix{}, err
	}

	out := newAllocationMatrix(segments)
	for _, share := range shares {
		indices := members[share.Group]
		sub := matrix.Subset(indices)

		var rows AllocationMatrix
		if len(indices) == 1 {
			rows, err = e.DistributeSingleLevel(sub.Segments, sub, share.Target, ladder)
		} else {
			rows, err = e.DistributeMultiSegment(sub.Segments, sub, share.Target, ladder, nil)
		}
		if err != nil {
			return AllocationMatrix{}, err
		}
		for i, idx := range indices {
			out.Rows[idx] = rows.Rows[i]
		}
	}
	return out, nil
}

// PlanGroups resolves the per-group targets DistributeWeighted would use.
func (e *Engine) PlanGroups(segments []string, matrix CustomerMatrix, target decimal.Decimal, ladder GradeLadder, grouping Grouping, ratios map[string]decimal.Decimal) ([]GroupShare, error) {
	if err := checkRequest(segments, matrix, target); err != nil {
		return nil, err
	}
	if grouping == nil {
		return nil, newError(ErrInvalidInput, "", "grouping is required")
	}
	shares, _, err := partition(segments, target, grouping, ratios)
	return shares, err
}

// partition groups segment indices and assigns each present, positive group
// its share of target. Ratios are normalized over those groups only.
func partition(segments []string, target decimal.Decimal, grouping Grouping, ratios map[string]decimal.Decimal) ([]GroupShare, map[string][]int, error) {
	if _, err := NormalizeRatios(ratios); err != nil {
		return nil, nil, err
	}

	members := make(map[string][]int)
	for i, s := range segments {
		g, ok := grouping.GroupOf(s)
		if !ok {
			return nil, nil, newError(ErrUnmappedGroup, s, "segment has no group")
		}
		r, ok := ratios[g]
		if !ok {
			return nil, nil, newError(ErrUnmappedGroup, s, "group %q has no ratio", g)
		}
		if !r.IsPositive() {
			continue
		}
		members[g] = append(members[g], i)
	}

	present := make(map[string]decimal.Decimal, len(members))
	for g := range members {
		present[g] = ratios[g]
	}
	if len(present) == 0 {
		return nil, nil, newError(ErrInvalidGroupRatio, "", "no segment belongs to a group with a positive ratio")
	}
	normalized, err := NormalizeRatios(present)
	if err != nil {
		return nil, nil, err
	}

	shares := make([]GroupShare, 0, len(members))
	for g, indices := range members {
		names := make([]string, len(indices))
		for i, idx := range indices {
			names[i] = segments[idx]
		}
		shares = append(shares, GroupShare{
			Group:    g,
			Ratio:    normalized[g],
			Target:   target.Mul(normalized[g]),
			Segments: names,
		})
	}
	// first segment position keeps the group order deterministic
	sort.Slice(shares, func(a, b int) bool {
		return members[shares[a].Group][0] < members[shares[b].Group][0]
	})
	return shares, members, nil
}

// RatioKind is the closed set of ways group ratios are obtained.
type RatioKind string

const (
	// RatioFixed uses caller-supplied ratios as is.
	RatioFixed RatioKind = "fixed"
	// RatioCustomerProportional derives each group's ratio from the
	// in-range customer total of its segments.
	RatioCustomerProportional RatioKind = "customer_proportional"
)

// RatioStrategy resolves the raw ratio table handed to DistributeWeighted.
type RatioStrategy struct {
	Kind  RatioKind
	Fixed map[string]decimal.Decimal
}

// FixedRatios wraps a caller-supplied ratio table.
func FixedRatios(ratios map[string]decimal.Decimal) RatioStrategy {
	return RatioStrategy{Kind: RatioFixed, Fixed: ratios}
}

// CustomerProportionalRatios derives ratios from customer counts.
func CustomerProportionalRatios() RatioStrategy {
	return RatioStrategy{Kind: RatioCustomerProportional}
}

// Resolve returns the raw, un-normalized ratio per group.
func (s RatioStrategy) Resolve(matrix CustomerMatrix, ladder GradeLadder, grouping Grouping) (map[string]decimal.Decimal, error) {
	switch s.Kind {
	case RatioFixed:
		out := make(map[string]decimal.Decimal, len(s.Fixed))
		for g, r := range s.Fixed {
			out[g] = r
		}
		return out, nil

	case RatioCustomerProportional:
		if grouping == nil {
			return nil, newError(ErrInvalidInput, "", "grouping is required")
		}
		out := make(map[string]decimal.Decimal)
		for i, seg := range matrix.Segments {
			g, ok := grouping.GroupOf(seg)
			if !ok {
				return nil, newError(ErrUnmappedGroup, seg, "segment has no group")
			}
			out[g] = out[g].Add(matrix.Counts[i].SumRange(ladder.high, ladder.low))
		}
		return out, nil
	}
	return nil, newError(ErrInvalidInput, string(s.Kind), "unknown ratio strategy")
}

// DistributeWithStrategy resolves ratios with strategy and then runs DistributeWeighted.
func (e *Engine) DistributeWithStrategy(segments []string, matrix CustomerMatrix, target decimal.Decimal, ladder GradeLadder, grouping Grouping, strategy RatioStrategy) (AllocationMatrix, error) {
	ratios, err := strategy.Resolve(matrix, ladder, grouping)
	if err != nil {
		return AllocationMatrix{}, err
	}
	return e.DistributeWeighted(segments, matrix, target, ladder, grouping, ratios)
}
