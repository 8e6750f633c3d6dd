package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotOf(entities []EntityAllocation) []Vector {
	out := make([]Vector, len(entities))
	for i := range entities {
		out[i] = entities[i].Allocation
	}
	return out
}

func TestAdjustTruncation_CutsBelowLowestSharedTier(t *testing.T) {
	engine := NewEngine(DefaultOptions())
	d5, err := ParseGrade("D5", "")
	require.NoError(t, err)
	d8, err := ParseGrade("D8", "")
	require.NoError(t, err)

	entities := []EntityAllocation{
		{ID: "first", Target: dec("260"), Allocation: filledRange("1", 0, d5)},
		{ID: "second", Target: dec("230"), Allocation: filledRange("1", 0, d8)},
		{ID: "third", Target: dec("230"), Allocation: filledRange("1", 0, d8)},
	}
	before := snapshotOf(entities)
	weights := TruncationWeights{Base: filled("10")}

	result, err := engine.AdjustTruncation(entities, weights, FullLadder())
	require.NoError(t, err)

	assert.Equal(t, d8, result.Cutoff)
	assert.True(t, result.Truncated)
	assert.Equal(t, []string{"first"}, result.Refilled)

	first := entities[0].Allocation
	assertDecimal(t, "0", first[d5])
	for tier := d8 + 1; tier < TierCount; tier++ {
		assertDecimal(t, "0", first[tier])
	}
	assert.True(t, first.IsMonotonic(FullLadder()))
	assertDecimal(t, "260", first.Dot(weights.Base))

	assert.True(t, before[1].Equal(entities[1].Allocation))
	assert.True(t, before[2].Equal(entities[2].Allocation))
}

func TestAdjustTruncation_RestoresBatchOnDegenerateEntity(t *testing.T) {
	engine := NewEngine(DefaultOptions())
	// nobody can be refilled above D21, so an entity living only below the
	// cutoff ends up empty
	weights := TruncationWeights{Base: filledRange("1", 10, 29)}

	var lonely Vector
	lonely[20] = dec("1")
	entities := []EntityAllocation{
		{ID: "a", Target: dec("5"), Allocation: filledRange("1", 0, 9)},
		{ID: "b", Target: dec("5"), Allocation: filledRange("1", 0, 9)},
		{ID: "c", Target: dec("1"), Allocation: lonely},
	}
	before := snapshotOf(entities)

	_, err := engine.AdjustTruncation(entities, weights, FullLadder())
	requireKind(t, err, ErrDegenerateAllocation)
	assert.Equal(t, "c", SubjectOf(err))

	assert.Equal(t, before, snapshotOf(entities))
}

func TestAdjustTruncation_RestoresBatchOnInfeasibleRefill(t *testing.T) {
	engine := NewEngine(DefaultOptions())
	weights := TruncationWeights{Base: filled("1")}

	entities := []EntityAllocation{
		{ID: "rising", Target: dec("10"), Allocation: vectorOf("0", "2")},
		{ID: "wide", Target: dec("1"), Allocation: filledRange("1", 0, 5)},
	}
	before := snapshotOf(entities)

	_, err := engine.AdjustTruncation(entities, weights, FullLadder())
	requireKind(t, err, ErrAllocationInfeasible)
	assert.Equal(t, "rising", SubjectOf(err))
	assert.Equal(t, before, snapshotOf(entities))
}

func TestAdjustTruncation_NoSharedTier(t *testing.T) {
	engine := NewEngine(DefaultOptions())
	weights := TruncationWeights{Base: filled("2")}
	entities := []EntityAllocation{
		{ID: "solo", Target: dec("20"), Allocation: filledRange("1", 0, 9)},
	}

	result, err := engine.AdjustTruncation(entities, weights, FullLadder())
	require.NoError(t, err)

	assert.False(t, result.Truncated)
	assert.Equal(t, TierCount-1, result.Cutoff)
	assert.Empty(t, result.Refilled)
	assert.True(t, filledRange("1", 0, 9).Equal(entities[0].Allocation))
}

func TestAdjustTruncation_BoostedWeights(t *testing.T) {
	engine := NewEngine(DefaultOptions())
	boosted := filled("20")
	weights := TruncationWeights{Base: filled("10"), Boosted: &boosted}

	entities := []EntityAllocation{
		{ID: "plain", Target: dec("50"), Allocation: filledRange("1", 0, 4)},
		{ID: "boosted", Target: dec("200"), Allocation: filledRange("1", 0, 6), Boosted: true},
	}

	result, err := engine.AdjustTruncation(entities, weights, FullLadder())
	require.NoError(t, err)

	assert.Equal(t, 4, result.Cutoff)
	assert.Equal(t, []string{"boosted"}, result.Refilled)
	assertDecimal(t, "200", entities[1].Allocation.Dot(boosted))
	assert.True(t, entities[1].Allocation.IsMonotonic(mustLadder(t, 0, 4)))
}

func TestAdjustTruncation_ZeroesTiersOutsideLadder(t *testing.T) {
	engine := NewEngine(DefaultOptions())
	ladder := mustLadder(t, 0, 9)
	weights := TruncationWeights{Base: filled("5")}

	entities := []EntityAllocation{
		{ID: "a", Target: dec("100"), Allocation: filledRange("1", 0, 19)},
		{ID: "b", Target: dec("100"), Allocation: filledRange("1", 0, 14)},
	}

	result, err := engine.AdjustTruncation(entities, weights, ladder)
	require.NoError(t, err)

	assert.Equal(t, 9, result.Cutoff)
	assert.False(t, result.Truncated)
	assert.Equal(t, []string{"a", "b"}, result.Refilled)
	for _, ent := range entities {
		assert.True(t, ent.Allocation.IsZeroRange(10, TierCount-1), ent.ID)
		assert.True(t, ent.Allocation.IsMonotonic(ladder), ent.ID)
		assertDecimal(t, "100", ent.Allocation.Dot(weights.Base))
	}
}

func TestAdjustTruncation_InvalidInput(t *testing.T) {
	engine := NewEngine(DefaultOptions())

	_, err := engine.AdjustTruncation([]EntityAllocation{
		{ID: "x", Target: dec("0"), Allocation: filled("1")},
	}, TruncationWeights{Base: filled("1")}, FullLadder())
	requireKind(t, err, ErrInvalidInput)
	assert.Equal(t, "x", SubjectOf(err))

	_, err = engine.AdjustTruncation([]EntityAllocation{
		{ID: "y", Target: dec("5"), Allocation: filled("1"), Boosted: true},
	}, TruncationWeights{Base: filled("1")}, FullLadder())
	requireKind(t, err, ErrInvalidInput)
	assert.Equal(t, "y", SubjectOf(err))
}

func TestFindCutoff(t *testing.T) {
	entities := []EntityAllocation{
		{Allocation: filledRange("1", 0, 12)},
		{Allocation: filledRange("2", 0, 7)},
		{Allocation: filledRange("3", 0, 3)},
	}

	cutoff, found := FindCutoff(entities, FullLadder())
	assert.True(t, found)
	assert.Equal(t, 7, cutoff)

	cutoff, found = FindCutoff(entities, mustLadder(t, 0, 5))
	assert.True(t, found)
	assert.Equal(t, 5, cutoff)

	cutoff, found = FindCutoff(entities[:1], FullLadder())
	assert.False(t, found)
	assert.Equal(t, TierCount-1, cutoff)
}
