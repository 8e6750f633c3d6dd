package distribution

import (
	"context"
	"errors"
	"testing"

	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/allocation"
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/modules/results"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	service   *Service
	customers *mockCustomers
	ratios    *mockRatios
	ladders   *mockLadders
	results   *mockResults
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		customers: &mockCustomers{},
		ratios:    &mockRatios{},
		ladders:   &mockLadders{},
		results:   &mockResults{},
	}
	f.service = NewService(
		allocation.NewEngine(allocation.DefaultOptions()),
		f.customers, f.ratios, f.ladders, f.results,
		Config{BatchWorkers: 2},
		zerolog.Nop(),
	)
	return f
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func filledRange(value string, from, to int) allocation.Vector {
	var v allocation.Vector
	for i := from; i <= to; i++ {
		v[i] = dec(value)
	}
	return v
}

func matrixOf(segments []string, rows ...allocation.Vector) allocation.CustomerMatrix {
	return allocation.CustomerMatrix{Segments: segments, Counts: rows}
}

func assertClose(t *testing.T, want, got, tolerance decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Sub(want).Abs().LessThanOrEqual(tolerance), "want %s got %s", want, got)
}

func TestAllocateUniform_PersistsWhenAsked(t *testing.T) {
	f := newFixture(t)
	segments := []string{"city", "town"}
	matrix := matrixOf(segments, filledRange("6", 0, 29), filledRange("4", 0, 29))

	f.ladders.On("Resolve", "E1").Return(allocation.FullLadder(), nil)
	f.customers.On("GetMatrix", "P1", segments).Return(matrix, nil)
	f.results.On("Save", mock.MatchedBy(func(r results.Record) bool {
		return r.EntityCode == "E1" && r.Mode == results.ModeUniform && len(r.Allocation.Rows) == 2
	})).Return("run-1", nil)

	result, err := f.service.AllocateUniform(context.Background(), Request{
		EntityCode: "E1",
		Partition:  "P1",
		Segments:   segments,
		Target:     dec("600"),
		Persist:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, results.ModeUniform, result.Mode)
	assert.Equal(t, "D30-D1", result.Ladder)
	assertClose(t, dec("600"), result.Achieved, dec("10"))
	assert.True(t, result.Allocation.Rows[0].Equal(result.Allocation.Rows[1]))
	assert.True(t, result.AbsoluteError.Equal(result.Achieved.Sub(dec("600")).Abs()))

	f.ladders.AssertExpectations(t)
	f.customers.AssertExpectations(t)
	f.results.AssertExpectations(t)
}

func TestAllocate_ExplicitGradesSkipLadderLookup(t *testing.T) {
	f := newFixture(t)
	segments := []string{"only"}
	f.customers.On("GetMatrix", "P1", segments).Return(matrixOf(segments, filledRange("5", 0, 29)), nil)

	result, err := f.service.AllocateMultiSegment(context.Background(), Request{
		EntityCode: "E1",
		Partition:  "P1",
		Segments:   segments,
		Target:     dec("100"),
		HighGrade:  "D20",
		LowGrade:   "D11",
	})
	require.NoError(t, err)

	assert.Equal(t, "D20-D11", result.Ladder)
	assert.Empty(t, result.RunID)
	row := result.Allocation.Rows[0]
	assert.True(t, row.IsZeroRange(0, 9))
	assert.True(t, row.IsZeroRange(20, 29))

	f.ladders.AssertNotCalled(t, "Resolve", mock.Anything)
	f.results.AssertNotCalled(t, "Save", mock.Anything)
}

func TestAllocate_UsesStoredSegmentsWhenNoneGiven(t *testing.T) {
	f := newFixture(t)
	stored := []string{"a", "b"}

	f.ladders.On("Resolve", "E1").Return(allocation.FullLadder(), nil)
	f.customers.On("ListSegments", "P1").Return(stored, nil)
	f.customers.On("GetMatrix", "P1", stored).
		Return(matrixOf(stored, filledRange("1", 0, 29), filledRange("2", 0, 29)), nil)

	result, err := f.service.AllocateUniform(context.Background(), Request{
		EntityCode: "E1",
		Partition:  "P1",
		Target:     dec("90"),
	})
	require.NoError(t, err)
	assert.Equal(t, stored, result.Allocation.Segments)
}

func TestAllocate_Errors(t *testing.T) {
	t.Run("missing entity", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.AllocateUniform(context.Background(), Request{Target: dec("1")})
		assert.ErrorIs(t, err, allocation.ErrInvalidInput)
	})

	t.Run("empty partition", func(t *testing.T) {
		f := newFixture(t)
		f.ladders.On("Resolve", "E1").Return(allocation.FullLadder(), nil)
		f.customers.On("ListSegments", "P0").Return([]string{}, nil)

		_, err := f.service.AllocateUniform(context.Background(), Request{
			EntityCode: "E1", Partition: "P0", Target: dec("10"),
		})
		assert.ErrorIs(t, err, allocation.ErrNoCustomerData)
		assert.Equal(t, "P0", allocation.SubjectOf(err))
	})

	t.Run("repository failure", func(t *testing.T) {
		f := newFixture(t)
		boom := errors.New("disk gone")
		f.ladders.On("Resolve", "E1").Return(allocation.GradeLadder{}, boom)

		_, err := f.service.AllocateUniform(context.Background(), Request{
			EntityCode: "E1", Partition: "P1", Target: dec("10"),
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, "internal", ErrorKind(err))
	})

	t.Run("unknown mode", func(t *testing.T) {
		f := newFixture(t)
		f.ladders.On("Resolve", "E1").Return(allocation.FullLadder(), nil)
		f.customers.On("GetMatrix", "P1", []string{"s"}).Return(matrixOf([]string{"s"}, filledRange("1", 0, 29)), nil)

		_, err := f.service.Allocate(context.Background(), results.Mode("magic"), Request{
			EntityCode: "E1", Partition: "P1", Segments: []string{"s"}, Target: dec("10"),
		})
		assert.ErrorIs(t, err, allocation.ErrInvalidInput)
	})

	t.Run("save failure", func(t *testing.T) {
		f := newFixture(t)
		f.ladders.On("Resolve", "E1").Return(allocation.FullLadder(), nil)
		f.customers.On("GetMatrix", "P1", []string{"s"}).Return(matrixOf([]string{"s"}, filledRange("1", 0, 29)), nil)
		f.results.On("Save", mock.Anything).Return("", errors.New("locked"))

		_, err := f.service.AllocateUniform(context.Background(), Request{
			EntityCode: "E1", Partition: "P1", Segments: []string{"s"}, Target: dec("30"), Persist: true,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to save allocation")
	})

	t.Run("cancelled context", func(t *testing.T) {
		f := newFixture(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := f.service.AllocateUniform(ctx, Request{EntityCode: "E1", Target: dec("1")})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestAllocateWeighted_LoadsRatiosFromScheme(t *testing.T) {
	f := newFixture(t)
	segments := []string{"u1", "r1", "u2"}
	matrix := matrixOf(segments, filledRange("6", 0, 29), filledRange("4", 0, 29), filledRange("3", 0, 29))
	grouping := allocation.GroupMap{"u1": "urban", "u2": "urban", "r1": "rural"}

	f.ladders.On("Resolve", "E1").Return(allocation.FullLadder(), nil)
	f.customers.On("GetMatrix", "P1", segments).Return(matrix, nil)
	f.ratios.On("GetGrouping", mock.Anything).Return(grouping, nil)
	f.ratios.On("GetRatios", mock.Anything).Return(map[string]decimal.Decimal{"urban": dec("1"), "rural": dec("0")}, nil)

	result, err := f.service.AllocateWeighted(context.Background(), Request{
		EntityCode: "E1",
		Partition:  "P1",
		Segments:   segments,
		Target:     dec("500"),
		Scheme:     "urban_rural",
	})
	require.NoError(t, err)

	assert.True(t, result.Allocation.Rows[1].IsZeroRange(0, allocation.TierCount-1))
	assert.False(t, result.Allocation.Rows[0].IsZeroRange(0, allocation.TierCount-1))
	f.ratios.AssertExpectations(t)
}

func TestAllocateWeighted_CallerRatiosAndStrategies(t *testing.T) {
	segments := []string{"u1", "r1"}
	matrix := matrixOf(segments, filledRange("6", 0, 29), filledRange("4", 0, 29))
	grouping := allocation.GroupMap{"u1": "urban", "r1": "rural"}

	t.Run("caller ratios win", func(t *testing.T) {
		f := newFixture(t)
		f.ladders.On("Resolve", "E1").Return(allocation.FullLadder(), nil)
		f.customers.On("GetMatrix", "P1", segments).Return(matrix, nil)
		f.ratios.On("GetGrouping", mock.Anything).Return(grouping, nil)

		_, err := f.service.AllocateWeighted(context.Background(), Request{
			EntityCode: "E1", Partition: "P1", Segments: segments, Target: dec("300"),
			Scheme: "urban_rural", Ratios: map[string]decimal.Decimal{"urban": dec("1"), "rural": dec("1")},
		})
		require.NoError(t, err)
		f.ratios.AssertNotCalled(t, "GetRatios", mock.Anything)
	})

	t.Run("customer proportional", func(t *testing.T) {
		f := newFixture(t)
		f.ladders.On("Resolve", "E1").Return(allocation.FullLadder(), nil)
		f.customers.On("GetMatrix", "P1", segments).Return(matrix, nil)
		f.ratios.On("GetGrouping", mock.Anything).Return(grouping, nil)

		_, err := f.service.AllocateWeighted(context.Background(), Request{
			EntityCode: "E1", Partition: "P1", Segments: segments, Target: dec("300"),
			Scheme: "urban_rural", Strategy: allocation.RatioCustomerProportional,
		})
		require.NoError(t, err)
		f.ratios.AssertNotCalled(t, "GetRatios", mock.Anything)
	})

	t.Run("scheme required", func(t *testing.T) {
		f := newFixture(t)
		f.ladders.On("Resolve", "E1").Return(allocation.FullLadder(), nil)
		f.customers.On("GetMatrix", "P1", segments).Return(matrix, nil)

		_, err := f.service.AllocateWeighted(context.Background(), Request{
			EntityCode: "E1", Partition: "P1", Segments: segments, Target: dec("300"),
		})
		assert.ErrorIs(t, err, allocation.ErrInvalidInput)
	})

	t.Run("unknown strategy", func(t *testing.T) {
		f := newFixture(t)
		f.ladders.On("Resolve", "E1").Return(allocation.FullLadder(), nil)
		f.customers.On("GetMatrix", "P1", segments).Return(matrix, nil)
		f.ratios.On("GetGrouping", mock.Anything).Return(grouping, nil)

		_, err := f.service.AllocateWeighted(context.Background(), Request{
			EntityCode: "E1", Partition: "P1", Segments: segments, Target: dec("300"),
			Scheme: "urban_rural", Strategy: "lottery",
		})
		assert.ErrorIs(t, err, allocation.ErrInvalidInput)
	})
}

func TestGetRun(t *testing.T) {
	f := newFixture(t)
	f.results.On("GetRun", "missing").Return(nil, results.ErrRunNotFound)
	f.results.On("GetRun", "r1").Return(&results.Run{RunID: "r1"}, nil)

	_, err := f.service.GetRun("missing")
	assert.ErrorIs(t, err, results.ErrRunNotFound)

	run, err := f.service.GetRun("r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", run.RunID)
}

func TestListRuns(t *testing.T) {
	f := newFixture(t)
	f.results.On("ListRuns", "E1", "2026-10", 10).Return([]string{"r2", "r1"}, nil)
	f.results.On("ListRuns", "E2", "2026-10", 0).Return(nil, nil)
	f.results.On("ListRuns", "E3", "", 0).Return(nil, errors.New("db closed"))

	ids, err := f.service.ListRuns("E1", "2026-10", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"r2", "r1"}, ids)

	ids, err = f.service.ListRuns("E2", "2026-10", 0)
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)

	_, err = f.service.ListRuns("E3", "", 0)
	assert.Error(t, err)

	_, err = f.service.ListRuns("", "2026-10", 0)
	assert.ErrorIs(t, err, allocation.ErrInvalidInput)
	f.results.AssertNotCalled(t, "ListRuns", "", "2026-10", 0)
}

func TestNewService_Defaults(t *testing.T) {
	s := NewService(allocation.NewEngine(allocation.DefaultOptions()), nil, nil, nil, nil, Config{}, zerolog.Nop())
	assert.Equal(t, 1, s.cfg.BatchWorkers)
	assert.Equal(t, allocation.DefaultBoostPhrase, s.cfg.BoostPhrase)
}
