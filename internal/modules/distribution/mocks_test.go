package distribution

import (
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/allocation"
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/modules/ratios"
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/modules/results"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockCustomers struct {
	mock.Mock
}

func (m *mockCustomers) GetMatrix(partition string, segments []string) (allocation.CustomerMatrix, error) {
	args := m.Called(partition, segments)
	return args.Get(0).(allocation.CustomerMatrix), args.Error(1)
}

func (m *mockCustomers) ListSegments(partition string) ([]string, error) {
	args := m.Called(partition)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockCustomers) GetBoostIncrements(partition, segment string) ([]decimal.Decimal, error) {
	args := m.Called(partition, segment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]decimal.Decimal), args.Error(1)
}

type mockRatios struct {
	mock.Mock
}

func (m *mockRatios) GetRatios(scheme ratios.Scheme) (map[string]decimal.Decimal, error) {
	args := m.Called(scheme)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]decimal.Decimal), args.Error(1)
}

func (m *mockRatios) GetGrouping(scheme ratios.Scheme) (allocation.GroupMap, error) {
	args := m.Called(scheme)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(allocation.GroupMap), args.Error(1)
}

type mockLadders struct {
	mock.Mock
}

func (m *mockLadders) Resolve(entityCode string) (allocation.GradeLadder, error) {
	args := m.Called(entityCode)
	return args.Get(0).(allocation.GradeLadder), args.Error(1)
}

type mockResults struct {
	mock.Mock
}

func (m *mockResults) Save(record results.Record) (string, error) {
	args := m.Called(record)
	return args.String(0), args.Error(1)
}

func (m *mockResults) GetRun(runID string) (*results.Run, error) {
	args := m.Called(runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*results.Run), args.Error(1)
}

func (m *mockResults) ListRuns(entityCode, partition string, limit int) ([]string, error) {
	args := m.Called(entityCode, partition, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
