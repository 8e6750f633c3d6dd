package distribution

import (
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/allocation"
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/modules/ratios"
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/modules/results"
	"github.com/shopspring/decimal"
)

// CustomerSource loads customer matrices (implemented by customers.Repository)
type CustomerSource interface {
	GetMatrix(partition string, segments []string) (allocation.CustomerMatrix, error)
	ListSegments(partition string) ([]string, error)
	GetBoostIncrements(partition, segment string) ([]decimal.Decimal, error)
}

// RatioSource loads group ratios and segment grouping (implemented by ratios.Repository)
type RatioSource interface {
	GetRatios(scheme ratios.Scheme) (map[string]decimal.Decimal, error)
	GetGrouping(scheme ratios.Scheme) (allocation.GroupMap, error)
}

// LadderSource resolves the grade range of an entity (implemented by ladders.Repository)
type LadderSource interface {
	Resolve(entityCode string) (allocation.GradeLadder, error)
}

// ResultStore persists allocation runs (implemented by results.Repository)
type ResultStore interface {
	Save(record results.Record) (string, error)
	GetRun(runID string) (*results.Run, error)
	ListRuns(entityCode, partition string, limit int) ([]string, error)
}
