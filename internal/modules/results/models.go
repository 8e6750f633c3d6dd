package results

import (
	"time"

	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/allocation"
	"github.com/shopspring/decimal"
)

// Mode identifies which allocator produced a run
type Mode string

const (
	ModeUniform      Mode = "uniform"
	ModeMultiSegment Mode = "multi_segment"
	ModeWeighted     Mode = "weighted"
)

// Record is an allocation ready to be written back
type Record struct {
	EntityCode string
	Partition  string
	Mode       Mode
	Ladder     allocation.GradeLadder
	Target     decimal.Decimal
	Achieved   decimal.Decimal
	Allocation allocation.AllocationMatrix
}

// Row is one persisted quota vector
type Row struct {
	Segment string            `json:"segment"`
	Values  allocation.Vector `json:"values"`
}

// Run is a persisted allocation with its rows in write order
type Run struct {
	RunID      string          `json:"run_id"`
	EntityCode string          `json:"entity_code"`
	Partition  string          `json:"partition"`
	Mode       Mode            `json:"mode"`
	HighGrade  string          `json:"high_grade"`
	LowGrade   string          `json:"low_grade"`
	Target     decimal.Decimal `json:"target"`
	Achieved   decimal.Decimal `json:"achieved"`
	CreatedAt  time.Time       `json:"created_at"`
	Rows       []Row           `json:"rows"`
}
