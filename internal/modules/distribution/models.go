package distribution

import (
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/allocation"
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/modules/ratios"
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/modules/results"
	"github.com/shopspring/decimal"
)

// Request describes one entity allocation.
// Segments may be empty, in which case every segment stored for the partition is used.
// HighGrade and LowGrade override the stored ladder of the entity when set.
type Request struct {
	EntityCode string          `json:"entity_code"`
	Partition  string          `json:"partition"`
	Segments   []string        `json:"segments,omitempty"`
	Target     decimal.Decimal `json:"target"`
	HighGrade  string          `json:"high_grade,omitempty"`
	LowGrade   string          `json:"low_grade,omitempty"`
	Persist    bool            `json:"persist"`

	// multi-segment only
	SegmentOrder []int `json:"segment_order,omitempty"`

	// weighted only
	Scheme   ratios.Scheme              `json:"scheme,omitempty"`
	Strategy allocation.RatioKind       `json:"strategy,omitempty"`
	Ratios   map[string]decimal.Decimal `json:"ratios,omitempty"`
}

// Result is a finished allocation
type Result struct {
	EntityCode    string                      `json:"entity_code"`
	Partition     string                      `json:"partition"`
	Mode          results.Mode                `json:"mode"`
	Ladder        string                      `json:"ladder"`
	Target        decimal.Decimal             `json:"target"`
	Achieved      decimal.Decimal             `json:"achieved"`
	AbsoluteError decimal.Decimal             `json:"absolute_error"`
	Allocation    allocation.AllocationMatrix `json:"allocation"`
	RunID         string                      `json:"run_id,omitempty"`
}

// RelativeError returns |achieved - target| / target as a float64
func (r *Result) RelativeError() float64 {
	if r.Target.IsZero() {
		return 0
	}
	f, _ := r.AbsoluteError.Div(r.Target).Float64()
	return f
}

// BatchItem is one entry of a batch request
type BatchItem struct {
	Mode    results.Mode `json:"mode"`
	Request Request      `json:"request"`
}

// EntityOutcome is the result or failure of one batch entry
type EntityOutcome struct {
	EntityCode string  `json:"entity_code"`
	Result     *Result `json:"result,omitempty"`
	Error      string  `json:"error,omitempty"`
	ErrorKind  string  `json:"error_kind,omitempty"`
}

// BatchSummary aggregates the outcomes of a batch
type BatchSummary struct {
	Total             int     `json:"total"`
	Succeeded         int     `json:"succeeded"`
	Failed            int     `json:"failed"`
	MeanRelativeError float64 `json:"mean_relative_error"`
	StdRelativeError  float64 `json:"std_relative_error"`
	MaxRelativeError  float64 `json:"max_relative_error"`
}

// BatchResult carries outcomes in input order plus the summary
type BatchResult struct {
	Outcomes []EntityOutcome `json:"outcomes"`
	Summary  BatchSummary    `json:"summary"`
}

// BandEntity is one entity handed to the price band truncation
type BandEntity struct {
	ID         string            `json:"id"`
	Target     decimal.Decimal   `json:"target"`
	Price      decimal.Decimal   `json:"price"`
	Remark     string            `json:"remark,omitempty"`
	Boosted    bool              `json:"boosted,omitempty"`
	Allocation allocation.Vector `json:"allocation"`
}

// BandRequest groups entities by price band and truncates each band.
// Weights and BoostIncrements left empty are loaded from the stored rows of
// Segment in Partition; an empty grade range is resolved from EntityCode.
type BandRequest struct {
	EntityCode      string                 `json:"entity_code,omitempty"`
	Partition       string                 `json:"partition,omitempty"`
	Segment         string                 `json:"segment,omitempty"`
	Entities        []BandEntity           `json:"entities"`
	Bands           []allocation.PriceBand `json:"bands,omitempty"`
	Weights         allocation.Vector      `json:"weights"`
	BoostIncrements []decimal.Decimal      `json:"boost_increments,omitempty"`
	HighGrade       string                 `json:"high_grade,omitempty"`
	LowGrade        string                 `json:"low_grade,omitempty"`
}

// BandOutcome reports the truncation of one price band
type BandOutcome struct {
	Code      int      `json:"code"`
	Entities  []string `json:"entities"`
	Cutoff    string   `json:"cutoff,omitempty"`
	Truncated bool     `json:"truncated"`
	Refilled  []string `json:"refilled,omitempty"`
	Skipped   bool     `json:"skipped,omitempty"`
	Error     string   `json:"error,omitempty"`
	ErrorKind string   `json:"error_kind,omitempty"`
}

// BandResult carries the adjusted entities in input order and one outcome per band
type BandResult struct {
	Entities []BandEntity  `json:"entities"`
	Bands    []BandOutcome `json:"bands"`
}
