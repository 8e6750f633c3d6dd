package allocation

import (
	"sort"

	"github.com/shopspring/decimal"
)

// PriceBand is a wholesale price interval [MinInclusive, MaxExclusive).
// A nil bound is open.
type PriceBand struct {
	Code         int              `json:"code"`
	MinInclusive *decimal.Decimal `json:"min_inclusive,omitempty"`
	MaxExclusive *decimal.Decimal `json:"max_exclusive,omitempty"`
}

// Contains reports whether price falls inside the band.
func (b PriceBand) Contains(price decimal.Decimal) bool {
	if b.MinInclusive != nil && price.LessThan(*b.MinInclusive) {
		return false
	}
	if b.MaxExclusive != nil && price.GreaterThanOrEqual(*b.MaxExclusive) {
		return false
	}
	return true
}

// ResolveBand returns the code of the first band containing price, or 0.
func ResolveBand(bands []PriceBand, price decimal.Decimal) int {
	for _, b := range bands {
		if b.Contains(price) {
			return b.Code
		}
	}
	return 0
}

// GroupByBand buckets keys by the band of their price. Keys outside every
// band are returned under code 0. Keys keep their input order.
func GroupByBand(bands []PriceBand, keys []string, prices map[string]decimal.Decimal) (map[int][]string, []int) {
	groups := make(map[int][]string)
	for _, k := range keys {
		code := ResolveBand(bands, prices[k])
		groups[code] = append(groups[code], k)
	}
	codes := make([]int, 0, len(groups))
	for c := range groups {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	return groups, codes
}
