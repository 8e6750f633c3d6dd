package allocation

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultBoostPhrase marks entities whose customers are visited every two
// weeks with a doubled quota.
const DefaultBoostPhrase = "两周一访上浮100%"

// BoostWeights adds per-tier increments to a base weight vector.
func BoostWeights(base Vector, increments []decimal.Decimal) (Vector, error) {
	if len(increments) != TierCount {
		return Vector{}, newError(ErrInvalidInput, "", "boost increments have %d tiers, want %d", len(increments), TierCount)
	}
	out := base
	for t := 0; t < TierCount; t++ {
		out[t] = out[t].Add(increments[t])
	}
	return out, nil
}

// NeedsBoost reports whether remark carries phrase once spaces are stripped.
func NeedsBoost(remark, phrase string) bool {
	if phrase == "" {
		phrase = DefaultBoostPhrase
	}
	normalized := strings.ReplaceAll(remark, " ", "")
	return normalized != "" && strings.Contains(normalized, phrase)
}
