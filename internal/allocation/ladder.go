package allocation

import (
	"fmt"
	"strconv"
	"strings"
)

// TierCount is the fixed number of ordinal customer grades.
const TierCount = 30

const (
	defaultHighGrade = "D30"
	defaultLowGrade  = "D1"
)

// GradeLadder is the usable sub-range [High, Low] of the tier axis.
// Index 0 is the highest grade (D30), index 29 the lowest (D1).
type GradeLadder struct {
	high int
	low  int
}

// FullLadder covers every tier.
func FullLadder() GradeLadder {
	return GradeLadder{high: 0, low: TierCount - 1}
}

// NewGradeLadder validates the bounds and builds a ladder.
func NewGradeLadder(high, low int) (GradeLadder, error) {
	if high < 0 || low > TierCount-1 {
		return GradeLadder{}, newError(ErrInvalidInput, "", "ladder bounds [%d, %d] outside [0, %d]", high, low, TierCount-1)
	}
	if high > low {
		return GradeLadder{}, newError(ErrInvalidInput, "", "ladder high tier %d is below low tier %d", high, low)
	}
	return GradeLadder{high: high, low: low}, nil
}

// LadderFromGrades builds a ladder from grade labels such as "D30" and "D1".
// Blank labels fall back to the full range.
func LadderFromGrades(highGrade, lowGrade string) (GradeLadder, error) {
	high, err := ParseGrade(highGrade, defaultHighGrade)
	if err != nil {
		return GradeLadder{}, err
	}
	low, err := ParseGrade(lowGrade, defaultLowGrade)
	if err != nil {
		return GradeLadder{}, err
	}
	return NewGradeLadder(high, low)
}

// High returns the highest usable tier index.
func (l GradeLadder) High() int { return l.high }

// Low returns the lowest usable tier index.
func (l GradeLadder) Low() int { return l.low }

// Contains reports whether tier lies inside the ladder.
func (l GradeLadder) Contains(tier int) bool {
	return tier >= l.high && tier <= l.low
}

// Width is the number of usable tiers.
func (l GradeLadder) Width() int {
	return l.low - l.high + 1
}

// narrow returns a ladder with the same high bound and a new low bound.
func (l GradeLadder) narrow(low int) GradeLadder {
	return GradeLadder{high: l.high, low: low}
}

func (l GradeLadder) String() string {
	return fmt.Sprintf("%s-%s", GradeLabel(l.high), GradeLabel(l.low))
}

// ParseGrade converts a label like "d7" to its tier index (23).
// An empty label resolves to def.
func ParseGrade(label string, def string) (int, error) {
	normalized := strings.ToUpper(strings.TrimSpace(label))
	if normalized == "" {
		normalized = def
	}
	if !strings.HasPrefix(normalized, "D") {
		return 0, newError(ErrInvalidInput, label, "grade label must look like D1..D30")
	}
	n, err := strconv.Atoi(normalized[1:])
	if err != nil || n < 1 || n > TierCount {
		return 0, newError(ErrInvalidInput, label, "grade label must look like D1..D30")
	}
	return TierCount - n, nil
}

// GradeLabel converts a tier index to its label, 0 -> "D30".
func GradeLabel(tier int) string {
	return "D" + strconv.Itoa(TierCount-tier)
}
