package allocation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

// filled returns a vector with value at every tier.
func filled(value string) Vector {
	var v Vector
	for i := range v {
		v[i] = dec(value)
	}
	return v
}

// filledRange returns a vector with value in [from, to] and zero elsewhere.
func filledRange(value string, from, to int) Vector {
	var v Vector
	for i := from; i <= to; i++ {
		v[i] = dec(value)
	}
	return v
}

func vectorOf(values ...string) Vector {
	var v Vector
	for i, s := range values {
		v[i] = dec(s)
	}
	return v
}

func mustLadder(t *testing.T, high, low int) GradeLadder {
	t.Helper()
	l, err := NewGradeLadder(high, low)
	require.NoError(t, err)
	return l
}

func matrixOf(segments []string, rows ...Vector) CustomerMatrix {
	return CustomerMatrix{Segments: segments, Counts: rows}
}

func requireKind(t *testing.T, err error, kind error) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, kind)
}
