package allocation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorUnmarshalJSON(t *testing.T) {
	var v Vector
	require.NoError(t, json.Unmarshal([]byte(`["3", 2, "1.5"]`), &v))
	assertDecimal(t, "3", v[0])
	assertDecimal(t, "1.5", v[2])
	assert.True(t, v.IsZeroRange(3, TierCount-1))

	full := strings.TrimSuffix(strings.Repeat(`"1",`, TierCount), ",")
	require.NoError(t, json.Unmarshal([]byte("["+full+"]"), &v))
	assert.True(t, v.Equal(filled("1")))

	before := v
	err := json.Unmarshal([]byte("["+full+`,"1"]`), &v)
	requireKind(t, err, ErrInvalidInput)
	assert.True(t, v.Equal(before))

	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &v))
}

func TestVectorJSONRoundTrip(t *testing.T) {
	original := filledRange("7", 0, 12)
	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Vector
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, original.Equal(decoded))
}
