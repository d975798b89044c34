package format

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercent_GuardsZeroDenominator(t *testing.T) {
	assert.Equal(t, 0.0, Percent(5, 0))
	assert.Equal(t, 0.0, Percent(5, -1))
	assert.Equal(t, 0.0, Percent(math.NaN(), 10))
	assert.Equal(t, 50.0, Percent(5, 10))
}

func TestRatio_NilOnZero(t *testing.T) {
	assert.Nil(t, Ratio(3, 0))
	r := Ratio(3, 4)
	require.NotNil(t, r)
	assert.InDelta(t, 0.75, *r, 1e-9)

	p := PercentPtr(1, 8)
	require.NotNil(t, p)
	assert.InDelta(t, 12.5, *p, 1e-9)
	assert.Nil(t, PercentPtr(1, 0))
}

func TestParseTime(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2025-03-04T10:00:00.000+0000", true},
		{"2025-03-04T10:00:00Z", true},
		{"2025-03-04", true},
		{"", false},
		{"-", false},
		{"not a date", false},
	}
	for _, c := range cases {
		_, ok := ParseTime(c.in)
		assert.Equal(t, c.ok, ok, c.in)
	}
	assert.Equal(t, int64(0), EpochMillis("garbage"))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "42.5%", FormatPercent(42.46, 1))
	assert.Equal(t, Empty, FormatPercent(math.Inf(1), 1))
	assert.Equal(t, Empty, FormatPercentPtr(nil, 0))
	assert.Equal(t, "1,234", FormatNumber(1234, 0))
	assert.Equal(t, "Mar 4, 2025", FormatDate("2025-03-04T10:00:00Z"))
	assert.Equal(t, Empty, FormatDate("soon"))
	assert.Equal(t, Empty, Text("   "))
	assert.True(t, IsBlank(" - "))
	assert.False(t, Positive(Float(0)))
	assert.Equal(t, 2.35, Round(2.346, 2))
}
