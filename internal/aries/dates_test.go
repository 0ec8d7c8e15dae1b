package aries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpressionDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"9/2021", "2021-09-01"},
		{"12/2021", "2021-12-01"},
		{"07/15/2023", "2023-07-15"},
		{"2021.75", "2021-09-01"},
		{"2021.0", "2021-01-01"},
		{"2021", "2021-01-01"},
	}
	for _, c := range cases {
		got, err := ParseExpressionDate(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, FormatDate(got), c.in)
	}

	for _, bad := range []string{"", "13/2021", "ABC", "1/2/3/4"} {
		_, err := ParseExpressionDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestDayMonthYearFromDecimal(t *testing.T) {
	cases := []struct {
		in     float64
		years  int
		months int
	}{
		{2.5, 2, 6},
		{1.01, 1, 1},
		{3, 3, 0},
		{0.25, 0, 3},
	}
	for _, c := range cases {
		y, m := DayMonthYearFromDecimal(c.in)
		assert.Equal(t, c.years, y)
		assert.Equal(t, c.months, m)
	}
}

func TestMonthBoundaries(t *testing.T) {
	mid := time.Date(2020, 2, 14, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, "2020-02-01", FormatDate(StartOfMonth(mid)))
	assert.Equal(t, "2020-02-29", FormatDate(EndOfMonth(mid)))
	assert.Equal(t, "2020-05-01", FormatDate(OffsetMonths(mid, 3)))
}

func TestNextPrevDayContiguity(t *testing.T) {
	next, err := NextDay("2020-12-31")
	require.NoError(t, err)
	assert.Equal(t, "2021-01-01", next)

	prev, err := PrevDay("2021-01-01")
	require.NoError(t, err)
	assert.Equal(t, "2020-12-31", prev)
}

func TestReadStart(t *testing.T) {
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	got, ok := ReadStart("7/2021", base)
	require.True(t, ok)
	assert.Equal(t, "07/2021", got)

	got, ok = ReadStart("DELAY 6", base)
	require.True(t, ok)
	assert.Equal(t, "07/2020", got)

	_, ok = ReadStart("NONSENSE", base)
	assert.False(t, ok)
}

func TestMonthsBetween(t *testing.T) {
	a := time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC)
	b := time.Date(2021, 3, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 14, MonthsBetween(a, b))
	assert.Equal(t, 0, MonthsBetween(a, a))
}

func TestParseCutoffUnit(t *testing.T) {
	kind, _, ok := ParseCutoffUnit("LIFE")
	require.True(t, ok)
	assert.Equal(t, CutoffLife, kind)

	kind, _, ok = ParseCutoffUnit("IMO")
	require.True(t, ok)
	assert.Equal(t, CutoffIncrMonths, kind)

	kind, unit, ok := ParseCutoffUnit("mmb")
	require.True(t, ok)
	assert.Equal(t, CutoffVolume, kind)
	assert.Equal(t, "MMB", unit)

	_, _, ok = ParseCutoffUnit("WK")
	assert.False(t, ok)
}
