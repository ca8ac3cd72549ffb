package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-04-16")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, time.April, d.Month())
	assert.Equal(t, 16, d.Day())
	assert.Equal(t, "2024-04-16", d.String())

	// Datetime strings truncate to their date part.
	d, err = ParseDate("2024-04-16T09:30:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-04-16", d.String())

	_, err = ParseDate("16.04.2024")
	assert.Error(t, err)
	_, err = ParseDate("")
	assert.Error(t, err)
}

func TestLastTradingDay(t *testing.T) {
	sat := NewDate(2024, time.April, 20)
	sun := NewDate(2024, time.April, 21)
	mon := NewDate(2024, time.April, 22)
	fri := NewDate(2024, time.April, 19)

	assert.Equal(t, fri, sat.LastTradingDay())
	assert.Equal(t, fri, sun.LastTradingDay())
	assert.Equal(t, mon, mon.LastTradingDay())
}

func TestPeriodStartOf(t *testing.T) {
	// Wednesday mid-month, mid-quarter.
	at := time.Date(2024, time.May, 15, 13, 45, 30, 0, Exchange)

	tests := []struct {
		period Period
		want   time.Time
	}{
		{Minute, time.Date(2024, time.May, 15, 13, 45, 0, 0, Exchange)},
		{Hour, time.Date(2024, time.May, 15, 13, 0, 0, 0, Exchange)},
		{Day, time.Date(2024, time.May, 15, 0, 0, 0, 0, Exchange)},
		{Week, time.Date(2024, time.May, 13, 0, 0, 0, 0, Exchange)},
		{Month, time.Date(2024, time.May, 1, 0, 0, 0, 0, Exchange)},
		{Quarter, time.Date(2024, time.April, 1, 0, 0, 0, 0, Exchange)},
		{SemiAnnual, time.Date(2024, time.January, 1, 0, 0, 0, 0, Exchange)},
		{Year, time.Date(2024, time.January, 1, 0, 0, 0, 0, Exchange)},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.period.StartOf(at), tc.period.String())
	}
}

func TestPeriodAdvanceRoundTrip(t *testing.T) {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, Exchange)
	for _, p := range []Period{Minute, Hour, Day, Week, Month, Quarter, SemiAnnual, Year} {
		fwd := p.Advance(start, 3)
		assert.Equal(t, start, p.Advance(fwd, -3), p.String())
	}
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("Quarterly")
	require.NoError(t, err)
	assert.Equal(t, Quarter, p)

	_, err = ParsePeriod("fortnight")
	assert.Error(t, err)
}

func TestIntraday(t *testing.T) {
	assert.True(t, Minute.Intraday())
	assert.True(t, Hour.Intraday())
	assert.False(t, Day.Intraday())
	assert.False(t, Year.Intraday())

	assert.Equal(t, Day, Month.SubPeriod())
	assert.Equal(t, Minute, Hour.SubPeriod())
}
