package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dailyBar(d Date, price, volume float64) Bar {
	return Bar{Time: d.Time(), Price: price, Volume: volume}
}

func TestAdjustSplitsSingle(t *testing.T) {
	tick := Ticker{Symbol: "ACME", Type: Stock}
	_ = tick

	bars := []Bar{
		dailyBar(NewDate(2024, time.March, 1), 100, 1000),
		dailyBar(NewDate(2024, time.March, 4), 102, 1100),
		// 2:1 split effective March 5: the price halves at the open.
		dailyBar(NewDate(2024, time.March, 5), 51.5, 2300),
		dailyBar(NewDate(2024, time.March, 6), 52, 2200),
	}
	splits := []Split{{Effective: NewDate(2024, time.March, 5), Numerator: 2, Denominator: 1}}

	adj := AdjustSplits(bars, splits)
	require.Len(t, adj, 4)

	assert.InDelta(t, 50.0, adj[0].Price, 1e-9)
	assert.InDelta(t, 2000.0, adj[0].Volume, 1e-9)
	assert.InDelta(t, 51.0, adj[1].Price, 1e-9)
	// Bars on and after the effective date are untouched.
	assert.Equal(t, bars[2], adj[2])
	assert.Equal(t, bars[3], adj[3])
}

func TestAdjustSplitsContinuity(t *testing.T) {
	// The adjusted return across the split date must equal the return
	// the market actually saw, with no split-induced jump.
	bars := []Bar{
		dailyBar(NewDate(2024, time.March, 4), 100, 1000),
		dailyBar(NewDate(2024, time.March, 5), 50.5, 2000),
	}
	splits := []Split{{Effective: NewDate(2024, time.March, 5), Numerator: 2, Denominator: 1}}

	adj := AdjustSplits(bars, splits)
	ret := (adj[1].Price - adj[0].Price) / adj[0].Price
	assert.InDelta(t, 0.01, ret, 1e-9)
}

func TestAdjustSplitsCumulative(t *testing.T) {
	bars := []Bar{
		dailyBar(NewDate(2023, time.June, 1), 400, 100),
		dailyBar(NewDate(2023, time.September, 1), 210, 200),
		dailyBar(NewDate(2024, time.February, 1), 110, 400),
	}
	splits := []Split{
		{Effective: NewDate(2024, time.January, 1), Numerator: 2, Denominator: 1},
		{Effective: NewDate(2023, time.August, 1), Numerator: 2, Denominator: 1},
	}

	adj := AdjustSplits(bars, splits)
	// Oldest bar sits before both splits: divided by 4.
	assert.InDelta(t, 100.0, adj[0].Price, 1e-9)
	assert.InDelta(t, 400.0, adj[0].Volume, 1e-9)
	// Middle bar sits before only the later split.
	assert.InDelta(t, 105.0, adj[1].Price, 1e-9)
	assert.InDelta(t, 400.0, adj[1].Volume, 1e-9)
	// Newest bar is untouched.
	assert.InDelta(t, 110.0, adj[2].Price, 1e-9)
}

func TestAdjustSplitsNoop(t *testing.T) {
	bars := []Bar{dailyBar(NewDate(2024, time.March, 1), 100, 1000)}

	adj := AdjustSplits(bars, nil)
	assert.Equal(t, bars, adj)

	// Input bars are never mutated.
	AdjustSplits(bars, []Split{{Effective: NewDate(2024, time.April, 1), Numerator: 3, Denominator: 1}})
	assert.InDelta(t, 100.0, bars[0].Price, 1e-9)
}
