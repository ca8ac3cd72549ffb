package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herrhippopotamus/trading-rustix/market"
)

var tgt = market.Ticker{Symbol: "TGT", Type: market.Stock}

// correlSource builds three tickers with engineered return series:
// ACME moves with TGT (r=1), BETA moves against it (r=-1).
func correlSource() *memSource {
	src := newMemSource()
	src.addDaily(tgt, monday, []float64{100, 110, 115.5}, 1000) // returns .10, .05
	src.addDaily(acme, monday, []float64{100, 120, 132}, 2000)  // returns .20, .10
	src.addDaily(beta, monday, []float64{100, 90, 85.5}, 3000)  // returns -.10, -.05
	return src
}

func TestCorrelationsPairwise(t *testing.T) {
	e := newTestEngine(correlSource())

	got, err := e.Correlations(context.Background(), []market.Ticker{tgt, acme, beta}, market.Week, friday)
	require.NoError(t, err)
	// Three tickers: three unordered pairs, each computed once.
	require.Len(t, got, 3)

	byPair := map[[2]string]Correl{}
	for _, c := range got {
		byPair[[2]string{c.Ticker0.Symbol, c.Ticker1.Symbol}] = c
	}

	ab := byPair[[2]string{"ACME", "BETA"}]
	at := byPair[[2]string{"ACME", "TGT"}]
	bt := byPair[[2]string{"BETA", "TGT"}]

	require.True(t, ab.Exists)
	require.True(t, at.Exists)
	require.True(t, bt.Exists)
	assert.InDelta(t, -1.0, ab.Correlation, 1e-9)
	assert.InDelta(t, 1.0, at.Correlation, 1e-9)
	assert.InDelta(t, -1.0, bt.Correlation, 1e-9)

	for _, c := range got {
		assert.GreaterOrEqual(t, c.Correlation, -1.0)
		assert.LessOrEqual(t, c.Correlation, 1.0)
	}
}

func TestCorrelationSymmetry(t *testing.T) {
	e := newTestEngine(correlSource())
	ctx := context.Background()

	la, err := e.leg(ctx, acme, market.Week, friday)
	require.NoError(t, err)
	lt, err := e.leg(ctx, tgt, market.Week, friday)
	require.NoError(t, err)

	fwd := correlate(la, lt, market.Week, friday)
	rev := correlate(lt, la, market.Week, friday)
	assert.InDelta(t, fwd.Correlation, rev.Correlation, 1e-12)
	assert.Equal(t, fwd.Exists, rev.Exists)
}

func TestCorrelationMissingSide(t *testing.T) {
	src := correlSource()
	ghost := market.Ticker{Symbol: "GHST", Type: market.Stock}
	e := newTestEngine(src)

	got, err := e.Correlations(context.Background(), []market.Ticker{tgt, ghost}, market.Week, friday)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].Exists)
	assert.Zero(t, got[0].Correlation)
}

func TestCorrelationDegenerateSeries(t *testing.T) {
	src := newMemSource()
	src.addDaily(tgt, monday, []float64{100, 110, 115.5}, 1000)
	src.addDaily(acme, monday, []float64{100, 100, 100}, 1000) // zero variance
	e := newTestEngine(src)

	got, err := e.Correlations(context.Background(), []market.Ticker{tgt, acme}, market.Week, friday)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].Exists)
}

func TestCorrelatingPairsPositive(t *testing.T) {
	e := newTestEngine(correlSource())

	out, errc := e.CorrelatingPairs(context.Background(), PairScan{
		Until:  friday,
		Period: market.Week,
		Limit:  1,
		Sign:   SignPositive,
	})

	var got []Correl
	for c := range out {
		got = append(got, c)
	}
	require.NoError(t, <-errc)

	// Only the positively correlated pair survives the sign filter.
	require.Len(t, got, 1)
	assert.Equal(t, "ACME", got[0].Ticker0.Symbol)
	assert.Equal(t, "TGT", got[0].Ticker1.Symbol)
	assert.InDelta(t, 1.0, got[0].Correlation, 1e-9)
}

func TestCorrelatingPairsRankedByStrength(t *testing.T) {
	e := newTestEngine(correlSource())

	out, errc := e.CorrelatingPairs(context.Background(), PairScan{
		Until:  friday,
		Period: market.Week,
		Sign:   SignAbs,
	})

	var prev float64 = 2
	n := 0
	for c := range out {
		s := c.Correlation
		if s < 0 {
			s = -s
		}
		assert.LessOrEqual(t, s, prev, "stream must be in descending strength order")
		prev = s
		n++
	}
	require.NoError(t, <-errc)
	assert.Equal(t, 3, n)
}

func TestCorrelatingPairsMinVolume(t *testing.T) {
	e := newTestEngine(correlSource())

	// Only BETA (9000) and ACME (6000) clear 5000; TGT (3000) drops
	// every pair it is part of.
	out, errc := e.CorrelatingPairs(context.Background(), PairScan{
		Until:     friday,
		Period:    market.Week,
		MinVolume: 5000,
	})
	var got []Correl
	for c := range out {
		got = append(got, c)
	}
	require.NoError(t, <-errc)
	require.Len(t, got, 1)
	assert.Equal(t, "ACME", got[0].Ticker0.Symbol)
	assert.Equal(t, "BETA", got[0].Ticker1.Symbol)
}

func TestCorrelatingPairsCancellation(t *testing.T) {
	e := newTestEngine(correlSource())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, errc := e.CorrelatingPairs(ctx, PairScan{Until: friday, Period: market.Week})

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-out:
			if !ok {
				// Producer shut down without scanning the universe.
				require.NoError(t, <-errc)
				return
			}
		case <-deadline:
			t.Fatal("producer did not stop after cancellation")
		}
	}
}

func TestMutualCorrelations(t *testing.T) {
	e := newTestEngine(correlSource())

	got, err := e.MutualCorrelations(context.Background(), []market.Ticker{tgt, acme, beta}, market.Week, friday)
	require.NoError(t, err)
	require.Len(t, got, 3)

	for _, mc := range got {
		assert.Len(t, mc.Correlations, 2, mc.Ticker.Symbol)
		assert.True(t, mc.Movement.Exists)
		for _, c := range mc.Correlations {
			assert.True(t, c.Ticker0 == mc.Ticker || c.Ticker1 == mc.Ticker)
		}
	}
}

func TestParseSign(t *testing.T) {
	s, err := ParseSign("negative")
	require.NoError(t, err)
	assert.Equal(t, SignNegative, s)

	s, err = ParseSign("")
	require.NoError(t, err)
	assert.Equal(t, SignAbs, s)

	_, err = ParseSign("sideways")
	assert.Error(t, err)
}
