package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herrhippopotamus/trading-rustix/market"
)

func rankSource() *memSource {
	src := newMemSource()
	src.addDaily(acme, monday, []float64{100, 110}, 500)  // +10%
	src.addDaily(beta, monday, []float64{100, 95}, 2000)  // -5%
	src.addDaily(gama, monday, []float64{100, 108}, 1000) // +8%
	return src
}

func TestMovementsWinner(t *testing.T) {
	e := newTestEngine(rankSource())

	got, err := e.Movements(context.Background(), MovementQuery{
		Type:   market.Stock,
		Until:  friday,
		Period: market.Week,
		SortBy: Winner,
	})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, acme, got[0].Ticker)
	assert.Equal(t, gama, got[1].Ticker)
	assert.Equal(t, beta, got[2].Ticker)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Performance, got[i].Performance)
	}
}

func TestMovementsRankingIdempotent(t *testing.T) {
	e := newTestEngine(rankSource())
	q := MovementQuery{Type: market.Stock, Until: friday, Period: market.Week, SortBy: Winner}

	first, err := e.Movements(context.Background(), q)
	require.NoError(t, err)
	second, err := e.Movements(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMovementsLoserAndVolume(t *testing.T) {
	e := newTestEngine(rankSource())
	ctx := context.Background()

	losers, err := e.Movements(ctx, MovementQuery{Type: market.Stock, Until: friday, Period: market.Week, SortBy: Loser})
	require.NoError(t, err)
	assert.Equal(t, beta, losers[0].Ticker)

	byVolume, err := e.Movements(ctx, MovementQuery{Type: market.Stock, Until: friday, Period: market.Week, SortBy: Volume})
	require.NoError(t, err)
	assert.Equal(t, beta, byVolume[0].Ticker)
	assert.Equal(t, gama, byVolume[1].Ticker)
	assert.Equal(t, acme, byVolume[2].Ticker)
}

func TestMovementsAbsPerformance(t *testing.T) {
	src := newMemSource()
	src.addDaily(acme, monday, []float64{100, 103}, 500) // +3%
	src.addDaily(beta, monday, []float64{100, 91}, 500)  // -9%
	e := newTestEngine(src)

	got, err := e.Movements(context.Background(), MovementQuery{
		Type: market.Stock, Until: friday, Period: market.Week, SortBy: AbsPerformance,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, beta, got[0].Ticker)
}

func TestMovementsFilters(t *testing.T) {
	e := newTestEngine(rankSource())
	ctx := context.Background()

	// min_volume drops the thin tickers.
	got, err := e.Movements(ctx, MovementQuery{
		Type: market.Stock, Until: friday, Period: market.Week, SortBy: Winner, MinVolume: 3000,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, beta, got[0].Ticker)

	// limit truncates after ranking.
	got, err = e.Movements(ctx, MovementQuery{
		Type: market.Stock, Until: friday, Period: market.Week, SortBy: Winner, Limit: 2,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, acme, got[0].Ticker)

	// Tickers with no data in range never make the list.
	got, err = e.Movements(ctx, MovementQuery{
		Type: market.ETF, Until: friday, Period: market.Week, SortBy: Winner,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSortByTieBreak(t *testing.T) {
	a := Movement{Ticker: acme, Performance: 0.1}
	b := Movement{Ticker: beta, Performance: 0.1}
	assert.True(t, Winner.less(a, b))
	assert.False(t, Winner.less(b, a))
}

func TestParseSortBy(t *testing.T) {
	s, err := ParseSortBy("VOLATILITY")
	require.NoError(t, err)
	assert.Equal(t, Volatility, s)

	_, err = ParseSortBy("best")
	assert.Error(t, err)
}
