package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herrhippopotamus/trading-rustix/market"
	"github.com/herrhippopotamus/trading-rustix/portfolio"
)

var acme = market.Ticker{Symbol: "ACME", Type: market.Stock}

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTickerRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveTicker(ctx, market.TickerDetail{
		Ticker: acme,
		Name:   "Acme Corp",
		Fields: map[string]string{"exchange": "NYSE"},
	}))

	d, ok, err := s.TickerDetails(ctx, acme)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Acme Corp", d.Name)
	assert.Equal(t, "NYSE", d.Fields["exchange"])

	_, ok, err = s.TickerDetails(ctx, market.Ticker{Symbol: "NOPE", Type: market.Stock})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTickersFilter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveTicker(ctx, market.TickerDetail{Ticker: acme, Name: "Acme Corp"}))
	require.NoError(t, s.SaveTicker(ctx, market.TickerDetail{
		Ticker: market.Ticker{Symbol: "BETA", Type: market.ETF}, Name: "Beta Fund",
	}))

	got, err := s.Tickers(ctx, TickerFilter{Type: market.ETF})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "BETA", got[0].Symbol)

	got, err = s.Tickers(ctx, TickerFilter{Type: AnyType, Substring: "acme"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ACME", got[0].Symbol)

	got, err = s.Tickers(ctx, TickerFilter{Type: AnyType, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestBarsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	d1 := market.NewDate(2024, time.March, 4)
	d2 := market.NewDate(2024, time.March, 5)
	bars := []market.Bar{
		{Time: d1.Time(), Price: 100, Volume: 500},
		{Time: d2.Time(), Price: 102, Volume: 600},
	}
	require.NoError(t, s.SaveBars(ctx, acme, bars, false))

	got, err := s.Bars(ctx, acme, d1.Time(), d2.Add(1).Time(), false)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.InDelta(t, 100.0, got[0].Price, 1e-9)
	assert.True(t, got[0].Time.Before(got[1].Time))

	// Intraday and daily series are distinct dimensions.
	got, err = s.Bars(ctx, acme, d1.Time(), d2.Add(1).Time(), true)
	require.NoError(t, err)
	assert.Empty(t, got)

	first, last, ok, err := s.DataRange(ctx, acme, false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, d1.Time().Unix(), first.Unix())
	assert.Equal(t, d2.Time().Unix(), last.Unix())

	_, _, ok, err = s.DataRange(ctx, acme, true)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestActiveTickers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	old := market.NewDate(2023, time.March, 4)
	recent := market.NewDate(2024, time.March, 4)
	beta := market.Ticker{Symbol: "BETA", Type: market.ETF}

	require.NoError(t, s.SaveBars(ctx, acme, []market.Bar{{Time: old.Time(), Price: 1, Volume: 1}}, false))
	require.NoError(t, s.SaveBars(ctx, beta, []market.Bar{{Time: recent.Time(), Price: 1, Volume: 1}}, false))

	got, err := s.ActiveTickers(ctx, AnyType, market.NewDate(2024, time.January, 1))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, beta, got[0])

	got, err = s.ActiveTickers(ctx, market.Stock, market.NewDate(2020, time.January, 1))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, acme, got[0])
}

func TestGenerationAdvances(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	g0, err := s.Generation(ctx)
	require.NoError(t, err)

	require.NoError(t, s.SaveBars(ctx, acme,
		[]market.Bar{{Time: market.NewDate(2024, time.March, 4).Time(), Price: 1, Volume: 1}}, false))
	g1, err := s.Generation(ctx)
	require.NoError(t, err)
	assert.Greater(t, g1, g0)

	require.NoError(t, s.SaveSplit(ctx, market.Split{
		Ticker: acme, Effective: market.NewDate(2024, time.March, 5), Numerator: 2, Denominator: 1,
	}))
	g2, err := s.Generation(ctx)
	require.NoError(t, err)
	assert.Greater(t, g2, g1)
}

func TestSplits(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	beta := market.Ticker{Symbol: "BETA", Type: market.Stock}
	require.NoError(t, s.SaveSplit(ctx, market.Split{Ticker: acme, Effective: market.NewDate(2024, time.March, 5), Numerator: 2, Denominator: 1}))
	require.NoError(t, s.SaveSplit(ctx, market.Split{Ticker: acme, Effective: market.NewDate(2023, time.June, 1), Numerator: 3, Denominator: 2}))
	require.NoError(t, s.SaveSplit(ctx, market.Split{Ticker: beta, Effective: market.NewDate(2024, time.April, 1), Numerator: 2, Denominator: 1}))

	got, err := s.Splits(ctx, acme)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2023-06-01", got[0].Effective.String())
	assert.Equal(t, uint32(3), got[0].Numerator)

	between, err := s.SplitsBetween(ctx, market.NewDate(2024, time.January, 1), market.NewDate(2024, time.December, 31), 0)
	require.NoError(t, err)
	require.Len(t, between, 2)
	assert.Equal(t, acme, between[0].Ticker)
	assert.Equal(t, beta, between[1].Ticker)

	limited, err := s.SplitsBetween(ctx, market.NewDate(2023, time.January, 1), market.NewDate(2024, time.December, 31), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestPortfolioLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p, err := s.CreatePortfolio(ctx, "growth", "long-term positions")
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)

	got, ok, err := s.Portfolio(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "growth", got.Name)

	all, err := s.Portfolios(ctx, "growth")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	buy := portfolio.Holding{
		PortfolioID:  p.ID,
		Ticker:       acme,
		Volume:       100,
		PurchaseDate: market.NewDate(2024, time.January, 10),
	}
	require.NoError(t, s.BuySecurity(ctx, buy))

	holdings, err := s.Securities(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, portfolio.Open, holdings[0].State())

	require.NoError(t, s.SellSecurity(ctx, p.ID, acme, market.NewDate(2024, time.March, 15)))
	holdings, err = s.Securities(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, portfolio.Closed, holdings[0].State())
	assert.Equal(t, "2024-03-15", holdings[0].SellDate.String())

	// Selling again fails: no open holding remains.
	assert.ErrorIs(t, s.SellSecurity(ctx, p.ID, acme, market.NewDate(2024, time.March, 16)), ErrNotFound)

	require.NoError(t, s.DeleteSecurity(ctx, p.ID, acme))
	assert.ErrorIs(t, s.DeleteSecurity(ctx, p.ID, acme), ErrNotFound)
	holdings, err = s.Securities(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, holdings)

	require.NoError(t, s.DeletePortfolio(ctx, p.ID))
	_, ok, err = s.Portfolio(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, s.DeletePortfolio(ctx, p.ID), ErrNotFound)
}
