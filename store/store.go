// Package store persists price bars, split events, the ticker catalog
// and portfolio records. It is the storage collaborator the engines
// suspend on; retries, if any, belong here, not in the engines.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/herrhippopotamus/trading-rustix/market"
	"github.com/herrhippopotamus/trading-rustix/portfolio"
)

// ErrNotFound reports a portfolio write that matched no row. Callers
// test for it with errors.Is to tell a missing record apart from a
// storage failure.
var ErrNotFound = errors.New("not found")

// TickerFilter narrows a catalog listing.
type TickerFilter struct {
	Type        market.TickerType // AnyType for every class
	Substring   string            // case-insensitive match on symbol or name
	Limit       int
	TradedSince market.Date // only tickers with bars on or after this date
}

// AnyType selects every security class.
const AnyType market.TickerType = -1

// Store is the full storage surface. The sqlite implementation below
// is the only one in-tree; engines depend on narrower interfaces.
type Store interface {
	// Catalog.
	SaveTicker(ctx context.Context, d market.TickerDetail) error
	TickerDetails(ctx context.Context, t market.Ticker) (market.TickerDetail, bool, error)
	Tickers(ctx context.Context, f TickerFilter) ([]market.TickerDetail, error)
	ActiveTickers(ctx context.Context, typ market.TickerType, since market.Date) ([]market.Ticker, error)

	// Bars.
	SaveBars(ctx context.Context, t market.Ticker, bars []market.Bar, intraday bool) error
	Bars(ctx context.Context, t market.Ticker, from, until time.Time, intraday bool) ([]market.Bar, error)
	DataRange(ctx context.Context, t market.Ticker, intraday bool) (first, last time.Time, ok bool, err error)

	// Splits.
	SaveSplit(ctx context.Context, s market.Split) error
	Splits(ctx context.Context, t market.Ticker) ([]market.Split, error)
	SplitsBetween(ctx context.Context, from, until market.Date, limit int) ([]market.Split, error)

	// Generation is bumped by every bar or split write; the result
	// cache keys on it.
	Generation(ctx context.Context) (int64, error)

	// Portfolios.
	CreatePortfolio(ctx context.Context, name, description string) (portfolio.Portfolio, error)
	DeletePortfolio(ctx context.Context, id string) error
	Portfolio(ctx context.Context, id string) (portfolio.Portfolio, bool, error)
	Portfolios(ctx context.Context, filter string) ([]portfolio.Portfolio, error)
	BuySecurity(ctx context.Context, h portfolio.Holding) error
	SellSecurity(ctx context.Context, portfolioID string, t market.Ticker, sellDate market.Date) error
	DeleteSecurity(ctx context.Context, portfolioID string, t market.Ticker) error
	Securities(ctx context.Context, portfolioID string) ([]portfolio.Holding, error)

	Close() error
}
