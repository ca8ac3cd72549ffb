// Package analytics turns aggregated price buckets into movement,
// correlation and ranking statistics.
package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/herrhippopotamus/trading-rustix/cache"
	"github.com/herrhippopotamus/trading-rustix/market"
)

// Source is the storage collaborator boundary. Calls into it are the
// engine's only suspension points; everything downstream is pure
// in-memory computation.
type Source interface {
	// Bars returns the raw bar snapshot for [from, until), sorted
	// ascending, at daily or intraday granularity.
	Bars(ctx context.Context, t market.Ticker, from, until time.Time, intraday bool) ([]market.Bar, error)

	// Splits returns all split events for the ticker, any order.
	Splits(ctx context.Context, t market.Ticker) ([]market.Split, error)

	// DataRange reports the first and last bar times for the ticker,
	// ok=false when the ticker has no data at that granularity.
	DataRange(ctx context.Context, t market.Ticker, intraday bool) (first, last time.Time, ok bool, err error)

	// ActiveTickers lists tickers of the given type traded since the
	// given date. A negative type means every security class.
	ActiveTickers(ctx context.Context, typ market.TickerType, since market.Date) ([]market.Ticker, error)

	// Generation is the current price/split data generation stamp.
	Generation(ctx context.Context) (int64, error)
}

// AnyType selects every security class in ActiveTickers.
const AnyType market.TickerType = -1

// Engine computes movement and correlation statistics on top of the
// calendar-aligned, split-adjusted aggregation pipeline. It is safe
// for concurrent use; the cache is its only shared state.
type Engine struct {
	src   Source
	cache *cache.Cache

	// activeDays bounds the "recently traded" universe for bulk scans.
	activeDays int
}

func NewEngine(src Source, c *cache.Cache) *Engine {
	return &Engine{src: src, cache: c, activeDays: 10}
}

// span is the cached unit of aggregation: the whole-period bucket plus
// its sub-period buckets, both split-adjusted.
type span struct {
	Bucket market.Bucket
	Subs   []market.Bucket
}

// span resolves boundaries, fetches and adjusts bars, and aggregates
// them, going through the result cache keyed by (ticker, period,
// until, generation).
func (e *Engine) span(ctx context.Context, t market.Ticker, p market.Period, until time.Time) (span, error) {
	gen, err := e.src.Generation(ctx)
	if err != nil {
		return span{}, fmt.Errorf("data generation: %w", err)
	}

	key := fmt.Sprintf("span:%s:%s:%s", t, p, until.Format(market.DatetimeFormat))
	v, err := e.cache.Do(ctx, key, gen, func(ctx context.Context) (any, error) {
		return e.computeSpan(ctx, t, p, until)
	})
	if err != nil {
		return span{}, err
	}
	return v.(span), nil
}

func (e *Engine) computeSpan(ctx context.Context, t market.Ticker, p market.Period, until time.Time) (span, error) {
	intraday := p.Intraday()

	first, last, ok, err := e.src.DataRange(ctx, t, intraday)
	if err != nil {
		return span{}, fmt.Errorf("data range %s: %w", t, err)
	}
	missing := span{Bucket: market.Bucket{Ticker: t, Period: p}}
	if !ok {
		// No data at this granularity. In particular intraday periods
		// degrade to exists=false when only daily bars exist.
		return missing, nil
	}

	aligner := market.Aligner{From: market.DateOf(first), Until: market.DateOf(last)}
	bound, ok := aligner.Span(p, until)
	if !ok {
		return missing, nil
	}

	bars, err := e.src.Bars(ctx, t, bound.Start, bound.End, intraday)
	if err != nil {
		return span{}, fmt.Errorf("bars %s: %w", t, err)
	}
	splits, err := e.src.Splits(ctx, t)
	if err != nil {
		return span{}, fmt.Errorf("splits %s: %w", t, err)
	}
	adjusted := market.AdjustSplits(bars, splits)

	bucket := market.Aggregate(t, p, adjusted, []market.Boundary{bound})[0]
	subs := market.Aggregate(t, p.SubPeriod(), adjusted, aligner.SubBoundaries(p, bound))
	return span{Bucket: bucket, Subs: subs}, nil
}

// closeLookbackDays bounds how far AdjustedCloseOn reaches back for
// the nearest preceding session (weekends plus holiday runs).
const closeLookbackDays = 7

// AdjustedCloseOn resolves the split-adjusted close for the trading
// session on d, falling back to the nearest preceding session within
// closeLookbackDays. ok=false means no price is available near d.
func (e *Engine) AdjustedCloseOn(ctx context.Context, t market.Ticker, d market.Date) (float64, bool, error) {
	gen, err := e.src.Generation(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("data generation: %w", err)
	}

	type adjClose struct {
		Price float64
		OK    bool
	}
	key := fmt.Sprintf("close:%s:%s", t, d)
	v, err := e.cache.Do(ctx, key, gen, func(ctx context.Context) (any, error) {
		from := d.Add(-closeLookbackDays).Time()
		until := d.Add(1).Time()
		bars, err := e.src.Bars(ctx, t, from, until, false)
		if err != nil {
			return nil, fmt.Errorf("bars %s: %w", t, err)
		}
		if len(bars) == 0 {
			return adjClose{}, nil
		}
		splits, err := e.src.Splits(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("splits %s: %w", t, err)
		}
		adjusted := market.AdjustSplits(bars, splits)
		return adjClose{Price: adjusted[len(adjusted)-1].Price, OK: true}, nil
	})
	if err != nil {
		return 0, false, err
	}
	c := v.(adjClose)
	return c.Price, c.OK, nil
}

// existingCloses extracts the closes of existing sub-buckets in order.
func existingCloses(subs []market.Bucket) []float64 {
	var out []float64
	for _, b := range subs {
		if b.Exists {
			out = append(out, b.Close)
		}
	}
	return out
}

// subReturns computes the return between each pair of adjacent
// existing sub-buckets, keyed by the later bucket's start. Buckets
// separated by a missing session produce no return, so two tickers'
// series align on common keys only.
func subReturns(subs []market.Bucket) map[int64]float64 {
	out := make(map[int64]float64)
	prev := -1
	for i, b := range subs {
		if !b.Exists {
			prev = -1
			continue
		}
		if prev >= 0 && subs[prev].Close != 0 {
			out[b.Boundary.Start.Unix()] = (b.Close - subs[prev].Close) / subs[prev].Close
		}
		prev = i
	}
	return out
}

// populationStats returns the population variance and standard
// deviation of xs. Fewer than two samples define variance zero.
func populationStats(xs []float64) (variance, stddev float64) {
	if len(xs) < 2 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= float64(len(xs))
	return variance, math.Sqrt(variance)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
