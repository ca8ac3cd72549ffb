package analytics

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/herrhippopotamus/trading-rustix/market"
)

// SortBy is the closed set of bulk ranking orders.
type SortBy int

const (
	Winner SortBy = iota
	Loser
	Volume
	Volatility
	AbsPerformance
)

func (s SortBy) String() string {
	switch s {
	case Winner:
		return "winner"
	case Loser:
		return "loser"
	case Volume:
		return "volume"
	case Volatility:
		return "volatility"
	case AbsPerformance:
		return "abs_performance"
	default:
		return fmt.Sprintf("sortby(%d)", int(s))
	}
}

func (s SortBy) Valid() bool { return s >= Winner && s <= AbsPerformance }

func ParseSortBy(s string) (SortBy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "winner":
		return Winner, nil
	case "loser":
		return Loser, nil
	case "volume":
		return Volume, nil
	case "volatility":
		return Volatility, nil
	case "abs_performance", "absperformance":
		return AbsPerformance, nil
	default:
		return Winner, fmt.Errorf("unknown sort order %q", s)
	}
}

// less is the comparison function for one sort tag, selected once per
// request. Ties always break by ticker symbol ascending so that
// identical inputs rank identically.
func (s SortBy) less(a, b Movement) bool {
	var cmp float64
	switch s {
	case Winner:
		cmp = b.Performance - a.Performance
	case Loser:
		cmp = a.Performance - b.Performance
	case Volume:
		cmp = b.Volume - a.Volume
	case Volatility:
		cmp = b.Stddev - a.Stddev
	case AbsPerformance:
		cmp = math.Abs(b.Performance) - math.Abs(a.Performance)
	}
	if cmp != 0 {
		return cmp < 0
	}
	return a.Ticker.Less(b.Ticker)
}

// MovementQuery describes one bulk ranking request.
type MovementQuery struct {
	Type        market.TickerType
	Until       market.Date
	Period      market.Period
	SortBy      SortBy
	Limit       int // 0 = unlimited
	MinVolume   float64
	MinVariance float64
	MaxVariance float64 // <= 0 disables the upper bound
	Average     bool    // rank period-mean performance instead of point-to-point
}

func (q MovementQuery) keep(m Movement) bool {
	if !m.Exists {
		return false
	}
	if m.Volume < q.MinVolume {
		return false
	}
	if m.Variance < q.MinVariance {
		return false
	}
	if q.MaxVariance > 0 && m.Variance > q.MaxVariance {
		return false
	}
	return true
}

// Movements computes the movement of every recently traded ticker of
// the queried type, filters and ranks them. Per-ticker computation
// fans out concurrently; the final order is deterministic.
func (e *Engine) Movements(ctx context.Context, q MovementQuery) ([]Movement, error) {
	universe, err := e.src.ActiveTickers(ctx, q.Type, q.Until.Add(-e.activeDays))
	if err != nil {
		return nil, fmt.Errorf("ticker universe: %w", err)
	}

	results := make([]Movement, len(universe))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, t := range universe {
		i, t := i, t
		g.Go(func() error {
			m, err := e.movement(gctx, t, q.Period, q.Until, q.Average)
			if err != nil {
				return err
			}
			results[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	kept := results[:0]
	for _, m := range results {
		if q.keep(m) {
			kept = append(kept, m)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return q.SortBy.less(kept[i], kept[j]) })
	if q.Limit > 0 && len(kept) > q.Limit {
		kept = kept[:q.Limit]
	}
	return kept, nil
}
