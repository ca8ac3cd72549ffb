package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/herrhippopotamus/trading-rustix/market"
)

// Correl is the Pearson correlation of two tickers' sub-period return
// series over a period ending at Until. Symmetric up to field order;
// Exists=false when either side lacks enough aligned data.
type Correl struct {
	Ticker0     market.Ticker
	Ticker1     market.Ticker
	Period      market.Period
	Until       market.Date
	Correlation float64
	Volume0     float64
	Volume1     float64
	Exists      bool
}

// Sign restricts a correlating-pairs scan to one side of zero.
type Sign int

const (
	SignAbs Sign = iota
	SignPositive
	SignNegative
)

func (s Sign) Valid() bool { return s >= SignAbs && s <= SignNegative }

func ParseSign(s string) (Sign, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "abs":
		return SignAbs, nil
	case "positive":
		return SignPositive, nil
	case "negative":
		return SignNegative, nil
	default:
		return SignAbs, fmt.Errorf("unknown correlation sign %q", s)
	}
}

// leg is one ticker's aligned return series plus its span volume.
type leg struct {
	ticker  market.Ticker
	returns map[int64]float64
	volume  float64
	exists  bool
}

func (e *Engine) leg(ctx context.Context, t market.Ticker, p market.Period, until market.Date) (leg, error) {
	sp, err := e.span(ctx, t, p, until.LastTradingDay().Time())
	if err != nil {
		return leg{}, err
	}
	return leg{
		ticker:  t,
		returns: subReturns(sp.Subs),
		volume:  sp.Bucket.Volume,
		exists:  sp.Bucket.Exists,
	}, nil
}

// correlate computes one unordered pair from its two legs.
func correlate(a, b leg, p market.Period, until market.Date) Correl {
	c := Correl{
		Ticker0: a.ticker,
		Ticker1: b.ticker,
		Period:  p,
		Until:   until,
		Volume0: a.volume,
		Volume1: b.volume,
	}
	if !a.exists || !b.exists {
		return c
	}

	// Align on common sub-bucket keys only; mismatched sessions are
	// skipped pairwise, never interpolated.
	keys := make([]int64, 0, len(a.returns))
	for k := range a.returns {
		if _, ok := b.returns[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	xs := make([]float64, len(keys))
	ys := make([]float64, len(keys))
	for i, k := range keys {
		xs[i] = a.returns[k]
		ys[i] = b.returns[k]
	}

	r, ok := pearson(xs, ys)
	if !ok {
		return c
	}
	c.Correlation = r
	c.Exists = true
	return c
}

// pearson returns the Pearson coefficient of two equal-length series,
// ok=false for fewer than two points or a degenerate (zero variance)
// series. The result is clamped to [-1, 1] against float drift.
func pearson(xs, ys []float64) (float64, bool) {
	n := len(xs)
	if n != len(ys) || n < 2 {
		return 0, false
	}
	mx, my := mean(xs), mean(ys)
	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, false
	}
	r := sxy / math.Sqrt(sxx*syy)
	return math.Max(-1, math.Min(1, r)), true
}

// Correlations computes every unordered pair of the given tickers
// exactly once, in deterministic pair order.
func (e *Engine) Correlations(ctx context.Context, tickers []market.Ticker, p market.Period, until market.Date) ([]Correl, error) {
	tickers = dedupe(tickers)
	legs := make([]leg, len(tickers))
	for i, t := range tickers {
		l, err := e.leg(ctx, t, p, until)
		if err != nil {
			return nil, err
		}
		legs[i] = l
	}

	var out []Correl
	for i := 0; i < len(legs); i++ {
		for j := i + 1; j < len(legs); j++ {
			out = append(out, correlate(legs[i], legs[j], p, until))
		}
	}
	return out, nil
}

// MutualCorrel bundles a ticker's correlation against every other
// ticker in scope with its own movement summary.
type MutualCorrel struct {
	Ticker       market.Ticker
	Movement     Movement
	Correlations []Correl
}

// MutualCorrelations computes, for each requested ticker, its
// correlation list against the other requested tickers plus its own
// movement summary.
func (e *Engine) MutualCorrelations(ctx context.Context, tickers []market.Ticker, p market.Period, until market.Date) ([]MutualCorrel, error) {
	tickers = dedupe(tickers)
	pairs, err := e.Correlations(ctx, tickers, p, until)
	if err != nil {
		return nil, err
	}

	out := make([]MutualCorrel, len(tickers))
	for i, t := range tickers {
		m, err := e.Movement(ctx, t, p, until)
		if err != nil {
			return nil, err
		}
		mc := MutualCorrel{Ticker: t, Movement: m}
		for _, c := range pairs {
			if c.Ticker0 == t || c.Ticker1 == t {
				mc.Correlations = append(mc.Correlations, c)
			}
		}
		out[i] = mc
	}
	return out, nil
}

// PairScan describes a correlating-pairs search over the active
// ticker universe.
type PairScan struct {
	Until     market.Date
	Period    market.Period
	Limit     int // 0 = unlimited
	MinVolume float64
	Sign      Sign
}

func (q PairScan) keep(c Correl) bool {
	if !c.Exists {
		return false
	}
	if c.Volume0 < q.MinVolume || c.Volume1 < q.MinVolume {
		return false
	}
	switch q.Sign {
	case SignPositive:
		return c.Correlation > 0
	case SignNegative:
		return c.Correlation < 0
	}
	return true
}

// strength ranks a kept pair: magnitude for ABS, signed descending for
// POSITIVE, signed ascending for NEGATIVE.
func (q PairScan) strength(c Correl) float64 {
	switch q.Sign {
	case SignPositive:
		return c.Correlation
	case SignNegative:
		return -c.Correlation
	}
	return math.Abs(c.Correlation)
}

func (q PairScan) less(a, b Correl) bool {
	sa, sb := q.strength(a), q.strength(b)
	if sa != sb {
		return sa > sb
	}
	if a.Ticker0 != b.Ticker0 {
		return a.Ticker0.Less(b.Ticker0)
	}
	return a.Ticker1.Less(b.Ticker1)
}

// CorrelatingPairs scans every unordered pair of the active universe
// and streams the kept pairs in strength order. The scan checks ctx
// between pairs, so a consumer that stops reading and cancels pays
// only for the work already done. The returned channel is closed when
// the stream ends; a scan failure arrives on the error channel.
func (e *Engine) CorrelatingPairs(ctx context.Context, q PairScan) (<-chan Correl, <-chan error) {
	out := make(chan Correl)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		universe, err := e.src.ActiveTickers(ctx, AnyType, q.Until.Add(-e.activeDays))
		if err != nil {
			errc <- fmt.Errorf("ticker universe: %w", err)
			return
		}

		legs := make([]leg, 0, len(universe))
		for _, t := range universe {
			if ctx.Err() != nil {
				return
			}
			l, err := e.leg(ctx, t, q.Period, q.Until)
			if err != nil {
				errc <- err
				return
			}
			legs = append(legs, l)
		}

		var kept []Correl
		for i := 0; i < len(legs); i++ {
			for j := i + 1; j < len(legs); j++ {
				if ctx.Err() != nil {
					return
				}
				c := correlate(legs[i], legs[j], q.Period, q.Until)
				if q.keep(c) {
					kept = append(kept, c)
				}
			}
		}

		sort.Slice(kept, func(i, j int) bool { return q.less(kept[i], kept[j]) })
		if q.Limit > 0 && len(kept) > q.Limit {
			kept = kept[:q.Limit]
		}
		for _, c := range kept {
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, errc
}

func dedupe(tickers []market.Ticker) []market.Ticker {
	seen := make(map[market.Ticker]struct{}, len(tickers))
	out := make([]market.Ticker, 0, len(tickers))
	for _, t := range tickers {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
