package analytics

import (
	"context"

	"github.com/herrhippopotamus/trading-rustix/market"
)

// Movement is the performance/volatility profile of one ticker over a
// period ending at Until. Exists=false means a required bucket had no
// data; the numeric fields are then neutral zeros.
type Movement struct {
	Ticker      market.Ticker
	Period      market.Period
	Until       market.Date
	Performance float64
	Average     float64
	Volume      float64
	Variance    float64
	Stddev      float64
	Exists      bool
}

// Movement computes the point-to-point movement: performance from the
// first to the last existing sub-bucket close, mean close, and the
// population variance/stddev of the sub-bucket return distribution.
func (e *Engine) Movement(ctx context.Context, t market.Ticker, p market.Period, until market.Date) (Movement, error) {
	return e.movement(ctx, t, p, until, false)
}

// AvgMovement applies the same pipeline but reports the mean
// sub-bucket return as performance instead of point-to-point.
func (e *Engine) AvgMovement(ctx context.Context, t market.Ticker, p market.Period, until market.Date) (Movement, error) {
	return e.movement(ctx, t, p, until, true)
}

func (e *Engine) movement(ctx context.Context, t market.Ticker, p market.Period, until market.Date, average bool) (Movement, error) {
	sp, err := e.span(ctx, t, p, until.LastTradingDay().Time())
	if err != nil {
		return Movement{}, err
	}
	return movementFrom(sp, t, p, until, average), nil
}

func movementFrom(sp span, t market.Ticker, p market.Period, until market.Date, average bool) Movement {
	m := Movement{Ticker: t, Period: p, Until: until}

	closes := existingCloses(sp.Subs)
	if !sp.Bucket.Exists || len(closes) == 0 || closes[0] == 0 {
		return m
	}

	returns := returnValues(subReturns(sp.Subs))
	m.Variance, m.Stddev = populationStats(returns)
	m.Average = mean(closes)
	m.Volume = sp.Bucket.Volume
	if average {
		m.Performance = mean(returns)
	} else {
		m.Performance = (closes[len(closes)-1] - closes[0]) / closes[0]
	}
	m.Exists = true
	return m
}

func returnValues(byKey map[int64]float64) []float64 {
	out := make([]float64, 0, len(byKey))
	for _, r := range byKey {
		out = append(out, r)
	}
	return out
}
