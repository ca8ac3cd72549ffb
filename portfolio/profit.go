package portfolio

import (
	"context"
	"fmt"

	"github.com/herrhippopotamus/trading-rustix/market"
)

// PriceSource resolves split-adjusted closes, typically backed by the
// analytics engine's aggregation pipeline.
type PriceSource interface {
	AdjustedCloseOn(ctx context.Context, t market.Ticker, d market.Date) (price float64, ok bool, err error)
}

// ProfitRecord is the derived profit of one holding (or one partition
// slice of it). Exists=false flags a missing boundary price; the
// numeric fields are then neutral zeros, never a silent result.
type ProfitRecord struct {
	Ticker         market.Ticker
	Volume         float64
	PurchaseDate   market.Date
	Until          market.Date
	PurchasePrice  float64
	UntilPrice     float64
	ProfitPerShare float64
	TotalProfit    float64
	Exists         bool
}

// ProfitEngine computes per-holding and period-partitioned profit.
type ProfitEngine struct {
	prices PriceSource
}

func NewProfitEngine(prices PriceSource) *ProfitEngine {
	return &ProfitEngine{prices: prices}
}

// Profits computes one record per holding: purchase price at the
// purchase date, resolution price at the sell date (realized) or at
// until (marked to date).
func (e *ProfitEngine) Profits(ctx context.Context, holdings []Holding, until market.Date) ([]ProfitRecord, error) {
	out := make([]ProfitRecord, 0, len(holdings))
	for _, h := range holdings {
		rec, err := e.record(ctx, h, h.PurchaseDate, h.ResolveUntil(until))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// PartitionedProfits slices each holding's lifespan into calendar
// sub-periods and emits one record per slice, priced at the slice
// boundaries, so callers can render a profit time series.
func (e *ProfitEngine) PartitionedProfits(ctx context.Context, holdings []Holding, until market.Date, partition market.Period) ([]ProfitRecord, error) {
	if partition.Intraday() {
		return nil, fmt.Errorf("partition period %s: intraday partitions are not supported", partition)
	}

	var out []ProfitRecord
	for _, h := range holdings {
		end := h.ResolveUntil(until)
		if end.Before(h.PurchaseDate) {
			end = h.PurchaseDate
		}

		sliceStart := h.PurchaseDate
		for !sliceStart.After(end) {
			// Slice runs to the end of its calendar bucket, clamped to
			// the holding's resolution date.
			bucketEnd := market.DateOf(partition.Advance(partition.StartOf(sliceStart.Time()), 1)).Add(-1)
			sliceEnd := bucketEnd
			if sliceEnd.After(end) {
				sliceEnd = end
			}

			rec, err := e.record(ctx, h, sliceStart, sliceEnd)
			if err != nil {
				return nil, err
			}
			out = append(out, rec)

			sliceStart = bucketEnd.Add(1)
		}
	}
	return out, nil
}

// record prices one (from, to) window of a holding.
func (e *ProfitEngine) record(ctx context.Context, h Holding, from, to market.Date) (ProfitRecord, error) {
	rec := ProfitRecord{
		Ticker:       h.Ticker,
		Volume:       h.Volume,
		PurchaseDate: from,
		Until:        to,
	}

	buy, ok, err := e.prices.AdjustedCloseOn(ctx, h.Ticker, from)
	if err != nil {
		return ProfitRecord{}, fmt.Errorf("purchase price %s %s: %w", h.Ticker, from, err)
	}
	if !ok {
		return rec, nil
	}
	sell, ok, err := e.prices.AdjustedCloseOn(ctx, h.Ticker, to)
	if err != nil {
		return ProfitRecord{}, fmt.Errorf("resolution price %s %s: %w", h.Ticker, to, err)
	}
	if !ok {
		return rec, nil
	}

	rec.PurchasePrice = buy
	rec.UntilPrice = sell
	rec.ProfitPerShare = sell - buy
	rec.TotalProfit = rec.ProfitPerShare * h.Volume
	rec.Exists = true
	return rec, nil
}
