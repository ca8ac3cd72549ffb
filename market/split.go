package market

import "sort"

// Split is one stock split event. A ratio of Numerator:Denominator
// (e.g. 2:1) divides prices and multiplies volumes of every bar
// strictly before the effective date.
type Split struct {
	Ticker      Ticker
	Effective   Date
	Numerator   uint32
	Denominator uint32
}

// Ratio returns the adjustment factor for one split.
func (s Split) Ratio() float64 {
	if s.Denominator == 0 {
		return 1
	}
	return float64(s.Numerator) / float64(s.Denominator)
}

// AdjustSplits rewrites bars into a split-continuous series. Splits
// apply cumulatively: a bar before two 2:1 splits ends up divided by 4
// in price and multiplied by 4 in volume. The input is not mutated; an
// empty event list returns the bars unchanged.
func AdjustSplits(bars []Bar, splits []Split) []Bar {
	if len(bars) == 0 || len(splits) == 0 {
		return bars
	}

	events := make([]Split, len(splits))
	copy(events, splits)
	sort.Slice(events, func(i, j int) bool { return events[i].Effective.Before(events[j].Effective) })

	out := make([]Bar, len(bars))
	// Walk bars from newest to oldest, folding in each split's ratio
	// as the bar times cross below its effective date.
	factor := 1.0
	ev := len(events) - 1
	for i := len(bars) - 1; i >= 0; i-- {
		b := bars[i]
		for ev >= 0 && b.Time.Before(events[ev].Effective.Time()) {
			factor *= events[ev].Ratio()
			ev--
		}
		b.Price /= factor
		b.Volume *= factor
		out[i] = b
	}
	return out
}
