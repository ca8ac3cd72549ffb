package market

import (
	"sort"
	"time"
)

// Bar is one price/volume observation at native granularity. Bars are
// owned by the storage collaborator; the engine works on snapshots.
type Bar struct {
	Time   time.Time
	Price  float64
	Volume float64
}

// SortBars orders bars ascending by time, the precondition for every
// aggregation and adjustment below.
func SortBars(bars []Bar) {
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
}

// BarsIn returns the sub-slice of sorted bars falling in [from, to).
func BarsIn(bars []Bar, from, to time.Time) []Bar {
	lo := sort.Search(len(bars), func(i int) bool { return !bars[i].Time.Before(from) })
	hi := sort.Search(len(bars), func(i int) bool { return !bars[i].Time.Before(to) })
	return bars[lo:hi]
}
