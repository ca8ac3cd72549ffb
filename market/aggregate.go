package market

// Bucket is one aggregated window. Exists=false means no trading data
// fell inside the window; the numeric fields are then neutral zeros
// that must never be read as real values.
type Bucket struct {
	Ticker   Ticker
	Period   Period
	Boundary Boundary
	Open     float64
	Close    float64
	Volume   float64
	Exists   bool
}

// Aggregate resamples a sorted, split-adjusted bar series into one
// bucket per boundary: open is the first bar's price in the window,
// close the last, volume the sum.
func Aggregate(t Ticker, p Period, bars []Bar, bounds []Boundary) []Bucket {
	out := make([]Bucket, len(bounds))
	for i, b := range bounds {
		bucket := Bucket{Ticker: t, Period: p, Boundary: b}
		in := BarsIn(bars, b.Start, b.End)
		if len(in) > 0 {
			bucket.Open = in[0].Price
			bucket.Close = in[len(in)-1].Price
			for _, bar := range in {
				bucket.Volume += bar.Volume
			}
			bucket.Exists = true
		}
		out[i] = bucket
	}
	return out
}
