package market

import "time"

// Boundary is one bucket's half-open window [Start, End).
type Boundary struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the boundary.
func (b Boundary) Contains(t time.Time) bool {
	return !t.Before(b.Start) && t.Before(b.End)
}

// Aligner maps (period, until) requests onto concrete bucket
// boundaries. From/Until describe the available data range; a zero
// bound is unbounded. Requests outside the range resolve to zero
// boundaries, never an error: the caller reports "not exists".
type Aligner struct {
	From  Date
	Until Date
}

// endAt closes the final bucket. The until date is inclusive, so the
// bucket runs through the end of that day (or through the requested
// instant for intraday granularities).
func endAt(p Period, until time.Time) time.Time {
	if p.Intraday() {
		return p.Advance(p.StartOf(until), 1)
	}
	return Day.Advance(Day.StartOf(until), 1)
}

// Boundaries returns n calendar-aligned buckets ending at the bucket
// containing until, oldest first. The final bucket is truncated at the
// end of the until day.
func (a Aligner) Boundaries(p Period, until time.Time, n int) []Boundary {
	if n <= 0 {
		return nil
	}
	if !a.From.IsZero() && until.Before(a.From.Time()) {
		return nil
	}
	if !a.Until.IsZero() && p.StartOf(until).After(a.Until.Add(1).Time()) {
		return nil
	}

	out := make([]Boundary, 0, n)
	start := p.StartOf(until)
	for i := n - 1; i >= 1; i-- {
		s := p.Advance(start, -i)
		out = append(out, Boundary{Start: s, End: p.Advance(s, 1)})
	}
	out = append(out, Boundary{Start: start, End: endAt(p, until)})
	return out
}

// Span returns the single bucket of period p containing until.
func (a Aligner) Span(p Period, until time.Time) (Boundary, bool) {
	b := a.Boundaries(p, until, 1)
	if len(b) == 0 {
		return Boundary{}, false
	}
	return b[0], true
}

// SubBoundaries slices a span into sub-period buckets, the granularity
// the return distribution is computed over. Weekend sub-buckets will
// simply aggregate to exists=false; missing sessions are represented,
// never fabricated.
func (a Aligner) SubBoundaries(p Period, span Boundary) []Boundary {
	sub := p.SubPeriod()
	var out []Boundary
	for s := sub.StartOf(span.Start); s.Before(span.End); s = sub.Advance(s, 1) {
		e := sub.Advance(s, 1)
		if e.After(span.End) {
			e = span.End
		}
		out = append(out, Boundary{Start: s, End: e})
	}
	return out
}
