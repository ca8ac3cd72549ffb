package market

import (
	"fmt"
	"strings"
	"time"
)

// Period is the closed set of bucket granularities.
type Period int

const (
	Minute Period = iota
	Hour
	Day
	Week
	Month
	Quarter
	SemiAnnual
	Year
)

func (p Period) String() string {
	switch p {
	case Minute:
		return "minute"
	case Hour:
		return "hour"
	case Day:
		return "day"
	case Week:
		return "week"
	case Month:
		return "month"
	case Quarter:
		return "quarter"
	case SemiAnnual:
		return "semiannual"
	case Year:
		return "year"
	default:
		return fmt.Sprintf("period(%d)", int(p))
	}
}

func (p Period) Valid() bool {
	return p >= Minute && p <= Year
}

// Intraday reports whether the period needs sub-daily bars.
func (p Period) Intraday() bool {
	return p == Minute || p == Hour
}

func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minute":
		return Minute, nil
	case "hour":
		return Hour, nil
	case "day", "daily":
		return Day, nil
	case "week", "weekly":
		return Week, nil
	case "month", "monthly":
		return Month, nil
	case "quarter", "quarterly":
		return Quarter, nil
	case "semiannual", "half-year", "halfyear":
		return SemiAnnual, nil
	case "year", "yearly":
		return Year, nil
	default:
		return Day, fmt.Errorf("unknown period %q", s)
	}
}

// SubPeriod is the granularity used for the return distribution inside
// a single bucket of p: native bars for intraday windows, daily
// sub-buckets for everything else.
func (p Period) SubPeriod() Period {
	if p.Intraday() {
		return Minute
	}
	return Day
}

// StartOf aligns t to the calendar start of its bucket: weeks start
// Monday, months on the 1st, quarters on Jan/Apr/Jul/Oct 1st,
// half-years on Jan/Jul 1st, years on Jan 1st.
func (p Period) StartOf(t time.Time) time.Time {
	t = t.In(Exchange)
	y, m, d := t.Date()
	switch p {
	case Minute:
		return t.Truncate(time.Minute)
	case Hour:
		return t.Truncate(time.Hour)
	case Day:
		return time.Date(y, m, d, 0, 0, 0, 0, Exchange)
	case Week:
		offset := int(t.Weekday() - time.Monday)
		if offset < 0 {
			offset += 7
		}
		return time.Date(y, m, d-offset, 0, 0, 0, 0, Exchange)
	case Month:
		return time.Date(y, m, 1, 0, 0, 0, 0, Exchange)
	case Quarter:
		q := (int(m) - 1) / 3
		return time.Date(y, time.Month(q*3+1), 1, 0, 0, 0, 0, Exchange)
	case SemiAnnual:
		h := (int(m) - 1) / 6
		return time.Date(y, time.Month(h*6+1), 1, 0, 0, 0, 0, Exchange)
	case Year:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, Exchange)
	}
	return t
}

// Advance moves an aligned bucket start n buckets forward.
func (p Period) Advance(start time.Time, n int) time.Time {
	switch p {
	case Minute:
		return start.Add(time.Duration(n) * time.Minute)
	case Hour:
		return start.Add(time.Duration(n) * time.Hour)
	case Day:
		return start.AddDate(0, 0, n)
	case Week:
		return start.AddDate(0, 0, 7*n)
	case Month:
		return start.AddDate(0, n, 0)
	case Quarter:
		return start.AddDate(0, 3*n, 0)
	case SemiAnnual:
		return start.AddDate(0, 6*n, 0)
	case Year:
		return start.AddDate(n, 0, 0)
	}
	return start
}
