package market

import (
	"fmt"
	"time"
)

// DateFormat is the ISO calendar date layout used on every wire surface.
const DateFormat = "2006-01-02"

// DatetimeFormat is the naive wall-clock layout used for intraday
// timestamps. Times are New York wall time without a zone suffix.
const DatetimeFormat = "2006-01-02T15:04:05"

// Exchange is the session time zone. Bars are stored and bucketed in
// New York wall time so that daily boundaries match trading sessions.
var Exchange = loadExchangeZone()

func loadExchangeZone() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// No tzdata on the host. EST without DST keeps dates stable.
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// Date is a calendar day. The zero value is "no date".
type Date struct {
	y int
	m time.Month
	d int
}

// NewDate returns a normalized Date for year, month, day.
func NewDate(year int, month time.Month, day int) Date {
	d := Date{year, month, day}
	d.y, d.m, d.d = d.Time().Date()
	return d
}

// DateOf truncates t to its calendar day in the exchange zone.
func DateOf(t time.Time) Date {
	y, m, d := t.In(Exchange).Date()
	return Date{y, m, d}
}

// ParseDate reads an ISO "2006-01-02" date. Longer strings (naive
// datetimes) are accepted and truncated to their date part.
func ParseDate(s string) (Date, error) {
	if len(s) > len(DateFormat) {
		s = s[:len(DateFormat)]
	}
	t, err := time.ParseInLocation(DateFormat, s, Exchange)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// ParseDatetime reads a naive "2006-01-02T15:04:05" timestamp in
// exchange wall time. A bare date parses as midnight.
func ParseDatetime(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(DatetimeFormat, s, Exchange); err == nil {
		return t, nil
	}
	d, err := ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	return d.Time(), nil
}

// Time returns midnight of the day in the exchange zone.
func (d Date) Time() time.Time {
	return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, Exchange)
}

func (d Date) String() string { return d.Time().Format(DateFormat) }

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) Year() int         { return d.y }
func (d Date) Month() time.Month { return d.m }
func (d Date) Day() int          { return d.d }

// Add returns the date n days later (or earlier for negative n).
func (d Date) Add(n int) Date { return NewDate(d.y, d.m, d.d+n) }

func (d Date) Before(o Date) bool { return d.Time().Before(o.Time()) }
func (d Date) After(o Date) bool  { return d.Time().After(o.Time()) }

func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }

// LastTradingDay rolls weekend dates back to the preceding Friday.
// Holidays are handled downstream by bucket existence, not here.
func (d Date) LastTradingDay() Date {
	switch d.Weekday() {
	case time.Saturday:
		return d.Add(-1)
	case time.Sunday:
		return d.Add(-2)
	}
	return d
}
