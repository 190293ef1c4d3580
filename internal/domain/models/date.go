package models

import (
	"fmt"
	"time"
)

// DateLayout is the ISO-8601 calendar date layout used on the wire.
const DateLayout = "2006-01-02"

// Date is a calendar day with no time-of-day or location.
// It is comparable and safe to use as a map key.
type Date struct {
	y int
	m time.Month
	d int
}

// NewDate returns a normalized Date (2024-02-30 becomes 2024-03-01).
func NewDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	y, m, d := t.Date()
	return Date{y, m, d}
}

// DateOf returns the calendar day of t in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.UTC().Date())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return NewDate(t.Date()), nil
}

// MustParseDate is like ParseDate but panics on error.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// AddDays returns d shifted by n days (n may be negative).
func (d Date) AddDays(n int) Date { return NewDate(d.y, d.m, d.d+n) }

func (d Date) Before(x Date) bool { return d.Time().Before(x.Time()) }
func (d Date) After(x Date) bool  { return d.Time().After(x.Time()) }
func (d Date) IsZero() bool       { return d == Date{} }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(DateLayout)
}
