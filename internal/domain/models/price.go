package models

import (
	"sort"

	"github.com/shopspring/decimal"
)

// PricePoint is one normalized provider row.
type PricePoint struct {
	Date  Date
	Price decimal.Decimal
}

// PriceTable indexes the price history of one asset by calendar day.
type PriceTable map[Date]PricePoint

// Add stores p unless the day is already present or the price is not positive.
// It reports whether p was stored.
func (t PriceTable) Add(p PricePoint) bool {
	if p.Date.IsZero() || !p.Price.IsPositive() {
		return false
	}
	if _, ok := t[p.Date]; ok {
		return false
	}
	t[p.Date] = p
	return true
}

// Dates returns the table days, newest first.
func (t PriceTable) Dates() []Date {
	out := make([]Date, 0, len(t))
	for d := range t {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].After(out[j]) })
	return out
}

// Descending returns the table points, newest first.
func (t PriceTable) Descending() []PricePoint {
	dates := t.Dates()
	out := make([]PricePoint, len(dates))
	for i, d := range dates {
		out[i] = t[d]
	}
	return out
}

// Latest returns the point with the maximum date.
func (t PriceTable) Latest() (PricePoint, bool) {
	var (
		best  PricePoint
		found bool
	)
	for d, p := range t {
		if !found || d.After(best.Date) {
			best, found = p, true
		}
	}
	return best, found
}

// OnOrBefore returns the most recent point dated at or before target.
func (t PriceTable) OnOrBefore(target Date) (PricePoint, bool) {
	var (
		best  PricePoint
		found bool
	)
	for d, p := range t {
		if d.After(target) {
			continue
		}
		if !found || d.After(best.Date) {
			best, found = p, true
		}
	}
	return best, found
}
