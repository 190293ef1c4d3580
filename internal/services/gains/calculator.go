package gains

import (
	"errors"
	"fmt"

	"FinTrack/internal/domain/models"
	domsvc "FinTrack/internal/domain/service"

	"github.com/shopspring/decimal"
)

const (
	changePlaces = 4
	pricePlaces  = 6
)

var (
	ErrEmptyTable   = errors.New("no price history")
	ErrInvalidPrice = errors.New("latest price is not a positive number")
)

var hundred = decimal.NewFromInt(100)

// Calculator computes trailing percent changes from a price table.
// It holds no state; the same table and asOf always give the same result.
type Calculator struct{}

func NewCalculator() *Calculator { return &Calculator{} }

// Compute resolves the latest price and, for each horizon, the change against
// the most recent price dated at or before asOf minus the horizon length.
// Horizons without such a price, or with a zero baseline, are nil.
func (Calculator) Compute(table models.PriceTable, asOf models.Date, horizons []models.Horizon) (models.GainsResult, error) {
	latest, ok := table.Latest()
	if !ok {
		return models.GainsResult{}, ErrEmptyTable
	}
	if !latest.Price.IsPositive() {
		return models.GainsResult{}, fmt.Errorf("%w: %s on %s", ErrInvalidPrice, latest.Price, latest.Date)
	}

	changes := make(map[string]*decimal.Decimal, len(horizons))
	for _, h := range horizons {
		changes[h.Label] = nil
		past, ok := table.OnOrBefore(asOf.AddDays(-h.Days))
		if !ok {
			continue
		}
		if pct, ok := PercentChange(latest.Price, past.Price); ok {
			changes[h.Label] = &pct
		}
	}

	return models.GainsResult{
		AsOf:        latest.Date,
		LatestPrice: latest.Price.Round(pricePlaces),
		Changes:     changes,
	}, nil
}

// PercentChange returns (now-then)/then*100 rounded to four places.
// ok is false when then is zero.
func PercentChange(now, then decimal.Decimal) (decimal.Decimal, bool) {
	if then.IsZero() {
		return decimal.Decimal{}, false
	}
	return now.Sub(then).Div(then).Mul(hundred).Round(changePlaces), true
}

var _ domsvc.GainsCalculator = Calculator{}
