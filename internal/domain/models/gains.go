package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Horizon is a named lookback used for percent change.
type Horizon struct {
	Label string
	Days  int
}

var (
	HorizonDay   = Horizon{Label: "Day", Days: 1}
	HorizonWeek  = Horizon{Label: "Week", Days: 7}
	HorizonMonth = Horizon{Label: "Month", Days: 30}
	HorizonYear  = Horizon{Label: "Year", Days: 365}
)

// DefaultHorizons returns the fixed horizon set, shortest first.
func DefaultHorizons() []Horizon {
	return []Horizon{HorizonDay, HorizonWeek, HorizonMonth, HorizonYear}
}

// LongestHorizon returns the largest lookback in days.
func LongestHorizon(hs []Horizon) int {
	longest := 0
	for _, h := range hs {
		if h.Days > longest {
			longest = h.Days
		}
	}
	return longest
}

// GainsResult is the terminal per-asset output of a basket computation.
// A nil entry in Changes means the horizon could not be resolved.
type GainsResult struct {
	Asset       Asset
	AsOf        Date
	LatestPrice decimal.Decimal
	Changes     map[string]*decimal.Decimal
	Error       string
	Debug       map[string]any
	StatusCode  int
}

// Failed reports whether the asset ended in the error state.
func (r GainsResult) Failed() bool { return r.Error != "" }

// MarketSnapshot groups the results of one basket computation.
type MarketSnapshot struct {
	ComputedAt time.Time
	AsOf       Date // calculator clock reading shared by every asset
	Results    map[string]GainsResult
	Order      []string // basket order of Results keys
}
