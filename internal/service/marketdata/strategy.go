package marketdata

import (
	"fmt"
	"net/url"
	"strings"

	"FinTrack/internal/domain/models"
)

// Family identifies a provider generation. Each family has its own endpoints
// and response shapes.
type Family string

const (
	FamilyFMP          Family = "fmp"
	FamilyAlphaVantage Family = "alphavantage"
)

// DefaultBaseURL returns the public endpoint for a family.
func DefaultBaseURL(f Family) string {
	switch f {
	case FamilyAlphaVantage:
		return "https://www.alphavantage.co"
	default:
		return "https://financialmodelingprep.com"
	}
}

// IsValidFamily returns true if f is a supported provider family.
func IsValidFamily(f Family) bool {
	return f == FamilyFMP || f == FamilyAlphaVantage
}

// strategy describes how one (family, kind) pair is requested and normalized.
// Candidate lists are ordered: earlier entries win.
type strategy struct {
	name      string
	path      func(asset models.Asset) string
	query     func(asset models.Asset, since models.Date) url.Values
	series    []string // JSONPath candidates for the historical series
	dateKeys  []string
	priceKeys []string
}

// Keys providers use to explain an empty or refused answer.
var noteKeys = []string{"Note", "Information", "Error Message", "error", "message", "Error"}

var (
	fmpDateKeys = []string{"date", "datetime", "timestamp", "time"}
	avDateKeys  = []string{"date", "timestamp", "6. timestamp"}
)

func strategiesFor(f Family, quoteCurrency string) map[models.InstrumentKind]strategy {
	if quoteCurrency == "" {
		quoteCurrency = "USD"
	}
	switch f {
	case FamilyAlphaVantage:
		equity := strategy{
			name: "alphavantage.time_series_daily",
			path: func(models.Asset) string { return "/query" },
			query: func(a models.Asset, _ models.Date) url.Values {
				return url.Values{
					"function":   {"TIME_SERIES_DAILY"},
					"symbol":     {a.Symbol},
					"outputsize": {"full"},
				}
			},
			series:    []string{`$["Time Series (Daily)"]`, `$["Time Series (Daily Adjusted)"]`},
			dateKeys:  avDateKeys,
			priceKeys: []string{"4. close", "5. adjusted close", "close"},
		}
		crypto := strategy{
			name: "alphavantage.digital_currency_daily",
			path: func(models.Asset) string { return "/query" },
			query: func(a models.Asset, _ models.Date) url.Values {
				return url.Values{
					"function": {"DIGITAL_CURRENCY_DAILY"},
					"symbol":   {a.Symbol},
					"market":   {quoteCurrency},
				}
			},
			series:   []string{`$["Time Series (Digital Currency Daily)"]`},
			dateKeys: avDateKeys,
			priceKeys: []string{
				fmt.Sprintf("4a. close (%s)", quoteCurrency),
				"4. close",
				"close",
			},
		}
		return map[models.InstrumentKind]strategy{
			models.KindEquity: equity,
			models.KindIndex:  equity,
			models.KindCrypto: crypto,
		}
	default:
		equity := strategy{
			name: "fmp.historical_price_eod_full",
			path: func(models.Asset) string { return "/stable/historical-price-eod/full" },
			query: func(a models.Asset, _ models.Date) url.Values {
				return url.Values{"symbol": {a.Symbol}}
			},
			series:    []string{"$.historical", "$.data", "$"},
			dateKeys:  fmpDateKeys,
			priceKeys: []string{"close", "adjClose", "price"},
		}
		crypto := strategy{
			name: "fmp.historical_price_eod_light",
			path: func(models.Asset) string { return "/stable/historical-price-eod/light" },
			query: func(a models.Asset, since models.Date) url.Values {
				return url.Values{
					"symbol": {cryptoPair(a.Symbol, quoteCurrency)},
					"from":   {since.String()},
				}
			},
			series:    []string{"$.historical", "$.data", "$"},
			dateKeys:  fmpDateKeys,
			priceKeys: []string{"price", "close", "adjClose"},
		}
		return map[models.InstrumentKind]strategy{
			models.KindEquity: equity,
			models.KindIndex:  equity,
			models.KindCrypto: crypto,
		}
	}
}

// cryptoPair turns "BTC" into "BTCUSD"; symbols already carrying the quote
// currency are left alone.
func cryptoPair(symbol, quote string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if strings.HasSuffix(s, quote) {
		return s
	}
	return s + quote
}
