package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"FinTrack/internal/domain/models"

	"github.com/shopspring/decimal"
)

var (
	voo     = models.Asset{Name: "VOO", Symbol: "VOO", Kind: models.KindEquity}
	bitcoin = models.Asset{Name: "Bitcoin", Symbol: "BTC", Kind: models.KindCrypto}
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc, opts ...Option) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts = append([]Option{WithBaseURL(srv.URL)}, opts...)
	a, err := NewAdapter(nil, opts...)
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	return a
}

func serveJSON(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func mustPrice(t *testing.T, table models.PriceTable, date, want string) {
	t.Helper()
	p, ok := table[models.MustParseDate(date)]
	if !ok {
		t.Fatalf("missing %s in table %v", date, table)
	}
	if !p.Price.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("price at %s = %s, want %s", date, p.Price, want)
	}
}

func TestFetchHistory_FMPEquityRequest(t *testing.T) {
	var gotPath, gotSymbol, gotKey string
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSymbol = r.URL.Query().Get("symbol")
		gotKey = r.URL.Query().Get("apikey")
		serveJSON(200, `[
			{"symbol":"VOO","date":"2025-01-02","close":512.5,"volume":100},
			{"symbol":"VOO","date":"2025-01-01","close":"510.25"}
		]`)(w, r)
	}, WithAPIKey("k1"))

	table, err := a.FetchHistory(context.Background(), voo, models.MustParseDate("2024-01-01"))
	if err != nil {
		t.Fatalf("FetchHistory: %v", err)
	}
	if gotPath != "/stable/historical-price-eod/full" || gotSymbol != "VOO" || gotKey != "k1" {
		t.Fatalf("unexpected request path=%q symbol=%q key=%q", gotPath, gotSymbol, gotKey)
	}
	if len(table) != 2 {
		t.Fatalf("expected 2 points, got %d", len(table))
	}
	mustPrice(t, table, "2025-01-02", "512.5")
	mustPrice(t, table, "2025-01-01", "510.25")
}

func TestFetchHistory_FMPCryptoUsesStartDate(t *testing.T) {
	var gotSymbol, gotFrom, gotPath string
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSymbol = r.URL.Query().Get("symbol")
		gotFrom = r.URL.Query().Get("from")
		serveJSON(200, `[{"symbol":"BTCUSD","date":"2025-01-01","price":94000.12}]`)(w, r)
	})

	table, err := a.FetchHistory(context.Background(), bitcoin, models.MustParseDate("2023-12-31"))
	if err != nil {
		t.Fatalf("FetchHistory: %v", err)
	}
	if gotPath != "/stable/historical-price-eod/light" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotSymbol != "BTCUSD" || gotFrom != "2023-12-31" {
		t.Fatalf("unexpected query symbol=%q from=%q", gotSymbol, gotFrom)
	}
	mustPrice(t, table, "2025-01-01", "94000.12")
}

func TestFetchHistory_AlphaVantageDateKeyed(t *testing.T) {
	var gotFunction, gotOutput string
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		gotFunction = r.URL.Query().Get("function")
		gotOutput = r.URL.Query().Get("outputsize")
		serveJSON(200, `{
			"Meta Data": {"1. Information": "Daily Prices", "2. Symbol": "VOO"},
			"Time Series (Daily)": {
				"2025-01-02": {"1. open": "500.0", "4. close": "505.10", "5. volume": "1000"},
				"2025-01-01": {"1. open": "499.0", "4. close": "501.00", "5. volume": "900"}
			}
		}`)(w, r)
	}, WithFamily(FamilyAlphaVantage))

	table, err := a.FetchHistory(context.Background(), voo, models.Date{})
	if err != nil {
		t.Fatalf("FetchHistory: %v", err)
	}
	if gotFunction != "TIME_SERIES_DAILY" || gotOutput != "full" {
		t.Fatalf("unexpected query function=%q outputsize=%q", gotFunction, gotOutput)
	}
	mustPrice(t, table, "2025-01-02", "505.10")
	mustPrice(t, table, "2025-01-01", "501.00")
}

func TestFetchHistory_AlphaVantageCryptoCloseKey(t *testing.T) {
	var gotMarket string
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		gotMarket = r.URL.Query().Get("market")
		serveJSON(200, `{
			"Time Series (Digital Currency Daily)": {
				"2025-01-01": {"1a. open (USD)": "93000", "4a. close (USD)": "94000.5"}
			}
		}`)(w, r)
	}, WithFamily(FamilyAlphaVantage))

	table, err := a.FetchHistory(context.Background(), bitcoin, models.Date{})
	if err != nil {
		t.Fatalf("FetchHistory: %v", err)
	}
	if gotMarket != "USD" {
		t.Fatalf("market = %q, want USD", gotMarket)
	}
	mustPrice(t, table, "2025-01-01", "94000.5")
}

func TestFetchHistory_DropsNonNumericClose(t *testing.T) {
	a := newTestAdapter(t, serveJSON(200, `{"historical":[
		{"date":"2025-01-02","close":"not_a_number"},
		{"date":"2025-01-01","close":"101.5"}
	]}`))

	table, err := a.FetchHistory(context.Background(), voo, models.Date{})
	if err != nil {
		t.Fatalf("FetchHistory: %v", err)
	}
	if _, ok := table[models.MustParseDate("2025-01-02")]; ok {
		t.Fatalf("row with non-numeric close must be dropped")
	}
	mustPrice(t, table, "2025-01-01", "101.5")
}

func TestFetchHistory_FallbackScansScalarsInKeyOrder(t *testing.T) {
	a := newTestAdapter(t, serveJSON(200, `{"rows":[
		{"date":"2025-01-01","b_last":"12.5","a_flag":"x","z_zero":0}
	]}`))

	table, err := a.FetchHistory(context.Background(), voo, models.Date{})
	if err != nil {
		t.Fatalf("FetchHistory: %v", err)
	}
	mustPrice(t, table, "2025-01-01", "12.5")
}

func TestFetchHistory_KeepsRowsBeforeSince(t *testing.T) {
	a := newTestAdapter(t, serveJSON(200, `[
		{"date":"2023-12-30","close":1},
		{"date":"2024-01-01","close":2}
	]`))

	table, err := a.FetchHistory(context.Background(), voo, models.MustParseDate("2024-01-01"))
	if err != nil {
		t.Fatalf("FetchHistory: %v", err)
	}
	if len(table) != 2 {
		t.Fatalf("rows before since must survive for on-or-before lookups, got %d", len(table))
	}
	mustPrice(t, table, "2023-12-30", "1")
}

func TestFetchHistory_NonJSONBody(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	})

	_, err := a.FetchHistory(context.Background(), voo, models.Date{})
	if !errors.Is(err, ErrUnparseableResponse) {
		t.Fatalf("expected ErrUnparseableResponse, got %v", err)
	}
	fe, ok := AsFetchError(err)
	if !ok || fe.StatusCode != http.StatusOK {
		t.Fatalf("expected FetchError with status 200, got %#v", err)
	}
}

func TestFetchHistory_NoSeriesExposesNotes(t *testing.T) {
	a := newTestAdapter(t, serveJSON(200, `{"Information":"rate limit for key secret-key reached"}`),
		WithFamily(FamilyAlphaVantage), WithAPIKey("secret-key"))

	_, err := a.FetchHistory(context.Background(), voo, models.Date{})
	fe, ok := AsFetchError(err)
	if !ok {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if !errors.Is(err, ErrUnparseableResponse) {
		t.Fatalf("expected ErrUnparseableResponse, got %v", fe.Kind)
	}
	note, _ := fe.Debug["Information"].(string)
	if note == "" || strings.Contains(note, "secret-key") {
		t.Fatalf("note must be present and scrubbed, got %q", note)
	}
	keys, _ := fe.Debug["keys"].([]string)
	if len(keys) != 1 || keys[0] != "Information" {
		t.Fatalf("unexpected debug keys %v", fe.Debug["keys"])
	}
}

func TestFetchHistory_EmptySeriesIsNoData(t *testing.T) {
	a := newTestAdapter(t, serveJSON(200, `{"historical":[{"date":"2025-01-01","close":"n/a"}]}`))

	_, err := a.FetchHistory(context.Background(), voo, models.Date{})
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestFetchHistory_NonSuccessStatusIsTransport(t *testing.T) {
	a := newTestAdapter(t, serveJSON(401, `{"Error Message":"Invalid API KEY: abc"}`), WithAPIKey("abc"))

	_, err := a.FetchHistory(context.Background(), voo, models.Date{})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	fe, _ := AsFetchError(err)
	if fe.StatusCode != 401 {
		t.Fatalf("status = %d, want 401", fe.StatusCode)
	}
	if msg, _ := fe.Debug["Error Message"].(string); strings.Contains(msg, "abc") {
		t.Fatalf("api key leaked in debug: %q", msg)
	}
}

func TestFetchHistory_TimeoutIsTransport(t *testing.T) {
	release := make(chan struct{})
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, WithTimeout(50*time.Millisecond), WithAPIKey("tok"))
	defer close(release)

	_, err := a.FetchHistory(context.Background(), voo, models.Date{})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if strings.Contains(err.Error(), "tok") {
		t.Fatalf("api key leaked: %v", err)
	}
}

func TestFetchHistory_UnknownKind(t *testing.T) {
	a := newTestAdapter(t, serveJSON(200, `[]`))

	_, err := a.FetchHistory(context.Background(), models.Asset{Symbol: "X", Kind: "bond"}, models.Date{})
	if _, ok := AsFetchError(err); !ok {
		t.Fatalf("expected FetchError, got %v", err)
	}
}

func TestNewAdapter_RejectsUnknownFamily(t *testing.T) {
	if _, err := NewAdapter(nil, WithFamily("yahoo")); err == nil {
		t.Fatalf("expected error for unknown family")
	}
}

func TestOutcome(t *testing.T) {
	cases := map[string]error{
		"ok":              nil,
		"transport_error": &FetchError{Kind: ErrTransport},
		"unparseable":     &FetchError{Kind: ErrUnparseableResponse},
		"no_data":         &FetchError{Kind: ErrNoData},
		"error":           errors.New("boom"),
	}
	for want, err := range cases {
		if got := Outcome(err); got != want {
			t.Fatalf("Outcome(%v) = %q, want %q", err, got, want)
		}
	}
}
