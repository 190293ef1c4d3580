package gains

import (
	"errors"
	"testing"

	"FinTrack/internal/domain/models"

	"github.com/shopspring/decimal"
)

func table(t *testing.T, rows map[string]string) models.PriceTable {
	t.Helper()
	out := models.PriceTable{}
	for d, p := range rows {
		out.Add(models.PricePoint{Date: models.MustParseDate(d), Price: decimal.RequireFromString(p)})
	}
	return out
}

func wantChange(t *testing.T, res models.GainsResult, label, want string) {
	t.Helper()
	got := res.Changes[label]
	if got == nil {
		t.Fatalf("%s: expected %s, got absent", label, want)
	}
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s: expected %s, got %s", label, want, got)
	}
}

func wantAbsent(t *testing.T, res models.GainsResult, label string) {
	t.Helper()
	v, ok := res.Changes[label]
	if !ok {
		t.Fatalf("%s: expected key to be present", label)
	}
	if v != nil {
		t.Fatalf("%s: expected absent, got %s", label, v)
	}
}

func TestComputeYearSelectsLatestOnOrBeforeTarget(t *testing.T) {
	tb := table(t, map[string]string{
		"2024-01-01": "100",
		"2024-06-01": "150",
		"2025-01-01": "200",
	})
	res, err := NewCalculator().Compute(tb, models.MustParseDate("2025-01-02"), models.DefaultHorizons())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	wantChange(t, res, "Year", "100")
	wantChange(t, res, "Day", "0")
	// Month target 2024-12-03 resolves to 2024-06-01.
	wantChange(t, res, "Month", "33.3333")
	if res.AsOf != models.MustParseDate("2025-01-01") {
		t.Fatalf("as_of should be the latest data date, got %s", res.AsOf)
	}
	if !res.LatestPrice.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("unexpected latest price %s", res.LatestPrice)
	}
}

func TestComputeInsufficientHistoryIsAbsent(t *testing.T) {
	tb := table(t, map[string]string{
		"2025-01-01": "10",
		"2025-01-02": "11",
	})
	res, err := NewCalculator().Compute(tb, models.MustParseDate("2025-01-03"), models.DefaultHorizons())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	wantChange(t, res, "Day", "0")
	wantAbsent(t, res, "Week")
	wantAbsent(t, res, "Month")
	wantAbsent(t, res, "Year")
}

func TestComputeLatestIsMaximumDate(t *testing.T) {
	tb := table(t, map[string]string{
		"2025-03-01": "1.1234567",
		"2024-03-01": "9",
		"2025-02-27": "5",
	})
	res, err := NewCalculator().Compute(tb, models.MustParseDate("2025-03-10"), models.DefaultHorizons())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if res.AsOf != models.MustParseDate("2025-03-01") {
		t.Fatalf("unexpected as_of %s", res.AsOf)
	}
	if res.LatestPrice.String() != "1.123457" {
		t.Fatalf("latest price should round to 6 places, got %s", res.LatestPrice)
	}
}

func TestComputeEmptyTable(t *testing.T) {
	_, err := NewCalculator().Compute(models.PriceTable{}, models.MustParseDate("2025-01-01"), models.DefaultHorizons())
	if !errors.Is(err, ErrEmptyTable) {
		t.Fatalf("expected ErrEmptyTable, got %v", err)
	}
}

func TestComputeRejectsNonPositiveLatest(t *testing.T) {
	d := models.MustParseDate("2025-01-01")
	tb := models.PriceTable{d: {Date: d, Price: decimal.Zero}}
	_, err := NewCalculator().Compute(tb, d, models.DefaultHorizons())
	if !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
}

func TestComputeZeroBaselineIsAbsent(t *testing.T) {
	old := models.MustParseDate("2024-12-01")
	now := models.MustParseDate("2025-01-01")
	// Add refuses non-positive prices, so the zero baseline is inserted directly.
	tb := models.PriceTable{
		old: {Date: old, Price: decimal.Zero},
		now: {Date: now, Price: decimal.NewFromInt(5)},
	}
	res, err := NewCalculator().Compute(tb, now, []models.Horizon{models.HorizonWeek})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	wantAbsent(t, res, "Week")
}

func TestComputeIsIdempotent(t *testing.T) {
	tb := table(t, map[string]string{
		"2024-01-01": "100",
		"2024-12-25": "180",
		"2025-01-01": "200",
	})
	asOf := models.MustParseDate("2025-01-02")
	a, _ := NewCalculator().Compute(tb, asOf, models.DefaultHorizons())
	b, _ := NewCalculator().Compute(tb, asOf, models.DefaultHorizons())
	for _, h := range models.DefaultHorizons() {
		x, y := a.Changes[h.Label], b.Changes[h.Label]
		if (x == nil) != (y == nil) || (x != nil && !x.Equal(*y)) {
			t.Fatalf("%s differs between runs: %v vs %v", h.Label, x, y)
		}
	}
	if len(tb) != 3 {
		t.Fatalf("table must not be mutated")
	}
}

func TestPercentChange(t *testing.T) {
	got, ok := PercentChange(decimal.RequireFromString("90"), decimal.RequireFromString("120"))
	if !ok || !got.Equal(decimal.RequireFromString("-25")) {
		t.Fatalf("unexpected change %s ok=%v", got, ok)
	}
	got, ok = PercentChange(decimal.RequireFromString("1"), decimal.RequireFromString("3"))
	if !ok || got.String() != "-66.6667" {
		t.Fatalf("expected 4-place rounding, got %s", got)
	}
	if _, ok := PercentChange(decimal.NewFromInt(1), decimal.Zero); ok {
		t.Fatalf("zero baseline must not resolve")
	}
}
