package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"FinTrack/internal/domain/models"
	domrepo "FinTrack/internal/domain/repository"
	pkgkafka "FinTrack/pkg/kafka"

	"github.com/shopspring/decimal"
)

func TestMemoryRecordStore_OwnerScoped(t *testing.T) {
	s := NewMemoryRecordStore()
	ctx := context.Background()

	a, _ := s.Create(ctx, models.Record{Owner: "u1", Kind: models.RecordIncome, Name: "salary", Amount: decimal.NewFromInt(5000)})
	_, _ = s.Create(ctx, models.Record{Owner: "u1", Kind: models.RecordIncome, Name: "bonus", Amount: decimal.RequireFromString("250.50")})
	_, _ = s.Create(ctx, models.Record{Owner: "u2", Kind: models.RecordIncome, Name: "other", Amount: decimal.NewFromInt(1)})

	if a.ID == "" || a.CreatedAt.IsZero() {
		t.Fatalf("Create must assign id and timestamp, got %+v", a)
	}

	list, _ := s.List(ctx, "u1", models.RecordIncome, 100)
	if len(list) != 2 || list[0].Name != "salary" {
		t.Fatalf("unexpected list %+v", list)
	}
	if other, _ := s.List(ctx, "u1", models.RecordExpense, 100); len(other) != 0 {
		t.Fatalf("kinds must be separate, got %d", len(other))
	}

	sum, _ := s.Sum(ctx, "u1", models.RecordIncome)
	if !sum.Equal(decimal.RequireFromString("5250.50")) {
		t.Fatalf("sum = %s", sum)
	}

	if err := s.Delete(ctx, "u2", models.RecordIncome, a.ID); !errors.Is(err, domrepo.ErrNotFound) {
		t.Fatalf("other owner must not delete, got %v", err)
	}
	if err := s.Delete(ctx, "u1", models.RecordIncome, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if list, _ := s.List(ctx, "u1", models.RecordIncome, 100); len(list) != 1 {
		t.Fatalf("expected 1 record after delete, got %d", len(list))
	}
}

func TestMemoryRecordStore_ListLimit(t *testing.T) {
	s := NewMemoryRecordStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, _ = s.Create(ctx, models.Record{Owner: "u", Kind: models.RecordAsset, Amount: decimal.NewFromInt(int64(i))})
	}
	if list, _ := s.List(ctx, "u", models.RecordAsset, 3); len(list) != 3 {
		t.Fatalf("expected 3, got %d", len(list))
	}
}

func TestMemoryTokenStore(t *testing.T) {
	s := NewMemoryTokenStore()
	ctx := context.Background()

	_ = s.Put(ctx, "t1", models.Principal{ID: "u1"}, 0)
	_ = s.Put(ctx, "t2", models.Principal{ID: "u2"}, time.Nanosecond)
	time.Sleep(time.Millisecond)

	p, err := s.Resolve(ctx, "t1")
	if err != nil || p.ID != "u1" {
		t.Fatalf("Resolve(t1) = %+v, %v", p, err)
	}
	if _, err := s.Resolve(ctx, "t2"); !errors.Is(err, domrepo.ErrUnauthorized) {
		t.Fatalf("expired token must be rejected, got %v", err)
	}
	if _, err := s.Resolve(ctx, "missing"); !errors.Is(err, domrepo.ErrUnauthorized) {
		t.Fatalf("unknown token must be rejected, got %v", err)
	}
}

type fakeBatcher struct {
	stmt string
	rows [][]any
	err  error
}

func (f *fakeBatcher) ExecBatch(_ context.Context, stmt string, rows [][]any) error {
	f.stmt, f.rows = stmt, rows
	return f.err
}

func (f *fakeBatcher) Close() error { return nil }

func TestCHPriceArchive_WritesOneRowPerDay(t *testing.T) {
	db := &fakeBatcher{}
	a := newCHPriceArchive(db, nil)

	tbl := models.PriceTable{}
	tbl.Add(models.PricePoint{Date: models.MustParseDate("2025-01-01"), Price: decimal.NewFromInt(10)})
	tbl.Add(models.PricePoint{Date: models.MustParseDate("2025-01-02"), Price: decimal.NewFromInt(11)})

	asset := models.Asset{Name: "VOO", Symbol: "VOO", Kind: models.KindEquity}
	if err := a.Archive(context.Background(), asset, tbl); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if !strings.HasPrefix(db.stmt, "INSERT INTO price_history") {
		t.Fatalf("unexpected statement %q", db.stmt)
	}
	if len(db.rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(db.rows))
	}
	if day := db.rows[0][3].(time.Time); !day.Equal(models.MustParseDate("2025-01-02").Time()) {
		t.Fatalf("rows should be newest first, got %v", day)
	}
}

func TestCHPriceArchive_WrapsError(t *testing.T) {
	db := &fakeBatcher{err: errors.New("boom")}
	a := newCHPriceArchive(db, nil)
	tbl := models.PriceTable{}
	tbl.Add(models.PricePoint{Date: models.MustParseDate("2025-01-01"), Price: decimal.NewFromInt(1)})

	err := a.Archive(context.Background(), models.Asset{Symbol: "X"}, tbl)
	if err == nil || !strings.Contains(err.Error(), "archive X") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

type fakeProducer struct {
	topic string
	msgs  []pkgkafka.Message
}

func (f *fakeProducer) PublishBatch(_ context.Context, topic string, msgs []pkgkafka.Message) error {
	f.topic, f.msgs = topic, msgs
	return nil
}

func (f *fakeProducer) Close() error { return nil }

func TestKafkaGainsPublisher_OneMessagePerAsset(t *testing.T) {
	prod := &fakeProducer{}
	p := &KafkaGainsPublisher{producer: prod, topic: "market.gains"}

	year := decimal.NewFromInt(100)
	snap := &models.MarketSnapshot{
		ComputedAt: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		Order:      []string{"VOO", "Bitcoin"},
		Results: map[string]models.GainsResult{
			"VOO": {
				Asset:       models.Asset{Name: "VOO", Symbol: "VOO", Kind: models.KindEquity},
				AsOf:        models.MustParseDate("2025-01-01"),
				LatestPrice: decimal.NewFromInt(200),
				Changes:     map[string]*decimal.Decimal{"Year": &year, "Week": nil},
			},
			"Bitcoin": {
				Asset: models.Asset{Name: "Bitcoin", Symbol: "BTCUSD", Kind: models.KindCrypto},
				Error: "BTCUSD: transport error",
			},
		},
	}

	if err := p.PublishSnapshot(context.Background(), snap); err != nil {
		t.Fatalf("PublishSnapshot: %v", err)
	}
	if prod.topic != "market.gains" || len(prod.msgs) != 2 {
		t.Fatalf("unexpected publish topic=%q n=%d", prod.topic, len(prod.msgs))
	}
	if string(prod.msgs[0].Key) != "VOO" {
		t.Fatalf("messages must follow basket order, got key %q", prod.msgs[0].Key)
	}
	if prod.msgs[0].Headers["schema"] != GainsEventSchema {
		t.Fatalf("schema header = %q", prod.msgs[0].Headers["schema"])
	}

	b, _ := json.Marshal(prod.msgs[0].Value)
	var ev map[string]any
	_ = json.Unmarshal(b, &ev)
	changes := ev["changes_pct"].(map[string]any)
	if changes["Year"] != "100" || changes["Week"] != nil {
		t.Fatalf("unexpected changes %v", changes)
	}

	failed := prod.msgs[1].Value.(GainsEvent)
	if failed.Error == "" || failed.ChangesPct != nil {
		t.Fatalf("failed asset event should carry only the error, got %+v", failed)
	}
}
