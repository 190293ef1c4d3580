package repository

import (
	"context"
	"fmt"
	"time"

	"FinTrack/internal/domain/models"
	domrepo "FinTrack/internal/domain/repository"
	pkgch "FinTrack/pkg/clickhouse"
	applogger "FinTrack/pkg/logger"
)

// PriceArchiveSchema creates the archive table. ReplacingMergeTree keeps the
// latest fetch of each (symbol, day).
var PriceArchiveSchema = []string{
	`CREATE TABLE IF NOT EXISTS price_history (
		symbol     LowCardinality(String),
		asset      String,
		kind       LowCardinality(String),
		day        Date,
		price      Decimal(20, 8),
		fetched_at DateTime
	) ENGINE = ReplacingMergeTree(fetched_at)
	ORDER BY (symbol, day)`,
}

type execBatcher interface {
	ExecBatch(ctx context.Context, stmt string, rows [][]any) error
	Close() error
}

// CHPriceArchive writes fetched price tables to ClickHouse.
type CHPriceArchive struct {
	db    execBatcher
	table string
	l     *applogger.Logger
	now   func() time.Time
}

var _ domrepo.PriceArchive = (*CHPriceArchive)(nil)

func NewCHPriceArchive(ch *pkgch.Client, l *applogger.Logger) *CHPriceArchive {
	return newCHPriceArchive(ch, l)
}

func newCHPriceArchive(db execBatcher, l *applogger.Logger) *CHPriceArchive {
	if l == nil {
		l = applogger.NewNop()
	}
	return &CHPriceArchive{db: db, table: "price_history", l: l, now: time.Now}
}

func (a *CHPriceArchive) Archive(ctx context.Context, asset models.Asset, table models.PriceTable) error {
	if len(table) == 0 {
		return nil
	}
	start := time.Now()
	fetchedAt := a.now().UTC().Truncate(time.Second)

	rows := make([][]any, 0, len(table))
	for _, p := range table.Descending() {
		rows = append(rows, []any{asset.Symbol, asset.Name, string(asset.Kind), p.Date.Time(), p.Price, fetchedAt})
	}

	q := fmt.Sprintf("INSERT INTO %s (symbol, asset, kind, day, price, fetched_at)", a.table)
	if err := a.db.ExecBatch(ctx, q, rows); err != nil {
		return fmt.Errorf("archive %s: %w", asset.Symbol, err)
	}
	a.l.Debug("price history archived",
		applogger.String("symbol", asset.Symbol),
		applogger.Int("rows", len(rows)),
		applogger.Duration("elapsed_ms", time.Since(start)),
	)
	return nil
}

func (a *CHPriceArchive) Close() error { return a.db.Close() }
