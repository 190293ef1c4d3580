package repository

import (
	"context"
	"errors"
	"time"

	"FinTrack/internal/domain/models"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// PriceSource returns the normalized daily history of one asset.
type PriceSource interface {
	FetchHistory(ctx context.Context, asset models.Asset, since models.Date) (models.PriceTable, error)
}

// PriceArchive keeps fetched price points for later inspection.
type PriceArchive interface {
	Archive(ctx context.Context, asset models.Asset, table models.PriceTable) error
	Close() error
}

// GainsPublisher broadcasts computed basket snapshots.
type GainsPublisher interface {
	PublishSnapshot(ctx context.Context, snap *models.MarketSnapshot) error
	Close() error
}

// RecordStore persists owner-scoped line items.
type RecordStore interface {
	List(ctx context.Context, owner string, kind models.RecordKind, limit int) ([]models.Record, error)
	Create(ctx context.Context, rec models.Record) (models.Record, error)
	Delete(ctx context.Context, owner string, kind models.RecordKind, id string) error
	Sum(ctx context.Context, owner string, kind models.RecordKind) (decimal.Decimal, error)
	Health(ctx context.Context) error
	Close() error
}

// TokenStore resolves opaque session tokens to principals.
type TokenStore interface {
	Resolve(ctx context.Context, token string) (models.Principal, error)
	Put(ctx context.Context, token string, p models.Principal, ttl time.Duration) error
	Health(ctx context.Context) error
}

type Metrics interface {
	RecordAssetOutcome(asset, outcome string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordCache(result string)
}
