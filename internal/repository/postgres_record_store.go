package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FinTrack/internal/domain/models"
	domrepo "FinTrack/internal/domain/repository"
	pkgpg "FinTrack/pkg/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// RecordSchema creates the line item table.
var RecordSchema = []string{
	`CREATE TABLE IF NOT EXISTS line_items (
		id                 UUID PRIMARY KEY,
		owner              TEXT        NOT NULL,
		kind               TEXT        NOT NULL,
		name               TEXT        NOT NULL,
		amount             NUMERIC(20,2) NOT NULL,
		rate_of_return     NUMERIC(10,4),
		contribution       BIGINT,
		contribution_years INTEGER,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS line_items_owner_kind_idx ON line_items (owner, kind, created_at)`,
}

// PGRecordStore implements RecordStore on Postgres. Numeric columns cross the
// wire as text so decimals keep their exact value.
type PGRecordStore struct {
	client *pkgpg.Client
	pool   *pgxpool.Pool
}

var _ domrepo.RecordStore = (*PGRecordStore)(nil)

func NewPGRecordStore(client *pkgpg.Client) *PGRecordStore {
	return &PGRecordStore{client: client, pool: client.Pool()}
}

// Init creates the schema if missing.
func (s *PGRecordStore) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, RecordSchema)
}

func (s *PGRecordStore) List(ctx context.Context, owner string, kind models.RecordKind, limit int) ([]models.Record, error) {
	const q = `
		SELECT id::text, owner, kind, name, amount::text, rate_of_return::text,
		       contribution, contribution_years, created_at
		FROM line_items
		WHERE owner = $1 AND kind = $2
		ORDER BY created_at ASC, id ASC
		LIMIT $3`
	rows, err := s.pool.Query(ctx, q, owner, string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	out := make([]models.Record, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return out, nil
}

func (s *PGRecordStore) Create(ctx context.Context, rec models.Record) (models.Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	var rate *string
	if rec.RateOfReturn != nil {
		v := rec.RateOfReturn.String()
		rate = &v
	}

	const q = `
		INSERT INTO line_items (id, owner, kind, name, amount, rate_of_return, contribution, contribution_years, created_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7, $8, $9)`
	_, err := s.pool.Exec(ctx, q,
		rec.ID, rec.Owner, string(rec.Kind), rec.Name, rec.Amount.String(),
		rate, rec.Contribution, rec.ContributionYears, rec.CreatedAt,
	)
	if err != nil {
		return models.Record{}, fmt.Errorf("create record: %w", err)
	}
	return rec, nil
}

func (s *PGRecordStore) Delete(ctx context.Context, owner string, kind models.RecordKind, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domrepo.ErrNotFound
	}
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM line_items WHERE owner = $1 AND kind = $2 AND id = $3`,
		owner, string(kind), id,
	)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domrepo.ErrNotFound
	}
	return nil
}

func (s *PGRecordStore) Sum(ctx context.Context, owner string, kind models.RecordKind) (decimal.Decimal, error) {
	var raw string
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0)::text FROM line_items WHERE owner = $1 AND kind = $2`,
		owner, string(kind),
	).Scan(&raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum records: %w", err)
	}
	return decimal.NewFromString(raw)
}

func (s *PGRecordStore) Health(ctx context.Context) error { return s.client.Health(ctx) }
func (s *PGRecordStore) Close() error                     { return s.client.Close() }

func scanRecord(row pgx.Row) (models.Record, error) {
	var (
		rec    models.Record
		kind   string
		amount string
		rate   *string
	)
	if err := row.Scan(&rec.ID, &rec.Owner, &kind, &rec.Name, &amount, &rate,
		&rec.Contribution, &rec.ContributionYears, &rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Record{}, domrepo.ErrNotFound
		}
		return models.Record{}, fmt.Errorf("scan record: %w", err)
	}
	rec.Kind = models.RecordKind(kind)

	a, err := decimal.NewFromString(amount)
	if err != nil {
		return models.Record{}, fmt.Errorf("scan record amount: %w", err)
	}
	rec.Amount = a
	if rate != nil {
		r, err := decimal.NewFromString(*rate)
		if err != nil {
			return models.Record{}, fmt.Errorf("scan record rate: %w", err)
		}
		rec.RateOfReturn = &r
	}
	return rec, nil
}
