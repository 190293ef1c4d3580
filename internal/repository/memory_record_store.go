package repository

import (
	"context"
	"sync"
	"time"

	"FinTrack/internal/domain/models"
	domrepo "FinTrack/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryRecordStore keeps line items in process memory. Used when no
// Postgres DSN is configured and in tests.
type MemoryRecordStore struct {
	mu    sync.RWMutex
	items map[string][]models.Record // owner/kind -> records in creation order
	now   func() time.Time
}

var _ domrepo.RecordStore = (*MemoryRecordStore)(nil)

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{items: make(map[string][]models.Record), now: time.Now}
}

func bucketKey(owner string, kind models.RecordKind) string {
	return owner + "/" + string(kind)
}

func (s *MemoryRecordStore) List(_ context.Context, owner string, kind models.RecordKind, limit int) ([]models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.items[bucketKey(owner, kind)]
	if limit > 0 && len(src) > limit {
		src = src[:limit]
	}
	return append([]models.Record(nil), src...), nil
}

func (s *MemoryRecordStore) Create(_ context.Context, rec models.Record) (models.Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	k := bucketKey(rec.Owner, rec.Kind)
	s.items[k] = append(s.items[k], rec)
	return rec, nil
}

func (s *MemoryRecordStore) Delete(_ context.Context, owner string, kind models.RecordKind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := bucketKey(owner, kind)
	for i, r := range s.items[k] {
		if r.ID == id {
			s.items[k] = append(s.items[k][:i:i], s.items[k][i+1:]...)
			return nil
		}
	}
	return domrepo.ErrNotFound
}

func (s *MemoryRecordStore) Sum(_ context.Context, owner string, kind models.RecordKind) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, r := range s.items[bucketKey(owner, kind)] {
		total = total.Add(r.Amount)
	}
	return total, nil
}

func (s *MemoryRecordStore) Health(context.Context) error { return nil }
func (s *MemoryRecordStore) Close() error                 { return nil }
