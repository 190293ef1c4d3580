package repository

import (
	"context"
	"sync"
	"time"

	"FinTrack/internal/domain/models"
	domrepo "FinTrack/internal/domain/repository"
)

type tokenEntry struct {
	p        models.Principal
	expireAt time.Time // zero means no expiry
}

// MemoryTokenStore resolves tokens from process memory.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]tokenEntry
}

var _ domrepo.TokenStore = (*MemoryTokenStore)(nil)

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]tokenEntry)}
}

func (s *MemoryTokenStore) Resolve(_ context.Context, token string) (models.Principal, error) {
	s.mu.RLock()
	e, ok := s.tokens[token]
	s.mu.RUnlock()
	if !ok || token == "" {
		return models.Principal{}, domrepo.ErrUnauthorized
	}
	if !e.expireAt.IsZero() && time.Now().After(e.expireAt) {
		s.mu.Lock()
		delete(s.tokens, token)
		s.mu.Unlock()
		return models.Principal{}, domrepo.ErrUnauthorized
	}
	return e.p, nil
}

func (s *MemoryTokenStore) Put(_ context.Context, token string, p models.Principal, ttl time.Duration) error {
	e := tokenEntry{p: p}
	if ttl > 0 {
		e.expireAt = time.Now().Add(ttl)
	}
	s.mu.Lock()
	s.tokens[token] = e
	s.mu.Unlock()
	return nil
}

func (s *MemoryTokenStore) Health(context.Context) error { return nil }
