package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"FinTrack/internal/domain/models"
	domrepo "FinTrack/internal/domain/repository"

	"github.com/redis/go-redis/v9"
)

// RedisTokenStore keeps session tokens as JSON principals under a prefix.
type RedisTokenStore struct {
	client *redis.Client
	prefix string
}

var _ domrepo.TokenStore = (*RedisTokenStore)(nil)

func NewRedisTokenStore(client *redis.Client, prefix string) *RedisTokenStore {
	if prefix == "" {
		prefix = "fintrack:token"
	}
	return &RedisTokenStore{client: client, prefix: prefix}
}

type principalDTO struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

func (s *RedisTokenStore) key(token string) string {
	return fmt.Sprintf("%s:%s", s.prefix, token)
}

func (s *RedisTokenStore) Resolve(ctx context.Context, token string) (models.Principal, error) {
	if token == "" {
		return models.Principal{}, domrepo.ErrUnauthorized
	}
	data, err := s.client.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Principal{}, domrepo.ErrUnauthorized
		}
		return models.Principal{}, fmt.Errorf("resolve token: %w", err)
	}
	var dto principalDTO
	if err := json.Unmarshal(data, &dto); err != nil || dto.ID == "" {
		return models.Principal{}, domrepo.ErrUnauthorized
	}
	return models.Principal{ID: dto.ID, Email: dto.Email}, nil
}

// Put stores p under token. A non-positive ttl keeps the token until deleted.
func (s *RedisTokenStore) Put(ctx context.Context, token string, p models.Principal, ttl time.Duration) error {
	data, err := json.Marshal(principalDTO{ID: p.ID, Email: p.Email})
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	return s.client.Set(ctx, s.key(token), data, ttl).Err()
}

func (s *RedisTokenStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
