package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgredis "github.com/angelmondragon/storefront/pkg/redis"
)

type redisKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CartKey(storageKey string) string
}

// RedisStore saves snapshots as plain strings under the namespaced cart key.
type RedisStore struct {
	client redisKV
	ttl    time.Duration
}

// NewRedisStore binds the store to a redis client. A zero ttl never expires.
func NewRedisStore(client redisKV, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.client.CartKey(key))
	if errors.Is(err, pkgredis.ErrNil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get cart: %w", err)
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.client.CartKey(key), value, s.ttl); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}
