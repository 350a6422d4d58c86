package repositories

import (
	"context"
	"time"
)

// CacheRepositoryInterface - счётчики попыток входа, блокировки и отозванные токены.
type CacheRepositoryInterface interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, keys ...string) error
	// IncrWithTTL увеличивает счётчик. TTL ставится только новому ключу,
	// повторные попытки окно не продлевают.
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}
