// Package redisstore keeps session carts in Redis.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/retry"
	"github.com/redis/go-redis/v9"
)

var _ port.CartStorage = (*CartStorage)(nil)

const keyPrefix = "storefront:"

type Config struct {
	URL          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	DialTimeout  time.Duration
}

// NewClient connects to the server of the URL and pings it.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	const op = "redisstore.NewClient"

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}

	client := redis.NewClient(opts)
	retryCfg := retry.RetryConfig{
		MaxAttempts: 5,
		Backoff:     retry.ExponentialBackoff(200 * time.Millisecond),
	}
	err = retry.Do(ctx, retryCfg, func() error {
		return client.Ping(ctx).Err()
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: redis is unavailable: %w", op, err)
	}
	slog.Info("redis is available", "op", op)
	return client, nil
}

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// A CartStorage expires a cart ttl after its last change. Zero ttl keeps
// carts forever.
type CartStorage struct {
	client redisClient
	ttl    time.Duration
}

func NewCartStorage(client redisClient, ttl time.Duration) CartStorage {
	return CartStorage{client: client, ttl: ttl}
}

func (s CartStorage) Load(ctx context.Context, key string) ([]byte, error) {
	const op = "redisstore.CartStorage.Load"

	v, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w: %w", op, domain.ErrUnavailable, err)
	}
	return v, nil
}

func (s CartStorage) Save(ctx context.Context, key string, data []byte) error {
	const op = "redisstore.CartStorage.Save"

	if err := s.client.Set(ctx, keyPrefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrUnavailable, err)
	}
	return nil
}

func (s CartStorage) Delete(ctx context.Context, key string) error {
	const op = "redisstore.CartStorage.Delete"

	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrUnavailable, err)
	}
	return nil
}
