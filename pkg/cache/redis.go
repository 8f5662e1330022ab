package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vnykmshr/lineagekit/pkg/common/validation"
)

// RedisConfig configures a Redis-backed cache.
type RedisConfig struct {
	// Client is any go-redis client: single node, cluster or sentinel.
	Client redis.UniversalClient

	// Prefix is prepended to every key.
	Prefix string

	// Timeout bounds each Redis round trip. Defaults to 500ms.
	Timeout time.Duration
}

// Redis is a Cache shared through a Redis server.
type Redis struct {
	client  redis.UniversalClient
	prefix  string
	timeout time.Duration
}

// RedisError reports a failed Redis command.
type RedisError struct {
	Operation string
	Key       string
	Err       error
}

func (e *RedisError) Error() string {
	return fmt.Sprintf("cache: redis %s %s: %v", e.Operation, e.Key, e.Err)
}

func (e *RedisError) Unwrap() error {
	return e.Err
}

// NewRedis creates a Redis cache. The client is owned by the caller.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	if cfg.Client == nil {
		return nil, validation.ValidateNotNil("cache", "Client", nil)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 500 * time.Millisecond
	}
	return &Redis{
		client:  cfg.Client,
		prefix:  cfg.Prefix,
		timeout: cfg.Timeout,
	}, nil
}

func (r *Redis) key(k string) string {
	return r.prefix + k
}

// Get implements Cache.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, &RedisError{"GET", key, err}
	}
	return data, nil
}

// Set implements Cache.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return &RedisError{"SET", key, err}
	}
	return nil
}

// Delete implements Cache.
func (r *Redis) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return &RedisError{"DEL", key, err}
	}
	return nil
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return &RedisError{"PING", "", err}
	}
	return nil
}

var _ Cache = (*Redis)(nil)
