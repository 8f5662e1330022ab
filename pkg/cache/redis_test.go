package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vnykmshr/lineagekit/internal/testutil"
	lkerrors "github.com/vnykmshr/lineagekit/pkg/common/errors"
)

// redisClient connects to LINEAGEKIT_TEST_REDIS (default localhost:6379) and
// skips the test when nothing answers.
func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("LINEAGEKIT_TEST_REDIS")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 1})
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		t.Skipf("redis not available at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestNewRedisRequiresClient(t *testing.T) {
	_, err := NewRedis(RedisConfig{})
	if !lkerrors.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRedisRoundTrip(t *testing.T) {
	rdb := redisClient(t)
	ctx := context.Background()
	prefix := "lineagekit-test:" + t.Name() + ":"

	c, err := NewRedis(RedisConfig{Client: rdb, Prefix: prefix})
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, c.Ping(ctx))
	t.Cleanup(func() { _ = c.Delete(context.Background(), "apps") })

	_, err = c.Get(ctx, "apps")
	testutil.AssertEqual(t, errors.Is(err, ErrMiss), true)

	testutil.AssertNoError(t, c.Set(ctx, "apps", []byte("Glimpse"), time.Minute))

	raw, err := rdb.Get(ctx, prefix+"apps").Result()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, raw, "Glimpse")

	ttl, err := rdb.TTL(ctx, prefix+"apps").Result()
	testutil.AssertNoError(t, err)
	if ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	got, err := c.Get(ctx, "apps")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, string(got), "Glimpse")

	testutil.AssertNoError(t, c.Delete(ctx, "apps"))
	_, err = c.Get(ctx, "apps")
	testutil.AssertEqual(t, errors.Is(err, ErrMiss), true)
}

func TestRedisErrorsAreWrapped(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
	defer func() { _ = rdb.Close() }()

	c, err := NewRedis(RedisConfig{Client: rdb, Timeout: 100 * time.Millisecond})
	testutil.AssertNoError(t, err)

	_, err = c.Get(context.Background(), "k")
	var rerr *RedisError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected RedisError, got %v", err)
	}
	testutil.AssertEqual(t, rerr.Operation, "GET")
	testutil.AssertEqual(t, errors.Is(err, ErrMiss), false)
}
