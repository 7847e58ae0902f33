package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window counter shared by every process talking
// to the same Redis. Each key may be checked Limit times per Window.
type RedisLimiter struct {
	client  redis.Cmdable
	prefix  string
	limit   int64
	window  time.Duration
	nowFunc func() time.Time
}

// RedisOption configures a RedisLimiter.
type RedisOption func(*RedisLimiter)

// WithPrefix namespaces the counter keys. The default is "wingman:rl".
func WithPrefix(prefix string) RedisOption {
	return func(r *RedisLimiter) { r.prefix = prefix }
}

// NewRedisLimiter allows limit requests per window for each key.
func NewRedisLimiter(client redis.Cmdable, limit int, window time.Duration, opts ...RedisOption) *RedisLimiter {
	r := &RedisLimiter{
		client:  client,
		prefix:  "wingman:rl",
		limit:   int64(limit),
		window:  window,
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Check increments the key's counter for the current window.
func (r *RedisLimiter) Check(ctx context.Context, key string) (bool, error) {
	slot := r.nowFunc().UnixNano() / int64(r.window)
	k := fmt.Sprintf("%s:%s:%d", r.prefix, key, slot)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("checking rate limit: %w", err)
	}
	return incr.Val() <= r.limit, nil
}

// NewRedisClient connects to addr and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return client, nil
}
