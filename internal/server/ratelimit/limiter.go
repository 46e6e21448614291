// Package ratelimit implements a fixed-window request limiter backed by a
// shared counter, so the limit holds across server replicas.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter is the subset of counter operations the limiter needs.
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

type Limiter struct {
	counter Counter
	limit   int
	window  time.Duration
}

func NewLimiter(counter Counter, limit int, window time.Duration) *Limiter {
	return &Limiter{counter: counter, limit: limit, window: window}
}

// Allow reports whether the caller identified by key may proceed. A counter
// failure allows the request; availability wins over strictness here.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	window := time.Now().Unix() / int64(l.window.Seconds())
	counterKey := fmt.Sprintf("rl:%s:%d", key, window)

	n, err := l.counter.Incr(ctx, counterKey)
	if err != nil {
		return true
	}
	if n == 1 {
		// first hit in this window sets the expiry; best effort
		_ = l.counter.Expire(ctx, counterKey, l.window)
	}
	return n <= int64(l.limit)
}

// redisCounter adapts a redis client to the Counter interface.
type redisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) Counter {
	return &redisCounter{client: client}
}

func (c *redisCounter) Incr(ctx context.Context, key string) (int64, error) {
	return c.client.Incr(ctx, key).Result()
}

func (c *redisCounter) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.client.Expire(ctx, key, ttl).Err()
}
