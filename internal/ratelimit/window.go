package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window request counter shared through Redis, so every
// replica enforces the same budget per key
type Limiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewLimiter allows limit calls per key in each window
func NewLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *Limiter {
	return &Limiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (l *Limiter) windowKey(key string) string {
	slot := l.now().UnixNano() / int64(l.window)
	return fmt.Sprintf("%s:%s:%d", l.prefix, key, slot)
}

// Allow consumes one call from key's current window
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.windowKey(key)

	var count *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.Incr(ctx, k)
		pipe.Expire(ctx, k, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to count request: %w", err)
	}

	return count.Val() <= int64(l.limit), nil
}

// Remaining reports how many calls key has left in the current window
func (l *Limiter) Remaining(ctx context.Context, key string) (int, error) {
	used, err := l.client.Get(ctx, l.windowKey(key)).Int()
	if err != nil {
		if err == redis.Nil {
			return l.limit, nil
		}
		return 0, fmt.Errorf("failed to get request count: %w", err)
	}

	if used >= l.limit {
		return 0, nil
	}
	return l.limit - used, nil
}
