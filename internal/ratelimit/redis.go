package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"
)

// RedisRateLimiter enforces a per-user sliding window backed by a Redis
// sorted set of request timestamps. State lives in Redis so the limit
// holds across replicas.
type RedisRateLimiter struct {
	client     *redis.Client
	rejections metric.Int64Counter
}

// NewRedisRateLimiter builds a limiter. The rejections counter may be
// nil when OTLP metrics are disabled.
func NewRedisRateLimiter(client *redis.Client, rejections metric.Int64Counter) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, rejections: rejections}
}

// AllowRequest records the request and reports whether username is
// still within limit for the window. Each user has their own set, so
// one noisy user never starves the others.
func (rl *RedisRateLimiter) AllowRequest(ctx context.Context, username string, limit int, windowSeconds int) (bool, int, error) {
	now := time.Now()
	windowStart := now.Add(-time.Duration(windowSeconds) * time.Second)
	key := "ratelimit:user:" + username

	// One pipeline round trip: drop expired entries, record this
	// request, count what remains in the window.
	pipe := rl.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart.UnixMilli()))
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: fmt.Sprintf("%d", now.UnixNano()),
	})
	countCmd := pipe.ZCount(ctx, key, "-inf", "+inf")
	// Keys for idle users expire on their own.
	pipe.Expire(ctx, key, time.Duration(windowSeconds*2)*time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("execute rate limit check: %w", err)
	}

	count, err := countCmd.Result()
	if err != nil {
		return false, 0, fmt.Errorf("read window count: %w", err)
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	allowed := count <= int64(limit)
	if !allowed && rl.rejections != nil {
		rl.rejections.Add(ctx, 1)
	}
	return allowed, remaining, nil
}
