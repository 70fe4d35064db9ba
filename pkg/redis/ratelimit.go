package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is a sliding-window limiter shared by every API replica
// ⭐ SSOT: 분산 레이트 리밋은 여기서만
type RateLimiter struct {
	client *Client
	prefix string
	limit  int
	window time.Duration
}

// NewRateLimiter allows limit requests per window for each key
func NewRateLimiter(client *Client, prefix string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// slidingWindow trims the window, counts, and records the request atomically
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
	local count = redis.call('ZCARD', key)

	if count < limit then
		redis.call('ZADD', key, now, ARGV[5])
		redis.call('PEXPIRE', key, window_ms)
		return {1, limit - count - 1}
	end
	return {0, 0}
`)

// Allow records a request for key and reports (allowed, remaining).
// A disabled client allows everything.
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	if !r.client.Enabled() {
		return true, r.limit, nil
	}

	now := time.Now()
	result, err := slidingWindow.Run(ctx, r.client.Redis(),
		[]string{fmt.Sprintf("%s:ratelimit:%s", r.prefix, key)},
		now.UnixMilli(),
		now.Add(-r.window).UnixMilli(),
		r.limit,
		r.window.Milliseconds(),
		now.UnixNano(),
	).Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script failed: %w", err)
	}

	allowed := result[0].(int64) == 1
	remaining := int(result[1].(int64))
	return allowed, remaining, nil
}

// Limit returns the configured requests per window
func (r *RateLimiter) Limit() int {
	return r.limit
}
