package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimiter implements a sliding-window limit shared across API instances
// ⭐ SSOT: 분산 레이트 리밋은 여기서만
type RateLimiter struct {
	client *Client
	prefix string
	script *redis.Script
}

// RateLimitConfig defines rate limit parameters
type RateLimitConfig struct {
	Key    string        // route group (e.g., "results")
	Limit  int           // Maximum requests allowed
	Window time.Duration // Time window
}

// ResultsRateLimit caps /api/results per client (결과 조회는 DB 부하가 큼)
var ResultsRateLimit = RateLimitConfig{
	Key:    "results",
	Limit:  60,
	Window: time.Minute,
}

const slidingWindowScript = `
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])
	local member = ARGV[5]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
	local count = redis.call('ZCARD', key)

	if count < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, window_ms)
		return {1, limit - count - 1}
	end
	return {0, 0}
`

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
		script: redis.NewScript(slidingWindowScript),
	}
}

// Allow checks if a request from subject is allowed under the limit.
// Returns (allowed, remaining, error). A disabled client allows everything.
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig, subject string) (bool, int, error) {
	if !r.client.Enabled() {
		return true, cfg.Limit, nil
	}

	key := fmt.Sprintf("%s:ratelimit:%s:%s", r.prefix, cfg.Key, subject)
	now := time.Now().UnixMilli()
	windowStart := now - cfg.Window.Milliseconds()

	result, err := r.script.Run(ctx, r.client.Redis(), []string{key},
		now,
		windowStart,
		cfg.Limit,
		cfg.Window.Milliseconds(),
		requestMember(now),
	).Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script failed: %w", err)
	}

	allowed := result[0].(int64) == 1
	remaining := int(result[1].(int64))
	return allowed, remaining, nil
}

// requestMember is the sorted-set member for one request. Scores may repeat within a
// millisecond, members may not.
func requestMember(nowMs int64) string {
	return fmt.Sprintf("%d-%s", nowMs, uuid.NewString())
}
