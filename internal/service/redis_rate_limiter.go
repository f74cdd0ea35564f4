package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vramonlinebsc/hms/internal/clock"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const RedisRateLimitKeyPrefix = "ratelimit:"

// slidingWindowScript keeps one sorted-set member per admitted call, scored by
// its time in milliseconds. Pruning, counting and recording run atomically.
//
// KEYS[1] = limiter key
// ARGV[1] = now (ms), ARGV[2] = window (ms), ARGV[3] = max, ARGV[4] = member
var slidingWindowScript = redis.NewScript(`
	local now = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])
	redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
	local count = redis.call('ZCARD', KEYS[1])
	if count >= tonumber(ARGV[3]) then
		return 0
	end
	redis.call('ZADD', KEYS[1], now, ARGV[4])
	redis.call('PEXPIRE', KEYS[1], window)
	return 1
`)

// RedisRateLimiter shares one sliding window per key across every process
// pointed at the same Redis.
type RedisRateLimiter struct {
	client *redis.Client
	clock  clock.Clock
	window time.Duration
	max    int
}

func NewRedisRateLimiter(client *redis.Client, clk clock.Clock, window time.Duration, max int) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		clock:  clk,
		window: window,
		max:    max,
	}
}

func (l *RedisRateLimiter) Admit(ctx context.Context, key string) (bool, error) {
	nowMs := l.clock.Now().UnixMilli()
	member := fmt.Sprintf("%d-%s", nowMs, uuid.NewString())

	result, err := slidingWindowScript.Run(ctx, l.client,
		[]string{RedisRateLimitKeyPrefix + key},
		nowMs, l.window.Milliseconds(), l.max, member,
	).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit script for %s: %w", key, err)
	}
	return result == 1, nil
}
