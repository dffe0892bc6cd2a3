package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// slidingWindowScript trims the sorted set to the window, admits the request
// when below the limit and returns {allowed, count, reset_ms}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
  redis.call('ZADD', key, now, member)
  count = count + 1
  allowed = 1
end
redis.call('PEXPIRE', key, window)

local reset = now + window
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if oldest[2] then
  reset = tonumber(oldest[2]) + window
end
return {allowed, count, reset}
`)

// RedisLimiter stores request timestamps in a redis sorted set per
// identifier. When redis is unreachable it degrades to an in-process limiter.
type RedisLimiter struct {
	client   *redis.Client
	window   time.Duration
	now      func() time.Time
	fallback *MemoryLimiter
}

func NewRedisLimiter(client *redis.Client, window time.Duration) *RedisLimiter {
	if window <= 0 {
		window = DefaultWindow
	}
	return &RedisLimiter{
		client:   client,
		window:   window,
		now:      time.Now,
		fallback: NewMemoryLimiter(window),
	}
}

func (l *RedisLimiter) Check(ctx context.Context, identifier string, maxRequests int) (Result, error) {
	now := l.now()
	res, err := l.check(ctx, identifier, maxRequests, now)
	if err != nil {
		log.Warnf("[RateLimit] redis unavailable, using in-process window for %s: %v", identifier, err)
		return l.fallback.Check(ctx, identifier, maxRequests)
	}
	return res, nil
}

func (l *RedisLimiter) check(ctx context.Context, identifier string, maxRequests int, now time.Time) (Result, error) {
	nowMs := now.UnixMilli()
	member := fmt.Sprintf("%d-%s", nowMs, uuid.NewString())

	vals, err := slidingWindowScript.Run(ctx, l.client,
		[]string{keyPrefix + identifier},
		nowMs, l.window.Milliseconds(), maxRequests, member,
	).Int64Slice()
	if err != nil {
		return Result{}, err
	}
	if len(vals) != 3 {
		return Result{}, fmt.Errorf("unexpected rate limit script reply: %v", vals)
	}

	remaining := maxRequests - int(vals[1])
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   vals[0] == 1,
		Limit:     maxRequests,
		Remaining: remaining,
		Reset:     time.UnixMilli(vals[2]),
	}, nil
}
