// Package ratelimit implements a sliding-window request limiter keyed by an
// arbitrary identifier such as "checkout:<ip>".
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ManuelReschke/Storefront/internal/pkg/apperr"
	"github.com/redis/go-redis/v9"
)

// DefaultWindow is the length of the sliding window.
const DefaultWindow = time.Minute

// Result describes the outcome of a single Check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// RetryAfter returns the whole seconds until the window frees a slot,
// never less than one.
func (r Result) RetryAfter(now time.Time) time.Duration {
	secs := math.Ceil(r.Reset.Sub(now).Seconds())
	if secs < 1 {
		secs = 1
	}
	return time.Duration(secs) * time.Second
}

// Limiter counts requests per identifier within a sliding window.
type Limiter interface {
	Check(ctx context.Context, identifier string, maxRequests int) (Result, error)
}

// New returns a redis-backed limiter when client is non-nil and an in-process
// limiter otherwise. The in-process limiter is only correct for a single
// instance; horizontally scaled deployments need the redis store.
func New(client *redis.Client, window time.Duration) Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if client == nil {
		return NewMemoryLimiter(window)
	}
	return NewRedisLimiter(client, window)
}

// ExceededError is returned by callers that reject a request after a Check.
// It unwraps to an apperr rate-limited error so handlers map it to 429.
type ExceededError struct {
	Result     Result
	RetryAfter time.Duration
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("rate limit of %d exceeded, retry after %s", e.Result.Limit, e.RetryAfter)
}

func (e *ExceededError) Unwrap() error {
	return apperr.RateLimited(e.RetryAfter)
}

// Exceeded builds an ExceededError for a rejected result.
func Exceeded(res Result, now time.Time) *ExceededError {
	return &ExceededError{Result: res, RetryAfter: res.RetryAfter(now)}
}
