package middleware

import (
	"strconv"
	"time"

	"github.com/ManuelReschke/Storefront/internal/pkg/apperr"
	"github.com/ManuelReschke/Storefront/internal/pkg/ratelimit"
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// SetRateLimitHeaders writes the X-RateLimit-* headers for res.
func SetRateLimitHeaders(c *fiber.Ctx, res ratelimit.Result) {
	c.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(res.Reset.Unix(), 10))
}

// RateLimit guards a route with the sliding-window limiter, keyed by
// "<prefix>:<client ip>". Limiter failures let the request through.
func RateLimit(limiter ratelimit.Limiter, prefix string, max int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := limiter.Check(c.UserContext(), prefix+":"+ClientIP(c), max)
		if err != nil {
			fiberlog.Warnf("[RateLimit] Check for %s failed, allowing request: %v", prefix, err)
			return c.Next()
		}
		SetRateLimitHeaders(c, res)
		if !res.Allowed {
			exceeded := ratelimit.Exceeded(res, time.Now())
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(exceeded.RetryAfter.Seconds())))
			e := apperr.From(exceeded)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": e.Message,
				"code":  string(e.Kind),
			})
		}
		return c.Next()
	}
}
