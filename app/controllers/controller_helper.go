package controllers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/ManuelReschke/Storefront/internal/pkg/apperr"
	"github.com/ManuelReschke/Storefront/internal/pkg/constants"
	"github.com/ManuelReschke/Storefront/internal/pkg/currency"
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

const requestTimeout = 15 * time.Second

// requestContext bounds the downstream database and provider calls of one request.
func requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), requestTimeout)
}

// respondError writes the JSON error body for err. Internal causes are
// logged, never returned.
func respondError(c *fiber.Ctx, err error) error {
	e := apperr.From(err)
	status := apperr.Status(e)
	if status >= fiber.StatusInternalServerError {
		fiberlog.Errorf("[HTTP] %s %s failed: %v", c.Method(), c.Path(), err)
	}
	if e.Kind == apperr.KindRateLimited && e.RetryAfter > 0 {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(e.RetryAfter/time.Second)))
	}

	body := fiber.Map{
		"error": e.Message,
		"code":  string(e.Kind),
	}
	if e.Field != "" {
		body["field"] = e.Field
	}
	return c.Status(status).JSON(body)
}

// requestLocale returns the explicit locale or the best Accept-Language tag.
func requestLocale(c *fiber.Ctx, explicit string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit
	}
	if q := strings.TrimSpace(c.Query("locale")); q != "" {
		return q
	}
	return currency.LocaleFromAcceptLanguage(c.Get(fiber.HeaderAcceptLanguage))
}

// requestCountry reads the geo-IP country header set by the edge proxy.
func requestCountry(c *fiber.Ctx) string {
	if v := strings.TrimSpace(c.Get(constants.CountryHeaderCloudflare)); v != "" {
		return v
	}
	return strings.TrimSpace(c.Get(constants.CountryHeaderGeneric))
}

// cookieCurrency returns the stored preference if it is a supported code.
func cookieCurrency(c *fiber.Ctx) (currency.Code, bool) {
	return currency.Parse(c.Cookies(constants.PreferredCurrencyCookie))
}
