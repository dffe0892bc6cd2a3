package controllers

import (
	"context"
	"errors"

	"github.com/ManuelReschke/Storefront/internal/pkg/apperr"
	"github.com/ManuelReschke/Storefront/internal/pkg/checkout"
	"github.com/ManuelReschke/Storefront/internal/pkg/currency"
	"github.com/ManuelReschke/Storefront/internal/pkg/middleware"
	"github.com/ManuelReschke/Storefront/internal/pkg/ratelimit"
	"github.com/gofiber/fiber/v2"
)

// CheckoutStarter starts checkout attempts.
type CheckoutStarter interface {
	Start(ctx context.Context, req checkout.Request) (*checkout.Result, error)
}

// CheckoutController handles buyer checkout requests
type CheckoutController struct {
	checkout CheckoutStarter
}

// NewCheckoutController creates a new checkout controller
func NewCheckoutController(svc CheckoutStarter) *CheckoutController {
	return &CheckoutController{checkout: svc}
}

type checkoutRequest struct {
	ProductID     string `json:"productId"`
	CustomerEmail string `json:"customerEmail"`
	Locale        string `json:"locale"`
	Currency      string `json:"currency"`
}

// HandleCheckout answers POST /checkout with {sessionId, url}.
func (cc *CheckoutController) HandleCheckout(c *fiber.Ctx) error {
	var body checkoutRequest
	if err := c.BodyParser(&body); err != nil {
		return respondError(c, apperr.Validation("body", "request body must be valid JSON"))
	}

	cur := body.Currency
	if cur == "" {
		if pref, ok := cookieCurrency(c); ok {
			cur = pref.String()
		}
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := cc.checkout.Start(ctx, checkout.Request{
		ProductID:     body.ProductID,
		CustomerEmail: body.CustomerEmail,
		Locale:        requestLocale(c, body.Locale),
		Currency:      cur,
		ClientIP:      middleware.ClientIP(c),
	})
	if err != nil {
		var exceeded *ratelimit.ExceededError
		if errors.As(err, &exceeded) {
			middleware.SetRateLimitHeaders(c, exceeded.Result)
		}
		return respondError(c, err)
	}

	middleware.SetRateLimitHeaders(c, res.RateLimit)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"sessionId": res.SessionID,
		"url":       res.URL,
	})
}

// HandleCheckoutSuccess is the provider's return URL after payment. The order
// is settled by the webhook, so this only echoes the session.
func (cc *CheckoutController) HandleCheckoutSuccess(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "processing",
		"sessionId": c.Query("session_id"),
		"locale":    currency.NormalizeLocale(c.Params("locale")),
	})
}

// HandleCheckoutCancel is the provider's cancel URL.
func (cc *CheckoutController) HandleCheckoutCancel(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "cancelled",
		"product": c.Query("product"),
		"locale":  currency.NormalizeLocale(c.Params("locale")),
	})
}
