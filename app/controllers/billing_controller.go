package controllers

import (
	"context"

	"github.com/ManuelReschke/Storefront/internal/pkg/billing"
	"github.com/ManuelReschke/Storefront/internal/pkg/constants"
	"github.com/gofiber/fiber/v2"
)

// WebhookHandler processes signed payment provider deliveries.
type WebhookHandler interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*billing.Outcome, error)
}

// BillingController receives payment provider webhooks
type BillingController struct {
	billing WebhookHandler
}

// NewBillingController creates a new billing controller
func NewBillingController(svc WebhookHandler) *BillingController {
	return &BillingController{billing: svc}
}

// HandlePaymentWebhook answers POST /webhooks/payment-provider.
func (bc *BillingController) HandlePaymentWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := c.Get(constants.StripeSignatureHeader)

	ctx, cancel := requestContext(c)
	defer cancel()

	outcome, err := bc.billing.HandleWebhook(ctx, rawBody, signature)
	if err != nil {
		return respondError(c, err)
	}
	resp := fiber.Map{"received": true}
	if outcome.Duplicate {
		resp["duplicate"] = true
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}
