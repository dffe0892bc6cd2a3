package router

import (
	"strings"

	"github.com/ManuelReschke/Storefront/app/controllers"
	"github.com/ManuelReschke/Storefront/internal/pkg/constants"
	"github.com/ManuelReschke/Storefront/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
)

// preferenceRateLimit caps preference writes per IP and minute.
const preferenceRateLimit = 30

type HttpRouter struct {
	deps Dependencies
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	checkoutController := controllers.NewCheckoutController(h.deps.Checkout)
	billingController := controllers.NewBillingController(h.deps.Billing)
	preferenceController := controllers.NewPreferenceController(strings.HasPrefix(h.deps.Config.AppURL, "https://"))

	app.Get(constants.HealthRoute, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get(constants.CurrencyPrefRoute, preferenceController.HandleGetCurrency)
	app.Post(constants.CurrencyPrefRoute,
		middleware.RateLimit(h.deps.Limiter, "currency", preferenceRateLimit),
		preferenceController.HandleSetCurrency)

	app.Post(constants.CheckoutRoute, checkoutController.HandleCheckout)
	app.Get("/:locale"+constants.CheckoutSuccessRoute, checkoutController.HandleCheckoutSuccess)
	app.Get("/:locale"+constants.CheckoutCancelRoute, checkoutController.HandleCheckoutCancel)

	// Signature-verified in the controller.
	app.Post(constants.PaymentWebhookRoute, billingController.HandlePaymentWebhook)
}

func NewHttpRouter(deps Dependencies) *HttpRouter {
	return &HttpRouter{deps: deps}
}
