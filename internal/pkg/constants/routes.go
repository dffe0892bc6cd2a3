package constants

// Route constants
const (
	HealthRoute          = "/healthz"
	MetricsRoute         = "/metrics"
	CheckoutRoute        = "/checkout"
	PaymentWebhookRoute  = "/webhooks/payment-provider"
	CurrencyPrefRoute    = "/preferences/currency"
	APIRoute             = "/api"
	APIV1Route           = "/v1"
	ProductBySlugRoute   = "/products/:slug"
	AdminGroupRoute      = "/admin"
	AdminProductsRoute   = "/products"
	AdminProductRoute    = "/products/:id"
	AdminPricingRoute    = "/products/:id/pricing"
	AdminStatusRoute     = "/products/:id/status"
	AdminSyncRoute       = "/products/:id/sync"
	AdminOrderRoute      = "/orders/:id"
	AdminStatsRoute      = "/stats"
	CheckoutSuccessRoute = "/checkout/success"
	CheckoutCancelRoute  = "/checkout/cancel"
)

// Cookie and header names
const (
	PreferredCurrencyCookie = "preferred_currency"
	StripeSignatureHeader   = "Stripe-Signature"
	CountryHeaderCloudflare = "CF-IPCountry"
	CountryHeaderGeneric    = "X-Country-Code"
)
