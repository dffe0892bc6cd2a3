package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ManuelReschke/Storefront/internal/pkg/billing"
	"github.com/ManuelReschke/Storefront/internal/pkg/cache"
	"github.com/ManuelReschke/Storefront/internal/pkg/catalog"
	"github.com/ManuelReschke/Storefront/internal/pkg/checkout"
	"github.com/ManuelReschke/Storefront/internal/pkg/config"
	"github.com/ManuelReschke/Storefront/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/Storefront/internal/pkg/payment"
	"github.com/ManuelReschke/Storefront/internal/pkg/pricing"
	"github.com/ManuelReschke/Storefront/internal/pkg/ratelimit"
	"github.com/ManuelReschke/Storefront/internal/pkg/testutil"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestApp(t *testing.T, cfg *config.Config) (*fiber.App, *testutil.Store) {
	t.Helper()
	store := testutil.NewStore()
	provider := testutil.NewFakeProvider()
	stripeProvider, err := payment.NewStripeProvider("sk_test_123", "whsec_test_secret")
	require.NoError(t, err)

	limiter := ratelimit.NewMemoryLimiter(time.Minute)
	syncer := pricing.NewSyncer(provider, store.Products(), cache.NewLocalLocker())
	catalogSvc := catalog.NewService(store.Products(), store.Orders(), syncer)
	counters := counter.NewMemory()

	app := fiber.New()
	InstallRouter(app, Dependencies{
		Config:   cfg,
		Checkout: checkout.NewService(store.Products(), store.Orders(), syncer, provider, limiter, checkout.Config{AppURL: cfg.AppURL, MaxRequests: cfg.CheckoutRateLimit}).WithCounters(counters),
		Billing:  billing.NewService(stripeProvider, store.WebhookEvents(), store.Orders()).WithCounters(counters),
		Catalog:  catalogSvc,
		Products: catalogSvc,
		Orders:   store.Orders(),
		Limiter:  limiter,
		Counters: counters,
	})
	return app, store
}

func baseConfig() *config.Config {
	return &config.Config{
		AppURL:            "https://shop.example.com",
		CheckoutRateLimit: 2,
		APIRateLimit:      60,
	}
}

func TestHealthRoute(t *testing.T) {
	app, _ := newTestApp(t, baseConfig())
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestPublicRoutesAreInstalled(t *testing.T) {
	app, store := newTestApp(t, baseConfig())
	testutil.SeedProduct(t, store, "logo", "USD", map[string]string{"USD": "10.00"})

	tests := []struct {
		method string
		target string
		want   int
	}{
		{http.MethodGet, "/preferences/currency", fiber.StatusOK},
		{http.MethodGet, "/api/v1/products/logo", fiber.StatusOK},
		{http.MethodGet, "/api/v1/products/missing", fiber.StatusNotFound},
		{http.MethodGet, "/tr/checkout/success?session_id=cs_1", fiber.StatusOK},
		{http.MethodGet, "/en/checkout/cancel?product=logo", fiber.StatusOK},
		{http.MethodPost, "/webhooks/payment-provider", fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(tt.method, tt.target, strings.NewReader("{}")), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestAdminRoutesDisabledWithoutCredentials(t *testing.T) {
	app, _ := newTestApp(t, baseConfig())
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders/abc", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAdminRoutesRequireBasicAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := baseConfig()
	cfg.AdminUser = "admin"
	cfg.AdminPasswordHash = string(hash)
	app, store := newTestApp(t, cfg)
	product := testutil.SeedProduct(t, store, "logo", "USD", map[string]string{"USD": "10.00"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/products/"+product.ID, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/products/"+product.ID, nil)
	req.SetBasicAuth("admin", "wrong")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/products/"+product.ID, nil)
	req.SetBasicAuth("admin", "s3cret")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	req.SetBasicAuth("admin", "s3cret")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestApiLimiter(t *testing.T) {
	cfg := baseConfig()
	cfg.APIRateLimit = 1
	app, _ := newTestApp(t, cfg)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestCurrencyPreferenceWriteIsRateLimited(t *testing.T) {
	app, _ := newTestApp(t, baseConfig())

	var last int
	for i := 0; i < preferenceRateLimit+1; i++ {
		req := httptest.NewRequest(http.MethodPost, "/preferences/currency?currency=TRY", nil)
		req.Header.Set(fiber.HeaderXForwardedFor, "192.0.2.10")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		last = resp.StatusCode
	}
	assert.Equal(t, fiber.StatusTooManyRequests, last)
}
