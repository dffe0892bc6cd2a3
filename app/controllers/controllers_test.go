package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ManuelReschke/Storefront/app/models"
	"github.com/ManuelReschke/Storefront/internal/pkg/billing"
	"github.com/ManuelReschke/Storefront/internal/pkg/cache"
	"github.com/ManuelReschke/Storefront/internal/pkg/catalog"
	"github.com/ManuelReschke/Storefront/internal/pkg/checkout"
	"github.com/ManuelReschke/Storefront/internal/pkg/middleware"
	"github.com/ManuelReschke/Storefront/internal/pkg/payment"
	"github.com/ManuelReschke/Storefront/internal/pkg/pricing"
	"github.com/ManuelReschke/Storefront/internal/pkg/ratelimit"
	"github.com/ManuelReschke/Storefront/internal/pkg/testutil"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
)

const testWebhookSecret = "whsec_test_secret"

type testApp struct {
	app      *fiber.App
	store    *testutil.Store
	provider *testutil.FakeProvider
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	return newTestAppBehind(t, []string{"0.0.0.0"})
}

// newTestAppBehind builds the app with trusted as the proxy allow list.
// app.Test connects from 0.0.0.0.
func newTestAppBehind(t *testing.T, trusted []string) *testApp {
	t.Helper()
	store := testutil.NewStore()
	provider := testutil.NewFakeProvider()
	stripeProvider, err := payment.NewStripeProvider("sk_test_123", testWebhookSecret)
	require.NoError(t, err)

	syncer := pricing.NewSyncer(provider, store.Products(), cache.NewLocalLocker())
	checkoutSvc := checkout.NewService(store.Products(), store.Orders(), syncer, provider, ratelimit.NewMemoryLimiter(time.Minute), checkout.Config{
		AppURL:      "https://shop.example.com",
		MaxRequests: 2,
	})
	catalogSvc := catalog.NewService(store.Products(), store.Orders(), syncer)
	billingSvc := billing.NewService(stripeProvider, store.WebhookEvents(), store.Orders())

	app := fiber.New(middleware.WithTrustedProxies(fiber.Config{}, fiber.HeaderXForwardedFor, trusted))
	cc := NewCheckoutController(checkoutSvc)
	bc := NewBillingController(billingSvc)
	pc := NewPreferenceController(false)
	prc := NewProductController(catalogSvc)
	apc := NewAdminProductController(catalogSvc)
	aoc := NewAdminOrderController(store.Orders())

	app.Post("/checkout", cc.HandleCheckout)
	app.Post("/webhooks/payment-provider", bc.HandlePaymentWebhook)
	app.Get("/preferences/currency", pc.HandleGetCurrency)
	app.Post("/preferences/currency", pc.HandleSetCurrency)
	app.Get("/products/:slug", prc.HandleGetProduct)
	app.Post("/admin/products", apc.HandleCreateProduct)
	app.Get("/admin/products/:id", apc.HandleGetProduct)
	app.Put("/admin/products/:id/pricing", apc.HandleUpdatePricing)
	app.Put("/admin/products/:id/status", apc.HandleSetStatus)
	app.Post("/admin/products/:id/sync", apc.HandleSyncProduct)
	app.Delete("/admin/products/:id", apc.HandleDeleteProduct)
	app.Get("/admin/orders/:id", aoc.HandleGetOrder)

	return &testApp{app: app, store: store, provider: provider}
}

func (a *testApp) do(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	}
	return resp, body
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func newCheckoutReq(productID, ip string) *http.Request {
	req := jsonRequest(http.MethodPost, "/checkout", fmt.Sprintf(`{"productId": %q, "customerEmail": "buyer@example.com", "locale": "tr"}`, productID))
	req.Header.Set(fiber.HeaderXForwardedFor, ip)
	return req
}

func TestHandleCheckout_ReturnsSession(t *testing.T) {
	a := newTestApp(t)
	product := testutil.SeedProduct(t, a.store, "logo", "USD", map[string]string{"USD": "1200.00", "TRY": "41808.00"})

	resp, body := a.do(t, newCheckoutReq(product.ID, "10.0.0.1"))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["sessionId"])
	assert.Equal(t, "https://pay.example.test/"+body["sessionId"].(string), body["url"])
	assert.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", resp.Header.Get("X-RateLimit-Remaining"))
	assert.Equal(t, 1, a.store.OrderCount())
}

func TestHandleCheckout_ThirdRequestIsRateLimited(t *testing.T) {
	a := newTestApp(t)
	product := testutil.SeedProduct(t, a.store, "logo", "USD", map[string]string{"USD": "1200.00", "TRY": "41808.00"})

	for i := 0; i < 2; i++ {
		resp, _ := a.do(t, newCheckoutReq(product.ID, "10.0.0.1"))
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, body := a.do(t, newCheckoutReq(product.ID, "10.0.0.1"))
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "rate_limited", body["code"])
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderRetryAfter))
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))
	assert.Equal(t, 2, a.store.OrderCount())

	other, _ := a.do(t, newCheckoutReq(product.ID, "10.0.0.2"))
	assert.Equal(t, fiber.StatusOK, other.StatusCode)
}

func TestHandleCheckout_ForgedForwardedForDoesNotEvadeLimit(t *testing.T) {
	a := newTestAppBehind(t, []string{"10.0.0.1"})
	product := testutil.SeedProduct(t, a.store, "logo", "USD", map[string]string{"USD": "1200.00"})

	accepted := 0
	for i := 1; i <= 10; i++ {
		resp, _ := a.do(t, newCheckoutReq(product.ID, fmt.Sprintf("203.0.113.%d", i)))
		if resp.StatusCode == fiber.StatusOK {
			accepted++
		}
	}
	assert.Equal(t, 2, accepted)
	assert.Equal(t, 2, a.store.OrderCount())
}

func TestHandleCheckout_ValidationErrors(t *testing.T) {
	a := newTestApp(t)

	resp, body := a.do(t, jsonRequest(http.MethodPost, "/checkout", `{"customerEmail": "buyer@example.com"}`))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", body["code"])

	resp, body = a.do(t, jsonRequest(http.MethodPost, "/checkout", `{not json`))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "body", body["field"])
	assert.Equal(t, 0, a.store.OrderCount())
}

func TestHandleCheckout_UnknownProduct(t *testing.T) {
	a := newTestApp(t)
	resp, body := a.do(t, newCheckoutReq("missing", "10.0.0.1"))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", body["code"])
}

func TestHandleCheckout_UsesCurrencyCookie(t *testing.T) {
	a := newTestApp(t)
	product := testutil.SeedProduct(t, a.store, "logo", "USD", map[string]string{"USD": "1200.00", "TRY": "41808.00", "BRL": "6739.20"})

	req := newCheckoutReq(product.ID, "10.0.0.1")
	req.AddCookie(&http.Cookie{Name: "preferred_currency", Value: "BRL"})
	resp, _ := a.do(t, req)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.Len(t, a.provider.PricesCreated, 1)
	assert.Equal(t, "BRL", a.provider.PricesCreated[0].Input.Currency)
}

func TestHandleCheckout_ProviderFailureIsGeneric(t *testing.T) {
	a := newTestApp(t)
	a.provider.SessionErr = fmt.Errorf("stripe: card network down")
	product := testutil.SeedProduct(t, a.store, "logo", "USD", map[string]string{"USD": "1200.00"})

	resp, body := a.do(t, newCheckoutReq(product.ID, "10.0.0.1"))
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal", body["code"])
	assert.NotContains(t, body["error"], "stripe")
}

func webhookPayload(eventID, eventType, orderID string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"object": "event",
		"type": %q,
		"data": {"object": {"id": "cs_test_1", "object": "checkout.session", "payment_intent": "pi_1", "metadata": {"order_id": %q}}}
	}`, eventID, eventType, orderID))
}

func webhookRequest(payload []byte, secret string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment-provider", strings.NewReader(string(payload)))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("Stripe-Signature", webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: secret}).Header)
	return req
}

func TestHandlePaymentWebhook_CompletesOrderOnce(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	order := &models.Order{CustomerEmail: "buyer@example.com", TotalAmount: "10.00", Currency: "USD", Status: models.OrderStatusPending}
	require.NoError(t, a.store.Orders().Create(ctx, order))
	payload := webhookPayload("evt_1", payment.EventCheckoutCompleted, order.ID)

	resp, body := a.do(t, webhookRequest(payload, testWebhookSecret))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["received"])
	assert.NotContains(t, body, "duplicate")

	stored, err := a.store.Orders().GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, stored.Status)

	resp, body = a.do(t, webhookRequest(payload, testWebhookSecret))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["duplicate"])
}

func TestHandlePaymentWebhook_BadSignature(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	order := &models.Order{CustomerEmail: "buyer@example.com", TotalAmount: "10.00", Currency: "USD", Status: models.OrderStatusPending}
	require.NoError(t, a.store.Orders().Create(ctx, order))

	resp, _ := a.do(t, webhookRequest(webhookPayload("evt_1", payment.EventCheckoutCompleted, order.ID), "whsec_other"))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	stored, err := a.store.Orders().GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, stored.Status)
	assert.Empty(t, a.store.WebhookEvents().Events())
}

func TestPreferenceCurrency(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/preferences/currency", nil)
	req.Header.Set(fiber.HeaderAcceptLanguage, "tr-TR,tr;q=0.9,en;q=0.5")
	_, body := a.do(t, req)
	assert.Equal(t, "TRY", body["currency"])

	req = httptest.NewRequest(http.MethodGet, "/preferences/currency", nil)
	req.Header.Set("CF-IPCountry", "BR")
	_, body = a.do(t, req)
	assert.Equal(t, "BRL", body["currency"])

	req = httptest.NewRequest(http.MethodGet, "/preferences/currency?locale=tr", nil)
	req.AddCookie(&http.Cookie{Name: "preferred_currency", Value: "BRL"})
	_, body = a.do(t, req)
	assert.Equal(t, "BRL", body["currency"])
}

func TestPreferenceCurrency_SetNormalizes(t *testing.T) {
	a := newTestApp(t)

	resp, body := a.do(t, jsonRequest(http.MethodPost, "/preferences/currency", `{"currency": " try "}`))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "TRY", body["currency"])
	cookie := resp.Header.Get(fiber.HeaderSetCookie)
	assert.Contains(t, cookie, "preferred_currency=TRY")
	assert.Contains(t, strings.ToLower(cookie), "samesite=lax")

	_, body = a.do(t, jsonRequest(http.MethodPost, "/preferences/currency", `{"currency": "EUR"}`))
	assert.Equal(t, "USD", body["currency"])
}

func TestHandleGetProduct_LocalizedPrice(t *testing.T) {
	a := newTestApp(t)
	testutil.SeedProduct(t, a.store, "logo", "USD", map[string]string{"USD": "1200.00", "TRY": "41808.00"})

	resp, body := a.do(t, httptest.NewRequest(http.MethodGet, "/products/logo?locale=tr&currency=TRY", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "logo", body["slug"])
	assert.Equal(t, "tr", body["locale"])
	price := body["price"].(map[string]any)
	assert.Equal(t, "TRY", price["currency"])
	assert.Equal(t, "41808.00", price["amount"])
	assert.Len(t, body["prices"], 2)

	// BRL has no entry, so the view falls back to the base currency.
	_, body = a.do(t, httptest.NewRequest(http.MethodGet, "/products/logo?currency=BRL", nil))
	assert.Equal(t, "USD", body["price"].(map[string]any)["currency"])
}

func TestHandleGetProduct_DraftIsHidden(t *testing.T) {
	a := newTestApp(t)
	product := testutil.SeedProduct(t, a.store, "logo", "USD", map[string]string{"USD": "1200.00"})
	require.NoError(t, a.store.Products().UpdateStatus(context.Background(), product.ID, models.ProductStatusDraft))

	resp, _ := a.do(t, httptest.NewRequest(http.MethodGet, "/products/logo", nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAdminProductLifecycle(t *testing.T) {
	a := newTestApp(t)

	resp, body := a.do(t, jsonRequest(http.MethodPost, "/admin/products", `{
		"slug": "brand-kit",
		"status": "published",
		"basePrice": "100",
		"baseCurrency": "USD",
		"overrides": {"TRY": "3000.00"},
		"translations": [{"locale": "en", "title": "Brand kit"}]
	}`))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body)
	id := body["id"].(string)
	require.NotEmpty(t, id)

	resp, body = a.do(t, jsonRequest(http.MethodPost, "/admin/products", `{
		"slug": "brand-kit",
		"basePrice": "100",
		"baseCurrency": "USD",
		"translations": [{"locale": "en", "title": "Again"}]
	}`))
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "conflict", body["code"])

	resp, _ = a.do(t, jsonRequest(http.MethodPost, "/admin/products/"+id+"/sync", ``))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, a.provider.ProductCount())
	assert.Equal(t, 3, a.provider.PriceCount())

	resp, _ = a.do(t, jsonRequest(http.MethodPut, "/admin/products/"+id+"/pricing", `{"basePrice": "120", "baseCurrency": "USD", "overrides": {"TRY": "3000.00"}}`))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, a.provider.PricesArchived)

	resp, body = a.do(t, jsonRequest(http.MethodPut, "/admin/products/"+id+"/status", `{"status": "bogus"}`))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", body["code"])

	resp, _ = a.do(t, httptest.NewRequest(http.MethodDelete, "/admin/products/"+id, nil))
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, _ = a.do(t, httptest.NewRequest(http.MethodGet, "/admin/products/"+id, nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAdminDeleteProduct_RefusedWhileOrdered(t *testing.T) {
	a := newTestApp(t)
	product := testutil.SeedProduct(t, a.store, "logo", "USD", map[string]string{"USD": "1200.00"})

	resp, _ := a.do(t, newCheckoutReq(product.ID, "10.0.0.1"))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body := a.do(t, httptest.NewRequest(http.MethodDelete, "/admin/products/"+product.ID, nil))
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "conflict", body["code"])
}

func TestAdminGetOrder(t *testing.T) {
	a := newTestApp(t)
	product := testutil.SeedProduct(t, a.store, "logo", "USD", map[string]string{"USD": "1200.00"})
	_, _ = a.do(t, newCheckoutReq(product.ID, "10.0.0.1"))

	var orderID string
	for _, s := range a.provider.SessionsCreated {
		orderID = s.Metadata[payment.MetadataOrderID]
	}
	require.NotEmpty(t, orderID)

	resp, body := a.do(t, httptest.NewRequest(http.MethodGet, "/admin/orders/"+orderID, nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "pending", body["status"])

	resp, _ = a.do(t, httptest.NewRequest(http.MethodGet, "/admin/orders/unknown", nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
