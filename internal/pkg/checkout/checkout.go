// Package checkout turns a buyer's request into a pending order and a
// hosted payment session.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ManuelReschke/Storefront/app/models"
	"github.com/ManuelReschke/Storefront/app/repository"
	"github.com/ManuelReschke/Storefront/internal/pkg/apperr"
	"github.com/ManuelReschke/Storefront/internal/pkg/currency"
	"github.com/ManuelReschke/Storefront/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/Storefront/internal/pkg/payment"
	"github.com/ManuelReschke/Storefront/internal/pkg/ratelimit"
	"github.com/ManuelReschke/Storefront/internal/pkg/validation"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

// DefaultMaxRequests is the per-IP checkout ceiling per window.
const DefaultMaxRequests = 2

// ErrCurrencyUnavailable is the buyer-facing text when a product has no price.
const ErrCurrencyUnavailable = "this product is not available in the selected currency"

// Request is a buyer's checkout attempt. Currency may be empty, in which case
// the locale decides.
type Request struct {
	ProductID     string `json:"productId" validate:"required"`
	CustomerEmail string `json:"customerEmail" validate:"required,email"`
	Locale        string `json:"locale"`
	Currency      string `json:"currency"`
	ClientIP      string `json:"-"`
}

// Result is returned on success.
type Result struct {
	SessionID string
	URL       string
	OrderID   string
	Currency  currency.Code
	Amount    string
	RateLimit ratelimit.Result
}

// PriceResolver returns a product's currency entry with its remote price id
// set. The order is priced from the returned entry.
type PriceResolver interface {
	EnsureCheckoutPrice(ctx context.Context, product *models.Product, currency string) (*models.ProductPrice, error)
}

// Config holds the checkout settings.
type Config struct {
	AppURL      string
	MaxRequests int
}

// Service runs checkout attempts.
type Service struct {
	products repository.ProductRepository
	orders   repository.OrderRepository
	prices   PriceResolver
	provider payment.Provider
	limiter  ratelimit.Limiter
	cfg      Config
	counters counter.Recorder
	now      func() time.Time
}

func NewService(
	products repository.ProductRepository,
	orders repository.OrderRepository,
	prices PriceResolver,
	provider payment.Provider,
	limiter ratelimit.Limiter,
	cfg Config,
) *Service {
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = DefaultMaxRequests
	}
	cfg.AppURL = strings.TrimRight(cfg.AppURL, "/")
	return &Service{
		products: products,
		orders:   orders,
		prices:   prices,
		provider: provider,
		limiter:  limiter,
		cfg:      cfg,
		counters: counter.NewMemory(),
		now:      time.Now,
	}
}

// WithCounters replaces the in-process outcome counters.
func (s *Service) WithCounters(r counter.Recorder) *Service {
	s.counters = r
	return s
}

// Start validates and rate-limits the request, snapshots the resolved price
// into a pending order and opens a remote checkout session for it.
func (s *Service) Start(ctx context.Context, req Request) (*Result, error) {
	req.ProductID = strings.TrimSpace(req.ProductID)
	req.CustomerEmail = strings.TrimSpace(req.CustomerEmail)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	limit, err := s.limiter.Check(ctx, "checkout:"+req.ClientIP, s.cfg.MaxRequests)
	if err != nil {
		fiberlog.Errorf("[Checkout] Rate limiter failed: %v", err)
		return nil, apperr.Internal(err)
	}
	if !limit.Allowed {
		fiberlog.Warnf("[Checkout] Rate limit exceeded for %s", req.ClientIP)
		return nil, ratelimit.Exceeded(limit, s.now())
	}

	locale := currency.NormalizeLocale(req.Locale)
	wanted := currency.ResolvePreferred(currency.Preference{Locale: req.Locale})
	if req.Currency != "" {
		wanted = currency.Normalize(req.Currency)
	}

	product, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, s.internal("load product", err)
	}
	if !product.IsPurchasable() {
		return nil, apperr.NotFound("product not found")
	}

	resolved := ResolvePrice(product, wanted)
	if resolved == nil {
		return nil, apperr.Unavailable(ErrCurrencyUnavailable)
	}

	entry, err := s.prices.EnsureCheckoutPrice(ctx, product, resolved.Currency)
	if err != nil {
		return nil, s.internal("sync remote price", err)
	}

	order := &models.Order{
		CustomerEmail: req.CustomerEmail,
		TotalAmount:   entry.Amount,
		Currency:      entry.Currency,
		Status:        models.OrderStatusPending,
		Locale:        locale,
		Items: []models.OrderItem{{
			ProductID:    product.ID,
			ProductSlug:  product.Slug,
			ProductTitle: product.Title(locale),
			Quantity:     1,
			Price:        entry.Amount,
			Currency:     entry.Currency,
		}},
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, s.internal("create order", err)
	}

	sess, err := s.provider.CreateCheckoutSession(ctx, payment.CheckoutSessionInput{
		PriceID:           entry.RemoteID(),
		Quantity:          1,
		CustomerEmail:     req.CustomerEmail,
		SuccessURL:        s.successURL(locale),
		CancelURL:         s.cancelURL(locale, product.Slug),
		ClientReferenceID: order.ID,
		Metadata:          map[string]string{payment.MetadataOrderID: order.ID},
	})
	if err != nil {
		return nil, s.internal("create checkout session for order "+order.ID, err)
	}

	if err := s.orders.SetCheckoutSession(ctx, order.ID, sess.ID, sess.PaymentIntentID); err != nil {
		return nil, s.internal("store session for order "+order.ID, err)
	}

	if err := s.counters.Add(ctx, counter.CheckoutStarted, entry.Currency); err != nil {
		fiberlog.Warnf("[Checkout] Failed to count session for order %s: %v", order.ID, err)
	}
	fiberlog.Infof("[Checkout] Order %s pending with session %s (%s %s)", order.ID, sess.ID, entry.Amount, entry.Currency)
	return &Result{
		SessionID: sess.ID,
		URL:       sess.URL,
		OrderID:   order.ID,
		Currency:  currency.Code(entry.Currency),
		Amount:    entry.Amount,
		RateLimit: limit,
	}, nil
}

// ResolvePrice picks the entry for wanted, then the base currency entry,
// then the first entry. It returns nil when the product has no prices.
func ResolvePrice(product *models.Product, wanted currency.Code) *models.ProductPrice {
	if entry, ok := product.PriceFor(wanted.String()); ok {
		return entry
	}
	if entry, ok := product.PriceFor(product.BaseCurrency); ok {
		return entry
	}
	if len(product.Prices) > 0 {
		return &product.Prices[0]
	}
	return nil
}

func (s *Service) successURL(locale string) string {
	return fmt.Sprintf("%s/%s/checkout/success?session_id=%s", s.cfg.AppURL, locale, payment.SessionIDPlaceholder)
}

func (s *Service) cancelURL(locale, slug string) string {
	return fmt.Sprintf("%s/%s/checkout/cancel?product=%s", s.cfg.AppURL, locale, url.QueryEscape(slug))
}

func (s *Service) internal(step string, err error) error {
	fiberlog.Errorf("[Checkout] %s: %v", step, err)
	return apperr.Internal(err)
}
