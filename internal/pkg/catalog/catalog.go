// Package catalog implements the admin-side product operations: creation,
// pricing edits, publication and guarded deletion.
package catalog

import (
	"context"
	"errors"
	"sort"

	"github.com/ManuelReschke/Storefront/app/models"
	"github.com/ManuelReschke/Storefront/app/repository"
	"github.com/ManuelReschke/Storefront/internal/pkg/apperr"
	"github.com/ManuelReschke/Storefront/internal/pkg/currency"
	"github.com/ManuelReschke/Storefront/internal/pkg/pricing"
	"github.com/ManuelReschke/Storefront/internal/pkg/validation"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

// TranslationInput is the localized copy of a product.
type TranslationInput struct {
	Locale      string   `json:"locale" validate:"required,max=16"`
	Title       string   `json:"title" validate:"required,max=255"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
}

// PricingInput is the authored price of a product. Overrides are keyed by
// currency code; an override for the base currency is ignored.
type PricingInput struct {
	BasePrice    string            `json:"basePrice" validate:"required"`
	BaseCurrency string            `json:"baseCurrency" validate:"required"`
	Overrides    map[string]string `json:"overrides"`
}

// CreateProductInput is the admin payload for a new product.
type CreateProductInput struct {
	Slug         string             `json:"slug" validate:"required,max=191"`
	Type         string             `json:"type" validate:"omitempty,oneof=product service portfolio"`
	Status       string             `json:"status" validate:"omitempty,oneof=draft published archived"`
	Translations []TranslationInput `json:"translations" validate:"required,min=1,dive"`
	PricingInput
}

// Service coordinates product persistence with the price syncer.
type Service struct {
	products repository.ProductRepository
	orders   repository.OrderRepository
	syncer   *pricing.Syncer
}

func NewService(products repository.ProductRepository, orders repository.OrderRepository, syncer *pricing.Syncer) *Service {
	return &Service{products: products, orders: orders, syncer: syncer}
}

// CreateProduct validates the input, expands the price map and stores the product.
func (s *Service) CreateProduct(ctx context.Context, in CreateProductInput) (*models.Product, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if !validSlug(in.Slug) {
		return nil, apperr.Validation("slug", "slug may only contain lowercase letters, digits and dashes")
	}
	base, baseAmount, prices, err := buildPrices(in.PricingInput)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Slug:         in.Slug,
		Type:         defaultString(in.Type, models.ProductTypeProduct),
		Status:       defaultString(in.Status, models.ProductStatusDraft),
		BasePrice:    baseAmount,
		BaseCurrency: base.String(),
		Prices:       prices,
	}
	seen := make(map[string]bool, len(in.Translations))
	for _, t := range in.Translations {
		locale := currency.NormalizeLocale(t.Locale)
		if seen[locale] {
			return nil, apperr.Validation("translations", "duplicate translation for locale "+locale)
		}
		seen[locale] = true
		tr := models.ProductTranslation{Locale: locale, Title: t.Title, Description: t.Description}
		tr.SetFeatures(t.Features)
		product.Translations = append(product.Translations, tr)
	}

	if err := s.products.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlug) {
			return nil, apperr.Conflict("a product with this slug already exists")
		}
		return nil, apperr.Internal(err)
	}
	return s.GetProduct(ctx, product.ID)
}

// UpdatePricing replaces base price, base currency and overrides and
// regenerates every price entry. Remote prices whose amount changed are
// archived best-effort.
func (s *Service) UpdatePricing(ctx context.Context, productID string, in PricingInput) (*models.Product, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	base, baseAmount, prices, err := buildPrices(in)
	if err != nil {
		return nil, err
	}

	stale, err := s.products.ReplacePricing(ctx, productID, repository.PricingUpdate{
		BasePrice:    baseAmount,
		BaseCurrency: base.String(),
		Prices:       prices,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, apperr.Internal(err)
	}
	if len(stale) > 0 {
		fiberlog.Infof("[Catalog] Product %s pricing changed, archiving %d remote prices", productID, len(stale))
		s.syncer.ArchivePrices(ctx, stale)
	}
	return s.GetProduct(ctx, productID)
}

// SetStatus moves a product between draft, published and archived.
func (s *Service) SetStatus(ctx context.Context, productID, status string) (*models.Product, error) {
	switch status {
	case models.ProductStatusDraft, models.ProductStatusPublished, models.ProductStatusArchived:
	default:
		return nil, apperr.Validation("status", "status must be one of: draft published archived")
	}
	if err := s.products.UpdateStatus(ctx, productID, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, apperr.Internal(err)
	}
	return s.GetProduct(ctx, productID)
}

// SyncProduct pushes the product and every price entry to the provider.
func (s *Service) SyncProduct(ctx context.Context, productID string) (*models.Product, error) {
	product, err := s.syncer.SyncProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		fiberlog.Errorf("[Catalog] Sync of product %s failed: %v", productID, err)
		return nil, apperr.Internal(err)
	}
	return product, nil
}

// DeleteProduct removes a product unless an order item references it.
func (s *Service) DeleteProduct(ctx context.Context, productID string) error {
	refs, err := s.orders.CountItemsForProduct(ctx, productID)
	if err != nil {
		return apperr.Internal(err)
	}
	if refs > 0 {
		return apperr.Conflict("product is referenced by existing orders and cannot be deleted")
	}
	if err := s.products.Delete(ctx, productID); err != nil {
		switch {
		case errors.Is(err, repository.ErrProductInUse):
			return apperr.Conflict("product is referenced by existing orders and cannot be deleted")
		case errors.Is(err, gorm.ErrRecordNotFound):
			return apperr.NotFound("product not found")
		default:
			return apperr.Internal(err)
		}
	}
	return nil
}

// GetProduct loads a product regardless of status.
func (s *Service) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, apperr.Internal(err)
	}
	return product, nil
}

// GetPublishedBySlug loads a product buyers may see.
func (s *Service) GetPublishedBySlug(ctx context.Context, slug string) (*models.Product, error) {
	product, err := s.products.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, apperr.Internal(err)
	}
	if !product.IsPurchasable() {
		return nil, apperr.NotFound("product not found")
	}
	return product, nil
}

// buildPrices validates the pricing input and returns one entry per
// supported currency in a stable order.
func buildPrices(in PricingInput) (currency.Code, string, []models.ProductPrice, error) {
	base, ok := currency.Parse(in.BaseCurrency)
	if !ok {
		return "", "", nil, apperr.Validation("baseCurrency", "baseCurrency is not supported")
	}
	baseAmount, ok := positiveAmount(in.BasePrice)
	if !ok {
		return "", "", nil, apperr.Validation("basePrice", "basePrice must be a positive amount")
	}

	overrides := make(map[currency.Code]string, len(in.Overrides))
	for code, raw := range in.Overrides {
		c, ok := currency.Parse(code)
		if !ok {
			return "", "", nil, apperr.Validation("overrides", "unsupported override currency "+code)
		}
		if c == base {
			continue
		}
		amount, ok := positiveAmount(raw)
		if !ok {
			return "", "", nil, apperr.Validation("overrides", "override for "+c.String()+" must be a positive amount")
		}
		overrides[c] = amount
	}

	baseValue, _ := currency.ParseAmount(baseAmount)
	priceMap := currency.GeneratePriceMap(baseValue, base, overrides)

	codes := make([]string, 0, len(priceMap))
	for c := range priceMap {
		codes = append(codes, c.String())
	}
	sort.Strings(codes)

	prices := make([]models.ProductPrice, 0, len(codes))
	for _, code := range codes {
		c := currency.Code(code)
		_, isOverride := overrides[c]
		prices = append(prices, models.ProductPrice{
			Currency:   code,
			Amount:     priceMap[c],
			IsOverride: isOverride,
		})
	}
	return base, baseAmount, prices, nil
}

func positiveAmount(raw string) (string, bool) {
	normalized, ok := currency.NormalizeAmount(raw)
	if !ok {
		return "", false
	}
	v, ok := currency.ParseAmount(normalized)
	if !ok || v <= 0 {
		return "", false
	}
	return normalized, true
}

func validSlug(slug string) bool {
	if slug == "" || slug[0] == '-' || slug[len(slug)-1] == '-' {
		return false
	}
	for _, r := range slug {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return false
		}
	}
	return true
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
