// Package pricing keeps local products and price entries in step with the
// payment provider's remote product and price objects.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ManuelReschke/Storefront/app/models"
	"github.com/ManuelReschke/Storefront/app/repository"
	"github.com/ManuelReschke/Storefront/internal/pkg/cache"
	"github.com/ManuelReschke/Storefront/internal/pkg/payment"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// ErrNoPriceEntry is returned when a product has no entry for a currency.
var ErrNoPriceEntry = errors.New("product has no price entry for currency")

const defaultLockTTL = 30 * time.Second

// Syncer creates remote objects lazily and persists their ids so every
// (product, currency) pair maps to at most one remote price.
type Syncer struct {
	provider payment.Provider
	products repository.ProductRepository
	locker   cache.Locker
	lockTTL  time.Duration
}

// NewSyncer wires the syncer. A nil locker falls back to an in-process lock.
func NewSyncer(provider payment.Provider, products repository.ProductRepository, locker cache.Locker) *Syncer {
	if locker == nil {
		locker = cache.NewLocalLocker()
	}
	return &Syncer{
		provider: provider,
		products: products,
		locker:   locker,
		lockTTL:  defaultLockTTL,
	}
}

// EnsureRemoteProduct updates the remote product when existingID is set and
// returns it unchanged, otherwise creates a new remote product. Persisting a
// new id is the caller's job.
func (s *Syncer) EnsureRemoteProduct(ctx context.Context, existingID string, in payment.ProductInput) (string, error) {
	if existingID != "" {
		if err := s.provider.UpdateProduct(ctx, existingID, in); err != nil {
			return "", err
		}
		return existingID, nil
	}
	return s.provider.CreateProduct(ctx, in)
}

// EnsureRemotePrice returns existingPriceID when set. Otherwise it creates a
// remote price for amount, sent in minor units.
func (s *Syncer) EnsureRemotePrice(ctx context.Context, remoteProductID, currency, amount, existingPriceID string, metadata map[string]string) (string, error) {
	if existingPriceID != "" {
		return existingPriceID, nil
	}
	unit, err := payment.ToMinorUnits(amount)
	if err != nil {
		return "", err
	}
	return s.provider.CreatePrice(ctx, remoteProductID, payment.PriceInput{
		Currency:   currency,
		UnitAmount: unit,
		Metadata:   metadata,
	})
}

// EnsureCheckoutPrice returns the product's entry in currency with its remote
// price id set, creating and persisting the remote product and price on first
// use. First use is serialized per product. The returned entry is the one the
// remote price was created from, so its amount is what the customer pays.
func (s *Syncer) EnsureCheckoutPrice(ctx context.Context, product *models.Product, currency string) (*models.ProductPrice, error) {
	if entry, ok := product.PriceFor(currency); ok && product.ProviderProductID != nil && entry.RemoteID() != "" {
		synced := *entry
		return &synced, nil
	}

	release, err := s.locker.Acquire(ctx, lockKey(product.ID), s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	defer release()

	fresh, err := s.products.GetByID(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	remoteProductID, err := s.persistRemoteProduct(ctx, fresh, false)
	if err != nil {
		return nil, err
	}
	entry, ok := fresh.PriceFor(currency)
	if !ok {
		return nil, ErrNoPriceEntry
	}
	return s.persistRemotePrice(ctx, fresh, entry, remoteProductID)
}

// SyncProduct pushes product details to the provider and makes sure every
// price entry has a remote price. The refreshed product is returned.
func (s *Syncer) SyncProduct(ctx context.Context, productID string) (*models.Product, error) {
	release, err := s.locker.Acquire(ctx, lockKey(productID), s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	defer release()

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	remoteProductID, err := s.persistRemoteProduct(ctx, product, true)
	if err != nil {
		return nil, err
	}
	for i := range product.Prices {
		if _, err := s.persistRemotePrice(ctx, product, &product.Prices[i], remoteProductID); err != nil {
			return nil, fmt.Errorf("sync %s price: %w", product.Prices[i].Currency, err)
		}
	}
	return s.products.GetByID(ctx, productID)
}

// ArchivePrices deactivates remote prices that no longer back an entry.
// Failures are logged and skipped.
func (s *Syncer) ArchivePrices(ctx context.Context, priceIDs []string) {
	for _, id := range priceIDs {
		if err := s.provider.ArchivePrice(ctx, id); err != nil {
			fiberlog.Warnf("[Pricing] Failed to archive remote price %s: %v", id, err)
		}
	}
}

// persistRemoteProduct returns the product's remote id, creating it if
// needed. With refresh set, an existing remote product is updated in place.
func (s *Syncer) persistRemoteProduct(ctx context.Context, product *models.Product, refresh bool) (string, error) {
	var existing string
	if product.ProviderProductID != nil {
		existing = *product.ProviderProductID
	}
	if existing != "" && !refresh {
		return existing, nil
	}

	remoteID, err := s.EnsureRemoteProduct(ctx, existing, productInput(product))
	if err != nil {
		return "", err
	}
	if existing != "" {
		return existing, nil
	}

	won, err := s.products.SetProviderProductID(ctx, product.ID, remoteID)
	if err != nil {
		return "", err
	}
	if !won {
		stored, err := s.products.GetByID(ctx, product.ID)
		if err != nil {
			return "", err
		}
		if stored.ProviderProductID != nil && *stored.ProviderProductID != "" {
			fiberlog.Warnf("[Pricing] Remote product %s lost the race for product %s, reusing %s", remoteID, product.ID, *stored.ProviderProductID)
			if err := s.provider.ArchiveProduct(ctx, remoteID); err != nil {
				fiberlog.Warnf("[Pricing] Failed to archive orphan remote product %s: %v", remoteID, err)
			}
			remoteID = *stored.ProviderProductID
		}
	}
	product.ProviderProductID = &remoteID
	return remoteID, nil
}

// persistRemotePrice makes sure entry has a remote price and returns the
// entry that owns it. When another writer got there first, the stored entry
// is returned instead.
func (s *Syncer) persistRemotePrice(ctx context.Context, product *models.Product, entry *models.ProductPrice, remoteProductID string) (*models.ProductPrice, error) {
	if entry.RemoteID() != "" {
		synced := *entry
		return &synced, nil
	}

	remoteID, err := s.EnsureRemotePrice(ctx, remoteProductID, entry.Currency, entry.Amount, "", map[string]string{
		"product_id": product.ID,
		"currency":   entry.Currency,
	})
	if err != nil {
		return nil, err
	}

	won, err := s.products.SetProviderPriceID(ctx, entry.ID, remoteID)
	if err != nil {
		return nil, err
	}
	if !won {
		stored, err := s.products.GetByID(ctx, product.ID)
		if err != nil {
			return nil, err
		}
		if current, ok := stored.PriceFor(entry.Currency); ok && current.RemoteID() != "" {
			fiberlog.Warnf("[Pricing] Remote price %s lost the race for %s/%s, reusing %s", remoteID, product.ID, entry.Currency, current.RemoteID())
			s.ArchivePrices(ctx, []string{remoteID})
			*entry = *current
			synced := *current
			return &synced, nil
		}
	}
	entry.ProviderPriceID = &remoteID
	synced := *entry
	return &synced, nil
}

func productInput(p *models.Product) payment.ProductInput {
	in := payment.ProductInput{
		Name: p.Title(models.DefaultLocale),
		Metadata: map[string]string{
			"product_id": p.ID,
			"slug":       p.Slug,
		},
	}
	if t := p.Translation(models.DefaultLocale); t != nil {
		in.Description = t.Description
	}
	return in
}

func lockKey(productID string) string {
	return "pricing:product:" + productID
}
