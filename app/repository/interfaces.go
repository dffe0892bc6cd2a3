package repository

import (
	"context"
	"errors"

	"github.com/ManuelReschke/Storefront/app/models"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateSlug is returned when a product slug is already taken.
	ErrDuplicateSlug = errors.New("product slug already exists")
	// ErrProductInUse is returned when deleting a product that orders reference.
	ErrProductInUse = errors.New("product is referenced by orders")
)

// PricingUpdate replaces a product's canonical price and its price entries.
type PricingUpdate struct {
	BasePrice    string
	BaseCurrency string
	Prices       []models.ProductPrice
}

// ProductRepository defines the interface for product and price persistence
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	UpdateStatus(ctx context.Context, id, status string) error
	// ReplacePricing stores the new price map. Entries whose amount changed
	// lose their provider price id; the cleared ids are returned.
	ReplacePricing(ctx context.Context, productID string, update PricingUpdate) ([]string, error)
	// SetProviderProductID stores remoteID only if none is set yet and
	// reports whether this call wrote it.
	SetProviderProductID(ctx context.Context, productID, remoteID string) (bool, error)
	// SetProviderPriceID stores remoteID on the price row only if none is set
	// yet and reports whether this call wrote it.
	SetProviderPriceID(ctx context.Context, priceID, remoteID string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	SetCheckoutSession(ctx context.Context, id, sessionID, paymentIntentID string) error
	// MarkCompleted moves a non-completed order to completed and records the
	// payment intent id if none is stored. It reports whether a row changed.
	MarkCompleted(ctx context.Context, id, paymentIntentID string) (bool, error)
	// MarkFailed moves a pending order to failed.
	MarkFailed(ctx context.Context, id string) (bool, error)
	// MarkFailedByPaymentIntent moves the pending order carrying the given
	// payment intent id to failed.
	MarkFailedByPaymentIntent(ctx context.Context, paymentIntentID string) (bool, error)
	CountItemsForProduct(ctx context.Context, productID string) (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	Product ProductRepository
	Order   OrderRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Product: NewProductRepository(db),
		Order:   NewOrderRepository(db),
	}
}
