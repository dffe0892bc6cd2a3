package repository

import (
	"context"
	"errors"

	"github.com/ManuelReschke/Storefront/app/models"
	"gorm.io/gorm"
)

// productRepository implements the ProductRepository interface
type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository instance
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create inserts the product together with its prices and translations
func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	exists, err := r.SlugExists(ctx, product.Slug)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateSlug
	}
	err = r.db.WithContext(ctx).Create(product).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateSlug
	}
	return err
}

// GetByID retrieves a product with prices and translations
func (r *productRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := r.preloaded(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetBySlug retrieves a product by its slug
func (r *productRepository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.preloaded(ctx).Where("slug = ?", slug).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// SlugExists checks whether a product with the given slug exists
func (r *productRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *productRepository) UpdateStatus(ctx context.Context, id, status string) error {
	tx := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update("status", status)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepository) ReplacePricing(ctx context.Context, productID string, update PricingUpdate) ([]string, error) {
	var stale []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Product{}).Where("id = ?", productID).Updates(map[string]interface{}{
			"base_price":    update.BasePrice,
			"base_currency": update.BaseCurrency,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return gorm.ErrRecordNotFound
			}
		}

		var existing []models.ProductPrice
		if err := tx.Where("product_id = ?", productID).Find(&existing).Error; err != nil {
			return err
		}
		byCurrency := make(map[string]models.ProductPrice, len(existing))
		for _, p := range existing {
			byCurrency[p.Currency] = p
		}

		keep := make(map[string]bool, len(update.Prices))
		for _, next := range update.Prices {
			keep[next.Currency] = true
			cur, ok := byCurrency[next.Currency]
			if !ok {
				row := next
				row.ID = ""
				row.ProductID = productID
				row.ProviderPriceID = nil
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
				continue
			}

			updates := map[string]interface{}{"is_override": next.IsOverride}
			if !sameAmount(cur.Amount, next.Amount) {
				updates["amount"] = next.Amount
				updates["provider_price_id"] = nil
				if id := cur.RemoteID(); id != "" {
					stale = append(stale, id)
				}
			}
			if err := tx.Model(&models.ProductPrice{}).Where("id = ?", cur.ID).Updates(updates).Error; err != nil {
				return err
			}
		}

		for _, cur := range existing {
			if keep[cur.Currency] {
				continue
			}
			if id := cur.RemoteID(); id != "" {
				stale = append(stale, id)
			}
			if err := tx.Delete(&models.ProductPrice{}, "id = ?", cur.ID).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stale, nil
}

func (r *productRepository) SetProviderProductID(ctx context.Context, productID, remoteID string) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND provider_product_id IS NULL", productID).
		Update("provider_product_id", remoteID)
	return tx.RowsAffected > 0, tx.Error
}

func (r *productRepository) SetProviderPriceID(ctx context.Context, priceID, remoteID string) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.ProductPrice{}).
		Where("id = ? AND provider_price_id IS NULL", priceID).
		Update("provider_price_id", remoteID)
	return tx.RowsAffected > 0, tx.Error
}

// Delete removes a product, its prices and translations. Products referenced
// by order items are kept.
func (r *productRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&models.OrderItem{}).Where("product_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return ErrProductInUse
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductPrice{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductTranslation{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Product{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *productRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Prices", func(db *gorm.DB) *gorm.DB { return db.Order("currency ASC") }).
		Preload("Translations")
}
