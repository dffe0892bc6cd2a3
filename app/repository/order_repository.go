package repository

import (
	"context"
	"time"

	"github.com/ManuelReschke/Storefront/app/models"
	"gorm.io/gorm"
)

// orderRepository implements the OrderRepository interface
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository instance
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create inserts the order and its items
func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// GetByID retrieves an order with its items
func (r *orderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) SetCheckoutSession(ctx context.Context, id, sessionID, paymentIntentID string) error {
	updates := map[string]interface{}{"provider_session_id": sessionID}
	if paymentIntentID != "" {
		updates["provider_payment_intent_id"] = paymentIntentID
	}
	tx := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *orderRepository) MarkCompleted(ctx context.Context, id, paymentIntentID string) (bool, error) {
	now := time.Now()
	updates := map[string]interface{}{
		"status":       models.OrderStatusCompleted,
		"completed_at": &now,
	}
	if paymentIntentID != "" {
		updates["provider_payment_intent_id"] = gorm.Expr("COALESCE(provider_payment_intent_id, ?)", paymentIntentID)
	}
	tx := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status <> ?", id, models.OrderStatusCompleted).
		Updates(updates)
	return tx.RowsAffected > 0, tx.Error
}

func (r *orderRepository) MarkFailed(ctx context.Context, id string) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, models.OrderStatusPending).
		Update("status", models.OrderStatusFailed)
	return tx.RowsAffected > 0, tx.Error
}

func (r *orderRepository) MarkFailedByPaymentIntent(ctx context.Context, paymentIntentID string) (bool, error) {
	if paymentIntentID == "" {
		return false, nil
	}
	tx := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("provider_payment_intent_id = ? AND status = ?", paymentIntentID, models.OrderStatusPending).
		Update("status", models.OrderStatusFailed)
	return tx.RowsAffected > 0, tx.Error
}

func (r *orderRepository) CountItemsForProduct(ctx context.Context, productID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).Where("product_id = ?", productID).Count(&count).Error
	return count, err
}
