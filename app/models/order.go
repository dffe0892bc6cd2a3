package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusFailed    = "failed"
)

// Order is a purchase attempt. TotalAmount and Currency are frozen from the
// resolved price entry when the order is created.
type Order struct {
	ID                      string      `gorm:"type:char(36);primaryKey" json:"id"`
	CustomerEmail           string      `gorm:"type:varchar(255);not null;index" json:"customer_email"`
	TotalAmount             string      `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Currency                string      `gorm:"type:varchar(3);not null" json:"currency"`
	Status                  string      `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	Locale                  string      `gorm:"type:varchar(16);not null;default:'en'" json:"locale"`
	ProviderSessionID       *string     `gorm:"type:varchar(191);uniqueIndex" json:"provider_session_id,omitempty"`
	ProviderPaymentIntentID *string     `gorm:"type:varchar(191);index" json:"provider_payment_intent_id,omitempty"`
	Items                   []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CompletedAt             *time.Time  `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	CreatedAt               time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt               time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}
