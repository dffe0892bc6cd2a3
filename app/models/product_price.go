package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductPrice is the amount a product costs in one currency. The provider
// price id is filled lazily on first checkout or explicit sync and then reused.
type ProductPrice struct {
	ID              string    `gorm:"type:char(36);primaryKey" json:"id"`
	ProductID       string    `gorm:"type:char(36);not null;index:ux_product_prices_product_currency,unique,priority:1" json:"product_id"`
	Currency        string    `gorm:"type:varchar(3);not null;index:ux_product_prices_product_currency,unique,priority:2" json:"currency"`
	Amount          string    `gorm:"type:decimal(12,2);not null" json:"amount"`
	IsOverride      bool      `gorm:"default:false" json:"is_override"`
	ProviderPriceID *string   `gorm:"type:varchar(191);uniqueIndex" json:"provider_price_id,omitempty"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *ProductPrice) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// RemoteID returns the provider price id or "" when not yet synchronized.
func (p *ProductPrice) RemoteID() string {
	if p.ProviderPriceID == nil {
		return ""
	}
	return *p.ProviderPriceID
}
