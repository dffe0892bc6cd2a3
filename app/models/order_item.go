package models

import "time"

// OrderItem snapshots what was bought. ProductSlug and ProductTitle keep the
// line readable even if the product is edited later.
type OrderItem struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OrderID      string    `gorm:"type:char(36);not null;index" json:"order_id"`
	ProductID    string    `gorm:"type:char(36);not null;index" json:"product_id"`
	ProductSlug  string    `gorm:"type:varchar(191);not null" json:"product_slug"`
	ProductTitle string    `gorm:"type:varchar(255);not null" json:"product_title"`
	Quantity     int       `gorm:"not null;default:1" json:"quantity"`
	Price        string    `gorm:"type:decimal(12,2);not null" json:"price"`
	Currency     string    `gorm:"type:varchar(3);not null" json:"currency"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}
