package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// ProductTranslation holds the localized copy of a product.
type ProductTranslation struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ProductID   string         `gorm:"type:char(36);not null;index:ux_product_translations_locale,unique,priority:1" json:"product_id"`
	Locale      string         `gorm:"type:varchar(16);not null;index:ux_product_translations_locale,unique,priority:2" json:"locale"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Features    datatypes.JSON `gorm:"type:json" json:"features"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// FeatureList decodes the stored feature bullet points.
func (t *ProductTranslation) FeatureList() []string {
	if len(t.Features) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(t.Features, &out); err != nil {
		return nil
	}
	return out
}

// SetFeatures encodes feature bullet points into the JSON column.
func (t *ProductTranslation) SetFeatures(features []string) {
	if len(features) == 0 {
		t.Features = nil
		return
	}
	raw, _ := json.Marshal(features)
	t.Features = datatypes.JSON(raw)
}
