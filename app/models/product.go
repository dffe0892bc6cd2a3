package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ProductStatusDraft     = "draft"
	ProductStatusPublished = "published"
	ProductStatusArchived  = "archived"
)

const (
	ProductTypeProduct   = "product"
	ProductTypeService   = "service"
	ProductTypePortfolio = "portfolio"
)

// DefaultLocale is used when a product has no translation for the requested locale.
const DefaultLocale = "en"

// Product is a sellable catalog entry. Its canonical price is authored in
// BaseCurrency; Prices holds one entry per supported currency.
type Product struct {
	ID                string               `gorm:"type:char(36);primaryKey" json:"id"`
	Slug              string               `gorm:"type:varchar(191);uniqueIndex;not null" json:"slug" validate:"required,min=1,max=191"`
	Type              string               `gorm:"type:varchar(32);not null;default:'product';index" json:"type"`
	BasePrice         string               `gorm:"type:decimal(12,2);not null" json:"base_price"`
	BaseCurrency      string               `gorm:"type:varchar(3);not null" json:"base_currency"`
	Status            string               `gorm:"type:varchar(16);not null;default:'draft';index" json:"status"`
	ProviderProductID *string              `gorm:"type:varchar(191);uniqueIndex" json:"provider_product_id,omitempty"`
	Prices            []ProductPrice       `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"prices"`
	Translations      []ProductTranslation `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"translations"`
	CreatedAt         time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// IsPurchasable reports whether buyers may check out this product.
func (p *Product) IsPurchasable() bool {
	return p.Status == ProductStatusPublished
}

// PriceFor returns the price entry for the given ISO currency code.
func (p *Product) PriceFor(currency string) (*ProductPrice, bool) {
	for i := range p.Prices {
		if p.Prices[i].Currency == currency {
			return &p.Prices[i], true
		}
	}
	return nil, false
}

// Translation returns the translation for locale, falling back to the
// default locale and then to the first available translation.
func (p *Product) Translation(locale string) *ProductTranslation {
	var fallback *ProductTranslation
	for i := range p.Translations {
		t := &p.Translations[i]
		if t.Locale == locale {
			return t
		}
		if t.Locale == DefaultLocale {
			fallback = t
		}
	}
	if fallback != nil {
		return fallback
	}
	if len(p.Translations) > 0 {
		return &p.Translations[0]
	}
	return nil
}

// Title returns the localized title or the slug if no translation exists.
func (p *Product) Title(locale string) string {
	if t := p.Translation(locale); t != nil && t.Title != "" {
		return t.Title
	}
	return p.Slug
}
