package viewmodel

import (
	"github.com/ManuelReschke/Storefront/app/models"
	"github.com/ManuelReschke/Storefront/internal/pkg/currency"
)

// Price is one currency entry as shown to buyers.
type Price struct {
	Currency  string `json:"currency"`
	Amount    string `json:"amount"`
	Formatted string `json:"formatted"`
}

// Product is the buyer-facing product payload.
type Product struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Type        string   `json:"type"`
	Locale      string   `json:"locale"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	Price       *Price   `json:"price"`
	Prices      []Price  `json:"prices"`
}

// NewProduct localizes p for locale and highlights selected.
func NewProduct(p *models.Product, locale string, selected *models.ProductPrice) Product {
	vm := Product{
		ID:       p.ID,
		Slug:     p.Slug,
		Type:     p.Type,
		Locale:   locale,
		Title:    p.Title(locale),
		Features: []string{},
		Prices:   make([]Price, 0, len(p.Prices)),
	}
	if t := p.Translation(locale); t != nil {
		vm.Description = t.Description
		if f := t.FeatureList(); f != nil {
			vm.Features = f
		}
	}
	for _, pr := range p.Prices {
		vm.Prices = append(vm.Prices, newPrice(pr, locale))
	}
	if selected != nil {
		sp := newPrice(*selected, locale)
		vm.Price = &sp
	}
	return vm
}

func newPrice(p models.ProductPrice, locale string) Price {
	return Price{
		Currency:  p.Currency,
		Amount:    p.Amount,
		Formatted: currency.FormatAmount(p.Amount, currency.Code(p.Currency), locale),
	}
}
