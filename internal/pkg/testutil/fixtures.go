package testutil

import (
	"context"
	"sort"
	"testing"

	"github.com/ManuelReschke/Storefront/app/models"
	"github.com/stretchr/testify/require"
)

// SeedProduct stores a published product with the given currency->amount
// entries and an English translation.
func SeedProduct(t *testing.T, s *Store, slug, baseCurrency string, prices map[string]string) *models.Product {
	t.Helper()

	currencies := make([]string, 0, len(prices))
	for c := range prices {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)

	p := &models.Product{
		Slug:         slug,
		Type:         models.ProductTypeProduct,
		BasePrice:    prices[baseCurrency],
		BaseCurrency: baseCurrency,
		Status:       models.ProductStatusPublished,
		Translations: []models.ProductTranslation{
			{Locale: models.DefaultLocale, Title: "Product " + slug, Description: "Description of " + slug},
		},
	}
	for _, c := range currencies {
		p.Prices = append(p.Prices, models.ProductPrice{Currency: c, Amount: prices[c]})
	}
	require.NoError(t, s.Products().Create(context.Background(), p))
	return p
}
