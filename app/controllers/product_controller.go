package controllers

import (
	"context"

	"github.com/ManuelReschke/Storefront/app/models"
	"github.com/ManuelReschke/Storefront/internal/pkg/checkout"
	"github.com/ManuelReschke/Storefront/internal/pkg/currency"
	"github.com/ManuelReschke/Storefront/internal/pkg/viewmodel"
	"github.com/gofiber/fiber/v2"
)

// PublishedProducts loads products buyers may see.
type PublishedProducts interface {
	GetPublishedBySlug(ctx context.Context, slug string) (*models.Product, error)
}

// ProductController serves the buyer-facing product view
type ProductController struct {
	products PublishedProducts
}

// NewProductController creates a new product controller
func NewProductController(products PublishedProducts) *ProductController {
	return &ProductController{products: products}
}

// HandleGetProduct answers GET /api/v1/products/:slug?locale=&currency=.
func (pc *ProductController) HandleGetProduct(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	product, err := pc.products.GetPublishedBySlug(ctx, c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}

	rawLocale := requestLocale(c, "")
	locale := currency.NormalizeLocale(rawLocale)

	wanted, ok := currency.Parse(c.Query("currency"))
	if !ok {
		if pref, found := cookieCurrency(c); found {
			wanted = pref
		} else {
			wanted = currency.ResolvePreferred(currency.Preference{Locale: rawLocale, Country: requestCountry(c)})
		}
	}

	return c.JSON(viewmodel.NewProduct(product, locale, checkout.ResolvePrice(product, wanted)))
}
