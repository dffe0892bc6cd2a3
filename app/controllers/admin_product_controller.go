package controllers

import (
	"context"

	"github.com/ManuelReschke/Storefront/app/models"
	"github.com/ManuelReschke/Storefront/internal/pkg/apperr"
	"github.com/ManuelReschke/Storefront/internal/pkg/catalog"
	"github.com/gofiber/fiber/v2"
)

// ProductCatalog is the admin product service.
type ProductCatalog interface {
	CreateProduct(ctx context.Context, in catalog.CreateProductInput) (*models.Product, error)
	UpdatePricing(ctx context.Context, productID string, in catalog.PricingInput) (*models.Product, error)
	SetStatus(ctx context.Context, productID, status string) (*models.Product, error)
	SyncProduct(ctx context.Context, productID string) (*models.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
}

// AdminProductController handles admin product JSON endpoints
type AdminProductController struct {
	catalog ProductCatalog
}

// NewAdminProductController creates a new admin product controller
func NewAdminProductController(svc ProductCatalog) *AdminProductController {
	return &AdminProductController{catalog: svc}
}

// HandleCreateProduct answers POST /api/v1/admin/products.
func (ac *AdminProductController) HandleCreateProduct(c *fiber.Ctx) error {
	var in catalog.CreateProductInput
	if err := c.BodyParser(&in); err != nil {
		return respondError(c, apperr.Validation("body", "request body must be valid JSON"))
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	product, err := ac.catalog.CreateProduct(ctx, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleGetProduct answers GET /api/v1/admin/products/:id.
func (ac *AdminProductController) HandleGetProduct(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	product, err := ac.catalog.GetProduct(ctx, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// HandleUpdatePricing answers PUT /api/v1/admin/products/:id/pricing.
func (ac *AdminProductController) HandleUpdatePricing(c *fiber.Ctx) error {
	var in catalog.PricingInput
	if err := c.BodyParser(&in); err != nil {
		return respondError(c, apperr.Validation("body", "request body must be valid JSON"))
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	product, err := ac.catalog.UpdatePricing(ctx, c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// HandleSetStatus answers PUT /api/v1/admin/products/:id/status.
func (ac *AdminProductController) HandleSetStatus(c *fiber.Ctx) error {
	var in struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&in); err != nil {
		return respondError(c, apperr.Validation("body", "request body must be valid JSON"))
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	product, err := ac.catalog.SetStatus(ctx, c.Params("id"), in.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// HandleSyncProduct answers POST /api/v1/admin/products/:id/sync.
func (ac *AdminProductController) HandleSyncProduct(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	product, err := ac.catalog.SyncProduct(ctx, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// HandleDeleteProduct answers DELETE /api/v1/admin/products/:id.
func (ac *AdminProductController) HandleDeleteProduct(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := ac.catalog.DeleteProduct(ctx, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
