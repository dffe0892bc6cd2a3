package controllers

import (
	"errors"

	"github.com/ManuelReschke/Storefront/app/repository"
	"github.com/ManuelReschke/Storefront/internal/pkg/apperr"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AdminOrderController exposes orders to administrators
type AdminOrderController struct {
	orderRepo repository.OrderRepository
}

// NewAdminOrderController creates a new admin order controller
func NewAdminOrderController(orderRepo repository.OrderRepository) *AdminOrderController {
	return &AdminOrderController{orderRepo: orderRepo}
}

// HandleGetOrder answers GET /api/v1/admin/orders/:id.
func (ac *AdminOrderController) HandleGetOrder(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	order, err := ac.orderRepo.GetByID(ctx, c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, apperr.NotFound("order not found"))
		}
		return respondError(c, apperr.Internal(err))
	}
	return c.JSON(order)
}
