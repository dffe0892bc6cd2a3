package controllers

import (
	"github.com/ManuelReschke/Storefront/internal/pkg/apperr"
	"github.com/ManuelReschke/Storefront/internal/pkg/metrics/counter"
	"github.com/gofiber/fiber/v2"
)

// AdminStatsController reports checkout outcome counters
type AdminStatsController struct {
	counters counter.Recorder
}

func NewAdminStatsController(counters counter.Recorder) *AdminStatsController {
	return &AdminStatsController{counters: counters}
}

// HandleGetStats answers GET /api/v1/admin/stats.
func (ac *AdminStatsController) HandleGetStats(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	snap, err := ac.counters.Snapshot(ctx)
	if err != nil {
		return respondError(c, apperr.Internal(err))
	}
	return c.JSON(snap)
}
