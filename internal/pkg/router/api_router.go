package router

import (
	"time"

	"github.com/ManuelReschke/Storefront/app/controllers"
	"github.com/ManuelReschke/Storefront/internal/pkg/cache"
	"github.com/ManuelReschke/Storefront/internal/pkg/constants"
	"github.com/ManuelReschke/Storefront/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type ApiRouter struct {
	deps Dependencies
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group(constants.APIRoute, limiter.New(limiter.Config{
		Max:          h.deps.Config.APIRateLimit,
		Expiration:   time.Minute,
		Storage:      cache.NewFiberStorage(h.deps.RedisClient),
		KeyGenerator: middleware.ClientIP,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests, please try again later",
				"code":  "rate_limited",
			})
		},
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group(constants.APIV1Route)
	productController := controllers.NewProductController(h.deps.Products)
	v1.Get(constants.ProductBySlugRoute, productController.HandleGetProduct)

	// Admin JSON endpoints
	adminProducts := controllers.NewAdminProductController(h.deps.Catalog)
	adminOrders := controllers.NewAdminOrderController(h.deps.Orders)
	adminStats := controllers.NewAdminStatsController(h.deps.Counters)

	admin := v1.Group(constants.AdminGroupRoute, middleware.AdminBasicAuth(h.deps.Config.AdminUser, h.deps.Config.AdminPasswordHash))
	admin.Post(constants.AdminProductsRoute, adminProducts.HandleCreateProduct)
	admin.Get(constants.AdminProductRoute, adminProducts.HandleGetProduct)
	admin.Delete(constants.AdminProductRoute, adminProducts.HandleDeleteProduct)
	admin.Put(constants.AdminPricingRoute, adminProducts.HandleUpdatePricing)
	admin.Put(constants.AdminStatusRoute, adminProducts.HandleSetStatus)
	admin.Post(constants.AdminSyncRoute, adminProducts.HandleSyncProduct)
	admin.Get(constants.AdminOrderRoute, adminOrders.HandleGetOrder)
	admin.Get(constants.AdminStatsRoute, adminStats.HandleGetStats)
}

func NewApiRouter(deps Dependencies) *ApiRouter {
	return &ApiRouter{deps: deps}
}
