package router

import (
	"github.com/ManuelReschke/Storefront/app/controllers"
	"github.com/ManuelReschke/Storefront/app/repository"
	"github.com/ManuelReschke/Storefront/internal/pkg/config"
	"github.com/ManuelReschke/Storefront/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/Storefront/internal/pkg/ratelimit"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies are the services the routers hand to their controllers.
type Dependencies struct {
	Config      *config.Config
	Checkout    controllers.CheckoutStarter
	Billing     controllers.WebhookHandler
	Catalog     controllers.ProductCatalog
	Products    controllers.PublishedProducts
	Orders      repository.OrderRepository
	Limiter     ratelimit.Limiter
	Counters    counter.Recorder
	RedisClient *redis.Client
}

func InstallRouter(app *fiber.App, deps Dependencies) {
	setup(app, NewHttpRouter(deps), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
