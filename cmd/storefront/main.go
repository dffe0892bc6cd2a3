package main

import (
	"log"
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/Storefront/app/repository"
	"github.com/ManuelReschke/Storefront/internal/pkg/billing"
	"github.com/ManuelReschke/Storefront/internal/pkg/cache"
	"github.com/ManuelReschke/Storefront/internal/pkg/catalog"
	"github.com/ManuelReschke/Storefront/internal/pkg/checkout"
	"github.com/ManuelReschke/Storefront/internal/pkg/config"
	"github.com/ManuelReschke/Storefront/internal/pkg/constants"
	"github.com/ManuelReschke/Storefront/internal/pkg/database"
	"github.com/ManuelReschke/Storefront/internal/pkg/env"
	"github.com/ManuelReschke/Storefront/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/Storefront/internal/pkg/middleware"
	"github.com/ManuelReschke/Storefront/internal/pkg/payment"
	"github.com/ManuelReschke/Storefront/internal/pkg/pricing"
	"github.com/ManuelReschke/Storefront/internal/pkg/ratelimit"
	"github.com/ManuelReschke/Storefront/internal/pkg/router"
)

func main() {
	app, cfg := NewApplication()
	err := app.Listen(cfg.ListenAddr())
	log.Fatal(err)
}

func NewApplication() (*fiber.App, *config.Config) {
	env.SetupEnvFile()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.SetupDatabase(cfg.DB.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	redisClient := cache.SetupCache(cache.Options{
		Host:     cfg.Cache.Host,
		Port:     cfg.Cache.Port,
		Password: cfg.Cache.Password,
	})

	provider, err := payment.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	if err != nil {
		log.Fatalf("payment provider: %v", err)
	}

	repos := repository.NewFactory(db)
	limiter := ratelimit.New(redisClient, ratelimit.DefaultWindow)
	syncer := pricing.NewSyncer(provider, repos.GetProductRepository(), cache.NewLocker(redisClient))
	catalogService := catalog.NewService(repos.GetProductRepository(), repos.GetOrderRepository(), syncer)
	counters := counter.New(redisClient)
	checkoutService := checkout.NewService(repos.GetProductRepository(), repos.GetOrderRepository(), syncer, provider, limiter, checkout.Config{
		AppURL:      cfg.AppURL,
		MaxRequests: cfg.CheckoutRateLimit,
	}).WithCounters(counters)
	billingService := billing.NewServiceFromDB(db, provider).WithCounters(counters)

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/storefront to project root
		"../../../", // Fallback
	}
	basePath := "./"
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public/docs"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}

	app := fiber.New(middleware.WithTrustedProxies(fiber.Config{
		AppName:           "Storefront",
		EnablePrintRoutes: env.IsDev(),
	}, cfg.ProxyHeader, cfg.TrustedProxies))

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get(constants.MetricsRoute, middleware.AdminBasicAuth(cfg.AdminUser, cfg.AdminPasswordHash), monitor.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app, router.Dependencies{
		Config:      cfg,
		Checkout:    checkoutService,
		Billing:     billingService,
		Catalog:     catalogService,
		Products:    catalogService,
		Orders:      repos.GetOrderRepository(),
		Limiter:     limiter,
		Counters:    counters,
		RedisClient: redisClient,
	})

	return app, cfg
}
