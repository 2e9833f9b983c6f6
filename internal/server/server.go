// Package server assembles the HTTP application from its services.
package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"canteen/internal/config"
	"canteen/internal/handlers"
	"canteen/internal/metrics"
	"canteen/internal/middleware"
	"canteen/internal/repositories"
	"canteen/internal/services"
	"canteen/internal/session"
)

// ImagePath is the public prefix dish images are served under.
const ImagePath = "/images"

// Deps are the collaborators the application is built from.
type Deps struct {
	Config   config.Config
	Store    repositories.Store
	Sessions session.Store
	Images   services.ImageStore
	Metrics  *metrics.Metrics

	// Quiet disables the request logger.
	Quiet bool
}

// Server is the assembled application.
type Server struct {
	App  *fiber.App
	Auth *services.AuthService
}

// New wires services, handlers and middleware into a fiber app.
func New(d Deps) *Server {
	cfg := d.Config

	authService := services.NewAuthService(d.Store.Users(), d.Store.Merchants(), d.Store.Admins(), d.Sessions, cfg.JWTSecret, cfg.SessionTTL)
	catalogService := services.NewCatalogService(d.Store.Merchants(), d.Store.Dishes(), d.Images)
	checkoutService := services.NewCheckoutService(d.Store, d.Sessions, d.Metrics)
	orderService := services.NewOrderService(d.Store, services.DefaultQRGenerator{BaseURL: cfg.PublicURL}, d.Metrics)
	auditService := services.NewAuditService(d.Store.Merchants())
	addressService := services.NewAddressService(d.Store)

	app := fiber.New(fiber.Config{
		AppName:   "canteen",
		BodyLimit: 8 * 1024 * 1024,
	})

	app.Use(recover.New())
	if !d.Quiet {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + handlers.IdempotencyHeader}))
	if d.Metrics != nil {
		app.Use(d.Metrics.Middleware())
		app.Get("/metrics", d.Metrics.Handler())
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	if cfg.ImageDir != "" {
		app.Static(ImagePath, cfg.ImageDir)
	}

	app.Use(middleware.Authenticate(authService))

	handlers.NewAuthHandler(authService, cfg.SessionTTL).RegisterRoutes(app)
	handlers.NewCatalogHandler(catalogService, ImagePath).RegisterRoutes(app)
	handlers.NewOrderHandler(checkoutService, orderService, cfg.PayRedirectURL).RegisterRoutes(app)
	handlers.NewAdminHandler(auditService).RegisterRoutes(app)
	handlers.NewAddressHandler(addressService).RegisterRoutes(app)

	return &Server{App: app, Auth: authService}
}
