package injector

import (
	"github.com/gofiber/fiber/v2"
	"github.com/safatanc/giftdrop-core/internal/app/deliveries"
	"github.com/safatanc/giftdrop-core/internal/app/middlewares"
)

// Application represents the main application container for giftdrop-core
type Application struct {
	HealthHandler       *deliveries.HealthHandler
	VoucherHandler      *deliveries.VoucherHandler
	ClaimHandler        *deliveries.ClaimHandler
	RateLimitMiddleware *middlewares.RateLimitMiddleware
}

// RegisterRoutes registers all application routes using a Fiber router
func (app *Application) RegisterRoutes(router fiber.Router) {
	// Global per-IP limit for the public API; the claim endpoint applies its
	// own tighter limit on top.
	router.Use(app.RateLimitMiddleware.LimitByIP(middlewares.PublicAPILimit))

	app.HealthHandler.RegisterRoutes(router)
	app.VoucherHandler.RegisterRoutes(router)
	app.ClaimHandler.RegisterRoutes(router)
}
