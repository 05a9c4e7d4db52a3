//go:build wireinject
// +build wireinject

package injector

import (
	"github.com/google/wire"
	"github.com/safatanc/giftdrop-core/internal/app/deliveries"
	"github.com/safatanc/giftdrop-core/internal/app/middlewares"
	"github.com/safatanc/giftdrop-core/internal/app/services"
	"github.com/safatanc/giftdrop-core/internal/infrastructures"
)

// Infrastructure providers
var infrastructureSet = wire.NewSet(
	infrastructures.NewDatabase,
	infrastructures.NewRedisClient,
	infrastructures.NewValidator,
	wire.Value("giftdrop"),
)

// Service providers
var serviceSet = wire.NewSet(
	services.NewGormVoucherStore,
	wire.Bind(new(services.VoucherStore), new(*services.GormVoucherStore)),
	services.NewAuditService,
	wire.Bind(new(services.Auditor), new(*services.AuditService)),
	services.NewRedisClaimNotifier,
	wire.Bind(new(services.ClaimNotifier), new(*services.RedisClaimNotifier)),
	services.NewVoucherService,
	services.NewClaimService,
)

// Middleware providers
var middlewareSet = wire.NewSet(
	middlewares.NewAuthMiddleware,
	middlewares.NewRedisRateLimiter,
	wire.Bind(new(middlewares.RateLimiter), new(*middlewares.RedisRateLimiter)),
	middlewares.NewRateLimitMiddleware,
)

// Handler providers
var handlerSet = wire.NewSet(
	deliveries.NewHealthHandler,
	deliveries.NewVoucherHandler,
	deliveries.NewClaimHandler,
	wire.Struct(new(Application), "*"),
)

// InitializeApplication initializes the application with all its dependencies
func InitializeApplication() (*Application, error) {
	wire.Build(
		infrastructureSet,
		serviceSet,
		middlewareSet,
		handlerSet,
	)
	return &Application{}, nil
}
