package deliveries

import (
	"github.com/gofiber/fiber/v2"
	"github.com/safatanc/giftdrop-core/internal/app/middlewares"
	"github.com/safatanc/giftdrop-core/internal/app/models"
	"github.com/safatanc/giftdrop-core/internal/app/pkg"
	"github.com/safatanc/giftdrop-core/internal/app/services"
)

type ClaimHandler struct {
	claimService        *services.ClaimService
	authMiddleware      *middlewares.AuthMiddleware
	rateLimitMiddleware *middlewares.RateLimitMiddleware
}

func NewClaimHandler(claimService *services.ClaimService, authMiddleware *middlewares.AuthMiddleware, rateLimitMiddleware *middlewares.RateLimitMiddleware) *ClaimHandler {
	return &ClaimHandler{
		claimService:        claimService,
		authMiddleware:      authMiddleware,
		rateLimitMiddleware: rateLimitMiddleware,
	}
}

func (h *ClaimHandler) RegisterRoutes(router fiber.Router) {
	claimGroup := router.Group("/claims")

	claimGroup.Post("/redeem",
		h.rateLimitMiddleware.LimitByIP(middlewares.ClaimAPILimit),
		h.authMiddleware.RequireIdentity,
		h.RedeemVoucher,
	)
}

// RedeemVoucher accepts a share link or bare code plus the claimant's wallet
// address. A timeout on this call means "unknown outcome": clients must not
// blind-retry, a repeated claim lands on ALREADY_CLAIMED once the first one
// committed.
func (h *ClaimHandler) RedeemVoucher(c *fiber.Ctx) error {
	var dto models.ClaimRequestDto
	if err := c.BodyParser(&dto); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	// Claimant identity comes from the gateway, never from the body.
	userID := c.Locals("user_id").(string)
	dto.ClaimantIdentity = &userID

	if dto.ClaimantAddress == "" {
		if wallet, ok := c.Locals("wallet_address").(string); ok {
			dto.ClaimantAddress = wallet
		}
	}

	result, err := h.claimService.Claim(&dto)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, result)
}
