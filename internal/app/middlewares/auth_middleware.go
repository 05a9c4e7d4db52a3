package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"github.com/safatanc/giftdrop-core/internal/app/errors"
	"github.com/safatanc/giftdrop-core/internal/app/pkg"
)

// AuthMiddleware consumes the identity headers set by the upstream gateway.
// Authentication itself happens before requests reach this service; the
// values here are opaque, already-verified identifiers.
type AuthMiddleware struct{}

func NewAuthMiddleware() *AuthMiddleware {
	return &AuthMiddleware{}
}

func (m *AuthMiddleware) RequireIdentity(c *fiber.Ctx) error {
	userID := c.Get("X-User-Id")
	if userID == "" {
		return pkg.ErrorResponse(c, errors.NewUnauthorizedError())
	}

	c.Locals("user_id", userID)

	if wallet := c.Get("X-Wallet-Address"); wallet != "" {
		c.Locals("wallet_address", wallet)
	}
	if email := c.Get("X-User-Email"); email != "" {
		c.Locals("user_email", email)
	}

	return c.Next()
}
