package deliveries

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/safatanc/giftdrop-core/internal/app/middlewares"
	"github.com/safatanc/giftdrop-core/internal/app/models"
	"github.com/safatanc/giftdrop-core/internal/app/pkg"
	"github.com/safatanc/giftdrop-core/internal/app/services"
)

type VoucherHandler struct {
	voucherService      *services.VoucherService
	authMiddleware      *middlewares.AuthMiddleware
	rateLimitMiddleware *middlewares.RateLimitMiddleware
}

func NewVoucherHandler(voucherService *services.VoucherService, authMiddleware *middlewares.AuthMiddleware, rateLimitMiddleware *middlewares.RateLimitMiddleware) *VoucherHandler {
	return &VoucherHandler{
		voucherService:      voucherService,
		authMiddleware:      authMiddleware,
		rateLimitMiddleware: rateLimitMiddleware,
	}
}

func (h *VoucherHandler) RegisterRoutes(router fiber.Router) {
	voucherGroup := router.Group("/vouchers")

	// Public endpoint: claimants inspect a voucher before redeeming
	voucherGroup.Get("/:code", h.GetVoucher)

	// Creator endpoints (identity required, per-user rate limited)
	creatorLimit := h.rateLimitMiddleware.LimitByUser(middlewares.AuthenticatedAPILimit)
	voucherGroup.Post("/", h.authMiddleware.RequireIdentity, creatorLimit, h.CreateVoucher)
	voucherGroup.Get("/", h.authMiddleware.RequireIdentity, creatorLimit, h.GetVouchers)
	voucherGroup.Get("/:code/claims", h.authMiddleware.RequireIdentity, creatorLimit, h.GetVoucherClaims)
	voucherGroup.Get("/:code/audit", h.authMiddleware.RequireIdentity, creatorLimit, h.GetVoucherAuditTrail)
	voucherGroup.Post("/:code/end", h.authMiddleware.RequireIdentity, creatorLimit, h.EndVoucher)
	voucherGroup.Delete("/:code", h.authMiddleware.RequireIdentity, creatorLimit, h.DeleteVoucher)
}

func (h *VoucherHandler) CreateVoucher(c *fiber.Ctx) error {
	var dto models.VoucherCreateDto
	if err := c.BodyParser(&dto); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	creatorID := c.Locals("user_id").(string)

	voucher, err := h.voucherService.CreateVoucher(creatorID, &dto)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, voucher)
}

func (h *VoucherHandler) GetVoucher(c *fiber.Ctx) error {
	code := c.Params("code")

	voucher, err := h.voucherService.GetVoucher(code)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, voucher.ToPublicView())
}

func (h *VoucherHandler) GetVouchers(c *fiber.Ctx) error {
	creatorID := c.Locals("user_id").(string)

	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil {
		page = 1
	}
	limit, err := strconv.Atoi(c.Query("limit", "10"))
	if err != nil {
		limit = 10
	}

	vouchers, err := h.voucherService.GetVouchers(creatorID, &models.PaginationRequest{
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, vouchers)
}

func (h *VoucherHandler) GetVoucherClaims(c *fiber.Ctx) error {
	code := c.Params("code")
	requesterID := c.Locals("user_id").(string)

	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil {
		limit = 50
	}
	offset, err := strconv.Atoi(c.Query("offset", "0"))
	if err != nil {
		offset = 0
	}

	claims, err := h.voucherService.GetVoucherClaims(code, requesterID, limit, offset)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, claims)
}

func (h *VoucherHandler) GetVoucherAuditTrail(c *fiber.Ctx) error {
	code := c.Params("code")
	requesterID := c.Locals("user_id").(string)

	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil {
		limit = 50
	}
	offset, err := strconv.Atoi(c.Query("offset", "0"))
	if err != nil {
		offset = 0
	}

	trail, err := h.voucherService.GetVoucherAuditTrail(code, requesterID, limit, offset)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, trail)
}

func (h *VoucherHandler) EndVoucher(c *fiber.Ctx) error {
	code := c.Params("code")
	requesterID := c.Locals("user_id").(string)

	if err := h.voucherService.EndVoucher(code, requesterID); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse[any](c, nil)
}

func (h *VoucherHandler) DeleteVoucher(c *fiber.Ctx) error {
	code := c.Params("code")
	requesterID := c.Locals("user_id").(string)

	if err := h.voucherService.DeleteVoucher(code, requesterID); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse[any](c, nil)
}
