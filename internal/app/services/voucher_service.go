package services

import (
	"github.com/safatanc/giftdrop-core/internal/app/errors"
	"github.com/safatanc/giftdrop-core/internal/app/models"
	"github.com/safatanc/giftdrop-core/internal/app/pkg"
	"github.com/safatanc/giftdrop-core/internal/infrastructures"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// poolDecimals is the precision of pre-divided equal splits. The split is
// rounded down so claimLimit per-claim awards never sum past the pool: the
// count ceiling must always be reachable, with at most a sub-micro residue
// left behind.
const poolDecimals = 6

// endProgressThreshold: an active campaign can only be cancelled before any
// claim happened or once it is mostly complete, so creators cannot strand a
// minority of claimants mid-campaign.
var endProgressThreshold = decimal.RequireFromString("0.8")

// VoucherService owns the campaign lifecycle: create, end (cancel) and
// delete. All admin operations are ownership-checked against the creator.
type VoucherService struct {
	store        VoucherStore
	validator    *infrastructures.Validator
	auditService Auditor
}

func NewVoucherService(store VoucherStore, validator *infrastructures.Validator, auditService Auditor) *VoucherService {
	return &VoucherService{
		store:        store,
		validator:    validator,
		auditService: auditService,
	}
}

func (s *VoucherService) CreateVoucher(creatorID string, req *models.VoucherCreateDto) (*models.Voucher, error) {
	if creatorID == "" {
		return nil, errors.NewUnauthorizedError()
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	voucher := &models.Voucher{
		Code:            pkg.NewVoucherCode(),
		CreatedBy:       creatorID,
		TokenSymbol:     req.TokenSymbol,
		Mode:            req.Mode,
		Status:          models.VoucherStatusActive,
		MaxPerUser:      1,
		ClaimedTotal:    decimal.Zero,
		RemainingAmount: decimal.Zero,
	}
	if req.MaxPerUser != nil {
		voucher.MaxPerUser = *req.MaxPerUser
	}

	switch req.Mode {
	case models.VoucherModePerClaim:
		if req.PerClaimAmount == nil || !req.PerClaimAmount.IsPositive() {
			return nil, errors.NewBadRequestError("per_claim_amount is required and must be positive for PER_CLAIM vouchers")
		}
		if req.ClaimLimit == nil || *req.ClaimLimit < 1 {
			return nil, errors.NewBadRequestError("claim_limit is required for PER_CLAIM vouchers")
		}
		voucher.PerClaimAmount = *req.PerClaimAmount
		voucher.ClaimLimit = *req.ClaimLimit

	case models.VoucherModeTotal:
		if req.TotalAmount == nil || !req.TotalAmount.IsPositive() {
			return nil, errors.NewBadRequestError("total_amount is required and must be positive for TOTAL vouchers")
		}
		if req.TotalPolicy == nil {
			return nil, errors.NewBadRequestError("total_policy is required for TOTAL vouchers")
		}
		voucher.TotalPolicy = req.TotalPolicy
		voucher.TotalAmount = *req.TotalAmount
		voucher.RemainingAmount = *req.TotalAmount

		if *req.TotalPolicy == models.TotalPolicyEqual {
			if req.ClaimLimit == nil || *req.ClaimLimit < 1 {
				return nil, errors.NewBadRequestError("claim_limit is required for TOTAL/EQUAL vouchers")
			}
			voucher.ClaimLimit = *req.ClaimLimit
			voucher.PerClaimAmount = req.TotalAmount.
				Div(decimal.NewFromInt(int64(*req.ClaimLimit))).
				RoundDown(poolDecimals)
		}
	}

	if req.ExpiresAt != nil && *req.ExpiresAt != "" {
		expiresAt, err := pkg.ParseExpiryTime(*req.ExpiresAt)
		if err != nil {
			return nil, err
		}
		voucher.ExpiresAt = expiresAt
	}

	if err := s.store.Create(voucher); err != nil {
		return nil, err
	}

	if err := s.auditService.LogAudit("vouchers", voucher.ID, models.AuditActionCreate, nil, voucher, &creatorID); err != nil {
		logrus.Warnf("create audit dropped for voucher %s: %v", voucher.Code, err)
	}

	return voucher, nil
}

func (s *VoucherService) GetVoucher(code string) (*models.Voucher, error) {
	return s.store.Get(code)
}

func (s *VoucherService) GetVouchers(creatorID string, pagination *models.PaginationRequest) (*models.Pagination[[]models.Voucher], error) {
	if pagination.Limit <= 0 {
		pagination.Limit = 10
	}
	if pagination.Page <= 0 {
		pagination.Page = 1
	}
	offset := (pagination.Page - 1) * pagination.Limit

	vouchers, totalItems, err := s.store.ListByCreator(creatorID, pagination.Limit, offset)
	if err != nil {
		return nil, err
	}

	totalPages := int((totalItems + int64(pagination.Limit) - 1) / int64(pagination.Limit))

	return &models.Pagination[[]models.Voucher]{
		Page:       pagination.Page,
		Limit:      pagination.Limit,
		TotalPages: totalPages,
		TotalItems: int(totalItems),
		HasNext:    pagination.Page < totalPages,
		HasPrev:    pagination.Page > 1,
		Items:      vouchers,
	}, nil
}

func (s *VoucherService) GetVoucherClaims(code, requesterID string, limit, offset int) ([]models.Claim, error) {
	voucher, err := s.store.Get(code)
	if err != nil {
		return nil, err
	}
	if voucher.CreatedBy != requesterID {
		return nil, errors.NewForbiddenError("Only the voucher creator can view its claims")
	}

	return s.store.ClaimsByVoucher(code, limit, offset)
}

// GetVoucherAuditTrail returns the recorded state transitions of a voucher,
// newest first. Creator-only, like the claim history.
func (s *VoucherService) GetVoucherAuditTrail(code, requesterID string, limit, offset int) ([]models.AuditLog, error) {
	voucher, err := s.store.Get(code)
	if err != nil {
		return nil, err
	}
	if voucher.CreatedBy != requesterID {
		return nil, errors.NewForbiddenError("Only the voucher creator can view its audit trail")
	}

	return s.auditService.GetVoucherAuditTrail(voucher.ID, limit, offset)
}

// EndVoucher cancels an active campaign. Allowed only at zero progress or at
// 80% and beyond; the check and the transition run in one atomic update, so
// an end racing a final claim cannot corrupt state.
func (s *VoucherService) EndVoucher(code, requesterID string) error {
	voucher, err := s.store.AtomicUpdate(code, func(v *models.Voucher) (bool, error) {
		if v.CreatedBy != requesterID {
			return false, errors.NewForbiddenError("Only the voucher creator can end it")
		}
		if v.Terminal() {
			return false, errors.NewRuleError(errors.CodeNotActive, "Voucher is "+string(v.Status))
		}

		progress := claimProgress(v)
		if !progress.IsZero() && progress.LessThan(endProgressThreshold) {
			return false, errors.NewRuleError(errors.CodeCannotEnd, "Voucher cannot be ended mid-campaign")
		}

		v.Status = models.VoucherStatusCancelled
		return true, nil
	})
	if err != nil {
		return err
	}

	if err := s.auditService.LogAudit("vouchers", voucher.ID, models.AuditActionCancel, nil, voucher, &requesterID); err != nil {
		logrus.Warnf("cancel audit dropped for voucher %s: %v", voucher.Code, err)
	}

	return nil
}

// DeleteVoucher permanently removes a cancelled campaign and its claim
// history. Not atomic-update-guarded: a cancelled voucher can no longer be
// claimed, and the store re-checks the status right before deleting.
func (s *VoucherService) DeleteVoucher(code, requesterID string) error {
	voucher, err := s.store.Get(code)
	if err != nil {
		return err
	}
	if voucher.CreatedBy != requesterID {
		return errors.NewForbiddenError("Only the voucher creator can delete it")
	}
	if voucher.Status != models.VoucherStatusCancelled {
		return errors.NewRuleError(errors.CodeNotCancelled, "Voucher is not cancelled")
	}

	if err := s.store.DeleteCancelled(code); err != nil {
		return err
	}

	if err := s.auditService.LogAudit("vouchers", voucher.ID, models.AuditActionDelete, voucher, nil, &requesterID); err != nil {
		logrus.Warnf("delete audit dropped for voucher %s: %v", voucher.Code, err)
	}

	return nil
}

// claimProgress is headcount-based for counted ceilings and drawdown-based
// for the ALL policy.
func claimProgress(v *models.Voucher) decimal.Decimal {
	if v.Mode == models.VoucherModeTotal && v.TotalPolicy != nil && *v.TotalPolicy == models.TotalPolicyAll {
		if !v.TotalAmount.IsPositive() {
			return decimal.Zero
		}
		return v.ClaimedTotal.Div(v.TotalAmount)
	}

	if v.ClaimLimit <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(v.ClaimedCount)).
		Div(decimal.NewFromInt(int64(v.ClaimLimit)))
}
