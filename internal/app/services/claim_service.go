package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/safatanc/giftdrop-core/internal/app/errors"
	"github.com/safatanc/giftdrop-core/internal/app/models"
	"github.com/safatanc/giftdrop-core/internal/app/pkg"
	"github.com/safatanc/giftdrop-core/internal/infrastructures"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ClaimService enforces every redemption rule, all inside one atomic store
// update so concurrent claimants can never act on the same stale snapshot.
type ClaimService struct {
	store        VoucherStore
	validator    *infrastructures.Validator
	notifier     ClaimNotifier
	auditService Auditor
}

func NewClaimService(store VoucherStore, validator *infrastructures.Validator, notifier ClaimNotifier, auditService Auditor) *ClaimService {
	return &ClaimService{
		store:        store,
		validator:    validator,
		notifier:     notifier,
		auditService: auditService,
	}
}

// Claim redeems a voucher for a claimant. req.Voucher may be a share link in
// any of the accepted shapes or a bare code. On success the awarded amount
// and token symbol are returned for the downstream token transfer; the claim
// record is final once committed regardless of what happens downstream.
func (s *ClaimService) Claim(req *models.ClaimRequestDto) (*models.ClaimResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	code, err := pkg.DecodeVoucherCode(req.Voucher)
	if err != nil {
		return nil, err
	}

	var result *models.ClaimResult
	var event *models.ClaimEvent

	voucher, err := s.store.AtomicUpdate(code, func(v *models.Voucher) (bool, error) {
		now := time.Now()

		if v.Terminal() {
			return false, errors.NewRuleError(errors.CodeNotActive, "Voucher is "+string(v.Status))
		}

		// Expiry is enforced lazily: the transition persists even though
		// this claim fails.
		if v.ExpiresAt != nil && now.After(*v.ExpiresAt) {
			v.Status = models.VoucherStatusExpired
			return true, errors.NewRuleError(errors.CodeExpired, "Voucher has expired")
		}

		if s.priorClaims(v, req) >= v.MaxPerUser {
			return false, errors.NewRuleError(errors.CodeAlreadyClaimed, "Voucher already claimed by this user")
		}

		award, dirty, err := computeAward(v)
		if err != nil {
			return dirty, err
		}

		claim := models.Claim{
			ID:               uuid.New(),
			VoucherID:        v.ID,
			ClaimantAddress:  req.ClaimantAddress,
			ClaimantIdentity: req.ClaimantIdentity,
			Amount:           award,
			ClaimedAt:        now,
		}
		v.Claims = append(v.Claims, claim)
		v.ClaimedCount++
		v.ClaimedTotal = v.ClaimedTotal.Add(award)
		if v.Mode == models.VoucherModeTotal {
			v.RemainingAmount = v.RemainingAmount.Sub(award)
		}
		recomputeStatus(v)

		result = &models.ClaimResult{
			Amount:      award,
			TokenSymbol: v.TokenSymbol,
		}
		event = &models.ClaimEvent{
			VoucherCode:     v.Code,
			CreatorID:       v.CreatedBy,
			ClaimantAddress: req.ClaimantAddress,
			Amount:          award,
			TokenSymbol:     v.TokenSymbol,
			ClaimedAt:       now,
		}

		return true, nil
	})
	if err != nil {
		// A lazy expiry is a committed state transition even though the
		// claim itself failed, so it gets its own audit entry.
		if voucher != nil && errors.Is(err, errors.CodeExpired) {
			if auditErr := s.auditService.LogAudit("vouchers", voucher.ID, models.AuditActionExpire, nil, voucher, nil); auditErr != nil {
				logrus.Warnf("expiry audit dropped for voucher %s: %v", voucher.Code, auditErr)
			}
		}
		return nil, err
	}

	// Post-commit side effects are best effort; the recorded entitlement is
	// final either way.
	if err := s.auditService.LogAudit("vouchers", voucher.ID, models.AuditActionClaim, nil, result, &req.ClaimantAddress); err != nil {
		logrus.Warnf("claim audit dropped for voucher %s: %v", voucher.Code, err)
	}
	s.notifier.NotifyClaim(*event)

	return result, nil
}

func (s *ClaimService) priorClaims(v *models.Voucher, req *models.ClaimRequestDto) int {
	count := 0
	for _, c := range v.Claims {
		if c.ClaimantAddress == req.ClaimantAddress {
			count++
			continue
		}
		if req.ClaimantIdentity != nil && c.ClaimantIdentity != nil && *c.ClaimantIdentity == *req.ClaimantIdentity {
			count++
		}
	}
	return count
}

// computeAward applies the mode-specific award rule. dirty=true means the
// voucher was transitioned (lazy exhaustion discovery) and must persist even
// though the claim fails.
func computeAward(v *models.Voucher) (award decimal.Decimal, dirty bool, err error) {
	switch v.Mode {
	case models.VoucherModePerClaim:
		if v.ClaimedCount >= v.ClaimLimit {
			v.Status = models.VoucherStatusExhausted
			return decimal.Zero, true, errors.NewRuleError(errors.CodeExhausted, "Voucher is exhausted")
		}
		if !v.PerClaimAmount.IsPositive() {
			return decimal.Zero, false, errors.NewRuleError(errors.CodeInvalidAmount, "Voucher has an invalid claim amount")
		}
		return v.PerClaimAmount, false, nil

	case models.VoucherModeTotal:
		if v.TotalPolicy != nil && *v.TotalPolicy == models.TotalPolicyAll {
			if !v.RemainingAmount.IsPositive() {
				v.Status = models.VoucherStatusExhausted
				return decimal.Zero, true, errors.NewRuleError(errors.CodeExhausted, "Voucher is exhausted")
			}
			// The only branch where the award depends on live pool state.
			return v.RemainingAmount, false, nil
		}

		if v.ClaimedCount >= v.ClaimLimit {
			v.Status = models.VoucherStatusExhausted
			return decimal.Zero, true, errors.NewRuleError(errors.CodeExhausted, "Voucher is exhausted")
		}
		if !v.PerClaimAmount.IsPositive() {
			return decimal.Zero, false, errors.NewRuleError(errors.CodeInvalidAmount, "Voucher has an invalid claim amount")
		}
		if v.RemainingAmount.LessThan(v.PerClaimAmount) {
			return decimal.Zero, false, errors.NewRuleError(errors.CodeInsufficientPool, "Voucher pool is insufficient")
		}
		return v.PerClaimAmount, false, nil
	}

	return decimal.Zero, false, errors.NewRuleError(errors.CodeInvalidAmount, "Voucher has an unknown mode")
}

// recomputeStatus marks the voucher exhausted once the post-claim state has
// reached its ceiling: headcount for counted modes, a drained pool for TOTAL.
func recomputeStatus(v *models.Voucher) {
	switch v.Mode {
	case models.VoucherModePerClaim:
		if v.ClaimedCount >= v.ClaimLimit {
			v.Status = models.VoucherStatusExhausted
		}
	case models.VoucherModeTotal:
		if v.TotalPolicy != nil && *v.TotalPolicy == models.TotalPolicyEqual && v.ClaimedCount >= v.ClaimLimit {
			v.Status = models.VoucherStatusExhausted
		}
		if !v.RemainingAmount.IsPositive() {
			v.Status = models.VoucherStatusExhausted
		}
	}
}
