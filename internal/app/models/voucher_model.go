package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type VoucherMode string

const (
	VoucherModePerClaim VoucherMode = "PER_CLAIM"
	VoucherModeTotal    VoucherMode = "TOTAL"
)

type TotalPolicy string

const (
	TotalPolicyEqual TotalPolicy = "EQUAL"
	TotalPolicyAll   TotalPolicy = "ALL"
)

type VoucherStatus string

const (
	VoucherStatusActive    VoucherStatus = "ACTIVE"
	VoucherStatusExhausted VoucherStatus = "EXHAUSTED"
	VoucherStatusExpired   VoucherStatus = "EXPIRED"
	VoucherStatusCancelled VoucherStatus = "CANCELLED"
)

// Voucher is a distribution campaign plus its live redemption state. All
// mutation after creation goes through VoucherStore.AtomicUpdate; Version is
// the optimistic concurrency token bumped on every committed update.
type Voucher struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Code            string          `gorm:"uniqueIndex;size:32" json:"code"`
	CreatedBy       string          `gorm:"index;size:255" json:"created_by"`
	TokenSymbol     string          `gorm:"size:16" json:"token_symbol"`
	Mode            VoucherMode     `gorm:"size:16" json:"mode"`
	TotalPolicy     *TotalPolicy    `gorm:"size:16" json:"total_policy,omitempty"`
	PerClaimAmount  decimal.Decimal `gorm:"type:decimal(38,6)" json:"per_claim_amount"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(38,6)" json:"total_amount"`
	RemainingAmount decimal.Decimal `gorm:"type:decimal(38,6)" json:"remaining_amount"`
	ClaimedTotal    decimal.Decimal `gorm:"type:decimal(38,6)" json:"claimed_total"`
	ClaimLimit      int             `json:"claim_limit"`
	ClaimedCount    int             `json:"claimed_count"`
	MaxPerUser      int             `json:"max_per_user"`
	ExpiresAt       *time.Time      `json:"expires_at,omitempty"`
	Status          VoucherStatus   `gorm:"index;size:16" json:"status"`
	Version         int64           `json:"-"`
	Claims          []Claim         `gorm:"foreignKey:VoucherID;constraint:OnDelete:CASCADE" json:"claims,omitempty"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// Terminal reports whether the voucher can never be claimed again.
func (v *Voucher) Terminal() bool {
	return v.Status != VoucherStatusActive
}

// ToPublicView strips the claim history and creator identity for claimants.
func (v *Voucher) ToPublicView() *VoucherPublicView {
	return &VoucherPublicView{
		Code:            v.Code,
		TokenSymbol:     v.TokenSymbol,
		Mode:            v.Mode,
		TotalPolicy:     v.TotalPolicy,
		PerClaimAmount:  v.PerClaimAmount,
		TotalAmount:     v.TotalAmount,
		RemainingAmount: v.RemainingAmount,
		ClaimLimit:      v.ClaimLimit,
		ClaimedCount:    v.ClaimedCount,
		MaxPerUser:      v.MaxPerUser,
		ExpiresAt:       v.ExpiresAt,
		Status:          v.Status,
	}
}

// VoucherPublicView is the claimant-facing projection of a voucher.
type VoucherPublicView struct {
	Code            string          `json:"code"`
	TokenSymbol     string          `json:"token_symbol"`
	Mode            VoucherMode     `json:"mode"`
	TotalPolicy     *TotalPolicy    `json:"total_policy,omitempty"`
	PerClaimAmount  decimal.Decimal `json:"per_claim_amount"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	ClaimLimit      int             `json:"claim_limit"`
	ClaimedCount    int             `json:"claimed_count"`
	MaxPerUser      int             `json:"max_per_user"`
	ExpiresAt       *time.Time      `json:"expires_at,omitempty"`
	Status          VoucherStatus   `json:"status"`
}

type VoucherCreateDto struct {
	TokenSymbol    string           `json:"token_symbol" validate:"required,min=1,max=16"`
	Mode           VoucherMode      `json:"mode" validate:"required,oneof=PER_CLAIM TOTAL"`
	TotalPolicy    *TotalPolicy     `json:"total_policy,omitempty" validate:"omitempty,oneof=EQUAL ALL"`
	PerClaimAmount *decimal.Decimal `json:"per_claim_amount,omitempty"`
	TotalAmount    *decimal.Decimal `json:"total_amount,omitempty"`
	ClaimLimit     *int             `json:"claim_limit,omitempty" validate:"omitempty,min=1"`
	MaxPerUser     *int             `json:"max_per_user,omitempty" validate:"omitempty,min=1"`
	ExpiresAt      *string          `json:"expires_at,omitempty"`
}
