package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Claim is one successful redemption. Rows are append-only; they are removed
// only when the parent voucher is deleted.
type Claim struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	VoucherID        uuid.UUID       `gorm:"type:uuid;index" json:"voucher_id"`
	ClaimantAddress  string          `gorm:"index;size:255" json:"claimant_address"`
	ClaimantIdentity *string         `gorm:"index;size:255" json:"claimant_identity,omitempty"`
	Amount           decimal.Decimal `gorm:"type:decimal(38,6)" json:"amount"`
	ClaimedAt        time.Time       `json:"claimed_at"`
}

// ClaimResult is what a successful claim returns to the caller. The actual
// token transfer is performed downstream with these values.
type ClaimResult struct {
	Amount      decimal.Decimal `json:"amount"`
	TokenSymbol string          `json:"token_symbol"`
}

// ClaimEvent is the payload published to the voucher creator after a claim
// has committed.
type ClaimEvent struct {
	VoucherCode     string          `json:"voucher_code"`
	CreatorID       string          `json:"creator_id"`
	ClaimantAddress string          `json:"claimant_address"`
	Amount          decimal.Decimal `json:"amount"`
	TokenSymbol     string          `json:"token_symbol"`
	ClaimedAt       time.Time       `json:"claimed_at"`
}

type ClaimRequestDto struct {
	Voucher          string  `json:"voucher" validate:"required"`
	ClaimantAddress  string  `json:"claimant_address" validate:"required,min=4,max=255"`
	ClaimantIdentity *string `json:"claimant_identity,omitempty" validate:"omitempty,max=255"`
}
