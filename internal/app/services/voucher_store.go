package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/safatanc/giftdrop-core/internal/app/errors"
	"github.com/safatanc/giftdrop-core/internal/app/models"
	"gorm.io/gorm"
)

// DefaultMaxRetries bounds the optimistic-concurrency retry loop. A retry is
// only needed when another update committed in the meantime, so the loop
// always makes system-wide progress; exhaustion surfaces as CONFLICT.
const DefaultMaxRetries = 25

// UpdateFunc mutates a voucher snapshot. It returns dirty=true when the
// mutation must be persisted, which happens even when err is a business
// failure (lazy expiry and lazy exhaustion are discovered by failing claims).
type UpdateFunc func(v *models.Voucher) (dirty bool, err error)

// VoucherStore holds voucher documents. It performs no business validation;
// all rules live in the services that pass UpdateFuncs into AtomicUpdate.
type VoucherStore interface {
	Create(voucher *models.Voucher) error
	Get(code string) (*models.Voucher, error)
	AtomicUpdate(code string, fn UpdateFunc) (*models.Voucher, error)
	DeleteCancelled(code string) error
	ListByCreator(creator string, limit, offset int) ([]models.Voucher, int64, error)
	ClaimsByVoucher(code string, limit, offset int) ([]models.Claim, error)
}

// GormVoucherStore is the Postgres-backed store. AtomicUpdate is a
// read-compute-compare-and-write inside one transaction: the voucher row is
// written with `WHERE version = <read version>`, and a zero row count means a
// concurrent commit won, so the whole step is retried against a fresh
// snapshot.
type GormVoucherStore struct {
	db         *gorm.DB
	MaxRetries int
}

func NewGormVoucherStore(db *gorm.DB) *GormVoucherStore {
	return &GormVoucherStore{
		db:         db,
		MaxRetries: DefaultMaxRetries,
	}
}

func (s *GormVoucherStore) Create(voucher *models.Voucher) error {
	if voucher.ID == uuid.Nil {
		voucher.ID = uuid.New()
	}

	var existing models.Voucher
	err := s.db.Where("code = ?", voucher.Code).First(&existing).Error
	if err == nil {
		return errors.NewConflictError("Voucher code already exists")
	}
	if err != gorm.ErrRecordNotFound {
		return errors.NewStoreUnavailableError(err)
	}

	if err := s.db.Create(voucher).Error; err != nil {
		return errors.NewStoreUnavailableError(err)
	}

	return nil
}

func (s *GormVoucherStore) Get(code string) (*models.Voucher, error) {
	var voucher models.Voucher
	err := s.db.Preload("Claims", func(db *gorm.DB) *gorm.DB {
		return db.Order("claimed_at ASC")
	}).Where("code = ?", code).First(&voucher).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("Voucher not found")
		}
		return nil, errors.NewStoreUnavailableError(err)
	}

	return &voucher, nil
}

func (s *GormVoucherStore) AtomicUpdate(code string, fn UpdateFunc) (*models.Voucher, error) {
	for attempt := 0; attempt < s.MaxRetries; attempt++ {
		voucher, committed, err := s.tryUpdate(code, fn)
		if !committed && err == nil {
			// Version check lost against a concurrent commit.
			continue
		}
		if err != nil {
			return voucher, err
		}
		return voucher, nil
	}

	return nil, errors.NewConflictError("Voucher update conflicted too many times")
}

func (s *GormVoucherStore) tryUpdate(code string, fn UpdateFunc) (*models.Voucher, bool, error) {
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, true, errors.NewStoreUnavailableError(tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	var voucher models.Voucher
	err := tx.Preload("Claims", func(db *gorm.DB) *gorm.DB {
		return db.Order("claimed_at ASC")
	}).Where("code = ?", code).First(&voucher).Error
	if err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return nil, true, errors.NewNotFoundError("Voucher not found")
		}
		return nil, true, errors.NewStoreUnavailableError(err)
	}

	readVersion := voucher.Version
	priorClaims := len(voucher.Claims)

	dirty, bizErr := fn(&voucher)
	if !dirty {
		tx.Rollback()
		return &voucher, true, bizErr
	}

	voucher.Version = readVersion + 1
	res := tx.Model(&models.Voucher{}).
		Where("id = ? AND version = ?", voucher.ID, readVersion).
		Updates(map[string]interface{}{
			"status":           voucher.Status,
			"claimed_count":    voucher.ClaimedCount,
			"claimed_total":    voucher.ClaimedTotal,
			"remaining_amount": voucher.RemainingAmount,
			"version":          voucher.Version,
			"updated_at":       time.Now(),
		})
	if res.Error != nil {
		tx.Rollback()
		return nil, true, errors.NewStoreUnavailableError(res.Error)
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, false, nil
	}

	for i := priorClaims; i < len(voucher.Claims); i++ {
		if err := tx.Create(&voucher.Claims[i]).Error; err != nil {
			tx.Rollback()
			return nil, true, errors.NewStoreUnavailableError(err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, true, errors.NewStoreUnavailableError(err)
	}

	return &voucher, true, bizErr
}

// DeleteCancelled removes a voucher and its claims. The status condition is
// re-checked by the DELETE itself so a voucher that changed between the
// caller's read and this call is never removed.
func (s *GormVoucherStore) DeleteCancelled(code string) error {
	tx := s.db.Begin()
	if tx.Error != nil {
		return errors.NewStoreUnavailableError(tx.Error)
	}

	var voucher models.Voucher
	if err := tx.Where("code = ?", code).First(&voucher).Error; err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return errors.NewNotFoundError("Voucher not found")
		}
		return errors.NewStoreUnavailableError(err)
	}

	res := tx.Where("id = ? AND status = ?", voucher.ID, models.VoucherStatusCancelled).
		Delete(&models.Voucher{})
	if res.Error != nil {
		tx.Rollback()
		return errors.NewStoreUnavailableError(res.Error)
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return errors.NewRuleError(errors.CodeNotCancelled, "Voucher is not cancelled")
	}

	if err := tx.Where("voucher_id = ?", voucher.ID).Delete(&models.Claim{}).Error; err != nil {
		tx.Rollback()
		return errors.NewStoreUnavailableError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return errors.NewStoreUnavailableError(err)
	}

	return nil
}

func (s *GormVoucherStore) ListByCreator(creator string, limit, offset int) ([]models.Voucher, int64, error) {
	var totalItems int64
	if err := s.db.Model(&models.Voucher{}).Where("created_by = ?", creator).Count(&totalItems).Error; err != nil {
		return nil, 0, errors.NewStoreUnavailableError(err)
	}

	var vouchers []models.Voucher
	query := s.db.Where("created_by = ?", creator).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&vouchers).Error; err != nil {
		return nil, 0, errors.NewStoreUnavailableError(err)
	}

	return vouchers, totalItems, nil
}

func (s *GormVoucherStore) ClaimsByVoucher(code string, limit, offset int) ([]models.Claim, error) {
	voucher, err := s.Get(code)
	if err != nil {
		return nil, err
	}

	// Claim order: ascending, same as the Claims preload above.
	var claims []models.Claim
	query := s.db.Where("voucher_id = ?", voucher.ID).Order("claimed_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&claims).Error; err != nil {
		return nil, errors.NewStoreUnavailableError(err)
	}

	return claims, nil
}
