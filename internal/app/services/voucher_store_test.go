package services

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	apperrors "github.com/safatanc/giftdrop-core/internal/app/errors"
	"github.com/safatanc/giftdrop-core/internal/app/models"
	"github.com/safatanc/giftdrop-core/internal/infrastructures"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps the whole in-memory database on one handle.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Voucher{}, &models.Claim{}, &models.AuditLog{}))

	return db
}

func seedVoucher(t *testing.T, store VoucherStore, code string) *models.Voucher {
	t.Helper()
	voucher := &models.Voucher{
		ID:             uuid.New(),
		Code:           code,
		CreatedBy:      "creator-1",
		TokenSymbol:    "GDT",
		Mode:           models.VoucherModePerClaim,
		PerClaimAmount: decimal.RequireFromString("1.5"),
		ClaimLimit:     5,
		MaxPerUser:     1,
		Status:         models.VoucherStatusActive,
	}
	require.NoError(t, store.Create(voucher))
	return voucher
}

func TestMemoryStoreRetriesOnConflict(t *testing.T) {
	store := newMemoryVoucherStore()
	seedVoucher(t, store, "conflictcode")

	attempts := 0
	_, err := store.AtomicUpdate("conflictcode", func(v *models.Voucher) (bool, error) {
		attempts++
		if attempts == 1 {
			// Another writer commits between our read and our commit.
			_, err := store.AtomicUpdate("conflictcode", func(other *models.Voucher) (bool, error) {
				other.ClaimedCount++
				return true, nil
			})
			require.NoError(t, err)
		}
		v.ClaimedCount++
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	stored, err := store.Get("conflictcode")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.ClaimedCount)
}

func TestMemoryStoreConflictExhaustion(t *testing.T) {
	store := newMemoryVoucherStore()
	store.maxRetries = 3
	seedVoucher(t, store, "hotvoucher99")

	attempts := 0
	_, err := store.AtomicUpdate("hotvoucher99", func(v *models.Voucher) (bool, error) {
		attempts++
		// Every attempt loses to a concurrent commit.
		_, err := store.AtomicUpdate("hotvoucher99", func(other *models.Voucher) (bool, error) {
			other.ClaimedCount++
			return true, nil
		})
		require.NoError(t, err)
		v.ClaimedCount++
		return true, nil
	})
	requireCode(t, err, apperrors.CodeConflict)
	assert.Equal(t, 3, attempts)
}

func TestGormStoreCreateAndGet(t *testing.T) {
	store := NewGormVoucherStore(newTestDB(t))
	voucher := seedVoucher(t, store, "gormcreate01")

	stored, err := store.Get("gormcreate01")
	require.NoError(t, err)
	assert.Equal(t, voucher.ID, stored.ID)
	assert.Equal(t, models.VoucherStatusActive, stored.Status)
	assert.True(t, stored.PerClaimAmount.Equal(decimal.RequireFromString("1.5")))

	_, err = store.Get("missingcode1")
	requireCode(t, err, apperrors.CodeNotFound)

	err = store.Create(&models.Voucher{ID: uuid.New(), Code: "gormcreate01"})
	requireCode(t, err, apperrors.CodeConflict)
}

func TestGormStoreAtomicUpdatePersistsClaims(t *testing.T) {
	store := NewGormVoucherStore(newTestDB(t))
	voucher := seedVoucher(t, store, "gormupdate01")

	updated, err := store.AtomicUpdate("gormupdate01", func(v *models.Voucher) (bool, error) {
		v.Claims = append(v.Claims, models.Claim{
			ID:              uuid.New(),
			VoucherID:       v.ID,
			ClaimantAddress: "0xaaaa1111",
			Amount:          v.PerClaimAmount,
		})
		v.ClaimedCount++
		v.ClaimedTotal = v.ClaimedTotal.Add(v.PerClaimAmount)
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.Version)

	stored, err := store.Get("gormupdate01")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.ClaimedCount)
	assert.Equal(t, int64(1), stored.Version)
	require.Len(t, stored.Claims, 1)
	assert.Equal(t, voucher.ID, stored.Claims[0].VoucherID)
	assert.Equal(t, "0xaaaa1111", stored.Claims[0].ClaimantAddress)
}

func TestGormStoreCleanRejectionDoesNotBumpVersion(t *testing.T) {
	store := NewGormVoucherStore(newTestDB(t))
	seedVoucher(t, store, "gormclean001")

	_, err := store.AtomicUpdate("gormclean001", func(v *models.Voucher) (bool, error) {
		return false, apperrors.NewRuleError(apperrors.CodeAlreadyClaimed, "Voucher already claimed by this user")
	})
	requireCode(t, err, apperrors.CodeAlreadyClaimed)

	stored, err := store.Get("gormclean001")
	require.NoError(t, err)
	assert.Equal(t, int64(0), stored.Version)
}

func TestGormStoreDirtyFailurePersists(t *testing.T) {
	store := NewGormVoucherStore(newTestDB(t))
	seedVoucher(t, store, "gormdirty001")

	_, err := store.AtomicUpdate("gormdirty001", func(v *models.Voucher) (bool, error) {
		v.Status = models.VoucherStatusExpired
		return true, apperrors.NewRuleError(apperrors.CodeExpired, "Voucher has expired")
	})
	requireCode(t, err, apperrors.CodeExpired)

	stored, err := store.Get("gormdirty001")
	require.NoError(t, err)
	assert.Equal(t, models.VoucherStatusExpired, stored.Status)
	assert.Equal(t, int64(1), stored.Version)
}

func TestGormStoreDeleteCancelled(t *testing.T) {
	db := newTestDB(t)
	store := NewGormVoucherStore(db)
	voucher := seedVoucher(t, store, "gormdelete01")

	_, err := store.AtomicUpdate("gormdelete01", func(v *models.Voucher) (bool, error) {
		v.Claims = append(v.Claims, models.Claim{
			ID:              uuid.New(),
			VoucherID:       v.ID,
			ClaimantAddress: "0xaaaa1111",
			Amount:          v.PerClaimAmount,
		})
		v.ClaimedCount++
		return true, nil
	})
	require.NoError(t, err)

	err = store.DeleteCancelled("gormdelete01")
	requireCode(t, err, apperrors.CodeNotCancelled)

	_, err = store.AtomicUpdate("gormdelete01", func(v *models.Voucher) (bool, error) {
		v.Status = models.VoucherStatusCancelled
		return true, nil
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteCancelled("gormdelete01"))

	_, err = store.Get("gormdelete01")
	requireCode(t, err, apperrors.CodeNotFound)

	// The claim history goes with the voucher.
	var claimCount int64
	require.NoError(t, db.Model(&models.Claim{}).Where("voucher_id = ?", voucher.ID).Count(&claimCount).Error)
	assert.Equal(t, int64(0), claimCount)

	err = store.DeleteCancelled("gormdelete01")
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestGormStoreListByCreator(t *testing.T) {
	store := NewGormVoucherStore(newTestDB(t))
	seedVoucher(t, store, "gormlist0001")
	seedVoucher(t, store, "gormlist0002")

	other := &models.Voucher{
		ID:         uuid.New(),
		Code:       "gormlist0003",
		CreatedBy:  "creator-2",
		Mode:       models.VoucherModePerClaim,
		ClaimLimit: 1,
		MaxPerUser: 1,
		Status:     models.VoucherStatusActive,
	}
	require.NoError(t, store.Create(other))

	vouchers, total, err := store.ListByCreator("creator-1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, vouchers, 2)

	vouchers, total, err = store.ListByCreator("creator-1", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, vouchers, 1)
}

// End-to-end claim flow against the real store implementation.
func TestGormStoreClaimFlow(t *testing.T) {
	db := newTestDB(t)
	store := NewGormVoucherStore(db)
	validator := infrastructures.NewValidator()
	notifier := &fakeClaimNotifier{}
	auditService := NewAuditService(db)

	vouchers := NewVoucherService(store, validator, auditService)
	claims := NewClaimService(store, validator, notifier, auditService)

	voucher, err := vouchers.CreateVoucher("creator-1", &models.VoucherCreateDto{
		TokenSymbol: "GDT",
		Mode:        models.VoucherModeTotal,
		TotalPolicy: policyPtr(models.TotalPolicyEqual),
		TotalAmount: decPtr("100"),
		ClaimLimit:  intPtr(4),
	})
	require.NoError(t, err)

	addresses := []string{"0xaaaa0001", "0xaaaa0002", "0xaaaa0003", "0xaaaa0004"}
	for i, addr := range addresses {
		result, err := claims.Claim(&models.ClaimRequestDto{
			Voucher:          voucher.Code,
			ClaimantAddress:  addr,
			ClaimantIdentity: strPtr(addresses[i]),
		})
		require.NoError(t, err)
		assert.True(t, result.Amount.Equal(decimal.RequireFromString("25")), "claim %d got %s", i, result.Amount)
	}

	_, err = claims.Claim(&models.ClaimRequestDto{
		Voucher:         voucher.Code,
		ClaimantAddress: "0xaaaa0005",
	})
	requireCode(t, err, apperrors.CodeNotActive)

	// Once terminal, even a prior claimant sees the stored status.
	_, err = claims.Claim(&models.ClaimRequestDto{
		Voucher:         voucher.Code,
		ClaimantAddress: "0xaaaa0001",
	})
	requireCode(t, err, apperrors.CodeNotActive)

	stored, err := store.Get(voucher.Code)
	require.NoError(t, err)
	assert.Equal(t, models.VoucherStatusExhausted, stored.Status)
	assert.True(t, stored.RemainingAmount.IsZero())
	assert.Len(t, stored.Claims, 4)
	assert.Equal(t, len(notifier.Events()), 4)

	// Claim history lists oldest first, matching the preloaded Claims order.
	listed, err := store.ClaimsByVoucher(voucher.Code, 0, 0)
	require.NoError(t, err)
	require.Len(t, listed, 4)
	for i, addr := range addresses {
		assert.Equal(t, addr, listed[i].ClaimantAddress, "claim %d", i)
	}

	trail, err := auditService.GetVoucherAuditTrail(voucher.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, trail, 5) // 1 create + 4 claims
	assert.Equal(t, models.AuditActionCreate, trail[len(trail)-1].Action)
	for _, entry := range trail[:4] {
		assert.Equal(t, models.AuditActionClaim, entry.Action)
	}
}
