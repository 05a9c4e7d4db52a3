package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/safatanc/giftdrop-core/internal/app/errors"
	"github.com/safatanc/giftdrop-core/internal/app/models"
)

// memoryVoucherStore is a mutex-guarded in-memory VoucherStore with the same
// optimistic-concurrency contract as the GORM store: the update closure runs
// against a snapshot outside the lock, and the commit is rejected when the
// stored version moved in the meantime.
type memoryVoucherStore struct {
	mu         sync.Mutex
	vouchers   map[string]*models.Voucher
	maxRetries int
}

func newMemoryVoucherStore() *memoryVoucherStore {
	return &memoryVoucherStore{
		vouchers:   make(map[string]*models.Voucher),
		maxRetries: DefaultMaxRetries,
	}
}

func cloneVoucher(v *models.Voucher) *models.Voucher {
	clone := *v
	clone.Claims = append([]models.Claim(nil), v.Claims...)
	return &clone
}

func (s *memoryVoucherStore) Create(voucher *models.Voucher) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.vouchers[voucher.Code]; ok {
		return errors.NewConflictError("Voucher code already exists")
	}
	s.vouchers[voucher.Code] = cloneVoucher(voucher)
	return nil
}

func (s *memoryVoucherStore) Get(code string) (*models.Voucher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	voucher, ok := s.vouchers[code]
	if !ok {
		return nil, errors.NewNotFoundError("Voucher not found")
	}
	return cloneVoucher(voucher), nil
}

func (s *memoryVoucherStore) AtomicUpdate(code string, fn UpdateFunc) (*models.Voucher, error) {
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		s.mu.Lock()
		stored, ok := s.vouchers[code]
		if !ok {
			s.mu.Unlock()
			return nil, errors.NewNotFoundError("Voucher not found")
		}
		snapshot := cloneVoucher(stored)
		s.mu.Unlock()

		readVersion := snapshot.Version
		dirty, bizErr := fn(snapshot)
		if !dirty {
			return snapshot, bizErr
		}

		s.mu.Lock()
		stored, ok = s.vouchers[code]
		if !ok {
			s.mu.Unlock()
			return nil, errors.NewNotFoundError("Voucher not found")
		}
		if stored.Version != readVersion {
			s.mu.Unlock()
			continue
		}
		snapshot.Version = readVersion + 1
		s.vouchers[code] = cloneVoucher(snapshot)
		s.mu.Unlock()
		return snapshot, bizErr
	}

	return nil, errors.NewConflictError("Voucher update conflicted too many times")
}

func (s *memoryVoucherStore) DeleteCancelled(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	voucher, ok := s.vouchers[code]
	if !ok {
		return errors.NewNotFoundError("Voucher not found")
	}
	if voucher.Status != models.VoucherStatusCancelled {
		return errors.NewRuleError(errors.CodeNotCancelled, "Voucher is not cancelled")
	}
	delete(s.vouchers, code)
	return nil
}

func (s *memoryVoucherStore) ListByCreator(creator string, limit, offset int) ([]models.Voucher, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []models.Voucher
	for _, v := range s.vouchers {
		if v.CreatedBy == creator {
			all = append(all, *cloneVoucher(v))
		}
	}

	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (s *memoryVoucherStore) ClaimsByVoucher(code string, limit, offset int) ([]models.Claim, error) {
	voucher, err := s.Get(code)
	if err != nil {
		return nil, err
	}

	claims := voucher.Claims
	if offset >= len(claims) {
		return nil, nil
	}
	claims = claims[offset:]
	if limit > 0 && limit < len(claims) {
		claims = claims[:limit]
	}
	return claims, nil
}

// fakeClaimNotifier records published events.
type fakeClaimNotifier struct {
	mu     sync.Mutex
	events []models.ClaimEvent
}

func (n *fakeClaimNotifier) NotifyClaim(event models.ClaimEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *fakeClaimNotifier) Events() []models.ClaimEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.ClaimEvent(nil), n.events...)
}

// fakeAuditor records audit writes and can simulate a failing audit sink.
type fakeAuditor struct {
	mu      sync.Mutex
	err     error
	entries []models.AuditLog
}

func (a *fakeAuditor) LogAudit(tableName string, recordID uuid.UUID, action models.AuditAction, oldData, newData interface{}, changedBy *string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, models.AuditLog{
		ID:        uuid.New(),
		TableName: tableName,
		RecordID:  recordID,
		Action:    action,
		ChangedBy: changedBy,
		ChangedAt: time.Now(),
	})
	return a.err
}

func (a *fakeAuditor) GetVoucherAuditTrail(recordID uuid.UUID, limit, offset int) ([]models.AuditLog, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var logs []models.AuditLog
	for i := len(a.entries) - 1; i >= 0; i-- {
		if a.entries[i].RecordID == recordID {
			logs = append(logs, a.entries[i])
		}
	}
	if offset >= len(logs) {
		return nil, nil
	}
	logs = logs[offset:]
	if limit > 0 && limit < len(logs) {
		logs = logs[:limit]
	}
	return logs, nil
}

func (a *fakeAuditor) Actions() []models.AuditAction {
	a.mu.Lock()
	defer a.mu.Unlock()
	actions := make([]models.AuditAction, 0, len(a.entries))
	for _, e := range a.entries {
		actions = append(actions, e.Action)
	}
	return actions
}
