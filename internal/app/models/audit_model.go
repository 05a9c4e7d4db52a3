package models

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditActionCreate AuditAction = "CREATE"
	AuditActionClaim  AuditAction = "CLAIM"
	AuditActionCancel AuditAction = "CANCEL"
	AuditActionExpire AuditAction = "EXPIRE"
	AuditActionDelete AuditAction = "DELETE"
)

// AuditLog records voucher state transitions with JSON before/after
// snapshots. Writes are best effort and never gate the transition itself.
type AuditLog struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	TableName string      `gorm:"size:64" json:"table_name"`
	RecordID  uuid.UUID   `gorm:"type:uuid;index" json:"record_id"`
	Action    AuditAction `gorm:"size:16" json:"action"`
	OldData   *string     `json:"old_data,omitempty"`
	NewData   *string     `json:"new_data,omitempty"`
	ChangedBy *string     `gorm:"size:255" json:"changed_by,omitempty"`
	ChangedAt time.Time   `json:"changed_at"`
}
