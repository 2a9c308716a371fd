package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/campusops/backend/internal/domain/audit"
	"github.com/google/uuid"
)

// JSONMap stores a freeform document as JSONB.
type JSONMap map[string]any

// Value implements driver.Valuer for JSONB storage
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB retrieval
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan JSONMap: unsupported type")
	}
	if len(bytes) == 0 {
		*m = JSONMap{}
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// AuditLogModel is the persistence model for best-effort audit entries.
type AuditLogModel struct {
	ID           uuid.UUID    `gorm:"type:uuid;primary_key"`
	TenantID     uuid.UUID    `gorm:"type:uuid;not null;index:idx_audit_tenant_resource,priority:1"`
	ActorID      *uuid.UUID   `gorm:"type:uuid;index"`
	Action       audit.Action `gorm:"type:varchar(30);not null;index"`
	ResourceType string       `gorm:"type:varchar(50);not null;index:idx_audit_tenant_resource,priority:2"`
	ResourceID   uuid.UUID    `gorm:"type:uuid;not null;index:idx_audit_tenant_resource,priority:3"`
	Detail       JSONMap      `gorm:"type:jsonb;not null;default:'{}'"`
	RecordedAt   time.Time    `gorm:"type:timestamptz;not null;index"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// ToDomain converts the persistence model to a domain audit Entry.
func (m *AuditLogModel) ToDomain() audit.Entry {
	return audit.Entry{
		ID:           m.ID,
		TenantID:     m.TenantID,
		ActorID:      m.ActorID,
		Action:       m.Action,
		ResourceType: m.ResourceType,
		ResourceID:   m.ResourceID,
		Detail:       m.Detail,
		RecordedAt:   m.RecordedAt,
	}
}

// AuditLogModelFromDomain creates a new persistence model from a domain audit Entry.
func AuditLogModelFromDomain(e audit.Entry) *AuditLogModel {
	return &AuditLogModel{
		ID:           e.ID,
		TenantID:     e.TenantID,
		ActorID:      e.ActorID,
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		Detail:       JSONMap(e.Detail),
		RecordedAt:   e.RecordedAt,
	}
}
