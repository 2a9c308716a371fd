package models

import (
	"time"

	"github.com/campusops/backend/internal/domain/ledger"
	"github.com/google/uuid"
)

// LedgerEventModel is the persistence model for the append-only lifecycle
// event ledger. Rows are only ever inserted or patched (finalize / fail),
// never deleted; there is deliberately no DeletedAt column.
type LedgerEventModel struct {
	BaseModel
	TenantID      uuid.UUID          `gorm:"type:uuid;not null;index:idx_ledger_tenant_subject,priority:1"`
	EventType     ledger.EventType   `gorm:"type:varchar(40);not null;index"`
	SubjectType   ledger.SubjectType `gorm:"type:varchar(20);not null;index:idx_ledger_tenant_subject,priority:2"`
	SubjectID     uuid.UUID          `gorm:"type:uuid;not null;index:idx_ledger_tenant_subject,priority:3"`
	ActorID       uuid.UUID          `gorm:"type:uuid;not null"`
	SchemaVersion int                `gorm:"not null;default:1"`
	Metadata      ledger.Metadata    `gorm:"type:jsonb;not null;default:'{}'"`
	Status        ledger.EventStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	FinalizedAt   *time.Time         `gorm:"type:timestamptz"`
	FailureReason string             `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (LedgerEventModel) TableName() string {
	return "ledger_events"
}

// ToDomain converts the persistence model to a domain LedgerEvent.
func (m *LedgerEventModel) ToDomain() *ledger.LedgerEvent {
	return &ledger.LedgerEvent{
		BaseEntity:    m.BaseModel.ToDomain(),
		TenantID:      m.TenantID,
		EventType:     m.EventType,
		SubjectType:   m.SubjectType,
		SubjectID:     m.SubjectID,
		ActorID:       m.ActorID,
		SchemaVersion: m.SchemaVersion,
		Metadata:      m.Metadata,
		Status:        m.Status,
		FinalizedAt:   m.FinalizedAt,
		FailureReason: m.FailureReason,
	}
}

// FromDomain populates the persistence model from a domain LedgerEvent.
func (m *LedgerEventModel) FromDomain(e *ledger.LedgerEvent) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.TenantID = e.TenantID
	m.EventType = e.EventType
	m.SubjectType = e.SubjectType
	m.SubjectID = e.SubjectID
	m.ActorID = e.ActorID
	m.SchemaVersion = e.SchemaVersion
	m.Metadata = e.Metadata
	m.Status = e.Status
	m.FinalizedAt = e.FinalizedAt
	m.FailureReason = e.FailureReason
}

// LedgerEventModelFromDomain creates a new persistence model from a domain LedgerEvent.
func LedgerEventModelFromDomain(e *ledger.LedgerEvent) *LedgerEventModel {
	m := &LedgerEventModel{}
	m.FromDomain(e)
	return m
}
