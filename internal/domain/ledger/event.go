package ledger

import (
	"time"

	"github.com/campusops/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// EventType identifies the kind of lifecycle event recorded in the ledger
type EventType string

const (
	EventTypeConversionRequested EventType = "CONVERSION_REQUESTED"
	EventTypeEnrollmentCompleted EventType = "ENROLLMENT_COMPLETED"
	EventTypeInstallmentPaid     EventType = "INSTALLMENT_PAID"
	EventTypeInstallmentOverdue  EventType = "INSTALLMENT_OVERDUE"
)

// IsValid checks if the event type is a known ledger event kind
func (t EventType) IsValid() bool {
	switch t {
	case EventTypeConversionRequested, EventTypeEnrollmentCompleted,
		EventTypeInstallmentPaid, EventTypeInstallmentOverdue:
		return true
	}
	return false
}

// String returns the string representation of the event type
func (t EventType) String() string {
	return string(t)
}

// SubjectType identifies the entity a ledger event documents
type SubjectType string

const (
	SubjectTypeCustomer    SubjectType = "CUSTOMER"
	SubjectTypeStudent     SubjectType = "STUDENT"
	SubjectTypePayment     SubjectType = "PAYMENT"
	SubjectTypeInstallment SubjectType = "INSTALLMENT"
)

// IsValid checks if the subject type is valid
func (s SubjectType) IsValid() bool {
	switch s {
	case SubjectTypeCustomer, SubjectTypeStudent, SubjectTypePayment, SubjectTypeInstallment:
		return true
	}
	return false
}

// EventStatus models the outcome of the mutation an event documents.
// An event is recorded as PENDING before the mutation runs; a successful
// mutation finalizes it to COMMITTED, a failed one marks it FAILED. A
// PENDING event whose workflow died mid-flight is itself a queryable trace
// of the attempt; events are never deleted.
type EventStatus string

const (
	EventStatusPending   EventStatus = "PENDING"
	EventStatusCommitted EventStatus = "COMMITTED"
	EventStatusFailed    EventStatus = "FAILED"
)

// IsValid checks if the status is a valid EventStatus
func (s EventStatus) IsValid() bool {
	return s == EventStatusPending || s == EventStatusCommitted || s == EventStatusFailed
}

// IsTerminal returns true once the event has a recorded outcome
func (s EventStatus) IsTerminal() bool {
	return s == EventStatusCommitted || s == EventStatusFailed
}

// LedgerEvent is one append-only row in the lifecycle event ledger.
// Rows are written before the state mutation they document (event-first
// ordering) and their metadata may be patched exactly once afterwards to
// backfill identifiers that were unknown at record time.
type LedgerEvent struct {
	shared.BaseEntity
	TenantID      uuid.UUID
	EventType     EventType
	SubjectType   SubjectType
	SubjectID     uuid.UUID
	ActorID       uuid.UUID
	SchemaVersion int
	Metadata      Metadata
	Status        EventStatus
	FinalizedAt   *time.Time
	FailureReason string
}

// NewLedgerEvent creates a pending ledger event from a typed payload.
// Only required-field presence is validated; the ledger never inspects
// payload semantics.
func NewLedgerEvent(tenantID uuid.UUID, subjectType SubjectType, subjectID, actorID uuid.UUID, payload Payload) (*LedgerEvent, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if !subjectType.IsValid() {
		return nil, shared.NewValidationError("INVALID_SUBJECT_TYPE", "Subject type is not valid")
	}
	if subjectID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_SUBJECT", "Subject ID cannot be empty")
	}
	if actorID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_ACTOR", "Actor ID cannot be empty")
	}
	if payload == nil {
		return nil, shared.NewValidationError("INVALID_PAYLOAD", "Event payload cannot be nil")
	}
	if !payload.EventType().IsValid() {
		return nil, shared.NewValidationError("INVALID_EVENT_TYPE", "Event type is not valid")
	}

	return &LedgerEvent{
		BaseEntity:    shared.NewBaseEntity(),
		TenantID:      tenantID,
		EventType:     payload.EventType(),
		SubjectType:   subjectType,
		SubjectID:     subjectID,
		ActorID:       actorID,
		SchemaVersion: payload.SchemaVersion(),
		Metadata:      payload.ToMetadata(),
		Status:        EventStatusPending,
	}, nil
}

// Finalize merges the outcome patch into the event metadata and marks the
// event committed. Finalizing twice with the same patch is a no-op;
// finalizing with a different patch after the first is a conflict, since
// metadata may be backfilled exactly once.
func (e *LedgerEvent) Finalize(patch Metadata) error {
	if e.Status == EventStatusFailed {
		return shared.NewConflictError("EVENT_FAILED", "Cannot finalize an event marked as failed")
	}
	if e.Status == EventStatusCommitted {
		if e.Metadata.Contains(patch) {
			return nil
		}
		return shared.NewConflictError("METADATA_ALREADY_PATCHED", "Event metadata has already been finalized with a different outcome")
	}

	e.Metadata = e.Metadata.Merge(patch)
	now := time.Now()
	e.Status = EventStatusCommitted
	e.FinalizedAt = &now
	e.Touch()
	return nil
}

// MarkFailed records that the mutation this event documents did not commit.
// The event row itself stays: a failed attempt is still part of the audit
// trail of intent.
func (e *LedgerEvent) MarkFailed(reason string) error {
	if e.Status.IsTerminal() {
		return shared.NewConflictError("EVENT_FINALIZED", "Cannot mark a finalized event as failed")
	}
	e.Status = EventStatusFailed
	e.FailureReason = reason
	e.Touch()
	return nil
}

// IsPending returns true while the documented mutation has no recorded outcome
func (e *LedgerEvent) IsPending() bool {
	return e.Status == EventStatusPending
}

// IsCommitted returns true once the documented mutation succeeded
func (e *LedgerEvent) IsCommitted() bool {
	return e.Status == EventStatusCommitted
}
