// Package audit records who did what to which resource. Writes are
// best-effort: a failed audit write is logged and never fails the
// operation that produced it.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action names the operation being audited
type Action string

const (
	ActionCreate      Action = "CREATE"
	ActionUpdate      Action = "UPDATE"
	ActionDelete      Action = "DELETE"
	ActionConvert     Action = "CONVERT"
	ActionMarkPaid    Action = "MARK_PAID"
	ActionMarkOverdue Action = "MARK_OVERDUE"
)

// Entry is one audit trail record
type Entry struct {
	ID           uuid.UUID      `json:"id"`
	TenantID     uuid.UUID      `json:"tenant_id"`
	ActorID      *uuid.UUID     `json:"actor_id,omitempty"`
	Action       Action         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   uuid.UUID      `json:"resource_id"`
	Detail       map[string]any `json:"detail,omitempty"`
	RecordedAt   time.Time      `json:"recorded_at"`
}

// NewEntry creates an audit entry stamped with the current time
func NewEntry(tenantID uuid.UUID, actorID *uuid.UUID, action Action, resourceType string, resourceID uuid.UUID, detail map[string]any) Entry {
	return Entry{
		ID:           uuid.New(),
		TenantID:     tenantID,
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Detail:       detail,
		RecordedAt:   time.Now(),
	}
}

// Trail persists audit entries
type Trail interface {
	Record(ctx context.Context, entry Entry) error
}
