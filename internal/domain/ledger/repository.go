package ledger

import (
	"context"

	"github.com/google/uuid"
)

// EventRepository persists ledger events. Append and Update are the only
// write paths; rows are never deleted.
type EventRepository interface {
	// Append durably writes a new ledger event row
	Append(ctx context.Context, event *LedgerEvent) error
	// Update persists finalize / failure outcome changes to an existing row
	Update(ctx context.Context, event *LedgerEvent) error
	// FindByID finds a ledger event by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*LedgerEvent, error)
	// FindByIDForTenant finds a ledger event by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*LedgerEvent, error)
	// FindBySubject lists events documenting a subject entity, oldest first
	FindBySubject(ctx context.Context, tenantID uuid.UUID, subjectType SubjectType, subjectID uuid.UUID) ([]LedgerEvent, error)
}
