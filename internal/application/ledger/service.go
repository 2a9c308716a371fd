package ledger

import (
	"context"
	"time"

	"github.com/campusops/backend/internal/domain/ledger"
	"github.com/campusops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service provides application-level ledger operations. The ledger is the
// system of record for lifecycle intent: callers append a pending event
// before mutating state, then finalize or fail it afterwards.
type Service struct {
	eventRepo ledger.EventRepository
	logger    *zap.Logger
}

// NewService creates a new ledger Service
func NewService(eventRepo ledger.EventRepository, logger *zap.Logger) *Service {
	return &Service{
		eventRepo: eventRepo,
		logger:    logger,
	}
}

// EventResponse represents a ledger event in API responses
type EventResponse struct {
	ID            uuid.UUID       `json:"id"`
	TenantID      uuid.UUID       `json:"tenant_id"`
	EventType     string          `json:"event_type"`
	SubjectType   string          `json:"subject_type"`
	SubjectID     uuid.UUID       `json:"subject_id"`
	ActorID       uuid.UUID       `json:"actor_id"`
	SchemaVersion int             `json:"schema_version"`
	Metadata      ledger.Metadata `json:"metadata"`
	Status        string          `json:"status"`
	RecordedAt    time.Time       `json:"recorded_at"`
	FinalizedAt   *time.Time      `json:"finalized_at,omitempty"`
	FailureReason string          `json:"failure_reason,omitempty"`
}

func toEventResponse(e *ledger.LedgerEvent) *EventResponse {
	return &EventResponse{
		ID:            e.ID,
		TenantID:      e.TenantID,
		EventType:     e.EventType.String(),
		SubjectType:   string(e.SubjectType),
		SubjectID:     e.SubjectID,
		ActorID:       e.ActorID,
		SchemaVersion: e.SchemaVersion,
		Metadata:      e.Metadata,
		Status:        string(e.Status),
		RecordedAt:    e.CreatedAt,
		FinalizedAt:   e.FinalizedAt,
		FailureReason: e.FailureReason,
	}
}

// Record appends a pending event documenting the intent to mutate the given
// subject. It must be called, and must succeed, before the mutation itself
// runs; a ledger append failure aborts the whole operation.
func (s *Service) Record(ctx context.Context, tenantID uuid.UUID, subjectType ledger.SubjectType, subjectID, actorID uuid.UUID, payload ledger.Payload) (*ledger.LedgerEvent, error) {
	event, err := ledger.NewLedgerEvent(tenantID, subjectType, subjectID, actorID, payload)
	if err != nil {
		return nil, err
	}

	if err := s.eventRepo.Append(ctx, event); err != nil {
		s.logger.Error("ledger append failed",
			zap.String("tenant_id", tenantID.String()),
			zap.String("event_type", event.EventType.String()),
			zap.String("subject_id", subjectID.String()),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("ledger event recorded",
		zap.String("event_id", event.ID.String()),
		zap.String("event_type", event.EventType.String()),
		zap.String("subject_id", subjectID.String()))
	return event, nil
}

// Finalize merges the outcome patch into a pending event and marks it
// committed. Re-finalizing with the same patch is a no-op; a different
// patch is a conflict.
func (s *Service) Finalize(ctx context.Context, event *ledger.LedgerEvent, patch ledger.Metadata) error {
	if err := event.Finalize(patch); err != nil {
		return err
	}
	if err := s.eventRepo.Update(ctx, event); err != nil {
		s.logger.Error("ledger finalize write failed",
			zap.String("event_id", event.ID.String()),
			zap.Error(err))
		return err
	}
	return nil
}

// Fail marks a pending event as failed with the given reason. The row
// remains in the ledger as a trace of the attempt.
func (s *Service) Fail(ctx context.Context, event *ledger.LedgerEvent, reason string) error {
	if err := event.MarkFailed(reason); err != nil {
		return err
	}
	if err := s.eventRepo.Update(ctx, event); err != nil {
		s.logger.Error("ledger failure write failed",
			zap.String("event_id", event.ID.String()),
			zap.Error(err))
		return err
	}
	s.logger.Warn("ledger event marked failed",
		zap.String("event_id", event.ID.String()),
		zap.String("reason", reason))
	return nil
}

// GetByID returns a single ledger event within a tenant
func (s *Service) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*EventResponse, error) {
	event, err := s.eventRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toEventResponse(event), nil
}

// ListBySubject returns the event history documenting a subject entity,
// oldest first. Failed and pending events are included: the ledger is a
// record of intent, not just of outcomes.
func (s *Service) ListBySubject(ctx context.Context, tenantID uuid.UUID, subjectType ledger.SubjectType, subjectID uuid.UUID) ([]EventResponse, error) {
	if !subjectType.IsValid() {
		return nil, shared.NewValidationError("INVALID_SUBJECT_TYPE", "Subject type is not valid")
	}

	events, err := s.eventRepo.FindBySubject(ctx, tenantID, subjectType, subjectID)
	if err != nil {
		return nil, err
	}

	responses := make([]EventResponse, 0, len(events))
	for i := range events {
		responses = append(responses, *toEventResponse(&events[i]))
	}
	return responses, nil
}
