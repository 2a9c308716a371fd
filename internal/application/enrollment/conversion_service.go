package enrollment

import (
	"context"
	"strings"
	"time"

	appledger "github.com/campusops/backend/internal/application/ledger"
	"github.com/campusops/backend/internal/domain/enrollment"
	"github.com/campusops/backend/internal/domain/ledger"
	"github.com/campusops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConversionService turns an active prospect into an enrolled student.
// The workflow is event-first: the intent is durably recorded in the
// ledger before any state changes, and the student plus its linked
// account are created in one transaction guarded by the unique
// back-reference index, so a customer converts exactly once.
type ConversionService struct {
	customerRepo enrollment.CustomerRepository
	studentRepo  enrollment.StudentRepository
	ledgerSvc    *appledger.Service
	eventBus     shared.EventPublisher
	logger       *zap.Logger
}

// NewConversionService creates a new ConversionService
func NewConversionService(
	customerRepo enrollment.CustomerRepository,
	studentRepo enrollment.StudentRepository,
	ledgerSvc *appledger.Service,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *ConversionService {
	return &ConversionService{
		customerRepo: customerRepo,
		studentRepo:  studentRepo,
		ledgerSvc:    ledgerSvc,
		eventBus:     eventBus,
		logger:       logger,
	}
}

// ConvertCustomerRequest carries the input for a conversion
type ConvertCustomerRequest struct {
	TenantID      uuid.UUID `json:"tenant_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	ActorID       uuid.UUID `json:"actor_id"`
	StudentNumber string    `json:"student_number"`
	Reason        string    `json:"reason"`
	Method        string    `json:"method"`
}

// AccountResponse represents a student account in API responses
type AccountResponse struct {
	ID            uuid.UUID `json:"id"`
	AccountNumber string    `json:"account_number"`
	Status        string    `json:"status"`
}

// StudentResponse represents a student in API responses
type StudentResponse struct {
	ID                      uuid.UUID        `json:"id"`
	TenantID                uuid.UUID        `json:"tenant_id"`
	StudentNumber           string           `json:"student_number"`
	FullName                string           `json:"full_name"`
	GuardianName            string           `json:"guardian_name,omitempty"`
	Phone                   string           `json:"phone,omitempty"`
	Email                   string           `json:"email,omitempty"`
	Status                  string           `json:"status"`
	ConvertedFromCustomerID *uuid.UUID       `json:"converted_from_customer_id,omitempty"`
	ConversionDate          *time.Time       `json:"conversion_date,omitempty"`
	Account                 *AccountResponse `json:"account,omitempty"`
	CreatedAt               time.Time        `json:"created_at"`
}

// ConversionResponse is the outcome of a successful conversion. It carries
// the ledger event so callers can correlate the mutation with its recorded
// intent.
type ConversionResponse struct {
	Student       StudentResponse `json:"student"`
	LedgerEventID uuid.UUID       `json:"ledger_event_id"`
	EventMetadata ledger.Metadata `json:"event_metadata"`
}

func toStudentResponse(s *enrollment.Student) StudentResponse {
	resp := StudentResponse{
		ID:                      s.ID,
		TenantID:                s.TenantID,
		StudentNumber:           s.StudentNumber,
		FullName:                s.FullName,
		GuardianName:            s.GuardianName,
		Phone:                   s.Phone,
		Email:                   s.Email,
		Status:                  string(s.Status),
		ConvertedFromCustomerID: s.ConvertedFromCustomerID,
		ConversionDate:          s.ConversionDate,
		CreatedAt:               s.CreatedAt,
	}
	if s.Account != nil {
		resp.Account = &AccountResponse{
			ID:            s.Account.ID,
			AccountNumber: s.Account.AccountNumber,
			Status:        string(s.Account.Status),
		}
	}
	return resp
}

func (r ConvertCustomerRequest) validate() error {
	if r.TenantID == uuid.Nil {
		return shared.NewValidationError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if r.CustomerID == uuid.Nil {
		return shared.NewValidationError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if r.ActorID == uuid.Nil {
		return shared.NewValidationError("INVALID_ACTOR", "Actor ID cannot be empty")
	}
	if strings.TrimSpace(r.StudentNumber) == "" {
		return shared.NewValidationError("INVALID_STUDENT_NUMBER", "Student number cannot be empty")
	}
	return nil
}

// Convert enrolls the prospect as a student. On success the response
// carries the created student with its account and the finalized ledger
// event. A second call for the same customer returns a conflict.
func (s *ConversionService) Convert(ctx context.Context, req ConvertCustomerRequest) shared.Result[ConversionResponse] {
	if err := req.validate(); err != nil {
		return shared.FailFrom[ConversionResponse](err)
	}

	customer, err := s.customerRepo.FindByIDForTenant(ctx, req.TenantID, req.CustomerID)
	if err != nil {
		return shared.FailFrom[ConversionResponse](err)
	}

	// Fast-path guard; the unique index on the back-reference closes the
	// race between two concurrent conversions of the same customer.
	if existing, err := s.studentRepo.FindByConvertedFrom(ctx, req.TenantID, customer.ID); err == nil {
		return shared.Fail[ConversionResponse](shared.NewConflictError("ALREADY_CONVERTED",
			"Customer has already been converted to student "+existing.StudentNumber))
	} else if !shared.IsNotFound(err) {
		return shared.FailFrom[ConversionResponse](err)
	}

	if !customer.IsConvertible() {
		return shared.Fail[ConversionResponse](shared.NewConflictError("ALREADY_CONVERTED",
			"Customer is not an active prospect"))
	}

	// Record intent before touching any state. If this write fails the
	// whole conversion aborts.
	event, err := s.ledgerSvc.Record(ctx, req.TenantID, ledger.SubjectTypeCustomer, customer.ID, req.ActorID,
		ledger.ConversionRequestedPayload{
			Reason:   req.Reason,
			Method:   req.Method,
			Snapshot: customer.Snapshot(),
		})
	if err != nil {
		return shared.FailFrom[ConversionResponse](err)
	}

	student, err := enrollment.NewStudentFromConversion(customer, req.StudentNumber, req.ActorID)
	if err != nil {
		s.failEvent(ctx, event, err)
		return shared.FailFrom[ConversionResponse](err)
	}
	if err := customer.MarkConverted(student.ID); err != nil {
		s.failEvent(ctx, event, err)
		return shared.FailFrom[ConversionResponse](err)
	}

	if err := s.studentRepo.CreateWithAccount(ctx, student); err != nil {
		s.failEvent(ctx, event, err)
		return shared.FailFrom[ConversionResponse](err)
	}

	// From here the student exists. Follow-up write failures are logged
	// and leave their ledger rows pending rather than undoing the
	// committed mutation.
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		s.logger.Error("customer retire write failed after conversion",
			zap.String("customer_id", customer.ID.String()),
			zap.String("student_id", student.ID.String()),
			zap.Error(err))
		return shared.FailFrom[ConversionResponse](err)
	}

	if err := s.ledgerSvc.Finalize(ctx, event, ledger.StudentIDPatch(student.ID)); err != nil {
		s.logger.Error("conversion event finalize failed",
			zap.String("event_id", event.ID.String()),
			zap.Error(err))
	}

	s.recordEnrollmentCompleted(ctx, req, customer.ID, student.ID)
	s.publishEvents(ctx, customer, student)

	s.logger.Info("customer converted",
		zap.String("customer_id", customer.ID.String()),
		zap.String("student_id", student.ID.String()),
		zap.String("student_number", student.StudentNumber))

	return shared.OK(ConversionResponse{
		Student:       toStudentResponse(student),
		LedgerEventID: event.ID,
		EventMetadata: event.Metadata,
	})
}

// failEvent marks the intent event failed, best-effort
func (s *ConversionService) failEvent(ctx context.Context, event *ledger.LedgerEvent, cause error) {
	if err := s.ledgerSvc.Fail(ctx, event, cause.Error()); err != nil {
		s.logger.Warn("could not mark conversion event failed",
			zap.String("event_id", event.ID.String()),
			zap.Error(err))
	}
}

// recordEnrollmentCompleted appends and finalizes the secondary event
// against the new student. Best-effort: the conversion has already
// committed.
func (s *ConversionService) recordEnrollmentCompleted(ctx context.Context, req ConvertCustomerRequest, customerID, studentID uuid.UUID) {
	event, err := s.ledgerSvc.Record(ctx, req.TenantID, ledger.SubjectTypeStudent, studentID, req.ActorID,
		ledger.EnrollmentCompletedPayload{
			StudentID:  studentID,
			CustomerID: customerID,
		})
	if err != nil {
		s.logger.Warn("enrollment-completed event record failed",
			zap.String("student_id", studentID.String()),
			zap.Error(err))
		return
	}
	if err := s.ledgerSvc.Finalize(ctx, event, ledger.Metadata{}); err != nil {
		s.logger.Warn("enrollment-completed event finalize failed",
			zap.String("event_id", event.ID.String()),
			zap.Error(err))
	}
}

// publishEvents hands the aggregates' domain events to the bus for the
// audit and notification subscribers. Fire-and-forget.
func (s *ConversionService) publishEvents(ctx context.Context, customer *enrollment.Customer, student *enrollment.Student) {
	events := append(customer.GetDomainEvents(), student.GetDomainEvents()...)
	if len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("domain event publish failed", zap.Error(err))
	}
	customer.ClearDomainEvents()
	student.ClearDomainEvents()
}
