package enrollment

import (
	"time"

	"github.com/campusops/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomerConvertedEvent is raised when a prospect is retired by conversion
type CustomerConvertedEvent struct {
	shared.BaseDomainEvent
	CustomerID   uuid.UUID `json:"customer_id"`
	CustomerCode string    `json:"customer_code"`
	StudentID    uuid.UUID `json:"student_id"`
	ConvertedAt  time.Time `json:"converted_at"`
}

// EventType returns the event type name
func (e *CustomerConvertedEvent) EventType() string {
	return "CustomerConverted"
}

// NewCustomerConvertedEvent creates a new CustomerConvertedEvent
func NewCustomerConvertedEvent(c *Customer, studentID uuid.UUID) *CustomerConvertedEvent {
	convertedAt := time.Now()
	if c.ConvertedAt != nil {
		convertedAt = *c.ConvertedAt
	}
	return &CustomerConvertedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("CustomerConverted", "Customer", c.ID, c.TenantID),
		CustomerID:      c.ID,
		CustomerCode:    c.Code,
		StudentID:       studentID,
		ConvertedAt:     convertedAt,
	}
}

// StudentEnrolledEvent is raised when a student (and its linked account)
// is created through conversion
type StudentEnrolledEvent struct {
	shared.BaseDomainEvent
	StudentID      uuid.UUID  `json:"student_id"`
	StudentNumber  string     `json:"student_number"`
	CustomerID     uuid.UUID  `json:"customer_id"`
	ConversionDate *time.Time `json:"conversion_date,omitempty"`
}

// EventType returns the event type name
func (e *StudentEnrolledEvent) EventType() string {
	return "StudentEnrolled"
}

// NewStudentEnrolledEvent creates a new StudentEnrolledEvent
func NewStudentEnrolledEvent(s *Student, customerID uuid.UUID) *StudentEnrolledEvent {
	return &StudentEnrolledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("StudentEnrolled", "Student", s.ID, s.TenantID),
		StudentID:       s.ID,
		StudentNumber:   s.StudentNumber,
		CustomerID:      customerID,
		ConversionDate:  s.ConversionDate,
	}
}
