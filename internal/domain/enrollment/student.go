package enrollment

import (
	"fmt"
	"strings"
	"time"

	"github.com/campusops/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// StudentStatus represents the lifecycle status of an enrolled student
type StudentStatus string

const (
	StudentStatusActive   StudentStatus = "ACTIVE"
	StudentStatusInactive StudentStatus = "INACTIVE"
)

// IsValid checks if the status is a valid StudentStatus
func (s StudentStatus) IsValid() bool {
	return s == StudentStatusActive || s == StudentStatusInactive
}

// AccountStatus represents the status of a student's linked account
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "ACTIVE"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
)

// StudentAccount is the billing/portal account created together with the
// student in the same transaction. The pair succeeds or fails atomically.
type StudentAccount struct {
	shared.BaseEntity
	StudentID     uuid.UUID     `json:"student_id"`
	TenantID      uuid.UUID     `json:"tenant_id"`
	AccountNumber string        `json:"account_number"`
	Status        AccountStatus `json:"status"`
}

// Student represents an enrolled person. A student created through
// conversion keeps a back-reference to its source customer; at most one
// student may ever reference a given customer (enforced by a unique index
// on converted_from_customer_id).
type Student struct {
	shared.TenantAggregateRoot
	StudentNumber           string          `json:"student_number"`
	FullName                string          `json:"full_name"`
	GuardianName            string          `json:"guardian_name"`
	Phone                   string          `json:"phone"`
	Email                   string          `json:"email"`
	Status                  StudentStatus   `json:"status"`
	ConvertedFromCustomerID *uuid.UUID      `json:"converted_from_customer_id"`
	ConversionDate          *time.Time      `json:"conversion_date"`
	Account                 *StudentAccount `json:"account,omitempty"`
}

// NewStudentFromConversion creates the student (and its linked account) for
// a customer conversion. The caller persists both rows in one transaction.
func NewStudentFromConversion(customer *Customer, studentNumber string, actorID uuid.UUID) (*Student, error) {
	if customer == nil {
		return nil, shared.NewValidationError("INVALID_CUSTOMER", "Customer cannot be nil")
	}
	if !customer.IsConvertible() {
		return nil, shared.NewConflictError("ALREADY_CONVERTED", "Customer has already been converted")
	}
	studentNumber = strings.TrimSpace(strings.ToUpper(studentNumber))
	if studentNumber == "" {
		return nil, shared.NewValidationError("INVALID_STUDENT_NUMBER", "Student number cannot be empty")
	}
	if len(studentNumber) > 50 {
		return nil, shared.NewValidationError("INVALID_STUDENT_NUMBER", "Student number cannot exceed 50 characters")
	}

	now := time.Now()
	customerID := customer.ID

	student := &Student{
		TenantAggregateRoot:     shared.NewTenantAggregateRootWithActor(customer.TenantID, actorID),
		StudentNumber:           studentNumber,
		FullName:                customer.Name,
		GuardianName:            customer.GuardianName,
		Phone:                   customer.Phone,
		Email:                   customer.Email,
		Status:                  StudentStatusActive,
		ConvertedFromCustomerID: &customerID,
		ConversionDate:          &now,
	}
	student.Account = newStudentAccount(student)

	student.AddDomainEvent(NewStudentEnrolledEvent(student, customerID))
	return student, nil
}

// newStudentAccount derives the linked account for a newly created student
func newStudentAccount(s *Student) *StudentAccount {
	return &StudentAccount{
		BaseEntity:    shared.NewBaseEntity(),
		StudentID:     s.ID,
		TenantID:      s.TenantID,
		AccountNumber: fmt.Sprintf("ACC-%s", s.StudentNumber),
		Status:        AccountStatusActive,
	}
}

// WasConverted returns true if the student originated from a customer conversion
func (s *Student) WasConverted() bool {
	return s.ConvertedFromCustomerID != nil
}
