package enrollment

import (
	"strings"
	"time"

	"github.com/campusops/backend/internal/domain/ledger"
	"github.com/campusops/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomerStatus represents the lifecycle status of a prospective customer
type CustomerStatus string

const (
	CustomerStatusActive    CustomerStatus = "ACTIVE"    // Open prospect
	CustomerStatusConverted CustomerStatus = "CONVERTED" // Converted into a student (terminal)
	CustomerStatusArchived  CustomerStatus = "ARCHIVED"  // Retired without conversion
)

// IsValid checks if the status is a valid CustomerStatus
func (s CustomerStatus) IsValid() bool {
	switch s {
	case CustomerStatusActive, CustomerStatusConverted, CustomerStatusArchived:
		return true
	}
	return false
}

// String returns the string representation of CustomerStatus
func (s CustomerStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the customer can no longer be converted
func (s CustomerStatus) IsTerminal() bool {
	return s == CustomerStatusConverted || s == CustomerStatusArchived
}

// Customer represents a prospective student (an enrollment lead) owned by a
// school. Conversion into a Student is exactly-once: once converted the
// record is retired and only kept for history.
type Customer struct {
	shared.TenantAggregateRoot
	Code         string         `json:"code"`
	Name         string         `json:"name"`
	GuardianName string         `json:"guardian_name"`
	Phone        string         `json:"phone"`
	Email        string         `json:"email"`
	Notes        string         `json:"notes"`
	Status       CustomerStatus `json:"status"`
	ConvertedAt  *time.Time     `json:"converted_at"`
}

// NewCustomer creates a new prospect record
func NewCustomer(tenantID uuid.UUID, code, name string) (*Customer, error) {
	code = strings.TrimSpace(strings.ToUpper(code))
	name = strings.TrimSpace(name)

	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if code == "" {
		return nil, shared.NewValidationError("INVALID_CODE", "Customer code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewValidationError("INVALID_CODE", "Customer code cannot exceed 50 characters")
	}
	if name == "" {
		return nil, shared.NewValidationError("INVALID_NAME", "Customer name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewValidationError("INVALID_NAME", "Customer name cannot exceed 200 characters")
	}

	return &Customer{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                name,
		Status:              CustomerStatusActive,
	}, nil
}

// SetContact sets guardian and contact details
func (c *Customer) SetContact(guardianName, phone, email string) error {
	if len(guardianName) > 200 {
		return shared.NewValidationError("INVALID_GUARDIAN", "Guardian name cannot exceed 200 characters")
	}
	if len(phone) > 50 {
		return shared.NewValidationError("INVALID_PHONE", "Phone cannot exceed 50 characters")
	}
	if email != "" && !strings.Contains(email, "@") {
		return shared.NewValidationError("INVALID_EMAIL", "Email is not valid")
	}
	c.GuardianName = strings.TrimSpace(guardianName)
	c.Phone = strings.TrimSpace(phone)
	c.Email = strings.ToLower(strings.TrimSpace(email))
	c.Touch()
	c.IncrementVersion()
	return nil
}

// CustomerPatch is the allow-listed field set an edit may change. Anything
// outside this struct never reaches the row.
type CustomerPatch struct {
	Name         *string
	GuardianName *string
	Phone        *string
	Email        *string
	Notes        *string
}

// ApplyPatch applies an allow-listed edit to the prospect
func (c *Customer) ApplyPatch(patch CustomerPatch) error {
	if c.Status.IsTerminal() {
		return shared.NewConflictError("CUSTOMER_RETIRED", "Cannot edit a converted or archived customer")
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return shared.NewValidationError("INVALID_NAME", "Customer name cannot be empty")
		}
		if len(name) > 200 {
			return shared.NewValidationError("INVALID_NAME", "Customer name cannot exceed 200 characters")
		}
		c.Name = name
	}
	if patch.GuardianName != nil || patch.Phone != nil || patch.Email != nil {
		guardian := c.GuardianName
		phone := c.Phone
		email := c.Email
		if patch.GuardianName != nil {
			guardian = *patch.GuardianName
		}
		if patch.Phone != nil {
			phone = *patch.Phone
		}
		if patch.Email != nil {
			email = *patch.Email
		}
		if err := c.SetContact(guardian, phone, email); err != nil {
			return err
		}
	}
	if patch.Notes != nil {
		c.Notes = *patch.Notes
	}

	c.Touch()
	c.IncrementVersion()
	return nil
}

// MarkConverted retires the prospect after its student has been created
func (c *Customer) MarkConverted(studentID uuid.UUID) error {
	if c.Status == CustomerStatusConverted {
		return shared.NewConflictError("ALREADY_CONVERTED", "Customer has already been converted")
	}
	if c.Status == CustomerStatusArchived {
		return shared.NewConflictError("CUSTOMER_RETIRED", "Cannot convert an archived customer")
	}

	now := time.Now()
	c.Status = CustomerStatusConverted
	c.ConvertedAt = &now
	c.Touch()
	c.IncrementVersion()

	c.AddDomainEvent(NewCustomerConvertedEvent(c, studentID))
	return nil
}

// Archive retires the prospect without conversion
func (c *Customer) Archive() error {
	if c.Status.IsTerminal() {
		return shared.NewConflictError("CUSTOMER_RETIRED", "Customer is already retired")
	}
	c.Status = CustomerStatusArchived
	c.Touch()
	c.IncrementVersion()
	return nil
}

// IsConvertible returns true while the prospect can still be converted
func (c *Customer) IsConvertible() bool {
	return c.Status == CustomerStatusActive
}

// Snapshot captures the prospect's identity for the conversion ledger event
func (c *Customer) Snapshot() ledger.CustomerSnapshot {
	return ledger.CustomerSnapshot{
		CustomerID:   c.ID,
		Code:         c.Code,
		Name:         c.Name,
		GuardianName: c.GuardianName,
		Phone:        c.Phone,
		Email:        c.Email,
	}
}
