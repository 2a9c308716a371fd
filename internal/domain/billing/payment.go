package billing

import (
	"strings"

	"github.com/campusops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the aggregate status of a payment. Once a
// payment has installments the status is derived from them and is not
// independently settable by callers.
type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "PENDING"
	PaymentStatusPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentStatusOverdue       PaymentStatus = "OVERDUE"
	PaymentStatusPaid          PaymentStatus = "PAID"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPartiallyPaid, PaymentStatusOverdue, PaymentStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// Payment represents a billable obligation owed for a student. Total is
// computed from amount, discount and fine at creation; the installment sum
// invariant is checked against Total on every installment create.
type Payment struct {
	shared.TenantAggregateRoot
	PaymentNumber string          `json:"payment_number"`
	StudentID     uuid.UUID       `json:"student_id"`
	Amount        decimal.Decimal `json:"amount"`
	Discount      decimal.Decimal `json:"discount"`
	Fine          decimal.Decimal `json:"fine"`
	Total         decimal.Decimal `json:"total"`
	Status        PaymentStatus   `json:"status"`
	Description   string          `json:"description"`
}

// NewPayment creates a new payment obligation
func NewPayment(tenantID, studentID uuid.UUID, paymentNumber string, amount, discount, fine decimal.Decimal) (*Payment, error) {
	paymentNumber = strings.TrimSpace(strings.ToUpper(paymentNumber))

	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if studentID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_STUDENT", "Student ID cannot be empty")
	}
	if paymentNumber == "" {
		return nil, shared.NewValidationError("INVALID_PAYMENT_NUMBER", "Payment number cannot be empty")
	}
	if len(paymentNumber) > 50 {
		return nil, shared.NewValidationError("INVALID_PAYMENT_NUMBER", "Payment number cannot exceed 50 characters")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if discount.IsNegative() {
		return nil, shared.NewValidationError("INVALID_DISCOUNT", "Discount cannot be negative")
	}
	if fine.IsNegative() {
		return nil, shared.NewValidationError("INVALID_FINE", "Fine cannot be negative")
	}

	total := amount.Sub(discount).Add(fine)
	if total.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("INVALID_TOTAL", "Discount cannot exceed the payment amount")
	}

	return &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PaymentNumber:       paymentNumber,
		StudentID:           studentID,
		Amount:              amount,
		Discount:            discount,
		Fine:                fine,
		Total:               total,
		Status:              PaymentStatusPending,
	}, nil
}

// ApplyDerivedStatus records a recomputed aggregate status. Returns true
// when the status actually changed so callers can skip redundant writes
// and notifications.
func (p *Payment) ApplyDerivedStatus(status PaymentStatus) bool {
	if !status.IsValid() || p.Status == status {
		return false
	}
	previous := p.Status
	p.Status = status
	p.Touch()
	p.IncrementVersion()
	p.AddDomainEvent(NewPaymentStatusChangedEvent(p, previous))
	return true
}

// IsPaid returns true if the payment is fully paid
func (p *Payment) IsPaid() bool {
	return p.Status == PaymentStatusPaid
}
