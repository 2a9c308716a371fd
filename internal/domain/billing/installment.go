package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/campusops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LateFeeRate is the flat overdue surcharge applied exactly once per
// installment, computed on the installment amount at the moment it first
// becomes overdue.
var LateFeeRate = decimal.RequireFromString("0.05")

// InstallmentStatus represents the lifecycle state of an installment.
// Valid transitions: PENDING -> PAID, PENDING -> OVERDUE -> PAID.
// PAID is terminal.
type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "PENDING"
	InstallmentStatusOverdue InstallmentStatus = "OVERDUE"
	InstallmentStatusPaid    InstallmentStatus = "PAID"
)

// IsValid checks if the status is a valid InstallmentStatus
func (s InstallmentStatus) IsValid() bool {
	switch s {
	case InstallmentStatusPending, InstallmentStatusOverdue, InstallmentStatusPaid:
		return true
	}
	return false
}

// IsTerminal returns true when no further transitions are allowed
func (s InstallmentStatus) IsTerminal() bool {
	return s == InstallmentStatusPaid
}

// String returns the string representation of InstallmentStatus
func (s InstallmentStatus) String() string {
	return string(s)
}

// Installment is one scheduled portion of a payment. A paid installment
// is immutable: it cannot be edited, deleted or re-marked.
type Installment struct {
	shared.TenantAggregateRoot
	PaymentID uuid.UUID         `json:"payment_id"`
	Number    int               `json:"number"`
	Amount    decimal.Decimal   `json:"amount"`
	DueDate   time.Time         `json:"due_date"`
	PaidDate  *time.Time        `json:"paid_date,omitempty"`
	Status    InstallmentStatus `json:"status"`
	LateFee   decimal.Decimal   `json:"late_fee"`
	Remarks   string            `json:"remarks"`
}

// NewInstallment creates a new pending installment
func NewInstallment(tenantID, paymentID uuid.UUID, number int, amount decimal.Decimal, dueDate time.Time) (*Installment, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if paymentID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_PAYMENT", "Payment ID cannot be empty")
	}
	if number < 1 {
		return nil, shared.NewValidationError("INVALID_INSTALLMENT_NUMBER", "Installment number must be at least 1")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Installment amount must be positive")
	}
	if dueDate.IsZero() {
		return nil, shared.NewValidationError("INVALID_DUE_DATE", "Due date cannot be empty")
	}

	return &Installment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PaymentID:           paymentID,
		Number:              number,
		Amount:              amount,
		DueDate:             dueDate,
		Status:              InstallmentStatusPending,
		LateFee:             decimal.Zero,
	}, nil
}

// MarkPaid settles the installment. Allowed from PENDING and OVERDUE;
// an already paid installment yields a conflict.
func (i *Installment) MarkPaid(remarks string) error {
	if i.Status == InstallmentStatusPaid {
		return shared.NewConflictError("INSTALLMENT_ALREADY_PAID",
			fmt.Sprintf("Installment %d is already paid", i.Number))
	}

	now := time.Now()
	i.Status = InstallmentStatusPaid
	i.PaidDate = &now
	if remarks = strings.TrimSpace(remarks); remarks != "" {
		i.Remarks = remarks
	}
	i.Touch()
	i.IncrementVersion()
	i.AddDomainEvent(NewInstallmentPaidEvent(i))
	return nil
}

// MarkOverdue flags an unpaid installment whose due date has passed.
// The late fee is computed exactly once, on the first transition; a
// repeat sweep over an already overdue installment never re-applies it.
func (i *Installment) MarkOverdue(now time.Time) error {
	if i.Status == InstallmentStatusPaid {
		return shared.NewConflictError("INSTALLMENT_ALREADY_PAID",
			fmt.Sprintf("Installment %d is already paid", i.Number))
	}
	if !i.DueDate.Before(now) {
		return shared.NewValidationError("INSTALLMENT_NOT_DUE",
			fmt.Sprintf("Installment %d is not past its due date", i.Number))
	}

	if i.Status == InstallmentStatusOverdue {
		return nil
	}

	if i.LateFee.IsZero() {
		i.LateFee = i.Amount.Mul(LateFeeRate)
	}
	i.Status = InstallmentStatusOverdue
	i.Touch()
	i.IncrementVersion()
	i.AddDomainEvent(NewInstallmentOverdueEvent(i))
	return nil
}

// InstallmentPatch carries the editable fields of an installment.
// Nil fields are left unchanged.
type InstallmentPatch struct {
	Amount  *decimal.Decimal
	DueDate *time.Time
	Remarks *string
}

// ApplyPatch updates the allow-listed fields. Paid installments are
// immutable and reject any patch.
func (i *Installment) ApplyPatch(patch InstallmentPatch) error {
	if i.Status == InstallmentStatusPaid {
		return shared.NewConflictError("INSTALLMENT_ALREADY_PAID",
			fmt.Sprintf("Installment %d is paid and cannot be modified", i.Number))
	}

	if patch.Amount != nil {
		if patch.Amount.LessThanOrEqual(decimal.Zero) {
			return shared.NewValidationError("INVALID_AMOUNT", "Installment amount must be positive")
		}
		i.Amount = *patch.Amount
	}
	if patch.DueDate != nil {
		if patch.DueDate.IsZero() {
			return shared.NewValidationError("INVALID_DUE_DATE", "Due date cannot be empty")
		}
		i.DueDate = *patch.DueDate
	}
	if patch.Remarks != nil {
		i.Remarks = strings.TrimSpace(*patch.Remarks)
	}

	i.Touch()
	i.IncrementVersion()
	return nil
}

// EnsureDeletable returns a conflict when the installment is paid;
// settled money must stay on the books.
func (i *Installment) EnsureDeletable() error {
	if i.Status == InstallmentStatusPaid {
		return shared.NewConflictError("INSTALLMENT_ALREADY_PAID",
			fmt.Sprintf("Installment %d is paid and cannot be deleted", i.Number))
	}
	return nil
}

// TotalDue returns the amount owed including any late fee
func (i *Installment) TotalDue() decimal.Decimal {
	return i.Amount.Add(i.LateFee)
}

// IsPaid returns true if the installment has been settled
func (i *Installment) IsPaid() bool {
	return i.Status == InstallmentStatusPaid
}
