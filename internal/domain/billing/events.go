package billing

import (
	"time"

	"github.com/campusops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InstallmentPaidEvent is raised when an installment is settled
type InstallmentPaidEvent struct {
	shared.BaseDomainEvent
	InstallmentID uuid.UUID       `json:"installment_id"`
	PaymentID     uuid.UUID       `json:"payment_id"`
	Number        int             `json:"number"`
	Amount        decimal.Decimal `json:"amount"`
	LateFee       decimal.Decimal `json:"late_fee"`
	PaidDate      *time.Time      `json:"paid_date,omitempty"`
}

// EventType returns the event type name
func (e *InstallmentPaidEvent) EventType() string {
	return "InstallmentPaid"
}

// NewInstallmentPaidEvent creates a new InstallmentPaidEvent
func NewInstallmentPaidEvent(i *Installment) *InstallmentPaidEvent {
	return &InstallmentPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InstallmentPaid", "Installment", i.ID, i.TenantID),
		InstallmentID:   i.ID,
		PaymentID:       i.PaymentID,
		Number:          i.Number,
		Amount:          i.Amount,
		LateFee:         i.LateFee,
		PaidDate:        i.PaidDate,
	}
}

// InstallmentOverdueEvent is raised the first time an installment passes
// its due date unpaid
type InstallmentOverdueEvent struct {
	shared.BaseDomainEvent
	InstallmentID uuid.UUID       `json:"installment_id"`
	PaymentID     uuid.UUID       `json:"payment_id"`
	Number        int             `json:"number"`
	DueDate       time.Time       `json:"due_date"`
	LateFee       decimal.Decimal `json:"late_fee"`
}

// EventType returns the event type name
func (e *InstallmentOverdueEvent) EventType() string {
	return "InstallmentOverdue"
}

// NewInstallmentOverdueEvent creates a new InstallmentOverdueEvent
func NewInstallmentOverdueEvent(i *Installment) *InstallmentOverdueEvent {
	return &InstallmentOverdueEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InstallmentOverdue", "Installment", i.ID, i.TenantID),
		InstallmentID:   i.ID,
		PaymentID:       i.PaymentID,
		Number:          i.Number,
		DueDate:         i.DueDate,
		LateFee:         i.LateFee,
	}
}

// PaymentStatusChangedEvent is raised when the derived payment status moves
type PaymentStatusChangedEvent struct {
	shared.BaseDomainEvent
	PaymentID      uuid.UUID     `json:"payment_id"`
	PaymentNumber  string        `json:"payment_number"`
	StudentID      uuid.UUID     `json:"student_id"`
	PreviousStatus PaymentStatus `json:"previous_status"`
	NewStatus      PaymentStatus `json:"new_status"`
}

// EventType returns the event type name
func (e *PaymentStatusChangedEvent) EventType() string {
	return "PaymentStatusChanged"
}

// NewPaymentStatusChangedEvent creates a new PaymentStatusChangedEvent
func NewPaymentStatusChangedEvent(p *Payment, previous PaymentStatus) *PaymentStatusChangedEvent {
	return &PaymentStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentStatusChanged", "Payment", p.ID, p.TenantID),
		PaymentID:       p.ID,
		PaymentNumber:   p.PaymentNumber,
		StudentID:       p.StudentID,
		PreviousStatus:  previous,
		NewStatus:       p.Status,
	}
}
