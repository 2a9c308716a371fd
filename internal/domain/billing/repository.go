package billing

import (
	"context"

	"github.com/google/uuid"
)

// PaymentRepository persists payment obligations
type PaymentRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)
	FindByStudent(ctx context.Context, tenantID, studentID uuid.UUID) ([]Payment, error)
	Create(ctx context.Context, payment *Payment) error
	// Save writes the payment with an optimistic version check and
	// returns shared.ErrStaleWrite when the stored version has moved.
	Save(ctx context.Context, payment *Payment) error
}

// CreateGuard runs inside the installment-create transaction, against the
// locked payment row and its current live installments. Returning an error
// aborts the insert.
type CreateGuard func(payment *Payment, existing []Installment) error

// InstallmentRepository persists installments
type InstallmentRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Installment, error)
	// FindByPayment returns the payment's live (non-deleted) installments
	// ordered by number.
	FindByPayment(ctx context.Context, tenantID, paymentID uuid.UUID) ([]Installment, error)
	FindOverdueCandidates(ctx context.Context, tenantID uuid.UUID) ([]Installment, error)
	// CreateInPayment locks the parent payment row, loads its live
	// installments, runs guard, and inserts the installment, all within
	// one transaction.
	CreateInPayment(ctx context.Context, installment *Installment, guard CreateGuard) error
	// Save writes the installment with an optimistic version check and
	// returns shared.ErrStaleWrite when the stored version has moved.
	Save(ctx context.Context, installment *Installment) error
	SoftDelete(ctx context.Context, tenantID, id uuid.UUID) error
}
