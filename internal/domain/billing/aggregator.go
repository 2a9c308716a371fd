package billing

import (
	"fmt"

	"github.com/campusops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DerivePaymentStatus computes the aggregate status of a payment from its
// live installments. Precedence: all paid wins, then any overdue, then
// any paid at all, then pending. The boolean is false when there are no
// installments, in which case the payment status must be left untouched.
func DerivePaymentStatus(installments []Installment) (PaymentStatus, bool) {
	if len(installments) == 0 {
		return "", false
	}

	paid := 0
	overdue := false
	for _, inst := range installments {
		switch inst.Status {
		case InstallmentStatusPaid:
			paid++
		case InstallmentStatusOverdue:
			overdue = true
		}
	}

	switch {
	case paid == len(installments):
		return PaymentStatusPaid, true
	case overdue:
		return PaymentStatusOverdue, true
	case paid > 0:
		return PaymentStatusPartiallyPaid, true
	default:
		return PaymentStatusPending, true
	}
}

// SumInstallmentAmounts totals the base amounts of the given installments,
// excluding late fees.
func SumInstallmentAmounts(installments []Installment) decimal.Decimal {
	sum := decimal.Zero
	for _, inst := range installments {
		sum = sum.Add(inst.Amount)
	}
	return sum
}

// ValidateNewInstallment checks the cross-aggregate invariants for adding
// an installment to a payment: the number must be unused within the
// payment and the resulting sum of installment amounts must not exceed
// the payment total. Must run against the payment's full current set of
// live installments, inside the same transaction as the insert.
func ValidateNewInstallment(payment *Payment, existing []Installment, candidate *Installment) error {
	if payment == nil {
		return shared.NewValidationError("INVALID_PAYMENT", "Payment cannot be nil")
	}
	if candidate.PaymentID != payment.ID {
		return shared.NewValidationError("INVALID_PAYMENT", "Installment does not belong to this payment")
	}
	if !candidate.BelongsTo(payment.TenantID) {
		return shared.ErrCrossTenant
	}

	for _, inst := range existing {
		if inst.Number == candidate.Number {
			return shared.NewConflictError("DUPLICATE_INSTALLMENT_NUMBER",
				fmt.Sprintf("Installment number %d already exists for payment %s", candidate.Number, payment.PaymentNumber))
		}
	}

	sum := SumInstallmentAmounts(existing).Add(candidate.Amount)
	if sum.GreaterThan(payment.Total) {
		return shared.NewConsistencyError("INSTALLMENT_SUM_EXCEEDED",
			fmt.Sprintf("Installment amounts %s would exceed payment total %s", sum.String(), payment.Total.String()))
	}
	return nil
}

// ValidateInstallmentSum re-checks the sum bound over a payment's full
// installment set, used after an amount edit.
func ValidateInstallmentSum(payment *Payment, installments []Installment) error {
	sum := SumInstallmentAmounts(installments)
	if sum.GreaterThan(payment.Total) {
		return shared.NewConsistencyError("INSTALLMENT_SUM_EXCEEDED",
			fmt.Sprintf("Installment amounts %s would exceed payment total %s", sum.String(), payment.Total.String()))
	}
	return nil
}
