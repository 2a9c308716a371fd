// Package billing provides the domain model for payments and their
// installment plans in a multi-tenant school backend.
//
// A Payment is the money a student owes for an enrollment, split into
// numbered Installments. Each installment moves through a small state
// machine (PENDING -> PAID, or PENDING -> OVERDUE -> PAID); going
// overdue applies a late fee of five percent of the installment amount
// exactly once, and a paid installment is immutable afterwards.
//
// The package also derives a payment's aggregate status from its live
// installments, so callers never store a status that can drift from
// the underlying rows.
//
// All money is represented with decimal.Decimal; float64 never touches
// an amount.
package billing
