// Package notification defines the outbound message surface. Dispatch is
// best-effort: delivery failures are logged by implementations and never
// propagate into the operation that triggered them.
package notification

import (
	"context"

	"github.com/google/uuid"
)

// Kind names the notification template
type Kind string

const (
	KindStudentEnrolled    Kind = "STUDENT_ENROLLED"
	KindInstallmentPaid    Kind = "INSTALLMENT_PAID"
	KindInstallmentOverdue Kind = "INSTALLMENT_OVERDUE"
	KindPaymentSettled     Kind = "PAYMENT_SETTLED"
)

// Message is one outbound notification
type Message struct {
	TenantID  uuid.UUID      `json:"tenant_id"`
	Kind      Kind           `json:"kind"`
	SubjectID uuid.UUID      `json:"subject_id"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// Dispatcher delivers notifications to whatever channels the deployment
// has configured
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}
