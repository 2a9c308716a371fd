package ledger

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Metadata is the structured document attached to a ledger event. It is
// stored as JSONB and only ever grows: patches merge keys in, they never
// remove or silently overwrite conflicting values.
type Metadata map[string]any

// Value implements driver.Valuer for JSONB storage
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB retrieval
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan Metadata: unsupported type")
	}

	if len(bytes) == 0 {
		*m = Metadata{}
		return nil
	}

	return json.Unmarshal(bytes, m)
}

// Merge returns a new Metadata with the patch keys layered on top
func (m Metadata) Merge(patch Metadata) Metadata {
	merged := make(Metadata, len(m)+len(patch))
	for k, v := range m {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	return merged
}

// Contains reports whether every key in the patch is already present with
// an equal value. Used to make finalize idempotent for a repeated patch.
func (m Metadata) Contains(patch Metadata) bool {
	for k, v := range patch {
		existing, ok := m[k]
		if !ok {
			return false
		}
		if fmt.Sprintf("%v", existing) != fmt.Sprintf("%v", v) {
			return false
		}
	}
	return true
}

// Payload is a typed, versioned event metadata document. Each ledger event
// kind has exactly one payload shape; freeform maps never cross the ledger
// boundary at record time.
type Payload interface {
	EventType() EventType
	SchemaVersion() int
	ToMetadata() Metadata
}

// CustomerSnapshot captures the prospect's identity at the moment a
// conversion was requested, so the event remains meaningful after the
// customer record is retired.
type CustomerSnapshot struct {
	CustomerID   uuid.UUID `json:"customer_id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	GuardianName string    `json:"guardian_name,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Email        string    `json:"email,omitempty"`
}

// ConversionRequestedPayload documents the intent to convert a customer
// into a student, recorded before the student row exists. The student id
// is backfilled via finalize.
type ConversionRequestedPayload struct {
	Reason   string
	Method   string
	Snapshot CustomerSnapshot
}

// EventType returns the ledger event kind for this payload
func (p ConversionRequestedPayload) EventType() EventType { return EventTypeConversionRequested }

// SchemaVersion returns the payload schema version
func (p ConversionRequestedPayload) SchemaVersion() int { return 1 }

// ToMetadata converts the payload into the stored document shape
func (p ConversionRequestedPayload) ToMetadata() Metadata {
	return Metadata{
		"reason": p.Reason,
		"method": p.Method,
		"prior_customer_snapshot": map[string]any{
			"customer_id":   p.Snapshot.CustomerID.String(),
			"code":          p.Snapshot.Code,
			"name":          p.Snapshot.Name,
			"guardian_name": p.Snapshot.GuardianName,
			"phone":         p.Snapshot.Phone,
			"email":         p.Snapshot.Email,
		},
	}
}

// EnrollmentCompletedPayload is the secondary event recorded against the
// newly enrolled student once a conversion transaction has committed.
type EnrollmentCompletedPayload struct {
	StudentID  uuid.UUID
	CustomerID uuid.UUID
}

// EventType returns the ledger event kind for this payload
func (p EnrollmentCompletedPayload) EventType() EventType { return EventTypeEnrollmentCompleted }

// SchemaVersion returns the payload schema version
func (p EnrollmentCompletedPayload) SchemaVersion() int { return 1 }

// ToMetadata converts the payload into the stored document shape
func (p EnrollmentCompletedPayload) ToMetadata() Metadata {
	return Metadata{
		"student_id":  p.StudentID.String(),
		"customer_id": p.CustomerID.String(),
	}
}

// InstallmentPaidPayload documents the intent to mark an installment paid
type InstallmentPaidPayload struct {
	PaymentID         uuid.UUID
	InstallmentNumber int
	Amount            string
	Remarks           string
}

// EventType returns the ledger event kind for this payload
func (p InstallmentPaidPayload) EventType() EventType { return EventTypeInstallmentPaid }

// SchemaVersion returns the payload schema version
func (p InstallmentPaidPayload) SchemaVersion() int { return 1 }

// ToMetadata converts the payload into the stored document shape
func (p InstallmentPaidPayload) ToMetadata() Metadata {
	m := Metadata{
		"payment_id":         p.PaymentID.String(),
		"installment_number": p.InstallmentNumber,
		"amount":             p.Amount,
	}
	if p.Remarks != "" {
		m["remarks"] = p.Remarks
	}
	return m
}

// InstallmentOverduePayload documents the intent to mark an installment overdue
type InstallmentOverduePayload struct {
	PaymentID         uuid.UUID
	InstallmentNumber int
	Amount            string
	LateFee           string
}

// EventType returns the ledger event kind for this payload
func (p InstallmentOverduePayload) EventType() EventType { return EventTypeInstallmentOverdue }

// SchemaVersion returns the payload schema version
func (p InstallmentOverduePayload) SchemaVersion() int { return 1 }

// ToMetadata converts the payload into the stored document shape
func (p InstallmentOverduePayload) ToMetadata() Metadata {
	return Metadata{
		"payment_id":         p.PaymentID.String(),
		"installment_number": p.InstallmentNumber,
		"amount":             p.Amount,
		"late_fee":           p.LateFee,
	}
}

// StudentIDPatch is the finalize patch backfilling the created student id
// into a conversion-requested event.
func StudentIDPatch(studentID uuid.UUID) Metadata {
	return Metadata{"student_id": studentID.String()}
}

// PaidDatePatch is the finalize patch recording when an installment
// transition committed.
func PaidDatePatch(paidDate string) Metadata {
	return Metadata{"paid_date": paidDate}
}
