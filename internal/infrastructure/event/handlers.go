package event

import (
	"context"

	"github.com/campusops/backend/internal/domain/audit"
	"github.com/campusops/backend/internal/domain/billing"
	"github.com/campusops/backend/internal/domain/enrollment"
	"github.com/campusops/backend/internal/domain/notification"
	"github.com/campusops/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditHandler writes one audit trail entry per domain event. It is
// subscribed through the idempotent wrapper so redelivered events do not
// produce duplicate rows.
type AuditHandler struct {
	trail  audit.Trail
	logger *zap.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(trail audit.Trail, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{trail: trail, logger: logger}
}

// EventTypes returns the audited event types
func (h *AuditHandler) EventTypes() []string {
	return []string{
		"CustomerConverted",
		"StudentEnrolled",
		"InstallmentPaid",
		"InstallmentOverdue",
		"PaymentStatusChanged",
	}
}

// Handle records the event in the audit trail. Failures are logged and
// swallowed: auditing never fails the operation that emitted the event.
func (h *AuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	entry := audit.NewEntry(event.TenantID(), nil, actionFor(event), event.AggregateType(), event.AggregateID(), detailFor(event))

	if err := h.trail.Record(ctx, entry); err != nil {
		h.logger.Warn("audit write failed",
			zap.String("event_type", event.EventType()),
			zap.String("aggregate_id", event.AggregateID().String()),
			zap.Error(err))
	}
	return nil
}

func actionFor(event shared.DomainEvent) audit.Action {
	switch event.EventType() {
	case "CustomerConverted":
		return audit.ActionConvert
	case "StudentEnrolled":
		return audit.ActionCreate
	case "InstallmentPaid":
		return audit.ActionMarkPaid
	case "InstallmentOverdue":
		return audit.ActionMarkOverdue
	default:
		return audit.ActionUpdate
	}
}

func detailFor(event shared.DomainEvent) map[string]any {
	switch e := event.(type) {
	case *enrollment.CustomerConvertedEvent:
		return map[string]any{
			"customer_code": e.CustomerCode,
			"student_id":    e.StudentID.String(),
		}
	case *enrollment.StudentEnrolledEvent:
		return map[string]any{
			"student_number": e.StudentNumber,
			"customer_id":    e.CustomerID.String(),
		}
	case *billing.InstallmentPaidEvent:
		return map[string]any{
			"payment_id": e.PaymentID.String(),
			"number":     e.Number,
			"amount":     e.Amount.String(),
		}
	case *billing.InstallmentOverdueEvent:
		return map[string]any{
			"payment_id": e.PaymentID.String(),
			"number":     e.Number,
			"late_fee":   e.LateFee.String(),
		}
	case *billing.PaymentStatusChangedEvent:
		return map[string]any{
			"payment_number":  e.PaymentNumber,
			"previous_status": string(e.PreviousStatus),
			"new_status":      string(e.NewStatus),
		}
	default:
		return nil
	}
}

var _ shared.EventHandler = (*AuditHandler)(nil)

// NotificationHandler turns domain events into outbound notifications.
// Like auditing, dispatch is best-effort.
type NotificationHandler struct {
	dispatcher notification.Dispatcher
	logger     *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(dispatcher notification.Dispatcher, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{dispatcher: dispatcher, logger: logger}
}

// EventTypes returns the notifying event types
func (h *NotificationHandler) EventTypes() []string {
	return []string{
		"StudentEnrolled",
		"InstallmentPaid",
		"InstallmentOverdue",
		"PaymentStatusChanged",
	}
}

// Handle dispatches the notification derived from the event
func (h *NotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	msg, ok := messageFor(event)
	if !ok {
		return nil
	}

	if err := h.dispatcher.Dispatch(ctx, msg); err != nil {
		h.logger.Warn("notification dispatch failed",
			zap.String("event_type", event.EventType()),
			zap.String("kind", string(msg.Kind)),
			zap.Error(err))
	}
	return nil
}

func messageFor(event shared.DomainEvent) (notification.Message, bool) {
	switch e := event.(type) {
	case *enrollment.StudentEnrolledEvent:
		return notification.Message{
			TenantID:  e.TenantID(),
			Kind:      notification.KindStudentEnrolled,
			SubjectID: e.StudentID,
			Payload:   map[string]any{"student_number": e.StudentNumber},
		}, true
	case *billing.InstallmentPaidEvent:
		return notification.Message{
			TenantID:  e.TenantID(),
			Kind:      notification.KindInstallmentPaid,
			SubjectID: e.InstallmentID,
			Payload:   map[string]any{"number": e.Number, "amount": e.Amount.String()},
		}, true
	case *billing.InstallmentOverdueEvent:
		return notification.Message{
			TenantID:  e.TenantID(),
			Kind:      notification.KindInstallmentOverdue,
			SubjectID: e.InstallmentID,
			Payload:   map[string]any{"number": e.Number, "late_fee": e.LateFee.String()},
		}, true
	case *billing.PaymentStatusChangedEvent:
		if e.NewStatus != billing.PaymentStatusPaid {
			return notification.Message{}, false
		}
		return notification.Message{
			TenantID:  e.TenantID(),
			Kind:      notification.KindPaymentSettled,
			SubjectID: e.PaymentID,
			Payload:   map[string]any{"payment_number": e.PaymentNumber},
		}, true
	default:
		return notification.Message{}, false
	}
}

var _ shared.EventHandler = (*NotificationHandler)(nil)
