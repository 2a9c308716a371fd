// Package notification provides the default outbound notification
// dispatcher. Deployments without a real delivery channel run with the
// log dispatcher, which records every message through zap so operators
// can verify what would have been sent.
package notification

import (
	"context"

	"github.com/campusops/backend/internal/domain/notification"
	"github.com/campusops/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// LogDispatcher writes notifications to the structured log instead of an
// external channel
type LogDispatcher struct {
	log *zap.Logger
}

// NewLogDispatcher creates a dispatcher backed by the given logger
func NewLogDispatcher(log *zap.Logger) *LogDispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogDispatcher{log: log}
}

// Dispatch logs the message. It never returns an error; callers treat
// dispatch as best-effort either way.
func (d *LogDispatcher) Dispatch(ctx context.Context, msg notification.Message) error {
	log := d.log
	if requestID := logger.GetRequestID(ctx); requestID != "" {
		log = log.With(zap.String("request_id", requestID))
	}

	log.Info("notification dispatched",
		zap.String("kind", string(msg.Kind)),
		zap.String("tenant_id", msg.TenantID.String()),
		zap.String("subject_id", msg.SubjectID.String()),
		zap.Any("payload", msg.Payload),
	)
	return nil
}

// Ensure LogDispatcher implements notification.Dispatcher
var _ notification.Dispatcher = (*LogDispatcher)(nil)
