package notification

import (
	"context"
	"testing"

	"github.com/campusops/backend/internal/domain/notification"
	"github.com/campusops/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogDispatcher_Dispatch(t *testing.T) {
	t.Run("logs message fields", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)
		dispatcher := NewLogDispatcher(zap.New(core))

		tenantID := uuid.New()
		subjectID := uuid.New()

		err := dispatcher.Dispatch(context.Background(), notification.Message{
			TenantID:  tenantID,
			Kind:      notification.KindStudentEnrolled,
			SubjectID: subjectID,
			Payload:   map[string]any{"student_number": "STU001"},
		})

		require.NoError(t, err)
		require.Equal(t, 1, logs.Len())

		entry := logs.All()[0]
		assert.Equal(t, "notification dispatched", entry.Message)

		fields := entry.ContextMap()
		assert.Equal(t, "STUDENT_ENROLLED", fields["kind"])
		assert.Equal(t, tenantID.String(), fields["tenant_id"])
		assert.Equal(t, subjectID.String(), fields["subject_id"])
	})

	t.Run("includes request ID from context", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)
		dispatcher := NewLogDispatcher(zap.New(core))

		ctx, _ := logger.WithRequestID(context.Background(), zap.NewNop(), "req-42")

		err := dispatcher.Dispatch(ctx, notification.Message{
			TenantID:  uuid.New(),
			Kind:      notification.KindInstallmentPaid,
			SubjectID: uuid.New(),
		})

		require.NoError(t, err)
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "req-42", logs.All()[0].ContextMap()["request_id"])
	})

	t.Run("nil logger falls back to nop", func(t *testing.T) {
		dispatcher := NewLogDispatcher(nil)

		err := dispatcher.Dispatch(context.Background(), notification.Message{
			TenantID:  uuid.New(),
			Kind:      notification.KindPaymentSettled,
			SubjectID: uuid.New(),
		})

		assert.NoError(t, err)
	})
}
