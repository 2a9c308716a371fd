package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	t.Run("returns the attached logger", func(t *testing.T) {
		logger, err := NewForEnvironment("development")
		require.NoError(t, err)

		ctx := WithContext(context.Background(), logger)
		assert.Same(t, logger, FromContext(ctx))
	})

	t.Run("bare context yields a usable no-op logger", func(t *testing.T) {
		logger := FromContext(context.Background())
		require.NotNil(t, logger)
		assert.NotPanics(t, func() {
			logger.Info("overdue sweep starting")
			logger.With(zap.String("tenant_id", "t-1")).Error("sweep failed")
		})
	})

	t.Run("wrong value type yields a no-op logger", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), LoggerKey, "not a logger")
		logger := FromContext(ctx)
		require.NotNil(t, logger)
		assert.NotPanics(t, func() { logger.Info("ignored") })
	})
}

func TestTagging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	ctx := context.Background()
	ctx, logger = WithRequestID(ctx, logger, "req-42")
	ctx, logger = WithTenantID(ctx, logger, "2f5b8a0e-77aa-4d21-9c2e-000000000042")
	ctx, logger = WithActorID(ctx, logger, "d1a4fa90-0f0d-4a0a-9dd7-000000000007")

	// Readers of the context see what the logger will stamp.
	assert.Equal(t, "req-42", GetRequestID(ctx))
	assert.Equal(t, "2f5b8a0e-77aa-4d21-9c2e-000000000042", GetTenantID(ctx))
	assert.Equal(t, "d1a4fa90-0f0d-4a0a-9dd7-000000000007", GetActorID(ctx))

	logger.Info("installment marked overdue")
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "2f5b8a0e-77aa-4d21-9c2e-000000000042", fields["tenant_id"])
	assert.Equal(t, "d1a4fa90-0f0d-4a0a-9dd7-000000000007", fields["actor_id"])

	// The context carries the fully-tagged logger, not the bare one.
	assert.Same(t, logger, FromContext(ctx))
}

func TestTaggingOverrides(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	ctx, _ = WithRequestID(ctx, logger, "first")
	ctx, _ = WithRequestID(ctx, logger, "second")

	assert.Equal(t, "second", GetRequestID(ctx))
}

func TestGettersOnBareContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetTenantID(ctx))
	assert.Empty(t, GetActorID(ctx))
}

func TestContextKeysAreDistinct(t *testing.T) {
	keys := []contextKey{LoggerKey, RequestIDKey, TenantIDKey, ActorIDKey}
	seen := make(map[contextKey]bool, len(keys))
	for _, k := range keys {
		assert.False(t, seen[k], "duplicate context key %q", k)
		seen[k] = true
	}
}
