package logger

import (
	"context"

	"go.uber.org/zap"
)

// contextKey keeps the package's context values from colliding with
// other packages' string keys.
type contextKey string

const (
	// LoggerKey carries the enriched logger itself.
	LoggerKey contextKey = "logger"
	// RequestIDKey carries the request correlation ID.
	RequestIDKey contextKey = "request_id"
	// TenantIDKey carries the school (tenant) the call operates on.
	TenantIDKey contextKey = "tenant_id"
	// ActorIDKey carries the staff member performing the operation.
	ActorIDKey contextKey = "actor_id"
)

// WithContext attaches a logger to the context
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext returns the attached logger, or a no-op logger when the
// context carries none. Callers never need a nil check.
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// tag stores a value under key and returns the context plus a logger
// that stamps every entry with the same field. Keeping the two in
// lockstep is the point: anything reading the context sees exactly
// what the log line says.
func tag(ctx context.Context, logger *zap.Logger, key contextKey, value string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, key, value)
	tagged := logger.With(zap.String(string(key), value))
	return WithContext(ctx, tagged), tagged
}

// WithRequestID tags the context and logger with a request correlation ID
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	return tag(ctx, logger, RequestIDKey, requestID)
}

// WithTenantID tags the context and logger with the operating school
func WithTenantID(ctx context.Context, logger *zap.Logger, tenantID string) (context.Context, *zap.Logger) {
	return tag(ctx, logger, TenantIDKey, tenantID)
}

// WithActorID tags the context and logger with the acting staff member
func WithActorID(ctx context.Context, logger *zap.Logger, actorID string) (context.Context, *zap.Logger) {
	return tag(ctx, logger, ActorIDKey, actorID)
}

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// GetRequestID reads the request correlation ID, empty when untagged
func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, RequestIDKey)
}

// GetTenantID reads the operating school's ID, empty when untagged
func GetTenantID(ctx context.Context) string {
	return stringValue(ctx, TenantIDKey)
}

// GetActorID reads the acting staff member's ID, empty when untagged
func GetActorID(ctx context.Context) string {
	return stringValue(ctx, ActorIDKey)
}
