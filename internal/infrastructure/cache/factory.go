package cache

import (
	"github.com/campusops/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// NewIdempotencyStore builds the idempotency store for the deployment.
// With Redis configured it returns the shared store; otherwise, or when
// the connection fails and fallback is allowed, it degrades to the
// process-local store.
func NewIdempotencyStore(cfg RedisConfig, allowInMemoryFallback bool, logger *zap.Logger) (shared.IdempotencyStore, error) {
	if cfg.Host == "" {
		logger.Info("no redis configured, using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(), nil
	}

	store, err := NewRedisIdempotencyStore(cfg)
	if err != nil {
		if !allowInMemoryFallback {
			return nil, err
		}
		logger.Warn("redis unavailable, falling back to in-memory idempotency store",
			zap.String("host", cfg.Host),
			zap.Error(err))
		return NewInMemoryIdempotencyStore(), nil
	}

	logger.Info("redis idempotency store connected", zap.String("host", cfg.Host))
	return store, nil
}
