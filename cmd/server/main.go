package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	billingapp "github.com/campusops/backend/internal/application/billing"
	ledgerapp "github.com/campusops/backend/internal/application/ledger"
	"github.com/campusops/backend/internal/domain/shared"
	"github.com/campusops/backend/internal/infrastructure/cache"
	"github.com/campusops/backend/internal/infrastructure/config"
	"github.com/campusops/backend/internal/infrastructure/event"
	"github.com/campusops/backend/internal/infrastructure/logger"
	"github.com/campusops/backend/internal/infrastructure/notification"
	"github.com/campusops/backend/internal/infrastructure/persistence"
	"github.com/campusops/backend/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// systemActor identifies ledger and audit entries written by background
// jobs rather than a user. The ledger refuses a nil actor.
var systemActor = uuid.MustParse("00000000-0000-0000-0000-000000000001")

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting CampusOps Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Safety net: any query carrying a tenant in its context gets the
	// tenant filter even if a repository forgets to scope. Repositories
	// still scope explicitly, so this stays non-required.
	tenant.EnableAutoTenantFilter(db.DB, false)

	// Initialize repositories
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	installmentRepo := persistence.NewGormInstallmentRepository(db.DB)
	eventRepo := persistence.NewGormEventRepository(db.DB)
	auditTrail := persistence.NewGormAuditTrail(db.DB)

	// Idempotency store: Redis when configured, otherwise an in-process
	// fallback if the config allows one.
	idempotencyStore, err := cache.NewIdempotencyStore(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cfg.Event.AllowInMemoryFallback, log)
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}

	// Initialize event bus and side-effect handlers
	eventBus := event.NewInMemoryEventBus(log)

	auditHandler := event.NewAuditHandler(auditTrail, log)
	notificationHandler := event.NewNotificationHandler(notification.NewLogDispatcher(log), log)

	handlers := []shared.EventHandler{auditHandler, notificationHandler}
	if cfg.Event.IdempotencyEnabled {
		handlers = event.WrapHandlersWithIdempotency(handlers, idempotencyStore, log,
			event.WithIdempotencyConfig(shared.IdempotencyConfig{
				Enabled: true,
				TTL:     cfg.Event.IdempotencyTTL,
			}))
	}
	for _, handler := range handlers {
		eventBus.Subscribe(handler, handler.EventTypes()...)
	}

	log.Info("Event handlers registered",
		zap.Bool("idempotency_enabled", cfg.Event.IdempotencyEnabled),
		zap.Strings("audit_events", auditHandler.EventTypes()),
		zap.Strings("notification_events", notificationHandler.EventTypes()),
	)

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize the services this process drives. The enrollment
	// services are constructed by embedding callers; this process only
	// runs the billing sweep loop.
	ledgerService := ledgerapp.NewService(eventRepo, log)
	installmentService := billingapp.NewInstallmentService(paymentRepo, installmentRepo, ledgerService, eventBus, log)

	// Background overdue sweep
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	if cfg.Billing.SweepEnabled {
		go runOverdueSweep(sweepCtx, installmentService, installmentRepo, cfg.Billing.SweepInterval, log)
		log.Info("Overdue sweep scheduled", zap.Duration("interval", cfg.Billing.SweepInterval))
	}

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")
	stopSweep()
	log.Info("Server exited")
}

// runOverdueSweep periodically walks every tenant that has a pending
// installment past its due date and transitions those installments to
// OVERDUE. The sweep acts as the system, not on behalf of any user.
func runOverdueSweep(
	ctx context.Context,
	installments *billingapp.InstallmentService,
	installmentRepo *persistence.GormInstallmentRepository,
	interval time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tenantIDs, err := installmentRepo.TenantsWithOverdueCandidates(ctx)
			if err != nil {
				log.Error("Overdue sweep could not list tenants", zap.Error(err))
				continue
			}
			for _, tenantID := range tenantIDs {
				transitioned, err := installments.SweepOverdue(ctx, tenantID, systemActor)
				if err != nil {
					log.Error("Overdue sweep failed for tenant",
						zap.String("tenant_id", tenantID.String()),
						zap.Error(err))
					continue
				}
				if transitioned > 0 {
					log.Info("Overdue sweep completed",
						zap.String("tenant_id", tenantID.String()),
						zap.Int("transitioned", transitioned))
				}
			}
		}
	}
}
