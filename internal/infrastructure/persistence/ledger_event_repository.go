package persistence

import (
	"context"

	"github.com/campusops/backend/internal/domain/ledger"
	"github.com/campusops/backend/internal/domain/shared"
	"github.com/campusops/backend/internal/infrastructure/persistence/models"
	"github.com/campusops/backend/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormEventRepository implements ledger.EventRepository using GORM.
// The ledger is append-only: Append inserts, Update patches outcome fields
// on an existing row, and nothing ever deletes.
type GormEventRepository struct {
	db *gorm.DB
}

// NewGormEventRepository creates a new GormEventRepository
func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

// Append durably writes a new ledger event row
func (r *GormEventRepository) Append(ctx context.Context, event *ledger.LedgerEvent) error {
	if err := r.db.WithContext(ctx).Create(models.LedgerEventModelFromDomain(event)).Error; err != nil {
		return shared.NewPersistenceError("LEDGER_APPEND_FAILED", "Ledger event could not be written: "+err.Error())
	}
	return nil
}

// Update persists finalize / failure outcome changes to an existing row.
// Only the mutable outcome columns are written; the recorded intent
// (event type, subject, actor, schema version) is immutable.
func (r *GormEventRepository) Update(ctx context.Context, event *ledger.LedgerEvent) error {
	model := models.LedgerEventModelFromDomain(event)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ?", event.ID).
		Select("metadata", "status", "finalized_at", "failure_reason", "updated_at").
		Updates(model)
	if result.Error != nil {
		return shared.NewPersistenceError("LEDGER_UPDATE_FAILED", "Ledger event outcome could not be written: "+result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a ledger event by its ID
func (r *GormEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.LedgerEvent, error) {
	var model models.LedgerEventModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a ledger event by ID within a tenant
func (r *GormEventRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.LedgerEvent, error) {
	var model models.LedgerEventModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindBySubject lists events documenting a subject entity, oldest first
func (r *GormEventRepository) FindBySubject(ctx context.Context, tenantID uuid.UUID, subjectType ledger.SubjectType, subjectID uuid.UUID) ([]ledger.LedgerEvent, error) {
	var eventModels []models.LedgerEventModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Where("subject_type = ? AND subject_id = ?", subjectType, subjectID).
		Order("created_at ASC").
		Find(&eventModels).Error; err != nil {
		return nil, err
	}

	events := make([]ledger.LedgerEvent, len(eventModels))
	for i, model := range eventModels {
		events[i] = *model.ToDomain()
	}
	return events, nil
}

// Ensure GormEventRepository implements EventRepository
var _ ledger.EventRepository = (*GormEventRepository)(nil)
