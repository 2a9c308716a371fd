package persistence

import (
	"context"
	"time"

	"github.com/campusops/backend/internal/domain/billing"
	"github.com/campusops/backend/internal/domain/shared"
	"github.com/campusops/backend/internal/infrastructure/persistence/models"
	"github.com/campusops/backend/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInstallmentRepository implements billing.InstallmentRepository using GORM
type GormInstallmentRepository struct {
	db *gorm.DB
}

// NewGormInstallmentRepository creates a new GormInstallmentRepository
func NewGormInstallmentRepository(db *gorm.DB) *GormInstallmentRepository {
	return &GormInstallmentRepository{db: db}
}

// FindByIDForTenant finds an installment by ID within a tenant
func (r *GormInstallmentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Installment, error) {
	var model models.InstallmentModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByPayment returns the payment's live installments ordered by number
func (r *GormInstallmentRepository) FindByPayment(ctx context.Context, tenantID, paymentID uuid.UUID) ([]billing.Installment, error) {
	return r.findByPayment(r.db.WithContext(ctx), tenantID, paymentID)
}

// FindOverdueCandidates returns the tenant's pending installments whose due
// date has passed, oldest first.
func (r *GormInstallmentRepository) FindOverdueCandidates(ctx context.Context, tenantID uuid.UUID) ([]billing.Installment, error) {
	var installmentModels []models.InstallmentModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Where("status = ? AND due_date < ?", billing.InstallmentStatusPending, time.Now()).
		Order("due_date ASC").
		Find(&installmentModels).Error; err != nil {
		return nil, err
	}
	return toDomainInstallments(installmentModels), nil
}

// TenantsWithOverdueCandidates lists the tenants that currently have at
// least one pending installment past its due date. The overdue sweep uses
// this to decide which tenants need a pass.
func (r *GormInstallmentRepository) TenantsWithOverdueCandidates(ctx context.Context) ([]uuid.UUID, error) {
	var tenantIDs []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.InstallmentModel{}).
		Distinct("tenant_id").
		Where("status = ? AND due_date < ?", billing.InstallmentStatusPending, time.Now()).
		Pluck("tenant_id", &tenantIDs).Error; err != nil {
		return nil, err
	}
	return tenantIDs, nil
}

// CreateInPayment locks the parent payment row, loads its live installments,
// runs the guard against that consistent view, and inserts the installment.
// Everything happens in one transaction so two concurrent creates cannot
// both pass the sum bound.
func (r *GormInstallmentRepository) CreateInPayment(ctx context.Context, installment *billing.Installment, guard billing.CreateGuard) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var paymentModel models.PaymentModel
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Scopes(tenant.TenantScope(installment.TenantID)).
			First(&paymentModel, "id = ?", installment.PaymentID).Error; err != nil {
			return translateNotFound(err)
		}

		existing, err := r.findByPayment(tx, installment.TenantID, installment.PaymentID)
		if err != nil {
			return err
		}

		if guard != nil {
			if err := guard(paymentModel.ToDomain(), existing); err != nil {
				return err
			}
		}

		if err := tx.Create(models.InstallmentModelFromDomain(installment)).Error; err != nil {
			return translateDuplicate(err, "DUPLICATE_INSTALLMENT_NUMBER", "An installment with this number already exists for the payment")
		}
		return nil
	})
}

// Save writes the installment with an optimistic version check and returns
// shared.ErrStaleWrite when the stored version has moved.
func (r *GormInstallmentRepository) Save(ctx context.Context, installment *billing.Installment) error {
	model := models.InstallmentModelFromDomain(installment)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", installment.ID, installment.Version-1).
		Select("*").Omit("id", "created_at", "deleted_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrStaleWrite
	}
	return nil
}

// SoftDelete marks the installment row as deleted within a tenant
func (r *GormInstallmentRepository) SoftDelete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Delete(&models.InstallmentModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormInstallmentRepository) findByPayment(db *gorm.DB, tenantID, paymentID uuid.UUID) ([]billing.Installment, error) {
	var installmentModels []models.InstallmentModel
	if err := db.
		Scopes(tenant.TenantScope(tenantID)).
		Where("payment_id = ?", paymentID).
		Order("number ASC").
		Find(&installmentModels).Error; err != nil {
		return nil, err
	}
	return toDomainInstallments(installmentModels), nil
}

func toDomainInstallments(installmentModels []models.InstallmentModel) []billing.Installment {
	installments := make([]billing.Installment, len(installmentModels))
	for i, model := range installmentModels {
		installments[i] = *model.ToDomain()
	}
	return installments
}

// Ensure GormInstallmentRepository implements InstallmentRepository
var _ billing.InstallmentRepository = (*GormInstallmentRepository)(nil)
