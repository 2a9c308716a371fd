package persistence

import (
	"context"
	"errors"

	"github.com/campusops/backend/internal/domain/enrollment"
	"github.com/campusops/backend/internal/domain/shared"
	"github.com/campusops/backend/internal/infrastructure/persistence/models"
	"github.com/campusops/backend/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStudentRepository implements enrollment.StudentRepository using GORM
type GormStudentRepository struct {
	db *gorm.DB
}

// NewGormStudentRepository creates a new GormStudentRepository
func NewGormStudentRepository(db *gorm.DB) *GormStudentRepository {
	return &GormStudentRepository{db: db}
}

// FindByIDForTenant finds a student by ID within a tenant, with its linked account
func (r *GormStudentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*enrollment.Student, error) {
	var model models.StudentModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	student := model.ToDomain()
	if err := r.attachAccount(ctx, student); err != nil {
		return nil, err
	}
	return student, nil
}

// FindByConvertedFrom returns the student that references the given customer
// as its conversion source, or shared.ErrNotFound.
func (r *GormStudentRepository) FindByConvertedFrom(ctx context.Context, tenantID, customerID uuid.UUID) (*enrollment.Student, error) {
	var model models.StudentModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Where("converted_from_customer_id = ?", customerID).
		First(&model).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// CreateWithAccount inserts the student and its linked account in one
// transaction. A concurrent conversion of the same customer trips the
// unique index on converted_from_customer_id and surfaces as a conflict.
func (r *GormStudentRepository) CreateWithAccount(ctx context.Context, student *enrollment.Student) error {
	if student.Account == nil {
		return shared.NewValidationError("MISSING_ACCOUNT", "Student must carry its linked account")
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.StudentModelFromDomain(student)).Error; err != nil {
			return err
		}
		return tx.Create(models.StudentAccountModelFromDomain(student.Account)).Error
	})
	if err != nil {
		if isDuplicateKey(err) {
			if duplicateConstraint(err) == "idx_student_tenant_number" {
				return shared.NewConflictError("DUPLICATE_STUDENT_NUMBER", "A student with this number already exists")
			}
			return shared.NewConflictError("ALREADY_CONVERTED", "Customer has already been converted")
		}
		return err
	}
	return nil
}

// Save persists changes to an existing student with an optimistic version check
func (r *GormStudentRepository) Save(ctx context.Context, student *enrollment.Student) error {
	model := models.StudentModelFromDomain(student)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", student.ID, student.Version-1).
		Select("*").Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrStaleWrite
	}
	return nil
}

// attachAccount loads the student's linked account; a missing account row is
// tolerated so reads do not fail on historical data.
func (r *GormStudentRepository) attachAccount(ctx context.Context, student *enrollment.Student) error {
	var account models.StudentAccountModel
	err := r.db.WithContext(ctx).First(&account, "student_id = ?", student.ID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	student.Account = account.ToDomain()
	return nil
}

// Ensure GormStudentRepository implements StudentRepository
var _ enrollment.StudentRepository = (*GormStudentRepository)(nil)
