package enrollment

import (
	"context"

	"github.com/campusops/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomerRepository persists prospect records
type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Customer, error)
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Customer, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Customer, error)
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
	Save(ctx context.Context, customer *Customer) error
	SoftDelete(ctx context.Context, tenantID, id uuid.UUID) error
}

// StudentRepository persists enrolled students and their linked accounts
type StudentRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Student, error)
	// FindByConvertedFrom returns the student that references the given
	// customer as its conversion source, or shared.ErrNotFound.
	FindByConvertedFrom(ctx context.Context, tenantID, customerID uuid.UUID) (*Student, error)
	// CreateWithAccount inserts the student and its linked account in one
	// transaction. A unique-index violation on the conversion back-reference
	// surfaces as a conflict domain error.
	CreateWithAccount(ctx context.Context, student *Student) error
	Save(ctx context.Context, student *Student) error
}
