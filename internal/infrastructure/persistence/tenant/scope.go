// Package tenant enforces school-level isolation on GORM statements.
//
// Every aggregate table carries a tenant_id column. Repositories scope
// their statements explicitly with TenantScope; the callback guard
// registered by EnableAutoTenantFilter is the safety net for anything
// that reaches the database without one, pulling the tenant from the
// request context and refusing to run when it is required but absent.
package tenant

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrTenantIDRequired is returned when a statement needs a tenant and
// the context carries none
var ErrTenantIDRequired = errors.New("tenant_id is required but not found in context")

// ErrInvalidTenantID is returned when the context tenant is not a UUID
var ErrInvalidTenantID = errors.New("invalid tenant_id format")

// TenantScope restricts a statement to one school's rows
func TenantScope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tenant_id = ?", tenantID)
	}
}
