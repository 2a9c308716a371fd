package persistence

import (
	"context"

	"github.com/campusops/backend/internal/domain/audit"
	"github.com/campusops/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAuditTrail implements audit.Trail by inserting audit_logs rows.
// Callers treat recording as best-effort; the trail itself just reports
// the insert outcome.
type GormAuditTrail struct {
	db *gorm.DB
}

// NewGormAuditTrail creates a new GormAuditTrail
func NewGormAuditTrail(db *gorm.DB) *GormAuditTrail {
	return &GormAuditTrail{db: db}
}

// Record inserts one audit entry
func (t *GormAuditTrail) Record(ctx context.Context, entry audit.Entry) error {
	return t.db.WithContext(ctx).Create(models.AuditLogModelFromDomain(entry)).Error
}

// Ensure GormAuditTrail implements audit.Trail
var _ audit.Trail = (*GormAuditTrail)(nil)
