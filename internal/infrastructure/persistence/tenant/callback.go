package tenant

import (
	"strings"

	"github.com/campusops/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// filterGuard injects a tenant_id condition into statements that reach
// the database without one. It reads the tenant from the statement
// context, so it only helps requests that went through the logger's
// context tagging.
type filterGuard struct {
	column   string
	required bool
}

// EnableAutoTenantFilter registers the guard on every query, update,
// delete and row operation. With required true, statements without a
// context tenant fail instead of running unscoped.
func EnableAutoTenantFilter(db *gorm.DB, required bool) {
	g := &filterGuard{column: "tenant_id", required: required}

	_ = db.Callback().Query().Before("gorm:query").Register("tenant:before_query", g.hook)
	_ = db.Callback().Update().Before("gorm:update").Register("tenant:before_update", g.hook)
	_ = db.Callback().Delete().Before("gorm:delete").Register("tenant:before_delete", g.hook)
	_ = db.Callback().Row().Before("gorm:row").Register("tenant:before_row", g.hook)

	// Create is not hooked: tenant_id is set explicitly by the
	// application when building the row, so a filter would be
	// meaningless there.
}

// DisableAutoTenantFilter removes the guard hooks. Mainly for tests;
// GORM has no clean way to unregister, so each hook goes by name.
func DisableAutoTenantFilter(db *gorm.DB) {
	_ = db.Callback().Query().Remove("tenant:before_query")
	_ = db.Callback().Update().Remove("tenant:before_update")
	_ = db.Callback().Delete().Remove("tenant:before_delete")
	_ = db.Callback().Row().Remove("tenant:before_row")
}

func (g *filterGuard) hook(db *gorm.DB) {
	if db.Statement.Context == nil || db.Statement.Unscoped {
		return
	}

	// Repositories scope explicitly via TenantScope; don't filter twice.
	if g.alreadyScoped(db) {
		return
	}

	tenantID := logger.GetTenantID(db.Statement.Context)
	if tenantID == "" {
		if g.required {
			_ = db.AddError(ErrTenantIDRequired)
		}
		return
	}
	if _, err := uuid.Parse(tenantID); err != nil {
		_ = db.AddError(ErrInvalidTenantID)
		return
	}

	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: clause.CurrentTable, Name: g.column},
				Value:  tenantID,
			},
		},
	})
}

func (g *filterGuard) alreadyScoped(db *gorm.DB) bool {
	if whereClause, ok := db.Statement.Clauses["WHERE"]; ok {
		if where, ok := whereClause.Expression.(clause.Where); ok {
			for _, expr := range where.Exprs {
				if g.mentionsColumn(expr) {
					return true
				}
			}
		}
	}

	// Raw SQL built ahead of the callback chain
	if sql := db.Statement.SQL.String(); sql != "" && strings.Contains(sql, g.column) {
		return true
	}
	return false
}

func (g *filterGuard) mentionsColumn(expr clause.Expression) bool {
	switch e := expr.(type) {
	case clause.Eq:
		if col, ok := e.Column.(clause.Column); ok {
			return col.Name == g.column
		}
	case clause.IN:
		if col, ok := e.Column.(clause.Column); ok {
			return col.Name == g.column
		}
	case clause.Expr:
		// Conditions such as Where("tenant_id = ?", id) from TenantScope
		return strings.Contains(e.SQL, g.column)
	case clause.AndConditions:
		for _, cond := range e.Exprs {
			if g.mentionsColumn(cond) {
				return true
			}
		}
	case clause.OrConditions:
		for _, cond := range e.Exprs {
			if g.mentionsColumn(cond) {
				return true
			}
		}
	}
	return false
}
