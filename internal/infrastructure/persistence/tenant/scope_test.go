package tenant

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/campusops/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// guardianContact is a minimal tenant-carrying model for exercising the
// scoping machinery without the full persistence models.
type guardianContact struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name     string    `gorm:"size:100"`
}

func (guardianContact) TableName() string {
	return "guardian_contacts"
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func tenantContext(tenantID string) context.Context {
	ctx := context.Background()
	if tenantID != "" {
		ctx, _ = logger.WithTenantID(ctx, logger.FromContext(ctx), tenantID)
	}
	return ctx
}

func TestTenantScope(t *testing.T) {
	schoolID := uuid.New()

	t.Run("restricts the statement to one school", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "guardian_contacts" WHERE tenant_id = \$1`).
			WithArgs(schoolID.String()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}))

		var contacts []guardianContact
		err := db.Scopes(TenantScope(schoolID)).Find(&contacts).Error
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("composes with further conditions and ordering", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "guardian_contacts" WHERE tenant_id = \$1 AND name = \$2 ORDER BY name ASC`).
			WithArgs(schoolID.String(), "Ada").
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}))

		var contacts []guardianContact
		err := db.Scopes(TenantScope(schoolID)).
			Where("name = ?", "Ada").
			Order("name ASC").
			Find(&contacts).Error
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("composes with pagination", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "guardian_contacts" WHERE tenant_id = \$1 LIMIT \$2 OFFSET \$3`).
			WithArgs(schoolID.String(), 10, 5).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}))

		var contacts []guardianContact
		err := db.Scopes(TenantScope(schoolID)).Limit(10).Offset(5).Find(&contacts).Error
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
