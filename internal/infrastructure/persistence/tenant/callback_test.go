package tenant

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoTenantFilter(t *testing.T) {
	t.Run("filters by the context tenant", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()

		EnableAutoTenantFilter(db, true)

		schoolID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "guardian_contacts" WHERE "guardian_contacts"\."tenant_id" = \$1`).
			WithArgs(schoolID.String()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}))

		var contacts []guardianContact
		err := db.WithContext(tenantContext(schoolID.String())).Find(&contacts).Error

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("refuses to run without a tenant when required", func(t *testing.T) {
		db, _, mockDB := setupMockDB(t)
		defer mockDB.Close()

		EnableAutoTenantFilter(db, true)

		var contacts []guardianContact
		err := db.WithContext(context.Background()).Find(&contacts).Error

		assert.ErrorIs(t, err, ErrTenantIDRequired)
	})

	t.Run("rejects a malformed context tenant", func(t *testing.T) {
		db, _, mockDB := setupMockDB(t)
		defer mockDB.Close()

		EnableAutoTenantFilter(db, true)

		var contacts []guardianContact
		err := db.WithContext(tenantContext("not-a-valid-uuid")).Find(&contacts).Error

		assert.ErrorIs(t, err, ErrInvalidTenantID)
	})

	t.Run("runs unscoped without a tenant when not required", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()

		EnableAutoTenantFilter(db, false)

		mock.ExpectQuery(`SELECT \* FROM "guardian_contacts"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}))

		var contacts []guardianContact
		err := db.WithContext(context.Background()).Find(&contacts).Error

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("does not double-filter an explicitly scoped statement", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()

		EnableAutoTenantFilter(db, true)

		schoolID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "guardian_contacts" WHERE tenant_id = \$1`).
			WithArgs(schoolID.String()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}))

		var contacts []guardianContact
		err := db.WithContext(tenantContext(schoolID.String())).
			Scopes(TenantScope(schoolID)).
			Find(&contacts).Error

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDisableAutoTenantFilter(t *testing.T) {
	db, mock, mockDB := setupMockDB(t)
	defer mockDB.Close()

	EnableAutoTenantFilter(db, true)
	DisableAutoTenantFilter(db)

	// With the guard removed, an unscoped statement runs again.
	mock.ExpectQuery(`SELECT \* FROM "guardian_contacts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}))

	var contacts []guardianContact
	err := db.WithContext(context.Background()).Find(&contacts).Error

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
