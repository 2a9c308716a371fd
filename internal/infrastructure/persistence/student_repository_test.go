package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/campusops/backend/internal/domain/enrollment"
	"github.com/campusops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockStudentRepository creates a GormStudentRepository with a mocked SQL connection
func newMockStudentRepository(t *testing.T) (*GormStudentRepository, sqlmock.Sqlmock, *sql.DB) {
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

	return NewGormStudentRepository(gormDB), mock, mockDB
}

// convertedStudent builds a student (with linked account) from a fresh customer
func convertedStudent(t *testing.T, tenantID uuid.UUID) *enrollment.Student {
	customer, err := enrollment.NewCustomer(tenantID, "PROS001", "Aigerim Bekova")
	require.NoError(t, err)

	student, err := enrollment.NewStudentFromConversion(customer, "STU001", uuid.New())
	require.NoError(t, err)
	return student
}

func TestGormStudentRepository_FindByIDForTenant(t *testing.T) {
	t.Run("finds student and attaches account", func(t *testing.T) {
		repo, mock, mockDB := newMockStudentRepository(t)
		defer mockDB.Close()

		studentID := uuid.New()
		tenantID := uuid.New()
		accountID := uuid.New()

		studentRows := sqlmock.NewRows([]string{"id", "tenant_id", "version", "student_number", "full_name", "status"}).
			AddRow(studentID, tenantID, 1, "STU001", "Aigerim Bekova", "ACTIVE")

		mock.ExpectQuery(`SELECT \* FROM "students" WHERE tenant_id = \$1 AND id = \$2`).
			WithArgs(tenantID, studentID, 1).
			WillReturnRows(studentRows)

		accountRows := sqlmock.NewRows([]string{"id", "student_id", "tenant_id", "account_number", "status"}).
			AddRow(accountID, studentID, tenantID, "ACC-STU001", "ACTIVE")

		mock.ExpectQuery(`SELECT \* FROM "student_accounts" WHERE student_id = \$1`).
			WithArgs(studentID, 1).
			WillReturnRows(accountRows)

		student, err := repo.FindByIDForTenant(context.Background(), tenantID, studentID)

		assert.NoError(t, err)
		require.NotNil(t, student)
		assert.Equal(t, "STU001", student.StudentNumber)
		require.NotNil(t, student.Account)
		assert.Equal(t, "ACC-STU001", student.Account.AccountNumber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("tolerates missing account row", func(t *testing.T) {
		repo, mock, mockDB := newMockStudentRepository(t)
		defer mockDB.Close()

		studentID := uuid.New()
		tenantID := uuid.New()

		studentRows := sqlmock.NewRows([]string{"id", "tenant_id", "version", "student_number", "full_name", "status"}).
			AddRow(studentID, tenantID, 1, "STU001", "Aigerim Bekova", "ACTIVE")

		mock.ExpectQuery(`SELECT \* FROM "students" WHERE tenant_id = \$1 AND id = \$2`).
			WithArgs(tenantID, studentID, 1).
			WillReturnRows(studentRows)

		mock.ExpectQuery(`SELECT \* FROM "student_accounts" WHERE student_id = \$1`).
			WithArgs(studentID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		student, err := repo.FindByIDForTenant(context.Background(), tenantID, studentID)

		assert.NoError(t, err)
		require.NotNil(t, student)
		assert.Nil(t, student.Account)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing student", func(t *testing.T) {
		repo, mock, mockDB := newMockStudentRepository(t)
		defer mockDB.Close()

		studentID := uuid.New()
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "students" WHERE tenant_id = \$1 AND id = \$2`).
			WithArgs(tenantID, studentID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		student, err := repo.FindByIDForTenant(context.Background(), tenantID, studentID)

		assert.Nil(t, student)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStudentRepository_FindByConvertedFrom(t *testing.T) {
	t.Run("finds student by source customer", func(t *testing.T) {
		repo, mock, mockDB := newMockStudentRepository(t)
		defer mockDB.Close()

		studentID := uuid.New()
		tenantID := uuid.New()
		customerID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "version", "student_number", "full_name", "status", "converted_from_customer_id"}).
			AddRow(studentID, tenantID, 1, "STU001", "Aigerim Bekova", "ACTIVE", customerID)

		mock.ExpectQuery(`SELECT \* FROM "students" WHERE tenant_id = \$1 AND converted_from_customer_id = \$2`).
			WithArgs(tenantID, customerID, 1).
			WillReturnRows(rows)

		student, err := repo.FindByConvertedFrom(context.Background(), tenantID, customerID)

		assert.NoError(t, err)
		require.NotNil(t, student)
		require.NotNil(t, student.ConvertedFromCustomerID)
		assert.Equal(t, customerID, *student.ConvertedFromCustomerID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found when customer was never converted", func(t *testing.T) {
		repo, mock, mockDB := newMockStudentRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		customerID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "students" WHERE tenant_id = \$1 AND converted_from_customer_id = \$2`).
			WithArgs(tenantID, customerID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		student, err := repo.FindByConvertedFrom(context.Background(), tenantID, customerID)

		assert.Nil(t, student)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStudentRepository_CreateWithAccount(t *testing.T) {
	t.Run("inserts student and account in one transaction", func(t *testing.T) {
		repo, mock, mockDB := newMockStudentRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		student := convertedStudent(t, tenantID)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "students"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO "student_accounts"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.CreateWithAccount(context.Background(), student)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects student without account", func(t *testing.T) {
		repo, _, mockDB := newMockStudentRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		student := convertedStudent(t, tenantID)
		student.Account = nil

		err := repo.CreateWithAccount(context.Background(), student)

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "MISSING_ACCOUNT", domainErr.Code)
	})

	t.Run("translates concurrent conversion to conflict", func(t *testing.T) {
		repo, mock, mockDB := newMockStudentRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		student := convertedStudent(t, tenantID)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "students"`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_student_converted_from"})
		mock.ExpectRollback()

		err := repo.CreateWithAccount(context.Background(), student)

		require.Error(t, err)
		assert.True(t, shared.IsConflict(err))
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_CONVERTED", domainErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("translates duplicate student number to conflict", func(t *testing.T) {
		repo, mock, mockDB := newMockStudentRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		student := convertedStudent(t, tenantID)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "students"`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_student_tenant_number"})
		mock.ExpectRollback()

		err := repo.CreateWithAccount(context.Background(), student)

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "DUPLICATE_STUDENT_NUMBER", domainErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when account insert fails", func(t *testing.T) {
		repo, mock, mockDB := newMockStudentRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		student := convertedStudent(t, tenantID)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "students"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO "student_accounts"`).
			WillReturnError(assert.AnError)
		mock.ExpectRollback()

		err := repo.CreateWithAccount(context.Background(), student)

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStudentRepository_Save(t *testing.T) {
	t.Run("updates student with version check", func(t *testing.T) {
		repo, mock, mockDB := newMockStudentRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		student := convertedStudent(t, tenantID)
		student.IncrementVersion()

		mock.ExpectExec(`UPDATE "students" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Save(context.Background(), student)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns stale write when version moved", func(t *testing.T) {
		repo, mock, mockDB := newMockStudentRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		student := convertedStudent(t, tenantID)
		student.IncrementVersion()

		mock.ExpectExec(`UPDATE "students" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Save(context.Background(), student)

		assert.ErrorIs(t, err, shared.ErrStaleWrite)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
