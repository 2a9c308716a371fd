package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/campusops/backend/internal/domain/billing"
	"github.com/campusops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockInstallmentRepository creates a GormInstallmentRepository with a mocked SQL connection
func newMockInstallmentRepository(t *testing.T) (*GormInstallmentRepository, sqlmock.Sqlmock, *sql.DB) {
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

	return NewGormInstallmentRepository(gormDB), mock, mockDB
}

func newTestInstallment(t *testing.T, tenantID, paymentID uuid.UUID, number int) *billing.Installment {
	installment, err := billing.NewInstallment(tenantID, paymentID, number,
		decimal.NewFromInt(250), time.Now().AddDate(0, 1, 0))
	require.NoError(t, err)
	return installment
}

func TestGormInstallmentRepository_FindByPayment(t *testing.T) {
	t.Run("lists live installments ordered by number", func(t *testing.T) {
		repo, mock, mockDB := newMockInstallmentRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		paymentID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "version", "payment_id", "number", "amount", "due_date", "status", "late_fee"}).
			AddRow(uuid.New(), tenantID, 1, paymentID, 1, decimal.NewFromInt(250), time.Now(), "PAID", decimal.Zero).
			AddRow(uuid.New(), tenantID, 1, paymentID, 2, decimal.NewFromInt(250), time.Now().AddDate(0, 1, 0), "PENDING", decimal.Zero)

		mock.ExpectQuery(`SELECT \* FROM "installments" WHERE tenant_id = \$1 AND payment_id = \$2 AND .* ORDER BY number ASC`).
			WithArgs(tenantID, paymentID).
			WillReturnRows(rows)

		installments, err := repo.FindByPayment(context.Background(), tenantID, paymentID)

		assert.NoError(t, err)
		require.Len(t, installments, 2)
		assert.Equal(t, 1, installments[0].Number)
		assert.Equal(t, 2, installments[1].Number)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInstallmentRepository_FindOverdueCandidates(t *testing.T) {
	t.Run("lists pending installments past due date", func(t *testing.T) {
		repo, mock, mockDB := newMockInstallmentRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		paymentID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "version", "payment_id", "number", "amount", "due_date", "status", "late_fee"}).
			AddRow(uuid.New(), tenantID, 1, paymentID, 1, decimal.NewFromInt(250), time.Now().AddDate(0, 0, -7), "PENDING", decimal.Zero)

		mock.ExpectQuery(`SELECT \* FROM "installments" WHERE tenant_id = \$1 AND \(status = \$2 AND due_date < \$3\)`).
			WithArgs(tenantID, billing.InstallmentStatusPending, sqlmock.AnyArg()).
			WillReturnRows(rows)

		installments, err := repo.FindOverdueCandidates(context.Background(), tenantID)

		assert.NoError(t, err)
		require.Len(t, installments, 1)
		assert.Equal(t, billing.InstallmentStatusPending, installments[0].Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInstallmentRepository_TenantsWithOverdueCandidates(t *testing.T) {
	t.Run("lists distinct tenants with due pending installments", func(t *testing.T) {
		repo, mock, mockDB := newMockInstallmentRepository(t)
		defer mockDB.Close()

		firstTenant := uuid.New()
		secondTenant := uuid.New()

		rows := sqlmock.NewRows([]string{"tenant_id"}).
			AddRow(firstTenant).
			AddRow(secondTenant)

		mock.ExpectQuery(`SELECT DISTINCT "tenant_id" FROM "installments" WHERE status = \$1 AND due_date < \$2`).
			WithArgs(billing.InstallmentStatusPending, sqlmock.AnyArg()).
			WillReturnRows(rows)

		tenantIDs, err := repo.TenantsWithOverdueCandidates(context.Background())

		assert.NoError(t, err)
		require.Len(t, tenantIDs, 2)
		assert.Contains(t, tenantIDs, firstTenant)
		assert.Contains(t, tenantIDs, secondTenant)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns empty slice when nothing is due", func(t *testing.T) {
		repo, mock, mockDB := newMockInstallmentRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT DISTINCT "tenant_id" FROM "installments"`).
			WithArgs(billing.InstallmentStatusPending, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"tenant_id"}))

		tenantIDs, err := repo.TenantsWithOverdueCandidates(context.Background())

		assert.NoError(t, err)
		assert.Empty(t, tenantIDs)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInstallmentRepository_CreateInPayment(t *testing.T) {
	t.Run("locks payment, runs guard, inserts installment", func(t *testing.T) {
		repo, mock, mockDB := newMockInstallmentRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		paymentID := uuid.New()
		installment := newTestInstallment(t, tenantID, paymentID, 1)

		mock.ExpectBegin()

		paymentRows := sqlmock.NewRows([]string{"id", "tenant_id", "version", "payment_number", "student_id", "amount", "discount", "fine", "total", "status"}).
			AddRow(paymentID, tenantID, 1, "PAY-2026-001", uuid.New(), decimal.NewFromInt(1000), decimal.Zero, decimal.Zero, decimal.NewFromInt(1000), "PENDING")

		mock.ExpectQuery(`SELECT \* FROM "payments" WHERE tenant_id = \$1 AND id = \$2 .* FOR UPDATE`).
			WithArgs(tenantID, paymentID, 1).
			WillReturnRows(paymentRows)

		mock.ExpectQuery(`SELECT \* FROM "installments" WHERE tenant_id = \$1 AND payment_id = \$2`).
			WithArgs(tenantID, paymentID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "version", "payment_id", "number", "amount", "due_date", "status", "late_fee"}))

		mock.ExpectExec(`INSERT INTO "installments"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectCommit()

		guardCalled := false
		err := repo.CreateInPayment(context.Background(), installment, func(payment *billing.Payment, existing []billing.Installment) error {
			guardCalled = true
			assert.Equal(t, paymentID, payment.ID)
			assert.Empty(t, existing)
			return nil
		})

		assert.NoError(t, err)
		assert.True(t, guardCalled)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when guard rejects", func(t *testing.T) {
		repo, mock, mockDB := newMockInstallmentRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		paymentID := uuid.New()
		installment := newTestInstallment(t, tenantID, paymentID, 1)

		mock.ExpectBegin()

		paymentRows := sqlmock.NewRows([]string{"id", "tenant_id", "version", "payment_number", "student_id", "amount", "discount", "fine", "total", "status"}).
			AddRow(paymentID, tenantID, 1, "PAY-2026-001", uuid.New(), decimal.NewFromInt(1000), decimal.Zero, decimal.Zero, decimal.NewFromInt(1000), "PENDING")

		mock.ExpectQuery(`SELECT \* FROM "payments" WHERE tenant_id = \$1 AND id = \$2 .* FOR UPDATE`).
			WithArgs(tenantID, paymentID, 1).
			WillReturnRows(paymentRows)

		mock.ExpectQuery(`SELECT \* FROM "installments" WHERE tenant_id = \$1 AND payment_id = \$2`).
			WithArgs(tenantID, paymentID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "version", "payment_id", "number", "amount", "due_date", "status", "late_fee"}))

		mock.ExpectRollback()

		guardErr := shared.NewValidationError("INSTALLMENT_SUM_EXCEEDED", "Installments cannot exceed the payment total")
		err := repo.CreateInPayment(context.Background(), installment, func(payment *billing.Payment, existing []billing.Installment) error {
			return guardErr
		})

		assert.Equal(t, guardErr, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found when payment is missing", func(t *testing.T) {
		repo, mock, mockDB := newMockInstallmentRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		paymentID := uuid.New()
		installment := newTestInstallment(t, tenantID, paymentID, 1)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "payments" WHERE tenant_id = \$1 AND id = \$2 .* FOR UPDATE`).
			WithArgs(tenantID, paymentID, 1).
			WillReturnError(gorm.ErrRecordNotFound)
		mock.ExpectRollback()

		err := repo.CreateInPayment(context.Background(), installment, nil)

		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("translates duplicate number to conflict", func(t *testing.T) {
		repo, mock, mockDB := newMockInstallmentRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		paymentID := uuid.New()
		installment := newTestInstallment(t, tenantID, paymentID, 1)

		mock.ExpectBegin()

		paymentRows := sqlmock.NewRows([]string{"id", "tenant_id", "version", "payment_number", "student_id", "amount", "discount", "fine", "total", "status"}).
			AddRow(paymentID, tenantID, 1, "PAY-2026-001", uuid.New(), decimal.NewFromInt(1000), decimal.Zero, decimal.Zero, decimal.NewFromInt(1000), "PENDING")

		mock.ExpectQuery(`SELECT \* FROM "payments" WHERE tenant_id = \$1 AND id = \$2 .* FOR UPDATE`).
			WithArgs(tenantID, paymentID, 1).
			WillReturnRows(paymentRows)

		mock.ExpectQuery(`SELECT \* FROM "installments" WHERE tenant_id = \$1 AND payment_id = \$2`).
			WithArgs(tenantID, paymentID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "version", "payment_id", "number", "amount", "due_date", "status", "late_fee"}))

		mock.ExpectExec(`INSERT INTO "installments"`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_installment_payment_number"})

		mock.ExpectRollback()

		err := repo.CreateInPayment(context.Background(), installment, nil)

		require.Error(t, err)
		assert.True(t, shared.IsConflict(err))
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "DUPLICATE_INSTALLMENT_NUMBER", domainErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInstallmentRepository_Save(t *testing.T) {
	t.Run("updates installment with version check", func(t *testing.T) {
		repo, mock, mockDB := newMockInstallmentRepository(t)
		defer mockDB.Close()

		installment := newTestInstallment(t, uuid.New(), uuid.New(), 1)
		installment.IncrementVersion()

		mock.ExpectExec(`UPDATE "installments" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Save(context.Background(), installment)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns stale write when version moved", func(t *testing.T) {
		repo, mock, mockDB := newMockInstallmentRepository(t)
		defer mockDB.Close()

		installment := newTestInstallment(t, uuid.New(), uuid.New(), 1)
		installment.IncrementVersion()

		mock.ExpectExec(`UPDATE "installments" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Save(context.Background(), installment)

		assert.ErrorIs(t, err, shared.ErrStaleWrite)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInstallmentRepository_SoftDelete(t *testing.T) {
	t.Run("soft deletes existing installment", func(t *testing.T) {
		repo, mock, mockDB := newMockInstallmentRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "installments" SET "deleted_at"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SoftDelete(context.Background(), uuid.New(), uuid.New())

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing installment", func(t *testing.T) {
		repo, mock, mockDB := newMockInstallmentRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "installments" SET "deleted_at"`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SoftDelete(context.Background(), uuid.New(), uuid.New())

		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
