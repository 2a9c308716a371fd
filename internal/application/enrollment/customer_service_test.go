package enrollment

import (
	"context"
	"testing"

	"github.com/campusops/backend/internal/domain/enrollment"
	"github.com/campusops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCustomerService() (*CustomerService, *MockCustomerRepository) {
	repo := new(MockCustomerRepository)
	return NewCustomerService(repo, zap.NewNop()), repo
}

func TestCustomerService_Create(t *testing.T) {
	t.Run("creates a prospect with contact details", func(t *testing.T) {
		svc, repo := newCustomerService()
		tenantID := uuid.New()

		repo.On("ExistsByCode", mock.Anything, tenantID, "CUST-100").Return(false, nil)
		repo.On("Save", mock.Anything, mock.AnythingOfType("*enrollment.Customer")).Return(nil)

		result := svc.Create(context.Background(), CreateCustomerRequest{
			TenantID:     tenantID,
			Code:         "CUST-100",
			Name:         "Daniel Wanjiku",
			GuardianName: "Esther Wanjiku",
			Phone:        "+254722000100",
			Email:        "Esther.W@Example.com",
		})
		require.True(t, result.Success)
		assert.Equal(t, "CUST-100", result.Data.Code)
		assert.Equal(t, "esther.w@example.com", result.Data.Email)
		assert.Equal(t, enrollment.CustomerStatusActive.String(), result.Data.Status)
	})

	t.Run("rejects a duplicate code", func(t *testing.T) {
		svc, repo := newCustomerService()
		tenantID := uuid.New()

		repo.On("ExistsByCode", mock.Anything, tenantID, "CUST-100").Return(true, nil)

		result := svc.Create(context.Background(), CreateCustomerRequest{
			TenantID: tenantID,
			Code:     "CUST-100",
			Name:     "Daniel Wanjiku",
		})
		require.False(t, result.Success)
		assert.Equal(t, shared.KindConflict, result.Error.Kind)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestCustomerService_Update(t *testing.T) {
	t.Run("patches an active prospect", func(t *testing.T) {
		svc, repo := newCustomerService()
		tenantID := uuid.New()
		customer, err := enrollment.NewCustomer(tenantID, "CUST-7", "Old Name")
		require.NoError(t, err)

		repo.On("FindByIDForTenant", mock.Anything, tenantID, customer.ID).Return(customer, nil)
		repo.On("Save", mock.Anything, customer).Return(nil)

		name := "New Name"
		result := svc.Update(context.Background(), tenantID, customer.ID, UpdateCustomerRequest{Name: &name})
		require.True(t, result.Success)
		assert.Equal(t, "New Name", result.Data.Name)
	})

	t.Run("rejects editing a converted prospect", func(t *testing.T) {
		svc, repo := newCustomerService()
		tenantID := uuid.New()
		customer, err := enrollment.NewCustomer(tenantID, "CUST-7", "Name")
		require.NoError(t, err)
		require.NoError(t, customer.MarkConverted(uuid.New()))

		repo.On("FindByIDForTenant", mock.Anything, tenantID, customer.ID).Return(customer, nil)

		name := "New Name"
		result := svc.Update(context.Background(), tenantID, customer.ID, UpdateCustomerRequest{Name: &name})
		require.False(t, result.Success)
		assert.Equal(t, shared.KindConflict, result.Error.Kind)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestCustomerService_Delete(t *testing.T) {
	t.Run("soft-deletes an active prospect", func(t *testing.T) {
		svc, repo := newCustomerService()
		tenantID := uuid.New()
		customer, err := enrollment.NewCustomer(tenantID, "CUST-9", "Name")
		require.NoError(t, err)

		repo.On("FindByIDForTenant", mock.Anything, tenantID, customer.ID).Return(customer, nil)
		repo.On("SoftDelete", mock.Anything, tenantID, customer.ID).Return(nil)

		result := svc.Delete(context.Background(), tenantID, customer.ID)
		require.True(t, result.Success)
		assert.Equal(t, "CUST-9", result.Data.Code)
	})

	t.Run("refuses to delete a converted prospect", func(t *testing.T) {
		svc, repo := newCustomerService()
		tenantID := uuid.New()
		customer, err := enrollment.NewCustomer(tenantID, "CUST-9", "Name")
		require.NoError(t, err)
		require.NoError(t, customer.MarkConverted(uuid.New()))

		repo.On("FindByIDForTenant", mock.Anything, tenantID, customer.ID).Return(customer, nil)

		result := svc.Delete(context.Background(), tenantID, customer.ID)
		require.False(t, result.Success)
		assert.Equal(t, shared.KindConflict, result.Error.Kind)
		repo.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("propagates not found", func(t *testing.T) {
		svc, repo := newCustomerService()
		tenantID := uuid.New()
		id := uuid.New()

		repo.On("FindByIDForTenant", mock.Anything, tenantID, id).Return(nil, shared.ErrNotFound)

		result := svc.Delete(context.Background(), tenantID, id)
		require.False(t, result.Success)
		assert.Equal(t, shared.KindNotFound, result.Error.Kind)
	})
}
