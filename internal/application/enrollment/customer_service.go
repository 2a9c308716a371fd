package enrollment

import (
	"context"
	"time"

	"github.com/campusops/backend/internal/domain/enrollment"
	"github.com/campusops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CustomerService provides application-level prospect operations
type CustomerService struct {
	customerRepo enrollment.CustomerRepository
	logger       *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customerRepo enrollment.CustomerRepository, logger *zap.Logger) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		logger:       logger,
	}
}

// CreateCustomerRequest carries the input for creating a prospect
type CreateCustomerRequest struct {
	TenantID     uuid.UUID `json:"tenant_id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	GuardianName string    `json:"guardian_name"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	Notes        string    `json:"notes"`
}

// UpdateCustomerRequest carries a partial update; nil fields are unchanged
type UpdateCustomerRequest struct {
	Name         *string `json:"name,omitempty"`
	GuardianName *string `json:"guardian_name,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Email        *string `json:"email,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

// CustomerResponse represents a prospect in API responses
type CustomerResponse struct {
	ID           uuid.UUID  `json:"id"`
	TenantID     uuid.UUID  `json:"tenant_id"`
	Code         string     `json:"code"`
	Name         string     `json:"name"`
	GuardianName string     `json:"guardian_name,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Email        string     `json:"email,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	Status       string     `json:"status"`
	ConvertedAt  *time.Time `json:"converted_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func toCustomerResponse(c *enrollment.Customer) *CustomerResponse {
	return &CustomerResponse{
		ID:           c.ID,
		TenantID:     c.TenantID,
		Code:         c.Code,
		Name:         c.Name,
		GuardianName: c.GuardianName,
		Phone:        c.Phone,
		Email:        c.Email,
		Notes:        c.Notes,
		Status:       c.Status.String(),
		ConvertedAt:  c.ConvertedAt,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// Create registers a new prospect
func (s *CustomerService) Create(ctx context.Context, req CreateCustomerRequest) shared.Result[CustomerResponse] {
	exists, err := s.customerRepo.ExistsByCode(ctx, req.TenantID, req.Code)
	if err != nil {
		return shared.FailFrom[CustomerResponse](err)
	}
	if exists {
		return shared.Fail[CustomerResponse](
			shared.NewConflictError("DUPLICATE_CUSTOMER_CODE", "A customer with this code already exists"))
	}

	customer, err := enrollment.NewCustomer(req.TenantID, req.Code, req.Name)
	if err != nil {
		return shared.FailFrom[CustomerResponse](err)
	}
	if req.GuardianName != "" || req.Phone != "" || req.Email != "" {
		if err := customer.SetContact(req.GuardianName, req.Phone, req.Email); err != nil {
			return shared.FailFrom[CustomerResponse](err)
		}
	}
	customer.Notes = req.Notes

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return shared.FailFrom[CustomerResponse](err)
	}

	s.logger.Info("customer created",
		zap.String("customer_id", customer.ID.String()),
		zap.String("code", customer.Code))
	return shared.OK(*toCustomerResponse(customer))
}

// GetByID returns a prospect within a tenant
func (s *CustomerService) GetByID(ctx context.Context, tenantID, id uuid.UUID) shared.Result[CustomerResponse] {
	customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return shared.FailFrom[CustomerResponse](err)
	}
	return shared.OK(*toCustomerResponse(customer))
}

// List returns the tenant's prospects
func (s *CustomerService) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]CustomerResponse, error) {
	customers, err := s.customerRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]CustomerResponse, 0, len(customers))
	for i := range customers {
		responses = append(responses, *toCustomerResponse(&customers[i]))
	}
	return responses, nil
}

// Update applies a partial edit to an active prospect. Converted and
// archived prospects reject edits.
func (s *CustomerService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateCustomerRequest) shared.Result[CustomerResponse] {
	customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return shared.FailFrom[CustomerResponse](err)
	}

	patch := enrollment.CustomerPatch{
		Name:         req.Name,
		GuardianName: req.GuardianName,
		Phone:        req.Phone,
		Email:        req.Email,
		Notes:        req.Notes,
	}
	if err := customer.ApplyPatch(patch); err != nil {
		return shared.FailFrom[CustomerResponse](err)
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return shared.FailFrom[CustomerResponse](err)
	}
	return shared.OK(*toCustomerResponse(customer))
}

// Archive retires a prospect that will not convert
func (s *CustomerService) Archive(ctx context.Context, tenantID, id uuid.UUID) shared.Result[CustomerResponse] {
	customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return shared.FailFrom[CustomerResponse](err)
	}
	if err := customer.Archive(); err != nil {
		return shared.FailFrom[CustomerResponse](err)
	}
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return shared.FailFrom[CustomerResponse](err)
	}
	return shared.OK(*toCustomerResponse(customer))
}

// Delete soft-deletes a prospect. Converted prospects stay on the books.
func (s *CustomerService) Delete(ctx context.Context, tenantID, id uuid.UUID) shared.Result[CustomerResponse] {
	customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return shared.FailFrom[CustomerResponse](err)
	}
	if customer.Status == enrollment.CustomerStatusConverted {
		return shared.Fail[CustomerResponse](
			shared.NewConflictError("CUSTOMER_RETIRED", "A converted customer cannot be deleted"))
	}
	if err := s.customerRepo.SoftDelete(ctx, tenantID, id); err != nil {
		return shared.FailFrom[CustomerResponse](err)
	}
	return shared.OK(*toCustomerResponse(customer))
}
