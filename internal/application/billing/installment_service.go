package billing

import (
	"context"
	"time"

	appledger "github.com/campusops/backend/internal/application/ledger"
	"github.com/campusops/backend/internal/domain/billing"
	"github.com/campusops/backend/internal/domain/ledger"
	"github.com/campusops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InstallmentService drives the installment state machine and keeps the
// parent payment's derived status in step. Paid/overdue transitions are
// event-first: the intent lands in the ledger before the row changes.
type InstallmentService struct {
	paymentRepo     billing.PaymentRepository
	installmentRepo billing.InstallmentRepository
	ledgerSvc       *appledger.Service
	eventBus        shared.EventPublisher
	logger          *zap.Logger
}

// NewInstallmentService creates a new InstallmentService
func NewInstallmentService(
	paymentRepo billing.PaymentRepository,
	installmentRepo billing.InstallmentRepository,
	ledgerSvc *appledger.Service,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *InstallmentService {
	return &InstallmentService{
		paymentRepo:     paymentRepo,
		installmentRepo: installmentRepo,
		ledgerSvc:       ledgerSvc,
		eventBus:        eventBus,
		logger:          logger,
	}
}

// CreatePaymentRequest carries the input for creating a payment obligation
type CreatePaymentRequest struct {
	TenantID      uuid.UUID       `json:"tenant_id"`
	StudentID     uuid.UUID       `json:"student_id"`
	PaymentNumber string          `json:"payment_number"`
	Amount        decimal.Decimal `json:"amount"`
	Discount      decimal.Decimal `json:"discount"`
	Fine          decimal.Decimal `json:"fine"`
	Description   string          `json:"description"`
}

// CreateInstallmentRequest carries the input for adding one installment
type CreateInstallmentRequest struct {
	TenantID  uuid.UUID       `json:"tenant_id"`
	PaymentID uuid.UUID       `json:"payment_id"`
	Number    int             `json:"number"`
	Amount    decimal.Decimal `json:"amount"`
	DueDate   time.Time       `json:"due_date"`
}

// BulkCreateInstallmentsRequest schedules several installments at once
type BulkCreateInstallmentsRequest struct {
	TenantID  uuid.UUID              `json:"tenant_id"`
	PaymentID uuid.UUID              `json:"payment_id"`
	Items     []BulkInstallmentInput `json:"items"`
}

// BulkInstallmentInput is one row of a bulk schedule
type BulkInstallmentInput struct {
	Number  int             `json:"number"`
	Amount  decimal.Decimal `json:"amount"`
	DueDate time.Time       `json:"due_date"`
}

// MarkPaidRequest settles an installment
type MarkPaidRequest struct {
	TenantID      uuid.UUID `json:"tenant_id"`
	InstallmentID uuid.UUID `json:"installment_id"`
	ActorID       uuid.UUID `json:"actor_id"`
	Remarks       string    `json:"remarks"`
}

// MarkOverdueRequest flags an installment past its due date
type MarkOverdueRequest struct {
	TenantID      uuid.UUID `json:"tenant_id"`
	InstallmentID uuid.UUID `json:"installment_id"`
	ActorID       uuid.UUID `json:"actor_id"`
}

// UpdateInstallmentRequest edits the allow-listed installment fields
type UpdateInstallmentRequest struct {
	TenantID      uuid.UUID        `json:"tenant_id"`
	InstallmentID uuid.UUID        `json:"installment_id"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	DueDate       *time.Time       `json:"due_date,omitempty"`
	Remarks       *string          `json:"remarks,omitempty"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID            uuid.UUID       `json:"id"`
	TenantID      uuid.UUID       `json:"tenant_id"`
	PaymentNumber string          `json:"payment_number"`
	StudentID     uuid.UUID       `json:"student_id"`
	Amount        decimal.Decimal `json:"amount"`
	Discount      decimal.Decimal `json:"discount"`
	Fine          decimal.Decimal `json:"fine"`
	Total         decimal.Decimal `json:"total"`
	Status        string          `json:"status"`
	Description   string          `json:"description,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int             `json:"version"`
}

// InstallmentResponse represents an installment in API responses
type InstallmentResponse struct {
	ID        uuid.UUID       `json:"id"`
	TenantID  uuid.UUID       `json:"tenant_id"`
	PaymentID uuid.UUID       `json:"payment_id"`
	Number    int             `json:"number"`
	Amount    decimal.Decimal `json:"amount"`
	DueDate   time.Time       `json:"due_date"`
	PaidDate  *time.Time      `json:"paid_date,omitempty"`
	Status    string          `json:"status"`
	LateFee   decimal.Decimal `json:"late_fee"`
	TotalDue  decimal.Decimal `json:"total_due"`
	Remarks   string          `json:"remarks,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Version   int             `json:"version"`
}

func toPaymentResponse(p *billing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		TenantID:      p.TenantID,
		PaymentNumber: p.PaymentNumber,
		StudentID:     p.StudentID,
		Amount:        p.Amount,
		Discount:      p.Discount,
		Fine:          p.Fine,
		Total:         p.Total,
		Status:        p.Status.String(),
		Description:   p.Description,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		Version:       p.Version,
	}
}

func toInstallmentResponse(i *billing.Installment) InstallmentResponse {
	return InstallmentResponse{
		ID:        i.ID,
		TenantID:  i.TenantID,
		PaymentID: i.PaymentID,
		Number:    i.Number,
		Amount:    i.Amount,
		DueDate:   i.DueDate,
		PaidDate:  i.PaidDate,
		Status:    i.Status.String(),
		LateFee:   i.LateFee,
		TotalDue:  i.TotalDue(),
		Remarks:   i.Remarks,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
		Version:   i.Version,
	}
}

// CreatePayment registers a new payment obligation for a student
func (s *InstallmentService) CreatePayment(ctx context.Context, req CreatePaymentRequest) shared.Result[PaymentResponse] {
	payment, err := billing.NewPayment(req.TenantID, req.StudentID, req.PaymentNumber, req.Amount, req.Discount, req.Fine)
	if err != nil {
		return shared.FailFrom[PaymentResponse](err)
	}
	payment.Description = req.Description

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return shared.FailFrom[PaymentResponse](err)
	}

	s.logger.Info("payment created",
		zap.String("payment_id", payment.ID.String()),
		zap.String("payment_number", payment.PaymentNumber),
		zap.String("total", payment.Total.String()))
	return shared.OK(toPaymentResponse(payment))
}

// GetPayment returns a payment within a tenant
func (s *InstallmentService) GetPayment(ctx context.Context, tenantID, paymentID uuid.UUID) shared.Result[PaymentResponse] {
	payment, err := s.paymentRepo.FindByIDForTenant(ctx, tenantID, paymentID)
	if err != nil {
		return shared.FailFrom[PaymentResponse](err)
	}
	return shared.OK(toPaymentResponse(payment))
}

// Create adds one installment to a payment. Number uniqueness and the
// sum bound are checked against the locked payment row inside the insert
// transaction, so two concurrent creates cannot overshoot the total.
func (s *InstallmentService) Create(ctx context.Context, req CreateInstallmentRequest) shared.Result[InstallmentResponse] {
	installment, err := billing.NewInstallment(req.TenantID, req.PaymentID, req.Number, req.Amount, req.DueDate)
	if err != nil {
		return shared.FailFrom[InstallmentResponse](err)
	}

	err = s.installmentRepo.CreateInPayment(ctx, installment, func(payment *billing.Payment, existing []billing.Installment) error {
		return billing.ValidateNewInstallment(payment, existing, installment)
	})
	if err != nil {
		return shared.FailFrom[InstallmentResponse](err)
	}

	s.recomputePaymentStatus(ctx, req.TenantID, req.PaymentID)
	return shared.OK(toInstallmentResponse(installment))
}

// BulkCreate schedules several installments sequentially. Each item gets
// its own result; one bad row does not abort the rest.
func (s *InstallmentService) BulkCreate(ctx context.Context, req BulkCreateInstallmentsRequest) []shared.Result[InstallmentResponse] {
	results := make([]shared.Result[InstallmentResponse], 0, len(req.Items))
	for _, item := range req.Items {
		results = append(results, s.Create(ctx, CreateInstallmentRequest{
			TenantID:  req.TenantID,
			PaymentID: req.PaymentID,
			Number:    item.Number,
			Amount:    item.Amount,
			DueDate:   item.DueDate,
		}))
	}
	return results
}

// MarkPaid settles an installment. The intent is recorded in the ledger
// first; the state change is saved with an optimistic version check and
// the payment status recomputed afterwards.
func (s *InstallmentService) MarkPaid(ctx context.Context, req MarkPaidRequest) shared.Result[InstallmentResponse] {
	installment, err := s.installmentRepo.FindByIDForTenant(ctx, req.TenantID, req.InstallmentID)
	if err != nil {
		return shared.FailFrom[InstallmentResponse](err)
	}

	event, err := s.ledgerSvc.Record(ctx, req.TenantID, ledger.SubjectTypeInstallment, installment.ID, req.ActorID,
		ledger.InstallmentPaidPayload{
			PaymentID:         installment.PaymentID,
			InstallmentNumber: installment.Number,
			Amount:            installment.Amount.String(),
			Remarks:           req.Remarks,
		})
	if err != nil {
		return shared.FailFrom[InstallmentResponse](err)
	}

	if err := installment.MarkPaid(req.Remarks); err != nil {
		s.failEvent(ctx, event, err)
		return shared.FailFrom[InstallmentResponse](err)
	}
	if err := s.installmentRepo.Save(ctx, installment); err != nil {
		s.failEvent(ctx, event, err)
		return shared.FailFrom[InstallmentResponse](err)
	}

	if err := s.ledgerSvc.Finalize(ctx, event, ledger.PaidDatePatch(installment.PaidDate.Format(time.RFC3339))); err != nil {
		s.logger.Error("installment-paid event finalize failed",
			zap.String("event_id", event.ID.String()),
			zap.Error(err))
	}

	s.recomputePaymentStatus(ctx, req.TenantID, installment.PaymentID)
	s.publishEvents(ctx, installment.GetDomainEvents())
	installment.ClearDomainEvents()

	s.logger.Info("installment paid",
		zap.String("installment_id", installment.ID.String()),
		zap.Int("number", installment.Number))
	return shared.OK(toInstallmentResponse(installment))
}

// MarkOverdue flags one installment past its due date, accruing the late
// fee on the first transition only.
func (s *InstallmentService) MarkOverdue(ctx context.Context, req MarkOverdueRequest) shared.Result[InstallmentResponse] {
	installment, err := s.installmentRepo.FindByIDForTenant(ctx, req.TenantID, req.InstallmentID)
	if err != nil {
		return shared.FailFrom[InstallmentResponse](err)
	}

	// Repeat sweeps over an already overdue installment succeed without
	// writing anything: no new intent row, no save, no re-applied fee.
	if installment.Status == billing.InstallmentStatusOverdue {
		return shared.OK(toInstallmentResponse(installment))
	}

	event, err := s.ledgerSvc.Record(ctx, req.TenantID, ledger.SubjectTypeInstallment, installment.ID, req.ActorID,
		ledger.InstallmentOverduePayload{
			PaymentID:         installment.PaymentID,
			InstallmentNumber: installment.Number,
			Amount:            installment.Amount.String(),
			LateFee:           installment.LateFee.String(),
		})
	if err != nil {
		return shared.FailFrom[InstallmentResponse](err)
	}

	if err := installment.MarkOverdue(time.Now()); err != nil {
		s.failEvent(ctx, event, err)
		return shared.FailFrom[InstallmentResponse](err)
	}
	if err := s.installmentRepo.Save(ctx, installment); err != nil {
		s.failEvent(ctx, event, err)
		return shared.FailFrom[InstallmentResponse](err)
	}

	if err := s.ledgerSvc.Finalize(ctx, event, ledger.Metadata{"late_fee": installment.LateFee.String()}); err != nil {
		s.logger.Error("installment-overdue event finalize failed",
			zap.String("event_id", event.ID.String()),
			zap.Error(err))
	}

	s.recomputePaymentStatus(ctx, req.TenantID, installment.PaymentID)
	s.publishEvents(ctx, installment.GetDomainEvents())
	installment.ClearDomainEvents()

	return shared.OK(toInstallmentResponse(installment))
}

// SweepOverdue marks every due unpaid installment of a tenant overdue.
// Installments already overdue are skipped; each transition goes through
// the same event-first path as a single MarkOverdue.
func (s *InstallmentService) SweepOverdue(ctx context.Context, tenantID, actorID uuid.UUID) (int, error) {
	candidates, err := s.installmentRepo.FindOverdueCandidates(ctx, tenantID)
	if err != nil {
		return 0, err
	}

	transitioned := 0
	for i := range candidates {
		result := s.MarkOverdue(ctx, MarkOverdueRequest{
			TenantID:      tenantID,
			InstallmentID: candidates[i].ID,
			ActorID:       actorID,
		})
		if result.Success {
			transitioned++
			continue
		}
		// a concurrent payment racing the sweep is expected, not an error
		if result.Error != nil && result.Error.Kind != shared.KindConflict {
			s.logger.Warn("overdue sweep item failed",
				zap.String("installment_id", candidates[i].ID.String()),
				zap.String("code", result.Error.Code))
		}
	}
	return transitioned, nil
}

// Update edits the allow-listed fields of an unpaid installment. Amount
// changes are re-checked against the payment's sum bound.
func (s *InstallmentService) Update(ctx context.Context, req UpdateInstallmentRequest) shared.Result[InstallmentResponse] {
	installment, err := s.installmentRepo.FindByIDForTenant(ctx, req.TenantID, req.InstallmentID)
	if err != nil {
		return shared.FailFrom[InstallmentResponse](err)
	}

	if err := installment.ApplyPatch(billing.InstallmentPatch{
		Amount:  req.Amount,
		DueDate: req.DueDate,
		Remarks: req.Remarks,
	}); err != nil {
		return shared.FailFrom[InstallmentResponse](err)
	}

	if req.Amount != nil {
		if err := s.checkSumBound(ctx, req.TenantID, installment); err != nil {
			return shared.FailFrom[InstallmentResponse](err)
		}
	}

	if err := s.installmentRepo.Save(ctx, installment); err != nil {
		return shared.FailFrom[InstallmentResponse](err)
	}
	return shared.OK(toInstallmentResponse(installment))
}

// Delete soft-deletes an unpaid installment and recomputes the payment
// status from the remaining rows.
func (s *InstallmentService) Delete(ctx context.Context, tenantID, installmentID uuid.UUID) shared.Result[InstallmentResponse] {
	installment, err := s.installmentRepo.FindByIDForTenant(ctx, tenantID, installmentID)
	if err != nil {
		return shared.FailFrom[InstallmentResponse](err)
	}
	if err := installment.EnsureDeletable(); err != nil {
		return shared.FailFrom[InstallmentResponse](err)
	}
	if err := s.installmentRepo.SoftDelete(ctx, tenantID, installmentID); err != nil {
		return shared.FailFrom[InstallmentResponse](err)
	}

	s.recomputePaymentStatus(ctx, tenantID, installment.PaymentID)
	return shared.OK(toInstallmentResponse(installment))
}

// ListByPayment returns a payment's live installments ordered by number
func (s *InstallmentService) ListByPayment(ctx context.Context, tenantID, paymentID uuid.UUID) ([]InstallmentResponse, error) {
	installments, err := s.installmentRepo.FindByPayment(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}

	responses := make([]InstallmentResponse, 0, len(installments))
	for i := range installments {
		responses = append(responses, toInstallmentResponse(&installments[i]))
	}
	return responses, nil
}

// checkSumBound re-validates the sum invariant after an amount edit
func (s *InstallmentService) checkSumBound(ctx context.Context, tenantID uuid.UUID, edited *billing.Installment) error {
	payment, err := s.paymentRepo.FindByIDForTenant(ctx, tenantID, edited.PaymentID)
	if err != nil {
		return err
	}
	installments, err := s.installmentRepo.FindByPayment(ctx, tenantID, edited.PaymentID)
	if err != nil {
		return err
	}
	for i := range installments {
		if installments[i].ID == edited.ID {
			installments[i] = *edited
		}
	}
	return billing.ValidateInstallmentSum(payment, installments)
}

// recomputePaymentStatus rereads the payment's live installments and
// applies the derived status. Idempotent; a payment with no installments
// is left untouched. Failures are logged, never propagated: the
// installment mutation has already committed.
func (s *InstallmentService) recomputePaymentStatus(ctx context.Context, tenantID, paymentID uuid.UUID) {
	payment, err := s.paymentRepo.FindByIDForTenant(ctx, tenantID, paymentID)
	if err != nil {
		s.logger.Warn("status recompute: payment load failed",
			zap.String("payment_id", paymentID.String()),
			zap.Error(err))
		return
	}
	installments, err := s.installmentRepo.FindByPayment(ctx, tenantID, paymentID)
	if err != nil {
		s.logger.Warn("status recompute: installment load failed",
			zap.String("payment_id", paymentID.String()),
			zap.Error(err))
		return
	}

	status, ok := billing.DerivePaymentStatus(installments)
	if !ok || !payment.ApplyDerivedStatus(status) {
		return
	}

	if err := s.paymentRepo.Save(ctx, payment); err != nil {
		s.logger.Warn("status recompute: payment save failed",
			zap.String("payment_id", paymentID.String()),
			zap.Error(err))
		return
	}
	s.publishEvents(ctx, payment.GetDomainEvents())
	payment.ClearDomainEvents()
}

// failEvent marks the intent event failed, best-effort
func (s *InstallmentService) failEvent(ctx context.Context, event *ledger.LedgerEvent, cause error) {
	if err := s.ledgerSvc.Fail(ctx, event, cause.Error()); err != nil {
		s.logger.Warn("could not mark installment event failed",
			zap.String("event_id", event.ID.String()),
			zap.Error(err))
	}
}

// publishEvents hands domain events to the bus subscribers, fire-and-forget
func (s *InstallmentService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("domain event publish failed", zap.Error(err))
	}
}
