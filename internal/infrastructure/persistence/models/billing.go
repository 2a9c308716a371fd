package models

import (
	"time"

	"github.com/campusops/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentModel is the persistence model for the Payment obligation entity.
type PaymentModel struct {
	TenantAggregateModel
	PaymentNumber string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_payment_tenant_number,priority:2"`
	StudentID     uuid.UUID             `gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Discount      decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Fine          decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Total         decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Status        billing.PaymentStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Description   string                `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment entity.
func (m *PaymentModel) ToDomain() *billing.Payment {
	p := &billing.Payment{
		PaymentNumber: m.PaymentNumber,
		StudentID:     m.StudentID,
		Amount:        m.Amount,
		Discount:      m.Discount,
		Fine:          m.Fine,
		Total:         m.Total,
		Status:        m.Status,
		Description:   m.Description,
	}
	m.PopulateTenantAggregateRoot(&p.TenantAggregateRoot)
	return p
}

// FromDomain populates the persistence model from a domain Payment entity.
func (m *PaymentModel) FromDomain(p *billing.Payment) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.PaymentNumber = p.PaymentNumber
	m.StudentID = p.StudentID
	m.Amount = p.Amount
	m.Discount = p.Discount
	m.Fine = p.Fine
	m.Total = p.Total
	m.Status = p.Status
	m.Description = p.Description
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment entity.
func PaymentModelFromDomain(p *billing.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// InstallmentModel is the persistence model for the Installment entity.
// Uniqueness of (payment_id, number) over live rows is enforced by a
// partial index in the migrations, since soft-deleted numbers may be reused.
type InstallmentModel struct {
	TenantAggregateModel
	PaymentID uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Number    int                       `gorm:"not null"`
	Amount    decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	DueDate   time.Time                 `gorm:"type:timestamptz;not null;index"`
	PaidDate  *time.Time                `gorm:"type:timestamptz"`
	Status    billing.InstallmentStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	LateFee   decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	Remarks   string                    `gorm:"type:text"`
	DeletedAt gorm.DeletedAt            `gorm:"index"`
}

// TableName returns the table name for GORM
func (InstallmentModel) TableName() string {
	return "installments"
}

// ToDomain converts the persistence model to a domain Installment entity.
func (m *InstallmentModel) ToDomain() *billing.Installment {
	i := &billing.Installment{
		PaymentID: m.PaymentID,
		Number:    m.Number,
		Amount:    m.Amount,
		DueDate:   m.DueDate,
		PaidDate:  m.PaidDate,
		Status:    m.Status,
		LateFee:   m.LateFee,
		Remarks:   m.Remarks,
	}
	m.PopulateTenantAggregateRoot(&i.TenantAggregateRoot)
	return i
}

// FromDomain populates the persistence model from a domain Installment entity.
func (m *InstallmentModel) FromDomain(i *billing.Installment) {
	m.FromDomainTenantAggregateRoot(i.TenantAggregateRoot)
	m.PaymentID = i.PaymentID
	m.Number = i.Number
	m.Amount = i.Amount
	m.DueDate = i.DueDate
	m.PaidDate = i.PaidDate
	m.Status = i.Status
	m.LateFee = i.LateFee
	m.Remarks = i.Remarks
}

// InstallmentModelFromDomain creates a new persistence model from a domain Installment entity.
func InstallmentModelFromDomain(i *billing.Installment) *InstallmentModel {
	m := &InstallmentModel{}
	m.FromDomain(i)
	return m
}
