package models

import (
	"time"

	"github.com/campusops/backend/internal/domain/enrollment"
	"github.com/campusops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CustomerModel is the persistence model for the prospect Customer entity.
type CustomerModel struct {
	TenantAggregateModel
	Code         string                    `gorm:"type:varchar(50);not null;uniqueIndex:idx_customer_tenant_code,priority:2"`
	Name         string                    `gorm:"type:varchar(200);not null"`
	GuardianName string                    `gorm:"type:varchar(200)"`
	Phone        string                    `gorm:"type:varchar(50);index"`
	Email        string                    `gorm:"type:varchar(200);index"`
	Notes        string                    `gorm:"type:text"`
	Status       enrollment.CustomerStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	ConvertedAt  *time.Time                `gorm:"type:timestamptz"`
	DeletedAt    gorm.DeletedAt            `gorm:"index"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *enrollment.Customer {
	c := &enrollment.Customer{
		Code:         m.Code,
		Name:         m.Name,
		GuardianName: m.GuardianName,
		Phone:        m.Phone,
		Email:        m.Email,
		Notes:        m.Notes,
		Status:       m.Status,
		ConvertedAt:  m.ConvertedAt,
	}
	m.PopulateTenantAggregateRoot(&c.TenantAggregateRoot)
	return c
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *enrollment.Customer) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.Code = c.Code
	m.Name = c.Name
	m.GuardianName = c.GuardianName
	m.Phone = c.Phone
	m.Email = c.Email
	m.Notes = c.Notes
	m.Status = c.Status
	m.ConvertedAt = c.ConvertedAt
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer entity.
func CustomerModelFromDomain(c *enrollment.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}

// StudentModel is the persistence model for the Student entity. The partial
// unique index on converted_from_customer_id (see migrations) is what makes
// conversion exactly-once under concurrency.
type StudentModel struct {
	TenantAggregateModel
	StudentNumber           string                   `gorm:"type:varchar(50);not null;uniqueIndex:idx_student_tenant_number,priority:2"`
	FullName                string                   `gorm:"type:varchar(200);not null"`
	GuardianName            string                   `gorm:"type:varchar(200)"`
	Phone                   string                   `gorm:"type:varchar(50)"`
	Email                   string                   `gorm:"type:varchar(200)"`
	Status                  enrollment.StudentStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	ConvertedFromCustomerID *uuid.UUID               `gorm:"type:uuid;uniqueIndex:idx_student_converted_from"`
	ConversionDate          *time.Time               `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (StudentModel) TableName() string {
	return "students"
}

// ToDomain converts the persistence model to a domain Student entity.
// The linked account, when needed, is loaded and attached by the repository.
func (m *StudentModel) ToDomain() *enrollment.Student {
	s := &enrollment.Student{
		StudentNumber:           m.StudentNumber,
		FullName:                m.FullName,
		GuardianName:            m.GuardianName,
		Phone:                   m.Phone,
		Email:                   m.Email,
		Status:                  m.Status,
		ConvertedFromCustomerID: m.ConvertedFromCustomerID,
		ConversionDate:          m.ConversionDate,
	}
	m.PopulateTenantAggregateRoot(&s.TenantAggregateRoot)
	return s
}

// FromDomain populates the persistence model from a domain Student entity.
func (m *StudentModel) FromDomain(s *enrollment.Student) {
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	m.StudentNumber = s.StudentNumber
	m.FullName = s.FullName
	m.GuardianName = s.GuardianName
	m.Phone = s.Phone
	m.Email = s.Email
	m.Status = s.Status
	m.ConvertedFromCustomerID = s.ConvertedFromCustomerID
	m.ConversionDate = s.ConversionDate
}

// StudentModelFromDomain creates a new persistence model from a domain Student entity.
func StudentModelFromDomain(s *enrollment.Student) *StudentModel {
	m := &StudentModel{}
	m.FromDomain(s)
	return m
}

// StudentAccountModel is the persistence model for the student's linked
// account. It is only ever written in the same transaction as its student.
type StudentAccountModel struct {
	BaseModel
	StudentID     uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex"`
	TenantID      uuid.UUID                `gorm:"type:uuid;not null;index"`
	AccountNumber string                   `gorm:"type:varchar(60);not null;uniqueIndex:idx_account_tenant_number,priority:2"`
	Status        enrollment.AccountStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
}

// TableName returns the table name for GORM
func (StudentAccountModel) TableName() string {
	return "student_accounts"
}

// ToDomain converts the persistence model to a domain StudentAccount.
func (m *StudentAccountModel) ToDomain() *enrollment.StudentAccount {
	return &enrollment.StudentAccount{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		StudentID:     m.StudentID,
		TenantID:      m.TenantID,
		AccountNumber: m.AccountNumber,
		Status:        m.Status,
	}
}

// StudentAccountModelFromDomain creates a new persistence model from a domain StudentAccount.
func StudentAccountModelFromDomain(a *enrollment.StudentAccount) *StudentAccountModel {
	m := &StudentAccountModel{}
	m.FromDomainBaseEntity(a.BaseEntity)
	m.StudentID = a.StudentID
	m.TenantID = a.TenantID
	m.AccountNumber = a.AccountNumber
	m.Status = a.Status
	return m
}
