package models

import (
	"time"

	"github.com/ams/backend/internal/domain/billing"
	"github.com/ams/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	TenantAggregateModel
	InvoiceNumber  string               `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoice_tenant_number,priority:2"`
	SubscriptionID uuid.UUID            `gorm:"type:uuid;not null;index"`
	PartnerID      uuid.UUID            `gorm:"type:uuid;not null;index"`
	Amount         decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Currency       valueobject.Currency `gorm:"type:varchar(3);not null;default:'USD'"`
	IsRenewal      bool                 `gorm:"not null;default:false"`
	PaymentState   billing.PaymentState `gorm:"type:varchar(20);not null;default:'not_paid';index"`
	IssuedDate     time.Time            `gorm:"not null"`
	DueDate        time.Time            `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice entity.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	return &billing.Invoice{
		TenantAggregateRoot: m.tenantAggregateRoot(),
		InvoiceNumber:       m.InvoiceNumber,
		SubscriptionID:      m.SubscriptionID,
		PartnerID:           m.PartnerID,
		Amount:              m.Amount,
		Currency:            m.Currency,
		IsRenewal:           m.IsRenewal,
		PaymentState:        m.PaymentState,
		IssuedDate:          m.IssuedDate,
		DueDate:             m.DueDate,
	}
}

// FromDomain populates the persistence model from a domain Invoice entity.
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.SubscriptionID = inv.SubscriptionID
	m.PartnerID = inv.PartnerID
	m.Amount = inv.Amount
	m.Currency = inv.Currency
	m.IsRenewal = inv.IsRenewal
	m.PaymentState = inv.PaymentState
	m.IssuedDate = inv.IssuedDate
	m.DueDate = inv.DueDate
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// PaymentRecordModel is the persistence model for the PaymentRecord aggregate root.
type PaymentRecordModel struct {
	TenantAggregateModel
	SubscriptionID uuid.UUID             `gorm:"type:uuid;not null;index"`
	PartnerID      uuid.UUID             `gorm:"type:uuid;not null;index"`
	InvoiceID      uuid.UUID             `gorm:"type:uuid;not null;index"`
	Amount         decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Status         billing.PaymentStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	FailureDate    *time.Time
	FailureReason  string `gorm:"type:varchar(500)"`
	RetryCount     int    `gorm:"not null;default:0"`
	NextRetryDate  *time.Time `gorm:"index"`
	SucceededAt    *time.Time
}

// TableName returns the table name for GORM
func (PaymentRecordModel) TableName() string {
	return "payment_records"
}

// ToDomain converts the persistence model to a domain PaymentRecord entity.
func (m *PaymentRecordModel) ToDomain() *billing.PaymentRecord {
	return &billing.PaymentRecord{
		TenantAggregateRoot: m.tenantAggregateRoot(),
		SubscriptionID:      m.SubscriptionID,
		PartnerID:           m.PartnerID,
		InvoiceID:           m.InvoiceID,
		Amount:              m.Amount,
		Status:              m.Status,
		FailureDate:         m.FailureDate,
		FailureReason:       m.FailureReason,
		RetryCount:          m.RetryCount,
		NextRetryDate:       m.NextRetryDate,
		SucceededAt:         m.SucceededAt,
	}
}

// FromDomain populates the persistence model from a domain PaymentRecord entity.
func (m *PaymentRecordModel) FromDomain(rec *billing.PaymentRecord) {
	m.FromDomainTenantAggregateRoot(rec.TenantAggregateRoot)
	m.SubscriptionID = rec.SubscriptionID
	m.PartnerID = rec.PartnerID
	m.InvoiceID = rec.InvoiceID
	m.Amount = rec.Amount
	m.Status = rec.Status
	m.FailureDate = rec.FailureDate
	m.FailureReason = rec.FailureReason
	m.RetryCount = rec.RetryCount
	m.NextRetryDate = rec.NextRetryDate
	m.SucceededAt = rec.SucceededAt
}

// PaymentRecordModelFromDomain creates a new persistence model from a domain PaymentRecord.
func PaymentRecordModelFromDomain(rec *billing.PaymentRecord) *PaymentRecordModel {
	m := &PaymentRecordModel{}
	m.FromDomain(rec)
	return m
}

// ScheduleModel is the persistence model for the billing Schedule aggregate root.
type ScheduleModel struct {
	TenantAggregateModel
	SubscriptionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_schedule_tenant_subscription,priority:2"`
	Active         bool      `gorm:"not null;default:true;index"`
	NextRun        *time.Time `gorm:"index"`
	LastRun        *time.Time
}

// TableName returns the table name for GORM
func (ScheduleModel) TableName() string {
	return "billing_schedules"
}

// ToDomain converts the persistence model to a domain Schedule entity.
func (m *ScheduleModel) ToDomain() *billing.Schedule {
	return &billing.Schedule{
		TenantAggregateRoot: m.tenantAggregateRoot(),
		SubscriptionID:      m.SubscriptionID,
		Active:              m.Active,
		NextRun:             m.NextRun,
		LastRun:             m.LastRun,
	}
}

// FromDomain populates the persistence model from a domain Schedule entity.
func (m *ScheduleModel) FromDomain(s *billing.Schedule) {
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	m.SubscriptionID = s.SubscriptionID
	m.Active = s.Active
	m.NextRun = s.NextRun
	m.LastRun = s.LastRun
}

// ScheduleModelFromDomain creates a new persistence model from a domain Schedule.
func ScheduleModelFromDomain(s *billing.Schedule) *ScheduleModel {
	m := &ScheduleModel{}
	m.FromDomain(s)
	return m
}
