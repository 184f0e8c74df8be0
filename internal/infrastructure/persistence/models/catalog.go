package models

import (
	"github.com/ams/backend/internal/domain/catalog"
	"github.com/ams/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PlanModel is the persistence model for the Plan aggregate root.
type PlanModel struct {
	TenantAggregateModel
	Name                string                `gorm:"type:varchar(200);not null"`
	Code                string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_plan_tenant_code,priority:2"`
	Description         string                `gorm:"type:text"`
	Price               decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Currency            valueobject.Currency  `gorm:"type:varchar(3);not null;default:'USD'"`
	BillingPeriod       catalog.BillingPeriod `gorm:"type:varchar(20);not null"`
	BillingInterval     int                   `gorm:"not null;default:1"`
	BillingType         catalog.BillingType   `gorm:"type:varchar(20);not null"`
	TrialPeriodDays     int                   `gorm:"not null;default:0"`
	AutoRenew           bool                  `gorm:"not null;default:true"`
	SupportsSeats       bool                  `gorm:"not null;default:false"`
	IncludedSeats       int                   `gorm:"not null;default:0"`
	MaxSeats            int                   `gorm:"not null;default:0"`
	AdditionalSeatPrice decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	GracePeriodDays     int                   `gorm:"not null;default:0"`
	InvoiceAdvanceDays  int                   `gorm:"not null;default:30"`
	Active              bool                  `gorm:"not null;default:true;index"`
	SortOrder           int                   `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (PlanModel) TableName() string {
	return "plans"
}

// ToDomain converts the persistence model to a domain Plan entity.
func (m *PlanModel) ToDomain() *catalog.Plan {
	return &catalog.Plan{
		TenantAggregateRoot: m.tenantAggregateRoot(),
		Name:                m.Name,
		Code:                m.Code,
		Description:         m.Description,
		Price:               m.Price,
		Currency:            m.Currency,
		BillingPeriod:       m.BillingPeriod,
		BillingInterval:     m.BillingInterval,
		BillingType:         m.BillingType,
		TrialPeriodDays:     m.TrialPeriodDays,
		AutoRenew:           m.AutoRenew,
		SupportsSeats:       m.SupportsSeats,
		IncludedSeats:       m.IncludedSeats,
		MaxSeats:            m.MaxSeats,
		AdditionalSeatPrice: m.AdditionalSeatPrice,
		GracePeriodDays:     m.GracePeriodDays,
		InvoiceAdvanceDays:  m.InvoiceAdvanceDays,
		Active:              m.Active,
		SortOrder:           m.SortOrder,
	}
}

// FromDomain populates the persistence model from a domain Plan entity.
func (m *PlanModel) FromDomain(p *catalog.Plan) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.Name = p.Name
	m.Code = p.Code
	m.Description = p.Description
	m.Price = p.Price
	m.Currency = p.Currency
	m.BillingPeriod = p.BillingPeriod
	m.BillingInterval = p.BillingInterval
	m.BillingType = p.BillingType
	m.TrialPeriodDays = p.TrialPeriodDays
	m.AutoRenew = p.AutoRenew
	m.SupportsSeats = p.SupportsSeats
	m.IncludedSeats = p.IncludedSeats
	m.MaxSeats = p.MaxSeats
	m.AdditionalSeatPrice = p.AdditionalSeatPrice
	m.GracePeriodDays = p.GracePeriodDays
	m.InvoiceAdvanceDays = p.InvoiceAdvanceDays
	m.Active = p.Active
	m.SortOrder = p.SortOrder
}

// PlanModelFromDomain creates a new persistence model from a domain Plan.
func PlanModelFromDomain(p *catalog.Plan) *PlanModel {
	m := &PlanModel{}
	m.FromDomain(p)
	return m
}
