package models

import (
	"time"

	"github.com/ams/backend/internal/domain/catalog"
	"github.com/ams/backend/internal/domain/shared/valueobject"
	"github.com/ams/backend/internal/domain/subscription"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubscriptionModel is the persistence model for the Subscription aggregate root.
type SubscriptionModel struct {
	TenantAggregateModel
	SubscriptionNumber string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_subscription_tenant_number,priority:2"`
	PartnerID          uuid.UUID             `gorm:"type:uuid;not null;index"`
	PartnerName        string                `gorm:"type:varchar(200);not null"`
	PlanID             uuid.UUID             `gorm:"type:uuid;not null;index"`
	PlanName           string                `gorm:"type:varchar(200);not null"`
	Price              decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Currency           valueobject.Currency  `gorm:"type:varchar(3);not null;default:'USD'"`
	BillingPeriod      catalog.BillingPeriod `gorm:"type:varchar(20);not null"`
	BillingType        catalog.BillingType   `gorm:"type:varchar(20);not null"`
	BillingInterval    int                   `gorm:"not null;default:1"`
	IsLifetime         bool                  `gorm:"not null;default:false"`
	TrialPeriodDays    int                   `gorm:"not null;default:0"`
	GracePeriodDays    int                   `gorm:"not null;default:0"`

	State           subscription.State `gorm:"type:varchar(20);not null;default:'draft';index"`
	StartDate       time.Time          `gorm:"not null"`
	EndDate         *time.Time         `gorm:"index"`
	TrialEndDate    *time.Time         `gorm:"index"`
	NextBillingDate *time.Time         `gorm:"index"`
	AutoRenew       bool               `gorm:"not null;default:true"`

	DunningLevel       int        `gorm:"not null;default:0;index"`
	PaymentIssues      bool       `gorm:"not null;default:false"`
	LastPaymentFailure *time.Time

	ParentSubscriptionID *uuid.UUID `gorm:"type:uuid;index"`
	SeatMemberID         *uuid.UUID `gorm:"type:uuid;index"`

	MRRAmount decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ARRAmount decimal.Decimal `gorm:"type:decimal(18,4);not null"`

	SuspendReason string     `gorm:"type:varchar(500)"`
	SuspendedAt   *time.Time
	CancelReason  string     `gorm:"type:varchar(500)"`
	CancelledAt   *time.Time
	ActivatedAt   *time.Time `gorm:"index"`
	ExpiredAt     *time.Time
	Notes         string     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (SubscriptionModel) TableName() string {
	return "subscriptions"
}

// ToDomain converts the persistence model to a domain Subscription entity.
func (m *SubscriptionModel) ToDomain() *subscription.Subscription {
	return &subscription.Subscription{
		TenantAggregateRoot:  m.tenantAggregateRoot(),
		SubscriptionNumber:   m.SubscriptionNumber,
		PartnerID:            m.PartnerID,
		PartnerName:          m.PartnerName,
		PlanID:               m.PlanID,
		PlanName:             m.PlanName,
		Price:                m.Price,
		Currency:             m.Currency,
		BillingPeriod:        m.BillingPeriod,
		BillingType:          m.BillingType,
		BillingInterval:      m.BillingInterval,
		IsLifetime:           m.IsLifetime,
		TrialPeriodDays:      m.TrialPeriodDays,
		GracePeriodDays:      m.GracePeriodDays,
		State:                m.State,
		StartDate:            m.StartDate,
		EndDate:              m.EndDate,
		TrialEndDate:         m.TrialEndDate,
		NextBillingDate:      m.NextBillingDate,
		AutoRenew:            m.AutoRenew,
		DunningLevel:         m.DunningLevel,
		PaymentIssues:        m.PaymentIssues,
		LastPaymentFailure:   m.LastPaymentFailure,
		ParentSubscriptionID: m.ParentSubscriptionID,
		SeatMemberID:         m.SeatMemberID,
		MRRAmount:            m.MRRAmount,
		ARRAmount:            m.ARRAmount,
		SuspendReason:        m.SuspendReason,
		SuspendedAt:          m.SuspendedAt,
		CancelReason:         m.CancelReason,
		CancelledAt:          m.CancelledAt,
		ActivatedAt:          m.ActivatedAt,
		ExpiredAt:            m.ExpiredAt,
		Notes:                m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Subscription entity.
func (m *SubscriptionModel) FromDomain(s *subscription.Subscription) {
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	m.SubscriptionNumber = s.SubscriptionNumber
	m.PartnerID = s.PartnerID
	m.PartnerName = s.PartnerName
	m.PlanID = s.PlanID
	m.PlanName = s.PlanName
	m.Price = s.Price
	m.Currency = s.Currency
	m.BillingPeriod = s.BillingPeriod
	m.BillingType = s.BillingType
	m.BillingInterval = s.BillingInterval
	m.IsLifetime = s.IsLifetime
	m.TrialPeriodDays = s.TrialPeriodDays
	m.GracePeriodDays = s.GracePeriodDays
	m.State = s.State
	m.StartDate = s.StartDate
	m.EndDate = s.EndDate
	m.TrialEndDate = s.TrialEndDate
	m.NextBillingDate = s.NextBillingDate
	m.AutoRenew = s.AutoRenew
	m.DunningLevel = s.DunningLevel
	m.PaymentIssues = s.PaymentIssues
	m.LastPaymentFailure = s.LastPaymentFailure
	m.ParentSubscriptionID = s.ParentSubscriptionID
	m.SeatMemberID = s.SeatMemberID
	m.MRRAmount = s.MRRAmount
	m.ARRAmount = s.ARRAmount
	m.SuspendReason = s.SuspendReason
	m.SuspendedAt = s.SuspendedAt
	m.CancelReason = s.CancelReason
	m.CancelledAt = s.CancelledAt
	m.ActivatedAt = s.ActivatedAt
	m.ExpiredAt = s.ExpiredAt
	m.Notes = s.Notes
}

// SubscriptionModelFromDomain creates a new persistence model from a domain Subscription.
func SubscriptionModelFromDomain(s *subscription.Subscription) *SubscriptionModel {
	m := &SubscriptionModel{}
	m.FromDomain(s)
	return m
}

// RenewalModel is the persistence model for the Renewal aggregate root.
type RenewalModel struct {
	TenantAggregateModel
	SubscriptionID uuid.UUID                 `gorm:"type:uuid;not null;index"`
	RenewalDate    time.Time                 `gorm:"not null"`
	NewEndDate     time.Time                 `gorm:"not null"`
	Amount         decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	State          subscription.RenewalState `gorm:"type:varchar(20);not null;default:'draft';index"`
	ConfirmedAt    *time.Time
	CancelledAt    *time.Time
}

// TableName returns the table name for GORM
func (RenewalModel) TableName() string {
	return "subscription_renewals"
}

// ToDomain converts the persistence model to a domain Renewal entity.
func (m *RenewalModel) ToDomain() *subscription.Renewal {
	return &subscription.Renewal{
		TenantAggregateRoot: m.tenantAggregateRoot(),
		SubscriptionID:      m.SubscriptionID,
		RenewalDate:         m.RenewalDate,
		NewEndDate:          m.NewEndDate,
		Amount:              m.Amount,
		State:               m.State,
		ConfirmedAt:         m.ConfirmedAt,
		CancelledAt:         m.CancelledAt,
	}
}

// FromDomain populates the persistence model from a domain Renewal entity.
func (m *RenewalModel) FromDomain(r *subscription.Renewal) {
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	m.SubscriptionID = r.SubscriptionID
	m.RenewalDate = r.RenewalDate
	m.NewEndDate = r.NewEndDate
	m.Amount = r.Amount
	m.State = r.State
	m.ConfirmedAt = r.ConfirmedAt
	m.CancelledAt = r.CancelledAt
}

// RenewalModelFromDomain creates a new persistence model from a domain Renewal.
func RenewalModelFromDomain(r *subscription.Renewal) *RenewalModel {
	m := &RenewalModel{}
	m.FromDomain(r)
	return m
}

// BackupModel is the persistence model for the Backup aggregate root.
type BackupModel struct {
	TenantAggregateModel
	SubscriptionID       uuid.UUID          `gorm:"type:uuid;not null;index"`
	Reason               string             `gorm:"type:varchar(500);not null"`
	State                subscription.State `gorm:"type:varchar(20);not null"`
	Price                decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	PlanID               uuid.UUID          `gorm:"type:uuid;not null"`
	StartDate            time.Time          `gorm:"not null"`
	EndDate              *time.Time
	TrialEndDate         *time.Time
	NextBillingDate      *time.Time
	AutoRenew            bool               `gorm:"not null;default:true"`
	DunningLevel         int                `gorm:"not null;default:0"`
	ParentSubscriptionID *uuid.UUID         `gorm:"type:uuid"`
	SeatMemberID         *uuid.UUID         `gorm:"type:uuid"`
	Notes                string             `gorm:"type:text"`
	Restored             bool               `gorm:"not null;default:false"`
	RestoredAt           *time.Time
}

// TableName returns the table name for GORM
func (BackupModel) TableName() string {
	return "subscription_backups"
}

// ToDomain converts the persistence model to a domain Backup entity.
func (m *BackupModel) ToDomain() *subscription.Backup {
	return &subscription.Backup{
		TenantAggregateRoot:  m.tenantAggregateRoot(),
		SubscriptionID:       m.SubscriptionID,
		Reason:               m.Reason,
		State:                m.State,
		Price:                m.Price,
		PlanID:               m.PlanID,
		StartDate:            m.StartDate,
		EndDate:              m.EndDate,
		TrialEndDate:         m.TrialEndDate,
		NextBillingDate:      m.NextBillingDate,
		AutoRenew:            m.AutoRenew,
		DunningLevel:         m.DunningLevel,
		ParentSubscriptionID: m.ParentSubscriptionID,
		SeatMemberID:         m.SeatMemberID,
		Notes:                m.Notes,
		Restored:             m.Restored,
		RestoredAt:           m.RestoredAt,
	}
}

// FromDomain populates the persistence model from a domain Backup entity.
func (m *BackupModel) FromDomain(b *subscription.Backup) {
	m.FromDomainTenantAggregateRoot(b.TenantAggregateRoot)
	m.SubscriptionID = b.SubscriptionID
	m.Reason = b.Reason
	m.State = b.State
	m.Price = b.Price
	m.PlanID = b.PlanID
	m.StartDate = b.StartDate
	m.EndDate = b.EndDate
	m.TrialEndDate = b.TrialEndDate
	m.NextBillingDate = b.NextBillingDate
	m.AutoRenew = b.AutoRenew
	m.DunningLevel = b.DunningLevel
	m.ParentSubscriptionID = b.ParentSubscriptionID
	m.SeatMemberID = b.SeatMemberID
	m.Notes = b.Notes
	m.Restored = b.Restored
	m.RestoredAt = b.RestoredAt
}

// BackupModelFromDomain creates a new persistence model from a domain Backup.
func BackupModelFromDomain(b *subscription.Backup) *BackupModel {
	m := &BackupModel{}
	m.FromDomain(b)
	return m
}
