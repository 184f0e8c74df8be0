package models

import (
	"time"

	"github.com/ams/backend/internal/domain/communication"
	"github.com/google/uuid"
)

// CommunicationModel is the persistence model for the Communication aggregate root.
type CommunicationModel struct {
	TenantAggregateModel
	PartnerID      uuid.UUID           `gorm:"type:uuid;not null;index"`
	SubscriptionID uuid.UUID           `gorm:"type:uuid;not null;index"`
	Type           communication.Type  `gorm:"type:varchar(30);not null;index"`
	Subject        string              `gorm:"type:varchar(500);not null"`
	TemplateRef    string              `gorm:"type:varchar(100);not null"`
	ScheduledDate  time.Time           `gorm:"not null;index"`
	State          communication.State `gorm:"type:varchar(20);not null;default:'scheduled';index"`
	DedupKey       string              `gorm:"type:varchar(150);not null;uniqueIndex:idx_communication_tenant_dedup,priority:2"`
	SentAt         *time.Time
	FailureReason  string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (CommunicationModel) TableName() string {
	return "communications"
}

// ToDomain converts the persistence model to a domain Communication entity.
func (m *CommunicationModel) ToDomain() *communication.Communication {
	return &communication.Communication{
		TenantAggregateRoot: m.tenantAggregateRoot(),
		PartnerID:           m.PartnerID,
		SubscriptionID:      m.SubscriptionID,
		Type:                m.Type,
		Subject:             m.Subject,
		TemplateRef:         m.TemplateRef,
		ScheduledDate:       m.ScheduledDate,
		State:               m.State,
		DedupKey:            m.DedupKey,
		SentAt:              m.SentAt,
		FailureReason:       m.FailureReason,
	}
}

// FromDomain populates the persistence model from a domain Communication entity.
func (m *CommunicationModel) FromDomain(c *communication.Communication) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.PartnerID = c.PartnerID
	m.SubscriptionID = c.SubscriptionID
	m.Type = c.Type
	m.Subject = c.Subject
	m.TemplateRef = c.TemplateRef
	m.ScheduledDate = c.ScheduledDate
	m.State = c.State
	m.DedupKey = c.DedupKey
	m.SentAt = c.SentAt
	m.FailureReason = c.FailureReason
}

// CommunicationModelFromDomain creates a new persistence model from a domain Communication.
func CommunicationModelFromDomain(c *communication.Communication) *CommunicationModel {
	m := &CommunicationModel{}
	m.FromDomain(c)
	return m
}
