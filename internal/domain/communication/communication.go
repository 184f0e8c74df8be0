package communication

import (
	"fmt"
	"time"

	"github.com/ams/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Type classifies the communication being sent
type Type string

const (
	TypeRenewalReminder  Type = "renewal_reminder"
	TypeLapsedNotice     Type = "lapsed_notice"
	TypeWelcome          Type = "welcome"
	TypePaymentFailed    Type = "payment_failed"
	TypeSuspensionNotice Type = "suspension_notice"
)

// IsValid checks if the type is a valid Type
func (t Type) IsValid() bool {
	switch t {
	case TypeRenewalReminder, TypeLapsedNotice, TypeWelcome,
		TypePaymentFailed, TypeSuspensionNotice:
		return true
	}
	return false
}

// String returns the string representation of Type
func (t Type) String() string {
	return string(t)
}

// State represents the delivery state of a communication
type State string

const (
	StateScheduled State = "scheduled"
	StateSent      State = "sent"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// IsValid checks if the state is a valid State
func (s State) IsValid() bool {
	switch s {
	case StateScheduled, StateSent, StateFailed, StateCancelled:
		return true
	}
	return false
}

// String returns the string representation of State
func (s State) String() string {
	return string(s)
}

// Communication is a scheduled member notification. Records are created in
// scheduled state; a cron delivers the due ones. The dedup key makes the
// generating crons idempotent: re-runs never duplicate a reminder.
type Communication struct {
	shared.TenantAggregateRoot
	PartnerID      uuid.UUID
	SubscriptionID uuid.UUID
	Type           Type
	Subject        string
	TemplateRef    string
	ScheduledDate  time.Time
	State          State
	DedupKey       string
	SentAt         *time.Time
	FailureReason  string
}

// DedupKey builds the idempotency key for a communication. The offset
// distinguishes the reminder ladder (30/15/7/1 days before expiry); types
// without an offset ladder pass 0.
func DedupKey(subscriptionID uuid.UUID, commType Type, offsetDays int) string {
	return fmt.Sprintf("%s:%s:%d", subscriptionID, commType, offsetDays)
}

// NewCommunication schedules a communication for a member
func NewCommunication(tenantID, partnerID, subscriptionID uuid.UUID, commType Type, subject, templateRef string, scheduledDate time.Time, offsetDays int) (*Communication, error) {
	if partnerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTNER", "Partner ID cannot be empty")
	}
	if subscriptionID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUBSCRIPTION", "Subscription ID cannot be empty")
	}
	if !commType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TYPE", "Unknown communication type")
	}
	if subject == "" {
		return nil, shared.NewDomainError("INVALID_SUBJECT", "Subject cannot be empty")
	}

	return &Communication{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PartnerID:           partnerID,
		SubscriptionID:      subscriptionID,
		Type:                commType,
		Subject:             subject,
		TemplateRef:         templateRef,
		ScheduledDate:       scheduledDate,
		State:               StateScheduled,
		DedupKey:            DedupKey(subscriptionID, commType, offsetDays),
	}, nil
}

// MarkSent records successful delivery
func (c *Communication) MarkSent() error {
	if c.State != StateScheduled && c.State != StateFailed {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot send communication in %s state", c.State))
	}
	now := time.Now()
	c.State = StateSent
	c.SentAt = &now
	c.FailureReason = ""
	c.UpdatedAt = now
	return nil
}

// MarkFailed records a delivery failure; failed communications may be retried
func (c *Communication) MarkFailed(reason string) error {
	if c.State != StateScheduled {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot fail communication in %s state", c.State))
	}
	c.State = StateFailed
	c.FailureReason = reason
	c.UpdatedAt = time.Now()
	return nil
}

// Cancel withdraws a scheduled communication
func (c *Communication) Cancel() error {
	if c.State != StateScheduled {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel communication in %s state", c.State))
	}
	c.State = StateCancelled
	c.UpdatedAt = time.Now()
	return nil
}

// IsDue returns true if the communication should be delivered
func (c *Communication) IsDue(asOf time.Time) bool {
	return c.State == StateScheduled && !c.ScheduledDate.After(asOf)
}
