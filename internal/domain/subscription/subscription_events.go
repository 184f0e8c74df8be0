package subscription

import (
	"time"

	"github.com/ams/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeSubscription = "Subscription"

// Event type constants
const (
	EventTypeSubscriptionCreated      = "SubscriptionCreated"
	EventTypeSubscriptionTrialStarted = "SubscriptionTrialStarted"
	EventTypeSubscriptionActivated    = "SubscriptionActivated"
	EventTypeSubscriptionSuspended    = "SubscriptionSuspended"
	EventTypeSubscriptionCancelled    = "SubscriptionCancelled"
	EventTypeSubscriptionExpired      = "SubscriptionExpired"
	EventTypeSubscriptionRenewalDue   = "SubscriptionRenewalDue"
)

// SubscriptionCreatedEvent is raised when a new subscription is created
type SubscriptionCreatedEvent struct {
	shared.BaseDomainEvent
	SubscriptionID     uuid.UUID       `json:"subscription_id"`
	SubscriptionNumber string          `json:"subscription_number"`
	PartnerID          uuid.UUID       `json:"partner_id"`
	PartnerName        string          `json:"partner_name"`
	PlanID             uuid.UUID       `json:"plan_id"`
	Price              decimal.Decimal `json:"price"`
	StartDate          time.Time       `json:"start_date"`
}

// NewSubscriptionCreatedEvent creates a new SubscriptionCreatedEvent
func NewSubscriptionCreatedEvent(sub *Subscription) *SubscriptionCreatedEvent {
	return &SubscriptionCreatedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeSubscriptionCreated, AggregateTypeSubscription, sub.ID, sub.TenantID),
		SubscriptionID:     sub.ID,
		SubscriptionNumber: sub.SubscriptionNumber,
		PartnerID:          sub.PartnerID,
		PartnerName:        sub.PartnerName,
		PlanID:             sub.PlanID,
		Price:              sub.Price,
		StartDate:          sub.StartDate,
	}
}

// EventType returns the event type name
func (e *SubscriptionCreatedEvent) EventType() string {
	return EventTypeSubscriptionCreated
}

// SubscriptionTrialStartedEvent is raised when a trial begins
type SubscriptionTrialStartedEvent struct {
	shared.BaseDomainEvent
	SubscriptionID     uuid.UUID  `json:"subscription_id"`
	SubscriptionNumber string     `json:"subscription_number"`
	PartnerID          uuid.UUID  `json:"partner_id"`
	TrialEndDate       *time.Time `json:"trial_end_date"`
}

// NewSubscriptionTrialStartedEvent creates a new SubscriptionTrialStartedEvent
func NewSubscriptionTrialStartedEvent(sub *Subscription) *SubscriptionTrialStartedEvent {
	return &SubscriptionTrialStartedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeSubscriptionTrialStarted, AggregateTypeSubscription, sub.ID, sub.TenantID),
		SubscriptionID:     sub.ID,
		SubscriptionNumber: sub.SubscriptionNumber,
		PartnerID:          sub.PartnerID,
		TrialEndDate:       sub.TrialEndDate,
	}
}

// EventType returns the event type name
func (e *SubscriptionTrialStartedEvent) EventType() string {
	return EventTypeSubscriptionTrialStarted
}

// SubscriptionActivatedEvent is raised when a subscription becomes active.
// It triggers the welcome communication.
type SubscriptionActivatedEvent struct {
	shared.BaseDomainEvent
	SubscriptionID     uuid.UUID       `json:"subscription_id"`
	SubscriptionNumber string          `json:"subscription_number"`
	PartnerID          uuid.UUID       `json:"partner_id"`
	PartnerName        string          `json:"partner_name"`
	NextBillingDate    *time.Time      `json:"next_billing_date,omitempty"`
	MRRAmount          decimal.Decimal `json:"mrr_amount"`
}

// NewSubscriptionActivatedEvent creates a new SubscriptionActivatedEvent
func NewSubscriptionActivatedEvent(sub *Subscription) *SubscriptionActivatedEvent {
	return &SubscriptionActivatedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeSubscriptionActivated, AggregateTypeSubscription, sub.ID, sub.TenantID),
		SubscriptionID:     sub.ID,
		SubscriptionNumber: sub.SubscriptionNumber,
		PartnerID:          sub.PartnerID,
		PartnerName:        sub.PartnerName,
		NextBillingDate:    sub.NextBillingDate,
		MRRAmount:          sub.MRRAmount,
	}
}

// EventType returns the event type name
func (e *SubscriptionActivatedEvent) EventType() string {
	return EventTypeSubscriptionActivated
}

// SubscriptionSuspendedEvent is raised when a subscription is suspended
type SubscriptionSuspendedEvent struct {
	shared.BaseDomainEvent
	SubscriptionID     uuid.UUID `json:"subscription_id"`
	SubscriptionNumber string    `json:"subscription_number"`
	PartnerID          uuid.UUID `json:"partner_id"`
	Reason             string    `json:"reason"`
}

// NewSubscriptionSuspendedEvent creates a new SubscriptionSuspendedEvent
func NewSubscriptionSuspendedEvent(sub *Subscription) *SubscriptionSuspendedEvent {
	return &SubscriptionSuspendedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeSubscriptionSuspended, AggregateTypeSubscription, sub.ID, sub.TenantID),
		SubscriptionID:     sub.ID,
		SubscriptionNumber: sub.SubscriptionNumber,
		PartnerID:          sub.PartnerID,
		Reason:             sub.SuspendReason,
	}
}

// EventType returns the event type name
func (e *SubscriptionSuspendedEvent) EventType() string {
	return EventTypeSubscriptionSuspended
}

// SubscriptionCancelledEvent is raised when a subscription is cancelled
type SubscriptionCancelledEvent struct {
	shared.BaseDomainEvent
	SubscriptionID     uuid.UUID `json:"subscription_id"`
	SubscriptionNumber string    `json:"subscription_number"`
	PartnerID          uuid.UUID `json:"partner_id"`
	Reason             string    `json:"reason"`
	WasSeat            bool      `json:"was_seat"`
}

// NewSubscriptionCancelledEvent creates a new SubscriptionCancelledEvent
func NewSubscriptionCancelledEvent(sub *Subscription) *SubscriptionCancelledEvent {
	return &SubscriptionCancelledEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeSubscriptionCancelled, AggregateTypeSubscription, sub.ID, sub.TenantID),
		SubscriptionID:     sub.ID,
		SubscriptionNumber: sub.SubscriptionNumber,
		PartnerID:          sub.PartnerID,
		Reason:             sub.CancelReason,
		WasSeat:            sub.IsSeat(),
	}
}

// EventType returns the event type name
func (e *SubscriptionCancelledEvent) EventType() string {
	return EventTypeSubscriptionCancelled
}

// SubscriptionExpiredEvent is raised when a subscription expires.
// It triggers the lapsed notice communication.
type SubscriptionExpiredEvent struct {
	shared.BaseDomainEvent
	SubscriptionID     uuid.UUID  `json:"subscription_id"`
	SubscriptionNumber string     `json:"subscription_number"`
	PartnerID          uuid.UUID  `json:"partner_id"`
	EndDate            *time.Time `json:"end_date,omitempty"`
}

// NewSubscriptionExpiredEvent creates a new SubscriptionExpiredEvent
func NewSubscriptionExpiredEvent(sub *Subscription) *SubscriptionExpiredEvent {
	return &SubscriptionExpiredEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeSubscriptionExpired, AggregateTypeSubscription, sub.ID, sub.TenantID),
		SubscriptionID:     sub.ID,
		SubscriptionNumber: sub.SubscriptionNumber,
		PartnerID:          sub.PartnerID,
		EndDate:            sub.EndDate,
	}
}

// EventType returns the event type name
func (e *SubscriptionExpiredEvent) EventType() string {
	return EventTypeSubscriptionExpired
}

// SubscriptionRenewalDueEvent is raised when a subscription enters
// pending_renewal
type SubscriptionRenewalDueEvent struct {
	shared.BaseDomainEvent
	SubscriptionID     uuid.UUID  `json:"subscription_id"`
	SubscriptionNumber string     `json:"subscription_number"`
	PartnerID          uuid.UUID  `json:"partner_id"`
	EndDate            *time.Time `json:"end_date,omitempty"`
	AutoRenew          bool       `json:"auto_renew"`
}

// NewSubscriptionRenewalDueEvent creates a new SubscriptionRenewalDueEvent
func NewSubscriptionRenewalDueEvent(sub *Subscription) *SubscriptionRenewalDueEvent {
	return &SubscriptionRenewalDueEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeSubscriptionRenewalDue, AggregateTypeSubscription, sub.ID, sub.TenantID),
		SubscriptionID:     sub.ID,
		SubscriptionNumber: sub.SubscriptionNumber,
		PartnerID:          sub.PartnerID,
		EndDate:            sub.EndDate,
		AutoRenew:          sub.AutoRenew,
	}
}

// EventType returns the event type name
func (e *SubscriptionRenewalDueEvent) EventType() string {
	return EventTypeSubscriptionRenewalDue
}
