package catalog

import (
	"github.com/ams/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypePlan = "Plan"

// Event type constants
const (
	EventTypePlanCreated      = "PlanCreated"
	EventTypePlanPriceChanged = "PlanPriceChanged"
	EventTypePlanActivated    = "PlanActivated"
	EventTypePlanDeactivated  = "PlanDeactivated"
)

// PlanCreatedEvent is raised when a new plan is created
type PlanCreatedEvent struct {
	shared.BaseDomainEvent
	PlanID        uuid.UUID       `json:"plan_id"`
	Name          string          `json:"name"`
	Code          string          `json:"code"`
	Price         decimal.Decimal `json:"price"`
	BillingPeriod BillingPeriod   `json:"billing_period"`
	BillingType   BillingType     `json:"billing_type"`
}

// NewPlanCreatedEvent creates a new PlanCreatedEvent
func NewPlanCreatedEvent(plan *Plan) *PlanCreatedEvent {
	return &PlanCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePlanCreated, AggregateTypePlan, plan.ID, plan.TenantID),
		PlanID:          plan.ID,
		Name:            plan.Name,
		Code:            plan.Code,
		Price:           plan.Price,
		BillingPeriod:   plan.BillingPeriod,
		BillingType:     plan.BillingType,
	}
}

// EventType returns the event type name
func (e *PlanCreatedEvent) EventType() string {
	return EventTypePlanCreated
}

// PlanPriceChangedEvent is raised when a plan list price changes.
// Existing subscriptions keep their captured price.
type PlanPriceChangedEvent struct {
	shared.BaseDomainEvent
	PlanID   uuid.UUID       `json:"plan_id"`
	Code     string          `json:"code"`
	OldPrice decimal.Decimal `json:"old_price"`
	NewPrice decimal.Decimal `json:"new_price"`
}

// NewPlanPriceChangedEvent creates a new PlanPriceChangedEvent
func NewPlanPriceChangedEvent(plan *Plan, oldPrice decimal.Decimal) *PlanPriceChangedEvent {
	return &PlanPriceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePlanPriceChanged, AggregateTypePlan, plan.ID, plan.TenantID),
		PlanID:          plan.ID,
		Code:            plan.Code,
		OldPrice:        oldPrice,
		NewPrice:        plan.Price,
	}
}

// EventType returns the event type name
func (e *PlanPriceChangedEvent) EventType() string {
	return EventTypePlanPriceChanged
}

// PlanActivatedEvent is raised when a plan becomes available
type PlanActivatedEvent struct {
	shared.BaseDomainEvent
	PlanID uuid.UUID `json:"plan_id"`
	Code   string    `json:"code"`
}

// NewPlanActivatedEvent creates a new PlanActivatedEvent
func NewPlanActivatedEvent(plan *Plan) *PlanActivatedEvent {
	return &PlanActivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePlanActivated, AggregateTypePlan, plan.ID, plan.TenantID),
		PlanID:          plan.ID,
		Code:            plan.Code,
	}
}

// EventType returns the event type name
func (e *PlanActivatedEvent) EventType() string {
	return EventTypePlanActivated
}

// PlanDeactivatedEvent is raised when a plan is withdrawn from sale
type PlanDeactivatedEvent struct {
	shared.BaseDomainEvent
	PlanID uuid.UUID `json:"plan_id"`
	Code   string    `json:"code"`
}

// NewPlanDeactivatedEvent creates a new PlanDeactivatedEvent
func NewPlanDeactivatedEvent(plan *Plan) *PlanDeactivatedEvent {
	return &PlanDeactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePlanDeactivated, AggregateTypePlan, plan.ID, plan.TenantID),
		PlanID:          plan.ID,
		Code:            plan.Code,
	}
}

// EventType returns the event type name
func (e *PlanDeactivatedEvent) EventType() string {
	return EventTypePlanDeactivated
}
