package subscription

import (
	"fmt"
	"time"

	"github.com/ams/backend/internal/domain/catalog"
	"github.com/ams/backend/internal/domain/shared"
	"github.com/ams/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// State represents the lifecycle state of a subscription
type State string

const (
	StateDraft          State = "draft"
	StateTrial          State = "trial"
	StateActive         State = "active"
	StatePendingRenewal State = "pending_renewal"
	StateSuspended      State = "suspended"
	StateExpired        State = "expired"
	StateCancelled      State = "cancelled"
)

// MaxDunningLevel is the highest dunning escalation level
const MaxDunningLevel = 4

// AtRiskDunningLevel is the level at which a subscription counts as at risk
const AtRiskDunningLevel = 2

// IsValid checks if the state is a valid State
func (s State) IsValid() bool {
	switch s {
	case StateDraft, StateTrial, StateActive, StatePendingRenewal,
		StateSuspended, StateExpired, StateCancelled:
		return true
	}
	return false
}

// String returns the string representation of State
func (s State) String() string {
	return string(s)
}

// CanTransitionTo checks if the state can transition to the target state
func (s State) CanTransitionTo(target State) bool {
	switch s {
	case StateDraft:
		return target == StateTrial || target == StateActive
	case StateTrial:
		return target == StateActive || target == StateExpired
	case StateActive:
		return target == StatePendingRenewal || target == StateSuspended || target == StateCancelled
	case StatePendingRenewal:
		return target == StateActive || target == StateExpired || target == StateSuspended
	case StateSuspended:
		return target == StateActive || target == StateCancelled || target == StateExpired
	case StateExpired:
		return target == StateCancelled
	case StateCancelled:
		return false // Terminal state
	}
	return false
}

// IsBillable returns true if the state contributes to recurring revenue
func (s State) IsBillable() bool {
	return s == StateActive || s == StatePendingRenewal
}

// Subscription represents a membership subscription aggregate root.
// Billing terms are captured from the plan at creation so later plan
// changes never affect running subscriptions.
type Subscription struct {
	shared.TenantAggregateRoot
	SubscriptionNumber string
	PartnerID          uuid.UUID
	PartnerName        string
	PlanID             uuid.UUID
	PlanName           string

	// Captured plan terms
	Price           decimal.Decimal
	Currency        valueobject.Currency
	BillingPeriod   catalog.BillingPeriod
	BillingType     catalog.BillingType
	BillingInterval int
	IsLifetime      bool
	TrialPeriodDays int
	GracePeriodDays int

	State           State
	StartDate       time.Time
	EndDate         *time.Time
	TrialEndDate    *time.Time
	NextBillingDate *time.Time
	AutoRenew       bool

	DunningLevel       int
	PaymentIssues      bool
	LastPaymentFailure *time.Time

	// Seat linkage: set on child subscriptions created by seat allocation
	ParentSubscriptionID *uuid.UUID
	SeatMemberID         *uuid.UUID

	MRRAmount decimal.Decimal
	ARRAmount decimal.Decimal

	SuspendReason string
	SuspendedAt   *time.Time
	CancelReason  string
	CancelledAt   *time.Time
	ActivatedAt   *time.Time
	ExpiredAt     *time.Time
	Notes         string
}

// NewSubscription creates a new subscription in draft state, capturing the
// plan's billing terms
func NewSubscription(tenantID uuid.UUID, number string, partnerID uuid.UUID, partnerName string, plan *catalog.Plan, startDate time.Time) (*Subscription, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Subscription number cannot be empty")
	}
	if partnerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTNER", "Partner ID cannot be empty")
	}
	if partnerName == "" {
		return nil, shared.NewDomainError("INVALID_PARTNER_NAME", "Partner name cannot be empty")
	}
	if plan == nil {
		return nil, shared.NewDomainError("INVALID_PLAN", "Plan is required")
	}
	if !plan.Active {
		return nil, shared.NewDomainError("PLAN_INACTIVE", "Cannot subscribe to an inactive plan")
	}
	if plan.TenantID != tenantID {
		return nil, shared.NewDomainError("INVALID_PLAN", "Plan belongs to a different tenant")
	}

	sub := &Subscription{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SubscriptionNumber:  number,
		PartnerID:           partnerID,
		PartnerName:         partnerName,
		PlanID:              plan.ID,
		PlanName:            plan.Name,
		Price:               plan.Price,
		Currency:            plan.Currency,
		BillingPeriod:       plan.BillingPeriod,
		BillingType:         plan.BillingType,
		BillingInterval:     plan.BillingInterval,
		IsLifetime:          plan.IsLifetime(),
		TrialPeriodDays:     plan.TrialPeriodDays,
		GracePeriodDays:     plan.GracePeriodDays,
		State:               StateDraft,
		StartDate:           startDate,
		AutoRenew:           plan.AutoRenew,
		MRRAmount:           decimal.Zero,
		ARRAmount:           decimal.Zero,
	}

	// Lifetime terms never renew and never bill again
	if sub.IsLifetime {
		sub.AutoRenew = false
	}

	sub.AddDomainEvent(NewSubscriptionCreatedEvent(sub))

	return sub, nil
}

// StartTrial moves a draft subscription into trial.
// The plan must grant a trial period.
func (s *Subscription) StartTrial() error {
	if !s.State.CanTransitionTo(StateTrial) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot start trial from %s state", s.State))
	}
	if s.TrialPeriodDays <= 0 {
		return shared.NewDomainError("NO_TRIAL", "Plan does not grant a trial period")
	}

	now := time.Now()
	trialEnd := s.StartDate.AddDate(0, 0, s.TrialPeriodDays)
	s.State = StateTrial
	s.TrialEndDate = &trialEnd
	s.EndDate = &trialEnd
	s.recomputeRevenue()
	s.UpdatedAt = now

	s.AddDomainEvent(NewSubscriptionTrialStartedEvent(s))

	return nil
}

// Activate transitions the subscription to active. Allowed from draft,
// trial, pending_renewal and suspended. Computes the next billing date from
// the captured plan terms; lifetime subscriptions never get one.
func (s *Subscription) Activate(asOf time.Time) error {
	if !s.State.CanTransitionTo(StateActive) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot activate subscription in %s state", s.State))
	}

	now := time.Now()
	s.State = StateActive
	s.ActivatedAt = &now
	s.SuspendReason = ""
	s.SuspendedAt = nil

	if s.IsLifetime {
		s.NextBillingDate = nil
		s.EndDate = nil
	} else {
		next := catalog.NextBillingDate(s.BillingPeriod, s.BillingType, s.BillingInterval, asOf)
		s.NextBillingDate = next
		s.EndDate = next
	}

	s.recomputeRevenue()
	s.UpdatedAt = now

	s.AddDomainEvent(NewSubscriptionActivatedEvent(s))

	return nil
}

// MarkPendingRenewal flags an active subscription whose term is ending
func (s *Subscription) MarkPendingRenewal() error {
	if !s.State.CanTransitionTo(StatePendingRenewal) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark renewal due in %s state", s.State))
	}

	s.State = StatePendingRenewal
	s.recomputeRevenue()
	s.UpdatedAt = time.Now()

	s.AddDomainEvent(NewSubscriptionRenewalDueEvent(s))

	return nil
}

// Suspend suspends the subscription, recording the reason
func (s *Subscription) Suspend(reason string) error {
	if !s.State.CanTransitionTo(StateSuspended) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot suspend subscription in %s state", s.State))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Suspend reason is required")
	}

	now := time.Now()
	s.State = StateSuspended
	s.SuspendReason = reason
	s.SuspendedAt = &now
	s.recomputeRevenue()
	s.UpdatedAt = now

	s.AddDomainEvent(NewSubscriptionSuspendedEvent(s))

	return nil
}

// Cancel cancels the subscription. Cancelled is terminal: no further
// mutation is allowed except backup restore.
func (s *Subscription) Cancel(reason string) error {
	if !s.State.CanTransitionTo(StateCancelled) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel subscription in %s state", s.State))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	s.State = StateCancelled
	s.CancelReason = reason
	s.CancelledAt = &now
	s.AutoRenew = false
	s.NextBillingDate = nil
	s.recomputeRevenue()
	s.UpdatedAt = now

	s.AddDomainEvent(NewSubscriptionCancelledEvent(s))

	return nil
}

// Expire marks the subscription expired, normally cron-driven after the
// grace and terminate windows have passed
func (s *Subscription) Expire() error {
	if !s.State.CanTransitionTo(StateExpired) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot expire subscription in %s state", s.State))
	}

	now := time.Now()
	s.State = StateExpired
	s.ExpiredAt = &now
	s.NextBillingDate = nil
	s.recomputeRevenue()
	s.UpdatedAt = now

	s.AddDomainEvent(NewSubscriptionExpiredEvent(s))

	return nil
}

// RevertToActive is the compensating transition used when a renewal is
// cancelled before payment: the subscription returns to active without
// touching its dates.
func (s *Subscription) RevertToActive() error {
	if s.State != StatePendingRenewal {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Can only revert to active from pending_renewal, not %s", s.State))
	}

	s.State = StateActive
	s.recomputeRevenue()
	s.UpdatedAt = time.Now()

	return nil
}

// ConfirmRenewal applies a confirmed renewal: extends the term, resets
// dunning and clears payment issue flags.
func (s *Subscription) ConfirmRenewal(newEndDate time.Time) error {
	if s.State != StateActive && s.State != StatePendingRenewal {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot confirm renewal in %s state", s.State))
	}
	if s.IsLifetime {
		return shared.NewDomainError("INVALID_STATE", "Lifetime subscriptions never renew")
	}

	now := time.Now()
	if s.State == StatePendingRenewal {
		s.State = StateActive
	}
	s.EndDate = &newEndDate
	s.NextBillingDate = &newEndDate
	s.DunningLevel = 0
	s.PaymentIssues = false
	s.recomputeRevenue()
	s.UpdatedAt = now

	return nil
}

// AdvanceBillingDate moves the next billing date forward one cycle after a
// successful billing run
func (s *Subscription) AdvanceBillingDate() error {
	if s.IsLifetime || s.NextBillingDate == nil {
		return shared.NewDomainError("INVALID_STATE", "Subscription has no billing date to advance")
	}

	next := catalog.NextBillingDate(s.BillingPeriod, s.BillingType, s.BillingInterval, *s.NextBillingDate)
	s.NextBillingDate = next
	s.EndDate = next
	s.UpdatedAt = time.Now()

	return nil
}

// RecordPaymentFailure flags the subscription after a failed payment.
// It never suspends by itself; suspension is a separate dunning decision.
func (s *Subscription) RecordPaymentFailure(at time.Time) {
	s.PaymentIssues = true
	s.LastPaymentFailure = &at
	s.UpdatedAt = time.Now()
}

// EscalateDunning raises the dunning level by one, capped at MaxDunningLevel.
// The level only ever moves up; a successful payment resets it.
func (s *Subscription) EscalateDunning() {
	if s.DunningLevel < MaxDunningLevel {
		s.DunningLevel++
		s.UpdatedAt = time.Now()
	}
}

// ClearPaymentIssues clears the payment issue flag after a success.
// Callers must verify there are no other recent failures before also
// resetting dunning.
func (s *Subscription) ClearPaymentIssues() {
	s.PaymentIssues = false
	s.LastPaymentFailure = nil
	s.UpdatedAt = time.Now()
}

// ResetDunning resets the dunning level to zero
func (s *Subscription) ResetDunning() {
	s.DunningLevel = 0
	s.UpdatedAt = time.Now()
}

// SetAutoRenew toggles auto renewal. Lifetime subscriptions never renew.
func (s *Subscription) SetAutoRenew(enabled bool) error {
	if enabled && s.IsLifetime {
		return shared.NewDomainError("INVALID_STATE", "Lifetime subscriptions cannot auto-renew")
	}
	s.AutoRenew = enabled
	s.UpdatedAt = time.Now()
	return nil
}

// SetNotes sets free-form notes
func (s *Subscription) SetNotes(notes string) {
	s.Notes = notes
	s.UpdatedAt = time.Now()
}

// LinkSeat marks this subscription as a seat under a parent subscription.
// Seats carry no price of their own; the parent bills the seat-adjusted
// amount.
func (s *Subscription) LinkSeat(parentID, seatMemberID uuid.UUID) error {
	if parentID == uuid.Nil || seatMemberID == uuid.Nil {
		return shared.NewDomainError("INVALID_INPUT", "Parent and seat member IDs are required")
	}
	if s.ParentSubscriptionID != nil {
		return shared.NewDomainError("INVALID_STATE", "Subscription is already a seat")
	}
	s.ParentSubscriptionID = &parentID
	s.SeatMemberID = &seatMemberID
	s.Price = decimal.Zero
	s.recomputeRevenue()
	s.UpdatedAt = time.Now()
	return nil
}

// IsSeat returns true if this subscription is a seat under a parent
func (s *Subscription) IsSeat() bool {
	return s.ParentSubscriptionID != nil
}

// IsAtRisk returns true if dunning has escalated far enough to count the
// subscription as at risk
func (s *Subscription) IsAtRisk() bool {
	return s.DunningLevel >= AtRiskDunningLevel
}

// IsTerminal returns true if no further lifecycle transitions are possible
func (s *Subscription) IsTerminal() bool {
	return s.State == StateCancelled
}

// IsBillable returns true if the subscription contributes to MRR
func (s *Subscription) IsBillable() bool {
	return s.State.IsBillable()
}

// GetPriceMoney returns the captured price as Money
func (s *Subscription) GetPriceMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(s.Price, s.Currency)
	return m
}

// GetMRRMoney returns the monthly recurring revenue as Money
func (s *Subscription) GetMRRMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(s.MRRAmount, s.Currency)
	return m
}

// recomputeRevenue normalizes the captured price to a monthly figure.
// Lifetime terms and non-billable states contribute nothing.
func (s *Subscription) recomputeRevenue() {
	s.MRRAmount = s.computeMRR()
	s.ARRAmount = s.MRRAmount.Mul(decimal.NewFromInt(12))
}

func (s *Subscription) computeMRR() decimal.Decimal {
	if s.IsLifetime || !s.State.IsBillable() {
		return decimal.Zero
	}

	interval := decimal.NewFromInt(int64(s.BillingInterval))
	twelve := decimal.NewFromInt(12)

	switch s.BillingPeriod {
	case catalog.BillingPeriodMonthly:
		return s.Price.Div(interval)
	case catalog.BillingPeriodYearly:
		return s.Price.Div(twelve.Mul(interval))
	case catalog.BillingPeriodQuarterly:
		return s.Price.Div(decimal.NewFromInt(3).Mul(interval))
	case catalog.BillingPeriodWeekly:
		return s.Price.Mul(decimal.NewFromInt(52)).Div(twelve.Mul(interval))
	case catalog.BillingPeriodDaily:
		return s.Price.Mul(decimal.NewFromInt(365)).Div(twelve.Mul(interval))
	}
	return decimal.Zero
}
