package subscription

import (
	"fmt"
	"time"

	"github.com/ams/backend/internal/domain/catalog"
	"github.com/ams/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RenewalState represents the state of a renewal
type RenewalState string

const (
	RenewalStateDraft     RenewalState = "draft"
	RenewalStatePending   RenewalState = "pending"
	RenewalStateConfirmed RenewalState = "confirmed"
	RenewalStateCancelled RenewalState = "cancelled"
)

// IsValid checks if the state is a valid RenewalState
func (s RenewalState) IsValid() bool {
	switch s {
	case RenewalStateDraft, RenewalStatePending, RenewalStateConfirmed, RenewalStateCancelled:
		return true
	}
	return false
}

// String returns the string representation of RenewalState
func (s RenewalState) String() string {
	return string(s)
}

// CanTransitionTo checks if the state can transition to the target state
func (s RenewalState) CanTransitionTo(target RenewalState) bool {
	switch s {
	case RenewalStateDraft:
		return target == RenewalStatePending || target == RenewalStateCancelled
	case RenewalStatePending:
		return target == RenewalStateConfirmed || target == RenewalStateCancelled
	case RenewalStateConfirmed, RenewalStateCancelled:
		return false // Terminal states
	}
	return false
}

// Renewal represents a pending term extension for a subscription
type Renewal struct {
	shared.TenantAggregateRoot
	SubscriptionID uuid.UUID
	RenewalDate    time.Time
	NewEndDate     time.Time
	Amount         decimal.Decimal
	State          RenewalState
	ConfirmedAt    *time.Time
	CancelledAt    *time.Time
}

// NewRenewal creates a renewal for a subscription. The new end date is one
// billing cycle past the renewal date, per the captured plan terms.
func NewRenewal(sub *Subscription, renewalDate time.Time, amount decimal.Decimal) (*Renewal, error) {
	if sub == nil {
		return nil, shared.NewDomainError("INVALID_SUBSCRIPTION", "Subscription is required")
	}
	if sub.IsLifetime {
		return nil, shared.NewDomainError("INVALID_STATE", "Lifetime subscriptions never renew")
	}
	if sub.State != StateActive && sub.State != StatePendingRenewal {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot renew subscription in %s state", sub.State))
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Renewal amount cannot be negative")
	}

	next := catalog.NextBillingDate(sub.BillingPeriod, sub.BillingType, sub.BillingInterval, renewalDate)
	if next == nil {
		return nil, shared.NewDomainError("INVALID_STATE", "Subscription terms do not produce a renewal date")
	}

	return &Renewal{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(sub.TenantID),
		SubscriptionID:      sub.ID,
		RenewalDate:         renewalDate,
		NewEndDate:          *next,
		Amount:              amount,
		State:               RenewalStateDraft,
	}, nil
}

// MarkPending moves a draft renewal to pending payment
func (r *Renewal) MarkPending() error {
	if !r.State.CanTransitionTo(RenewalStatePending) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark renewal pending in %s state", r.State))
	}
	r.State = RenewalStatePending
	r.UpdatedAt = time.Now()
	return nil
}

// Confirm marks the renewal confirmed. The caller applies the new end date
// to the subscription via ConfirmRenewal.
func (r *Renewal) Confirm() error {
	if !r.State.CanTransitionTo(RenewalStateConfirmed) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot confirm renewal in %s state", r.State))
	}
	now := time.Now()
	r.State = RenewalStateConfirmed
	r.ConfirmedAt = &now
	r.UpdatedAt = now
	return nil
}

// Cancel cancels the renewal before payment
func (r *Renewal) Cancel() error {
	if !r.State.CanTransitionTo(RenewalStateCancelled) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel renewal in %s state", r.State))
	}
	now := time.Now()
	r.State = RenewalStateCancelled
	r.CancelledAt = &now
	r.UpdatedAt = now
	return nil
}

// ProrationPeriodDays is the fixed proration denominator per cadence.
// Semi-annual terms are monthly plans with interval 6.
func ProrationPeriodDays(period catalog.BillingPeriod, interval int) int {
	return catalog.PeriodDays(period, interval)
}

// DailyRate returns the proration daily rate: list price over the nominal
// period length. A zero-length period (lifetime) yields a zero rate.
func DailyRate(listPrice decimal.Decimal, period catalog.BillingPeriod, interval int) decimal.Decimal {
	days := ProrationPeriodDays(period, interval)
	if days <= 0 {
		return decimal.Zero
	}
	return listPrice.Div(decimal.NewFromInt(int64(days)))
}

// ProratedRefund computes the refund for early cancellation: the daily rate
// times the whole days remaining in the paid period. Past-due terms refund
// nothing.
func ProratedRefund(listPrice decimal.Decimal, period catalog.BillingPeriod, interval int, daysRemaining int) decimal.Decimal {
	if daysRemaining <= 0 {
		return decimal.Zero
	}
	return DailyRate(listPrice, period, interval).Mul(decimal.NewFromInt(int64(daysRemaining))).Round(2)
}
