package billing

import (
	"fmt"
	"time"

	"github.com/ams/backend/internal/domain/shared"
	"github.com/ams/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentState represents how far an invoice has been settled
type PaymentState string

const (
	PaymentStateNotPaid   PaymentState = "not_paid"
	PaymentStateInPayment PaymentState = "in_payment"
	PaymentStatePaid      PaymentState = "paid"
	PaymentStatePartial   PaymentState = "partial"
	PaymentStateReversed  PaymentState = "reversed"
	PaymentStateCancelled PaymentState = "cancelled"
)

// IsValid checks if the state is a valid PaymentState
func (s PaymentState) IsValid() bool {
	switch s {
	case PaymentStateNotPaid, PaymentStateInPayment, PaymentStatePaid,
		PaymentStatePartial, PaymentStateReversed, PaymentStateCancelled:
		return true
	}
	return false
}

// String returns the string representation of PaymentState
func (s PaymentState) String() string {
	return string(s)
}

// CanTransitionTo checks if the state can transition to the target state
func (s PaymentState) CanTransitionTo(target PaymentState) bool {
	switch s {
	case PaymentStateNotPaid:
		return target == PaymentStateInPayment || target == PaymentStatePaid ||
			target == PaymentStatePartial || target == PaymentStateCancelled
	case PaymentStateInPayment:
		return target == PaymentStatePaid || target == PaymentStatePartial || target == PaymentStateNotPaid
	case PaymentStatePartial:
		return target == PaymentStatePaid || target == PaymentStateReversed
	case PaymentStatePaid:
		return target == PaymentStateReversed
	case PaymentStateReversed, PaymentStateCancelled:
		return false // Terminal states
	}
	return false
}

// IsSettled returns true once no further payment is expected
func (s PaymentState) IsSettled() bool {
	return s == PaymentStatePaid || s == PaymentStateReversed || s == PaymentStateCancelled
}

// Invoice is the accounting record raised by a billing run
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber  string
	SubscriptionID uuid.UUID
	PartnerID      uuid.UUID
	Amount         decimal.Decimal
	Currency       valueobject.Currency
	IsRenewal      bool
	PaymentState   PaymentState
	IssuedDate     time.Time
	DueDate        time.Time
}

// NewInvoice creates an invoice for a subscription billing run
func NewInvoice(tenantID uuid.UUID, number string, subscriptionID, partnerID uuid.UUID, amount valueobject.Money, isRenewal bool, issuedDate, dueDate time.Time) (*Invoice, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Invoice number cannot be empty")
	}
	if subscriptionID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUBSCRIPTION", "Subscription ID cannot be empty")
	}
	if partnerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTNER", "Partner ID cannot be empty")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Invoice amount cannot be negative")
	}
	if dueDate.Before(issuedDate) {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be before the issue date")
	}

	return &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNumber:       number,
		SubscriptionID:      subscriptionID,
		PartnerID:           partnerID,
		Amount:              amount.Amount(),
		Currency:            amount.Currency(),
		IsRenewal:           isRenewal,
		PaymentState:        PaymentStateNotPaid,
		IssuedDate:          issuedDate,
		DueDate:             dueDate,
	}, nil
}

// MarkInPayment records that a payment attempt is in flight
func (i *Invoice) MarkInPayment() error {
	return i.transition(PaymentStateInPayment)
}

// MarkPaid settles the invoice in full
func (i *Invoice) MarkPaid() error {
	return i.transition(PaymentStatePaid)
}

// MarkPartial records a partial settlement
func (i *Invoice) MarkPartial() error {
	return i.transition(PaymentStatePartial)
}

// Reverse reverses a settled invoice (refund)
func (i *Invoice) Reverse() error {
	return i.transition(PaymentStateReversed)
}

// Cancel voids an unpaid invoice
func (i *Invoice) Cancel() error {
	return i.transition(PaymentStateCancelled)
}

// ReturnToNotPaid moves an in-flight payment back after a failure
func (i *Invoice) ReturnToNotPaid() error {
	return i.transition(PaymentStateNotPaid)
}

func (i *Invoice) transition(target PaymentState) error {
	if !i.PaymentState.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot move invoice from %s to %s", i.PaymentState, target))
	}
	i.PaymentState = target
	i.UpdatedAt = time.Now()
	return nil
}

// GetAmountMoney returns the invoice amount as Money
func (i *Invoice) GetAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(i.Amount, i.Currency)
	return m
}

// IsOverdue returns true if the invoice is unsettled past its due date
func (i *Invoice) IsOverdue(asOf time.Time) bool {
	return !i.PaymentState.IsSettled() && asOf.After(i.DueDate)
}
