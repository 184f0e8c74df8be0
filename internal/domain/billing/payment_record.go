package billing

import (
	"fmt"
	"time"

	"github.com/ams/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the outcome of a payment attempt
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSuccess   PaymentStatus = "success"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusNSF       PaymentStatus = "nsf"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusSuccess, PaymentStatusFailed,
		PaymentStatusNSF, PaymentStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// IsFailure returns true for outcomes that count against the partner
func (s PaymentStatus) IsFailure() bool {
	return s == PaymentStatusFailed || s == PaymentStatusNSF
}

// MaxPaymentRetries is the number of automatic retries before manual
// intervention is required
const MaxPaymentRetries = 3

// DefaultRetryBackoffDays maps the retry count to the days to wait before
// the next attempt
var DefaultRetryBackoffDays = map[int]int{0: 1, 1: 3, 2: 7}

// NextRetryDelayDays returns the backoff for the given retry count and
// whether an automatic retry is still allowed
func NextRetryDelayDays(retryCount int, backoff map[int]int) (int, bool) {
	if retryCount >= MaxPaymentRetries {
		return 0, false
	}
	if backoff == nil {
		backoff = DefaultRetryBackoffDays
	}
	days, ok := backoff[retryCount]
	if !ok {
		return 0, false
	}
	return days, true
}

// PaymentRecord tracks one payment attempt for an invoice and its retry
// bookkeeping
type PaymentRecord struct {
	shared.TenantAggregateRoot
	SubscriptionID uuid.UUID
	PartnerID      uuid.UUID
	InvoiceID      uuid.UUID
	Amount         decimal.Decimal
	Status         PaymentStatus
	FailureDate    *time.Time
	FailureReason  string
	RetryCount     int
	NextRetryDate  *time.Time
	SucceededAt    *time.Time
}

// NewPaymentRecord creates a pending payment record for an invoice
func NewPaymentRecord(tenantID, subscriptionID, partnerID, invoiceID uuid.UUID, amount decimal.Decimal) (*PaymentRecord, error) {
	if subscriptionID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUBSCRIPTION", "Subscription ID cannot be empty")
	}
	if partnerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTNER", "Partner ID cannot be empty")
	}
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount cannot be negative")
	}

	return &PaymentRecord{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SubscriptionID:      subscriptionID,
		PartnerID:           partnerID,
		InvoiceID:           invoiceID,
		Amount:              amount,
		Status:              PaymentStatusPending,
	}, nil
}

// MarkSuccess records a successful payment
func (p *PaymentRecord) MarkSuccess() error {
	if p.Status == PaymentStatusCancelled || p.Status == PaymentStatusSuccess {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark %s payment as success", p.Status))
	}

	now := time.Now()
	p.Status = PaymentStatusSuccess
	p.SucceededAt = &now
	p.NextRetryDate = nil
	p.UpdatedAt = now

	return nil
}

// MarkFailed records a failed attempt and schedules the next retry using
// the fixed backoff while attempts remain. The failure date sticks to the
// first failure.
func (p *PaymentRecord) MarkFailed(reason string, at time.Time, backoff map[int]int) error {
	if p.Status == PaymentStatusCancelled || p.Status == PaymentStatusSuccess {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark %s payment as failed", p.Status))
	}

	p.Status = PaymentStatusFailed
	p.FailureReason = reason
	if p.FailureDate == nil {
		p.FailureDate = &at
	}

	if days, ok := NextRetryDelayDays(p.RetryCount, backoff); ok {
		next := at.AddDate(0, 0, days)
		p.NextRetryDate = &next
	} else {
		p.NextRetryDate = nil
	}
	p.RetryCount++
	p.UpdatedAt = time.Now()

	return nil
}

// MarkNSF records a non-sufficient-funds failure. NSF is never retried
// automatically; it waits for manual action.
func (p *PaymentRecord) MarkNSF(reason string, at time.Time) error {
	if p.Status == PaymentStatusCancelled || p.Status == PaymentStatusSuccess {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark %s payment as nsf", p.Status))
	}

	p.Status = PaymentStatusNSF
	p.FailureReason = reason
	if p.FailureDate == nil {
		p.FailureDate = &at
	}
	p.NextRetryDate = nil
	p.UpdatedAt = time.Now()

	return nil
}

// Cancel voids the payment record and any scheduled retry
func (p *PaymentRecord) Cancel() error {
	if p.Status == PaymentStatusSuccess {
		return shared.NewDomainError("INVALID_STATE", "Cannot cancel a successful payment")
	}
	p.Status = PaymentStatusCancelled
	p.NextRetryDate = nil
	p.UpdatedAt = time.Now()
	return nil
}

// RetryExhausted returns true once automatic retries are used up
func (p *PaymentRecord) RetryExhausted() bool {
	return p.RetryCount >= MaxPaymentRetries
}

// IsRetryDue returns true if a retry is scheduled on or before the given date
func (p *PaymentRecord) IsRetryDue(asOf time.Time) bool {
	return p.Status == PaymentStatusFailed && p.NextRetryDate != nil && !p.NextRetryDate.After(asOf)
}
