package subscription

import (
	"time"

	"github.com/ams/backend/internal/domain/subscription"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateSubscriptionRequest represents a request to create a subscription
type CreateSubscriptionRequest struct {
	PartnerID   uuid.UUID  `json:"partner_id" binding:"required"`
	PartnerName string     `json:"partner_name" binding:"required,min=1,max=200"`
	PlanID      uuid.UUID  `json:"plan_id" binding:"required"`
	StartDate   *time.Time `json:"start_date"`
	StartTrial  bool       `json:"start_trial"`
	ActivateNow bool       `json:"activate_now"`
	Notes       string     `json:"notes"`
}

// SuspendRequest carries the reason for a suspension
type SuspendRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// CancelRequest carries the reason for a cancellation
type CancelRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// SetAutoRenewRequest toggles auto renewal
type SetAutoRenewRequest struct {
	AutoRenew bool `json:"auto_renew"`
}

// AllocateSeatRequest represents a request to allocate one seat
type AllocateSeatRequest struct {
	MemberID   uuid.UUID `json:"member_id" binding:"required"`
	MemberName string    `json:"member_name" binding:"required,min=1,max=200"`
}

// BatchAllocateSeatsRequest allocates several seats in one call
type BatchAllocateSeatsRequest struct {
	Seats []AllocateSeatRequest `json:"seats" binding:"required,min=1"`
}

// DeallocateSeatRequest chooses how the seat subscription is closed
type DeallocateSeatRequest struct {
	Policy string `json:"policy" binding:"required,oneof=cancel expire"`
	Reason string `json:"reason"`
}

// CreateRenewalRequest represents a request to create a renewal
type CreateRenewalRequest struct {
	Effective string `json:"effective" binding:"omitempty,oneof=immediate period_end"`
}

// SubscriptionListFilter represents filter options for subscription list
type SubscriptionListFilter struct {
	Search    string     `form:"search"`
	PartnerID *uuid.UUID `form:"partner_id"`
	State     *string    `form:"state"`
	Page      int        `form:"page" binding:"min=0"`
	PageSize  int        `form:"page_size" binding:"min=0,max=100"`
	OrderBy   string     `form:"order_by"`
	OrderDir  string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// SubscriptionResponse represents a subscription in API responses
type SubscriptionResponse struct {
	ID                   uuid.UUID       `json:"id"`
	TenantID             uuid.UUID       `json:"tenant_id"`
	SubscriptionNumber   string          `json:"subscription_number"`
	PartnerID            uuid.UUID       `json:"partner_id"`
	PartnerName          string          `json:"partner_name"`
	PlanID               uuid.UUID       `json:"plan_id"`
	PlanName             string          `json:"plan_name"`
	Price                decimal.Decimal `json:"price"`
	Currency             string          `json:"currency"`
	BillingPeriod        string          `json:"billing_period"`
	BillingType          string          `json:"billing_type"`
	BillingInterval      int             `json:"billing_interval"`
	IsLifetime           bool            `json:"is_lifetime"`
	State                string          `json:"state"`
	StartDate            time.Time       `json:"start_date"`
	EndDate              *time.Time      `json:"end_date,omitempty"`
	TrialEndDate         *time.Time      `json:"trial_end_date,omitempty"`
	NextBillingDate      *time.Time      `json:"next_billing_date,omitempty"`
	AutoRenew            bool            `json:"auto_renew"`
	DunningLevel         int             `json:"dunning_level"`
	PaymentIssues        bool            `json:"payment_issues"`
	LastPaymentFailure   *time.Time      `json:"last_payment_failure,omitempty"`
	ParentSubscriptionID *uuid.UUID      `json:"parent_subscription_id,omitempty"`
	SeatMemberID         *uuid.UUID      `json:"seat_member_id,omitempty"`
	MRRAmount            decimal.Decimal `json:"mrr_amount"`
	ARRAmount            decimal.Decimal `json:"arr_amount"`
	SuspendReason        string          `json:"suspend_reason,omitempty"`
	CancelReason         string          `json:"cancel_reason,omitempty"`
	Notes                string          `json:"notes,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// ToSubscriptionResponse converts a domain subscription to a response DTO
func ToSubscriptionResponse(sub *subscription.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:                   sub.ID,
		TenantID:             sub.TenantID,
		SubscriptionNumber:   sub.SubscriptionNumber,
		PartnerID:            sub.PartnerID,
		PartnerName:          sub.PartnerName,
		PlanID:               sub.PlanID,
		PlanName:             sub.PlanName,
		Price:                sub.Price,
		Currency:             string(sub.Currency),
		BillingPeriod:        sub.BillingPeriod.String(),
		BillingType:          sub.BillingType.String(),
		BillingInterval:      sub.BillingInterval,
		IsLifetime:           sub.IsLifetime,
		State:                sub.State.String(),
		StartDate:            sub.StartDate,
		EndDate:              sub.EndDate,
		TrialEndDate:         sub.TrialEndDate,
		NextBillingDate:      sub.NextBillingDate,
		AutoRenew:            sub.AutoRenew,
		DunningLevel:         sub.DunningLevel,
		PaymentIssues:        sub.PaymentIssues,
		LastPaymentFailure:   sub.LastPaymentFailure,
		ParentSubscriptionID: sub.ParentSubscriptionID,
		SeatMemberID:         sub.SeatMemberID,
		MRRAmount:            sub.MRRAmount,
		ARRAmount:            sub.ARRAmount,
		SuspendReason:        sub.SuspendReason,
		CancelReason:         sub.CancelReason,
		Notes:                sub.Notes,
		CreatedAt:            sub.CreatedAt,
		UpdatedAt:            sub.UpdatedAt,
	}
}

// ToSubscriptionResponses converts a slice of domain subscriptions
func ToSubscriptionResponses(subs []subscription.Subscription) []SubscriptionResponse {
	responses := make([]SubscriptionResponse, len(subs))
	for i := range subs {
		responses[i] = ToSubscriptionResponse(&subs[i])
	}
	return responses
}

// RenewalResponse represents a renewal in API responses
type RenewalResponse struct {
	ID             uuid.UUID       `json:"id"`
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	RenewalDate    time.Time       `json:"renewal_date"`
	NewEndDate     time.Time       `json:"new_end_date"`
	Amount         decimal.Decimal `json:"amount"`
	State          string          `json:"state"`
	ConfirmedAt    *time.Time      `json:"confirmed_at,omitempty"`
	CancelledAt    *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ToRenewalResponse converts a domain renewal to a response DTO
func ToRenewalResponse(r *subscription.Renewal) RenewalResponse {
	return RenewalResponse{
		ID:             r.ID,
		SubscriptionID: r.SubscriptionID,
		RenewalDate:    r.RenewalDate,
		NewEndDate:     r.NewEndDate,
		Amount:         r.Amount,
		State:          r.State.String(),
		ConfirmedAt:    r.ConfirmedAt,
		CancelledAt:    r.CancelledAt,
		CreatedAt:      r.CreatedAt,
	}
}

// BackupResponse represents a subscription backup in API responses
type BackupResponse struct {
	ID             uuid.UUID  `json:"id"`
	SubscriptionID uuid.UUID  `json:"subscription_id"`
	Reason         string     `json:"reason"`
	State          string     `json:"state"`
	Restored       bool       `json:"restored"`
	RestoredAt     *time.Time `json:"restored_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ToBackupResponse converts a domain backup to a response DTO
func ToBackupResponse(b *subscription.Backup) BackupResponse {
	return BackupResponse{
		ID:             b.ID,
		SubscriptionID: b.SubscriptionID,
		Reason:         b.Reason,
		State:          b.State.String(),
		Restored:       b.Restored,
		RestoredAt:     b.RestoredAt,
		CreatedAt:      b.CreatedAt,
	}
}

// ProrationResponse is the refund preview for early cancellation
type ProrationResponse struct {
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	DaysRemaining  int             `json:"days_remaining"`
	DailyRate      decimal.Decimal `json:"daily_rate"`
	RefundAmount   decimal.Decimal `json:"refund_amount"`
}

// BatchItemResult is the outcome for one item in a batch operation
type BatchItemResult struct {
	Key    string `json:"key"`
	Reason string `json:"reason,omitempty"`
}

// BatchResult isolates per-item outcomes in batch operations
type BatchResult struct {
	Succeeded []BatchItemResult `json:"succeeded"`
	Failed    []BatchItemResult `json:"failed"`
	Skipped   []BatchItemResult `json:"skipped"`
}
