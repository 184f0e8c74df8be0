package subscription

import (
	"time"

	"github.com/ams/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Backup is a point-in-time snapshot of a subscription's mutable fields,
// taken before destructive changes such as transfers or upgrades. Once a
// backup has been restored it becomes immutable and cannot be restored
// again.
type Backup struct {
	shared.TenantAggregateRoot
	SubscriptionID       uuid.UUID
	Reason               string
	State                State
	Price                decimal.Decimal
	PlanID               uuid.UUID
	StartDate            time.Time
	EndDate              *time.Time
	TrialEndDate         *time.Time
	NextBillingDate      *time.Time
	AutoRenew            bool
	DunningLevel         int
	ParentSubscriptionID *uuid.UUID
	SeatMemberID         *uuid.UUID
	Notes                string
	Restored             bool
	RestoredAt           *time.Time
}

// NewBackup snapshots the subscription's mutable fields
func NewBackup(sub *Subscription, reason string) (*Backup, error) {
	if sub == nil {
		return nil, shared.NewDomainError("INVALID_SUBSCRIPTION", "Subscription is required")
	}
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Backup reason is required")
	}

	return &Backup{
		TenantAggregateRoot:  shared.NewTenantAggregateRoot(sub.TenantID),
		SubscriptionID:       sub.ID,
		Reason:               reason,
		State:                sub.State,
		Price:                sub.Price,
		PlanID:               sub.PlanID,
		StartDate:            sub.StartDate,
		EndDate:              sub.EndDate,
		TrialEndDate:         sub.TrialEndDate,
		NextBillingDate:      sub.NextBillingDate,
		AutoRenew:            sub.AutoRenew,
		DunningLevel:         sub.DunningLevel,
		ParentSubscriptionID: sub.ParentSubscriptionID,
		SeatMemberID:         sub.SeatMemberID,
		Notes:                sub.Notes,
	}, nil
}

// ApplyTo writes the snapshot back onto the subscription and marks the
// backup restored. A restored backup rejects any further restore.
func (b *Backup) ApplyTo(sub *Subscription) error {
	if b.Restored {
		return shared.ErrBackupRestored
	}
	if sub == nil || sub.ID != b.SubscriptionID {
		return shared.NewDomainError("INVALID_SUBSCRIPTION", "Backup belongs to a different subscription")
	}

	sub.State = b.State
	sub.Price = b.Price
	sub.PlanID = b.PlanID
	sub.StartDate = b.StartDate
	sub.EndDate = b.EndDate
	sub.TrialEndDate = b.TrialEndDate
	sub.NextBillingDate = b.NextBillingDate
	sub.AutoRenew = b.AutoRenew
	sub.DunningLevel = b.DunningLevel
	sub.ParentSubscriptionID = b.ParentSubscriptionID
	sub.SeatMemberID = b.SeatMemberID
	sub.Notes = b.Notes
	sub.recomputeRevenue()
	sub.UpdatedAt = time.Now()

	now := time.Now()
	b.Restored = true
	b.RestoredAt = &now
	b.UpdatedAt = now

	return nil
}
