package billing

import (
	"time"

	"github.com/ams/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Schedule drives recurring billing for one subscription. Its next run
// mirrors the subscription's next billing date.
type Schedule struct {
	shared.TenantAggregateRoot
	SubscriptionID uuid.UUID
	Active         bool
	NextRun        *time.Time
	LastRun        *time.Time
}

// NewSchedule creates an active billing schedule for a subscription
func NewSchedule(tenantID, subscriptionID uuid.UUID, nextRun *time.Time) (*Schedule, error) {
	if subscriptionID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUBSCRIPTION", "Subscription ID cannot be empty")
	}

	return &Schedule{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SubscriptionID:      subscriptionID,
		Active:              true,
		NextRun:             nextRun,
	}, nil
}

// IsDue returns true if the schedule should run. Force bypasses the date
// check but never revives an inactive schedule.
func (s *Schedule) IsDue(asOf time.Time, force bool) bool {
	if !s.Active {
		return false
	}
	if force {
		return true
	}
	return s.NextRun != nil && !s.NextRun.After(asOf)
}

// MarkRan records a completed run and the next due date
func (s *Schedule) MarkRan(ranAt time.Time, nextRun *time.Time) {
	s.LastRun = &ranAt
	s.NextRun = nextRun
	s.UpdatedAt = time.Now()
}

// Deactivate stops future runs, used when the subscription leaves a
// billable state
func (s *Schedule) Deactivate() {
	s.Active = false
	s.UpdatedAt = time.Now()
}

// Reactivate resumes billing with the given next run
func (s *Schedule) Reactivate(nextRun *time.Time) {
	s.Active = true
	s.NextRun = nextRun
	s.UpdatedAt = time.Now()
}
