package subscription

import (
	"context"
	"time"

	"github.com/ams/backend/internal/domain/billing"
	"github.com/ams/backend/internal/domain/subscription"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTerminateDays is how long a suspended subscription lingers before
// the sweep expires it
const DefaultTerminateDays = 60

// ExpirySweepResult summarizes one CheckExpiries run
type ExpirySweepResult struct {
	TrialsExpired   int `json:"trials_expired"`
	RenewalsDue     int `json:"renewals_due"`
	Suspended       int `json:"suspended"`
	Expired         int `json:"expired"`
	Errors          int `json:"errors"`
	ProcessedTotal  int `json:"processed_total"`
	DurationSeconds int `json:"duration_seconds"`
}

// LifecycleService runs the scheduled lifecycle sweeps that move
// subscriptions through their end-of-term transitions
type LifecycleService struct {
	subRepo       subscription.SubscriptionRepository
	scheduleRepo  billing.ScheduleRepository
	terminateDays int
	logger        *zap.Logger
}

// NewLifecycleService creates a new LifecycleService. terminateDays controls
// how long suspended subscriptions wait before expiring; zero uses the
// default.
func NewLifecycleService(
	subRepo subscription.SubscriptionRepository,
	scheduleRepo billing.ScheduleRepository,
	terminateDays int,
	logger *zap.Logger,
) *LifecycleService {
	if terminateDays <= 0 {
		terminateDays = DefaultTerminateDays
	}
	return &LifecycleService{
		subRepo:       subRepo,
		scheduleRepo:  scheduleRepo,
		terminateDays: terminateDays,
		logger:        logger,
	}
}

// CheckExpiries is the daily sweep. Per-subscription failures are logged and
// never abort the run, so a bad row cannot wedge the whole tenant.
//
// It applies, in order:
//   - trials past their end date expire
//   - active subscriptions past their end date become pending_renewal
//   - pending_renewal subscriptions past their grace period are suspended
//   - suspended subscriptions past the terminate window expire
func (s *LifecycleService) CheckExpiries(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*ExpirySweepResult, error) {
	started := time.Now()
	result := &ExpirySweepResult{}

	trials, err := s.subRepo.FindByStateEndedBefore(ctx, tenantID, subscription.StateTrial, asOf)
	if err != nil {
		return nil, err
	}
	for i := range trials {
		sub := &trials[i]
		if s.apply(ctx, sub, result, sub.Expire) {
			result.TrialsExpired++
		}
	}

	active, err := s.subRepo.FindByStateEndedBefore(ctx, tenantID, subscription.StateActive, asOf)
	if err != nil {
		return nil, err
	}
	for i := range active {
		sub := &active[i]
		if s.apply(ctx, sub, result, sub.MarkPendingRenewal) {
			result.RenewalsDue++
		}
	}

	pending, err := s.subRepo.FindByStateEndedBefore(ctx, tenantID, subscription.StatePendingRenewal, asOf)
	if err != nil {
		return nil, err
	}
	for i := range pending {
		sub := &pending[i]
		if !graceElapsed(sub, asOf) {
			continue
		}
		if s.apply(ctx, sub, result, func() error { return sub.Suspend("grace period elapsed without renewal") }) {
			result.Suspended++
			s.pauseSchedule(ctx, sub)
		}
	}

	cutoff := asOf.AddDate(0, 0, -s.terminateDays)
	suspended, err := s.subRepo.FindByStateEndedBefore(ctx, tenantID, subscription.StateSuspended, cutoff)
	if err != nil {
		return nil, err
	}
	for i := range suspended {
		sub := &suspended[i]
		if s.apply(ctx, sub, result, sub.Expire) {
			result.Expired++
			s.pauseSchedule(ctx, sub)
		}
	}

	result.ProcessedTotal = len(trials) + len(active) + len(pending) + len(suspended)
	result.DurationSeconds = int(time.Since(started).Seconds())

	s.logger.Info("expiry sweep completed",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("trials_expired", result.TrialsExpired),
		zap.Int("renewals_due", result.RenewalsDue),
		zap.Int("suspended", result.Suspended),
		zap.Int("expired", result.Expired),
		zap.Int("errors", result.Errors))

	return result, nil
}

// apply runs one transition and saves, counting failures instead of
// propagating them
func (s *LifecycleService) apply(ctx context.Context, sub *subscription.Subscription, result *ExpirySweepResult, transition func() error) bool {
	if err := transition(); err != nil {
		s.logger.Warn("lifecycle transition failed",
			zap.String("subscription_id", sub.ID.String()),
			zap.String("state", sub.State.String()),
			zap.Error(err))
		result.Errors++
		return false
	}
	if err := s.subRepo.SaveWithLock(ctx, sub); err != nil {
		s.logger.Warn("lifecycle save failed",
			zap.String("subscription_id", sub.ID.String()),
			zap.Error(err))
		result.Errors++
		return false
	}
	return true
}

func (s *LifecycleService) pauseSchedule(ctx context.Context, sub *subscription.Subscription) {
	schedule, err := s.scheduleRepo.FindBySubscription(ctx, sub.TenantID, sub.ID)
	if err != nil {
		return
	}
	schedule.Deactivate()
	if err := s.scheduleRepo.Save(ctx, schedule); err != nil {
		s.logger.Warn("failed to pause billing schedule",
			zap.String("subscription_id", sub.ID.String()),
			zap.Error(err))
	}
}

// graceElapsed reports whether the grace window past the end date has fully
// passed as of the given time
func graceElapsed(sub *subscription.Subscription, asOf time.Time) bool {
	if sub.EndDate == nil {
		return false
	}
	return !asOf.Before(sub.EndDate.AddDate(0, 0, sub.GracePeriodDays))
}
