package analytics

import (
	"context"
	"time"

	"github.com/ams/backend/internal/domain/analytics"
	"github.com/ams/backend/internal/domain/subscription"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultChurnWindowDays is the trailing window for the churn rate on the
// dashboard snapshot
const DefaultChurnWindowDays = 30

// DefaultCohortMonths is how far back the retention matrix reaches
const DefaultCohortMonths = 12

// DashboardCache caches computed dashboard snapshots. A miss returns
// (nil, nil); cache errors are treated as misses by the service.
type DashboardCache interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*analytics.Dashboard, error)
	Set(ctx context.Context, tenantID uuid.UUID, dashboard *analytics.Dashboard) error
}

// AnalyticsService aggregates read-only revenue and retention metrics.
// Nothing here mutates subscription data.
type AnalyticsService struct {
	readRepo analytics.ReadRepository
	cache    DashboardCache
	logger   *zap.Logger
}

// NewAnalyticsService creates a new AnalyticsService. The cache may be nil;
// every call then computes fresh.
func NewAnalyticsService(readRepo analytics.ReadRepository, cache DashboardCache, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		readRepo: readRepo,
		cache:    cache,
		logger:   logger,
	}
}

// GetDashboard returns the tenant dashboard snapshot, from cache when a
// fresh one exists. Force recomputes and overwrites the cached snapshot.
func (s *AnalyticsService) GetDashboard(ctx context.Context, tenantID uuid.UUID, force bool) (*analytics.Dashboard, error) {
	if s.cache != nil && !force {
		cached, err := s.cache.Get(ctx, tenantID)
		if err != nil {
			s.logger.Warn("dashboard cache read failed",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	dashboard, err := s.computeDashboard(ctx, tenantID, time.Now())
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, tenantID, dashboard); err != nil {
			s.logger.Warn("dashboard cache write failed",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err))
		}
	}

	return dashboard, nil
}

// GetCohortRetention returns the retention matrix for cohorts started in
// the trailing months, with per-row retention percentages
func (s *AnalyticsService) GetCohortRetention(ctx context.Context, tenantID uuid.UUID, months int) ([]CohortResponse, error) {
	if months <= 0 {
		months = DefaultCohortMonths
	}
	rows, err := s.readRepo.CohortRows(ctx, tenantID, months, time.Now())
	if err != nil {
		return nil, err
	}

	responses := make([]CohortResponse, len(rows))
	for i, row := range rows {
		responses[i] = ToCohortResponse(row)
	}
	return responses, nil
}

// GetChurnRate returns the churn rate over an explicit window
func (s *AnalyticsService) GetChurnRate(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (*ChurnResponse, error) {
	churned, err := s.readRepo.CountChurned(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	activeAtStart, err := s.readRepo.CountActiveAt(ctx, tenantID, from)
	if err != nil {
		return nil, err
	}

	return &ChurnResponse{
		PeriodStart:   from,
		PeriodEnd:     to,
		Churned:       churned,
		ActiveAtStart: activeAtStart,
		ChurnRate:     analytics.ChurnRate(churned, activeAtStart),
	}, nil
}

func (s *AnalyticsService) computeDashboard(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*analytics.Dashboard, error) {
	mrr, err := s.readRepo.SumMRR(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	counts := make(map[subscription.State]int64, 4)
	for _, state := range []subscription.State{
		subscription.StateActive,
		subscription.StateTrial,
		subscription.StatePendingRenewal,
		subscription.StateSuspended,
	} {
		n, err := s.readRepo.CountByState(ctx, tenantID, state)
		if err != nil {
			return nil, err
		}
		counts[state] = n
	}

	atRisk, err := s.readRepo.CountAtRisk(ctx, tenantID, subscription.AtRiskDunningLevel)
	if err != nil {
		return nil, err
	}

	periodStart := asOf.AddDate(0, 0, -DefaultChurnWindowDays)
	churned, err := s.readRepo.CountChurned(ctx, tenantID, periodStart, asOf)
	if err != nil {
		return nil, err
	}
	activeAtStart, err := s.readRepo.CountActiveAt(ctx, tenantID, periodStart)
	if err != nil {
		return nil, err
	}

	return &analytics.Dashboard{
		MRR:            mrr,
		ARR:            analytics.ARRFromMRR(mrr),
		ActiveCount:    counts[subscription.StateActive],
		TrialCount:     counts[subscription.StateTrial],
		PendingRenewal: counts[subscription.StatePendingRenewal],
		SuspendedCount: counts[subscription.StateSuspended],
		AtRiskCount:    atRisk,
		ChurnRate:      analytics.ChurnRate(churned, activeAtStart),
		ComputedAt:     asOf,
		PeriodStart:    periodStart,
		PeriodEnd:      asOf,
	}, nil
}
