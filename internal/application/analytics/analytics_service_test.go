package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/ams/backend/internal/domain/analytics"
	"github.com/ams/backend/internal/domain/subscription"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockReadRepository is a mock implementation of analytics.ReadRepository
type MockReadRepository struct {
	mock.Mock
}

func (m *MockReadRepository) SumMRR(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockReadRepository) CountByState(ctx context.Context, tenantID uuid.UUID, state subscription.State) (int64, error) {
	args := m.Called(ctx, tenantID, state)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReadRepository) CountAtRisk(ctx context.Context, tenantID uuid.UUID, minDunningLevel int) (int64, error) {
	args := m.Called(ctx, tenantID, minDunningLevel)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReadRepository) CountChurned(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (int64, error) {
	args := m.Called(ctx, tenantID, from, to)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReadRepository) CountActiveAt(ctx context.Context, tenantID uuid.UUID, at time.Time) (int64, error) {
	args := m.Called(ctx, tenantID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReadRepository) CohortRows(ctx context.Context, tenantID uuid.UUID, months int, asOf time.Time) ([]analytics.CohortRow, error) {
	args := m.Called(ctx, tenantID, months, asOf)
	return args.Get(0).([]analytics.CohortRow), args.Error(1)
}

// MockDashboardCache is a mock implementation of DashboardCache
type MockDashboardCache struct {
	mock.Mock
}

func (m *MockDashboardCache) Get(ctx context.Context, tenantID uuid.UUID) (*analytics.Dashboard, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analytics.Dashboard), args.Error(1)
}

func (m *MockDashboardCache) Set(ctx context.Context, tenantID uuid.UUID, dashboard *analytics.Dashboard) error {
	args := m.Called(ctx, tenantID, dashboard)
	return args.Error(0)
}

func newTestTenantID() uuid.UUID {
	return uuid.MustParse("11111111-1111-1111-1111-111111111111")
}

func stubCounts(repo *MockReadRepository, tenantID uuid.UUID, active, trial, pending, suspended int64) {
	repo.On("CountByState", mock.Anything, tenantID, subscription.StateActive).Return(active, nil)
	repo.On("CountByState", mock.Anything, tenantID, subscription.StateTrial).Return(trial, nil)
	repo.On("CountByState", mock.Anything, tenantID, subscription.StatePendingRenewal).Return(pending, nil)
	repo.On("CountByState", mock.Anything, tenantID, subscription.StateSuspended).Return(suspended, nil)
}

func TestAnalyticsService_GetDashboard_Computes(t *testing.T) {
	repo := new(MockReadRepository)
	cache := new(MockDashboardCache)
	service := NewAnalyticsService(repo, cache, zap.NewNop())

	tenantID := newTestTenantID()
	cache.On("Get", mock.Anything, tenantID).Return(nil, nil)
	repo.On("SumMRR", mock.Anything, tenantID).Return(decimal.RequireFromString("1250.50"), nil)
	stubCounts(repo, tenantID, 40, 5, 3, 2)
	repo.On("CountAtRisk", mock.Anything, tenantID, subscription.AtRiskDunningLevel).Return(int64(4), nil)
	repo.On("CountChurned", mock.Anything, tenantID, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).Return(int64(5), nil)
	repo.On("CountActiveAt", mock.Anything, tenantID, mock.AnythingOfType("time.Time")).Return(int64(50), nil)
	cache.On("Set", mock.Anything, tenantID, mock.AnythingOfType("*analytics.Dashboard")).Return(nil)

	dashboard, err := service.GetDashboard(context.Background(), tenantID, false)

	require.NoError(t, err)
	assert.True(t, dashboard.MRR.Equal(decimal.RequireFromString("1250.50")))
	assert.True(t, dashboard.ARR.Equal(decimal.RequireFromString("15006")))
	assert.Equal(t, int64(40), dashboard.ActiveCount)
	assert.Equal(t, int64(4), dashboard.AtRiskCount)
	// 5 churned out of 50 active at period start
	assert.True(t, dashboard.ChurnRate.Equal(decimal.RequireFromString("10")))
	cache.AssertExpectations(t)
}

func TestAnalyticsService_GetDashboard_ServesCached(t *testing.T) {
	repo := new(MockReadRepository)
	cache := new(MockDashboardCache)
	service := NewAnalyticsService(repo, cache, zap.NewNop())

	tenantID := newTestTenantID()
	cached := &analytics.Dashboard{MRR: decimal.RequireFromString("900"), ComputedAt: time.Now()}
	cache.On("Get", mock.Anything, tenantID).Return(cached, nil)

	dashboard, err := service.GetDashboard(context.Background(), tenantID, false)

	require.NoError(t, err)
	assert.Same(t, cached, dashboard)
	repo.AssertNotCalled(t, "SumMRR", mock.Anything, mock.Anything)
}

func TestAnalyticsService_GetDashboard_ForceBypassesCache(t *testing.T) {
	repo := new(MockReadRepository)
	cache := new(MockDashboardCache)
	service := NewAnalyticsService(repo, cache, zap.NewNop())

	tenantID := newTestTenantID()
	repo.On("SumMRR", mock.Anything, tenantID).Return(decimal.Zero, nil)
	stubCounts(repo, tenantID, 0, 0, 0, 0)
	repo.On("CountAtRisk", mock.Anything, tenantID, subscription.AtRiskDunningLevel).Return(int64(0), nil)
	repo.On("CountChurned", mock.Anything, tenantID, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).Return(int64(0), nil)
	repo.On("CountActiveAt", mock.Anything, tenantID, mock.AnythingOfType("time.Time")).Return(int64(0), nil)
	cache.On("Set", mock.Anything, tenantID, mock.AnythingOfType("*analytics.Dashboard")).Return(nil)

	dashboard, err := service.GetDashboard(context.Background(), tenantID, true)

	require.NoError(t, err)
	// empty tenant: every figure zero, no division blowups
	assert.True(t, dashboard.MRR.IsZero())
	assert.True(t, dashboard.ChurnRate.IsZero())
	cache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestAnalyticsService_GetDashboard_CacheErrorComputesFresh(t *testing.T) {
	repo := new(MockReadRepository)
	cache := new(MockDashboardCache)
	service := NewAnalyticsService(repo, cache, zap.NewNop())

	tenantID := newTestTenantID()
	cache.On("Get", mock.Anything, tenantID).Return(nil, assert.AnError)
	repo.On("SumMRR", mock.Anything, tenantID).Return(decimal.RequireFromString("100"), nil)
	stubCounts(repo, tenantID, 1, 0, 0, 0)
	repo.On("CountAtRisk", mock.Anything, tenantID, subscription.AtRiskDunningLevel).Return(int64(0), nil)
	repo.On("CountChurned", mock.Anything, tenantID, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).Return(int64(0), nil)
	repo.On("CountActiveAt", mock.Anything, tenantID, mock.AnythingOfType("time.Time")).Return(int64(1), nil)
	cache.On("Set", mock.Anything, tenantID, mock.AnythingOfType("*analytics.Dashboard")).Return(nil)

	dashboard, err := service.GetDashboard(context.Background(), tenantID, false)

	require.NoError(t, err)
	assert.True(t, dashboard.MRR.Equal(decimal.RequireFromString("100")))
}

func TestAnalyticsService_GetCohortRetention(t *testing.T) {
	repo := new(MockReadRepository)
	service := NewAnalyticsService(repo, nil, zap.NewNop())

	tenantID := newTestTenantID()
	cohortMonth := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []analytics.CohortRow{
		{CohortMonth: cohortMonth, MonthsSince: 3, Total: 40, StillActive: 30},
		{CohortMonth: cohortMonth, MonthsSince: 6, Total: 40, StillActive: 0},
		{CohortMonth: cohortMonth.AddDate(0, 1, 0), MonthsSince: 2, Total: 0, StillActive: 0},
	}
	repo.On("CohortRows", mock.Anything, tenantID, DefaultCohortMonths, mock.AnythingOfType("time.Time")).Return(rows, nil)

	responses, err := service.GetCohortRetention(context.Background(), tenantID, 0)

	require.NoError(t, err)
	require.Len(t, responses, 3)
	assert.True(t, responses[0].RetentionRate.Equal(decimal.RequireFromString("75")))
	assert.True(t, responses[1].RetentionRate.IsZero())
	// empty cohort guards the division
	assert.True(t, responses[2].RetentionRate.IsZero())
}

func TestAnalyticsService_GetChurnRate(t *testing.T) {
	repo := new(MockReadRepository)
	service := NewAnalyticsService(repo, nil, zap.NewNop())

	tenantID := newTestTenantID()
	from := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	repo.On("CountChurned", mock.Anything, tenantID, from, to).Return(int64(3), nil)
	repo.On("CountActiveAt", mock.Anything, tenantID, from).Return(int64(60), nil)

	response, err := service.GetChurnRate(context.Background(), tenantID, from, to)

	require.NoError(t, err)
	assert.Equal(t, int64(3), response.Churned)
	assert.True(t, response.ChurnRate.Equal(decimal.RequireFromString("5")))
}
