package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/ams/backend/internal/domain/billing"
	"github.com/ams/backend/internal/domain/catalog"
	"github.com/ams/backend/internal/domain/shared"
	"github.com/ams/backend/internal/domain/shared/valueobject"
	"github.com/ams/backend/internal/domain/subscription"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSubscriptionRepository is a mock implementation of SubscriptionRepository
type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*subscription.Subscription, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*subscription.Subscription, error) {
	args := m.Called(ctx, tenantID, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]subscription.Subscription, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]subscription.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) FindByPartner(ctx context.Context, tenantID, partnerID uuid.UUID, filter shared.Filter) ([]subscription.Subscription, error) {
	args := m.Called(ctx, tenantID, partnerID, filter)
	return args.Get(0).([]subscription.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) FindByState(ctx context.Context, tenantID uuid.UUID, state subscription.State, filter shared.Filter) ([]subscription.Subscription, error) {
	args := m.Called(ctx, tenantID, state, filter)
	return args.Get(0).([]subscription.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) FindBillableDue(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]subscription.Subscription, error) {
	args := m.Called(ctx, tenantID, asOf)
	return args.Get(0).([]subscription.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) FindEndingOn(ctx context.Context, tenantID uuid.UUID, date time.Time) ([]subscription.Subscription, error) {
	args := m.Called(ctx, tenantID, date)
	return args.Get(0).([]subscription.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) FindByStateEndedBefore(ctx context.Context, tenantID uuid.UUID, state subscription.State, cutoff time.Time) ([]subscription.Subscription, error) {
	args := m.Called(ctx, tenantID, state, cutoff)
	return args.Get(0).([]subscription.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) FindActivatedBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]subscription.Subscription, error) {
	args := m.Called(ctx, tenantID, from, to)
	return args.Get(0).([]subscription.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) FindSeats(ctx context.Context, tenantID, parentID uuid.UUID) ([]subscription.Subscription, error) {
	args := m.Called(ctx, tenantID, parentID)
	return args.Get(0).([]subscription.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) CountActiveSeats(ctx context.Context, tenantID, parentID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, parentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSubscriptionRepository) FindAtRisk(ctx context.Context, tenantID uuid.UUID, minDunningLevel int, filter shared.Filter) ([]subscription.Subscription, error) {
	args := m.Called(ctx, tenantID, minDunningLevel, filter)
	return args.Get(0).([]subscription.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) Save(ctx context.Context, sub *subscription.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) SaveWithLock(ctx context.Context, sub *subscription.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSubscriptionRepository) CountByState(ctx context.Context, tenantID uuid.UUID, state subscription.State) (int64, error) {
	args := m.Called(ctx, tenantID, state)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSubscriptionRepository) GenerateSubscriptionNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

// MockRenewalRepository is a mock implementation of RenewalRepository
type MockRenewalRepository struct {
	mock.Mock
}

func (m *MockRenewalRepository) FindByID(ctx context.Context, id uuid.UUID) (*subscription.Renewal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Renewal), args.Error(1)
}

func (m *MockRenewalRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*subscription.Renewal, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Renewal), args.Error(1)
}

func (m *MockRenewalRepository) FindBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID) ([]subscription.Renewal, error) {
	args := m.Called(ctx, tenantID, subscriptionID)
	return args.Get(0).([]subscription.Renewal), args.Error(1)
}

func (m *MockRenewalRepository) FindOpenBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID) (*subscription.Renewal, error) {
	args := m.Called(ctx, tenantID, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Renewal), args.Error(1)
}

func (m *MockRenewalRepository) Save(ctx context.Context, renewal *subscription.Renewal) error {
	args := m.Called(ctx, renewal)
	return args.Error(0)
}

func (m *MockRenewalRepository) SaveWithLock(ctx context.Context, renewal *subscription.Renewal) error {
	args := m.Called(ctx, renewal)
	return args.Error(0)
}

// MockBackupRepository is a mock implementation of BackupRepository
type MockBackupRepository struct {
	mock.Mock
}

func (m *MockBackupRepository) FindByID(ctx context.Context, id uuid.UUID) (*subscription.Backup, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Backup), args.Error(1)
}

func (m *MockBackupRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*subscription.Backup, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Backup), args.Error(1)
}

func (m *MockBackupRepository) FindBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID) ([]subscription.Backup, error) {
	args := m.Called(ctx, tenantID, subscriptionID)
	return args.Get(0).([]subscription.Backup), args.Error(1)
}

func (m *MockBackupRepository) Save(ctx context.Context, backup *subscription.Backup) error {
	args := m.Called(ctx, backup)
	return args.Error(0)
}

// MockPlanRepository is a mock implementation of catalog.PlanRepository
type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Plan), args.Error(1)
}

func (m *MockPlanRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Plan, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Plan), args.Error(1)
}

func (m *MockPlanRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*catalog.Plan, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Plan), args.Error(1)
}

func (m *MockPlanRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Plan, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]catalog.Plan), args.Error(1)
}

func (m *MockPlanRepository) FindActiveForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Plan, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]catalog.Plan), args.Error(1)
}

func (m *MockPlanRepository) Save(ctx context.Context, plan *catalog.Plan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPlanRepository) SaveWithLock(ctx context.Context, plan *catalog.Plan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPlanRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockPlanRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPlanRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, tenantID, code)
	return args.Bool(0), args.Error(1)
}

// MockScheduleRepository is a mock implementation of billing.ScheduleRepository
type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Schedule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Schedule), args.Error(1)
}

func (m *MockScheduleRepository) FindBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID) (*billing.Schedule, error) {
	args := m.Called(ctx, tenantID, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Schedule), args.Error(1)
}

func (m *MockScheduleRepository) FindDue(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]billing.Schedule, error) {
	args := m.Called(ctx, tenantID, asOf)
	return args.Get(0).([]billing.Schedule), args.Error(1)
}

func (m *MockScheduleRepository) Save(ctx context.Context, schedule *billing.Schedule) error {
	args := m.Called(ctx, schedule)
	return args.Error(0)
}

func (m *MockScheduleRepository) SaveWithLock(ctx context.Context, schedule *billing.Schedule) error {
	args := m.Called(ctx, schedule)
	return args.Error(0)
}

// Test helpers

func newTestTenantID() uuid.UUID {
	return uuid.MustParse("11111111-1111-1111-1111-111111111111")
}

func createTestPlan(t *testing.T, tenantID uuid.UUID) *catalog.Plan {
	t.Helper()
	price, err := valueobject.NewMoneyUSDFromString("120.00")
	require.NoError(t, err)
	plan, err := catalog.NewPlan(tenantID, "Professional", "PRO", price, catalog.BillingPeriodMonthly, catalog.BillingTypeAnniversary, 1)
	require.NoError(t, err)
	return plan
}

func createLifetimePlan(t *testing.T, tenantID uuid.UUID) *catalog.Plan {
	t.Helper()
	price, err := valueobject.NewMoneyUSDFromString("999.00")
	require.NoError(t, err)
	plan, err := catalog.NewPlan(tenantID, "Founder", "LIFE", price, catalog.BillingPeriodLifetime, catalog.BillingTypeAnniversary, 1)
	require.NoError(t, err)
	return plan
}

func createTestSeatPlan(t *testing.T, tenantID uuid.UUID, includedSeats, maxSeats int) *catalog.Plan {
	t.Helper()
	plan := createTestPlan(t, tenantID)
	seatPrice := valueobject.NewMoneyUSDFromFloat(10.00)
	require.NoError(t, plan.EnableSeats(includedSeats, maxSeats, seatPrice))
	return plan
}

func createActiveSubscription(t *testing.T, tenantID uuid.UUID, plan *catalog.Plan) *subscription.Subscription {
	t.Helper()
	sub, err := subscription.NewSubscription(tenantID, "SUB-202601-00001", uuid.New(), "Acme Association Member", plan, time.Now())
	require.NoError(t, err)
	require.NoError(t, sub.Activate(time.Now()))
	sub.ClearDomainEvents()
	return sub
}
