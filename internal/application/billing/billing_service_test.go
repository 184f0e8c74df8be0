package billing

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
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newBillingService(subRepo *MockSubscriptionRepository, planRepo *MockPlanRepository, invoiceRepo *MockInvoiceRepository, scheduleRepo *MockScheduleRepository) *BillingService {
	return NewBillingService(subRepo, planRepo, invoiceRepo, scheduleRepo, zap.NewNop())
}

func TestBillingService_ProcessBilling_RaisesInvoice(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	planRepo := new(MockPlanRepository)
	invoiceRepo := new(MockInvoiceRepository)
	scheduleRepo := new(MockScheduleRepository)
	service := newBillingService(subRepo, planRepo, invoiceRepo, scheduleRepo)

	tenantID := newTestTenantID()
	plan := createTestPlan(t, tenantID)
	sub := createActiveSubscription(t, tenantID, plan)
	require.NotNil(t, sub.NextBillingDate)
	asOf := *sub.NextBillingDate
	previousBillingDate := *sub.NextBillingDate

	schedule, err := billing.NewSchedule(tenantID, sub.ID, sub.NextBillingDate)
	require.NoError(t, err)

	subRepo.On("FindByIDForTenant", mock.Anything, tenantID, sub.ID).Return(sub, nil)
	scheduleRepo.On("FindBySubscription", mock.Anything, tenantID, sub.ID).Return(schedule, nil)
	planRepo.On("FindByIDForTenant", mock.Anything, tenantID, plan.ID).Return(plan, nil)
	invoiceRepo.On("GenerateInvoiceNumber", mock.Anything, tenantID).Return("INV-202608-00042", nil)
	invoiceRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Invoice")).Return(nil)
	subRepo.On("SaveWithLock", mock.Anything, sub).Return(nil)
	scheduleRepo.On("Save", mock.Anything, schedule).Return(nil)

	result, err := service.ProcessBilling(context.Background(), tenantID, sub.ID, asOf, false)

	require.NoError(t, err)
	assert.True(t, result.Succeeded)
	require.NotNil(t, result.Invoice)
	assert.Equal(t, "INV-202608-00042", result.Invoice.InvoiceNumber)
	assert.True(t, result.Invoice.Amount.Equal(decimal.RequireFromString("120.00")))
	assert.True(t, result.Invoice.IsRenewal)

	// The billing date moved one cycle forward and the schedule follows it
	require.NotNil(t, sub.NextBillingDate)
	assert.True(t, sub.NextBillingDate.After(previousBillingDate))
	require.NotNil(t, schedule.LastRun)
	assert.True(t, schedule.LastRun.Equal(asOf))
	require.NotNil(t, schedule.NextRun)
	assert.True(t, schedule.NextRun.Equal(*sub.NextBillingDate))

	subRepo.AssertExpectations(t)
	invoiceRepo.AssertExpectations(t)
	scheduleRepo.AssertExpectations(t)
}

func TestBillingService_ProcessBilling_CreatesScheduleWhenMissing(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	planRepo := new(MockPlanRepository)
	invoiceRepo := new(MockInvoiceRepository)
	scheduleRepo := new(MockScheduleRepository)
	service := newBillingService(subRepo, planRepo, invoiceRepo, scheduleRepo)

	tenantID := newTestTenantID()
	plan := createTestPlan(t, tenantID)
	sub := createActiveSubscription(t, tenantID, plan)
	asOf := *sub.NextBillingDate

	subRepo.On("FindByIDForTenant", mock.Anything, tenantID, sub.ID).Return(sub, nil)
	scheduleRepo.On("FindBySubscription", mock.Anything, tenantID, sub.ID).Return(nil, shared.ErrNotFound)
	planRepo.On("FindByIDForTenant", mock.Anything, tenantID, plan.ID).Return(plan, nil)
	invoiceRepo.On("GenerateInvoiceNumber", mock.Anything, tenantID).Return("INV-202608-00043", nil)
	invoiceRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Invoice")).Return(nil)
	subRepo.On("SaveWithLock", mock.Anything, sub).Return(nil)
	scheduleRepo.On("Save", mock.Anything, mock.MatchedBy(func(sc *billing.Schedule) bool {
		return sc.SubscriptionID == sub.ID && sc.Active
	})).Return(nil)

	result, err := service.ProcessBilling(context.Background(), tenantID, sub.ID, asOf, false)

	require.NoError(t, err)
	assert.True(t, result.Succeeded)
	scheduleRepo.AssertExpectations(t)
}

func TestBillingService_ProcessBilling_SkipsLifetime(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	planRepo := new(MockPlanRepository)
	invoiceRepo := new(MockInvoiceRepository)
	scheduleRepo := new(MockScheduleRepository)
	service := newBillingService(subRepo, planRepo, invoiceRepo, scheduleRepo)

	tenantID := newTestTenantID()
	price, err := valueobject.NewMoneyUSDFromString("999.00")
	require.NoError(t, err)
	plan, err := catalog.NewPlan(tenantID, "Lifetime", "LIFE", price, catalog.BillingPeriodLifetime, catalog.BillingTypeAnniversary, 1)
	require.NoError(t, err)
	sub, err := subscription.NewSubscription(tenantID, "SUB-202608-00002", uuid.New(), "Lifetime Member", plan, time.Now())
	require.NoError(t, err)
	require.NoError(t, sub.Activate(time.Now()))

	subRepo.On("FindByIDForTenant", mock.Anything, tenantID, sub.ID).Return(sub, nil)

	result, err := service.ProcessBilling(context.Background(), tenantID, sub.ID, time.Now(), true)

	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Contains(t, result.Reason, "lifetime")
	invoiceRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	scheduleRepo.AssertNotCalled(t, "FindBySubscription", mock.Anything, mock.Anything, mock.Anything)
}

func TestBillingService_ProcessBilling_SkipsSeat(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	planRepo := new(MockPlanRepository)
	invoiceRepo := new(MockInvoiceRepository)
	scheduleRepo := new(MockScheduleRepository)
	service := newBillingService(subRepo, planRepo, invoiceRepo, scheduleRepo)

	tenantID := newTestTenantID()
	plan := createTestPlan(t, tenantID)
	parent := createActiveSubscription(t, tenantID, plan)
	seat, err := subscription.NewSubscription(tenantID, "SUB-202608-00003", parent.PartnerID, "Seat Member", plan, time.Now())
	require.NoError(t, err)
	require.NoError(t, seat.LinkSeat(parent.ID, parent.PartnerID))
	require.NoError(t, seat.Activate(time.Now()))

	subRepo.On("FindByIDForTenant", mock.Anything, tenantID, seat.ID).Return(seat, nil)

	result, err := service.ProcessBilling(context.Background(), tenantID, seat.ID, time.Now(), true)

	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Contains(t, result.Reason, "parent")
	invoiceRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestBillingService_ProcessBilling_SkipsAutoRenewOffUnlessForced(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	planRepo := new(MockPlanRepository)
	invoiceRepo := new(MockInvoiceRepository)
	scheduleRepo := new(MockScheduleRepository)
	service := newBillingService(subRepo, planRepo, invoiceRepo, scheduleRepo)

	tenantID := newTestTenantID()
	plan := createTestPlan(t, tenantID)
	sub := createActiveSubscription(t, tenantID, plan)
	require.NoError(t, sub.SetAutoRenew(false))
	asOf := *sub.NextBillingDate

	schedule, err := billing.NewSchedule(tenantID, sub.ID, sub.NextBillingDate)
	require.NoError(t, err)

	subRepo.On("FindByIDForTenant", mock.Anything, tenantID, sub.ID).Return(sub, nil)
	scheduleRepo.On("FindBySubscription", mock.Anything, tenantID, sub.ID).Return(schedule, nil)
	planRepo.On("FindByIDForTenant", mock.Anything, tenantID, plan.ID).Return(plan, nil)
	invoiceRepo.On("GenerateInvoiceNumber", mock.Anything, tenantID).Return("INV-202608-00044", nil)
	invoiceRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Invoice")).Return(nil)
	subRepo.On("SaveWithLock", mock.Anything, sub).Return(nil)
	scheduleRepo.On("Save", mock.Anything, schedule).Return(nil)

	skipped, err := service.ProcessBilling(context.Background(), tenantID, sub.ID, asOf, false)
	require.NoError(t, err)
	assert.True(t, skipped.Skipped)
	assert.Contains(t, skipped.Reason, "auto renewal")

	forced, err := service.ProcessBilling(context.Background(), tenantID, sub.ID, asOf, true)
	require.NoError(t, err)
	assert.True(t, forced.Succeeded)
}

func TestBillingService_ProcessBilling_SkipsWhenScheduleNotDue(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	planRepo := new(MockPlanRepository)
	invoiceRepo := new(MockInvoiceRepository)
	scheduleRepo := new(MockScheduleRepository)
	service := newBillingService(subRepo, planRepo, invoiceRepo, scheduleRepo)

	tenantID := newTestTenantID()
	plan := createTestPlan(t, tenantID)
	sub := createActiveSubscription(t, tenantID, plan)

	schedule, err := billing.NewSchedule(tenantID, sub.ID, sub.NextBillingDate)
	require.NoError(t, err)

	subRepo.On("FindByIDForTenant", mock.Anything, tenantID, sub.ID).Return(sub, nil)
	scheduleRepo.On("FindBySubscription", mock.Anything, tenantID, sub.ID).Return(schedule, nil)

	// asOf is a day before the billing date
	asOf := sub.NextBillingDate.AddDate(0, 0, -1)
	result, err := service.ProcessBilling(context.Background(), tenantID, sub.ID, asOf, false)

	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Contains(t, result.Reason, "not due")
	invoiceRepo.AssertNotCalled(t, "GenerateInvoiceNumber", mock.Anything, mock.Anything)
}

func TestBillingService_ProcessBilling_SeatAdjustedAmount(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	planRepo := new(MockPlanRepository)
	invoiceRepo := new(MockInvoiceRepository)
	scheduleRepo := new(MockScheduleRepository)
	service := newBillingService(subRepo, planRepo, invoiceRepo, scheduleRepo)

	tenantID := newTestTenantID()
	plan := createTestPlan(t, tenantID)
	seatPrice, err := valueobject.NewMoneyUSDFromString("10.00")
	require.NoError(t, err)
	require.NoError(t, plan.EnableSeats(5, 0, seatPrice))
	sub := createActiveSubscription(t, tenantID, plan)
	asOf := *sub.NextBillingDate

	schedule, err := billing.NewSchedule(tenantID, sub.ID, sub.NextBillingDate)
	require.NoError(t, err)

	subRepo.On("FindByIDForTenant", mock.Anything, tenantID, sub.ID).Return(sub, nil)
	scheduleRepo.On("FindBySubscription", mock.Anything, tenantID, sub.ID).Return(schedule, nil)
	planRepo.On("FindByIDForTenant", mock.Anything, tenantID, plan.ID).Return(plan, nil)
	subRepo.On("CountActiveSeats", mock.Anything, tenantID, sub.ID).Return(int64(8), nil)
	invoiceRepo.On("GenerateInvoiceNumber", mock.Anything, tenantID).Return("INV-202608-00045", nil)
	invoiceRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Invoice")).Return(nil)
	subRepo.On("SaveWithLock", mock.Anything, sub).Return(nil)
	scheduleRepo.On("Save", mock.Anything, schedule).Return(nil)

	result, err := service.ProcessBilling(context.Background(), tenantID, sub.ID, asOf, false)

	require.NoError(t, err)
	assert.True(t, result.Succeeded)
	// 120.00 base plus 3 extra seats at 10.00
	assert.True(t, result.Invoice.Amount.Equal(decimal.RequireFromString("150.00")))
}

func TestBillingService_ProcessBilling_WithdrawnPlanBillsCapturedPrice(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	planRepo := new(MockPlanRepository)
	invoiceRepo := new(MockInvoiceRepository)
	scheduleRepo := new(MockScheduleRepository)
	service := newBillingService(subRepo, planRepo, invoiceRepo, scheduleRepo)

	tenantID := newTestTenantID()
	plan := createTestPlan(t, tenantID)
	sub := createActiveSubscription(t, tenantID, plan)
	asOf := *sub.NextBillingDate

	schedule, err := billing.NewSchedule(tenantID, sub.ID, sub.NextBillingDate)
	require.NoError(t, err)

	subRepo.On("FindByIDForTenant", mock.Anything, tenantID, sub.ID).Return(sub, nil)
	scheduleRepo.On("FindBySubscription", mock.Anything, tenantID, sub.ID).Return(schedule, nil)
	planRepo.On("FindByIDForTenant", mock.Anything, tenantID, plan.ID).Return(nil, shared.ErrNotFound)
	invoiceRepo.On("GenerateInvoiceNumber", mock.Anything, tenantID).Return("INV-202608-00046", nil)
	invoiceRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Invoice")).Return(nil)
	subRepo.On("SaveWithLock", mock.Anything, sub).Return(nil)
	scheduleRepo.On("Save", mock.Anything, schedule).Return(nil)

	result, err := service.ProcessBilling(context.Background(), tenantID, sub.ID, asOf, false)

	require.NoError(t, err)
	assert.True(t, result.Succeeded)
	assert.True(t, result.Invoice.Amount.Equal(decimal.RequireFromString("120.00")))
}

func TestBillingService_RunBilling_IsolatesFailures(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	planRepo := new(MockPlanRepository)
	invoiceRepo := new(MockInvoiceRepository)
	scheduleRepo := new(MockScheduleRepository)
	service := newBillingService(subRepo, planRepo, invoiceRepo, scheduleRepo)

	tenantID := newTestTenantID()
	plan := createTestPlan(t, tenantID)
	good := createActiveSubscription(t, tenantID, plan)
	bad := createActiveSubscription(t, tenantID, plan)
	// well past both billing dates so neither schedule skips on the date
	asOf := time.Now().AddDate(0, 2, 0)

	subRepo.On("FindBillableDue", mock.Anything, tenantID, asOf).Return([]subscription.Subscription{*bad, *good}, nil)
	scheduleRepo.On("FindBySubscription", mock.Anything, tenantID, mock.Anything).Return(nil, shared.ErrNotFound)
	planRepo.On("FindByIDForTenant", mock.Anything, tenantID, plan.ID).Return(plan, nil)

	// The first subscription dies on number generation, the second bills fine
	invoiceRepo.On("GenerateInvoiceNumber", mock.Anything, tenantID).Return("", assert.AnError).Once()
	invoiceRepo.On("GenerateInvoiceNumber", mock.Anything, tenantID).Return("INV-202608-00047", nil).Once()
	invoiceRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Invoice")).Return(nil)
	subRepo.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*subscription.Subscription")).Return(nil)
	scheduleRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Schedule")).Return(nil)

	run, err := service.RunBilling(context.Background(), tenantID, asOf)

	require.NoError(t, err)
	assert.Equal(t, 1, run.Invoiced)
	assert.Equal(t, 1, run.Errors)
	assert.Len(t, run.Results, 2)
	invoiceRepo.AssertExpectations(t)
}

func TestBillingService_ManualBilling_CountsSkips(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	planRepo := new(MockPlanRepository)
	invoiceRepo := new(MockInvoiceRepository)
	scheduleRepo := new(MockScheduleRepository)
	service := newBillingService(subRepo, planRepo, invoiceRepo, scheduleRepo)

	tenantID := newTestTenantID()
	plan := createTestPlan(t, tenantID)
	sub := createActiveSubscription(t, tenantID, plan)
	require.NoError(t, sub.Cancel("member left"))

	subRepo.On("FindByIDForTenant", mock.Anything, tenantID, sub.ID).Return(sub, nil)

	run, err := service.ManualBilling(context.Background(), tenantID, ManualBillingRequest{
		SubscriptionIDs: []uuid.UUID{sub.ID},
		Force:           true,
	})

	require.NoError(t, err)
	assert.Equal(t, 0, run.Invoiced)
	assert.Equal(t, 1, run.Skipped)
	assert.Contains(t, run.Results[0].Reason, "not billable")
	invoiceRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}
