package billing

import (
	"context"
	"testing"
	"time"

	"github.com/ams/backend/internal/domain/billing"
	"github.com/ams/backend/internal/domain/catalog"
	"github.com/ams/backend/internal/domain/communication"
	"github.com/ams/backend/internal/domain/shared"
	"github.com/ams/backend/internal/domain/shared/valueobject"
	"github.com/ams/backend/internal/domain/subscription"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSubscriptionRepository is a mock implementation of subscription.SubscriptionRepository
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

// MockInvoiceRepository is a mock implementation of billing.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*billing.Invoice, error) {
	args := m.Called(ctx, tenantID, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID, filter shared.Filter) ([]billing.Invoice, error) {
	args := m.Called(ctx, tenantID, subscriptionID, filter)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByPartner(ctx context.Context, tenantID, partnerID uuid.UUID, filter shared.Filter) ([]billing.Invoice, error) {
	args := m.Called(ctx, tenantID, partnerID, filter)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindOverdue(ctx context.Context, tenantID uuid.UUID, asOf time.Time, filter shared.Filter) ([]billing.Invoice, error) {
	args := m.Called(ctx, tenantID, asOf, filter)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) GenerateInvoiceNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

// MockPaymentRecordRepository is a mock implementation of billing.PaymentRecordRepository
type MockPaymentRecordRepository struct {
	mock.Mock
}

func (m *MockPaymentRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.PaymentRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRecordRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.PaymentRecord, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRecordRepository) FindBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID, filter shared.Filter) ([]billing.PaymentRecord, error) {
	args := m.Called(ctx, tenantID, subscriptionID, filter)
	return args.Get(0).([]billing.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRecordRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]billing.PaymentRecord, error) {
	args := m.Called(ctx, tenantID, invoiceID)
	return args.Get(0).([]billing.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRecordRepository) FindRetryDue(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]billing.PaymentRecord, error) {
	args := m.Called(ctx, tenantID, asOf)
	return args.Get(0).([]billing.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRecordRepository) CountRecentFailures(ctx context.Context, tenantID, partnerID uuid.UUID, since time.Time) (int64, error) {
	args := m.Called(ctx, tenantID, partnerID, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRecordRepository) Save(ctx context.Context, record *billing.PaymentRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockPaymentRecordRepository) SaveWithLock(ctx context.Context, record *billing.PaymentRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
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

// MockCommunicationRepository is a mock implementation of communication.CommunicationRepository
type MockCommunicationRepository struct {
	mock.Mock
}

func (m *MockCommunicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*communication.Communication, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*communication.Communication), args.Error(1)
}

func (m *MockCommunicationRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*communication.Communication, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*communication.Communication), args.Error(1)
}

func (m *MockCommunicationRepository) FindBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID, filter shared.Filter) ([]communication.Communication, error) {
	args := m.Called(ctx, tenantID, subscriptionID, filter)
	return args.Get(0).([]communication.Communication), args.Error(1)
}

func (m *MockCommunicationRepository) FindByPartner(ctx context.Context, tenantID, partnerID uuid.UUID, filter shared.Filter) ([]communication.Communication, error) {
	args := m.Called(ctx, tenantID, partnerID, filter)
	return args.Get(0).([]communication.Communication), args.Error(1)
}

func (m *MockCommunicationRepository) FindDue(ctx context.Context, tenantID uuid.UUID, asOf time.Time, limit int) ([]communication.Communication, error) {
	args := m.Called(ctx, tenantID, asOf, limit)
	return args.Get(0).([]communication.Communication), args.Error(1)
}

func (m *MockCommunicationRepository) ExistsByDedupKey(ctx context.Context, tenantID uuid.UUID, dedupKey string) (bool, error) {
	args := m.Called(ctx, tenantID, dedupKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockCommunicationRepository) Save(ctx context.Context, comm *communication.Communication) error {
	args := m.Called(ctx, comm)
	return args.Error(0)
}

func (m *MockCommunicationRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockCharger is a mock implementation of billing.Charger
type MockCharger struct {
	mock.Mock
}

func (m *MockCharger) Charge(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
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

func createActiveSubscription(t *testing.T, tenantID uuid.UUID, plan *catalog.Plan) *subscription.Subscription {
	t.Helper()
	sub, err := subscription.NewSubscription(tenantID, "SUB-202608-00001", uuid.New(), "Acme Association Member", plan, time.Now())
	require.NoError(t, err)
	require.NoError(t, sub.Activate(time.Now()))
	sub.ClearDomainEvents()
	return sub
}

func createTestInvoice(t *testing.T, tenantID uuid.UUID, sub *subscription.Subscription) *billing.Invoice {
	t.Helper()
	amount, err := valueobject.NewMoney(sub.Price, sub.Currency)
	require.NoError(t, err)
	invoice, err := billing.NewInvoice(tenantID, "INV-202608-00001", sub.ID, sub.PartnerID, amount, true, time.Now(), time.Now().AddDate(0, 0, 30))
	require.NoError(t, err)
	return invoice
}
