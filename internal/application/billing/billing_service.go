package billing

import (
	"context"
	"errors"
	"time"

	"github.com/ams/backend/internal/domain/billing"
	"github.com/ams/backend/internal/domain/catalog"
	"github.com/ams/backend/internal/domain/shared"
	"github.com/ams/backend/internal/domain/shared/valueobject"
	"github.com/ams/backend/internal/domain/subscription"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultInvoiceAdvanceDays is the payment window when the plan does not
// specify one
const DefaultInvoiceAdvanceDays = 30

// BillingService raises recurring invoices from billing schedules
type BillingService struct {
	subRepo      subscription.SubscriptionRepository
	planRepo     catalog.PlanRepository
	invoiceRepo  billing.InvoiceRepository
	scheduleRepo billing.ScheduleRepository
	logger       *zap.Logger
}

// NewBillingService creates a new BillingService
func NewBillingService(
	subRepo subscription.SubscriptionRepository,
	planRepo catalog.PlanRepository,
	invoiceRepo billing.InvoiceRepository,
	scheduleRepo billing.ScheduleRepository,
	logger *zap.Logger,
) *BillingService {
	return &BillingService{
		subRepo:      subRepo,
		planRepo:     planRepo,
		invoiceRepo:  invoiceRepo,
		scheduleRepo: scheduleRepo,
		logger:       logger,
	}
}

// ProcessBilling bills one subscription: raises the invoice for the next
// period, advances the billing date and reschedules. Force bills even when
// the schedule is not due yet, but never bills an inactive schedule or a
// non-billable subscription.
func (s *BillingService) ProcessBilling(ctx context.Context, tenantID, subID uuid.UUID, asOf time.Time, force bool) (*BillingResult, error) {
	sub, err := s.subRepo.FindByIDForTenant(ctx, tenantID, subID)
	if err != nil {
		return nil, err
	}
	return s.billOne(ctx, sub, asOf, force)
}

// RunBilling is the scheduled billing sweep: bills every billable
// subscription whose billing date has arrived. Per-subscription failures are
// isolated.
func (s *BillingService) RunBilling(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*BillingRunResult, error) {
	due, err := s.subRepo.FindBillableDue(ctx, tenantID, asOf)
	if err != nil {
		return nil, err
	}

	run := &BillingRunResult{Results: make([]BillingResult, 0, len(due))}
	for i := range due {
		sub := &due[i]
		result, err := s.billOne(ctx, sub, asOf, false)
		if err != nil {
			s.logger.Warn("billing failed for subscription",
				zap.String("subscription_id", sub.ID.String()),
				zap.Error(err))
			run.Errors++
			run.Results = append(run.Results, BillingResult{SubscriptionID: sub.ID, Reason: err.Error()})
			continue
		}
		s.tally(run, *result)
	}

	s.logger.Info("billing run completed",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("invoiced", run.Invoiced),
		zap.Int("skipped", run.Skipped),
		zap.Int("errors", run.Errors))

	return run, nil
}

// ManualBilling bills the selected subscriptions on demand, isolating
// per-item failures
func (s *BillingService) ManualBilling(ctx context.Context, tenantID uuid.UUID, req ManualBillingRequest) (*BillingRunResult, error) {
	run := &BillingRunResult{Results: make([]BillingResult, 0, len(req.SubscriptionIDs))}
	asOf := time.Now()

	for _, subID := range req.SubscriptionIDs {
		result, err := s.ProcessBilling(ctx, tenantID, subID, asOf, req.Force)
		if err != nil {
			run.Errors++
			run.Results = append(run.Results, BillingResult{SubscriptionID: subID, Reason: err.Error()})
			continue
		}
		s.tally(run, *result)
	}

	return run, nil
}

// GetInvoice retrieves an invoice by ID
func (s *BillingService) GetInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	response := ToInvoiceResponse(inv)
	return &response, nil
}

// ListInvoices returns the invoices for a subscription, newest first
func (s *BillingService) ListInvoices(ctx context.Context, tenantID, subID uuid.UUID, filter shared.Filter) ([]InvoiceResponse, error) {
	invoices, err := s.invoiceRepo.FindBySubscription(ctx, tenantID, subID, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = ToInvoiceResponse(&invoices[i])
	}
	return responses, nil
}

// ListOverdueInvoices returns unsettled invoices past their due date
func (s *BillingService) ListOverdueInvoices(ctx context.Context, tenantID uuid.UUID, asOf time.Time, filter shared.Filter) ([]InvoiceResponse, error) {
	invoices, err := s.invoiceRepo.FindOverdue(ctx, tenantID, asOf, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = ToInvoiceResponse(&invoices[i])
	}
	return responses, nil
}

func (s *BillingService) billOne(ctx context.Context, sub *subscription.Subscription, asOf time.Time, force bool) (*BillingResult, error) {
	if !sub.IsBillable() {
		return &BillingResult{SubscriptionID: sub.ID, Skipped: true, Reason: "subscription is not billable"}, nil
	}
	if sub.IsLifetime {
		return &BillingResult{SubscriptionID: sub.ID, Skipped: true, Reason: "lifetime subscriptions never rebill"}, nil
	}
	if sub.IsSeat() {
		return &BillingResult{SubscriptionID: sub.ID, Skipped: true, Reason: "seats bill through their parent"}, nil
	}
	if !sub.AutoRenew && !force {
		return &BillingResult{SubscriptionID: sub.ID, Skipped: true, Reason: "auto renewal is off"}, nil
	}

	schedule, err := s.scheduleRepo.FindBySubscription(ctx, sub.TenantID, sub.ID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		schedule, err = billing.NewSchedule(sub.TenantID, sub.ID, sub.NextBillingDate)
		if err != nil {
			return nil, err
		}
	}
	if !schedule.IsDue(asOf, force) {
		return &BillingResult{SubscriptionID: sub.ID, Skipped: true, Reason: "schedule is not due"}, nil
	}

	amount, advanceDays, err := s.billingTerms(ctx, sub)
	if err != nil {
		return nil, err
	}

	number, err := s.invoiceRepo.GenerateInvoiceNumber(ctx, sub.TenantID)
	if err != nil {
		return nil, err
	}

	money, err := valueobject.NewMoney(amount, sub.Currency)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_AMOUNT", err.Error())
	}

	invoice, err := billing.NewInvoice(sub.TenantID, number, sub.ID, sub.PartnerID, money, true, asOf, asOf.AddDate(0, 0, advanceDays))
	if err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return nil, err
	}

	if err := sub.AdvanceBillingDate(); err != nil {
		return nil, err
	}
	if err := s.subRepo.SaveWithLock(ctx, sub); err != nil {
		return nil, err
	}

	schedule.MarkRan(asOf, sub.NextBillingDate)
	if err := s.scheduleRepo.Save(ctx, schedule); err != nil {
		return nil, err
	}

	response := ToInvoiceResponse(invoice)
	return &BillingResult{SubscriptionID: sub.ID, Succeeded: true, Invoice: &response}, nil
}

// billingTerms returns the amount to invoice (captured price plus extra-seat
// charges) and the plan's payment window
func (s *BillingService) billingTerms(ctx context.Context, sub *subscription.Subscription) (decimal.Decimal, int, error) {
	plan, err := s.planRepo.FindByIDForTenant(ctx, sub.TenantID, sub.PlanID)
	if err != nil {
		// A withdrawn plan still bills at the captured price
		return sub.Price, DefaultInvoiceAdvanceDays, nil
	}

	advanceDays := plan.InvoiceAdvanceDays
	if advanceDays <= 0 {
		advanceDays = DefaultInvoiceAdvanceDays
	}

	if !plan.SupportsSeats {
		return sub.Price, advanceDays, nil
	}

	seats, err := s.subRepo.CountActiveSeats(ctx, sub.TenantID, sub.ID)
	if err != nil {
		return decimal.Zero, 0, err
	}
	extra := int(seats) - plan.IncludedSeats
	if extra <= 0 {
		return sub.Price, advanceDays, nil
	}
	return sub.Price.Add(plan.AdditionalSeatPrice.Mul(decimal.NewFromInt(int64(extra)))), advanceDays, nil
}

func (s *BillingService) tally(run *BillingRunResult, result BillingResult) {
	if result.Succeeded {
		run.Invoiced++
	} else if result.Skipped {
		run.Skipped++
	}
	run.Results = append(run.Results, result)
}
