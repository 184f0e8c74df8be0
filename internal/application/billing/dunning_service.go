package billing

import (
	"context"
	"time"

	"github.com/ams/backend/internal/domain/billing"
	"github.com/ams/backend/internal/domain/communication"
	"github.com/ams/backend/internal/domain/shared"
	"github.com/ams/backend/internal/domain/subscription"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// recentFailureWindowDays is the trailing window checked before dunning
// flags are cleared after a successful payment
const recentFailureWindowDays = 30

// DunningService tracks payment failures, escalates dunning and drives the
// automatic retry sweep
type DunningService struct {
	subRepo     subscription.SubscriptionRepository
	paymentRepo billing.PaymentRecordRepository
	invoiceRepo billing.InvoiceRepository
	commRepo    communication.CommunicationRepository
	charger     billing.Charger
	backoffDays map[int]int
	logger      *zap.Logger
}

// NewDunningService creates a new DunningService. A nil backoff uses the
// default 1/3/7 day ladder.
func NewDunningService(
	subRepo subscription.SubscriptionRepository,
	paymentRepo billing.PaymentRecordRepository,
	invoiceRepo billing.InvoiceRepository,
	commRepo communication.CommunicationRepository,
	charger billing.Charger,
	backoffDays map[int]int,
	logger *zap.Logger,
) *DunningService {
	if backoffDays == nil {
		backoffDays = billing.DefaultRetryBackoffDays
	}
	return &DunningService{
		subRepo:     subRepo,
		paymentRepo: paymentRepo,
		invoiceRepo: invoiceRepo,
		commRepo:    commRepo,
		charger:     charger,
		backoffDays: backoffDays,
		logger:      logger,
	}
}

// OpenPayment creates a pending payment record for an invoice
func (s *DunningService) OpenPayment(ctx context.Context, tenantID, invoiceID uuid.UUID) (*PaymentRecordResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}

	record, err := billing.NewPaymentRecord(tenantID, invoice.SubscriptionID, invoice.PartnerID, invoice.ID, invoice.Amount)
	if err != nil {
		return nil, err
	}
	if err := s.paymentRepo.Save(ctx, record); err != nil {
		return nil, err
	}

	response := ToPaymentRecordResponse(record)
	return &response, nil
}

// RecordPaymentSuccess settles a payment record and its invoice. Dunning is
// only reset when no other failures landed in the trailing window, checked
// against the store rather than the in-memory aggregate.
func (s *DunningService) RecordPaymentSuccess(ctx context.Context, tenantID, recordID uuid.UUID) (*PaymentRecordResponse, error) {
	record, err := s.paymentRepo.FindByIDForTenant(ctx, tenantID, recordID)
	if err != nil {
		return nil, err
	}

	if err := record.MarkSuccess(); err != nil {
		return nil, err
	}
	if err := s.paymentRepo.SaveWithLock(ctx, record); err != nil {
		return nil, err
	}

	s.settleInvoice(ctx, tenantID, record.InvoiceID)

	sub, err := s.subRepo.FindByIDForTenant(ctx, tenantID, record.SubscriptionID)
	if err != nil {
		return nil, err
	}
	sub.ClearPaymentIssues()

	since := time.Now().AddDate(0, 0, -recentFailureWindowDays)
	failures, err := s.paymentRepo.CountRecentFailures(ctx, tenantID, record.PartnerID, since)
	if err != nil {
		return nil, err
	}
	if failures == 0 {
		sub.ResetDunning()
	}

	if err := s.subRepo.SaveWithLock(ctx, sub); err != nil {
		return nil, err
	}

	response := ToPaymentRecordResponse(record)
	return &response, nil
}

// RecordPaymentFailure records a failed attempt, escalates dunning on the
// subscription and schedules a payment-failed notice. NSF failures are never
// retried automatically.
func (s *DunningService) RecordPaymentFailure(ctx context.Context, tenantID, recordID uuid.UUID, req ReportFailureRequest) (*PaymentRecordResponse, error) {
	record, err := s.paymentRepo.FindByIDForTenant(ctx, tenantID, recordID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if req.NSF {
		err = record.MarkNSF(req.Reason, now)
	} else {
		err = record.MarkFailed(req.Reason, now, s.backoffDays)
	}
	if err != nil {
		return nil, err
	}
	if err := s.paymentRepo.SaveWithLock(ctx, record); err != nil {
		return nil, err
	}

	sub, err := s.subRepo.FindByIDForTenant(ctx, tenantID, record.SubscriptionID)
	if err != nil {
		return nil, err
	}
	sub.RecordPaymentFailure(now)
	sub.EscalateDunning()
	if err := s.subRepo.SaveWithLock(ctx, sub); err != nil {
		return nil, err
	}

	s.schedulePaymentFailedNotice(ctx, sub, record)

	response := ToPaymentRecordResponse(record)
	return &response, nil
}

// ProcessPaymentRetries is the scheduled retry sweep: re-charges every
// failed payment whose backoff has elapsed. Per-record failures are
// isolated.
func (s *DunningService) ProcessPaymentRetries(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*RetryRunResult, error) {
	due, err := s.paymentRepo.FindRetryDue(ctx, tenantID, asOf)
	if err != nil {
		return nil, err
	}

	result := &RetryRunResult{}
	for i := range due {
		record := &due[i]
		if !record.IsRetryDue(asOf) {
			continue
		}
		result.Attempted++

		invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, record.InvoiceID)
		if err != nil {
			s.logger.Warn("retry skipped, invoice not loadable",
				zap.String("payment_record_id", record.ID.String()),
				zap.Error(err))
			result.Errors++
			continue
		}

		if chargeErr := s.charger.Charge(ctx, invoice); chargeErr != nil {
			if err := s.retryFailed(ctx, tenantID, record, chargeErr.Error(), asOf); err != nil {
				result.Errors++
				continue
			}
			if record.RetryExhausted() {
				result.Exhausted++
			} else {
				result.Failed++
			}
			continue
		}

		if _, err := s.RecordPaymentSuccess(ctx, tenantID, record.ID); err != nil {
			s.logger.Warn("retry charge succeeded but settlement failed",
				zap.String("payment_record_id", record.ID.String()),
				zap.Error(err))
			result.Errors++
			continue
		}
		result.Recovered++
	}

	s.logger.Info("payment retry sweep completed",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("attempted", result.Attempted),
		zap.Int("recovered", result.Recovered),
		zap.Int("failed", result.Failed),
		zap.Int("exhausted", result.Exhausted))

	return result, nil
}

// ListPaymentRecords returns the payment records for a subscription
func (s *DunningService) ListPaymentRecords(ctx context.Context, tenantID, subID uuid.UUID, filter shared.Filter) ([]PaymentRecordResponse, error) {
	records, err := s.paymentRepo.FindBySubscription(ctx, tenantID, subID, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]PaymentRecordResponse, len(records))
	for i := range records {
		responses[i] = ToPaymentRecordResponse(&records[i])
	}
	return responses, nil
}

func (s *DunningService) retryFailed(ctx context.Context, tenantID uuid.UUID, record *billing.PaymentRecord, reason string, at time.Time) error {
	if err := record.MarkFailed(reason, at, s.backoffDays); err != nil {
		return err
	}
	if err := s.paymentRepo.SaveWithLock(ctx, record); err != nil {
		return err
	}

	sub, err := s.subRepo.FindByIDForTenant(ctx, tenantID, record.SubscriptionID)
	if err != nil {
		return err
	}
	sub.RecordPaymentFailure(at)
	sub.EscalateDunning()
	return s.subRepo.SaveWithLock(ctx, sub)
}

// settleInvoice marks the invoice paid, best effort: the payment record is
// the source of truth and a stuck invoice only warrants a warning
func (s *DunningService) settleInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		s.logger.Warn("invoice not loadable after payment success",
			zap.String("invoice_id", invoiceID.String()),
			zap.Error(err))
		return
	}
	if err := invoice.MarkPaid(); err != nil {
		s.logger.Warn("invoice refused paid transition",
			zap.String("invoice_id", invoiceID.String()),
			zap.Error(err))
		return
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		s.logger.Warn("failed to save settled invoice",
			zap.String("invoice_id", invoiceID.String()),
			zap.Error(err))
	}
}

// schedulePaymentFailedNotice queues a payment-failed communication, deduped
// per retry count so each failure notifies once
func (s *DunningService) schedulePaymentFailedNotice(ctx context.Context, sub *subscription.Subscription, record *billing.PaymentRecord) {
	dedupKey := communication.DedupKey(sub.ID, communication.TypePaymentFailed, record.RetryCount)
	exists, err := s.commRepo.ExistsByDedupKey(ctx, sub.TenantID, dedupKey)
	if err != nil || exists {
		return
	}

	comm, err := communication.NewCommunication(
		sub.TenantID, sub.PartnerID, sub.ID,
		communication.TypePaymentFailed,
		"Payment failed for "+sub.PlanName,
		"payment_failed",
		time.Now(),
		record.RetryCount,
	)
	if err != nil {
		s.logger.Warn("failed to build payment-failed notice",
			zap.String("subscription_id", sub.ID.String()),
			zap.Error(err))
		return
	}
	if err := s.commRepo.Save(ctx, comm); err != nil {
		s.logger.Warn("failed to queue payment-failed notice",
			zap.String("subscription_id", sub.ID.String()),
			zap.Error(err))
	}
}
