package subscription

import (
	"context"
	"errors"
	"time"

	"github.com/ams/backend/internal/domain/catalog"
	"github.com/ams/backend/internal/domain/shared"
	"github.com/ams/backend/internal/domain/subscription"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RenewalService handles subscription renewals, proration previews and
// pre-change backups
type RenewalService struct {
	subRepo     subscription.SubscriptionRepository
	renewalRepo subscription.RenewalRepository
	backupRepo  subscription.BackupRepository
	planRepo    catalog.PlanRepository
	logger      *zap.Logger
}

// NewRenewalService creates a new RenewalService
func NewRenewalService(
	subRepo subscription.SubscriptionRepository,
	renewalRepo subscription.RenewalRepository,
	backupRepo subscription.BackupRepository,
	planRepo catalog.PlanRepository,
	logger *zap.Logger,
) *RenewalService {
	return &RenewalService{
		subRepo:     subRepo,
		renewalRepo: renewalRepo,
		backupRepo:  backupRepo,
		planRepo:    planRepo,
		logger:      logger,
	}
}

// CreateRenewal opens a renewal for a subscription. Effective "immediate"
// renews from today, "period_end" (the default) from the current end date.
// Only one open renewal is allowed per subscription.
func (s *RenewalService) CreateRenewal(ctx context.Context, tenantID, subID uuid.UUID, req CreateRenewalRequest) (*RenewalResponse, error) {
	sub, err := s.subRepo.FindByIDForTenant(ctx, tenantID, subID)
	if err != nil {
		return nil, err
	}

	open, err := s.renewalRepo.FindOpenBySubscription(ctx, tenantID, subID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if open != nil {
		return nil, shared.NewDomainError("RENEWAL_OPEN", "Subscription already has an open renewal")
	}

	renewalDate := time.Now()
	if req.Effective != "immediate" && sub.EndDate != nil {
		renewalDate = *sub.EndDate
	}

	amount, err := s.renewalAmount(ctx, sub)
	if err != nil {
		return nil, err
	}

	renewal, err := subscription.NewRenewal(sub, renewalDate, amount)
	if err != nil {
		return nil, err
	}
	if err := renewal.MarkPending(); err != nil {
		return nil, err
	}

	if err := s.renewalRepo.Save(ctx, renewal); err != nil {
		return nil, err
	}

	if sub.State == subscription.StateActive {
		if err := sub.MarkPendingRenewal(); err != nil {
			return nil, err
		}
		if err := s.subRepo.SaveWithLock(ctx, sub); err != nil {
			return nil, err
		}
	}

	response := ToRenewalResponse(renewal)
	return &response, nil
}

// ConfirmRenewal confirms a pending renewal and extends the subscription's
// term. Dunning and payment issue flags are reset.
func (s *RenewalService) ConfirmRenewal(ctx context.Context, tenantID, renewalID uuid.UUID) (*RenewalResponse, error) {
	renewal, err := s.renewalRepo.FindByIDForTenant(ctx, tenantID, renewalID)
	if err != nil {
		return nil, err
	}

	sub, err := s.subRepo.FindByIDForTenant(ctx, tenantID, renewal.SubscriptionID)
	if err != nil {
		return nil, err
	}

	if err := renewal.Confirm(); err != nil {
		return nil, err
	}
	if err := sub.ConfirmRenewal(renewal.NewEndDate); err != nil {
		return nil, err
	}

	if err := s.renewalRepo.SaveWithLock(ctx, renewal); err != nil {
		return nil, err
	}
	if err := s.subRepo.SaveWithLock(ctx, sub); err != nil {
		return nil, err
	}

	response := ToRenewalResponse(renewal)
	return &response, nil
}

// CancelRenewal cancels an open renewal. A subscription that was marked
// pending_renewal for it reverts to active.
func (s *RenewalService) CancelRenewal(ctx context.Context, tenantID, renewalID uuid.UUID) (*RenewalResponse, error) {
	renewal, err := s.renewalRepo.FindByIDForTenant(ctx, tenantID, renewalID)
	if err != nil {
		return nil, err
	}

	if err := renewal.Cancel(); err != nil {
		return nil, err
	}
	if err := s.renewalRepo.SaveWithLock(ctx, renewal); err != nil {
		return nil, err
	}

	sub, err := s.subRepo.FindByIDForTenant(ctx, tenantID, renewal.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.State == subscription.StatePendingRenewal {
		if err := sub.RevertToActive(); err != nil {
			return nil, err
		}
		if err := s.subRepo.SaveWithLock(ctx, sub); err != nil {
			return nil, err
		}
	}

	response := ToRenewalResponse(renewal)
	return &response, nil
}

// ListRenewals returns the renewals for a subscription, newest first
func (s *RenewalService) ListRenewals(ctx context.Context, tenantID, subID uuid.UUID) ([]RenewalResponse, error) {
	renewals, err := s.renewalRepo.FindBySubscription(ctx, tenantID, subID)
	if err != nil {
		return nil, err
	}
	responses := make([]RenewalResponse, len(renewals))
	for i := range renewals {
		responses[i] = ToRenewalResponse(&renewals[i])
	}
	return responses, nil
}

// PreviewProration computes the refund that early cancellation as of the
// given date would produce. Past-due terms refund nothing.
func (s *RenewalService) PreviewProration(ctx context.Context, tenantID, subID uuid.UUID, asOf time.Time) (*ProrationResponse, error) {
	sub, err := s.subRepo.FindByIDForTenant(ctx, tenantID, subID)
	if err != nil {
		return nil, err
	}
	if sub.IsLifetime {
		return nil, shared.NewDomainError("INVALID_STATE", "Lifetime subscriptions are not prorated")
	}
	if sub.EndDate == nil {
		return nil, shared.NewDomainError("INVALID_STATE", "Subscription has no end date to prorate against")
	}

	daysRemaining := int(sub.EndDate.Sub(asOf).Hours() / 24)
	if daysRemaining < 0 {
		daysRemaining = 0
	}

	return &ProrationResponse{
		SubscriptionID: sub.ID,
		DaysRemaining:  daysRemaining,
		DailyRate:      subscription.DailyRate(sub.Price, sub.BillingPeriod, sub.BillingInterval).Round(4),
		RefundAmount:   subscription.ProratedRefund(sub.Price, sub.BillingPeriod, sub.BillingInterval, daysRemaining),
	}, nil
}

// CreateBackup snapshots a subscription's mutable fields before a
// destructive change
func (s *RenewalService) CreateBackup(ctx context.Context, tenantID, subID uuid.UUID, reason string) (*BackupResponse, error) {
	sub, err := s.subRepo.FindByIDForTenant(ctx, tenantID, subID)
	if err != nil {
		return nil, err
	}

	backup, err := subscription.NewBackup(sub, reason)
	if err != nil {
		return nil, err
	}

	if err := s.backupRepo.Save(ctx, backup); err != nil {
		return nil, err
	}

	response := ToBackupResponse(backup)
	return &response, nil
}

// RestoreBackup writes a backup's snapshot back onto its subscription. Each
// backup restores at most once.
func (s *RenewalService) RestoreBackup(ctx context.Context, tenantID, backupID uuid.UUID) (*SubscriptionResponse, error) {
	backup, err := s.backupRepo.FindByIDForTenant(ctx, tenantID, backupID)
	if err != nil {
		return nil, err
	}

	sub, err := s.subRepo.FindByIDForTenant(ctx, tenantID, backup.SubscriptionID)
	if err != nil {
		return nil, err
	}

	if err := backup.ApplyTo(sub); err != nil {
		return nil, err
	}

	if err := s.subRepo.SaveWithLock(ctx, sub); err != nil {
		return nil, err
	}
	if err := s.backupRepo.Save(ctx, backup); err != nil {
		return nil, err
	}

	s.logger.Info("subscription restored from backup",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("backup_id", backup.ID.String()))

	response := ToSubscriptionResponse(sub)
	return &response, nil
}

// ListBackups returns the backups taken for a subscription
func (s *RenewalService) ListBackups(ctx context.Context, tenantID, subID uuid.UUID) ([]BackupResponse, error) {
	backups, err := s.backupRepo.FindBySubscription(ctx, tenantID, subID)
	if err != nil {
		return nil, err
	}
	responses := make([]BackupResponse, len(backups))
	for i := range backups {
		responses[i] = ToBackupResponse(&backups[i])
	}
	return responses, nil
}

// renewalAmount is the captured price plus seat charges for seats beyond
// the plan's included allowance
func (s *RenewalService) renewalAmount(ctx context.Context, sub *subscription.Subscription) (decimal.Decimal, error) {
	plan, err := s.planRepo.FindByIDForTenant(ctx, sub.TenantID, sub.PlanID)
	if err != nil || !plan.SupportsSeats {
		// A withdrawn plan still renews at the captured price
		return sub.Price, nil
	}

	seats, err := s.subRepo.CountActiveSeats(ctx, sub.TenantID, sub.ID)
	if err != nil {
		return decimal.Zero, err
	}
	extra := int(seats) - plan.IncludedSeats
	if extra <= 0 {
		return sub.Price, nil
	}
	return sub.Price.Add(plan.AdditionalSeatPrice.Mul(decimal.NewFromInt(int64(extra)))), nil
}
