package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appbilling "github.com/ams/backend/internal/application/billing"
	appcommunication "github.com/ams/backend/internal/application/communication"
	appsubscription "github.com/ams/backend/internal/application/subscription"
)

// LifecycleSweeper runs the subscription state sweeps
type LifecycleSweeper interface {
	CheckExpiries(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*appsubscription.ExpirySweepResult, error)
}

// BillingSweeper runs the recurring billing sweeps
type BillingSweeper interface {
	RunBilling(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*appbilling.BillingRunResult, error)
}

// DunningSweeper runs the payment retry sweeps
type DunningSweeper interface {
	ProcessPaymentRetries(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*appbilling.RetryRunResult, error)
}

// CommsSweeper generates and delivers scheduled member communications
type CommsSweeper interface {
	GenerateRenewalReminders(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*appcommunication.GenerationResult, error)
	GenerateLapsedNotices(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*appcommunication.GenerationResult, error)
	GenerateWelcomeMessages(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*appcommunication.GenerationResult, error)
	SendScheduledCommunications(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*appcommunication.DeliveryResult, error)
}

// SweepExecutor dispatches scheduler jobs to the application services
type SweepExecutor struct {
	lifecycle LifecycleSweeper
	billing   BillingSweeper
	dunning   DunningSweeper
	comms     CommsSweeper
	logger    *zap.Logger
}

// NewSweepExecutor creates a new SweepExecutor
func NewSweepExecutor(
	lifecycle LifecycleSweeper,
	billing BillingSweeper,
	dunning DunningSweeper,
	comms CommsSweeper,
	logger *zap.Logger,
) *SweepExecutor {
	return &SweepExecutor{
		lifecycle: lifecycle,
		billing:   billing,
		dunning:   dunning,
		comms:     comms,
		logger:    logger,
	}
}

// Execute runs the sweep the job names for the job's tenant
func (e *SweepExecutor) Execute(ctx context.Context, job *Job) error {
	switch job.JobType {
	case JobTypeCheckExpiries:
		result, err := e.lifecycle.CheckExpiries(ctx, job.TenantID, job.AsOf)
		if err != nil {
			return err
		}
		e.logger.Info("Expiry sweep finished",
			zap.String("tenant_id", job.TenantID.String()),
			zap.Int("trials_expired", result.TrialsExpired),
			zap.Int("renewals_due", result.RenewalsDue),
			zap.Int("suspended", result.Suspended),
			zap.Int("expired", result.Expired),
		)
		return nil

	case JobTypeBillingRun:
		result, err := e.billing.RunBilling(ctx, job.TenantID, job.AsOf)
		if err != nil {
			return err
		}
		e.logger.Info("Billing run finished",
			zap.String("tenant_id", job.TenantID.String()),
			zap.Int("invoiced", result.Invoiced),
			zap.Int("skipped", result.Skipped),
			zap.Int("errors", result.Errors),
		)
		return nil

	case JobTypePaymentRetries:
		result, err := e.dunning.ProcessPaymentRetries(ctx, job.TenantID, job.AsOf)
		if err != nil {
			return err
		}
		e.logger.Info("Payment retry sweep finished",
			zap.String("tenant_id", job.TenantID.String()),
			zap.Int("attempted", result.Attempted),
			zap.Int("recovered", result.Recovered),
			zap.Int("exhausted", result.Exhausted),
		)
		return nil

	case JobTypeRenewalReminders:
		_, err := e.comms.GenerateRenewalReminders(ctx, job.TenantID, job.AsOf)
		return err

	case JobTypeLapsedNotices:
		_, err := e.comms.GenerateLapsedNotices(ctx, job.TenantID, job.AsOf)
		return err

	case JobTypeWelcomeMessages:
		_, err := e.comms.GenerateWelcomeMessages(ctx, job.TenantID, job.AsOf)
		return err

	case JobTypeSendCommunications:
		result, err := e.comms.SendScheduledCommunications(ctx, job.TenantID, job.AsOf)
		if err != nil {
			return err
		}
		e.logger.Info("Communication delivery finished",
			zap.String("tenant_id", job.TenantID.String()),
			zap.Int("sent", result.Sent),
			zap.Int("failed", result.Failed),
		)
		return nil

	default:
		return ErrInvalidJobType
	}
}
