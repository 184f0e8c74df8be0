package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/ams/backend/internal/domain/shared"
	"github.com/ams/backend/internal/domain/subscription"
)

// LifecycleAuditHandler writes a structured audit record for every
// subscription lifecycle transition. It subscribes to the state-change
// events only, not to creation.
type LifecycleAuditHandler struct {
	logger *zap.Logger
}

// NewLifecycleAuditHandler creates a new audit handler
func NewLifecycleAuditHandler(logger *zap.Logger) *LifecycleAuditHandler {
	return &LifecycleAuditHandler{logger: logger}
}

// EventTypes returns the lifecycle transitions this handler audits
func (h *LifecycleAuditHandler) EventTypes() []string {
	return []string{
		subscription.EventTypeSubscriptionTrialStarted,
		subscription.EventTypeSubscriptionActivated,
		subscription.EventTypeSubscriptionSuspended,
		subscription.EventTypeSubscriptionCancelled,
		subscription.EventTypeSubscriptionExpired,
		subscription.EventTypeSubscriptionRenewalDue,
	}
}

// Handle logs the transition with tenant and aggregate identifiers
func (h *LifecycleAuditHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.logger.Info("subscription lifecycle transition",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("subscription_id", event.AggregateID().String()),
		zap.String("tenant_id", event.TenantID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	)
	return nil
}

var _ shared.EventHandler = (*LifecycleAuditHandler)(nil)
