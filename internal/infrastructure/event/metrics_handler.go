package event

import (
	"context"

	"github.com/google/uuid"

	"github.com/ams/backend/internal/domain/shared"
	"github.com/ams/backend/internal/domain/subscription"
)

// TransitionRecorder records lifecycle transitions on a metrics backend
type TransitionRecorder interface {
	RecordTransition(ctx context.Context, tenantID uuid.UUID, toState string)
}

// MetricsHandler feeds subscription lifecycle transitions into the
// telemetry counters. Recording is best-effort: the handler never fails
// the publishing side.
type MetricsHandler struct {
	recorder TransitionRecorder
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(recorder TransitionRecorder) *MetricsHandler {
	return &MetricsHandler{recorder: recorder}
}

// EventTypes returns the lifecycle transitions this handler counts
func (h *MetricsHandler) EventTypes() []string {
	return []string{
		subscription.EventTypeSubscriptionTrialStarted,
		subscription.EventTypeSubscriptionActivated,
		subscription.EventTypeSubscriptionSuspended,
		subscription.EventTypeSubscriptionCancelled,
		subscription.EventTypeSubscriptionExpired,
		subscription.EventTypeSubscriptionRenewalDue,
	}
}

// Handle increments the transition counter for the event's target state
func (h *MetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.recorder.RecordTransition(ctx, event.TenantID(), stateForEvent(event.EventType()))
	return nil
}

func stateForEvent(eventType string) string {
	switch eventType {
	case subscription.EventTypeSubscriptionTrialStarted:
		return string(subscription.StateTrial)
	case subscription.EventTypeSubscriptionActivated:
		return string(subscription.StateActive)
	case subscription.EventTypeSubscriptionSuspended:
		return string(subscription.StateSuspended)
	case subscription.EventTypeSubscriptionCancelled:
		return string(subscription.StateCancelled)
	case subscription.EventTypeSubscriptionExpired:
		return string(subscription.StateExpired)
	case subscription.EventTypeSubscriptionRenewalDue:
		return string(subscription.StatePendingRenewal)
	default:
		return eventType
	}
}

var _ shared.EventHandler = (*MetricsHandler)(nil)
