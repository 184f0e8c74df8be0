package event

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ams/backend/internal/domain/subscription"
)

type recordedTransition struct {
	tenantID uuid.UUID
	toState  string
}

type stubTransitionRecorder struct {
	mu          sync.Mutex
	transitions []recordedTransition
}

func (r *stubTransitionRecorder) RecordTransition(_ context.Context, tenantID uuid.UUID, toState string) {
	r.mu.Lock()
	r.transitions = append(r.transitions, recordedTransition{tenantID: tenantID, toState: toState})
	r.mu.Unlock()
}

func (r *stubTransitionRecorder) snapshot() []recordedTransition {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]recordedTransition, len(r.transitions))
	copy(out, r.transitions)
	return out
}

func TestMetricsHandler_RecordsTransitionState(t *testing.T) {
	tests := []struct {
		eventType string
		wantState string
	}{
		{subscription.EventTypeSubscriptionTrialStarted, string(subscription.StateTrial)},
		{subscription.EventTypeSubscriptionActivated, string(subscription.StateActive)},
		{subscription.EventTypeSubscriptionSuspended, string(subscription.StateSuspended)},
		{subscription.EventTypeSubscriptionCancelled, string(subscription.StateCancelled)},
		{subscription.EventTypeSubscriptionExpired, string(subscription.StateExpired)},
		{subscription.EventTypeSubscriptionRenewalDue, string(subscription.StatePendingRenewal)},
	}

	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			recorder := &stubTransitionRecorder{}
			handler := NewMetricsHandler(recorder)
			event := newStubEvent(tt.eventType)

			err := handler.Handle(context.Background(), event)

			require.NoError(t, err)
			got := recorder.snapshot()
			require.Len(t, got, 1)
			assert.Equal(t, event.TenantID(), got[0].tenantID)
			assert.Equal(t, tt.wantState, got[0].toState)
		})
	}
}

func TestMetricsHandler_SubscribedToLifecycleEventsOnly(t *testing.T) {
	handler := NewMetricsHandler(&stubTransitionRecorder{})

	types := handler.EventTypes()

	assert.Len(t, types, 6)
	assert.NotContains(t, types, subscription.EventTypeSubscriptionCreated)
}

func TestMetricsHandler_CountsThroughBus(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	recorder := &stubTransitionRecorder{}
	bus.Subscribe(NewMetricsHandler(recorder))

	require.NoError(t, bus.Publish(context.Background(), newStubEvent(subscription.EventTypeSubscriptionActivated)))
	require.NoError(t, bus.Publish(context.Background(), newStubEvent(subscription.EventTypeSubscriptionCreated)))

	got := recorder.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, string(subscription.StateActive), got[0].toState)
}
