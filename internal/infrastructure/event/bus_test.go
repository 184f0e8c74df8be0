package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ams/backend/internal/domain/shared"
	"github.com/ams/backend/internal/domain/subscription"
)

type stubEvent struct {
	shared.BaseDomainEvent
}

func newStubEvent(eventType string) *stubEvent {
	return &stubEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Subscription", uuid.New(), uuid.New()),
	}
}

type recordingHandler struct {
	mu       sync.Mutex
	types    []string
	received []shared.DomainEvent
	err      error
	panics   bool
}

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	if h.panics {
		panic("handler exploded")
	}
	h.mu.Lock()
	h.received = append(h.received, event)
	h.mu.Unlock()
	return h.err
}

func (h *recordingHandler) EventTypes() []string {
	return h.types
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.received)
}

func TestInMemoryEventBus_DeliversToSubscribedHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{types: []string{subscription.EventTypeSubscriptionActivated}}
	bus.Subscribe(handler)

	err := bus.Publish(context.Background(), newStubEvent(subscription.EventTypeSubscriptionActivated))

	require.NoError(t, err)
	assert.Equal(t, 1, handler.count())
}

func TestInMemoryEventBus_SkipsUnrelatedEventTypes(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{types: []string{subscription.EventTypeSubscriptionCancelled}}
	bus.Subscribe(handler)

	err := bus.Publish(context.Background(), newStubEvent(subscription.EventTypeSubscriptionActivated))

	require.NoError(t, err)
	assert.Equal(t, 0, handler.count())
}

func TestInMemoryEventBus_WildcardHandlerReceivesAll(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{}
	bus.Subscribe(handler)

	err := bus.Publish(context.Background(),
		newStubEvent(subscription.EventTypeSubscriptionActivated),
		newStubEvent(subscription.EventTypeSubscriptionExpired),
	)

	require.NoError(t, err)
	assert.Equal(t, 2, handler.count())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{types: []string{subscription.EventTypeSubscriptionActivated}}
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	err := bus.Publish(context.Background(), newStubEvent(subscription.EventTypeSubscriptionActivated))

	require.NoError(t, err)
	assert.Equal(t, 0, handler.count())
}

func TestInMemoryEventBus_HandlerErrorDoesNotBlockOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := &recordingHandler{
		types: []string{subscription.EventTypeSubscriptionSuspended},
		err:   errors.New("boom"),
	}
	healthy := &recordingHandler{types: []string{subscription.EventTypeSubscriptionSuspended}}
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newStubEvent(subscription.EventTypeSubscriptionSuspended))

	require.NoError(t, err)
	assert.Equal(t, 1, healthy.count())
}

func TestInMemoryEventBus_RecoversFromHandlerPanic(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	panicking := &recordingHandler{
		types:  []string{subscription.EventTypeSubscriptionExpired},
		panics: true,
	}
	healthy := &recordingHandler{types: []string{subscription.EventTypeSubscriptionExpired}}
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NotPanics(t, func() {
		_ = bus.Publish(context.Background(), newStubEvent(subscription.EventTypeSubscriptionExpired))
	})
	assert.Equal(t, 1, healthy.count())
}

func TestLifecycleAuditHandler(t *testing.T) {
	handler := NewLifecycleAuditHandler(zap.NewNop())

	types := handler.EventTypes()
	assert.Contains(t, types, subscription.EventTypeSubscriptionActivated)
	assert.Contains(t, types, subscription.EventTypeSubscriptionCancelled)
	assert.NotContains(t, types, subscription.EventTypeSubscriptionCreated)

	err := handler.Handle(context.Background(), newStubEvent(subscription.EventTypeSubscriptionActivated))
	assert.NoError(t, err)
}
