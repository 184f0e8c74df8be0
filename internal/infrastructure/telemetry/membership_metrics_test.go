package telemetry_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/ams/backend/internal/infrastructure/telemetry"
)

func TestNewMembershipMetrics(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	mm, err := telemetry.NewMembershipMetrics(telemetry.MembershipMetricsConfig{
		Meter:  meter,
		Logger: zap.NewNop(),
	})

	require.NoError(t, err)
	require.NotNil(t, mm)
}

func TestNewMembershipMetrics_NilMeter(t *testing.T) {
	mm, err := telemetry.NewMembershipMetrics(telemetry.MembershipMetricsConfig{
		Meter:  nil,
		Logger: zap.NewNop(),
	})

	require.Error(t, err)
	assert.Nil(t, mm)
	assert.Equal(t, "NewMembershipMetrics: meter cannot be nil", err.Error())
}

func TestMembershipMetrics_RecordersDoNotPanic(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	mm, err := telemetry.NewMembershipMetrics(telemetry.MembershipMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	ctx := context.Background()
	tenantID := uuid.New()

	mm.RecordTransition(ctx, tenantID, "active")
	mm.RecordInvoiceIssued(ctx, tenantID, decimal.NewFromInt(99), true)
	mm.RecordPayment(ctx, tenantID, "success")
	mm.RecordPayment(ctx, tenantID, "nsf")
	mm.RecordCommunicationSent(ctx, tenantID, "renewal_reminder")
	mm.RecordSweepDuration(ctx, "BILLING_RUN", 250*time.Millisecond)
}

type stubCountProvider struct {
	mu     sync.Mutex
	called bool
}

func (p *stubCountProvider) GetActiveSubscriptionCounts(_ context.Context) (map[uuid.UUID]int64, error) {
	p.mu.Lock()
	p.called = true
	p.mu.Unlock()
	return map[uuid.UUID]int64{uuid.New(): 3}, nil
}

func (p *stubCountProvider) wasCalled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.called
}

func TestMembershipMetrics_PeriodicCollection(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	provider := &stubCountProvider{}

	mm, err := telemetry.NewMembershipMetrics(telemetry.MembershipMetricsConfig{
		Meter:           meter,
		Logger:          zap.NewNop(),
		CollectInterval: 10 * time.Millisecond,
		CountProvider:   provider,
	})
	require.NoError(t, err)
	defer mm.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for !provider.wasCalled() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	assert.True(t, provider.wasCalled())
}

func TestMembershipMetrics_StopIsIdempotent(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	mm, err := telemetry.NewMembershipMetrics(telemetry.MembershipMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	mm.Stop()
	mm.Stop()
}
