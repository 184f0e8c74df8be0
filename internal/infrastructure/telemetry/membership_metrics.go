package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// MetricsError describes a metric initialization failure
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// ErrMeterNil is returned when the meter is nil
var ErrMeterNil = &MetricsError{Op: "NewMembershipMetrics", Err: "meter cannot be nil"}

// ActiveCountProvider supplies the point-in-time subscription counts the
// periodic collector records. It keeps the telemetry layer off the
// domain packages.
type ActiveCountProvider interface {
	// GetActiveSubscriptionCounts returns active subscription counts per tenant
	GetActiveSubscriptionCounts(ctx context.Context) (map[uuid.UUID]int64, error)
}

// MembershipMetrics tracks billing and lifecycle activity: invoices
// issued, payment outcomes, communications delivered, sweep durations,
// and a periodically sampled active-subscription gauge.
type MembershipMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	transitionsTotal    *Counter
	invoicesIssuedTotal *Counter
	invoiceAmountTotal  *Histogram
	paymentsTotal       *Counter
	communicationsTotal *Counter
	sweepDuration       *Histogram

	activeSubscriptions *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	countProvider ActiveCountProvider
}

// MembershipMetricsConfig holds configuration for membership metrics
type MembershipMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	CountProvider   ActiveCountProvider
}

// NewMembershipMetrics creates a new MembershipMetrics instance
func NewMembershipMetrics(cfg MembershipMetricsConfig) (*MembershipMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	mm := &MembershipMetrics{
		meter:         cfg.Meter,
		logger:        logger,
		stopChan:      make(chan struct{}),
		countProvider: cfg.CountProvider,
	}

	var err error

	mm.transitionsTotal, err = NewCounter(cfg.Meter,
		"ams_subscription_transitions_total",
		"Total subscription lifecycle transitions",
		"{transition}")
	if err != nil {
		return nil, err
	}

	mm.invoicesIssuedTotal, err = NewCounter(cfg.Meter,
		"ams_invoices_issued_total",
		"Total invoices issued by billing runs",
		"{invoice}")
	if err != nil {
		return nil, err
	}

	mm.invoiceAmountTotal, err = NewHistogram(cfg.Meter,
		"ams_invoice_amount",
		"Distribution of issued invoice amounts",
		"{amount}")
	if err != nil {
		return nil, err
	}

	mm.paymentsTotal, err = NewCounter(cfg.Meter,
		"ams_payments_total",
		"Total payment attempts by outcome",
		"{payment}")
	if err != nil {
		return nil, err
	}

	mm.communicationsTotal, err = NewCounter(cfg.Meter,
		"ams_communications_sent_total",
		"Total communications delivered by type",
		"{message}")
	if err != nil {
		return nil, err
	}

	mm.sweepDuration, err = NewHistogram(cfg.Meter,
		"ams_sweep_duration_seconds",
		"Duration of scheduled sweep jobs",
		"s")
	if err != nil {
		return nil, err
	}

	mm.activeSubscriptions, err = NewGauge(cfg.Meter,
		"ams_active_subscriptions",
		"Active subscriptions per tenant",
		"{subscription}")
	if err != nil {
		return nil, err
	}

	if cfg.CountProvider != nil {
		interval := cfg.CollectInterval
		if interval == 0 {
			interval = 5 * time.Minute
		}
		mm.collectOnce.Do(func() {
			go mm.collectLoop(interval)
		})
	}

	return mm, nil
}

// RecordTransition records a subscription lifecycle transition
func (mm *MembershipMetrics) RecordTransition(ctx context.Context, tenantID uuid.UUID, toState string) {
	mm.transitionsTotal.Inc(ctx,
		attribute.String("tenant_id", tenantID.String()),
		attribute.String("state", toState),
	)
}

// RecordInvoiceIssued records an issued invoice and its amount
func (mm *MembershipMetrics) RecordInvoiceIssued(ctx context.Context, tenantID uuid.UUID, amount decimal.Decimal, isRenewal bool) {
	attrs := []attribute.KeyValue{
		attribute.String("tenant_id", tenantID.String()),
		attribute.Bool("is_renewal", isRenewal),
	}
	mm.invoicesIssuedTotal.Inc(ctx, attrs...)
	mm.invoiceAmountTotal.Record(ctx, amount.InexactFloat64(), attrs...)
}

// RecordPayment records a payment attempt outcome ("success", "failed",
// "nsf")
func (mm *MembershipMetrics) RecordPayment(ctx context.Context, tenantID uuid.UUID, outcome string) {
	mm.paymentsTotal.Inc(ctx,
		attribute.String("tenant_id", tenantID.String()),
		attribute.String("outcome", outcome),
	)
}

// RecordCommunicationSent records a delivered communication
func (mm *MembershipMetrics) RecordCommunicationSent(ctx context.Context, tenantID uuid.UUID, commType string) {
	mm.communicationsTotal.Inc(ctx,
		attribute.String("tenant_id", tenantID.String()),
		attribute.String("type", commType),
	)
}

// RecordSweepDuration records how long a sweep job took
func (mm *MembershipMetrics) RecordSweepDuration(ctx context.Context, jobType string, d time.Duration) {
	mm.sweepDuration.RecordDuration(ctx, d,
		attribute.String("job_type", jobType),
	)
}

// Stop halts the periodic collector. Safe to call more than once.
func (mm *MembershipMetrics) Stop() {
	mm.stopOnce.Do(func() {
		close(mm.stopChan)
	})
}

func (mm *MembershipMetrics) collectLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-mm.stopChan:
			return
		case <-ticker.C:
			mm.collect()
		}
	}
}

func (mm *MembershipMetrics) collect() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	counts, err := mm.countProvider.GetActiveSubscriptionCounts(ctx)
	if err != nil {
		mm.logger.Warn("failed to collect active subscription counts", zap.Error(err))
		return
	}

	for tenantID, count := range counts {
		mm.activeSubscriptions.Record(ctx, count,
			attribute.String("tenant_id", tenantID.String()),
		)
	}
}
