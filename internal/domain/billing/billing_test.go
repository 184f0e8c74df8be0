package billing

import (
	"testing"
	"time"

	"github.com/ams/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInvoice(t *testing.T) *Invoice {
	t.Helper()
	issued := time.Now()
	inv, err := NewInvoice(uuid.New(), "INV-202608-00001", uuid.New(), uuid.New(), valueobject.NewMoneyUSDFromFloat(120), true, issued, issued.AddDate(0, 0, 30))
	require.NoError(t, err)
	return inv
}

func TestNewInvoice(t *testing.T) {
	t.Run("creates unpaid invoice", func(t *testing.T) {
		inv := newTestInvoice(t)
		assert.Equal(t, PaymentStateNotPaid, inv.PaymentState)
		assert.True(t, inv.IsRenewal)
	})

	t.Run("rejects negative amount", func(t *testing.T) {
		issued := time.Now()
		_, err := NewInvoice(uuid.New(), "INV-1", uuid.New(), uuid.New(), valueobject.NewMoneyUSDFromFloat(-1), false, issued, issued)
		assert.Error(t, err)
	})

	t.Run("rejects due date before issue date", func(t *testing.T) {
		issued := time.Now()
		_, err := NewInvoice(uuid.New(), "INV-1", uuid.New(), uuid.New(), valueobject.NewMoneyUSDFromFloat(10), false, issued, issued.AddDate(0, 0, -1))
		assert.Error(t, err)
	})
}

func TestInvoicePaymentStateTransitions(t *testing.T) {
	t.Run("not_paid to paid", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.MarkPaid())
		assert.Equal(t, PaymentStatePaid, inv.PaymentState)
	})

	t.Run("in_payment failure returns to not_paid", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.MarkInPayment())
		require.NoError(t, inv.ReturnToNotPaid())
		assert.Equal(t, PaymentStateNotPaid, inv.PaymentState)
	})

	t.Run("paid can only reverse", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.MarkPaid())
		assert.Error(t, inv.Cancel())
		assert.Error(t, inv.MarkInPayment())
		require.NoError(t, inv.Reverse())
		assert.Equal(t, PaymentStateReversed, inv.PaymentState)
	})

	t.Run("reversed and cancelled are terminal", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.Cancel())
		assert.Error(t, inv.MarkPaid())
		assert.Error(t, inv.MarkInPayment())
	})

	t.Run("partial to paid", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.MarkPartial())
		require.NoError(t, inv.MarkPaid())
	})
}

func TestInvoiceIsOverdue(t *testing.T) {
	inv := newTestInvoice(t)
	assert.False(t, inv.IsOverdue(inv.DueDate))
	assert.True(t, inv.IsOverdue(inv.DueDate.AddDate(0, 0, 1)))

	require.NoError(t, inv.MarkPaid())
	assert.False(t, inv.IsOverdue(inv.DueDate.AddDate(0, 0, 1)), "settled invoices are never overdue")
}

func newTestPayment(t *testing.T) *PaymentRecord {
	t.Helper()
	rec, err := NewPaymentRecord(uuid.New(), uuid.New(), uuid.New(), uuid.New(), decimal.NewFromInt(120))
	require.NoError(t, err)
	return rec
}

func TestPaymentRetryBackoff(t *testing.T) {
	rec := newTestPayment(t)
	failedAt := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	// first failure: retry in 1 day
	require.NoError(t, rec.MarkFailed("card declined", failedAt, nil))
	assert.Equal(t, 1, rec.RetryCount)
	require.NotNil(t, rec.NextRetryDate)
	assert.Equal(t, failedAt.AddDate(0, 0, 1), *rec.NextRetryDate)
	assert.Equal(t, failedAt, *rec.FailureDate)

	// second failure: retry in 3 days, failure date sticks
	secondAt := failedAt.AddDate(0, 0, 1)
	require.NoError(t, rec.MarkFailed("card declined", secondAt, nil))
	assert.Equal(t, 2, rec.RetryCount)
	assert.Equal(t, secondAt.AddDate(0, 0, 3), *rec.NextRetryDate)
	assert.Equal(t, failedAt, *rec.FailureDate, "failure date is the first failure")

	// third failure: retry in 7 days
	thirdAt := secondAt.AddDate(0, 0, 3)
	require.NoError(t, rec.MarkFailed("card declined", thirdAt, nil))
	assert.Equal(t, 3, rec.RetryCount)
	assert.Equal(t, thirdAt.AddDate(0, 0, 7), *rec.NextRetryDate)

	// retries exhausted: no further automatic retry
	fourthAt := thirdAt.AddDate(0, 0, 7)
	require.NoError(t, rec.MarkFailed("card declined", fourthAt, nil))
	assert.True(t, rec.RetryExhausted())
	assert.Nil(t, rec.NextRetryDate)
}

func TestPaymentNSFNeverRetries(t *testing.T) {
	rec := newTestPayment(t)
	at := time.Now()

	require.NoError(t, rec.MarkNSF("insufficient funds", at))
	assert.Equal(t, PaymentStatusNSF, rec.Status)
	assert.Nil(t, rec.NextRetryDate)
	assert.Equal(t, 0, rec.RetryCount)
	assert.True(t, rec.Status.IsFailure())
}

func TestPaymentMarkSuccess(t *testing.T) {
	rec := newTestPayment(t)
	require.NoError(t, rec.MarkFailed("card declined", time.Now(), nil))

	require.NoError(t, rec.MarkSuccess())
	assert.Equal(t, PaymentStatusSuccess, rec.Status)
	assert.Nil(t, rec.NextRetryDate)
	assert.NotNil(t, rec.SucceededAt)

	assert.Error(t, rec.MarkFailed("too late", time.Now(), nil))
	assert.Error(t, rec.MarkSuccess())
}

func TestPaymentCancel(t *testing.T) {
	rec := newTestPayment(t)
	require.NoError(t, rec.MarkFailed("card declined", time.Now(), nil))
	require.NoError(t, rec.Cancel())
	assert.Nil(t, rec.NextRetryDate)

	ok := newTestPayment(t)
	require.NoError(t, ok.MarkSuccess())
	assert.Error(t, ok.Cancel())
}

func TestPaymentIsRetryDue(t *testing.T) {
	rec := newTestPayment(t)
	failedAt := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, rec.MarkFailed("card declined", failedAt, nil))

	assert.False(t, rec.IsRetryDue(failedAt))
	assert.True(t, rec.IsRetryDue(failedAt.AddDate(0, 0, 1)))
	assert.True(t, rec.IsRetryDue(failedAt.AddDate(0, 0, 5)))
}

func TestNextRetryDelayDays(t *testing.T) {
	tests := []struct {
		retryCount int
		wantDays   int
		wantOK     bool
	}{
		{0, 1, true},
		{1, 3, true},
		{2, 7, true},
		{3, 0, false},
		{10, 0, false},
	}

	for _, tt := range tests {
		days, ok := NextRetryDelayDays(tt.retryCount, nil)
		assert.Equal(t, tt.wantOK, ok, "retry %d", tt.retryCount)
		assert.Equal(t, tt.wantDays, days, "retry %d", tt.retryCount)
	}

	t.Run("custom backoff from config", func(t *testing.T) {
		days, ok := NextRetryDelayDays(1, map[int]int{0: 2, 1: 5, 2: 10})
		assert.True(t, ok)
		assert.Equal(t, 5, days)
	})
}

func TestSchedule(t *testing.T) {
	tenantID := uuid.New()
	next := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	t.Run("due on or after next run", func(t *testing.T) {
		sched, err := NewSchedule(tenantID, uuid.New(), &next)
		require.NoError(t, err)
		assert.False(t, sched.IsDue(next.AddDate(0, 0, -1), false))
		assert.True(t, sched.IsDue(next, false))
		assert.True(t, sched.IsDue(next.AddDate(0, 0, 5), false))
	})

	t.Run("force bypasses the date but not active", func(t *testing.T) {
		sched, err := NewSchedule(tenantID, uuid.New(), &next)
		require.NoError(t, err)
		assert.True(t, sched.IsDue(next.AddDate(0, -1, 0), true))

		sched.Deactivate()
		assert.False(t, sched.IsDue(next, true))
	})

	t.Run("nil next run is never due without force", func(t *testing.T) {
		sched, err := NewSchedule(tenantID, uuid.New(), nil)
		require.NoError(t, err)
		assert.False(t, sched.IsDue(time.Now(), false))
	})

	t.Run("mark ran advances", func(t *testing.T) {
		sched, err := NewSchedule(tenantID, uuid.New(), &next)
		require.NoError(t, err)
		newNext := next.AddDate(0, 1, 0)
		sched.MarkRan(next, &newNext)
		assert.Equal(t, next, *sched.LastRun)
		assert.Equal(t, newNext, *sched.NextRun)
	})
}
