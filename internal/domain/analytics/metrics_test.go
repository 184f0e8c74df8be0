package analytics

import (
	"testing"
	"time"

	"github.com/ams/backend/internal/domain/catalog"
	"github.com/ams/backend/internal/domain/shared/valueobject"
	"github.com/ams/backend/internal/domain/subscription"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subInState(t *testing.T, tenantID uuid.UUID, price float64, target subscription.State) subscription.Subscription {
	t.Helper()
	plan, err := catalog.NewPlan(tenantID, "Plan", "PLAN", valueobject.NewMoneyUSDFromFloat(price), catalog.BillingPeriodMonthly, catalog.BillingTypeAnniversary, 1)
	require.NoError(t, err)
	sub, err := subscription.NewSubscription(tenantID, "SUB-202608-00001", uuid.New(), "Ada", plan, time.Now())
	require.NoError(t, err)

	switch target {
	case subscription.StateActive:
		require.NoError(t, sub.Activate(time.Now()))
	case subscription.StatePendingRenewal:
		require.NoError(t, sub.Activate(time.Now()))
		require.NoError(t, sub.MarkPendingRenewal())
	case subscription.StateSuspended:
		require.NoError(t, sub.Activate(time.Now()))
		require.NoError(t, sub.Suspend("payment failure"))
	case subscription.StateCancelled:
		require.NoError(t, sub.Activate(time.Now()))
		require.NoError(t, sub.Cancel("member request"))
	}
	return *sub
}

func TestSumMRR(t *testing.T) {
	tenantID := uuid.New()
	subs := []subscription.Subscription{
		subInState(t, tenantID, 100, subscription.StateActive),
		subInState(t, tenantID, 50, subscription.StatePendingRenewal),
		subInState(t, tenantID, 999, subscription.StateSuspended),
		subInState(t, tenantID, 999, subscription.StateCancelled),
		subInState(t, tenantID, 999, subscription.StateDraft),
	}

	total := SumMRR(subs)
	assert.True(t, total.Equal(decimal.NewFromInt(150)), "only active and pending_renewal count, got %s", total)
	assert.True(t, ARRFromMRR(total).Equal(decimal.NewFromInt(1800)))
}

func TestChurnRate(t *testing.T) {
	tests := []struct {
		name          string
		churned       int64
		activeAtStart int64
		want          string
	}{
		{"normal", 5, 100, "5"},
		{"all churned", 10, 10, "100"},
		{"zero denominator", 5, 0, "0"},
		{"negative denominator", 5, -1, "0"},
		{"no churn", 0, 50, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, err := decimal.NewFromString(tt.want)
			require.NoError(t, err)
			assert.True(t, ChurnRate(tt.churned, tt.activeAtStart).Equal(want))
		})
	}
}

func TestCohortRetentionRate(t *testing.T) {
	row := CohortRow{
		CohortMonth: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		MonthsSince: 6,
		Total:       40,
		StillActive: 30,
	}
	assert.True(t, row.RetentionRate().Equal(decimal.NewFromInt(75)))

	empty := CohortRow{Total: 0, StillActive: 0}
	assert.True(t, empty.RetentionRate().IsZero())
}

func TestRateRounding(t *testing.T) {
	// 1/3 rounds to 33.33
	got := Rate(1, 3)
	want, _ := decimal.NewFromString("33.33")
	assert.True(t, got.Equal(want), "got %s", got)
}
