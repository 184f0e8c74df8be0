package analytics

import (
	"time"

	"github.com/ams/backend/internal/domain/subscription"
	"github.com/shopspring/decimal"
)

// Dashboard is the tenant-level revenue snapshot served to the UI and
// cached between computations
type Dashboard struct {
	MRR            decimal.Decimal `json:"mrr"`
	ARR            decimal.Decimal `json:"arr"`
	ActiveCount    int64           `json:"active_count"`
	TrialCount     int64           `json:"trial_count"`
	PendingRenewal int64           `json:"pending_renewal_count"`
	SuspendedCount int64           `json:"suspended_count"`
	AtRiskCount    int64           `json:"at_risk_count"`
	ChurnRate      decimal.Decimal `json:"churn_rate"`
	ComputedAt     time.Time       `json:"computed_at"`
	PeriodStart    time.Time       `json:"period_start"`
	PeriodEnd      time.Time       `json:"period_end"`
}

// CohortRow is one cell of the retention matrix: subscriptions started in
// CohortMonth, observed MonthsSince months later
type CohortRow struct {
	CohortMonth time.Time `json:"cohort_month"`
	MonthsSince int       `json:"months_since"`
	Total       int64     `json:"total"`
	StillActive int64     `json:"still_active"`
}

// RetentionRate returns the fraction of the cohort still active, as a
// percentage. Empty cohorts return zero.
func (r CohortRow) RetentionRate() decimal.Decimal {
	return Rate(r.StillActive, r.Total)
}

// SumMRR totals the monthly recurring revenue of the billable
// subscriptions in the slice. Non-billable states contribute nothing.
func SumMRR(subs []subscription.Subscription) decimal.Decimal {
	total := decimal.Zero
	for i := range subs {
		if subs[i].IsBillable() {
			total = total.Add(subs[i].MRRAmount)
		}
	}
	return total
}

// ARRFromMRR annualizes a monthly figure
func ARRFromMRR(mrr decimal.Decimal) decimal.Decimal {
	return mrr.Mul(decimal.NewFromInt(12))
}

// ChurnRate returns churned over active-at-period-start as a percentage.
// A zero denominator means there was nothing to churn and returns zero.
func ChurnRate(churned, activeAtStart int64) decimal.Decimal {
	return Rate(churned, activeAtStart)
}

// Rate returns part over whole as a percentage with a zero-denominator
// guard
func Rate(part, whole int64) decimal.Decimal {
	if whole <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part).
		Div(decimal.NewFromInt(whole)).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}
