package analytics

import (
	"context"
	"time"

	"github.com/ams/backend/internal/domain/subscription"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReadRepository is the read-only query surface backing the analytics
// aggregator. It never mutates subscription data.
type ReadRepository interface {
	// SumMRR totals mrr_amount over billable subscriptions for a tenant
	SumMRR(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error)

	// CountByState counts subscriptions in a state
	CountByState(ctx context.Context, tenantID uuid.UUID, state subscription.State) (int64, error)

	// CountAtRisk counts billable subscriptions with dunning level at or
	// above the threshold
	CountAtRisk(ctx context.Context, tenantID uuid.UUID, minDunningLevel int) (int64, error)

	// CountChurned counts subscriptions cancelled or expired in the window
	CountChurned(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (int64, error)

	// CountActiveAt counts subscriptions that were active at the instant
	CountActiveAt(ctx context.Context, tenantID uuid.UUID, at time.Time) (int64, error)

	// CohortRows returns the retention matrix for cohorts started within
	// the trailing number of months, excluding renewals
	CohortRows(ctx context.Context, tenantID uuid.UUID, months int, asOf time.Time) ([]CohortRow, error)
}
