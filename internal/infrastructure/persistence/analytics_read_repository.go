package persistence

import (
	"context"
	"time"

	"github.com/ams/backend/internal/domain/analytics"
	"github.com/ams/backend/internal/domain/subscription"
	"github.com/ams/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// billableStates are the subscription states counted toward recurring revenue
var billableStates = []subscription.State{
	subscription.StateActive,
	subscription.StatePendingRenewal,
}

// GormAnalyticsReadRepository implements the analytics ReadRepository with
// aggregate queries over the subscriptions table
type GormAnalyticsReadRepository struct {
	db *gorm.DB
}

// NewGormAnalyticsReadRepository creates a new GormAnalyticsReadRepository
func NewGormAnalyticsReadRepository(db *gorm.DB) *GormAnalyticsReadRepository {
	return &GormAnalyticsReadRepository{db: db}
}

// SumMRR totals mrr_amount over billable subscriptions for a tenant
func (r *GormAnalyticsReadRepository) SumMRR(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	type sumResult struct {
		Total decimal.Decimal
	}
	var result sumResult

	if err := r.db.WithContext(ctx).
		Model(&models.SubscriptionModel{}).
		Select("COALESCE(SUM(mrr_amount), 0) as total").
		Where("tenant_id = ? AND state IN ?", tenantID, billableStates).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// CountByState counts subscriptions in a state
func (r *GormAnalyticsReadRepository) CountByState(ctx context.Context, tenantID uuid.UUID, state subscription.State) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SubscriptionModel{}).
		Where("tenant_id = ? AND state = ?", tenantID, state).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountAtRisk counts billable subscriptions with dunning level at or above the threshold
func (r *GormAnalyticsReadRepository) CountAtRisk(ctx context.Context, tenantID uuid.UUID, minDunningLevel int) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SubscriptionModel{}).
		Where("tenant_id = ? AND state IN ? AND dunning_level >= ?", tenantID, billableStates, minDunningLevel).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountChurned counts subscriptions cancelled or expired in the window
func (r *GormAnalyticsReadRepository) CountChurned(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SubscriptionModel{}).
		Where("tenant_id = ?", tenantID).
		Where("(state = ? AND cancelled_at >= ? AND cancelled_at <= ?) OR (state = ? AND expired_at >= ? AND expired_at <= ?)",
			subscription.StateCancelled, from, to,
			subscription.StateExpired, from, to).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountActiveAt counts subscriptions that were active at the given instant.
// A subscription counts if it had been activated and had not yet been
// cancelled or expired at that time.
func (r *GormAnalyticsReadRepository) CountActiveAt(ctx context.Context, tenantID uuid.UUID, at time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SubscriptionModel{}).
		Where("tenant_id = ? AND activated_at IS NOT NULL AND activated_at <= ?", tenantID, at).
		Where("(cancelled_at IS NULL OR cancelled_at > ?)", at).
		Where("(expired_at IS NULL OR expired_at > ?)", at).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CohortRows returns the retention matrix for cohorts started within the
// trailing number of months. Each row is one (cohort month, months since)
// cell; a subscription is still active in a cell when it had been activated
// and had not churned by the observation instant. Seat subscriptions are
// excluded since they follow their parent.
func (r *GormAnalyticsReadRepository) CohortRows(ctx context.Context, tenantID uuid.UUID, months int, asOf time.Time) ([]analytics.CohortRow, error) {
	windowStart := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, asOf.Location()).AddDate(0, -(months - 1), 0)

	var rows []analytics.CohortRow
	err := r.db.WithContext(ctx).Raw(`
		WITH cohorts AS (
			SELECT
				date_trunc('month', start_date) AS cohort_month,
				activated_at,
				cancelled_at,
				expired_at
			FROM subscriptions
			WHERE tenant_id = ?
			  AND start_date >= ?
			  AND parent_subscription_id IS NULL
		), offsets AS (
			SELECT generate_series(0, ?) AS months_since
		)
		SELECT
			c.cohort_month,
			o.months_since,
			COUNT(*) AS total,
			COUNT(*) FILTER (
				WHERE c.activated_at IS NOT NULL
				  AND c.activated_at <= c.cohort_month + (o.months_since * INTERVAL '1 month')
				  AND (c.cancelled_at IS NULL OR c.cancelled_at > c.cohort_month + (o.months_since * INTERVAL '1 month'))
				  AND (c.expired_at IS NULL OR c.expired_at > c.cohort_month + (o.months_since * INTERVAL '1 month'))
			) AS still_active
		FROM cohorts c
		CROSS JOIN offsets o
		WHERE c.cohort_month + (o.months_since * INTERVAL '1 month') <= ?
		GROUP BY c.cohort_month, o.months_since
		ORDER BY c.cohort_month ASC, o.months_since ASC
	`, tenantID, windowStart, months-1, asOf).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
