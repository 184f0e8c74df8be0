package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ams/backend/internal/domain/shared"
	"github.com/ams/backend/internal/domain/subscription"
	"github.com/ams/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSubscriptionRepository implements SubscriptionRepository using GORM
type GormSubscriptionRepository struct {
	db *gorm.DB
}

// NewGormSubscriptionRepository creates a new GormSubscriptionRepository
func NewGormSubscriptionRepository(db *gorm.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

// FindByID finds a subscription by its ID
func (r *GormSubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	var model models.SubscriptionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a subscription by ID within a tenant
func (r *GormSubscriptionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*subscription.Subscription, error) {
	var model models.SubscriptionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a subscription by its number within a tenant
func (r *GormSubscriptionRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*subscription.Subscription, error) {
	var model models.SubscriptionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND subscription_number = ?", tenantID, number).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all subscriptions for a tenant
func (r *GormSubscriptionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]subscription.Subscription, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.SubscriptionModel{}).Where("tenant_id = ?", tenantID), filter)
	return r.findModels(query)
}

// FindByPartner finds subscriptions belonging to a partner
func (r *GormSubscriptionRepository) FindByPartner(ctx context.Context, tenantID, partnerID uuid.UUID, filter shared.Filter) ([]subscription.Subscription, error) {
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.SubscriptionModel{}).
			Where("tenant_id = ? AND partner_id = ?", tenantID, partnerID),
		filter,
	)
	return r.findModels(query)
}

// FindByState finds subscriptions in a given state for a tenant
func (r *GormSubscriptionRepository) FindByState(ctx context.Context, tenantID uuid.UUID, state subscription.State, filter shared.Filter) ([]subscription.Subscription, error) {
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.SubscriptionModel{}).
			Where("tenant_id = ? AND state = ?", tenantID, state),
		filter,
	)
	return r.findModels(query)
}

// FindBillableDue finds billable subscriptions whose next billing date is due
func (r *GormSubscriptionRepository) FindBillableDue(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]subscription.Subscription, error) {
	query := r.db.WithContext(ctx).Model(&models.SubscriptionModel{}).
		Where("tenant_id = ? AND state IN ? AND next_billing_date IS NOT NULL AND next_billing_date <= ?",
			tenantID, []subscription.State{subscription.StateActive, subscription.StatePendingRenewal}, asOf).
		Order("next_billing_date ASC")
	return r.findModels(query)
}

// FindEndingOn finds active subscriptions whose end date falls on the given
// calendar day
func (r *GormSubscriptionRepository) FindEndingOn(ctx context.Context, tenantID uuid.UUID, date time.Time) ([]subscription.Subscription, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	query := r.db.WithContext(ctx).Model(&models.SubscriptionModel{}).
		Where("tenant_id = ? AND state IN ? AND end_date >= ? AND end_date < ?",
			tenantID,
			[]subscription.State{subscription.StateActive, subscription.StateTrial, subscription.StatePendingRenewal},
			dayStart, dayEnd).
		Order("end_date ASC")
	return r.findModels(query)
}

// FindByStateEndedBefore finds subscriptions in a state whose end date is on
// or before the cutoff
func (r *GormSubscriptionRepository) FindByStateEndedBefore(ctx context.Context, tenantID uuid.UUID, state subscription.State, cutoff time.Time) ([]subscription.Subscription, error) {
	query := r.db.WithContext(ctx).Model(&models.SubscriptionModel{}).
		Where("tenant_id = ? AND state = ? AND end_date IS NOT NULL AND end_date <= ?", tenantID, state, cutoff).
		Order("end_date ASC")
	return r.findModels(query)
}

// FindActivatedBetween finds subscriptions activated inside the window
func (r *GormSubscriptionRepository) FindActivatedBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]subscription.Subscription, error) {
	query := r.db.WithContext(ctx).Model(&models.SubscriptionModel{}).
		Where("tenant_id = ? AND activated_at IS NOT NULL AND activated_at >= ? AND activated_at <= ?", tenantID, from, to).
		Order("activated_at ASC")
	return r.findModels(query)
}

// FindSeats finds child seat subscriptions of a parent
func (r *GormSubscriptionRepository) FindSeats(ctx context.Context, tenantID, parentID uuid.UUID) ([]subscription.Subscription, error) {
	query := r.db.WithContext(ctx).Model(&models.SubscriptionModel{}).
		Where("tenant_id = ? AND parent_subscription_id = ?", tenantID, parentID).
		Order("created_at ASC")
	return r.findModels(query)
}

// CountActiveSeats counts non-terminal seat subscriptions of a parent
func (r *GormSubscriptionRepository) CountActiveSeats(ctx context.Context, tenantID, parentID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SubscriptionModel{}).
		Where("tenant_id = ? AND parent_subscription_id = ? AND state NOT IN ?",
			tenantID, parentID,
			[]subscription.State{subscription.StateCancelled, subscription.StateExpired}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindAtRisk finds billable subscriptions with dunning level at or above the threshold
func (r *GormSubscriptionRepository) FindAtRisk(ctx context.Context, tenantID uuid.UUID, minDunningLevel int, filter shared.Filter) ([]subscription.Subscription, error) {
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.SubscriptionModel{}).
			Where("tenant_id = ? AND state IN ? AND dunning_level >= ?",
				tenantID,
				[]subscription.State{subscription.StateActive, subscription.StatePendingRenewal},
				minDunningLevel),
		filter,
	)
	return r.findModels(query)
}

// Save creates or updates a subscription
func (r *GormSubscriptionRepository) Save(ctx context.Context, sub *subscription.Subscription) error {
	model := models.SubscriptionModelFromDomain(sub)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves a subscription with optimistic locking (version check).
// Returns shared.ErrConcurrencyConflict if the row changed underneath.
func (r *GormSubscriptionRepository) SaveWithLock(ctx context.Context, sub *subscription.Subscription) error {
	model := models.SubscriptionModelFromDomain(sub)
	model.Version = sub.Version + 1

	result := r.db.WithContext(ctx).
		Model(&models.SubscriptionModel{}).
		Where("id = ? AND version = ?", sub.ID, sub.Version).
		Updates(map[string]interface{}{
			"partner_name":         model.PartnerName,
			"plan_name":            model.PlanName,
			"price":                model.Price,
			"currency":             model.Currency,
			"state":                model.State,
			"start_date":           model.StartDate,
			"end_date":             model.EndDate,
			"trial_end_date":       model.TrialEndDate,
			"next_billing_date":    model.NextBillingDate,
			"auto_renew":           model.AutoRenew,
			"dunning_level":        model.DunningLevel,
			"payment_issues":       model.PaymentIssues,
			"last_payment_failure": model.LastPaymentFailure,
			"mrr_amount":           model.MRRAmount,
			"arr_amount":           model.ARRAmount,
			"suspend_reason":       model.SuspendReason,
			"suspended_at":         model.SuspendedAt,
			"cancel_reason":        model.CancelReason,
			"cancelled_at":         model.CancelledAt,
			"activated_at":         model.ActivatedAt,
			"expired_at":           model.ExpiredAt,
			"notes":                model.Notes,
			"version":              model.Version,
			"updated_at":           model.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	sub.Version = model.Version
	return nil
}

// Delete deletes a subscription
func (r *GormSubscriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.SubscriptionModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountForTenant counts subscriptions for a tenant
func (r *GormSubscriptionRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.SubscriptionModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByState counts subscriptions in a state for a tenant
func (r *GormSubscriptionRepository) CountByState(ctx context.Context, tenantID uuid.UUID, state subscription.State) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SubscriptionModel{}).
		Where("tenant_id = ? AND state = ?", tenantID, state).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GenerateSubscriptionNumber generates a new subscription number for the tenant
func (r *GormSubscriptionRepository) GenerateSubscriptionNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	yearMonth := time.Now().Format("200601")
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SubscriptionModel{}).
		Where("tenant_id = ? AND subscription_number LIKE ?", tenantID, fmt.Sprintf("SUB-%s-%%", yearMonth)).
		Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("SUB-%s-%05d", yearMonth, count+1), nil
}

// findModels runs the query and maps the result rows to domain entities
func (r *GormSubscriptionRepository) findModels(query *gorm.DB) ([]subscription.Subscription, error) {
	var subModels []models.SubscriptionModel
	if err := query.Find(&subModels).Error; err != nil {
		return nil, err
	}

	subs := make([]subscription.Subscription, len(subModels))
	for i, model := range subModels {
		subs[i] = *model.ToDomain()
	}
	return subs, nil
}

// applyFilter applies filter options to the query
func (r *GormSubscriptionRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderBy := ValidateSortField(filter.OrderBy, SubscriptionSortFields, "created_at")
		query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormSubscriptionRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("subscription_number ILIKE ? OR partner_name ILIKE ? OR plan_name ILIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "state":
			query = query.Where("state = ?", value)
		case "plan_id":
			query = query.Where("plan_id = ?", value)
		case "partner_id":
			query = query.Where("partner_id = ?", value)
		case "auto_renew":
			query = query.Where("auto_renew = ?", value)
		case "payment_issues":
			query = query.Where("payment_issues = ?", value)
		case "is_lifetime":
			query = query.Where("is_lifetime = ?", value)
		case "seats_only":
			query = query.Where("parent_subscription_id IS NOT NULL")
		}
	}

	return query
}
