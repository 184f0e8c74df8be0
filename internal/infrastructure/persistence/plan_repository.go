package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/ams/backend/internal/domain/catalog"
	"github.com/ams/backend/internal/domain/shared"
	"github.com/ams/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPlanRepository implements PlanRepository using GORM
type GormPlanRepository struct {
	db *gorm.DB
}

// NewGormPlanRepository creates a new GormPlanRepository
func NewGormPlanRepository(db *gorm.DB) *GormPlanRepository {
	return &GormPlanRepository{db: db}
}

// FindByID finds a plan by its ID
func (r *GormPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Plan, error) {
	var model models.PlanModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a plan by ID within a tenant
func (r *GormPlanRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Plan, error) {
	var model models.PlanModel
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

// FindByCode finds a plan by its code within a tenant
func (r *GormPlanRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*catalog.Plan, error) {
	var model models.PlanModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND code = ?", tenantID, strings.ToUpper(code)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all plans for a tenant
func (r *GormPlanRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Plan, error) {
	var planModels []models.PlanModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.PlanModel{}).Where("tenant_id = ?", tenantID), filter)

	if err := query.Find(&planModels).Error; err != nil {
		return nil, err
	}

	plans := make([]catalog.Plan, len(planModels))
	for i, model := range planModels {
		plans[i] = *model.ToDomain()
	}
	return plans, nil
}

// FindActiveForTenant finds all active plans for a tenant
func (r *GormPlanRepository) FindActiveForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Plan, error) {
	var planModels []models.PlanModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.PlanModel{}).
			Where("tenant_id = ? AND active = ?", tenantID, true),
		filter,
	)

	if err := query.Find(&planModels).Error; err != nil {
		return nil, err
	}

	plans := make([]catalog.Plan, len(planModels))
	for i, model := range planModels {
		plans[i] = *model.ToDomain()
	}
	return plans, nil
}

// Save creates or updates a plan
func (r *GormPlanRepository) Save(ctx context.Context, plan *catalog.Plan) error {
	model := models.PlanModelFromDomain(plan)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves a plan with optimistic locking (version check).
// Returns shared.ErrConcurrencyConflict if the row changed underneath.
func (r *GormPlanRepository) SaveWithLock(ctx context.Context, plan *catalog.Plan) error {
	model := models.PlanModelFromDomain(plan)
	model.Version = plan.Version + 1

	result := r.db.WithContext(ctx).
		Model(&models.PlanModel{}).
		Where("id = ? AND version = ?", plan.ID, plan.Version).
		Updates(map[string]interface{}{
			"name":                  model.Name,
			"code":                  model.Code,
			"description":           model.Description,
			"price":                 model.Price,
			"currency":              model.Currency,
			"billing_period":        model.BillingPeriod,
			"billing_interval":      model.BillingInterval,
			"billing_type":          model.BillingType,
			"trial_period_days":     model.TrialPeriodDays,
			"auto_renew":            model.AutoRenew,
			"supports_seats":        model.SupportsSeats,
			"included_seats":        model.IncludedSeats,
			"max_seats":             model.MaxSeats,
			"additional_seat_price": model.AdditionalSeatPrice,
			"grace_period_days":     model.GracePeriodDays,
			"invoice_advance_days":  model.InvoiceAdvanceDays,
			"active":                model.Active,
			"sort_order":            model.SortOrder,
			"version":               model.Version,
			"updated_at":            model.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	plan.Version = model.Version
	return nil
}

// Delete deletes a plan
func (r *GormPlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.PlanModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteForTenant deletes a plan within a tenant
func (r *GormPlanRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.PlanModel{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountForTenant counts plans for a tenant
func (r *GormPlanRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.PlanModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByCode checks if a plan with the given code exists in the tenant
func (r *GormPlanRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PlanModel{}).
		Where("tenant_id = ? AND code = ?", tenantID, strings.ToUpper(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies filter options to the query
func (r *GormPlanRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderBy := ValidateSortField(filter.OrderBy, PlanSortFields, "sort_order")
		query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
	} else {
		query = query.Order("sort_order ASC, name ASC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormPlanRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR code ILIKE ?", searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "active":
			query = query.Where("active = ?", value)
		case "billing_period":
			query = query.Where("billing_period = ?", value)
		case "billing_type":
			query = query.Where("billing_type = ?", value)
		case "supports_seats":
			query = query.Where("supports_seats = ?", value)
		}
	}

	return query
}
