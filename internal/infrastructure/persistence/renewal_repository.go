package persistence

import (
	"context"
	"errors"

	"github.com/ams/backend/internal/domain/shared"
	"github.com/ams/backend/internal/domain/subscription"
	"github.com/ams/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormRenewalRepository implements RenewalRepository using GORM
type GormRenewalRepository struct {
	db *gorm.DB
}

// NewGormRenewalRepository creates a new GormRenewalRepository
func NewGormRenewalRepository(db *gorm.DB) *GormRenewalRepository {
	return &GormRenewalRepository{db: db}
}

// FindByID finds a renewal by its ID
func (r *GormRenewalRepository) FindByID(ctx context.Context, id uuid.UUID) (*subscription.Renewal, error) {
	var model models.RenewalModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a renewal by ID within a tenant
func (r *GormRenewalRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*subscription.Renewal, error) {
	var model models.RenewalModel
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

// FindBySubscription finds renewals for a subscription, newest first
func (r *GormRenewalRepository) FindBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID) ([]subscription.Renewal, error) {
	var renewalModels []models.RenewalModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND subscription_id = ?", tenantID, subscriptionID).
		Order("renewal_date DESC").
		Find(&renewalModels).Error; err != nil {
		return nil, err
	}

	renewals := make([]subscription.Renewal, len(renewalModels))
	for i, model := range renewalModels {
		renewals[i] = *model.ToDomain()
	}
	return renewals, nil
}

// FindOpenBySubscription finds the draft or pending renewal for a subscription
func (r *GormRenewalRepository) FindOpenBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID) (*subscription.Renewal, error) {
	var model models.RenewalModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND subscription_id = ? AND state IN ?",
			tenantID, subscriptionID,
			[]subscription.RenewalState{subscription.RenewalStateDraft, subscription.RenewalStatePending}).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a renewal
func (r *GormRenewalRepository) Save(ctx context.Context, renewal *subscription.Renewal) error {
	model := models.RenewalModelFromDomain(renewal)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves a renewal with optimistic locking (version check).
// Returns shared.ErrConcurrencyConflict if the row changed underneath.
func (r *GormRenewalRepository) SaveWithLock(ctx context.Context, renewal *subscription.Renewal) error {
	model := models.RenewalModelFromDomain(renewal)
	model.Version = renewal.Version + 1

	result := r.db.WithContext(ctx).
		Model(&models.RenewalModel{}).
		Where("id = ? AND version = ?", renewal.ID, renewal.Version).
		Updates(map[string]interface{}{
			"renewal_date": model.RenewalDate,
			"new_end_date": model.NewEndDate,
			"amount":       model.Amount,
			"state":        model.State,
			"confirmed_at": model.ConfirmedAt,
			"cancelled_at": model.CancelledAt,
			"version":      model.Version,
			"updated_at":   model.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	renewal.Version = model.Version
	return nil
}
