package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/ams/backend/internal/domain/communication"
	"github.com/ams/backend/internal/domain/shared"
	"github.com/ams/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCommunicationRepository implements CommunicationRepository using GORM
type GormCommunicationRepository struct {
	db *gorm.DB
}

// NewGormCommunicationRepository creates a new GormCommunicationRepository
func NewGormCommunicationRepository(db *gorm.DB) *GormCommunicationRepository {
	return &GormCommunicationRepository{db: db}
}

// FindByID finds a communication by its ID
func (r *GormCommunicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*communication.Communication, error) {
	var model models.CommunicationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a communication by ID within a tenant
func (r *GormCommunicationRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*communication.Communication, error) {
	var model models.CommunicationModel
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

// FindBySubscription finds communications for a subscription
func (r *GormCommunicationRepository) FindBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID, filter shared.Filter) ([]communication.Communication, error) {
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.CommunicationModel{}).
			Where("tenant_id = ? AND subscription_id = ?", tenantID, subscriptionID),
		filter,
	)
	return r.findModels(query)
}

// FindByPartner finds communications for a partner
func (r *GormCommunicationRepository) FindByPartner(ctx context.Context, tenantID, partnerID uuid.UUID, filter shared.Filter) ([]communication.Communication, error) {
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.CommunicationModel{}).
			Where("tenant_id = ? AND partner_id = ?", tenantID, partnerID),
		filter,
	)
	return r.findModels(query)
}

// FindDue finds scheduled communications due on or before the given date
func (r *GormCommunicationRepository) FindDue(ctx context.Context, tenantID uuid.UUID, asOf time.Time, limit int) ([]communication.Communication, error) {
	query := r.db.WithContext(ctx).Model(&models.CommunicationModel{}).
		Where("tenant_id = ? AND state = ? AND scheduled_date <= ?", tenantID, communication.StateScheduled, asOf).
		Order("scheduled_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	return r.findModels(query)
}

// ExistsByDedupKey checks whether a communication with the dedup key already exists
func (r *GormCommunicationRepository) ExistsByDedupKey(ctx context.Context, tenantID uuid.UUID, dedupKey string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CommunicationModel{}).
		Where("tenant_id = ? AND dedup_key = ?", tenantID, dedupKey).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a communication
func (r *GormCommunicationRepository) Save(ctx context.Context, comm *communication.Communication) error {
	model := models.CommunicationModelFromDomain(comm)
	return r.db.WithContext(ctx).Save(model).Error
}

// CountForTenant counts communications for a tenant
func (r *GormCommunicationRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.CommunicationModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// findModels runs the query and maps the result rows to domain entities
func (r *GormCommunicationRepository) findModels(query *gorm.DB) ([]communication.Communication, error) {
	var commModels []models.CommunicationModel
	if err := query.Find(&commModels).Error; err != nil {
		return nil, err
	}

	comms := make([]communication.Communication, len(commModels))
	for i, model := range commModels {
		comms[i] = *model.ToDomain()
	}
	return comms, nil
}

// applyFilter applies filter options to the query
func (r *GormCommunicationRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderBy := ValidateSortField(filter.OrderBy, CommunicationSortFields, "scheduled_date")
		query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
	} else {
		query = query.Order("scheduled_date DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormCommunicationRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("subject ILIKE ?", searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "type":
			query = query.Where("type = ?", value)
		case "state":
			query = query.Where("state = ?", value)
		case "subscription_id":
			query = query.Where("subscription_id = ?", value)
		}
	}

	return query
}
