package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/ams/backend/internal/domain/billing"
	"github.com/ams/backend/internal/domain/shared"
	"github.com/ams/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormScheduleRepository implements ScheduleRepository using GORM
type GormScheduleRepository struct {
	db *gorm.DB
}

// NewGormScheduleRepository creates a new GormScheduleRepository
func NewGormScheduleRepository(db *gorm.DB) *GormScheduleRepository {
	return &GormScheduleRepository{db: db}
}

// FindByID finds a schedule by its ID
func (r *GormScheduleRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Schedule, error) {
	var model models.ScheduleModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySubscription finds the schedule for a subscription
func (r *GormScheduleRepository) FindBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID) (*billing.Schedule, error) {
	var model models.ScheduleModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND subscription_id = ?", tenantID, subscriptionID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindDue finds active schedules due on or before the given date
func (r *GormScheduleRepository) FindDue(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]billing.Schedule, error) {
	var scheduleModels []models.ScheduleModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND active = ? AND next_run IS NOT NULL AND next_run <= ?", tenantID, true, asOf).
		Order("next_run ASC").
		Find(&scheduleModels).Error; err != nil {
		return nil, err
	}

	schedules := make([]billing.Schedule, len(scheduleModels))
	for i, model := range scheduleModels {
		schedules[i] = *model.ToDomain()
	}
	return schedules, nil
}

// Save creates or updates a schedule
func (r *GormScheduleRepository) Save(ctx context.Context, schedule *billing.Schedule) error {
	model := models.ScheduleModelFromDomain(schedule)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves a schedule with optimistic locking (version check).
// Returns shared.ErrConcurrencyConflict if the row changed underneath.
func (r *GormScheduleRepository) SaveWithLock(ctx context.Context, schedule *billing.Schedule) error {
	model := models.ScheduleModelFromDomain(schedule)
	model.Version = schedule.Version + 1

	result := r.db.WithContext(ctx).
		Model(&models.ScheduleModel{}).
		Where("id = ? AND version = ?", schedule.ID, schedule.Version).
		Updates(map[string]interface{}{
			"active":     model.Active,
			"next_run":   model.NextRun,
			"last_run":   model.LastRun,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	schedule.Version = model.Version
	return nil
}
