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

// GormBackupRepository implements BackupRepository using GORM
type GormBackupRepository struct {
	db *gorm.DB
}

// NewGormBackupRepository creates a new GormBackupRepository
func NewGormBackupRepository(db *gorm.DB) *GormBackupRepository {
	return &GormBackupRepository{db: db}
}

// FindByID finds a backup by its ID
func (r *GormBackupRepository) FindByID(ctx context.Context, id uuid.UUID) (*subscription.Backup, error) {
	var model models.BackupModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a backup by ID within a tenant
func (r *GormBackupRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*subscription.Backup, error) {
	var model models.BackupModel
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

// FindBySubscription finds backups for a subscription, newest first
func (r *GormBackupRepository) FindBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID) ([]subscription.Backup, error) {
	var backupModels []models.BackupModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND subscription_id = ?", tenantID, subscriptionID).
		Order("created_at DESC").
		Find(&backupModels).Error; err != nil {
		return nil, err
	}

	backups := make([]subscription.Backup, len(backupModels))
	for i, model := range backupModels {
		backups[i] = *model.ToDomain()
	}
	return backups, nil
}

// Save creates or updates a backup
func (r *GormBackupRepository) Save(ctx context.Context, backup *subscription.Backup) error {
	model := models.BackupModelFromDomain(backup)
	return r.db.WithContext(ctx).Save(model).Error
}
