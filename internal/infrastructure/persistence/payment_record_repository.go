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

// GormPaymentRecordRepository implements PaymentRecordRepository using GORM
type GormPaymentRecordRepository struct {
	db *gorm.DB
}

// NewGormPaymentRecordRepository creates a new GormPaymentRecordRepository
func NewGormPaymentRecordRepository(db *gorm.DB) *GormPaymentRecordRepository {
	return &GormPaymentRecordRepository{db: db}
}

// FindByID finds a payment record by its ID
func (r *GormPaymentRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.PaymentRecord, error) {
	var model models.PaymentRecordModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a payment record by ID within a tenant
func (r *GormPaymentRecordRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.PaymentRecord, error) {
	var model models.PaymentRecordModel
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

// FindBySubscription finds payment records for a subscription
func (r *GormPaymentRecordRepository) FindBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID, filter shared.Filter) ([]billing.PaymentRecord, error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentRecordModel{}).
		Where("tenant_id = ? AND subscription_id = ?", tenantID, subscriptionID)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	query = query.Order("created_at DESC")

	return r.findModels(query)
}

// FindByInvoice finds payment records for an invoice
func (r *GormPaymentRecordRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]billing.PaymentRecord, error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentRecordModel{}).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).
		Order("created_at DESC")
	return r.findModels(query)
}

// FindRetryDue finds failed records whose next retry date is due
func (r *GormPaymentRecordRepository) FindRetryDue(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]billing.PaymentRecord, error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentRecordModel{}).
		Where("tenant_id = ? AND status = ? AND next_retry_date IS NOT NULL AND next_retry_date <= ?",
			tenantID, billing.PaymentStatusFailed, asOf).
		Order("next_retry_date ASC")
	return r.findModels(query)
}

// CountRecentFailures counts failed or nsf records for a partner since the cutoff
func (r *GormPaymentRecordRepository) CountRecentFailures(ctx context.Context, tenantID, partnerID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentRecordModel{}).
		Where("tenant_id = ? AND partner_id = ? AND status IN ? AND failure_date >= ?",
			tenantID, partnerID,
			[]billing.PaymentStatus{billing.PaymentStatusFailed, billing.PaymentStatusNSF},
			since).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a payment record
func (r *GormPaymentRecordRepository) Save(ctx context.Context, record *billing.PaymentRecord) error {
	model := models.PaymentRecordModelFromDomain(record)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves a payment record with optimistic locking (version check).
// Returns shared.ErrConcurrencyConflict if the row changed underneath.
func (r *GormPaymentRecordRepository) SaveWithLock(ctx context.Context, record *billing.PaymentRecord) error {
	model := models.PaymentRecordModelFromDomain(record)
	model.Version = record.Version + 1

	result := r.db.WithContext(ctx).
		Model(&models.PaymentRecordModel{}).
		Where("id = ? AND version = ?", record.ID, record.Version).
		Updates(map[string]interface{}{
			"status":          model.Status,
			"failure_date":    model.FailureDate,
			"failure_reason":  model.FailureReason,
			"retry_count":     model.RetryCount,
			"next_retry_date": model.NextRetryDate,
			"succeeded_at":    model.SucceededAt,
			"version":         model.Version,
			"updated_at":      model.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	record.Version = model.Version
	return nil
}

// findModels runs the query and maps the result rows to domain entities
func (r *GormPaymentRecordRepository) findModels(query *gorm.DB) ([]billing.PaymentRecord, error) {
	var recordModels []models.PaymentRecordModel
	if err := query.Find(&recordModels).Error; err != nil {
		return nil, err
	}

	records := make([]billing.PaymentRecord, len(recordModels))
	for i, model := range recordModels {
		records[i] = *model.ToDomain()
	}
	return records, nil
}
