package persistence

import (
	"context"

	"github.com/ams/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTenantProvider lists the tenants known to the system. Tenants are
// implicit here: any association with at least one subscription row is
// swept by the daily crons.
type GormTenantProvider struct {
	db *gorm.DB
}

// NewGormTenantProvider creates a new GormTenantProvider
func NewGormTenantProvider(db *gorm.DB) *GormTenantProvider {
	return &GormTenantProvider{db: db}
}

// GetAllActiveTenantIDs returns the distinct tenant IDs with subscriptions
func (p *GormTenantProvider) GetAllActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var tenantIDs []uuid.UUID
	if err := p.db.WithContext(ctx).
		Model(&models.SubscriptionModel{}).
		Distinct("tenant_id").
		Pluck("tenant_id", &tenantIDs).Error; err != nil {
		return nil, err
	}
	return tenantIDs, nil
}

// GetActiveSubscriptionCounts returns the active subscription count per
// tenant, used by the metrics collector gauge.
func (p *GormTenantProvider) GetActiveSubscriptionCounts(ctx context.Context) (map[uuid.UUID]int64, error) {
	type row struct {
		TenantID uuid.UUID
		Count    int64
	}

	var rows []row
	if err := p.db.WithContext(ctx).
		Model(&models.SubscriptionModel{}).
		Select("tenant_id, COUNT(*) as count").
		Where("state = ?", "active").
		Group("tenant_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		counts[r.TenantID] = r.Count
	}
	return counts, nil
}
