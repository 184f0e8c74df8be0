package catalog

import (
	"context"

	"github.com/ams/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PlanRepository defines the interface for plan persistence
type PlanRepository interface {
	// FindByID finds a plan by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Plan, error)

	// FindByIDForTenant finds a plan by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Plan, error)

	// FindByCode finds a plan by code for a tenant
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Plan, error)

	// FindAllForTenant finds all plans for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Plan, error)

	// FindActiveForTenant finds all active plans for a tenant
	FindActiveForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Plan, error)

	// Save creates or updates a plan
	Save(ctx context.Context, plan *Plan) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, plan *Plan) error

	// Delete deletes a plan (soft delete)
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteForTenant deletes a plan for a tenant
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error

	// CountForTenant counts plans for a tenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// ExistsByCode checks if a plan code exists for a tenant
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
}
