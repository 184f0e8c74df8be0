package communication

import (
	"context"
	"time"

	"github.com/ams/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Sender delivers a communication to a member. The repo ships a logged
// no-op implementation; real mailers plug in behind this interface.
type Sender interface {
	Send(ctx context.Context, comm *Communication) error
}

// CommunicationRepository defines the interface for communication persistence
type CommunicationRepository interface {
	// FindByID finds a communication by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Communication, error)

	// FindByIDForTenant finds a communication by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Communication, error)

	// FindBySubscription finds communications for a subscription
	FindBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID, filter shared.Filter) ([]Communication, error)

	// FindByPartner finds communications for a partner
	FindByPartner(ctx context.Context, tenantID, partnerID uuid.UUID, filter shared.Filter) ([]Communication, error)

	// FindDue finds scheduled communications due on or before the given date
	FindDue(ctx context.Context, tenantID uuid.UUID, asOf time.Time, limit int) ([]Communication, error)

	// ExistsByDedupKey checks whether a communication with the dedup key
	// already exists, making the generating crons idempotent
	ExistsByDedupKey(ctx context.Context, tenantID uuid.UUID, dedupKey string) (bool, error)

	// Save creates or updates a communication
	Save(ctx context.Context, comm *Communication) error

	// CountForTenant counts communications for a tenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
}
