package subscription

import (
	"context"
	"time"

	"github.com/ams/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SubscriptionRepository defines the interface for subscription persistence
type SubscriptionRepository interface {
	// FindByID finds a subscription by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Subscription, error)

	// FindByIDForTenant finds a subscription by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Subscription, error)

	// FindByNumber finds a subscription by its number for a tenant
	FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*Subscription, error)

	// FindAllForTenant finds all subscriptions for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Subscription, error)

	// FindByPartner finds subscriptions belonging to a partner
	FindByPartner(ctx context.Context, tenantID, partnerID uuid.UUID, filter shared.Filter) ([]Subscription, error)

	// FindByState finds subscriptions in a given state for a tenant
	FindByState(ctx context.Context, tenantID uuid.UUID, state State, filter shared.Filter) ([]Subscription, error)

	// FindBillableDue finds active and pending_renewal subscriptions whose
	// next billing date is on or before the given date
	FindBillableDue(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]Subscription, error)

	// FindEndingOn finds active subscriptions whose end date falls on the
	// given date, used for renewal reminder offsets
	FindEndingOn(ctx context.Context, tenantID uuid.UUID, date time.Time) ([]Subscription, error)

	// FindByStateEndedBefore finds subscriptions in the given state whose
	// end date is on or before the cutoff. The lifecycle cron uses it for
	// trial expiry, grace suspension and terminal expiry sweeps.
	FindByStateEndedBefore(ctx context.Context, tenantID uuid.UUID, state State, cutoff time.Time) ([]Subscription, error)

	// FindActivatedBetween finds subscriptions activated inside the window,
	// used to generate welcome communications idempotently
	FindActivatedBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]Subscription, error)

	// FindSeats finds child seat subscriptions of a parent
	FindSeats(ctx context.Context, tenantID, parentID uuid.UUID) ([]Subscription, error)

	// CountActiveSeats counts non-terminal seat subscriptions of a parent
	CountActiveSeats(ctx context.Context, tenantID, parentID uuid.UUID) (int64, error)

	// FindAtRisk finds billable subscriptions with dunning level at or above the threshold
	FindAtRisk(ctx context.Context, tenantID uuid.UUID, minDunningLevel int, filter shared.Filter) ([]Subscription, error)

	// Save creates or updates a subscription
	Save(ctx context.Context, sub *Subscription) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, sub *Subscription) error

	// Delete deletes a subscription (soft delete)
	Delete(ctx context.Context, id uuid.UUID) error

	// CountForTenant counts subscriptions for a tenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// CountByState counts subscriptions in a state for a tenant
	CountByState(ctx context.Context, tenantID uuid.UUID, state State) (int64, error)

	// GenerateSubscriptionNumber generates a unique subscription number for a tenant
	GenerateSubscriptionNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// RenewalRepository defines the interface for renewal persistence
type RenewalRepository interface {
	// FindByID finds a renewal by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Renewal, error)

	// FindByIDForTenant finds a renewal by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Renewal, error)

	// FindBySubscription finds renewals for a subscription, newest first
	FindBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID) ([]Renewal, error)

	// FindOpenBySubscription finds the draft or pending renewal for a
	// subscription, if any
	FindOpenBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID) (*Renewal, error)

	// Save creates or updates a renewal
	Save(ctx context.Context, renewal *Renewal) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, renewal *Renewal) error
}

// BackupRepository defines the interface for subscription backup persistence
type BackupRepository interface {
	// FindByID finds a backup by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Backup, error)

	// FindByIDForTenant finds a backup by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Backup, error)

	// FindBySubscription finds backups for a subscription, newest first
	FindBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID) ([]Backup, error)

	// Save creates or updates a backup
	Save(ctx context.Context, backup *Backup) error
}
