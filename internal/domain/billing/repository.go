package billing

import (
	"context"
	"time"

	"github.com/ams/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByID finds an invoice by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByIDForTenant finds an invoice by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)

	// FindByNumber finds an invoice by number for a tenant
	FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*Invoice, error)

	// FindBySubscription finds invoices for a subscription, newest first
	FindBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID, filter shared.Filter) ([]Invoice, error)

	// FindByPartner finds invoices for a partner
	FindByPartner(ctx context.Context, tenantID, partnerID uuid.UUID, filter shared.Filter) ([]Invoice, error)

	// FindOverdue finds unsettled invoices past their due date
	FindOverdue(ctx context.Context, tenantID uuid.UUID, asOf time.Time, filter shared.Filter) ([]Invoice, error)

	// Save creates or updates an invoice
	Save(ctx context.Context, invoice *Invoice) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, invoice *Invoice) error

	// CountForTenant counts invoices for a tenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// GenerateInvoiceNumber generates a unique invoice number for a tenant
	GenerateInvoiceNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// PaymentRecordRepository defines the interface for payment record persistence
type PaymentRecordRepository interface {
	// FindByID finds a payment record by ID
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentRecord, error)

	// FindByIDForTenant finds a payment record by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*PaymentRecord, error)

	// FindBySubscription finds payment records for a subscription
	FindBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID, filter shared.Filter) ([]PaymentRecord, error)

	// FindByInvoice finds payment records for an invoice
	FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]PaymentRecord, error)

	// FindRetryDue finds failed records whose next retry date is on or
	// before the given date
	FindRetryDue(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]PaymentRecord, error)

	// CountRecentFailures counts failed or nsf records for a partner since
	// the cutoff. Dunning flags are only cleared when this returns zero.
	CountRecentFailures(ctx context.Context, tenantID, partnerID uuid.UUID, since time.Time) (int64, error)

	// Save creates or updates a payment record
	Save(ctx context.Context, record *PaymentRecord) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, record *PaymentRecord) error
}

// ScheduleRepository defines the interface for billing schedule persistence
type ScheduleRepository interface {
	// FindByID finds a schedule by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Schedule, error)

	// FindBySubscription finds the schedule for a subscription
	FindBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID) (*Schedule, error)

	// FindDue finds active schedules due on or before the given date
	FindDue(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]Schedule, error)

	// Save creates or updates a schedule
	Save(ctx context.Context, schedule *Schedule) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, schedule *Schedule) error
}
