package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ams/backend/internal/domain/billing"
	"github.com/ams/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newMockInvoiceRepository(t *testing.T) (*GormInvoiceRepository, sqlmock.Sqlmock, *sql.DB) {
	gormDB, mock, mockDB := newMockDB(t)
	return NewGormInvoiceRepository(gormDB), mock, mockDB
}

func TestGormInvoiceRepository_FindByNumber(t *testing.T) {
	t.Run("finds existing invoice", func(t *testing.T) {
		repo, mock, mockDB := newMockInvoiceRepository(t)
		defer mockDB.Close()

		invoiceID := uuid.New()
		tenantID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "invoice_number", "amount", "currency", "payment_state", "is_renewal"}).
			AddRow(invoiceID, tenantID, "INV-202608-00001", decimal.NewFromInt(120), "USD", "not_paid", true)

		mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE tenant_id = \$1 AND invoice_number = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, "INV-202608-00001", 1).
			WillReturnRows(rows)

		invoice, err := repo.FindByNumber(context.Background(), tenantID, "INV-202608-00001")

		assert.NoError(t, err)
		require.NotNil(t, invoice)
		assert.Equal(t, invoiceID, invoice.ID)
		assert.Equal(t, billing.PaymentStateNotPaid, invoice.PaymentState)
		assert.True(t, invoice.IsRenewal)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing invoice", func(t *testing.T) {
		repo, mock, mockDB := newMockInvoiceRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "invoices"`).
			WillReturnError(gorm.ErrRecordNotFound)

		invoice, err := repo.FindByNumber(context.Background(), uuid.New(), "INV-000000-00000")

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Nil(t, invoice)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInvoiceRepository_FindOverdue(t *testing.T) {
	repo, mock, mockDB := newMockInvoiceRepository(t)
	defer mockDB.Close()

	tenantID := uuid.New()
	asOf := time.Now()

	rows := sqlmock.NewRows([]string{"id", "tenant_id", "invoice_number", "payment_state", "due_date"}).
		AddRow(uuid.New(), tenantID, "INV-202607-00003", "not_paid", asOf.AddDate(0, 0, -10))

	mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE tenant_id = \$1 AND payment_state IN .* AND due_date < .*`).
		WillReturnRows(rows)

	invoices, err := repo.FindOverdue(context.Background(), tenantID, asOf, shared.Filter{})

	assert.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, billing.PaymentStateNotPaid, invoices[0].PaymentState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormInvoiceRepository_SaveWithLock(t *testing.T) {
	t.Run("returns conflict when row changed underneath", func(t *testing.T) {
		repo, mock, mockDB := newMockInvoiceRepository(t)
		defer mockDB.Close()

		invoice := &billing.Invoice{
			TenantAggregateRoot: shared.NewTenantAggregateRoot(uuid.New()),
			InvoiceNumber:       "INV-202608-00001",
			PaymentState:        billing.PaymentStatePaid,
		}
		invoice.Version = 1

		mock.ExpectExec(`UPDATE "invoices" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveWithLock(context.Background(), invoice)

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInvoiceRepository_GenerateInvoiceNumber(t *testing.T) {
	repo, mock, mockDB := newMockInvoiceRepository(t)
	defer mockDB.Close()

	tenantID := uuid.New()
	yearMonth := time.Now().Format("200601")

	mock.ExpectQuery(`SELECT count\(\*\) FROM "invoices" WHERE tenant_id = \$1 AND invoice_number LIKE \$2`).
		WithArgs(tenantID, fmt.Sprintf("INV-%s-%%", yearMonth)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	number, err := repo.GenerateInvoiceNumber(context.Background(), tenantID)

	assert.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("INV-%s-00001", yearMonth), number)
	assert.NoError(t, mock.ExpectationsWereMet())
}
