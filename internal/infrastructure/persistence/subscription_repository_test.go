package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ams/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	domainsub "github.com/ams/backend/internal/domain/subscription"
)

// newMockDB creates a GORM DB backed by a mocked SQL connection
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func newMockSubscriptionRepository(t *testing.T) (*GormSubscriptionRepository, sqlmock.Sqlmock, *sql.DB) {
	gormDB, mock, mockDB := newMockDB(t)
	return NewGormSubscriptionRepository(gormDB), mock, mockDB
}

func TestGormSubscriptionRepository_FindByIDForTenant(t *testing.T) {
	t.Run("finds existing subscription", func(t *testing.T) {
		repo, mock, mockDB := newMockSubscriptionRepository(t)
		defer mockDB.Close()

		subID := uuid.New()
		tenantID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "subscription_number", "partner_name", "state", "price", "mrr_amount", "arr_amount", "version"}).
			AddRow(subID, tenantID, "SUB-202608-00001", "Ada Lovelace", "active", decimal.NewFromInt(120), decimal.NewFromInt(120), decimal.NewFromInt(1440), 3)

		mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, subID, 1).
			WillReturnRows(rows)

		sub, err := repo.FindByIDForTenant(context.Background(), tenantID, subID)

		assert.NoError(t, err)
		require.NotNil(t, sub)
		assert.Equal(t, subID, sub.ID)
		assert.Equal(t, "SUB-202608-00001", sub.SubscriptionNumber)
		assert.Equal(t, domainsub.StateActive, sub.State)
		assert.Equal(t, 3, sub.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing subscription", func(t *testing.T) {
		repo, mock, mockDB := newMockSubscriptionRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "subscriptions"`).
			WillReturnError(gorm.ErrRecordNotFound)

		sub, err := repo.FindByIDForTenant(context.Background(), uuid.New(), uuid.New())

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Nil(t, sub)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSubscriptionRepository_FindBillableDue(t *testing.T) {
	repo, mock, mockDB := newMockSubscriptionRepository(t)
	defer mockDB.Close()

	tenantID := uuid.New()
	asOf := time.Now()

	rows := sqlmock.NewRows([]string{"id", "tenant_id", "subscription_number", "state", "next_billing_date"}).
		AddRow(uuid.New(), tenantID, "SUB-202608-00001", "active", asOf.AddDate(0, 0, -1)).
		AddRow(uuid.New(), tenantID, "SUB-202608-00002", "pending_renewal", asOf)

	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE tenant_id = \$1 AND state IN .* AND next_billing_date IS NOT NULL AND next_billing_date <= .* ORDER BY next_billing_date ASC`).
		WillReturnRows(rows)

	subs, err := repo.FindBillableDue(context.Background(), tenantID, asOf)

	assert.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, domainsub.StateActive, subs[0].State)
	assert.Equal(t, domainsub.StatePendingRenewal, subs[1].State)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormSubscriptionRepository_SaveWithLock(t *testing.T) {
	t.Run("bumps version on success", func(t *testing.T) {
		repo, mock, mockDB := newMockSubscriptionRepository(t)
		defer mockDB.Close()

		sub := &domainsub.Subscription{
			TenantAggregateRoot: shared.NewTenantAggregateRoot(uuid.New()),
			SubscriptionNumber:  "SUB-202608-00001",
			State:               domainsub.StateActive,
		}
		sub.Version = 2

		mock.ExpectExec(`UPDATE "subscriptions" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SaveWithLock(context.Background(), sub)

		assert.NoError(t, err)
		assert.Equal(t, 3, sub.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns conflict when row changed underneath", func(t *testing.T) {
		repo, mock, mockDB := newMockSubscriptionRepository(t)
		defer mockDB.Close()

		sub := &domainsub.Subscription{
			TenantAggregateRoot: shared.NewTenantAggregateRoot(uuid.New()),
			SubscriptionNumber:  "SUB-202608-00002",
			State:               domainsub.StateActive,
		}
		sub.Version = 2

		mock.ExpectExec(`UPDATE "subscriptions" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveWithLock(context.Background(), sub)

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Equal(t, 2, sub.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSubscriptionRepository_GenerateSubscriptionNumber(t *testing.T) {
	repo, mock, mockDB := newMockSubscriptionRepository(t)
	defer mockDB.Close()

	tenantID := uuid.New()
	yearMonth := time.Now().Format("200601")

	mock.ExpectQuery(`SELECT count\(\*\) FROM "subscriptions" WHERE tenant_id = \$1 AND subscription_number LIKE \$2`).
		WithArgs(tenantID, fmt.Sprintf("SUB-%s-%%", yearMonth)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	number, err := repo.GenerateSubscriptionNumber(context.Background(), tenantID)

	assert.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("SUB-%s-00008", yearMonth), number)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormSubscriptionRepository_CountActiveSeats(t *testing.T) {
	repo, mock, mockDB := newMockSubscriptionRepository(t)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "subscriptions" WHERE tenant_id = \$1 AND parent_subscription_id = \$2 AND state NOT IN`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountActiveSeats(context.Background(), uuid.New(), uuid.New())

	assert.NoError(t, err)
	assert.Equal(t, int64(4), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
