package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ams/backend/internal/domain/communication"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockCommunicationRepository(t *testing.T) (*GormCommunicationRepository, sqlmock.Sqlmock, *sql.DB) {
	gormDB, mock, mockDB := newMockDB(t)
	return NewGormCommunicationRepository(gormDB), mock, mockDB
}

func TestGormCommunicationRepository_ExistsByDedupKey(t *testing.T) {
	t.Run("returns true when key exists", func(t *testing.T) {
		repo, mock, mockDB := newMockCommunicationRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		dedupKey := uuid.New().String() + ":renewal_reminder:30"

		mock.ExpectQuery(`SELECT count\(\*\) FROM "communications" WHERE tenant_id = \$1 AND dedup_key = \$2`).
			WithArgs(tenantID, dedupKey).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		exists, err := repo.ExistsByDedupKey(context.Background(), tenantID, dedupKey)

		assert.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns false when key is absent", func(t *testing.T) {
		repo, mock, mockDB := newMockCommunicationRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "communications"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		exists, err := repo.ExistsByDedupKey(context.Background(), uuid.New(), "missing-key")

		assert.NoError(t, err)
		assert.False(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCommunicationRepository_FindDue(t *testing.T) {
	repo, mock, mockDB := newMockCommunicationRepository(t)
	defer mockDB.Close()

	tenantID := uuid.New()
	asOf := time.Now()

	rows := sqlmock.NewRows([]string{"id", "tenant_id", "type", "subject", "state", "scheduled_date", "dedup_key"}).
		AddRow(uuid.New(), tenantID, "renewal_reminder", "Your Professional membership expires in 30 days", "scheduled", asOf.AddDate(0, 0, -1), "a:renewal_reminder:30").
		AddRow(uuid.New(), tenantID, "welcome", "Welcome to Professional", "scheduled", asOf, "b:welcome:0")

	mock.ExpectQuery(`SELECT \* FROM "communications" WHERE tenant_id = \$1 AND state = \$2 AND scheduled_date <= \$3 ORDER BY scheduled_date ASC LIMIT .*`).
		WillReturnRows(rows)

	comms, err := repo.FindDue(context.Background(), tenantID, asOf, 500)

	assert.NoError(t, err)
	require.Len(t, comms, 2)
	assert.Equal(t, communication.TypeRenewalReminder, comms[0].Type)
	assert.Equal(t, communication.StateScheduled, comms[0].State)
	assert.Equal(t, communication.TypeWelcome, comms[1].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}
