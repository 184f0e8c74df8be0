package communication

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScheduled(t *testing.T) *Communication {
	t.Helper()
	comm, err := NewCommunication(uuid.New(), uuid.New(), uuid.New(), TypeRenewalReminder, "Your membership renews soon", "renewal_reminder_30", time.Now(), 30)
	require.NoError(t, err)
	return comm
}

func TestNewCommunication(t *testing.T) {
	t.Run("creates scheduled record with dedup key", func(t *testing.T) {
		subID := uuid.New()
		comm, err := NewCommunication(uuid.New(), uuid.New(), subID, TypeRenewalReminder, "Renews soon", "tmpl", time.Now(), 15)
		require.NoError(t, err)
		assert.Equal(t, StateScheduled, comm.State)
		assert.Equal(t, fmt.Sprintf("%s:renewal_reminder:15", subID), comm.DedupKey)
	})

	t.Run("same subscription and offset yields the same key", func(t *testing.T) {
		subID := uuid.New()
		assert.Equal(t, DedupKey(subID, TypeRenewalReminder, 7), DedupKey(subID, TypeRenewalReminder, 7))
		assert.NotEqual(t, DedupKey(subID, TypeRenewalReminder, 7), DedupKey(subID, TypeRenewalReminder, 1))
		assert.NotEqual(t, DedupKey(subID, TypeRenewalReminder, 7), DedupKey(subID, TypeLapsedNotice, 7))
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := NewCommunication(uuid.New(), uuid.New(), uuid.New(), Type("carrier_pigeon"), "Hi", "tmpl", time.Now(), 0)
		assert.Error(t, err)
	})

	t.Run("rejects empty subject", func(t *testing.T) {
		_, err := NewCommunication(uuid.New(), uuid.New(), uuid.New(), TypeWelcome, "", "tmpl", time.Now(), 0)
		assert.Error(t, err)
	})
}

func TestCommunicationLifecycle(t *testing.T) {
	t.Run("scheduled to sent", func(t *testing.T) {
		comm := newScheduled(t)
		require.NoError(t, comm.MarkSent())
		assert.Equal(t, StateSent, comm.State)
		assert.NotNil(t, comm.SentAt)
		assert.Error(t, comm.MarkSent())
		assert.Error(t, comm.Cancel())
	})

	t.Run("failed can be retried", func(t *testing.T) {
		comm := newScheduled(t)
		require.NoError(t, comm.MarkFailed("smtp timeout"))
		assert.Equal(t, StateFailed, comm.State)
		require.NoError(t, comm.MarkSent())
		assert.Empty(t, comm.FailureReason)
	})

	t.Run("cancelled is terminal", func(t *testing.T) {
		comm := newScheduled(t)
		require.NoError(t, comm.Cancel())
		assert.Error(t, comm.MarkSent())
		assert.Error(t, comm.MarkFailed("x"))
	})
}

func TestCommunicationIsDue(t *testing.T) {
	comm := newScheduled(t)
	comm.ScheduledDate = time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)

	assert.False(t, comm.IsDue(comm.ScheduledDate.AddDate(0, 0, -1)))
	assert.True(t, comm.IsDue(comm.ScheduledDate))
	assert.True(t, comm.IsDue(comm.ScheduledDate.AddDate(0, 0, 3)))

	require.NoError(t, comm.MarkSent())
	assert.False(t, comm.IsDue(comm.ScheduledDate.AddDate(0, 0, 3)))
}
