package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agenda-whatsapp/internal/models"
)

// Both backends must satisfy the same contract; run the suite against each.
func forEachStore(t *testing.T, run func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) {
		run(t, NewInMemoryStore())
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "conversations.db"))
		require.NoError(t, err)
		defer s.Close()
		run(t, s)
	})
}

func TestGetUnknownUser(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		st, err := s.Get("5210000000000@s.whatsapp.net")
		require.NoError(t, err)
		assert.Nil(t, st)
	})
}

func TestUpsertIdentityCreatesOnce(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		const user = "5213312345678@s.whatsapp.net"

		require.NoError(t, s.UpsertIdentity(user, "ACC-001"))
		st, err := s.Get(user)
		require.NoError(t, err)
		require.NotNil(t, st)
		assert.Equal(t, "ACC-001", st.AccountID)
		assert.Equal(t, models.StepIdle, st.Step)
		assert.Empty(t, st.ScheduledDate)
		assert.False(t, st.LastUpdated.IsZero())

		// A second upsert must not replace the account id.
		require.NoError(t, s.UpsertIdentity(user, "ACC-999"))
		st, err = s.Get(user)
		require.NoError(t, err)
		assert.Equal(t, "ACC-001", st.AccountID)
	})
}

func TestSetStepKeepsScheduledDate(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		const user = "5213312345678@s.whatsapp.net"
		require.NoError(t, s.UpsertIdentity(user, "ACC-001"))
		require.NoError(t, s.SetStepAndDate(user, models.StepAwaitingTimeSlotChoice, "sábado, 15 de marzo de 2025"))

		require.NoError(t, s.SetStep(user, models.StepAwaitingDateChoice))
		st, err := s.Get(user)
		require.NoError(t, err)
		assert.Equal(t, models.StepAwaitingDateChoice, st.Step)
		assert.Equal(t, "sábado, 15 de marzo de 2025", st.ScheduledDate)
	})
}

func TestSetStepAndDateWithEmptyLabelClearsDate(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		const user = "5213312345678@s.whatsapp.net"
		require.NoError(t, s.UpsertIdentity(user, "ACC-001"))
		require.NoError(t, s.SetStepAndDate(user, models.StepAwaitingTimeSlotChoice, "mañana"))

		require.NoError(t, s.SetStepAndDate(user, models.StepAwaitingOtherDateInput, ""))
		st, err := s.Get(user)
		require.NoError(t, err)
		assert.Equal(t, models.StepAwaitingOtherDateInput, st.Step)
		assert.Empty(t, st.ScheduledDate)
	})
}

func TestClearPending(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		const user = "5213312345678@s.whatsapp.net"
		require.NoError(t, s.UpsertIdentity(user, "ACC-001"))
		require.NoError(t, s.SetStepAndDate(user, models.StepAwaitingTimeSlotChoice, "mañana"))

		require.NoError(t, s.ClearPending(user))
		st, err := s.Get(user)
		require.NoError(t, err)
		assert.Equal(t, models.StepIdle, st.Step)
		assert.Empty(t, st.ScheduledDate)
		// Identity survives the reset.
		assert.Equal(t, "ACC-001", st.AccountID)
	})
}
