package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/parsetrail/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract checks the behaviour every SessionStore must share:
// round trips keep the trace and the cursor, loads are copies, and missing ids
// report domain.ErrSessionNotFound.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		session := domain.NewSession(sessionID)
		session.Replace(domain.Trace{
			Sentence:  "the cat",
			Grammar:   "np --> det,n",
			Algorithm: "bottom-up",
			Steps: []domain.Step{
				{Action: domain.ActionShift, Stack: []string{}, InputIndex: 0},
				{Action: domain.ActionReduce, Rule: domain.NewRule("det", "[the]"), Stack: []string{"[the]"}, InputIndex: 1},
			},
		})
		session.Seek(1)
		session.Applied = 3

		err := store.Save(ctx, sessionID, session)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, session.Sentence, loaded.Sentence)
		assert.Equal(t, session.Algorithm, loaded.Algorithm)
		assert.Equal(t, 1, loaded.Cursor)
		assert.Equal(t, uint64(3), loaded.Applied)
		require.Len(t, loaded.Steps, 2)
		require.NotNil(t, loaded.Steps[1].Rule)
		assert.Equal(t, "det", loaded.Steps[1].Rule.LHS)
		assert.Nil(t, loaded.Steps[0].Rule)
	})

	t.Run("Load Is Isolated", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Cursor = 0
		loaded.Steps = nil

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 1, again.Cursor)
		assert.Len(t, again.Steps, 2)
	})

	t.Run("Cursor Move Persists", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		require.True(t, loaded.Seek(0))
		require.NoError(t, store.Save(ctx, sessionID, loaded))

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 0, again.Cursor)
		assert.Len(t, again.Steps, 2, "moving the cursor must not touch the trace")

		again.Seek(1)
		require.NoError(t, store.Save(ctx, sessionID, again))
	})

	t.Run("Reset Clears Trace", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Reset()
		require.NoError(t, store.Save(ctx, sessionID, loaded))

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Zero(t, again.Len())
		assert.Empty(t, again.Sentence)
		assert.Equal(t, domain.Algorithm(""), again.Algorithm)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, sessionID))

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
		assert.NotContains(t, mustList(t, store), sessionID)
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewSession(id1))
		_ = store.Save(ctx, id2, domain.NewSession(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions := mustList(t, store)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

func mustList(t *testing.T, store SessionStore) []string {
	t.Helper()
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	return ids
}
