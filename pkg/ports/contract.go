package ports

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor/pkg/domain"
)

// RunStateStoreContract verifies that a StateStore implementation adheres
// to the interface contract. Every adapter's test suite runs it.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	conversationID := "contract-test-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewSessionState()
		state.Turn = 3
		state.Controls["age"] = json.RawMessage(`{"value":42,"defined":true}`)

		err := store.Save(ctx, conversationID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, conversationID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, 3, loaded.Turn)
		assert.JSONEq(t, `{"value":42,"defined":true}`, string(loaded.Controls["age"]))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+conversationID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Load Isolation", func(t *testing.T) {
		state := domain.NewSessionState()
		state.Controls["x"] = json.RawMessage(`"a"`)
		require.NoError(t, store.Save(ctx, conversationID, state))

		first, err := store.Load(ctx, conversationID)
		require.NoError(t, err)
		first.Controls["x"] = json.RawMessage(`"mutated"`)

		second, err := store.Load(ctx, conversationID)
		require.NoError(t, err)
		assert.JSONEq(t, `"a"`, string(second.Controls["x"]),
			"mutating a loaded state must not leak into the store")
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, conversationID, domain.NewSessionState()))

		err := store.Delete(ctx, conversationID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, conversationID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := conversationID + "-1"
		id2 := conversationID + "-2"
		_ = store.Save(ctx, id1, domain.NewSessionState())
		_ = store.Save(ctx, id2, domain.NewSessionState())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		conversations, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, conversations, id1)
		assert.Contains(t, conversations, id2)
	})
}
