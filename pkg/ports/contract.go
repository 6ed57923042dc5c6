package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	t.Helper()
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405.000000")

	t.Run("Save and Load", func(t *testing.T) {
		sess := domain.NewSession(sessionID)
		sess.State = domain.StateVerification
		sess.AddUser("loan")
		sess.Pending = append(sess.Pending, "Please provide your PAN number (ABCDE1234F).")
		sess.Data.Apply(domain.Patch{
			Name:           domain.Put("Asha Rao"),
			ApprovedAmount: domain.Put(int64(200_000)),
			Tenure:         domain.Put(12),
			EMI:            domain.Put(decimal.RequireFromString("16666.67")),
		})

		require.NoError(t, store.Save(ctx, sessionID, sess), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sessionID, loaded.ID)
		assert.Equal(t, domain.StateVerification, loaded.State)
		assert.Equal(t, sess.History, loaded.History)
		assert.Equal(t, sess.Pending, loaded.Pending)
		require.NotNil(t, loaded.Data.Name)
		assert.Equal(t, "Asha Rao", *loaded.Data.Name)
		require.NotNil(t, loaded.Data.ApprovedAmount)
		assert.Equal(t, int64(200_000), *loaded.Data.ApprovedAmount)
		require.NotNil(t, loaded.Data.EMI)
		assert.Equal(t, "16666.67", loaded.Data.EMI.StringFixed(2))
		assert.Nil(t, loaded.Data.Income, "unset fields must stay unset")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, domain.NewSession(sessionID)))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Deleting twice should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, domain.NewSession(id1)))
		require.NoError(t, store.Save(ctx, id2, domain.NewSession(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
