package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruliad/internal/core"
	"ruliad/internal/store"
)

func TestSQLiteGateway(t *testing.T) {
	store.RunGatewayTests(t, func() (store.Gateway, func()) {
		gw, err := NewInMemory()
		require.NoError(t, err)
		return gw, func() { gw.Close() }
	})
}

func TestSQLiteGateway_FileBacked(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ruliad.db")

	gw, err := New(dbPath)
	require.NoError(t, err)

	id, err := gw.Create(context.Background(), &core.Request{
		Name:        "persisted",
		Environment: "DEV",
		RuleName:    "txn_limit",
		Status:      core.StatusActive,
	})
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	// Reopen and verify the record survived.
	gw2, err := New(dbPath)
	require.NoError(t, err)
	defer gw2.Close()

	got, err := gw2.ListRequests(context.Background(), "DEV")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, "persisted", got[0].Name)
}

func TestSQLiteGateway_Closed(t *testing.T) {
	gw, err := NewInMemory()
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	_, err = gw.ListRequests(context.Background(), "DEV")
	assert.ErrorIs(t, err, store.ErrStoreClosed)

	err = gw.Delete(context.Background(), core.KindRequest, "x")
	assert.ErrorIs(t, err, store.ErrStoreClosed)
}
