package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruliad/internal/config"
	"ruliad/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.User = "tester"
	return cfg
}

func TestNew_WithInjectedGateway(t *testing.T) {
	app, err := New(testConfig(t), WithGateway(store.NewMemory()))
	require.NoError(t, err)
	defer app.Close()

	assert.NotNil(t, app.Gateway())
	assert.NotNil(t, app.Clipboard())
	assert.NotNil(t, app.Logger())
}

func TestNew_SQLiteBackendCreatesDataDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataDir = filepath.Join(cfg.DataDir, "nested")
	cfg.Store = "sqlite"

	app, err := New(cfg)
	require.NoError(t, err)
	defer app.Close()

	assert.FileExists(t, filepath.Join(cfg.DataDir, "ruliad.db"))
}

func TestNew_UnknownStoreBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store = "dynamo"

	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dynamo")
}

func TestApp_CloseIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store = "sqlite"

	app, err := New(cfg)
	require.NoError(t, err)

	require.NoError(t, app.Close())
	require.NoError(t, app.Close())
}
