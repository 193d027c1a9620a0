package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "LOCAL", cfg.DefaultEnv)
	assert.Equal(t, "sqlite", cfg.Store)
	assert.Contains(t, cfg.Environments, "LOCAL")
}

func TestLoad_ParsesEnvironments(t *testing.T) {
	path := writeConfig(t, `
environments:
  DEV:
    database:
      host: localhost
      port: 5432
      user: dev_user
      password: dev_password
      database: dev_db
    apis:
      rule_engine: https://dev.example.com/rule-engine
      rule_metadata: https://dev.example.com/rule-metadata
  PROD:
    apis:
      rule_engine: https://prod.example.com/rule-engine
      rule_metadata: https://prod.example.com/rule-metadata
default_env: DEV
store: postgres
user: alice
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEV", cfg.DefaultEnv)
	assert.Equal(t, "alice", cfg.User)
	assert.Equal(t, []string{"DEV", "PROD"}, cfg.EnvNames())

	dev := cfg.Environments["DEV"]
	assert.Equal(t, "https://dev.example.com/rule-engine", dev.APIs.RuleEngine)
	assert.Contains(t, dev.Database.DSN(), "dbname=dev_db")
	assert.Contains(t, dev.Database.DSN(), "sslmode=disable")
}

func TestLoad_RejectsUndeclaredDefault(t *testing.T) {
	path := writeConfig(t, `
environments:
  DEV:
    apis:
      rule_engine: https://dev.example.com/rule-engine
default_env: UAT
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "environments: [not: a map")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestResolve_FallsBackToDefault(t *testing.T) {
	cfg := DefaultConfig()

	name, _ := cfg.Resolve("LOCAL")
	assert.Equal(t, "LOCAL", name)

	name, _ = cfg.Resolve("NOPE")
	assert.Equal(t, "LOCAL", name, "unknown environment falls back to default")
}
