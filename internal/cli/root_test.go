package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruliad/internal/core"
	"ruliad/internal/store/sqlite"
)

// writeTestConfig points RULIAD_CONFIG at a temp config whose DEV
// engine is the given URL, and returns the data dir.
func writeTestConfig(t *testing.T, engineURL string) string {
	t.Helper()

	dataDir := t.TempDir()
	cfgPath := filepath.Join(dataDir, "config.yaml")
	cfg := fmt.Sprintf(`environments:
  DEV:
    apis:
      rule_engine: %s
      rule_metadata: %s
default_env: DEV
data_dir: %s
user: tester
store: sqlite
`, engineURL, engineURL, dataDir)

	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	t.Setenv("RULIAD_CONFIG", cfgPath)
	return dataDir
}

func seedRequest(t *testing.T, dataDir string, req *core.Request) {
	t.Helper()
	st, err := sqlite.New(filepath.Join(dataDir, "ruliad.db"))
	require.NoError(t, err)
	defer st.Close()

	_, err = st.Create(context.Background(), req)
	require.NoError(t, err)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmd := NewRootCommand("1.0.0")

	names := make([]string, 0)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "run")
	assert.Contains(t, names, "history")
	assert.Contains(t, names, "rules")
	assert.Contains(t, names, "import")

	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("verbose"))
}

func TestRunCommand_ExecutesStoredRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"result":true,"status":"success","executionTime":3}`)
	}))
	defer server.Close()

	dataDir := writeTestConfig(t, server.URL)
	seedRequest(t, dataDir, &core.Request{
		Name:        "smoke",
		Environment: "DEV",
		RuleName:    "txn_limit",
		PersonaType: "customer",
		PersonaID:   "p-1",
		Status:      core.StatusActive,
	})

	out, err := execute(t, "run", "smoke", "--env", "DEV")
	require.NoError(t, err)
	assert.Contains(t, out, "smoke (txn_limit)")
	assert.Contains(t, out, "decision: success")
}

func TestRunCommand_UnknownRequest(t *testing.T) {
	dataDir := writeTestConfig(t, "http://localhost:0")
	_ = dataDir

	_, err := execute(t, "run", "missing", "--env", "DEV")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestRunCommand_FailedRuleExitsNonZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"result":false,"status":"success","executionTime":2}`)
	}))
	defer server.Close()

	dataDir := writeTestConfig(t, server.URL)
	seedRequest(t, dataDir, &core.Request{
		Name:        "blocked",
		Environment: "DEV",
		RuleName:    "txn_limit",
		Status:      core.StatusActive,
	})

	_, err := execute(t, "run", "blocked", "--env", "DEV")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "txn_limit")
}

func TestImportCommand_StoresSuiteFromFile(t *testing.T) {
	dataDir := writeTestConfig(t, "http://localhost:0")

	suitePath := filepath.Join(t.TempDir(), "priority.csv")
	content := "rule_name,xid,expected_result\ntxn_limit,tx-1,true\nkyc_required,tx-2,false\n"
	require.NoError(t, os.WriteFile(suitePath, []byte(content), 0o644))

	out, err := execute(t, "import", suitePath, "--env", "DEV")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported priority: 2 entries into DEV")

	st, err := sqlite.New(filepath.Join(dataDir, "ruliad.db"))
	require.NoError(t, err)
	defer st.Close()

	suites, err := st.ListSuites(context.Background(), "DEV")
	require.NoError(t, err)
	require.Len(t, suites, 1)
	assert.Equal(t, "priority", suites[0].Name)
	assert.Len(t, suites[0].Entries, 2)
}

func TestImportCommand_RejectsMalformedFile(t *testing.T) {
	writeTestConfig(t, "http://localhost:0")

	suitePath := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(suitePath, []byte("txn_limit,tx-1,maybe\n"), 0o644))

	_, err := execute(t, "import", suitePath, "--env", "DEV")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected_result")
}

func TestRulesCommand_ListsDeployedRules(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"name":"txn_limit","description":"Transaction limit check"},{"name":"kyc_required"}]`)
	}))
	defer server.Close()

	writeTestConfig(t, server.URL)

	out, err := execute(t, "rules", "--env", "DEV")
	require.NoError(t, err)
	assert.Contains(t, out, "txn_limit")
	assert.Contains(t, out, "Transaction limit check")
	assert.Contains(t, out, "kyc_required")
}

func TestHistoryCommand_EmptyEnvironment(t *testing.T) {
	writeTestConfig(t, "http://localhost:0")

	out, err := execute(t, "history", "--env", "DEV")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded for DEV")
}

func TestHistoryCommand_ShowsRecordedRuns(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"result":true,"status":"success","executionTime":1}`)
	}))
	defer server.Close()

	dataDir := writeTestConfig(t, server.URL)
	seedRequest(t, dataDir, &core.Request{
		Name:        "smoke",
		Environment: "DEV",
		RuleName:    "txn_limit",
		Status:      core.StatusActive,
	})

	_, err := execute(t, "run", "smoke", "--env", "DEV")
	require.NoError(t, err)

	out, err := execute(t, "history", "--env", "DEV")
	require.NoError(t, err)
	assert.Contains(t, out, "request")
	assert.Contains(t, out, "tester")
}
