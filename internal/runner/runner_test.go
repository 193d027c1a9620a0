package runner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruliad/internal/core"
	"ruliad/internal/engine"
	"ruliad/internal/store"
)

// ruleServer fakes the rule engine: rules listed in passing evaluate true,
// everything else false.
func ruleServer(t *testing.T, passing map[string]bool) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var input engine.ExecuteInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&input))
		json.NewEncoder(w).Encode(engine.ExecuteResult{
			Result:        passing[input.RuleName],
			Status:        "evaluated",
			ExecutionTime: 1,
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRunner_RunRequest(t *testing.T) {
	t.Run("records a successful run", func(t *testing.T) {
		srv := ruleServer(t, map[string]bool{"txn_limit": true})
		gw := store.NewMemory()
		defer gw.Close()

		r := New("DEV", engine.NewClient(srv.URL), gw, "tester")
		result, err := r.RunRequest(context.Background(), &core.Request{
			ID:       "req-1",
			Name:     "req",
			RuleName: "txn_limit",
		})
		require.NoError(t, err)
		assert.True(t, result.Passed)

		runs, err := gw.RunHistory(context.Background(), "DEV", core.KindRequest, "req-1")
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, StatusSuccess, runs[0].Status)
		assert.Equal(t, "tester", runs[0].CreatedBy)
	})

	t.Run("a failed evaluation is recorded as failure", func(t *testing.T) {
		srv := ruleServer(t, map[string]bool{})
		gw := store.NewMemory()
		defer gw.Close()

		r := New("DEV", engine.NewClient(srv.URL), gw, "tester")
		result, err := r.RunRequest(context.Background(), &core.Request{
			ID: "req-1", Name: "req", RuleName: "denied",
		})
		require.NoError(t, err)
		assert.False(t, result.Passed)

		runs, _ := gw.RunHistory(context.Background(), "DEV", core.KindRequest, "req-1")
		require.Len(t, runs, 1)
		assert.Equal(t, StatusFailure, runs[0].Status)
	})

	t.Run("an engine error is recorded as error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()
		gw := store.NewMemory()
		defer gw.Close()

		r := New("DEV", engine.NewClient(srv.URL), gw, "tester")
		_, err := r.RunRequest(context.Background(), &core.Request{
			ID: "req-1", Name: "req", RuleName: "r",
		})
		require.Error(t, err)

		runs, _ := gw.RunHistory(context.Background(), "DEV", core.KindRequest, "req-1")
		require.Len(t, runs, 1)
		assert.Equal(t, StatusError, runs[0].Status)
		assert.Contains(t, runs[0].Result, "error")
	})
}

func TestRunner_RunSuite(t *testing.T) {
	suite := &core.Suite{
		ID:   "suite-1",
		Name: "regression",
		Entries: []core.SuiteEntry{
			{RuleName: "pass_rule", XID: "x1", ExpectedResult: true},
			{RuleName: "fail_rule", XID: "x2", ExpectedResult: false},
			{RuleName: "pass_rule", XID: "x3", ExpectedResult: false},
		},
	}

	t.Run("tallies matches against expectations", func(t *testing.T) {
		srv := ruleServer(t, map[string]bool{"pass_rule": true})
		gw := store.NewMemory()
		defer gw.Close()

		var progress []int
		r := New("DEV", engine.NewClient(srv.URL), gw, "tester",
			WithProgressCallback(func(current, total int, _ *EntryResult) {
				progress = append(progress, current)
				assert.Equal(t, 3, total)
			}))

		summary, err := r.RunSuite(context.Background(), suite)
		require.NoError(t, err)

		// x1 expects true and passes, x2 expects false and fails,
		// x3 expects false but passes.
		assert.Equal(t, 3, summary.Executed)
		assert.Equal(t, 2, summary.Matched)
		assert.Equal(t, 1, summary.Mismatched)
		assert.Equal(t, 0, summary.Errors)
		assert.Equal(t, []int{1, 2, 3}, progress)

		runs, _ := gw.RunHistory(context.Background(), "DEV", core.KindSuite, "suite-1")
		require.Len(t, runs, 1)
		assert.Equal(t, StatusFailure, runs[0].Status)
	})

	t.Run("cancellation stops between entries", func(t *testing.T) {
		srv := ruleServer(t, map[string]bool{"pass_rule": true})
		gw := store.NewMemory()
		defer gw.Close()

		ctx, cancel := context.WithCancel(context.Background())
		r := New("DEV", engine.NewClient(srv.URL), gw, "tester",
			WithProgressCallback(func(current, total int, _ *EntryResult) {
				if current == 1 {
					cancel()
				}
			}))

		summary, err := r.RunSuite(ctx, suite)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, summary.Executed)

		// The aggregate run is still recorded.
		runs, _ := gw.RunHistory(context.Background(), "DEV", core.KindSuite, "suite-1")
		assert.Len(t, runs, 1)
	})
}

func TestRunner_SendAPICall(t *testing.T) {
	t.Run("records the response status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
		}))
		defer srv.Close()
		gw := store.NewMemory()
		defer gw.Close()

		r := New("DEV", engine.NewClient(""), gw, "tester")
		result, err := r.SendAPICall(context.Background(), &core.APICall{
			ID: "call-1", Name: "create", Environment: "DEV",
			Method: "POST", URL: srv.URL, Status: core.StatusActive,
		})
		require.NoError(t, err)
		assert.Equal(t, 201, result.StatusCode)

		runs, _ := gw.RunHistory(context.Background(), "DEV", core.KindAPICall, "call-1")
		require.Len(t, runs, 1)
		assert.Equal(t, StatusSuccess, runs[0].Status)
		assert.Contains(t, runs[0].Result, "201")
	})
}
