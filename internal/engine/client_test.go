package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruliad/internal/core"
)

func TestClient_Execute(t *testing.T) {
	t.Run("posts the request payload", func(t *testing.T) {
		var gotPath string
		var gotBody map[string]interface{}

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			require.Equal(t, http.MethodPost, r.Method)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			json.NewEncoder(w).Encode(ExecuteResult{
				Result:        true,
				Status:        "approved",
				ExecutionTime: 12,
				Explanation:   "under limit",
			})
		}))
		defer server.Close()

		client := NewClient(server.URL)
		result, err := client.Execute(context.Background(), &core.Request{
			RuleName:    "txn_limit",
			Environment: "DEV",
			PersonaType: "merchant",
			PersonaID:   "m-1",
			JSONContext: json.RawMessage(`{"amount":10}`),
		})
		require.NoError(t, err)

		assert.Equal(t, "/execute", gotPath)
		assert.Equal(t, "txn_limit", gotBody["ruleName"])
		assert.Equal(t, "DEV", gotBody["environment"])
		assert.Equal(t, "m-1", gotBody["personaId"])
		assert.True(t, result.Result)
		assert.Equal(t, "approved", result.Status)
		assert.Equal(t, int64(12), result.ExecutionTime)
	})

	t.Run("non-200 is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rule not found", http.StatusBadRequest)
		}))
		defer server.Close()

		client := NewClient(server.URL)
		_, err := client.Execute(context.Background(), &core.Request{RuleName: "nope"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "400")
	})

	t.Run("missing endpoint", func(t *testing.T) {
		client := NewClient("")
		_, err := client.Execute(context.Background(), &core.Request{RuleName: "r"})
		assert.ErrorIs(t, err, ErrNoEndpoint)
	})
}

func TestClient_History(t *testing.T) {
	t.Run("fetches decisions for the persona", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/history/txn_limit/m-1", r.URL.Path)
			json.NewEncoder(w).Encode([]HistoryEntry{
				{Status: "approved", Result: true},
				{Status: "denied", Result: false},
			})
		}))
		defer server.Close()

		client := NewClient(server.URL)
		entries, err := client.History(context.Background(), "txn_limit", "m-1")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.True(t, entries[0].Result)
		assert.False(t, entries[1].Result)
	})

	t.Run("escapes path segments", func(t *testing.T) {
		var gotPath string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.EscapedPath()
			json.NewEncoder(w).Encode([]HistoryEntry{})
		}))
		defer server.Close()

		client := NewClient(server.URL)
		_, err := client.History(context.Background(), "a/b", "p 1")
		require.NoError(t, err)
		assert.Equal(t, "/history/a%2Fb/p%201", gotPath)
	})

	t.Run("404 means no history", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer server.Close()

		client := NewClient(server.URL)
		entries, err := client.History(context.Background(), "r", "p")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
