package metadata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruliad/internal/core"
)

func TestClient_Rules(t *testing.T) {
	t.Run("fetches and caches", func(t *testing.T) {
		var hits atomic.Int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			require.Equal(t, "/rules", r.URL.Path)
			json.NewEncoder(w).Encode([]RuleInfo{
				{Name: "txn_limit", Description: "transaction limit"},
				{Name: "fraud_check"},
			})
		}))
		defer server.Close()

		client := NewClient(server.URL)

		first, err := client.Rules(context.Background())
		require.NoError(t, err)
		require.Len(t, first, 2)
		assert.Equal(t, "txn_limit", first[0].Name)
		assert.Equal(t, "transaction limit", first[0].Description)

		second, err := client.Rules(context.Background())
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, int64(1), hits.Load(), "second call must hit the cache")
	})

	t.Run("invalidate forces a refetch", func(t *testing.T) {
		var hits atomic.Int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			json.NewEncoder(w).Encode([]RuleInfo{{Name: "txn_limit"}})
		}))
		defer server.Close()

		client := NewClient(server.URL)
		_, err := client.Rules(context.Background())
		require.NoError(t, err)

		client.Invalidate()
		_, err = client.Rules(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(2), hits.Load())
	})

	t.Run("missing endpoint", func(t *testing.T) {
		client := NewClient("")
		_, err := client.Rules(context.Background())
		assert.ErrorIs(t, err, ErrNoEndpoint)
	})
}

func TestClient_Definition(t *testing.T) {
	t.Run("decodes nested terms", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/rule/txn_limit", r.URL.Path)
			w.Write([]byte(`{
				"name": "txn_limit",
				"op": "AND",
				"terms": [
					{
						"field": {"name": "amount", "namespace": "txn", "datasource": "ledger", "evaluation_group": "core"},
						"comp": "less_than",
						"value": 1000
					},
					{
						"op": "OR",
						"terms": [
							{"field": {"name": "country"}, "comp": "equals", "value": "US"},
							{"field": {"name": "verified"}, "comp": "equals", "value": true}
						]
					}
				]
			}`))
		}))
		defer server.Close()

		client := NewClient(server.URL)
		def, err := client.Definition(context.Background(), "txn_limit")
		require.NoError(t, err)

		assert.Equal(t, "txn_limit", def.Name)
		assert.Equal(t, "AND", def.Op)
		require.Len(t, def.Terms, 2)
		assert.False(t, def.Terms[0].IsOperator())
		assert.Equal(t, "amount", def.Terms[0].Field.Name)
		assert.True(t, def.Terms[1].IsOperator())
		assert.Len(t, def.Terms[1].Terms, 2)
		assert.Equal(t, 4, (&core.RuleDefinition{Op: def.Op, Terms: def.Terms}).CountTerms())
	})

	t.Run("caches per rule", func(t *testing.T) {
		var hits atomic.Int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			json.NewEncoder(w).Encode(core.RuleDefinition{Name: "r", Op: "AND"})
		}))
		defer server.Close()

		client := NewClient(server.URL)
		_, err := client.Definition(context.Background(), "r")
		require.NoError(t, err)
		_, err = client.Definition(context.Background(), "r")
		require.NoError(t, err)
		assert.Equal(t, int64(1), hits.Load())
	})

	t.Run("unknown rule", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer server.Close()

		client := NewClient(server.URL)
		_, err := client.Definition(context.Background(), "ghost")
		assert.ErrorIs(t, err, ErrRuleNotFound)
	})
}
