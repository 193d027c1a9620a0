package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruliad/internal/core"
)

// RunGatewayTests runs the standard gateway test suite against any Gateway
// implementation. Backends call this from their own test files.
func RunGatewayTests(t *testing.T, newGateway func() (Gateway, func())) {
	t.Run("Create", func(t *testing.T) {
		runCreateTests(t, newGateway)
	})
	t.Run("List", func(t *testing.T) {
		runListTests(t, newGateway)
	})
	t.Run("UpdateStatus", func(t *testing.T) {
		runUpdateStatusTests(t, newGateway)
	})
	t.Run("Delete", func(t *testing.T) {
		runDeleteTests(t, newGateway)
	})
	t.Run("Runs", func(t *testing.T) {
		runRunHistoryTests(t, newGateway)
	})
}

func testRequest(env, name string) *core.Request {
	return &core.Request{
		Name:        name,
		Environment: env,
		RuleName:    "txn_limit",
		PersonaType: "merchant",
		PersonaID:   "m-1",
		JSONContext: json.RawMessage(`{"amount":10}`),
		Status:      core.StatusActive,
		CreatedBy:   "tester",
	}
}

func runCreateTests(t *testing.T, newGateway func() (Gateway, func())) {
	t.Run("assigns a fresh ID per kind", func(t *testing.T) {
		gw, cleanup := newGateway()
		defer cleanup()
		ctx := context.Background()

		items := []core.Item{
			testRequest("DEV", "req"),
			&core.Suite{Name: "suite", Environment: "DEV", Status: core.StatusActive,
				Entries: []core.SuiteEntry{{RuleName: "r", XID: "x", ExpectedResult: true}}},
			&core.APICall{Name: "call", Environment: "DEV", Method: "GET",
				URL: "https://example.com", Status: core.StatusActive},
		}

		seen := make(map[string]bool)
		for _, item := range items {
			id, err := gw.Create(ctx, item)
			require.NoError(t, err)
			assert.NotEmpty(t, id)
			assert.False(t, seen[id], "IDs must be unique")
			seen[id] = true
		}
	})

	t.Run("ignores a caller-supplied ID", func(t *testing.T) {
		gw, cleanup := newGateway()
		defer cleanup()

		req := testRequest("DEV", "req")
		req.ID = "stale-id"
		id, err := gw.Create(context.Background(), req)
		require.NoError(t, err)
		assert.NotEqual(t, "stale-id", id)
	})
}

func runListTests(t *testing.T, newGateway func() (Gateway, func())) {
	t.Run("scopes by environment", func(t *testing.T) {
		gw, cleanup := newGateway()
		defer cleanup()
		ctx := context.Background()

		_, err := gw.Create(ctx, testRequest("DEV", "dev request"))
		require.NoError(t, err)
		_, err = gw.Create(ctx, testRequest("UAT", "uat request"))
		require.NoError(t, err)

		dev, err := gw.ListRequests(ctx, "DEV")
		require.NoError(t, err)
		require.Len(t, dev, 1)
		assert.Equal(t, "dev request", dev[0].Name)
		assert.NotEmpty(t, dev[0].ID)

		uat, err := gw.ListRequests(ctx, "UAT")
		require.NoError(t, err)
		require.Len(t, uat, 1)

		prod, err := gw.ListRequests(ctx, "PROD")
		require.NoError(t, err)
		assert.Empty(t, prod)
	})

	t.Run("preserves suite entries", func(t *testing.T) {
		gw, cleanup := newGateway()
		defer cleanup()
		ctx := context.Background()

		suite := &core.Suite{
			Name:        "batch",
			Environment: "DEV",
			Status:      core.StatusActive,
			Entries: []core.SuiteEntry{
				{RuleName: "a", XID: "x1", ExpectedResult: true, JSONContext: json.RawMessage(`{"k":1}`)},
				{RuleName: "b", XID: "x2", ExpectedResult: false},
			},
		}
		_, err := gw.Create(ctx, suite)
		require.NoError(t, err)

		got, err := gw.ListSuites(ctx, "DEV")
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Len(t, got[0].Entries, 2)
		assert.Equal(t, "x1", got[0].Entries[0].XID)
		assert.True(t, got[0].Entries[0].ExpectedResult)
	})

	t.Run("preserves api call auth", func(t *testing.T) {
		gw, cleanup := newGateway()
		defer cleanup()
		ctx := context.Background()

		call := &core.APICall{
			Name:        "secured",
			Environment: "DEV",
			Method:      "POST",
			URL:         "https://example.com/x",
			Headers:     map[string]string{"Content-Type": "application/json"},
			Auth:        &core.AuthConfig{Type: "bearer", Token: "tok"},
			Status:      core.StatusActive,
		}
		_, err := gw.Create(ctx, call)
		require.NoError(t, err)

		got, err := gw.ListAPICalls(ctx, "DEV")
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.NotNil(t, got[0].Auth)
		assert.Equal(t, "tok", got[0].Auth.Token)
		assert.Equal(t, "application/json", got[0].Headers["Content-Type"])
	})
}

func runUpdateStatusTests(t *testing.T, newGateway func() (Gateway, func())) {
	t.Run("flips status", func(t *testing.T) {
		gw, cleanup := newGateway()
		defer cleanup()
		ctx := context.Background()

		id, err := gw.Create(ctx, testRequest("DEV", "req"))
		require.NoError(t, err)

		require.NoError(t, gw.UpdateStatus(ctx, core.KindRequest, id, core.StatusInactive, "admin"))

		got, err := gw.ListRequests(ctx, "DEV")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, core.StatusInactive, got[0].Status)
	})

	t.Run("unknown id", func(t *testing.T) {
		gw, cleanup := newGateway()
		defer cleanup()

		err := gw.UpdateStatus(context.Background(), core.KindRequest, "missing", core.StatusInactive, "admin")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func runDeleteTests(t *testing.T, newGateway func() (Gateway, func())) {
	t.Run("removes the record", func(t *testing.T) {
		gw, cleanup := newGateway()
		defer cleanup()
		ctx := context.Background()

		id, err := gw.Create(ctx, testRequest("DEV", "req"))
		require.NoError(t, err)

		require.NoError(t, gw.Delete(ctx, core.KindRequest, id))

		got, err := gw.ListRequests(ctx, "DEV")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("unknown id", func(t *testing.T) {
		gw, cleanup := newGateway()
		defer cleanup()

		err := gw.Delete(context.Background(), core.KindSuite, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func runRunHistoryTests(t *testing.T, newGateway func() (Gateway, func())) {
	t.Run("filters by reference and environment", func(t *testing.T) {
		gw, cleanup := newGateway()
		defer cleanup()
		ctx := context.Background()

		runs := []Run{
			{RunType: core.KindRequest, ReferenceID: "ref-1", Environment: "DEV", Status: "success", ExecutionMS: 12, CreatedBy: "a"},
			{RunType: core.KindRequest, ReferenceID: "ref-1", Environment: "UAT", Status: "success", ExecutionMS: 9, CreatedBy: "a"},
			{RunType: core.KindSuite, ReferenceID: "ref-2", Environment: "DEV", Status: "failure", ExecutionMS: 40, CreatedBy: "b"},
		}
		for _, r := range runs {
			_, err := gw.SaveRun(ctx, r)
			require.NoError(t, err)
		}

		got, err := gw.RunHistory(ctx, "DEV", core.KindRequest, "ref-1")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "success", got[0].Status)

		all, err := gw.AllRunHistory(ctx, "DEV", 10)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		limited, err := gw.AllRunHistory(ctx, "DEV", 1)
		require.NoError(t, err)
		assert.Len(t, limited, 1)
	})
}
