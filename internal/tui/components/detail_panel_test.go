package components

import (
	"encoding/json"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruliad/internal/core"
)

func TestDetailPanel_EmptyState(t *testing.T) {
	panel := NewDetailPanel()
	panel.SetSize(60, 20)
	assert.Contains(t, panel.View(), "No item selected")
}

func TestDetailPanel_RequestOverview(t *testing.T) {
	panel := NewDetailPanel()
	panel.SetSize(80, 20)
	panel.SetItem(&core.Request{
		ID: "r1", Name: "limit high", Environment: "DEV",
		RuleName: "txn_limit", PersonaType: "customer", PersonaID: "p1",
		Status: core.StatusActive, CreatedBy: "alice",
	})

	out := panel.View()
	assert.Contains(t, out, "limit high")
	assert.Contains(t, out, "txn_limit")
	assert.Contains(t, out, "alice")
	assert.Equal(t, "Details: limit high", panel.Title())
}

func TestDetailPanel_SelectMsgSwapsItem(t *testing.T) {
	panel := NewDetailPanel()
	panel.SetSize(60, 20)
	panel.Update(SelectItemMsg{Item: &core.Suite{ID: "s1", Name: "smoke", Environment: "UAT"}})

	require.NotNil(t, panel.Item())
	assert.Equal(t, "s1", panel.Item().ItemID())
	assert.Contains(t, panel.View(), "smoke")
}

func TestDetailPanel_SnapshotTabShowsJSON(t *testing.T) {
	panel := NewDetailPanel()
	panel.SetSize(80, 30)
	panel.Focus()
	panel.SetItem(&core.Request{ID: "r1", Name: "case", Environment: "DEV", RuleName: "txn_limit"})

	panel.Update(tea.KeyMsg{Type: tea.KeyTab})
	out := panel.View()
	assert.Contains(t, out, `"rule_name"`)
	assert.Contains(t, out, "txn_limit")
}

func TestDetailPanel_ContextTab(t *testing.T) {
	panel := NewDetailPanel()
	panel.SetSize(80, 30)
	panel.Focus()
	panel.SetItem(&core.Request{
		ID: "r1", Name: "case", Environment: "DEV", RuleName: "txn_limit",
		JSONContext: json.RawMessage(`{"amount":100}`),
	})

	panel.Update(tea.KeyMsg{Type: tea.KeyTab})
	panel.Update(tea.KeyMsg{Type: tea.KeyTab})
	out := panel.View()
	assert.Contains(t, out, "amount")
	assert.Contains(t, out, "100")
}

func TestDetailPanel_SuiteEntriesListed(t *testing.T) {
	panel := NewDetailPanel()
	panel.SetSize(80, 30)
	panel.SetItem(&core.Suite{
		ID: "s1", Name: "smoke", Environment: "DEV",
		Entries: []core.SuiteEntry{
			{RuleName: "txn_limit", XID: "x1", ExpectedResult: true},
			{RuleName: "fraud_check", XID: "x2", ExpectedResult: false},
		},
	})

	out := panel.View()
	assert.Contains(t, out, "txn_limit")
	assert.Contains(t, out, "x2")
	// lines wrap oddly at narrow widths, just check both entries render
	assert.True(t, strings.Contains(out, "fraud_check"))
}
