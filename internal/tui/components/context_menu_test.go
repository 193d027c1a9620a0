package components

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruliad/internal/core"
)

func menuLabels(items []MenuItem) []string {
	labels := make([]string, len(items))
	for i, item := range items {
		labels[i] = item.Label
	}
	return labels
}

func TestBuildMenu_PerTargetEntries(t *testing.T) {
	request := &core.Request{ID: "r1", Name: "case", Environment: "DEV"}
	suite := &core.Suite{ID: "s1", Name: "smoke", Environment: "DEV"}
	call := &core.APICall{ID: "c1", Name: "ping", Environment: "DEV"}

	tests := []struct {
		name   string
		kind   core.ItemKind
		target TargetRef
		want   []string
	}{
		{
			name:   "request leaf",
			kind:   core.KindRequest,
			target: TargetRef{Kind: TargetLeaf, Item: request},
			want:   []string{"Run", "Edit", "Delete", "Show History", "Analyze", "Copy"},
		},
		{
			name:   "suite leaf",
			kind:   core.KindSuite,
			target: TargetRef{Kind: TargetLeaf, Item: suite},
			want:   []string{"Run Suite", "Edit Suite", "Delete Suite", "Copy"},
		},
		{
			name:   "api call leaf",
			kind:   core.KindAPICall,
			target: TargetRef{Kind: TargetLeaf, Item: call},
			want:   []string{"Send Request", "Edit Request", "Delete Request", "Copy"},
		},
		{
			name:   "rule header",
			kind:   core.KindRequest,
			target: TargetRef{Kind: TargetRuleHeader, Env: "DEV", Rule: "txn_limit"},
			want:   []string{"Run", "Edit", "Delete", "Show History", "Analyze", "Show Rule Definition"},
		},
		{
			name:   "env header",
			kind:   core.KindRequest,
			target: TargetRef{Kind: TargetEnvHeader, Env: "DEV"},
			want:   []string{"Refresh"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildMenu(tt.kind, tt.target, false)
			assert.Equal(t, tt.want, menuLabels(got))
		})
	}
}

func TestBuildMenu_PasteAppendedWhenClipboardFull(t *testing.T) {
	targets := []TargetRef{
		{Kind: TargetLeaf, Item: &core.Request{ID: "r1"}},
		{Kind: TargetRuleHeader, Env: "DEV", Rule: "txn_limit"},
		{Kind: TargetEnvHeader, Env: "DEV"},
	}

	for _, target := range targets {
		without := BuildMenu(core.KindRequest, target, false)
		with := BuildMenu(core.KindRequest, target, true)
		require.Len(t, with, len(without)+1)
		assert.Equal(t, "Paste", with[len(with)-1].Label)
		assert.Equal(t, ActionPaste, with[len(with)-1].Action)
	}
}

func TestBuildMenu_EmptyTargetYieldsNoMenu(t *testing.T) {
	assert.Empty(t, BuildMenu(core.KindRequest, TargetRef{Kind: TargetNone}, false))
	assert.Nil(t, NewContextMenu(core.KindRequest, TargetRef{Kind: TargetNone}, false))

	// Even an empty target gets a Paste entry when the slot is full.
	pasteOnly := BuildMenu(core.KindSuite, TargetRef{Kind: TargetPersonaHeader}, true)
	require.Len(t, pasteOnly, 1)
	assert.Equal(t, ActionPaste, pasteOnly[0].Action)
}

func TestContextMenu_NavigateAndSelect(t *testing.T) {
	target := TargetRef{Kind: TargetLeaf, Item: &core.Request{ID: "r1", Name: "case"}}
	menu := NewContextMenu(core.KindRequest, target, false)
	require.NotNil(t, menu)

	_, cmd := menu.Update(keyRune('j'))
	require.Nil(t, cmd)
	_, cmd = menu.Update(keyRune('j'))
	require.Nil(t, cmd)
	_, cmd = menu.Update(keyEnter())
	require.NotNil(t, cmd)

	sel, ok := cmd().(MenuSelectedMsg)
	require.True(t, ok)
	assert.Equal(t, ActionDelete, sel.Action)
	assert.Equal(t, core.KindRequest, sel.Kind)
	assert.Equal(t, "r1", sel.Target.Item.ItemID())
}

func TestContextMenu_EscDismissesWithoutFiring(t *testing.T) {
	menu := NewContextMenu(core.KindRequest, TargetRef{Kind: TargetEnvHeader, Env: "DEV"}, false)
	require.NotNil(t, menu)

	_, cmd := menu.Update(keyEsc())
	require.NotNil(t, cmd)
	_, ok := cmd().(CloseMenuMsg)
	assert.True(t, ok)
}

func TestConfirmModal_Answers(t *testing.T) {
	target := TargetRef{Kind: TargetLeaf, Item: &core.Request{ID: "r1"}}
	modal := NewConfirmModal("Delete case?", ActionDelete, core.KindRequest, target)

	_, cmd := modal.Update(keyRune('y'))
	require.NotNil(t, cmd)
	yes := cmd().(ConfirmResultMsg)
	assert.True(t, yes.Confirmed)
	assert.Equal(t, ActionDelete, yes.Action)

	modal = NewConfirmModal("Delete case?", ActionDelete, core.KindRequest, target)
	_, cmd = modal.Update(keyEsc())
	require.NotNil(t, cmd)
	no := cmd().(ConfirmResultMsg)
	assert.False(t, no.Confirmed)

	// Unrelated keys leave the dialog open.
	modal = NewConfirmModal("Delete case?", ActionDelete, core.KindRequest, target)
	_, cmd = modal.Update(keyRune('x'))
	assert.Nil(t, cmd)
}

func keyEsc() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEsc}
}
