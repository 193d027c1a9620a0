package views

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruliad/internal/clipboard"
	"ruliad/internal/config"
	"ruliad/internal/core"
	"ruliad/internal/runner"
	"ruliad/internal/store"
	"ruliad/internal/tui"
	"ruliad/internal/tui/components"
)

func testConfig() *config.Config {
	return &config.Config{
		Environments: map[string]config.EnvConfig{
			"DEV": {},
			"UAT": {},
		},
		DefaultEnv: "DEV",
		User:       "tester",
	}
}

func newTestView(t *testing.T) (*MainView, store.Gateway) {
	t.Helper()

	prev := toastDuration
	toastDuration = time.Millisecond
	t.Cleanup(func() { toastDuration = prev })

	gw := store.NewMemory()
	ctx := context.Background()

	seed := []*core.Request{
		{Name: "limit high", Environment: "DEV", RuleName: "txn_limit", PersonaType: "customer", PersonaID: "p-1", Status: core.StatusActive},
		{Name: "limit low", Environment: "DEV", RuleName: "txn_limit", PersonaType: "customer", PersonaID: "p-2", Status: core.StatusActive},
	}
	for _, req := range seed {
		_, err := gw.Create(ctx, req)
		require.NoError(t, err)
	}

	clip := clipboard.NewService(gw, "tester")
	view := NewMainView(testConfig(), gw, clip, nil)
	view.SetSize(120, 40)

	return pump(t, view, tui.RefreshMsg{}), gw
}

// pump applies msgs and chases returned commands to completion so
// async mutations resolve synchronously in tests.
func pump(t *testing.T, view *MainView, msgs ...tea.Msg) *MainView {
	t.Helper()
	for _, msg := range msgs {
		queue := []tea.Msg{msg}
		for len(queue) > 0 {
			next := queue[0]
			queue = queue[1:]

			updated, cmd := view.Update(next)
			view = updated.(*MainView)
			queue = append(queue, collect(cmd)...)
		}
	}
	return view
}

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if msg == nil {
		return nil
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	// Tick commands block until their timer fires; toast expiry is not
	// interesting here.
	if _, ok := msg.(tui.ClearToastMsg); ok {
		return nil
	}
	return []tea.Msg{msg}
}

func keyRune(r string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(r)}
}

func leafTarget(t *testing.T, view *MainView) components.TargetRef {
	t.Helper()
	// Expand DEV, then txn_limit, then land on the first leaf.
	view.ActiveTree().Focus()
	pump(t, view, keyRune("l"), keyRune("j"), keyRune("l"), keyRune("j"))
	target := view.ActiveTree().CursorTarget()
	require.Equal(t, components.TargetLeaf, target.Kind)
	return target
}

func TestMainView_TreeTabSwitching(t *testing.T) {
	view, _ := newTestView(t)

	assert.Equal(t, core.KindRequest, view.ActiveTree().Kind())

	view = pump(t, view, keyRune("2"))
	assert.Equal(t, core.KindSuite, view.ActiveTree().Kind())

	view = pump(t, view, keyRune("3"))
	assert.Equal(t, core.KindAPICall, view.ActiveTree().Kind())

	view = pump(t, view, keyRune("1"))
	assert.Equal(t, core.KindRequest, view.ActiveTree().Kind())
}

func TestMainView_TabCyclesFocus(t *testing.T) {
	view, _ := newTestView(t)

	assert.Equal(t, PaneTree, view.FocusedPane())

	view = pump(t, view, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, PaneDetail, view.FocusedPane())
	assert.True(t, view.DetailPanel().Focused())

	view = pump(t, view, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, PaneResults, view.FocusedPane())

	view = pump(t, view, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, PaneTree, view.FocusedPane())
	assert.True(t, view.ActiveTree().Focused())
}

func TestMainView_SelectionFillsDetailPanel(t *testing.T) {
	view, _ := newTestView(t)

	req := &core.Request{ID: "r-9", Name: "limit high", Environment: "DEV", RuleName: "txn_limit"}
	view = pump(t, view, components.SelectItemMsg{Item: req})

	assert.Contains(t, view.DetailPanel().View(), "limit high")
	assert.Contains(t, view.DetailPanel().Title(), "limit high")
}

func TestMainView_MenuOpensOverLeafAndDismisses(t *testing.T) {
	view, _ := newTestView(t)
	target := leafTarget(t, view)

	view = pump(t, view, components.OpenMenuMsg{Kind: core.KindRequest, Target: target})
	assert.True(t, view.MenuOpen())
	assert.Contains(t, view.View(), "Run")

	view = pump(t, view, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, view.MenuOpen())
}

func TestMainView_DeleteDeclinedIsNoop(t *testing.T) {
	view, gw := newTestView(t)
	target := leafTarget(t, view)

	view = pump(t, view, components.MenuSelectedMsg{Action: components.ActionDelete, Kind: core.KindRequest, Target: target})
	assert.True(t, view.ConfirmOpen())

	view = pump(t, view, keyRune("n"))
	assert.False(t, view.ConfirmOpen())

	reqs, err := gw.ListRequests(context.Background(), "DEV")
	require.NoError(t, err)
	assert.Len(t, reqs, 2)
}

func TestMainView_DeleteConfirmedRemovesItem(t *testing.T) {
	view, gw := newTestView(t)
	target := leafTarget(t, view)

	view = pump(t, view, components.MenuSelectedMsg{Action: components.ActionDelete, Kind: core.KindRequest, Target: target})
	view = pump(t, view, keyRune("y"))
	assert.False(t, view.ConfirmOpen())

	reqs, err := gw.ListRequests(context.Background(), "DEV")
	require.NoError(t, err)
	assert.Len(t, reqs, 1)
}

func TestMainView_CopyFillsClipboardAndToasts(t *testing.T) {
	view, _ := newTestView(t)
	target := leafTarget(t, view)

	view = pump(t, view, components.MenuSelectedMsg{Action: components.ActionCopy, Kind: core.KindRequest, Target: target})

	assert.Contains(t, view.Notification(), "copied")
	assert.Contains(t, view.View(), "clip:")
}

func TestMainView_PasteCreatesRetargetedCopy(t *testing.T) {
	view, gw := newTestView(t)
	target := leafTarget(t, view)

	view = pump(t, view, components.MenuSelectedMsg{Action: components.ActionCopy, Kind: core.KindRequest, Target: target})

	// Paste onto the UAT environment header.
	pasteTarget := components.TargetRef{Kind: components.TargetEnvHeader, Env: "UAT"}
	view = pump(t, view, components.MenuSelectedMsg{Action: components.ActionPaste, Kind: core.KindRequest, Target: pasteTarget})

	uat, err := gw.ListRequests(context.Background(), "UAT")
	require.NoError(t, err)
	require.Len(t, uat, 1)
	assert.Equal(t, "UAT", uat[0].Environment)
	assert.Contains(t, uat[0].Name, "(Copy)")

	// The slot survives the paste for repeat use.
	assert.Contains(t, view.Notification(), "pasted")
}

func TestMainView_NewItemCreatesSkeleton(t *testing.T) {
	view, gw := newTestView(t)

	view = pump(t, view, components.NewItemMsg{Kind: core.KindRequest, Env: "UAT"})

	uat, err := gw.ListRequests(context.Background(), "UAT")
	require.NoError(t, err)
	require.Len(t, uat, 1)
	assert.Equal(t, "New Request", uat[0].Name)
	assert.Equal(t, "tester", uat[0].CreatedBy)
	assert.NotEmpty(t, view.Notification())
}

func TestMainView_HistoryFallsBackToLocalRuns(t *testing.T) {
	view, gw := newTestView(t)
	target := leafTarget(t, view)

	// No engine is reachable, but a run is on record for the request.
	_, err := gw.SaveRun(context.Background(), store.Run{
		RunType:     core.KindRequest,
		ReferenceID: target.Item.ItemID(),
		Environment: "DEV",
		Status:      "success",
		Result:      "passed",
		CreatedBy:   "tester",
	})
	require.NoError(t, err)

	view = pump(t, view, components.MenuSelectedMsg{Action: components.ActionShowHistory, Kind: core.KindRequest, Target: target})

	assert.Contains(t, view.ResultsPanel().View(), "success")
}

func TestMainView_HelpOverlayToggles(t *testing.T) {
	view, _ := newTestView(t)

	view = pump(t, view, keyRune("?"))
	assert.Contains(t, view.View(), "Ruliad Help")

	view = pump(t, view, tea.KeyMsg{Type: tea.KeyEsc})
	assert.NotContains(t, view.View(), "Ruliad Help")
}

func TestMainView_StatusBarShowsEnvironment(t *testing.T) {
	view, _ := newTestView(t)
	assert.Contains(t, view.View(), "ENV: DEV")
}

func TestMainView_SearchModeCapturesKeys(t *testing.T) {
	view, _ := newTestView(t)

	// Entering search must stop "q" from quitting.
	view = pump(t, view, keyRune("/"))
	require.True(t, view.ActiveTree().Searching())

	updated, cmd := view.Update(keyRune("q"))
	view = updated.(*MainView)
	if cmd != nil {
		assert.NotEqual(t, tea.Quit(), cmd())
	}
	assert.True(t, view.ActiveTree().Searching())
}

func TestMainView_RefreshRoutesLoadsToEachTree(t *testing.T) {
	view, gw := newTestView(t)

	_, err := gw.Create(context.Background(), &core.Suite{
		Name: "priority", Environment: "DEV", Status: core.StatusActive, CreatedBy: "tester",
		Entries: []core.SuiteEntry{{RuleName: "txn_limit", XID: "x1", ExpectedResult: true}},
	})
	require.NoError(t, err)

	// The refresh fans out per kind even though only the requests tree
	// has focus; the suites tree must receive its own load result.
	view = pump(t, view, tui.RefreshMsg{})
	require.Equal(t, core.KindRequest, view.ActiveTree().Kind())

	view = pump(t, view, keyRune("2"))
	view.ActiveTree().Focus()
	view = pump(t, view, keyRune("l"))

	var labels []string
	for _, row := range view.ActiveTree().Rows() {
		labels = append(labels, row.Label)
	}
	assert.Contains(t, labels, "priority")
}

func TestMainView_SuiteStopSurfacesError(t *testing.T) {
	view, _ := newTestView(t)

	summary := &runner.SuiteSummary{
		SuiteID: "s1", SuiteName: "priority",
		TotalEntries: 5, Executed: 2, Matched: 2,
	}
	view = pump(t, view, suiteDoneMsg{name: "priority", summary: summary, err: context.Canceled})

	// The partial summary still lands in the results pane, and the
	// toast explains why the run ended early.
	assert.Contains(t, view.Notification(), "stopped")
	assert.Contains(t, view.Notification(), context.Canceled.Error())
	assert.Contains(t, view.Notification(), summary.Describe())
}
