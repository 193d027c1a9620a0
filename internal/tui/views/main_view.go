package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"ruliad/internal/apicaller"
	"ruliad/internal/clipboard"
	"ruliad/internal/config"
	"ruliad/internal/core"
	"ruliad/internal/engine"
	"ruliad/internal/metadata"
	"ruliad/internal/runner"
	"ruliad/internal/store"
	"ruliad/internal/tui"
	"ruliad/internal/tui/components"
)

// Pane represents which pane is focused.
type Pane int

const (
	PaneTree Pane = iota
	PaneDetail
	PaneResults
)

// MainView is the three-pane navigator: item trees on the left, the
// selected item's details on top right, execution results below.
type MainView struct {
	width       int
	height      int
	focusedPane Pane

	trees      []*components.NavTree
	activeTree int
	detail     *components.DetailPanel
	results    *components.ResultsPanel

	menu    *components.ContextMenu
	confirm *components.ConfirmModal

	cfg     *config.Config
	gateway store.Gateway
	clip    *clipboard.Service
	log     *zap.Logger

	engines  map[string]*engine.Client
	metadata map[string]*metadata.Client

	showHelp     bool
	notification string
	notifyIsErr  bool
}

var treeTitles = []string{"Requests", "Suites", "API Calls"}

// toastDuration is how long a notification stays in the status bar.
var toastDuration = 3 * time.Second

// NewMainView wires the navigator over one gateway and config.
func NewMainView(cfg *config.Config, gw store.Gateway, clip *clipboard.Service, log *zap.Logger) *MainView {
	if log == nil {
		log = zap.NewNop()
	}
	envs := cfg.EnvNames()

	view := &MainView{
		trees: []*components.NavTree{
			components.NewNavTree(treeTitles[0], core.KindRequest, envs, gw),
			components.NewNavTree(treeTitles[1], core.KindSuite, envs, gw),
			components.NewNavTree(treeTitles[2], core.KindAPICall, envs, gw),
		},
		detail:   components.NewDetailPanel(),
		results:  components.NewResultsPanel(),
		cfg:      cfg,
		gateway:  gw,
		clip:     clip,
		log:      log,
		engines:  make(map[string]*engine.Client),
		metadata: make(map[string]*metadata.Client),
	}
	view.trees[0].Focus()
	return view
}

// Init loads all trees.
func (v *MainView) Init() tea.Cmd {
	return func() tea.Msg {
		return tui.RefreshMsg{}
	}
}

func (v *MainView) engineFor(env string) *engine.Client {
	if c, ok := v.engines[env]; ok {
		return c
	}
	name, envCfg := v.cfg.Resolve(env)
	c := engine.NewClient(envCfg.APIs.RuleEngine)
	v.engines[name] = c
	v.engines[env] = c
	return c
}

func (v *MainView) metadataFor(env string) *metadata.Client {
	if c, ok := v.metadata[env]; ok {
		return c
	}
	name, envCfg := v.cfg.Resolve(env)
	c := metadata.NewClient(envCfg.APIs.RuleMetadata)
	v.metadata[name] = c
	v.metadata[env] = c
	return c
}

func (v *MainView) runnerFor(env string) *runner.Runner {
	return runner.New(env, v.engineFor(env), v.gateway, v.cfg.User)
}

// Update handles messages.
func (v *MainView) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	// Modal results close their layer before anything else routes.
	switch msg := msg.(type) {
	case components.MenuSelectedMsg:
		v.menu = nil
		return v.dispatchAction(msg)
	case components.CloseMenuMsg:
		v.menu = nil
		return v, nil
	case components.ConfirmResultMsg:
		v.confirm = nil
		if !msg.Confirmed {
			// Declined: strict no-op.
			return v, nil
		}
		return v, v.executeDelete(msg.Kind, msg.Target)
	}

	// Open modal layers swallow everything else.
	if v.confirm != nil {
		return v.updateConfirm(msg)
	}
	if v.menu != nil {
		return v.updateMenu(msg)
	}

	if v.showHelp {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			if keyMsg.Type == tea.KeyEsc || string(keyMsg.Runes) == "?" {
				v.showHelp = false
			}
		}
		return v, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.updatePaneSizes()
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case tui.RefreshMsg:
		// Process-wide broadcast: every tree rebuilds its view model.
		var cmds []tea.Cmd
		for i := range v.trees {
			updated, cmd := v.trees[i].Update(msg)
			v.trees[i] = updated.(*components.NavTree)
			if cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
		return v, tea.Batch(cmds...)

	case components.TreeLoadedMsg:
		// Loads resolve per kind, not per focus. Route to the owning tree.
		for i := range v.trees {
			if v.trees[i].Kind() == msg.Kind {
				updated, cmd := v.trees[i].Update(msg)
				v.trees[i] = updated.(*components.NavTree)
				return v, cmd
			}
		}
		return v, nil

	case components.SelectItemMsg:
		v.detail.SetItem(msg.Item)
		return v, nil

	case components.OpenMenuMsg:
		v.menu = components.NewContextMenu(msg.Kind, msg.Target, v.clip != nil && v.clip.HasContent())
		return v, nil

	case components.NewItemMsg:
		return v, v.createSkeleton(msg.Kind, msg.Env)

	case tui.ToastMsg:
		return v.showToast(msg.Text, msg.IsErr)

	case tui.ClearToastMsg:
		v.notification = ""
		return v, nil

	case runDoneMsg:
		v.results.SetLoading(false)
		if msg.err != nil {
			v.results.ShowError("Run: "+msg.name, msg.err)
			return v.afterMutation("run failed: "+msg.err.Error(), true)
		}
		v.results.ShowRunResult(msg.result)
		v.focusPane(PaneResults)
		return v.afterMutation("run recorded", false)

	case suiteDoneMsg:
		v.results.SetLoading(false)
		if msg.err != nil && msg.summary == nil {
			v.results.ShowError("Suite: "+msg.name, msg.err)
			return v.afterMutation("suite run failed: "+msg.err.Error(), true)
		}
		v.results.ShowSuiteSummary(msg.summary)
		v.focusPane(PaneResults)
		if msg.err != nil {
			// Partial run: the summary covers what executed, the error
			// says why the rest did not.
			return v.afterMutation(msg.summary.Describe()+" (stopped: "+msg.err.Error()+")", true)
		}
		return v.afterMutation(msg.summary.Describe(), false)

	case apiCallDoneMsg:
		v.results.SetLoading(false)
		if msg.err != nil {
			v.results.ShowError("Response: "+msg.name, msg.err)
			return v.afterMutation("request failed: "+msg.err.Error(), true)
		}
		v.results.ShowAPIResult(msg.name, msg.result)
		v.focusPane(PaneResults)
		return v.afterMutation("response received", false)

	case historyDoneMsg:
		switch {
		case len(msg.runs) > 0:
			v.results.ShowHistory(msg.label, msg.runs)
		case msg.err != nil:
			v.results.ShowError("History: "+msg.label, msg.err)
		default:
			v.results.ShowEngineHistory(msg.label, msg.entries)
		}
		v.focusPane(PaneResults)
		return v, nil

	case analysisDoneMsg:
		if msg.err != nil {
			v.results.ShowError("Analyze: "+msg.label, msg.err)
		} else {
			v.results.ShowAnalysis(msg.label, msg.explanation, msg.evaluationData)
		}
		v.focusPane(PaneResults)
		return v, nil

	case definitionDoneMsg:
		if msg.err != nil {
			v.results.ShowError("Rule: "+msg.rule, msg.err)
		} else {
			v.results.ShowText("Rule: "+msg.rule, components.RenderRuleDefinition(msg.def, v.results.Width()-4))
		}
		v.focusPane(PaneResults)
		return v, nil

	case pasteDoneMsg:
		if msg.err != nil {
			// Slot stays intact; the paste can be retried.
			return v.showToast("paste failed: "+msg.err.Error(), true)
		}
		return v.afterMutation("pasted "+msg.name, false)

	case mutationDoneMsg:
		if msg.err != nil {
			return v.showToast(msg.verb+" failed: "+msg.err.Error(), true)
		}
		return v.afterMutation(msg.verb+" done", false)
	}

	return v.forwardToFocusedPane(msg)
}

func (v *MainView) updateMenu(msg tea.Msg) (tui.Component, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		updated, cmd := v.menu.Update(msg)
		v.menu = updated.(*components.ContextMenu)
		if cmd != nil {
			// Menu commands resolve to selection or dismissal.
			return v.Update(cmd())
		}
		return v, nil
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.updatePaneSizes()
	}
	return v, nil
}

func (v *MainView) updateConfirm(msg tea.Msg) (tui.Component, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		updated, cmd := v.confirm.Update(msg)
		v.confirm = updated.(*components.ConfirmModal)
		if cmd != nil {
			return v.Update(cmd())
		}
		return v, nil
	}
	return v, nil
}

func (v *MainView) handleKeyMsg(msg tea.KeyMsg) (tui.Component, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return v, tea.Quit
	}

	// While the tree search input is active, every key belongs to it.
	if v.focusedPane == PaneTree && v.activeNavTree().Searching() {
		return v.forwardToFocusedPane(msg)
	}

	switch msg.Type {
	case tea.KeyTab:
		v.cycleFocus(1)
		return v, nil
	case tea.KeyShiftTab:
		v.cycleFocus(-1)
		return v, nil
	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "q":
			return v, tea.Quit
		case "?":
			v.showHelp = true
			return v, nil
		case "1", "2", "3":
			v.switchTree(int(msg.Runes[0] - '1'))
			return v, nil
		case "R":
			v.invalidateMetadata()
			return v, func() tea.Msg { return tui.RefreshMsg{} }
		}
	}

	return v.forwardToFocusedPane(msg)
}

func (v *MainView) dispatchAction(msg components.MenuSelectedMsg) (tui.Component, tea.Cmd) {
	target := msg.Target
	env := v.targetEnv(target)

	switch msg.Action {
	case components.ActionRun:
		return v.startRun(env, target)

	case components.ActionRunSuite:
		suite, ok := target.Item.(*core.Suite)
		if !ok {
			return v.showToast("not a suite", true)
		}
		v.results.SetLoading(true)
		v.focusPane(PaneResults)
		run := v.runnerFor(env)
		return v, func() tea.Msg {
			summary, err := run.RunSuite(context.Background(), suite)
			return suiteDoneMsg{name: suite.Name, summary: summary, err: err}
		}

	case components.ActionSendRequest:
		call, ok := target.Item.(*core.APICall)
		if !ok {
			return v.showToast("not an api call", true)
		}
		v.results.SetLoading(true)
		v.focusPane(PaneResults)
		run := v.runnerFor(env)
		return v, func() tea.Msg {
			result, err := run.SendAPICall(context.Background(), call)
			return apiCallDoneMsg{name: call.Name, result: result, err: err}
		}

	case components.ActionEdit:
		if target.Item != nil {
			v.detail.SetItem(target.Item)
			v.focusPane(PaneDetail)
		}
		return v, nil

	case components.ActionDelete:
		v.confirm = components.NewConfirmModal(v.deletePrompt(msg.Kind, target), components.ActionDelete, msg.Kind, target)
		return v, nil

	case components.ActionShowHistory:
		return v.startHistory(env, target)

	case components.ActionAnalyze:
		return v.startAnalyze(env, target)

	case components.ActionShowDefinition:
		rule := target.Rule
		meta := v.metadataFor(env)
		return v, func() tea.Msg {
			def, err := meta.Definition(context.Background(), rule)
			return definitionDoneMsg{rule: rule, def: def, err: err}
		}

	case components.ActionCopy:
		if v.clip == nil || target.Item == nil {
			return v, nil
		}
		if err := v.clip.Copy(target.Item, v.cfg.DefaultEnv); err != nil {
			v.log.Warn("os clipboard write failed", zap.Error(err))
		}
		return v.showToast("copied "+displayNameOf(target.Item), false)

	case components.ActionPaste:
		return v.startPaste(target)

	case components.ActionRefresh:
		v.invalidateMetadata()
		return v, func() tea.Msg { return tui.RefreshMsg{} }
	}

	return v, nil
}

// startRun executes a leaf request, or every request under a rule
// header, recording each run.
func (v *MainView) startRun(env string, target components.TargetRef) (tui.Component, tea.Cmd) {
	if req, ok := target.Item.(*core.Request); ok {
		v.results.SetLoading(true)
		v.focusPane(PaneResults)
		run := v.runnerFor(env)
		return v, func() tea.Msg {
			result, err := run.RunRequest(context.Background(), req)
			return runDoneMsg{name: req.Name, result: result, err: err}
		}
	}

	if target.Kind == components.TargetRuleHeader {
		req, err := v.firstRequestOfRule(env, target.Rule)
		if err != nil {
			return v.showToast(err.Error(), true)
		}
		v.results.SetLoading(true)
		v.focusPane(PaneResults)
		run := v.runnerFor(env)
		return v, func() tea.Msg {
			result, runErr := run.RunRequest(context.Background(), req)
			return runDoneMsg{name: req.Name, result: result, err: runErr}
		}
	}

	return v, nil
}

// startHistory asks the engine for a rule's evaluation history. When
// the endpoint is unreachable and the target is a stored request, the
// locally recorded runs stand in.
func (v *MainView) startHistory(env string, target components.TargetRef) (tui.Component, tea.Cmd) {
	rule, personaID, label, err := v.resolveRulePersona(env, target)
	if err != nil {
		return v.showToast(err.Error(), true)
	}

	var refID string
	if req, ok := target.Item.(*core.Request); ok {
		refID = req.ID
	}

	eng := v.engineFor(env)
	gw := v.gateway
	return v, func() tea.Msg {
		entries, histErr := eng.History(context.Background(), rule, personaID)
		if histErr != nil && refID != "" {
			runs, runErr := gw.RunHistory(context.Background(), env, core.KindRequest, refID)
			if runErr == nil && len(runs) > 0 {
				return historyDoneMsg{label: label, runs: runs}
			}
		}
		return historyDoneMsg{label: label, entries: entries, err: histErr}
	}
}

func (v *MainView) startAnalyze(env string, target components.TargetRef) (tui.Component, tea.Cmd) {
	var req *core.Request
	if r, ok := target.Item.(*core.Request); ok {
		req = r
	} else if target.Kind == components.TargetRuleHeader {
		r, err := v.firstRequestOfRule(env, target.Rule)
		if err != nil {
			return v.showToast(err.Error(), true)
		}
		req = r
	} else {
		return v, nil
	}

	eng := v.engineFor(env)
	label := req.Name
	return v, func() tea.Msg {
		exec, err := eng.Execute(context.Background(), req)
		if err != nil {
			return analysisDoneMsg{label: label, err: err}
		}
		return analysisDoneMsg{label: label, explanation: exec.Explanation, evaluationData: exec.EvaluationData}
	}
}

// startPaste resolves the target environment and rule per the paste
// contract and submits the clone.
func (v *MainView) startPaste(target components.TargetRef) (tui.Component, tea.Cmd) {
	if v.clip == nil {
		return v, nil
	}

	targetEnv := ""
	targetRule := ""
	switch target.Kind {
	case components.TargetEnvHeader:
		targetEnv = target.Env
	case components.TargetRuleHeader:
		targetEnv = target.Env
		targetRule = target.Rule
	case components.TargetLeaf:
		if target.Item != nil {
			targetEnv = target.Item.Env()
		}
	}

	clip := v.clip
	return v, func() tea.Msg {
		item, err := clip.Paste(context.Background(), targetEnv, targetRule)
		if err != nil {
			return pasteDoneMsg{err: err}
		}
		return pasteDoneMsg{name: item.ItemName()}
	}
}

func (v *MainView) executeDelete(kind core.ItemKind, target components.TargetRef) tea.Cmd {
	gw := v.gateway

	if target.Kind == components.TargetLeaf && target.Item != nil {
		id := target.Item.ItemID()
		return func() tea.Msg {
			return mutationDoneMsg{verb: "delete", err: gw.Delete(context.Background(), kind, id)}
		}
	}

	if target.Kind == components.TargetRuleHeader {
		env, rule := target.Env, target.Rule
		return func() tea.Msg {
			reqs, err := gw.ListRequests(context.Background(), env)
			if err != nil {
				return mutationDoneMsg{verb: "delete", err: err}
			}
			for _, req := range reqs {
				if req.RuleName != rule {
					continue
				}
				if err := gw.Delete(context.Background(), core.KindRequest, req.ID); err != nil {
					return mutationDoneMsg{verb: "delete", err: err}
				}
			}
			return mutationDoneMsg{verb: "delete"}
		}
	}

	return nil
}

func (v *MainView) createSkeleton(kind core.ItemKind, env string) tea.Cmd {
	gw := v.gateway
	user := v.cfg.User

	var item core.Item
	switch kind {
	case core.KindSuite:
		item = &core.Suite{Name: "New Suite", Environment: env, Status: core.StatusActive, CreatedBy: user}
	case core.KindAPICall:
		item = &core.APICall{Name: "New API Call", Environment: env, Method: "GET", Status: core.StatusActive, CreatedBy: user}
	default:
		item = &core.Request{Name: "New Request", Environment: env, RuleName: "unassigned", Status: core.StatusActive, CreatedBy: user}
	}

	return func() tea.Msg {
		_, err := gw.Create(context.Background(), item)
		return mutationDoneMsg{verb: "create", err: err}
	}
}

func (v *MainView) deletePrompt(kind core.ItemKind, target components.TargetRef) string {
	if target.Kind == components.TargetRuleHeader {
		return fmt.Sprintf("Delete all %s requests in %s?", target.Rule, target.Env)
	}
	name := "this item"
	if target.Item != nil {
		name = displayNameOf(target.Item)
	}
	return fmt.Sprintf("Delete %s %q?", kind, name)
}

// resolveRulePersona picks the rule and persona for a history lookup.
// A leaf carries both; a rule header borrows the persona of the
// rule's first stored request.
func (v *MainView) resolveRulePersona(env string, target components.TargetRef) (rule, personaID, label string, err error) {
	if req, ok := target.Item.(*core.Request); ok {
		return req.RuleName, req.PersonaID, req.RuleName + "/" + req.PersonaID, nil
	}
	if target.Kind == components.TargetRuleHeader {
		req, ferr := v.firstRequestOfRule(env, target.Rule)
		if ferr != nil {
			return "", "", "", ferr
		}
		return req.RuleName, req.PersonaID, req.RuleName + "/" + req.PersonaID, nil
	}
	return "", "", "", fmt.Errorf("no rule at this position")
}

func (v *MainView) firstRequestOfRule(env, rule string) (*core.Request, error) {
	reqs, err := v.gateway.ListRequests(context.Background(), env)
	if err != nil {
		return nil, err
	}
	for _, req := range reqs {
		if req.RuleName == rule {
			return req, nil
		}
	}
	return nil, fmt.Errorf("no requests stored for rule %s in %s", rule, env)
}

func (v *MainView) targetEnv(target components.TargetRef) string {
	if target.Env != "" {
		return target.Env
	}
	if target.Item != nil && target.Item.Env() != "" {
		return target.Item.Env()
	}
	return v.cfg.DefaultEnv
}

func (v *MainView) invalidateMetadata() {
	for _, client := range v.metadata {
		client.Invalidate()
	}
}

// afterMutation refreshes the trees and raises a toast in one batch.
func (v *MainView) afterMutation(text string, isErr bool) (tui.Component, tea.Cmd) {
	_, toastCmd := v.showToast(text, isErr)
	return v, tea.Batch(toastCmd, func() tea.Msg { return tui.RefreshMsg{} })
}

func (v *MainView) showToast(text string, isErr bool) (tui.Component, tea.Cmd) {
	v.notification = text
	v.notifyIsErr = isErr
	if isErr {
		v.log.Warn(text)
	} else {
		v.log.Info(text)
	}
	return v, tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return tui.ClearToastMsg{}
	})
}

func (v *MainView) forwardToFocusedPane(msg tea.Msg) (tui.Component, tea.Cmd) {
	var cmd tea.Cmd

	switch v.focusedPane {
	case PaneTree:
		updated, c := v.activeNavTree().Update(msg)
		v.trees[v.activeTree] = updated.(*components.NavTree)
		cmd = c
	case PaneDetail:
		updated, c := v.detail.Update(msg)
		v.detail = updated.(*components.DetailPanel)
		cmd = c
	case PaneResults:
		updated, c := v.results.Update(msg)
		v.results = updated.(*components.ResultsPanel)
		cmd = c
	}

	return v, cmd
}

func (v *MainView) activeNavTree() *components.NavTree {
	return v.trees[v.activeTree]
}

func (v *MainView) switchTree(index int) {
	if index < 0 || index >= len(v.trees) {
		return
	}
	wasFocused := v.activeNavTree().Focused()
	v.activeNavTree().Blur()
	v.activeTree = index
	if wasFocused {
		v.activeNavTree().Focus()
	}
	v.updatePaneSizes()
}

func (v *MainView) cycleFocus(delta int) {
	next := (int(v.focusedPane) + delta + 3) % 3
	v.focusPane(Pane(next))
}

func (v *MainView) focusPane(pane Pane) {
	v.activeNavTree().Blur()
	v.detail.Blur()
	v.results.Blur()

	v.focusedPane = pane
	switch pane {
	case PaneTree:
		v.activeNavTree().Focus()
	case PaneDetail:
		v.detail.Focus()
	case PaneResults:
		v.results.Focus()
	}
}

func (v *MainView) updatePaneSizes() {
	if v.width == 0 || v.height == 0 {
		return
	}

	sidebarWidth := v.width * 30 / 100
	if sidebarWidth < 28 {
		sidebarWidth = 28
	}
	if sidebarWidth > 64 {
		sidebarWidth = 64
	}
	rightWidth := v.width - sidebarWidth

	totalHeight := v.height - 2
	if totalHeight < 2 {
		totalHeight = 2
	}

	detailHeight := totalHeight * 45 / 100
	if detailHeight < 8 {
		detailHeight = 8
	}
	resultsHeight := totalHeight - detailHeight

	for _, tree := range v.trees {
		tree.SetSize(sidebarWidth, totalHeight)
	}
	v.detail.SetSize(rightWidth, detailHeight)
	v.results.SetSize(rightWidth, resultsHeight)
}

// View renders the view.
func (v *MainView) View() string {
	if v.width == 0 || v.height == 0 {
		return ""
	}

	if v.showHelp {
		return v.renderHelp()
	}
	if v.confirm != nil {
		return v.renderOverlay(v.confirm.View())
	}
	if v.menu != nil {
		return v.renderOverlay(v.menu.View())
	}

	sidebar := v.activeNavTree().View()
	rightStack := lipgloss.JoinVertical(lipgloss.Left, v.detail.View(), v.results.View())
	panes := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, rightStack)

	tabBar := v.renderTreeTabs()
	statusBar := v.renderStatusBar()

	return lipgloss.JoinVertical(lipgloss.Left, tabBar, panes, statusBar)
}

func (v *MainView) renderOverlay(box string) string {
	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, box)
}

func (v *MainView) renderTreeTabs() string {
	var tabs []string
	for i, title := range treeTitles {
		style := lipgloss.NewStyle().Padding(0, 2)
		if i == v.activeTree {
			style = style.Background(lipgloss.Color("62")).Foreground(lipgloss.Color("229")).Bold(true)
		} else {
			style = style.Foreground(lipgloss.Color("245"))
		}
		tabs = append(tabs, style.Render(fmt.Sprintf("%d %s", i+1, title)))
	}
	bar := lipgloss.NewStyle().Width(v.width).Background(lipgloss.Color("235"))
	return bar.Render(strings.Join(tabs, " "))
}

func (v *MainView) renderStatusBar() string {
	var items []string

	envStyle := lipgloss.NewStyle().
		Background(lipgloss.Color("62")).
		Foreground(lipgloss.Color("229")).
		Padding(0, 1).
		Bold(true)
	items = append(items, envStyle.Render("ENV: "+v.cfg.DefaultEnv))

	paneStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Padding(0, 1)
	paneName := treeTitles[v.activeTree]
	switch v.focusedPane {
	case PaneDetail:
		paneName = "Details"
	case PaneResults:
		paneName = "Results"
	}
	items = append(items, paneStyle.Render(paneName))

	if v.clip != nil && v.clip.HasContent() {
		clipStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Padding(0, 1)
		if slot, ok := v.clip.Slot(); ok {
			items = append(items, clipStyle.Render(fmt.Sprintf("clip: %s (%s)", slot.Item.ItemName(), slot.SourceEnv)))
		}
	}

	if v.notification != "" {
		notifyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("34")).Bold(true).Padding(0, 1)
		if v.notifyIsErr {
			notifyStyle = notifyStyle.Foreground(lipgloss.Color("160"))
		}
		items = append(items, notifyStyle.Render(v.notification))
	}

	helpHint := lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Padding(0, 1).Render("? help  q quit")

	leftContent := strings.Join(items, " ")
	spacerWidth := v.width - lipgloss.Width(leftContent) - lipgloss.Width(helpHint)
	if spacerWidth < 0 {
		spacerWidth = 0
	}

	bar := lipgloss.NewStyle().Width(v.width).Background(lipgloss.Color("236"))
	return bar.Render(leftContent + strings.Repeat(" ", spacerWidth) + helpHint)
}

func (v *MainView) renderHelp() string {
	helpContent := []string{
		"╭────────────────── Ruliad Help ──────────────────╮",
		"│                                                  │",
		"│  Navigation                                      │",
		"│    Tab / Shift+Tab    Cycle between panes        │",
		"│    1 / 2 / 3          Requests/Suites/API Calls  │",
		"│    j / k              Move down/up               │",
		"│    h / l              Collapse/Expand            │",
		"│    gg / G             Go to top/bottom           │",
		"│                                                  │",
		"│  Tree                                            │",
		"│    Enter              Select leaf / toggle group │",
		"│    m                  Open action menu           │",
		"│    a                  Add new item               │",
		"│    /                  Search, Esc clears         │",
		"│    R                  Refresh everything         │",
		"│                                                  │",
		"│  Menu actions                                    │",
		"│    Run / Run Suite    Execute against the engine │",
		"│    Copy / Paste       Duplicate across envs      │",
		"│    Show History       Engine evaluation history  │",
		"│    Show Rule Def.     Render the rule tree       │",
		"│                                                  │",
		"│  General                                         │",
		"│    ?                  Toggle this help           │",
		"│    q / Ctrl+C         Quit                       │",
		"│                                                  │",
		"│           Press ? or Esc to close                │",
		"╰──────────────────────────────────────────────────╯",
	}

	helpStyle := lipgloss.NewStyle().
		Width(v.width).
		Height(v.height).
		Align(lipgloss.Center, lipgloss.Center)

	return helpStyle.Render(strings.Join(helpContent, "\n"))
}

// Title returns the view title.
func (v *MainView) Title() string {
	return "Ruliad"
}

// Focused reports focus; the main view always is.
func (v *MainView) Focused() bool {
	return true
}

// Focus sets focus.
func (v *MainView) Focus() {}

// Blur removes focus.
func (v *MainView) Blur() {}

// SetSize sets dimensions.
func (v *MainView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.updatePaneSizes()
}

// Width returns the width.
func (v *MainView) Width() int {
	return v.width
}

// Height returns the height.
func (v *MainView) Height() int {
	return v.height
}

// FocusedPane returns the currently focused pane.
func (v *MainView) FocusedPane() Pane {
	return v.focusedPane
}

// ActiveTree returns the NavTree currently shown in the sidebar.
func (v *MainView) ActiveTree() *components.NavTree {
	return v.activeNavTree()
}

// DetailPanel returns the detail panel component.
func (v *MainView) DetailPanel() *components.DetailPanel {
	return v.detail
}

// ResultsPanel returns the results panel component.
func (v *MainView) ResultsPanel() *components.ResultsPanel {
	return v.results
}

// MenuOpen reports whether a context menu is showing.
func (v *MainView) MenuOpen() bool {
	return v.menu != nil
}

// ConfirmOpen reports whether a confirm dialog is showing.
func (v *MainView) ConfirmOpen() bool {
	return v.confirm != nil
}

// Notification returns the current toast text.
func (v *MainView) Notification() string {
	return v.notification
}

func displayNameOf(item core.Item) string {
	if name := item.ItemName(); name != "" {
		return name
	}
	return item.ItemID()
}

// Async command results.

type runDoneMsg struct {
	name   string
	result *runner.RequestResult
	err    error
}

type suiteDoneMsg struct {
	name    string
	summary *runner.SuiteSummary
	err     error
}

type apiCallDoneMsg struct {
	name   string
	result *apicaller.Result
	err    error
}

type historyDoneMsg struct {
	label   string
	entries []engine.HistoryEntry
	runs    []store.Run
	err     error
}

type analysisDoneMsg struct {
	label          string
	explanation    string
	evaluationData []byte
	err            error
}

type definitionDoneMsg struct {
	rule string
	def  *core.RuleDefinition
	err  error
}

type pasteDoneMsg struct {
	name string
	err  error
}

type mutationDoneMsg struct {
	verb string
	err  error
}
