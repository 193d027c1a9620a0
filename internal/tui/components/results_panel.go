package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"ruliad/internal/apicaller"
	"ruliad/internal/engine"
	"ruliad/internal/runner"
	"ruliad/internal/store"
	"ruliad/internal/tui"
)

// ResultsPanel shows execution outcomes: single runs, suite summaries,
// API responses, run history, analysis payloads and rule definitions.
// Content arrives pre-rendered as lines; the panel only scrolls.
type ResultsPanel struct {
	*tui.BaseComponent

	heading   string
	lines     []string
	scrollOff int
	gPressed  bool
	loading   bool
}

// NewResultsPanel creates an empty results panel.
func NewResultsPanel() *ResultsPanel {
	return &ResultsPanel{
		BaseComponent: tui.NewBaseComponent("Results"),
	}
}

// SetLoading toggles the loading indicator.
func (p *ResultsPanel) SetLoading(loading bool) {
	p.loading = loading
}

// Lines exposes the current content.
func (p *ResultsPanel) Lines() []string {
	return p.lines
}

func (p *ResultsPanel) setContent(heading string, lines []string) {
	p.heading = heading
	p.lines = lines
	p.scrollOff = 0
	p.loading = false
}

// ShowRunResult displays the outcome of a single request execution.
func (p *ResultsPanel) ShowRunResult(result *runner.RequestResult) {
	lines := []string{
		"Rule:      " + result.RuleName,
		fmt.Sprintf("Passed:    %v", result.Passed),
		"Decision:  " + result.Decision,
		fmt.Sprintf("Duration:  %s", result.Duration),
	}
	if result.Err != nil {
		lines = append(lines, "", errorStyle.Render("Error: "+result.Err.Error()))
	}
	if len(result.Detail) > 0 {
		lines = append(lines, "", "Evaluation data:")
		lines = append(lines, FormatJSON(string(result.Detail))...)
	}
	p.setContent("Run: "+result.RequestName, lines)
}

// ShowSuiteSummary displays a suite run tally with per-entry outcomes.
func (p *ResultsPanel) ShowSuiteSummary(summary *runner.SuiteSummary) {
	lines := []string{
		summary.Describe(),
		fmt.Sprintf("Duration:  %s", summary.TotalDuration),
		"",
	}
	for _, entry := range summary.Results {
		mark := passMark
		switch {
		case entry.Err != nil:
			mark = errMark
		case !entry.Matched:
			mark = failMark
		}
		line := fmt.Sprintf("%s %s  xid=%s  expected=%v actual=%v", mark, entry.RuleName, entry.XID, entry.Expected, entry.Actual)
		if entry.Err != nil {
			line = fmt.Sprintf("%s %s  xid=%s  %s", mark, entry.RuleName, entry.XID, entry.Err)
		}
		lines = append(lines, line)
	}
	p.setContent("Suite: "+summary.SuiteName, lines)
}

// ShowAPIResult displays a generic API call response.
func (p *ResultsPanel) ShowAPIResult(name string, result *apicaller.Result) {
	statusLine := result.Status
	if result.OK() {
		statusLine = passMark + " " + statusLine
	} else {
		statusLine = failMark + " " + statusLine
	}
	lines := []string{
		statusLine,
		fmt.Sprintf("Duration:  %s", result.Duration),
		fmt.Sprintf("Size:      %d bytes", result.Size),
		"",
	}
	lines = append(lines, FormatJSON(result.Body)...)
	p.setContent("Response: "+name, lines)
}

// ShowHistory displays persisted runs, newest first.
func (p *ResultsPanel) ShowHistory(label string, runs []store.Run) {
	if len(runs) == 0 {
		p.setContent("History: "+label, []string{dimStyle.Render("no runs recorded")})
		return
	}
	lines := make([]string, 0, len(runs))
	for _, run := range runs {
		lines = append(lines, fmt.Sprintf("%s  %-8s  %dms  %s",
			run.CreatedAt.Format("2006-01-02 15:04:05"), run.Status, run.ExecutionMS, run.CreatedBy))
	}
	p.setContent("History: "+label, lines)
}

// ShowEngineHistory displays engine-side evaluation history for a rule
// and persona.
func (p *ResultsPanel) ShowEngineHistory(label string, entries []engine.HistoryEntry) {
	if len(entries) == 0 {
		p.setContent("History: "+label, []string{dimStyle.Render("no evaluations recorded")})
		return
	}
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, fmt.Sprintf("%s  %-10s  result=%v",
			entry.Timestamp.Format("2006-01-02 15:04:05"), entry.Status, entry.Result))
	}
	p.setContent("History: "+label, lines)
}

// ShowAnalysis displays an evaluation explanation payload.
func (p *ResultsPanel) ShowAnalysis(label string, explanation string, evaluationData []byte) {
	var lines []string
	if explanation != "" {
		lines = append(lines, explanation, "")
	}
	if len(evaluationData) > 0 {
		lines = append(lines, FormatJSON(string(evaluationData))...)
	}
	if len(lines) == 0 {
		lines = []string{dimStyle.Render("no analysis data returned")}
	}
	p.setContent("Analyze: "+label, lines)
}

// ShowText displays pre-rendered content, e.g. a rule definition.
func (p *ResultsPanel) ShowText(heading, content string) {
	p.setContent(heading, strings.Split(content, "\n"))
}

// ShowError displays a failure in place of results.
func (p *ResultsPanel) ShowError(heading string, err error) {
	p.setContent(heading, []string{errorStyle.Render(err.Error())})
}

// Init initializes the panel.
func (p *ResultsPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (p *ResultsPanel) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	switch msg := msg.(type) {
	case tui.FocusMsg:
		p.Focus()
	case tui.BlurMsg:
		p.Blur()
	case tea.KeyMsg:
		if p.Focused() {
			p.handleKeyMsg(msg)
		}
	}
	return p, nil
}

func (p *ResultsPanel) handleKeyMsg(msg tea.KeyMsg) {
	pageSize := p.Height() - 6
	if pageSize < 1 {
		pageSize = 5
	}

	key := msg.String()
	if p.gPressed {
		p.gPressed = false
		if key == "g" {
			p.scrollOff = 0
			return
		}
	}

	switch key {
	case "j", "down":
		p.scroll(1)
	case "k", "up":
		p.scroll(-1)
	case "ctrl+d", "pgdown":
		p.scroll(pageSize)
	case "ctrl+u", "pgup":
		p.scroll(-pageSize)
	case "g":
		p.gPressed = true
	case "G":
		p.scrollOff = p.maxScroll()
	}
}

func (p *ResultsPanel) scroll(delta int) {
	p.scrollOff += delta
	if p.scrollOff < 0 {
		p.scrollOff = 0
	}
	if p.scrollOff > p.maxScroll() {
		p.scrollOff = p.maxScroll()
	}
}

func (p *ResultsPanel) maxScroll() int {
	visible := p.Height() - 4
	if visible < 1 {
		visible = 1
	}
	if len(p.lines) <= visible {
		return 0
	}
	return len(p.lines) - visible
}

// View renders the panel.
func (p *ResultsPanel) View() string {
	title := p.BaseComponent.Title()
	if p.heading != "" {
		title = p.heading
	}
	bar := tui.RenderTitle(title, p.Width()-2, p.Focused())

	if p.loading {
		return tui.RenderBorder(bar+"\n"+dimStyle.Render("running..."), p.Width()-2, p.Height()-2, p.Focused())
	}
	if len(p.lines) == 0 {
		return tui.RenderBorder(bar+"\n"+dimStyle.Render("No results yet"), p.Width()-2, p.Height()-2, p.Focused())
	}

	visible := p.Height() - 4
	if visible < 1 {
		visible = 1
	}
	end := p.scrollOff + visible
	if end > len(p.lines) {
		end = len(p.lines)
	}

	body := strings.Join(p.lines[p.scrollOff:end], "\n")
	return tui.RenderBorder(bar+"\n"+body, p.Width()-2, p.Height()-2, p.Focused())
}

const (
	passMark = "✓"
	failMark = "✗"
	errMark  = "!"
)
