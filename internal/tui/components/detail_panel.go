package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ruliad/internal/core"
	"ruliad/internal/tui"
)

// DetailTab represents the active tab in the detail panel.
type DetailTab int

const (
	TabOverview DetailTab = iota
	TabSnapshot
	TabContext
)

var detailTabNames = []string{"Overview", "Snapshot", "Context"}

// DetailPanel shows the selected item: a per-kind overview, the full
// snapshot as highlighted JSON, and the evaluation context for
// requests.
type DetailPanel struct {
	*tui.BaseComponent

	item      core.Item
	activeTab DetailTab
	scrollOff int
}

// NewDetailPanel creates an empty detail panel.
func NewDetailPanel() *DetailPanel {
	return &DetailPanel{
		BaseComponent: tui.NewBaseComponent("Details"),
	}
}

// Item returns the displayed item.
func (p *DetailPanel) Item() core.Item {
	return p.item
}

// SetItem swaps the displayed item and resets scroll state.
func (p *DetailPanel) SetItem(item core.Item) {
	p.item = item
	p.scrollOff = 0
}

// Init initializes the panel.
func (p *DetailPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (p *DetailPanel) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	switch msg := msg.(type) {
	case SelectItemMsg:
		p.SetItem(msg.Item)
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

func (p *DetailPanel) handleKeyMsg(msg tea.KeyMsg) {
	switch msg.String() {
	case "tab":
		p.activeTab = DetailTab((int(p.activeTab) + 1) % len(detailTabNames))
		p.scrollOff = 0
	case "shift+tab":
		p.activeTab = DetailTab((int(p.activeTab) - 1 + len(detailTabNames)) % len(detailTabNames))
		p.scrollOff = 0
	case "j", "down":
		p.scrollOff++
	case "k", "up":
		if p.scrollOff > 0 {
			p.scrollOff--
		}
	case "g":
		p.scrollOff = 0
	}
}

// View renders the panel.
func (p *DetailPanel) View() string {
	title := tui.RenderTitle(p.Title(), p.Width()-2, p.Focused())

	if p.item == nil {
		empty := dimStyle.Render("No item selected")
		return tui.RenderBorder(title+"\n"+empty, p.Width()-2, p.Height()-2, p.Focused())
	}

	tabBar := p.renderTabBar()

	contentHeight := p.Height() - 5
	if contentHeight < 1 {
		contentHeight = 1
	}

	lines := p.contentLines()
	if p.scrollOff > len(lines)-1 {
		p.scrollOff = max(0, len(lines)-1)
	}
	end := p.scrollOff + contentHeight
	if end > len(lines) {
		end = len(lines)
	}
	body := strings.Join(lines[p.scrollOff:end], "\n")

	return tui.RenderBorder(title+"\n"+tabBar+"\n"+body, p.Width()-2, p.Height()-2, p.Focused())
}

func (p *DetailPanel) renderTabBar() string {
	var tabs []string
	for i, name := range detailTabNames {
		if DetailTab(i) == p.activeTab {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	return strings.Join(tabs, " ")
}

func (p *DetailPanel) contentLines() []string {
	switch p.activeTab {
	case TabSnapshot:
		data, err := core.EncodeSnapshot(p.item)
		if err != nil {
			return []string{errorStyle.Render(err.Error())}
		}
		return FormatJSON(string(data))
	case TabContext:
		return p.contextLines()
	default:
		return p.overviewLines()
	}
}

func (p *DetailPanel) overviewLines() []string {
	switch item := p.item.(type) {
	case *core.Request:
		return []string{
			"Name:         " + item.Name,
			"Environment:  " + item.Environment,
			"Rule:         " + item.RuleName,
			"Persona:      " + item.PersonaType + " / " + item.PersonaID,
			"Status:       " + string(item.Status),
			"Created by:   " + item.CreatedBy,
		}
	case *core.Suite:
		lines := []string{
			"Name:         " + item.Name,
			"Environment:  " + item.Environment,
			fmt.Sprintf("Entries:      %d", len(item.Entries)),
			"Status:       " + string(item.Status),
			"",
		}
		for _, entry := range item.Entries {
			lines = append(lines, fmt.Sprintf("  %s  xid=%s  expect=%v", entry.RuleName, entry.XID, entry.ExpectedResult))
		}
		return lines
	case *core.APICall:
		lines := []string{
			"Name:         " + item.Name,
			"Environment:  " + item.Environment,
			"Endpoint:     " + item.Method + " " + item.URL,
			"Status:       " + string(item.Status),
		}
		if item.RuleName != "" {
			lines = append(lines, "Rule:         "+item.RuleName)
		}
		if item.Auth != nil {
			lines = append(lines, "Auth:         "+item.Auth.Type)
		}
		return lines
	default:
		return []string{"ID: " + p.item.ItemID()}
	}
}

func (p *DetailPanel) contextLines() []string {
	req, ok := p.item.(*core.Request)
	if !ok {
		call, ok := p.item.(*core.APICall)
		if ok && call.Body != "" {
			return FormatJSON(call.Body)
		}
		return []string{dimStyle.Render("no evaluation context for this item")}
	}
	if len(req.JSONContext) == 0 {
		return []string{dimStyle.Render("no evaluation context")}
	}
	return FormatJSON(string(req.JSONContext))
}

// Title returns the panel title.
func (p *DetailPanel) Title() string {
	if p.item != nil {
		return "Details: " + displayName(p.item)
	}
	return p.BaseComponent.Title()
}

var (
	activeTabStyle   = lipgloss.NewStyle().Padding(0, 1).Background(lipgloss.Color("62")).Foreground(lipgloss.Color("229")).Bold(true)
	inactiveTabStyle = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245"))
)
