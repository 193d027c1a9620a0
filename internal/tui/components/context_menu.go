package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ruliad/internal/core"
	"ruliad/internal/tui"
)

// Action identifies a context menu operation.
type Action string

const (
	ActionRun            Action = "run"
	ActionEdit           Action = "edit"
	ActionDelete         Action = "delete"
	ActionShowHistory    Action = "show_history"
	ActionAnalyze        Action = "analyze"
	ActionCopy           Action = "copy"
	ActionRunSuite       Action = "run_suite"
	ActionSendRequest    Action = "send_request"
	ActionShowDefinition Action = "show_definition"
	ActionRefresh        Action = "refresh"
	ActionPaste          Action = "paste"
)

// MenuItem is one selectable menu entry.
type MenuItem struct {
	Label  string
	Action Action
}

// BuildMenu assembles the menu for a resolved target. The entry set
// depends on the tree kind and the target's shape; a non-empty
// clipboard slot appends Paste to every menu.
func BuildMenu(kind core.ItemKind, target TargetRef, hasClipboard bool) []MenuItem {
	var items []MenuItem

	switch target.Kind {
	case TargetLeaf:
		switch kind {
		case core.KindSuite:
			items = []MenuItem{
				{Label: "Run Suite", Action: ActionRunSuite},
				{Label: "Edit Suite", Action: ActionEdit},
				{Label: "Delete Suite", Action: ActionDelete},
				{Label: "Copy", Action: ActionCopy},
			}
		case core.KindAPICall:
			items = []MenuItem{
				{Label: "Send Request", Action: ActionSendRequest},
				{Label: "Edit Request", Action: ActionEdit},
				{Label: "Delete Request", Action: ActionDelete},
				{Label: "Copy", Action: ActionCopy},
			}
		default:
			items = []MenuItem{
				{Label: "Run", Action: ActionRun},
				{Label: "Edit", Action: ActionEdit},
				{Label: "Delete", Action: ActionDelete},
				{Label: "Show History", Action: ActionShowHistory},
				{Label: "Analyze", Action: ActionAnalyze},
				{Label: "Copy", Action: ActionCopy},
			}
		}
	case TargetRuleHeader:
		if kind == core.KindRequest && target.Rule != "" {
			items = []MenuItem{
				{Label: "Run", Action: ActionRun},
				{Label: "Edit", Action: ActionEdit},
				{Label: "Delete", Action: ActionDelete},
				{Label: "Show History", Action: ActionShowHistory},
				{Label: "Analyze", Action: ActionAnalyze},
				{Label: "Show Rule Definition", Action: ActionShowDefinition},
			}
		}
	case TargetEnvHeader:
		items = []MenuItem{
			{Label: "Refresh", Action: ActionRefresh},
		}
	}

	if hasClipboard {
		items = append(items, MenuItem{Label: "Paste", Action: ActionPaste})
	}
	return items
}

// MenuSelectedMsg fires when a menu entry is chosen.
type MenuSelectedMsg struct {
	Action Action
	Kind   core.ItemKind
	Target TargetRef
}

// CloseMenuMsg fires when the menu is dismissed without choosing.
type CloseMenuMsg struct{}

// ContextMenu is a modal list of actions for one tree target.
// It swallows all keys while open; Esc dismisses without firing.
type ContextMenu struct {
	*tui.BaseComponent

	kind   core.ItemKind
	target TargetRef
	items  []MenuItem
	cursor int
}

// NewContextMenu builds a menu for the target. Returns nil when the
// target yields no entries, so callers can skip opening an empty menu.
func NewContextMenu(kind core.ItemKind, target TargetRef, hasClipboard bool) *ContextMenu {
	items := BuildMenu(kind, target, hasClipboard)
	if len(items) == 0 {
		return nil
	}
	menu := &ContextMenu{
		BaseComponent: tui.NewBaseComponent("Actions"),
		kind:          kind,
		target:        target,
		items:         items,
	}
	menu.Focus()
	return menu
}

// Items exposes the menu entries.
func (m *ContextMenu) Items() []MenuItem {
	return m.items
}

// Init initializes the menu.
func (m *ContextMenu) Init() tea.Cmd {
	return nil
}

// Update handles menu navigation.
func (m *ContextMenu) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "j", "down":
		m.cursor = MoveCursor(m.cursor, 1, len(m.items))
	case "k", "up":
		m.cursor = MoveCursor(m.cursor, -1, len(m.items))
	case "enter":
		chosen := m.items[m.cursor]
		kind, target := m.kind, m.target
		return m, func() tea.Msg {
			return MenuSelectedMsg{Action: chosen.Action, Kind: kind, Target: target}
		}
	case "esc", "q":
		return m, func() tea.Msg {
			return CloseMenuMsg{}
		}
	}
	return m, nil
}

// View renders the menu as a bordered overlay box.
func (m *ContextMenu) View() string {
	width := 0
	for _, item := range m.items {
		if len(item.Label) > width {
			width = len(item.Label)
		}
	}
	width += 4

	var b strings.Builder
	b.WriteString(menuTitleStyle.Render(tui.PadRight(" "+m.targetLabel(), width)))
	b.WriteString("\n")
	for i, item := range m.items {
		line := tui.PadRight("  "+item.Label, width)
		if i == m.cursor {
			b.WriteString(cursorStyle.Render(line))
		} else {
			b.WriteString(line)
		}
		if i < len(m.items)-1 {
			b.WriteString("\n")
		}
	}

	return menuBorderStyle.Render(b.String())
}

func (m *ContextMenu) targetLabel() string {
	switch m.target.Kind {
	case TargetLeaf:
		if m.target.Item != nil {
			return displayName(m.target.Item)
		}
		return "item"
	case TargetRuleHeader:
		return m.target.Rule
	case TargetEnvHeader:
		return m.target.Env
	case TargetPersonaHeader:
		return m.target.Persona
	}
	return ""
}

// ConfirmResultMsg reports the user's answer to a confirm dialog.
// A declined dialog must change nothing downstream.
type ConfirmResultMsg struct {
	Confirmed bool
	Action    Action
	Kind      core.ItemKind
	Target    TargetRef
}

// ConfirmModal asks a yes/no question before a destructive action.
type ConfirmModal struct {
	*tui.BaseComponent

	prompt string
	action Action
	kind   core.ItemKind
	target TargetRef
}

// NewConfirmModal builds a confirm dialog for the pending action.
func NewConfirmModal(prompt string, action Action, kind core.ItemKind, target TargetRef) *ConfirmModal {
	modal := &ConfirmModal{
		BaseComponent: tui.NewBaseComponent("Confirm"),
		prompt:        prompt,
		action:        action,
		kind:          kind,
		target:        target,
	}
	modal.Focus()
	return modal
}

// Init initializes the modal.
func (m *ConfirmModal) Init() tea.Cmd {
	return nil
}

// Update handles the answer. Anything other than an explicit yes
// declines.
func (m *ConfirmModal) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	confirmed := false
	switch key.String() {
	case "y", "Y", "enter":
		confirmed = true
	case "n", "N", "esc", "q":
		confirmed = false
	default:
		return m, nil
	}

	result := ConfirmResultMsg{Confirmed: confirmed, Action: m.action, Kind: m.kind, Target: m.target}
	return m, func() tea.Msg {
		return result
	}
}

// View renders the dialog.
func (m *ConfirmModal) View() string {
	var b strings.Builder
	b.WriteString(m.prompt)
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("  y: confirm    n/esc: cancel"))
	return menuBorderStyle.Render(b.String())
}

var (
	menuTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("238")).Bold(true)
	menuBorderStyle = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
)
