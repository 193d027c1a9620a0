package components

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ruliad/internal/core"
	"ruliad/internal/store"
	"ruliad/internal/tui"
)

// SelectItemMsg is emitted when a leaf row is chosen. Selection is
// exclusive: choosing a row clears any previous selection.
type SelectItemMsg struct {
	Item core.Item
}

// OpenMenuMsg asks the main view to open a context menu for the
// resolved target.
type OpenMenuMsg struct {
	Kind   core.ItemKind
	Target TargetRef
}

// NewItemMsg asks the main view to create a fresh item of this kind
// in the given environment.
type NewItemMsg struct {
	Kind core.ItemKind
	Env  string
}

// NavTree displays one item kind as a navigable environment tree.
// Rows come from FlattenTree; all state transitions go through the
// pure functions in tree_core.go.
type NavTree struct {
	*tui.BaseComponent

	gateway store.Gateway
	kind    core.ItemKind
	envs    []string

	vm       ViewModel
	allRows  []TreeRow
	rows     []TreeRow
	expanded map[string]bool

	cursor     int
	offset     int
	selectedID string

	searchInput textinput.Model
	search      string
	searching   bool
	gPressed    bool

	loadErr error
}

// NewNavTree creates a tree over the given kind and environments.
func NewNavTree(title string, kind core.ItemKind, envs []string, gateway store.Gateway) *NavTree {
	input := textinput.New()
	input.Prompt = "/"
	input.Placeholder = "search"
	input.CharLimit = 64

	return &NavTree{
		BaseComponent: tui.NewBaseComponent(title),
		gateway:       gateway,
		kind:          kind,
		envs:          append([]string(nil), envs...),
		vm:            NewViewModel(kind, envs, nil),
		expanded:      make(map[string]bool),
		searchInput:   input,
	}
}

// Kind returns the item kind this tree displays.
func (c *NavTree) Kind() core.ItemKind {
	return c.kind
}

// TreeLoadedMsg delivers one tree's freshly listed items. Loads run in
// a tea.Cmd so a stalled store never blocks the event loop.
type TreeLoadedMsg struct {
	Kind  core.ItemKind
	Items []core.Item
	Err   error
}

// Reload lists the store synchronously and installs the result.
// Cursor position is clamped, expand state survives the rebuild.
func (c *NavTree) Reload(ctx context.Context) error {
	var items []core.Item
	for _, env := range c.envs {
		loaded, err := c.listEnv(ctx, env)
		if err != nil {
			c.loadErr = err
			return err
		}
		items = append(items, loaded...)
	}
	c.install(items)
	return nil
}

// loadCmd lists every environment inside the returned command and
// reports back as a TreeLoadedMsg. The tree itself is not touched
// until the message comes back through Update.
func (c *NavTree) loadCmd() tea.Cmd {
	gw, kind, envs := c.gateway, c.kind, c.envs
	return func() tea.Msg {
		ctx := context.Background()
		var items []core.Item
		for _, env := range envs {
			loaded, err := listTreeItems(ctx, gw, kind, env)
			if err != nil {
				return TreeLoadedMsg{Kind: kind, Err: err}
			}
			items = append(items, loaded...)
		}
		return TreeLoadedMsg{Kind: kind, Items: items}
	}
}

func (c *NavTree) install(items []core.Item) {
	c.loadErr = nil
	c.vm = NewViewModel(c.kind, c.envs, items)
	c.rebuild()
}

func (c *NavTree) listEnv(ctx context.Context, env string) ([]core.Item, error) {
	return listTreeItems(ctx, c.gateway, c.kind, env)
}

func listTreeItems(ctx context.Context, gw store.Gateway, kind core.ItemKind, env string) ([]core.Item, error) {
	switch kind {
	case core.KindSuite:
		suites, err := gw.ListSuites(ctx, env)
		if err != nil {
			return nil, err
		}
		items := make([]core.Item, len(suites))
		for i := range suites {
			items[i] = suites[i]
		}
		return items, nil
	case core.KindAPICall:
		calls, err := gw.ListAPICalls(ctx, env)
		if err != nil {
			return nil, err
		}
		items := make([]core.Item, len(calls))
		for i := range calls {
			items[i] = calls[i]
		}
		return items, nil
	default:
		reqs, err := gw.ListRequests(ctx, env)
		if err != nil {
			return nil, err
		}
		items := make([]core.Item, len(reqs))
		for i := range reqs {
			items[i] = reqs[i]
		}
		return items, nil
	}
}

func (c *NavTree) rebuild() {
	c.allRows = FlattenTree(c.vm, c.expanded)
	c.rows = FilterRowsBySearch(c.allRows, c.search)
	c.cursor = MoveCursor(c.cursor, 0, len(c.rows))
	c.offset = AdjustOffset(c.cursor, c.offset, c.visibleHeight())
}

// Rows exposes the current flattened rows.
func (c *NavTree) Rows() []TreeRow {
	return c.rows
}

// Cursor returns the current cursor index.
func (c *NavTree) Cursor() int {
	return c.cursor
}

// CursorTarget resolves the row under the cursor.
func (c *NavTree) CursorTarget() TargetRef {
	return ClassifyTarget(c.rows, c.cursor)
}

// SelectedID returns the ID of the selected leaf, if any.
func (c *NavTree) SelectedID() string {
	return c.selectedID
}

// Searching reports whether the search input is capturing keys.
func (c *NavTree) Searching() bool {
	return c.searching
}

// Init initializes the tree.
func (c *NavTree) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (c *NavTree) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if c.Focused() {
			if c.searching {
				return c.handleSearchInput(msg)
			}
			return c.handleKeyMsg(msg)
		}
	case tui.FocusMsg:
		c.Focus()
	case tui.BlurMsg:
		c.Blur()
	case tui.RefreshMsg:
		return c, c.loadCmd()
	case TreeLoadedMsg:
		if msg.Kind != c.kind {
			return c, nil
		}
		if msg.Err != nil {
			c.loadErr = msg.Err
			return c, func() tea.Msg {
				return tui.ToastMsg{Text: "load failed: " + msg.Err.Error(), IsErr: true}
			}
		}
		c.install(msg.Items)
	}
	return c, nil
}

func (c *NavTree) handleKeyMsg(msg tea.KeyMsg) (tui.Component, tea.Cmd) {
	key := msg.String()

	// gg sequence for jump-to-top
	if c.gPressed {
		c.gPressed = false
		if key == "g" {
			c.cursor = 0
			c.offset = 0
			return c, nil
		}
	}

	switch key {
	case "j", "down":
		c.cursor = MoveCursor(c.cursor, 1, len(c.rows))
		c.offset = AdjustOffset(c.cursor, c.offset, c.visibleHeight())
	case "k", "up":
		c.cursor = MoveCursor(c.cursor, -1, len(c.rows))
		c.offset = AdjustOffset(c.cursor, c.offset, c.visibleHeight())
	case "g":
		c.gPressed = true
	case "G":
		c.cursor = MoveCursor(0, len(c.rows)-1, len(c.rows))
		c.offset = AdjustOffset(c.cursor, c.offset, c.visibleHeight())
	case "h", "left":
		return c, c.collapseOrAscend()
	case "l", "right":
		if row, ok := c.rowAtCursor(); ok && row.Expandable && !row.Expanded {
			c.expanded = ToggleExpand(c.expanded, row.ID, true)
			c.rebuild()
		}
	case "enter", " ":
		return c.handleEnter()
	case "m":
		return c.openMenu()
	case "a":
		return c.addNew()
	case "/":
		c.searching = true
		c.searchInput.SetValue(c.search)
		c.searchInput.Focus()
	case "esc":
		if c.search != "" {
			c.search = ""
			c.rebuild()
		}
	}

	return c, nil
}

func (c *NavTree) handleSearchInput(msg tea.KeyMsg) (tui.Component, tea.Cmd) {
	switch msg.String() {
	case "enter":
		c.searching = false
		c.searchInput.Blur()
		return c, nil
	case "esc":
		c.searching = false
		c.search = ""
		c.searchInput.Blur()
		c.rebuild()
		return c, nil
	}

	var cmd tea.Cmd
	c.searchInput, cmd = c.searchInput.Update(msg)
	c.search = c.searchInput.Value()
	c.rebuild()
	return c, cmd
}

// handleEnter toggles headers and selects leaves. Leaf selection is
// exclusive and emits the embedded snapshot, so downstream panels
// never re-fetch.
func (c *NavTree) handleEnter() (tui.Component, tea.Cmd) {
	row, ok := c.rowAtCursor()
	if !ok {
		return c, nil
	}

	if row.Expandable {
		c.expanded = ToggleExpand(c.expanded, row.ID, !row.Expanded)
		c.rebuild()
		return c, nil
	}

	if row.Kind == RowLeaf && row.Item != nil {
		c.selectedID = row.ID
		item := row.Item
		return c, func() tea.Msg {
			return SelectItemMsg{Item: item}
		}
	}
	return c, nil
}

func (c *NavTree) openMenu() (tui.Component, tea.Cmd) {
	target := ClassifyTarget(c.rows, c.cursor)
	if target.Kind == TargetNone {
		return c, nil
	}
	kind := c.kind
	return c, func() tea.Msg {
		return OpenMenuMsg{Kind: kind, Target: target}
	}
}

// addNew resolves the environment under the cursor and asks for a
// fresh item there. The footer action is component state, so it
// survives tree rebuilds.
func (c *NavTree) addNew() (tui.Component, tea.Cmd) {
	env := ""
	if row, ok := c.rowAtCursor(); ok {
		env = row.Env
	}
	if env == "" && len(c.envs) > 0 {
		env = c.envs[0]
	}
	kind := c.kind
	return c, func() tea.Msg {
		return NewItemMsg{Kind: kind, Env: env}
	}
}

// collapseOrAscend collapses the current header, or jumps to the
// nearest ancestor header when on a leaf or collapsed node.
func (c *NavTree) collapseOrAscend() tea.Cmd {
	row, ok := c.rowAtCursor()
	if !ok {
		return nil
	}
	if row.Expandable && row.Expanded {
		c.expanded = ToggleExpand(c.expanded, row.ID, false)
		c.rebuild()
		return nil
	}
	for i := c.cursor - 1; i >= 0; i-- {
		if c.rows[i].Level < row.Level {
			c.cursor = i
			c.offset = AdjustOffset(c.cursor, c.offset, c.visibleHeight())
			return nil
		}
	}
	return nil
}

func (c *NavTree) rowAtCursor() (TreeRow, bool) {
	if c.cursor < 0 || c.cursor >= len(c.rows) {
		return TreeRow{}, false
	}
	return c.rows[c.cursor], true
}

func (c *NavTree) visibleHeight() int {
	h := c.Height() - 4 // title bar, borders, footer
	if c.searching || c.search != "" {
		h--
	}
	if h < 1 {
		h = 1
	}
	return h
}

// View renders the tree.
func (c *NavTree) View() string {
	var b strings.Builder

	b.WriteString(tui.RenderTitle(c.Title(), c.Width()-2, c.Focused()))
	b.WriteString("\n")

	if c.searching {
		b.WriteString(c.searchInput.View())
		b.WriteString("\n")
	} else if c.search != "" {
		b.WriteString(searchHintStyle.Render("/" + c.search))
		b.WriteString("\n")
	}

	if c.loadErr != nil {
		b.WriteString(errorStyle.Render("  " + c.loadErr.Error()))
		return tui.RenderBorder(b.String(), c.Width()-2, c.Height()-2, c.Focused())
	}

	height := c.visibleHeight()
	end := c.offset + height
	if end > len(c.rows) {
		end = len(c.rows)
	}
	for i := c.offset; i < end; i++ {
		b.WriteString(c.renderRow(c.rows[i], i == c.cursor))
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	if len(c.rows) == 0 {
		b.WriteString(dimStyle.Render("  (empty)"))
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(" a: add new   m: menu   /: search"))

	return tui.RenderBorder(b.String(), c.Width()-2, c.Height()-2, c.Focused())
}

func (c *NavTree) renderRow(row TreeRow, isCursor bool) string {
	indent := strings.Repeat("  ", row.Level)

	indicator := "  "
	if row.Expandable {
		if row.Expanded {
			indicator = "▾ "
		} else {
			indicator = "▸ "
		}
	}

	label := row.Label
	if row.Kind == RowLeaf {
		label = c.decorateLeaf(row)
	}

	line := fmt.Sprintf("%s%s%s", indent, indicator, label)
	line = tui.Truncate(line, c.Width()-4)

	switch {
	case isCursor:
		return cursorStyle.Render(line)
	case row.ID == c.selectedID:
		return selectedStyle.Render(line)
	case row.Kind == RowEnvHeader:
		return envHeaderStyle.Render(line)
	case row.Kind != RowLeaf:
		return headerStyle.Render(line)
	default:
		return line
	}
}

func (c *NavTree) decorateLeaf(row TreeRow) string {
	switch item := row.Item.(type) {
	case *core.Request:
		if item.PersonaID != "" {
			return fmt.Sprintf("%s [%s]", displayName(item), item.PersonaID)
		}
		return displayName(item)
	case *core.Suite:
		return fmt.Sprintf("%s (%d)", displayName(item), len(item.Entries))
	case *core.APICall:
		return fmt.Sprintf("%s %s", methodBadge(item.Method), displayName(item))
	default:
		return row.Label
	}
}

// displayName falls back to the ID when a degraded snapshot has no name.
func displayName(item core.Item) string {
	if name := item.ItemName(); name != "" {
		return name
	}
	return item.ItemID()
}

func methodBadge(method string) string {
	style, ok := methodStyles[strings.ToUpper(method)]
	if !ok {
		style = methodStyles["GET"]
	}
	return style.Render(strings.ToUpper(method))
}

var (
	cursorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62")).Bold(true)
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	envHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	headerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	searchHintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))

	methodStyles = map[string]lipgloss.Style{
		"GET":    lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		"POST":   lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		"PUT":    lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		"PATCH":  lipgloss.NewStyle().Foreground(lipgloss.Color("135")).Bold(true),
		"DELETE": lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)
