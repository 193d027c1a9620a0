package components

import (
	"sort"
	"strings"

	"ruliad/internal/core"
)

// This file contains pure functions for tree operations.
// These functions take values and return values - no mutation, no side effects.
// This enables trivial testing (input → output) and makes the shell code explicit.

// ViewModel is a snapshot of stored items grouped for display: environment,
// then rule name, then (when a rule group mixes persona types) persona type.
// Rebuilt from the gateway on every refresh; never persisted.
type ViewModel struct {
	Kind  core.ItemKind
	Envs  []string
	Items map[string][]core.Item
}

// NewViewModel builds a view model for one leaf kind. Environments keep the
// given order; items are bucketed by their environment.
func NewViewModel(kind core.ItemKind, envs []string, items []core.Item) ViewModel {
	vm := ViewModel{
		Kind:  kind,
		Envs:  append([]string(nil), envs...),
		Items: make(map[string][]core.Item),
	}
	for _, item := range items {
		env := item.Env()
		vm.Items[env] = append(vm.Items[env], item)
	}
	return vm
}

// RowKind identifies what a flattened tree row represents.
type RowKind int

const (
	RowEnvHeader RowKind = iota
	RowRuleHeader
	RowPersonaHeader
	RowLeaf
)

// TreeRow is one visible line of the flattened tree. Leaf rows embed the
// full item snapshot so selection never needs a secondary fetch.
type TreeRow struct {
	ID         string
	Kind       RowKind
	Label      string
	Env        string
	Rule       string
	Persona    string
	Level      int
	Expandable bool
	Expanded   bool
	Item       core.Item
}

// suitesRootLabel is the synthetic grouping node suites hang under.
// It starts expanded, unlike ordinary headers.
const suitesRootLabel = "Priority Suites"

// FlattenTree turns a view model into ordered display rows honoring the
// expanded map. Group keys are sorted, so the same view model always
// flattens to the same structure. An empty view model yields the
// environment headers only.
func FlattenTree(vm ViewModel, expanded map[string]bool) []TreeRow {
	var rows []TreeRow

	for _, env := range vm.Envs {
		items := vm.Items[env]
		envID := "env:" + env
		envExpanded := expanded[envID]

		rows = append(rows, TreeRow{
			ID:         envID,
			Kind:       RowEnvHeader,
			Label:      env,
			Env:        env,
			Level:      0,
			Expandable: true,
			Expanded:   envExpanded,
		})
		if !envExpanded {
			continue
		}

		switch vm.Kind {
		case core.KindSuite:
			rows = append(rows, flattenSuites(env, items, expanded)...)
		case core.KindAPICall:
			rows = append(rows, flattenLeaves(env, "", "", items, 1)...)
		default:
			rows = append(rows, flattenByRule(env, items, expanded)...)
		}
	}

	return rows
}

// flattenByRule groups items under rule headers, adding a persona level
// when a rule group holds more than one distinct persona type.
func flattenByRule(env string, items []core.Item, expanded map[string]bool) []TreeRow {
	byRule := make(map[string][]core.Item)
	for _, item := range items {
		byRule[ruleOf(item)] = append(byRule[ruleOf(item)], item)
	}

	rules := make([]string, 0, len(byRule))
	for rule := range byRule {
		rules = append(rules, rule)
	}
	sort.Strings(rules)

	var rows []TreeRow
	for _, rule := range rules {
		group := byRule[rule]
		ruleID := "rule:" + env + "/" + rule
		ruleExpanded := expanded[ruleID]

		rows = append(rows, TreeRow{
			ID:         ruleID,
			Kind:       RowRuleHeader,
			Label:      rule,
			Env:        env,
			Rule:       rule,
			Level:      1,
			Expandable: true,
			Expanded:   ruleExpanded,
		})
		if !ruleExpanded {
			continue
		}

		personas := distinctPersonas(group)
		if len(personas) > 1 {
			for _, persona := range personas {
				personaID := "persona:" + env + "/" + rule + "/" + persona
				personaExpanded := expanded[personaID]
				rows = append(rows, TreeRow{
					ID:         personaID,
					Kind:       RowPersonaHeader,
					Label:      persona,
					Env:        env,
					Rule:       rule,
					Persona:    persona,
					Level:      2,
					Expandable: true,
					Expanded:   personaExpanded,
				})
				if personaExpanded {
					rows = append(rows, flattenLeaves(env, rule, persona, personaItems(group, persona), 3)...)
				}
			}
		} else {
			rows = append(rows, flattenLeaves(env, rule, "", group, 2)...)
		}
	}

	return rows
}

// flattenSuites places suite leaves under a synthetic root node that
// starts expanded.
func flattenSuites(env string, items []core.Item, expanded map[string]bool) []TreeRow {
	rootID := "suites:" + env
	rootExpanded, seen := expanded[rootID]
	if !seen {
		rootExpanded = true
	}

	rows := []TreeRow{{
		ID:         rootID,
		Kind:       RowRuleHeader,
		Label:      suitesRootLabel,
		Env:        env,
		Level:      1,
		Expandable: true,
		Expanded:   rootExpanded,
	}}
	if rootExpanded {
		rows = append(rows, flattenLeaves(env, "", "", items, 2)...)
	}
	return rows
}

func flattenLeaves(env, rule, persona string, items []core.Item, level int) []TreeRow {
	sorted := append([]core.Item(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ItemName() != sorted[j].ItemName() {
			return sorted[i].ItemName() < sorted[j].ItemName()
		}
		return sorted[i].ItemID() < sorted[j].ItemID()
	})

	rows := make([]TreeRow, 0, len(sorted))
	for _, item := range sorted {
		rows = append(rows, TreeRow{
			ID:      item.ItemID(),
			Kind:    RowLeaf,
			Label:   item.ItemName(),
			Env:     env,
			Rule:    rule,
			Persona: persona,
			Level:   level,
			Item:    item,
		})
	}
	return rows
}

func ruleOf(item core.Item) string {
	switch v := item.(type) {
	case *core.Request:
		return v.RuleName
	case *core.APICall:
		return v.RuleName
	default:
		return ""
	}
}

func personaOf(item core.Item) string {
	if req, ok := item.(*core.Request); ok {
		return req.PersonaType
	}
	return ""
}

func distinctPersonas(items []core.Item) []string {
	seen := make(map[string]bool)
	var personas []string
	for _, item := range items {
		p := personaOf(item)
		if !seen[p] {
			seen[p] = true
			personas = append(personas, p)
		}
	}
	sort.Strings(personas)
	return personas
}

func personaItems(items []core.Item, persona string) []core.Item {
	var result []core.Item
	for _, item := range items {
		if personaOf(item) == persona {
			result = append(result, item)
		}
	}
	return result
}

// TargetKind identifies what a context action resolved to.
type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetEnvHeader
	TargetRuleHeader
	TargetPersonaHeader
	TargetLeaf
)

// TargetRef is a tagged reference to the row a context action applies to.
type TargetRef struct {
	Kind    TargetKind
	Env     string
	Rule    string
	Persona string
	Item    core.Item
}

// ClassifyTarget resolves the row at index to a context target.
// Resolution order is environment header, then rule header, then leaf;
// out-of-range indexes resolve to none.
func ClassifyTarget(rows []TreeRow, index int) TargetRef {
	if index < 0 || index >= len(rows) {
		return TargetRef{Kind: TargetNone}
	}

	row := rows[index]
	switch row.Kind {
	case RowEnvHeader:
		return TargetRef{Kind: TargetEnvHeader, Env: row.Env}
	case RowRuleHeader:
		return TargetRef{Kind: TargetRuleHeader, Env: row.Env, Rule: row.Rule}
	case RowPersonaHeader:
		return TargetRef{Kind: TargetPersonaHeader, Env: row.Env, Rule: row.Rule, Persona: row.Persona}
	case RowLeaf:
		return TargetRef{Kind: TargetLeaf, Env: row.Env, Rule: row.Rule, Item: row.Item}
	}
	return TargetRef{Kind: TargetNone}
}

// DecodeLeafSnapshot decodes a serialized item snapshot. A snapshot that
// fails to decode degrades to an item carrying only the ID, so selection
// still proceeds and sibling rows are unaffected.
func DecodeLeafSnapshot(kind core.ItemKind, id string, data []byte) core.Item {
	item, err := core.DecodeSnapshot(kind, data)
	if err != nil {
		return degradedItem(kind, id)
	}
	return item
}

func degradedItem(kind core.ItemKind, id string) core.Item {
	switch kind {
	case core.KindSuite:
		return &core.Suite{ID: id}
	case core.KindAPICall:
		return &core.APICall{ID: id}
	default:
		return &core.Request{ID: id}
	}
}

// MoveCursor computes new cursor position within bounds.
// Pure function: takes current state, returns new position.
func MoveCursor(cursor, delta, itemCount int) int {
	if itemCount == 0 {
		return 0
	}
	newCursor := cursor + delta
	if newCursor < 0 {
		return 0
	}
	if newCursor >= itemCount {
		return itemCount - 1
	}
	return newCursor
}

// AdjustOffset ensures cursor is visible within viewport.
// Pure function: takes scroll state, returns new offset.
func AdjustOffset(cursor, offset, visibleHeight int) int {
	if visibleHeight < 1 {
		visibleHeight = 1
	}
	if cursor < offset {
		return cursor
	}
	if cursor >= offset+visibleHeight {
		return cursor - visibleHeight + 1
	}
	return offset
}

// ToggleExpand returns a new expanded map with the specified node toggled.
// Pure function: returns new map, never mutates input.
func ToggleExpand(expanded map[string]bool, id string, expand bool) map[string]bool {
	result := make(map[string]bool, len(expanded)+1)
	for k, v := range expanded {
		result[k] = v
	}
	result[id] = expand
	return result
}

// FilterRowsBySearch returns rows matching the search query.
// Pure function: returns filtered slice, never mutates input.
// Leaves match on name, rule, persona and environment; headers on label.
func FilterRowsBySearch(rows []TreeRow, search string) []TreeRow {
	if search == "" {
		return rows
	}
	search = strings.ToLower(search)
	var result []TreeRow
	for _, row := range rows {
		if matchesSearch(row, search) {
			result = append(result, row)
		}
	}
	return result
}

func matchesSearch(row TreeRow, search string) bool {
	if strings.Contains(strings.ToLower(row.Label), search) {
		return true
	}
	if row.Kind != RowLeaf {
		return false
	}
	if strings.Contains(strings.ToLower(row.Rule), search) ||
		strings.Contains(strings.ToLower(row.Env), search) {
		return true
	}
	if req, ok := row.Item.(*core.Request); ok {
		if strings.Contains(strings.ToLower(req.PersonaType), search) ||
			strings.Contains(strings.ToLower(req.PersonaID), search) {
			return true
		}
	}
	if call, ok := row.Item.(*core.APICall); ok {
		if strings.Contains(strings.ToLower(call.URL), search) ||
			strings.Contains(strings.ToLower(call.Method), search) {
			return true
		}
	}
	return false
}
