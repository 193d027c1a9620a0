package core

import "encoding/json"

// RuleField identifies the data point a rule term compares against.
type RuleField struct {
	Name            string `json:"name"`
	Namespace       string `json:"namespace"`
	Datasource      string `json:"datasource"`
	EvaluationGroup string `json:"evaluation_group"`
}

// RuleNode is one node of a rule definition: either an operator node
// (Op + Terms) or a field-comparison leaf (Field + Comp + Value).
// The metadata service guarantees Op and Terms at the top level; this
// client never validates or mutates definitions.
type RuleNode struct {
	Op    string     `json:"op,omitempty"`
	Terms []RuleNode `json:"terms,omitempty"`

	Field *RuleField      `json:"field,omitempty"`
	Comp  string          `json:"comp,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// IsOperator reports whether the node is an and/or group.
func (n *RuleNode) IsOperator() bool {
	return n.Op != "" && len(n.Terms) > 0
}

// RuleDefinition is the boolean expression tree describing a rule's
// evaluation logic, fetched read-only from the metadata service.
type RuleDefinition struct {
	Name  string     `json:"name,omitempty"`
	Op    string     `json:"op"`
	Terms []RuleNode `json:"terms"`
}

// CountTerms counts every node under the definition root: operator nodes
// count as one plus their children, leaves count as one. The root itself
// is not counted.
func (d *RuleDefinition) CountTerms() int {
	total := 0
	for i := range d.Terms {
		total += countNodes(&d.Terms[i])
	}
	return total
}

func countNodes(n *RuleNode) int {
	count := 1
	for i := range n.Terms {
		count += countNodes(&n.Terms[i])
	}
	return count
}
