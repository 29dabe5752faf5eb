package ast

import (
	"encoding/json"
	"strings"

	"mercator-hq/rsql/pkg/rsql/token"
)

// MarshalNode encodes a tree as indented JSON.
func MarshalNode(node Node) ([]byte, error) {
	return json.MarshalIndent(node, "", "  ")
}

type comparisonJSON struct {
	Type      string          `json:"type"`
	Selector  string          `json:"selector"`
	Operator  string          `json:"operator"`
	Arguments []string        `json:"arguments"`
	Nested    json.RawMessage `json:"nested,omitempty"`
	Position  token.Position  `json:"position"`
}

type logicalJSON struct {
	Type     string            `json:"type"`
	Children []json.RawMessage `json:"children"`
	Position token.Position    `json:"position"`
}

// MarshalJSON encodes the comparison as
// {"type":"comparison","selector":...,"operator":...,"arguments":[...]}.
func (n *ComparisonNode) MarshalJSON() ([]byte, error) {
	out := comparisonJSON{
		Type:      "comparison",
		Selector:  n.selector,
		Operator:  n.operator.Symbol(),
		Arguments: n.arguments,
		Position:  n.pos,
	}
	if out.Arguments == nil {
		out.Arguments = []string{}
	}
	if n.nested != nil {
		nested, err := json.Marshal(n.nested)
		if err != nil {
			return nil, err
		}
		out.Nested = nested
	}
	return json.Marshal(out)
}

// MarshalJSON encodes the node as {"type":"and"|"or","children":[...]}.
func (n *LogicalNode) MarshalJSON() ([]byte, error) {
	out := logicalJSON{
		Type:     strings.ToLower(n.operator.String()),
		Children: make([]json.RawMessage, len(n.children)),
		Position: n.pos,
	}
	for i, child := range n.children {
		b, err := json.Marshal(child)
		if err != nil {
			return nil, err
		}
		out.Children[i] = b
	}
	return json.Marshal(out)
}
