package graph

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// Graph - Input Graph Serialization
// =============================================================================

// Graph is the canonical serialization format for process/dependency graphs.
//
// Node order and edge order are significant: the hierarchy reducer resolves
// multiple incoming edges to the first one in Edges, so files are decoded and
// re-encoded without reordering.
type Graph struct {
	Nodes []Node `json:"nodes" toml:"nodes"`
	Edges []Edge `json:"edges" toml:"edges"`
}

// =============================================================================
// Node
// =============================================================================

// Node is a single vertex of the input graph. It is immutable for the
// duration of one reduction.
type Node struct {
	ID    string         `json:"id" toml:"id"`
	Label string         `json:"label,omitempty" toml:"label,omitempty"` // Display label (defaults to ID)
	Meta  map[string]any `json:"meta,omitempty" toml:"meta,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// =============================================================================
// Edge - Directed Relation
// =============================================================================

// Edge is an ordered (source, target) pair. Edges may form cycles and
// several edges may share a source or a target.
type Edge struct {
	From string `json:"from" toml:"from"`
	To   string `json:"to" toml:"to"`
}

// IsSelfLoop reports whether the edge starts and ends at the same node.
func (e Edge) IsSelfLoop() bool { return e.From == e.To }

// String renders the edge as "from→to".
func (e Edge) String() string { return e.From + "→" + e.To }

// UnmarshalJSON accepts both the native {"from","to"} keys and the
// {"source","target"} keys used by d3 link data.
func (e *Edge) UnmarshalJSON(data []byte) error {
	var raw struct {
		From   string `json:"from"`
		To     string `json:"to"`
		Source string `json:"source"`
		Target string `json:"target"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.From = raw.From
	if e.From == "" {
		e.From = raw.Source
	}
	e.To = raw.To
	if e.To == "" {
		e.To = raw.Target
	}
	if e.From == "" || e.To == "" {
		return fmt.Errorf("edge %s must have both endpoints", string(data))
	}
	return nil
}

// NodeByID returns the node with the given ID and true, or a zero Node and
// false when it is not present.
func (g *Graph) NodeByID(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// IsEmpty reports whether the graph has no nodes.
func (g *Graph) IsEmpty() bool { return len(g.Nodes) == 0 }
