package hierarchy

import (
	"errors"
	"fmt"

	perrors "github.com/matzehuels/proctree/pkg/errors"
	"github.com/matzehuels/proctree/pkg/graph"
)

var (
	// ErrMultipleRoots is returned by [Stratify] under [RootPolicySingle] when
	// the reduced graph has more than one root.
	ErrMultipleRoots = errors.New("multiple roots")

	// ErrCycle is returned by [Stratify] when some nodes never reach a root.
	// This happens for cycles of length three or more, which the two-hop
	// guard does not see.
	ErrCycle = errors.New("parent assignment contains a cycle")
)

// CycleGuard selects how [Reduce] keeps cycles out of the parent assignment.
type CycleGuard string

const (
	// GuardTwoHop rejects a candidate parent p for node d when the edge list
	// also contains d→p. Only cycles of length two are caught.
	GuardTwoHop CycleGuard = "two-hop"

	// GuardAncestor walks the ancestor chain of every candidate parent and
	// rejects the edge when the chain reaches the child. The next incoming
	// edge in list order is tried instead. The result is always acyclic.
	GuardAncestor CycleGuard = "ancestor"
)

// ParseCycleGuard validates a guard name. The empty string selects GuardTwoHop.
func ParseCycleGuard(s string) (CycleGuard, error) {
	switch CycleGuard(s) {
	case "", GuardTwoHop:
		return GuardTwoHop, nil
	case GuardAncestor:
		return GuardAncestor, nil
	}
	return "", perrors.New(perrors.ErrCodeInvalidConfig, "invalid cycle guard %q (must be two-hop or ancestor)", s)
}

// Stats counts what [Reduce] skipped or rejected.
type Stats struct {
	Nodes         int `json:"nodes"`
	Edges         int `json:"edges"`
	Roots         int `json:"roots"`
	DanglingEdges int `json:"dangling_edges,omitempty"` // edges with an endpoint that is not a node
	SelfLoops     int `json:"self_loops,omitempty"`
	BackEdges     int `json:"back_edges,omitempty"` // candidates rejected by the cycle guard
}

// Parents is the parent assignment produced by [Reduce].
// It is derived data: callers rebuild it whenever the input changes.
type Parents struct {
	order  []string
	parent map[string]string
	Stats  Stats
}

// ParentOf returns the parent of id and true, or "" and false when id is a
// root candidate or not a known node.
func (p *Parents) ParentOf(id string) (string, bool) {
	parent, ok := p.parent[id]
	return parent, ok
}

// Roots returns the IDs without a parent, in input node order.
func (p *Parents) Roots() []string {
	var roots []string
	for _, id := range p.order {
		if _, ok := p.parent[id]; !ok {
			roots = append(roots, id)
		}
	}
	return roots
}

// Len returns the number of nodes covered by the assignment.
func (p *Parents) Len() int { return len(p.order) }

// Map returns a copy of the assignment as child → parent.
func (p *Parents) Map() map[string]string {
	out := make(map[string]string, len(p.parent))
	for k, v := range p.parent {
		out[k] = v
	}
	return out
}

// Reduce assigns at most one parent to every node.
//
// The parent of node d is the source of the first edge, in the order given,
// whose target is d. Multiple incoming edges therefore always resolve to the
// earliest one. Self-loops and edges touching unknown nodes are skipped.
// The cycle guard may reject the candidate, in which case d becomes a root
// candidate (GuardTwoHop) or the next incoming edge is tried (GuardAncestor).
func Reduce(nodes []graph.Node, edges []graph.Edge, guard CycleGuard) (*Parents, error) {
	guard, err := ParseCycleGuard(string(guard))
	if err != nil {
		return nil, err
	}

	p := &Parents{
		order:  make([]string, 0, len(nodes)),
		parent: make(map[string]string, len(nodes)),
		Stats:  Stats{Nodes: len(nodes), Edges: len(edges)},
	}

	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if known[n.ID] {
			return nil, perrors.New(perrors.ErrCodeInvalidGraph, "duplicate node id %q", n.ID)
		}
		known[n.ID] = true
		p.order = append(p.order, n.ID)
	}

	incoming := make(map[string][]string, len(nodes)) // target → sources, in edge order
	back := make(map[graph.Edge]bool, len(edges))
	for _, e := range edges {
		switch {
		case !known[e.From] || !known[e.To]:
			p.Stats.DanglingEdges++
			continue
		case e.IsSelfLoop():
			p.Stats.SelfLoops++
			continue
		}
		incoming[e.To] = append(incoming[e.To], e.From)
		back[e] = true
	}

	for _, id := range p.order {
		sources := incoming[id]
		if len(sources) == 0 {
			continue
		}
		switch guard {
		case GuardTwoHop:
			candidate := sources[0]
			if back[graph.Edge{From: id, To: candidate}] {
				p.Stats.BackEdges++
				continue
			}
			p.parent[id] = candidate
		case GuardAncestor:
			for _, candidate := range sources {
				if p.reaches(candidate, id) {
					p.Stats.BackEdges++
					continue
				}
				p.parent[id] = candidate
				break
			}
		}
	}

	p.Stats.Roots = len(p.order) - len(p.parent)
	return p, nil
}

// reaches reports whether walking parents upward from start arrives at target.
// The assignment built so far is acyclic, so the walk terminates.
func (p *Parents) reaches(start, target string) bool {
	for cur, ok := start, true; ok; cur, ok = p.parent[cur] {
		if cur == target {
			return true
		}
	}
	return false
}

// Validate checks the post-conditions of a parent assignment: every parent is
// a known node and following parents from any node terminates at a root in at
// most Len() steps.
func (p *Parents) Validate() error {
	known := make(map[string]bool, len(p.order))
	for _, id := range p.order {
		known[id] = true
	}
	for child, parent := range p.parent {
		if !known[parent] {
			return perrors.New(perrors.ErrCodeInvalidGraph, "node %q has unknown parent %q", child, parent)
		}
	}
	for _, id := range p.order {
		steps := 0
		for cur, ok := id, true; ok; cur, ok = p.parent[cur] {
			if steps > len(p.order) {
				return perrors.Wrap(perrors.ErrCodeGraphCycle, ErrCycle, "node %q never reaches a root", id)
			}
			steps++
		}
	}
	return nil
}

// String summarizes the assignment for debug logging.
func (p *Parents) String() string {
	return fmt.Sprintf("%d nodes, %d roots", len(p.order), len(p.order)-len(p.parent))
}
