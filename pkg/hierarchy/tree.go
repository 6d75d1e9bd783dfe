package hierarchy

import (
	"slices"
	"strings"

	perrors "github.com/matzehuels/proctree/pkg/errors"
	"github.com/matzehuels/proctree/pkg/graph"
)

// VirtualRootID is the ID given to the synthetic root added by
// [RootPolicyVirtual]. A numeric suffix is appended if an input node already
// uses it.
const VirtualRootID = "__root__"

// RootPolicy decides what [Stratify] does with more than one root.
type RootPolicy string

const (
	// RootPolicyForest lays out one tree per root.
	RootPolicyForest RootPolicy = "forest"

	// RootPolicySingle rejects input with more than one root.
	RootPolicySingle RootPolicy = "single"

	// RootPolicyVirtual attaches every root to a synthetic root node so that
	// layouts requiring a single root still work.
	RootPolicyVirtual RootPolicy = "virtual"
)

// ParseRootPolicy validates a policy name. The empty string selects
// RootPolicyForest.
func ParseRootPolicy(s string) (RootPolicy, error) {
	switch RootPolicy(s) {
	case "", RootPolicyForest:
		return RootPolicyForest, nil
	case RootPolicySingle:
		return RootPolicySingle, nil
	case RootPolicyVirtual:
		return RootPolicyVirtual, nil
	}
	return "", perrors.New(perrors.ErrCodeInvalidConfig, "invalid root policy %q (must be forest, single or virtual)", s)
}

// Node is a node of the derived hierarchy. Each node is owned by exactly
// one parent; roots have a nil Parent.
type Node struct {
	ID       string
	Data     graph.Node
	Parent   *Node
	Children []*Node
	Depth    int
	Virtual  bool // synthetic root added by RootPolicyVirtual
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Ancestors returns the chain from the node's parent up to its root.
func (n *Node) Ancestors() []*Node {
	var out []*Node
	for p := n.Parent; p != nil; p = p.Parent {
		out = append(out, p)
	}
	return out
}

// Link is a parent → child pair of the hierarchy.
type Link struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
}

// Tree is the hierarchy handed to a layout engine.
// It is rebuilt from scratch whenever the input changes and is not modified
// afterwards, so it is safe for concurrent reads.
type Tree struct {
	Roots []*Node
	nodes map[string]*Node
	order []*Node // input order, virtual root last
}

// Stratify turns a parent assignment into a tree.
//
// Children keep the input node order. An empty node list yields an empty
// tree, which callers render as an empty state. Nodes that never reach a
// root are reported as a GRAPH_CYCLE error wrapping [ErrCycle].
func Stratify(nodes []graph.Node, p *Parents, policy RootPolicy) (*Tree, error) {
	policy, err := ParseRootPolicy(string(policy))
	if err != nil {
		return nil, err
	}

	t := &Tree{nodes: make(map[string]*Node, len(nodes)+1)}
	for _, data := range nodes {
		n := &Node{ID: data.ID, Data: data}
		t.nodes[n.ID] = n
		t.order = append(t.order, n)
	}

	for _, n := range t.order {
		parentID, ok := p.ParentOf(n.ID)
		if !ok {
			t.Roots = append(t.Roots, n)
			continue
		}
		parent, ok := t.nodes[parentID]
		if !ok {
			return nil, perrors.New(perrors.ErrCodeInvalidGraph, "node %q has unknown parent %q", n.ID, parentID)
		}
		n.Parent = parent
		parent.Children = append(parent.Children, n)
	}

	if unreached := t.assignDepths(); len(unreached) > 0 {
		return nil, perrors.Wrap(perrors.ErrCodeGraphCycle, ErrCycle,
			"nodes never reach a root: %s", strings.Join(unreached, ", "))
	}

	if len(t.Roots) <= 1 {
		return t, nil
	}

	switch policy {
	case RootPolicySingle:
		ids := make([]string, len(t.Roots))
		for i, r := range t.Roots {
			ids[i] = r.ID
		}
		return nil, perrors.Wrap(perrors.ErrCodeMultipleRoots, ErrMultipleRoots,
			"%d roots: %s", len(ids), strings.Join(ids, ", "))
	case RootPolicyVirtual:
		t.addVirtualRoot()
	}
	return t, nil
}

// Build reduces a graph and stratifies the result in one step.
func Build(g graph.Graph, guard CycleGuard, policy RootPolicy) (*Tree, *Parents, error) {
	p, err := Reduce(g.Nodes, g.Edges, guard)
	if err != nil {
		return nil, nil, err
	}
	t, err := Stratify(g.Nodes, p, policy)
	if err != nil {
		return nil, p, err
	}
	return t, p, nil
}

// assignDepths sets Depth from each root downward and returns the IDs of
// nodes that were not reached, in input order.
func (t *Tree) assignDepths() []string {
	reached := make(map[*Node]bool, len(t.order))
	queue := slices.Clone(t.Roots)
	for _, r := range queue {
		reached[r] = true
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, c := range n.Children {
			if reached[c] {
				continue
			}
			reached[c] = true
			c.Depth = n.Depth + 1
			queue = append(queue, c)
		}
	}

	var unreached []string
	for _, n := range t.order {
		if !reached[n] {
			unreached = append(unreached, n.ID)
		}
	}
	return unreached
}

func (t *Tree) addVirtualRoot() {
	id := VirtualRootID
	for i := 1; t.nodes[id] != nil; i++ {
		id = VirtualRootID + strings.Repeat("_", i)
	}
	root := &Node{ID: id, Data: graph.Node{ID: id}, Virtual: true}
	for _, r := range t.Roots {
		r.Parent = root
		root.Children = append(root.Children, r)
	}
	t.nodes[id] = root
	t.order = append(t.order, root)
	t.Roots = []*Node{root}
	t.Walk(func(n *Node) bool {
		if n.Parent != nil {
			n.Depth = n.Parent.Depth + 1
		}
		return true
	})
}

// Node returns the node with the given ID and true, or nil and false.
func (t *Tree) Node(id string) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Nodes returns all nodes in input order, with a virtual root last.
func (t *Tree) Nodes() []*Node { return slices.Clone(t.order) }

// Len returns the number of nodes, including a virtual root.
func (t *Tree) Len() int { return len(t.order) }

// IsEmpty reports whether the tree has no nodes.
func (t *Tree) IsEmpty() bool { return len(t.order) == 0 }

// Height returns the largest node depth, or 0 for an empty tree.
func (t *Tree) Height() int {
	h := 0
	for _, n := range t.order {
		h = max(h, n.Depth)
	}
	return h
}

// Walk visits nodes depth-first in pre-order, roots in order. Returning
// false from fn skips the node's subtree.
func (t *Tree) Walk(fn func(*Node) bool) {
	var visit func(n *Node)
	visit = func(n *Node) {
		if !fn(n) {
			return
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	for _, r := range t.Roots {
		visit(r)
	}
}

// Links returns every parent → child link in pre-order.
func (t *Tree) Links() []Link {
	var links []Link
	t.Walk(func(n *Node) bool {
		for _, c := range n.Children {
			links = append(links, Link{Parent: n.ID, Child: c.ID})
		}
		return true
	})
	return links
}
