// Package hierarchy reduces a flat node/edge list to a single-parent tree.
//
// Tree layout engines need a strict hierarchy: every node has at most one
// parent and there are no cycles. Process and dependency graphs rarely look
// like that, so this package derives one in two steps.
//
// # Reduce
//
// [Reduce] picks a parent for every node. The rule is order dependent on
// purpose, so results are reproducible:
//
//  1. The candidate parent of node d is the source of the first edge, in
//     the given edge order, whose target is d.
//  2. A node without incoming edges is a root candidate.
//  3. The cycle guard may reject the candidate.
//
// Two guards are available. [GuardTwoHop] (the default) rejects the
// candidate p when the edge list also contains d→p, which breaks cycles of
// length two and nothing more. [GuardAncestor] walks the ancestors of p and
// rejects the edge if it would close a cycle of any length, then tries the
// next incoming edge.
//
// Self-loops never make a node its own parent, and edges whose endpoints are
// not in the node list are ignored. Both are counted in [Stats].
//
// # Stratify
//
// [Stratify] links the nodes into a [Tree]. Cycles that survived the
// two-hop guard show up as nodes that never reach a root and are reported
// as [ErrCycle]. What happens with more than one root is a [RootPolicy]:
//
//	RootPolicyForest   one tree per root (default)
//	RootPolicySingle   reject with ErrMultipleRoots
//	RootPolicyVirtual  hang all roots under a synthetic VirtualRootID node
//
// # Example
//
//	tree, parents, err := hierarchy.Build(g, hierarchy.GuardTwoHop, hierarchy.RootPolicyForest)
//	if err != nil {
//	    return err
//	}
//	parent, ok := parents.ParentOf("sshd")
package hierarchy
