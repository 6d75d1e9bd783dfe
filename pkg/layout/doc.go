// Package layout computes node positions for a reduced hierarchy.
//
// Two engines implement [Engine]:
//
//   - [Tidy] (default) is a pure Go layered layout: depth maps to y, leaves
//     are spaced evenly in depth-first order and parents are centered over
//     their children. Forests are placed side by side.
//   - [Graphviz] runs the dot engine through [github.com/goccy/go-graphviz]
//     and reads the node positions back from the laid-out graph.
//
// Both report the [BoundingBox] of all positions in [Result.Box], which is
// what the viewport fitter consumes. A tree with one node has a zero-extent
// box.
package layout
