package layout

import (
	"context"

	"github.com/matzehuels/proctree/pkg/hierarchy"
)

// Default spacing of the tidy engine, in layout units.
const (
	DefaultNodeWidth  = 120
	DefaultNodeHeight = 80
)

// Tidy is a layered tree layout. Depth maps to y, leaves are spaced evenly
// left to right in depth-first order and every parent sits centered over
// its outermost children. Trees of a forest are placed side by side with
// one empty column between them.
type Tidy struct {
	opts Options
}

// NewTidy returns a tidy engine.
func NewTidy(opts Options) *Tidy { return &Tidy{opts: opts.withDefaults()} }

// Name implements [Engine].
func (e *Tidy) Name() string { return EngineTidy }

// Layout implements [Engine].
func (e *Tidy) Layout(ctx context.Context, t *hierarchy.Tree) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	positions := make(map[string]Point, t.Len())
	column := 0.0

	var place func(n *hierarchy.Node) float64
	place = func(n *hierarchy.Node) float64 {
		var x float64
		if n.IsLeaf() {
			x = column * e.opts.NodeWidth
			column++
		} else {
			first := place(n.Children[0])
			last := first
			for _, c := range n.Children[1:] {
				last = place(c)
			}
			x = (first + last) / 2
		}
		positions[n.ID] = Point{X: x, Y: float64(n.Depth) * e.opts.NodeHeight}
		return x
	}

	for i, r := range t.Roots {
		if i > 0 {
			column++
		}
		place(r)
	}
	return newResult(e.Name(), t, positions), nil
}
