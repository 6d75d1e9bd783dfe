package layout

import (
	"context"
	"math"

	perrors "github.com/matzehuels/proctree/pkg/errors"
	"github.com/matzehuels/proctree/pkg/hierarchy"
	"github.com/matzehuels/proctree/pkg/viewport"
)

// Engine names accepted by [New].
const (
	EngineTidy     = "tidy"
	EngineGraphviz = "graphviz"
)

// Engines lists the available engine names, default first.
var Engines = []string{EngineTidy, EngineGraphviz}

// Point is a position in layout coordinates. Y grows downward.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Result holds node positions for one tree.
type Result struct {
	Engine    string           `json:"engine"`
	Positions map[string]Point `json:"positions"`
	Links     []hierarchy.Link `json:"links"`
	Box       viewport.Box     `json:"box"`
}

// Position returns the position of id and true, or the zero point and false.
func (r *Result) Position(id string) (Point, bool) {
	p, ok := r.Positions[id]
	return p, ok
}

// Engine computes absolute node positions for a hierarchy.
type Engine interface {
	// Name returns the engine name used in cache keys and logs.
	Name() string
	// Layout positions every node of the tree, including a virtual root.
	Layout(ctx context.Context, t *hierarchy.Tree) (*Result, error)
}

// Options tunes the built-in engines. Zero values select defaults.
type Options struct {
	// NodeWidth is the horizontal distance between neighbouring leaves.
	NodeWidth float64
	// NodeHeight is the vertical distance between depths.
	NodeHeight float64
}

func (o Options) withDefaults() Options {
	if o.NodeWidth <= 0 {
		o.NodeWidth = DefaultNodeWidth
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = DefaultNodeHeight
	}
	return o
}

// New returns the engine with the given name. The empty name selects the
// tidy engine.
func New(name string, opts Options) (Engine, error) {
	switch name {
	case "", EngineTidy:
		return NewTidy(opts), nil
	case EngineGraphviz:
		return NewGraphviz(opts), nil
	}
	return nil, perrors.New(perrors.ErrCodeInvalidConfig, "unknown layout engine %q (must be tidy or graphviz)", name)
}

// BoundingBox returns the smallest axis-aligned rectangle containing every
// point. No points yield the zero box; a single point yields a box with zero
// width and height at that point.
func BoundingBox(points []Point) viewport.Box {
	if len(points) == 0 {
		return viewport.Box{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	return viewport.Box{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func newResult(engine string, t *hierarchy.Tree, positions map[string]Point) *Result {
	points := make([]Point, 0, len(positions))
	for _, n := range t.Nodes() {
		if p, ok := positions[n.ID]; ok {
			points = append(points, p)
		}
	}
	return &Result{
		Engine:    engine,
		Positions: positions,
		Links:     t.Links(),
		Box:       BoundingBox(points),
	}
}
