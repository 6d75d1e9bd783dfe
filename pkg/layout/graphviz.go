package layout

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	perrors "github.com/matzehuels/proctree/pkg/errors"
	"github.com/matzehuels/proctree/pkg/hierarchy"
)

// Graphviz lays out the hierarchy with the Graphviz dot engine.
//
// Node names in the generated graph are positional (n0, n1, ...) so that
// arbitrary IDs never need escaping. Graphviz puts the origin at the bottom
// left; positions are flipped so y grows downward like the tidy engine.
type Graphviz struct {
	opts Options
}

// NewGraphviz returns a Graphviz engine.
func NewGraphviz(opts Options) *Graphviz { return &Graphviz{opts: opts.withDefaults()} }

// Name implements [Engine].
func (e *Graphviz) Name() string { return EngineGraphviz }

// Layout implements [Engine].
func (e *Graphviz) Layout(ctx context.Context, t *hierarchy.Tree) (*Result, error) {
	if t.IsEmpty() {
		return newResult(e.Name(), t, map[string]Point{}), nil
	}

	nodes := t.Nodes()
	names := make(map[string]string, len(nodes))
	for i, n := range nodes {
		names[n.ID] = "n" + strconv.Itoa(i)
	}

	out, err := e.run(ctx, e.toDOT(t, names))
	if err != nil {
		return nil, err
	}

	raw, err := parsePositions(out)
	if err != nil {
		return nil, err
	}

	positions := make(map[string]Point, len(nodes))
	for _, n := range nodes {
		p, ok := raw[names[n.ID]]
		if !ok {
			return nil, perrors.New(perrors.ErrCodeInternal, "graphviz did not position node %q", n.ID)
		}
		positions[n.ID] = p
	}
	return newResult(e.Name(), t, positions), nil
}

// toDOT writes the hierarchy as a DOT digraph with fixed-size, unlabeled
// nodes. Sizes are in inches, Graphviz's unit, at 72 points per inch.
func (e *Graphviz) toDOT(t *hierarchy.Tree, names map[string]string) []byte {
	const pointsPerInch = 72
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	fmt.Fprintf(&buf, "  ranksep=%.3f;\n", e.opts.NodeHeight/2/pointsPerInch)
	fmt.Fprintf(&buf, "  nodesep=%.3f;\n", e.opts.NodeWidth/4/pointsPerInch)
	fmt.Fprintf(&buf, "  node [shape=box, fixedsize=true, label=\"\", width=%.3f, height=%.3f];\n",
		e.opts.NodeWidth*3/4/pointsPerInch, e.opts.NodeHeight/2/pointsPerInch)
	buf.WriteString("\n")

	for _, n := range t.Nodes() {
		fmt.Fprintf(&buf, "  %s;\n", names[n.ID])
	}
	buf.WriteString("\n")
	for _, l := range t.Links() {
		fmt.Fprintf(&buf, "  %s -> %s;\n", names[l.Parent], names[l.Child])
	}
	buf.WriteString("}\n")
	return buf.Bytes()
}

func (e *Graphviz) run(ctx context.Context, dot []byte) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes(dot)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInternal, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.XDOT, &buf); err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInternal, err, "graphviz layout")
	}
	return buf.Bytes(), nil
}

var (
	bbRe  = regexp.MustCompile(`bb="([-0-9.e+]+),([-0-9.e+]+),([-0-9.e+]+),([-0-9.e+]+)"`)
	posRe = regexp.MustCompile(`(?m)^\s*(n\d+)\s+\[[^\]]*?pos="([-0-9.e+]+),([-0-9.e+]+)"`)
)

// parsePositions reads node positions from laid-out DOT output and flips
// them into a y-down coordinate system using the graph bounding box.
func parsePositions(out []byte) (map[string]Point, error) {
	bb := bbRe.FindSubmatch(out)
	if bb == nil {
		return nil, perrors.New(perrors.ErrCodeInternal, "graphviz output has no bounding box")
	}
	top, err := strconv.ParseFloat(string(bb[4]), 64)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInternal, err, "parse bounding box")
	}

	positions := make(map[string]Point)
	for _, m := range posRe.FindAllSubmatch(out, -1) {
		x, errX := strconv.ParseFloat(string(m[2]), 64)
		y, errY := strconv.ParseFloat(string(m[3]), 64)
		if errX != nil || errY != nil {
			return nil, perrors.New(perrors.ErrCodeInternal, "bad position for %s", m[1])
		}
		positions[string(m[1])] = Point{X: x, Y: top - y}
	}
	return positions, nil
}
