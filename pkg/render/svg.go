package render

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/matzehuels/proctree/pkg/hierarchy"
	"github.com/matzehuels/proctree/pkg/layout"
	"github.com/matzehuels/proctree/pkg/viewport"
)

// EmptyMessage is shown for a tree without nodes.
const EmptyMessage = "No data"

const svgStyle = `
    .link { fill: none; stroke: #999; stroke-width: 1.5; }
    .node circle { fill: #fff; stroke: #4a6fa5; stroke-width: 2; }
    .node.leaf circle { fill: #4a6fa5; }
    .node text { font: 12px sans-serif; fill: #333; }
    .empty { font: 16px sans-serif; fill: #888; }`

type SVGOption func(*svgRenderer)

type svgRenderer struct {
	radius float64
	labels bool
	title  string
}

func WithNodeRadius(r float64) SVGOption { return func(s *svgRenderer) { s.radius = r } }
func WithoutLabels() SVGOption           { return func(s *svgRenderer) { s.labels = false } }
func WithTitle(title string) SVGOption   { return func(s *svgRenderer) { s.title = title } }

// RenderSVG draws the tree with the positions in l, viewed through vp.
// Synthetic roots added by the virtual root policy are not drawn and
// neither are their links.
func RenderSVG(t *hierarchy.Tree, l *layout.Result, vp viewport.Viewport, opts ...SVGOption) []byte {
	r := svgRenderer{radius: 6, labels: true}
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.0f %.0f" width="%.0f" height="%.0f">`+"\n",
		vp.Size.Width, vp.Size.Height, vp.Size.Width, vp.Size.Height)
	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", escapeXML(r.title))
	}
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", svgStyle)

	if t == nil || t.IsEmpty() || l == nil {
		renderEmpty(&buf, vp.Size)
		buf.WriteString("</svg>\n")
		return buf.Bytes()
	}

	fmt.Fprintf(&buf, "  <g class=\"viewport\" transform=\"%s\">\n", vp.Transform)
	renderLinks(&buf, t, l)
	renderNodes(&buf, t, l, &r)
	buf.WriteString("  </g>\n")
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderEmpty(buf *bytes.Buffer, size viewport.Size) {
	fmt.Fprintf(buf, `  <text class="empty" x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="middle">%s</text>`+"\n",
		size.Width/2, size.Height/2, EmptyMessage)
}

// renderLinks draws each parent → child link as a vertical cubic curve.
func renderLinks(buf *bytes.Buffer, t *hierarchy.Tree, l *layout.Result) {
	t.Walk(func(n *hierarchy.Node) bool {
		if n.Virtual {
			return true
		}
		from, ok := l.Position(n.ID)
		if !ok {
			return true
		}
		for _, c := range n.Children {
			to, ok := l.Position(c.ID)
			if !ok {
				continue
			}
			midY := (from.Y + to.Y) / 2
			fmt.Fprintf(buf, `    <path class="link" d="M%s,%s C%s,%s %s,%s %s,%s"/>`+"\n",
				num(from.X), num(from.Y), num(from.X), num(midY), num(to.X), num(midY), num(to.X), num(to.Y))
		}
		return true
	})
}

func renderNodes(buf *bytes.Buffer, t *hierarchy.Tree, l *layout.Result, r *svgRenderer) {
	t.Walk(func(n *hierarchy.Node) bool {
		p, ok := l.Position(n.ID)
		if n.Virtual || !ok {
			return true
		}
		class := "node"
		if n.IsLeaf() {
			class += " leaf"
		}
		fmt.Fprintf(buf, `    <g class="%s" id="node-%s" transform="translate(%s,%s)">`+"\n",
			class, escapeXML(n.ID), num(p.X), num(p.Y))
		fmt.Fprintf(buf, `      <circle r="%s"/>`+"\n", num(r.radius))
		if r.labels {
			fmt.Fprintf(buf, `      <text dy="%s" text-anchor="middle">%s</text>`+"\n",
				num(-r.radius-4), escapeXML(n.Data.DisplayLabel()))
		}
		buf.WriteString("    </g>\n")
		return true
	})
}

func num(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
