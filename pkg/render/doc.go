// Package render draws a laid-out hierarchy.
//
// # SVG
//
// [RenderSVG] writes a standalone SVG sized to the viewport. Links and nodes
// sit inside one group whose transform attribute is the viewport transform,
// so the fitted (or user-adjusted) pan and zoom apply to the whole drawing:
//
//	<svg width="800" height="600" ...>
//	  <g class="viewport" transform="translate(60,130) scale(3.4)">
//	    <path class="link" .../>
//	    <g class="node" ...>...</g>
//	  </g>
//	</svg>
//
// An empty tree renders a placeholder message instead of a blank canvas.
//
// # DOT
//
// [ToDOT] converts the hierarchy to Graphviz DOT source and [RenderDOTSVG]
// renders DOT in-process with [github.com/goccy/go-graphviz].
//
//	dot := render.ToDOT(tree, render.DOTOptions{})
//	svg, err := render.RenderDOTSVG(ctx, dot)
package render
