// Package pkg provides the core libraries for proctree.
//
// # Overview
//
// proctree turns a flat graph of processes or dependencies into a tree that
// fits a view, and separately reads the plain text of PDF documents. The pkg
// directory is organized into three areas:
//
//  1. Domain logic: [graph], [hierarchy], [layout], [viewport], [pdftext]
//  2. Output: [render]
//  3. Infrastructure: [pipeline], [cache], [config], [observability], [errors], [buildinfo]
//
// # Architecture
//
// The tree pipeline:
//
//	graph.json / graph.toml
//	         ↓
//	    [graph] package (nodes + edges, validated)
//	         ↓
//	    [hierarchy] package (first-incoming-edge parents, cycle guard, stratify)
//	         ↓
//	    [layout] package (tidy or graphviz positions + bounding box)
//	         ↓
//	    [viewport] package (fit transform, transitions, user gestures)
//	         ↓
//	    [render] package (SVG / DOT)
//
// The text pipeline:
//
//	file.pdf → [pdftext] (pages 1..N, items joined by spaces) → text
//
// # Quick Start
//
//	g, _ := graph.ReadFile("ps.json")
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	res, err := runner.Tree(ctx, g, pipeline.Options{Width: 1024, Height: 768})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Viewport.Transform) // translate(…) scale(…)
//
//	text, err := runner.Extract(ctx, pdfBytes, pipeline.Options{})
//
// # Main Packages
//
// [hierarchy] - Parent assignment and tree building. The parent of a node is
// the source of the first edge pointing at it; a two-hop guard (or the
// stricter ancestor guard) keeps cycles out.
//
// [viewport] - Fit a bounding box into a viewport at 85% of the limiting axis
// and animate between fits. A [viewport.Controller] stops refitting on resize
// once the user pans or zooms.
//
// [pdftext] - Page-ordered text extraction over two backends (tabula
// fragments, ledongthuc rows). The first failing page aborts the run.
//
// [pipeline] - Orchestration with caching. Used by the CLI and by library
// callers.
//
// [cache] - File, Redis and null caches with hashed keys.
package pkg
