// Package viewport fits a laid-out tree into a view and tracks the pan/zoom
// transform of that view.
//
// [Fit] computes the transform for a bounding box in layout coordinates and
// a viewport size in pixels:
//
//	scale      = fill * min(viewW/boxW, viewH/boxH)
//	translateX = viewW/2 - scale*midX
//	translateY = viewH/2 - scale*midY
//
// With the default fill of 0.85 the box keeps a 15% margin along its
// limiting axis. A box with zero width or height cannot be fitted; Fit
// reports false and callers keep the transform they have.
//
// [Controller] wraps Fit with the interaction rules of a live view: data
// changes and resizes animate to the new fit over [DefaultTransition] with
// cubic in-out easing, and a user gesture takes precedence until the data
// changes again.
package viewport
