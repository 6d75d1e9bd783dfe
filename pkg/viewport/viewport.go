package viewport

import (
	"fmt"
	"math"
	"strconv"
)

// DefaultFill is the share of the viewport the fitted box occupies along
// its limiting axis. The rest is padding.
const DefaultFill = 0.85

// Box is an axis-aligned rectangle in layout coordinates.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsDegenerate reports whether the box has no positive extent along some
// axis, which is the case for a single node or an empty layout.
func (b Box) IsDegenerate() bool { return b.Width <= 0 || b.Height <= 0 }

// Mid returns the center of the box.
func (b Box) Mid() (x, y float64) { return b.X + b.Width/2, b.Y + b.Height/2 }

// Pad returns the box grown by p on every side.
func (b Box) Pad(p float64) Box {
	return Box{X: b.X - p, Y: b.Y - p, Width: b.Width + 2*p, Height: b.Height + 2*p}
}

// Size is a viewport size in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsZero reports whether either dimension is zero or negative.
func (s Size) IsZero() bool { return s.Width <= 0 || s.Height <= 0 }

// Transform maps layout coordinates to viewport pixels: a point p is drawn
// at p*Scale + (TranslateX, TranslateY).
type Transform struct {
	Scale      float64 `json:"scale"`
	TranslateX float64 `json:"translate_x"`
	TranslateY float64 `json:"translate_y"`
}

// Identity is the transform that leaves coordinates unchanged.
var Identity = Transform{Scale: 1}

// Apply maps a layout point to viewport pixels.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return x*t.Scale + t.TranslateX, y*t.Scale + t.TranslateY
}

// Invert maps a viewport pixel back to layout coordinates.
func (t Transform) Invert(x, y float64) (float64, float64) {
	return (x - t.TranslateX) / t.Scale, (y - t.TranslateY) / t.Scale
}

// Translate returns the transform panned by (dx, dy) pixels.
func (t Transform) Translate(dx, dy float64) Transform {
	t.TranslateX += dx
	t.TranslateY += dy
	return t
}

// ZoomAt returns the transform scaled by k around the viewport pixel (x, y),
// which keeps the layout point under (x, y) in place.
func (t Transform) ZoomAt(k, x, y float64) Transform {
	lx, ly := t.Invert(x, y)
	s := t.Scale * k
	return Transform{Scale: s, TranslateX: x - lx*s, TranslateY: y - ly*s}
}

// String formats the transform as an SVG transform attribute value.
func (t Transform) String() string {
	return fmt.Sprintf("translate(%s,%s) scale(%s)", num(t.TranslateX), num(t.TranslateY), num(t.Scale))
}

func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e4)/1e4, 'f', -1, 64)
}

// Viewport is a view of a given size together with its current transform.
type Viewport struct {
	Size      Size      `json:"size"`
	Transform Transform `json:"transform"`
}

// Fit computes the transform that centers box in a viewport of the given
// size, scaled so that the box fills the given fraction of the limiting
// axis. A fill of zero or less selects DefaultFill.
//
// The second result is false when the box is degenerate or the viewport has
// no area. Callers then keep their current transform.
func Fit(box Box, size Size, fill float64) (Transform, bool) {
	if box.IsDegenerate() || size.IsZero() {
		return Transform{}, false
	}
	if fill <= 0 {
		fill = DefaultFill
	}
	scale := fill * min(size.Width/box.Width, size.Height/box.Height)
	midX, midY := box.Mid()
	return Transform{
		Scale:      scale,
		TranslateX: size.Width/2 - scale*midX,
		TranslateY: size.Height/2 - scale*midY,
	}, true
}
