package viewport

import "time"

// Controller owns the viewport state of one rendering context.
//
// Automatic fits happen when the data changes and when the viewport is
// resized. Once the user pans or zooms, their transform wins and resizes no
// longer refit; the next SetData hands control back to the fitter.
//
// A Controller is not safe for concurrent use. It is meant to be driven by
// the single loop that also draws the view.
type Controller struct {
	// Fill is passed to Fit. Zero selects DefaultFill.
	Fill float64
	// Duration of automatic fit transitions. Zero selects DefaultTransition;
	// a negative value applies fits immediately.
	Duration time.Duration
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	size         Size
	box          Box
	hasBox       bool
	current      Transform
	transition   *Transition
	userOverride bool
}

// NewController returns a controller for a viewport of the given size with
// the identity transform.
func NewController(size Size) *Controller {
	return &Controller{size: size, current: Identity}
}

// SetData records the bounding box of a new layout and fits it. The user
// override is cleared even when the box is degenerate.
func (c *Controller) SetData(box Box) bool {
	c.box, c.hasBox = box, true
	c.userOverride = false
	return c.fit()
}

// Resize updates the viewport size. The layout is refitted unless the user
// has taken over.
func (c *Controller) Resize(size Size) bool {
	if size == c.size {
		return false
	}
	c.size = size
	if c.userOverride || !c.hasBox {
		return false
	}
	return c.fit()
}

// Gesture applies a user pan or zoom immediately. Any running transition is
// dropped and automatic fits are suspended until the next SetData.
func (c *Controller) Gesture(t Transform) {
	c.transition = nil
	c.current = t
	c.userOverride = true
}

// Current returns the transform to draw with at now.
func (c *Controller) Current(now time.Time) Transform {
	if c.transition == nil {
		return c.current
	}
	if c.transition.Done(now) {
		c.current = c.transition.To
		c.transition = nil
		return c.current
	}
	return c.transition.At(now)
}

// Animating reports whether a transition is still running at now.
func (c *Controller) Animating(now time.Time) bool {
	return c.transition != nil && !c.transition.Done(now)
}

// Viewport returns the size and the transform at now.
func (c *Controller) Viewport(now time.Time) Viewport {
	return Viewport{Size: c.size, Transform: c.Current(now)}
}

// Target returns the transform the view settles on once any running
// transition completes.
func (c *Controller) Target() Transform {
	if c.transition != nil {
		return c.transition.To
	}
	return c.current
}

// Size returns the current viewport size.
func (c *Controller) Size() Size { return c.size }

// UserOverride reports whether a user gesture has taken over.
func (c *Controller) UserOverride() bool { return c.userOverride }

// fit starts a transition from the transform currently shown to the fitted
// one. A degenerate box leaves everything untouched.
func (c *Controller) fit() bool {
	to, ok := Fit(c.box, c.size, c.Fill)
	if !ok {
		return false
	}
	now := c.now()
	from := c.Current(now)

	d := c.Duration
	if d == 0 {
		d = DefaultTransition
	}
	if d < 0 {
		c.transition = nil
		c.current = to
		return true
	}
	c.current = from
	c.transition = &Transition{From: from, To: to, Start: now, Duration: d}
	return true
}

func (c *Controller) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
