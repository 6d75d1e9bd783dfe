package viewport

import "time"

// DefaultTransition is how long an automatic fit animates.
const DefaultTransition = 750 * time.Millisecond

// Transition animates from one transform to another.
type Transition struct {
	From     Transform
	To       Transform
	Start    time.Time
	Duration time.Duration
}

// Done reports whether the transition has finished at now.
func (tr Transition) Done(now time.Time) bool {
	return tr.Duration <= 0 || !now.Before(tr.Start.Add(tr.Duration))
}

// Progress returns the eased progress in [0, 1] at now.
func (tr Transition) Progress(now time.Time) float64 {
	if tr.Done(now) {
		return 1
	}
	elapsed := now.Sub(tr.Start)
	if elapsed <= 0 {
		return 0
	}
	return easeCubicInOut(float64(elapsed) / float64(tr.Duration))
}

// At returns the interpolated transform at now.
func (tr Transition) At(now time.Time) Transform {
	p := tr.Progress(now)
	switch p {
	case 0:
		return tr.From
	case 1:
		return tr.To
	}
	return Transform{
		Scale:      lerp(tr.From.Scale, tr.To.Scale, p),
		TranslateX: lerp(tr.From.TranslateX, tr.To.TranslateX, p),
		TranslateY: lerp(tr.From.TranslateY, tr.To.TranslateY, p),
	}
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func easeCubicInOut(t float64) float64 {
	t *= 2
	if t <= 1 {
		return t * t * t / 2
	}
	t -= 2
	return (t*t*t + 2) / 2
}
