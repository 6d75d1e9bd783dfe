package viewport

import (
	"math"
	"testing"
)

const eps = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) < eps }

func approxTransform(a, b Transform) bool {
	return approx(a.Scale, b.Scale) && approx(a.TranslateX, b.TranslateX) && approx(a.TranslateY, b.TranslateY)
}

func TestFit(t *testing.T) {
	tests := []struct {
		name   string
		box    Box
		size   Size
		fill   float64
		want   Transform
		wantOK bool
	}{
		{
			name:   "WidthLimited",
			box:    Box{Width: 200, Height: 100},
			size:   Size{Width: 800, Height: 600},
			want:   Transform{Scale: 3.4, TranslateX: 60, TranslateY: 130},
			wantOK: true,
		},
		{
			name:   "HeightLimited",
			box:    Box{X: -50, Y: 0, Width: 100, Height: 400},
			size:   Size{Width: 800, Height: 400},
			fill:   1,
			want:   Transform{Scale: 1, TranslateX: 400, TranslateY: 0},
			wantOK: true,
		},
		{
			name:   "OffsetBox",
			box:    Box{X: 100, Y: 100, Width: 100, Height: 100},
			size:   Size{Width: 100, Height: 100},
			fill:   0.5,
			want:   Transform{Scale: 0.5, TranslateX: -25, TranslateY: -25},
			wantOK: true,
		},
		{
			name: "ZeroWidth",
			box:  Box{X: 10, Y: 10, Width: 0, Height: 100},
			size: Size{Width: 800, Height: 600},
		},
		{
			name: "ZeroHeight",
			box:  Box{Width: 100},
			size: Size{Width: 800, Height: 600},
		},
		{
			name: "NegativeWidth",
			box:  Box{X: 100, Y: 0, Width: -100, Height: 100},
			size: Size{Width: 800, Height: 600},
		},
		{
			name: "NegativeHeight",
			box:  Box{Width: 100, Height: -1},
			size: Size{Width: 800, Height: 600},
		},
		{
			name: "ZeroViewport",
			box:  Box{Width: 100, Height: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Fit(tt.box, tt.size, tt.fill)
			if ok != tt.wantOK {
				t.Fatalf("Fit() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !approxTransform(got, tt.want) {
				t.Errorf("Fit() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFitCentersBox(t *testing.T) {
	box := Box{X: -37, Y: 12, Width: 310, Height: 95}
	size := Size{Width: 1024, Height: 768}
	tr, ok := Fit(box, size, DefaultFill)
	if !ok {
		t.Fatal("Fit() ok = false")
	}

	mx, my := tr.Apply(box.Mid())
	if !approx(mx, size.Width/2) || !approx(my, size.Height/2) {
		t.Errorf("box center maps to (%v, %v), want viewport center", mx, my)
	}

	x0, y0 := tr.Apply(box.X, box.Y)
	x1, y1 := tr.Apply(box.X+box.Width, box.Y+box.Height)
	fw, fh := (x1-x0)/size.Width, (y1-y0)/size.Height
	if !approx(max(fw, fh), DefaultFill) {
		t.Errorf("fitted box fills %v x %v of the viewport, want %v on the limiting axis", fw, fh, DefaultFill)
	}
}

func TestTransformZoomAt(t *testing.T) {
	tr := Transform{Scale: 2, TranslateX: 10, TranslateY: -5}
	lx, ly := tr.Invert(300, 200)

	zoomed := tr.ZoomAt(1.5, 300, 200)
	if !approx(zoomed.Scale, 3) {
		t.Errorf("Scale = %v, want 3", zoomed.Scale)
	}
	if x, y := zoomed.Apply(lx, ly); !approx(x, 300) || !approx(y, 200) {
		t.Errorf("anchor moved to (%v, %v), want (300, 200)", x, y)
	}
}

func TestTransformString(t *testing.T) {
	tests := []struct {
		tr   Transform
		want string
	}{
		{Identity, "translate(0,0) scale(1)"},
		{Transform{Scale: 3.4, TranslateX: 60, TranslateY: 130}, "translate(60,130) scale(3.4)"},
		{Transform{Scale: 1.0 / 3, TranslateX: -0.5}, "translate(-0.5,0) scale(0.3333)"},
	}
	for _, tt := range tests {
		if got := tt.tr.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestBoxPad(t *testing.T) {
	got := Box{X: 0, Y: 10, Width: 100, Height: 50}.Pad(5)
	want := Box{X: -5, Y: 5, Width: 110, Height: 60}
	if got != want {
		t.Errorf("Pad() = %+v, want %+v", got, want)
	}
}
