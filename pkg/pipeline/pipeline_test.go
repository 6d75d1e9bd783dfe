package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/matzehuels/proctree/pkg/cache"
	perrors "github.com/matzehuels/proctree/pkg/errors"
	"github.com/matzehuels/proctree/pkg/graph"
	"github.com/matzehuels/proctree/pkg/hierarchy"
	"github.com/matzehuels/proctree/pkg/layout"
	"github.com/matzehuels/proctree/pkg/pdftext"
	"github.com/matzehuels/proctree/pkg/viewport"
)

// =============================================================================
// Options
// =============================================================================

func TestOptionsDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error = %v", err)
	}
	want := Options{
		Guard:      hierarchy.GuardTwoHop,
		RootPolicy: hierarchy.RootPolicyForest,
		Engine:     layout.EngineTidy,
		NodeWidth:  layout.DefaultNodeWidth,
		NodeHeight: layout.DefaultNodeHeight,
		Width:      800,
		Height:     600,
		Fill:       0.85,
		Backend:    pdftext.BackendFragments,
	}
	if diff := cmp.Diff(want, opts, cmpopts.IgnoreUnexported(Options{})); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}

	// Idempotent.
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second ValidateAndSetDefaults() error = %v", err)
	}
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"UnknownGuard", Options{Guard: "sideways"}},
		{"UnknownPolicy", Options{RootPolicy: "many"}},
		{"UnknownEngine", Options{Engine: "dot"}},
		{"NegativeWidth", Options{Width: -1}},
		{"FillTooLarge", Options{Fill: 1.5}},
		{"NegativeFill", Options{Fill: -0.5}},
		{"NegativeSpacing", Options{NodeHeight: -10}},
		{"UnknownBackend", Options{Backend: "ocr"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !perrors.Is(err, perrors.ErrCodeInvalidConfig) {
				t.Errorf("ValidateAndSetDefaults() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestValidateFormat(t *testing.T) {
	for _, f := range TreeFormats {
		if err := ValidateFormat(f); err != nil {
			t.Errorf("ValidateFormat(%q) error = %v", f, err)
		}
	}
	if err := ValidateFormat("png"); !perrors.Is(err, perrors.ErrCodeInvalidFormat) {
		t.Errorf("ValidateFormat(png) error = %v, want INVALID_FORMAT", err)
	}
	if err := ValidateTextFormat(FormatText); err != nil {
		t.Errorf("ValidateTextFormat(text) error = %v", err)
	}
	if err := ValidateTextFormat(FormatSVG); !perrors.Is(err, perrors.ErrCodeInvalidFormat) {
		t.Errorf("ValidateTextFormat(svg) error = %v, want INVALID_FORMAT", err)
	}
}

func TestLayoutKeyOptsIgnoresViewport(t *testing.T) {
	a := Options{Width: 100, Height: 100}
	b := Options{Width: 1920, Height: 1080, Fill: 0.5}
	if err := a.ValidateForTree(); err != nil {
		t.Fatal(err)
	}
	if err := b.ValidateForTree(); err != nil {
		t.Fatal(err)
	}
	if a.LayoutKeyOpts() != b.LayoutKeyOpts() {
		t.Errorf("LayoutKeyOpts differ: %+v vs %+v", a.LayoutKeyOpts(), b.LayoutKeyOpts())
	}
}

// =============================================================================
// Tree Pipeline
// =============================================================================

func fork() graph.Graph {
	return graph.Graph{
		Nodes: []graph.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Edges: []graph.Edge{{From: "a", To: "b"}, {From: "a", To: "c"}},
	}
}

func TestRunnerTree(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Tree(context.Background(), fork(), Options{})
	if err != nil {
		t.Fatalf("Tree() error = %v", err)
	}
	if res.RunID == "" {
		t.Error("RunID is empty")
	}
	if got := res.Parents.Map(); !cmp.Equal(got, map[string]string{"b": "a", "c": "a"}) {
		t.Errorf("parents = %v", got)
	}
	if res.Layout.Box != (viewport.Box{Width: 120, Height: 80}) {
		t.Errorf("Box = %+v, want {0 0 120 80}", res.Layout.Box)
	}
	if !res.Fitted {
		t.Fatal("Fitted = false, want true")
	}

	// scale = 0.85 * min(800/120, 600/80)
	want := viewport.Transform{Scale: 0.85 * 800 / 120, TranslateX: 60, TranslateY: 300 - 0.85*800/120*40}
	if diff := cmp.Diff(want, res.Viewport.Transform, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("transform mismatch (-want +got):\n%s", diff)
	}
	if got, want := res.Viewport.Transform.String(), "translate(60,73.3333) scale(5.6667)"; got != want {
		t.Errorf("transform = %q, want %q", got, want)
	}
}

func TestRunnerTreeUnfitted(t *testing.T) {
	tests := []struct {
		name string
		g    graph.Graph
	}{
		{"Empty", graph.Graph{}},
		{"SingleNode", graph.Graph{Nodes: []graph.Node{{ID: "a"}}}},
		{"Chain", graph.Graph{
			Nodes: []graph.Node{{ID: "a"}, {ID: "b"}},
			Edges: []graph.Edge{{From: "a", To: "b"}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewRunner(nil, nil, nil).Tree(context.Background(), tt.g, Options{})
			if err != nil {
				t.Fatalf("Tree() error = %v", err)
			}
			if res.Fitted {
				t.Error("Fitted = true, want false")
			}
			if res.Viewport.Transform != viewport.Identity {
				t.Errorf("Transform = %+v, want identity", res.Viewport.Transform)
			}
		})
	}
}

func TestRunnerTreeErrors(t *testing.T) {
	triangle := graph.Graph{
		Nodes: []graph.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Edges: []graph.Edge{{From: "a", To: "b"}, {From: "b", To: "c"}, {From: "c", To: "a"}},
	}
	_, err := NewRunner(nil, nil, nil).Tree(context.Background(), triangle, Options{})
	if !perrors.Is(err, perrors.ErrCodeGraphCycle) {
		t.Errorf("Tree(triangle) error = %v, want GRAPH_CYCLE", err)
	}

	// The ancestor guard breaks the same cycle.
	if _, err := NewRunner(nil, nil, nil).Tree(context.Background(), triangle, Options{Guard: hierarchy.GuardAncestor}); err != nil {
		t.Errorf("Tree(triangle, ancestor) error = %v", err)
	}

	forest := graph.Graph{Nodes: []graph.Node{{ID: "a"}, {ID: "b"}}}
	_, err = NewRunner(nil, nil, nil).Tree(context.Background(), forest, Options{RootPolicy: hierarchy.RootPolicySingle})
	if !errors.Is(err, hierarchy.ErrMultipleRoots) {
		t.Errorf("Tree(forest, single) error = %v, want ErrMultipleRoots", err)
	}
}

func TestRunnerTreeCache(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := cache.NewRedisCache(context.Background(), cache.RedisOptions{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("NewRedisCache() error = %v", err)
	}
	r := NewRunner(c, nil, nil)
	defer r.Close()

	ctx := context.Background()
	first, err := r.Tree(ctx, fork(), Options{})
	if err != nil {
		t.Fatalf("Tree() error = %v", err)
	}
	if first.CacheInfo.LayoutHit {
		t.Error("first run hit the cache")
	}

	// A different viewport reuses the layout but fits again.
	second, err := r.Tree(ctx, fork(), Options{Width: 400, Height: 300})
	if err != nil {
		t.Fatalf("Tree() error = %v", err)
	}
	if !second.CacheInfo.LayoutHit {
		t.Error("second run missed the cache")
	}
	if diff := cmp.Diff(first.Layout, second.Layout); diff != "" {
		t.Errorf("cached layout mismatch (-first +second):\n%s", diff)
	}
	if second.Viewport.Transform.Scale >= first.Viewport.Transform.Scale {
		t.Errorf("scale %v not smaller than %v for the smaller viewport",
			second.Viewport.Transform.Scale, first.Viewport.Transform.Scale)
	}

	refreshed, err := r.Tree(ctx, fork(), Options{Refresh: true})
	if err != nil {
		t.Fatalf("Tree() error = %v", err)
	}
	if refreshed.CacheInfo.LayoutHit {
		t.Error("refresh run hit the cache")
	}

	other, err := r.Tree(ctx, fork(), Options{Engine: layout.EngineTidy, NodeWidth: 50})
	if err != nil {
		t.Fatalf("Tree() error = %v", err)
	}
	if other.CacheInfo.LayoutHit {
		t.Error("changed node width hit the cache")
	}
}

func TestRenderTree(t *testing.T) {
	res, err := NewRunner(nil, nil, nil).Tree(context.Background(), fork(), Options{})
	if err != nil {
		t.Fatalf("Tree() error = %v", err)
	}

	data, err := RenderTree(res, FormatJSON)
	if err != nil {
		t.Fatalf("RenderTree(json) error = %v", err)
	}
	var out TreeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff([]string{"a"}, out.Roots); diff != "" {
		t.Errorf("roots mismatch (-want +got):\n%s", diff)
	}
	if !out.Fitted || out.Transform != res.Viewport.Transform.String() {
		t.Errorf("output = fitted %v transform %q", out.Fitted, out.Transform)
	}

	svg, err := RenderTree(res, FormatSVG)
	if err != nil {
		t.Fatalf("RenderTree(svg) error = %v", err)
	}
	if !bytes.Contains(svg, []byte(`transform="`+res.Viewport.Transform.String()+`"`)) {
		t.Errorf("svg lacks the fitted transform:\n%s", svg)
	}

	dot, err := RenderTree(res, FormatDOT)
	if err != nil {
		t.Fatalf("RenderTree(dot) error = %v", err)
	}
	if !strings.HasPrefix(string(dot), "digraph") {
		t.Errorf("dot output = %q", dot)
	}

	if _, err := RenderTree(res, "png"); !perrors.Is(err, perrors.ErrCodeInvalidFormat) {
		t.Errorf("RenderTree(png) error = %v, want INVALID_FORMAT", err)
	}
}

// =============================================================================
// Extract Pipeline
// =============================================================================

type fakeOpener struct {
	pages   [][]string
	failAt  int
	openErr error
	opens   int
}

func (o *fakeOpener) Name() string { return "fake" }

func (o *fakeOpener) Open(context.Context, io.ReaderAt, int64) (pdftext.Document, error) {
	o.opens++
	if o.openErr != nil {
		return nil, o.openErr
	}
	return fakeDoc{o}, nil
}

type fakeDoc struct{ o *fakeOpener }

func (d fakeDoc) NumPages() int { return len(d.o.pages) }

func (d fakeDoc) PageItems(_ context.Context, n int) ([]string, error) {
	if n == d.o.failAt {
		return nil, errors.New("bad content stream")
	}
	return d.o.pages[n-1], nil
}

func (d fakeDoc) Close() error { return nil }

func runnerWith(c cache.Cache, o *fakeOpener) *Runner {
	r := NewRunner(c, nil, nil)
	r.Opener = func(string) (pdftext.Opener, error) { return o, nil }
	return r
}

func TestRunnerExtract(t *testing.T) {
	o := &fakeOpener{pages: [][]string{{"Hello", "world"}, {"Page", "two"}}}
	res, err := runnerWith(nil, o).Extract(context.Background(), []byte("%PDF-"), Options{})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got, want := res.Text, "Hello world\n\nPage two\n\n"; got != want {
		t.Errorf("Text = %q, want %q", got, want)
	}
	if res.Stats.PageCount != 2 {
		t.Errorf("PageCount = %d, want 2", res.Stats.PageCount)
	}
	if res.Backend != pdftext.BackendFragments {
		t.Errorf("Backend = %q, want default", res.Backend)
	}
}

func TestRunnerExtractErrors(t *testing.T) {
	o := &fakeOpener{openErr: errors.New("not a pdf")}
	_, err := runnerWith(nil, o).Extract(context.Background(), []byte("garbage"), Options{})
	if !errors.Is(err, pdftext.ErrOpen) || !perrors.Is(err, perrors.ErrCodeDocumentOpen) {
		t.Errorf("Extract() error = %v, want DOCUMENT_OPEN", err)
	}

	o = &fakeOpener{pages: [][]string{{"one"}, {"two"}, {"three"}}, failAt: 2}
	res, err := runnerWith(nil, o).Extract(context.Background(), []byte("%PDF-"), Options{})
	if !errors.Is(err, pdftext.ErrPage) {
		t.Errorf("Extract() error = %v, want ErrPage", err)
	}
	if res != nil {
		t.Errorf("Extract() returned partial result %+v", res)
	}
}

func TestRunnerExtractCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	o := &fakeOpener{pages: [][]string{{"cached"}}}
	r := runnerWith(c, o)
	ctx := context.Background()
	doc := []byte("%PDF-1.7 fake")

	first, err := r.Extract(ctx, doc, Options{})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	second, err := r.Extract(ctx, doc, Options{})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !second.CacheInfo.ExtractHit || o.opens != 1 {
		t.Errorf("second run: hit %v, opens %d; want hit and 1 open", second.CacheInfo.ExtractHit, o.opens)
	}
	if first.Text != second.Text {
		t.Errorf("cached text %q != %q", second.Text, first.Text)
	}

	if _, err := r.Extract(ctx, doc, Options{Backend: pdftext.BackendRows}); err != nil {
		t.Fatalf("Extract(rows) error = %v", err)
	}
	if o.opens != 2 {
		t.Errorf("opens = %d after backend change, want 2", o.opens)
	}
}

func TestRenderText(t *testing.T) {
	res := &TextResult{Backend: "fake", Text: "a\n\n", Pages: []pdftext.Page{{Number: 1, Text: "a"}}}
	data, err := RenderText(res, FormatText)
	if err != nil || string(data) != "a\n\n" {
		t.Errorf("RenderText(text) = %q, %v", data, err)
	}
	data, err = RenderText(res, FormatJSON)
	if err != nil {
		t.Fatalf("RenderText(json) error = %v", err)
	}
	var out TextOutput
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(TextOutput{Backend: "fake", Text: "a\n\n", Pages: res.Pages}, out); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}
