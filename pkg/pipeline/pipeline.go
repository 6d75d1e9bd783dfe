// Package pipeline runs the proctree stages with caching.
//
// Two independent pipelines share one [Runner]:
//
//  1. Tree: reduce the edge list to parents → stratify → lay out → fit
//  2. Extract: open a PDF → read pages 1..N → join the text
//
// The CLI, the interactive viewer and library callers all go through the
// Runner, so defaults, caching and logging behave the same everywhere.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Tree(ctx, g, pipeline.Options{Width: 1024, Height: 768})
//	if err != nil {
//	    return err
//	}
//	svg, err := pipeline.RenderTree(res, pipeline.FormatSVG)
//
//	text, err := runner.Extract(ctx, pdfBytes, pipeline.Options{Backend: "rows"})
//
// Layouts are cached by the hash of the input graph and the options that
// change them; extracted text by the hash of the document and the backend.
// Reduction and fitting are cheap and always run.
package pipeline

import (
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/proctree/pkg/cache"
	perrors "github.com/matzehuels/proctree/pkg/errors"
	"github.com/matzehuels/proctree/pkg/hierarchy"
	"github.com/matzehuels/proctree/pkg/layout"
	"github.com/matzehuels/proctree/pkg/pdftext"
	"github.com/matzehuels/proctree/pkg/viewport"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Library Callers
// =============================================================================

const (
	// DefaultWidth is the default viewport width in pixels.
	DefaultWidth = 800.0

	// DefaultHeight is the default viewport height in pixels.
	DefaultHeight = 600.0

	// DefaultFill is the share of the viewport a fitted tree occupies.
	DefaultFill = viewport.DefaultFill

	// DefaultEngine is the default layout engine.
	DefaultEngine = layout.EngineTidy

	// DefaultBackend is the default PDF text backend.
	DefaultBackend = pdftext.BackendFragments
)

// DefaultGuard is the default cycle guard.
const DefaultGuard = hierarchy.GuardTwoHop

// DefaultRootPolicy is the default multi-root policy.
const DefaultRootPolicy = hierarchy.RootPolicyForest

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatSVG  = "svg"
	FormatDOT  = "dot"
	FormatText = "text"
)

// TreeFormats are the output formats of the tree pipeline.
var TreeFormats = []string{FormatJSON, FormatSVG, FormatDOT}

// TextFormats are the output formats of the extract pipeline.
var TextFormats = []string{FormatText, FormatJSON}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for both pipelines.
type Options struct {
	// Tree options
	Guard      hierarchy.CycleGuard `json:"guard,omitempty"`
	RootPolicy hierarchy.RootPolicy `json:"root_policy,omitempty"`
	Engine     string               `json:"engine,omitempty"`
	NodeWidth  float64              `json:"node_width,omitempty"`
	NodeHeight float64              `json:"node_height,omitempty"`

	// Viewport options
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Fill   float64 `json:"fill,omitempty"`

	// Extract options
	Backend string `json:"backend,omitempty"`

	// Refresh skips cache reads. Results are still written.
	Refresh bool `json:"refresh,omitempty"`

	// Logger overrides the runner's logger for one run.
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid for the tree pipeline.
func ValidateFormat(format string) error {
	if !slices.Contains(TreeFormats, format) {
		return perrors.New(perrors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: json, svg, dot)", format)
	}
	return nil
}

// ValidateTextFormat checks that a format is valid for the extract pipeline.
func ValidateTextFormat(format string) error {
	if !slices.Contains(TextFormats, format) {
		return perrors.New(perrors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: text, json)", format)
	}
	return nil
}

// ValidateFill checks that a fill factor is in (0, 1].
func ValidateFill(fill float64) error {
	if fill <= 0 || fill > 1 {
		return perrors.New(perrors.ErrCodeInvalidConfig, "invalid fill: %v (must be in (0, 1])", fill)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults validates every option and applies defaults for
// both pipelines. This method is idempotent - calling it multiple times has
// the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForTree(); err != nil {
		return err
	}
	if err := o.ValidateForExtract(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForTree validates and sets defaults for the tree pipeline.
func (o *Options) ValidateForTree() error {
	var err error
	if o.Guard, err = hierarchy.ParseCycleGuard(string(o.Guard)); err != nil {
		return err
	}
	if o.RootPolicy, err = hierarchy.ParseRootPolicy(string(o.RootPolicy)); err != nil {
		return err
	}
	if o.Engine == "" {
		o.Engine = DefaultEngine
	}
	if !slices.Contains(layout.Engines, o.Engine) {
		return perrors.New(perrors.ErrCodeInvalidConfig, "invalid engine: %q (must be one of: tidy, graphviz)", o.Engine)
	}
	if o.NodeWidth == 0 {
		o.NodeWidth = layout.DefaultNodeWidth
	}
	if o.NodeHeight == 0 {
		o.NodeHeight = layout.DefaultNodeHeight
	}
	if o.NodeWidth < 0 || o.NodeHeight < 0 {
		return perrors.New(perrors.ErrCodeInvalidConfig, "node spacing must be positive")
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Width < 0 || o.Height < 0 {
		return perrors.New(perrors.ErrCodeInvalidConfig, "viewport size must be positive, got %vx%v", o.Width, o.Height)
	}
	if o.Fill == 0 {
		o.Fill = DefaultFill
	}
	if err := ValidateFill(o.Fill); err != nil {
		return err
	}
	return nil
}

// ValidateForExtract validates and sets defaults for the extract pipeline.
func (o *Options) ValidateForExtract() error {
	if o.Backend == "" {
		o.Backend = DefaultBackend
	}
	if !slices.Contains(pdftext.Backends, o.Backend) {
		return perrors.New(perrors.ErrCodeInvalidConfig, "invalid backend: %q (must be one of: fragments, rows)", o.Backend)
	}
	return nil
}

// Size returns the viewport size.
func (o *Options) Size() viewport.Size {
	return viewport.Size{Width: o.Width, Height: o.Height}
}

// LayoutOptions returns the options passed to the layout engine.
func (o *Options) LayoutOptions() layout.Options {
	return layout.Options{NodeWidth: o.NodeWidth, NodeHeight: o.NodeHeight}
}

// LayoutKeyOpts returns cache key options for layout computation.
// The viewport does not affect the layout and is not part of the key.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Engine:     o.Engine,
		Guard:      string(o.Guard),
		RootPolicy: string(o.RootPolicy),
		NodeWidth:  o.NodeWidth,
		NodeHeight: o.NodeHeight,
	}
}

// TextKeyOpts returns cache key options for text extraction.
func (o *Options) TextKeyOpts() cache.TextKeyOpts {
	return cache.TextKeyOpts{Backend: o.Backend}
}

// =============================================================================
// Results
// =============================================================================

// TreeResult contains the outputs of a tree pipeline run.
type TreeResult struct {
	// RunID identifies the run in logs.
	RunID string

	// Tree is the stratified hierarchy.
	Tree *hierarchy.Tree

	// Parents is the parent assignment the tree was built from.
	Parents *hierarchy.Parents

	// Layout holds node positions and the bounding box.
	Layout *layout.Result

	// Viewport is the viewport size with the fitted transform. When the
	// layout could not be fitted (empty or single node) the transform is
	// the identity and Fitted is false.
	Viewport viewport.Viewport
	Fitted   bool

	Stats     Stats
	CacheInfo CacheInfo
}

// TextResult contains the outputs of an extract pipeline run.
type TextResult struct {
	RunID     string
	Backend   string
	Text      string
	Pages     []pdftext.Page
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount   int
	EdgeCount   int
	RootCount   int
	PageCount   int
	ReduceTime  time.Duration
	LayoutTime  time.Duration
	ExtractTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit  bool // Whether the layout came from cache
	ExtractHit bool // Whether the text came from cache
}
