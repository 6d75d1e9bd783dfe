package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/proctree/pkg/buildinfo"
	"github.com/matzehuels/proctree/pkg/cache"
	"github.com/matzehuels/proctree/pkg/graph"
	"github.com/matzehuels/proctree/pkg/hierarchy"
	"github.com/matzehuels/proctree/pkg/layout"
	"github.com/matzehuels/proctree/pkg/observability"
	"github.com/matzehuels/proctree/pkg/pdftext"
	"github.com/matzehuels/proctree/pkg/viewport"
)

// Cache key types reported to observability hooks.
const (
	keyTypeLayout = "layout"
	keyTypeText   = "text"
)

// Runner encapsulates pipeline execution with caching.
// The CLI and library callers use it to share caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Opener returns the PDF backend for a name. Defaults to pdftext.NewOpener.
	Opener func(name string) (pdftext.Opener, error)
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer scoped to the build version is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), buildinfo.CacheScope())
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		Opener: pdftext.NewOpener,
	}
}

// =============================================================================
// Tree Pipeline
// =============================================================================

// Tree runs reduce → stratify → layout → fit on a graph.
//
// The layout stage is cached. A tree that cannot be fitted (no nodes, or a
// bounding box with zero width or height) keeps the identity transform and
// is not an error.
func (r *Runner) Tree(ctx context.Context, g graph.Graph, opts Options) (*TreeResult, error) {
	if err := opts.ValidateForTree(); err != nil {
		return nil, err
	}
	res := &TreeResult{RunID: uuid.NewString()}
	logger := r.logger(opts).With("run", res.RunID)
	hooks := observability.Pipeline()

	// Stage 1: Reduce and stratify
	reduceStart := time.Now()
	hooks.OnReduceStart(ctx, len(g.Nodes), len(g.Edges))
	tree, parents, err := hierarchy.Build(g, opts.Guard, opts.RootPolicy)
	res.Stats.ReduceTime = time.Since(reduceStart)
	if err != nil {
		hooks.OnReduceComplete(ctx, 0, res.Stats.ReduceTime, err)
		return nil, err
	}
	hooks.OnReduceComplete(ctx, parents.Stats.Roots, res.Stats.ReduceTime, nil)
	res.Tree = tree
	res.Parents = parents
	res.Stats.NodeCount = len(g.Nodes)
	res.Stats.EdgeCount = len(g.Edges)
	res.Stats.RootCount = parents.Stats.Roots

	logger.Info("reduced graph",
		"nodes", res.Stats.NodeCount,
		"roots", res.Stats.RootCount,
		"back_edges", parents.Stats.BackEdges,
		"duration", res.Stats.ReduceTime)
	if n := parents.Stats.DanglingEdges + parents.Stats.SelfLoops; n > 0 {
		logger.Warn("skipped edges",
			"dangling", parents.Stats.DanglingEdges,
			"self_loops", parents.Stats.SelfLoops)
	}

	// Stage 2: Layout
	layoutStart := time.Now()
	l, hit, err := r.layoutWithCache(ctx, g, tree, opts)
	if err != nil {
		return nil, err
	}
	res.Layout = l
	res.Stats.LayoutTime = time.Since(layoutStart)
	res.CacheInfo.LayoutHit = hit

	logger.Info("computed layout",
		"engine", opts.Engine,
		"cached", hit,
		"duration", res.Stats.LayoutTime)

	// Stage 3: Fit
	res.Viewport = viewport.Viewport{Size: opts.Size(), Transform: viewport.Identity}
	if t, ok := viewport.Fit(l.Box, opts.Size(), opts.Fill); ok {
		res.Viewport.Transform = t
		res.Fitted = true
	} else {
		logger.Debug("layout not fitted", "box", l.Box)
	}
	return res, nil
}

func (r *Runner) layoutWithCache(ctx context.Context, g graph.Graph, tree *hierarchy.Tree, opts Options) (*layout.Result, bool, error) {
	hooks := observability.Pipeline()
	cacheHooks := observability.Cache()

	graphData, err := graph.Marshal(g)
	if err != nil {
		return nil, false, err
	}
	key := r.Keyer.LayoutKey(cache.Hash(graphData), opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cached layout.Result
			if err := json.Unmarshal(data, &cached); err == nil {
				cacheHooks.OnCacheHit(ctx, keyTypeLayout)
				return &cached, true, nil
			}
			// Fall through and recompute on a corrupt entry.
		} else if err != nil {
			r.logger(opts).Warn("cache read failed", "error", err)
		}
		cacheHooks.OnCacheMiss(ctx, keyTypeLayout)
	}

	engine, err := layout.New(opts.Engine, opts.LayoutOptions())
	if err != nil {
		return nil, false, err
	}
	start := time.Now()
	hooks.OnLayoutStart(ctx, engine.Name(), tree.Len())
	l, err := engine.Layout(ctx, tree)
	hooks.OnLayoutComplete(ctx, engine.Name(), time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(l); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.DefaultTTL); err != nil {
			r.logger(opts).Warn("cache write failed", "error", err)
		} else {
			cacheHooks.OnCacheSet(ctx, keyTypeLayout, len(data))
		}
	}
	return l, false, nil
}

// =============================================================================
// Extract Pipeline
// =============================================================================

// cachedText is the cache representation of an extraction.
type cachedText struct {
	Pages []pdftext.Page `json:"pages"`
}

// Extract reads the text of a PDF document held in memory.
//
// Results are cached by the hash of the document bytes and the backend.
// Open and page failures are not cached.
func (r *Runner) Extract(ctx context.Context, data []byte, opts Options) (*TextResult, error) {
	if err := opts.ValidateForExtract(); err != nil {
		return nil, err
	}
	res := &TextResult{RunID: uuid.NewString(), Backend: opts.Backend}
	logger := r.logger(opts).With("run", res.RunID)
	cacheHooks := observability.Cache()

	key := r.Keyer.TextKey(cache.Hash(data), opts.TextKeyOpts())
	if !opts.Refresh {
		if raw, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cached cachedText
			if err := json.Unmarshal(raw, &cached); err == nil {
				cacheHooks.OnCacheHit(ctx, keyTypeText)
				res.Pages = cached.Pages
				res.Text = pdftext.Join(cached.Pages)
				res.Stats.PageCount = len(cached.Pages)
				res.CacheInfo.ExtractHit = true
				logger.Info("extracted text", "pages", len(cached.Pages), "cached", true)
				return res, nil
			}
		} else if err != nil {
			logger.Warn("cache read failed", "error", err)
		}
		cacheHooks.OnCacheMiss(ctx, keyTypeText)
	}

	newOpener := r.Opener
	if newOpener == nil {
		newOpener = pdftext.NewOpener
	}
	opener, err := newOpener(opts.Backend)
	if err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnExtractStart(ctx, opts.Backend, int64(len(data)))
	pages, err := pdftext.New(opener).ExtractPages(ctx, bytes.NewReader(data), int64(len(data)))
	res.Stats.ExtractTime = time.Since(start)
	hooks.OnExtractComplete(ctx, opts.Backend, len(pages), res.Stats.ExtractTime, err)
	if err != nil {
		return nil, err
	}

	res.Pages = pages
	res.Text = pdftext.Join(pages)
	res.Stats.PageCount = len(pages)
	logger.Info("extracted text",
		"pages", len(pages),
		"backend", opts.Backend,
		"duration", res.Stats.ExtractTime)

	if raw, err := json.Marshal(cachedText{Pages: pages}); err == nil {
		if err := r.Cache.Set(ctx, key, raw, cache.DefaultTTL); err != nil {
			logger.Warn("cache write failed", "error", err)
		} else {
			cacheHooks.OnCacheSet(ctx, keyTypeText, len(raw))
		}
	}
	return res, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// logger returns the options logger when set, else the runner's.
func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}
