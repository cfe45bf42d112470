package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tracewire/tracewire/pkg/arrange"
	"github.com/tracewire/tracewire/pkg/cache"
	"github.com/tracewire/tracewire/pkg/diagram"
	"github.com/tracewire/tracewire/pkg/finding"
	"github.com/tracewire/tracewire/pkg/observability"
	"github.com/tracewire/tracewire/pkg/simulate"
	"github.com/tracewire/tracewire/pkg/validate"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache.
// If c is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Logger: logger,
	}
}

// Execute runs the complete arrange → check → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, layout diagram.Layout, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Arrange (optional)
	arrangeStart := time.Now()
	layout = r.Arrange(ctx, layout, opts)
	result.Layout = layout
	result.Stats.ArrangeTime = time.Since(arrangeStart)
	result.Stats.NodeCount = len(layout.Nodes)
	result.Stats.LinkCount = len(layout.Connections)

	// Compute layout hash for cache keys and API responses
	if layoutData, err := diagram.MarshalLayout(layout); err == nil {
		result.LayoutHash = cache.Hash(layoutData)
	}

	r.Logger.Info("prepared layout",
		"nodes", result.Stats.NodeCount,
		"links", result.Stats.LinkCount,
		"duration", result.Stats.ArrangeTime)

	// Stage 2: Check
	checkStart := time.Now()
	findings, checkHit, err := r.CheckWithCacheInfo(ctx, layout, result.LayoutHash, opts)
	if err != nil {
		return nil, fmt.Errorf("check: %w", err)
	}
	result.Findings = findings
	result.Stats.CheckTime = time.Since(checkStart)
	result.CacheInfo.CheckHit = checkHit

	r.Logger.Info("checked layout",
		"findings", len(findings),
		"errors", findings.Count(finding.SeverityError),
		"duration", result.Stats.CheckTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, layout, result.LayoutHash, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Arrange recomputes positions and routing when the options ask for it.
// It returns the layout unchanged otherwise.
func (r *Runner) Arrange(ctx context.Context, layout diagram.Layout, opts Options) diagram.Layout {
	if !opts.Arrange && !opts.Route {
		return layout
	}

	start := time.Now()
	d, _ := diagram.ImportLayout(layout)
	if opts.Arrange {
		arrange.AutoArrange(d)
	}
	if opts.Route {
		arrange.AutoRoute(d)
	}
	out := d.ExportLayout()

	observability.Pipeline().OnArrangeComplete(ctx, len(out.Nodes), time.Since(start))
	r.Logger.Debug("arranged layout", "nodes", len(out.Nodes))
	return out
}

// CheckWithCacheInfo runs validation and simulation with caching and
// returns cache hit info.
func (r *Runner) CheckWithCacheInfo(ctx context.Context, layout diagram.Layout, layoutHash string, opts Options) (finding.List, bool, error) {
	r.applyLogger(&opts)

	cacheKey := cache.CheckKey(layoutHash)

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached finding.List
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "check")
				return cached, true, nil // Cache hit
			}
		}
	}
	observability.Cache().OnCacheMiss(ctx, "check")

	// Run checks
	findings := validate.Run(layout)
	findings = append(findings, simulate.Run(layout)...)

	// Cache the result
	if data, err := json.Marshal(findings); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLCheck)
		observability.Cache().OnCacheSet(ctx, "check", len(data))
	}

	return findings, false, nil // Cache miss
}

// Check is a convenience wrapper that calls CheckWithCacheInfo and discards
// the cache hit info.
func (r *Runner) Check(ctx context.Context, layout diagram.Layout, opts Options) (finding.List, error) {
	layoutData, err := diagram.MarshalLayout(layout)
	if err != nil {
		return nil, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	findings, _, err := r.CheckWithCacheInfo(ctx, layout, cache.Hash(layoutData), opts)
	return findings, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache
// hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, layout diagram.Layout, layoutHash string, opts Options) (map[string][]byte, bool, error) {
	opts.SetRenderDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	// Try to get all formats from cache
	allCached := true
	artifacts := make(map[string][]byte)

	if !opts.Refresh {
		for _, format := range opts.Formats {
			cacheKey := cache.ArtifactKey(layoutHash, opts.artifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, "artifact")
				artifacts[format] = data
			} else {
				observability.Cache().OnCacheMiss(ctx, "artifact")
				allCached = false
				break
			}
		}
		if allCached && len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil // All artifacts from cache
		}
	}

	// Render all formats
	rendered, err := RenderFromLayout(ctx, layout, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := cache.ArtifactKey(layoutHash, opts.artifactKeyOpts(format))
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact)
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	return rendered, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Render(ctx context.Context, layout diagram.Layout, opts Options) (map[string][]byte, error) {
	layoutData, err := diagram.MarshalLayout(layout)
	if err != nil {
		return nil, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	artifacts, _, err := r.RenderWithCacheInfo(ctx, layout, cache.Hash(layoutData), opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// artifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) artifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:    format,
		ShowPorts: o.ShowPorts,
		ShowGrid:  o.ShowGrid,
		Padding:   o.Padding,
		Scale:     o.Scale,
	}
}
