// Package pipeline provides the export pipeline for Tracewire diagrams.
//
// This package implements the complete arrange → check → render pipeline
// that can be used by CLI and API components. By centralizing this logic,
// we ensure consistent behavior across all entry points and avoid code
// duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Arrange: Optionally recompute node positions and link routing
//  2. Check: Run validation and signal-flow simulation over the layout
//  3. Render: Generate output in various formats (SVG, PNG, PDF, DOT, report)
//
// Each stage can be run independently or as part of the complete pipeline.
// Check results and rendered artifacts are cached by the content hash of
// the layout, so repeated exports of an unchanged diagram are free.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, logger)
//	opts := pipeline.Options{
//	    Arrange: true,
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, layout, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tracewire/tracewire/pkg/diagram"
	twerrors "github.com/tracewire/tracewire/pkg/errors"
	"github.com/tracewire/tracewire/pkg/finding"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultPadding is the whitespace in pixels kept around the drawing.
	DefaultPadding = 40.0

	// DefaultScale is the default raster scale factor for PNG export.
	DefaultScale = 2.0
)

// Format constants for output formats.
const (
	FormatSVG    = "svg"
	FormatPNG    = "png"
	FormatPDF    = "pdf"
	FormatDOT    = "dot"
	FormatReport = "report"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the export pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Arrange options
	Arrange bool `json:"arrange,omitempty"` // Recompute node positions before export
	Route   bool `json:"route,omitempty"`   // Recompute link routing before export

	// Render options
	Formats   []string `json:"formats,omitempty"`
	ShowPorts bool     `json:"show_ports,omitempty"`
	ShowGrid  bool     `json:"show_grid,omitempty"`
	Padding   float64  `json:"padding,omitempty"`
	Scale     float64  `json:"scale,omitempty"` // PNG raster scale
	Refresh   bool     `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Layout is the layout after any arrange stage, as rendered.
	Layout diagram.Layout

	// LayoutHash is the content hash of the rendered layout.
	LayoutHash string

	// Findings contains validation and simulation results.
	Findings finding.List

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount   int
	LinkCount   int
	ArrangeTime time.Duration
	CheckTime   time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	CheckHit  bool // Whether check results came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := twerrors.ValidateExportFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks fields and applies defaults for the full
// pipeline. This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Padding == 0 {
		o.Padding = DefaultPadding
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}
