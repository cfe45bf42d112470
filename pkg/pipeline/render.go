package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/tracewire/tracewire/pkg/diagram"
	"github.com/tracewire/tracewire/pkg/observability"
	"github.com/tracewire/tracewire/pkg/render"
)

// RenderFromLayout renders all requested formats from a layout.
// The SVG is rendered once and reused for raster and PDF conversion.
func RenderFromLayout(ctx context.Context, layout diagram.Layout, opts Options) (map[string][]byte, error) {
	opts.SetRenderDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, err
	}

	d, _ := diagram.ImportLayout(layout)
	artifacts := make(map[string][]byte, len(opts.Formats))

	var svg []byte
	renderSVG := func() []byte {
		if svg == nil {
			svg = render.SVG(d, svgOptions(opts)...)
		}
		return svg
	}

	for _, format := range opts.Formats {
		start := time.Now()
		observability.Pipeline().OnRenderStart(ctx, format)

		data, err := renderFormat(ctx, d, format, opts, renderSVG)
		observability.Pipeline().OnRenderComplete(ctx, format, len(data), time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

func renderFormat(ctx context.Context, d *diagram.Diagram, format string, opts Options, renderSVG func() []byte) ([]byte, error) {
	switch format {
	case FormatSVG:
		return renderSVG(), nil
	case FormatPNG:
		return render.ToPNG(renderSVG(), opts.Scale)
	case FormatPDF:
		return render.ToPDF(renderSVG())
	case FormatDOT:
		return []byte(render.ToDOT(d)), nil
	case FormatReport:
		return render.SignalReport(d), nil
	default:
		return nil, fmt.Errorf("unsupported format: %q", format)
	}
}

func svgOptions(opts Options) []render.SVGOption {
	svgOpts := []render.SVGOption{render.WithPadding(opts.Padding)}
	if opts.ShowPorts {
		svgOpts = append(svgOpts, render.WithPorts())
	}
	if opts.ShowGrid {
		svgOpts = append(svgOpts, render.WithGrid())
	}
	return svgOpts
}
