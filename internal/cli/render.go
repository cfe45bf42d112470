package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tracewire/tracewire/pkg/diagram"
	twerrors "github.com/tracewire/tracewire/pkg/errors"
	"github.com/tracewire/tracewire/pkg/finding"
	"github.com/tracewire/tracewire/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string   // output base path (format extension is appended)
	formats   []string // output formats: svg, png, pdf, dot, report
	arrange   bool     // auto-arrange before rendering
	showPorts bool     // draw connection ports
	showGrid  bool     // draw the background grid
	scale     float64  // PNG raster scale
	noCache   bool     // bypass the artifact cache
	refresh   bool     // recompute and overwrite cached artifacts
}

// renderCommand creates the render command for exporting artifacts.
//
// Default settings:
//   - format: svg
//   - scale: 2.0 (PNG export)
//   - caching: on, keyed by the layout content hash
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{
		scale: pipeline.DefaultScale,
	}

	cmd := &cobra.Command{
		Use:   "render [layout file]",
		Short: "Render a layout to SVG, PNG, PDF, DOT, or a wiring report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			path := args[0]
			if err := twerrors.ValidatePath(path); err != nil {
				return err
			}

			layout, err := diagram.ReadLayoutFile(path)
			if err != nil {
				return fmt.Errorf("read layout: %w", err)
			}

			runner, err := c.newRunner(opts.noCache)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer runner.Close()

			spinner := newSpinnerWithContext(cmd.Context(), "Rendering "+filepath.Base(path))
			spinner.Start()
			result, err := runner.Execute(cmd.Context(), layout, pipeline.Options{
				Arrange:   opts.arrange,
				Formats:   opts.formats,
				ShowPorts: opts.showPorts,
				ShowGrid:  opts.showGrid,
				Scale:     opts.scale,
				Refresh:   opts.refresh,
				Logger:    loggerFromContext(cmd.Context()),
			})
			if err != nil {
				spinner.StopWithError("Render failed")
				return err
			}
			spinner.Stop()

			if result.Findings.HasErrors() {
				printWarning("Layout has %d errors; artifacts may be incomplete",
					result.Findings.Count(finding.SeverityError))
			}

			base := opts.output
			if base == "" {
				base = strings.TrimSuffix(path, filepath.Ext(path))
			}
			for _, format := range opts.formats {
				out := base + "." + extensionFor(format)
				if err := os.WriteFile(out, result.Artifacts[format], 0o644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				printFile(out)
			}

			printSuccess("Rendered %s", strings.Join(opts.formats, ", "))
			printStats(result.Stats.NodeCount, result.Stats.LinkCount, result.CacheInfo.RenderHit)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path (default: input path without extension)")
	cmd.Flags().StringVarP(&formatsStr, "formats", "f", "svg", "comma-separated formats: svg,png,pdf,dot,report")
	cmd.Flags().BoolVar(&opts.arrange, "arrange", false, "auto-arrange before rendering")
	cmd.Flags().BoolVar(&opts.showPorts, "ports", false, "draw connection ports")
	cmd.Flags().BoolVar(&opts.showGrid, "grid", false, "draw the background grid")
	cmd.Flags().Float64Var(&opts.scale, "scale", pipeline.DefaultScale, "PNG raster scale factor")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute cached artifacts")
	return cmd
}

// extensionFor maps a format to its file extension.
func extensionFor(format string) string {
	if format == pipeline.FormatReport {
		return "txt"
	}
	return format
}
