// Package cli implements the tracewire command-line interface.
//
// This package provides commands for seeding diagrams from equipment lists,
// arranging and checking layouts, rendering export artifacts, and managing
// templates, version snapshots, and the artifact cache. The CLI is built
// using cobra and supports verbose logging via the charmbracelet/log
// library.
//
// # Commands
//
// The main commands are:
//   - seed: Build a layout from an equipment list (CSV or JSON)
//   - arrange: Auto-arrange a layout file
//   - validate / simulate: Run the consistency engines over a layout
//   - render: Generate SVG, PNG, PDF, DOT, or report artifacts
//   - template / version: Manage the template catalog and snapshot history
//   - serve: Run the HTTP API
//   - cache: Manage the artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/tracewire/tracewire/internal/config"
	"github.com/tracewire/tracewire/pkg/buildinfo"
	"github.com/tracewire/tracewire/pkg/cache"
	"github.com/tracewire/tracewire/pkg/pipeline"
	"github.com/tracewire/tracewire/pkg/store"
)

// appName is the application name used for directories and display.
const appName = "tracewire"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger     *log.Logger
	ConfigPath string // --config override; empty means the default path
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          appName,
		Short:        "Tracewire edits and checks system wiring diagrams",
		Long:         `Tracewire is a CLI and server for interactive system-architecture diagrams: equipment nodes, signal links, layered arrangement, consistency checks, and export to SVG, PNG, PDF, DOT, or a wiring report.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				c.SetLogLevel(log.DebugLevel)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default ~/.config/tracewire/config.toml)")

	root.AddCommand(c.seedCommand())
	root.AddCommand(c.arrangeCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.simulateCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.templateCommand())
	root.AddCommand(c.moduleCommand())
	root.AddCommand(c.assetsCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file, honoring the --config override.
func (c *CLI) loadConfig() (config.Config, error) {
	if c.ConfigPath != "" {
		return config.Load(c.ConfigPath)
	}
	return config.LoadDefault()
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	artifactCache, err := c.newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(artifactCache, c.Logger), nil
}

func (c *CLI) newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := c.cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// newFileStore opens the local snapshot and template store, honoring the
// configured directory.
func (c *CLI) newFileStore() (*store.FileStore, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return store.NewFileStore(cfg.Store.Dir)
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}
