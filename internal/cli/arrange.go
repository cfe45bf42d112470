package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tracewire/tracewire/pkg/arrange"
	"github.com/tracewire/tracewire/pkg/diagram"
	twerrors "github.com/tracewire/tracewire/pkg/errors"
)

// arrangeCommand creates the arrange command for recomputing layout geometry.
func (c *CLI) arrangeCommand() *cobra.Command {
	var (
		output  string
		noRoute bool
	)

	cmd := &cobra.Command{
		Use:   "arrange [layout file]",
		Short: "Auto-arrange a layout into signal-flow layers",
		Long: `Arrange assigns every device to a flow layer (sources at the top, sinks at
the bottom) and recomputes positions and link routing. The input file is
rewritten in place unless --output names a different file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			path := args[0]
			if err := twerrors.ValidatePath(path); err != nil {
				return err
			}

			layout, err := diagram.ReadLayoutFile(path)
			if err != nil {
				return fmt.Errorf("read layout: %w", err)
			}

			prog := newProgress(logger)
			d, stats := diagram.ImportLayout(layout)
			if stats.DroppedConnections > 0 {
				printWarning("Dropped %d connections with missing endpoints", stats.DroppedConnections)
			}
			layers := arrange.AutoArrange(d)
			if !noRoute {
				arrange.AutoRoute(d)
			}
			prog.done(fmt.Sprintf("Arranged %d devices", len(layers)))

			if output == "" {
				output = path
			}
			if err := diagram.WriteLayoutFile(d.ExportLayout(), output); err != nil {
				return fmt.Errorf("write layout: %w", err)
			}

			printSuccess("Arranged %d devices", len(layers))
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output layout file (default: rewrite input)")
	cmd.Flags().BoolVar(&noRoute, "no-route", false, "keep existing link routing")
	return cmd
}
