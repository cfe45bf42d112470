package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tracewire/tracewire/pkg/diagram"
	twerrors "github.com/tracewire/tracewire/pkg/errors"
	"github.com/tracewire/tracewire/pkg/finding"
	"github.com/tracewire/tracewire/pkg/simulate"
	"github.com/tracewire/tracewire/pkg/validate"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	return c.checkCommand(
		"validate",
		"Check a layout for structural and signal problems",
		"Validation",
		validate.Run,
	)
}

// simulateCommand creates the simulate command.
func (c *CLI) simulateCommand() *cobra.Command {
	return c.checkCommand(
		"simulate",
		"Trace signal flow from the source devices",
		"Simulation",
		simulate.Run,
	)
}

// checkCommand builds a command around one check engine. Both engines share
// the layout loading, output, and exit-code behavior.
func (c *CLI) checkCommand(use, short, title string, run func(diagram.Layout) finding.List) *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   use + " [layout file]",
		Short: short,
		Args:  cobra.ExactArgs(1),
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
			findings := run(layout)
			prog.done(fmt.Sprintf("Checked %d devices", len(layout.Nodes)))

			if interactive {
				return browseFindings(title+": "+path, findings)
			}

			printFindings(findings)
			if findings.HasErrors() {
				return fmt.Errorf("%s found %d errors", use, findings.Count(finding.SeverityError))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse findings interactively")
	return cmd
}
