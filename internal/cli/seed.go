package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tracewire/tracewire/pkg/diagram"
	"github.com/tracewire/tracewire/pkg/equipment"
	twerrors "github.com/tracewire/tracewire/pkg/errors"
)

// seedCommand creates the seed command for building a layout from an
// equipment list.
func (c *CLI) seedCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "seed [equipment file]",
		Short: "Build a layout from an equipment list (CSV or JSON)",
		Long: `Seed reads an equipment list and places one node per device on a fresh
layout, expanding quantities into numbered devices. CSV files need a header
row with at least a "model" column; JSON files hold an array of rows.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			path := args[0]
			if err := twerrors.ValidatePath(path); err != nil {
				return err
			}

			rows, err := readEquipment(path)
			if err != nil {
				return fmt.Errorf("read equipment list: %w", err)
			}

			prog := newProgress(logger)
			d := diagram.New()
			ids, err := equipment.Seed(d, rows)
			if err != nil {
				return fmt.Errorf("seed layout: %w", err)
			}
			prog.done(fmt.Sprintf("Placed %d devices", len(ids)))

			if output == "" {
				output = strings.TrimSuffix(path, filepath.Ext(path)) + ".layout.json"
			}
			if err := diagram.WriteLayoutFile(d.ExportLayout(), output); err != nil {
				return fmt.Errorf("write layout: %w", err)
			}

			printSuccess("Seeded %d devices from %s", len(ids), filepath.Base(path))
			printFile(output)
			printNextStep("Arrange it", appName+" arrange "+output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output layout file (default: <input>.layout.json)")
	return cmd
}

// readEquipment parses the equipment list by file extension.
func readEquipment(path string) ([]equipment.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return equipment.ParseJSON(f)
	case ".csv":
		return equipment.ParseCSV(f)
	default:
		return nil, fmt.Errorf("unsupported equipment format %q (want .csv or .json)", filepath.Ext(path))
	}
}
