package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tracewire/tracewire/pkg/diagram"
	twerrors "github.com/tracewire/tracewire/pkg/errors"
	"github.com/tracewire/tracewire/pkg/library"
)

// moduleCommand creates the reusable-module library command.
func (c *CLI) moduleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "module",
		Short: "Capture and reuse named sub-diagrams",
	}

	cmd.AddCommand(c.moduleCaptureCommand())
	cmd.AddCommand(c.moduleListCommand())
	cmd.AddCommand(c.moduleInsertCommand())
	cmd.AddCommand(c.moduleDeleteCommand())

	return cmd
}

func (c *CLI) moduleCaptureCommand() *cobra.Command {
	var nodesStr string

	cmd := &cobra.Command{
		Use:   "capture [layout file] [name]",
		Short: "Capture devices from a layout as a reusable module",
		Long: `Capture copies the named devices (and the connections between them) out of
a layout into the module library. Without --nodes the whole layout is
captured.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, name := args[0], args[1]
			layout, err := diagram.ReadLayoutFile(path)
			if err != nil {
				return fmt.Errorf("read layout: %w", err)
			}
			d, _ := diagram.ImportLayout(layout)

			selected := splitIDs(nodesStr)
			if len(selected) == 0 {
				for _, n := range d.Nodes() {
					selected = append(selected, n.ID)
				}
			}
			snapshot := library.CaptureSelection(d, selected)
			if snapshot == nil {
				return twerrors.New(twerrors.ErrCodeInvalidInput,
					"no devices matched the selection")
			}

			lib, libPath, err := c.openLibrary()
			if err != nil {
				return err
			}
			m, err := lib.Save(name, snapshot)
			if err != nil {
				return fmt.Errorf("save module: %w", err)
			}
			if err := lib.SaveFile(libPath); err != nil {
				return err
			}

			printSuccess("Captured module %q (%d devices, %d connections)",
				m.Name, len(m.Snapshot.Nodes), len(m.Snapshot.Connections))
			printNextStep("Stamp it into a layout", appName+" module insert <layout> "+name)
			return nil
		},
	}

	cmd.Flags().StringVar(&nodesStr, "nodes", "", "comma-separated node ids (default: all)")
	return cmd
}

func (c *CLI) moduleListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List captured modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, _, err := c.openLibrary()
			if err != nil {
				return err
			}
			modules := lib.List()
			if len(modules) == 0 {
				printInfo("No modules captured")
				return nil
			}
			for _, m := range modules {
				printDetail("%s · %d devices · updated %s",
					m.Name, len(m.Snapshot.Nodes), m.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func (c *CLI) moduleInsertCommand() *cobra.Command {
	var (
		output string
		atStr  string
	)

	cmd := &cobra.Command{
		Use:   "insert [layout file] [name]",
		Short: "Stamp a module into a layout with fresh device ids",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, name := args[0], args[1]
			layout, err := diagram.ReadLayoutFile(path)
			if err != nil {
				return fmt.Errorf("read layout: %w", err)
			}

			lib, _, err := c.openLibrary()
			if err != nil {
				return err
			}
			m, err := lib.Get(name)
			if err != nil {
				return err
			}

			drop, err := parseDropPoint(atStr)
			if err != nil {
				return err
			}

			d, _ := diagram.ImportLayout(layout)
			ids, err := library.InsertModule(d, m, drop)
			if err != nil {
				return fmt.Errorf("insert module: %w", err)
			}

			if output == "" {
				output = path
			}
			if err := diagram.WriteLayoutFile(d.ExportLayout(), output); err != nil {
				return fmt.Errorf("write layout: %w", err)
			}
			printSuccess("Inserted %q as %d new devices", name, len(ids))
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output layout file (default: rewrite input)")
	cmd.Flags().StringVar(&atStr, "at", "40,40", "drop point as x,y canvas coordinates")
	return cmd
}

func (c *CLI) moduleDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a captured module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, libPath, err := c.openLibrary()
			if err != nil {
				return err
			}
			if err := lib.Delete(args[0]); err != nil {
				return err
			}
			if err := lib.SaveFile(libPath); err != nil {
				return err
			}
			printSuccess("Deleted module %q", args[0])
			return nil
		},
	}
}

// openLibrary loads the module library file, starting empty when it does
// not exist yet, and returns the path writes should go back to.
func (c *CLI) openLibrary() (*library.Library, string, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, "", err
	}
	dir, err := cfg.Store.Resolve()
	if err != nil {
		return nil, "", err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, "", fmt.Errorf("create store dir: %w", err)
	}
	path := filepath.Join(dir, "modules.json")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return library.NewLibrary(), path, nil
	}
	lib, err := library.LoadFile(path)
	if err != nil {
		return nil, "", err
	}
	return lib, path, nil
}

// splitIDs parses a comma-separated id list, dropping empty entries.
func splitIDs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseDropPoint parses "x,y" into a canvas point.
func parseDropPoint(s string) (diagram.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return diagram.Point{}, twerrors.New(twerrors.ErrCodeInvalidInput,
			"drop point must be x,y: %q", s)
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errX != nil || errY != nil {
		return diagram.Point{}, twerrors.New(twerrors.ErrCodeInvalidInput,
			"drop point must be numeric x,y: %q", s)
	}
	return diagram.Point{X: x, Y: y}, nil
}
