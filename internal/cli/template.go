package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tracewire/tracewire/pkg/diagram"
	twerrors "github.com/tracewire/tracewire/pkg/errors"
)

// templateCommand creates the template management command.
func (c *CLI) templateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage the named template catalog",
	}

	cmd.AddCommand(c.templateSaveCommand())
	cmd.AddCommand(c.templateListCommand())
	cmd.AddCommand(c.templateExportCommand())
	cmd.AddCommand(c.templateDeleteCommand())

	return cmd
}

func (c *CLI) templateSaveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "save [name] [layout file]",
		Short: "Save a layout file as a named template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, path := args[0], args[1]
			if err := twerrors.ValidateTemplateName(name); err != nil {
				return err
			}
			layout, err := diagram.ReadLayoutFile(path)
			if err != nil {
				return fmt.Errorf("read layout: %w", err)
			}

			st, err := c.newFileStore()
			if err != nil {
				return err
			}
			if _, err := st.SaveTemplate(cmd.Context(), name, layout); err != nil {
				return fmt.Errorf("save template: %w", err)
			}

			printSuccess("Saved template %q (%d devices)", name, len(layout.Nodes))
			return nil
		},
	}
}

func (c *CLI) templateListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.newFileStore()
			if err != nil {
				return err
			}
			templates, err := st.ListTemplates(cmd.Context())
			if err != nil {
				return fmt.Errorf("list templates: %w", err)
			}

			if len(templates) == 0 {
				printInfo("No templates saved")
				return nil
			}
			for _, tpl := range templates {
				printDetail("%s · %d devices · updated %s",
					tpl.Name, len(tpl.Layout.Nodes), tpl.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func (c *CLI) templateExportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export [name]",
		Short: "Write a template back out as a layout file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			st, err := c.newFileStore()
			if err != nil {
				return err
			}
			tpl, err := st.GetTemplate(cmd.Context(), name)
			if err != nil {
				return fmt.Errorf("get template: %w", err)
			}

			if output == "" {
				output = name + ".layout.json"
			}
			if err := diagram.WriteLayoutFile(tpl.Layout, output); err != nil {
				return fmt.Errorf("write layout: %w", err)
			}
			printSuccess("Exported template %q", name)
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output layout file (default: <name>.layout.json)")
	return cmd
}

func (c *CLI) templateDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a saved template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.newFileStore()
			if err != nil {
				return err
			}
			if err := st.DeleteTemplate(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("delete template: %w", err)
			}
			printSuccess("Deleted template %q", args[0])
			return nil
		},
	}
}
