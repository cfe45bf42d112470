package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tracewire/tracewire/pkg/diagram"
	twerrors "github.com/tracewire/tracewire/pkg/errors"
)

// versionCommand creates the snapshot version management command.
func (c *CLI) versionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Manage saved diagram versions",
	}

	cmd.AddCommand(c.versionSaveCommand())
	cmd.AddCommand(c.versionListCommand())
	cmd.AddCommand(c.versionLoadCommand())
	cmd.AddCommand(c.versionDeleteCommand())

	return cmd
}

func (c *CLI) versionSaveCommand() *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "save [layout file]",
		Short: "Save a layout file as a versioned snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := diagram.ReadLayoutFile(args[0])
			if err != nil {
				return fmt.Errorf("read layout: %w", err)
			}

			st, err := c.newFileStore()
			if err != nil {
				return err
			}
			snap, err := st.SaveSnapshot(cmd.Context(), layout, note)
			if err != nil {
				return fmt.Errorf("save snapshot: %w", err)
			}

			printSuccess("Saved version %s", snap.ID)
			if note != "" {
				printDetail("note: %s", note)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&note, "note", "n", "", "describe what changed in this version")
	return cmd
}

func (c *CLI) versionListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved versions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.newFileStore()
			if err != nil {
				return err
			}
			snaps, err := st.ListSnapshots(cmd.Context())
			if err != nil {
				return fmt.Errorf("list snapshots: %w", err)
			}

			if len(snaps) == 0 {
				printInfo("No versions saved")
				return nil
			}
			for _, snap := range snaps {
				line := fmt.Sprintf("%s · %s · %d devices",
					snap.ID, snap.CreatedAt.Format("2006-01-02 15:04"), len(snap.Layout.Nodes))
				if snap.Note != "" {
					line += " · " + snap.Note
				}
				printDetail("%s", line)
			}
			return nil
		},
	}
}

func (c *CLI) versionLoadCommand() *cobra.Command {
	var (
		output  string
		confirm bool
	)

	cmd := &cobra.Command{
		Use:   "load [version id] [layout file]",
		Short: "Restore a saved version over a layout file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, path := args[0], args[1]
			if !confirm {
				return twerrors.New(twerrors.ErrCodeConfirmationNeeded,
					"loading a version overwrites %s; pass --yes to confirm", path)
			}

			st, err := c.newFileStore()
			if err != nil {
				return err
			}
			snap, err := st.GetSnapshot(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("get snapshot: %w", err)
			}

			target := path
			if output != "" {
				target = output
			}
			if err := diagram.WriteLayoutFile(snap.Layout, target); err != nil {
				return fmt.Errorf("write layout: %w", err)
			}
			printSuccess("Restored version %s", snap.ID)
			printFile(target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the restored layout elsewhere instead of overwriting")
	cmd.Flags().BoolVar(&confirm, "yes", false, "confirm overwriting the target layout file")
	return cmd
}

func (c *CLI) versionDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [version id]",
		Short: "Delete a saved version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.newFileStore()
			if err != nil {
				return err
			}
			if err := st.DeleteSnapshot(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("delete snapshot: %w", err)
			}
			printSuccess("Deleted version %s", args[0])
			return nil
		},
	}
}
