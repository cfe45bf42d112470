package cli

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tracewire/tracewire/pkg/diagram"
	twerrors "github.com/tracewire/tracewire/pkg/errors"
	"github.com/tracewire/tracewire/pkg/store"
)

// assetsCommand creates the remote asset catalog command.
func (c *CLI) assetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Browse and sync the remote device thumbnail catalog",
	}

	cmd.AddCommand(c.assetsListCommand())
	cmd.AddCommand(c.assetsSyncCommand())

	return cmd
}

func (c *CLI) assetsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the catalog entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.newAssetClient()
			if err != nil {
				return err
			}
			assets, err := client.List(cmd.Context())
			if err != nil {
				return err
			}

			if len(assets) == 0 {
				printInfo("Catalog is empty")
				return nil
			}
			for _, a := range assets {
				line := a.ID
				if a.Name != "" {
					line += " · " + a.Name
				}
				if len(a.Tags) > 0 {
					line += " · " + strings.Join(a.Tags, ", ")
				}
				printDetail("%s", line)
			}
			return nil
		},
	}
}

func (c *CLI) assetsSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync [layout file]",
		Short: "Merge the remote catalog into a layout's asset library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			layout, err := diagram.ReadLayoutFile(path)
			if err != nil {
				return fmt.Errorf("read layout: %w", err)
			}

			client, err := c.newAssetClient()
			if err != nil {
				return err
			}
			assets, err := client.List(cmd.Context())
			if err != nil {
				return err
			}

			added := mergeAssets(&layout, assets)
			if added == 0 {
				printInfo("Asset library already up to date")
				return nil
			}
			if err := diagram.WriteLayoutFile(layout, path); err != nil {
				return fmt.Errorf("write layout: %w", err)
			}
			printSuccess("Added %d assets", added)
			printFile(path)
			return nil
		},
	}
}

// mergeAssets appends catalog entries the layout does not already carry.
func mergeAssets(layout *diagram.Layout, assets []diagram.Asset) int {
	known := make(map[string]bool, len(layout.AssetLibrary))
	for _, a := range layout.AssetLibrary {
		known[a.ID] = true
	}
	added := 0
	for _, a := range assets {
		if known[a.ID] {
			continue
		}
		layout.AssetLibrary = append(layout.AssetLibrary, a)
		added++
	}
	return added
}

func (c *CLI) newAssetClient() (*store.AssetClient, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Assets.URL == "" {
		return nil, twerrors.New(twerrors.ErrCodeInvalidInput,
			"no asset catalog configured; set assets.url in the config file")
	}
	if err := twerrors.ValidateURL(cfg.Assets.URL); err != nil {
		return nil, err
	}
	return store.NewAssetClient(cfg.Assets.URL, &http.Client{Timeout: 30 * time.Second}), nil
}
