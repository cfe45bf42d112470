package store

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tracewire/tracewire/pkg/diagram"
	"github.com/tracewire/tracewire/pkg/httputil"
)

// AssetClient talks to the asset library service that hosts device
// thumbnails. Network failures surface as errors to the caller and never
// touch diagram state; transient ones are retried by the transport layer.
type AssetClient struct {
	baseURL string
	http    *http.Client
}

// NewAssetClient returns a client for the service at baseURL.
func NewAssetClient(baseURL string, client *http.Client) *AssetClient {
	return &AssetClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    client,
	}
}

// List fetches the full asset catalog.
func (c *AssetClient) List(ctx context.Context) ([]diagram.Asset, error) {
	var out []diagram.Asset
	err := httputil.DoJSON(ctx, c.http, http.MethodGet, c.baseURL+"/assets", nil, &out)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	return out, nil
}

// Get fetches one asset by id.
func (c *AssetClient) Get(ctx context.Context, id string) (*diagram.Asset, error) {
	var out diagram.Asset
	err := httputil.DoJSON(ctx, c.http, http.MethodGet, c.baseURL+"/assets/"+id, nil, &out)
	if err != nil {
		return nil, fmt.Errorf("get asset %s: %w", id, err)
	}
	return &out, nil
}

// Register announces a new thumbnail to the service and returns the stored
// record with its assigned id.
func (c *AssetClient) Register(ctx context.Context, a diagram.Asset) (*diagram.Asset, error) {
	var out diagram.Asset
	err := httputil.DoJSON(ctx, c.http, http.MethodPost, c.baseURL+"/assets", a, &out)
	if err != nil {
		return nil, fmt.Errorf("register asset: %w", err)
	}
	return &out, nil
}
