package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracewire/tracewire/pkg/diagram"
)

func newAssetServer(t *testing.T) (*httptest.Server, *AssetClient) {
	t.Helper()
	catalog := []diagram.Asset{
		{ID: "a1", Name: "plc", URL: "https://assets.example.com/plc.png", Tags: []string{"controller"}},
		{ID: "a2", Name: "hmi", URL: "https://assets.example.com/hmi.png"},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /assets", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(catalog)
	})
	mux.HandleFunc("GET /assets/a1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(catalog[0])
	})
	mux.HandleFunc("POST /assets", func(w http.ResponseWriter, r *http.Request) {
		var in diagram.Asset
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		in.ID = "a3"
		json.NewEncoder(w).Encode(in)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, NewAssetClient(srv.URL, srv.Client())
}

func TestAssetClientList(t *testing.T) {
	_, client := newAssetServer(t)

	assets, err := client.List(context.Background())
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "plc", assets[0].Name)
}

func TestAssetClientGet(t *testing.T) {
	_, client := newAssetServer(t)

	asset, err := client.Get(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, []string{"controller"}, asset.Tags)
}

func TestAssetClientRegister(t *testing.T) {
	_, client := newAssetServer(t)

	out, err := client.Register(context.Background(), diagram.Asset{
		Name: "drive",
		URL:  "https://assets.example.com/drive.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "a3", out.ID)
	assert.Equal(t, "drive", out.Name)
}

func TestAssetClientGetMissing(t *testing.T) {
	_, client := newAssetServer(t)

	_, err := client.Get(context.Background(), "nope")
	require.Error(t, err)
}
