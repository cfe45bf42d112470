package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracewire/tracewire/pkg/diagram"
)

func sampleLayout(t *testing.T, label string) diagram.Layout {
	t.Helper()
	d := diagram.New()
	_, err := d.AddNode(diagram.Node{ID: "n1", Label: label})
	require.NoError(t, err)
	return d.ExportLayout()
}

// both backends satisfy the same contract; run the suite over each.
func backends(t *testing.T) map[string]interface {
	VersionStore
	TemplateStore
} {
	file, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return map[string]interface {
		VersionStore
		TemplateStore
	}{
		"memory": NewMemoryStore(),
		"file":   file,
	}
}

func TestSnapshotLifecycle(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			first, err := s.SaveSnapshot(ctx, sampleLayout(t, "v1"), "initial wiring")
			require.NoError(t, err)
			require.NotEmpty(t, first.ID)

			second, err := s.SaveSnapshot(ctx, sampleLayout(t, "v2"), "added drives")
			require.NoError(t, err)
			assert.NotEqual(t, first.ID, second.ID)

			got, err := s.GetSnapshot(ctx, first.ID)
			require.NoError(t, err)
			assert.Equal(t, "initial wiring", got.Note)
			require.Len(t, got.Layout.Nodes, 1)
			assert.Equal(t, "v1", got.Layout.Nodes[0].Label)

			_, err = s.GetSnapshot(ctx, "nope")
			assert.ErrorIs(t, err, ErrSnapshotNotFound)

			require.NoError(t, s.DeleteSnapshot(ctx, first.ID))
			assert.ErrorIs(t, s.DeleteSnapshot(ctx, first.ID), ErrSnapshotNotFound)
		})
	}
}

func TestListSnapshotsNewestFirst(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			// Stamp distinct creation times.
			base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
			tick := 0
			switch v := s.(type) {
			case *MemoryStore:
				v.now = func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Minute) }
			case *FileStore:
				v.now = func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Minute) }
			}

			var notes []string
			for _, note := range []string{"first", "second", "third"} {
				_, err := s.SaveSnapshot(ctx, sampleLayout(t, note), note)
				require.NoError(t, err)
				notes = append(notes, note)
			}

			list, err := s.ListSnapshots(ctx)
			require.NoError(t, err)
			require.Len(t, list, len(notes))
			assert.Equal(t, "third", list[0].Note)
			assert.Equal(t, "second", list[1].Note)
			assert.Equal(t, "first", list[2].Note)
		})
	}
}

func TestTemplateLifecycle(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.SaveTemplate(ctx, "", sampleLayout(t, "x"))
			assert.ErrorIs(t, err, ErrEmptyName)

			created, err := s.SaveTemplate(ctx, "plc-rack", sampleLayout(t, "v1"))
			require.NoError(t, err)

			// Overwrite keeps the original creation time.
			updated, err := s.SaveTemplate(ctx, "plc-rack", sampleLayout(t, "v2"))
			require.NoError(t, err)
			assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))

			got, err := s.GetTemplate(ctx, "plc-rack")
			require.NoError(t, err)
			require.Len(t, got.Layout.Nodes, 1)
			assert.Equal(t, "v2", got.Layout.Nodes[0].Label)

			_, err = s.SaveTemplate(ctx, "abb-cabinet", sampleLayout(t, "v1"))
			require.NoError(t, err)

			list, err := s.ListTemplates(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "abb-cabinet", list[0].Name)
			assert.Equal(t, "plc-rack", list[1].Name)

			require.NoError(t, s.DeleteTemplate(ctx, "plc-rack"))
			_, err = s.GetTemplate(ctx, "plc-rack")
			assert.ErrorIs(t, err, ErrTemplateNotFound)
		})
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s1, err := NewFileStore(dir)
	require.NoError(t, err)
	snap, err := s1.SaveSnapshot(ctx, sampleLayout(t, "persisted"), "before restart")
	require.NoError(t, err)
	_, err = s1.SaveTemplate(ctx, "rack", sampleLayout(t, "tpl"))
	require.NoError(t, err)

	s2, err := NewFileStore(dir)
	require.NoError(t, err)

	got, err := s2.GetSnapshot(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, "before restart", got.Note)

	tpl, err := s2.GetTemplate(ctx, "rack")
	require.NoError(t, err)
	assert.Equal(t, "tpl", tpl.Layout.Nodes[0].Label)
}

func TestAssetClient(t *testing.T) {
	catalog := []diagram.Asset{
		{ID: "a1", Name: "plc-thumb", URL: "https://assets.example/a1.png"},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/assets":
			json.NewEncoder(w).Encode(catalog)
		case r.Method == http.MethodGet && r.URL.Path == "/assets/a1":
			json.NewEncoder(w).Encode(catalog[0])
		case r.Method == http.MethodPost && r.URL.Path == "/assets":
			var in diagram.Asset
			json.NewDecoder(r.Body).Decode(&in)
			in.ID = "a2"
			json.NewEncoder(w).Encode(in)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewAssetClient(srv.URL, srv.Client())
	ctx := context.Background()

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "plc-thumb", list[0].Name)

	got, err := c.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "a1", got.ID)

	created, err := c.Register(ctx, diagram.Asset{Name: "hmi-thumb", URL: "https://assets.example/a2.png"})
	require.NoError(t, err)
	assert.Equal(t, "a2", created.ID)

	_, err = c.Get(ctx, "ghost")
	require.Error(t, err)
}
