package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracewire/tracewire/internal/config"
	"github.com/tracewire/tracewire/pkg/diagram"
	"github.com/tracewire/tracewire/pkg/finding"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(Options{
		Config: config.ServerConfig{MaxSessions: 4},
		Logger: log.New(io.Discard),
	})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Close()
	})
	return srv, ts
}

func sampleLayout(t *testing.T) diagram.Layout {
	t.Helper()
	d := diagram.New()
	plc, err := d.AddNode(diagram.Node{ID: "plc", Label: "PLC-01", Position: diagram.Point{X: 40, Y: 40}})
	require.NoError(t, err)
	hmi, err := d.AddNode(diagram.Node{ID: "hmi", Label: "HMI-01", Position: diagram.Point{X: 300, Y: 40}})
	require.NoError(t, err)
	_, err = d.AddLink(diagram.Link{
		ID:   "l1",
		From: diagram.Endpoint{NodeID: plc.ID},
		To:   diagram.Endpoint{NodeID: hmi.ID},
		Type: diagram.SignalNetwork,
	})
	require.NoError(t, err)
	return d.ExportLayout()
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func createSession(t *testing.T, ts *httptest.Server, layout diagram.Layout) string {
	t.Helper()
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/sessions",
		createSessionRequest{Layout: &layout})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[map[string]string](t, resp)["id"]
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)
	resp := doJSON(t, http.MethodGet, ts.URL+"/api/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSessionLifecycle(t *testing.T) {
	_, ts := newTestServer(t)
	id := createSession(t, ts, sampleLayout(t))

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	info := decodeBody[sessionInfo](t, resp)
	assert.Equal(t, id, info.ID)
	assert.Equal(t, "select", string(info.Tool))
	assert.Zero(t, info.UndoDepth)

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessionInvalidID(t *testing.T) {
	_, ts := newTestServer(t)
	resp := doJSON(t, http.MethodGet, ts.URL+"/api/sessions/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody[errorBody](t, resp)
	assert.Equal(t, "INVALID_INPUT", body.Error.Code)
}

func TestSessionLimit(t *testing.T) {
	srv := New(Options{
		Config: config.ServerConfig{MaxSessions: 1},
		Logger: log.New(io.Discard),
	})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	defer srv.Close()

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/sessions", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/sessions", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLayoutRoundTrip(t *testing.T) {
	_, ts := newTestServer(t)
	layout := sampleLayout(t)
	id := createSession(t, ts, layout)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/sessions/"+id+"/layout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[diagram.Layout](t, resp)
	assert.Len(t, got.Nodes, 2)
	assert.Len(t, got.Connections, 1)

	// Replace with a different layout
	d := diagram.New()
	_, err := d.AddNode(diagram.Node{ID: "drv", Label: "VFD-01"})
	require.NoError(t, err)
	resp = doJSON(t, http.MethodPut, ts.URL+"/api/sessions/"+id+"/layout", d.ExportLayout())
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/sessions/"+id+"/layout", nil)
	got = decodeBody[diagram.Layout](t, resp)
	assert.Len(t, got.Nodes, 1)
}

func TestCheckEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	id := createSession(t, ts, sampleLayout(t))

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/sessions/"+id+"/check", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	findings := decodeBody[finding.List](t, resp)
	assert.NotEmpty(t, findings)
}

func TestValidateAndSimulateEndpoints(t *testing.T) {
	_, ts := newTestServer(t)
	id := createSession(t, ts, sampleLayout(t))

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/sessions/"+id+"/validate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	findings := decodeBody[finding.List](t, resp)
	assert.NotEmpty(t, findings)

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/sessions/"+id+"/simulate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	findings = decodeBody[finding.List](t, resp)
	assert.NotEmpty(t, findings)
}

func TestSeedAndArrange(t *testing.T) {
	_, ts := newTestServer(t)
	id := createSession(t, ts, diagram.Layout{})

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/sessions/"+id+"/seed", map[string]any{
		"rows": []map[string]any{
			{"model": "S7-1500", "quantity": 2},
			{"model": "G120", "quantity": 1},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	seeded := decodeBody[map[string][]string](t, resp)
	assert.Len(t, seeded["ids"], 3)

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/sessions/"+id+"/arrange", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	layout := decodeBody[diagram.Layout](t, resp)
	assert.Len(t, layout.Nodes, 3)
}

func TestSeedRejectsEmptyRows(t *testing.T) {
	_, ts := newTestServer(t)
	id := createSession(t, ts, diagram.Layout{})

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/sessions/"+id+"/seed", map[string]any{"rows": []any{}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUndoWithEmptyHistory(t *testing.T) {
	_, ts := newTestServer(t)
	id := createSession(t, ts, sampleLayout(t))

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/sessions/"+id+"/undo", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestExportSVG(t *testing.T) {
	_, ts := newTestServer(t)
	id := createSession(t, ts, sampleLayout(t))

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/sessions/"+id+"/export?format=svg", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "PLC-01")
}

func TestExportUnknownFormat(t *testing.T) {
	_, ts := newTestServer(t)
	id := createSession(t, ts, sampleLayout(t))

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/sessions/"+id+"/export?format=bmp", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVersionWorkflow(t *testing.T) {
	_, ts := newTestServer(t)
	id := createSession(t, ts, sampleLayout(t))

	// Save a version
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/sessions/"+id+"/versions",
		saveVersionRequest{Note: "before rewiring"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	snap := decodeBody[map[string]any](t, resp)
	versionID := snap["id"].(string)
	require.NotEmpty(t, versionID)

	// Listed newest first
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/versions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[[]map[string]any](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, "before rewiring", list[0]["note"])

	// Mutate the session, then load the version back
	empty := diagram.Layout{}
	resp = doJSON(t, http.MethodPut, ts.URL+"/api/sessions/"+id+"/layout", empty)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Load without confirmation is refused
	loadURL := fmt.Sprintf("%s/api/sessions/%s/versions/%s/load", ts.URL, id, versionID)
	resp = doJSON(t, http.MethodPost, loadURL, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decodeBody[errorBody](t, resp)
	assert.Equal(t, "PRECONDITION_CONFIRMATION_NEEDED", body.Error.Code)

	// Load with confirmation restores the snapshot
	resp = doJSON(t, http.MethodPost, loadURL+"?confirm=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	restored := decodeBody[diagram.Layout](t, resp)
	assert.Len(t, restored.Nodes, 2)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/sessions/"+id+"/layout", nil)
	got := decodeBody[diagram.Layout](t, resp)
	assert.Len(t, got.Nodes, 2)

	// Delete the version
	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/versions/"+versionID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/versions/"+versionID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTemplateWorkflow(t *testing.T) {
	_, ts := newTestServer(t)
	layout := sampleLayout(t)

	resp := doJSON(t, http.MethodPut, ts.URL+"/api/templates/pump-skid",
		putTemplateRequest{Layout: layout})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/templates", nil)
	list := decodeBody[[]map[string]any](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, "pump-skid", list[0]["name"])

	// New session from the template
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/sessions",
		createSessionRequest{Template: "pump-skid"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decodeBody[map[string]string](t, resp)["id"]

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/sessions/"+id+"/layout", nil)
	got := decodeBody[diagram.Layout](t, resp)
	assert.Len(t, got.Nodes, 2)

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/templates/pump-skid", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/templates/pump-skid", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestModuleWorkflow(t *testing.T) {
	_, ts := newTestServer(t)
	src := createSession(t, ts, sampleLayout(t))

	// Capture both devices out of the source session.
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/sessions/"+src+"/modules/capture",
		captureModuleRequest{Name: "cell", NodeIDs: []string{"plc", "hmi"}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	captured := decodeBody[moduleInfo](t, resp)
	assert.Equal(t, "cell", captured.Name)
	assert.Equal(t, 2, captured.Devices)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/modules", nil)
	list := decodeBody[[]moduleInfo](t, resp)
	require.Len(t, list, 1)

	// Stamp it into a fresh session; ids must not collide with the originals.
	dst := createSession(t, ts, diagram.Layout{})
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/sessions/"+dst+"/modules/cell/insert",
		insertModuleRequest{X: 200, Y: 200})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	inserted := decodeBody[map[string][]string](t, resp)
	require.Len(t, inserted["ids"], 2)
	assert.NotContains(t, inserted["ids"], "plc")

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/sessions/"+dst+"/layout", nil)
	got := decodeBody[diagram.Layout](t, resp)
	assert.Len(t, got.Nodes, 2)
	assert.Len(t, got.Connections, 1)

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/modules/cell", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/sessions/"+dst+"/modules/cell/insert", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCaptureModuleRequiresNodes(t *testing.T) {
	_, ts := newTestServer(t)
	id := createSession(t, ts, sampleLayout(t))

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/sessions/"+id+"/modules/capture",
		captureModuleRequest{Name: "cell"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTemplateNameValidation(t *testing.T) {
	_, ts := newTestServer(t)
	resp := doJSON(t, http.MethodPut, ts.URL+"/api/templates/.hidden",
		putTemplateRequest{Layout: diagram.Layout{}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionReaping(t *testing.T) {
	m := newSessionManager(4, 0)
	defer m.close()

	id, err := m.create(diagram.Layout{})
	require.NoError(t, err)
	require.Equal(t, 1, m.count())

	// TTL of zero expires immediately
	assert.Equal(t, 1, m.reap())
	assert.Equal(t, 0, m.count())

	_, err = m.get(id)
	assert.Error(t, err)
}
