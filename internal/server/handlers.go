package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tracewire/tracewire/pkg/arrange"
	"github.com/tracewire/tracewire/pkg/diagram"
	"github.com/tracewire/tracewire/pkg/editor"
	"github.com/tracewire/tracewire/pkg/equipment"
	twerrors "github.com/tracewire/tracewire/pkg/errors"
	"github.com/tracewire/tracewire/pkg/library"
	"github.com/tracewire/tracewire/pkg/pipeline"
	"github.com/tracewire/tracewire/pkg/simulate"
	"github.com/tracewire/tracewire/pkg/validate"
)

// exportContentTypes maps export formats to response content types.
var exportContentTypes = map[string]string{
	pipeline.FormatSVG:    "image/svg+xml",
	pipeline.FormatPNG:    "image/png",
	pipeline.FormatPDF:    "application/pdf",
	pipeline.FormatDOT:    "text/vnd.graphviz",
	pipeline.FormatReport: "text/plain; charset=utf-8",
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// Sessions
// =============================================================================

type createSessionRequest struct {
	Layout   *diagram.Layout `json:"layout,omitempty"`
	Template string          `json:"template,omitempty"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			s.respondError(w, err)
			return
		}
	}

	var layout diagram.Layout
	switch {
	case req.Layout != nil && req.Template != "":
		s.respondError(w, twerrors.New(twerrors.ErrCodeInvalidInput,
			"layout and template are mutually exclusive"))
		return
	case req.Layout != nil:
		layout = *req.Layout
	case req.Template != "":
		tpl, err := s.templates.GetTemplate(r.Context(), req.Template)
		if err != nil {
			s.respondError(w, err)
			return
		}
		layout = tpl.Layout
	}

	id, err := s.sessions.create(layout)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.logger.Info("session created", "session", id)
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// sessionFromRequest resolves the {id} path parameter to a live session.
func (s *Server) sessionFromRequest(r *http.Request) (string, *editor.Session, error) {
	id := chi.URLParam(r, "id")
	if err := twerrors.ValidateSessionID(id); err != nil {
		return "", nil, err
	}
	sess, err := s.sessions.get(id)
	return id, sess, err
}

type sessionInfo struct {
	ID         string            `json:"id"`
	Tool       editor.Tool       `json:"tool"`
	SaveStatus editor.SaveStatus `json:"saveStatus"`
	UndoDepth  int               `json:"undoDepth"`
	RedoDepth  int               `json:"redoDepth"`
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, sess, err := s.sessionFromRequest(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	undo, redo := sess.HistoryLens()
	s.respondJSON(w, http.StatusOK, sessionInfo{
		ID:         id,
		Tool:       sess.Tool(),
		SaveStatus: sess.Status(),
		UndoDepth:  undo,
		RedoDepth:  redo,
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := twerrors.ValidateSessionID(id); err != nil {
		s.respondError(w, err)
		return
	}
	s.sessions.delete(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	_, sess, err := s.sessionFromRequest(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sess.Layout())
}

func (s *Server) handlePutLayout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := twerrors.ValidateSessionID(id); err != nil {
		s.respondError(w, err)
		return
	}
	var layout diagram.Layout
	if err := decodeJSON(r, &layout); err != nil {
		s.respondError(w, err)
		return
	}
	if err := s.sessions.replace(id, layout); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Session Operations
// =============================================================================

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	_, sess, err := s.sessionFromRequest(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sess.CheckNow())
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	_, sess, err := s.sessionFromRequest(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, validate.Run(sess.Layout()))
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	_, sess, err := s.sessionFromRequest(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, simulate.Run(sess.Layout()))
}

func (s *Server) handleArrange(w http.ResponseWriter, r *http.Request) {
	_, sess, err := s.sessionFromRequest(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	err = sess.Apply(func(d *diagram.Diagram) error {
		arrange.AutoArrange(d)
		arrange.AutoRoute(d)
		return nil
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sess.Layout())
}

type seedRequest struct {
	Rows []equipment.Row `json:"rows"`
}

func (s *Server) handleSeed(w http.ResponseWriter, r *http.Request) {
	_, sess, err := s.sessionFromRequest(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req seedRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	if len(req.Rows) == 0 {
		s.respondError(w, twerrors.New(twerrors.ErrCodeInvalidInput, "rows required"))
		return
	}

	var ids []string
	err = sess.Apply(func(d *diagram.Diagram) error {
		var seedErr error
		ids, seedErr = equipment.Seed(d, req.Rows)
		return seedErr
	})
	if err != nil {
		s.respondError(w, twerrors.Wrap(twerrors.ErrCodeInvalidInput, err, "seed equipment"))
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]any{"ids": ids})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	_, sess, err := s.sessionFromRequest(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if err := sess.Undo(); err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sess.Layout())
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	_, sess, err := s.sessionFromRequest(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if err := sess.Redo(); err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sess.Layout())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	_, sess, err := s.sessionFromRequest(r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if err := twerrors.ValidateExportFormat(format); err != nil {
		s.respondError(w, err)
		return
	}

	opts := pipeline.Options{
		Formats:   []string{format},
		ShowPorts: q.Get("ports") == "true",
		ShowGrid:  q.Get("grid") == "true",
		Logger:    s.logger,
	}
	if scale := q.Get("scale"); scale != "" {
		parsed, err := strconv.ParseFloat(scale, 64)
		if err != nil || parsed <= 0 {
			s.respondError(w, twerrors.New(twerrors.ErrCodeInvalidInput, "invalid scale: %q", scale))
			return
		}
		opts.Scale = parsed
	}

	result, err := s.runner.Execute(r.Context(), sess.Layout(), opts)
	if err != nil {
		s.respondError(w, twerrors.Wrap(twerrors.ErrCodeInternal, err, "export failed"))
		return
	}

	w.Header().Set("Content-Type", exportContentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

// =============================================================================
// Modules
// =============================================================================

type captureModuleRequest struct {
	Name    string   `json:"name"`
	NodeIDs []string `json:"nodeIds"`
}

// moduleInfo is the listing shape; the snapshot itself stays server-side.
type moduleInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Devices   int       `json:"devices"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func infoForModule(m *library.Module) moduleInfo {
	return moduleInfo{
		ID:        m.ID,
		Name:      m.Name,
		Devices:   len(m.Snapshot.Nodes),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func (s *Server) handleCaptureModule(w http.ResponseWriter, r *http.Request) {
	_, sess, err := s.sessionFromRequest(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req captureModuleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	if len(req.NodeIDs) == 0 {
		s.respondError(w, twerrors.New(twerrors.ErrCodeInvalidInput, "nodeIds required"))
		return
	}

	// Capture from a rebuilt copy so the session diagram is never read
	// outside its own lock.
	d, _ := diagram.ImportLayout(sess.Layout())
	snapshot := library.CaptureSelection(d, req.NodeIDs)
	if snapshot == nil {
		s.respondError(w, twerrors.New(twerrors.ErrCodeInvalidInput,
			"no devices matched the selection"))
		return
	}

	s.modulesMu.Lock()
	m, err := s.modules.Save(req.Name, snapshot)
	s.modulesMu.Unlock()
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, infoForModule(m))
}

type insertModuleRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (s *Server) handleInsertModule(w http.ResponseWriter, r *http.Request) {
	_, sess, err := s.sessionFromRequest(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req insertModuleRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			s.respondError(w, err)
			return
		}
	}

	s.modulesMu.Lock()
	m, err := s.modules.Get(chi.URLParam(r, "moduleName"))
	s.modulesMu.Unlock()
	if err != nil {
		s.respondError(w, err)
		return
	}

	var ids []string
	err = sess.Apply(func(d *diagram.Diagram) error {
		var insertErr error
		ids, insertErr = library.InsertModule(d, m, diagram.Point{X: req.X, Y: req.Y})
		return insertErr
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]any{"ids": ids})
}

func (s *Server) handleListModules(w http.ResponseWriter, r *http.Request) {
	s.modulesMu.Lock()
	modules := s.modules.List()
	s.modulesMu.Unlock()

	out := make([]moduleInfo, 0, len(modules))
	for _, m := range modules {
		out = append(out, infoForModule(m))
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteModule(w http.ResponseWriter, r *http.Request) {
	s.modulesMu.Lock()
	err := s.modules.Delete(chi.URLParam(r, "moduleName"))
	s.modulesMu.Unlock()
	if err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Versions
// =============================================================================

type saveVersionRequest struct {
	Note string `json:"note,omitempty"`
}

func (s *Server) handleSaveVersion(w http.ResponseWriter, r *http.Request) {
	_, sess, err := s.sessionFromRequest(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req saveVersionRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			s.respondError(w, err)
			return
		}
	}

	snap, err := s.versions.SaveSnapshot(r.Context(), sess.Layout(), req.Note)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, snap)
}

// handleLoadVersion replaces the session's diagram with a stored snapshot.
// Loading discards unsaved edits, so the client must confirm explicitly.
func (s *Server) handleLoadVersion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := twerrors.ValidateSessionID(id); err != nil {
		s.respondError(w, err)
		return
	}
	if r.URL.Query().Get("confirm") != "true" {
		s.respondError(w, twerrors.New(twerrors.ErrCodeConfirmationNeeded,
			"loading a version replaces the current diagram; pass confirm=true"))
		return
	}

	snap, err := s.versions.GetSnapshot(r.Context(), chi.URLParam(r, "versionID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	if err := s.sessions.replace(id, snap.Layout); err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, snap.Layout)
}

func (s *Server) handleListVersions(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.versions.ListSnapshots(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, snaps)
}

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	snap, err := s.versions.GetSnapshot(r.Context(), chi.URLParam(r, "versionID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDeleteVersion(w http.ResponseWriter, r *http.Request) {
	if err := s.versions.DeleteSnapshot(r.Context(), chi.URLParam(r, "versionID")); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Templates
// =============================================================================

type putTemplateRequest struct {
	Layout diagram.Layout `json:"layout"`
}

func (s *Server) handlePutTemplate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := twerrors.ValidateTemplateName(name); err != nil {
		s.respondError(w, err)
		return
	}
	var req putTemplateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	tpl, err := s.templates.SaveTemplate(r.Context(), name, req.Layout)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, tpl)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, err := s.templates.GetTemplate(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, tpl)
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	tpls, err := s.templates.ListTemplates(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, tpls)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.templates.DeleteTemplate(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
