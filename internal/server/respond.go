package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tracewire/tracewire/pkg/editor"
	twerrors "github.com/tracewire/tracewire/pkg/errors"
	"github.com/tracewire/tracewire/pkg/library"
	"github.com/tracewire/tracewire/pkg/store"
)

// errorBody is the JSON error envelope.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

// respondError maps domain errors onto the JSON error envelope. Errors that
// are not coded get translated to a code first so clients always see one.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	coded := coerce(err)
	status := twerrors.HTTPStatus(coded)
	if status >= 500 {
		s.logger.Error("request failed", "err", err)
	}
	s.respondJSON(w, status, errorBody{Error: errorDetail{
		Code:    string(twerrors.GetCode(coded)),
		Message: twerrors.UserMessage(coded),
	}})
}

// coerce wraps well-known sentinel errors in coded errors.
func coerce(err error) error {
	if twerrors.GetCode(err) != "" {
		return err
	}
	switch {
	case errors.Is(err, store.ErrSnapshotNotFound):
		return twerrors.Wrap(twerrors.ErrCodeSnapshotNotFound, err, "snapshot not found")
	case errors.Is(err, store.ErrTemplateNotFound):
		return twerrors.Wrap(twerrors.ErrCodeTemplateNotFound, err, "template not found")
	case errors.Is(err, store.ErrEmptyName), errors.Is(err, library.ErrEmptyName):
		return twerrors.Wrap(twerrors.ErrCodeInvalidName, err, "name required")
	case errors.Is(err, library.ErrModuleNotFound):
		return twerrors.Wrap(twerrors.ErrCodeNotFound, err, "module not found")
	case errors.Is(err, library.ErrEmptySnapshot):
		return twerrors.Wrap(twerrors.ErrCodeInvalidInput, err, "module snapshot has no devices")
	case errors.Is(err, editor.ErrNothingToUndo),
		errors.Is(err, editor.ErrNothingToRedo),
		errors.Is(err, editor.ErrNodeLocked),
		errors.Is(err, editor.ErrLayerLocked):
		return twerrors.Wrap(twerrors.ErrCodeLocked, err, "%s", err.Error())
	default:
		return twerrors.Wrap(twerrors.ErrCodeInternal, err, "internal error")
	}
}

// decodeJSON decodes a request body, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return twerrors.Wrap(twerrors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}
