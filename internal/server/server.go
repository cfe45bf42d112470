// Package server implements the tracewire HTTP API.
//
// The API exposes editing sessions over layouts plus the surrounding
// services: consistency checks, auto-arrangement, equipment seeding,
// template and version storage, and artifact export. All responses are
// JSON except exports, which stream the rendered artifact.
package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tracewire/tracewire/internal/config"
	"github.com/tracewire/tracewire/pkg/library"
	"github.com/tracewire/tracewire/pkg/pipeline"
	"github.com/tracewire/tracewire/pkg/store"
)

// janitorInterval is how often idle sessions are reaped.
const janitorInterval = time.Minute

// Server wires the HTTP handlers to the pipeline, the stores, and the
// session manager.
type Server struct {
	logger    *log.Logger
	runner    *pipeline.Runner
	versions  store.VersionStore
	templates store.TemplateStore
	sessions  *sessionManager

	modulesMu sync.Mutex
	modules   *library.Library
}

// Options carries the dependencies for a Server.
type Options struct {
	Config    config.ServerConfig
	Logger    *log.Logger
	Runner    *pipeline.Runner
	Versions  store.VersionStore
	Templates store.TemplateStore
}

// New builds a server and starts the session janitor.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	runner := opts.Runner
	if runner == nil {
		runner = pipeline.NewRunner(nil, logger)
	}
	versions := opts.Versions
	if versions == nil {
		versions = store.NewMemoryStore()
	}
	templates := opts.Templates
	if templates == nil {
		templates = store.NewMemoryStore()
	}

	maxSessions := opts.Config.MaxSessions
	if maxSessions <= 0 {
		maxSessions = 64
	}
	ttl := opts.Config.SessionTTL.Duration()
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	s := &Server{
		logger:    logger,
		runner:    runner,
		versions:  versions,
		templates: templates,
		sessions:  newSessionManager(maxSessions, ttl),
		modules:   library.NewLibrary(),
	}
	s.sessions.startJanitor(janitorInterval)
	return s
}

// Close stops background work and releases the cache.
func (s *Server) Close() error {
	s.sessions.close()
	return s.runner.Close()
}

// Router builds the chi router with all routes registered.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", s.handleHealth)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Get("/layout", s.handleGetLayout)
				r.Put("/layout", s.handlePutLayout)
				r.Post("/check", s.handleCheck)
				r.Post("/validate", s.handleValidate)
				r.Post("/simulate", s.handleSimulate)
				r.Post("/arrange", s.handleArrange)
				r.Post("/seed", s.handleSeed)
				r.Post("/modules/capture", s.handleCaptureModule)
				r.Post("/modules/{moduleName}/insert", s.handleInsertModule)
				r.Post("/undo", s.handleUndo)
				r.Post("/redo", s.handleRedo)
				r.Get("/export", s.handleExport)
				r.Post("/versions", s.handleSaveVersion)
				r.Post("/versions/{versionID}/load", s.handleLoadVersion)
			})
		})

		r.Route("/versions", func(r chi.Router) {
			r.Get("/", s.handleListVersions)
			r.Get("/{versionID}", s.handleGetVersion)
			r.Delete("/{versionID}", s.handleDeleteVersion)
		})

		r.Route("/modules", func(r chi.Router) {
			r.Get("/", s.handleListModules)
			r.Delete("/{moduleName}", s.handleDeleteModule)
		})

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", s.handleListTemplates)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", s.handleGetTemplate)
				r.Put("/", s.handlePutTemplate)
				r.Delete("/", s.handleDeleteTemplate)
			})
		})
	})

	return r
}

// logRequests logs one line per request with the chi request id.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
