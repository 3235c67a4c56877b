// Package server exposes the pipeline over HTTP: document upload and
// analysis, direct text analysis, storage cleanup and the service metadata
// endpoints. Handlers validate and delegate; policy lives in the pipeline.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/joseph-ayodele/audit-agent/internal/common"
	"github.com/joseph-ayodele/audit-agent/internal/pipeline"
	"github.com/joseph-ayodele/audit-agent/internal/store"
)

type Server struct {
	cfg    *common.Config
	pipe   *pipeline.Pipeline
	store  *store.Store
	status common.StartupStatus
	log    *slog.Logger
	http   *http.Server
}

func New(cfg *common.Config, pipe *pipeline.Pipeline, st *store.Store, status common.StartupStatus, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		pipe:   pipe,
		store:  st,
		status: status,
		log:    logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Get("/api/info", s.handleInfo)

	r.Route("/api/v1/upload", func(r chi.Router) {
		r.Get("/", s.handleUploadInfo)
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/cleanup", s.handleCleanup)
	})
	r.Route("/api/v1/document", func(r chi.Router) {
		r.Post("/analyze", s.handleDocumentAnalyze)
	})

	fs := http.StripPrefix("/visualizations/", http.FileServer(http.Dir(cfg.Storage.VisualizationsDir)))
	r.Get("/visualizations/*", fs.ServeHTTP)

	s.http = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start blocks until the listener stops. A clean Shutdown reports nil.
func (s *Server) Start() error {
	s.log.Info("server.listen", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("server.shutdown")
	return s.http.Shutdown(ctx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("response encode failed", "error", err)
	}
}

// writeError maps the error taxonomy onto {"detail": reason} bodies:
// validation failures are 400, everything else 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, common.HTTPStatus(err), map[string]string{"detail": err.Error()})
}
