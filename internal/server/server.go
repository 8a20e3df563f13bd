// Package server provides the HTTP API for regindex.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/clearhealth/regindex/internal/config"
	"github.com/clearhealth/regindex/internal/index"
	"github.com/clearhealth/regindex/internal/ingest"
	"github.com/clearhealth/regindex/internal/query"
	"github.com/clearhealth/regindex/internal/semantic"
	"github.com/clearhealth/regindex/internal/storage"
	"go.uber.org/zap"
)

// Server is the HTTP server for the regindex API.
type Server struct {
	query    *query.Service
	pipeline *ingest.Pipeline
	store    storage.Storage
	holder   *index.Holder
	scorer   semantic.Scorer
	cfg      *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	qs *query.Service,
	pipeline *ingest.Pipeline,
	store storage.Storage,
	holder *index.Holder,
	scorer semantic.Scorer,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		query:    qs,
		pipeline: pipeline,
		store:    store,
		holder:   holder,
		scorer:   scorer,
		cfg:      cfg,
		logger:   logger,
	}
}

// Router builds the API router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/ask", s.handleAsk)
	r.Post("/api/v1/search", s.handleSearch)
	r.Post("/api/v1/documents", s.handleIngestDocument)
	r.Get("/api/v1/documents/{id}", s.handleGetDocument)
	r.Post("/api/v1/index/rebuild", s.handleRebuild)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
