// Package server provides the HTTP API for bunko.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/bunko/internal/catalog"
	"github.com/hyperjump/bunko/internal/config"
	"github.com/hyperjump/bunko/internal/ingest"
	"github.com/hyperjump/bunko/internal/keyword"
	"github.com/hyperjump/bunko/internal/qa"
	"github.com/hyperjump/bunko/internal/retrieve"
	"github.com/hyperjump/bunko/internal/vector"
)

// Server is the HTTP server for the bunko API.
type Server struct {
	retriever *retrieve.Retriever
	answerer  *qa.Answerer
	ingestor  *ingest.Ingestor
	store     *vector.Store
	keyword   *keyword.Index
	catalog   *catalog.Catalog
	cfg       *config.Config
	logger    *zap.Logger
	server    *http.Server
}

// New creates a server with the given dependencies.
func New(
	retriever *retrieve.Retriever,
	answerer *qa.Answerer,
	ingestor *ingest.Ingestor,
	store *vector.Store,
	kw *keyword.Index,
	cat *catalog.Catalog,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		retriever: retriever,
		answerer:  answerer,
		ingestor:  ingestor,
		store:     store,
		keyword:   kw,
		catalog:   cat,
		cfg:       cfg,
		logger:    logger,
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.routes(),
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Post("/api/v1/search", s.handleSearch)
	r.Post("/api/v1/qa", s.handleQA)
	r.Post("/api/v1/ingest", s.handleIngest)
	r.Delete("/api/v1/index", s.handleReset)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
