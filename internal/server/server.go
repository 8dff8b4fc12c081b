// Package server exposes query evaluation as a read-only HTTP service.
//
// The index and embedding table are loaded once and never mutated, so
// handlers serve concurrent requests without locking. Rebuilding the index
// is a separate invocation; the server must be restarted to pick up a new
// artifact.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/config"
	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/index"
	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/query"
	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/storage"
)

// Server is the HTTP query service.
type Server struct {
	processor *query.Processor
	ix        *index.Index
	registry  *storage.Registry
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server around an already-built processor and index.
// registry may be nil; the status endpoint then omits build history.
func NewServer(
	processor *query.Processor,
	ix *index.Index,
	registry *storage.Registry,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		processor: processor,
		ix:        ix,
		registry:  registry,
		config:    cfg,
		logger:    logger,
	}
}

// Router builds the chi router. Exposed for tests.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/api/v1/search", s.handleSearch)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
