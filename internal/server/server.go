// Package server provides the HTTP API for ChatNova.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/chatnova/internal/config"
	"github.com/hyperjump/chatnova/internal/dispatch"
	"github.com/hyperjump/chatnova/internal/ingest"
	"github.com/hyperjump/chatnova/internal/prompt"
)

// Server is the HTTP server for the ChatNova API.
type Server struct {
	config     *config.Config
	ingestor   *ingest.Ingestor
	composer   *prompt.Composer
	personas   prompt.Personas
	dispatcher *dispatch.Dispatcher
	logger     *zap.Logger
	server     *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	cfg *config.Config,
	ingestor *ingest.Ingestor,
	composer *prompt.Composer,
	personas prompt.Personas,
	dispatcher *dispatch.Dispatcher,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		config:     cfg,
		ingestor:   ingestor,
		composer:   composer,
		personas:   personas,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Handler returns the router with all middleware and routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.logger, s.config.Server.QuietPaths))
	r.Use(middleware.Recoverer)
	r.Use(CORS(s.config.Server.AllowedOrigins))
	r.Use(middleware.Compress(5))

	r.Post("/api/upload", s.handleUpload)
	r.Post("/api/chat", s.handleChat)
	r.Get("/api/providers", s.handleProviders)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.config.Server.ChatTimeout + 10*time.Second,
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
