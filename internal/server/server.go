// Package server exposes a small read-only HTTP surface for observability:
// health, scheduler status and the latest signals. The pipeline core is
// fully functional without it.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/sahamlab/sinyal/internal/database"
	"github.com/sahamlab/sinyal/internal/database/repositories"
	"github.com/sahamlab/sinyal/internal/runlock"
	"github.com/sahamlab/sinyal/internal/scheduler"
)

// Config holds server configuration
type Config struct {
	Port      int
	Log       zerolog.Logger
	DB        *database.DB
	Signals   *repositories.SignalRepository
	Articles  *repositories.ArticleRepository
	ScrapeJob *scheduler.ScrapeJob
	Locks     *runlock.Manager
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	router := chi.NewRouter()

	router.Use(middleware.Recoverer)
	router.Use(middleware.RealIP)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	handlers := newHandlers(cfg)

	router.Get("/health", handlers.Health)
	router.Route("/api", func(r chi.Router) {
		r.Get("/status", handlers.Status)
		r.Get("/signals", handlers.Signals)
		r.Get("/signals/{ticker}", handlers.SignalForTicker)
	})

	return &Server{
		router: router,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		log: cfg.Log.With().Str("component", "server").Logger(),
	}
}

// Start begins serving. Blocks until Shutdown or failure.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
