// Package server exposes a small status HTTP surface over the engine:
// health and the adaptor catalog. It serves introspection only; job and
// file operations stay on the library API and the CLI.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/gridhaven/kraken/internal/config"
	"github.com/gridhaven/kraken/internal/server/handlers"
	"github.com/gridhaven/kraken/pkg/engine"
)

// Server wraps the HTTP listener and router.
type Server struct {
	cfg    config.ServerConfig
	logger *zap.Logger
	router chi.Router
	http   *http.Server
}

// New builds the server around an engine.
func New(cfg config.ServerConfig, eng *engine.Engine, logger *zap.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handlers.Health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/adaptors", handlers.ListAdaptors(eng))
		r.Get("/adaptors/{name}", handlers.GetAdaptor(eng))
	})

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	return &Server{
		cfg:    cfg,
		logger: logger.Named("server"),
		router: r,
		http: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

// Handler returns the router, used directly in tests.
func (s *Server) Handler() http.Handler { return s.router }

// Port returns the configured listen port.
func (s *Server) Port() int { return s.cfg.Port }

// Start serves until ctx is cancelled, then shuts down within the
// configured shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
