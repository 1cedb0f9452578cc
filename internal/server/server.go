// Package server contains the coordinator's HTTP surface: routes,
// middleware, and server bootstrap.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/deborgen/deborgen/internal/config"
	"github.com/deborgen/deborgen/internal/jobs"
)

// Server is the coordinator HTTP server.
type Server struct {
	cfg        *config.Config
	db         *sql.DB
	manager    *jobs.Manager
	metrics    *metrics
	registry   *prometheus.Registry
	router     *http.ServeMux
	handler    http.Handler
	httpServer *http.Server
}

// New constructs a Server over an initialised database. Routes must be
// registered with RegisterRoutes before calling Start.
func New(cfg *config.Config, db *sql.DB) *Server {
	registry := prometheus.NewRegistry()
	return &Server{
		cfg:      cfg,
		db:       db,
		manager:  jobs.NewManager(db, cfg.LeaseDuration),
		metrics:  newMetrics(registry),
		registry: registry,
		router:   http.NewServeMux(),
	}
}

// Handler returns the fully wired handler chain. Only valid after
// RegisterRoutes.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start runs the HTTP server and blocks until context cancellation or server
// error. The listener is bound before Start returns control to the serve
// goroutine, so callers can rely on the port being open.
func (s *Server) Start(ctx context.Context) error {
	addr := ":" + s.cfg.Port
	h := http.Handler(s.router)
	if s.handler != nil {
		h = s.handler
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	lc := &net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http serve: %w", err)
		} else {
			errCh <- nil
		}
	}()

	select {
	case <-ctx.Done():
		timeout := 30 * time.Second
		if s.cfg != nil && s.cfg.ShutdownTimeout > 0 {
			timeout = s.cfg.ShutdownTimeout
		}
		log.Printf("shutdown initiated, waiting up to %s for active connections to finish", timeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}

		// Close the DB before Start returns so callers can rely on it being
		// shut down when Start exits.
		if s.db != nil {
			if err := s.db.Close(); err != nil {
				log.Printf("failed to close db on shutdown: %v", err)
			} else {
				log.Printf("database connection closed")
			}
		}

		log.Printf("shutdown complete")
		return fmt.Errorf("server shutdown: %w", ctx.Err())
	case err := <-errCh:
		return err
	}
}
