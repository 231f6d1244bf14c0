// Package api exposes the controller over a local JSON HTTP API and provides
// a client for it.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/goodtune/focuswatch/internal/controller"
	"github.com/goodtune/focuswatch/internal/stats"
)

// Server is the control API HTTP server.
type Server struct {
	addr      string
	ctrl      *controller.Controller
	snapshots *stats.Snapshotter
	server    *http.Server
	router    *mux.Router
	listener  net.Listener // Optional pre-created listener (for systemd socket activation)
	logger    zerolog.Logger
}

// NewServer creates a control API server listening on addr.
func NewServer(addr string, ctrl *controller.Controller, snapshots *stats.Snapshotter, logger zerolog.Logger) *Server {
	s := &Server{
		addr:      addr,
		ctrl:      ctrl,
		snapshots: snapshots,
		router:    mux.NewRouter(),
		logger:    logger.With().Str("component", "api").Logger(),
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(LoggingMiddleware(s.logger))

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.router.HandleFunc("/api/timer", s.handleStatus).Methods("GET")
	s.router.HandleFunc("/api/timer/toggle", s.handleToggle).Methods("POST")
	s.router.HandleFunc("/api/timer/reset", s.handleReset).Methods("POST")

	s.router.HandleFunc("/api/stats", s.handleStats).Methods("GET")
	s.router.HandleFunc("/api/stats", s.handleClearStats).Methods("DELETE")

	s.router.HandleFunc("/api/settings/persist-timer", s.handleGetPersist).Methods("GET")
	s.router.HandleFunc("/api/settings/persist-timer", s.handleSetPersist).Methods("PUT")
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start serves in the background. Bind errors are returned.
func (s *Server) Start() error {
	ln := s.listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", s.addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", s.addr, err)
		}
	} else {
		s.logger.Debug().Msg("Using systemd socket-activated control listener")
	}

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("Starting control API")
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Control API error")
		}
	}()
	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping control API")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("control API shutdown: %w", err)
	}
	return nil
}
