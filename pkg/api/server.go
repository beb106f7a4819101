package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/cuemby/cri-mcp/pkg/log"
	"github.com/cuemby/cri-mcp/pkg/metrics"
)

const (
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 60 * time.Second
)

// Server is the bridge's HTTP listener. It always serves the health and
// metrics endpoints; network transports mount their MCP handlers on it.
type Server struct {
	mux    *http.ServeMux
	server *http.Server
}

// NewServer creates an HTTP server with /health, /ready, /live and /metrics
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	s := &Server{
		mux: mux,
		// No write timeout: streamable HTTP and SSE responses stay open
		// for the life of a session.
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: readHeaderTimeout,
			IdleTimeout:       idleTimeout,
		},
	}

	mux.Handle("/health", getOnly(metrics.HealthHandler()))
	mux.Handle("/ready", getOnly(metrics.ReadyHandler()))
	mux.Handle("/live", getOnly(metrics.LivenessHandler()))
	mux.Handle("/metrics", metrics.Handler())

	return s
}

// Handle mounts a handler, e.g. an MCP transport at /mcp
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

// Handler returns the mux for embedding or tests
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start listens on the configured address and serves until Shutdown.
// It returns nil after a clean shutdown.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	return s.Serve(lis)
}

// Serve serves on an existing listener
func (s *Server) Serve(lis net.Listener) error {
	logger := log.WithComponent("api")
	logger.Info().Str("address", lis.Addr().String()).Msg("HTTP server listening")
	if err := s.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for active requests until
// ctx ends, then closes whatever is left
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		_ = s.server.Close()
		return err
	}
	return nil
}

func getOnly(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.ServeHTTP(w, r)
	})
}
