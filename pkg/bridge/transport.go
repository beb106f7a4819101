package bridge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cuemby/cri-mcp/pkg/api"
	"github.com/cuemby/cri-mcp/pkg/config"
	"github.com/cuemby/cri-mcp/pkg/metrics"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sourcegraph/conc/pool"
)

const (
	// DefaultShutdownTimeout bounds how long open sessions may drain
	DefaultShutdownTimeout = 10 * time.Second

	pathStreamable = "/mcp"
	pathSSE        = "/sse"
)

// ServeOptions selects the transport binding
type ServeOptions struct {
	Transport string
	// Address is the listen address of the http and sse transports
	Address string
	// MetricsAddress serves health and metrics alongside stdio; empty disables it
	MetricsAddress  string
	ShutdownTimeout time.Duration
}

// StreamableHandler serves MCP over streamable HTTP. Every session shares
// the same server, tools and dispatcher.
func (s *Server) StreamableHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.mcp }, nil)
}

// SSEHandler serves MCP over the older HTTP+SSE binding
func (s *Server) SSEHandler() http.Handler {
	return mcp.NewSSEHandler(func(*http.Request) *mcp.Server { return s.mcp }, nil)
}

// Serve runs the bridge on the selected transport until ctx ends or the
// transport fails. For stdio it also returns once the client closes stdin.
func (s *Server) Serve(ctx context.Context, opts ServeOptions) error {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p := pool.New().WithContext(ctx).WithCancelOnError()

	switch opts.Transport {
	case config.TransportStdio:
		metrics.RegisterComponent(metrics.ComponentTransport, true, "stdio")
		p.Go(func(ctx context.Context) error {
			defer cancel()
			err := s.Run(ctx, &mcp.StdioTransport{})
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("stdio transport: %w", err)
			}
			s.logger.Info().Msg("stdio session ended")
			return nil
		})
		if opts.MetricsAddress != "" {
			srv := api.NewServer(opts.MetricsAddress)
			p.Go(func(ctx context.Context) error { return runHTTP(ctx, srv, opts.ShutdownTimeout) })
		}

	case config.TransportHTTP, config.TransportSSE:
		srv := api.NewServer(opts.Address)
		path := pathStreamable
		if opts.Transport == config.TransportSSE {
			path = pathSSE
			srv.Handle(path, s.SSEHandler())
		} else {
			srv.Handle(path, s.StreamableHandler())
		}
		metrics.RegisterComponent(metrics.ComponentTransport, true, opts.Transport+" "+opts.Address+path)
		s.logger.Info().Str("transport", opts.Transport).Str("address", opts.Address).Str("path", path).Msg("Serving MCP")
		p.Go(func(ctx context.Context) error { return runHTTP(ctx, srv, opts.ShutdownTimeout) })

	default:
		return fmt.Errorf("unknown transport %q", opts.Transport)
	}

	err := p.Wait()
	metrics.UpdateComponent(metrics.ComponentTransport, false, "stopped")
	return err
}

// runHTTP serves until ctx ends, then drains connections for up to timeout
func runHTTP(ctx context.Context, srv *api.Server, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown %s: %w", srv.Addr(), err)
	}
	return <-errCh
}
