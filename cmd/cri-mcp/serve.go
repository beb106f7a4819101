package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cuemby/cri-mcp/pkg/bridge"
	"github.com/cuemby/cri-mcp/pkg/config"
	"github.com/cuemby/cri-mcp/pkg/log"
	"github.com/cuemby/cri-mcp/pkg/metrics"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server",
	Long: `Run the MCP server on the configured transport.

With --transport stdio (the default) a single client talks to the server
over stdin and stdout, and the server exits when stdin closes. With http
or sse the server listens on --address and serves many sessions until it
receives SIGINT or SIGTERM.

The runtime socket must be reachable at startup.`,
	Example: `  # Serve a local agent over stdio
  cri-mcp serve

  # Serve streamable HTTP on port 3000 with mutating tools disabled
  cri-mcp serve --transport http --address 0.0.0.0:3000 --read-only`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		metrics.SetVersion(Version)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, err := openStack(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to start: %w", err)
		}
		defer s.Close()

		srv := bridge.NewServer(s.dispatcher, bridge.Options{
			Version: Version,
			Broker:  s.broker,
		})

		logger := log.WithComponent("serve")
		logger.Info().
			Str("transport", cfg.Transport).
			Str("endpoint", cfg.Endpoint).
			Bool("read_only", cfg.ReadOnly).
			Int("tools", s.dispatcher.Catalog().Len()).
			Msg("Starting cri-mcp")

		err = srv.Serve(ctx, bridge.ServeOptions{
			Transport:      cfg.Transport,
			Address:        cfg.Address,
			MetricsAddress: cfg.Metrics.Address,
		})
		if err != nil {
			return err
		}
		logger.Info().Msg("Shutdown complete")
		return nil
	},
}

func init() {
	flags := serveCmd.Flags()
	flags.String("transport", config.TransportStdio, "Transport: stdio, http or sse")
	flags.String("address", config.DefaultAddress, "Listen address for the http and sse transports")
	flags.String("metrics-address", "", "Separate listener for /health and /metrics")
	flags.String("audit-path", "", "bbolt file recording every tool call")
	flags.String("daemon-log-path", "", "containerd log file read by daemon_logs")

	bind(flags.Lookup("transport"), "transport")
	bind(flags.Lookup("address"), "address")
	bind(flags.Lookup("metrics-address"), "metrics.address")
	bind(flags.Lookup("audit-path"), "audit.path")
	bind(flags.Lookup("daemon-log-path"), "daemon_log_path")
}
