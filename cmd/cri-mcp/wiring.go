package main

import (
	"context"
	"fmt"

	"github.com/cuemby/cri-mcp/pkg/catalog"
	"github.com/cuemby/cri-mcp/pkg/config"
	"github.com/cuemby/cri-mcp/pkg/dispatch"
	"github.com/cuemby/cri-mcp/pkg/events"
	"github.com/cuemby/cri-mcp/pkg/log"
	"github.com/cuemby/cri-mcp/pkg/metrics"
	"github.com/cuemby/cri-mcp/pkg/runtime"
	"github.com/cuemby/cri-mcp/pkg/storage"
)

// stack is everything a dispatcher needs, opened in dependency order
type stack struct {
	broker     *events.Broker
	collector  *metrics.Collector
	connector  *runtime.Connector
	journal    *storage.BoltJournal
	dispatcher *dispatch.Dispatcher
}

func newCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	return catalog.New(catalog.Options{
		ReadOnly:   cfg.ReadOnly,
		Disabled:   cfg.Tools.Disabled,
		Containerd: cfg.Containerd.Enabled,
	})
}

// openStack connects to the runtime and builds the dispatcher. A connect
// failure is returned as is so callers can report the endpoint.
func openStack(ctx context.Context, cfg *config.Config) (*stack, error) {
	cat, err := newCatalog(cfg)
	if err != nil {
		return nil, err
	}

	s := &stack{broker: events.NewBroker()}
	s.broker.Start()
	s.collector = metrics.NewCollector(s.broker)
	s.collector.Start()

	s.connector, err = runtime.Connect(ctx, runtime.Options{
		Endpoint:          cfg.Endpoint,
		CallTimeout:       cfg.Timeouts.Call,
		DialTimeout:       cfg.Timeouts.Dial,
		ReconnectCooldown: cfg.Timeouts.ReconnectCooldown,
		ReadOnly:          cfg.ReadOnly,
		Broker:            s.broker,
	})
	if err != nil {
		metrics.RegisterComponent(metrics.ComponentBackend, false, err.Error())
		s.Close()
		return nil, err
	}
	metrics.RegisterComponent(metrics.ComponentBackend, true, cfg.Endpoint)

	opts := dispatch.Options{
		CallTimeout:        cfg.Timeouts.Call,
		LongRunningTimeout: cfg.Timeouts.LongRunning,
	}
	if cfg.Audit.Path != "" {
		s.journal, err = storage.OpenBoltJournal(cfg.Audit.Path, storage.DefaultMaxRecords)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to open audit journal: %w", err)
		}
		metrics.RegisterComponent(metrics.ComponentAudit, true, cfg.Audit.Path)
		opts.Journal = s.journal
	}

	services := catalog.Services{
		Runtime:       s.connector.RuntimeService(),
		Image:         s.connector.ImageService(),
		Namespace:     cfg.Containerd.Namespace,
		DaemonLogPath: cfg.DaemonLogPath,
	}
	if cfg.Containerd.Enabled {
		services.Containerd = s.connector.Containerd()
	}

	s.dispatcher = dispatch.New(cat, services, dispatch.NewTracker(s.broker), opts)
	return s, nil
}

// Close releases the stack in reverse order of opening
func (s *stack) Close() {
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			log.Errorf("Failed to close audit journal", err)
		}
	}
	if s.connector != nil {
		if err := s.connector.Close(); err != nil {
			log.Errorf("Failed to close runtime connection", err)
		}
	}
	s.collector.Stop()
	s.broker.Stop()
}
