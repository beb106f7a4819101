package metrics

import (
	"github.com/cuemby/cri-mcp/pkg/events"
	"github.com/cuemby/cri-mcp/pkg/log"
)

// Collector turns broker events into health status and connection gauges.
// Counters are incremented at the source; only state that the next event
// overwrites is derived here, so a dropped event cannot skew it for long.
type Collector struct {
	broker *events.Broker
	sub    *events.Subscription
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(broker *events.Broker) *Collector {
	return &Collector{
		broker: broker,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins consuming events
func (c *Collector) Start() {
	c.sub = c.broker.Subscribe(events.TopicBackend)
	go func() {
		defer close(c.doneCh)
		for {
			select {
			case ev, ok := <-c.sub.C:
				if !ok {
					return
				}
				c.handle(ev)
			case <-c.stopCh:
				return
			}
		}
	}()
}

// Stop stops the collector and waits for the loop to exit
func (c *Collector) Stop() {
	close(c.stopCh)
	<-c.doneCh
	c.broker.Unsubscribe(c.sub)
}

func (c *Collector) handle(ev *events.Event) {
	logger := log.WithComponent("collector")

	switch ev.Type {
	case events.EventBackendConnected:
		BackendConnected.Set(1)
		UpdateComponent(ComponentBackend, true, "")
	case events.EventBackendStale:
		BackendConnected.Set(0)
		UpdateComponent(ComponentBackend, false, ev.Message)
	case events.EventBackendReconnectFailed:
		BackendConnected.Set(0)
		UpdateComponent(ComponentBackend, false, ev.Message)
	}

	logger.Debug().
		Str("event", string(ev.Type)).
		Str("message", ev.Message).
		Interface("metadata", ev.Metadata).
		Msg("Event")
}
