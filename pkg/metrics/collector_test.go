package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/cuemby/cri-mcp/pkg/events"
)

func TestCollectorTracksBackendHealth(t *testing.T) {
	resetHealth("")
	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	c := NewCollector(broker)
	c.Start()
	defer c.Stop()

	broker.Publish(&events.Event{Type: events.EventBackendConnected})
	assert.Eventually(t, func() bool {
		comp, ok := ComponentStatus(ComponentBackend)
		return ok && comp.Healthy && testutil.ToFloat64(BackendConnected) == 1
	}, time.Second, 10*time.Millisecond)

	broker.Publish(&events.Event{Type: events.EventBackendReconnectFailed, Message: "dial timeout"})
	assert.Eventually(t, func() bool {
		comp, ok := ComponentStatus(ComponentBackend)
		return ok && !comp.Healthy && comp.Message == "dial timeout" && testutil.ToFloat64(BackendConnected) == 0
	}, time.Second, 10*time.Millisecond)
}
