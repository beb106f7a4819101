/*
Package events provides an in-memory event broker for cri-mcp.

Components announce state changes without knowing who listens: the backend
connector publishes connection changes, the operation tracker publishes
long-running call transitions and the bridge publishes session lifecycle.
The metrics collector is the main subscriber and turns these events into
gauges and health status.

	connector ─┐                                  ┌─► Subscribe("backend")
	tracker   ─┼──► queue (100) ──► deliver ──────┼─► Subscribe("operation")
	bridge    ─┘                                  └─► Subscribe()  every topic

Publish never blocks. A full queue or a full subscription buffer (50) drops
the event and counts it in Dropped; events are advisory and nothing depends
on receiving every one of them. A nil
*Broker is valid and discards all events, so components can be built without one
in tests.

# Usage

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe(events.TopicBackend)
	defer broker.Unsubscribe(sub)
	for ev := range sub.C {
		...
	}

	broker.Publish(&events.Event{
		Type:     events.EventBackendConnected,
		Metadata: map[string]string{"endpoint": endpoint},
	})
*/
package events
