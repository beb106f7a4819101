package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub *Subscription) *Event {
	t.Helper()
	select {
	case ev := <-sub.C:
		return ev
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
		return nil
	}
}

func TestBrokerDeliversToAllSubscribers(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub1 := b.Subscribe()
	sub2 := b.Subscribe()
	assert.Equal(t, 2, b.SubscriberCount())

	b.Publish(&Event{Type: EventBackendConnected, Message: "connected"})

	for _, sub := range []*Subscription{sub1, sub2} {
		ev := receive(t, sub)
		assert.Equal(t, EventBackendConnected, ev.Type)
		assert.NotEmpty(t, ev.ID)
		assert.False(t, ev.Timestamp.IsZero())
	}
}

func TestSubscriptionTopics(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	backend := b.Subscribe(TopicBackend)
	all := b.Subscribe()

	b.Publish(&Event{Type: EventOperationStarted})
	b.Publish(&Event{Type: EventBackendStale})

	assert.Equal(t, EventOperationStarted, receive(t, all).Type)
	assert.Equal(t, EventBackendStale, receive(t, all).Type)
	assert.Equal(t, EventBackendStale, receive(t, backend).Type)

	select {
	case ev := <-backend.C:
		t.Fatalf("unexpected %s on backend subscription", ev.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventTypeTopic(t *testing.T) {
	tests := []struct {
		eventType EventType
		want      string
	}{
		{EventOperationCancelled, TopicOperation},
		{EventBackendReconnectFailed, TopicBackend},
		{EventSessionOpened, TopicSession},
		{EventType("plain"), "plain"},
	}
	for _, tt := range tests {
		t.Run(string(tt.eventType), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.eventType.Topic())
		})
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	b := NewBroker()
	// Not started: the queue fills and further events are dropped.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			b.Publish(&Event{Type: EventOperationStarted})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked")
	}
	assert.Equal(t, uint64(500-queueSize), b.Dropped())
}

func TestSlowSubscriberDrops(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe()
	for i := 0; i < subscriptionSize+5; i++ {
		b.deliver(&Event{Type: EventSessionOpened})
	}
	assert.Equal(t, uint64(5), sub.Dropped())
}

func TestPublishAfterStopAndNilBroker(t *testing.T) {
	b := NewBroker()
	b.Start()
	b.Stop()
	b.Stop()
	b.Publish(&Event{Type: EventBackendStale})

	var nilBroker *Broker
	require.NotPanics(t, func() {
		nilBroker.Publish(&Event{Type: EventBackendStale})
	})
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe()
	b.Unsubscribe(sub)
	b.Unsubscribe(sub)

	_, open := <-sub.C
	assert.False(t, open)
	assert.Equal(t, 0, b.SubscriberCount())
}
