package events

import (
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// EventType is a dotted name; the part before the dot is its topic
type EventType string

// Topics, matched as prefixes of EventType
const (
	TopicOperation = "operation"
	TopicBackend   = "backend"
	TopicSession   = "session"
)

const (
	EventOperationStarted   EventType = "operation.started"
	EventOperationRunning   EventType = "operation.running"
	EventOperationCompleted EventType = "operation.completed"
	EventOperationCancelled EventType = "operation.cancelled"
	EventOperationFailed    EventType = "operation.failed"

	EventBackendConnected       EventType = "backend.connected"
	EventBackendStale           EventType = "backend.stale"
	EventBackendReconnectFailed EventType = "backend.reconnect_failed"

	EventSessionOpened EventType = "session.opened"
	EventSessionClosed EventType = "session.closed"
)

const (
	queueSize        = 100
	subscriptionSize = 50
)

// Topic returns the part of the type before the first dot
func (t EventType) Topic() string {
	topic, _, _ := strings.Cut(string(t), ".")
	return topic
}

// Event is a state change announced by the connector, the operation
// tracker or the bridge
type Event struct {
	ID        string
	Type      EventType
	Timestamp time.Time
	Message   string
	Metadata  map[string]string
}

// Subscription receives the events of its topics on C
type Subscription struct {
	C <-chan *Event

	ch      chan *Event
	topics  []string
	dropped atomic.Uint64
}

// Dropped counts events not delivered because C was full
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *Subscription) wants(t EventType) bool {
	return len(s.topics) == 0 || slices.Contains(s.topics, t.Topic())
}

// Broker fans events out to subscriptions. Publish never blocks.
type Broker struct {
	mu   sync.RWMutex
	subs []*Subscription

	queue    chan *Event
	stopCh   chan struct{}
	stopOnce sync.Once
	dropped  atomic.Uint64
}

// NewBroker creates a broker; call Start to begin delivery
func NewBroker() *Broker {
	return &Broker{
		queue:  make(chan *Event, queueSize),
		stopCh: make(chan struct{}),
	}
}

// Start begins delivering queued events
func (b *Broker) Start() {
	go b.run()
}

// Stop ends delivery. Safe to call more than once.
func (b *Broker) Stop() {
	b.stopOnce.Do(func() { close(b.stopCh) })
}

// Subscribe returns a subscription to the given topics, or to every
// event when none are given
func (b *Broker) Subscribe(topics ...string) *Subscription {
	ch := make(chan *Event, subscriptionSize)
	sub := &Subscription{C: ch, ch: ch, topics: topics}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
	return sub
}

// Unsubscribe removes sub and closes its channel
func (b *Broker) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := slices.Index(b.subs, sub)
	if i < 0 {
		return
	}
	b.subs = slices.Delete(b.subs, i, i+1)
	close(sub.ch)
}

// Publish queues an event. It is dropped when the queue is full or the
// broker is stopped. A nil broker discards everything.
func (b *Broker) Publish(event *Event) {
	if b == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case <-b.stopCh:
		return
	default:
	}

	select {
	case b.queue <- event:
	default:
		b.dropped.Add(1)
	}
}

// Dropped counts events lost to a full queue
func (b *Broker) Dropped() uint64 {
	return b.dropped.Load()
}

// SubscriberCount returns the number of subscriptions
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broker) run() {
	for {
		select {
		case event := <-b.queue:
			b.deliver(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) deliver(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if !sub.wants(event.Type) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			sub.dropped.Add(1)
		}
	}
}
