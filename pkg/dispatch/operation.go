package dispatch

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cuemby/cri-mcp/pkg/events"
	"github.com/cuemby/cri-mcp/pkg/metrics"
	"github.com/cuemby/cri-mcp/pkg/types"
	"github.com/google/uuid"
)

// finishedRetention is how many finished operations stay listed
const finishedRetention = 100

// Tracker records long-running calls as they move through
// Pending → Running → {Completed, Cancelled, Failed}
type Tracker struct {
	mu       sync.RWMutex
	ops      map[string]*types.Operation
	finished []string
	broker   *events.Broker
}

// NewTracker creates an empty tracker. broker may be nil.
func NewTracker(broker *events.Broker) *Tracker {
	return &Tracker{
		ops:    make(map[string]*types.Operation),
		broker: broker,
	}
}

// Start registers a new pending operation and returns its ID
func (t *Tracker) Start(tool string) string {
	op := &types.Operation{
		ID:        uuid.NewString(),
		Tool:      tool,
		State:     types.OperationPending,
		CreatedAt: time.Now(),
	}

	t.mu.Lock()
	t.ops[op.ID] = op
	t.mu.Unlock()

	metrics.OperationsInFlight.WithLabelValues(tool).Inc()
	t.publish(events.EventOperationStarted, op)
	return op.ID
}

// Running moves a pending operation to running
func (t *Tracker) Running(id string) error {
	t.mu.Lock()
	op, ok := t.ops[id]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("operation %s not found", id)
	}
	if op.State != types.OperationPending {
		state := op.State
		t.mu.Unlock()
		return fmt.Errorf("operation %s is %s, not pending", id, state)
	}
	op.State = types.OperationRunning
	op.StartedAt = time.Now()
	snapshot := *op
	t.mu.Unlock()

	t.publish(events.EventOperationRunning, &snapshot)
	return nil
}

// Finish moves an operation to its terminal state from the call's outcome:
// OK completes it, Cancelled cancels it and any other kind fails it
func (t *Tracker) Finish(id string, kind types.Kind) error {
	t.mu.Lock()
	op, ok := t.ops[id]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("operation %s not found", id)
	}
	if op.State.Terminal() {
		state := op.State
		t.mu.Unlock()
		return fmt.Errorf("operation %s already %s", id, state)
	}

	eventType := events.EventOperationFailed
	switch kind {
	case types.KindOK:
		op.State = types.OperationCompleted
		eventType = events.EventOperationCompleted
	case types.KindCancelled:
		op.State = types.OperationCancelled
		eventType = events.EventOperationCancelled
	default:
		op.State = types.OperationFailed
		op.FailedWith = kind
	}
	op.FinishedAt = time.Now()
	snapshot := *op

	t.finished = append(t.finished, id)
	if len(t.finished) > finishedRetention {
		delete(t.ops, t.finished[0])
		t.finished = t.finished[1:]
	}
	t.mu.Unlock()

	metrics.OperationsInFlight.WithLabelValues(snapshot.Tool).Dec()
	t.publish(eventType, &snapshot)
	return nil
}

// Get returns a snapshot of one operation
func (t *Tracker) Get(id string) (types.Operation, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	op, ok := t.ops[id]
	if !ok {
		return types.Operation{}, false
	}
	return *op, true
}

// List returns snapshots of all known operations, oldest first
func (t *Tracker) List() []types.Operation {
	t.mu.RLock()
	out := make([]types.Operation, 0, len(t.ops))
	for _, op := range t.ops {
		out = append(out, *op)
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Active returns the number of pending or running operations
func (t *Tracker) Active() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for _, op := range t.ops {
		if !op.State.Terminal() {
			n++
		}
	}
	return n
}

func (t *Tracker) publish(eventType events.EventType, op *types.Operation) {
	metadata := map[string]string{
		"operation_id": op.ID,
		"tool":         op.Tool,
		"state":        string(op.State),
	}
	if op.FailedWith != "" {
		metadata["kind"] = string(op.FailedWith)
	}
	t.broker.Publish(&events.Event{
		Type:     eventType,
		Message:  fmt.Sprintf("%s operation %s", op.Tool, op.State),
		Metadata: metadata,
	})
}
