package catalog

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/cuemby/cri-mcp/pkg/schema"
	runtimeapi "k8s.io/cri-api/pkg/apis/runtime/v1"
)

const (
	defaultEventWindow = int64(10)
	maxEventWindow     = int64(600)
	defaultMaxEvents   = int64(100)
	maxMaxEvents       = int64(10000)
	eventMargin        = 5 * time.Second
)

// Reasons an event collection ended
const (
	endWindow    = "window"
	endMaxEvents = "max_events"
	endStream    = "stream_closed"
)

type eventsRequest struct {
	containerID string
	window      time.Duration
	max         int
}

type eventBatch struct {
	events []eventView
	ended  string
}

func eventEntries() []*Entry {
	return []*Entry{
		{
			Name:        "container_events",
			Group:       GroupEvents,
			Description: "Collect container lifecycle events (created, started, stopped, deleted) for duration_seconds or until max_events arrive. Requires a runtime with evented PLEG support.",
			Args: schema.NewArgs(
				schema.Str("container_id", "Only events for this container"),
				schema.Int("duration_seconds", schema.Int64, "How long to listen, 1 to 600").WithDefault(defaultEventWindow),
				schema.Int("max_events", schema.Int64, "Stop after this many events, 1 to 10000").WithDefault(defaultMaxEvents),
			),
			Result:      "{events: [{container_id, type, created_at, pod_id}], ended}",
			ReadOnly:    true,
			LongRunning: true,
			Timeout: func(args schema.Values) time.Duration {
				return time.Duration(args.Int64("duration_seconds"))*time.Second + eventMargin
			},
			binding: bind(
				func(args schema.Values) (eventsRequest, error) {
					window := args.Int64("duration_seconds")
					if window < 1 || window > maxEventWindow {
						return eventsRequest{}, schema.Errorf("duration_seconds", "must be between 1 and %d, got %d", maxEventWindow, window)
					}
					limit := args.Int64("max_events")
					if limit < 1 || limit > maxMaxEvents {
						return eventsRequest{}, schema.Errorf("max_events", "must be between 1 and %d, got %d", maxMaxEvents, limit)
					}
					return eventsRequest{
						containerID: args.String("container_id"),
						window:      time.Duration(window) * time.Second,
						max:         int(limit),
					}, nil
				},
				collectEvents,
				func(b eventBatch) (any, error) {
					return map[string]any{"events": b.events, "ended": b.ended}, nil
				},
			),
		},
	}
}

// collectEvents reads the event stream until the window closes, enough
// events arrive or the runtime ends the stream. The window closing is a
// normal end; the caller's own deadline or cancellation is an error.
func collectEvents(ctx context.Context, svc *Services, req eventsRequest) (eventBatch, error) {
	windowCtx, cancel := context.WithTimeout(ctx, req.window)
	defer cancel()

	batch := eventBatch{events: []eventView{}}
	windowClosed := func() bool {
		return ctx.Err() == nil && errors.Is(windowCtx.Err(), context.DeadlineExceeded)
	}

	stream, err := svc.Runtime.GetContainerEvents(windowCtx, &runtimeapi.GetEventsRequest{})
	if err != nil {
		if windowClosed() {
			batch.ended = endWindow
			return batch, nil
		}
		return batch, err
	}

	for len(batch.events) < req.max {
		ev, err := stream.Recv()
		if err != nil {
			switch {
			case windowClosed():
				batch.ended = endWindow
				return batch, nil
			case errors.Is(err, io.EOF):
				batch.ended = endStream
				return batch, nil
			}
			return batch, err
		}
		if req.containerID != "" && ev.GetContainerId() != req.containerID {
			continue
		}
		batch.events = append(batch.events, eventView{
			ContainerID: ev.GetContainerId(),
			Type:        eventTypeName(ev.GetContainerEventType()),
			CreatedAt:   formatNanos(ev.GetCreatedAt()),
			PodID:       ev.GetPodSandboxStatus().GetId(),
		})
	}
	batch.ended = endMaxEvents
	return batch, nil
}

// eventTypeName renders CONTAINER_STARTED_EVENT as STARTED
func eventTypeName(t runtimeapi.ContainerEventType) string {
	return strings.TrimSuffix(enumName(t.String(), "CONTAINER_"), "_EVENT")
}
