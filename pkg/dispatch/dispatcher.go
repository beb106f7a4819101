package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cuemby/cri-mcp/pkg/catalog"
	"github.com/cuemby/cri-mcp/pkg/log"
	"github.com/cuemby/cri-mcp/pkg/metrics"
	"github.com/cuemby/cri-mcp/pkg/schema"
	"github.com/cuemby/cri-mcp/pkg/types"
	"github.com/google/uuid"
)

const (
	DefaultCallTimeout        = 30 * time.Second
	DefaultLongRunningTimeout = 10 * time.Minute

	// unknownToolLabel keeps caller-chosen names out of metric labels
	unknownToolLabel = "unknown"
)

// Journal receives one record per completed call
type Journal interface {
	Record(rec types.CallRecord) error
}

// Options configures a Dispatcher
type Options struct {
	// CallTimeout bounds ordinary calls
	CallTimeout time.Duration
	// LongRunningTimeout bounds exec_sync, pull_image and event collection
	LongRunningTimeout time.Duration
	Journal            Journal
}

// Dispatcher turns tool calls into backend calls. It holds no per-session
// state and is safe for concurrent use.
type Dispatcher struct {
	catalog  *catalog.Catalog
	services catalog.Services
	tracker  *Tracker
	opts     Options
}

// New creates a dispatcher over a catalog and its backends. The tracker is
// wired in as the services' operation lister.
func New(cat *catalog.Catalog, services catalog.Services, tracker *Tracker, opts Options) *Dispatcher {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	if opts.LongRunningTimeout <= 0 {
		opts.LongRunningTimeout = DefaultLongRunningTimeout
	}
	if tracker == nil {
		tracker = NewTracker(nil)
	}
	services.Operations = tracker

	return &Dispatcher{
		catalog:  cat,
		services: services,
		tracker:  tracker,
		opts:     opts,
	}
}

// Catalog returns the catalog the dispatcher serves
func (d *Dispatcher) Catalog() *catalog.Catalog {
	return d.catalog
}

// Tracker returns the long-running operation tracker
func (d *Dispatcher) Tracker() *Tracker {
	return d.tracker
}

// DispatchRaw decodes a raw JSON argument object and dispatches the call.
// Integers keep their full precision. An unknown tool is reported as such
// before the arguments are looked at.
func (d *Dispatcher) DispatchRaw(ctx context.Context, name string, raw json.RawMessage) types.ToolResult {
	if _, ok := d.catalog.Lookup(name); !ok {
		return d.Dispatch(ctx, types.ToolCall{Name: name})
	}
	args, err := schema.DecodeRaw(raw)
	if err != nil {
		started := time.Now()
		result := types.Fail(types.KindInvalidArguments, err.Error())
		d.finish(name, "", started, result, err)
		return result
	}
	return d.Dispatch(ctx, types.ToolCall{Name: name, Arguments: args})
}

// Dispatch runs one tool call and returns exactly one result. It never
// retries; transport retries live in the backend connector.
func (d *Dispatcher) Dispatch(ctx context.Context, call types.ToolCall) types.ToolResult {
	started := time.Now()

	entry, ok := d.catalog.Lookup(call.Name)
	if !ok {
		result := types.Fail(types.KindUnknownTool, fmt.Sprintf("unknown tool %q", call.Name))
		d.finish(call.Name, "", started, result, nil)
		return result
	}

	req, err := entry.Encode(call.Arguments)
	if err != nil {
		kind, msg := classify(ctx, err)
		result := types.Fail(kind, msg)
		d.finish(entry.Name, "", started, result, err)
		return result
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout(entry, req.Args))
	defer cancel()

	var opID string
	if entry.LongRunning {
		opID = d.tracker.Start(entry.Name)
		_ = d.tracker.Running(opID)
	}

	var result types.ToolResult
	payload, err := entry.Invoke(callCtx, &d.services, req)
	if err != nil {
		kind, msg := classify(callCtx, err)
		result = types.Fail(kind, msg)
	} else {
		result = types.Success(payload)
	}

	if opID != "" {
		_ = d.tracker.Finish(opID, result.Kind())
	}
	d.finish(entry.Name, opID, started, result, err)
	return result
}

// timeout picks the deadline for a call: the long-running or ordinary bound,
// raised when the arguments themselves ask for longer
func (d *Dispatcher) timeout(entry *catalog.Entry, args schema.Values) time.Duration {
	timeout := d.opts.CallTimeout
	if entry.LongRunning {
		timeout = d.opts.LongRunningTimeout
	}
	if entry.Timeout != nil {
		if t := entry.Timeout(args); t > timeout {
			timeout = t
		}
	}
	return timeout
}

// finish records metrics, the audit journal entry and the log line for a call
func (d *Dispatcher) finish(tool, opID string, started time.Time, result types.ToolResult, cause error) {
	elapsed := time.Since(started)
	kind := result.Kind()

	label := tool
	if _, ok := d.catalog.Lookup(tool); !ok {
		label = unknownToolLabel
	}
	metrics.ToolCallsTotal.WithLabelValues(label, string(kind)).Inc()
	metrics.ToolCallDuration.WithLabelValues(label).Observe(elapsed.Seconds())

	logger := log.WithCall(tool, opID).With().Str("kind", string(kind)).Dur("duration", elapsed).Logger()
	switch kind {
	case types.KindOK:
		logger.Debug().Msg("Tool call completed")
	case types.KindInternal:
		ev := logger.Error()
		if cause != nil {
			ev = ev.Err(cause)
		}
		ev.Msg("Tool call failed")
	case types.KindUnknownTool, types.KindInvalidArguments:
		logger.Debug().Str("reason", result.Failure().Message).Msg("Tool call rejected")
	default:
		logger.Info().Str("reason", result.Failure().Message).Msg("Tool call failed")
	}

	if d.opts.Journal == nil {
		return
	}
	rec := types.CallRecord{
		ID:        opID,
		Tool:      tool,
		Kind:      kind,
		StartedAt: started,
		Duration:  elapsed,
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if f := result.Failure(); f != nil {
		rec.Message = f.Message
	}
	if err := d.opts.Journal.Record(rec); err != nil {
		logger.Warn().Err(err).Msg("Failed to record call in audit journal")
	}
}
