/*
Package dispatch runs tool calls against the runtime.

The Dispatcher is the only path from a tool name and its arguments to a
backend call. It is stateless per session, safe for concurrent use, and
produces exactly one types.ToolResult per call: either a JSON-ready payload
or a failure with a kind and a message.

# Architecture

	┌─────────────────────────── DISPATCHER ────────────────────────────┐
	│                                                                    │
	│   MCP session / CLI                                                │
	│        │ DispatchRaw(name, raw JSON)  or  Dispatch(ToolCall)       │
	│        ▼                                                           │
	│   ┌──────────┐   ┌───────────────────┐   ┌──────────────────────┐  │
	│   │ Lookup   │──►│ Validate + Encode │──►│ deadline             │  │
	│   │ catalog  │   │ schema, binding   │   │ call or long-running │  │
	│   └────┬─────┘   └─────────┬─────────┘   └──────────┬───────────┘  │
	│        │ miss              │ error                  ▼              │
	│        ▼                   ▼             ┌──────────────────────┐  │
	│   UnknownTool      InvalidArguments      │ Tracker (long calls) │  │
	│                                          │ Pending ► Running    │  │
	│                                          └──────────┬───────────┘  │
	│                                                     ▼              │
	│                                          ┌──────────────────────┐  │
	│                                          │ Invoke via connector │  │
	│                                          └──────────┬───────────┘  │
	│                               status error          │ response     │
	│                        ┌────────────────────────────┤              │
	│                        ▼                            ▼              │
	│                 KindForCode / classify        Decode to view       │
	│                        │                            │              │
	│                        └─────────────┬──────────────┘              │
	│                                      ▼                             │
	│                   finish: metrics, log line, audit journal         │
	└────────────────────────────────────────────────────────────────────┘

A call goes through a fixed sequence and produces exactly one result:

	lookup ──► validate + encode ──► invoke (with deadline) ──► decode
	  │               │                     │                     │
	UnknownTool   InvalidArguments    kind from status       Internal

DispatchRaw looks the tool up before decoding its raw JSON arguments, so an
unknown tool is reported as UnknownTool whatever its arguments look like.
Integers in raw arguments keep their full precision until validation.

# Failure Kinds

Backend status codes map to failure kinds with the backend's message kept
verbatim:

	NotFound                        ──► NotFound
	AlreadyExists                   ──► AlreadyExists
	PermissionDenied, Unauthenticated ► PermissionDenied
	InvalidArgument, OutOfRange     ──► InvalidArguments
	FailedPrecondition              ──► FailedPrecondition
	Unimplemented                   ──► Unimplemented
	Unavailable                     ──► Unavailable
	DeadlineExceeded                ──► DeadlineExceeded
	Canceled (caller gone)          ──► Cancelled
	Canceled (caller still waiting) ──► Unavailable
	anything else                   ──► Internal

The call context decides between caller cancellation and a backend-reported
condition: if the caller's context is done, the result is Cancelled or
DeadlineExceeded regardless of the status the backend returned.

Decode failures are bridge bugs: they are logged in full and the client only
sees an opaque Internal message. The dispatcher never retries; transport
retries belong to the runtime connector.

# Deadlines

Every call gets a deadline: the ordinary call timeout (30s default), or the
long-running timeout (10m default) for exec_sync, pull_image and
container_events. A tool may ask for more from its own arguments:

	stop_container  timeout + 10s
	exec_sync       timeout + 5s
	container_events duration_seconds + 5s

The larger of the default and the tool's own deadline wins. Timeout
arguments are bounded at validation, so the deadline never overflows.

# Operations

Long-running calls are tracked as operations:

	Pending ──► Running ──┬──► Completed
	                      ├──► Cancelled   (caller went away)
	                      └──► Failed      (any other kind, incl. DeadlineExceeded)

Each transition is published on the broker as operation.started,
operation.running, operation.completed, operation.cancelled or
operation.failed, and cri_mcp_operations_in_flight tracks active operations
per tool. The Tracker keeps the most recent finished operations for
list_operations.

Cancelling the caller's context cancels the backend call, so an exec stream
is released before Dispatch returns Cancelled.

# Audit Journal

When Options.Journal is set, finish writes one types.CallRecord per call:
tool, kind, start time, duration and the failure message. Long-running calls
reuse the operation ID as the record ID. A journal write failure is logged
and never changes the call's result.

# Usage

	tracker := dispatch.NewTracker(broker)
	d := dispatch.New(cat, catalog.Services{
		Runtime: conn.RuntimeService(),
		Image:   conn.ImageService(),
	}, tracker, dispatch.Options{Journal: journal})

	result := d.Dispatch(ctx, types.ToolCall{
		Name:      "list_containers",
		Arguments: map[string]any{"state": "RUNNING"},
	})
	if !result.OK() {
		fmt.Println(result.Kind(), result.Failure().Message)
	}

# Integration Points

  - pkg/bridge calls DispatchRaw for every MCP tools/call
  - cmd/cri-mcp call runs Dispatch from the command line
  - pkg/catalog supplies entries; pkg/runtime supplies the clients
  - pkg/metrics records cri_mcp_tool_calls_total and
    cri_mcp_tool_call_duration_seconds, with unknown tool names folded into
    a single "unknown" label

# Logging

Each call logs once through log.WithCall with the tool, kind and duration.
Successful calls log at debug, rejected calls (UnknownTool,
InvalidArguments) at debug with the reason, backend failures at info and
Internal failures at error with the underlying cause.
*/
package dispatch
