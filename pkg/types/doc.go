/*
Package types defines the core data structures shared across cri-mcp.

These types sit between the transport-facing bridge and the backend-facing
catalog, so neither side has to import the other:

  - ToolDescriptor: the advertised name, description and argument schema of a tool
  - ToolCall: a decoded inbound invocation (name + argument object)
  - ToolResult: Success(payload) or Fail(kind, message), immutable once built
  - Kind: the failure taxonomy surfaced to clients
  - Operation: snapshot of a long-running call (pull, exec, event watch)
  - CallRecord: audit journal entry

# Failure Kinds

	UnknownTool         tool name absent from the catalog
	InvalidArguments    argument failed validation, message names the field
	NotFound            backend reports the object does not exist
	AlreadyExists       backend reports a name or id conflict
	PermissionDenied    backend refused the call (also unauthenticated)
	FailedPrecondition  object is in the wrong state for the call
	Unimplemented       backend does not implement the RPC
	Unavailable         backend unreachable or reconnect failed
	DeadlineExceeded    per-call timeout elapsed
	Cancelled           client aborted the call
	Internal            bridge fault, details only in the logs

# Operation States

	Pending ──► Running ──► Completed
	   │           ├──────► Cancelled
	   │           └──────► Failed
	   └──────────────────► Cancelled | Failed
*/
package types
