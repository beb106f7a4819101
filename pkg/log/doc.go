/*
Package log provides structured logging for cri-mcp using zerolog.

A single global logger is configured once at startup through Init and shared by
every package. Child loggers add context fields so that a line can be traced
back to the component, tool or long-running operation that produced it.

# Output

Logs always go to stderr unless another writer is configured. When the bridge
runs on the stdio transport, stdout carries the JSON-RPC stream to the client
and a single stray log line would corrupt it.

	┌──────────── cri-mcp process ────────────┐
	│                                          │
	│  stdin  ──► MCP session (JSON-RPC)       │
	│  stdout ◄── MCP session (JSON-RPC)       │
	│  stderr ◄── zerolog (console or JSON)    │
	│                                          │
	└──────────────────────────────────────────┘

# Context Loggers

  - WithComponent("connector"): backend connection lifecycle
  - WithCall("pull_image", id): one line per dispatched call, with the
    operation id for long-running tools
  - WithSession(id): MCP session lifecycle

# Usage

	log.Init(log.Config{
		Level:      log.ParseLevel(cfg.Log.Level),
		JSONOutput: cfg.Log.JSON,
	})

	logger := log.WithComponent("connector")
	logger.Info().Str("endpoint", endpoint).Msg("Connected to runtime")

Levels follow zerolog: debug, info, warn and error. Tool failures caused by the
caller (unknown tool, invalid arguments, not found) are logged at debug. Bridge
faults (kind Internal) are logged at error with the full backend error, which is
never returned to the client.
*/
package log
