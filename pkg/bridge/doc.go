/*
Package bridge exposes the tool catalog as an MCP server.

One Server is built per process and shared by every session. Tools are
registered from the catalog descriptors, and a receiving middleware keeps
tools/list in catalog order. The middleware also answers calls to unknown
tools with an UnknownTool tool error, so clients see a result rather than a
protocol error.

Results are rendered twice: as JSON text for clients that only read
content, and as structured content. A failed call sets isError and starts
its text with the failure kind:

	NotFound: container "c1" not found

Transports:

	stdio   one session over stdin/stdout, ends when the client closes stdin
	http    streamable HTTP on <address>/mcp
	sse     HTTP+SSE on <address>/sse

The network transports share their listener with /health, /ready, /live
and /metrics. For stdio those are served only when a metrics address is
configured, since stdout carries the protocol.
*/
package bridge
