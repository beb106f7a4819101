/*
Package api provides the bridge's HTTP server.

One listener carries both the operational endpoints and, for the network
transports, the MCP endpoint:

	GET  /health    component health, 503 when any component is unhealthy
	GET  /ready     503 until the backend and transport are up
	GET  /live      200 while the process runs
	GET  /metrics   Prometheus exposition
	*    /mcp       streamable HTTP transport (transport=http)
	*    /sse       SSE transport (transport=sse)

With the stdio transport the MCP session runs over stdin/stdout and this
server only starts when metrics.address is set.

The server has no write timeout because MCP responses may stream for the
whole session. Shutdown drains active requests until its context ends.
*/
package api
