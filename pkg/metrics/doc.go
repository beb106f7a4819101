/*
Package metrics exposes Prometheus metrics and health endpoints for cri-mcp.

Metrics are package-level collectors registered with the default registry in
init, so any package can record without plumbing a registry around:

	cri_mcp_tool_calls_total{tool,kind}          every dispatch, kind OK on success
	cri_mcp_tool_call_duration_seconds{tool}     dispatch latency
	cri_mcp_operations_in_flight{tool}           pending or running long calls
	cri_mcp_backend_requests_total{method,code}  every CRI / containerd RPC
	cri_mcp_backend_request_duration_seconds     RPC latency by method
	cri_mcp_backend_reconnects_total{result}     reconnect attempts
	cri_mcp_backend_connected                    1 while the connection is usable
	cri_mcp_sessions_active                      connected MCP sessions

# Health

The health checker keeps one entry per component. "backend" and "transport"
are critical: /ready answers 503 until both are registered and healthy. The
Collector keeps the backend entry current from connector events, so a failed
reconnect flips readiness without polling the socket.

	GET /health  200 healthy   | 503 unhealthy
	GET /ready   200 ready     | 503 not_ready
	GET /live    200 while the process runs
	GET /metrics Prometheus text format
*/
package metrics
