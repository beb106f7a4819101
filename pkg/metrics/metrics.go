package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Tool call metrics
	ToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cri_mcp_tool_calls_total",
			Help: "Total number of tool calls by tool and result kind",
		},
		[]string{"tool", "kind"},
	)

	ToolCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cri_mcp_tool_call_duration_seconds",
			Help:    "Tool call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tool"},
	)

	OperationsInFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cri_mcp_operations_in_flight",
			Help: "Number of long-running operations currently pending or running",
		},
		[]string{"tool"},
	)

	// Backend metrics
	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cri_mcp_backend_requests_total",
			Help: "Total number of backend RPCs by method and status code",
		},
		[]string{"method", "code"},
	)

	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cri_mcp_backend_request_duration_seconds",
			Help:    "Backend RPC duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	BackendReconnectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cri_mcp_backend_reconnects_total",
			Help: "Total number of backend reconnect attempts by result",
		},
		[]string{"result"},
	)

	BackendConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cri_mcp_backend_connected",
			Help: "Whether the backend connection is usable (1 = connected, 0 = stale)",
		},
	)

	// Session metrics
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cri_mcp_sessions_active",
			Help: "Number of connected MCP sessions",
		},
	)
)

func init() {
	prometheus.MustRegister(ToolCallsTotal)
	prometheus.MustRegister(ToolCallDuration)
	prometheus.MustRegister(OperationsInFlight)
	prometheus.MustRegister(BackendRequestsTotal)
	prometheus.MustRegister(BackendRequestDuration)
	prometheus.MustRegister(BackendReconnectsTotal)
	prometheus.MustRegister(BackendConnected)
	prometheus.MustRegister(SessionsActive)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
