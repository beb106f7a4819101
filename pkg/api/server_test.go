package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cuemby/cri-mcp/pkg/log"
	"github.com/cuemby/cri-mcp/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutes(t *testing.T) {
	metrics.RegisterComponent(metrics.ComponentBackend, true, "connected")
	metrics.RegisterComponent(metrics.ComponentTransport, true, "stdio")
	s := NewServer("127.0.0.1:0")

	tests := []struct {
		path           string
		method         string
		expectedStatus int
	}{
		{path: "/health", method: http.MethodGet, expectedStatus: http.StatusOK},
		{path: "/ready", method: http.MethodGet, expectedStatus: http.StatusOK},
		{path: "/live", method: http.MethodGet, expectedStatus: http.StatusOK},
		{path: "/metrics", method: http.MethodGet, expectedStatus: http.StatusOK},
		{path: "/health", method: http.MethodPost, expectedStatus: http.StatusMethodNotAllowed},
		{path: "/ready", method: http.MethodDelete, expectedStatus: http.StatusMethodNotAllowed},
		{path: "/nonexistent", method: http.MethodGet, expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			s.Handler().ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code, "Path: %s", tt.path)
		})
	}
}

func TestReadyReflectsBackend(t *testing.T) {
	s := NewServer("127.0.0.1:0")
	metrics.RegisterComponent(metrics.ComponentTransport, true, "stdio")
	metrics.UpdateComponent(metrics.ComponentBackend, false, "reconnect failed")
	defer metrics.UpdateComponent(metrics.ComponentBackend, true, "connected")

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var status metrics.HealthStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	assert.Equal(t, "not_ready", status.Status)
	assert.Contains(t, status.Components[metrics.ComponentBackend], "reconnect failed")
}

func TestHandleMountsTransport(t *testing.T) {
	s := NewServer("127.0.0.1:0")
	s.Handle("/mcp", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestServeAndShutdown(t *testing.T) {
	var logs bytes.Buffer
	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true, Output: &logs})
	defer log.Init(log.Config{Level: log.InfoLevel})

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := NewServer(lis.Addr().String())
	done := make(chan error, 1)
	go func() { done <- s.Serve(lis) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + lis.Addr().String() + "/live")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.NoError(t, <-done)

	assert.Contains(t, logs.String(), `"component":"api"`)
	assert.Contains(t, logs.String(), `"address":"`+lis.Addr().String()+`"`)
}
