package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetHealth(version string) {
	healthChecker = &HealthChecker{
		components: make(map[string]ComponentHealth),
		startTime:  time.Now(),
		version:    version,
	}
}

func TestGetHealth(t *testing.T) {
	tests := []struct {
		name       string
		components map[string]bool
		wantStatus string
	}{
		{
			name:       "all healthy",
			components: map[string]bool{ComponentBackend: true, ComponentTransport: true},
			wantStatus: "healthy",
		},
		{
			name:       "backend stale",
			components: map[string]bool{ComponentBackend: false, ComponentTransport: true},
			wantStatus: "unhealthy",
		},
		{
			name:       "nothing registered",
			components: map[string]bool{},
			wantStatus: "healthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetHealth("1.0.0")
			for name, healthy := range tt.components {
				RegisterComponent(name, healthy, "reason")
			}

			health := GetHealth()
			assert.Equal(t, tt.wantStatus, health.Status)
			assert.Len(t, health.Components, len(tt.components))
			assert.Equal(t, "1.0.0", health.Version)
		})
	}
}

func TestGetReadiness(t *testing.T) {
	tests := []struct {
		name        string
		components  map[string]bool
		wantStatus  string
		wantMessage string
	}{
		{
			name:       "critical components ready",
			components: map[string]bool{ComponentBackend: true, ComponentTransport: true},
			wantStatus: "ready",
		},
		{
			name:        "transport not registered",
			components:  map[string]bool{ComponentBackend: true},
			wantStatus:  "not_ready",
			wantMessage: "waiting for transport initialization",
		},
		{
			name:        "backend unhealthy",
			components:  map[string]bool{ComponentBackend: false, ComponentTransport: true},
			wantStatus:  "not_ready",
			wantMessage: "waiting for backend",
		},
		{
			name:       "audit is not critical",
			components: map[string]bool{ComponentBackend: true, ComponentTransport: true, ComponentAudit: false},
			wantStatus: "ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetHealth("")
			for name, healthy := range tt.components {
				RegisterComponent(name, healthy, "")
			}

			readiness := GetReadiness()
			assert.Equal(t, tt.wantStatus, readiness.Status)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, readiness.Message)
			}
		})
	}
}

func TestHealthHandlers(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		healthy  bool
		wantCode int
	}{
		{"health ok", HealthHandler(), true, http.StatusOK},
		{"health unhealthy", HealthHandler(), false, http.StatusServiceUnavailable},
		{"ready ok", ReadyHandler(), true, http.StatusOK},
		{"ready not ready", ReadyHandler(), false, http.StatusServiceUnavailable},
		{"liveness ignores components", LivenessHandler(), false, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetHealth("test")
			RegisterComponent(ComponentBackend, tt.healthy, "socket closed")
			RegisterComponent(ComponentTransport, true, "")

			rec := httptest.NewRecorder()
			tt.handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body, "status")
		})
	}
}

func TestUpdateComponent(t *testing.T) {
	resetHealth("")
	RegisterComponent(ComponentBackend, true, "")
	UpdateComponent(ComponentBackend, false, "reconnect failed")

	comp, ok := ComponentStatus(ComponentBackend)
	require.True(t, ok)
	assert.False(t, comp.Healthy)
	assert.Equal(t, "reconnect failed", comp.Message)

	_, ok = ComponentStatus("missing")
	assert.False(t, ok)
}
