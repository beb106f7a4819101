package metrics

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Health component names
const (
	ComponentBackend   = "backend"
	ComponentTransport = "transport"
	ComponentAudit     = "audit"
)

// CriticalComponents must be registered and healthy for the bridge to be ready
var CriticalComponents = []string{ComponentBackend, ComponentTransport}

// Report statuses
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusReady     = "ready"
	StatusNotReady  = "not_ready"
)

// HealthStatus is the body of /health and /ready
type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components,omitempty"`
	Message    string            `json:"message,omitempty"`
	Version    string            `json:"version,omitempty"`
	Uptime     string            `json:"uptime,omitempty"`
	StartTime  time.Time         `json:"-"`
}

// ComponentHealth is the last reported state of one component
type ComponentHealth struct {
	Name    string
	Healthy bool
	Message string
	Updated time.Time
}

// HealthChecker holds component states reported by the connector,
// the transports and the journal
type HealthChecker struct {
	mu         sync.RWMutex
	components map[string]ComponentHealth
	startTime  time.Time
	version    string
}

var healthChecker = &HealthChecker{
	components: make(map[string]ComponentHealth),
	startTime:  time.Now(),
}

// SetVersion sets the version reported by /health and /ready
func SetVersion(version string) {
	healthChecker.mu.Lock()
	healthChecker.version = version
	healthChecker.mu.Unlock()
}

// RegisterComponent records the state of a component, replacing any
// earlier report
func RegisterComponent(name string, healthy bool, message string) {
	healthChecker.mu.Lock()
	defer healthChecker.mu.Unlock()
	healthChecker.components[name] = ComponentHealth{
		Name:    name,
		Healthy: healthy,
		Message: message,
		Updated: time.Now(),
	}
}

// UpdateComponent records a state change of a registered component
func UpdateComponent(name string, healthy bool, message string) {
	RegisterComponent(name, healthy, message)
}

// ComponentStatus returns the last recorded health of a component
func ComponentStatus(name string) (ComponentHealth, bool) {
	healthChecker.mu.RLock()
	defer healthChecker.mu.RUnlock()
	comp, ok := healthChecker.components[name]
	return comp, ok
}

// GetHealth reports every registered component. One unhealthy component
// makes the whole report unhealthy.
func GetHealth() HealthStatus {
	healthChecker.mu.RLock()
	defer healthChecker.mu.RUnlock()

	report := healthChecker.report(StatusHealthy)
	for name, comp := range healthChecker.components {
		if comp.Healthy {
			report.Components[name] = StatusHealthy
			continue
		}
		report.Status = StatusUnhealthy
		report.Components[name] = StatusUnhealthy + ": " + comp.Message
	}
	return report
}

// GetReadiness reports only the critical components. The bridge is ready
// once the backend is connected and a transport is serving.
func GetReadiness() HealthStatus {
	healthChecker.mu.RLock()
	defer healthChecker.mu.RUnlock()

	report := healthChecker.report(StatusReady)
	var waiting []string
	for _, name := range CriticalComponents {
		comp, ok := healthChecker.components[name]
		switch {
		case !ok:
			report.Components[name] = "not registered"
			waiting = append(waiting, name+" initialization")
		case !comp.Healthy:
			report.Components[name] = "not ready: " + comp.Message
			waiting = append(waiting, name)
		default:
			report.Components[name] = StatusReady
		}
	}

	if len(waiting) > 0 {
		report.Status = StatusNotReady
		report.Message = "waiting for " + strings.Join(waiting, ", ")
	}
	return report
}

func (h *HealthChecker) report(status string) HealthStatus {
	return HealthStatus{
		Status:     status,
		Timestamp:  time.Now(),
		Components: make(map[string]string),
		Version:    h.version,
		Uptime:     time.Since(h.startTime).String(),
		StartTime:  h.startTime,
	}
}

// HealthHandler serves /health: 503 when any component is unhealthy
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := GetHealth()
		writeStatus(w, health, health.Status == StatusHealthy)
	}
}

// ReadyHandler serves /ready: 503 until the critical components are up
func ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		readiness := GetReadiness()
		writeStatus(w, readiness, readiness.Status == StatusReady)
	}
}

// LivenessHandler reports 200 while the process is running
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, map[string]string{
			"status": "alive",
			"uptime": time.Since(healthChecker.startTime).String(),
		}, true)
	}
}

func writeStatus(w http.ResponseWriter, body any, ok bool) {
	w.Header().Set("Content-Type", "application/json")
	if ok {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(body)
}
