package obs

import (
	"errors"
	"sync"
	"time"

	"github.com/shieldedpay/transferzk/internal/transfer"
)

// HealthStatus represents the health status of a component.
type HealthStatus string

const (
	Healthy   HealthStatus = "healthy"
	Degraded  HealthStatus = "degraded"
	Unhealthy HealthStatus = "unhealthy"
)

// ComponentHealth represents the health of a specific component: the
// key-context (can it still produce proofs that self-verify?), the
// rate limiter, the audit log.
type ComponentHealth struct {
	Name      string        `json:"name"`
	Status    HealthStatus  `json:"status"`
	Message   string        `json:"message"`
	LastCheck time.Time     `json:"last_check"`
	Latency   time.Duration `json:"latency,omitempty"`
}

// SystemHealth represents the overall service health.
type SystemHealth struct {
	OverallStatus HealthStatus      `json:"overall_status"`
	Timestamp     time.Time         `json:"timestamp"`
	Components    []ComponentHealth `json:"components"`
	Uptime        time.Duration     `json:"uptime"`
	Version       string            `json:"version"`
}

// HealthChecker manages health checks for the proof-generation service.
type HealthChecker struct {
	mu         sync.RWMutex
	components map[string]*ComponentHealth
	startTime  time.Time
	version    string
	checkers   map[string]func() error
}

// NewHealthChecker creates a new health checker.
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{
		components: make(map[string]*ComponentHealth),
		startTime:  time.Now(),
		version:    version,
		checkers:   make(map[string]func() error),
	}
}

// RegisterComponent registers a health check for a component.
func (hc *HealthChecker) RegisterComponent(name string, checker func() error) {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	hc.components[name] = &ComponentHealth{
		Name:      name,
		Status:    Healthy,
		Message:   "component registered",
		LastCheck: time.Now(),
	}
	hc.checkers[name] = checker
}

// UpdateComponent updates the health status of a component directly,
// bypassing its registered checker (used when a Prove call itself
// discovers a component is unhealthy, e.g. a corrupt proving key).
func (hc *HealthChecker) UpdateComponent(name string, status HealthStatus, message string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	if component, exists := hc.components[name]; exists {
		component.Status = status
		component.Message = message
		component.LastCheck = time.Now()
	}
}

// CheckHealth runs every registered component's checker and returns the
// aggregate system health.
func (hc *HealthChecker) CheckHealth() *SystemHealth {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	overallStatus := Healthy
	components := make([]ComponentHealth, 0, len(hc.components))

	for name, component := range hc.components {
		if checker, exists := hc.checkers[name]; exists {
			start := time.Now()
			err := checker()
			latency := time.Since(start)

			if err != nil {
				component.Status, component.Message = classifyCheckError(err)
			} else {
				component.Status = Healthy
				component.Message = "OK"
			}

			component.LastCheck = time.Now()
			component.Latency = latency
		}

		if component.Status == Unhealthy {
			overallStatus = Unhealthy
		} else if component.Status == Degraded && overallStatus == Healthy {
			overallStatus = Degraded
		}

		components = append(components, *component)
	}

	return &SystemHealth{
		OverallStatus: overallStatus,
		Timestamp:     time.Now(),
		Components:    components,
		Uptime:        time.Since(hc.startTime),
		Version:       hc.version,
	}
}

// classifyCheckError downgrades a checker failure to Degraded when it wraps
// transfer.ErrIO — a transient key-file read failure a retry or an operator
// remounting a volume can resolve — and treats everything else (a corrupt
// proving key, a self-verify failure, an unreachable component) as
// Unhealthy, since those indicate the component cannot serve requests at
// all rather than merely degraded service.
func classifyCheckError(err error) (HealthStatus, string) {
	if errors.Is(err, transfer.ErrIO) {
		return Degraded, err.Error()
	}
	return Unhealthy, err.Error()
}

// GetHealth returns the last-known health without re-running checkers.
func (hc *HealthChecker) GetHealth() *SystemHealth {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	overallStatus := Healthy
	components := make([]ComponentHealth, 0, len(hc.components))

	for _, component := range hc.components {
		if component.Status == Unhealthy {
			overallStatus = Unhealthy
		} else if component.Status == Degraded && overallStatus == Healthy {
			overallStatus = Degraded
		}
		components = append(components, *component)
	}

	return &SystemHealth{
		OverallStatus: overallStatus,
		Timestamp:     time.Now(),
		Components:    components,
		Uptime:        time.Since(hc.startTime),
		Version:       hc.version,
	}
}

// HealthCheckResponse is the response format for a health check endpoint.
type HealthCheckResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// CreateHealthResponse builds a standardized health check response.
func CreateHealthResponse(health *SystemHealth) *HealthCheckResponse {
	status := "success"
	message := "system is healthy"

	if health.OverallStatus == Unhealthy {
		status = "error"
		message = "system is unhealthy"
	} else if health.OverallStatus == Degraded {
		status = "warning"
		message = "system is degraded"
	}

	return &HealthCheckResponse{
		Status:  status,
		Message: message,
		Data:    health,
	}
}
