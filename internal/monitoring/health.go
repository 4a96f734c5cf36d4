// internal/monitoring/health.go
package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// HealthStatus is the state of one component or of the whole process.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// CheckFunc probes one dependency. A nil error means healthy.
type CheckFunc func(ctx context.Context) error

// HealthCheck is the reported state of one registered check.
type HealthCheck struct {
	Name      string        `json:"name"`
	Status    HealthStatus  `json:"status"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	CheckedAt time.Time     `json:"checked_at"`
}

// SystemHealth is the aggregate health response.
type SystemHealth struct {
	Status    HealthStatus  `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Checks    []HealthCheck `json:"checks,omitempty"`
}

// HealthManager runs registered checks on demand. Checks run with a
// bounded timeout so a stuck dependency cannot hang the endpoint.
type HealthManager struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	timeout time.Duration
}

// NewHealthManager creates an empty health manager.
func NewHealthManager() *HealthManager {
	return &HealthManager{
		checks:  make(map[string]CheckFunc),
		timeout: 5 * time.Second,
	}
}

// RegisterCheck adds or replaces a named check.
func (hm *HealthManager) RegisterCheck(name string, check CheckFunc) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.checks[name] = check
}

// Check runs every registered check and aggregates the result. A single
// failing check marks the whole system unhealthy.
func (hm *HealthManager) Check(ctx context.Context) SystemHealth {
	hm.mu.RLock()
	checks := make(map[string]CheckFunc, len(hm.checks))
	for name, fn := range hm.checks {
		checks[name] = fn
	}
	hm.mu.RUnlock()

	health := SystemHealth{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now().UTC(),
	}

	for name, fn := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, hm.timeout)
		start := time.Now()
		err := fn(checkCtx)
		cancel()

		check := HealthCheck{
			Name:      name,
			Status:    HealthStatusHealthy,
			Duration:  time.Since(start),
			CheckedAt: time.Now().UTC(),
		}
		if err != nil {
			check.Status = HealthStatusUnhealthy
			check.Error = err.Error()
			health.Status = HealthStatusUnhealthy
		}
		health.Checks = append(health.Checks, check)
	}

	return health
}

// Handler serves the aggregate health as JSON. Unhealthy responds with
// 503 so load balancers can act on status codes alone.
func (hm *HealthManager) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		health := hm.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if health.Status != HealthStatusHealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})
}
