package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// checkTimeout bounds a single dependency check
const checkTimeout = 3 * time.Second

// CheckFunc checks one dependency
type CheckFunc func(ctx context.Context) error

type dependencyCheck struct {
	name     string
	critical bool
	check    CheckFunc
}

// HealthChecker backs the health listener. A failing critical check makes
// the process unhealthy (readiness 503); a failing optional one only
// degrades it.
type HealthChecker struct {
	version string
	started time.Time

	mu     sync.RWMutex
	checks []dependencyCheck
}

// HealthStatus is the readiness report
type HealthStatus struct {
	Status       string                      `json:"status"`
	Version      string                      `json:"version,omitempty"`
	Checked      time.Time                   `json:"checked_at"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus is one check's outcome
type DependencyStatus struct {
	Status    string  `json:"status"`
	Critical  bool    `json:"critical"`
	Error     string  `json:"error,omitempty"`
	LatencyMS float64 `json:"latency_ms"`
}

// NewHealthChecker creates a health checker with no checks
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{version: version, started: time.Now()}
}

// AddCheck registers a dependency check
func (h *HealthChecker) AddCheck(name string, critical bool, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, dependencyCheck{name: name, critical: critical, check: check})
}

// RedisCheck pings the session store
func RedisCheck(client *redis.Client) CheckFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

// Check runs every check concurrently, each under its own timeout
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	h.mu.RLock()
	checks := append([]dependencyCheck(nil), h.checks...)
	h.mu.RUnlock()

	results := make([]DependencyStatus, len(checks))
	var g errgroup.Group
	for i, p := range checks {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()

			start := time.Now()
			err := p.check(pctx)
			results[i] = DependencyStatus{
				Status:    StatusHealthy,
				Critical:  p.critical,
				LatencyMS: float64(time.Since(start).Microseconds()) / 1000,
			}
			if err != nil {
				results[i].Status = StatusUnhealthy
				results[i].Error = err.Error()
			}
			return nil
		})
	}
	g.Wait()

	status := HealthStatus{
		Status:       StatusHealthy,
		Version:      h.version,
		Checked:      time.Now().UTC(),
		Dependencies: make(map[string]DependencyStatus, len(checks)),
	}
	for i, p := range checks {
		r := results[i]
		status.Dependencies[p.name] = r
		if r.Status == StatusHealthy {
			continue
		}
		if p.critical {
			status.Status = StatusUnhealthy
		} else if status.Status == StatusHealthy {
			status.Status = StatusDegraded
		}
	}
	return status
}

// Liveness answers 200 while the process can serve requests at all
func (h *HealthChecker) Liveness(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, http.StatusOK, map[string]interface{}{
		"status":         StatusHealthy,
		"version":        h.version,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	})
}

// Readiness runs the checks; 503 when a critical one fails
func (h *HealthChecker) Readiness(w http.ResponseWriter, r *http.Request) {
	status := h.Check(r.Context())

	code := http.StatusOK
	if status.Status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeHealth(w, code, status)
}

func writeHealth(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

// RegisterHealthRoutes mounts /health (same as ready), /health/live and /health/ready
func RegisterHealthRoutes(mux *http.ServeMux, checker *HealthChecker) {
	mux.HandleFunc("/health", checker.Readiness)
	mux.HandleFunc("/health/live", checker.Liveness)
	mux.HandleFunc("/health/ready", checker.Readiness)
}
