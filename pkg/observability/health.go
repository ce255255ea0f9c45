package observability

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// HealthStatus is the state of one collaborator or of the whole process.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// severity orders statuses so the worst one can be picked.
func (s HealthStatus) severity() int {
	switch s {
	case HealthStatusUnhealthy:
		return 2
	case HealthStatusDegraded:
		return 1
	}
	return 0
}

// HealthCheckResult is what a single check reports.
type HealthCheckResult struct {
	Status    HealthStatus  `json:"status"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
	Timestamp time.Time     `json:"timestamp"`
}

// HealthChecker checks one collaborator.
type HealthChecker func(ctx context.Context) HealthCheckResult

// DefaultCheckTimeout bounds each check run by Check.
const DefaultCheckTimeout = 3 * time.Second

// HealthRegistry holds the checks for the collaborators a process wired up.
type HealthRegistry struct {
	mu       sync.RWMutex
	checkers map[string]HealthChecker
	timeout  time.Duration
}

// NewHealthRegistry creates an empty registry.
func NewHealthRegistry() *HealthRegistry {
	return &HealthRegistry{checkers: map[string]HealthChecker{}, timeout: DefaultCheckTimeout}
}

// Register adds or replaces the check for name.
func (r *HealthRegistry) Register(name string, checker HealthChecker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = checker
}

// Check runs every check concurrently, each under its own timeout.
func (r *HealthRegistry) Check(ctx context.Context) map[string]HealthCheckResult {
	r.mu.RLock()
	checkers := make(map[string]HealthChecker, len(r.checkers))
	for name, c := range r.checkers {
		checkers[name] = c
	}
	r.mu.RUnlock()

	var (
		mu      sync.Mutex
		results = make(map[string]HealthCheckResult, len(checkers))
		g       errgroup.Group
	)
	for name, checker := range checkers {
		g.Go(func() error {
			checkCtx, cancel := context.WithTimeout(ctx, r.timeout)
			defer cancel()

			start := time.Now()
			result := checker(checkCtx)
			result.Duration = time.Since(start)
			result.Timestamp = time.Now().UTC()

			mu.Lock()
			results[name] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// OverallHealth is the aggregate reported by the health command and endpoint.
type OverallHealth struct {
	Status    HealthStatus                 `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Checks    map[string]HealthCheckResult `json:"checks"`
}

// GetOverallHealth runs every check. The overall status is the worst
// individual status, or healthy when nothing is registered.
func (r *HealthRegistry) GetOverallHealth(ctx context.Context) OverallHealth {
	checks := r.Check(ctx)
	status := HealthStatusHealthy
	for _, c := range checks {
		if c.Status.severity() > status.severity() {
			status = c.Status
		}
	}
	return OverallHealth{Status: status, Timestamp: time.Now().UTC(), Checks: checks}
}

// ToJSON serializes the aggregate.
func (h OverallHealth) ToJSON() ([]byte, error) {
	return json.Marshal(h)
}

// PingChecker turns a ping function into a checker. A failed ping reports
// severity, so optional collaborators degrade rather than fail the process.
func PingChecker(component string, severity HealthStatus, ping func(ctx context.Context) error) HealthChecker {
	return func(ctx context.Context) HealthCheckResult {
		if err := ping(ctx); err != nil {
			return HealthCheckResult{Status: severity, Message: component + " unreachable: " + err.Error()}
		}
		return HealthCheckResult{Status: HealthStatusHealthy, Message: component + " reachable"}
	}
}
