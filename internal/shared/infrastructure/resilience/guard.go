// Package resilience wraps calls to external collaborators with circuit breakers.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/rendezvous/pkg/observability"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned when a collaborator's breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Config configures the breakers created by a Guard.
type Config struct {
	// Enabled turns breakers on. When false calls pass straight through.
	Enabled bool

	// MaxRequests is the maximum number of requests allowed in half-open state.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state.
	Interval time.Duration

	// Timeout is the period of the open state.
	Timeout time.Duration

	// FailureThreshold trips the breaker after this many consecutive failures.
	FailureThreshold uint32
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 3,
	}
}

// Guard holds one breaker per named collaborator ("ranking", "zoom", "gmail", ...).
type Guard struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
	logger   *slog.Logger
	config   Config
}

// NewGuard creates a new guard.
func NewGuard(config Config, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
		logger:   logger,
		config:   config,
	}
}

func (g *Guard) breaker(service string) *gobreaker.CircuitBreaker[any] {
	if g == nil || !g.config.Enabled {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if b, ok := g.breakers[service]; ok {
		return b
	}

	threshold := g.config.FailureThreshold
	if threshold == 0 {
		threshold = 1
	}
	settings := gobreaker.Settings{
		Name:        service,
		MaxRequests: g.config.MaxRequests,
		Interval:    g.config.Interval,
		Timeout:     g.config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			g.logger.Warn("circuit breaker state changed",
				"service", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	b := gobreaker.NewCircuitBreaker[any](settings)
	g.breakers[service] = b
	return b
}

// Execute runs fn under the breaker for service.
func (g *Guard) Execute(service string, fn func() (any, error)) (any, error) {
	b := g.breaker(service)
	if b == nil {
		return fn()
	}

	result, err := b.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrCircuitOpen
	}
	return result, err
}

// Do runs fn under the breaker for service and returns its typed result.
func Do[T any](g *Guard, service string, fn func() (T, error)) (T, error) {
	var zero T
	result, err := g.Execute(service, func() (any, error) {
		return fn()
	})
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, nil
	}
	return typed, nil
}

// State returns the breaker state for a service, or "disabled".
func (g *Guard) State(service string) string {
	b := g.breaker(service)
	if b == nil {
		return "disabled"
	}
	return b.State().String()
}

// Checker reports the breakers of the given services. Any open breaker
// degrades the result.
func (g *Guard) Checker(services ...string) observability.HealthChecker {
	return func(context.Context) observability.HealthCheckResult {
		status := observability.HealthStatusHealthy
		states := make([]string, 0, len(services))
		for _, svc := range services {
			state := g.State(svc)
			if state == gobreaker.StateOpen.String() {
				status = observability.HealthStatusDegraded
			}
			states = append(states, svc+"="+state)
		}
		return observability.HealthCheckResult{Status: status, Message: strings.Join(states, ", ")}
	}
}
