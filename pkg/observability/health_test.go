package observability

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthRegistry_DegradedCollaborator(t *testing.T) {
	registry := NewHealthRegistry()
	registry.Register("redis", PingChecker("redis", HealthStatusDegraded, func(context.Context) error {
		return errors.New("connection refused")
	}))
	registry.Register("journal", PingChecker("journal", HealthStatusUnhealthy, func(context.Context) error {
		return nil
	}))

	health := registry.GetOverallHealth(context.Background())

	assert.Equal(t, HealthStatusDegraded, health.Status)
	assert.Equal(t, HealthStatusHealthy, health.Checks["journal"].Status)
	assert.Contains(t, health.Checks["redis"].Message, "connection refused")
	assert.False(t, health.Checks["redis"].Timestamp.IsZero())

	raw, err := health.ToJSON()
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "degraded", decoded["status"])
}

func TestHealthRegistry_UnhealthyWins(t *testing.T) {
	registry := NewHealthRegistry()
	registry.Register("rabbitmq", PingChecker("rabbitmq", HealthStatusDegraded, func(context.Context) error {
		return errors.New("down")
	}))
	registry.Register("journal", PingChecker("journal", HealthStatusUnhealthy, func(context.Context) error {
		return errors.New("locked")
	}))

	health := registry.GetOverallHealth(context.Background())

	assert.Equal(t, HealthStatusUnhealthy, health.Status)
	assert.Len(t, health.Checks, 2)
}

func TestHealthRegistry_EmptyIsHealthy(t *testing.T) {
	health := NewHealthRegistry().GetOverallHealth(context.Background())

	assert.Equal(t, HealthStatusHealthy, health.Status)
	assert.Empty(t, health.Checks)
}

func TestHealthRegistry_CheckHasDeadline(t *testing.T) {
	registry := NewHealthRegistry()
	registry.Register("caldav", func(ctx context.Context) HealthCheckResult {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		return HealthCheckResult{Status: HealthStatusHealthy}
	})

	results := registry.Check(context.Background())

	assert.Equal(t, HealthStatusHealthy, results["caldav"].Status)
}

func TestHealthRegistry_RegisterReplaces(t *testing.T) {
	registry := NewHealthRegistry()
	registry.Register("redis", func(context.Context) HealthCheckResult {
		return HealthCheckResult{Status: HealthStatusUnhealthy}
	})
	registry.Register("redis", func(context.Context) HealthCheckResult {
		return HealthCheckResult{Status: HealthStatusHealthy}
	})

	assert.Equal(t, HealthStatusHealthy, registry.GetOverallHealth(context.Background()).Status)
}
