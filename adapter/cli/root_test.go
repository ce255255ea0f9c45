package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/felixgeelhaar/rendezvous/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetGlobals(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		app, bootstrap, cleanup = nil, nil, nil
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestBootstrap_BuildsAppBeforeCommand(t *testing.T) {
	resetGlobals(t)

	released := false
	calls := 0
	SetBootstrap(func(ctx context.Context) (*App, func(), error) {
		calls++
		assert.NotEmpty(t, observability.CorrelationIDFromContext(ctx))
		return NewApp(nil, nil), func() { released = true }, nil
	})

	out, err := run(t, "health")

	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)
	assert.Equal(t, 1, calls)
	require.NotNil(t, cleanup)
	cleanup()
	assert.True(t, released)
}

func TestBootstrap_SkippedForVersion(t *testing.T) {
	resetGlobals(t)

	SetBootstrap(func(context.Context) (*App, func(), error) {
		return nil, nil, errors.New("should not be called")
	})

	out, err := run(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "rendezvous dev")
	assert.Nil(t, GetApp())
}

func TestVersion_JSON(t *testing.T) {
	resetGlobals(t)
	t.Cleanup(func() { versionJSON = false })

	out, err := run(t, "version", "--json")

	require.NoError(t, err)
	var info BuildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "dev", info.Version)
	assert.NotEmpty(t, info.GoVersion)
}

func TestBootstrap_ErrorStopsCommand(t *testing.T) {
	resetGlobals(t)

	SetBootstrap(func(context.Context) (*App, func(), error) {
		return nil, nil, errors.New("journal unavailable")
	})

	_, err := run(t, "health")

	assert.EqualError(t, err, "journal unavailable")
}

func TestHealth_ReportsRegistry(t *testing.T) {
	resetGlobals(t)

	registry := observability.NewHealthRegistry()
	registry.Register("journal", observability.PingChecker("journal", observability.HealthStatusUnhealthy, func(context.Context) error {
		return errors.New("disk full")
	}))
	a := NewApp(nil, nil)
	a.SetHealth(registry)
	SetApp(a)

	out, err := run(t, "health")

	assert.EqualError(t, err, "unhealthy")
	assert.Contains(t, out, `"journal"`)
	assert.Contains(t, out, "disk full")
}
