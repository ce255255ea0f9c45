package mcp

import (
	"testing"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/testutil"
	"github.com/felixgeelhaar/rendezvous/adapter/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer() *mcp.Server {
	return mcp.NewServer(mcp.ServerInfo{
		Name:    "test",
		Version: "1.0.0",
		Capabilities: mcp.Capabilities{
			Tools:     true,
			Resources: true,
			Prompts:   true,
		},
	})
}

func TestRegisterCLITools_ListTools(t *testing.T) {
	srv := newTestServer()

	app := &cli.App{}
	require.NoError(t, RegisterCLITools(srv, ToolDependencies{App: app}))

	tc := testutil.NewTestClient(t, srv)
	defer tc.Close()

	tools, err := tc.ListTools()
	require.NoError(t, err)

	names := make(map[any]bool, len(tools))
	for _, tool := range tools {
		names[tool["name"]] = true
	}
	for _, want := range []string{"cli.health", "negotiation.negotiate", "negotiation.finalize", "negotiation.history"} {
		assert.True(t, names[want], "%s should be registered", want)
	}
}

func TestRegisterCLITools_RequiresDependencies(t *testing.T) {
	assert.Error(t, RegisterCLITools(nil, ToolDependencies{App: &cli.App{}}))
	assert.Error(t, RegisterCLITools(newTestServer(), ToolDependencies{}))
}

func TestRegisterResourcesAndPrompts(t *testing.T) {
	srv := newTestServer()
	deps := ToolDependencies{App: &cli.App{}}

	assert.NoError(t, RegisterResources(srv, deps))
	assert.NoError(t, RegisterPrompts(srv, deps))
	assert.Error(t, RegisterResources(nil, deps))
	assert.Error(t, RegisterPrompts(nil, deps))
}

func TestToParticipantInputs(t *testing.T) {
	inputs, err := toParticipantInputs([]participantInput{
		{
			Email:    " ada@example.com ",
			Name:     "Ada",
			Timezone: "Europe/London",
			Slots:    []windowInput{{Start: "2025-07-07 09:00", End: "2025-07-07 10:00"}},
		},
	})

	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, "ada@example.com", inputs[0].ID)
	assert.Equal(t, "Europe/London", inputs[0].Timezone)
	require.Len(t, inputs[0].Windows, 1)
	assert.Equal(t, "2025-07-07 10:00", inputs[0].Windows[0].End)

	_, err = toParticipantInputs(nil)
	assert.Error(t, err)
}

func TestParseUUID(t *testing.T) {
	_, err := parseUUID("")
	assert.Error(t, err)

	_, err = parseUUID("nope")
	assert.Error(t, err)

	id, err := parseUUID("00000000-0000-0000-0000-000000000001")
	require.NoError(t, err)
	assert.Equal(t, "00000000-0000-0000-0000-000000000001", id.String())
}
