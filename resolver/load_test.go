package resolver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arkwright/stl/ast"
	"github.com/arkwright/stl/graph"
	"github.com/arkwright/stl/model"
	"github.com/arkwright/stl/parser"
	"github.com/arkwright/stl/plugin"
	"github.com/arkwright/stl/reporter"
)

type fakePingEvent struct{}

func (fakePingEvent) Fire(ctx *model.EventContext, args ...any) (bool, error) { return true, nil }
func (fakePingEvent) Wait(ctx *model.EventContext, args ...any) (bool, error) { return true, nil }

func parsePingModule(t *testing.T) *ast.File {
	t.Helper()
	src := `module Ping;

role Client {
	string address;
}

role Server {
	string address;
}

state Conn() {
	closed, open
}

event Ping() = external "event.Ping";

transition Connect() {
	pre_states = [
		Conn().closed
	]
	events {
		Client -> Ping() -> Server;
	}
	post_states = [
		Conn().open
	]
}
`
	handler := reporter.NewHandler(reporter.AbortingReporter)
	file, err := parser.Parse("ping.stl", []byte(src), handler)
	require.NoError(t, err)
	require.NotNil(t, file)
	return file
}

// TestLoadModulesParsesRealSource exercises the full
// lexer -> parser -> ast.File -> LoadModules chain against real STL source
// text, rather than hand-building *model.Module values directly.
func TestLoadModulesParsesRealSource(t *testing.T) {
	file := parsePingModule(t)

	modules, err := LoadModules([]*ast.File{file}, nil)
	require.NoError(t, err)
	require.Contains(t, modules, "Ping")

	mod := modules["Ping"]
	require.Contains(t, mod.Roles, "Client")
	require.Contains(t, mod.Roles, "Server")
	require.Contains(t, mod.States, "Conn")
	require.Equal(t, []string{"closed", "open"}, mod.States["Conn"].Values)
	require.Contains(t, mod.Events, "Ping")
	require.Equal(t, model.EventExternal, mod.Events["Ping"].Kind)
	require.Equal(t, "event.Ping", mod.Events["Ping"].ExternalName)
	require.Contains(t, mod.Transitions, "Connect")
}

// TestFullPipelineFromParsedSource drives every resolver stage plus
// plugin.Bind and graph.Build over the module loaded from real STL source,
// the chain the parser bug broke for every valid input file.
func TestFullPipelineFromParsedSource(t *testing.T) {
	file := parsePingModule(t)

	modules, err := LoadModules([]*ast.File{file}, nil)
	require.NoError(t, err)

	registry := plugin.NewRegistry()
	registry.RegisterEvent("event.Ping", func() model.ExternalEvent { return fakePingEvent{} })
	require.NoError(t, plugin.Bind(modules, registry))

	require.NoError(t, FillInModuleRoles(modules, []RoleInit{
		{Module: "Ping", Role: "Client", Fields: map[string]any{"address": "10.0.0.1"}},
		{Module: "Ping", Role: "Server", Fields: map[string]any{"address": "10.0.0.2"}},
	}))
	require.NoError(t, FillInConstants(modules, map[string]any{}))

	rolesToTest, err := GetRolesToTest(modules, []string{"Ping::Client"})
	require.NoError(t, err)
	require.True(t, rolesToTest["Client"])

	resolved, err := ResolveTransitions(modules, rolesToTest)
	require.NoError(t, err)
	require.Contains(t, resolved, "Connect")

	states, err := InitializeStates(resolved)
	require.NoError(t, err)
	require.Contains(t, states, "Conn")

	g, err := graph.Build(resolved, states)
	require.NoError(t, err)
	edges := g.Edges(g.InitialID)
	require.Len(t, edges, 1)
	require.Equal(t, "Connect", edges[0].Transition.Name)
}

// TestGetRolesToTestErrorsOnEmpty ensures a manifest with no roles under
// test is rejected rather than silently testing nothing.
func TestGetRolesToTestErrorsOnEmpty(t *testing.T) {
	_, err := GetRolesToTest(map[string]*model.Module{}, nil)
	require.Error(t, err)
}
