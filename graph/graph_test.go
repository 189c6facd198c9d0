package graph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arkwright/stl/model"
)

func conn() *model.State {
	return &model.State{Name: "Conn", Values: []string{"closed", "open"}}
}

func sv(st *model.State, value string) *model.StateValue {
	return &model.StateValue{State: st, Value: value}
}

func TestBuildDefaultsErrorTargetToSourceVertex(t *testing.T) {
	st := conn()
	connect := &model.TransitionResolved{
		Name:       "Connect",
		PreStates:  [][]*model.StateValue{{sv(st, "closed")}},
		PostStates: []*model.StateValue{sv(st, "open")},
	}

	g, err := Build(map[string]*model.TransitionResolved{"Connect": connect}, map[string]*model.State{"Conn": st})
	require.NoError(t, err)

	edges := g.Edges(g.InitialID)
	require.Len(t, edges, 1)
	require.Equal(t, g.InitialID, edges[0].ErrorTarget.ID, "an edge with no declared error states reroutes to its own source")
	require.NotEqual(t, g.InitialID, edges[0].Target.ID)
}

func TestBuildUsesDeclaredErrorState(t *testing.T) {
	st := conn()
	failing := &model.State{Name: "Failing", Values: []string{"no", "yes"}}

	connect := &model.TransitionResolved{
		Name:        "Connect",
		PreStates:   [][]*model.StateValue{{sv(st, "closed")}},
		PostStates:  []*model.StateValue{sv(st, "open")},
		ErrorStates: []*model.StateValue{sv(failing, "yes")},
	}

	g, err := Build(
		map[string]*model.TransitionResolved{"Connect": connect},
		map[string]*model.State{"Conn": st, "Failing": failing},
	)
	require.NoError(t, err)

	edges := g.Edges(g.InitialID)
	require.Len(t, edges, 1)
	require.NotEqual(t, g.InitialID, edges[0].ErrorTarget.ID)
	require.True(t, edges[0].ErrorTarget.hasState(failing))
}

func TestBuildDedupesVerticesByCompositeKey(t *testing.T) {
	st := conn()
	toOpen := &model.TransitionResolved{
		Name:       "Connect",
		PreStates:  [][]*model.StateValue{{sv(st, "closed")}},
		PostStates: []*model.StateValue{sv(st, "open")},
	}
	toClosed := &model.TransitionResolved{
		Name:       "Disconnect",
		PreStates:  [][]*model.StateValue{{sv(st, "open")}},
		PostStates: []*model.StateValue{sv(st, "closed")},
	}

	transitions := map[string]*model.TransitionResolved{"Connect": toOpen, "Disconnect": toClosed}
	g, err := Build(transitions, map[string]*model.State{"Conn": st})
	require.NoError(t, err)

	require.Len(t, g.Order, 2, "only two distinct composite states exist: open and closed")

	openEdges := g.Edges(g.Edges(g.InitialID)[0].Target.ID)
	require.Len(t, openEdges, 1)
	require.Equal(t, g.InitialID, openEdges[0].Target.ID, "Disconnect from open must land back on the initial (closed) vertex")
}

func TestBuildErrorsOnStateWithNoValues(t *testing.T) {
	empty := &model.State{Name: "Empty"}
	_, err := Build(map[string]*model.TransitionResolved{}, map[string]*model.State{"Empty": empty})
	require.Error(t, err)
}
