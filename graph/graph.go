// Package graph builds the directed, edge-labeled multigraph of reachable
// composite states for a resolved set of transitions, ported from
// original_source/stl/graph.py.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arkwright/stl/model"
)

// StateVertex is one reachable combination of per-state values: one
// model.StateValue per distinct model.State referenced anywhere in the
// transition set.
type StateVertex struct {
	ID     string
	States []*model.StateValue
}

func newStateVertex(id string, states []*model.StateValue) *StateVertex {
	sorted := append([]*model.StateValue(nil), states...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key() < sorted[j].Key() })
	return &StateVertex{ID: id, States: sorted}
}

// key returns a canonical string identifying this exact combination of
// state values, used to deduplicate vertices while building the graph.
func (v *StateVertex) key() string {
	parts := make([]string, len(v.States))
	for i, s := range v.States {
		parts[i] = s.Key()
	}
	return strings.Join(parts, "|")
}

// appendMissing adds any states from other not already assigned in v,
// mirroring StateVertex.AppendStateListNotExist: a transition's post/error
// states only mention the states it changes, so the rest of the ambient
// state vector carries over from the source vertex.
func (v *StateVertex) appendMissing(other []*model.StateValue) {
	for _, s := range other {
		if !v.hasState(s.State) {
			v.States = append(v.States, s)
		}
	}
	sort.Slice(v.States, func(i, j int) bool { return v.States[i].Key() < v.States[j].Key() })
}

func (v *StateVertex) hasState(st *model.State) bool {
	for _, s := range v.States {
		if s.State == st {
			return true
		}
	}
	return false
}

// matchesState reports whether v has no value assigned to sv's state that
// conflicts with sv.
func (v *StateVertex) matchesState(sv *model.StateValue) bool {
	for _, s := range v.States {
		if s.State == sv.State && s.Value != sv.Value {
			return false
		}
	}
	return true
}

// matchesTransition reports whether v satisfies every one of a transition's
// pre-state groups, each group being met when v matches at least one of its
// alternatives (an empty group imposes nothing).
func (v *StateVertex) matchesTransition(t *model.TransitionResolved) bool {
	return matchesAnyCombination(v, t.PreStates, 0)
}

func matchesAnyCombination(v *StateVertex, groups [][]*model.StateValue, i int) bool {
	if i == len(groups) {
		return true
	}
	for _, sv := range groups[i] {
		if v.matchesState(sv) && matchesAnyCombination(v, groups, i+1) {
			return true
		}
	}
	return len(groups[i]) == 0 && matchesAnyCombination(v, groups, i+1)
}

// Edge is one transition's effect out of a vertex: its resolved transition,
// the vertex reached on success, and the vertex reached on failure. If the
// transition declares no error_states, ErrorTarget is its own source
// vertex — failure leaves the composite state unchanged.
type Edge struct {
	Transition  *model.TransitionResolved
	Target      *StateVertex
	ErrorTarget *StateVertex
}

// Graph is the directed multigraph of composite states reachable from the
// all-initial-values vertex.
type Graph struct {
	Vertices  map[string]*StateVertex
	Order     []*StateVertex
	edgesFrom map[string][]Edge
	InitialID string
}

// Edges returns the outgoing edges from the vertex with id vertexID.
func (g *Graph) Edges(vertexID string) []Edge {
	return g.edgesFrom[vertexID]
}

func (g *Graph) addVertex(v *StateVertex) *StateVertex {
	k := v.key()
	if existing, ok := g.Vertices[k]; ok {
		return existing
	}
	g.Vertices[k] = v
	g.Order = append(g.Order, v)
	return v
}

// Build constructs the transition graph: starting from the vertex where
// every known state holds its first declared value, it breadth-first
// explores every transition compatible with each discovered vertex. Ported
// from original_source/stl/graph.py's BuildTransitionGraph.
func Build(transitions map[string]*model.TransitionResolved, states map[string]*model.State) (*Graph, error) {
	initialStates := make([]*model.StateValue, 0, len(states))
	for _, st := range states {
		if len(st.Values) == 0 {
			return nil, fmt.Errorf("state %q declares no values", st.Name)
		}
		initialStates = append(initialStates, &model.StateValue{State: st, Value: st.Values[0]})
	}

	g := &Graph{Vertices: map[string]*StateVertex{}, edgesFrom: map[string][]Edge{}}
	nextID := 0
	newID := func() string {
		id := fmt.Sprintf("s%d", nextID)
		nextID++
		return id
	}

	initial := newStateVertex(newID(), initialStates)
	g.addVertex(initial)
	g.InitialID = initial.ID

	for i := 0; i < len(g.Order); i++ {
		v := g.Order[i]
		for _, t := range transitions {
			if !v.matchesTransition(t) {
				continue
			}

			outV := newStateVertex(newID(), t.PostStates)
			outV.appendMissing(v.States)
			outV = g.addVertex(outV)

			// A transition with no error_states reroutes to its own source
			// vertex on failure, not to a dedicated error vertex.
			errV := v
			if len(t.ErrorStates) > 0 {
				ev := newStateVertex(newID(), t.ErrorStates)
				ev.appendMissing(v.States)
				errV = g.addVertex(ev)
			}

			g.edgesFrom[v.ID] = append(g.edgesFrom[v.ID], Edge{Transition: t, Target: outV, ErrorTarget: errV})
		}
	}

	return g, nil
}
