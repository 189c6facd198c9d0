package model

import (
	"fmt"
	"strings"

	"github.com/arkwright/stl/model/suggest"
)

// State is a named, parameterized set of mutually-exclusive literal values a
// role can occupy, e.g. `state Connection(role peer) { open, closed }`.
type State struct {
	Name   string
	Params []*Param
	Values []string
}

// HasValue reports whether name is one of this state's declared values.
func (s *State) HasValue(name string) bool {
	for _, v := range s.Values {
		if v == name {
			return true
		}
	}
	return false
}

// StateValue is a fully-resolved occupancy of a State: its concrete
// parameter arguments and the specific value it holds. Two StateValues
// denote the same graph vertex component iff Key() matches.
type StateValue struct {
	State *State
	Args  []any
	Value string
}

// Key returns a string uniquely identifying this (state, args, value)
// triple, used by the graph package to deduplicate vertices.
func (sv *StateValue) Key() string {
	var b strings.Builder
	b.WriteString(sv.State.Name)
	b.WriteByte('(')
	for i, a := range sv.Args {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%v", a)
	}
	b.WriteString(").")
	b.WriteString(sv.Value)
	return b.String()
}

// StateRef is an unresolved `stateName ( args ) . value` occurrence, as used
// in a transition's post_states/error_states list.
type StateRef struct {
	StateName string
	Args      []Value
	Value     string
}

// Resolve looks up the named state, validates Value against its declared
// values (offering a Levenshtein "did you mean" suggestion on mismatch, per
// original_source/stl/levenshtein.py), and resolves Args to concrete
// arguments.
func (r *StateRef) Resolve(env *Env, resolvedParams map[string]any) (*StateValue, error) {
	st, ok := env.CurrentModule.States[r.StateName]
	if !ok {
		suggestion := suggest.ClosestCandidate(r.StateName, env.CurrentModule.AllNames())
		if suggestion != "" {
			return nil, fmt.Errorf("cannot find a state: %s (did you mean %q?)", r.StateName, suggestion)
		}
		return nil, fmt.Errorf("cannot find a state: %s", r.StateName)
	}
	if !st.HasValue(r.Value) {
		suggestion := suggest.ClosestCandidate(r.Value, st.Values)
		if suggestion != "" {
			return nil, fmt.Errorf("invalid value %q for state %q (did you mean %q?)", r.Value, st.Name, suggestion)
		}
		return nil, fmt.Errorf("invalid value %q for state %q", r.Value, st.Name)
	}
	args, err := resolveArgValues(r.Args, env, resolvedParams)
	if err != nil {
		return nil, err
	}
	return &StateValue{State: st, Args: args, Value: r.Value}, nil
}

// PreStateGroup is a `stateName ( args ) . { v1, v2, ... }` pre-state
// occurrence: a single state/argument pair paired with a disjunctive set of
// acceptable values. A bare `stateName(args).v` pre-state is represented
// with exactly one value.
type PreStateGroup struct {
	StateName string
	Args      []Value
	Values    []string
}

// Resolve returns one StateValue per acceptable value in this group.
func (g *PreStateGroup) Resolve(env *Env, resolvedParams map[string]any) ([]*StateValue, error) {
	out := make([]*StateValue, 0, len(g.Values))
	for _, v := range g.Values {
		ref := &StateRef{StateName: g.StateName, Args: g.Args, Value: v}
		sv, err := ref.Resolve(env, resolvedParams)
		if err != nil {
			return nil, err
		}
		out = append(out, sv)
	}
	return out, nil
}

// TransitionKind distinguishes a full transition body from an alias
// (`transition Name(params) = Other(args);`).
type TransitionKind int

const (
	TransitionFull TransitionKind = iota
	TransitionExpand
)

// Transition is a named, parameterized state-change definition: a set of
// acceptable pre-state groups, an ordered event list, a post-state, and an
// optional error-state reached if an event fails mid-transition.
type Transition struct {
	Name   string
	Params []*Param
	Kind   TransitionKind

	Locals      []*LocalVar
	PreStates   []*PreStateGroup
	Events      []*EventInTransition
	PostStates  []*StateRef
	ErrorStates []*StateRef

	ExpandName string
	ExpandArgs []Value
}

// IsResolved reports whether this transition is free of parameters and not
// an alias, meaning a single Resolve call fully determines its behavior and
// later re-resolution is a no-op (the resolution-idempotence invariant).
func (t *Transition) IsResolved() bool {
	return len(t.Params) == 0 && t.Kind != TransitionExpand
}

// TransitionResolved is the resolved instance of a Transition for one set of
// argument bindings: concrete pre-state alternatives, a runnable event
// sequence, and concrete post/error states.
type TransitionResolved struct {
	Name        string
	PreStates   [][]*StateValue
	Events      []Func
	PostStates  []*StateValue
	ErrorStates []*StateValue
}

// Run executes every event function in order, returning false (with no
// error) the moment one of them reports failure. Ported from
// original_source/stl/state.py's Transition.Run.
func (tr *TransitionResolved) Run() (bool, error) {
	for _, e := range tr.Events {
		ok, err := e.Run()
		if err != nil {
			return false, err
		}
		if b, isBool := ok.(bool); isBool && !b {
			return false, nil
		}
	}
	return true, nil
}

// Resolve binds argValues against this transition's parameters (or, for an
// alias, delegates to the aliased transition) and resolves every pre-state,
// event, and post/error state against the resulting scope. Ported from
// original_source/stl/state.py's Transition.Resolve.
func (t *Transition) Resolve(env *Env, argValues []Value, outer map[string]any) (*TransitionResolved, error) {
	scope, err := bindParams(t.Params, argValues, env, outer)
	if err != nil {
		return nil, err
	}

	if t.Kind == TransitionExpand {
		target, ok := env.CurrentModule.Transitions[t.ExpandName]
		if !ok {
			return nil, fmt.Errorf("cannot find a transition: %s", t.ExpandName)
		}
		return target.Resolve(env, t.ExpandArgs, scope)
	}

	for _, lv := range t.Locals {
		scope[lv.Name] = &LocalVar{Name: lv.Name, Type: lv.Type}
	}

	pre := make([][]*StateValue, 0, len(t.PreStates))
	for _, g := range t.PreStates {
		svs, err := g.Resolve(env, scope)
		if err != nil {
			return nil, err
		}
		pre = append(pre, svs)
	}

	events := make([]Func, 0, len(t.Events))
	for _, e := range t.Events {
		f, err := e.Resolve(env, scope)
		if err != nil {
			return nil, err
		}
		// A plain event resolves to FuncNoOp and carries no observable
		// behavior for either side; it is never part of the runnable
		// sequence.
		fwc, ok := f.(*FuncWithContext)
		if !ok {
			continue
		}
		testSource := env.RolesToTest[fwc.Context.Source.Name]
		testTarget := env.RolesToTest[fwc.Context.Target.Name]
		switch {
		case testSource && testTarget:
			return nil, fmt.Errorf("both source %q and target %q are under test in transition %q",
				fwc.Context.Source.Name, fwc.Context.Target.Name, t.Name)
		case testSource:
			fwc.Context.TestSource = true
			events = append(events, fwc)
		case testTarget:
			fwc.Context.TestSource = false
			events = append(events, fwc)
		default:
			// Neither side is under test: this interaction is not
			// observable from the conformance test's vantage point.
		}
	}

	post := make([]*StateValue, 0, len(t.PostStates))
	for _, r := range t.PostStates {
		sv, err := r.Resolve(env, scope)
		if err != nil {
			return nil, err
		}
		post = append(post, sv)
	}

	errStates := make([]*StateValue, 0, len(t.ErrorStates))
	for _, r := range t.ErrorStates {
		sv, err := r.Resolve(env, scope)
		if err != nil {
			return nil, err
		}
		errStates = append(errStates, sv)
	}

	return &TransitionResolved{
		Name:        t.Name,
		PreStates:   pre,
		Events:      events,
		PostStates:  post,
		ErrorStates: errStates,
	}, nil
}
