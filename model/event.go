package model

import "fmt"

// EventKind distinguishes the three forms an Event declaration can take.
type EventKind int

const (
	EventPlain EventKind = iota
	EventExternal
	EventExpand
)

// Event is a named, parameterized occurrence definition: either a plain
// message exchange, an external plugin call, or an alias for another event
// with fixed/derived arguments.
type Event struct {
	Name   string
	Params []*Param
	Kind   EventKind

	// EventPlain
	MessageName string

	// EventExternal
	ExternalName string
	External     ExternalEvent

	// EventExpand
	ExpandName string
	ExpandArgs []Value
}

// Resolve binds this event's definition to one occurrence's context and
// argument expressions, returning the Func the executor will run. Ported
// from original_source/stl/event.py's Event.Resolve/ResolveStatic.
func (e *Event) Resolve(env *Env, resolvedParams map[string]any, ctx EventContext, args []Value) (Func, error) {
	switch e.Kind {
	case EventPlain:
		return &FuncNoOp{Name: e.Name}, nil

	case EventExternal:
		resolvedArgs, err := resolveArgValues(args, env, resolvedParams)
		if err != nil {
			return nil, err
		}
		if e.External == nil {
			return nil, fmt.Errorf("event %q has no registered external plugin", e.Name)
		}
		return &FuncWithContext{Name: e.Name, Event: e.External, Context: ctx, Args: resolvedArgs}, nil

	case EventExpand:
		target, ok := env.CurrentModule.Events[e.ExpandName]
		if !ok {
			return nil, fmt.Errorf("cannot find an event: %s", e.ExpandName)
		}
		inner, err := bindParams(e.Params, args, env, resolvedParams)
		if err != nil {
			return nil, err
		}
		return target.Resolve(env, inner, ctx, e.ExpandArgs)

	default:
		return nil, fmt.Errorf("unknown event kind for %q", e.Name)
	}
}

// resolveArgValues resolves each argument expression to a concrete runtime
// value (or Func/LocalVar), used for external-plugin calls.
func resolveArgValues(args []Value, env *Env, resolvedParams map[string]any) ([]any, error) {
	out := make([]any, 0, len(args))
	for _, a := range args {
		v, err := a.Resolve(env, resolvedParams)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// bindParams evaluates argValues against the current environment and
// returns a new resolvedParams map (a copy of outer, overlaid with the
// newly-bound parameter names), mirroring the Python implementation's
// dict-copy-and-overlay approach to parameter scoping without mutating the
// caller's map.
func bindParams(params []*Param, argValues []Value, env *Env, outer map[string]any) (map[string]any, error) {
	if len(params) != len(argValues) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(params), len(argValues))
	}
	inner := make(map[string]any, len(outer)+len(params))
	for k, v := range outer {
		inner[k] = v
	}
	for i, p := range params {
		v, err := argValues[i].Resolve(env, outer)
		if err != nil {
			return nil, err
		}
		inner[p.Name] = v
	}
	return inner, nil
}

// EventInTransition is one `source -> EventName ( args ) -> target ;`
// occurrence inside a transition's event list.
type EventInTransition struct {
	SourceRoleName string
	EventName      string
	Args           []Value
	TargetRoleName string
}

// Resolve looks up the source/target roles and the named event and resolves
// it against a scope that additionally exposes "_source" and "_target" —
// ported from original_source/stl/event.py's EventInTransition.Resolve,
// which pushes these two names into its resolution scope for the duration
// of the call so an expand's argument expressions may reference them, then
// pops them back out. Go's map-copy-per-call here makes that push/pop
// unnecessary to do explicitly: the overlay is scoped to this call alone.
//
// Whether the resulting Func is kept, and which side (if any) is under
// test, is decided by the caller (Transition.Resolve): that question only
// applies to the subset of results that are *FuncWithContext, since a plain
// event resolves to FuncNoOp and is always dropped.
func (e *EventInTransition) Resolve(env *Env, resolvedParams map[string]any) (Func, error) {
	source, err := FindRole(e.SourceRoleName, env, resolvedParams)
	if err != nil {
		return nil, err
	}
	target, err := FindRole(e.TargetRoleName, env, resolvedParams)
	if err != nil {
		return nil, err
	}
	ev, ok := env.CurrentModule.Events[e.EventName]
	if !ok {
		return nil, fmt.Errorf("cannot find an event: %s", e.EventName)
	}

	scoped := make(map[string]any, len(resolvedParams)+2)
	for k, v := range resolvedParams {
		scoped[k] = v
	}
	scoped["_source"] = source
	scoped["_target"] = target

	ctx := EventContext{Source: source, Target: target}
	f, err := ev.Resolve(env, scoped, ctx, e.Args)
	if err != nil {
		return nil, err
	}
	if fwc, ok := f.(*FuncWithContext); ok {
		fwc.Context.Source = source
		fwc.Context.Target = target
	}
	return f, nil
}
