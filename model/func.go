package model

import "fmt"

// Func is a resolved, runnable piece of behavior bound into a transition:
// reading/writing a field, or firing/waiting on an external event.
type Func interface {
	Run() (any, error)
}

// FuncNoOp is the resolved form of a plain (non-external) Event: it always
// succeeds without doing anything.
type FuncNoOp struct{ Name string }

func (f *FuncNoOp) Run() (any, error) { return true, nil }

// FuncGetField reads a field off a Role.
type FuncGetField struct {
	Role  *Role
	Field string
}

func (f *FuncGetField) Run() (any, error) { return f.Role.Get(f.Field) }

// FuncSet writes a field on a Role, or the current value of a LocalVar. Set
// is constructed with exactly one of Role or Local populated.
type FuncSet struct {
	Role  *Role
	Field string
	Local *LocalVar
}

// NewFuncSetRole returns a FuncSet bound to a role field.
func NewFuncSetRole(role *Role, field string) (*FuncSet, error) {
	if field == "" {
		return nil, fmt.Errorf("cannot set role: %s", role.Name)
	}
	return &FuncSet{Role: role, Field: field}, nil
}

// NewFuncSetLocal returns a FuncSet bound to a local variable.
func NewFuncSetLocal(local *LocalVar) *FuncSet {
	return &FuncSet{Local: local}
}

func (f *FuncSet) Run() (any, error) {
	if f.Local != nil {
		return f.Local.Value, nil
	}
	return f.Role.Get(f.Field)
}

// SetValue writes value into the bound local variable or role field.
func (f *FuncSet) SetValue(value any) error {
	if f.Local != nil {
		f.Local.Value = value
		return nil
	}
	return f.Role.Set(f.Field, value)
}

// EventContext is the source/target/test-source triple an external event
// function runs with.
type EventContext struct {
	Source     *Role
	Target     *Role
	TestSource bool
}

// ExternalEvent is implemented by event plugins registered for `external
// "pkg.Type"` event declarations.
type ExternalEvent interface {
	Fire(ctx *EventContext, args ...any) (bool, error)
	Wait(ctx *EventContext, args ...any) (bool, error)
}

// FuncWithContext binds an ExternalEvent to the source/target roles and
// arguments resolved for one occurrence in a transition's event list. Run
// calls Wait when the context's source role is under test, Fire otherwise,
// mirroring the single-sided conformance-testing model: a conformance run
// observes one side of an interaction at a time, never both.
type FuncWithContext struct {
	Name    string
	Event   ExternalEvent
	Context EventContext
	Args    []any
}

func (f *FuncWithContext) Run() (any, error) {
	if f.Context.TestSource {
		return f.Event.Wait(&f.Context, f.Args...)
	}
	return f.Event.Fire(&f.Context, f.Args...)
}
