package model

import "fmt"

// Field is a typed member of a Role or a Message: its name, its declared
// type (bool/int/string/a sub-message name), and for message fields,
// whether it is optional or repeated.
type Field struct {
	Name          string
	Type          string
	Optional      bool
	Repeated      bool
	EncodingProps map[string]any
}

// Param is a formal parameter of a parameterized declaration (state, event,
// qualifier, transition).
type Param struct {
	Name string
	Type string
}

// LocalVar is a transition-scoped variable declared with `local`; its Value
// is populated during execution (by a qualifier generating into it, or by
// an event writing to it) and read back out when building message values.
type LocalVar struct {
	Name  string
	Type  string
	Value any
}

// Role is an endpoint of events: it has a set of typed fields and the
// current values stored in them, used both to parameterize event calls
// (e.g. an address field) and as FuncGetField/FuncSet targets.
type Role struct {
	Name        string
	Fields      map[string]*Field
	FieldValues map[string]any
}

// NewRole returns an empty Role named name.
func NewRole(name string) *Role {
	return &Role{Name: name, Fields: map[string]*Field{}, FieldValues: map[string]any{}}
}

// Get returns the current value of field, or an error if no such field is
// declared on this role.
func (r *Role) Get(field string) (any, error) {
	if _, ok := r.Fields[field]; !ok {
		return nil, fmt.Errorf("no field exists in role %q: %s", r.Name, field)
	}
	return r.FieldValues[field], nil
}

// Set stores value into field, or returns an error if no such field is
// declared on this role.
func (r *Role) Set(field string, value any) error {
	if _, ok := r.Fields[field]; !ok {
		return fmt.Errorf("no field exists in role %q: %s", r.Name, field)
	}
	r.FieldValues[field] = value
	return nil
}

// FindRole resolves name against resolvedParams first (a role passed in as
// a parameter), then against env's current module, the Go analogue of
// original_source/stl/base.py's Role.FindStatic.
func FindRole(name string, env *Env, resolvedParams map[string]any) (*Role, error) {
	if v, ok := resolvedParams[name]; ok {
		role, ok := v.(*Role)
		if !ok {
			return nil, fmt.Errorf("not a role: %s", name)
		}
		return role, nil
	}
	if env.CurrentModule == nil {
		return nil, fmt.Errorf("cannot find a role: %s", name)
	}
	role, ok := env.CurrentModule.Roles[name]
	if !ok {
		return nil, fmt.Errorf("cannot find a role: %s", name)
	}
	return role, nil
}
