// Package model is the semantic data model for a resolved (or
// partially-resolved) STL module: constants, roles, states, messages,
// qualifiers, events, and transitions, ported from
// original_source/stl/{base,state,message,event,qualifier,module}.py.
package model

// Module is a namespaced collection of STL declarations, one per parsed
// `module NAME;` file (several files may contribute to the same module).
type Module struct {
	Name        string
	Consts      map[string]*Const
	Roles       map[string]*Role
	States      map[string]*State
	Qualifiers  map[string]*Qualifier
	Messages    map[string]*Message
	Events      map[string]*Event
	Transitions map[string]*Transition
}

// NewModule returns an empty Module named name.
func NewModule(name string) *Module {
	return &Module{
		Name:        name,
		Consts:      map[string]*Const{},
		Roles:       map[string]*Role{},
		States:      map[string]*State{},
		Qualifiers:  map[string]*Qualifier{},
		Messages:    map[string]*Message{},
		Events:      map[string]*Event{},
		Transitions: map[string]*Transition{},
	}
}

// HasDefinition reports whether any declaration category in m already
// defines name, used to flag duplicate top-level definitions while loading.
func (m *Module) HasDefinition(name string) bool {
	if _, ok := m.Consts[name]; ok {
		return true
	}
	if _, ok := m.Roles[name]; ok {
		return true
	}
	if _, ok := m.States[name]; ok {
		return true
	}
	if _, ok := m.Qualifiers[name]; ok {
		return true
	}
	if _, ok := m.Messages[name]; ok {
		return true
	}
	if _, ok := m.Events[name]; ok {
		return true
	}
	if _, ok := m.Transitions[name]; ok {
		return true
	}
	return false
}

// AllNames returns every name defined anywhere in m, used to build
// suggest.ClosestCandidate candidate lists for cross-category "did you
// mean" diagnostics.
func (m *Module) AllNames() []string {
	var names []string
	for n := range m.Consts {
		names = append(names, n)
	}
	for n := range m.Roles {
		names = append(names, n)
	}
	for n := range m.States {
		names = append(names, n)
	}
	for n := range m.Qualifiers {
		names = append(names, n)
	}
	for n := range m.Messages {
		names = append(names, n)
	}
	for n := range m.Events {
		names = append(names, n)
	}
	for n := range m.Transitions {
		names = append(names, n)
	}
	return names
}

// Env is the resolution environment threaded through every Resolve call: the
// full set of loaded modules, the module currently being resolved, and the
// roles under test for this run. A shadowing "resolved_params" scope is
// instead passed explicitly as each Resolve method's second argument, to
// keep Go's static typing honest about what is and isn't in scope.
type Env struct {
	Modules       map[string]*Module
	CurrentModule *Module
	RolesToTest   map[string]bool
}

// FindModule resolves a `Module::Name`-qualified reference's module part,
// falling back to CurrentModule when qualifier is empty.
func (e *Env) FindModule(qualifier string) (*Module, bool) {
	if qualifier == "" {
		return e.CurrentModule, e.CurrentModule != nil
	}
	m, ok := e.Modules[qualifier]
	return m, ok
}
