// Package plugin resolves `external "pkg.Type"` declarations to concrete
// model.ExternalEvent/model.ExternalQualifier implementations. A module's
// qualifiers and external events only ever name their plugin by string;
// Registry is where those names are bound to real Go values, the way
// original_source/stl/lib.py's built-ins are looked up by the driver before
// a run starts.
package plugin

import (
	"fmt"

	"github.com/arkwright/stl/model"
	"github.com/arkwright/stl/qualifier"
)

// EventFactory constructs a fresh model.ExternalEvent instance.
type EventFactory func() model.ExternalEvent

// QualifierFactory constructs a fresh model.ExternalQualifier instance.
type QualifierFactory func() model.ExternalQualifier

// Registry maps plugin names to factories for the event and qualifier
// plugins a conformance run may reference.
type Registry struct {
	events     map[string]EventFactory
	qualifiers map[string]QualifierFactory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{events: map[string]EventFactory{}, qualifiers: map[string]QualifierFactory{}}
}

// RegisterEvent adds an event plugin factory under name.
func (r *Registry) RegisterEvent(name string, factory EventFactory) {
	r.events[name] = factory
}

// RegisterQualifier adds a qualifier plugin factory under name.
func (r *Registry) RegisterQualifier(name string, factory QualifierFactory) {
	r.qualifiers[name] = factory
}

// Event constructs the event plugin registered under name.
func (r *Registry) Event(name string) (model.ExternalEvent, error) {
	f, ok := r.events[name]
	if !ok {
		return nil, fmt.Errorf("no event plugin registered: %s", name)
	}
	return f(), nil
}

// Qualifier constructs the qualifier plugin registered under name.
func (r *Registry) Qualifier(name string) (model.ExternalQualifier, error) {
	f, ok := r.qualifiers[name]
	if !ok {
		return nil, fmt.Errorf("no qualifier plugin registered: %s", name)
	}
	return f(), nil
}

// Builtin returns a Registry pre-populated with the qualifier package's
// built-in plugins, addressable by their canonical "qualifier.TypeName".
func Builtin() *Registry {
	r := NewRegistry()
	r.RegisterQualifier("qualifier.AnyOf", func() model.ExternalQualifier { return qualifier.AnyOf{} })
	r.RegisterQualifier("qualifier.RandomString", func() model.ExternalQualifier { return qualifier.RandomString{} })
	r.RegisterQualifier("qualifier.UniqueString", func() model.ExternalQualifier { return &qualifier.UniqueString{} })
	r.RegisterQualifier("qualifier.UniqueInt", func() model.ExternalQualifier { return &qualifier.UniqueInt{} })
	r.RegisterQualifier("qualifier.DifferentFrom", func() model.ExternalQualifier { return qualifier.DifferentFrom{} })
	r.RegisterQualifier("qualifier.RandomBool", func() model.ExternalQualifier { return qualifier.RandomBool{} })
	return r
}

// Bind resolves every qualifier and external event declared across modules
// against r, erroring immediately at the first unregistered plugin name
// rather than failing lazily the first time a transition tries to run it.
func Bind(modules map[string]*model.Module, r *Registry) error {
	for _, mod := range modules {
		for _, q := range mod.Qualifiers {
			if q.ExternalName == "" {
				continue
			}
			ext, err := r.Qualifier(q.ExternalName)
			if err != nil {
				return fmt.Errorf("module %s qualifier %s: %w", mod.Name, q.Name, err)
			}
			q.External = ext
		}
		for _, e := range mod.Events {
			if e.Kind != model.EventExternal {
				continue
			}
			ext, err := r.Event(e.ExternalName)
			if err != nil {
				return fmt.Errorf("module %s event %s: %w", mod.Name, e.Name, err)
			}
			e.External = ext
		}
	}
	return nil
}
