package resolver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arkwright/stl/model"
	"github.com/arkwright/stl/model/suggest"
)

// RoleInit is one manifest `roles` entry: the initial field values to pour
// into a "Module::Role" before traversal begins.
type RoleInit struct {
	Module string
	Role   string
	Fields map[string]any
}

// splitQualified splits a "Module::Name" reference, erroring if the
// separator is missing.
func splitQualified(ref string) (module, name string, err error) {
	i := strings.Index(ref, "::")
	if i < 0 {
		return "", "", fmt.Errorf("expected a Module::Name reference, got: %s", ref)
	}
	return ref[:i], ref[i+2:], nil
}

func moduleNames(modules map[string]*model.Module) []string {
	names := make([]string, 0, len(modules))
	for n := range modules {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FillInModuleRoles applies the manifest's initial role field values.
func FillInModuleRoles(modules map[string]*model.Module, inits []RoleInit) error {
	for _, ri := range inits {
		mod, ok := modules[ri.Module]
		if !ok {
			if s := suggest.ClosestCandidate(ri.Module, moduleNames(modules)); s != "" {
				return fmt.Errorf("cannot find a module: %s (did you mean %q?)", ri.Module, s)
			}
			return fmt.Errorf("cannot find a module: %s", ri.Module)
		}
		role, ok := mod.Roles[ri.Role]
		if !ok {
			if s := suggest.ClosestCandidate(ri.Role, mod.AllNames()); s != "" {
				return fmt.Errorf("cannot find a role: %s::%s (did you mean %q?)", ri.Module, ri.Role, s)
			}
			return fmt.Errorf("cannot find a role: %s::%s", ri.Module, ri.Role)
		}
		for field, value := range ri.Fields {
			if _, ok := role.Fields[field]; !ok {
				return fmt.Errorf("no field exists in role %q: %s", role.Name, field)
			}
			role.FieldValues[field] = value
		}
	}
	return nil
}

// FillInConstants applies the manifest's "Module::Name" -> value constants
// map, then errors if any declared constant is still unfilled.
func FillInConstants(modules map[string]*model.Module, constants map[string]any) error {
	for ref, value := range constants {
		modName, constName, err := splitQualified(ref)
		if err != nil {
			return err
		}
		mod, ok := modules[modName]
		if !ok {
			if s := suggest.ClosestCandidate(modName, moduleNames(modules)); s != "" {
				return fmt.Errorf("cannot find a module: %s (did you mean %q?)", modName, s)
			}
			return fmt.Errorf("cannot find a module: %s", modName)
		}
		c, ok := mod.Consts[constName]
		if !ok {
			candidates := mod.AllNames()
			for otherName, other := range modules {
				if otherName != modName {
					for cn := range other.Consts {
						candidates = append(candidates, otherName+"::"+cn)
					}
				}
			}
			if s := suggest.ClosestCandidate(constName, candidates); s != "" {
				return fmt.Errorf("cannot find a constant: %s::%s (did you mean %q?)", modName, constName, s)
			}
			return fmt.Errorf("cannot find a constant: %s::%s", modName, constName)
		}
		c.Value = &model.LiteralValue{Val: value}
	}

	for modName, mod := range modules {
		for name, c := range mod.Consts {
			if c.Value == nil {
				return fmt.Errorf("constant not filled in: %s::%s", modName, name)
			}
		}
	}
	return nil
}

// GetRolesToTest resolves the manifest's "test" list of "Module::Role"
// references into a RolesToTest set, erroring if it is empty.
func GetRolesToTest(modules map[string]*model.Module, refs []string) (map[string]bool, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("no roles to test were specified")
	}
	out := map[string]bool{}
	for _, ref := range refs {
		modName, roleName, err := splitQualified(ref)
		if err != nil {
			return nil, err
		}
		mod, ok := modules[modName]
		if !ok {
			if s := suggest.ClosestCandidate(modName, moduleNames(modules)); s != "" {
				return nil, fmt.Errorf("cannot find a module: %s (did you mean %q?)", modName, s)
			}
			return nil, fmt.Errorf("cannot find a module: %s", modName)
		}
		if _, ok := mod.Roles[roleName]; !ok {
			if s := suggest.ClosestCandidate(roleName, mod.AllNames()); s != "" {
				return nil, fmt.Errorf("cannot find a role: %s::%s (did you mean %q?)", modName, roleName, s)
			}
			return nil, fmt.Errorf("cannot find a role: %s::%s", modName, roleName)
		}
		out[roleName] = true
	}
	return out, nil
}

// ResolveTransitions resolves every parameterless, non-alias top-level
// transition across all modules against env, keeping only those whose
// resolved event list is non-empty (a transition whose events are all
// unobservable from the roles under test carries no conformance-testable
// behavior and is dropped). Ported from test_driver.py's ResolveTransitions.
func ResolveTransitions(modules map[string]*model.Module, rolesToTest map[string]bool) (map[string]*model.TransitionResolved, error) {
	resolved := map[string]*model.TransitionResolved{}
	for _, mod := range modules {
		env := &model.Env{Modules: modules, CurrentModule: mod, RolesToTest: rolesToTest}
		for name, t := range mod.Transitions {
			if !t.IsResolved() {
				continue
			}
			tr, err := t.Resolve(env, nil, map[string]any{})
			if err != nil {
				return nil, fmt.Errorf("resolving transition %q: %w", name, err)
			}
			if _, dup := resolved[name]; dup {
				return nil, fmt.Errorf("duplicate transition name: %s", name)
			}
			if len(tr.Events) == 0 {
				continue
			}
			resolved[name] = tr
		}
	}
	return resolved, nil
}

// InitializeStates gathers every State referenced by a resolved transition's
// pre/post/error states into the single dedicated model.State registry the
// graph package builds the vertex space from, erroring if two distinct
// State declarations share the same name.
func InitializeStates(transitions map[string]*model.TransitionResolved) (map[string]*model.State, error) {
	states := map[string]*model.State{}
	add := func(sv *model.StateValue) error {
		key := sv.State.Name
		if existing, ok := states[key]; ok {
			if existing != sv.State {
				return fmt.Errorf("conflicting declarations for state: %s", key)
			}
			return nil
		}
		states[key] = sv.State
		return nil
	}
	for _, t := range transitions {
		for _, group := range t.PreStates {
			for _, sv := range group {
				if err := add(sv); err != nil {
					return nil, err
				}
			}
		}
		for _, sv := range t.PostStates {
			if err := add(sv); err != nil {
				return nil, err
			}
		}
		for _, sv := range t.ErrorStates {
			if err := add(sv); err != nil {
				return nil, err
			}
		}
	}
	return states, nil
}
