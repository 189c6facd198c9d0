package model

import "fmt"

// Value is anything that resolves to a concrete runtime value, a Func, a
// Role, or a LocalVar: a literal, a `$`/`&` reference, a list, a struct, a
// qualifier invocation, or a message expansion. It is the Go analogue of
// original_source/stl/base.py's Value.Resolve dispatch.
type Value interface {
	Resolve(env *Env, resolvedParams map[string]any) (any, error)
}

// Const is a named, typed constant; Resolve returns its underlying value.
type Const struct {
	Name  string
	Type  string
	Value Value
}

func (c *Const) Resolve(env *Env, resolvedParams map[string]any) (any, error) {
	return c.Value.Resolve(env, resolvedParams)
}

// LiteralValue is a bool, int64, string, or nil constant.
type LiteralValue struct {
	Val any
}

func (v *LiteralValue) Resolve(*Env, map[string]any) (any, error) { return v.Val, nil }

// RefValue is a `$name`, `$role.field`, `&name`, or `&role.field`
// reference. Write selects FuncSet-producing ("&") resolution.
type RefValue struct {
	Path  []string
	Write bool
}

func (v *RefValue) Resolve(env *Env, resolvedParams map[string]any) (any, error) {
	if v.Write {
		return v.resolveWrite(env, resolvedParams)
	}
	return v.resolveRead(env, resolvedParams)
}

func (v *RefValue) resolveRead(env *Env, resolvedParams map[string]any) (any, error) {
	if len(v.Path) > 1 {
		role, err := FindRole(v.Path[0], env, resolvedParams)
		if err != nil {
			return nil, err
		}
		return &FuncGetField{Role: role, Field: v.Path[1]}, nil
	}
	name := v.Path[0]
	if val, ok := resolvedParams[name]; ok {
		if fs, ok := val.(*FuncSet); ok {
			if fs.Local != nil {
				return fs.Local, nil
			}
			return &FuncGetField{Role: fs.Role, Field: fs.Field}, nil
		}
		return val, nil
	}
	if env.CurrentModule != nil {
		if c, ok := env.CurrentModule.Consts[name]; ok {
			return c.Resolve(env, map[string]any{})
		}
		if r, ok := env.CurrentModule.Roles[name]; ok {
			return r, nil
		}
	}
	return nil, fmt.Errorf("cannot find a const, role or local var: %s", name)
}

func (v *RefValue) resolveWrite(env *Env, resolvedParams map[string]any) (any, error) {
	if len(v.Path) > 1 {
		role, err := FindRole(v.Path[0], env, resolvedParams)
		if err != nil {
			return nil, err
		}
		return NewFuncSetRole(role, v.Path[1])
	}
	name := v.Path[0]
	if val, ok := resolvedParams[name]; ok {
		if fs, ok := val.(*FuncSet); ok {
			return fs, nil
		}
		if lv, ok := val.(*LocalVar); ok {
			return NewFuncSetLocal(lv), nil
		}
	}
	if env.CurrentModule != nil {
		if r, ok := env.CurrentModule.Roles[name]; ok {
			return r, nil
		}
	}
	return nil, fmt.Errorf("cannot find a local var or role: %s", name)
}

// ListValue is an array literal; Resolve returns a []any of its resolved
// elements.
type ListValue struct {
	Elems []Value
}

func (v *ListValue) Resolve(env *Env, resolvedParams map[string]any) (any, error) {
	out := make([]any, 0, len(v.Elems))
	for _, e := range v.Elems {
		r, err := e.Resolve(env, resolvedParams)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// NamedValue is one `name = value` entry of a StructValue.
type NamedValue struct {
	Name  string
	Value Value
}

// StructValue is a braced field map; Resolve returns a map[string]any of
// its resolved fields.
type StructValue struct {
	Fields []NamedValue
}

func (v *StructValue) Resolve(env *Env, resolvedParams map[string]any) (any, error) {
	out := make(map[string]any, len(v.Fields))
	for _, f := range v.Fields {
		r, err := f.Value.Resolve(env, resolvedParams)
		if err != nil {
			return nil, err
		}
		out[f.Name] = r
	}
	return out, nil
}
