package model

import "fmt"

// Encoding serializes and parses MessageValue payloads on the wire. It is
// implemented by the encoding package's Json/Protobuf/ProtobufBase64 types;
// kept as a small interface here so model never imports encoding, avoiding
// an import cycle.
type Encoding interface {
	SerializeToString(value any, msg *Message) (string, error)
	ParseFromString(data string, msg *Message) (any, error)
}

// Message is a protocol specification: a named, optionally-array, set of
// typed fields (with nested sub-messages), serialized with Encoding.
type Message struct {
	Name         string
	EncodeName   string
	Encoding     Encoding
	IsArray      bool
	Fields       []*Field
	Messages     map[string]*Message // nested messages, by name
	ExternalName string               // set for message defined via `external "..."`
}

// NewMessage returns an empty Message named name.
func NewMessage(name, encodeName string, isArray bool) *Message {
	return &Message{Name: name, EncodeName: encodeName, IsArray: isArray, Messages: map[string]*Message{}}
}

// Resolve validates resolvedFields (a map[string]any for a plain message, or
// a []any of such maps for an array message) against this Message's field
// declarations and returns the MessageValue wrapping it.
func (m *Message) Resolve(resolvedFields any) (*MessageValue, error) {
	mv := &MessageValue{Name: m.Name, Msg: m}
	outer := []map[string]*Message{m.Messages}
	if m.IsArray {
		arr, ok := resolvedFields.([]any)
		if !ok {
			return nil, fmt.Errorf("message %q expects an array of field maps", m.Name)
		}
		validated, err := m.validateArray(arr, outer)
		if err != nil {
			return nil, err
		}
		mv.Value = validated
		return mv, nil
	}
	dict, ok := resolvedFields.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("message %q expects a field map", m.Name)
	}
	validated, err := m.validateDict(dict, outer)
	if err != nil {
		return nil, err
	}
	mv.Value = validated
	return mv, nil
}

func (m *Message) validateArray(arr []any, outer []map[string]*Message) ([]any, error) {
	out := make([]any, 0, len(arr))
	for _, elem := range arr {
		dict, ok := elem.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("message %q: array element must be a field map", m.Name)
		}
		v, err := m.validateDict(dict, outer)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *Message) validateDict(dict map[string]any, outer []map[string]*Message) (map[string]any, error) {
	valid := map[string]any{}
	for _, f := range m.Fields {
		v, ok := dict[f.Name]
		if ok {
			validated, err := m.validateField(f, v, outer)
			if err != nil {
				return nil, err
			}
			valid[f.Name] = validated
			continue
		}
		if !f.Optional {
			return nil, fmt.Errorf("mandatory field missing in message %q: %s", m.Name, f.Name)
		}
	}
	return valid, nil
}

func (m *Message) validateField(field *Field, value any, outer []map[string]*Message) (any, error) {
	if field.Repeated {
		list, ok := value.([]any)
		if !ok {
			return nil, fmt.Errorf("value list expected in field %q in message %q", field.Name, m.Name)
		}
		plain := &Field{Name: field.Name, Type: field.Type}
		out := make([]any, 0, len(list))
		for _, e := range list {
			v, err := m.validateField(plain, e, outer)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}

	switch field.Type {
	case "bool":
		if value == nil {
			return value, nil
		}
		if _, ok := value.(bool); ok {
			return value, nil
		}
		if lv, ok := value.(*LocalVar); ok && lv.Type == "bool" {
			return value, nil
		}
		if isValidFunc(value, "bool") {
			return value, nil
		}
		return nil, fmt.Errorf("boolean value expected in field %q in message %q", field.Name, m.Name)
	case "int":
		if value == nil {
			return value, nil
		}
		if _, ok := value.(int64); ok {
			return value, nil
		}
		if lv, ok := value.(*LocalVar); ok && lv.Type == "int" {
			return value, nil
		}
		if isValidFunc(value, "int") {
			return value, nil
		}
		return nil, fmt.Errorf("integer value expected in field %q in message %q", field.Name, m.Name)
	case "string":
		if value == nil {
			return value, nil
		}
		if _, ok := value.(string); ok {
			return value, nil
		}
		if lv, ok := value.(*LocalVar); ok && lv.Type == "string" {
			return value, nil
		}
		if isValidFunc(value, "string") {
			return value, nil
		}
		if _, ok := value.(*MessageValue); ok {
			return value, nil
		}
		return nil, fmt.Errorf("string value expected in field %q in message %q", field.Name, m.Name)
	}

	// Sub-message or struct.
	var sub *Message
	if s, ok := m.Messages[field.Type]; ok {
		sub = s
	} else {
		for _, layer := range outer {
			if s, ok := layer[field.Type]; ok {
				sub = s
				break
			}
		}
	}
	if sub == nil {
		return nil, fmt.Errorf("cannot find a message: %s", field.Type)
	}
	dict, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("struct value expected in field %q in message %q", field.Name, m.Name)
	}
	return sub.validateDict(dict, append(outer, m.Messages))
}

// isValidFunc reports whether a resolved Func/QualifierResolved value is
// compatible with the given primitive field type.
func isValidFunc(value any, typ string) bool {
	switch v := value.(type) {
	case *FuncGetField:
		if f, ok := v.Role.Fields[v.Field]; ok {
			return f.Type == typ
		}
	case *FuncSet:
		if v.Local != nil {
			return v.Local.Type == typ
		}
		if v.Role != nil {
			if f, ok := v.Role.Fields[v.Field]; ok {
				return f.Type == typ
			}
		}
	case *QualifierResolved:
		return v.QualType == typ
	}
	return false
}

// MessageExpand is a message expansion appearing in value position:
// `Name { field = value; ... }` or `Name [ elem, ... ]`, ported from
// original_source/stl/base.py's Expand.Resolve (the message-only case; the
// event/state/transition expand forms are resolved directly by the
// resolver package).
type MessageExpand struct {
	Name       string
	Fields     []NamedValue // non-array form
	IsArray    bool
	ArrayElems []Value // array form: each resolves to a field-map Value
}

func (e *MessageExpand) Resolve(env *Env, resolvedParams map[string]any) (any, error) {
	msg, ok := env.CurrentModule.Messages[e.Name]
	if !ok {
		return nil, fmt.Errorf("cannot find a message: %s", e.Name)
	}
	if msg.IsArray {
		if !e.IsArray || len(e.ArrayElems) != 1 {
			return nil, fmt.Errorf("message %q is an array message", e.Name)
		}
		resolved, err := e.ArrayElems[0].Resolve(env, resolvedParams)
		if err != nil {
			return nil, err
		}
		arr, ok := resolved.([]any)
		if !ok {
			return nil, fmt.Errorf("message %q expects an array literal", e.Name)
		}
		return msg.Resolve(arr)
	}

	fields := map[string]any{}
	for _, f := range e.Fields {
		v, err := f.Value.Resolve(env, resolvedParams)
		if err != nil {
			return nil, err
		}
		fields[f.Name] = v
	}
	return msg.Resolve(fields)
}

// MessageValue is a concrete instance of a Message: the validated field map
// (or array of field maps), ready to be serialized or matched against wire
// data.
type MessageValue struct {
	Name  string
	Msg   *Message
	Value any
}

// Encode resolves every variable/function/qualifier embedded in this
// value's fields down to concrete data, then serializes it with the
// message's Encoding.
func (mv *MessageValue) Encode() (string, error) {
	resolved, err := resolveVars(mv.Value)
	if err != nil {
		return "", err
	}
	return mv.Msg.Encoding.SerializeToString(resolved, mv.Msg)
}

// Match decodes encoded with this value's Encoding and reports whether it
// is compatible with this value's expectations (running/validating any
// embedded Func/QualifierResolved/LocalVar as a side effect).
func (mv *MessageValue) Match(encoded string) (bool, error) {
	decoded, err := mv.Msg.Encoding.ParseFromString(encoded, mv.Msg)
	if err != nil {
		return false, err
	}
	return matchValue(mv.Value, decoded)
}

func resolveVars(value any) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			r, err := resolveVars(e)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case []any:
		out := make([]any, 0, len(v))
		for _, e := range v {
			r, err := resolveVars(e)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		}
		return out, nil
	case *QualifierResolved:
		return v.Generate()
	case *LocalVar:
		if v.Value == nil {
			return nil, fmt.Errorf("local var %q does not have a value", v.Name)
		}
		return v.Value, nil
	case Func:
		return v.Run()
	case *MessageValue:
		return v.Encode()
	default:
		return value, nil
	}
}

func matchValue(expected, actual any) (bool, error) {
	switch e := expected.(type) {
	case map[string]any:
		a, ok := actual.(map[string]any)
		if !ok {
			return false, nil
		}
		for k, v := range e {
			av, ok := a[k]
			if !ok {
				return false, nil
			}
			ok2, err := matchValue(v, av)
			if err != nil || !ok2 {
				return ok2, err
			}
		}
		return true, nil
	case []any:
		a, ok := actual.([]any)
		if !ok {
			return false, nil
		}
		for _, ev := range e {
			found := false
			for _, av := range a {
				ok2, err := matchValue(ev, av)
				if err != nil {
					return false, err
				}
				if ok2 {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		}
		return true, nil
	case *QualifierResolved:
		return e.ValidateAndSet(actual)
	case *FuncSet:
		if err := e.SetValue(actual); err != nil {
			return false, err
		}
		return true, nil
	case *LocalVar:
		return e.Value == actual, nil
	case Func:
		r, err := e.Run()
		if err != nil {
			return false, err
		}
		return r == actual, nil
	case *MessageValue:
		s, ok := actual.(string)
		if !ok {
			return false, fmt.Errorf("expected an encoded string to match message %q", e.Name)
		}
		return e.Match(s)
	default:
		return expected == actual, nil
	}
}
