// Copyright 2020-2023 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ast

// File is the root node of a single parsed .stl file: one module
// declaration followed by its top-level declarations, in source order.
type File struct {
	Filename    string
	ModuleKw    Token
	ModuleName  Token
	Semi        Token
	Consts      []*ConstDecl
	Roles       []*RoleDecl
	States      []*StateDecl
	Messages    []*MessageDecl
	Qualifiers  []*QualifierDecl
	Events      []*EventDecl
	Transitions []*TransitionDecl
}

func (f *File) Span() SourceSpan {
	end := f.Semi.Span.End
	if n := len(f.Transitions); n > 0 {
		end = f.Transitions[n-1].Span().End
	} else if n := len(f.Events); n > 0 {
		end = f.Events[n-1].Span().End
	}
	return SourceSpan{Start: f.ModuleKw.Span.Start, End: end}
}

// ConstDecl is `const type NAME ;` or `const type NAME = value ;`. The type
// token is not stored, and Value is nil when there is no initializer.
type ConstDecl struct {
	ConstKw Token
	Name    Token
	Value   Value
	Semi    Token
}

func (d *ConstDecl) Span() SourceSpan { return SourceSpan{Start: d.ConstKw.Span.Start, End: d.Semi.Span.End} }

// FieldDecl is one `type name ;` member of a role declaration.
type FieldDecl struct {
	TypeTok Token
	Name    Token
	Semi    Token
}

func (d *FieldDecl) Span() SourceSpan { return SourceSpan{Start: d.TypeTok.Span.Start, End: d.Semi.Span.End} }

// RoleDecl is `role NAME { field* }`.
type RoleDecl struct {
	RoleKw Token
	Name   Token
	Fields []*FieldDecl
	RBrace Token
}

func (d *RoleDecl) Span() SourceSpan { return SourceSpan{Start: d.RoleKw.Span.Start, End: d.RBrace.Span.End} }

// ParamDecl is one `type name` (or `type & name` out-param) entry in a
// state/event/transition parameter list. TypeTok's text is a primitive type
// keyword, a message type NAME, or `role`. Out (the `&` sigil) is parsed but,
// per original_source/stl/parser.py, never bound to behavior.
type ParamDecl struct {
	TypeTok Token
	Amp     Token
	Out     bool
	Name    Token
}

func (d *ParamDecl) Span() SourceSpan {
	return SourceSpan{Start: d.TypeTok.Span.Start, End: d.Name.Span.End}
}

// StateDecl is `state NAME ( params ) { value (, value)* }` — a state declaration
// along with the literal names of the values it may take.
type StateDecl struct {
	StateKw Token
	Name    Token
	Params  []*ParamDecl
	Values  []Token
	RBrace  Token
}

func (d *StateDecl) Span() SourceSpan { return SourceSpan{Start: d.StateKw.Span.Start, End: d.RBrace.Span.End} }

// MessageDecl is a message definition:
// `message[?] NAME { encode "..." ; field*-or-external }`, or a nested
// message inside another message's body (Nested true). IsArray marks the
// `message[]` array-message form.
type MessageDecl struct {
	MessageKw    Token
	IsArray      bool
	Name         Token
	EncodeName   Token // the string literal from `encode "..." ;`
	ExternalKw   Token
	ExternalName Token // set when the body is `external "..."` instead of fields
	Fields       []*MessageFieldDecl
	Nested       []*MessageDecl
	RBrace       Token
}

func (d *MessageDecl) Span() SourceSpan {
	return SourceSpan{Start: d.MessageKw.Span.Start, End: d.RBrace.Span.End}
}

// FieldRule is the `required`/`optional`/`repeated` prefix on a message
// field declaration.
type FieldRule int

const (
	FieldRequired FieldRule = iota
	FieldOptional
	FieldRepeated
)

// FieldProperty is one `"key" = constant` entry in a field's `: a, b`
// encoding-property suffix.
type FieldProperty struct {
	Key   Token
	Value Value
}

// MessageFieldDecl is one field of a message body: a primitive-typed field,
// or a reference to a nested/sibling message type (SubMessage set).
type MessageFieldDecl struct {
	RuleKw     Token
	Rule       FieldRule
	TypeTok    Token // bool/int/string, or empty if SubMessage is set
	SubMessage Token // name of a nested or previously declared message
	Name       Token
	Props      []FieldProperty
	Semi       Token
}

func (d *MessageFieldDecl) Span() SourceSpan {
	return SourceSpan{Start: d.RuleKw.Span.Start, End: d.Semi.Span.End}
}

// QualifierDecl is `qualifier type NAME params = external "pkg.Type" ;`. The
// base specification only ever defines qualifiers as external plugins;
// TypeTok names the type of value the qualifier generates/validates.
type QualifierDecl struct {
	QualifierKw  Token
	TypeTok      Token
	Name         Token
	Params       []*ParamDecl
	Eq           Token
	ExternalKw   Token
	ExternalName Token
	Semi         Token
}

func (d *QualifierDecl) Span() SourceSpan {
	return SourceSpan{Start: d.QualifierKw.Span.Start, End: d.Semi.Span.End}
}

// EventDecl is an event definition, in one of these forms distinguished by
// which optional fields are set:
//   - plain:    `event NAME ( params ) { message message_name ; }`
//               or `event NAME ( params ) ;`
//   - external: `event NAME ( params ) = external "pkg.Type" ;`
//   - expand:   `event NAME ( params ) = OtherName ( args ) ;`
type EventDecl struct {
	EventKw      Token
	Name         Token
	Params       []*ParamDecl
	MessageKw    Token
	MessageName  Token
	ExternalKw   Token
	ExternalName Token
	Eq           Token
	ExpandName   Token
	ExpandArgs   []Value
	RBrace       Token
	Semi         Token
}

func (d *EventDecl) Span() SourceSpan {
	end := d.Semi.Span.End
	if d.RBrace.Text != "" {
		end = d.RBrace.Span.End
	}
	return SourceSpan{Start: d.EventKw.Span.Start, End: end}
}

// LocalVarDecl is `local type name ;` inside a transition body.
type LocalVarDecl struct {
	LocalKw Token
	TypeTok Token
	Name    Token
	Semi    Token
}

func (d *LocalVarDecl) Span() SourceSpan {
	return SourceSpan{Start: d.LocalKw.Span.Start, End: d.Semi.Span.End}
}

// StateRefNode is a single `stateName ( args ) . value` occurrence used in a
// post- or error-state list, where exactly one value is named. The state's
// owning role is determined during resolution, not parsing (see the
// resolver package), matching original_source/stl/parser.py's p_state_value.
type StateRefNode struct {
	StateName Token
	Args      []Value
	Value     Token
}

func (n *StateRefNode) Span() SourceSpan {
	end := n.Value.Span.End
	return SourceSpan{Start: n.StateName.Span.Start, End: end}
}

// StateRefGroup is a single `stateName ( args ) . { v1, v2, ... }`
// occurrence used in a pre-state list: one state/args pair paired with a
// disjunctive set of acceptable values. A bare `stateName(args).v` pre-state
// is represented as a group with exactly one value.
type StateRefGroup struct {
	StateName Token
	Args      []Value
	Values    []Token
	RBrace    Token // set only when the `{ v1, v2 }` form was used
}

func (n *StateRefGroup) Span() SourceSpan {
	end := n.Values[len(n.Values)-1].Span.End
	if n.RBrace.Text != "" {
		end = n.RBrace.Span.End
	}
	return SourceSpan{Start: n.StateName.Span.Start, End: end}
}

// EventRefNode is `source -> EventName ( args ) -> target ;` inside a
// transition body's event list.
type EventRefNode struct {
	Source    Token
	Arrow1    Token
	EventName Token
	Args      []Value
	Arrow2    Token
	Target    Token
	Semi      Token
}

func (n *EventRefNode) Span() SourceSpan {
	return SourceSpan{Start: n.Source.Span.Start, End: n.Semi.Span.End}
}

// TransitionDecl is a transition definition, in one of two forms:
//   - full body: `transition NAME ( params ) { local* pre events post error? }`
//   - expand:    `transition NAME ( params ) = OtherName ( args ) ;`
type TransitionDecl struct {
	TransitionKw Token
	Name         Token
	Params       []*ParamDecl
	Locals       []*LocalVarDecl
	PreStates    []*StateRefGroup
	Events       []*EventRefNode
	PostStates   []*StateRefNode
	ErrorStates  []*StateRefNode
	Eq           Token
	ExpandName   Token
	ExpandArgs   []Value
	RBrace       Token
	Semi         Token
}

func (d *TransitionDecl) Span() SourceSpan {
	end := d.Semi.Span.End
	if d.RBrace.Text != "" {
		end = d.RBrace.Span.End
	}
	return SourceSpan{Start: d.TransitionKw.Span.Start, End: end}
}
