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

// Node is implemented by every AST node. It reports the node's span in the
// source file it was parsed from.
type Node interface {
	Span() SourceSpan
}

// Value is the tagged union of everything that can appear on the right-hand
// side of a field, param, or qualifier-call expression: a literal, a `$`/`&`
// reference, a list, a struct (named field map), or a qualifier invocation.
// It is the Go analogue of original_source/stl/base.py's Value.Resolve
// dispatch, modeled as a closed interface per §9 design notes instead of an
// open union of python runtime types.
type Value interface {
	Node
	valueNode()
}

// LiteralValue is a bool, int, string, or null constant.
type LiteralValue struct {
	Tok Token
}

func (v *LiteralValue) Span() SourceSpan { return v.Tok.Span }
func (*LiteralValue) valueNode()         {}

// RefValue is a `$name`, `$role.field`, `&name`, or `&role.field` reference.
// Write is true for `&` references.
type RefValue struct {
	Path  []Token // one element for a bare name, two for `role.field`
	Write bool
	Amp   Token // the '&' token, zero value if Write is false
}

func (v *RefValue) Span() SourceSpan {
	if v.Write {
		return SourceSpan{Start: v.Amp.Span.Start, End: v.Path[len(v.Path)-1].Span.End}
	}
	return SourceSpan{Start: v.Path[0].Span.Start, End: v.Path[len(v.Path)-1].Span.End}
}
func (*RefValue) valueNode() {}

// ListValue is a bracketed `[ elem, elem, ... ]` array literal.
type ListValue struct {
	LBracket, RBracket Token
	Elems              []Value
}

func (v *ListValue) Span() SourceSpan { return SourceSpan{Start: v.LBracket.Span.Start, End: v.RBracket.Span.End} }
func (*ListValue) valueNode()         {}

// NamedValue is one `name = rvalue` entry inside a struct literal or a
// message-expansion's field list.
type NamedValue struct {
	Name  Token
	Value Value
}

// StructValue is a braced `{ name = value; ... }` field map, used both as a
// plain struct literal and (via ExpandValue) as the field list for a message
// expansion.
type StructValue struct {
	LBrace, RBrace Token
	Fields         []NamedValue
}

func (v *StructValue) Span() SourceSpan { return SourceSpan{Start: v.LBrace.Span.Start, End: v.RBrace.Span.End} }
func (*StructValue) valueNode()         {}

// ExpandValue is `Name { field = value; ... }`, expanding a message
// definition named Name with the given field values.
type ExpandValue struct {
	Name   Token
	Fields []NamedValue
	RBrace Token
}

func (v *ExpandValue) Span() SourceSpan { return SourceSpan{Start: v.Name.Span.Start, End: v.RBrace.Span.End} }
func (*ExpandValue) valueNode()         {}

// ExpandArrayValue is `Name [ elem, elem, ... ]`, expanding an array
// message; each element may itself be a value, array, or struct literal.
type ExpandArrayValue struct {
	Name     Token
	Elements []Value
	RBracket Token
}

func (v *ExpandArrayValue) Span() SourceSpan {
	return SourceSpan{Start: v.Name.Span.Start, End: v.RBracket.Span.End}
}
func (*ExpandArrayValue) valueNode() {}

// QualifierCallValue is `qualName(args...)` or `qualName(args...) -> outRef`,
// used as a field/param value.
type QualifierCallValue struct {
	Name   Token
	Args   []Value
	Out    *RefValue // nil if no `-> ref` output binding
	RParen Token
}

func (v *QualifierCallValue) Span() SourceSpan {
	end := v.RParen.Span.End
	if v.Out != nil {
		end = v.Out.Span().End
	}
	return SourceSpan{Start: v.Name.Span.Start, End: end}
}
func (*QualifierCallValue) valueNode() {}
