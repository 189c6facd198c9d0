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

// Package parser turns STL source text into an *ast.File: a hand-written
// lexer (lexer.go) feeding a hand-written recursive-descent parser, in
// place of the generated LALR(1) grammar original_source/stl/parser.py runs
// under PLY (no goyacc grammar file accompanied the retrieved reference
// material, see DESIGN.md). The parser keeps a running "symbol stack" of
// the grammar symbols it has matched since the start of the current
// top-level declaration, mirroring the PLY parser's symstack so that
// reporter.ClassifySyntaxError can reproduce the same diagnostics.
package parser

import (
	"fmt"

	"github.com/arkwright/stl/ast"
	"github.com/arkwright/stl/reporter"
)

// Result holds a successfully parsed file.
type Result struct {
	File *ast.File
}

// abortParse is panicked internally to unwind out of a deeply recursive
// descent once the Handler has decided the phase should stop.
type abortParse struct{ err error }

type parser struct {
	toks     []ast.Token
	pos      int
	filename string
	lines    []string
	handler  *reporter.Handler
	stack    []string
}

// Parse lexes and parses a single STL source file. It stops at the first
// lexical or syntax error, reports it through handler, and returns a nil
// *ast.File with a non-nil error: the error handler's ErrorReporter returned,
// or a positioned error of its own when the reporter returned nil (as
// reporter.ContinuingReporter does, after recording the diagnostic).
func Parse(filename string, data []byte, handler *reporter.Handler) (file *ast.File, err error) {
	toks, lx, lerr := TokenizeAll(filename, data)
	if lerr != nil {
		le, _ := lerr.(*lexError)
		pos := ast.Position{Filename: filename, Line: 1, Col: 1}
		text := lerr.Error()
		if le != nil {
			pos = le.pos
			text = le.text
		}
		pat := reporter.ClassifyLexError(text)
		span := ast.SourceSpan{Start: pos, End: pos}
		herr := handler.HandleErrorf(pat.ID, span, lx.lineText(pos.Line), "%s", pat.Message)
		if herr == nil {
			herr = fmt.Errorf("%s: %s", pos, pat.Message)
		}
		return nil, herr
	}

	p := &parser{toks: toks, filename: filename, lines: lx.lines, handler: handler}
	defer func() {
		if r := recover(); r != nil {
			ap, ok := r.(abortParse)
			if !ok {
				panic(r)
			}
			err = ap.err
		}
	}()
	return p.parseFile(), nil
}

func (p *parser) lineText(line int) string {
	if line-1 < 0 || line-1 >= len(p.lines) {
		return ""
	}
	return p.lines[line-1]
}

func (p *parser) cur() ast.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos]
}

func (p *parser) advance() ast.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) resetStack() { p.stack = p.stack[:0] }

func (p *parser) push(sym string) { p.stack = append(p.stack, sym) }

// fail reports a syntax error classified from the current symbol stack and
// aborts the parse via panic, caught by Parse's deferred recover.
func (p *parser) fail() {
	tok := p.cur()
	pat := reporter.ClassifySyntaxError(append([]string(nil), p.stack...))
	span := tok.Span
	err := p.handler.HandleErrorf(pat.ID, span, p.lineText(span.Start.Line), "%s", pat.Message)
	if err == nil {
		err = fmt.Errorf("%s: %s", span.Start, pat.Message)
	}
	panic(abortParse{err: err})
}

func (p *parser) expectKeyword(word, symbol string) ast.Token {
	t := p.cur()
	if t.Kind == ast.KindKeyword && t.Keyword == word {
		p.advance()
		p.push(symbol)
		return t
	}
	p.fail()
	return ast.Token{}
}

func (p *parser) expectRune(r rune) ast.Token {
	t := p.cur()
	if t.Kind == ast.KindRune && t.RuneVal == r {
		p.advance()
		p.push(string(r))
		return t
	}
	p.fail()
	return ast.Token{}
}

func (p *parser) expectIdent() ast.Token {
	t := p.cur()
	if t.Kind == ast.KindIdent {
		p.advance()
		p.push("NAME")
		return t
	}
	p.fail()
	return ast.Token{}
}

func (p *parser) expectArrow() ast.Token {
	t := p.cur()
	if t.Kind == ast.KindArrow {
		p.advance()
		p.push("ARROW")
		return t
	}
	p.fail()
	return ast.Token{}
}

func (p *parser) expectString() ast.Token {
	t := p.cur()
	if t.Kind == ast.KindString {
		p.advance()
		p.push("STRING_LITERAL")
		return t
	}
	p.fail()
	return ast.Token{}
}

func (p *parser) atRune(r rune) bool {
	t := p.cur()
	return t.Kind == ast.KindRune && t.RuneVal == r
}

func (p *parser) atKeyword(word string) bool {
	t := p.cur()
	return t.Kind == ast.KindKeyword && t.Keyword == word
}

// parseFile : MODULE NAME ';' decl*
func (p *parser) parseFile() *ast.File {
	p.resetStack()
	moduleKw := p.expectKeyword("module", "MODULE")
	name := p.expectIdent()
	semi := p.expectRune(';')
	f := &ast.File{Filename: p.filename, ModuleKw: moduleKw, ModuleName: name, Semi: semi}

	for p.cur().Kind != ast.KindEOF {
		p.resetStack()
		p.parseDecl(f)
	}
	return f
}

// parseDecl dispatches on the leading keyword to one of the seven top-level
// declaration forms.
func (p *parser) parseDecl(f *ast.File) {
	t := p.cur()
	if t.Kind != ast.KindKeyword {
		p.fail()
		return
	}
	switch t.Keyword {
	case "const":
		f.Consts = append(f.Consts, p.parseConstDecl())
	case "role":
		f.Roles = append(f.Roles, p.parseRoleDecl())
	case "state":
		f.States = append(f.States, p.parseStateDecl())
	case "message":
		f.Messages = append(f.Messages, p.parseMessageDecl())
	case "qualifier":
		f.Qualifiers = append(f.Qualifiers, p.parseQualifierDecl())
	case "event":
		f.Events = append(f.Events, p.parseEventDecl())
	case "transition":
		f.Transitions = append(f.Transitions, p.parseTransitionDecl())
	default:
		p.fail()
	}
}

// parseType accepts bool/int/string/NAME (a message type) as a type name.
func (p *parser) parseType() ast.Token {
	t := p.cur()
	if t.Kind == ast.KindKeyword && (t.Keyword == "bool" || t.Keyword == "int" || t.Keyword == "string") {
		p.advance()
		p.push("type")
		return t
	}
	if t.Kind == ast.KindIdent {
		p.advance()
		p.push("type")
		return t
	}
	p.fail()
	return ast.Token{}
}

// parseTypeOrRole accepts parseType's alternatives plus the `role` keyword.
func (p *parser) parseTypeOrRole() ast.Token {
	if p.atKeyword("role") {
		t := p.advance()
		p.push("type_or_role")
		return t
	}
	t := p.parseType()
	return t
}

// const_def : CONST type NAME ';'
//           | CONST type NAME '=' value ';'
func (p *parser) parseConstDecl() *ast.ConstDecl {
	kw := p.expectKeyword("const", "CONST")
	typ := p.parseType()
	name := p.expectIdent()
	d := &ast.ConstDecl{ConstKw: kw, Name: name}
	_ = typ
	if p.atRune('=') {
		p.expectRune('=')
		d.Value = p.parseValue()
	}
	d.Semi = p.expectRune(';')
	return d
}

// role_def : ROLE NAME '{' field* '}'
func (p *parser) parseRoleDecl() *ast.RoleDecl {
	kw := p.expectKeyword("role", "ROLE")
	name := p.expectIdent()
	p.expectRune('{')
	d := &ast.RoleDecl{RoleKw: kw, Name: name}
	for !p.atRune('}') {
		d.Fields = append(d.Fields, p.parseFieldDecl())
	}
	d.RBrace = p.expectRune('}')
	return d
}

func (p *parser) parseFieldDecl() *ast.FieldDecl {
	typ := p.parseType()
	name := p.expectIdent()
	semi := p.expectRune(';')
	return &ast.FieldDecl{TypeTok: typ, Name: name, Semi: semi}
}

// state_def : STATE NAME params '{' names (',')? '}'
func (p *parser) parseStateDecl() *ast.StateDecl {
	kw := p.expectKeyword("state", "STATE")
	name := p.expectIdent()
	params := p.parseParams()
	p.expectRune('{')
	d := &ast.StateDecl{StateKw: kw, Name: name, Params: params}
	for !p.atRune('}') {
		d.Values = append(d.Values, p.expectIdent())
		if p.atRune(',') {
			p.expectRune(',')
			continue
		}
		break
	}
	d.RBrace = p.expectRune('}')
	return d
}

// params : empty | '(' ')' | '(' param (',' param)* ')'
func (p *parser) parseParams() []*ast.ParamDecl {
	if !p.atRune('(') {
		p.push("params")
		return nil
	}
	p.expectRune('(')
	var params []*ast.ParamDecl
	for !p.atRune(')') {
		params = append(params, p.parseParam())
		if p.atRune(',') {
			p.expectRune(',')
			continue
		}
		break
	}
	p.expectRune(')')
	p.push("params")
	return params
}

// param : type_or_role NAME
//       | type_or_role '&' NAME
func (p *parser) parseParam() *ast.ParamDecl {
	typ := p.parseTypeOrRole()
	d := &ast.ParamDecl{TypeTok: typ}
	if p.atRune('&') {
		d.Amp = p.expectRune('&')
		d.Out = true
	}
	d.Name = p.expectIdent()
	return d
}

// message_def : message_or_array NAME '{' encode_decl message_body_or_external '}'
func (p *parser) parseMessageDecl() *ast.MessageDecl {
	kw := p.expectKeyword("message", "MESSAGE")
	isArray := false
	if p.atRune('[') {
		p.expectRune('[')
		p.expectRune(']')
		isArray = true
	}
	name := p.expectIdent()
	p.expectRune('{')
	d := &ast.MessageDecl{MessageKw: kw, IsArray: isArray, Name: name}
	p.expectKeyword("encode", "ENCODE")
	d.EncodeName = p.expectString()
	p.expectRune(';')
	if p.atKeyword("external") {
		d.ExternalKw = p.expectKeyword("external", "EXTERNAL")
		d.ExternalName = p.expectString()
		p.expectRune(';')
	} else {
		p.parseMessageBody(d)
	}
	d.RBrace = p.expectRune('}')
	return d
}

// message_body : (message_field | sub_message)*
func (p *parser) parseMessageBody(d *ast.MessageDecl) {
	for !p.atRune('}') {
		if p.atKeyword("message") {
			d.Nested = append(d.Nested, p.parseSubMessage())
			continue
		}
		d.Fields = append(d.Fields, p.parseMessageField())
	}
}

// sub_message : MESSAGE NAME '{' message_body '}'
func (p *parser) parseSubMessage() *ast.MessageDecl {
	kw := p.expectKeyword("message", "MESSAGE")
	name := p.expectIdent()
	p.expectRune('{')
	d := &ast.MessageDecl{MessageKw: kw, Name: name}
	p.parseMessageBody(d)
	d.RBrace = p.expectRune('}')
	return d
}

// message_field : field_rule type NAME ';'
//              | field_rule type NAME ':' field_property_list ';'
func (p *parser) parseMessageField() *ast.MessageFieldDecl {
	rule, ruleTok := p.parseFieldRule()
	typ := p.parseType()
	name := p.expectIdent()
	d := &ast.MessageFieldDecl{RuleKw: ruleTok, Rule: rule, TypeTok: typ, Name: name}
	if typ.Kind == ast.KindIdent {
		d.SubMessage = typ
		d.TypeTok = ast.Token{}
	}
	if p.atRune(':') {
		p.expectRune(':')
		d.Props = p.parseFieldPropertyList()
	}
	d.Semi = p.expectRune(';')
	return d
}

func (p *parser) parseFieldRule() (ast.FieldRule, ast.Token) {
	t := p.cur()
	if t.Kind == ast.KindKeyword {
		switch t.Keyword {
		case "required":
			p.advance()
			p.push("field_rule")
			return ast.FieldRequired, t
		case "optional":
			p.advance()
			p.push("field_rule")
			return ast.FieldOptional, t
		case "repeated":
			p.advance()
			p.push("field_rule")
			return ast.FieldRepeated, t
		}
	}
	p.fail()
	return ast.FieldRequired, ast.Token{}
}

func (p *parser) parseFieldPropertyList() []ast.FieldProperty {
	var props []ast.FieldProperty
	props = append(props, p.parseFieldProperty())
	for p.atRune(',') {
		p.expectRune(',')
		props = append(props, p.parseFieldProperty())
	}
	return props
}

// field_property : STRING_LITERAL '=' constant
func (p *parser) parseFieldProperty() ast.FieldProperty {
	key := p.expectString()
	p.expectRune('=')
	val := p.parseConstant()
	return ast.FieldProperty{Key: key, Value: val}
}

// qualifier_def : QUALIFIER type NAME params '=' EXTERNAL STRING_LITERAL ';'
func (p *parser) parseQualifierDecl() *ast.QualifierDecl {
	kw := p.expectKeyword("qualifier", "QUALIFIER")
	typ := p.parseType()
	name := p.expectIdent()
	params := p.parseParams()
	eq := p.expectRune('=')
	extKw := p.expectKeyword("external", "EXTERNAL")
	extName := p.expectString()
	semi := p.expectRune(';')
	return &ast.QualifierDecl{
		QualifierKw: kw, TypeTok: typ, Name: name, Params: params,
		Eq: eq, ExternalKw: extKw, ExternalName: extName, Semi: semi,
	}
}

// event_def : EVENT NAME params ';'
//          | EVENT NAME params '=' EXTERNAL STRING_LITERAL ';'
//          | EVENT NAME params '=' NAME param_values ';'
func (p *parser) parseEventDecl() *ast.EventDecl {
	kw := p.expectKeyword("event", "EVENT")
	name := p.expectIdent()
	params := p.parseParams()
	d := &ast.EventDecl{EventKw: kw, Name: name, Params: params}
	if p.atRune('=') {
		d.Eq = p.expectRune('=')
		if p.atKeyword("external") {
			d.ExternalKw = p.expectKeyword("external", "EXTERNAL")
			d.ExternalName = p.expectString()
		} else {
			d.ExpandName = p.expectIdent()
			d.ExpandArgs = p.parseParamValues()
		}
		d.Semi = p.expectRune(';')
		return d
	}
	// plain form, reconstructed from message_def's original nested body
	// (event NAME params { message message_name ; })
	if p.atRune('{') {
		p.expectRune('{')
		d.MessageKw = p.expectKeyword("message", "MESSAGE")
		d.MessageName = p.expectIdent()
		p.expectRune(';')
		d.RBrace = p.expectRune('}')
		return d
	}
	d.Semi = p.expectRune(';')
	return d
}

// transition_def : TRANSITION NAME params '{' transition_body '}'
//               | TRANSITION NAME params '=' NAME param_values ';'
func (p *parser) parseTransitionDecl() *ast.TransitionDecl {
	kw := p.expectKeyword("transition", "TRANSITION")
	name := p.expectIdent()
	params := p.parseParams()
	d := &ast.TransitionDecl{TransitionKw: kw, Name: name, Params: params}
	if p.atRune('=') {
		d.Eq = p.expectRune('=')
		d.ExpandName = p.expectIdent()
		d.ExpandArgs = p.parseParamValues()
		d.Semi = p.expectRune(';')
		return d
	}
	p.expectRune('{')
	p.parseLocalVars(d)
	p.parsePreStates(d)
	p.parseEvents(d)
	p.parsePostStates(d)
	p.parseErrorStates(d)
	d.RBrace = p.expectRune('}')
	return d
}

// local_vars : (local type NAME ';')*   (wrapping original's `type NAME ';'`
// under a `local` keyword, as DESIGN.md describes, to tell a local_var entry
// apart from a leading message/state field).
func (p *parser) parseLocalVars(d *ast.TransitionDecl) {
	for p.atKeyword("local") {
		localKw := p.expectKeyword("local", "LOCAL")
		typ := p.parseType()
		name := p.expectIdent()
		semi := p.expectRune(';')
		d.Locals = append(d.Locals, &ast.LocalVarDecl{LocalKw: localKw, TypeTok: typ, Name: name, Semi: semi})
	}
	p.push("local_vars")
}

// pre_states : PRE_STATES '=' '[' pre_state_value (',' pre_state_value)* ']'
func (p *parser) parsePreStates(d *ast.TransitionDecl) {
	p.expectKeyword("pre_states", "PRE_STATES")
	p.expectRune('=')
	p.expectRune('[')
	if p.atRune(']') {
		p.fail() // pre-states must be non-empty
	}
	d.PreStates = append(d.PreStates, p.parsePreStateValue())
	for p.atRune(',') {
		p.expectRune(',')
		d.PreStates = append(d.PreStates, p.parsePreStateValue())
	}
	p.expectRune(']')
	p.push("pre_states")
}

// pre_state_value : NAME param_values '.' pre_state_value_options
func (p *parser) parsePreStateValue() *ast.StateRefGroup {
	stateName := p.expectIdent()
	args := p.parseParamValues()
	p.expectRune('.')
	g := &ast.StateRefGroup{StateName: stateName, Args: args}
	if p.atRune('{') {
		p.expectRune('{')
		g.Values = append(g.Values, p.expectIdent())
		for p.atRune(',') {
			p.expectRune(',')
			g.Values = append(g.Values, p.expectIdent())
		}
		g.RBrace = p.expectRune('}')
	} else {
		g.Values = append(g.Values, p.expectIdent())
	}
	return g
}

// events : EVENTS '{' role_event+ '}'
func (p *parser) parseEvents(d *ast.TransitionDecl) {
	p.expectKeyword("events", "EVENTS")
	p.expectRune('{')
	for !p.atRune('}') {
		d.Events = append(d.Events, p.parseRoleEvent())
	}
	p.expectRune('}')
	p.push("events")
}

// role_event : NAME ARROW NAME param_values ARROW NAME ';'
func (p *parser) parseRoleEvent() *ast.EventRefNode {
	source := p.expectIdent()
	arrow1 := p.expectArrow()
	eventName := p.expectIdent()
	args := p.parseParamValues()
	arrow2 := p.expectArrow()
	target := p.expectIdent()
	semi := p.expectRune(';')
	return &ast.EventRefNode{
		Source: source, Arrow1: arrow1, EventName: eventName, Args: args,
		Arrow2: arrow2, Target: target, Semi: semi,
	}
}

// post_states : POST_STATES '=' '[' (state_value (',' state_value)*)? ']'
func (p *parser) parsePostStates(d *ast.TransitionDecl) {
	p.expectKeyword("post_states", "POST_STATES")
	p.expectRune('=')
	p.expectRune('[')
	if !p.atRune(']') {
		d.PostStates = append(d.PostStates, p.parseStateValue())
		for p.atRune(',') {
			p.expectRune(',')
			d.PostStates = append(d.PostStates, p.parseStateValue())
		}
	}
	p.expectRune(']')
	p.push("post_states")
}

// error_states : (ERROR_STATES '=' '[' (state_value (',' state_value)*)? ']')?
func (p *parser) parseErrorStates(d *ast.TransitionDecl) {
	if !p.atKeyword("error_states") {
		return
	}
	p.expectKeyword("error_states", "ERROR_STATES")
	p.expectRune('=')
	p.expectRune('[')
	if !p.atRune(']') {
		d.ErrorStates = append(d.ErrorStates, p.parseStateValue())
		for p.atRune(',') {
			p.expectRune(',')
			d.ErrorStates = append(d.ErrorStates, p.parseStateValue())
		}
	}
	p.expectRune(']')
	p.push("error_states")
}

// state_value : NAME param_values '.' NAME
func (p *parser) parseStateValue() *ast.StateRefNode {
	stateName := p.expectIdent()
	args := p.parseParamValues()
	p.expectRune('.')
	value := p.expectIdent()
	return &ast.StateRefNode{StateName: stateName, Args: args, Value: value}
}

// param_values : empty | '(' ')' | '(' param_value (',' param_value)* ')'
func (p *parser) parseParamValues() []ast.Value {
	if !p.atRune('(') {
		p.push("param_values")
		return nil
	}
	p.expectRune('(')
	var vals []ast.Value
	for !p.atRune(')') {
		vals = append(vals, p.parseParamValue())
		if p.atRune(',') {
			p.expectRune(',')
			continue
		}
		break
	}
	p.expectRune(')')
	p.push("param_values")
	return vals
}

// param_value : value | message_value | message_array
func (p *parser) parseParamValue() ast.Value {
	return p.parseValueOrExpand()
}

// value : constant | reference_maybe_with_ampersand
func (p *parser) parseValue() ast.Value {
	if p.atRune('&') {
		amp := p.expectRune('&')
		path := p.parseReference()
		return &ast.RefValue{Path: path, Write: true, Amp: amp}
	}
	if p.cur().Kind == ast.KindIdent {
		path := p.parseReference()
		return &ast.RefValue{Path: path}
	}
	return p.parseConstant()
}

// parseValueOrExpand additionally recognizes the NAME-led message_value and
// message_array forms, used wherever the grammar allows `param_value` or
// `rvalue`.
func (p *parser) parseValueOrExpand() ast.Value {
	if p.atRune('&') || p.cur().Kind != ast.KindIdent {
		return p.parseValue()
	}
	// NAME could start a reference, a qualifier_value, a message_value, or a
	// message_array; the lookahead after the first NAME disambiguates.
	save := p.pos
	name := p.expectIdent()
	switch {
	case p.atRune('{'):
		p.expectRune('{')
		fields := p.parseFieldValues()
		rbrace := p.expectRune('}')
		return &ast.ExpandValue{Name: name, Fields: fields, RBrace: rbrace}
	case p.atRune('['):
		elems := p.parseArrayElems()
		return &ast.ExpandArrayValue{Name: name, Elements: elems, RBracket: p.prevToken()}
	default:
		p.pos = save
		return p.parseValue()
	}
}

// constant : BOOLEAN | NULL | NUMBER | STRING_LITERAL
func (p *parser) parseConstant() *ast.LiteralValue {
	t := p.cur()
	switch t.Kind {
	case ast.KindBool, ast.KindNull, ast.KindInt, ast.KindString:
		p.advance()
		return &ast.LiteralValue{Tok: t}
	}
	p.fail()
	return nil
}

// reference : NAME ('.' NAME)*
func (p *parser) parseReference() []ast.Token {
	path := []ast.Token{p.expectIdent()}
	for p.atRune('.') {
		p.expectRune('.')
		path = append(path, p.expectIdent())
	}
	return path
}

// field_values : field_value*
func (p *parser) parseFieldValues() []ast.NamedValue {
	var fields []ast.NamedValue
	for !p.atRune('}') {
		fields = append(fields, p.parseFieldValue())
	}
	return fields
}

// field_value : NAME '=' rvalue
func (p *parser) parseFieldValue() ast.NamedValue {
	name := p.expectIdent()
	p.expectRune('=')
	val := p.parseRValue()
	return ast.NamedValue{Name: name, Value: val}
}

// rvalue : value ';' | qualifier_value ';' | array ';' | struct ';'
//        | message_array_value ';' | array | struct | message_array_value
//
// The original grammar allows the trailing ';' to be omitted after a
// bracketed/braced literal (array, struct, message value/array) since those
// forms are visually self-delimiting; a bare value or qualifier_value
// always requires it.
func (p *parser) parseRValue() ast.Value {
	if p.atRune('[') {
		v := p.parseArray()
		p.consumeOptionalSemi()
		return v
	}
	if p.atRune('{') {
		v := p.parseStruct()
		p.consumeOptionalSemi()
		return v
	}
	if p.cur().Kind == ast.KindIdent {
		save := p.pos
		name := p.expectIdent()
		if p.atRune('(') || isQualifierLookaheadEmptyParens(p) {
			args := p.parseParamValues()
			if p.atArrow() {
				p.expectArrow()
				path := p.parseReference()
				out := &ast.RefValue{Path: path, Write: true}
				rparen := p.prevToken()
				p.expectRune(';')
				return &ast.QualifierCallValue{Name: name, Args: args, Out: out, RParen: rparen}
			}
			rparen := p.prevToken()
			p.expectRune(';')
			return &ast.QualifierCallValue{Name: name, Args: args, RParen: rparen}
		}
		if p.atRune('{') || p.atRune('[') {
			p.pos = save
			v := p.parseValueOrExpand()
			p.consumeOptionalSemi()
			return v
		}
		p.pos = save
	}
	v := p.parseValue()
	p.expectRune(';')
	return v
}

func isQualifierLookaheadEmptyParens(p *parser) bool { return p.atRune('(') }

func (p *parser) atArrow() bool { return p.cur().Kind == ast.KindArrow }

func (p *parser) prevToken() ast.Token {
	if p.pos == 0 {
		return p.toks[0]
	}
	return p.toks[p.pos-1]
}

func (p *parser) consumeOptionalSemi() {
	if p.atRune(';') {
		p.expectRune(';')
	}
}

// array : '[' ']' | '[' array_element (',' array_element)* (',')? ']'
func (p *parser) parseArray() *ast.ListValue {
	lbracket := p.expectRune('[')
	v := &ast.ListValue{LBracket: lbracket}
	for !p.atRune(']') {
		v.Elems = append(v.Elems, p.parseArrayElement())
		if p.atRune(',') {
			p.expectRune(',')
			continue
		}
		break
	}
	v.RBracket = p.expectRune(']')
	return v
}

func (p *parser) parseArrayElems() []ast.Value {
	arr := p.parseArray()
	return arr.Elems
}

// array_element : value | array | struct
func (p *parser) parseArrayElement() ast.Value {
	if p.atRune('[') {
		return p.parseArray()
	}
	if p.atRune('{') {
		return p.parseStruct()
	}
	return p.parseValue()
}

// struct : '{' field_values '}'
func (p *parser) parseStruct() *ast.StructValue {
	lbrace := p.expectRune('{')
	fields := p.parseFieldValues()
	rbrace := p.expectRune('}')
	return &ast.StructValue{LBrace: lbrace, RBrace: rbrace, Fields: fields}
}
