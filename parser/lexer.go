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

package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/arkwright/stl/ast"
)

// reservedWords is the set of keywords in an STL source file; anything not
// in this table lexes as a plain NAME.
var reservedWords = map[string]bool{
	"bool": true, "const": true, "encode": true, "error_states": true,
	"event": true, "events": true, "external": true, "int": true,
	"message": true, "module": true, "optional": true, "post_states": true,
	"pre_states": true, "qualifier": true, "repeated": true, "required": true,
	"role": true, "state": true, "string": true, "transition": true, "local": true,
}

// lexError is raised internally when the scanner hits invalid input; it
// carries enough information for the caller to classify and report it.
type lexError struct {
	pos  ast.Position
	text string
}

func (e *lexError) Error() string { return fmt.Sprintf("%s: invalid token %q", e.pos, e.text) }

// lexer is a hand-written rune-at-a-time scanner for STL source, the Go
// analogue of original_source/stl/lexer.py's ply.lex token rules.
type lexer struct {
	filename string
	data     []byte
	pos      int
	line     int
	col      int

	lines []string
}

func newLexer(filename string, data []byte) *lexer {
	return &lexer{
		filename: filename,
		data:     data,
		line:     1,
		col:      1,
		lines:    strings.Split(string(data), "\n"),
	}
}

func (l *lexer) lineText(n int) string {
	if n-1 < 0 || n-1 >= len(l.lines) {
		return ""
	}
	return l.lines[n-1]
}

func (l *lexer) here() ast.Position {
	return ast.Position{Filename: l.filename, Line: l.line, Col: l.col}
}

func (l *lexer) peekRune() (rune, int) {
	if l.pos >= len(l.data) {
		return 0, 0
	}
	r, sz := utf8.DecodeRune(l.data[l.pos:])
	return r, sz
}

func (l *lexer) advance() (rune, bool) {
	r, sz := l.peekRune()
	if sz == 0 {
		return 0, false
	}
	l.pos += sz
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r, true
}

func isNameStart(r rune) bool { return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }
func isNameCont(r rune) bool  { return isNameStart(r) || (r >= '0' && r <= '9') }
func isDigit(r rune) bool     { return r >= '0' && r <= '9' }

// next scans and returns the next token, skipping whitespace, newlines, and
// `//` line comments exactly as t_ignore/t_newline/t_COMMENT do in the
// original lexer. It returns a lexError when the input cannot be tokenized
// (an unterminated string, a stray `'`, or any other unrecognized rune).
func (l *lexer) next() (ast.Token, error) {
	for {
		r, sz := l.peekRune()
		if sz == 0 {
			start := l.here()
			return ast.Token{Kind: ast.KindEOF, Text: "", Span: ast.SourceSpan{Start: start, End: start}}, nil
		}
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			l.advance()
			continue
		}
		if r == '/' {
			if r2, sz2 := l.peekRuneAt(sz); r2 == '/' {
				_ = sz2
				for {
					r, sz := l.peekRune()
					if sz == 0 || r == '\n' {
						break
					}
					l.advance()
				}
				continue
			}
		}
		break
	}

	start := l.here()
	r, _ := l.peekRune()

	switch {
	case r == '-':
		// could be ARROW (->) or a negative NUMBER
		r2, sz2 := l.peekRuneAt(utf8.RuneLen(r))
		if r2 == '>' {
			l.advance()
			l.advance()
			return l.tok(ast.KindArrow, "->", start), nil
		}
		if isDigit(r2) {
			return l.scanNumber(start)
		}
		l.advance()
		return ast.Token{}, &lexError{pos: start, text: "-"}
	case isDigit(r):
		return l.scanNumber(start)
	case isNameStart(r):
		return l.scanName(start)
	case r == '"':
		return l.scanString(start)
	case r == '\'':
		l.advance()
		return ast.Token{}, &lexError{pos: start, text: "'"}
	case strings.ContainsRune(":;{}()[]=,.&", r):
		l.advance()
		return l.tok(ast.KindRune, string(r), start), nil
	default:
		l.advance()
		return ast.Token{}, &lexError{pos: start, text: string(r)}
	}
}

func (l *lexer) peekRuneAt(offset int) (rune, int) {
	if l.pos+offset >= len(l.data) {
		return 0, 0
	}
	r, sz := utf8.DecodeRune(l.data[l.pos+offset:])
	return r, sz
}

func (l *lexer) tok(kind ast.Kind, text string, start ast.Position) ast.Token {
	end := l.here()
	end.Col--
	if kind == ast.KindRune {
		return ast.Token{Kind: kind, Text: text, RuneVal: []rune(text)[0], Span: ast.SourceSpan{Start: start, End: end}}
	}
	return ast.Token{Kind: kind, Text: text, Span: ast.SourceSpan{Start: start, End: end}}
}

func (l *lexer) scanNumber(start ast.Position) (ast.Token, error) {
	var b strings.Builder
	if r, _ := l.peekRune(); r == '-' {
		b.WriteRune(r)
		l.advance()
	}
	for {
		r, sz := l.peekRune()
		if sz == 0 || !isDigit(r) {
			break
		}
		b.WriteRune(r)
		l.advance()
	}
	text := b.String()
	var v int64
	neg := strings.HasPrefix(text, "-")
	digits := strings.TrimPrefix(text, "-")
	for _, c := range digits {
		v = v*10 + int64(c-'0')
	}
	if neg {
		v = -v
	}
	end := l.here()
	end.Col--
	return ast.Token{Kind: ast.KindInt, Text: text, IntVal: v, Span: ast.SourceSpan{Start: start, End: end}}, nil
}

func (l *lexer) scanName(start ast.Position) (ast.Token, error) {
	var b strings.Builder
	for {
		r, sz := l.peekRune()
		if sz == 0 || !isNameCont(r) {
			break
		}
		b.WriteRune(r)
		l.advance()
	}
	text := b.String()
	end := l.here()
	end.Col--
	span := ast.SourceSpan{Start: start, End: end}
	switch text {
	case "true", "false":
		return ast.Token{Kind: ast.KindBool, Text: text, BoolVal: text == "true", Span: span}, nil
	case "null":
		return ast.Token{Kind: ast.KindNull, Text: text, Span: span}, nil
	}
	if reservedWords[text] {
		return ast.Token{Kind: ast.KindKeyword, Text: text, Keyword: text, Span: span}, nil
	}
	return ast.Token{Kind: ast.KindIdent, Text: text, Span: span}, nil
}

// scanString implements the original's STRING_LITERAL rule
// `"([^\\"]|\\"|\\\\)*"`: only `\"` and `\\` are recognized escapes. An
// unterminated literal is reported as a missing-closing-quote lexError.
func (l *lexer) scanString(start ast.Position) (ast.Token, error) {
	l.advance() // opening quote
	var b strings.Builder
	raw := strings.Builder{}
	raw.WriteByte('"')
	for {
		r, sz := l.peekRune()
		if sz == 0 {
			return ast.Token{}, &lexError{pos: start, text: `"` + b.String()}
		}
		if r == '\\' {
			r2, sz2 := l.peekRuneAt(sz)
			if r2 == '"' || r2 == '\\' {
				l.advance()
				l.advance()
				b.WriteRune(r2)
				raw.WriteByte('\\')
				raw.WriteRune(r2)
				continue
			}
			_ = sz2
		}
		if r == '"' {
			l.advance()
			break
		}
		b.WriteRune(r)
		raw.WriteRune(r)
		l.advance()
	}
	end := l.here()
	end.Col--
	return ast.Token{Kind: ast.KindString, Text: b.String(), Span: ast.SourceSpan{Start: start, End: end}}, nil
}

// TokenizeAll scans data in full, returning every token (including the
// trailing EOF token) or the first lexError encountered, classified into a
// reporter.Diagnostic by the caller via reporter.ClassifyLexError.
func TokenizeAll(filename string, data []byte) ([]ast.Token, *lexer, error) {
	l := newLexer(filename, data)
	var toks []ast.Token
	for {
		tok, err := l.next()
		if err != nil {
			return toks, l, err
		}
		toks = append(toks, tok)
		if tok.Kind == ast.KindEOF {
			return toks, l, nil
		}
	}
}
