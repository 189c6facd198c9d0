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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func tok(text string, line int) Token {
	pos := Position{Filename: "t.stl", Line: line, Col: 1}
	end := Position{Filename: "t.stl", Line: line, Col: len(text)}
	return Token{Kind: KindIdent, Text: text, Span: SourceSpan{Start: pos, End: end}}
}

func TestFileSpanWithNoDecls(t *testing.T) {
	f := &File{
		ModuleKw: tok("module", 1),
		Semi:     tok(";", 1),
	}
	span := f.Span()
	require.Equal(t, 1, span.Start.Line)
	require.Equal(t, f.Semi.Span.End, span.End)
}

func TestFileSpanExtendsToLastTransition(t *testing.T) {
	f := &File{
		ModuleKw: tok("module", 1),
		Semi:     tok(";", 1),
		Transitions: []*TransitionDecl{
			{TransitionKw: tok("transition", 2), Semi: tok(";", 2)},
			{TransitionKw: tok("transition", 3), Semi: tok(";", 3)},
		},
	}
	span := f.Span()
	require.Equal(t, f.Transitions[1].Span().End, span.End)
}

func TestRefValueSpanForWriteReference(t *testing.T) {
	amp := Token{Text: "&", Span: SourceSpan{Start: Position{Line: 1, Col: 1}, End: Position{Line: 1, Col: 1}}}
	path := []Token{tok("Client", 1), tok("address", 1)}
	v := &RefValue{Path: path, Write: true, Amp: amp}
	span := v.Span()
	require.Equal(t, amp.Span.Start, span.Start)
	require.Equal(t, path[1].Span.End, span.End)
}

func TestKindString(t *testing.T) {
	require.Equal(t, "identifier", KindIdent.String())
	require.Equal(t, "\"->\"", KindArrow.String())
}

func TestTokenStringReturnsText(t *testing.T) {
	tk := Token{Text: "foo"}
	require.Equal(t, "foo", tk.String())
}
