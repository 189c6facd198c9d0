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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arkwright/stl/ast"
)

func TestTokenizeAllKeywordsIdentsAndLiterals(t *testing.T) {
	src := `module Foo;
role Client { string address; }
const int timeout = -5;
`
	toks, _, err := TokenizeAll("t.stl", []byte(src))
	require.NoError(t, err)
	require.NotEmpty(t, toks)
	require.Equal(t, ast.KindEOF, toks[len(toks)-1].Kind)

	kinds := make([]ast.Kind, 0, len(toks))
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	require.Contains(t, kinds, ast.KindKeyword)
	require.Contains(t, kinds, ast.KindIdent)
	require.Contains(t, kinds, ast.KindInt)

	var negFive *ast.Token
	for i := range toks {
		if toks[i].Kind == ast.KindInt && toks[i].Text == "-5" {
			negFive = &toks[i]
		}
	}
	require.NotNil(t, negFive)
	require.Equal(t, int64(-5), negFive.IntVal)
}

func TestTokenizeAllStringEscapes(t *testing.T) {
	toks, _, err := TokenizeAll("t.stl", []byte(`const string s = "a\"b\\c";`))
	require.NoError(t, err)
	var str *ast.Token
	for i := range toks {
		if toks[i].Kind == ast.KindString {
			str = &toks[i]
		}
	}
	require.NotNil(t, str)
	require.Equal(t, `a"b\c`, str.Text)
}

func TestTokenizeAllArrowVersusNegativeNumber(t *testing.T) {
	toks, _, err := TokenizeAll("t.stl", []byte(`A -> B; -3;`))
	require.NoError(t, err)
	var sawArrow, sawNeg bool
	for _, tok := range toks {
		if tok.Kind == ast.KindArrow {
			sawArrow = true
		}
		if tok.Kind == ast.KindInt && tok.Text == "-3" {
			sawNeg = true
		}
	}
	require.True(t, sawArrow)
	require.True(t, sawNeg)
}

func TestTokenizeAllSkipsLineComments(t *testing.T) {
	toks, _, err := TokenizeAll("t.stl", []byte("module Foo; // trailing comment\n// whole line\nconst"))
	require.NoError(t, err)
	var texts []string
	for _, tok := range toks {
		if tok.Kind != ast.KindEOF {
			texts = append(texts, tok.Text)
		}
	}
	require.Equal(t, []string{"module", "Foo", ";", "const"}, texts)
}

func TestTokenizeAllUnterminatedStringErrors(t *testing.T) {
	_, _, err := TokenizeAll("t.stl", []byte(`const string s = "oops;`))
	require.Error(t, err)
	le, ok := err.(*lexError)
	require.True(t, ok)
	require.Contains(t, le.text, `"`)
}

func TestTokenizeAllSingleQuoteErrors(t *testing.T) {
	_, _, err := TokenizeAll("t.stl", []byte(`const string s = 'nope';`))
	require.Error(t, err)
	le, ok := err.(*lexError)
	require.True(t, ok)
	require.Equal(t, "'", le.text)
}

func TestTokenizeAllUnknownRuneErrors(t *testing.T) {
	_, _, err := TokenizeAll("t.stl", []byte(`const int a = 1 # 2;`))
	require.Error(t, err)
	_, ok := err.(*lexError)
	require.True(t, ok)
}
