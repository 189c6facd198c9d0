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
	"github.com/arkwright/stl/reporter"
)

func parseSource(t *testing.T, src string) (*ast.File, []reporter.Diagnostic, error) {
	t.Helper()
	var diags []reporter.Diagnostic
	handler := reporter.NewHandler(reporter.ContinuingReporter(&diags))
	file, err := Parse("t.stl", []byte(src), handler)
	return file, diags, err
}

func TestParseValidModule(t *testing.T) {
	src := `module Ping;

role Client {
	string address;
}

role Server {
	string address;
}

state Conn() {
	closed, open
}

event Ping() = external "event.Ping";

transition Connect() {
	pre_states = [
		Conn().closed
	]
	events {
		Client -> Ping() -> Server;
	}
	post_states = [
		Conn().open
	]
}
`
	file, diags, err := parseSource(t, src)
	require.NoError(t, err)
	require.Empty(t, diags)
	require.NotNil(t, file)

	require.Equal(t, "Ping", file.ModuleName.Text)
	require.NotEmpty(t, file.Semi.Text)

	require.Len(t, file.Roles, 2)
	require.Equal(t, "Client", file.Roles[0].Name.Text)
	require.Len(t, file.Roles[0].Fields, 1)
	require.Equal(t, "address", file.Roles[0].Fields[0].Name.Text)

	require.Len(t, file.States, 1)
	require.Equal(t, "Conn", file.States[0].Name.Text)
	require.Len(t, file.States[0].Values, 2)
	require.Equal(t, "closed", file.States[0].Values[0].Text)
	require.Equal(t, "open", file.States[0].Values[1].Text)

	require.Len(t, file.Events, 1)
	require.Equal(t, "Ping", file.Events[0].Name.Text)
	require.Equal(t, "event.Ping", file.Events[0].ExternalName.Text)

	require.Len(t, file.Transitions, 1)
	tr := file.Transitions[0]
	require.Equal(t, "Connect", tr.Name.Text)
	require.Len(t, tr.PreStates, 1)
	require.Equal(t, "Conn", tr.PreStates[0].StateName.Text)
	require.Equal(t, []string{"closed"}, tokenTexts(tr.PreStates[0].Values))
	require.Len(t, tr.Events, 1)
	require.Equal(t, "Client", tr.Events[0].Source.Text)
	require.Equal(t, "Server", tr.Events[0].Target.Text)
	require.Len(t, tr.PostStates, 1)
	require.Equal(t, "open", tr.PostStates[0].Value.Text)
}

func tokenTexts(toks []ast.Token) []string {
	out := make([]string, len(toks))
	for i, tok := range toks {
		out[i] = tok.Text
	}
	return out
}

// TestParseMissingModuleSemicolon reproduces the documented scenario: a
// module name not followed by ';' must fail at the next token with the
// missing-semicolon diagnostic, not silently parse the next declaration as
// if it were part of the module header.
func TestParseMissingModuleSemicolon(t *testing.T) {
	src := "module foo\nconst int a = 1;"
	file, diags, err := parseSource(t, src)
	require.Error(t, err)
	require.Nil(t, file)
	require.Len(t, diags, 1)
	require.Equal(t, 201, diags[0].ID)
	require.Equal(t, 2, diags[0].Pos.Start.Line)
}

func TestParseMissingClosingBrace(t *testing.T) {
	src := `module Foo;
role R {
`
	_, diags, err := parseSource(t, src)
	require.Error(t, err)
	require.Len(t, diags, 1)
	require.Equal(t, 202, diags[0].ID)
}

func TestParseEmptyPreStates(t *testing.T) {
	src := `module Foo;
state Conn() {
	closed, open
}
transition Connect {
	pre_states = [
	]
	events {
	}
	post_states = [
		Conn().open
	]
}
`
	_, diags, err := parseSource(t, src)
	require.Error(t, err)
	require.Len(t, diags, 1)
	require.Equal(t, 303, diags[0].ID)
}
