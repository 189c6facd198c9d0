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

package reporter

import "strings"

// SyntaxErrorPattern matches a suffix of the parser's symbol stack (the
// sequence of terminal/non-terminal names pushed while recognizing a
// production) against one of a fixed list of known error shapes, the way
// original_source/stl/parser_error.py's ParserError.Matches does. The
// longest, most specific patterns are checked first; StackPatterns is nil
// for the catch-all pattern, which always matches.
type SyntaxErrorPattern struct {
	Name         string
	ID           int
	Message      string
	StackPatterns [][]string
}

// Matches reports whether stack (oldest symbol first) ends with any of p's
// stack patterns.
func (p SyntaxErrorPattern) Matches(stack []string) bool {
	if p.StackPatterns == nil {
		return true
	}
	joined := strings.Join(stack, " ")
	for _, pattern := range p.StackPatterns {
		if strings.HasSuffix(joined, strings.Join(pattern, " ")) {
			return true
		}
	}
	return false
}

// SyntaxErrorPatterns is the prioritized list of recognized syntax error
// shapes, longest and most specific first; UnknownSyntaxError is always
// checked last.
var SyntaxErrorPatterns = []SyntaxErrorPattern{
	{
		Name:    "missing-string-quote",
		ID:      101,
		Message: "Missing closing quote",
	},
	{
		Name:    "unsupported-single-quote",
		ID:      102,
		Message: "Use double quotes",
	},
	{
		Name:    "empty-pre-states",
		ID:      303,
		Message: "Pre-states must be non-empty",
		StackPatterns: [][]string{
			{"TRANSITION", "NAME", "params", "{", "local_vars", "PRE_STATES", "=", "["},
		},
	},
	{
		Name:    "missing-pre-states",
		ID:      302,
		Message: "Pre-states required",
		StackPatterns: [][]string{
			{"TRANSITION", "NAME", "params", "{", "local_vars"},
		},
	},
	{
		Name:    "missing-post-states",
		ID:      301,
		Message: "Post-states required (empty list allowed)",
		StackPatterns: [][]string{
			{"TRANSITION", "NAME", "params", "{", "local_vars", "pre_states", "events"},
		},
	},
	{
		Name:    "missing-closing-curly-brace",
		ID:      202,
		Message: "Missing }",
		StackPatterns: [][]string{
			{"{"},
		},
	},
	{
		Name:    "missing-semicolon",
		ID:      201,
		Message: "Missing semicolon",
		StackPatterns: [][]string{
			{"CONST", "type", "NAME"},
			{"MODULE", "NAME"},
			{"NAME", "ARROW", "NAME", "param_values", "ARROW", "NAME"},
		},
	},
}

// UnknownSyntaxError is the final catch-all diagnostic when no pattern in
// SyntaxErrorPatterns matches.
var UnknownSyntaxError = SyntaxErrorPattern{
	Name:    "unknown-syntax-error",
	ID:      0,
	Message: "There was a parsing error",
}

// ClassifySyntaxError returns the first pattern (in priority order) whose
// stack patterns match the given symbol stack, falling back to
// UnknownSyntaxError.
func ClassifySyntaxError(stack []string) SyntaxErrorPattern {
	for _, p := range SyntaxErrorPatterns {
		if len(p.StackPatterns) == 0 {
			continue
		}
		if p.Matches(stack) {
			return p
		}
	}
	return UnknownSyntaxError
}

// ClassifyLexError returns the lexer-level pattern (101/102) matching the
// raw offending token text, or UnknownSyntaxError if neither applies.
func ClassifyLexError(tokenText string) SyntaxErrorPattern {
	switch {
	case strings.HasPrefix(tokenText, `"`):
		return SyntaxErrorPatterns[0] // missing-string-quote
	case strings.HasPrefix(tokenText, "'"):
		return SyntaxErrorPatterns[1] // unsupported-single-quote
	default:
		return UnknownSyntaxError
	}
}
