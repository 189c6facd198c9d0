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

// Package reporter collects and formats diagnostics produced while lexing,
// parsing, and resolving an STL module: positioned errors, a numeric
// diagnostic-ID scheme, and a three-line pretty-printer.
package reporter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arkwright/stl/ast"
)

// ErrInvalidSource is the error that the default ErrorReporter (a nil
// reporter passed to NewHandler) and AbortingReporter return to abort a
// compilation phase at its first error.
var ErrInvalidSource = errors.New("invalid STL source")

// ErrorWithPos is an error tied to a location in an STL source file.
type ErrorWithPos interface {
	error
	GetPosition() ast.SourceSpan
	Unwrap() error
}

// Error wraps err with the given source position.
func Error(pos ast.SourceSpan, err error) ErrorWithPos {
	return errorWithSourcePos{pos: pos, underlying: err}
}

// Errorf is like Error, building the underlying error with fmt.Errorf.
func Errorf(pos ast.SourceSpan, format string, args ...interface{}) ErrorWithPos {
	return errorWithSourcePos{pos: pos, underlying: fmt.Errorf(format, args...)}
}

type errorWithSourcePos struct {
	underlying error
	pos        ast.SourceSpan
}

func (e errorWithSourcePos) Error() string {
	return fmt.Sprintf("%s: %v", e.pos.Start, e.underlying)
}

func (e errorWithSourcePos) GetPosition() ast.SourceSpan { return e.pos }
func (e errorWithSourcePos) Unwrap() error               { return e.underlying }

var _ ErrorWithPos = errorWithSourcePos{}

// ErrorReporter is invoked for every diagnostic reported through a Handler.
// Returning a non-nil error aborts the calling phase immediately with that
// error; returning nil records the diagnostic without asking the phase to
// abort.
type ErrorReporter func(diag Diagnostic) error

// Severity classifies a Diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Diagnostic is one fully-classified error or warning: a stable numeric ID
// (from the pattern tables in pattern.go), its Severity, the human-readable message, and the
// source position plus line text needed to render it.
type Diagnostic struct {
	ID       int
	Severity Severity
	Pos      ast.SourceSpan
	Line     string
	Message  string
}

// Handler accumulates diagnostics reported during a single compilation phase
// (lex, parse, resolve) and decides, via its ErrorReporter, whether to keep
// going after an error.
type Handler struct {
	reporter    ErrorReporter
	errorCount  int
	reportedAny bool
}

// NewHandler returns a Handler that uses reporter to decide whether to
// continue after each diagnostic. A nil reporter aborts on the first error.
func NewHandler(reporter ErrorReporter) *Handler {
	if reporter == nil {
		reporter = func(Diagnostic) error { return ErrInvalidSource }
	}
	return &Handler{reporter: reporter}
}

// HandleErrorf reports an error built via fmt.Sprintf and returns non-nil
// if the calling phase should abort immediately.
func (h *Handler) HandleErrorf(id int, pos ast.SourceSpan, line, format string, args ...interface{}) error {
	return h.HandleError(Diagnostic{
		ID:       id,
		Severity: SeverityError,
		Pos:      pos,
		Line:     line,
		Message:  fmt.Sprintf(format, args...),
	})
}

// HandleError reports diag and returns non-nil if the calling phase should
// abort immediately.
func (h *Handler) HandleError(diag Diagnostic) error {
	h.errorCount++
	h.reportedAny = true
	return h.reporter(diag)
}

// HandleWarningf reports a non-fatal diagnostic; its return value is always
// ignored by convention, since warnings never abort a phase.
func (h *Handler) HandleWarningf(id int, pos ast.SourceSpan, line, format string, args ...interface{}) {
	h.reporter(Diagnostic{
		ID:       id,
		Severity: SeverityWarning,
		Pos:      pos,
		Line:     line,
		Message:  fmt.Sprintf(format, args...),
	})
}

// ErrorCount returns the number of errors handled so far.
func (h *Handler) ErrorCount() int { return h.errorCount }

// ReportedAny reports whether any diagnostic (error or warning) was handled.
func (h *Handler) ReportedAny() bool { return h.reportedAny }

// AbortingReporter is an ErrorReporter that aborts on the very first error;
// it is the default behavior when a Handler is given a nil reporter.
func AbortingReporter(diag Diagnostic) error {
	if diag.Severity == SeverityError {
		return ErrInvalidSource
	}
	return nil
}

// ContinuingReporter returns an ErrorReporter that never aborts, collecting
// every diagnostic into diags as it is reported. Callers check
// len(*diags) == 0 after the phase completes.
func ContinuingReporter(diags *[]Diagnostic) ErrorReporter {
	return func(diag Diagnostic) error {
		*diags = append(*diags, diag)
		return nil
	}
}

// Format renders diag as a three-line pretty-printed diagnostic: a
// message+location line, the offending source line, and a caret-underline
// line beneath it.
func Format(diag Diagnostic) string {
	var b strings.Builder
	fmt.Fprintf(&b, "error(%s): %s\n", diag.Pos.Start, diag.Message)
	prefix := fmt.Sprintf(" %d | ", diag.Pos.Start.Line)
	b.WriteString(prefix)
	b.WriteString(diag.Line)
	b.WriteString("\n")
	b.WriteString(strings.Repeat(" ", len(prefix)))
	start := diag.Pos.Start.Col - 1
	if start < 0 {
		start = 0
	}
	width := diag.Pos.End.Col - diag.Pos.Start.Col + 1
	if width < 1 {
		width = 1
	}
	b.WriteString(strings.Repeat(" ", start))
	b.WriteString(strings.Repeat("^", width))
	return b.String()
}
