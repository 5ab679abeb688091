// Package diag collects compiler diagnostics: errors and warnings tied to a
// source position. The lexer and parser (through parser.ParseFile) and the
// semantic analyzer report into a Bag; the driver renders it and decides the
// exit code. IR generation and code generation do not use a Bag.
package diag

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Severity distinguishes a fatal diagnostic from an advisory one.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Diagnostic is one reported problem, always anchored to a source position.
type Diagnostic struct {
	File     string
	Line     int
	Col      int
	Severity Severity
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", d.File, d.Line, d.Col, d.Severity, d.Message)
}

// Bag accumulates diagnostics for a single compile invocation.
type Bag struct {
	File string
	List []Diagnostic
}

func NewBag(file string) *Bag { return &Bag{File: file} }

func (b *Bag) Errorf(line, col int, format string, args ...interface{}) {
	b.List = append(b.List, Diagnostic{
		File: b.File, Line: line, Col: col,
		Severity: Error, Message: fmt.Sprintf(format, args...),
	})
}

func (b *Bag) Warnf(line, col int, format string, args ...interface{}) {
	b.List = append(b.List, Diagnostic{
		File: b.File, Line: line, Col: col,
		Severity: Warning, Message: fmt.Sprintf(format, args...),
	})
}

// HasErrors reports whether any fatal diagnostic was recorded. Per the
// error-handling design, any error at or before IR generation halts the
// pipeline before the next phase runs.
func (b *Bag) HasErrors() bool {
	for _, d := range b.List {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

func (b *Bag) String() string {
	var sb strings.Builder
	for _, d := range b.List {
		sb.WriteString(d.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// AsError turns the accumulated error-severity diagnostics into a single
// error, or nil if there were none, so a caller can treat "this phase
// failed" uniformly regardless of how many diagnostics were collected.
func (b *Bag) AsError() error {
	if !b.HasErrors() {
		return nil
	}
	return errors.New(strings.TrimRight(b.String(), "\n"))
}

// Wrap attaches additional context to a lower-level error (I/O, etc.)
// without a source position, for failures outside the five compile phases.
func Wrap(err error, context string) error {
	return errors.Wrap(err, context)
}
