// Package diag implements the three-way ok/out_of_memory/invalid error
// model from spec.md §7, adapted from the teacher's SentraError
// (internal/errors/errors.go): a formatted, located diagnostic with a
// caret under the offending source column, plus a Bag that accumulates
// "invalid" diagnostics across an entire phase instead of stopping at the
// first one.
package diag

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"quaintlang/internal/token"
)

// Status is the phase-level outcome: exactly one of Ok, OutOfMemory, or
// Invalid propagates out of any front-end phase.
type Status int

const (
	Ok Status = iota
	OutOfMemory
	Invalid
)

func (s Status) String() string {
	switch s {
	case Ok:
		return "ok"
	case OutOfMemory:
		return "out_of_memory"
	case Invalid:
		return "invalid"
	}
	return "?"
}

// Diagnostic is one located, user-facing message.
type Diagnostic struct {
	Span    token.Span
	Message string
	Source  string // the offending source line, for the caret display
}

func (d Diagnostic) String() string {
	var sb strings.Builder
	pos := d.Span.Begin.Pos
	fmt.Fprintf(&sb, "%s: %s\n", pos, d.Message)
	if d.Source != "" {
		fmt.Fprintf(&sb, "  %d | %s\n", pos.Line, d.Source)
		fmt.Fprintf(&sb, "  %s%s^\n", strings.Repeat(" ", len(fmt.Sprintf("%d | ", pos.Line))),
			strings.Repeat(" ", max(0, pos.Col-1)))
	}
	return sb.String()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Bag accumulates Invalid diagnostics for one phase and separately tracks a
// fatal OutOfMemory condition, matching spec.md §7: "invalid is
// diagnostic... and accumulates... out_of_memory is fatal to the current
// phase and propagates up".
type Bag struct {
	Diagnostics []Diagnostic
	oom         error
	SourceLines []string // optional, for caret rendering
}

// NewBag creates an empty diagnostic bag. lines, if non-nil, are the
// source file split on '\n', used only to decorate error text.
func NewBag(lines []string) *Bag {
	return &Bag{SourceLines: lines}
}

// Error records an Invalid diagnostic at sp and continues the phase.
func (b *Bag) Error(sp token.Span, format string, args ...interface{}) {
	d := Diagnostic{Span: sp, Message: fmt.Sprintf(format, args...)}
	if line := sp.Begin.Pos.Line; b.SourceLines != nil && line >= 1 && line <= len(b.SourceLines) {
		d.Source = b.SourceLines[line-1]
	}
	b.Diagnostics = append(b.Diagnostics, d)
}

// OOM records the fatal out-of-memory condition, wrapping cause with phase
// context the way github.com/pkg/errors decorates a plain error with a
// stack trace and message chain.
func (b *Bag) OOM(phase string, cause error) {
	if b.oom == nil {
		b.oom = errors.Wrapf(cause, "out of memory during %s", phase)
	}
}

// Status reports the phase outcome: OutOfMemory takes priority over
// Invalid, which takes priority over Ok.
func (b *Bag) Status() Status {
	if b.oom != nil {
		return OutOfMemory
	}
	if len(b.Diagnostics) > 0 {
		return Invalid
	}
	return Ok
}

// OOMError returns the wrapped out-of-memory error, or nil.
func (b *Bag) OOMError() error { return b.oom }

// Report renders every diagnostic in order.
func (b *Bag) Report() string {
	var sb strings.Builder
	for _, d := range b.Diagnostics {
		sb.WriteString(d.String())
	}
	if b.oom != nil {
		fmt.Fprintf(&sb, "%+v\n", b.oom)
	}
	return sb.String()
}

// Ok reports whether the bag has recorded neither an OOM nor any Invalid
// diagnostics.
func (b *Bag) Ok() bool { return b.Status() == Ok }
