package diag

import (
	"fmt"
	"io"
	"lox-lang/internal/span"
	"lox-lang/internal/token"
)

// Recorder is the narrow interface the parser and resolver report through.
type Recorder interface {
	Record(code string, tok token.Token, msg string)
}

// Reporter accumulates diagnostics for one program unit. The caller resets
// it between independent units.
type Reporter struct {
	diags []Diagnostic
}

// NewReporter returns an empty reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Record adds a diagnostic located at tok.
func (r *Reporter) Record(code string, tok token.Token, msg string) {
	r.diags = append(r.diags, AtToken(code, tok, msg))
}

// RecordAt adds a diagnostic that only has a line and column, such as a
// lexical error reported before any token exists.
func (r *Reporter) RecordAt(code string, line, column int, msg string) {
	r.diags = append(r.diags, Errorf(code, span.Point(span.At(line, column)), "%s", msg))
}

// Add appends already-built diagnostics.
func (r *Reporter) Add(ds ...Diagnostic) {
	r.diags = append(r.diags, ds...)
}

// HasErrors reports whether anything has been recorded since the last reset.
func (r *Reporter) HasErrors() bool {
	return len(r.diags) > 0
}

// HasPhase reports whether a diagnostic from phase p has been recorded.
func (r *Reporter) HasPhase(p Phase) bool {
	for _, d := range r.diags {
		if d.Phase == p {
			return true
		}
	}
	return false
}

// Diagnostics returns the recorded diagnostics in report order.
func (r *Reporter) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(r.diags))
	copy(out, r.diags)
	return out
}

// Flush writes every diagnostic to w, one per line, and clears the reporter.
func (r *Reporter) Flush(w io.Writer) {
	for _, d := range r.diags {
		fmt.Fprintln(w, d.String())
	}
	r.Reset()
}

// Reset discards all recorded diagnostics.
func (r *Reporter) Reset() {
	r.diags = r.diags[:0]
}
