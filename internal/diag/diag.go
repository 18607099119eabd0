// Package diag provides diagnostic types and the Reporter that collects them
// across the scan, parse, resolve and run phases.
package diag

import (
	"fmt"
	"lox-lang/internal/span"
	"lox-lang/internal/token"
)

// Phase identifies which stage of the pipeline produced a diagnostic.
type Phase int

const (
	Lexical Phase = iota
	Syntax
	Static
	Runtime
	Internal
)

func (p Phase) String() string {
	switch p {
	case Lexical:
		return "lexical error"
	case Syntax:
		return "syntax error"
	case Static:
		return "static error"
	case Runtime:
		return "runtime error"
	case Internal:
		return "internal error"
	default:
		return "unknown"
	}
}

// PhaseOf derives the phase from a diagnostic code's leading digit
// (E1xxx lexical, E2xxx syntax, E3xxx static, E4xxx runtime).
func PhaseOf(code string) Phase {
	if len(code) < 2 {
		return Internal
	}
	switch code[1] {
	case '1':
		return Lexical
	case '2':
		return Syntax
	case '3':
		return Static
	case '4':
		return Runtime
	default:
		return Internal
	}
}

// Diagnostic represents a single reported problem.
type Diagnostic struct {
	Code    string    `json:"code"`           // stable error code, e.g. "E2001"
	Phase   Phase     `json:"phase"`          // pipeline stage
	Message string    `json:"message"`        // human-readable description
	Span    span.Span `json:"span"`           // source location
	Near    string    `json:"near,omitempty"` // offending lexeme, if any
	Hint    string    `json:"hint,omitempty"` // optional hint
}

// String returns a human-readable representation of the diagnostic.
func (d Diagnostic) String() string {
	loc := fmt.Sprintf("%d:%d", d.Span.Start.Line, d.Span.Start.Column)
	msg := fmt.Sprintf("[%s] %s at %s", d.Code, d.Phase, loc)
	if d.Near != "" {
		msg += fmt.Sprintf(" near '%s'", d.Near)
	}
	msg += ": " + d.Message
	if d.Hint != "" {
		msg += " (hint: " + d.Hint + ")"
	}
	return msg
}

// Errorf creates a diagnostic at the given span.
func Errorf(code string, s span.Span, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Code:    code,
		Phase:   PhaseOf(code),
		Message: fmt.Sprintf(format, args...),
		Span:    s,
	}
}

// AtToken creates a diagnostic located at tok.
func AtToken(code string, tok token.Token, msg string) Diagnostic {
	d := Errorf(code, tok.Span, "%s", msg)
	switch tok.Kind {
	case token.EOF:
		d.Near = "end"
	case token.STRING:
		d.Near = `"` + tok.Lexeme + `"`
	default:
		d.Near = tok.Lexeme
	}
	return d
}
