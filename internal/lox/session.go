// Package lox drives the scan, parse, resolve and run pipeline over program
// units while keeping interpreter state between them.
package lox

import (
	"errors"
	"fmt"
	"io"
	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/lexer"
	"lox-lang/internal/logger"
	"lox-lang/internal/parser"
	"lox-lang/internal/resolver"
	"lox-lang/internal/runtime"
	"lox-lang/internal/span"
	"os"
	"time"
)

// Outcome classifies how a program unit ended.
type Outcome int

const (
	OK           Outcome = iota
	CompileError         // lexical, syntax or static diagnostics; nothing ran
	RuntimeError         // execution stopped at a runtime error
	InternalError        // a panic escaped one of the phases
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case CompileError:
		return "compile error"
	case RuntimeError:
		return "runtime error"
	case InternalError:
		return "internal error"
	default:
		return "unknown"
	}
}

// Session owns one interpreter. Globals, the resolution table and the node
// ID source live as long as the session, so later units see earlier
// declarations.
type Session struct {
	interp *runtime.Interpreter
	ids    *ast.IDSource
	rep    *diag.Reporter
	units  int
}

// NewSession creates a session whose print statements write to out.
func NewSession(out io.Writer, opts ...runtime.Option) *Session {
	return &Session{
		interp: runtime.NewInterpreter(out, opts...),
		ids:    &ast.IDSource{},
		rep:    diag.NewReporter(),
	}
}

// Reporter returns the diagnostics of the most recent unit.
func (s *Session) Reporter() *diag.Reporter {
	return s.rep
}

// Interpreter exposes the underlying interpreter (useful for REPL).
func (s *Session) Interpreter() *runtime.Interpreter {
	return s.interp
}

// Run executes one program unit. Diagnostics from this unit, and only this
// unit, are left on the reporter.
func (s *Session) Run(name, source string) (outcome Outcome) {
	s.rep.Reset()
	s.units++
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.rep.Add(diag.Errorf("E5000", span.Span{}, "Unexpected error: %v", r))
			outcome = InternalError
		}
		logger.Debug("unit finished", "unit", name, "outcome", outcome.String(), "elapsed", time.Since(start))
	}()

	tokens, lexDiags := lexer.New(source, name).Tokenize()
	logger.LogScan(name, len(tokens))
	if len(lexDiags) > 0 {
		s.rep.Add(lexDiags...)
		logger.LogDiagnostics(name, diag.Lexical.String(), len(lexDiags))
		return CompileError
	}

	prog := parser.New(tokens, s.rep, parser.WithIDSource(s.ids)).Parse()
	if prog == nil || s.rep.HasErrors() {
		logger.LogDiagnostics(name, diag.Syntax.String(), len(s.rep.Diagnostics()))
		return CompileError
	}
	logger.LogParse(name, len(prog.Stmts))

	res := resolver.New(s.interp, s.rep)
	res.Resolve(prog)
	if s.rep.HasErrors() {
		logger.LogDiagnostics(name, diag.Static.String(), len(s.rep.Diagnostics()))
		return CompileError
	}
	logger.LogResolve(name, res.Bound())

	if err := s.interp.Run(prog); err != nil {
		var rerr *runtime.RuntimeError
		if errors.As(err, &rerr) {
			s.rep.Add(rerr.Diagnostic())
			if rerr.Code == "E5000" {
				return InternalError
			}
			return RuntimeError
		}
		s.rep.Add(diag.Errorf("E5000", span.Span{}, "Unexpected error: %v", err))
		return InternalError
	}
	return OK
}

// RunFile reads path and runs it as a single unit.
func (s *Session) RunFile(path string) (Outcome, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return InternalError, fmt.Errorf("read %s: %w", path, err)
	}
	return s.Run(path, string(source)), nil
}
