// Package span provides source position and span types shared by the
// scanner, parser, resolver and interpreter.
package span

import "fmt"

// Position represents a position in source code.
type Position struct {
	Offset int `json:"offset"` // byte offset from beginning of source
	Line   int `json:"line"`   // 1-based line number
	Column int `json:"column"` // 1-based column number
}

// At returns a position with no byte offset, used for diagnostics that
// only know a line and column.
func At(line, column int) Position {
	return Position{Line: line, Column: column}
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span represents a range in source code [Start, End).
type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Point returns an empty span located at p.
func Point(p Position) Span {
	return Span{Start: p, End: p}
}

func (s Span) String() string {
	return fmt.Sprintf("%s..%s", s.Start, s.End)
}

// Len returns the byte length of the span.
func (s Span) Len() int {
	return s.End.Offset - s.Start.Offset
}
