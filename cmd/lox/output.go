package main

import (
	"encoding/json"
	"fmt"
	"io"
	"lox-lang/internal/diag"
	"lox-lang/internal/token"
)

// ---- output helpers ----

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("JSON encoding failed: %w", err)
	}
	return nil
}

func printDiagsText(w io.Writer, diags []diag.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(w, d.String())
	}
}

func diagsToSlice(diags []diag.Diagnostic) []map[string]interface{} {
	result := make([]map[string]interface{}, len(diags))
	for i, d := range diags {
		result[i] = map[string]interface{}{
			"code":    d.Code,
			"phase":   d.Phase.String(),
			"message": d.Message,
			"line":    d.Span.Start.Line,
			"column":  d.Span.Start.Column,
			"offset":  d.Span.Start.Offset,
		}
		if d.Near != "" {
			result[i]["near"] = d.Near
		}
		if d.Hint != "" {
			result[i]["hint"] = d.Hint
		}
	}
	return result
}

// ---- token output helpers ----

func printTokensText(w io.Writer, tokens []token.Token) {
	for _, tok := range tokens {
		lexeme := tok.Lexeme
		if tok.Kind == token.EOF {
			lexeme = "<eof>"
		}
		fmt.Fprintf(w, "%-12s %-20s %d:%d\n", tok.Kind, lexeme, tok.Span.Start.Line, tok.Span.Start.Column)
	}
}

func printTokensJSON(w io.Writer, tokens []token.Token, diags []diag.Diagnostic) error {
	type tokenJSON struct {
		Kind    string      `json:"kind"`
		Lexeme  string      `json:"lexeme"`
		Literal interface{} `json:"literal,omitempty"`
		Line    int         `json:"line"`
		Column  int         `json:"column"`
		Offset  int         `json:"offset"`
	}

	toks := make([]tokenJSON, 0, len(tokens))
	for _, tok := range tokens {
		toks = append(toks, tokenJSON{
			Kind:    tok.Kind.String(),
			Lexeme:  tok.Lexeme,
			Literal: tok.Literal,
			Line:    tok.Span.Start.Line,
			Column:  tok.Span.Start.Column,
			Offset:  tok.Span.Start.Offset,
		})
	}

	output := map[string]interface{}{
		"tokens":      toks,
		"diagnostics": diagsToSlice(diags),
	}
	return printJSON(w, output)
}
