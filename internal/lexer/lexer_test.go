package lexer

import (
	"lox-lang/internal/token"
	"testing"
)

func expectKinds(t *testing.T, source string, expected ...token.Kind) []token.Token {
	t.Helper()
	l := New(source, "test.lox")
	tokens, diags := l.Tokenize()

	if len(diags) > 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(tokens), tokens)
	}
	for i, exp := range expected {
		if tokens[i].Kind != exp {
			t.Errorf("token[%d]: expected %s, got %s (%q)", i, exp, tokens[i].Kind, tokens[i].Lexeme)
		}
	}
	return tokens
}

func TestTokenizeSimple(t *testing.T) {
	expectKinds(t, `var x = 1 + 2;`,
		token.KW_VAR, token.IDENT, token.ASSIGN,
		token.NUMBER, token.PLUS, token.NUMBER, token.SEMICOLON, token.EOF,
	)
}

func TestTokenizeKeywords(t *testing.T) {
	expectKinds(t, `and class else false for fun if nil or print return super this true var while`,
		token.KW_AND, token.KW_CLASS, token.KW_ELSE, token.KW_FALSE,
		token.KW_FOR, token.KW_FUN, token.KW_IF, token.KW_NIL,
		token.KW_OR, token.KW_PRINT, token.KW_RETURN, token.KW_SUPER,
		token.KW_THIS, token.KW_TRUE, token.KW_VAR, token.KW_WHILE,
		token.EOF,
	)
}

func TestTokenizeOperators(t *testing.T) {
	expectKinds(t, `= == ! != < <= > >= + - * /`,
		token.ASSIGN, token.EQ, token.BANG, token.NEQ,
		token.LT, token.LTE, token.GT, token.GTE,
		token.PLUS, token.MINUS, token.STAR, token.SLASH,
		token.EOF,
	)
}

func TestTokenizeDelimiters(t *testing.T) {
	expectKinds(t, `( ) { } , . ;`,
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE,
		token.COMMA, token.DOT, token.SEMICOLON,
		token.EOF,
	)
}

func TestTokenizeString(t *testing.T) {
	tokens := expectKinds(t, "\"hello\" \"line1\nline2\"", token.STRING, token.STRING, token.EOF)

	if tokens[0].Literal != "hello" {
		t.Errorf("expected literal 'hello', got %v", tokens[0].Literal)
	}
	if tokens[1].Literal != "line1\nline2" {
		t.Errorf("expected multi-line literal, got %q", tokens[1].Literal)
	}
	if tokens[1].Line() != 1 {
		t.Errorf("string should start on line 1, got %d", tokens[1].Line())
	}
}

func TestTokenizeNumbers(t *testing.T) {
	tokens := expectKinds(t, `123 3.14 0 7.`, token.NUMBER, token.NUMBER, token.NUMBER, token.NUMBER, token.DOT, token.EOF)

	if tokens[0].Literal != 123.0 {
		t.Errorf("token[0]: expected 123, got %v", tokens[0].Literal)
	}
	if tokens[1].Literal != 3.14 || tokens[1].Lexeme != "3.14" {
		t.Errorf("token[1]: expected 3.14, got %v %q", tokens[1].Literal, tokens[1].Lexeme)
	}
}

func TestTokenizeIdentifierLiteral(t *testing.T) {
	tokens := expectKinds(t, `_foo1 bar`, token.IDENT, token.IDENT, token.EOF)
	if tokens[0].Literal != "_foo1" {
		t.Errorf("expected identifier literal '_foo1', got %v", tokens[0].Literal)
	}
}

func TestTokenizeComment(t *testing.T) {
	expectKinds(t, "x // this is a comment\ny", token.IDENT, token.IDENT, token.EOF)
}

func TestTokenizePositions(t *testing.T) {
	tokens := expectKinds(t, "var x = 1;\n  print x;",
		token.KW_VAR, token.IDENT, token.ASSIGN, token.NUMBER, token.SEMICOLON,
		token.KW_PRINT, token.IDENT, token.SEMICOLON, token.EOF,
	)

	if tokens[0].Line() != 1 || tokens[0].Column() != 1 {
		t.Errorf("'var' position: expected 1:1, got %d:%d", tokens[0].Line(), tokens[0].Column())
	}
	if tokens[1].Line() != 1 || tokens[1].Column() != 5 {
		t.Errorf("'x' position: expected 1:5, got %d:%d", tokens[1].Line(), tokens[1].Column())
	}
	if tokens[5].Line() != 2 || tokens[5].Column() != 3 {
		t.Errorf("'print' position: expected 2:3, got %d:%d", tokens[5].Line(), tokens[5].Column())
	}
}

func TestUnexpectedCharacterStopsScanning(t *testing.T) {
	l := New("var a = 1; @ var b = 2;", "test.lox")
	tokens, diags := l.Tokenize()

	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d: %v", len(diags), diags)
	}
	if diags[0].Code != "E1001" {
		t.Errorf("expected E1001, got %s", diags[0].Code)
	}
	if diags[0].Span.Start.Column != 12 {
		t.Errorf("expected column 12, got %d", diags[0].Span.Start.Column)
	}
	last := tokens[len(tokens)-1]
	if last.Kind != token.EOF {
		t.Errorf("expected trailing EOF, got %s", last.Kind)
	}
	if len(tokens) != 6 {
		t.Errorf("expected scanning to stop after 5 tokens plus EOF, got %d", len(tokens))
	}
}

func TestUnterminatedString(t *testing.T) {
	l := New(`print "abc`, "test.lox")
	_, diags := l.Tokenize()

	if len(diags) != 1 || diags[0].Code != "E1002" {
		t.Fatalf("expected one E1002 diagnostic, got %v", diags)
	}
}
