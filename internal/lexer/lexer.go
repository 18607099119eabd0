// Package lexer implements the lexical analysis (tokenization) for Lox.
package lexer

import (
	"fmt"
	"lox-lang/internal/diag"
	"lox-lang/internal/span"
	"lox-lang/internal/token"
	"strconv"
)

// Lexer tokenizes source code into a sequence of tokens.
type Lexer struct {
	source   string
	filename string

	pos  int // current read position in source
	line int // current line (1-based)
	col  int // current column (1-based)

	diags []diag.Diagnostic
}

// New creates a new Lexer for the given source text.
func New(source, filename string) *Lexer {
	return &Lexer{
		source:   source,
		filename: filename,
		pos:      0,
		line:     1,
		col:      1,
	}
}

// Tokenize scans the entire source and returns all tokens and diagnostics.
// The token slice always ends with EOF. Scanning stops at the first lexical
// error; the tokens read so far are returned followed by EOF.
func (l *Lexer) Tokenize() ([]token.Token, []diag.Diagnostic) {
	var tokens []token.Token
	for {
		tok := l.nextToken()
		if len(l.diags) > 0 {
			tokens = append(tokens, l.eof())
			break
		}
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return tokens, l.diags
}

// Filename returns the name the lexer was created with.
func (l *Lexer) Filename() string {
	return l.filename
}

// ---- internal helpers ----

// peek returns the current character without advancing, or 0 if at end.
func (l *Lexer) peek() byte {
	if l.pos >= len(l.source) {
		return 0
	}
	return l.source[l.pos]
}

// peekNext returns the character after current, or 0 if at end.
func (l *Lexer) peekNext() byte {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

// advance consumes the current character and returns it.
func (l *Lexer) advance() byte {
	ch := l.source[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

// match consumes the current character if it equals expected.
func (l *Lexer) match(expected byte) bool {
	if l.pos >= len(l.source) || l.source[l.pos] != expected {
		return false
	}
	l.advance()
	return true
}

// curPos returns the current position as a span.Position.
func (l *Lexer) curPos() span.Position {
	return span.Position{Offset: l.pos, Line: l.line, Column: l.col}
}

// makeSpan returns a span from start to current position.
func (l *Lexer) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: l.curPos()}
}

func (l *Lexer) eof() token.Token {
	return token.Token{Kind: token.EOF, Lexeme: "", Span: l.makeSpan(l.curPos())}
}

// skipWhitespace skips blanks, newlines and // comments.
func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.source) {
		switch ch := l.source[l.pos]; {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			l.advance()
		case ch == '/' && l.peekNext() == '/':
			l.skipLineComment()
		default:
			return
		}
	}
}

// skipLineComment skips from // to end of line.
func (l *Lexer) skipLineComment() {
	for l.pos < len(l.source) && l.source[l.pos] != '\n' {
		l.advance()
	}
}

// addError records a diagnostic error.
func (l *Lexer) addError(code string, s span.Span, msg string) {
	l.diags = append(l.diags, diag.Errorf(code, s, "%s", msg))
}

// ---- token reading ----

func (l *Lexer) nextToken() token.Token {
	l.skipWhitespace()

	if l.pos >= len(l.source) {
		return l.eof()
	}

	start := l.curPos()
	ch := l.peek()

	if ch == '"' {
		return l.readString(start)
	}
	if isDigit(ch) {
		return l.readNumber(start)
	}
	if isIdentStart(ch) {
		return l.readIdentifier(start)
	}
	return l.readOperator(start)
}

// readString reads a double-quoted string literal. Strings may span lines
// and have no escape sequences.
func (l *Lexer) readString(start span.Position) token.Token {
	l.advance() // skip opening "
	valueStart := l.pos

	for l.pos < len(l.source) && l.peek() != '"' {
		l.advance()
	}

	if l.pos >= len(l.source) {
		l.addError("E1002", l.makeSpan(start), "Unterminated string.")
		return token.Token{Kind: token.ILLEGAL, Lexeme: l.source[valueStart:], Span: l.makeSpan(start)}
	}

	value := l.source[valueStart:l.pos]
	l.advance() // skip closing "
	return token.Token{
		Kind:    token.STRING,
		Lexeme:  value,
		Literal: value,
		Span:    l.makeSpan(start),
	}
}

// readNumber reads a number literal: digits with an optional fraction.
func (l *Lexer) readNumber(start span.Position) token.Token {
	numStart := l.pos

	for l.pos < len(l.source) && isDigit(l.peek()) {
		l.advance()
	}

	// A trailing '.' without digits is not part of the number.
	if l.peek() == '.' && isDigit(l.peekNext()) {
		l.advance()
		for l.pos < len(l.source) && isDigit(l.peek()) {
			l.advance()
		}
	}

	lexeme := l.source[numStart:l.pos]
	val, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		l.addError("E1003", l.makeSpan(start), fmt.Sprintf("Invalid number literal '%s'.", lexeme))
		return token.Token{Kind: token.ILLEGAL, Lexeme: lexeme, Span: l.makeSpan(start)}
	}
	return token.Token{Kind: token.NUMBER, Lexeme: lexeme, Literal: val, Span: l.makeSpan(start)}
}

// readIdentifier reads an identifier or keyword.
func (l *Lexer) readIdentifier(start span.Position) token.Token {
	identStart := l.pos

	for l.pos < len(l.source) && isIdentPart(l.peek()) {
		l.advance()
	}

	lexeme := l.source[identStart:l.pos]
	kind := token.LookupIdent(lexeme)
	tok := token.Token{Kind: kind, Lexeme: lexeme, Span: l.makeSpan(start)}
	if kind == token.IDENT {
		tok.Literal = lexeme
	}
	return tok
}

// readOperator reads an operator or delimiter token.
func (l *Lexer) readOperator(start span.Position) token.Token {
	ch := l.advance()

	simple := func(kind token.Kind) token.Token {
		return token.Token{Kind: kind, Lexeme: l.source[start.Offset:l.pos], Span: l.makeSpan(start)}
	}
	either := func(next byte, two, one token.Kind) token.Token {
		if l.match(next) {
			return simple(two)
		}
		return simple(one)
	}

	switch ch {
	case '(':
		return simple(token.LPAREN)
	case ')':
		return simple(token.RPAREN)
	case '{':
		return simple(token.LBRACE)
	case '}':
		return simple(token.RBRACE)
	case ',':
		return simple(token.COMMA)
	case '.':
		return simple(token.DOT)
	case ';':
		return simple(token.SEMICOLON)
	case '+':
		return simple(token.PLUS)
	case '-':
		return simple(token.MINUS)
	case '*':
		return simple(token.STAR)
	case '/':
		return simple(token.SLASH)
	case '!':
		return either('=', token.NEQ, token.BANG)
	case '=':
		return either('=', token.EQ, token.ASSIGN)
	case '<':
		return either('=', token.LTE, token.LT)
	case '>':
		return either('=', token.GTE, token.GT)
	default:
		l.addError("E1001", l.makeSpan(start), fmt.Sprintf("Unexpected character: '%c'.", ch))
		return simple(token.ILLEGAL)
	}
}

// ---- character classification ----

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
