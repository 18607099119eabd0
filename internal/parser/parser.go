// Package parser implements the syntax analysis for Lox.
// It uses recursive descent for statements and declarations, and precedence
// climbing over a binding-power table for binary operators.
package parser

import (
	"fmt"
	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/span"
	"lox-lang/internal/token"
)

// MaxArgs is the largest number of arguments a call, or parameters a
// function, may have.
const MaxArgs = 255

// ============================================================
// Binding power (precedence) levels
// ============================================================

const (
	bpNone       = 0
	bpOr         = 10 // or
	bpAnd        = 20 // and
	bpEquality   = 30 // == !=
	bpComparison = 40 // < <= > >=
	bpTerm       = 50 // + -
	bpFactor     = 60 // * /
)

// infixBP returns the left binding power for a binary operator.
func infixBP(kind token.Kind) int {
	switch kind {
	case token.KW_OR:
		return bpOr
	case token.KW_AND:
		return bpAnd
	case token.EQ, token.NEQ:
		return bpEquality
	case token.LT, token.LTE, token.GT, token.GTE:
		return bpComparison
	case token.PLUS, token.MINUS:
		return bpTerm
	case token.STAR, token.SLASH:
		return bpFactor
	default:
		return bpNone
	}
}

// ============================================================
// Parser
// ============================================================

// parseError unwinds the parser to the nearest declaration boundary.
type parseError struct{}

// Parser performs syntax analysis on a stream of tokens.
type Parser struct {
	tokens []token.Token
	pos    int
	ids    *ast.IDSource
	rec    diag.Recorder
}

// Option configures a Parser.
type Option func(*Parser)

// WithIDSource makes the parser draw node IDs from ids, so IDs stay unique
// across several parses that share one resolution table.
func WithIDSource(ids *ast.IDSource) Option {
	return func(p *Parser) { p.ids = ids }
}

// New creates a new parser from a token slice. Syntax errors are recorded
// on rec.
func New(tokens []token.Token, rec diag.Recorder, opts ...Option) *Parser {
	p := &Parser{tokens: tokens, pos: 0, rec: rec}
	for _, opt := range opts {
		opt(p)
	}
	if p.ids == nil {
		p.ids = &ast.IDSource{}
	}
	return p
}

// Parse parses the whole token stream. Statements that fail to parse are
// dropped after recovery. Parse returns nil only when an unexpected internal
// failure aborted parsing; that failure is reported, never propagated.
func (p *Parser) Parse() (prog *ast.Program) {
	defer func() {
		if r := recover(); r != nil {
			p.rec.Record("E2999", p.peek(), fmt.Sprintf("Unexpected parsing error: %v", r))
			prog = nil
		}
	}()

	prog = &ast.Program{}
	startPos := p.peek().Span.Start

	for !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			prog.Stmts = append(prog.Stmts, stmt)
		}
	}

	prog.Span = span.Span{Start: startPos, End: p.peek().Span.End}
	return prog
}

// ---- navigation helpers ----

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		if len(p.tokens) > 0 {
			return p.tokens[len(p.tokens)-1]
		}
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) previous() token.Token {
	if p.pos == 0 {
		return p.peek()
	}
	return p.tokens[p.pos-1]
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if !p.isAtEnd() {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind token.Kind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

// expect consumes a token of the given kind or fails with msg.
func (p *Parser) expect(kind token.Kind, msg string) token.Token {
	if p.check(kind) {
		return p.advance()
	}
	p.fail(p.peek(), msg)
	return token.Token{}
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == token.EOF
}

// report records a diagnostic without unwinding.
func (p *Parser) report(code string, tok token.Token, msg string) {
	p.rec.Record(code, tok, msg)
}

// fail records a syntax error and unwinds to the enclosing declaration.
func (p *Parser) fail(tok token.Token, msg string) {
	p.report("E2001", tok, msg)
	panic(parseError{})
}

// ============================================================
// Error recovery
// ============================================================

// synchronize discards tokens until just past a ';' or up to a token that
// starts a new declaration or statement.
func (p *Parser) synchronize() {
	p.advance()
	for !p.isAtEnd() {
		if p.previous().Kind == token.SEMICOLON {
			return
		}
		if p.peek().Kind.StartsDeclaration() {
			return
		}
		p.advance()
	}
}

// ============================================================
// Declarations
// ============================================================

// declaration parses one declaration or statement. On a syntax error it
// synchronizes and returns nil.
func (p *Parser) declaration() (stmt ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(parseError); !ok {
				panic(r)
			}
			p.synchronize()
			stmt = nil
		}
	}()

	switch {
	case p.check(token.KW_VAR):
		return p.varDecl()
	case p.check(token.KW_FUN):
		start := p.advance()
		fn := p.function("function")
		fn.Span = p.makeSpan(start.Span.Start)
		return fn
	case p.check(token.KW_CLASS):
		return p.classDecl()
	default:
		return p.statement()
	}
}

// varDecl parses: var IDENT [ = expr ] ;
func (p *Parser) varDecl() *ast.VarStmt {
	start := p.advance() // consume 'var'
	stmt := &ast.VarStmt{}
	stmt.Name = p.expect(token.IDENT, "Expected variable name.")

	if p.match(token.ASSIGN) {
		stmt.Init = p.expression()
	}

	p.expect(token.SEMICOLON, "Expected ';' after variable declaration.")
	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// classDecl parses: class IDENT [ < IDENT ] { method* }
func (p *Parser) classDecl() *ast.ClassStmt {
	start := p.advance() // consume 'class'
	decl := &ast.ClassStmt{}
	decl.Name = p.expect(token.IDENT, "Expected class name.")

	if p.match(token.LT) {
		superTok := p.expect(token.IDENT, "Expected superclass name.")
		decl.Superclass = &ast.VariableExpr{
			ExprBase: p.exprBase(superTok.Span.Start, superTok.Span.End),
			Name:     superTok,
		}
	}

	p.expect(token.LBRACE, "Expected '{' before class body.")
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		methodStart := p.peek()
		method := p.function("method")
		method.Span = p.makeSpan(methodStart.Span.Start)
		decl.Methods = append(decl.Methods, method)
	}
	p.expect(token.RBRACE, "Expected '}' after class body.")

	decl.Span = p.makeSpan(start.Span.Start)
	return decl
}

// function parses: IDENT ( params ) block. The leading 'fun', if any, has
// already been consumed. kind names the construct in error messages.
func (p *Parser) function(kind string) *ast.FunctionStmt {
	decl := &ast.FunctionStmt{}
	decl.Name = p.expect(token.IDENT, fmt.Sprintf("Expected %s name.", kind))

	p.expect(token.LPAREN, fmt.Sprintf("Expected '(' after %s name.", kind))
	decl.Params = p.paramList()
	p.expect(token.RPAREN, "Expected ')' after parameters.")

	p.expect(token.LBRACE, fmt.Sprintf("Expected '{' before %s body.", kind))
	decl.Body = p.blockBody()
	return decl
}

// paramList parses: [ IDENT { , IDENT } ]
func (p *Parser) paramList() []token.Token {
	var params []token.Token
	if p.check(token.RPAREN) {
		return params
	}
	for {
		if len(params) >= MaxArgs {
			p.report("E2003", p.peek(), fmt.Sprintf("Can't have more than %d parameters.", MaxArgs))
		}
		params = append(params, p.expect(token.IDENT, "Expected parameter name."))
		if !p.match(token.COMMA) {
			return params
		}
	}
}

// ============================================================
// Statements
// ============================================================

func (p *Parser) statement() ast.Stmt {
	switch p.peek().Kind {
	case token.KW_PRINT:
		return p.printStmt()
	case token.LBRACE:
		start := p.advance()
		stmts := p.blockBody()
		return &ast.BlockStmt{StmtBase: makeStmtBase(start.Span.Start, p.prevEnd()), Stmts: stmts}
	case token.KW_IF:
		return p.ifStmt()
	case token.KW_WHILE:
		return p.whileStmt()
	case token.KW_FOR:
		return p.forStmt()
	case token.KW_RETURN:
		return p.returnStmt()
	default:
		return p.exprStmt()
	}
}

func (p *Parser) printStmt() *ast.PrintStmt {
	start := p.advance() // consume 'print'
	value := p.expression()
	p.expect(token.SEMICOLON, "Expected ';' after value.")
	return &ast.PrintStmt{StmtBase: makeStmtBase(start.Span.Start, p.prevEnd()), Expr: value}
}

func (p *Parser) exprStmt() *ast.ExprStmt {
	start := p.peek()
	expr := p.expression()
	p.expect(token.SEMICOLON, "Expected ';' after expression.")
	return &ast.ExprStmt{StmtBase: makeStmtBase(start.Span.Start, p.prevEnd()), Expr: expr}
}

// blockBody parses declarations up to and including the closing '}'. The
// opening '{' has already been consumed.
func (p *Parser) blockBody() []ast.Stmt {
	var stmts []ast.Stmt
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	p.expect(token.RBRACE, "Expected '}' after block.")
	return stmts
}

// ifStmt parses: if ( expr ) stmt [ else stmt ]
func (p *Parser) ifStmt() *ast.IfStmt {
	start := p.advance() // consume 'if'
	stmt := &ast.IfStmt{}

	p.expect(token.LPAREN, "Expected '(' after 'if'.")
	stmt.Condition = p.expression()
	p.expect(token.RPAREN, "Expected ')' after if condition.")

	stmt.Then = p.statement()
	if p.match(token.KW_ELSE) {
		stmt.Else = p.statement()
	}

	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// whileStmt parses: while ( expr ) stmt
func (p *Parser) whileStmt() *ast.WhileStmt {
	start := p.advance() // consume 'while'
	stmt := &ast.WhileStmt{}

	p.expect(token.LPAREN, "Expected '(' after 'while'.")
	stmt.Condition = p.expression()
	p.expect(token.RPAREN, "Expected ')' after condition.")
	stmt.Body = p.statement()

	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// forStmt parses: for ( [init] ; [cond] ; [incr] ) stmt
// and desugars it into { init; while (cond) { body; incr; } }.
func (p *Parser) forStmt() ast.Stmt {
	start := p.advance() // consume 'for'
	p.expect(token.LPAREN, "Expected '(' after 'for'.")

	var init ast.Stmt
	switch {
	case p.match(token.SEMICOLON):
	case p.check(token.KW_VAR):
		init = p.varDecl()
	default:
		init = p.exprStmt()
	}

	var cond ast.Expr
	if !p.check(token.SEMICOLON) {
		cond = p.expression()
	}
	condEnd := p.expect(token.SEMICOLON, "Expected ';' after loop condition.")

	var incr ast.Expr
	if !p.check(token.RPAREN) {
		incr = p.expression()
	}
	p.expect(token.RPAREN, "Expected ')' after for clauses.")

	body := p.statement()
	return p.desugarFor(start, init, cond, condEnd, incr, body)
}

func (p *Parser) desugarFor(start token.Token, init ast.Stmt, cond ast.Expr, condEnd token.Token, incr ast.Expr, body ast.Stmt) ast.Stmt {
	whole := p.makeSpan(start.Span.Start)

	inner := []ast.Stmt{body}
	if incr != nil {
		inner = append(inner, &ast.ExprStmt{
			StmtBase: makeStmtBase(incr.GetSpan().Start, incr.GetSpan().End),
			Expr:     incr,
		})
	}

	if cond == nil {
		cond = &ast.LiteralExpr{
			ExprBase: p.exprBase(condEnd.Span.Start, condEnd.Span.Start),
			Value:    true,
		}
	}

	loop := &ast.WhileStmt{
		StmtBase:  ast.StmtBase{NodeBase: ast.NodeBase{Span: whole}},
		Condition: cond,
		Body:      &ast.BlockStmt{StmtBase: makeStmtBase(body.GetSpan().Start, whole.End), Stmts: inner},
	}

	outer := []ast.Stmt{loop}
	if init != nil {
		outer = []ast.Stmt{init, loop}
	}
	return &ast.BlockStmt{StmtBase: ast.StmtBase{NodeBase: ast.NodeBase{Span: whole}}, Stmts: outer}
}

// returnStmt parses: return [expr] ;
func (p *Parser) returnStmt() *ast.ReturnStmt {
	keyword := p.advance() // consume 'return'
	stmt := &ast.ReturnStmt{Keyword: keyword}
	if !p.check(token.SEMICOLON) {
		stmt.Value = p.expression()
	}
	p.expect(token.SEMICOLON, "Expected ';' after return value.")
	stmt.Span = p.makeSpan(keyword.Span.Start)
	return stmt
}

// ============================================================
// Expressions
// ============================================================

func (p *Parser) expression() ast.Expr {
	return p.assignment()
}

// assignment parses a right-associative assignment. Only variables and
// property accesses are valid targets.
func (p *Parser) assignment() ast.Expr {
	expr := p.binary(bpNone)

	if !p.check(token.ASSIGN) {
		return expr
	}
	equals := p.advance()
	value := p.assignment()
	base := p.exprBase(expr.GetSpan().Start, value.GetSpan().End)

	switch target := expr.(type) {
	case *ast.VariableExpr:
		return &ast.AssignExpr{ExprBase: base, Name: target.Name, Value: value}
	case *ast.GetExpr:
		return &ast.SetExpr{ExprBase: base, Object: target.Object, Name: target.Name, Value: value}
	default:
		p.report("E2002", equals, "Invalid assignment target.")
		return expr
	}
}

// binary parses a chain of binary operators whose binding power exceeds
// minBP. All binary levels are left-associative.
func (p *Parser) binary(minBP int) ast.Expr {
	left := p.unary()

	for {
		op := p.peek()
		bp := infixBP(op.Kind)
		if bp <= minBP {
			break
		}
		p.advance()
		right := p.binary(bp)
		base := p.exprBase(left.GetSpan().Start, right.GetSpan().End)
		if op.Kind == token.KW_AND || op.Kind == token.KW_OR {
			left = &ast.LogicalExpr{ExprBase: base, Left: left, Op: op, Right: right}
		} else {
			left = &ast.BinaryExpr{ExprBase: base, Left: left, Op: op, Right: right}
		}
	}

	return left
}

// unary parses: ( ! | - ) unary | call
func (p *Parser) unary() ast.Expr {
	if p.check(token.BANG) || p.check(token.MINUS) {
		op := p.advance()
		operand := p.unary()
		return &ast.UnaryExpr{
			ExprBase: p.exprBase(op.Span.Start, operand.GetSpan().End),
			Op:       op,
			Operand:  operand,
		}
	}
	return p.call()
}

// call parses a primary followed by any chain of calls and property accesses.
func (p *Parser) call() ast.Expr {
	expr := p.primary()

	for {
		switch {
		case p.match(token.LPAREN):
			expr = p.finishCall(expr)
		case p.match(token.DOT):
			name := p.expect(token.IDENT, "Expected property name after '.'.")
			expr = &ast.GetExpr{
				ExprBase: p.exprBase(expr.GetSpan().Start, name.Span.End),
				Object:   expr,
				Name:     name,
			}
		default:
			return expr
		}
	}
}

// finishCall parses the argument list after '('.
func (p *Parser) finishCall(callee ast.Expr) *ast.CallExpr {
	var args []ast.Expr
	if !p.check(token.RPAREN) {
		for {
			if len(args) >= MaxArgs {
				p.report("E2003", p.peek(), fmt.Sprintf("Can't have more than %d arguments.", MaxArgs))
			}
			args = append(args, p.expression())
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	paren := p.expect(token.RPAREN, "Expected ')' after arguments.")

	return &ast.CallExpr{
		ExprBase: p.exprBase(callee.GetSpan().Start, paren.Span.End),
		Callee:   callee,
		Paren:    paren,
		Args:     args,
	}
}

// primary parses literals, identifiers, this, super and groupings.
func (p *Parser) primary() ast.Expr {
	tok := p.peek()

	switch tok.Kind {
	case token.KW_FALSE:
		p.advance()
		return p.literal(tok, false)
	case token.KW_TRUE:
		p.advance()
		return p.literal(tok, true)
	case token.KW_NIL:
		p.advance()
		return p.literal(tok, nil)
	case token.NUMBER, token.STRING:
		p.advance()
		return p.literal(tok, tok.Literal)

	case token.KW_THIS:
		p.advance()
		return &ast.ThisExpr{ExprBase: p.exprBase(tok.Span.Start, tok.Span.End), Keyword: tok}

	case token.KW_SUPER:
		p.advance()
		p.expect(token.DOT, "Expected '.' after 'super'.")
		method := p.expect(token.IDENT, "Expected superclass method name.")
		return &ast.SuperExpr{
			ExprBase: p.exprBase(tok.Span.Start, method.Span.End),
			Keyword:  tok,
			Method:   method,
		}

	case token.IDENT:
		p.advance()
		return &ast.VariableExpr{ExprBase: p.exprBase(tok.Span.Start, tok.Span.End), Name: tok}

	case token.LPAREN:
		p.advance() // consume '('
		inner := p.expression()
		end := p.expect(token.RPAREN, "Expected ')' after expression.")
		return &ast.GroupingExpr{ExprBase: p.exprBase(tok.Span.Start, end.Span.End), Inner: inner}

	default:
		p.fail(tok, "Expected expression.")
		return nil
	}
}

func (p *Parser) literal(tok token.Token, value interface{}) *ast.LiteralExpr {
	return &ast.LiteralExpr{ExprBase: p.exprBase(tok.Span.Start, tok.Span.End), Value: value}
}

// ============================================================
// Span helpers
// ============================================================

func (p *Parser) prevEnd() span.Position {
	if p.pos > 0 && p.pos-1 < len(p.tokens) {
		return p.tokens[p.pos-1].Span.End
	}
	return p.peek().Span.Start
}

func (p *Parser) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: p.prevEnd()}
}

// exprBase builds the embedded base for a new expression node and assigns
// it a fresh ID.
func (p *Parser) exprBase(start, end span.Position) ast.ExprBase {
	return ast.ExprBase{
		NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}},
		Handle:   p.ids.Next(),
	}
}

func makeStmtBase(start, end span.Position) ast.StmtBase {
	return ast.StmtBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}
