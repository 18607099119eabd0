// Package ast defines the abstract syntax tree for Lox.
//
// The node set is closed: Expr and Stmt carry unexported marker methods, so
// only this package can add variants, and every traversal is a type switch.
package ast

import (
	"lox-lang/internal/span"
	"lox-lang/internal/token"
)

// ============================================================
// Node identity
// ============================================================

// NodeID is a stable handle assigned to every expression node at parse
// time. The resolver's side table is keyed by it.
type NodeID int

// IDSource hands out NodeIDs. A session shares one source across program
// units so IDs never collide in a long-lived side table.
type IDSource struct {
	next NodeID
}

// Next returns a fresh, never-before-issued ID.
func (s *IDSource) Next() NodeID {
	s.next++
	return s.next
}

// Issued returns how many IDs have been handed out.
func (s *IDSource) Issued() int {
	return int(s.next)
}

// ============================================================
// Node interfaces
// ============================================================

// Node is the interface implemented by all AST nodes.
type Node interface {
	nodeNode()
	GetSpan() span.Span
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	exprNode()
	ID() NodeID
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// ============================================================
// Base types (embedded to provide common fields)
// ============================================================

// NodeBase provides the common Span field for all AST nodes.
type NodeBase struct {
	Span span.Span
}

func (n NodeBase) nodeNode()          {}
func (n NodeBase) GetSpan() span.Span { return n.Span }

// ExprBase is embedded by all expression nodes.
type ExprBase struct {
	NodeBase
	Handle NodeID
}

func (ExprBase) exprNode()    {}
func (e ExprBase) ID() NodeID { return e.Handle }

// StmtBase is embedded by all statement nodes.
type StmtBase struct{ NodeBase }

func (StmtBase) stmtNode() {}

// ============================================================
// Program (top-level AST root)
// ============================================================

// Program represents one program unit: a file or one REPL entry.
type Program struct {
	NodeBase
	Stmts []Stmt
}

// ============================================================
// Expressions
// ============================================================

// LiteralExpr is a constant: nil, a bool, a float64 or a string.
type LiteralExpr struct {
	ExprBase
	Value interface{}
}

// GroupingExpr is a parenthesized expression.
type GroupingExpr struct {
	ExprBase
	Inner Expr
}

// UnaryExpr represents !x or -x.
type UnaryExpr struct {
	ExprBase
	Op      token.Token
	Operand Expr
}

// BinaryExpr represents an arithmetic, comparison or equality operation.
type BinaryExpr struct {
	ExprBase
	Left  Expr
	Op    token.Token
	Right Expr
}

// LogicalExpr represents the short-circuiting 'and' / 'or'.
type LogicalExpr struct {
	ExprBase
	Left  Expr
	Op    token.Token
	Right Expr
}

// VariableExpr is a reference to a variable by name.
type VariableExpr struct {
	ExprBase
	Name token.Token
}

// AssignExpr assigns to a variable: name = value.
type AssignExpr struct {
	ExprBase
	Name  token.Token
	Value Expr
}

// CallExpr represents callee(args). Paren is the closing parenthesis and
// locates runtime errors raised by the call.
type CallExpr struct {
	ExprBase
	Callee Expr
	Paren  token.Token
	Args   []Expr
}

// GetExpr represents property access: object.name.
type GetExpr struct {
	ExprBase
	Object Expr
	Name   token.Token
}

// SetExpr represents property assignment: object.name = value.
type SetExpr struct {
	ExprBase
	Object Expr
	Name   token.Token
	Value  Expr
}

// ThisExpr represents the 'this' keyword.
type ThisExpr struct {
	ExprBase
	Keyword token.Token
}

// SuperExpr represents super.method.
type SuperExpr struct {
	ExprBase
	Keyword token.Token
	Method  token.Token
}

// ============================================================
// Statements
// ============================================================

// ExprStmt wraps an expression evaluated for its side effects.
type ExprStmt struct {
	StmtBase
	Expr Expr
}

// PrintStmt prints the stringified value of Expr.
type PrintStmt struct {
	StmtBase
	Expr Expr
}

// VarStmt declares a variable: var name [= init];
type VarStmt struct {
	StmtBase
	Name token.Token
	Init Expr // may be nil if no initializer
}

// BlockStmt represents a block of statements: { ... }.
type BlockStmt struct {
	StmtBase
	Stmts []Stmt
}

// IfStmt represents if (cond) then [else else].
type IfStmt struct {
	StmtBase
	Condition Expr
	Then      Stmt
	Else      Stmt // may be nil
}

// WhileStmt represents a while loop. For loops are desugared into it.
type WhileStmt struct {
	StmtBase
	Condition Expr
	Body      Stmt
}

// FunctionStmt declares a function, or a method when it appears in a class.
type FunctionStmt struct {
	StmtBase
	Name   token.Token
	Params []token.Token
	Body   []Stmt
}

// ReturnStmt represents return [value];
type ReturnStmt struct {
	StmtBase
	Keyword token.Token
	Value   Expr // may be nil
}

// ClassStmt declares a class with an optional superclass.
type ClassStmt struct {
	StmtBase
	Name       token.Token
	Superclass *VariableExpr // may be nil
	Methods    []*FunctionStmt
}
