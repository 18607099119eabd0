// Package resolver implements the static pass that runs between parsing and
// interpretation. It binds every local variable reference to the number of
// scopes between its use and its declaration, and checks the contextual rules
// for return, this and super.
package resolver

import (
	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/token"
)

// Binder receives the resolved scope distance of a local reference.
// References that are never bound resolve through the globals.
type Binder interface {
	Bind(id ast.NodeID, depth int)
}

// FunctionKind tracks what kind of function body is being resolved.
type FunctionKind int

const (
	FuncNone FunctionKind = iota
	FuncFunction
	FuncInitializer
	FuncMethod
)

// ClassKind tracks what kind of class body is being resolved.
type ClassKind int

const (
	ClassNone ClassKind = iota
	ClassPlain
	ClassSubclass
)

// scope maps a name to whether its initializer has finished resolving.
type scope map[string]bool

// Resolver walks a program once and records local bindings.
type Resolver struct {
	locals Binder
	rec    diag.Recorder
	scopes []scope

	currentFunc  FunctionKind
	currentClass ClassKind

	bound int
}

// New creates a resolver that binds locals into b and reports to rec.
func New(b Binder, rec diag.Recorder) *Resolver {
	return &Resolver{locals: b, rec: rec}
}

// Resolve walks every statement of prog. Diagnostics do not stop the walk.
func (r *Resolver) Resolve(prog *ast.Program) {
	if prog == nil {
		return
	}
	r.resolveStmts(prog.Stmts)
}

// Bound returns how many references have been bound so far.
func (r *Resolver) Bound() int {
	return r.bound
}

// ---- scopes ----

func (r *Resolver) beginScope() {
	r.scopes = append(r.scopes, scope{})
}

func (r *Resolver) endScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *Resolver) innermost() scope {
	return r.scopes[len(r.scopes)-1]
}

// declare adds name to the innermost scope as not-yet-initialized. Globals
// are not tracked.
func (r *Resolver) declare(name token.Token) {
	if len(r.scopes) == 0 {
		return
	}
	s := r.innermost()
	if _, exists := s[name.Lexeme]; exists {
		r.rec.Record("E3001", name, "A variable with the same name exists in this scope.")
	}
	s[name.Lexeme] = false
}

func (r *Resolver) define(name token.Token) {
	if len(r.scopes) == 0 {
		return
	}
	r.innermost()[name.Lexeme] = true
}

// resolveLocal binds id to the distance of the innermost scope declaring
// name. Nothing is bound when the name is not found in any local scope.
func (r *Resolver) resolveLocal(id ast.NodeID, name string) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name]; ok {
			r.locals.Bind(id, len(r.scopes)-1-i)
			r.bound++
			return
		}
	}
}

// ============================================================
// Statements
// ============================================================

func (r *Resolver) resolveStmts(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		r.resolveStmt(stmt)
	}
}

func (r *Resolver) resolveStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.BlockStmt:
		r.beginScope()
		r.resolveStmts(s.Stmts)
		r.endScope()

	case *ast.VarStmt:
		r.declare(s.Name)
		if s.Init != nil {
			r.resolveExpr(s.Init)
		}
		r.define(s.Name)

	case *ast.FunctionStmt:
		// Defined before the body so the function can recurse.
		r.declare(s.Name)
		r.define(s.Name)
		r.resolveFunction(s, FuncFunction)

	case *ast.ClassStmt:
		r.resolveClass(s)

	case *ast.ExprStmt:
		r.resolveExpr(s.Expr)

	case *ast.PrintStmt:
		r.resolveExpr(s.Expr)

	case *ast.IfStmt:
		r.resolveExpr(s.Condition)
		r.resolveStmt(s.Then)
		if s.Else != nil {
			r.resolveStmt(s.Else)
		}

	case *ast.WhileStmt:
		r.resolveExpr(s.Condition)
		r.resolveStmt(s.Body)

	case *ast.ReturnStmt:
		if r.currentFunc == FuncNone {
			r.rec.Record("E3003", s.Keyword, "Return is only allowed inside functions.")
		}
		if s.Value != nil {
			if r.currentFunc == FuncInitializer {
				r.rec.Record("E3004", s.Keyword, "Can't return a value from the init method.")
			}
			r.resolveExpr(s.Value)
		}
	}
}

func (r *Resolver) resolveFunction(fn *ast.FunctionStmt, kind FunctionKind) {
	enclosing := r.currentFunc
	r.currentFunc = kind
	defer func() { r.currentFunc = enclosing }()

	r.beginScope()
	for _, param := range fn.Params {
		r.declare(param)
		r.define(param)
	}
	r.resolveStmts(fn.Body)
	r.endScope()
}

func (r *Resolver) resolveClass(cls *ast.ClassStmt) {
	enclosing := r.currentClass
	r.currentClass = ClassPlain
	defer func() { r.currentClass = enclosing }()

	r.declare(cls.Name)
	r.define(cls.Name)

	if cls.Superclass != nil {
		if cls.Superclass.Name.Lexeme == cls.Name.Lexeme {
			r.rec.Record("E3007", cls.Superclass.Name, "A class can't inherit from itself.")
		}
		r.currentClass = ClassSubclass
		r.resolveExpr(cls.Superclass)

		r.beginScope()
		r.innermost()["super"] = true
	}

	r.beginScope()
	r.innermost()["this"] = true

	for _, method := range cls.Methods {
		kind := FuncMethod
		if method.Name.Lexeme == "init" {
			kind = FuncInitializer
		}
		r.resolveFunction(method, kind)
	}

	r.endScope()
	if cls.Superclass != nil {
		r.endScope()
	}
}

// ============================================================
// Expressions
// ============================================================

func (r *Resolver) resolveExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.VariableExpr:
		if len(r.scopes) > 0 {
			if ready, ok := r.innermost()[e.Name.Lexeme]; ok && !ready {
				r.rec.Record("E3002", e.Name, "Unable to read a variable in its initializer.")
			}
		}
		r.resolveLocal(e.ID(), e.Name.Lexeme)

	case *ast.AssignExpr:
		r.resolveExpr(e.Value)
		r.resolveLocal(e.ID(), e.Name.Lexeme)

	case *ast.BinaryExpr:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)

	case *ast.LogicalExpr:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)

	case *ast.UnaryExpr:
		r.resolveExpr(e.Operand)

	case *ast.GroupingExpr:
		r.resolveExpr(e.Inner)

	case *ast.CallExpr:
		r.resolveExpr(e.Callee)
		for _, arg := range e.Args {
			r.resolveExpr(arg)
		}

	case *ast.GetExpr:
		// Properties are looked up dynamically; only the object resolves.
		r.resolveExpr(e.Object)

	case *ast.SetExpr:
		r.resolveExpr(e.Value)
		r.resolveExpr(e.Object)

	case *ast.ThisExpr:
		if r.currentClass == ClassNone {
			r.rec.Record("E3005", e.Keyword, "Can only access 'this' within a class.")
			return
		}
		r.resolveLocal(e.ID(), "this")

	case *ast.SuperExpr:
		switch r.currentClass {
		case ClassNone:
			r.rec.Record("E3006", e.Keyword, "Can only access 'super' within a class.")
			return
		case ClassPlain:
			r.rec.Record("E3006", e.Keyword, "Can't use 'super' in a class with no superclass.")
			return
		}
		r.resolveLocal(e.ID(), "super")

	case *ast.LiteralExpr:
		// nothing to resolve
	}
}
