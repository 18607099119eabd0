package runtime

import (
	"fmt"
	"io"
	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/token"
	"time"
)

// DefaultMaxCallDepth bounds nested calls so runaway recursion becomes a
// runtime error instead of exhausting the Go stack.
const DefaultMaxCallDepth = 4000

// ============================================================
// Control flow signals
// ============================================================

// ExecSignal represents a control flow signal from statement execution.
type ExecSignal int

const (
	SigNone   ExecSignal = iota
	SigReturn            // return from function
)

// ExecResult carries a control flow signal and an optional value (for return).
type ExecResult struct {
	Signal ExecSignal
	Value  Value
}

var resultNone = ExecResult{Signal: SigNone}

// ============================================================
// Runtime error
// ============================================================

// RuntimeError represents an error during interpretation. Token locates the
// operator, name or call that failed.
type RuntimeError struct {
	Code    string
	Message string
	Token   token.Token
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error at %d:%d: %s", e.Token.Line(), e.Token.Column(), e.Message)
}

// Diagnostic converts the error into a reportable diagnostic.
func (e *RuntimeError) Diagnostic() diag.Diagnostic {
	return diag.AtToken(e.Code, e.Token, e.Message)
}

func runtimeErr(code string, tok token.Token, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Code: code, Message: fmt.Sprintf(format, args...), Token: tok}
}

// ============================================================
// Interpreter
// ============================================================

// Interpreter walks the AST and executes it.
type Interpreter struct {
	globals *Environment
	env     *Environment
	locals  map[ast.NodeID]int
	output  io.Writer

	depth    int
	maxDepth int
	now      func() time.Time
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithMaxCallDepth sets the call nesting limit. Values below one are ignored.
func WithMaxCallDepth(n int) Option {
	return func(i *Interpreter) {
		if n > 0 {
			i.maxDepth = n
		}
	}
}

// WithClock replaces the time source behind the clock() native.
func WithClock(now func() time.Time) Option {
	return func(i *Interpreter) { i.now = now }
}

// NewInterpreter creates a new interpreter with native functions registered.
// print statements write to output.
func NewInterpreter(output io.Writer, opts ...Option) *Interpreter {
	i := &Interpreter{
		locals:   make(map[ast.NodeID]int),
		output:   output,
		maxDepth: DefaultMaxCallDepth,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}

	i.globals = NewEnvironment(nil)
	i.env = i.globals
	RegisterBuiltins(i.globals, i.now)
	return i
}

// Bind records that the reference with the given ID resolves depth scopes
// up from where it is evaluated.
func (i *Interpreter) Bind(id ast.NodeID, depth int) {
	i.locals[id] = depth
}

// Bindings returns the size of the resolution table.
func (i *Interpreter) Bindings() int {
	return len(i.locals)
}

// Globals returns the global environment (useful for REPL).
func (i *Interpreter) Globals() *Environment {
	return i.globals
}

// Run executes a program. The first runtime error stops execution; state
// created by earlier statements is kept.
func (i *Interpreter) Run(prog *ast.Program) error {
	// A previous unit may have been aborted mid-call.
	i.env = i.globals
	i.depth = 0

	for _, stmt := range prog.Stmts {
		if _, err := i.execStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ============================================================
// Statement execution
// ============================================================

func (i *Interpreter) execStmt(stmt ast.Stmt) (ExecResult, error) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		_, err := i.evalExpr(s.Expr)
		return resultNone, err

	case *ast.PrintStmt:
		val, err := i.evalExpr(s.Expr)
		if err != nil {
			return resultNone, err
		}
		fmt.Fprintln(i.output, val.String())
		return resultNone, nil

	case *ast.VarStmt:
		var val Value = NilVal{}
		if s.Init != nil {
			v, err := i.evalExpr(s.Init)
			if err != nil {
				return resultNone, err
			}
			val = v
		}
		i.env.Define(s.Name.Lexeme, val)
		return resultNone, nil

	case *ast.BlockStmt:
		return i.execBlock(s.Stmts, NewEnvironment(i.env))

	case *ast.IfStmt:
		return i.execIf(s)

	case *ast.WhileStmt:
		return i.execWhile(s)

	case *ast.FunctionStmt:
		i.env.Define(s.Name.Lexeme, &FuncVal{Decl: s, Closure: i.env})
		return resultNone, nil

	case *ast.ReturnStmt:
		var val Value = NilVal{}
		if s.Value != nil {
			v, err := i.evalExpr(s.Value)
			if err != nil {
				return resultNone, err
			}
			val = v
		}
		return ExecResult{Signal: SigReturn, Value: val}, nil

	case *ast.ClassStmt:
		return resultNone, i.execClass(s)

	default:
		return resultNone, runtimeErr("E5000", token.Token{Span: stmt.GetSpan()}, "unhandled statement type: %T", stmt)
	}
}

func (i *Interpreter) execIf(s *ast.IfStmt) (ExecResult, error) {
	cond, err := i.evalExpr(s.Condition)
	if err != nil {
		return resultNone, err
	}
	if IsTruthy(cond) {
		return i.execStmt(s.Then)
	}
	if s.Else != nil {
		return i.execStmt(s.Else)
	}
	return resultNone, nil
}

func (i *Interpreter) execWhile(s *ast.WhileStmt) (ExecResult, error) {
	for {
		cond, err := i.evalExpr(s.Condition)
		if err != nil {
			return resultNone, err
		}
		if !IsTruthy(cond) {
			return resultNone, nil
		}

		result, err := i.execStmt(s.Body)
		if err != nil {
			return resultNone, err
		}
		if result.Signal == SigReturn {
			return result, nil
		}
	}
}

// execBlock runs stmts in blockEnv and restores the previous environment on
// every exit path.
func (i *Interpreter) execBlock(stmts []ast.Stmt, blockEnv *Environment) (ExecResult, error) {
	prevEnv := i.env
	i.env = blockEnv
	defer func() { i.env = prevEnv }()

	for _, stmt := range stmts {
		result, err := i.execStmt(stmt)
		if err != nil {
			return resultNone, err
		}
		if result.Signal != SigNone {
			return result, nil // propagate signal
		}
	}
	return resultNone, nil
}

func (i *Interpreter) execClass(s *ast.ClassStmt) error {
	var super *ClassVal
	if s.Superclass != nil {
		v, err := i.evalExpr(s.Superclass)
		if err != nil {
			return err
		}
		sc, ok := v.(*ClassVal)
		if !ok {
			return runtimeErr("E4007", s.Superclass.Name, "Superclass must be a class.")
		}
		super = sc
	}

	i.env.Define(s.Name.Lexeme, NilVal{})

	methodEnv := i.env
	if super != nil {
		methodEnv = NewEnvironment(i.env)
		methodEnv.Define("super", super)
	}

	methods := make(map[string]*FuncVal, len(s.Methods))
	for _, m := range s.Methods {
		methods[m.Name.Lexeme] = &FuncVal{
			Decl:          m,
			Closure:       methodEnv,
			IsInitializer: m.Name.Lexeme == "init",
		}
	}

	cls := &ClassVal{Name: s.Name.Lexeme, Super: super, Methods: methods}
	i.env.Assign(s.Name.Lexeme, cls)
	return nil
}

// ============================================================
// Expression evaluation
// ============================================================

func (i *Interpreter) evalExpr(expr ast.Expr) (Value, error) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		return literalValue(e.Value), nil

	case *ast.GroupingExpr:
		return i.evalExpr(e.Inner)

	case *ast.UnaryExpr:
		return i.evalUnary(e)

	case *ast.BinaryExpr:
		return i.evalBinary(e)

	case *ast.LogicalExpr:
		return i.evalLogical(e)

	case *ast.VariableExpr:
		return i.lookUpVariable(e.Name, e.ID())

	case *ast.AssignExpr:
		return i.evalAssign(e)

	case *ast.CallExpr:
		return i.evalCall(e)

	case *ast.GetExpr:
		return i.evalGet(e)

	case *ast.SetExpr:
		return i.evalSet(e)

	case *ast.ThisExpr:
		return i.lookUpVariable(e.Keyword, e.ID())

	case *ast.SuperExpr:
		return i.evalSuper(e)

	default:
		return nil, runtimeErr("E5000", token.Token{Span: expr.GetSpan()}, "unhandled expression type: %T", expr)
	}
}

func literalValue(v interface{}) Value {
	switch val := v.(type) {
	case bool:
		return BoolVal(val)
	case float64:
		return NumberVal(val)
	case string:
		return StringVal(val)
	default:
		return NilVal{}
	}
}

// lookUpVariable reads a resolved local at its recorded distance and
// anything unresolved from the globals.
func (i *Interpreter) lookUpVariable(name token.Token, id ast.NodeID) (Value, error) {
	if distance, ok := i.locals[id]; ok {
		if val, ok := i.env.GetAt(distance, name.Lexeme); ok {
			return val, nil
		}
	} else if val, ok := i.globals.Get(name.Lexeme); ok {
		return val, nil
	}
	return nil, runtimeErr("E4002", name, "Undefined variable '%s'.", name.Lexeme)
}

func (i *Interpreter) evalAssign(e *ast.AssignExpr) (Value, error) {
	val, err := i.evalExpr(e.Value)
	if err != nil {
		return nil, err
	}

	if distance, ok := i.locals[e.ID()]; ok {
		i.env.AssignAt(distance, e.Name.Lexeme, val)
		return val, nil
	}
	if !i.globals.Assign(e.Name.Lexeme, val) {
		return nil, runtimeErr("E4002", e.Name, "Undefined variable '%s'.", e.Name.Lexeme)
	}
	return val, nil
}

func (i *Interpreter) evalUnary(e *ast.UnaryExpr) (Value, error) {
	operand, err := i.evalExpr(e.Operand)
	if err != nil {
		return nil, err
	}

	switch e.Op.Kind {
	case token.BANG:
		return BoolVal(!IsTruthy(operand)), nil
	case token.MINUS:
		n, ok := operand.(NumberVal)
		if !ok {
			return nil, runtimeErr("E4001", e.Op, "Operand must be a number.")
		}
		return -n, nil
	default:
		return nil, runtimeErr("E5000", e.Op, "unknown unary operator: %s", e.Op.Lexeme)
	}
}

func (i *Interpreter) evalBinary(e *ast.BinaryExpr) (Value, error) {
	left, err := i.evalExpr(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := i.evalExpr(e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Op.Kind {
	case token.EQ:
		return BoolVal(ValuesEqual(left, right)), nil
	case token.NEQ:
		return BoolVal(!ValuesEqual(left, right)), nil
	case token.PLUS:
		if ls, ok := left.(StringVal); ok {
			if rs, ok := right.(StringVal); ok {
				return ls + rs, nil
			}
		}
		if ln, ok := left.(NumberVal); ok {
			if rn, ok := right.(NumberVal); ok {
				return ln + rn, nil
			}
		}
		return nil, runtimeErr("E4001", e.Op, "Operands must be two numbers or two strings.")
	}

	ln, lok := left.(NumberVal)
	rn, rok := right.(NumberVal)
	if !lok || !rok {
		return nil, runtimeErr("E4001", e.Op, "Operands must be numbers.")
	}

	switch e.Op.Kind {
	case token.MINUS:
		return ln - rn, nil
	case token.STAR:
		return ln * rn, nil
	case token.SLASH:
		// IEEE semantics: x/0 is ±Infinity, 0/0 is NaN.
		return ln / rn, nil
	case token.LT:
		return BoolVal(ln < rn), nil
	case token.LTE:
		return BoolVal(ln <= rn), nil
	case token.GT:
		return BoolVal(ln > rn), nil
	case token.GTE:
		return BoolVal(ln >= rn), nil
	default:
		return nil, runtimeErr("E5000", e.Op, "unknown binary operator: %s", e.Op.Lexeme)
	}
}

// evalLogical short-circuits and yields the deciding operand itself.
func (i *Interpreter) evalLogical(e *ast.LogicalExpr) (Value, error) {
	left, err := i.evalExpr(e.Left)
	if err != nil {
		return nil, err
	}

	if e.Op.Kind == token.KW_OR {
		if IsTruthy(left) {
			return left, nil
		}
	} else if !IsTruthy(left) {
		return left, nil
	}
	return i.evalExpr(e.Right)
}

// ============================================================
// Calls
// ============================================================

func (i *Interpreter) evalCall(e *ast.CallExpr) (Value, error) {
	callee, err := i.evalExpr(e.Callee)
	if err != nil {
		return nil, err
	}

	args := make([]Value, len(e.Args))
	for idx, argExpr := range e.Args {
		val, err := i.evalExpr(argExpr)
		if err != nil {
			return nil, err
		}
		args[idx] = val
	}

	fn, ok := callee.(Callable)
	if !ok {
		return nil, runtimeErr("E4003", e.Paren, "Can only call functions and classes.")
	}
	if len(args) != fn.Arity() {
		return nil, runtimeErr("E4004", e.Paren, "Expected %d arguments but got %d.", fn.Arity(), len(args))
	}

	if i.depth >= i.maxDepth {
		return nil, runtimeErr("E4008", e.Paren, "Stack overflow.")
	}
	i.depth++
	defer func() { i.depth-- }()

	return fn.Call(i, args)
}

// callFunction runs a user function body in a fresh environment parented
// at its closure. Initializers always yield the bound instance.
func (i *Interpreter) callFunction(fn *FuncVal, args []Value) (Value, error) {
	env := NewEnvironment(fn.Closure)
	for idx, param := range fn.Decl.Params {
		env.Define(param.Lexeme, args[idx])
	}

	result, err := i.execBlock(fn.Decl.Body, env)
	if err != nil {
		return nil, err
	}

	if fn.IsInitializer {
		this, _ := fn.Closure.GetAt(0, "this")
		return this, nil
	}
	if result.Signal == SigReturn {
		return result.Value, nil
	}
	return NilVal{}, nil
}

// ============================================================
// Properties
// ============================================================

func (i *Interpreter) evalGet(e *ast.GetExpr) (Value, error) {
	obj, err := i.evalExpr(e.Object)
	if err != nil {
		return nil, err
	}

	inst, ok := obj.(*InstanceVal)
	if !ok {
		return nil, runtimeErr("E4005", e.Name, "Only instances have properties.")
	}
	val, ok := inst.Get(e.Name.Lexeme)
	if !ok {
		return nil, runtimeErr("E4006", e.Name, "Undefined property '%s'.", e.Name.Lexeme)
	}
	return val, nil
}

func (i *Interpreter) evalSet(e *ast.SetExpr) (Value, error) {
	obj, err := i.evalExpr(e.Object)
	if err != nil {
		return nil, err
	}

	inst, ok := obj.(*InstanceVal)
	if !ok {
		return nil, runtimeErr("E4005", e.Name, "Only instances have fields.")
	}

	val, err := i.evalExpr(e.Value)
	if err != nil {
		return nil, err
	}
	inst.Set(e.Name.Lexeme, val)
	return val, nil
}

// evalSuper finds the method on the superclass and binds it to the current
// receiver, which lives one scope inside the "super" scope.
func (i *Interpreter) evalSuper(e *ast.SuperExpr) (Value, error) {
	distance, ok := i.locals[e.ID()]
	if !ok {
		return nil, runtimeErr("E5000", e.Keyword, "unresolved 'super'")
	}

	sv, _ := i.env.GetAt(distance, "super")
	superclass, ok := sv.(*ClassVal)
	if !ok {
		return nil, runtimeErr("E5000", e.Keyword, "unresolved 'super'")
	}
	tv, _ := i.env.GetAt(distance-1, "this")
	receiver, ok := tv.(*InstanceVal)
	if !ok {
		return nil, runtimeErr("E5000", e.Keyword, "unresolved 'this'")
	}

	method := superclass.FindMethod(e.Method.Lexeme)
	if method == nil {
		return nil, runtimeErr("E4006", e.Method, "Undefined property '%s'.", e.Method.Lexeme)
	}
	return method.Bind(receiver), nil
}
