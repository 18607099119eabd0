package resolver

import (
	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/lexer"
	"lox-lang/internal/parser"
	"testing"
)

// table records bindings by node ID.
type table map[ast.NodeID]int

func (t table) Bind(id ast.NodeID, depth int) { t[id] = depth }

func resolveSource(t *testing.T, source string) (*ast.Program, table, []diag.Diagnostic) {
	t.Helper()
	tokens, lexDiags := lexer.New(source, "test.lox").Tokenize()
	if len(lexDiags) > 0 {
		t.Fatalf("lex errors: %v", lexDiags)
	}
	rep := diag.NewReporter()
	prog := parser.New(tokens, rep).Parse()
	if rep.HasErrors() {
		t.Fatalf("parse errors: %v", rep.Diagnostics())
	}
	locals := table{}
	New(locals, rep).Resolve(prog)
	return prog, locals, rep.Diagnostics()
}

func resolveOK(t *testing.T, source string) (*ast.Program, table) {
	t.Helper()
	prog, locals, diags := resolveSource(t, source)
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	return prog, locals
}

func expectDiag(t *testing.T, source, code, msg string) {
	t.Helper()
	_, _, diags := resolveSource(t, source)
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d: %v", len(diags), diags)
	}
	if diags[0].Code != code {
		t.Errorf("expected code %s, got %s (%s)", code, diags[0].Code, diags[0].Message)
	}
	if diags[0].Message != msg {
		t.Errorf("expected message %q, got %q", msg, diags[0].Message)
	}
}

func TestGlobalsAreNotBound(t *testing.T) {
	_, locals := resolveOK(t, `var a = 1; print a; a = 2;`)
	if len(locals) != 0 {
		t.Errorf("expected no bindings for globals, got %v", locals)
	}
}

func TestLocalDistances(t *testing.T) {
	prog, locals := resolveOK(t, `
{
  var a = 1;
  {
    var b = 2;
    print a;
    print b;
  }
}
`)
	outer := prog.Stmts[0].(*ast.BlockStmt)
	inner := outer.Stmts[1].(*ast.BlockStmt)
	useA := inner.Stmts[1].(*ast.PrintStmt).Expr
	useB := inner.Stmts[2].(*ast.PrintStmt).Expr

	if d, ok := locals[useA.ID()]; !ok || d != 1 {
		t.Errorf("a: expected distance 1, got %d (bound=%v)", d, ok)
	}
	if d, ok := locals[useB.ID()]; !ok || d != 0 {
		t.Errorf("b: expected distance 0, got %d (bound=%v)", d, ok)
	}
}

func TestClosureCapturesEnclosingLocal(t *testing.T) {
	prog, locals := resolveOK(t, `
fun makeCounter() {
  var i = 0;
  fun count() {
    i = i + 1;
    return i;
  }
  return count;
}
`)
	outer := prog.Stmts[0].(*ast.FunctionStmt)
	count := outer.Body[1].(*ast.FunctionStmt)
	assign := count.Body[0].(*ast.ExprStmt).Expr.(*ast.AssignExpr)
	ret := count.Body[1].(*ast.ReturnStmt).Value

	if locals[assign.ID()] != 1 {
		t.Errorf("assignment to i: expected distance 1, got %d", locals[assign.ID()])
	}
	if locals[ret.ID()] != 1 {
		t.Errorf("return i: expected distance 1, got %d", locals[ret.ID()])
	}

	// 'count' is declared in makeCounter's parameter scope.
	retCount := outer.Body[2].(*ast.ReturnStmt).Value
	if d, ok := locals[retCount.ID()]; !ok || d != 0 {
		t.Errorf("return count: expected distance 0, got %d (bound=%v)", d, ok)
	}
}

func TestShadowingInBlock(t *testing.T) {
	_, _, diags := resolveSource(t, `var a = "outer"; { var a = "inner"; print a; } print a;`)
	if len(diags) != 0 {
		t.Errorf("shadowing a global is allowed, got %v", diags)
	}
}

func TestThisAndSuperDistances(t *testing.T) {
	prog, locals := resolveOK(t, `
class A { m() { return 1; } }
class B < A {
  m() {
    print this;
    return super.m();
  }
}
`)
	b := prog.Stmts[1].(*ast.ClassStmt)
	method := b.Methods[0]
	this := method.Body[0].(*ast.PrintStmt).Expr
	call := method.Body[1].(*ast.ReturnStmt).Value.(*ast.CallExpr)
	super := call.Callee

	// method params scope -> this scope -> super scope
	if locals[this.ID()] != 1 {
		t.Errorf("this: expected distance 1, got %d", locals[this.ID()])
	}
	if locals[super.ID()] != 2 {
		t.Errorf("super: expected distance 2, got %d", locals[super.ID()])
	}
	// The superclass reference at top level stays global.
	if _, ok := locals[b.Superclass.ID()]; ok {
		t.Errorf("superclass reference should not be bound")
	}
}

func TestSelfReferentialInitializer(t *testing.T) {
	expectDiag(t, `{ var a = a; }`, "E3002", "Unable to read a variable in its initializer.")
}

func TestTopLevelSelfReferenceAllowed(t *testing.T) {
	resolveOK(t, `var a = a;`)
}

func TestDuplicateLocal(t *testing.T) {
	expectDiag(t, `{ var a = 1; var a = 2; }`, "E3001", "A variable with the same name exists in this scope.")
}

func TestDuplicateParameter(t *testing.T) {
	expectDiag(t, `fun f(a, a) {}`, "E3001", "A variable with the same name exists in this scope.")
}

func TestDuplicateGlobalAllowed(t *testing.T) {
	resolveOK(t, `var a = 1; var a = 2;`)
}

func TestTopLevelReturn(t *testing.T) {
	expectDiag(t, `return 1;`, "E3003", "Return is only allowed inside functions.")
}

func TestReturnValueFromInit(t *testing.T) {
	expectDiag(t, `class A { init() { return 1; } }`, "E3004", "Can't return a value from the init method.")
}

func TestBareReturnFromInitAllowed(t *testing.T) {
	resolveOK(t, `class A { init() { return; } }`)
}

func TestThisOutsideClass(t *testing.T) {
	expectDiag(t, `print this;`, "E3005", "Can only access 'this' within a class.")
}

func TestThisInFunctionOutsideClass(t *testing.T) {
	expectDiag(t, `fun f() { return this; }`, "E3005", "Can only access 'this' within a class.")
}

func TestSuperOutsideClass(t *testing.T) {
	expectDiag(t, `super.m();`, "E3006", "Can only access 'super' within a class.")
}

func TestSuperWithoutSuperclass(t *testing.T) {
	expectDiag(t, `class A { m() { super.m(); } }`, "E3006", "Can't use 'super' in a class with no superclass.")
}

func TestSelfInheritance(t *testing.T) {
	expectDiag(t, `class A < A {}`, "E3007", "A class can't inherit from itself.")
}

func TestResolutionContinuesAfterError(t *testing.T) {
	_, _, diags := resolveSource(t, `return 1; print this; { var a = a; }`)
	if len(diags) != 3 {
		t.Fatalf("expected 3 diagnostics, got %d: %v", len(diags), diags)
	}
	codes := []string{"E3003", "E3005", "E3002"}
	for i, code := range codes {
		if diags[i].Code != code {
			t.Errorf("diag[%d]: expected %s, got %s", i, code, diags[i].Code)
		}
	}
}

func TestForLoopVariableBinding(t *testing.T) {
	prog, locals := resolveOK(t, `for (var i = 0; i < 3; i = i + 1) print i;`)
	outer := prog.Stmts[0].(*ast.BlockStmt)
	loop := outer.Stmts[1].(*ast.WhileStmt)
	cond := loop.Condition.(*ast.BinaryExpr).Left
	body := loop.Body.(*ast.BlockStmt)
	printed := body.Stmts[0].(*ast.PrintStmt).Expr

	if locals[cond.ID()] != 0 {
		t.Errorf("condition i: expected distance 0, got %d", locals[cond.ID()])
	}
	if locals[printed.ID()] != 1 {
		t.Errorf("body i: expected distance 1, got %d", locals[printed.ID()])
	}
}
