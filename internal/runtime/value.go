// Package runtime implements the interpreter and runtime value system for Lox.
package runtime

import (
	"fmt"
	"lox-lang/internal/ast"
	"math"
	"strconv"
)

// Value is the interface for all runtime values. The set of variants is
// closed by the unexported marker method.
type Value interface {
	TypeName() string
	String() string
	loxValue()
}

// Callable is implemented by values that can appear as a call target.
type Callable interface {
	Value
	Arity() int
	Call(in *Interpreter, args []Value) (Value, error)
}

// ---- Primitive values ----

// NilVal represents nil.
type NilVal struct{}

func (NilVal) TypeName() string { return "nil" }
func (NilVal) String() string   { return "nil" }
func (NilVal) loxValue()        {}

// BoolVal represents true or false.
type BoolVal bool

func (v BoolVal) TypeName() string { return "boolean" }
func (v BoolVal) String() string   { return strconv.FormatBool(bool(v)) }
func (BoolVal) loxValue()          {}

// NumberVal represents a double-precision number.
type NumberVal float64

func (v NumberVal) TypeName() string { return "number" }
func (v NumberVal) String() string   { return formatNumber(float64(v)) }
func (NumberVal) loxValue()          {}

// StringVal represents a string value.
type StringVal string

func (v StringVal) TypeName() string { return "string" }
func (v StringVal) String() string   { return string(v) }
func (StringVal) loxValue()          {}

// formatNumber prints the shortest decimal that round-trips, without a
// trailing ".0" for integral values.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ---- Callable values ----

// NativeFn is the Go signature for native functions.
type NativeFn func(args []Value) (Value, error)

// NativeVal represents a function implemented in Go.
type NativeVal struct {
	Name   string
	Params int
	Fn     NativeFn
}

func (v *NativeVal) TypeName() string { return "native function" }
func (v *NativeVal) String() string   { return "<native fn>" }
func (*NativeVal) loxValue()          {}

func (v *NativeVal) Arity() int { return v.Params }

func (v *NativeVal) Call(in *Interpreter, args []Value) (Value, error) {
	return v.Fn(args)
}

// FuncVal represents a user-defined function or method together with the
// environment it closes over.
type FuncVal struct {
	Decl          *ast.FunctionStmt
	Closure       *Environment
	IsInitializer bool
}

func (v *FuncVal) TypeName() string { return "function" }
func (v *FuncVal) String() string   { return fmt.Sprintf("<fn %s>", v.Decl.Name.Lexeme) }
func (*FuncVal) loxValue()          {}

func (v *FuncVal) Arity() int { return len(v.Decl.Params) }

func (v *FuncVal) Call(in *Interpreter, args []Value) (Value, error) {
	return in.callFunction(v, args)
}

// Bind returns a copy of the method whose closure defines "this" as inst.
func (v *FuncVal) Bind(inst *InstanceVal) *FuncVal {
	env := NewEnvironment(v.Closure)
	env.Define("this", inst)
	return &FuncVal{Decl: v.Decl, Closure: env, IsInitializer: v.IsInitializer}
}

// ---- OOP values ----

// ClassVal represents a class. Calling it constructs an instance.
type ClassVal struct {
	Name    string
	Super   *ClassVal // may be nil
	Methods map[string]*FuncVal
}

func (v *ClassVal) TypeName() string { return "class" }
func (v *ClassVal) String() string   { return fmt.Sprintf("<class %s>", v.Name) }
func (*ClassVal) loxValue()          {}

// FindMethod looks a method up on the class, then along its superclass chain.
func (v *ClassVal) FindMethod(name string) *FuncVal {
	for cls := v; cls != nil; cls = cls.Super {
		if m, ok := cls.Methods[name]; ok {
			return m
		}
	}
	return nil
}

// Arity is the arity of init, or zero when the class has none.
func (v *ClassVal) Arity() int {
	if init := v.FindMethod("init"); init != nil {
		return init.Arity()
	}
	return 0
}

func (v *ClassVal) Call(in *Interpreter, args []Value) (Value, error) {
	inst := &InstanceVal{Class: v, Fields: make(map[string]Value)}
	if init := v.FindMethod("init"); init != nil {
		if _, err := init.Bind(inst).Call(in, args); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

// InstanceVal represents an instance of a class.
type InstanceVal struct {
	Class  *ClassVal
	Fields map[string]Value
}

func (v *InstanceVal) TypeName() string { return "instance" }
func (v *InstanceVal) String() string   { return fmt.Sprintf("<%s instance>", v.Class.Name) }
func (*InstanceVal) loxValue()          {}

// Get returns a field, or a method bound to this instance. Fields shadow
// methods.
func (v *InstanceVal) Get(name string) (Value, bool) {
	if val, ok := v.Fields[name]; ok {
		return val, true
	}
	if m := v.Class.FindMethod(name); m != nil {
		return m.Bind(v), true
	}
	return nil, false
}

// Set writes a field, creating it if absent.
func (v *InstanceVal) Set(name string, val Value) {
	v.Fields[name] = val
}

// ---- Truthiness and equality ----

// IsTruthy reports whether v counts as true: only nil and false are falsy.
func IsTruthy(v Value) bool {
	switch val := v.(type) {
	case NilVal:
		return false
	case BoolVal:
		return bool(val)
	default:
		return true
	}
}

// ValuesEqual compares two values. Primitives compare by variant and value;
// functions, classes and instances compare by identity.
func ValuesEqual(a, b Value) bool {
	switch av := a.(type) {
	case NilVal:
		_, ok := b.(NilVal)
		return ok
	case BoolVal:
		bv, ok := b.(BoolVal)
		return ok && av == bv
	case NumberVal:
		bv, ok := b.(NumberVal)
		return ok && float64(av) == float64(bv)
	case StringVal:
		bv, ok := b.(StringVal)
		return ok && av == bv
	}
	return a == b
}
