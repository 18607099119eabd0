package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Print renders a node in parenthesized prefix form, e.g. (+ 1 (* 2 3)).
// A Program renders one top-level statement per line.
func Print(node Node) string {
	var sb strings.Builder
	if prog, ok := node.(*Program); ok {
		for _, stmt := range prog.Stmts {
			writeNode(&sb, stmt)
			sb.WriteByte('\n')
		}
		return sb.String()
	}
	writeNode(&sb, node)
	return sb.String()
}

func writeNode(sb *strings.Builder, node Node) {
	switch n := node.(type) {
	case nil:
		sb.WriteString("<nil>")

	// ---- Expressions ----
	case *LiteralExpr:
		sb.WriteString(literalString(n.Value))
	case *GroupingExpr:
		parens(sb, "group", n.Inner)
	case *UnaryExpr:
		parens(sb, n.Op.Lexeme, n.Operand)
	case *BinaryExpr:
		parens(sb, n.Op.Lexeme, n.Left, n.Right)
	case *LogicalExpr:
		parens(sb, n.Op.Lexeme, n.Left, n.Right)
	case *VariableExpr:
		sb.WriteString(n.Name.Lexeme)
	case *AssignExpr:
		parens(sb, "= "+n.Name.Lexeme, n.Value)
	case *CallExpr:
		nodes := append([]Node{n.Callee}, exprNodes(n.Args)...)
		parens(sb, "call", nodes...)
	case *GetExpr:
		parens(sb, ". "+n.Name.Lexeme, n.Object)
	case *SetExpr:
		parens(sb, ".= "+n.Name.Lexeme, n.Object, n.Value)
	case *ThisExpr:
		sb.WriteString("this")
	case *SuperExpr:
		sb.WriteString("(super " + n.Method.Lexeme + ")")

	// ---- Statements ----
	case *ExprStmt:
		parens(sb, ";", n.Expr)
	case *PrintStmt:
		parens(sb, "print", n.Expr)
	case *VarStmt:
		if n.Init == nil {
			sb.WriteString("(var " + n.Name.Lexeme + ")")
		} else {
			parens(sb, "var "+n.Name.Lexeme, n.Init)
		}
	case *BlockStmt:
		parens(sb, "block", stmtNodes(n.Stmts)...)
	case *IfStmt:
		if n.Else == nil {
			parens(sb, "if", n.Condition, n.Then)
		} else {
			parens(sb, "if-else", n.Condition, n.Then, n.Else)
		}
	case *WhileStmt:
		parens(sb, "while", n.Condition, n.Body)
	case *FunctionStmt:
		writeFunction(sb, "fun", n)
	case *ReturnStmt:
		if n.Value == nil {
			sb.WriteString("(return)")
		} else {
			parens(sb, "return", n.Value)
		}
	case *ClassStmt:
		sb.WriteString("(class " + n.Name.Lexeme)
		if n.Superclass != nil {
			sb.WriteString(" < " + n.Superclass.Name.Lexeme)
		}
		for _, method := range n.Methods {
			sb.WriteByte(' ')
			writeFunction(sb, "method", method)
		}
		sb.WriteByte(')')
	case *Program:
		parens(sb, "program", stmtNodes(n.Stmts)...)

	default:
		fmt.Fprintf(sb, "<unknown %T>", node)
	}
}

func writeFunction(sb *strings.Builder, head string, fn *FunctionStmt) {
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.Lexeme
	}
	parens(sb, head+" "+fn.Name.Lexeme+" ("+strings.Join(params, " ")+")", stmtNodes(fn.Body)...)
}

func parens(sb *strings.Builder, head string, nodes ...Node) {
	sb.WriteByte('(')
	sb.WriteString(head)
	for _, n := range nodes {
		sb.WriteByte(' ')
		writeNode(sb, n)
	}
	sb.WriteByte(')')
}

func literalString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case string:
		return strconv.Quote(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func exprNodes(exprs []Expr) []Node {
	nodes := make([]Node, len(exprs))
	for i, x := range exprs {
		nodes[i] = x
	}
	return nodes
}

func stmtNodes(stmts []Stmt) []Node {
	nodes := make([]Node, len(stmts))
	for i, s := range stmts {
		nodes[i] = s
	}
	return nodes
}
