package ast

import "fmt"

// Visitor is called by Walk for every node. If the returned visitor w is
// not nil, Walk visits each child of node with w, then calls w.Visit(nil).
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk traverses the AST in depth-first order.
func Walk(v Visitor, node Node) {
	if v = v.Visit(node); v == nil {
		return
	}

	switch n := node.(type) {
	case *Program:
		for _, decl := range n.Body {
			Walk(v, decl)
		}

	case *Function:
		Walk(v, n.Result)
		Walk(v, n.Name)
		for _, param := range n.Params {
			Walk(v, param)
		}
		walkStatements(v, n.Body)

	case *ParamDeclaration:
		Walk(v, n.Result)
		Walk(v, n.Name)

	case *ImportStatement:
		for _, name := range n.Names {
			Walk(v, name)
		}
		Walk(v, n.Module)

	case *ExportStatement:
		for _, name := range n.Names {
			Walk(v, name)
		}

	case *VariableDeclaration:
		Walk(v, n.Result)
		Walk(v, n.ID)
		if n.Init != nil {
			Walk(v, n.Init)
		}

	case *ReturnStatement:
		if n.Argument != nil {
			Walk(v, n.Argument)
		}

	case *IfStatement:
		Walk(v, n.Test)
		Walk(v, n.Consequent)
		if n.Alternate != nil {
			Walk(v, n.Alternate)
		}

	case *BlockStatement:
		walkStatements(v, n.Body)

	case *ForeverStatement:
		Walk(v, n.Body)

	case *DoWhileStatement:
		Walk(v, n.Body)
		Walk(v, n.Test)

	case *ExpressionStatement:
		Walk(v, n.Expression)

	case *AssignmentExpression:
		Walk(v, n.Left)
		Walk(v, n.Right)

	case *CallExpression:
		Walk(v, n.Fn)
		walkExpressions(v, n.Arguments)

	case *Builtin:
		Walk(v, n.Result)
		walkExpressions(v, n.Arguments)

	case *SequenceExpression:
		walkExpressions(v, n.Expressions)

	case *Type, *BreakStatement, *ContinueStatement, *Literal,
		*Identifier, *FunctionRef, *Param, *Local, *External:
		// leaves

	default:
		panic(fmt.Sprintf("ast.Walk: unexpected node type %T", n))
	}

	v.Visit(nil)
}

func walkStatements(v Visitor, list []Statement) {
	for _, stmt := range list {
		Walk(v, stmt)
	}
}

func walkExpressions(v Visitor, list []Expression) {
	for _, expr := range list {
		Walk(v, expr)
	}
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses the AST, calling f for each node and, after the
// children of a node, once with nil. Children are skipped when f returns
// false.
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}
