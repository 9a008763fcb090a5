package ast

import (
	"fmt"
	"io"
	"strings"
)

// Fprint writes an indented tree rendering of node to w.
func Fprint(w io.Writer, node Node) error {
	p := &printer{}
	p.node(node, 0)
	_, err := io.WriteString(w, p.b.String())
	return err
}

// String renders node the way Fprint does.
func String(node Node) string {
	p := &printer{}
	p.node(node, 0)
	return strings.TrimRight(p.b.String(), "\n")
}

type printer struct {
	b strings.Builder
}

func (p *printer) line(depth int, format string, args ...interface{}) {
	p.b.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(&p.b, format, args...)
	p.b.WriteByte('\n')
}

func (p *printer) node(node Node, depth int) {
	switch n := node.(type) {
	case nil:
		p.line(depth, "nil")

	case *Program:
		p.line(depth, "Program")
		for _, decl := range n.Body {
			p.node(decl, depth+1)
		}

	case *Function:
		p.line(depth, "Function %s %s locals=%d", n.Result.Name, ref(n.Name), n.LocalCount)
		for _, param := range n.Params {
			p.node(param, depth+1)
		}
		for _, stmt := range n.Body {
			p.node(stmt, depth+1)
		}

	case *ParamDeclaration:
		p.line(depth, "ParamDeclaration %s %s", n.Result.Name, ref(n.Name))

	case *ImportStatement:
		names := make([]string, len(n.Names))
		for i, name := range n.Names {
			names[i] = name.Name
		}
		p.line(depth, "ImportStatement %s from %s", strings.Join(names, ", "), n.Module.Name)

	case *ExportStatement:
		names := make([]string, len(n.Names))
		for i, name := range n.Names {
			names[i] = ref(name)
		}
		p.line(depth, "ExportStatement %s", strings.Join(names, ", "))

	case *VariableDeclaration:
		p.line(depth, "VariableDeclaration %s %s", n.Result.Name, ref(n.ID))
		if n.Init != nil {
			p.node(n.Init, depth+1)
		}

	case *ReturnStatement:
		p.line(depth, "ReturnStatement")
		if n.Argument != nil {
			p.node(n.Argument, depth+1)
		}

	case *IfStatement:
		p.line(depth, "IfStatement")
		p.node(n.Test, depth+1)
		p.node(n.Consequent, depth+1)
		if n.Alternate != nil {
			p.line(depth+1, "else")
			p.node(n.Alternate, depth+1)
		}

	case *BlockStatement:
		p.line(depth, "BlockStatement")
		for _, stmt := range n.Body {
			p.node(stmt, depth+1)
		}

	case *ForeverStatement:
		p.line(depth, "ForeverStatement")
		p.node(n.Body, depth+1)

	case *DoWhileStatement:
		p.line(depth, "DoWhileStatement")
		p.node(n.Body, depth+1)
		p.node(n.Test, depth+1)

	case *BreakStatement:
		p.line(depth, "BreakStatement")

	case *ContinueStatement:
		p.line(depth, "ContinueStatement")

	case *ExpressionStatement:
		p.line(depth, "ExpressionStatement")
		p.node(n.Expression, depth+1)

	case *AssignmentExpression:
		p.line(depth, "AssignmentExpression %s %s", ref(n.Left), n.Operator)
		p.node(n.Right, depth+1)

	case *CallExpression:
		p.line(depth, "CallExpression %s", ref(n.Fn))
		for _, arg := range n.Arguments {
			p.node(arg, depth+1)
		}

	case *Builtin:
		p.line(depth, "Builtin %s.%s", n.Result.Name, n.Method)
		for _, arg := range n.Arguments {
			p.node(arg, depth+1)
		}

	case *SequenceExpression:
		p.line(depth, "SequenceExpression")
		for _, expr := range n.Expressions {
			p.node(expr, depth+1)
		}

	case *Literal:
		p.line(depth, "Literal %s", n.String())

	case *Type:
		p.line(depth, "Type %s", n.Name)

	case Ref:
		p.line(depth, "%s", ref(n))

	default:
		p.line(depth, "%T", n)
	}
}

func ref(r Ref) string {
	switch n := r.(type) {
	case *Identifier:
		return n.Name
	case *FunctionRef:
		return fmt.Sprintf("%s#fn%d", n.Name, n.Index)
	case *Param:
		return fmt.Sprintf("%s#param%d", n.Name, n.Index)
	case *Local:
		return fmt.Sprintf("%s#local%d", n.Name, n.Index)
	case *External:
		return n.Module + "::" + n.Name
	case nil:
		return "nil"
	default:
		return r.RefName()
	}
}
