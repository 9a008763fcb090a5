// Package ast defines the abstract syntax tree produced by the parser.
//
// Every node kind is its own Go type and the set of kinds is closed:
// the marker methods below are unexported, so consumers can switch
// exhaustively over the variants instead of inspecting runtime tags.
// Nodes own their children; the resolved references (FunctionRef,
// Param, Local, External) are plain values, never pointers into a scope.
package ast

import (
	"fmt"
	"math/big"
)

// NodeKind identifies the variant of a node
type NodeKind int

const (
	KindProgram NodeKind = iota
	KindType
	KindFunction
	KindParamDeclaration
	KindVariableDeclaration
	KindReturnStatement
	KindIfStatement
	KindBlockStatement
	KindForeverStatement
	KindDoWhileStatement
	KindBreakStatement
	KindContinueStatement
	KindExpressionStatement
	KindAssignmentExpression
	KindCallExpression
	KindBuiltin
	KindSequenceExpression
	KindLiteral
	KindIdentifier
	KindImportStatement
	KindExportStatement
	KindFunctionRef
	KindParam
	KindLocal
	KindExternal
)

var kindNames = [...]string{
	KindProgram:              "Program",
	KindType:                 "Type",
	KindFunction:             "Function",
	KindParamDeclaration:     "ParamDeclaration",
	KindVariableDeclaration:  "VariableDeclaration",
	KindReturnStatement:      "ReturnStatement",
	KindIfStatement:          "IfStatement",
	KindBlockStatement:       "BlockStatement",
	KindForeverStatement:     "ForeverStatement",
	KindDoWhileStatement:     "DoWhileStatement",
	KindBreakStatement:       "BreakStatement",
	KindContinueStatement:    "ContinueStatement",
	KindExpressionStatement:  "ExpressionStatement",
	KindAssignmentExpression: "AssignmentExpression",
	KindCallExpression:       "CallExpression",
	KindBuiltin:              "Builtin",
	KindSequenceExpression:   "SequenceExpression",
	KindLiteral:              "Literal",
	KindIdentifier:           "Identifier",
	KindImportStatement:      "ImportStatement",
	KindExportStatement:      "ExportStatement",
	KindFunctionRef:          "FunctionRef",
	KindParam:                "Param",
	KindLocal:                "Local",
	KindExternal:             "External",
}

func (k NodeKind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// Node is the base interface for all AST nodes
type Node interface {
	Kind() NodeKind
}

// TopLevel represents nodes allowed in Program.Body
type TopLevel interface {
	Node
	topLevelNode()
}

// Statement represents all statement nodes
type Statement interface {
	Node
	statementNode()
}

// Expression represents all expression nodes
type Expression interface {
	Node
	expressionNode()
}

// Ref is a name occurrence: a plain Identifier, or the binding it was
// resolved to when parsing with indices.
type Ref interface {
	Expression
	RefName() string
}

// ===== Program Structure =====

// Program is the root of the AST
type Program struct {
	Body []TopLevel `json:"body"`
}

// Type names a value type, or the addr pseudo-type in Builtin receivers
type Type struct {
	Name string `json:"name"`
}

// Function is a top-level function definition
type Function struct {
	Result     *Type               `json:"result"`
	Name       Ref                 `json:"name"`
	Params     []*ParamDeclaration `json:"params"`
	Body       []Statement         `json:"body"`
	LocalCount int                 `json:"localCount"`
}

// ParamDeclaration declares one function parameter
type ParamDeclaration struct {
	Result *Type `json:"result"`
	Name   Ref   `json:"name"`
}

// ImportStatement is `import a, b from module;`
type ImportStatement struct {
	Names  []*Identifier `json:"names"`
	Module *Identifier   `json:"module"`
}

// ExportStatement is `export a, b;`
type ExportStatement struct {
	Names []Ref `json:"names"`
}

// ===== Statements =====

// VariableDeclaration declares a local with an optional initializer
type VariableDeclaration struct {
	Result *Type      `json:"result"`
	ID     Ref        `json:"id"`
	Init   Expression `json:"init"`
}

// ReturnStatement has a nil Argument for a bare `return;`
type ReturnStatement struct {
	Argument Expression `json:"argument"`
}

// IfStatement has a nil Alternate when there is no else arm
type IfStatement struct {
	Test       Expression `json:"test"`
	Consequent Statement  `json:"consequent"`
	Alternate  Statement  `json:"alternate"`
}

// BlockStatement is a brace-delimited statement list
type BlockStatement struct {
	Body []Statement `json:"body"`
}

// ForeverStatement is an unconditional loop
type ForeverStatement struct {
	Body *BlockStatement `json:"body"`
}

// DoWhileStatement is a post-condition loop
type DoWhileStatement struct {
	Body *BlockStatement `json:"body"`
	Test Expression      `json:"test"`
}

type BreakStatement struct{}

type ContinueStatement struct{}

// ExpressionStatement evaluates an expression for its effect
type ExpressionStatement struct {
	Expression Expression `json:"expression"`
}

// ===== Expressions =====

// AssignmentExpression is right-associative: a = b = c
type AssignmentExpression struct {
	Operator string     `json:"operator"`
	Left     Ref        `json:"left"`
	Right    Expression `json:"right"`
}

// CallExpression calls a user function or, through External, an import
type CallExpression struct {
	Fn        Ref          `json:"fn"`
	Arguments []Expression `json:"arguments"`
}

// Builtin is a type-qualified operation such as i64.add(a, b)
type Builtin struct {
	Result    *Type        `json:"result"`
	Method    string       `json:"method"`
	Arguments []Expression `json:"arguments"`
}

// SequenceExpression evaluates to its last expression
type SequenceExpression struct {
	Expressions []Expression `json:"expressions"`
}

// LiteralKind tells which field of a Literal holds the value
type LiteralKind int

const (
	LiteralInt LiteralKind = iota
	LiteralFloat
)

// Literal is a numeric constant. Integers keep full precision in Int.
type Literal struct {
	LiteralKind LiteralKind
	Int         *big.Int
	Float       float64
}

// Value returns the literal as *big.Int or float64.
func (l *Literal) Value() interface{} {
	if l.LiteralKind == LiteralFloat {
		return l.Float
	}
	return l.Int
}

// String returns the canonical text of the value
func (l *Literal) String() string {
	if l.LiteralKind == LiteralFloat {
		return fmt.Sprintf("%g", l.Float)
	}
	return l.Int.String()
}

// Identifier is an unresolved name
type Identifier struct {
	Name string `json:"name"`
}

// FunctionRef is a name resolved to a top-level function index
type FunctionRef struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
}

// Param is a name resolved to a parameter index
type Param struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
}

// Local is a name resolved to a local variable index
type Local struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
}

// External is a call target in an imported module
type External struct {
	Module string `json:"module"`
	Name   string `json:"name"`
}

func (*Program) Kind() NodeKind              { return KindProgram }
func (*Type) Kind() NodeKind                 { return KindType }
func (*Function) Kind() NodeKind             { return KindFunction }
func (*ParamDeclaration) Kind() NodeKind     { return KindParamDeclaration }
func (*ImportStatement) Kind() NodeKind      { return KindImportStatement }
func (*ExportStatement) Kind() NodeKind      { return KindExportStatement }
func (*VariableDeclaration) Kind() NodeKind  { return KindVariableDeclaration }
func (*ReturnStatement) Kind() NodeKind      { return KindReturnStatement }
func (*IfStatement) Kind() NodeKind          { return KindIfStatement }
func (*BlockStatement) Kind() NodeKind       { return KindBlockStatement }
func (*ForeverStatement) Kind() NodeKind     { return KindForeverStatement }
func (*DoWhileStatement) Kind() NodeKind     { return KindDoWhileStatement }
func (*BreakStatement) Kind() NodeKind       { return KindBreakStatement }
func (*ContinueStatement) Kind() NodeKind    { return KindContinueStatement }
func (*ExpressionStatement) Kind() NodeKind  { return KindExpressionStatement }
func (*AssignmentExpression) Kind() NodeKind { return KindAssignmentExpression }
func (*CallExpression) Kind() NodeKind       { return KindCallExpression }
func (*Builtin) Kind() NodeKind              { return KindBuiltin }
func (*SequenceExpression) Kind() NodeKind   { return KindSequenceExpression }
func (*Literal) Kind() NodeKind              { return KindLiteral }
func (*Identifier) Kind() NodeKind           { return KindIdentifier }
func (*FunctionRef) Kind() NodeKind          { return KindFunctionRef }
func (*Param) Kind() NodeKind                { return KindParam }
func (*Local) Kind() NodeKind                { return KindLocal }
func (*External) Kind() NodeKind             { return KindExternal }

func (*Function) topLevelNode()        {}
func (*ImportStatement) topLevelNode() {}
func (*ExportStatement) topLevelNode() {}

func (*VariableDeclaration) statementNode() {}
func (*ReturnStatement) statementNode()     {}
func (*IfStatement) statementNode()         {}
func (*BlockStatement) statementNode()      {}
func (*ForeverStatement) statementNode()    {}
func (*DoWhileStatement) statementNode()    {}
func (*BreakStatement) statementNode()      {}
func (*ContinueStatement) statementNode()   {}
func (*ExpressionStatement) statementNode() {}

func (*AssignmentExpression) expressionNode() {}
func (*CallExpression) expressionNode()       {}
func (*Builtin) expressionNode()              {}
func (*SequenceExpression) expressionNode()   {}
func (*Literal) expressionNode()              {}
func (*Identifier) expressionNode()           {}
func (*FunctionRef) expressionNode()          {}
func (*Param) expressionNode()                {}
func (*Local) expressionNode()                {}
func (*External) expressionNode()             {}

func (n *Identifier) RefName() string  { return n.Name }
func (n *FunctionRef) RefName() string { return n.Name }
func (n *Param) RefName() string       { return n.Name }
func (n *Local) RefName() string       { return n.Name }
func (n *External) RefName() string    { return n.Module + "::" + n.Name }
