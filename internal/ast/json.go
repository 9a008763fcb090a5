package ast

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// encode marshals v and prepends the "kind" discriminator consumers
// pattern-match on.
func encode(kind NodeKind, v interface{}) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", kind, err)
	}
	head := `{"kind":` + strconv.Quote(kind.String())
	if len(body) <= 2 {
		return []byte(head + "}"), nil
	}
	out := make([]byte, 0, len(head)+len(body))
	out = append(out, head...)
	out = append(out, ',')
	return append(out, body[1:]...), nil
}

func (n *Program) MarshalJSON() ([]byte, error) {
	type plain Program
	return encode(KindProgram, (*plain)(n))
}

func (n *Type) MarshalJSON() ([]byte, error) {
	type plain Type
	return encode(KindType, (*plain)(n))
}

func (n *Function) MarshalJSON() ([]byte, error) {
	type plain Function
	return encode(KindFunction, (*plain)(n))
}

func (n *ParamDeclaration) MarshalJSON() ([]byte, error) {
	type plain ParamDeclaration
	return encode(KindParamDeclaration, (*plain)(n))
}

func (n *ImportStatement) MarshalJSON() ([]byte, error) {
	type plain ImportStatement
	return encode(KindImportStatement, (*plain)(n))
}

func (n *ExportStatement) MarshalJSON() ([]byte, error) {
	type plain ExportStatement
	return encode(KindExportStatement, (*plain)(n))
}

func (n *VariableDeclaration) MarshalJSON() ([]byte, error) {
	type plain VariableDeclaration
	return encode(KindVariableDeclaration, (*plain)(n))
}

func (n *ReturnStatement) MarshalJSON() ([]byte, error) {
	type plain ReturnStatement
	return encode(KindReturnStatement, (*plain)(n))
}

func (n *IfStatement) MarshalJSON() ([]byte, error) {
	type plain IfStatement
	return encode(KindIfStatement, (*plain)(n))
}

func (n *BlockStatement) MarshalJSON() ([]byte, error) {
	type plain BlockStatement
	return encode(KindBlockStatement, (*plain)(n))
}

func (n *ForeverStatement) MarshalJSON() ([]byte, error) {
	type plain ForeverStatement
	return encode(KindForeverStatement, (*plain)(n))
}

func (n *DoWhileStatement) MarshalJSON() ([]byte, error) {
	type plain DoWhileStatement
	return encode(KindDoWhileStatement, (*plain)(n))
}

func (n *BreakStatement) MarshalJSON() ([]byte, error) {
	return encode(KindBreakStatement, struct{}{})
}

func (n *ContinueStatement) MarshalJSON() ([]byte, error) {
	return encode(KindContinueStatement, struct{}{})
}

func (n *ExpressionStatement) MarshalJSON() ([]byte, error) {
	type plain ExpressionStatement
	return encode(KindExpressionStatement, (*plain)(n))
}

func (n *AssignmentExpression) MarshalJSON() ([]byte, error) {
	type plain AssignmentExpression
	return encode(KindAssignmentExpression, (*plain)(n))
}

func (n *CallExpression) MarshalJSON() ([]byte, error) {
	type plain CallExpression
	return encode(KindCallExpression, (*plain)(n))
}

func (n *Builtin) MarshalJSON() ([]byte, error) {
	type plain Builtin
	return encode(KindBuiltin, (*plain)(n))
}

func (n *SequenceExpression) MarshalJSON() ([]byte, error) {
	type plain SequenceExpression
	return encode(KindSequenceExpression, (*plain)(n))
}

// MarshalJSON writes integer values as exact JSON numbers.
func (n *Literal) MarshalJSON() ([]byte, error) {
	var value json.RawMessage
	if n.LiteralKind == LiteralFloat {
		value = json.RawMessage(strconv.FormatFloat(n.Float, 'g', -1, 64))
	} else {
		value = json.RawMessage(n.Int.String())
	}
	return encode(KindLiteral, struct {
		Value json.RawMessage `json:"value"`
	}{value})
}

func (n *Identifier) MarshalJSON() ([]byte, error) {
	type plain Identifier
	return encode(KindIdentifier, (*plain)(n))
}

func (n *FunctionRef) MarshalJSON() ([]byte, error) {
	type plain FunctionRef
	return encode(KindFunctionRef, (*plain)(n))
}

func (n *Param) MarshalJSON() ([]byte, error) {
	type plain Param
	return encode(KindParam, (*plain)(n))
}

func (n *Local) MarshalJSON() ([]byte, error) {
	type plain Local
	return encode(KindLocal, (*plain)(n))
}

func (n *External) MarshalJSON() ([]byte, error) {
	type plain External
	return encode(KindExternal, (*plain)(n))
}
