package parser

import (
	stderrors "errors"
	"math/big"
	"strconv"
	"strings"

	"github.com/orizon-lang/wasmast/internal/ast"
	"github.com/orizon-lang/wasmast/internal/errors"
	"github.com/orizon-lang/wasmast/internal/lexer"
)

// parseLiteral converts a literal token. Integer lexemes, decimal or
// hexadecimal, become arbitrary precision integers and never pass through
// a float; lexemes with a fraction or an exponent become float64.
func parseLiteral(tok lexer.Token) (*ast.Literal, error) {
	invalid := &errors.SyntaxError{Expected: "numeric literal", Found: describe(tok), Offset: tok.Offset}

	text := strings.ReplaceAll(tok.Text, "_", "")
	negative := false
	digits := text
	if len(digits) > 0 && (digits[0] == '+' || digits[0] == '-') {
		negative = digits[0] == '-'
		digits = digits[1:]
	}

	if len(digits) > 2 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		v, ok := new(big.Int).SetString(digits[2:], 16)
		if !ok {
			return nil, invalid
		}
		if negative {
			v.Neg(v)
		}
		return &ast.Literal{LiteralKind: ast.LiteralInt, Int: v}, nil
	}

	if strings.ContainsAny(digits, ".eE") {
		f, err := strconv.ParseFloat(text, 64)
		if stderrors.Is(err, strconv.ErrRange) {
			return nil, &errors.SyntaxError{Expected: "float literal within f64 range", Found: describe(tok), Offset: tok.Offset}
		}
		if err != nil {
			return nil, invalid
		}
		return &ast.Literal{LiteralKind: ast.LiteralFloat, Float: f}, nil
	}

	v, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, invalid
	}
	if negative {
		v.Neg(v)
	}
	return &ast.Literal{LiteralKind: ast.LiteralInt, Int: v}, nil
}
