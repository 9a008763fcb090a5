package parser

import (
	"github.com/orizon-lang/wasmast/internal/ast"
	"github.com/orizon-lang/wasmast/internal/errors"
	"github.com/orizon-lang/wasmast/internal/lexer"
	"github.com/orizon-lang/wasmast/internal/scope"
)

// =============================================================================
// Expression Parsing
// =============================================================================

// parseExpression dispatches on the leading token:
//
//	( ...           sequence or grouped expression
//	name = expr     assignment
//	name(...)       local call
//	mod::name(...)  external call
//	name            variable read
//	Type.method()   builtin
//	literal         numeric literal
func (p *Parser) parseExpression() (ast.Expression, error) {
	tok, ok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, p.unexpected("expression", tok, ok)
	}

	switch {
	case matches(tok, lexer.Punctuation, "("):
		p.skip()
		return p.parseSequence()
	case tok.Kind == lexer.Identifier:
		p.skip()
		return p.parseIdentifierExpression(tok)
	case tok.Kind == lexer.Type:
		p.skip()
		return p.parseBuiltin(tok)
	case tok.Kind == lexer.Literal:
		p.skip()
		return parseLiteral(tok)
	}

	return nil, p.unexpected("expression", tok, true)
}

// parseSequence parses the rest of `(a, b, c)`. A single element is
// returned as is.
func (p *Parser) parseSequence() (ast.Expression, error) {
	exprs, err := p.parseExpressionList()
	if err != nil {
		return nil, err
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return &ast.SequenceExpression{Expressions: exprs}, nil
}

// parseCondition parses the parenthesized test of if and do/while.
func (p *Parser) parseCondition() (ast.Expression, error) {
	if _, err := p.expect(lexer.Punctuation, "("); err != nil {
		return nil, err
	}
	return p.parseSequence()
}

// parseExpressionList parses `expr (, expr)* )` after the opening paren.
func (p *Parser) parseExpressionList() ([]ast.Expression, error) {
	out := []ast.Expression{}
	for {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		out = append(out, expr)

		_, more, err := p.maybe(lexer.Punctuation, ",")
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
	}

	if _, err := p.expect(lexer.Punctuation, ")"); err != nil {
		return nil, err
	}
	return out, nil
}

// parseArguments parses a possibly empty call argument list.
func (p *Parser) parseArguments() ([]ast.Expression, error) {
	if _, err := p.expect(lexer.Punctuation, "("); err != nil {
		return nil, err
	}
	if _, ok, err := p.maybe(lexer.Punctuation, ")"); err != nil {
		return nil, err
	} else if ok {
		return []ast.Expression{}, nil
	}
	return p.parseExpressionList()
}

func (p *Parser) parseIdentifierExpression(name lexer.Token) (ast.Expression, error) {
	next, ok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if !ok || next.Kind != lexer.Punctuation {
		return p.resolveVariable(name)
	}

	switch next.Text {
	case "=":
		p.skip()
		left, err := p.resolveVariable(name)
		if err != nil {
			return nil, err
		}
		right, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.AssignmentExpression{Operator: "=", Left: left, Right: right}, nil

	case "::":
		p.skip()
		fnTok, err := p.expect(lexer.Identifier, "")
		if err != nil {
			return nil, err
		}
		args, err := p.parseArguments()
		if err != nil {
			return nil, err
		}
		return &ast.CallExpression{
			Fn:        &ast.External{Module: name.Text, Name: fnTok.Text},
			Arguments: args,
		}, nil

	case "(":
		fn, err := p.resolveCallee(name)
		if err != nil {
			return nil, err
		}
		args, err := p.parseArguments()
		if err != nil {
			return nil, err
		}
		return &ast.CallExpression{Fn: fn, Arguments: args}, nil
	}

	return p.resolveVariable(name)
}

// resolveVariable resolves a read or assignment target. Only parameters
// and locals are values.
func (p *Parser) resolveVariable(tok lexer.Token) (ast.Ref, error) {
	if !p.options.Index {
		return &ast.Identifier{Name: tok.Text}, nil
	}

	b, err := p.scopes.Lookup(p.current, tok.Text)
	if err != nil {
		return nil, p.at(err, tok.Offset)
	}

	switch b.Kind {
	case scope.Param:
		return &ast.Param{Name: b.Name, Index: b.Index}, nil
	case scope.Local:
		return &ast.Local{Name: b.Name, Index: b.Index}, nil
	}
	return nil, p.at(errors.KindMismatch(tok.Text, "Param or Local", b.Kind.String()), tok.Offset)
}

// resolveCallee resolves a local call target. Imported names become
// external references regardless of scope. Unknown names are reserved in
// the root table, where functions are declared, and must be defined by the
// end of the program.
func (p *Parser) resolveCallee(tok lexer.Token) (ast.Ref, error) {
	if module, ok := p.imports[tok.Text]; ok {
		return &ast.External{Module: module, Name: tok.Text}, nil
	}
	if !p.options.Index {
		return &ast.Identifier{Name: tok.Text}, nil
	}

	if b, err := p.scopes.Lookup(p.current, tok.Text); err == nil {
		if b.Kind != scope.FunctionRef {
			return nil, p.at(errors.KindMismatch(tok.Text, scope.FunctionRef.String(), b.Kind.String()), tok.Offset)
		}
		return &ast.FunctionRef{Name: b.Name, Index: b.Index}, nil
	}

	b, err := p.scopes.Reserve(scope.Root, tok.Text, scope.FunctionRef)
	if err != nil {
		return nil, p.at(err, tok.Offset)
	}
	return &ast.FunctionRef{Name: b.Name, Index: b.Index}, nil
}

// parseBuiltin parses `.method(args)` after the receiver type.
func (p *Parser) parseBuiltin(typeTok lexer.Token) (*ast.Builtin, error) {
	if _, err := p.expect(lexer.Punctuation, "."); err != nil {
		return nil, err
	}

	if p.lexer.End() {
		return nil, p.unexpected("builtin method", lexer.Token{}, false)
	}
	method, err := p.lexer.Next()
	if err != nil {
		return nil, err
	}
	if method.Kind != lexer.Identifier && method.Kind != lexer.Keyword {
		return nil, p.unexpected("builtin method", method, true)
	}

	args, err := p.parseArguments()
	if err != nil {
		return nil, err
	}

	return &ast.Builtin{
		Result:    &ast.Type{Name: typeTok.Text},
		Method:    method.Text,
		Arguments: args,
	}, nil
}
