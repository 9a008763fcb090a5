package parser

import (
	"github.com/orizon-lang/wasmast/internal/ast"
	"github.com/orizon-lang/wasmast/internal/errors"
	"github.com/orizon-lang/wasmast/internal/lexer"
	"github.com/orizon-lang/wasmast/internal/scope"
)

// =============================================================================
// Top-level Declarations
// =============================================================================

func (p *Parser) parseTopLevel() (ast.TopLevel, error) {
	tok, err := p.lexer.Next()
	if err != nil {
		return nil, err
	}

	switch {
	case tok.Kind == lexer.Type:
		return p.parseFunction(tok)
	case tok.Kind == lexer.Keyword && tok.Text == "import":
		return p.parseImport()
	case tok.Kind == lexer.Keyword && tok.Text == "export":
		return p.parseExport()
	}

	return nil, p.unexpected("function, import or export", tok, true)
}

// parseFunction parses a function after its result type. The name is bound
// in the enclosing table before the body so that the body, and anything
// parsed earlier, can call it.
func (p *Parser) parseFunction(result lexer.Token) (*ast.Function, error) {
	if result.Text == "addr" {
		return nil, p.at(errors.InvalidType(result.Text, "return type"), result.Offset)
	}

	nameTok, err := p.expect(lexer.Identifier, "")
	if err != nil {
		return nil, err
	}

	fn := &ast.Function{Result: &ast.Type{Name: result.Text}}

	enclosing := p.current
	if p.options.Index {
		b, err := p.scopes.Fulfill(enclosing, nameTok.Text, scope.FunctionRef)
		if err != nil {
			return nil, p.at(err, nameTok.Offset)
		}
		fn.Name = &ast.FunctionRef{Name: b.Name, Index: b.Index}
		p.current = p.scopes.Push(enclosing)
	} else {
		fn.Name = &ast.Identifier{Name: nameTok.Text}
	}
	p.locals = 0

	if fn.Params, err = p.parseParams(); err != nil {
		return nil, err
	}
	if fn.Body, err = p.parseBlockBody(); err != nil {
		return nil, err
	}

	if p.options.Index {
		if err := p.scopes.Check(p.current); err != nil {
			return nil, p.at(err, p.lexer.Offset())
		}
		fn.LocalCount = p.scopes.LocalCount(p.current)
		p.scopes.Pop(p.current)
		p.current = enclosing
	} else {
		fn.LocalCount = p.locals
	}

	return fn, nil
}

func (p *Parser) parseParams() ([]*ast.ParamDeclaration, error) {
	if _, err := p.expect(lexer.Punctuation, "("); err != nil {
		return nil, err
	}

	out := []*ast.ParamDeclaration{}
	if _, ok, err := p.maybe(lexer.Punctuation, ")"); err != nil || ok {
		return out, err
	}

	for {
		typeTok, err := p.expect(lexer.Type, "")
		if err != nil {
			return nil, err
		}
		if typeTok.Text == "addr" || typeTok.Text == "void" {
			return nil, p.at(errors.InvalidType(typeTok.Text, "parameter type"), typeTok.Offset)
		}

		nameTok, err := p.expect(lexer.Identifier, "")
		if err != nil {
			return nil, err
		}

		param := &ast.ParamDeclaration{Result: &ast.Type{Name: typeTok.Text}}
		if p.options.Index {
			b, err := p.scopes.Assign(p.current, nameTok.Text, scope.Param)
			if err != nil {
				return nil, p.at(err, nameTok.Offset)
			}
			param.Name = &ast.Param{Name: b.Name, Index: b.Index}
		} else {
			param.Name = &ast.Identifier{Name: nameTok.Text}
		}
		out = append(out, param)

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

// parseImport parses `a, b from module;` after the import keyword. Every
// imported name is recorded for the whole program; later calls to it are
// external calls.
func (p *Parser) parseImport() (*ast.ImportStatement, error) {
	stmt := &ast.ImportStatement{}

	var names []lexer.Token
	for {
		tok, err := p.expect(lexer.Identifier, "")
		if err != nil {
			return nil, err
		}
		names = append(names, tok)

		_, more, err := p.maybe(lexer.Punctuation, ",")
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
	}

	from, err := p.expect(lexer.Identifier, "")
	if err != nil {
		return nil, err
	}
	if from.Text != "from" {
		return nil, &errors.SyntaxError{
			Expected: lexer.Identifier.String(),
			Value:    "from",
			Found:    describe(from),
			Offset:   from.Offset,
		}
	}

	module, err := p.expect(lexer.Identifier, "")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Punctuation, ";"); err != nil {
		return nil, err
	}

	stmt.Module = &ast.Identifier{Name: module.Text}
	for _, tok := range names {
		if _, dup := p.imports[tok.Text]; dup {
			return nil, p.at(errors.DuplicateImport(tok.Text), tok.Offset)
		}
		p.imports[tok.Text] = module.Text
		stmt.Names = append(stmt.Names, &ast.Identifier{Name: tok.Text})
	}

	return stmt, nil
}

// parseExport parses `a, b;` after the export keyword. Exported names may
// refer to functions defined further down.
func (p *Parser) parseExport() (*ast.ExportStatement, error) {
	stmt := &ast.ExportStatement{}

	for {
		tok, err := p.expect(lexer.Identifier, "")
		if err != nil {
			return nil, err
		}

		if p.options.Index {
			b, err := p.scopes.Reserve(scope.Root, tok.Text, scope.FunctionRef)
			if err != nil {
				return nil, p.at(err, tok.Offset)
			}
			stmt.Names = append(stmt.Names, &ast.FunctionRef{Name: b.Name, Index: b.Index})
		} else {
			stmt.Names = append(stmt.Names, &ast.Identifier{Name: tok.Text})
		}

		_, more, err := p.maybe(lexer.Punctuation, ",")
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
	}

	if _, err := p.expect(lexer.Punctuation, ";"); err != nil {
		return nil, err
	}
	return stmt, nil
}
