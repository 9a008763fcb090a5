package parser

import (
	"github.com/orizon-lang/wasmast/internal/ast"
	"github.com/orizon-lang/wasmast/internal/errors"
	"github.com/orizon-lang/wasmast/internal/lexer"
	"github.com/orizon-lang/wasmast/internal/scope"
)

// =============================================================================
// Blocks and Statements
// =============================================================================

// parseBlockBody parses `{ statement* }`. Stray semicolons between
// statements are skipped.
func (p *Parser) parseBlockBody() ([]ast.Statement, error) {
	if _, err := p.expect(lexer.Punctuation, "{"); err != nil {
		return nil, err
	}

	out := []ast.Statement{}
	for {
		if err := p.skipSemicolons(); err != nil {
			return nil, err
		}
		if _, ok, err := p.maybe(lexer.Punctuation, "}"); err != nil {
			return nil, err
		} else if ok {
			return out, nil
		}

		stmt, err := p.parseTerminatedStatement()
		if err != nil {
			return nil, err
		}
		out = append(out, stmt)
	}
}

func (p *Parser) parseBlock() (*ast.BlockStatement, error) {
	body, err := p.parseBlockBody()
	if err != nil {
		return nil, err
	}
	return &ast.BlockStatement{Body: body}, nil
}

// parseTerminatedStatement parses a statement and the `;` that ends it,
// unless the statement ends with its own block.
func (p *Parser) parseTerminatedStatement() (ast.Statement, error) {
	stmt, selfTerminated, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if !selfTerminated {
		if _, err := p.expect(lexer.Punctuation, ";"); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

// parseArm parses an if/else arm: a block, or one terminated statement.
func (p *Parser) parseArm() (ast.Statement, error) {
	tok, ok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if ok && matches(tok, lexer.Punctuation, "{") {
		return p.parseBlock()
	}
	return p.parseTerminatedStatement()
}

func (p *Parser) parseStatement() (stmt ast.Statement, selfTerminated bool, err error) {
	tok, ok, err := p.peek()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, p.unexpected("statement", tok, ok)
	}

	switch tok.Kind {
	case lexer.Punctuation:
		if tok.Text == "{" {
			block, err := p.parseBlock()
			return block, true, err
		}

	case lexer.Keyword:
		return p.parseKeywordStatement(tok)

	case lexer.Type:
		isDecl, err := p.isVariableDeclaration()
		if err != nil {
			return nil, false, err
		}
		if isDecl {
			decl, err := p.parseVariableDeclaration()
			return decl, false, err
		}
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, false, err
	}
	return &ast.ExpressionStatement{Expression: expr}, false, nil
}

// isVariableDeclaration looks ahead for `Type Identifier` without
// consuming anything.
func (p *Parser) isVariableDeclaration() (bool, error) {
	save := p.lexer.Save()
	defer p.lexer.Restore(save)

	if _, err := p.lexer.Next(); err != nil {
		return false, err
	}
	if p.lexer.End() {
		return false, nil
	}
	tok, err := p.lexer.Next()
	if err != nil {
		return false, err
	}
	return tok.Kind == lexer.Identifier, nil
}

func (p *Parser) parseKeywordStatement(tok lexer.Token) (ast.Statement, bool, error) {
	switch tok.Text {
	case "return":
		p.skip()
		stmt, err := p.parseReturn()
		return stmt, false, err

	case "if":
		p.skip()
		stmt, err := p.parseIf()
		return stmt, true, err

	case "forever":
		p.skip()
		stmt, err := p.parseForever()
		return stmt, true, err

	case "do":
		p.skip()
		stmt, err := p.parseDoWhile()
		return stmt, false, err

	case "break", "continue":
		p.skip()
		if p.loopDepth == 0 {
			return nil, false, p.at(errors.LoopControlOutsideLoop(tok.Text), tok.Offset)
		}
		if tok.Text == "break" {
			return &ast.BreakStatement{}, false, nil
		}
		return &ast.ContinueStatement{}, false, nil
	}

	return nil, false, p.unexpected("statement", tok, true)
}

// parseReturn parses the optional argument of a return statement. The
// argument is absent when the terminator follows directly.
func (p *Parser) parseReturn() (*ast.ReturnStatement, error) {
	tok, ok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if ok && matches(tok, lexer.Punctuation, ";") {
		return &ast.ReturnStatement{}, nil
	}

	arg, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.ReturnStatement{Argument: arg}, nil
}

func (p *Parser) parseIf() (*ast.IfStatement, error) {
	test, err := p.parseCondition()
	if err != nil {
		return nil, err
	}

	stmt := &ast.IfStatement{Test: test}
	if stmt.Consequent, err = p.parseArm(); err != nil {
		return nil, err
	}

	_, hasElse, err := p.maybe(lexer.Keyword, "else")
	if err != nil {
		return nil, err
	}
	if hasElse {
		if stmt.Alternate, err = p.parseArm(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseForever() (*ast.ForeverStatement, error) {
	body, err := p.parseLoopBody()
	if err != nil {
		return nil, err
	}
	return &ast.ForeverStatement{Body: body}, nil
}

// parseDoWhile parses `{ ... } while (test)` after the do keyword.
func (p *Parser) parseDoWhile() (*ast.DoWhileStatement, error) {
	body, err := p.parseLoopBody()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Keyword, "while"); err != nil {
		return nil, err
	}
	test, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	return &ast.DoWhileStatement{Body: body, Test: test}, nil
}

// parseLoopBody parses a loop block with break/continue enabled.
func (p *Parser) parseLoopBody() (*ast.BlockStatement, error) {
	p.loopDepth++
	defer func() { p.loopDepth-- }()
	return p.parseBlock()
}

// parseVariableDeclaration parses `Type name [= init]`. The name is bound
// after the initializer, which therefore cannot refer to it.
func (p *Parser) parseVariableDeclaration() (*ast.VariableDeclaration, error) {
	typeTok, err := p.expect(lexer.Type, "")
	if err != nil {
		return nil, err
	}
	if typeTok.Text == "void" || typeTok.Text == "addr" {
		return nil, p.at(errors.InvalidType(typeTok.Text, "variable type"), typeTok.Offset)
	}

	nameTok, err := p.expect(lexer.Identifier, "")
	if err != nil {
		return nil, err
	}

	decl := &ast.VariableDeclaration{Result: &ast.Type{Name: typeTok.Text}}

	_, hasInit, err := p.maybe(lexer.Punctuation, "=")
	if err != nil {
		return nil, err
	}
	if hasInit {
		if decl.Init, err = p.parseExpression(); err != nil {
			return nil, err
		}
	}

	if p.options.Index {
		b, err := p.scopes.Assign(p.current, nameTok.Text, scope.Local)
		if err != nil {
			return nil, p.at(err, nameTok.Offset)
		}
		decl.ID = &ast.Local{Name: b.Name, Index: b.Index}
	} else {
		decl.ID = &ast.Identifier{Name: nameTok.Text}
		p.locals++
	}

	return decl, nil
}
