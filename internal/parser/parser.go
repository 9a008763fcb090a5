// Package parser implements the wasmast recursive descent parser.
//
// The parser pulls tokens from the lexer on demand and backtracks with
// Save/Restore for lookahead. Scope mutations happen only once a
// production has consumed the tokens that decide it, so backtracking
// never has to undo them.
package parser

import (
	stderrors "errors"
	"fmt"

	"github.com/orizon-lang/wasmast/internal/ast"
	"github.com/orizon-lang/wasmast/internal/errors"
	"github.com/orizon-lang/wasmast/internal/lexer"
	"github.com/orizon-lang/wasmast/internal/scope"
)

// Options selects the resolution strategy
type Options struct {
	// Index resolves names to FunctionRef/Param/Local bindings with dense
	// indices and checks redeclarations and unresolved references.
	Index bool
}

// Parser represents the recursive descent parser. A Parser is used for a
// single parse and must not be shared between goroutines.
type Parser struct {
	lexer   *lexer.Lexer
	options Options

	scopes  *scope.Tree
	current scope.ID

	imports   map[string]string // imported name -> module
	loopDepth int
	locals    int // variable declarations in the current function
}

// Parse parses source into a Program.
func Parse(source string, options Options) (*ast.Program, error) {
	return New(source, options).Parse()
}

// New creates a new parser instance
func New(source string, options Options) *Parser {
	return &Parser{
		lexer:   lexer.New(source),
		options: options,
		scopes:  scope.NewTree(),
		current: scope.Root,
		imports: make(map[string]string),
	}
}

// Parse parses the input and returns the AST, or the first error.
func (p *Parser) Parse() (*ast.Program, error) {
	program := &ast.Program{Body: []ast.TopLevel{}}

	for {
		if err := p.skipSemicolons(); err != nil {
			return nil, err
		}
		if p.lexer.End() {
			break
		}

		decl, err := p.parseTopLevel()
		if err != nil {
			return nil, err
		}
		program.Body = append(program.Body, decl)
	}

	if p.options.Index {
		if err := p.scopes.Check(scope.Root); err != nil {
			return nil, p.at(err, p.lexer.Offset())
		}
	}

	return program, nil
}

// peek returns the next token without consuming it. ok is false at the
// end of input.
func (p *Parser) peek() (tok lexer.Token, ok bool, err error) {
	if p.lexer.End() {
		return lexer.Token{}, false, nil
	}
	save := p.lexer.Save()
	tok, err = p.lexer.Next()
	p.lexer.Restore(save)
	if err != nil {
		return lexer.Token{}, false, err
	}
	return tok, true, nil
}

// skip consumes the token peek just returned. peek lexed it without
// error, so lexing it again cannot fail.
func (p *Parser) skip() {
	_, _ = p.lexer.Next()
}

// maybe consumes the next token if it has the given kind and, when value
// is not empty, the given text.
func (p *Parser) maybe(kind lexer.Kind, value string) (lexer.Token, bool, error) {
	if p.lexer.End() {
		return lexer.Token{}, false, nil
	}
	save := p.lexer.Save()
	tok, err := p.lexer.Next()
	if err != nil {
		return lexer.Token{}, false, err
	}
	if matches(tok, kind, value) {
		return tok, true, nil
	}
	p.lexer.Restore(save)
	return lexer.Token{}, false, nil
}

// expect consumes the next token, which must have the given kind and,
// when value is not empty, the given text.
func (p *Parser) expect(kind lexer.Kind, value string) (lexer.Token, error) {
	if p.lexer.End() {
		return lexer.Token{}, &errors.SyntaxError{
			Expected: kind.String(),
			Value:    value,
			Found:    errors.EOF,
			Offset:   p.lexer.Offset(),
		}
	}
	tok, err := p.lexer.Next()
	if err != nil {
		return lexer.Token{}, err
	}
	if !matches(tok, kind, value) {
		return lexer.Token{}, &errors.SyntaxError{
			Expected: kind.String(),
			Value:    value,
			Found:    describe(tok),
			Offset:   tok.Offset,
		}
	}
	return tok, nil
}

// unexpected reports tok, or the end of input when ok is false, where a
// grammar element was required.
func (p *Parser) unexpected(expected string, tok lexer.Token, ok bool) error {
	if !ok {
		return &errors.SyntaxError{Expected: expected, Found: errors.EOF, Offset: p.lexer.Offset()}
	}
	return &errors.SyntaxError{Expected: expected, Found: describe(tok), Offset: tok.Offset}
}

func (p *Parser) skipSemicolons() error {
	for {
		_, ok, err := p.maybe(lexer.Punctuation, ";")
		if err != nil || !ok {
			return err
		}
	}
}

// at records the source offset on semantic errors coming from the scope
// tree, which does not know about offsets.
func (p *Parser) at(err error, offset int) error {
	var se *errors.SemanticError
	if stderrors.As(err, &se) {
		se.Offset = offset
	}
	return err
}

func matches(tok lexer.Token, kind lexer.Kind, value string) bool {
	return tok.Kind == kind && (value == "" || tok.Text == value)
}

func describe(tok lexer.Token) string {
	return fmt.Sprintf("%s %q", tok.Kind, tok.Text)
}
