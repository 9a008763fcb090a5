// Package lexer implements the wasmast lexical analyzer.
//
// Tokens are produced lazily from a single composed pattern. The only
// mutable state is the cursor, so Save and Restore allow arbitrary
// backtracking by copying an integer.
package lexer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/orizon-lang/wasmast/internal/errors"
)

// Kind represents the class of a token
type Kind int

// Token kinds, in the priority order of the composed pattern
const (
	Punctuation Kind = iota
	Type
	Keyword
	Literal
	Identifier
)

// tokenNames provides string representations for token kinds
var tokenNames = map[Kind]string{
	Punctuation: "Punctuation",
	Type:        "Type",
	Keyword:     "Keyword",
	Literal:     "Literal",
	Identifier:  "Identifier",
}

// String returns a string representation of the token kind
func (k Kind) String() string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(k))
}

// Keywords recognized by the lexer. Longer spellings precede their
// prefixes so that the alternation picks them first.
var keywords = []string{
	"call_import", "call_indirect", "call", "addressof",
	"get_local", "set_local",
	"block", "if", "do", "forever", "continue", "break", "return", "switch",
	"import", "export", "while", "else",
}

// Types recognized by the lexer. addr is a pseudo-type only valid as a
// builtin receiver; the parser enforces that.
var types = []string{"void", "addr", "i8", "i16", "i32", "i64", "f32", "f64"}

var (
	pattern = regexp.MustCompile(`(?i)^(?:` +
		`(::|[.,{}();=])|` + // punctuation
		`(` + strings.Join(types, "|") + `)\b|` + // type
		`(` + strings.Join(keywords, "|") + `)\b|` + // keyword
		`([+-]?(?:0x[0-9a-f][0-9a-f_]*|[0-9][0-9_]*(?:\.[0-9_]*)?(?:e[+-]?[0-9]+)?))|` + // literal
		`([$a-z][$a-z0-9_]*)` + // identifier
		`)`)

	identifierPattern = regexp.MustCompile(`(?i)^[$a-z][$a-z0-9_]*`)
)

// Token represents a classified lexeme
type Token struct {
	Kind   Kind
	Text   string
	Offset int // 0-based byte offset in source
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("{Kind: %s, Text: %q, Offset: %d}", t.Kind, t.Text, t.Offset)
}

// Position is a saved cursor
type Position int

// Lexer represents the lexical analyzer
type Lexer struct {
	source string
	cursor int
}

// New creates a new lexer positioned at the first token of source.
func New(source string) *Lexer {
	l := &Lexer{source: source}
	l.skipTrivia()
	return l
}

// Save returns the current cursor.
func (l *Lexer) Save() Position {
	return Position(l.cursor)
}

// Restore moves the cursor back (or forward) to a saved position.
func (l *Lexer) Restore(pos Position) {
	l.cursor = int(pos)
}

// End reports whether all tokens have been consumed.
func (l *Lexer) End() bool {
	return l.cursor >= len(l.source)
}

// Offset returns the byte offset of the cursor.
func (l *Lexer) Offset() int {
	return l.cursor
}

// Next returns the next token and advances past it and any trailing
// whitespace or comments.
func (l *Lexer) Next() (Token, error) {
	start := l.cursor
	if start >= len(l.source) {
		return Token{}, &errors.LexError{Offset: start}
	}

	rest := l.source[start:]
	m := pattern.FindStringSubmatchIndex(rest)
	if m == nil {
		return Token{}, &errors.LexError{Offset: start}
	}
	if m[0] != 0 || m[1] == 0 {
		return Token{}, &errors.LexError{Offset: start + m[1]}
	}

	kind := Identifier
	for group := 1; group <= 5; group++ {
		if m[2*group] >= 0 {
			kind = Kind(group - 1)
			break
		}
	}
	end := m[1]

	// \b does not treat '$' as a word byte, so "i32$x" still needs this.
	if (kind == Type || kind == Keyword) && end < len(rest) && isIdentifierByte(rest[end]) {
		kind = Identifier
		end = identifierPattern.FindStringIndex(rest)[1]
	}

	text := rest[:end]
	if kind == Type || kind == Keyword {
		text = strings.ToLower(text)
	}

	l.cursor = start + end
	if l.cursor-start != len(text) {
		return Token{}, &errors.LexError{Offset: l.cursor}
	}
	l.skipTrivia()

	return Token{Kind: kind, Text: text, Offset: start}, nil
}

// Tokenize lexes the whole of source.
func Tokenize(source string) ([]Token, error) {
	l := New(source)
	var out []Token
	for !l.End() {
		tok, err := l.Next()
		if err != nil {
			return out, err
		}
		out = append(out, tok)
	}
	return out, nil
}

// skipTrivia skips whitespace, line comments and block comments. An
// unterminated block comment is left in place so that Next reports it.
func (l *Lexer) skipTrivia() {
	for l.cursor < len(l.source) {
		switch ch := l.source[l.cursor]; {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f' || ch == '\v':
			l.cursor++
		case strings.HasPrefix(l.source[l.cursor:], "//"):
			nl := strings.IndexByte(l.source[l.cursor:], '\n')
			if nl < 0 {
				l.cursor = len(l.source)
				return
			}
			l.cursor += nl + 1
		case strings.HasPrefix(l.source[l.cursor:], "/*"):
			closing := strings.Index(l.source[l.cursor+2:], "*/")
			if closing < 0 {
				return
			}
			l.cursor += closing + 4
		default:
			return
		}
	}
}

func isIdentifierByte(ch byte) bool {
	return ch == '$' || ch == '_' ||
		('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ('0' <= ch && ch <= '9')
}
