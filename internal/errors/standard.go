// Package errors provides the structured error taxonomy reported by the
// lexer, parser and scope resolver.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryLexical  ErrorCategory = "LEXICAL"
	CategorySyntax   ErrorCategory = "SYNTAX"
	CategorySemantic ErrorCategory = "SEMANTIC"
)

// Code identifies a semantic error subkind
type Code string

const (
	CodeRedeclaration          Code = "REDECLARATION"
	CodeUnresolvedReferences   Code = "UNRESOLVED_REFERENCES"
	CodeInvalidType            Code = "INVALID_TYPE"
	CodeLoopControlOutsideLoop Code = "LOOP_CONTROL_OUTSIDE_LOOP"
	CodeDuplicateImport        Code = "DUPLICATE_IMPORT"
	CodeKindMismatch           Code = "KIND_MISMATCH"
)

// EOF is the Found value of a SyntaxError raised on truncated input.
const EOF = "EOF"

// LexError reports that no token pattern matched at Offset, or that a
// match did not advance the cursor.
type LexError struct {
	Offset int
}

func (e *LexError) Error() string {
	return fmt.Sprintf("[%s] lexer failed at offset %d", CategoryLexical, e.Offset)
}

// SyntaxError reports a required token that was absent.
type SyntaxError struct {
	Expected string // token kind or grammar element
	Value    string // optional expected token text
	Found    string
	Offset   int
}

func (e *SyntaxError) Error() string {
	want := e.Expected
	if e.Value != "" {
		want = fmt.Sprintf("%s %q", e.Expected, e.Value)
	}
	return fmt.Sprintf("[%s] expected %s, found %s at offset %d", CategorySyntax, want, e.Found, e.Offset)
}

// SemanticError reports a name-resolution or usage-rule violation.
type SemanticError struct {
	Code         Code
	Name         string
	Names        []string // UNRESOLVED_REFERENCES only
	Context      string
	ExpectedKind string
	ActualKind   string
	Offset       int
}

func (e *SemanticError) Error() string {
	var msg string
	switch e.Code {
	case CodeRedeclaration:
		msg = fmt.Sprintf("failed to redeclare %q", e.Name)
	case CodeUnresolvedReferences:
		msg = "following names were used, but were not resolved: " + strings.Join(e.Names, ", ")
	case CodeInvalidType:
		msg = fmt.Sprintf("type %q is not allowed as %s", e.Name, e.Context)
	case CodeLoopControlOutsideLoop:
		msg = fmt.Sprintf("%q outside of a loop", e.Name)
	case CodeDuplicateImport:
		msg = fmt.Sprintf("duplicate import of %q", e.Name)
	case CodeKindMismatch:
		msg = fmt.Sprintf("%q is a %s, expected %s", e.Name, e.ActualKind, e.ExpectedKind)
	default:
		msg = e.Name
	}
	return fmt.Sprintf("[%s:%s] %s", CategorySemantic, e.Code, msg)
}

// Common error constructors

func Redeclaration(name string) *SemanticError {
	return &SemanticError{Code: CodeRedeclaration, Name: name}
}

func UnresolvedReferences(names ...string) *SemanticError {
	return &SemanticError{Code: CodeUnresolvedReferences, Names: names}
}

func InvalidType(name, context string) *SemanticError {
	return &SemanticError{Code: CodeInvalidType, Name: name, Context: context}
}

func LoopControlOutsideLoop(keyword string) *SemanticError {
	return &SemanticError{Code: CodeLoopControlOutsideLoop, Name: keyword}
}

func DuplicateImport(name string) *SemanticError {
	return &SemanticError{Code: CodeDuplicateImport, Name: name}
}

func KindMismatch(name, expected, actual string) *SemanticError {
	return &SemanticError{Code: CodeKindMismatch, Name: name, ExpectedKind: expected, ActualKind: actual}
}

// CategoryOf returns the category of a taxonomy error, or "" for foreign errors.
func CategoryOf(err error) ErrorCategory {
	var (
		le *LexError
		se *SyntaxError
		me *SemanticError
	)
	switch {
	case stderrors.As(err, &le):
		return CategoryLexical
	case stderrors.As(err, &se):
		return CategorySyntax
	case stderrors.As(err, &me):
		return CategorySemantic
	}
	return ""
}

// CodeOf returns the semantic subkind of err, or "" if err is not semantic.
func CodeOf(err error) Code {
	var me *SemanticError
	if stderrors.As(err, &me) {
		return me.Code
	}
	return ""
}

// OffsetOf returns the byte offset carried by err and whether it had one.
func OffsetOf(err error) (int, bool) {
	var (
		le *LexError
		se *SyntaxError
		me *SemanticError
	)
	switch {
	case stderrors.As(err, &le):
		return le.Offset, true
	case stderrors.As(err, &se):
		return se.Offset, true
	case stderrors.As(err, &me):
		return me.Offset, true
	}
	return 0, false
}

// IsIncomplete reports whether err was caused by input ending too early.
func IsIncomplete(err error) bool {
	var se *SyntaxError
	return stderrors.As(err, &se) && se.Found == EOF
}
