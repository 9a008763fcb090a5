// Package position maps the byte offsets carried by lexer, syntax and
// semantic errors back to lines and columns for error reporting.
package position

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/orizon-lang/wasmast/internal/errors"
)

// Position represents a single point in source code
type Position struct {
	Filename string // Source file name
	Line     int    // 1-based line number
	Column   int    // 1-based column number
	Offset   int    // 0-based byte offset in source
}

// IsValid returns true if the position is valid
func (p Position) IsValid() bool {
	return p.Line > 0 && p.Column > 0 && p.Offset >= 0
}

// String returns a string representation of the position
func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", filepath.Base(p.Filename), p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// SourceFile represents a source file with content and position tracking
type SourceFile struct {
	Filename string // File path
	Content  string // Source code content

	lines      []string
	lineStarts []int // byte offset of the first byte of each line
}

// NewSourceFile creates a new source file from content
func NewSourceFile(filename, content string) *SourceFile {
	sf := &SourceFile{
		Filename:   filename,
		Content:    content,
		lines:      strings.Split(content, "\n"),
		lineStarts: []int{0},
	}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			sf.lineStarts = append(sf.lineStarts, i+1)
		}
	}
	return sf
}

// LineCount returns the number of lines, counting a trailing partial line.
func (sf *SourceFile) LineCount() int {
	return len(sf.lines)
}

// GetLine returns the specified line (1-based) or empty string if invalid
func (sf *SourceFile) GetLine(lineNum int) string {
	if lineNum < 1 || lineNum > len(sf.lines) {
		return ""
	}
	return strings.TrimSuffix(sf.lines[lineNum-1], "\r")
}

// PositionFromOffset converts a byte offset to a Position. Columns count
// bytes. Offsets past the end clamp to the end of the content.
func (sf *SourceFile) PositionFromOffset(offset int) Position {
	if offset < 0 {
		return Position{}
	}
	if offset > len(sf.Content) {
		offset = len(sf.Content)
	}

	// Index of the last line starting at or before offset.
	line := sort.Search(len(sf.lineStarts), func(i int) bool {
		return sf.lineStarts[i] > offset
	}) - 1

	return Position{
		Filename: sf.Filename,
		Line:     line + 1,
		Column:   offset - sf.lineStarts[line] + 1,
		Offset:   offset,
	}
}

// Error represents a compiler error with position information
type Error struct {
	Pos     Position // Position where the error occurred
	Message string   // Error message
	Kind    string   // lexical, syntax or semantic; empty for other errors
}

// String returns a formatted error message
func (e Error) String() string {
	if !e.Pos.IsValid() {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Pos.String(), e.Message)
}

// Locate attaches the position of err within sf. Errors without an
// offset keep an invalid position.
func (sf *SourceFile) Locate(err error) Error {
	out := Error{
		Message: err.Error(),
		Kind:    strings.ToLower(string(errors.CategoryOf(err))),
	}
	if offset, ok := errors.OffsetOf(err); ok {
		out.Pos = sf.PositionFromOffset(offset)
	}
	return out
}
