package position

import (
	"fmt"
	"strings"
)

// Snippet renders the line holding pos, preceded by up to context lines,
// with a caret under pos:
//
//	   2 |   return }
//	     |          ^
func (sf *SourceFile) Snippet(pos Position, context int) string {
	if !pos.IsValid() || pos.Line > sf.LineCount() {
		return ""
	}

	var result strings.Builder
	for lineNum := max(1, pos.Line-context); lineNum <= pos.Line; lineNum++ {
		fmt.Fprintf(&result, "%4d | %s\n", lineNum, sf.GetLine(lineNum))
	}

	result.WriteString("     | ")
	line := sf.GetLine(pos.Line)
	for i := 0; i < pos.Column-1; i++ {
		// Keep tabs so the caret lines up with the source.
		if i < len(line) && line[i] == '\t' {
			result.WriteByte('\t')
		} else {
			result.WriteByte(' ')
		}
	}
	result.WriteString("^\n")

	return result.String()
}

// Render formats err as `file:line:col: message` followed by the source
// snippet at the error position.
func (sf *SourceFile) Render(err error) string {
	located := sf.Locate(err)
	if !located.Pos.IsValid() {
		return located.String() + "\n"
	}
	return located.String() + "\n" + sf.Snippet(located.Pos, 1)
}
