// Package repl implements the interactive parse loop: each entry is
// parsed as a program and its AST printed. Input is read across lines
// until it stops being truncated.
package repl

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/orizon-lang/wasmast/internal/ast"
	"github.com/orizon-lang/wasmast/internal/errors"
	"github.com/orizon-lang/wasmast/internal/parser"
	"github.com/orizon-lang/wasmast/internal/position"
)

const (
	promptMain = "wasm> "
	promptCont = "  ... "
)

// LineReader is the line-editing surface the loop needs. *liner.State
// satisfies it.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// Session holds the REPL state
type Session struct {
	Index bool

	out    io.Writer
	errOut io.Writer
}

// NewSession creates a session printing results to out and errors to errOut
func NewSession(out, errOut io.Writer) *Session {
	return &Session{out: out, errOut: errOut}
}

// Run reads and handles entries until end of input or :quit.
func (s *Session) Run(r LineReader) {
	for {
		code, ok := ReadEntry(r, promptMain, promptCont)
		if !ok {
			fmt.Fprintln(s.out)
			return
		}
		if strings.TrimSpace(code) == "" {
			continue
		}
		if s.Handle(code) {
			return
		}
		r.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}
}

// Handle runs one entry, a program or a colon command. It returns true
// when the session should end.
func (s *Session) Handle(code string) bool {
	trimmed := strings.TrimSpace(code)
	if strings.HasPrefix(trimmed, ":") {
		return s.command(strings.Fields(strings.ToLower(trimmed)))
	}

	program, err := parser.Parse(code, parser.Options{Index: s.Index})
	if err != nil {
		fmt.Fprint(s.errOut, position.NewSourceFile("<repl>", code).Render(err))
		return false
	}
	for _, decl := range program.Body {
		fmt.Fprintln(s.out, ast.String(decl))
	}
	return false
}

func (s *Session) command(fields []string) bool {
	switch {
	case fields[0] == ":quit":
		return true
	case fields[0] == ":index" && len(fields) == 2 && (fields[1] == "on" || fields[1] == "off"):
		s.Index = fields[1] == "on"
		fmt.Fprintf(s.out, "index mode %s\n", fields[1])
	case fields[0] == ":help":
		fmt.Fprintln(s.out, ":index on|off  resolve names to indices")
		fmt.Fprintln(s.out, ":quit          leave the REPL")
	default:
		fmt.Fprintln(s.out, "unknown command. Type :help for the list.")
	}
	return false
}

// ReadEntry reads lines until they form input that is not truncated:
// it parses cleanly or fails for a reason other than reaching the end.
// ok is false at end of input.
func ReadEntry(r LineReader, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		p := prompt
		if b.Len() > 0 {
			p = cont
		}
		line, err := r.Prompt(p)
		if stderrors.Is(err, io.EOF) {
			if b.Len() > 0 {
				return b.String(), true
			}
			return "", false
		}
		if err != nil {
			// Aborted line: drop what was typed so far.
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		if _, perr := parser.Parse(src, parser.Options{}); perr != nil && errors.IsIncomplete(perr) {
			continue
		}
		return src, true
	}
}

// ScannerReader reads lines without editing, for input that is not a
// terminal.
type ScannerReader struct {
	sc  *bufio.Scanner
	out io.Writer
}

// NewScannerReader creates a LineReader over in, echoing prompts to out
func NewScannerReader(in io.Reader, out io.Writer) *ScannerReader {
	return &ScannerReader{sc: bufio.NewScanner(in), out: out}
}

func (r *ScannerReader) Prompt(prompt string) (string, error) {
	if r.out != nil {
		fmt.Fprint(r.out, prompt)
	}
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.sc.Text(), nil
}

func (r *ScannerReader) AppendHistory(string) {}
