// Package driver parses many source files concurrently.
package driver

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/orizon-lang/wasmast/internal/ast"
	"github.com/orizon-lang/wasmast/internal/linker"
	"github.com/orizon-lang/wasmast/internal/parser"
	"github.com/orizon-lang/wasmast/internal/position"
)

// Options configures a batch run
type Options struct {
	Parse parser.Options

	// Jobs bounds the number of files parsed at once. Zero means
	// GOMAXPROCS.
	Jobs int

	// Manifest, when set, links every successfully parsed program.
	Manifest *linker.Manifest
}

// Result is the outcome for one file. Err holds a lexer, syntax or
// semantic error; LinkErr holds the joined link errors.
type Result struct {
	Path    string
	Source  *position.SourceFile
	Program *ast.Program
	Err     error
	LinkErr error
}

// Failed reports whether the file did not parse or did not link
func (r *Result) Failed() bool {
	return r.Err != nil || r.LinkErr != nil
}

// ParseFiles parses every path with its own parser and returns results
// in input order. Source errors are recorded per file; the returned error
// is set only when a file cannot be read or ctx is cancelled.
func ParseFiles(ctx context.Context, paths []string, opts Options) ([]Result, error) {
	results := make([]Result, len(paths))

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, path := range paths {
		i, path := i, path

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			results[i] = ParseSource(path, string(data), opts)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ParseSource parses one in-memory source.
func ParseSource(path, source string, opts Options) Result {
	r := Result{Path: path, Source: position.NewSourceFile(path, source)}

	r.Program, r.Err = parser.Parse(source, opts.Parse)
	if r.Err == nil && opts.Manifest != nil {
		r.LinkErr = linker.Check(r.Program, opts.Manifest)
	}
	return r
}

// Summary counts results by outcome
type Summary struct {
	Files      int
	ParseFails int
	LinkFails  int
}

// Summarize counts the failures in results
func Summarize(results []Result) Summary {
	s := Summary{Files: len(results)}
	for i := range results {
		switch {
		case results[i].Err != nil:
			s.ParseFails++
		case results[i].LinkErr != nil:
			s.LinkFails++
		}
	}
	return s
}
