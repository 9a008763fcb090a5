package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/orizon-lang/wasmast/internal/ast"
	"github.com/orizon-lang/wasmast/internal/cli"
	"github.com/orizon-lang/wasmast/internal/driver"
	"github.com/orizon-lang/wasmast/internal/lexer"
	"github.com/orizon-lang/wasmast/internal/linker"
	"github.com/orizon-lang/wasmast/internal/parser"
	"github.com/orizon-lang/wasmast/internal/position"
	"github.com/orizon-lang/wasmast/internal/repl"
	"github.com/orizon-lang/wasmast/internal/server"
	"github.com/orizon-lang/wasmast/internal/term"
	"github.com/orizon-lang/wasmast/internal/watch"
)

func (a *app) parse(args []string) int {
	fs := a.flags("parse")
	index := fs.Bool("index", a.config.Index, "resolve names to indices")
	jsonOutput := fs.Bool("json", false, "print the tree as JSON")
	jobs := fs.Int("j", 0, "files parsed in parallel")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if err := cli.ValidateArgs(fs.Args(), 1, "wasmast parse [-index] [-json] [-j N] FILE..."); err != nil {
		fmt.Fprintln(a.stderr, err)
		return cli.ExitUsage
	}

	results, err := driver.ParseFiles(context.Background(), fs.Args(), driver.Options{
		Parse: parser.Options{Index: *index},
		Jobs:  *jobs,
	})
	if err != nil {
		a.logger.Error("%v", err)
		return cli.ExitFailure
	}

	code := cli.ExitOK
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			fmt.Fprint(a.stderr, r.Source.Render(r.Err))
			code = cli.ExitFailure
			continue
		}
		if len(results) > 1 {
			fmt.Fprintf(a.stdout, "// %s\n", r.Path)
		}
		if err := a.printProgram(r.Program, *jsonOutput); err != nil {
			a.logger.Error("%s: %v", r.Path, err)
			code = cli.ExitFailure
		}
	}
	return code
}

func (a *app) printProgram(program *ast.Program, jsonOutput bool) error {
	if !jsonOutput {
		return ast.Fprint(a.stdout, program)
	}
	data, err := json.MarshalIndent(program, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.stdout, "%s\n", data)
	return err
}

type tokenJSON struct {
	Kind   string `json:"kind"`
	Text   string `json:"text"`
	Offset int    `json:"offset"`
}

func (a *app) tokens(args []string) int {
	fs := a.flags("tokens")
	jsonOutput := fs.Bool("json", false, "print tokens as JSON")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if len(fs.Args()) != 1 {
		fmt.Fprintln(a.stderr, "usage: wasmast tokens [-json] FILE")
		return cli.ExitUsage
	}

	path := fs.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		a.logger.Error("failed to read %s: %v", path, err)
		return cli.ExitFailure
	}

	toks, err := lexer.Tokenize(string(data))
	if err != nil {
		fmt.Fprint(a.stderr, position.NewSourceFile(path, string(data)).Render(err))
		return cli.ExitFailure
	}

	if *jsonOutput {
		out := make([]tokenJSON, len(toks))
		for i, tok := range toks {
			out[i] = tokenJSON{Kind: tok.Kind.String(), Text: tok.Text, Offset: tok.Offset}
		}
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			a.logger.Error("%v", err)
			return cli.ExitFailure
		}
		return cli.ExitOK
	}

	sf := position.NewSourceFile(path, string(data))
	for _, tok := range toks {
		pos := sf.PositionFromOffset(tok.Offset)
		fmt.Fprintf(a.stdout, "%d:%d\t%-11s\t%s\n", pos.Line, pos.Column, tok.Kind, tok.Text)
	}
	return cli.ExitOK
}

func (a *app) check(args []string) int {
	fs := a.flags("check")
	manifestPath := fs.String("manifest", "", "host module manifest")
	jobs := fs.Int("j", 0, "files checked in parallel")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if err := cli.ValidateArgs(fs.Args(), 1, "wasmast check [-manifest FILE] [-j N] FILE..."); err != nil {
		fmt.Fprintln(a.stderr, err)
		return cli.ExitUsage
	}

	manifest := a.config.Manifest()
	if *manifestPath != "" {
		var err error
		if manifest, err = linker.LoadManifest(*manifestPath); err != nil {
			a.logger.Error("%v", err)
			return cli.ExitFailure
		}
	}
	a.logger.Debug("checking %d file(s) against %d host module(s)", len(fs.Args()), len(manifest.Modules))

	results, err := driver.ParseFiles(context.Background(), fs.Args(), driver.Options{
		Parse:    parser.Options{Index: true},
		Jobs:     *jobs,
		Manifest: manifest,
	})
	if err != nil {
		a.logger.Error("%v", err)
		return cli.ExitFailure
	}

	for i := range results {
		r := &results[i]
		switch {
		case r.Err != nil:
			fmt.Fprint(a.stderr, r.Source.Render(r.Err))
		case r.LinkErr != nil:
			for _, line := range strings.Split(r.LinkErr.Error(), "\n") {
				fmt.Fprintf(a.stderr, "%s: %s\n", r.Path, line)
			}
		default:
			a.logger.Info("%s: ok", r.Path)
		}
	}

	s := driver.Summarize(results)
	fmt.Fprintf(a.stdout, "%d file(s) checked, %d failed to parse, %d failed to link\n", s.Files, s.ParseFails, s.LinkFails)
	if s.ParseFails+s.LinkFails > 0 {
		return cli.ExitFailure
	}
	return cli.ExitOK
}

func (a *app) watch(args []string) int {
	fs := a.flags("watch")
	index := fs.Bool("index", a.config.Index, "resolve names to indices")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if err := cli.ValidateArgs(fs.Args(), 1, "wasmast watch [-index] PATH..."); err != nil {
		fmt.Fprintln(a.stderr, err)
		return cli.ExitUsage
	}

	// Editors replace files on save, so watch the parent directories and
	// filter down to the requested files. Directories are watched as given.
	dirs := map[string]bool{}
	files := map[string]bool{}
	var watched []string
	for _, p := range fs.Args() {
		abs, err := filepath.Abs(p)
		if err != nil {
			a.logger.Error("%v", err)
			return cli.ExitFailure
		}
		info, err := os.Stat(abs)
		if err != nil {
			a.logger.Error("%v", err)
			return cli.ExitFailure
		}
		dir := abs
		if info.IsDir() {
			dirs[abs] = true
		} else {
			files[abs] = true
			dir = filepath.Dir(abs)
		}
		if !contains(watched, dir) {
			watched = append(watched, dir)
		}
	}

	w, err := watch.NewFSWatcher()
	if err != nil {
		a.logger.Error("failed to start watcher: %v", err)
		return cli.ExitFailure
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := driver.Options{Parse: parser.Options{Index: *index}}
	report := func(paths []string) {
		results, err := driver.ParseFiles(ctx, paths, opts)
		if err != nil {
			a.logger.Warn("%v", err)
			return
		}
		for i := range results {
			r := &results[i]
			if r.Err != nil {
				fmt.Fprint(a.stderr, r.Source.Render(r.Err))
				continue
			}
			fmt.Fprintf(a.stdout, "%s: ok (%d declaration(s))\n", r.Path, len(r.Program.Body))
		}
	}

	var initial []string
	for f := range files {
		initial = append(initial, f)
	}
	if len(initial) > 0 {
		sort.Strings(initial)
		report(initial)
	}

	a.logger.Info("watching %s", strings.Join(watched, ", "))
	err = watch.Loop(ctx, w, watched, watch.Options{
		Filter: func(path string) bool {
			return files[path] || (dirs[filepath.Dir(path)] && strings.HasSuffix(path, ".w"))
		},
	}, report)
	if err != nil {
		a.logger.Error("watch failed: %v", err)
		return cli.ExitFailure
	}
	return cli.ExitOK
}

func (a *app) repl(args []string) int {
	fs := a.flags("repl")
	index := fs.Bool("index", a.config.Index, "start in index mode")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	session := repl.NewSession(a.stdout, a.stderr)
	session.Index = *index

	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(f.Fd()) {
		fmt.Fprintf(a.stdout, "%s %s REPL. Type :help for commands.\n", toolName, cli.Version)
		ln, closeLiner := repl.OpenLiner(repl.DefaultHistoryPath())
		defer closeLiner()
		session.Run(ln)
		return cli.ExitOK
	}

	session.Run(repl.NewScannerReader(a.stdin, a.stdout))
	return cli.ExitOK
}

func (a *app) serve(args []string) int {
	fs := a.flags("serve")
	addr := fs.String("addr", a.config.Serve.Addr, "listen address")
	http3 := fs.Bool("http3", a.config.Serve.HTTP3, "also serve HTTP/3")
	certFile := fs.String("cert", a.config.Serve.CertFile, "TLS certificate for HTTP/3")
	keyFile := fs.String("key", a.config.Serve.KeyFile, "TLS key for HTTP/3")
	selfSigned := fs.Bool("self-signed", false, "use a generated certificate for HTTP/3")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	h := server.NewHandler(server.Options{Logger: a.logger, Manifest: a.config.Manifest()})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		a.logger.Error("%v", err)
		return cli.ExitFailure
	}
	a.logger.Info("listening on http://%s", ln.Addr())

	if *http3 {
		h3, err := a.startHTTP3(ln.Addr().String(), *certFile, *keyFile, *selfSigned, h)
		if err != nil {
			_ = ln.Close()
			a.logger.Error("http3: %v", err)
			return cli.ExitFailure
		}
		defer h3.Stop()
	}

	if err := server.Serve(ctx, ln, h); err != nil {
		a.logger.Error("%v", err)
		return cli.ExitFailure
	}
	a.logger.Info("server stopped")
	return cli.ExitOK
}

// startHTTP3 serves h over QUIC on the UDP port matching addr.
func (a *app) startHTTP3(addr, certFile, keyFile string, selfSigned bool, h http.Handler) (*server.HTTP3Server, error) {
	var tlsCfg *tls.Config
	var err error
	switch {
	case certFile != "" && keyFile != "":
		tlsCfg, err = server.LoadTLSConfig(certFile, keyFile)
	case selfSigned:
		host, _, splitErr := net.SplitHostPort(addr)
		if splitErr != nil {
			return nil, splitErr
		}
		tlsCfg, err = server.GenerateSelfSignedTLS([]string{host, "localhost"}, 24*time.Hour)
	default:
		return nil, fmt.Errorf("requires -cert and -key, or -self-signed")
	}
	if err != nil {
		return nil, err
	}

	h3 := server.NewHTTP3Server(addr, tlsCfg, h)
	bound, err := h3.Start()
	if err != nil {
		return nil, err
	}
	a.logger.Info("listening on https://%s (http3)", bound)
	return h3, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
