// Command wasmast parses and resolves wasm-like source files.
//
//	wasmast [--config FILE] <command> [OPTIONS] [FILE...]
package main

import (
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/orizon-lang/wasmast/internal/cli"
)

const toolName = "wasmast"

var commands = []cli.CommandInfo{
	{
		Name:        "parse",
		Usage:       "wasmast parse [-index] [-json] [-j N] FILE...",
		Description: "Parse files and print their syntax trees",
		Examples:    []string{"wasmast parse -index -json main.w"},
		Flags: []cli.FlagInfo{
			{Name: "index", Usage: "resolve names to indices", Default: "config index"},
			{Name: "json", Usage: "print the tree as JSON"},
			{Name: "j", Usage: "files parsed in parallel", Default: "GOMAXPROCS"},
		},
	},
	{
		Name:        "tokens",
		Usage:       "wasmast tokens [-json] FILE",
		Description: "Print the token stream of a file",
		Flags:       []cli.FlagInfo{{Name: "json", Usage: "print tokens as JSON"}},
	},
	{
		Name:        "check",
		Usage:       "wasmast check [-manifest FILE] [-j N] FILE...",
		Description: "Parse with indices and check imports against host modules",
		Examples:    []string{"wasmast check -manifest host.json src/*.w"},
		Flags: []cli.FlagInfo{
			{Name: "manifest", Usage: "host module manifest", Default: "modules from the config file"},
			{Name: "j", Usage: "files checked in parallel", Default: "GOMAXPROCS"},
		},
	},
	{
		Name:        "watch",
		Usage:       "wasmast watch [-index] PATH...",
		Description: "Re-parse files whenever they change",
		Flags:       []cli.FlagInfo{{Name: "index", Usage: "resolve names to indices", Default: "config index"}},
	},
	{
		Name:        "repl",
		Usage:       "wasmast repl [-index]",
		Description: "Parse entries interactively",
		Flags:       []cli.FlagInfo{{Name: "index", Usage: "start in index mode", Default: "config index"}},
	},
	{
		Name:        "serve",
		Usage:       "wasmast serve [-addr ADDR] [-http3 (-cert FILE -key FILE | -self-signed)]",
		Description: "Serve the parser over HTTP",
		Flags: []cli.FlagInfo{
			{Name: "addr", Usage: "listen address", Default: "serve.addr from the config file"},
			{Name: "http3", Usage: "also serve HTTP/3 on the same address"},
			{Name: "cert", Usage: "TLS certificate for HTTP/3"},
			{Name: "key", Usage: "TLS key for HTTP/3"},
			{Name: "self-signed", Usage: "use a generated certificate for HTTP/3"},
		},
	},
	{
		Name:        "version",
		Usage:       "wasmast version [--json]",
		Description: "Show version information",
	},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// app carries what every subcommand needs.
type app struct {
	config *cli.Config
	logger *cli.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet(toolName, flag.ContinueOnError)
	global.SetOutput(stderr)
	configPath := global.String("config", cli.DefaultConfigFile, "configuration file")
	global.Usage = func() { cli.PrintUsage(stderr, toolName, commands) }

	if err := global.Parse(args); err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return cli.ExitOK
		}
		return cli.ExitUsage
	}

	rest := global.Args()
	if len(rest) == 0 {
		cli.PrintUsage(stderr, toolName, commands)
		return cli.ExitUsage
	}

	config, err := cli.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return cli.ExitFailure
	}

	a := &app{
		config: config,
		logger: cli.NewLogger(config.Verbose, config.Debug),
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
	a.logger.SetOutput(stderr)
	if f, ok := stderr.(*os.File); ok {
		a.logger.Color = config.UseColor(f.Fd())
	}
	a.logger.Debug("config loaded from %s", *configPath)

	sub, subArgs := rest[0], rest[1:]
	switch sub {
	case "help", "-h", "--help":
		if len(subArgs) == 1 {
			if cmd, ok := lookupCommand(subArgs[0]); ok {
				cli.PrintCommandUsage(stdout, toolName, cmd)
				return cli.ExitOK
			}
		}
		cli.PrintUsage(stdout, toolName, commands)
		return cli.ExitOK
	case "version", "-v", "--version":
		jsonOutput := len(subArgs) > 0 && (subArgs[0] == "--json" || subArgs[0] == "-json")
		if err := cli.PrintVersion(stdout, toolName, jsonOutput); err != nil {
			a.logger.Error("%v", err)
			return cli.ExitFailure
		}
		return cli.ExitOK
	case "parse":
		return a.parse(subArgs)
	case "tokens":
		return a.tokens(subArgs)
	case "check":
		return a.check(subArgs)
	case "watch":
		return a.watch(subArgs)
	case "repl":
		return a.repl(subArgs)
	case "serve":
		return a.serve(subArgs)
	}

	fmt.Fprintf(stderr, "unknown subcommand: %s\n", sub)
	cli.PrintUsage(stderr, toolName, commands)
	return cli.ExitUsage
}

func lookupCommand(name string) (cli.CommandInfo, bool) {
	for _, cmd := range commands {
		if cmd.Name == name {
			return cmd, true
		}
	}
	return cli.CommandInfo{}, false
}

// flags returns a flag set for sub that prints the command usage on -h.
func (a *app) flags(sub string) *flag.FlagSet {
	fs := flag.NewFlagSet(sub, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		if cmd, ok := lookupCommand(sub); ok {
			cli.PrintCommandUsage(a.stderr, toolName, cmd)
		}
	}
	return fs
}

// parseFlags parses args and maps flag errors to exit codes. ok is false
// when the command should stop with code.
func parseFlags(fs *flag.FlagSet, args []string) (code int, ok bool) {
	if err := fs.Parse(args); err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return cli.ExitOK, false
		}
		return cli.ExitUsage, false
	}
	return cli.ExitOK, true
}
