// Command lox is the CLI entry point for the Lox interpreter.
//
// Usage:
//
//	lox tokens <file> [--json]     Print tokens
//	lox parse  <file> [--json]     Print the AST in prefix form, or as JSON
//	lox run    <file>              Run a source file
//	lox repl                       Start interactive REPL
//	lox config                     Print the effective configuration
//
// Every command accepts --config <file>.
package main

import (
	"fmt"
	"io"
	"lox-lang/internal/ast"
	"lox-lang/internal/config"
	"lox-lang/internal/diag"
	"lox-lang/internal/lexer"
	"lox-lang/internal/logger"
	"lox-lang/internal/lox"
	"lox-lang/internal/parser"
	"lox-lang/internal/runtime"
	"os"
)

// Exit codes follow the BSD sysexits convention.
const (
	exitOK       = 0
	exitUsage    = 64
	exitDataErr  = 65 // lexical, syntax or static errors
	exitSoftware = 70 // runtime errors
	exitIOErr    = 74
)

// options holds the parsed command line.
type options struct {
	command    string
	args       []string
	jsonMode   bool
	configPath string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one CLI invocation and returns the process exit code.
func run(argv []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(argv)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		usage(stderr)
		return exitUsage
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitIOErr
	}
	closer, err := initLogging(cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitIOErr
	}
	defer closer.Close()
	logger.Debug("config loaded", "path", cfg.Path, "max_call_depth", cfg.Interpreter.MaxCallDepth)

	switch opts.command {
	case "tokens", "parse", "run":
		if len(opts.args) < 1 {
			fmt.Fprintln(stderr, "error: missing file argument")
			return exitUsage
		}
		filename := opts.args[0]
		source, err := os.ReadFile(filename)
		if err != nil {
			fmt.Fprintf(stderr, "error: cannot read file %s: %v\n", filename, err)
			return exitIOErr
		}
		switch opts.command {
		case "tokens":
			return cmdTokens(stdout, stderr, string(source), filename, opts.jsonMode)
		case "parse":
			return cmdParse(stdout, stderr, string(source), filename, opts.jsonMode)
		default:
			return cmdRun(stdout, stderr, string(source), filename, cfg)
		}
	case "repl":
		return cmdRepl(cfg)
	case "config":
		return cmdConfig(stdout, stderr, cfg)
	default:
		fmt.Fprintf(stderr, "error: unknown command '%s'\n", opts.command)
		usage(stderr)
		return exitUsage
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  lox tokens <file> [--json]   Tokenize and print tokens")
	fmt.Fprintln(w, "  lox parse  <file> [--json]   Parse and print the AST")
	fmt.Fprintln(w, "  lox run    <file>            Run a source file")
	fmt.Fprintln(w, "  lox repl                     Start interactive REPL")
	fmt.Fprintln(w, "  lox config                   Print the effective configuration")
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  --config <file>              Load settings from a YAML file")
}

func parseArgs(argv []string) (options, error) {
	var opts options
	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch arg {
		case "--json":
			opts.jsonMode = true
		case "--config":
			if i+1 >= len(argv) {
				return opts, fmt.Errorf("--config needs a file argument")
			}
			i++
			opts.configPath = argv[i]
		default:
			if opts.command == "" {
				opts.command = arg
			} else {
				opts.args = append(opts.args, arg)
			}
		}
	}
	if opts.command == "" {
		return opts, fmt.Errorf("missing command")
	}
	return opts, nil
}

func initLogging(cfg *config.Config, stderr io.Writer) (io.Closer, error) {
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logger.Init(logger.Config{
		Level:   level,
		Format:  cfg.Log.Format,
		Output:  stderr,
		LogFile: cfg.Log.File,
	})
}

// ---- tokens command ----

func cmdTokens(stdout, stderr io.Writer, source, filename string, jsonMode bool) int {
	l := lexer.New(source, filename)
	tokens, diags := l.Tokenize()

	if jsonMode {
		if err := printTokensJSON(stdout, tokens, diags); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return exitIOErr
		}
	} else {
		printTokensText(stdout, tokens)
		printDiagsText(stderr, diags)
	}

	if len(diags) > 0 {
		return exitDataErr
	}
	return exitOK
}

// ---- parse command ----

func cmdParse(stdout, stderr io.Writer, source, filename string, jsonMode bool) int {
	l := lexer.New(source, filename)
	tokens, lexDiags := l.Tokenize()

	rep := diag.NewReporter()
	rep.Add(lexDiags...)

	var prog *ast.Program
	if len(lexDiags) == 0 {
		prog = parser.New(tokens, rep).Parse()
	}

	if jsonMode {
		output := map[string]interface{}{
			"ast":         nodeToMap(prog),
			"diagnostics": diagsToSlice(rep.Diagnostics()),
		}
		if err := printJSON(stdout, output); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return exitIOErr
		}
	} else {
		if prog != nil {
			fmt.Fprint(stdout, ast.Print(prog))
		}
		printDiagsText(stderr, rep.Diagnostics())
	}

	if rep.HasErrors() {
		return exitDataErr
	}
	return exitOK
}

func nodeToMap(prog *ast.Program) map[string]interface{} {
	if prog == nil {
		return nil
	}
	return ast.NodeToMap(prog)
}

// ---- run command ----

func cmdRun(stdout, stderr io.Writer, source, filename string, cfg *config.Config) int {
	session := lox.NewSession(stdout, runtime.WithMaxCallDepth(cfg.Interpreter.MaxCallDepth))
	outcome := session.Run(filename, source)
	printDiagsText(stderr, session.Reporter().Diagnostics())
	return exitCode(outcome)
}

func exitCode(o lox.Outcome) int {
	switch o {
	case lox.OK:
		return exitOK
	case lox.CompileError:
		return exitDataErr
	default:
		return exitSoftware
	}
}

// ---- config command ----

func cmdConfig(stdout, stderr io.Writer, cfg *config.Config) int {
	data, err := cfg.Encode()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitSoftware
	}
	if cfg.Path != "" {
		fmt.Fprintf(stdout, "# loaded from %s\n", cfg.Path)
	}
	stdout.Write(data)
	return exitOK
}
