package main

import (
	"errors"
	"fmt"
	"io"
	"lox-lang/internal/config"
	"lox-lang/internal/diag"
	"lox-lang/internal/logger"
	"lox-lang/internal/lox"
	"lox-lang/internal/runtime"
	"os"
	"sort"
	"strings"

	"github.com/chzyer/readline"
)

// ---- ANSI colors ----

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
)

// palette switches the ANSI escapes off when color is disabled.
type palette struct{ enabled bool }

func (p palette) wrap(color, s string) string {
	if !p.enabled {
		return s
	}
	return color + s + colorReset
}

// ---- multi-line input ----

// lineBuffer accumulates REPL lines until braces balance.
type lineBuffer struct {
	sb    strings.Builder
	depth int
}

// Add appends a line. It returns the accumulated source and true once the
// input is complete.
func (b *lineBuffer) Add(line string) (string, bool) {
	b.depth += strings.Count(line, "{") - strings.Count(line, "}")
	b.sb.WriteString(line)
	b.sb.WriteString("\n")

	if b.depth > 0 {
		return "", false
	}
	source := b.sb.String()
	b.Reset()
	return source, true
}

// Pending reports whether a multi-line entry is in progress.
func (b *lineBuffer) Pending() bool {
	return b.depth > 0
}

// Reset discards any partial entry.
func (b *lineBuffer) Reset() {
	b.sb.Reset()
	b.depth = 0
}

// ---- repl command ----

func cmdRepl(cfg *config.Config) int {
	colors := palette{enabled: cfg.Repl.Color}
	prompt := colors.wrap(colorGreen, cfg.Repl.Prompt)
	continuation := colors.wrap(colorGray, strings.Repeat(".", len(strings.TrimRight(cfg.Repl.Prompt, " ")))+" ")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       cfg.HistoryPath(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline init failed: %v\n", err)
		return exitIOErr
	}
	defer rl.Close()

	fmt.Fprintf(rl.Stdout(), "%s %s\n\n",
		colors.wrap(colorBold+colorCyan, "Lox REPL"), colors.wrap(colorGray, "(type 'exit' or Ctrl+D to quit)"))

	session := lox.NewSession(rl.Stdout(), runtime.WithMaxCallDepth(cfg.Interpreter.MaxCallDepth))
	var buf lineBuffer
	entry := 0

loop:
	for {
		if buf.Pending() {
			rl.SetPrompt(continuation)
		} else {
			rl.SetPrompt(prompt)
		}

		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if buf.Pending() {
					buf.Reset()
					continue
				}
				fmt.Fprintf(rl.Stdout(), "\n%s\n", colors.wrap(colorGray, "(use 'exit' or Ctrl+D to quit)"))
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(rl.Stdout())
			}
			break
		}

		if !buf.Pending() {
			switch strings.TrimSpace(line) {
			case "exit":
				break loop
			case ".globals":
				fmt.Fprintln(rl.Stdout(), colors.wrap(colorCyan, strings.Join(globalNames(session), " ")))
				continue
			}
		}

		source, complete := buf.Add(line)
		if !complete || strings.TrimSpace(source) == "" {
			continue
		}

		entry++
		outcome := session.Run(fmt.Sprintf("<repl:%d>", entry), source)
		if outcome != lox.OK {
			printDiagsColored(rl.Stderr(), session.Reporter().Diagnostics(), colors)
		}
	}

	logger.Debug("repl finished", "entries", entry, "bindings", session.Interpreter().Bindings())
	return exitOK
}

// printDiagsColored prints diagnostics in red for REPL display.
func printDiagsColored(w io.Writer, diags []diag.Diagnostic, colors palette) {
	for _, d := range diags {
		fmt.Fprintln(w, colors.wrap(colorRed, d.String()))
	}
}

// globalNames lists the session's global bindings, natives included.
func globalNames(session *lox.Session) []string {
	names := session.Interpreter().Globals().Names()
	sort.Strings(names)
	return names
}
