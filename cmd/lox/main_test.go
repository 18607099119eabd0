package main

import (
	"bytes"
	"encoding/json"
	"lox-lang/internal/config"
	"lox-lang/internal/lox"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSource(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.lox")
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv(config.EnvVar, "")
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunCommand(t *testing.T) {
	path := writeSource(t, `print "hello"; print 1 + 2;`)
	code, out, errOut := runCLI(t, "run", path)
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, errOut)
	}
	if out != "hello\n3\n" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRunExitCodes(t *testing.T) {
	tests := []struct {
		name   string
		source string
		code   int
		errSub string
	}{
		{"lexical", `print @;`, exitDataErr, "E1001"},
		{"syntax", `print ;`, exitDataErr, "E2001"},
		{"static", `return 1;`, exitDataErr, "E3003"},
		{"runtime", `print -"x";`, exitSoftware, "E4001"},
	}
	for _, tt := range tests {
		path := writeSource(t, tt.source)
		code, _, errOut := runCLI(t, "run", path)
		if code != tt.code {
			t.Errorf("%s: expected exit %d, got %d", tt.name, tt.code, code)
		}
		if !strings.Contains(errOut, tt.errSub) {
			t.Errorf("%s: expected %s in stderr, got %q", tt.name, tt.errSub, errOut)
		}
	}
}

func TestMissingFile(t *testing.T) {
	code, _, errOut := runCLI(t, "run", filepath.Join(t.TempDir(), "nope.lox"))
	if code != exitIOErr {
		t.Errorf("expected exit %d, got %d", exitIOErr, code)
	}
	if !strings.Contains(errOut, "cannot read file") {
		t.Errorf("unexpected stderr %q", errOut)
	}
}

func TestUsageErrors(t *testing.T) {
	if code, _, _ := runCLI(t); code != exitUsage {
		t.Errorf("no command: expected %d, got %d", exitUsage, code)
	}
	if code, _, _ := runCLI(t, "frobnicate"); code != exitUsage {
		t.Errorf("unknown command: expected %d, got %d", exitUsage, code)
	}
	if code, _, _ := runCLI(t, "run"); code != exitUsage {
		t.Errorf("missing file: expected %d, got %d", exitUsage, code)
	}
	if code, _, _ := runCLI(t, "run", "--config"); code != exitUsage {
		t.Errorf("dangling --config: expected %d, got %d", exitUsage, code)
	}
}

func TestParseCommand(t *testing.T) {
	path := writeSource(t, "var a = 1 + 2 * 3;\nprint a;\n")
	code, out, _ := runCLI(t, "parse", path)
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d", code)
	}
	want := "(var a (+ 1 (* 2 3)))\n(print a)\n"
	if out != want {
		t.Errorf("expected %q, got %q", want, out)
	}
}

func TestParseCommandJSON(t *testing.T) {
	path := writeSource(t, "print ;")
	code, out, _ := runCLI(t, "parse", path, "--json")
	if code != exitDataErr {
		t.Errorf("expected exit %d, got %d", exitDataErr, code)
	}

	var result struct {
		AST         map[string]interface{}   `json:"ast"`
		Diagnostics []map[string]interface{} `json:"diagnostics"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if result.AST["kind"] != "Program" {
		t.Errorf("expected Program root, got %v", result.AST["kind"])
	}
	if len(result.Diagnostics) != 1 || result.Diagnostics[0]["code"] != "E2001" {
		t.Errorf("expected one E2001, got %v", result.Diagnostics)
	}
}

func TestTokensCommand(t *testing.T) {
	path := writeSource(t, `var x = 1;`)
	code, out, _ := runCLI(t, "tokens", path)
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d", code)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 6 token lines, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[5], "EOF") {
		t.Errorf("expected trailing EOF line, got %q", lines[5])
	}

	code, out, _ = runCLI(t, "tokens", path, "--json")
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d", code)
	}
	var result struct {
		Tokens []map[string]interface{} `json:"tokens"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(result.Tokens) != 6 || result.Tokens[3]["literal"] != 1.0 {
		t.Errorf("unexpected tokens: %v", result.Tokens)
	}
}

func TestConfigFlag(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "lox.yaml")
	if err := os.WriteFile(cfgPath, []byte("interpreter:\n  max_call_depth: 25\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	path := writeSource(t, `fun f(n) { return f(n + 1); } f(0);`)

	code, _, errOut := runCLI(t, "--config", cfgPath, "run", path)
	if code != exitSoftware || !strings.Contains(errOut, "Stack overflow.") {
		t.Errorf("expected stack overflow with small depth, got %d %q", code, errOut)
	}

	code, out, _ := runCLI(t, "config", "--config", cfgPath)
	if code != exitOK || !strings.Contains(out, "max_call_depth: 25") {
		t.Errorf("unexpected config output %d %q", code, out)
	}
}

func TestBadConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(cfgPath, []byte("log:\n  level: chatty\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	code, _, errOut := runCLI(t, "--config", cfgPath, "config")
	if code != exitIOErr || !strings.Contains(errOut, "log.level") {
		t.Errorf("expected config error, got %d %q", code, errOut)
	}
}

func TestLineBuffer(t *testing.T) {
	var b lineBuffer
	if _, done := b.Add("fun f() {"); done {
		t.Fatal("open brace should keep the entry pending")
	}
	if !b.Pending() {
		t.Error("expected pending entry")
	}
	if _, done := b.Add("  print 1;"); done {
		t.Fatal("still inside the block")
	}
	source, done := b.Add("}")
	if !done {
		t.Fatal("closing brace should complete the entry")
	}
	if source != "fun f() {\n  print 1;\n}\n" {
		t.Errorf("unexpected source %q", source)
	}
	if b.Pending() {
		t.Error("buffer should be empty after completion")
	}

	b.Add("{")
	b.Reset()
	if b.Pending() {
		t.Error("reset should discard the partial entry")
	}
	if source, done := b.Add("}"); !done || source != "}\n" {
		t.Errorf("stray closing brace should complete immediately, got %q %v", source, done)
	}
}

func TestPalette(t *testing.T) {
	if got := (palette{enabled: false}).wrap(colorRed, "x"); got != "x" {
		t.Errorf("disabled palette should not add escapes, got %q", got)
	}
	if got := (palette{enabled: true}).wrap(colorRed, "x"); got != colorRed+"x"+colorReset {
		t.Errorf("unexpected colored string %q", got)
	}
}

func TestGlobalNames(t *testing.T) {
	var out bytes.Buffer
	session := lox.NewSession(&out)
	if outcome := session.Run("<test>", "var b = 1; fun a() {} { var hidden = 2; }"); outcome != lox.OK {
		t.Fatalf("outcome %v", outcome)
	}
	got := strings.Join(globalNames(session), " ")
	if got != "a b clock" {
		t.Errorf("globals = %q, want %q", got, "a b clock")
	}
}
