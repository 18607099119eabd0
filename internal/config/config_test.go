package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestDecodeOverridesDefaults(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`
interpreter:
  max_call_depth: 128
log:
  level: debug
  format: json
`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Interpreter.MaxCallDepth != 128 {
		t.Errorf("expected depth 128, got %d", cfg.Interpreter.MaxCallDepth)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("unexpected log config: %+v", cfg.Log)
	}
	// Untouched sections keep their defaults.
	if cfg.Repl.Prompt != "lox> " || !cfg.Repl.Color {
		t.Errorf("expected default repl config, got %+v", cfg.Repl)
	}
}

func TestDecodeEmpty(t *testing.T) {
	cfg, err := Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("empty document should yield defaults: %v", err)
	}
	if cfg.Interpreter.MaxCallDepth != 4000 {
		t.Errorf("expected default depth, got %d", cfg.Interpreter.MaxCallDepth)
	}
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	if _, err := Decode(strings.NewReader("interpreter:\n  max_depth: 10\n")); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"zero depth", func(c *Config) { c.Interpreter.MaxCallDepth = 0 }, "max_call_depth"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		cfg := Default()
		tt.mutate(cfg)
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
			t.Errorf("%s: expected error mentioning %q, got %v", tt.name, tt.errMsg, err)
		}
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lox.yaml")
	if err := os.WriteFile(path, []byte("repl:\n  prompt: \"> \"\n  color: false\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Repl.Prompt != "> " || cfg.Repl.Color {
		t.Errorf("unexpected repl config: %+v", cfg.Repl)
	}
	if cfg.Path != path {
		t.Errorf("expected path %s, got %s", path, cfg.Path)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("an explicitly named file must exist")
	}
}

func TestLoadFromEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "env.yaml")
	if err := os.WriteFile(path, []byte("interpreter:\n  max_call_depth: 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvVar, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Interpreter.MaxCallDepth != 7 {
		t.Errorf("expected depth from env file, got %d", cfg.Interpreter.MaxCallDepth)
	}
}

func TestLocateOrder(t *testing.T) {
	t.Setenv(EnvVar, "from-env.yaml")
	if p, explicit := Locate("from-flag.yaml"); p != "from-flag.yaml" || !explicit {
		t.Errorf("flag should win, got %s %v", p, explicit)
	}
	if p, explicit := Locate(""); p != "from-env.yaml" || !explicit {
		t.Errorf("env should come second, got %s %v", p, explicit)
	}
	t.Setenv(EnvVar, "")
	if p, explicit := Locate(""); p != DefaultFile || explicit {
		t.Errorf("default file should come last, got %s %v", p, explicit)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	data, err := Default().Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(string(data), "max_call_depth: 4000") {
		t.Errorf("expected depth in output, got:\n%s", data)
	}
	cfg, err := Decode(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("re-decode: %v", err)
	}
	if cfg.Repl.HistoryFile != "~/.lox_history" {
		t.Errorf("unexpected history file: %q", cfg.Repl.HistoryFile)
	}
}
