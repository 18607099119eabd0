// Package config loads the optional YAML configuration for the lox tools.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable that points at a config file.
const EnvVar = "LOX_CONFIG"

// DefaultFile is looked up in the working directory when neither a flag nor
// EnvVar names a file.
const DefaultFile = ".lox.yaml"

// Config is the full set of tunables.
type Config struct {
	Path        string            `yaml:"-"`
	Interpreter InterpreterConfig `yaml:"interpreter"`
	Log         LogConfig         `yaml:"log"`
	Repl        ReplConfig        `yaml:"repl"`
}

// InterpreterConfig tunes the runtime.
type InterpreterConfig struct {
	MaxCallDepth int `yaml:"max_call_depth"`
}

// LogConfig selects the diagnostic log output of the tools themselves.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// ReplConfig tunes the interactive prompt.
type ReplConfig struct {
	Prompt      string `yaml:"prompt"`
	HistoryFile string `yaml:"history_file"`
	Color       bool   `yaml:"color"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Interpreter: InterpreterConfig{MaxCallDepth: 4000},
		Log:         LogConfig{Level: "warn", Format: "text"},
		Repl: ReplConfig{
			Prompt:      "lox> ",
			HistoryFile: "~/.lox_history",
			Color:       true,
		},
	}
}

// Locate picks the config file: flagPath first, then $LOX_CONFIG, then
// .lox.yaml in the working directory. explicit reports whether the file was
// named by the user, in which case it must exist.
func Locate(flagPath string) (path string, explicit bool) {
	if flagPath != "" {
		return flagPath, true
	}
	if env := strings.TrimSpace(os.Getenv(EnvVar)); env != "" {
		return env, true
	}
	return DefaultFile, false
}

// Load reads the configuration named by flagPath or found by Locate. A
// missing implicit file yields the defaults.
func Load(flagPath string) (*Config, error) {
	path, explicit := Locate(flagPath)
	cfg, err := LoadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// LoadFile parses one YAML file over the defaults and validates the result.
func LoadFile(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer file.Close()

	cfg, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", abs, err)
	}
	cfg.Path = abs
	return cfg, nil
}

// Decode reads YAML from r over the defaults. Unknown keys are rejected.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the tools cannot honour.
func (c *Config) Validate() error {
	if c.Interpreter.MaxCallDepth <= 0 {
		return fmt.Errorf("interpreter.max_call_depth must be positive, got %d", c.Interpreter.MaxCallDepth)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// Encode renders the configuration as YAML.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("config: marshal: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("config: encoder close: %w", err)
	}
	return buf.Bytes(), nil
}

// HistoryPath returns the REPL history file with a leading ~ expanded.
// It is empty when history is disabled or the home directory is unknown.
func (c *Config) HistoryPath() string {
	p := c.Repl.HistoryFile
	if p == "" || !strings.HasPrefix(p, "~") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
