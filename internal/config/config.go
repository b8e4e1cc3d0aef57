// Package config loads restruct.toml, the per-project settings file.
//
// The file is optional. When present it is found by walking up from the
// working directory, the same way the compiler front end finds its project
// manifest. Command-line flags override every value read here.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"restruct/internal/diag"
	"restruct/internal/extern"
	"restruct/internal/lower"
	"restruct/internal/trace"
)

const FileName = "restruct.toml"

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	// Path is the file the config was read from; empty for defaults.
	Path string `toml:"-"`
	Root string `toml:"-"`

	Lower  LowerConfig       `toml:"lower"`
	Cache  CacheConfig       `toml:"cache"`
	Trace  TraceConfig       `toml:"trace"`
	Types  map[string]string `toml:"types"`
	Extern []extern.Entry    `toml:"extern"`

	// Warnings lists keys the decoder did not recognize.
	Warnings []diag.Diagnostic `toml:"-"`
}

type LowerConfig struct {
	Jobs           int `toml:"jobs"`
	MaxNesting     int `toml:"max_nesting"`
	MaxDiagnostics int `toml:"max_diagnostics"`
	// ForeignPlatforms is nil unless the key is present; nil keeps every
	// platform while an empty list keeps none.
	ForeignPlatforms []string `toml:"foreign_platforms"`
}

type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type TraceConfig struct {
	Level  string `toml:"level"`
	Mode   string `toml:"mode"`
	Output string `toml:"output"`
}

// Default returns the settings used when no restruct.toml exists.
func Default() *Config {
	return &Config{
		Lower: LowerConfig{
			MaxNesting:     lower.DefaultMaxNesting,
			MaxDiagnostics: lower.DefaultMaxDiagnostics,
		},
		Trace: TraceConfig{Level: "off", Mode: "stream", Output: "-"},
	}
}

// Find walks up from startDir looking for restruct.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover loads the nearest restruct.toml above startDir, or the defaults
// when there is none. The boolean reports whether a file was found.
func Discover(startDir string) (*Config, bool, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return Default(), false, nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, true, err
	}
	return cfg, true, nil
}

// Load decodes path on top of the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	cfg.Path = path
	cfg.Root = filepath.Dir(path)
	if !meta.IsDefined("lower", "foreign_platforms") {
		cfg.Lower.ForeignPlatforms = nil
	} else if cfg.Lower.ForeignPlatforms == nil {
		cfg.Lower.ForeignPlatforms = []string{}
	}
	if meta.IsDefined("cache") && !meta.IsDefined("cache", "enabled") {
		cfg.Cache.Enabled = true
	}
	if cfg.Cache.Dir != "" && !filepath.IsAbs(cfg.Cache.Dir) {
		cfg.Cache.Dir = filepath.Join(cfg.Root, filepath.FromSlash(cfg.Cache.Dir))
	}
	for _, key := range meta.Undecoded() {
		cfg.Warnings = append(cfg.Warnings, diag.NewWarning(diag.CfgUnknownKey,
			diag.FuncLocation(path), fmt.Sprintf("unknown key %q", key.String())))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}
	if c.Lower.Jobs < 0 {
		bad("[lower].jobs must not be negative, got %d", c.Lower.Jobs)
	}
	if c.Lower.MaxNesting < 0 {
		bad("[lower].max_nesting must not be negative, got %d", c.Lower.MaxNesting)
	}
	if c.Lower.MaxDiagnostics < 0 {
		bad("[lower].max_diagnostics must not be negative, got %d", c.Lower.MaxDiagnostics)
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		bad("[trace].level: %v", err)
	}
	if _, err := trace.ParseMode(c.Trace.Mode); err != nil {
		bad("[trace].mode: %v", err)
	}
	for from, to := range c.Types {
		if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
			bad("[types] entry %q = %q has an empty side", from, to)
		}
	}
	if _, err := extern.NewTable(c.Extern); err != nil {
		bad("[[extern]]: %v", err)
	}
	return errors.Join(errs...)
}

// Options builds the lowering options the file describes.
func (c *Config) Options() (lower.Options, error) {
	table, err := extern.NewTable(c.Extern)
	if err != nil {
		return lower.Options{}, fmt.Errorf("%w: [[extern]]: %w", ErrInvalid, err)
	}
	opts := lower.Options{
		Types:          extern.NewTypeTable(c.Types),
		MaxNesting:     c.Lower.MaxNesting,
		MaxDiagnostics: c.Lower.MaxDiagnostics,
	}
	if table.Len() > 0 {
		opts.Resolver = table
	}
	if c.Lower.ForeignPlatforms != nil {
		opts.ForeignPlatforms = append([]string{}, c.Lower.ForeignPlatforms...)
	}
	return opts, nil
}

// TraceConfig converts the [trace] table for trace.New.
func (c *Config) TraceConfig() (trace.Config, error) {
	level, err := trace.ParseLevel(c.Trace.Level)
	if err != nil {
		return trace.Config{}, err
	}
	mode, err := trace.ParseMode(c.Trace.Mode)
	if err != nil {
		return trace.Config{}, err
	}
	return trace.Config{Level: level, Mode: mode, OutputPath: c.Trace.Output}, nil
}
