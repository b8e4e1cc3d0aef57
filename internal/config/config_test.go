package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"restruct/internal/config"
	"restruct/internal/ir"
	"restruct/internal/lower"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, config.FileName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[lower]\njobs = 3\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, found, err := config.Discover(nested)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if !found {
		t.Fatal("restruct.toml not found")
	}
	if cfg.Lower.Jobs != 3 {
		t.Fatalf("jobs = %d, want 3", cfg.Lower.Jobs)
	}
	if cfg.Lower.MaxNesting != lower.DefaultMaxNesting {
		t.Fatalf("max_nesting default lost: %d", cfg.Lower.MaxNesting)
	}
	if cfg.Root != root {
		t.Fatalf("root = %q, want %q", cfg.Root, root)
	}
}

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if cfg.Lower.ForeignPlatforms != nil {
		t.Fatal("default keeps every platform")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
}

func TestLoadFull(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
[lower]
max_nesting = 64
foreign_platforms = ["js"]

[cache]
dir = ".restruct-cache"

[trace]
level = "detail"
mode = "ring"

[types]
int = "number"

[[extern]]
name = "print"
render = "console.log"
imports = ["console"]
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Cache.Enabled || cfg.Cache.Dir != filepath.Join(dir, ".restruct-cache") {
		t.Fatalf("cache = %+v", cfg.Cache)
	}

	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	if opts.MaxNesting != 64 || len(opts.ForeignPlatforms) != 1 {
		t.Fatalf("options = %+v", opts)
	}
	if opts.Resolver == nil || !opts.Resolver.CanResolve("print") {
		t.Fatal("extern table not wired into the resolver")
	}
	if got := opts.Types.RenderType(ir.IntType); got != "number" {
		t.Fatalf("RenderType(int) = %q, want number", got)
	}

	tc, err := cfg.TraceConfig()
	if err != nil {
		t.Fatalf("TraceConfig: %v", err)
	}
	if tc.Level.String() != "detail" || tc.Mode.String() != "ring" {
		t.Fatalf("trace config = %+v", tc)
	}
}

func TestLoadEmptyForeignList(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[lower]\nforeign_platforms = []\n")
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Lower.ForeignPlatforms == nil || len(cfg.Lower.ForeignPlatforms) != 0 {
		t.Fatalf("foreign_platforms = %#v, want an empty non-nil list", cfg.Lower.ForeignPlatforms)
	}
}

func TestLoadUnknownKeyWarns(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[lower]\nturbo = true\n")
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Warnings) != 1 {
		t.Fatalf("warnings = %v, want one", cfg.Warnings)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"negative jobs", "[lower]\njobs = -1\n"},
		{"bad trace level", "[trace]\nlevel = \"loud\"\n"},
		{"duplicate extern", "[[extern]]\nname = \"f\"\n[[extern]]\nname = \"f\"\n"},
		{"empty type mapping", "[types]\nint = \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.body)
			_, err := config.Load(path)
			if !errors.Is(err, config.ErrInvalid) {
				t.Fatalf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestLoadSyntaxError(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[lower\n")
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected a parse error")
	}
}
