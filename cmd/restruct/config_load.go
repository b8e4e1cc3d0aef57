package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"restruct/internal/config"
	"restruct/internal/diag"
	"restruct/internal/lower"
)

// loadConfig reads --config, or the nearest restruct.toml, or the defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	var cfg *config.Config
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, _, err = config.Discover(".")
	}
	if err != nil {
		return nil, err
	}
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	if !quiet && len(cfg.Warnings) > 0 {
		printDiagnostics(cmd.ErrOrStderr(), cfg.Warnings)
	}
	return cfg, nil
}

// lowerOptions merges restruct.toml with the flags that override it.
func lowerOptions(cmd *cobra.Command, cfg *config.Config) (lower.Options, error) {
	opts, err := cfg.Options()
	if err != nil {
		return lower.Options{}, err
	}
	maxDiags, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return lower.Options{}, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if maxDiags > 0 {
		opts.MaxDiagnostics = maxDiags
	}
	return opts, nil
}

// cacheSalt identifies the settings a cached function was lowered with.
func cacheSalt(cfg *config.Config, opts lower.Options) (string, error) {
	h := sha256.New()
	if cfg.Path != "" {
		data, err := os.ReadFile(cfg.Path)
		if err != nil {
			return "", err
		}
		_, _ = h.Write(data)
	}
	fmt.Fprintf(h, "|%d|%d|%q", opts.MaxNesting, opts.MaxDiagnostics, opts.ForeignPlatforms)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func printDiagnostics(w io.Writer, diags []diag.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(w, formatDiagnostic(d))
	}
}
