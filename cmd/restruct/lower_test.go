package main

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"restruct/internal/config"
	"restruct/internal/driver"
)

func newLowerCmd(withTimings bool) *cobra.Command {
	root := &cobra.Command{Use: "restruct"}
	root.PersistentFlags().Bool("quiet", false, "")
	root.PersistentFlags().Int("max-diagnostics", 0, "")
	if withTimings {
		root.PersistentFlags().Bool("timings", false, "")
	}
	cmd := &cobra.Command{Use: "lower"}
	addLowerFlags(cmd)
	root.AddCommand(cmd)
	return cmd
}

func TestBuildLowerRunTimingsFlag(t *testing.T) {
	cmd := newLowerCmd(true)
	if err := cmd.Root().PersistentFlags().Set("timings", "true"); err != nil {
		t.Fatal(err)
	}
	run, err := buildLowerRun(cmd, config.Default(), "calc.json")
	if err != nil {
		t.Fatalf("buildLowerRun: %v", err)
	}
	if !run.timings || run.timingsFormat != "text" {
		t.Fatalf("timings = %v, format = %q", run.timings, run.timingsFormat)
	}

	_, err = buildLowerRun(newLowerCmd(false), config.Default(), "calc.json")
	if err == nil || !strings.Contains(err.Error(), "timings flag") {
		t.Fatalf("err = %v, want a timings flag error", err)
	}
}

func TestOpenCacheClearCache(t *testing.T) {
	dir := t.TempDir()
	key := driver.Digest{4, 2}

	cmd := newLowerCmd(true)
	if err := cmd.Flags().Set("cache-dir", dir); err != nil {
		t.Fatal(err)
	}
	cache, err := openCache(cmd, config.Default())
	if err != nil || cache == nil {
		t.Fatalf("openCache = %v, %v", cache, err)
	}
	if err := cache.Put(key, &driver.Payload{Func: "f", Text: "return\n"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	reopened, err := openCache(cmd, config.Default())
	if err != nil {
		t.Fatalf("openCache: %v", err)
	}
	var p driver.Payload
	if ok, err := reopened.Get(key, &p); !ok || err != nil {
		t.Fatalf("entry lost without --clear-cache: ok=%v err=%v", ok, err)
	}

	if err := cmd.Flags().Set("clear-cache", "true"); err != nil {
		t.Fatal(err)
	}
	cleared, err := openCache(cmd, config.Default())
	if err != nil {
		t.Fatalf("openCache --clear-cache: %v", err)
	}
	if ok, err := cleared.Get(key, &p); ok || err != nil {
		t.Fatalf("entry survived --clear-cache: ok=%v err=%v", ok, err)
	}

	if err := cmd.Flags().Set("no-cache", "true"); err != nil {
		t.Fatal(err)
	}
	if off, err := openCache(cmd, config.Default()); off != nil || err != nil {
		t.Fatalf("--no-cache still opened %v (err %v)", off, err)
	}
}
