package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"restruct/internal/config"
	"restruct/internal/diag"
	"restruct/internal/driver"
	"restruct/internal/ir"
	"restruct/internal/observ"
)

var lowerCmd = &cobra.Command{
	Use:   "lower FILE",
	Short: "Lower an IR document into structured statements",
	Long: `Lower decodes an IR document (.json or msgpack) and rebuilds structured
statements for each function. Functions are lowered in parallel; a function
that fails is reported and the others are still printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runLower,
}

func init() {
	addLowerFlags(lowerCmd)
}

func addLowerFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("func", nil, "lower only the named functions (repeatable)")
	cmd.Flags().Int("jobs", 0, "max parallel lowerings (0 uses restruct.toml, then GOMAXPROCS)")
	cmd.Flags().Bool("watch", false, "re-lower the file whenever it changes")
	cmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	addCacheFlags(cmd)
	cmd.Flags().String("timings-format", "text", "format of --timings output (text|json)")
	cmd.Flags().String("diag-format", "pretty", "diagnostics format (pretty|short)")
	cmd.Flags().String("fail-on", "", "exit with an error when a diagnostic reaches this severity (info|warning|error)")
}

type lowerRun struct {
	path          string
	opts          driver.Options
	ui            uiMode
	output        outputOptions
	failOn        *diag.Severity
	timings       bool
	timingsFormat string
	progress      *driver.Progress
}

func runLower(cmd *cobra.Command, args []string) error {
	root := cmd.Root().PersistentFlags()
	colorFlag, err := root.GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	if err := applyColorMode(colorFlag); err != nil {
		return err
	}

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	progress := &driver.Progress{}
	cleanup, err := setupTracing(cmd, cfg, progress.String)
	if err != nil {
		return err
	}
	defer cleanup()

	run, err := buildLowerRun(cmd, cfg, args[0])
	if err != nil {
		return err
	}
	run.progress = progress

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return fmt.Errorf("failed to get watch flag: %w", err)
	}
	if watch {
		run.ui = uiModeOff
		return watchFile(ctx, run.path, cmd.ErrOrStderr(), func(ctx context.Context) error {
			return lowerOnce(ctx, cmd, run)
		})
	}
	return lowerOnce(ctx, cmd, run)
}

func buildLowerRun(cmd *cobra.Command, cfg *config.Config, path string) (*lowerRun, error) {
	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()

	lowerOpts, err := lowerOptions(cmd, cfg)
	if err != nil {
		return nil, err
	}
	funcs, err := flags.GetStringSlice("func")
	if err != nil {
		return nil, fmt.Errorf("failed to get func flag: %w", err)
	}
	jobs, err := flags.GetInt("jobs")
	if err != nil {
		return nil, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if jobs <= 0 {
		jobs = cfg.Lower.Jobs
	}
	uiValue, err := flags.GetString("ui")
	if err != nil {
		return nil, fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return nil, err
	}
	quiet, err := root.GetBool("quiet")
	if err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	diagFormat, err := flags.GetString("diag-format")
	if err != nil {
		return nil, fmt.Errorf("failed to get diag-format flag: %w", err)
	}
	if err := checkDiagFormat(diagFormat); err != nil {
		return nil, err
	}
	failOnValue, err := flags.GetString("fail-on")
	if err != nil {
		return nil, fmt.Errorf("failed to get fail-on flag: %w", err)
	}
	var failOn *diag.Severity
	if failOnValue != "" {
		sev, err := diag.ParseSeverity(failOnValue)
		if err != nil {
			return nil, fmt.Errorf("invalid --fail-on value: %w", err)
		}
		failOn = &sev
	}
	timings, err := root.GetBool("timings")
	if err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	timingsFormat, err := flags.GetString("timings-format")
	if err != nil {
		return nil, fmt.Errorf("failed to get timings-format flag: %w", err)
	}

	run := &lowerRun{
		path: path,
		opts: driver.Options{
			Lower: lowerOpts,
			Jobs:  jobs,
			Funcs: funcs,
		},
		ui:            mode,
		output:        outputOptions{quiet: quiet, diagFormat: diagFormat},
		failOn:        failOn,
		timings:       timings,
		timingsFormat: timingsFormat,
	}

	cache, err := openCache(cmd, cfg)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		salt, err := cacheSalt(cfg, lowerOpts)
		if err != nil {
			return nil, err
		}
		run.opts.Cache = cache
		run.opts.Salt = salt
	}
	return run, nil
}

func addCacheFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-cache", false, "disable the lowering cache")
	cmd.Flags().String("cache-dir", "", "cache directory (enables the cache)")
	cmd.Flags().Bool("clear-cache", false, "drop every cached function before lowering")
}

// openCache returns nil when caching is off. --cache-dir turns it on even
// without a [cache] table; --no-cache always wins. --clear-cache empties the
// cache it opens.
func openCache(cmd *cobra.Command, cfg *config.Config) (*driver.Cache, error) {
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return nil, fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	if noCache {
		return nil, nil
	}
	dir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return nil, fmt.Errorf("failed to get cache-dir flag: %w", err)
	}
	if dir == "" {
		if !cfg.Cache.Enabled {
			return nil, nil
		}
		dir = cfg.Cache.Dir
	}
	cache, err := driver.OpenCache(dir)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	drop, err := cmd.Flags().GetBool("clear-cache")
	if err != nil {
		return nil, fmt.Errorf("failed to get clear-cache flag: %w", err)
	}
	if drop {
		if err := cache.DropAll(); err != nil {
			return nil, fmt.Errorf("clear cache: %w", err)
		}
	}
	return cache, nil
}

func lowerOnce(ctx context.Context, cmd *cobra.Command, run *lowerRun) error {
	opts := run.opts
	if run.progress != nil {
		run.progress.Reset()
		opts.Sink = run.progress
	}
	if run.timings {
		opts.Timer = observ.NewTimer()
	}

	var (
		res *driver.ModuleResult
		err error
	)
	if shouldUseTUI(run.ui) && !run.output.quiet {
		res, err = lowerWithProgress(ctx, run.path, opts)
	} else {
		res, err = driver.LowerFile(ctx, run.path, opts)
	}
	if err != nil {
		return err
	}

	bag := res.Diagnostics()
	printModuleResult(cmd.OutOrStdout(), cmd.ErrOrStderr(), res, bag.Items(), run.output)
	if run.timings {
		if err := printTimings(cmd.ErrOrStderr(), res.Module, opts.Timer, run.timingsFormat); err != nil {
			return err
		}
	}
	if opts.Cache != nil && opts.Cache.WriteFailures() > 0 && !run.output.quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "cache: %d entries could not be written to %s\n", opts.Cache.WriteFailures(), opts.Cache.Dir())
	}
	if failed := res.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d functions failed to lower", failed, len(res.Funcs))
	}
	if run.failOn != nil && bag.HasAtLeast(*run.failOn) {
		return fmt.Errorf("diagnostics at or above %s", strings.ToLower(run.failOn.String()))
	}
	return nil
}

// lowerWithProgress decodes up front so the progress view can list the
// selected functions before any of them starts.
func lowerWithProgress(ctx context.Context, path string, opts driver.Options) (*driver.ModuleResult, error) {
	var phase int
	if opts.Timer != nil {
		phase = opts.Timer.Begin("decode")
	}
	m, err := ir.DecodeFile(path)
	if opts.Timer != nil {
		opts.Timer.End(phase, path)
	}
	if err != nil {
		return nil, err
	}
	names, err := driver.FuncNames(m, opts.Funcs)
	if err != nil {
		return nil, err
	}
	title := fmt.Sprintf("lowering %s (%s)", m.Name, filepath.Base(path))
	return runLowerWithUI(title, names, func(sink driver.Sink) (*driver.ModuleResult, error) {
		opts.Sink = driver.Tee(opts.Sink, sink)
		return driver.LowerModule(ctx, m, opts)
	})
}
