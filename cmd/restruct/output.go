package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"restruct/internal/diag"
	"restruct/internal/driver"
	"restruct/internal/observ"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.Bold)
	dimColor     = color.New(color.Faint)
)

func formatDiagnostic(d diag.Diagnostic) string {
	var label string
	switch d.Severity {
	case diag.SevError:
		label = errorColor.Sprint("error")
	case diag.SevWarning:
		label = warningColor.Sprint("warning")
	default:
		label = infoColor.Sprint("info")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s]: %s: %s", label, d.Code.ID(), d.Primary, d.Message)
	for _, n := range d.Notes {
		fmt.Fprintf(&b, "\n  %s %s", dimColor.Sprint("note:"), n.Msg)
	}
	return b.String()
}

type outputOptions struct {
	quiet bool
	// diagFormat is "pretty" or "short".
	diagFormat string
}

func checkDiagFormat(format string) error {
	switch format {
	case "pretty", "short":
		return nil
	}
	return fmt.Errorf("unsupported diagnostics format %q (must be pretty or short)", format)
}

// printModuleResult writes every function in module order: header,
// imports, declarations, then the indented body. Failed functions print
// their error instead. diags, already sorted, follow on errOut.
func printModuleResult(out, errOut io.Writer, res *driver.ModuleResult, diags []diag.Diagnostic, opts outputOptions) {
	for i := range res.Funcs {
		f := &res.Funcs[i]
		if i > 0 {
			fmt.Fprintln(out)
		}
		if f.Err != nil {
			fmt.Fprintf(errOut, "%s: %s: %v\n", errorColor.Sprint("error"), f.Name, f.Err)
			continue
		}
		header := "func " + f.Name
		if f.Cached && !opts.quiet {
			header += dimColor.Sprint(" (cached)")
		}
		fmt.Fprintln(out, headerColor.Sprint(header))
		for _, imp := range f.Imports {
			fmt.Fprintf(out, "  import %s\n", imp)
		}
		for _, d := range f.Decls {
			fmt.Fprintf(out, "  var %s: %s\n", d.Name, d.Type)
		}
		for _, line := range strings.Split(strings.TrimSuffix(f.Text, "\n"), "\n") {
			if line == "" {
				continue
			}
			fmt.Fprintf(out, "  %s\n", line)
		}
		if f.Dropped > 0 && !opts.quiet {
			fmt.Fprintf(errOut, "%s: %s: %d more diagnostics not shown\n", infoColor.Sprint("info"), f.Name, f.Dropped)
		}
	}
	if opts.quiet || len(diags) == 0 {
		return
	}
	if opts.diagFormat == "short" {
		fmt.Fprintln(errOut, diag.FormatShort(diags, true))
		return
	}
	printDiagnostics(errOut, diags)
}

// printTimings writes the timer report as a text table or, for "json", as
// the note payload of the timing diagnostic.
func printTimings(out io.Writer, module string, timer *observ.Timer, format string) error {
	if timer == nil {
		return nil
	}
	switch format {
	case "", "text":
		fmt.Fprint(out, timer.Summary())
		for _, p := range timer.Report().Slowest(3) {
			fmt.Fprintf(out, "slowest: %s %.2f ms\n", p.Name, p.DurationMS)
		}
	case "json":
		d := driver.TimingDiagnostic(module, timer.Report())
		for _, n := range d.Notes {
			fmt.Fprintln(out, n.Msg)
		}
	default:
		return fmt.Errorf("unsupported timings format %q (must be text or json)", format)
	}
	return nil
}
