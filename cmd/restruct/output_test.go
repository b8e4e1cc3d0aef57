package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"restruct/internal/diag"
	"restruct/internal/driver"
	"restruct/internal/ir"
	"restruct/internal/lower"
	"restruct/internal/observ"
)

func withoutColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func TestFormatDiagnostic(t *testing.T) {
	withoutColor(t)
	d := diag.NewWarning(diag.LowUnresolvedCall, diag.InstrLocation("main", "entry", 2), "cannot resolve call to ghost").
		WithNote(diag.FuncLocation("main"), "declare it in [[extern]]")
	got := formatDiagnostic(d)
	want := "warning[" + diag.LowUnresolvedCall.ID() + "]: main:entry#2: cannot resolve call to ghost\n  note: declare it in [[extern]]"
	if got != want {
		t.Fatalf("formatDiagnostic =\n%s\nwant\n%s", got, want)
	}
}

func TestPrintModuleResult(t *testing.T) {
	withoutColor(t)
	res := &driver.ModuleResult{
		Module: "calc",
		Funcs: []driver.FuncResult{
			{
				Name:    "add",
				Text:    "r = a + b\nreturn r\n",
				Decls:   []lower.Decl{{Name: "r", Type: "int"}},
				Imports: []string{"math"},
				Cached:  true,
				Diags:   []diag.Diagnostic{diag.NewWarning(diag.LowFallbackIf, diag.BlockLocation("add", "entry"), "fallback")},
			},
			{Name: "broken", Err: ir.ErrUnterminated},
		},
	}
	var out, errOut bytes.Buffer
	diags := res.Diagnostics().Items()
	printModuleResult(&out, &errOut, res, diags, outputOptions{diagFormat: "pretty"})

	want := "func add (cached)\n  import math\n  var r: int\n  r = a + b\n  return r\n\n"
	if out.String() != want {
		t.Fatalf("stdout =\n%q\nwant\n%q", out.String(), want)
	}
	if !strings.Contains(errOut.String(), "broken") || !strings.Contains(errOut.String(), "fallback") {
		t.Fatalf("stderr misses the error or the diagnostic:\n%s", errOut.String())
	}

	out.Reset()
	errOut.Reset()
	printModuleResult(&out, &errOut, res, diags, outputOptions{quiet: true, diagFormat: "pretty"})
	if strings.Contains(out.String(), "cached") || strings.Contains(errOut.String(), "fallback") {
		t.Fatalf("quiet output kept extras:\n%s\n%s", out.String(), errOut.String())
	}

	out.Reset()
	errOut.Reset()
	printModuleResult(&out, &errOut, res, diags, outputOptions{diagFormat: "short"})
	if !strings.Contains(errOut.String(), "warning LOW4007 add:entry fallback") {
		t.Fatalf("short diagnostics:\n%s", errOut.String())
	}
	if checkDiagFormat("xml") == nil {
		t.Fatal("checkDiagFormat accepted xml")
	}
}

func TestPrintTimings(t *testing.T) {
	timer := observ.NewTimer()
	idx := timer.Begin("decode")
	timer.End(idx, "calc.json")

	var text bytes.Buffer
	if err := printTimings(&text, "calc", timer, "text"); err != nil {
		t.Fatalf("text: %v", err)
	}
	if !strings.Contains(text.String(), "decode") || !strings.Contains(text.String(), "slowest: decode") {
		t.Fatalf("text timings:\n%s", text.String())
	}

	var js bytes.Buffer
	if err := printTimings(&js, "calc", timer, "json"); err != nil {
		t.Fatalf("json: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(js.Bytes(), &payload); err != nil {
		t.Fatalf("json timings do not parse: %v\n%s", err, js.String())
	}
	if payload["module"] != "calc" {
		t.Fatalf("payload = %v", payload)
	}

	if err := printTimings(&js, "calc", timer, "xml"); err == nil {
		t.Fatal("expected an error for an unknown format")
	}
}

func TestReadUIMode(t *testing.T) {
	cases := []struct {
		input   string
		want    uiMode
		wantErr bool
	}{
		{"", uiModeAuto, false},
		{"AUTO", uiModeAuto, false},
		{" on ", uiModeOn, false},
		{"off", uiModeOff, false},
		{"maybe", "", true},
	}
	for _, tc := range cases {
		got, err := readUIMode(tc.input)
		if (err != nil) != tc.wantErr {
			t.Fatalf("readUIMode(%q) error = %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("readUIMode(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestWriteDumpFileConverts(t *testing.T) {
	b := ir.NewBuilder("answer")
	entry := b.Block("entry")
	b.Return(entry, b.Int(entry, 42))
	m := &ir.Module{Name: "demo", Funcs: []*ir.Func{b.Func(), otherFunc()}}

	path := filepath.Join(t.TempDir(), "demo.mp")
	if err := writeDumpFile(path, subsetModule(m, []string{"answer"}), "msgpack"); err != nil {
		t.Fatalf("writeDumpFile: %v", err)
	}
	got, err := ir.DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if got.Name != "demo" || len(got.Funcs) != 1 || got.Funcs[0].Name != "answer" {
		t.Fatalf("decoded %+v", got)
	}
	if len(m.Funcs) != 2 {
		t.Fatal("subsetModule modified its input")
	}
}

func otherFunc() *ir.Func {
	b := ir.NewBuilder("other")
	b.ReturnVoid(b.Block("entry"))
	return b.Func()
}
