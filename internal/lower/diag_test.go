package lower_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"restruct/internal/diag"
	"restruct/internal/extern"
	"restruct/internal/ir"
	"restruct/internal/lower"
)

func TestLowerForeignPlatforms(t *testing.T) {
	build := func() *ir.Func {
		b := ir.NewBuilder("native")
		entry := b.Block("entry")
		b.Foreign(entry, "js", "console.log(1)")
		b.Foreign(entry, "py", "print(1)")
		b.ReturnVoid(entry)
		return b.Func()
	}

	res, got := run(t, nil, build(), lower.Options{ForeignPlatforms: []string{"js"}})
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("unexpected body:\n%s", got)
	}
	if lines[0] != "/* js */ console.log(1)" {
		t.Fatalf("kept platform rendered as %q", lines[0])
	}
	if !strings.Contains(lines[1], "LOW4003") || !strings.Contains(lines[1], `"py"`) {
		t.Fatalf("placeholder rendered as %q", lines[1])
	}
	d := findDiag(res.Diags, diag.LowForeignPlatform)
	if d == nil || d.Severity != diag.SevWarning {
		t.Fatalf("expected a foreign platform warning, got %v", res.Diags)
	}
	if d.Primary.Instr != 1 {
		t.Fatalf("warning points at instruction %d, want 1", d.Primary.Instr)
	}

	res, _ = run(t, nil, build(), lower.Options{})
	if len(res.Diags) != 0 {
		t.Fatalf("nil platform list should keep every platform: %v", res.Diags)
	}
}

func patternSwitch(p ir.Pattern) *ir.Func {
	b := ir.NewBuilder("match")
	b.Param("x", ir.IntType)
	entry := b.Block("entry")
	hit := b.Block("hit")
	def := b.Block("miss")
	end := b.Block("switch1.end")
	b.Switch(entry, b.Var(entry, "x", ir.IntType), nil, []ir.PatternCase{{Pattern: p, Target: hit}}, def, end)
	b.Call(hit, "", ir.VoidType, "onHit")
	b.Branch(hit, end)
	b.Branch(def, end)
	b.ReturnVoid(end)
	return b.Func()
}

func TestLowerPatternDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		pat  ir.Pattern
		code diag.Code
	}{
		{"unnamed bind", ir.Pattern{Kind: ir.PatternBind}, diag.LowUnnamedBinding},
		{"unknown kind", ir.Pattern{Kind: ir.PatternKind(42)}, diag.LowUnknownPattern},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := patternSwitch(tt.pat)
			res, got := run(t, module(f, "onHit"), f, lower.Options{})
			if findDiag(res.Diags, tt.code) == nil {
				t.Fatalf("missing %s in %v", tt.code.ID(), res.Diags)
			}
			if !strings.Contains(got, tt.code.ID()) || !strings.Contains(got, "onHit()") {
				t.Fatalf("case body should keep the call after the placeholder:\n%s", got)
			}
		})
	}
}

func TestLowerRangePattern(t *testing.T) {
	b := ir.NewBuilder("digits")
	b.Param("x", ir.IntType)
	entry := b.Block("entry")
	hit := b.Block("hit")
	def := b.Block("miss")
	end := b.Block("switch1.end")
	lo, hi := b.Int(entry, 0), b.Int(entry, 9)
	b.Switch(entry, b.Var(entry, "x", ir.IntType), nil,
		[]ir.PatternCase{{Pattern: ir.Pattern{Kind: ir.PatternRange, Lo: lo, Hi: hi}, Target: hit}}, def, end)
	b.Return(hit, b.Bool(hit, true))
	b.Return(def, b.Bool(def, false))
	b.Unreachable(end)

	_, got := run(t, nil, b.Func(), lower.Options{})
	expectText(t, got, "switch (x) {\n"+
		"case 0..9:\n"+
		"    return true\n"+
		"default:\n"+
		"    return false\n"+
		"}\n")
}

func TestLowerUnresolvedCall(t *testing.T) {
	b := ir.NewBuilder("caller")
	entry := b.Block("entry")
	b.Call(entry, "", ir.VoidType, "mystery", b.Int(entry, 1))
	b.ReturnVoid(entry)

	res, got := run(t, nil, b.Func(), lower.Options{})
	expectText(t, got, "mystery(1)\nreturn\n")
	if d := findDiag(res.Diags, diag.LowUnresolvedCall); d == nil || d.Severity != diag.SevWarning {
		t.Fatalf("expected an unresolved call warning, got %v", res.Diags)
	}
}

func TestLowerResolverImports(t *testing.T) {
	table, err := extern.NewTable([]extern.Entry{
		{Name: "print", Render: "console.log", Imports: []string{"console"}},
		{Name: "math.pi", Render: "Math.PI", Value: true, Imports: []string{"math"}},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	b := ir.NewBuilder("show")
	entry := b.Block("entry")
	pi := b.Global(entry, "math", "pi", ir.FloatType)
	origin := b.Global(entry, "geo", "origin", ir.NamedType("Point"))
	b.Call(entry, "", ir.VoidType, "print", pi)
	b.Call(entry, "", ir.VoidType, "print", origin)
	b.ReturnVoid(entry)

	res, got := run(t, nil, b.Func(), lower.Options{Resolver: table})
	expectText(t, got, "console.log(Math.PI)\nconsole.log(geo::origin)\nreturn\n")
	if strings.Join(res.Imports, ",") != "console,math" {
		t.Fatalf("imports = %v, want [console math]", res.Imports)
	}
	if len(res.Diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", res.Diags)
	}
}

func TestLowerSelfReference(t *testing.T) {
	b := ir.NewBuilder("loopy")
	entry := b.Block("entry")
	one := b.Int(entry, 1)
	// The next value defined gets ID one+1 and names itself as an operand.
	self := b.Binary(entry, "", ir.OpAdd, one, one+1)
	b.Return(entry, self)

	res, got := run(t, nil, b.Func(), lower.Options{})
	expectText(t, got, "return 1 + v1\n")
	if findDiag(res.Diags, diag.LowSelfReference) == nil {
		t.Fatalf("expected a self reference warning, got %v", res.Diags)
	}
}

func TestLowerContractErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *ir.Builder)
		want  error
	}{
		{"unterminated", func(b *ir.Builder) {
			b.Block("entry")
		}, ir.ErrUnterminated},
		{"bad target", func(b *ir.Builder) {
			b.Branch(b.Block("entry"), 99)
		}, ir.ErrBadTarget},
		{"missing default", func(b *ir.Builder) {
			entry := b.Block("entry")
			end := b.Block("end")
			b.Switch(entry, b.Int(entry, 0), nil, nil, ir.NoBlockID, end)
			b.ReturnVoid(end)
		}, ir.ErrMissingDefault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ir.NewBuilder("broken")
			tt.build(b)
			_, err := lower.Lower(context.Background(), nil, b.Func(), lower.Options{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			var be *ir.BlockError
			if !errors.As(err, &be) || be.Func != "broken" {
				t.Fatalf("expected a *ir.BlockError for broken, got %T", err)
			}
		})
	}
}

func TestLowerNestingLimit(t *testing.T) {
	_, err := lower.Lower(context.Background(), nil, ifElseFunc(), lower.Options{MaxNesting: 1})
	if !errors.Is(err, lower.ErrNestingTooDeep) {
		t.Fatalf("err = %v, want ErrNestingTooDeep", err)
	}
	var be *ir.BlockError
	if !errors.As(err, &be) || be.Label != "if1.then" {
		t.Fatalf("expected the error at if1.then, got %v", err)
	}
}

func TestLowerDiagnosticLimit(t *testing.T) {
	b := ir.NewBuilder("noisy")
	entry := b.Block("entry")
	for _, p := range []string{"a", "b", "c", "d"} {
		b.Foreign(entry, p, "x")
	}
	b.ReturnVoid(entry)

	res, _ := run(t, nil, b.Func(), lower.Options{ForeignPlatforms: []string{}, MaxDiagnostics: 2})
	if len(res.Diags) != 2 || res.Dropped != 2 {
		t.Fatalf("kept %d diagnostics and dropped %d, want 2 and 2", len(res.Diags), res.Dropped)
	}
}
