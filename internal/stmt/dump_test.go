package stmt_test

import (
	"bytes"
	"testing"

	"restruct/internal/diag"
	"restruct/internal/ir"
	"restruct/internal/stmt"
)

func ident(n string) stmt.Expr { return &stmt.Ident{Name: n} }

func intLit(v int64) stmt.Expr {
	return &stmt.Lit{Value: ir.Const{Kind: ir.ConstInt, Int: v}}
}

func TestFormatExprGrouping(t *testing.T) {
	sum := &stmt.Binary{Op: ir.OpAdd, X: ident("a"), Y: ident("b")}
	prod := &stmt.Binary{Op: ir.OpMul, X: &stmt.Paren{X: sum}, Y: &stmt.Paren{X: sum}}
	if got, want := stmt.FormatExpr(prod), "(a + b) * (a + b)"; got != want {
		t.Fatalf("FormatExpr = %q, want %q", got, want)
	}
	cond := &stmt.Compare{Op: ir.CmpGe, X: ident("i"), Y: intLit(10)}
	if got, want := stmt.FormatExpr(stmt.Not(cond)), "!(i >= 10)"; got != want {
		t.Fatalf("Not = %q, want %q", got, want)
	}
	if got, want := stmt.FormatExpr(stmt.Not(ident("ok"))), "!ok"; got != want {
		t.Fatalf("Not ident = %q, want %q", got, want)
	}
}

func TestDumpStatements(t *testing.T) {
	body := []stmt.Stmt{
		&stmt.Assign{Target: ident("i"), Value: intLit(0)},
		&stmt.While{
			Label: "loop1", Labeled: true,
			Cond: &stmt.Compare{Op: ir.CmpLt, X: ident("i"), Y: intLit(10)},
			Body: []stmt.Stmt{
				&stmt.If{
					Cond: &stmt.Compare{Op: ir.CmpEq, X: ident("i"), Y: intLit(5)},
					Then: []stmt.Stmt{&stmt.Break{Label: "loop1"}},
				},
			},
			Post: []stmt.Stmt{&stmt.Assign{Target: ident("i"), Value: &stmt.Binary{Op: ir.OpAdd, X: ident("i"), Y: intLit(1)}}},
		},
		&stmt.Destructure{Targets: []string{"a", "", "c"}, Value: &stmt.Call{Func: "triple"}},
		&stmt.Return{Value: ident("a")},
	}
	want := "i = 0\n" +
		"loop1: while (i < 10) {\n" +
		"    if (i == 5) {\n" +
		"        break loop1\n" +
		"    }\n" +
		"    // post\n" +
		"    i = i + 1\n" +
		"}\n" +
		"(a, _, c) = triple()\n" +
		"return a\n"
	if got := stmt.Format(body); got != want {
		t.Fatalf("unexpected dump:\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func TestDumpSwitchAndElseIf(t *testing.T) {
	body := []stmt.Stmt{
		&stmt.Switch{
			Scrutinee: ident("x"),
			Groups: []stmt.CaseGroup{
				{Labels: []stmt.CaseLabel{{Value: intLit(1)}, {Value: intLit(2)}}, Body: []stmt.Stmt{&stmt.Return{Value: intLit(10)}}},
				{Labels: []stmt.CaseLabel{{Pattern: &stmt.Pattern{Kind: ir.PatternRange, Lo: intLit(3), Hi: intLit(9)}}}},
			},
			Default: []stmt.Stmt{&stmt.Return{}},
		},
		&stmt.If{
			Cond: ident("a"),
			Then: []stmt.Stmt{&stmt.Continue{}},
			Else: []stmt.Stmt{&stmt.If{Cond: ident("b"), Then: []stmt.Stmt{&stmt.Break{}}, Else: []stmt.Stmt{&stmt.Return{}}}},
		},
	}
	want := "switch (x) {\n" +
		"case 1:\n" +
		"case 2:\n" +
		"    return 10\n" +
		"case 3..9:\n" +
		"default:\n" +
		"    return\n" +
		"}\n" +
		"if (a) {\n" +
		"    continue\n" +
		"} else if (b) {\n" +
		"    break\n" +
		"} else {\n" +
		"    return\n" +
		"}\n"
	var buf bytes.Buffer
	if err := stmt.Dump(&buf, body, stmt.DumpOptions{}); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if got := buf.String(); got != want {
		t.Fatalf("unexpected dump:\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func TestWalkVisitsNested(t *testing.T) {
	body := []stmt.Stmt{
		&stmt.TryCatch{
			Try:        []stmt.Stmt{&stmt.ExprStmt{X: &stmt.Call{Func: "f"}}},
			Catches:    []stmt.Catch{{Type: ir.NamedType("Err"), Binding: "e", Body: []stmt.Stmt{&stmt.Return{}}}},
			HasFinally: true,
			Finally:    []stmt.Stmt{&stmt.ExprStmt{X: &stmt.Call{Func: "g"}}},
		},
		&stmt.Placeholder{Diag: diag.NewWarning(diag.LowUnknownPattern, diag.FuncLocation("f"), "pattern")},
	}
	count := 0
	stmt.Walk(body, func(stmt.Stmt) { count++ })
	if count != 5 {
		t.Fatalf("visited %d statements, want 5", count)
	}
	if n := stmt.CountOccurrences(body, "g()"); n != 1 {
		t.Fatalf("g() occurs %d times, want 1", n)
	}
}
