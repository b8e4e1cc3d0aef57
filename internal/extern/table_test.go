package extern_test

import (
	"errors"
	"reflect"
	"testing"

	"restruct/internal/extern"
	"restruct/internal/ir"
	"restruct/internal/stmt"
)

func TestTableRender(t *testing.T) {
	tbl, err := extern.NewTable([]extern.Entry{
		{Name: "print", Render: "console.log", Imports: []string{"console"}},
		{Name: "PI", Render: "Math.PI", Value: true},
		{Name: "abs"},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	args := []stmt.Expr{&stmt.Ident{Name: "x"}}

	call, ok := tbl.RenderCall("print", args).(*stmt.Call)
	if !ok || call.Func != "console.log" || len(call.Args) != 1 {
		t.Fatalf("print rendered as %#v", tbl.RenderCall("print", args))
	}
	if raw, ok := tbl.RenderCall("PI", args).(*stmt.Raw); !ok || raw.Text != "Math.PI" {
		t.Fatalf("PI rendered as %#v", tbl.RenderCall("PI", args))
	}
	if c, ok := tbl.RenderCall("abs", args).(*stmt.Call); !ok || c.Func != "abs" {
		t.Fatalf("abs should default render to its name")
	}
	if got := tbl.RequiredImports("print"); !reflect.DeepEqual(got, []string{"console"}) {
		t.Fatalf("imports = %v", got)
	}
	if tbl.CanResolve("missing") || tbl.RenderCall("missing", nil) != nil {
		t.Fatalf("missing name resolved")
	}
}

func TestTableNormalizesNames(t *testing.T) {
	tbl, err := extern.NewTable([]extern.Entry{{Name: "caf\u00e9", Render: "cafe"}})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if !tbl.CanResolve("cafe\u0301") {
		t.Fatalf("decomposed name not resolved")
	}
}

func TestNewTableErrors(t *testing.T) {
	_, err := extern.NewTable([]extern.Entry{{Name: "a"}, {Name: " "}, {Name: "a"}})
	if !errors.Is(err, extern.ErrEmptyName) || !errors.Is(err, extern.ErrDuplicateName) {
		t.Fatalf("err = %v, want both sentinels", err)
	}
}

func TestChainFirstOwnerWins(t *testing.T) {
	a, _ := extern.NewTable([]extern.Entry{{Name: "f", Render: "A.f"}})
	b, _ := extern.NewTable([]extern.Entry{{Name: "f", Render: "B.f"}, {Name: "g", Render: "B.g", Imports: []string{"B"}}})
	r := extern.Chain(nil, a, b)
	if c := r.RenderCall("f", []stmt.Expr{}).(*stmt.Call); c.Func != "A.f" {
		t.Fatalf("f owned by %s", c.Func)
	}
	if got := r.RequiredImports("g"); len(got) != 1 || got[0] != "B" {
		t.Fatalf("imports = %v", got)
	}
	if extern.None.CanResolve("f") {
		t.Fatalf("None resolved a name")
	}
}

func TestTypeTable(t *testing.T) {
	tt := extern.NewTypeTable(map[string]string{"int": "number", "float": "number", "Point": "PointTS"})
	tests := []struct {
		in   ir.Type
		want string
	}{
		{ir.IntType, "number"},
		{ir.StringType, "string"},
		{ir.NamedType("Point"), "PointTS"},
		{ir.ArrayType(ir.FloatType), "number[]"},
		{ir.TupleType(ir.IntType, ir.BoolType), "[number, bool]"},
	}
	for _, tc := range tests {
		if got := tt.RenderType(tc.in); got != tc.want {
			t.Errorf("RenderType(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
