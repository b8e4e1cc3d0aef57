// Package lower reconstructs structured statements from a function's
// control-flow graph.
//
// Lowering runs in three steps: the hand-off contract is validated, every
// value is classified by the materialization analyzer, and the structural
// walker traverses the graph once from the entry block. The walker asks the
// pattern matcher for the construct each conditional branch forms and asks
// the inliner for the expression of every operand.
//
// All mutable state lives in a per-call walker. Functions of one module can
// be lowered concurrently as long as nobody mutates the shared IR.
package lower

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strconv"

	"restruct/internal/diag"
	"restruct/internal/ir"
	"restruct/internal/stmt"
	"restruct/internal/trace"
)

// Decl declares a local that the lowered body assigns to.
type Decl struct {
	Name   string
	Type   string
	IRType ir.Type
}

// Result is the structured form of one function.
type Result struct {
	Func    string
	Body    []stmt.Stmt
	Decls   []Decl
	Imports []string
	Diags   []diag.Diagnostic
	// Dropped counts diagnostics past Options.MaxDiagnostics.
	Dropped int
	// Visited counts the blocks the walker emitted; it equals the number of
	// blocks reachable from entry.
	Visited int
}

var errNilFunc = errors.New("lower: nil function")

// Lower lowers f, a function of m. m may be nil when the function stands
// alone; it supplies module globals and the names of sibling functions.
// Contract violations are returned as *ir.BlockError values.
func Lower(ctx context.Context, m *ir.Module, f *ir.Func, opts Options) (*Result, error) {
	if f == nil {
		return nil, errNilFunc
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx, span := trace.StartFunc(ctx, f.Name)

	if err := ir.Validate(f); err != nil {
		span.End("invalid")
		return nil, err
	}
	opts = opts.withDefaults()

	var globals []ir.Global
	funcs := make(map[string]struct{})
	if m != nil {
		globals = m.Globals
		for _, fn := range m.Funcs {
			if fn != nil {
				funcs[fn.Name] = struct{}{}
			}
		}
	}

	plan := Analyze(f, f.Declared(globals))
	bag := diag.NewBag(opts.MaxDiagnostics)
	w := newWalker(ctx, f, plan, opts, funcs, bag)
	body, err := w.region(f.Entry)
	if err != nil {
		span.End("error")
		return nil, err
	}

	res := &Result{
		Func:    f.Name,
		Body:    body,
		Decls:   decls(f, w.assigned, opts),
		Imports: slices.Sorted(maps.Keys(w.in.imports)),
		Diags:   bag.Items(),
		Dropped: bag.Dropped(),
		Visited: w.visited,
	}
	span.WithExtra("blocks", strconv.Itoa(res.Visited)).
		WithExtra("diags", strconv.Itoa(len(res.Diags))).
		End("")
	return res, nil
}

// decls lists assigned locals in declaration order.
func decls(f *ir.Func, assigned map[string]struct{}, opts Options) []Decl {
	var out []Decl
	for _, l := range f.Locals {
		if _, ok := assigned[identKey(l.Name)]; !ok {
			continue
		}
		out = append(out, Decl{Name: l.Name, Type: opts.Types.RenderType(l.Type), IRType: l.Type})
	}
	return out
}
