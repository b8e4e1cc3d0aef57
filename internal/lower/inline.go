package lower

import (
	"fmt"
	"strconv"

	"restruct/internal/diag"
	"restruct/internal/extern"
	"restruct/internal/ir"
	"restruct/internal/stmt"
)

// inliner renders values as expression trees. Transient operands are
// expanded in place; named operands become identifiers.
type inliner struct {
	f        *ir.Func
	plan     *Plan
	resolver extern.Resolver
	funcs    map[string]struct{}
	imports  map[string]struct{}
	warn     func(code diag.Code, msg string)
	block    ir.BlockID
}

type inlineFrame struct {
	id       ir.ValueID
	expanded bool
	def      bool
}

// expr renders a reference to id.
func (in *inliner) expr(id ir.ValueID) (stmt.Expr, error) {
	return in.render(id, false)
}

// define renders the defining expression of id, even when id is named.
func (in *inliner) define(id ir.ValueID) (stmt.Expr, error) {
	return in.render(id, true)
}

// render walks the operand graph with an explicit stack. Results of finished
// operands collect on out in operand order; an expanded frame pops its
// operands from out and pushes the combined node.
func (in *inliner) render(root ir.ValueID, def bool) (stmt.Expr, error) {
	inProgress := make(map[ir.ValueID]struct{})
	stack := []inlineFrame{{id: root, def: def}}
	var out []stmt.Expr

	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		v := in.f.Value(fr.id)
		if v == nil {
			return nil, ir.NewBlockError(in.f, in.block, ir.ErrBadValue, "v%d", fr.id)
		}

		if fr.expanded {
			n := len(v.Operands())
			args := make([]stmt.Expr, n)
			copy(args, out[len(out)-n:])
			out = append(out[:len(out)-n], in.combine(v, args))
			delete(inProgress, fr.id)
			continue
		}

		if e, ok := in.leaf(v, fr.def); ok {
			out = append(out, e)
			continue
		}
		if _, busy := inProgress[fr.id]; busy {
			in.warn(diag.LowSelfReference, fmt.Sprintf("v%d is part of its own definition", v.ID))
			out = append(out, &stmt.Ident{Name: bareName(v)})
			continue
		}

		inProgress[fr.id] = struct{}{}
		stack = append(stack, inlineFrame{id: fr.id, expanded: true})
		ops := v.Operands()
		for i := len(ops) - 1; i >= 0; i-- {
			stack = append(stack, inlineFrame{id: ops[i]})
		}
	}
	if len(out) != 1 {
		return nil, ir.NewBlockError(in.f, in.block, ir.ErrBadValue, "v%d rendered %d expressions", root, len(out))
	}
	return out[0], nil
}

func bareName(v *ir.Value) string {
	if v.Name != "" {
		return v.Name
	}
	return "v" + strconv.Itoa(int(v.ID))
}

// leaf returns the rendering of v when it needs no operand expansion.
func (in *inliner) leaf(v *ir.Value, def bool) (stmt.Expr, bool) {
	if !def {
		switch in.plan.Decision(v.ID) {
		case Materialized, Statement:
			return &stmt.Ident{Name: v.Name}, true
		case Erased:
			if v.Name == "" {
				in.warn(diag.LowErasedNoName, fmt.Sprintf("%s v%d has no name to reference", v.Kind, v.ID))
			}
			return &stmt.Ident{Name: bareName(v)}, true
		}
	}
	switch v.Kind {
	case ir.ValueConst:
		return &stmt.Lit{Value: v.Const}, true
	case ir.ValueVarRef:
		return &stmt.Ident{Name: v.VarRef.Var}, true
	case ir.ValueGlobal:
		return in.global(v.Global), true
	case ir.ValueAlloc, ir.ValuePhi:
		return &stmt.Ident{Name: bareName(v)}, true
	}
	return nil, false
}

func paren(e stmt.Expr) stmt.Expr {
	if stmt.IsCompound(e) {
		return &stmt.Paren{X: e}
	}
	return e
}

// combine builds the node for v from its rendered operands.
func (in *inliner) combine(v *ir.Value, args []stmt.Expr) stmt.Expr {
	switch v.Kind {
	case ir.ValueBinary:
		return &stmt.Binary{Op: v.Binary.Op, X: paren(args[0]), Y: paren(args[1])}
	case ir.ValueUnary:
		return &stmt.Unary{Op: v.Unary.Op, X: paren(args[0])}
	case ir.ValueCompare:
		return &stmt.Compare{Op: v.Compare.Op, X: paren(args[0]), Y: paren(args[1])}
	case ir.ValueCall:
		return in.call(v.Call.Callee, args)
	case ir.ValueMethodCall:
		return &stmt.MethodCall{Recv: paren(args[0]), Method: v.MethodCall.Method, Args: args[1:]}
	case ir.ValueLoad:
		return args[0]
	case ir.ValueCast:
		return &stmt.Cast{X: args[0], Type: v.Cast.Target}
	case ir.ValueField:
		return &stmt.Field{X: paren(args[0]), Name: v.Field.Field}
	case ir.ValueTupleElem:
		idx := ir.Const{Kind: ir.ConstInt, Int: int64(v.TupleElem.Index)}
		return &stmt.Index{X: paren(args[0]), Index: &stmt.Lit{Value: idx}}
	case ir.ValueIndex:
		return &stmt.Index{X: paren(args[0]), Index: args[1]}
	case ir.ValueTuple:
		return &stmt.TupleLit{Elems: args}
	case ir.ValueArrayAlloc:
		var n stmt.Expr
		if len(args) > 0 {
			n = args[0]
		}
		return &stmt.NewArray{Elem: v.ArrayAlloc.Elem, Len: n}
	case ir.ValuePhi:
		return &stmt.Ident{Name: bareName(v)}
	}
	return &stmt.Raw{Text: "v" + strconv.Itoa(int(v.ID))}
}

// call renders a call. Callees declared in the function or defined by the
// module are called directly; everything else goes through the resolver.
func (in *inliner) call(callee string, args []stmt.Expr) stmt.Expr {
	if in.plan.IsDeclared(callee) {
		return &stmt.Call{Func: callee, Args: args}
	}
	if _, ok := in.funcs[callee]; ok {
		return &stmt.Call{Func: callee, Args: args}
	}
	if e := in.resolve(callee, args); e != nil {
		return e
	}
	in.warn(diag.LowUnresolvedCall, fmt.Sprintf("call to %q is neither local nor resolvable", callee))
	return &stmt.Call{Func: callee, Args: args}
}

func (in *inliner) global(g ir.GlobalRef) stmt.Expr {
	if g.Unit == "" {
		if !in.plan.IsDeclared(g.Name) {
			if e := in.resolve(g.Name, nil); e != nil {
				return e
			}
		}
		return &stmt.Ident{Name: g.Name}
	}
	if e := in.resolve(g.Unit+"."+g.Name, nil); e != nil {
		return e
	}
	return &stmt.Qualified{Unit: g.Unit, Name: g.Name}
}

func (in *inliner) resolve(name string, args []stmt.Expr) stmt.Expr {
	if !in.resolver.CanResolve(name) {
		return nil
	}
	e := in.resolver.RenderCall(name, args)
	if e == nil {
		return nil
	}
	for _, imp := range in.resolver.RequiredImports(name) {
		in.imports[imp] = struct{}{}
	}
	return e
}
