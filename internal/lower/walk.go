package lower

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"restruct/internal/diag"
	"restruct/internal/ir"
	"restruct/internal/stmt"
	"restruct/internal/trace"
)

type frameKind uint8

const (
	frameLoop frameKind = iota
	frameSwitch
)

// frame is an enclosing breakable construct. For loops, cont is where a
// continue lands: the increment block, or the header when there is none.
type frame struct {
	kind    frameKind
	header  ir.BlockID
	end     ir.BlockID
	cont    ir.BlockID
	label   string
	labeled bool
}

// walker holds all mutable state of one function's lowering.
type walker struct {
	f         *ir.Func
	opts      Options
	plan      *Plan
	in        *inliner
	reachable []bool
	processed []bool
	visited   int
	frames    []*frame
	exits     [][]ir.BlockID
	depth     int
	reporter  diag.Reporter
	assigned  map[string]struct{}

	tracer trace.Tracer
	span   trace.SpanContext
}

func newWalker(ctx context.Context, f *ir.Func, plan *Plan, opts Options, funcs map[string]struct{}, bag *diag.Bag) *walker {
	w := &walker{
		f:         f,
		opts:      opts,
		plan:      plan,
		reachable: f.Reachable(),
		processed: make([]bool, len(f.Blocks)),
		reporter:  diag.NewDedupReporter(diag.BagReporter{Bag: bag}),
		assigned:  make(map[string]struct{}),
		tracer:    trace.FromContext(ctx),
		span:      trace.CurrentSpan(ctx),
	}
	w.in = &inliner{
		f:        f,
		plan:     plan,
		resolver: opts.Resolver,
		funcs:    funcs,
		imports:  make(map[string]struct{}),
		block:    f.Entry,
	}
	w.in.warn = func(code diag.Code, msg string) {
		diag.ReportWarning(w.reporter, code, w.blockLoc(w.in.block), msg).Emit()
	}
	return w
}

func (w *walker) blockLoc(id ir.BlockID) diag.Location {
	return diag.BlockLocation(w.f.Name, w.f.Block(id).Label())
}

func (w *walker) placeholder(code diag.Code, loc diag.Location, msg string) stmt.Stmt {
	rb := diag.ReportWarning(w.reporter, code, loc, msg)
	rb.Emit()
	return &stmt.Placeholder{Diag: rb.Diagnostic()}
}

func (w *walker) point(name, detail string) {
	trace.Point(w.tracer, w.span, trace.Event{Scope: trace.ScopeNode, Name: name, Detail: detail})
}

// region lowers the straight chain that starts at start. Branches to any of
// exits end the chain silently; they belong to the construct that owns the
// region.
func (w *walker) region(start ir.BlockID, exits ...ir.BlockID) ([]stmt.Stmt, error) {
	w.depth++
	defer func() { w.depth-- }()
	if w.depth > w.opts.MaxNesting {
		return nil, ir.NewBlockError(w.f, start, ErrNestingTooDeep, "depth %d", w.depth)
	}
	w.exits = append(w.exits, exits)
	defer func() { w.exits = w.exits[:len(w.exits)-1] }()

	out, cur := w.jump(start)
	for cur != ir.NoBlockID && !w.processed[cur] {
		stmts, next, err := w.block(cur)
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
		cur = next
	}
	return out, nil
}

// jump resolves a control transfer to target from the current position.
// It returns the statements the transfer needs and the block to chain
// into next, or NoBlockID when the chain ends.
func (w *walker) jump(target ir.BlockID) ([]stmt.Stmt, ir.BlockID) {
	if target == ir.NoBlockID || !w.reachable[target] {
		return nil, ir.NoBlockID
	}
	if n := len(w.exits); n > 0 && slices.Contains(w.exits[n-1], target) {
		return nil, ir.NoBlockID
	}
	if s := w.frameJump(target); s != nil {
		return []stmt.Stmt{s}, ir.NoBlockID
	}
	for i := 0; i < len(w.exits)-1; i++ {
		if slices.Contains(w.exits[i], target) {
			return nil, ir.NoBlockID
		}
	}
	if !w.processed[target] {
		return nil, target
	}
	return nil, ir.NoBlockID
}

// frameJump turns a branch to an enclosing loop's end or continue target
// into Break or Continue, and a branch to a switch's end into Break. Leaving
// a switch from inside a nested construct needs the switch's label.
func (w *walker) frameJump(target ir.BlockID) stmt.Stmt {
	top := len(w.frames) - 1
	for i := top; i >= 0; i-- {
		fr := w.frames[i]
		if fr.kind == frameSwitch {
			if fr.end == target {
				return &stmt.Break{Label: w.labelFor(i, false)}
			}
			continue
		}
		if fr.end == target {
			return &stmt.Break{Label: w.labelFor(i, false)}
		}
		if fr.cont == target {
			return &stmt.Continue{Label: w.labelFor(i, true)}
		}
	}
	return nil
}

// labelFor returns the label a jump to frame i needs: none when the frame is
// the innermost construct the jump would bind to.
func (w *walker) labelFor(i int, isContinue bool) string {
	for j := i + 1; j < len(w.frames); j++ {
		if w.frames[j].kind == frameLoop || !isContinue {
			w.frames[i].labeled = true
			return w.frames[i].label
		}
	}
	return ""
}

func (w *walker) push(fr *frame) { w.frames = append(w.frames, fr) }
func (w *walker) pop()           { w.frames = w.frames[:len(w.frames)-1] }

func (w *walker) markProcessed(id ir.BlockID) {
	w.processed[id] = true
	w.visited++
}

// switchLabel names a switch after the construct its end block belongs to.
func switchLabel(f *ir.Func, header, end ir.BlockID) string {
	if r := regionOf(f, end); r.Kind == ir.ConstructSwitch {
		return r.Kind.String() + strconv.Itoa(r.ID)
	}
	return "switch" + strconv.Itoa(int(header))
}

func loopLabel(f *ir.Func, header, body ir.BlockID) string {
	if r := regionOf(f, body); !r.IsZero() {
		return r.Kind.String() + strconv.Itoa(r.ID)
	}
	return "loop" + strconv.Itoa(int(header))
}

// block lowers one block and dispatches its terminator. It returns the
// block's statements and the block the enclosing chain continues with.
func (w *walker) block(id ir.BlockID) ([]stmt.Stmt, ir.BlockID, error) {
	if ds, ok := matchDo(w.f, id); ok && w.reachable[ds.cond] && !w.processed[ds.cond] {
		return w.doLoop(ds)
	}

	bb := w.f.Block(id)
	w.markProcessed(id)
	w.in.block = id
	out, err := w.instrs(bb)
	if err != nil {
		return nil, ir.NoBlockID, err
	}
	w.in.block = id

	switch bb.Term.Kind {
	case ir.TermBranch:
		stmts, next := w.jump(bb.Term.Branch.Target)
		return append(out, stmts...), next, nil
	case ir.TermCondBranch:
		return w.cond(bb, out)
	case ir.TermSwitch:
		return w.switchStmt(bb, out)
	case ir.TermTry:
		return w.tryStmt(bb, out)
	case ir.TermForEach:
		return w.forEach(bb, out)
	case ir.TermReturn:
		ret := &stmt.Return{}
		if bb.Term.Return.HasValue {
			e, err := w.in.expr(bb.Term.Return.Value)
			if err != nil {
				return nil, ir.NoBlockID, err
			}
			ret.Value = e
		}
		return append(out, ret), ir.NoBlockID, nil
	case ir.TermUnreachable:
		return out, ir.NoBlockID, nil
	}
	return nil, ir.NoBlockID, ir.NewBlockError(w.f, id, ir.ErrUnterminated, "")
}

func (w *walker) cond(bb *ir.Block, pre []stmt.Stmt) ([]stmt.Stmt, ir.BlockID, error) {
	s := matchCond(w.f, bb)
	if s.kind == shapeLoop {
		return w.loop(bb, pre, s)
	}

	c, err := w.in.expr(bb.Term.CondBranch.Cond)
	if err != nil {
		return nil, ir.NoBlockID, err
	}
	node := &stmt.If{Cond: c}
	switch s.kind {
	case shapeIfElse:
		w.point("if", bb.Label())
		if node.Then, err = w.region(s.then, s.merge); err != nil {
			return nil, ir.NoBlockID, err
		}
		if node.Else, err = w.region(s.els, s.merge); err != nil {
			return nil, ir.NoBlockID, err
		}
		stmts, next := w.jump(s.merge)
		return append(append(pre, node), stmts...), next, nil

	case shapeIfThen:
		w.point("if", bb.Label())
		if node.Then, err = w.region(s.then, s.merge); err != nil {
			return nil, ir.NoBlockID, err
		}
		stmts, next := w.jump(s.merge)
		return append(append(pre, node), stmts...), next, nil
	}

	w.point("fallback", bb.Label())
	diag.NewReportBuilder(w.reporter, diag.SevInfo, diag.LowFallbackIf, w.blockLoc(bb.ID),
		fmt.Sprintf("no construct recognized for branch to %s / %s",
			w.f.Block(s.then).Label(), w.f.Block(s.els).Label())).Emit()
	if node.Then, err = w.region(s.then); err != nil {
		return nil, ir.NoBlockID, err
	}
	if node.Else, err = w.region(s.els); err != nil {
		return nil, ir.NoBlockID, err
	}
	return append(pre, node), ir.NoBlockID, nil
}

// loop lowers a pre-test loop headed by bb. A header that emits statements
// of its own becomes `while (true) { pre; if (exit) break; body }`.
func (w *walker) loop(bb *ir.Block, pre []stmt.Stmt, s condShape) ([]stmt.Stmt, ir.BlockID, error) {
	raw, err := w.in.expr(bb.Term.CondBranch.Cond)
	if err != nil {
		return nil, ir.NoBlockID, err
	}
	cond, exit := raw, stmt.Not(raw)
	if s.negate {
		cond, exit = stmt.Not(raw), raw
	}

	inc := s.inc
	if inc != ir.NoBlockID && (!w.reachable[inc] || w.processed[inc] || inc == bb.ID) {
		inc = ir.NoBlockID
	}
	cont := bb.ID
	if inc != ir.NoBlockID {
		cont = inc
	}

	fr := &frame{kind: frameLoop, header: bb.ID, end: s.end, cont: cont, label: loopLabel(w.f, bb.ID, s.body)}
	w.point("loop", fr.label)
	w.push(fr)
	body, err := w.region(s.body, cont)
	if err != nil {
		return nil, ir.NoBlockID, err
	}
	w.pop()
	// inc is the frame's continue target, so it is walked outside the frame.
	var post []stmt.Stmt
	if inc != ir.NoBlockID {
		if post, err = w.region(inc, bb.ID); err != nil {
			return nil, ir.NoBlockID, err
		}
	}

	node := &stmt.While{Label: fr.label, Labeled: fr.labeled, Cond: cond, Body: body, Post: post}
	var out []stmt.Stmt
	if len(pre) > 0 {
		node.Cond = &stmt.Lit{Value: ir.Const{Kind: ir.ConstBool, Bool: true}}
		head := append(pre, &stmt.If{Cond: exit, Then: []stmt.Stmt{&stmt.Break{}}})
		node.Body = append(head, body...)
	}
	out = append(out, node)
	stmts, next := w.jump(s.end)
	return append(out, stmts...), next, nil
}

// doLoop lowers a post-test loop. The cond block is claimed before the body
// is walked so the body cannot chain into it.
func (w *walker) doLoop(ds doShape) ([]stmt.Stmt, ir.BlockID, error) {
	w.markProcessed(ds.cond)
	fr := &frame{kind: frameLoop, header: ds.body, end: ds.end, cont: ds.cond, label: loopLabel(w.f, ds.body, ds.body)}
	w.point("do", fr.label)
	w.push(fr)
	body, err := w.region(ds.body, ds.cond)
	if err != nil {
		return nil, ir.NoBlockID, err
	}
	cb := w.f.Block(ds.cond)
	w.in.block = ds.cond
	tail, err := w.instrs(cb)
	if err != nil {
		return nil, ir.NoBlockID, err
	}
	w.in.block = ds.cond
	cond, err := w.in.expr(cb.Term.CondBranch.Cond)
	if err != nil {
		return nil, ir.NoBlockID, err
	}
	w.pop()
	if ds.negate {
		cond = stmt.Not(cond)
	}

	node := &stmt.DoWhile{Label: fr.label, Labeled: fr.labeled, Body: append(body, tail...), Cond: cond}
	stmts, next := w.jump(ds.end)
	return append([]stmt.Stmt{node}, stmts...), next, nil
}

func (w *walker) forEach(bb *ir.Block, pre []stmt.Stmt) ([]stmt.Stmt, ir.BlockID, error) {
	t := &bb.Term.ForEach
	coll, err := w.in.expr(t.Collection)
	if err != nil {
		return nil, ir.NoBlockID, err
	}
	fr := &frame{kind: frameLoop, header: bb.ID, end: t.End, cont: bb.ID, label: loopLabel(w.f, bb.ID, t.Body)}
	w.point("foreach", fr.label)
	w.push(fr)
	body, err := w.region(t.Body, bb.ID)
	if err != nil {
		return nil, ir.NoBlockID, err
	}
	w.pop()

	node := &stmt.ForEach{
		Label:      fr.label,
		Labeled:    fr.labeled,
		Elem:       t.Elem,
		ElemType:   t.ElemType,
		Collection: coll,
		Body:       body,
	}
	stmts, next := w.jump(t.End)
	return append(append(pre, node), stmts...), next, nil
}

// instrs emits the non-terminator instructions of bb in order.
func (w *walker) instrs(bb *ir.Block) ([]stmt.Stmt, error) {
	var out []stmt.Stmt
	for i := 0; i < len(bb.Instrs); i++ {
		ins := &bb.Instrs[i]
		switch ins.Kind {
		case ir.InstrValue:
			n, d, err := w.destructure(bb, i)
			if err != nil {
				return nil, err
			}
			if n > 0 {
				out = append(out, d)
				i += n - 1
				continue
			}
			s, err := w.valueStmt(ins.Value)
			if err != nil {
				return nil, err
			}
			if s != nil {
				out = append(out, s)
			}
		case ir.InstrStore:
			s, err := w.store(&ins.Store)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		case ir.InstrForeign:
			fi := ins.Foreign
			if w.opts.foreignAllowed(fi.Platform) {
				out = append(out, &stmt.Foreign{Platform: fi.Platform, Code: fi.Code})
				continue
			}
			loc := diag.InstrLocation(w.f.Name, bb.Label(), i)
			out = append(out, w.placeholder(diag.LowForeignPlatform, loc,
				fmt.Sprintf("foreign code for platform %q is not supported", fi.Platform)))
		}
	}
	return out, nil
}

func (w *walker) valueStmt(id ir.ValueID) (stmt.Stmt, error) {
	v := w.f.Value(id)
	if v == nil {
		return nil, ir.NewBlockError(w.f, w.in.block, ir.ErrBadValue, "v%d", id)
	}
	switch w.plan.Decision(id) {
	case Erased:
		return nil, nil
	case Materialized, Statement:
		if v.Kind == ir.ValueVarRef && identKey(v.VarRef.Var) == identKey(v.Name) {
			return nil, nil
		}
		e, err := w.in.define(id)
		if err != nil {
			return nil, err
		}
		w.assigned[identKey(v.Name)] = struct{}{}
		return &stmt.Assign{Target: &stmt.Ident{Name: v.Name}, Value: e}, nil
	}
	if v.HasSideEffect() && w.plan.Uses(id) == 0 {
		e, err := w.in.define(id)
		if err != nil {
			return nil, err
		}
		return &stmt.ExprStmt{X: e}, nil
	}
	return nil, nil
}

func (w *walker) store(st *ir.StoreInstr) (stmt.Stmt, error) {
	var target stmt.Expr
	switch st.Kind {
	case ir.StoreIndex:
		obj, err := w.in.expr(st.Object)
		if err != nil {
			return nil, err
		}
		idx, err := w.in.expr(st.Index)
		if err != nil {
			return nil, err
		}
		target = &stmt.Index{X: paren(obj), Index: idx}
	case ir.StoreField:
		obj, err := w.in.expr(st.Object)
		if err != nil {
			return nil, err
		}
		target = &stmt.Field{X: paren(obj), Name: st.Field}
	default:
		w.assigned[identKey(st.Var)] = struct{}{}
		target = &stmt.Ident{Name: st.Var}
	}
	val, err := w.in.expr(st.Value)
	if err != nil {
		return nil, err
	}
	return &stmt.Assign{Target: target, Value: val}, nil
}
