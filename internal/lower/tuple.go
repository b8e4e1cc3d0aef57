package lower

import (
	"restruct/internal/ir"
	"restruct/internal/stmt"
)

// materializedElem returns the tuple extraction defined by instruction i of
// bb when it is assigned to a variable.
func (w *walker) materializedElem(bb *ir.Block, i int) *ir.Value {
	ins := &bb.Instrs[i]
	if ins.Kind != ir.InstrValue {
		return nil
	}
	v := w.f.Value(ins.Value)
	if v == nil || v.Kind != ir.ValueTupleElem || v.TupleElem.Index < 0 {
		return nil
	}
	if w.plan.Decision(v.ID) != Materialized {
		return nil
	}
	return v
}

// destructure coalesces two or more consecutive materialized extractions
// from one tuple, starting at instruction i, into a single Destructure. It
// returns how many instructions it consumed, zero when there is no run.
func (w *walker) destructure(bb *ir.Block, i int) (int, stmt.Stmt, error) {
	first := w.materializedElem(bb, i)
	if first == nil {
		return 0, nil, nil
	}
	src := first.TupleElem.Tuple
	run := []*ir.Value{first}
	seen := map[int]bool{first.TupleElem.Index: true}
	for j := i + 1; j < len(bb.Instrs); j++ {
		v := w.materializedElem(bb, j)
		if v == nil || v.TupleElem.Tuple != src || seen[v.TupleElem.Index] {
			break
		}
		seen[v.TupleElem.Index] = true
		run = append(run, v)
	}
	if len(run) < 2 {
		return 0, nil, nil
	}

	width := 0
	for _, v := range run {
		width = max(width, v.TupleElem.Index+1)
	}
	targets := make([]string, width)
	for _, v := range run {
		targets[v.TupleElem.Index] = v.Name
		w.assigned[identKey(v.Name)] = struct{}{}
	}
	e, err := w.in.expr(src)
	if err != nil {
		return 0, nil, err
	}
	return len(run), &stmt.Destructure{Targets: targets, Value: e}, nil
}
