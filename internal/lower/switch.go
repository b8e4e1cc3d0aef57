package lower

import (
	"fmt"

	"restruct/internal/diag"
	"restruct/internal/ir"
	"restruct/internal/stmt"
)

// switchStmt lowers a switch: each case group in order, then default, then
// the chain continues at end. Fallthrough between case bodies is not
// represented; every other case target is an exit of each case body.
func (w *walker) switchStmt(bb *ir.Block, pre []stmt.Stmt) ([]stmt.Stmt, ir.BlockID, error) {
	t := &bb.Term.Switch
	scrut, err := w.in.expr(t.Value)
	if err != nil {
		return nil, ir.NoBlockID, err
	}
	groups := groupSwitch(t)
	w.point("switch", bb.Label())

	fr := &frame{kind: frameSwitch, header: bb.ID, end: t.End, cont: ir.NoBlockID, label: switchLabel(w.f, bb.ID, t.End)}
	node := &stmt.Switch{Scrutinee: scrut}
	w.push(fr)
	for _, g := range groups {
		w.in.block = bb.ID
		var cg stmt.CaseGroup
		var notes []stmt.Stmt
		for _, v := range g.values {
			e, err := w.in.expr(v)
			if err != nil {
				return nil, ir.NoBlockID, err
			}
			cg.Labels = append(cg.Labels, stmt.CaseLabel{Value: e})
		}
		for _, p := range g.patterns {
			sp, n, err := w.pattern(bb, p)
			if err != nil {
				return nil, ir.NoBlockID, err
			}
			cg.Labels = append(cg.Labels, stmt.CaseLabel{Pattern: sp})
			notes = append(notes, n...)
		}
		var body []stmt.Stmt
		if g.target != t.End {
			if body, err = w.region(g.target, caseExits(t, groups, g.target)...); err != nil {
				return nil, ir.NoBlockID, err
			}
		}
		cg.Body = append(notes, body...)
		node.Groups = append(node.Groups, cg)
	}
	if t.Default != t.End {
		if node.Default, err = w.region(t.Default, caseExits(t, groups, t.Default)...); err != nil {
			return nil, ir.NoBlockID, err
		}
	}
	w.pop()
	node.Label, node.Labeled = fr.label, fr.labeled

	stmts, next := w.jump(t.End)
	return append(append(pre, node), stmts...), next, nil
}

func caseExits(t *ir.SwitchTerm, groups []switchGroup, self ir.BlockID) []ir.BlockID {
	exits := make([]ir.BlockID, 0, len(groups)+2)
	exits = append(exits, t.End)
	if t.Default != self {
		exits = append(exits, t.Default)
	}
	for _, g := range groups {
		if g.target != self {
			exits = append(exits, g.target)
		}
	}
	return exits
}

// pattern converts a case pattern. Bindings without a name and unknown
// kinds yield placeholder statements for the head of the case body.
func (w *walker) pattern(bb *ir.Block, p *ir.Pattern) (*stmt.Pattern, []stmt.Stmt, error) {
	out := &stmt.Pattern{Kind: p.Kind, Type: p.Type, Binding: p.Binding, Op: p.Op}
	var notes []stmt.Stmt
	var err error
	switch p.Kind {
	case ir.PatternType:
	case ir.PatternBind:
		if p.Binding == "" {
			notes = append(notes, w.placeholder(diag.LowUnnamedBinding, w.blockLoc(bb.ID),
				"bind pattern has no binding name"))
		}
	case ir.PatternRange:
		if out.Lo, err = w.in.expr(p.Lo); err != nil {
			return nil, nil, err
		}
		if out.Hi, err = w.in.expr(p.Hi); err != nil {
			return nil, nil, err
		}
	case ir.PatternCompare, ir.PatternConst:
		if out.Value, err = w.in.expr(p.Value); err != nil {
			return nil, nil, err
		}
	case ir.PatternOr, ir.PatternTuple:
		for i := range p.Elems {
			sub, n, err := w.pattern(bb, &p.Elems[i])
			if err != nil {
				return nil, nil, err
			}
			out.Elems = append(out.Elems, *sub)
			notes = append(notes, n...)
		}
	default:
		notes = append(notes, w.placeholder(diag.LowUnknownPattern, w.blockLoc(bb.ID),
			fmt.Sprintf("unknown pattern kind %d", p.Kind)))
	}
	return out, notes, nil
}
