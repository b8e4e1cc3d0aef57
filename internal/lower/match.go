package lower

import (
	"restruct/internal/ir"
)

type shapeKind uint8

const (
	shapeFallback shapeKind = iota
	shapeLoop
	shapeIfElse
	shapeIfThen
)

func (k shapeKind) String() string {
	switch k {
	case shapeLoop:
		return "loop"
	case shapeIfElse:
		return "if-else"
	case shapeIfThen:
		return "if-then"
	}
	return "fallback"
}

// condShape is the recognized structure of a conditional branch.
type condShape struct {
	kind   shapeKind
	negate bool

	// loop
	body, end, inc ir.BlockID

	// if
	then, els, merge ir.BlockID
}

func regionOf(f *ir.Func, id ir.BlockID) ir.Region {
	if bb := f.Block(id); bb != nil {
		return bb.Region
	}
	return ir.Region{}
}

// matchCond classifies the conditional branch ending bb. Rules apply in
// priority order: loop header, if/else, if/then, fallback.
func matchCond(f *ir.Func, bb *ir.Block) condShape {
	cb := bb.Term.CondBranch
	t, e := regionOf(f, cb.Then), regionOf(f, cb.Else)
	none := condShape{kind: shapeFallback, body: ir.NoBlockID, end: ir.NoBlockID, inc: ir.NoBlockID,
		then: cb.Then, els: cb.Else, merge: ir.NoBlockID}

	switch {
	case t.Role == ir.RoleBody && t.IsLoop() && e.Role == ir.RoleEnd:
		s := none
		s.kind, s.body, s.end = shapeLoop, cb.Then, cb.Else
		s.inc = findIncrement(f, bb.ID, s.body, s.end, cb.Inc)
		return s
	case t.Role == ir.RoleEnd && e.Role == ir.RoleBody && e.IsLoop():
		s := none
		s.kind, s.negate, s.body, s.end = shapeLoop, true, cb.Else, cb.Then
		s.inc = findIncrement(f, bb.ID, s.body, s.end, cb.Inc)
		return s
	case t.Role == ir.RoleThen && e.Role == ir.RoleElse && t.SameConstruct(e):
		merge, ok := f.FindRegion(t.Kind, t.ID, ir.RoleEnd)
		if !ok {
			return none
		}
		s := none
		s.kind, s.merge = shapeIfElse, merge
		return s
	case t.Role == ir.RoleThen && e.Role == ir.RoleEnd && t.SameConstruct(e):
		s := none
		s.kind, s.merge = shapeIfThen, cb.Else
		return s
	}
	return none
}

// findIncrement locates the increment block of the loop headed by header.
// An explicit back-reference wins. Otherwise the body's own branch target is
// used when it plays the inc role, and finally the body region is scanned
// depth-first. The scan only accepts an inc block of a different construct
// when the body carries no construct tag, so a nested loop's increment is
// never taken for the outer loop's.
func findIncrement(f *ir.Func, header, body, end, explicit ir.BlockID) ir.BlockID {
	if explicit != ir.NoBlockID && f.Block(explicit) != nil {
		return explicit
	}
	bodyBlock := f.Block(body)
	if bodyBlock == nil {
		return ir.NoBlockID
	}
	if bodyBlock.Term.Kind == ir.TermBranch {
		if regionOf(f, bodyBlock.Term.Branch.Target).Role == ir.RoleInc {
			return bodyBlock.Term.Branch.Target
		}
	}

	own := bodyBlock.Region
	candidate := ir.NoBlockID
	seen := make(map[ir.BlockID]bool)
	stack := []ir.BlockID{body}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] || id == header || id == end {
			continue
		}
		seen[id] = true
		bb := f.Block(id)
		if bb == nil {
			continue
		}
		succs := bb.Term.Successors()
		for _, s := range succs {
			r := regionOf(f, s)
			if r.Role != ir.RoleInc {
				continue
			}
			if own.SameConstruct(r) {
				return s
			}
			if candidate == ir.NoBlockID && own.IsZero() {
				candidate = s
			}
		}
		for i := len(succs) - 1; i >= 0; i-- {
			if regionOf(f, succs[i]).Role != ir.RoleInc {
				stack = append(stack, succs[i])
			}
		}
	}
	return candidate
}

// doShape is a post-test loop entered at its body.
type doShape struct {
	body, cond, end ir.BlockID
	negate          bool
}

// matchDo recognizes a block tagged do<id>.body whose do<id>.cond block
// branches back to it.
func matchDo(f *ir.Func, id ir.BlockID) (doShape, bool) {
	r := regionOf(f, id)
	if r.Kind != ir.ConstructDo || r.Role != ir.RoleBody {
		return doShape{}, false
	}
	cond, ok := f.FindRegion(ir.ConstructDo, r.ID, ir.RoleCond)
	if !ok {
		return doShape{}, false
	}
	cb := f.Block(cond)
	if cb.Term.Kind != ir.TermCondBranch {
		return doShape{}, false
	}
	t := cb.Term.CondBranch
	switch {
	case t.Then == id:
		return doShape{body: id, cond: cond, end: t.Else}, true
	case t.Else == id:
		return doShape{body: id, cond: cond, end: t.Then, negate: true}, true
	}
	return doShape{}, false
}

// switchGroup is one case body and every label that targets it.
type switchGroup struct {
	target   ir.BlockID
	values   []ir.ValueID
	patterns []*ir.Pattern
}

// groupSwitch groups value cases and then pattern cases by target block,
// in first-appearance order. Labels that target the default block are
// dropped since the default body already covers them.
func groupSwitch(t *ir.SwitchTerm) []switchGroup {
	var groups []switchGroup
	index := make(map[ir.BlockID]int)
	group := func(target ir.BlockID) *switchGroup {
		i, ok := index[target]
		if !ok {
			i = len(groups)
			index[target] = i
			groups = append(groups, switchGroup{target: target})
		}
		return &groups[i]
	}
	for _, c := range t.Cases {
		if c.Target == t.Default && t.Default != t.End {
			continue
		}
		g := group(c.Target)
		g.values = append(g.values, c.Value)
	}
	for i := range t.Patterns {
		c := &t.Patterns[i]
		if c.Target == t.Default && t.Default != t.End {
			continue
		}
		g := group(c.Target)
		g.patterns = append(g.patterns, &c.Pattern)
	}
	return groups
}

// tryExits are the edges that leave a try region for its shared tail.
func tryExits(t *ir.TryTerm) []ir.BlockID {
	if t.Finally != ir.NoBlockID {
		return []ir.BlockID{t.Finally, t.End}
	}
	return []ir.BlockID{t.End}
}
