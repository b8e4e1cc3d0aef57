package lower

import (
	"golang.org/x/text/unicode/norm"

	"restruct/internal/ir"
)

// Decision says how the walker treats a value definition.
type Decision uint8

const (
	// Transient values get no variable and are re-rendered at every use.
	Transient Decision = iota
	// Materialized values are assigned to their declared name.
	Materialized
	// Erased values (allocation and phi markers) emit nothing.
	Erased
	// Statement values are always emitted as an assignment.
	Statement
)

func (d Decision) String() string {
	switch d {
	case Transient:
		return "transient"
	case Materialized:
		return "materialized"
	case Erased:
		return "erased"
	case Statement:
		return "statement"
	}
	return "unknown"
}

// Plan holds the per-value decisions and use counts of one function.
// It is computed once before emission and never changes afterwards.
type Plan struct {
	decisions []Decision
	uses      []int
	declared  map[string]struct{}
}

// Analyze classifies every value of f against the declared-identifier set.
func Analyze(f *ir.Func, declared map[string]struct{}) *Plan {
	p := &Plan{
		decisions: make([]Decision, len(f.Values)),
		uses:      make([]int, len(f.Values)),
		declared:  make(map[string]struct{}, len(declared)),
	}
	for name := range declared {
		p.declared[identKey(name)] = struct{}{}
	}

	for i := range f.Values {
		p.decisions[i] = p.classify(&f.Values[i])
	}

	count := func(id ir.ValueID) {
		if id >= 0 && int(id) < len(p.uses) {
			p.uses[id]++
		}
	}
	for i := range f.Blocks {
		bb := &f.Blocks[i]
		for j := range bb.Instrs {
			for _, op := range bb.Instrs[j].Operands(f) {
				count(op)
			}
		}
		for _, op := range bb.Term.Operands() {
			count(op)
		}
	}
	return p
}

func (p *Plan) classify(v *ir.Value) Decision {
	switch v.Kind {
	case ir.ValueAlloc, ir.ValuePhi:
		return Erased
	case ir.ValueArrayAlloc:
		if v.Name != "" {
			return Statement
		}
		return Transient
	}
	if v.Name != "" && p.IsDeclared(v.Name) {
		return Materialized
	}
	return Transient
}

// IsDeclared reports whether name belongs to the declared-identifier set.
func (p *Plan) IsDeclared(name string) bool {
	_, ok := p.declared[identKey(name)]
	return ok
}

// Decision returns the decision for id; unknown IDs are transient.
func (p *Plan) Decision(id ir.ValueID) Decision {
	if id < 0 || int(id) >= len(p.decisions) {
		return Transient
	}
	return p.decisions[id]
}

// Uses returns the number of operand positions that reference id.
func (p *Plan) Uses(id ir.ValueID) int {
	if id < 0 || int(id) >= len(p.uses) {
		return 0
	}
	return p.uses[id]
}

// Named reports whether references to id render as a variable name.
func (p *Plan) Named(id ir.ValueID) bool {
	d := p.Decision(id)
	return d == Materialized || d == Statement
}

// identKey is the form names are compared in: producers may spell the same
// identifier in different Unicode normal forms.
func identKey(name string) string {
	return norm.NFC.String(name)
}
