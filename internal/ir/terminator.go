package ir

type TermKind uint8

const (
	TermNone TermKind = iota
	TermBranch
	TermCondBranch
	TermSwitch
	TermReturn
	TermTry
	TermForEach
	TermUnreachable
)

func (k TermKind) String() string {
	switch k {
	case TermNone:
		return "none"
	case TermBranch:
		return "br"
	case TermCondBranch:
		return "condbr"
	case TermSwitch:
		return "switch"
	case TermReturn:
		return "return"
	case TermTry:
		return "try"
	case TermForEach:
		return "foreach"
	case TermUnreachable:
		return "unreachable"
	}
	return "unknown"
}

type Terminator struct {
	Kind TermKind `json:"kind"`

	Branch     BranchTerm     `json:"branch,omitzero"`
	CondBranch CondBranchTerm `json:"cond_branch,omitzero"`
	Switch     SwitchTerm     `json:"switch,omitzero"`
	Return     ReturnTerm     `json:"return,omitzero"`
	Try        TryTerm        `json:"try,omitzero"`
	ForEach    ForEachTerm    `json:"foreach,omitzero"`
}

type BranchTerm struct {
	Target BlockID `json:"target"`
}

// CondBranchTerm branches on Cond. Inc is an optional explicit back-reference
// from a loop header to its increment block (NoBlockID when absent).
type CondBranchTerm struct {
	Cond ValueID `json:"cond"`
	Then BlockID `json:"then"`
	Else BlockID `json:"else"`
	Inc  BlockID `json:"inc"`
}

type SwitchCase struct {
	Value  ValueID `json:"value"`
	Target BlockID `json:"target"`
}

type PatternCase struct {
	Pattern Pattern `json:"pattern"`
	Target  BlockID `json:"target"`
}

// SwitchTerm dispatches on Value. Default and End are required.
type SwitchTerm struct {
	Value    ValueID       `json:"value"`
	Cases    []SwitchCase  `json:"cases,omitempty"`
	Patterns []PatternCase `json:"patterns,omitempty"`
	Default  BlockID       `json:"default"`
	End      BlockID       `json:"end"`
}

type ReturnTerm struct {
	HasValue bool    `json:"has_value,omitempty"`
	Value    ValueID `json:"value"`
}

type CatchClause struct {
	Type    Type    `json:"type"`
	Binding string  `json:"binding,omitempty"`
	Body    BlockID `json:"body"`
}

// TryTerm is an explicit try/catch/finally region. Finally is NoBlockID when
// there is no finally clause.
type TryTerm struct {
	Try     BlockID       `json:"try"`
	Catches []CatchClause `json:"catches,omitempty"`
	Finally BlockID       `json:"finally"`
	End     BlockID       `json:"end"`
}

type ForEachTerm struct {
	Elem       string  `json:"elem"`
	ElemType   Type    `json:"elem_type"`
	Collection ValueID `json:"collection"`
	Body       BlockID `json:"body"`
	End        BlockID `json:"end"`
}

// Successors returns every block the terminator may transfer control to.
func (t *Terminator) Successors() []BlockID {
	switch t.Kind {
	case TermBranch:
		return []BlockID{t.Branch.Target}
	case TermCondBranch:
		return []BlockID{t.CondBranch.Then, t.CondBranch.Else}
	case TermSwitch:
		out := make([]BlockID, 0, len(t.Switch.Cases)+len(t.Switch.Patterns)+2)
		for _, c := range t.Switch.Cases {
			out = append(out, c.Target)
		}
		for _, c := range t.Switch.Patterns {
			out = append(out, c.Target)
		}
		return append(out, t.Switch.Default, t.Switch.End)
	case TermTry:
		out := []BlockID{t.Try.Try}
		for _, c := range t.Try.Catches {
			out = append(out, c.Body)
		}
		if t.Try.Finally != NoBlockID {
			out = append(out, t.Try.Finally)
		}
		return append(out, t.Try.End)
	case TermForEach:
		return []BlockID{t.ForEach.Body, t.ForEach.End}
	}
	return nil
}

// Operands returns the value IDs read by the terminator.
func (t *Terminator) Operands() []ValueID {
	switch t.Kind {
	case TermCondBranch:
		return []ValueID{t.CondBranch.Cond}
	case TermSwitch:
		out := []ValueID{t.Switch.Value}
		for _, c := range t.Switch.Cases {
			out = append(out, c.Value)
		}
		for i := range t.Switch.Patterns {
			out = t.Switch.Patterns[i].Pattern.appendOperands(out)
		}
		return out
	case TermReturn:
		if t.Return.HasValue {
			return []ValueID{t.Return.Value}
		}
	case TermForEach:
		return []ValueID{t.ForEach.Collection}
	}
	return nil
}
