package ir

// PatternKind enumerates switch pattern matchers.
type PatternKind uint8

const (
	// PatternType tests the scrutinee's dynamic type, optionally binding it.
	PatternType PatternKind = iota
	// PatternRange matches Lo..Hi inclusive.
	PatternRange
	// PatternCompare matches `scrutinee Op Value`.
	PatternCompare
	// PatternBind binds the scrutinee to Binding unconditionally.
	PatternBind
	// PatternOr matches if any of Elems matches.
	PatternOr
	// PatternTuple deconstructs a tuple element-wise.
	PatternTuple
	// PatternConst matches a constant value.
	PatternConst
)

func (k PatternKind) String() string {
	switch k {
	case PatternType:
		return "type"
	case PatternRange:
		return "range"
	case PatternCompare:
		return "compare"
	case PatternBind:
		return "bind"
	case PatternOr:
		return "or"
	case PatternTuple:
		return "tuple"
	case PatternConst:
		return "const"
	}
	return "unknown"
}

// Pattern is a switch case matcher more general than a literal value.
type Pattern struct {
	Kind    PatternKind `json:"kind"`
	Type    Type        `json:"type,omitzero"`
	Binding string      `json:"binding,omitempty"`
	Op      CmpOp       `json:"op,omitempty"`
	Value   ValueID     `json:"value"`
	Lo      ValueID     `json:"lo"`
	Hi      ValueID     `json:"hi"`
	Elems   []Pattern   `json:"elems,omitempty"`
}

func (p *Pattern) appendOperands(out []ValueID) []ValueID {
	switch p.Kind {
	case PatternRange:
		out = append(out, p.Lo, p.Hi)
	case PatternCompare, PatternConst:
		out = append(out, p.Value)
	case PatternOr, PatternTuple:
		for i := range p.Elems {
			out = p.Elems[i].appendOperands(out)
		}
	}
	return out
}
