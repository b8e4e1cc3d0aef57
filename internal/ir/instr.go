package ir

// InstrKind enumerates non-terminator instruction kinds.
type InstrKind uint8

const (
	// InstrValue defines a value; the value is the instruction's own result.
	InstrValue InstrKind = iota
	// InstrStore writes to a variable, array element or field.
	InstrStore
	// InstrForeign carries inline code for a specific target platform.
	InstrForeign
)

// Instr is a statement-level IR element. Terminators live in Block.Term.
type Instr struct {
	Kind InstrKind `json:"kind"`

	Value   ValueID      `json:"value"`
	Store   StoreInstr   `json:"store,omitzero"`
	Foreign ForeignInstr `json:"foreign,omitzero"`
}

// StoreKind distinguishes store destinations.
type StoreKind uint8

const (
	StoreVar StoreKind = iota
	StoreIndex
	StoreField
)

// StoreInstr writes Value to a destination. Object addresses an array or
// struct value for StoreIndex/StoreField.
type StoreInstr struct {
	Kind   StoreKind `json:"kind"`
	Var    string    `json:"var,omitempty"`
	Object ValueID   `json:"object"`
	Index  ValueID   `json:"index"`
	Field  string    `json:"field,omitempty"`
	Value  ValueID   `json:"value"`
}

type ForeignInstr struct {
	Platform string `json:"platform"`
	Code     string `json:"code"`
}

// Operands returns the value IDs the instruction reads. For InstrValue this
// is the operand list of the defined value, not the value itself.
func (ins *Instr) Operands(f *Func) []ValueID {
	switch ins.Kind {
	case InstrValue:
		return f.Value(ins.Value).Operands()
	case InstrStore:
		switch ins.Store.Kind {
		case StoreIndex:
			return []ValueID{ins.Store.Object, ins.Store.Index, ins.Store.Value}
		case StoreField:
			return []ValueID{ins.Store.Object, ins.Store.Value}
		default:
			return []ValueID{ins.Store.Value}
		}
	}
	return nil
}
