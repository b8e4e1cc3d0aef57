package ir

type Block struct {
	ID     BlockID    `json:"id"`
	Name   string     `json:"name,omitempty"`
	Region Region     `json:"region,omitzero"`
	Instrs []Instr    `json:"instrs,omitempty"`
	Term   Terminator `json:"term"`
}

func (b *Block) Terminated() bool {
	if b == nil {
		return true
	}
	return b.Term.Kind != TermNone
}

// Label returns the block name, or "bbN" for unnamed blocks.
func (b *Block) Label() string {
	if b == nil {
		return "<nil>"
	}
	if b.Name != "" {
		return b.Name
	}
	return "bb" + itoa(int(b.ID))
}
