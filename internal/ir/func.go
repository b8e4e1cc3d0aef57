package ir

import "strconv"

type Param struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

type Local struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// Global is a module-level variable visible to every function of the module.
type Global struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

type Func struct {
	ID     FuncID  `json:"id"`
	Name   string  `json:"name"`
	Params []Param `json:"params,omitempty"`
	Locals []Local `json:"locals,omitempty"`
	Result Type    `json:"result"`

	Blocks []Block `json:"blocks"`
	Entry  BlockID `json:"entry"`
	Values []Value `json:"values,omitempty"`
}

type Module struct {
	Name    string   `json:"name"`
	Globals []Global `json:"globals,omitempty"`
	Funcs   []*Func  `json:"funcs"`
}

// Block returns the block with the given ID, or nil when out of range.
func (f *Func) Block(id BlockID) *Block {
	if f == nil || id < 0 || int(id) >= len(f.Blocks) {
		return nil
	}
	return &f.Blocks[id]
}

// Value returns the value with the given ID, or nil when out of range.
func (f *Func) Value(id ValueID) *Value {
	if f == nil || id < 0 || int(id) >= len(f.Values) {
		return nil
	}
	return &f.Values[id]
}

// Normalize makes IDs match slice positions and fills missing region tags
// from block names.
func (f *Func) Normalize() {
	if f == nil {
		return
	}
	for i := range f.Blocks {
		bb := &f.Blocks[i]
		bb.ID = BlockID(i)
		if bb.Region.IsZero() && bb.Name != "" {
			if r, ok := ParseBlockName(bb.Name); ok {
				bb.Region = r
			}
		}
	}
	for i := range f.Values {
		f.Values[i].ID = ValueID(i)
	}
}

// FindRegion returns the first block tagged with kind, id and role.
func (f *Func) FindRegion(kind ConstructKind, id int, role Role) (BlockID, bool) {
	if f == nil {
		return NoBlockID, false
	}
	for i := range f.Blocks {
		r := f.Blocks[i].Region
		if r.Kind == kind && r.ID == id && r.Role == role {
			return BlockID(i), true
		}
	}
	return NoBlockID, false
}

// Reachable performs a DFS from the entry block and reports which blocks
// can be reached through terminator edges.
func (f *Func) Reachable() []bool {
	if f == nil {
		return nil
	}
	reachable := make([]bool, len(f.Blocks))
	stack := []BlockID{f.Entry}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id < 0 || int(id) >= len(f.Blocks) || reachable[id] {
			continue
		}
		reachable[id] = true
		stack = append(stack, f.Blocks[id].Term.Successors()...)
	}
	return reachable
}

// ReachableCount returns the number of blocks reachable from entry.
func (f *Func) ReachableCount() int {
	n := 0
	for _, r := range f.Reachable() {
		if r {
			n++
		}
	}
	return n
}

// Declared returns the function's declared-identifier set: parameters,
// locals and the given module globals.
func (f *Func) Declared(globals []Global) map[string]struct{} {
	out := make(map[string]struct{}, len(f.Params)+len(f.Locals)+len(globals))
	for _, p := range f.Params {
		out[p.Name] = struct{}{}
	}
	for _, l := range f.Locals {
		out[l.Name] = struct{}{}
	}
	for _, g := range globals {
		out[g.Name] = struct{}{}
	}
	return out
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
