package diag

import (
	"strconv"
	"strings"
)

// Location pins a diagnostic to a point of the control-flow graph.
// Block and Instr are -1 when the diagnostic is not tied to them.
type Location struct {
	Func  string
	Block string
	Instr int
}

// FuncLocation points at a whole function.
func FuncLocation(fn string) Location {
	return Location{Func: fn, Instr: -1}
}

// BlockLocation points at a block terminator or block as a whole.
func BlockLocation(fn, block string) Location {
	return Location{Func: fn, Block: block, Instr: -1}
}

// InstrLocation points at one instruction inside a block.
func InstrLocation(fn, block string, instr int) Location {
	return Location{Func: fn, Block: block, Instr: instr}
}

func (l Location) String() string {
	var b strings.Builder
	b.WriteString(l.Func)
	if l.Block != "" {
		b.WriteByte(':')
		b.WriteString(l.Block)
	}
	if l.Instr >= 0 && l.Block != "" {
		b.WriteByte('#')
		b.WriteString(strconv.Itoa(l.Instr))
	}
	return b.String()
}

// Less orders locations by function, block and instruction.
func (l Location) Less(o Location) bool {
	if l.Func != o.Func {
		return l.Func < o.Func
	}
	if l.Block != o.Block {
		return l.Block < o.Block
	}
	return l.Instr < o.Instr
}

type Note struct {
	Loc Location
	Msg string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  Location
	Notes    []Note
}
