package ir

import (
	"errors"
	"fmt"
)

var (
	ErrUnterminated   = errors.New("block has no terminator")
	ErrBadTarget      = errors.New("branch target does not exist")
	ErrMissingDefault = errors.New("switch has no default block")
	ErrMissingEnd     = errors.New("construct has no end block")
	ErrBadValue       = errors.New("value reference does not exist")
	ErrBadEntry       = errors.New("entry block does not exist")
)

// BlockError reports a hand-off contract violation at a specific block.
type BlockError struct {
	Func  string
	Block BlockID
	Label string
	Err   error
}

func (e *BlockError) Error() string {
	if e.Detail() == "" {
		return fmt.Sprintf("%s: %s: %v", e.Func, e.Label, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v (%s)", e.Func, e.Label, e.Err, e.Detail())
}

// Detail is kept separate so errors.Is matching stays on the sentinel.
func (e *BlockError) Detail() string {
	var d *detailError
	if errors.As(e.Err, &d) {
		return d.detail
	}
	return ""
}

func (e *BlockError) Unwrap() error {
	return e.Err
}

type detailError struct {
	sentinel error
	detail   string
}

func (e *detailError) Error() string { return e.sentinel.Error() }
func (e *detailError) Unwrap() error { return e.sentinel }

// NewBlockError builds a BlockError for block id of f.
func NewBlockError(f *Func, id BlockID, sentinel error, format string, args ...any) *BlockError {
	label := fmt.Sprintf("bb%d", id)
	if bb := f.Block(id); bb != nil {
		label = bb.Label()
	}
	name := ""
	if f != nil {
		name = f.Name
	}
	var err error = sentinel
	if format != "" {
		err = &detailError{sentinel: sentinel, detail: fmt.Sprintf(format, args...)}
	}
	return &BlockError{Func: name, Block: id, Label: label, Err: err}
}

// Validate checks the hand-off contract invariants of f.
// Returns error if any invariant is violated.
func Validate(f *Func) error {
	if f == nil {
		return nil
	}
	if f.Block(f.Entry) == nil {
		return &BlockError{Func: f.Name, Block: f.Entry, Label: fmt.Sprintf("bb%d", f.Entry), Err: ErrBadEntry}
	}

	var errs []error
	valueExists := func(id ValueID) bool {
		return id >= 0 && int(id) < len(f.Values)
	}
	blockExists := func(id BlockID) bool {
		return id >= 0 && int(id) < len(f.Blocks)
	}

	for i := range f.Blocks {
		bb := &f.Blocks[i]
		id := BlockID(i)

		// 1. Every block ends in a terminator
		if !bb.Terminated() {
			errs = append(errs, NewBlockError(f, id, ErrUnterminated, ""))
			continue
		}

		// 2. Required region fields
		switch bb.Term.Kind {
		case TermSwitch:
			if bb.Term.Switch.Default == NoBlockID {
				errs = append(errs, NewBlockError(f, id, ErrMissingDefault, ""))
			}
			if bb.Term.Switch.End == NoBlockID {
				errs = append(errs, NewBlockError(f, id, ErrMissingEnd, "switch"))
			}
		case TermTry:
			if bb.Term.Try.End == NoBlockID {
				errs = append(errs, NewBlockError(f, id, ErrMissingEnd, "try"))
			}
		case TermForEach:
			if bb.Term.ForEach.End == NoBlockID {
				errs = append(errs, NewBlockError(f, id, ErrMissingEnd, "foreach"))
			}
		}

		// 3. Targets exist
		for _, succ := range bb.Term.Successors() {
			if succ == NoBlockID {
				continue // reported above
			}
			if !blockExists(succ) {
				errs = append(errs, NewBlockError(f, id, ErrBadTarget, "bb%d", succ))
			}
		}
		if bb.Term.Kind == TermCondBranch {
			inc := bb.Term.CondBranch.Inc
			if inc != NoBlockID && !blockExists(inc) {
				errs = append(errs, NewBlockError(f, id, ErrBadTarget, "inc bb%d", inc))
			}
		}

		// 4. Value references exist
		for j := range bb.Instrs {
			ins := &bb.Instrs[j]
			if ins.Kind == InstrValue && !valueExists(ins.Value) {
				errs = append(errs, NewBlockError(f, id, ErrBadValue, "instr %d defines v%d", j, ins.Value))
				continue
			}
			for _, op := range ins.Operands(f) {
				if !valueExists(op) {
					errs = append(errs, NewBlockError(f, id, ErrBadValue, "instr %d reads v%d", j, op))
				}
			}
		}
		for _, op := range bb.Term.Operands() {
			if !valueExists(op) {
				errs = append(errs, NewBlockError(f, id, ErrBadValue, "terminator reads v%d", op))
			}
		}
	}
	return errors.Join(errs...)
}
