package ir

import (
	"fmt"
	"io"
	"strings"
)

// DumpModule writes a human-readable listing of every function of m.
func DumpModule(w io.Writer, m *Module) error {
	if w == nil || m == nil {
		return nil
	}
	if len(m.Globals) > 0 {
		fmt.Fprintf(w, "globals=%d\n", len(m.Globals))
		for i, g := range m.Globals {
			fmt.Fprintf(w, "  G%d: %s name=%s\n", i, g.Type, g.Name)
		}
	}
	fmt.Fprintf(w, "funcs=%d\n", len(m.Funcs))
	for _, f := range m.Funcs {
		if err := DumpFunc(w, f); err != nil {
			return err
		}
	}
	return nil
}

// DumpFunc writes a human-readable listing of f.
func DumpFunc(w io.Writer, f *Func) error {
	if w == nil || f == nil {
		return nil
	}
	params := make([]string, 0, len(f.Params))
	for _, p := range f.Params {
		params = append(params, p.Name+": "+p.Type.String())
	}
	if _, err := fmt.Fprintf(w, "\nfn %s(%s) -> %s:\n", f.Name, strings.Join(params, ", "), f.Result); err != nil {
		return err
	}
	if len(f.Locals) > 0 {
		fmt.Fprintf(w, "  locals:\n")
		for _, l := range f.Locals {
			fmt.Fprintf(w, "    %s: %s\n", l.Name, l.Type)
		}
	}
	for i := range f.Blocks {
		bb := &f.Blocks[i]
		entry := ""
		if bb.ID == f.Entry {
			entry = " (entry)"
		}
		fmt.Fprintf(w, "  %s:%s\n", bb.Label(), entry)
		for j := range bb.Instrs {
			fmt.Fprintf(w, "    %s\n", FormatInstr(f, &bb.Instrs[j]))
		}
		if _, err := fmt.Fprintf(w, "    %s\n", FormatTerm(f, &bb.Term)); err != nil {
			return err
		}
	}
	return nil
}

func valueRef(id ValueID) string {
	return fmt.Sprintf("v%d", id)
}

func valueRefs(ids []ValueID) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, valueRef(id))
	}
	return strings.Join(parts, ", ")
}

func blockRef(f *Func, id BlockID) string {
	if bb := f.Block(id); bb != nil {
		return bb.Label()
	}
	return fmt.Sprintf("bb%d", id)
}

// FormatInstr renders one instruction in listing syntax.
func FormatInstr(f *Func, ins *Instr) string {
	if ins == nil {
		return "<instr?>"
	}
	switch ins.Kind {
	case InstrValue:
		v := f.Value(ins.Value)
		if v == nil {
			return fmt.Sprintf("%s = <missing>", valueRef(ins.Value))
		}
		lhs := valueRef(v.ID)
		if v.Name != "" {
			lhs += " " + v.Name
		}
		return fmt.Sprintf("%s = %s", lhs, FormatValue(v))
	case InstrStore:
		s := &ins.Store
		switch s.Kind {
		case StoreIndex:
			return fmt.Sprintf("store %s[%s] = %s", valueRef(s.Object), valueRef(s.Index), valueRef(s.Value))
		case StoreField:
			return fmt.Sprintf("store %s.%s = %s", valueRef(s.Object), s.Field, valueRef(s.Value))
		default:
			return fmt.Sprintf("store %s = %s", s.Var, valueRef(s.Value))
		}
	case InstrForeign:
		return fmt.Sprintf("foreign %s %q", ins.Foreign.Platform, ins.Foreign.Code)
	}
	return "<instr?>"
}

// FormatValue renders a value's definition.
func FormatValue(v *Value) string {
	switch v.Kind {
	case ValueConst:
		return "const " + FormatConst(v.Const)
	case ValueVarRef:
		return "var " + v.VarRef.Var
	case ValueGlobal:
		if v.Global.Unit != "" {
			return "global " + v.Global.Unit + "::" + v.Global.Name
		}
		return "global " + v.Global.Name
	case ValueBinary:
		return fmt.Sprintf("%s %s %s", valueRef(v.Binary.Left), v.Binary.Op, valueRef(v.Binary.Right))
	case ValueUnary:
		return fmt.Sprintf("%s%s", v.Unary.Op, valueRef(v.Unary.X))
	case ValueCompare:
		return fmt.Sprintf("cmp %s %s %s", valueRef(v.Compare.Left), v.Compare.Op, valueRef(v.Compare.Right))
	case ValueCall:
		return fmt.Sprintf("call %s(%s)", v.Call.Callee, valueRefs(v.Call.Args))
	case ValueMethodCall:
		return fmt.Sprintf("call %s.%s(%s)", valueRef(v.MethodCall.Receiver), v.MethodCall.Method, valueRefs(v.MethodCall.Args))
	case ValueLoad:
		return "load " + valueRef(v.Load.Addr)
	case ValueCast:
		return fmt.Sprintf("cast %s as %s", valueRef(v.Cast.X), v.Cast.Target)
	case ValueField:
		return fmt.Sprintf("%s.%s", valueRef(v.Field.X), v.Field.Field)
	case ValueTupleElem:
		return fmt.Sprintf("%s.%d", valueRef(v.TupleElem.Tuple), v.TupleElem.Index)
	case ValueIndex:
		return fmt.Sprintf("%s[%s]", valueRef(v.Index.X), valueRef(v.Index.Index))
	case ValueTuple:
		return "(" + valueRefs(v.Tuple.Elems) + ")"
	case ValueArrayAlloc:
		if v.ArrayAlloc.Len == NoValueID {
			return fmt.Sprintf("new [%s]", v.ArrayAlloc.Elem)
		}
		return fmt.Sprintf("new [%s; %s]", v.ArrayAlloc.Elem, valueRef(v.ArrayAlloc.Len))
	case ValueAlloc:
		return "alloc " + v.Type.String()
	case ValuePhi:
		return "phi " + valueRefs(v.Phi.Incoming)
	}
	return "<value?>"
}

// FormatConst renders a literal.
func FormatConst(c Const) string {
	if c.Text != "" {
		return c.Text
	}
	switch c.Kind {
	case ConstInt:
		return fmt.Sprintf("%d", c.Int)
	case ConstFloat:
		return fmt.Sprintf("%g", c.Float)
	case ConstBool:
		return fmt.Sprintf("%t", c.Bool)
	case ConstString:
		return fmt.Sprintf("%q", c.Str)
	case ConstNull:
		return "null"
	}
	return "?"
}

// FormatTerm renders a terminator in listing syntax.
func FormatTerm(f *Func, term *Terminator) string {
	if term == nil {
		return "<none>"
	}
	switch term.Kind {
	case TermNone:
		return "<none>"
	case TermBranch:
		return "br " + blockRef(f, term.Branch.Target)
	case TermCondBranch:
		out := fmt.Sprintf("condbr %s ? %s : %s", valueRef(term.CondBranch.Cond),
			blockRef(f, term.CondBranch.Then), blockRef(f, term.CondBranch.Else))
		if term.CondBranch.Inc != NoBlockID {
			out += " inc " + blockRef(f, term.CondBranch.Inc)
		}
		return out
	case TermSwitch:
		sw := &term.Switch
		var sb strings.Builder
		fmt.Fprintf(&sb, "switch %s {", valueRef(sw.Value))
		for _, c := range sw.Cases {
			fmt.Fprintf(&sb, " %s -> %s;", valueRef(c.Value), blockRef(f, c.Target))
		}
		for _, c := range sw.Patterns {
			fmt.Fprintf(&sb, " %s -> %s;", c.Pattern.Kind, blockRef(f, c.Target))
		}
		fmt.Fprintf(&sb, " default -> %s; } end %s", blockRef(f, sw.Default), blockRef(f, sw.End))
		return sb.String()
	case TermReturn:
		if !term.Return.HasValue {
			return "return"
		}
		return "return " + valueRef(term.Return.Value)
	case TermTry:
		t := &term.Try
		var sb strings.Builder
		fmt.Fprintf(&sb, "try %s", blockRef(f, t.Try))
		for _, c := range t.Catches {
			fmt.Fprintf(&sb, " catch(%s %s) %s", c.Type, c.Binding, blockRef(f, c.Body))
		}
		if t.Finally != NoBlockID {
			fmt.Fprintf(&sb, " finally %s", blockRef(f, t.Finally))
		}
		fmt.Fprintf(&sb, " end %s", blockRef(f, t.End))
		return sb.String()
	case TermForEach:
		fe := &term.ForEach
		return fmt.Sprintf("foreach %s: %s in %s body %s end %s", fe.Elem, fe.ElemType,
			valueRef(fe.Collection), blockRef(f, fe.Body), blockRef(f, fe.End))
	case TermUnreachable:
		return "unreachable"
	}
	return "<term?>"
}
