package ir

import (
	"fmt"

	"fortio.org/safecast"
)

// Builder assembles a Func block by block. It is used by IR producers and
// by tests to build fixtures without spelling out every tagged struct.
type Builder struct {
	f *Func
}

// NewBuilder starts a function with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{f: &Func{ID: NoFuncID, Name: name, Result: VoidType, Entry: NoBlockID}}
}

// Func finalizes and returns the built function. The first block becomes the
// entry block unless SetEntry was called.
func (b *Builder) Func() *Func {
	if b.f.Entry == NoBlockID && len(b.f.Blocks) > 0 {
		b.f.Entry = 0
	}
	b.f.Normalize()
	return b.f
}

func (b *Builder) SetEntry(id BlockID) { b.f.Entry = id }
func (b *Builder) SetResult(t Type)    { b.f.Result = t }
func (b *Builder) Param(name string, t Type) {
	b.f.Params = append(b.f.Params, Param{Name: name, Type: t})
}
func (b *Builder) Local(name string, t Type) {
	b.f.Locals = append(b.f.Locals, Local{Name: name, Type: t})
}

// Block appends an unterminated block. The name is parsed into a region tag.
func (b *Builder) Block(name string) BlockID {
	id := mustID[BlockID](len(b.f.Blocks))
	bb := Block{ID: id, Name: name}
	if r, ok := ParseBlockName(name); ok {
		bb.Region = r
	}
	b.f.Blocks = append(b.f.Blocks, bb)
	return id
}

func mustID[T ~int32](n int) T {
	v, err := safecast.Conv[int32](n)
	if err != nil {
		panic(fmt.Sprintf("ir: id overflow: %v", err))
	}
	return T(v)
}

// Define appends v to the value arena and an InstrValue defining it to blk.
func (b *Builder) Define(blk BlockID, v Value) ValueID {
	id := mustID[ValueID](len(b.f.Values))
	v.ID = id
	b.f.Values = append(b.f.Values, v)
	bb := &b.f.Blocks[blk]
	bb.Instrs = append(bb.Instrs, Instr{Kind: InstrValue, Value: id})
	return id
}

func (b *Builder) Int(blk BlockID, n int64) ValueID {
	return b.Define(blk, Value{Type: IntType, Kind: ValueConst, Const: Const{Kind: ConstInt, Int: n}})
}

func (b *Builder) Bool(blk BlockID, v bool) ValueID {
	return b.Define(blk, Value{Type: BoolType, Kind: ValueConst, Const: Const{Kind: ConstBool, Bool: v}})
}

func (b *Builder) Str(blk BlockID, s string) ValueID {
	return b.Define(blk, Value{Type: StringType, Kind: ValueConst, Const: Const{Kind: ConstString, Str: s}})
}

// NamedInt defines a constant that carries a variable name.
func (b *Builder) NamedInt(blk BlockID, name string, n int64) ValueID {
	return b.Define(blk, Value{Name: name, Type: IntType, Kind: ValueConst, Const: Const{Kind: ConstInt, Int: n}})
}

// Var reads a named variable or parameter.
func (b *Builder) Var(blk BlockID, name string, t Type) ValueID {
	return b.Define(blk, Value{Type: t, Kind: ValueVarRef, VarRef: VarRef{Var: name}})
}

func (b *Builder) Global(blk BlockID, unit, name string, t Type) ValueID {
	return b.Define(blk, Value{Type: t, Kind: ValueGlobal, Global: GlobalRef{Name: name, Unit: unit}})
}

func (b *Builder) Binary(blk BlockID, name string, op BinOp, l, r ValueID) ValueID {
	t := IntType
	if op == OpAnd || op == OpOr {
		t = BoolType
	}
	return b.Define(blk, Value{Name: name, Type: t, Kind: ValueBinary, Binary: BinaryOp{Op: op, Left: l, Right: r}})
}

func (b *Builder) Unary(blk BlockID, name string, op UnOp, x ValueID) ValueID {
	t := IntType
	if op == OpNot {
		t = BoolType
	}
	return b.Define(blk, Value{Name: name, Type: t, Kind: ValueUnary, Unary: UnaryOp{Op: op, X: x}})
}

func (b *Builder) Compare(blk BlockID, name string, op CmpOp, l, r ValueID) ValueID {
	return b.Define(blk, Value{Name: name, Type: BoolType, Kind: ValueCompare, Compare: CompareOp{Op: op, Left: l, Right: r}})
}

func (b *Builder) Call(blk BlockID, name string, result Type, callee string, args ...ValueID) ValueID {
	return b.Define(blk, Value{Name: name, Type: result, Kind: ValueCall, Call: CallOp{Callee: callee, Args: args}})
}

func (b *Builder) MethodCall(blk BlockID, name string, result Type, recv ValueID, method string, args ...ValueID) ValueID {
	return b.Define(blk, Value{Name: name, Type: result, Kind: ValueMethodCall,
		MethodCall: MethodCallOp{Receiver: recv, Method: method, Args: args}})
}

func (b *Builder) Cast(blk BlockID, name string, x ValueID, t Type) ValueID {
	return b.Define(blk, Value{Name: name, Type: t, Kind: ValueCast, Cast: CastOp{X: x, Target: t}})
}

func (b *Builder) Field(blk BlockID, name string, t Type, x ValueID, field string) ValueID {
	return b.Define(blk, Value{Name: name, Type: t, Kind: ValueField, Field: FieldAccess{X: x, Field: field}})
}

func (b *Builder) Index(blk BlockID, name string, t Type, x, idx ValueID) ValueID {
	return b.Define(blk, Value{Name: name, Type: t, Kind: ValueIndex, Index: IndexAccess{X: x, Index: idx}})
}

func (b *Builder) Tuple(blk BlockID, name string, elems ...ValueID) ValueID {
	types := make([]Type, 0, len(elems))
	for _, e := range elems {
		types = append(types, b.f.Values[e].Type)
	}
	return b.Define(blk, Value{Name: name, Type: TupleType(types...), Kind: ValueTuple, Tuple: TupleLit{Elems: elems}})
}

func (b *Builder) TupleElem(blk BlockID, name string, t Type, tuple ValueID, index int) ValueID {
	return b.Define(blk, Value{Name: name, Type: t, Kind: ValueTupleElem, TupleElem: TupleElem{Tuple: tuple, Index: index}})
}

func (b *Builder) Load(blk BlockID, name string, t Type, addr ValueID) ValueID {
	return b.Define(blk, Value{Name: name, Type: t, Kind: ValueLoad, Load: LoadOp{Addr: addr}})
}

func (b *Builder) ArrayAlloc(blk BlockID, name string, elem Type, length ValueID) ValueID {
	return b.Define(blk, Value{Name: name, Type: ArrayType(elem), Kind: ValueArrayAlloc,
		ArrayAlloc: ArrayAlloc{Elem: elem, Len: length}})
}

func (b *Builder) Alloc(blk BlockID, name string, t Type) ValueID {
	return b.Define(blk, Value{Name: name, Type: t, Kind: ValueAlloc})
}

func (b *Builder) Phi(blk BlockID, name string, t Type, incoming ...ValueID) ValueID {
	return b.Define(blk, Value{Name: name, Type: t, Kind: ValuePhi, Phi: PhiOp{Incoming: incoming}})
}

// Store appends a store to a named variable.
func (b *Builder) Store(blk BlockID, name string, v ValueID) {
	b.appendInstr(blk, Instr{Kind: InstrStore, Value: NoValueID,
		Store: StoreInstr{Kind: StoreVar, Var: name, Object: NoValueID, Index: NoValueID, Value: v}})
}

// StoreIndex appends `arr[idx] = v`.
func (b *Builder) StoreIndex(blk BlockID, arr, idx, v ValueID) {
	b.appendInstr(blk, Instr{Kind: InstrStore, Value: NoValueID,
		Store: StoreInstr{Kind: StoreIndex, Object: arr, Index: idx, Value: v}})
}

// StoreField appends `obj.field = v`.
func (b *Builder) StoreField(blk BlockID, obj ValueID, field string, v ValueID) {
	b.appendInstr(blk, Instr{Kind: InstrStore, Value: NoValueID,
		Store: StoreInstr{Kind: StoreField, Object: obj, Index: NoValueID, Field: field, Value: v}})
}

func (b *Builder) Foreign(blk BlockID, platform, code string) {
	b.appendInstr(blk, Instr{Kind: InstrForeign, Value: NoValueID,
		Foreign: ForeignInstr{Platform: platform, Code: code}})
}

func (b *Builder) appendInstr(blk BlockID, ins Instr) {
	bb := &b.f.Blocks[blk]
	bb.Instrs = append(bb.Instrs, ins)
}

func (b *Builder) Branch(blk, target BlockID) {
	b.f.Blocks[blk].Term = Terminator{Kind: TermBranch, Branch: BranchTerm{Target: target}}
}

func (b *Builder) CondBranch(blk BlockID, cond ValueID, then, els BlockID) {
	b.f.Blocks[blk].Term = Terminator{Kind: TermCondBranch,
		CondBranch: CondBranchTerm{Cond: cond, Then: then, Else: els, Inc: NoBlockID}}
}

// LoopHeader is CondBranch with an explicit increment back-reference.
func (b *Builder) LoopHeader(blk BlockID, cond ValueID, then, els, inc BlockID) {
	b.f.Blocks[blk].Term = Terminator{Kind: TermCondBranch,
		CondBranch: CondBranchTerm{Cond: cond, Then: then, Else: els, Inc: inc}}
}

func (b *Builder) Return(blk BlockID, v ValueID) {
	b.f.Blocks[blk].Term = Terminator{Kind: TermReturn, Return: ReturnTerm{HasValue: true, Value: v}}
}

func (b *Builder) ReturnVoid(blk BlockID) {
	b.f.Blocks[blk].Term = Terminator{Kind: TermReturn, Return: ReturnTerm{Value: NoValueID}}
}

func (b *Builder) Unreachable(blk BlockID) {
	b.f.Blocks[blk].Term = Terminator{Kind: TermUnreachable}
}

func (b *Builder) Switch(blk BlockID, v ValueID, cases []SwitchCase, patterns []PatternCase, def, end BlockID) {
	b.f.Blocks[blk].Term = Terminator{Kind: TermSwitch, Switch: SwitchTerm{
		Value: v, Cases: cases, Patterns: patterns, Default: def, End: end,
	}}
}

func (b *Builder) Try(blk, try BlockID, catches []CatchClause, finally, end BlockID) {
	b.f.Blocks[blk].Term = Terminator{Kind: TermTry, Try: TryTerm{
		Try: try, Catches: catches, Finally: finally, End: end,
	}}
}

func (b *Builder) ForEach(blk BlockID, elem string, elemType Type, coll ValueID, body, end BlockID) {
	b.f.Blocks[blk].Term = Terminator{Kind: TermForEach, ForEach: ForEachTerm{
		Elem: elem, ElemType: elemType, Collection: coll, Body: body, End: end,
	}}
}
