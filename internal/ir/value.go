package ir

// ValueKind enumerates the defining instruction kinds of IR values.
type ValueKind uint8

const (
	// ValueConst is a literal constant.
	ValueConst ValueKind = iota
	// ValueVarRef reads a named variable or parameter.
	ValueVarRef
	// ValueGlobal references a global, possibly owned by another compilation unit.
	ValueGlobal
	// ValueBinary is an arithmetic or logical binary operation.
	ValueBinary
	// ValueUnary is a unary operation.
	ValueUnary
	// ValueCompare is a comparison.
	ValueCompare
	// ValueCall calls a function by name.
	ValueCall
	// ValueMethodCall invokes a method on a receiver value.
	ValueMethodCall
	// ValueLoad reads through an address value.
	ValueLoad
	// ValueCast converts a value to another type.
	ValueCast
	// ValueField reads a named field.
	ValueField
	// ValueTupleElem extracts one tuple element.
	ValueTupleElem
	// ValueIndex reads an indexed element.
	ValueIndex
	// ValueTuple builds a tuple.
	ValueTuple
	// ValueArrayAlloc allocates an array that later stores address by name.
	ValueArrayAlloc
	// ValueAlloc is an allocation marker; erased during lowering.
	ValueAlloc
	// ValuePhi is an SSA merge marker; erased during lowering.
	ValuePhi
)

var valueKindNames = [...]string{
	ValueConst:      "const",
	ValueVarRef:     "var",
	ValueGlobal:     "global",
	ValueBinary:     "binary",
	ValueUnary:      "unary",
	ValueCompare:    "compare",
	ValueCall:       "call",
	ValueMethodCall: "method_call",
	ValueLoad:       "load",
	ValueCast:       "cast",
	ValueField:      "field",
	ValueTupleElem:  "tuple_elem",
	ValueIndex:      "index",
	ValueTuple:      "tuple",
	ValueArrayAlloc: "array_alloc",
	ValueAlloc:      "alloc",
	ValuePhi:        "phi",
}

func (k ValueKind) String() string {
	if int(k) < len(valueKindNames) {
		return valueKindNames[k]
	}
	return "unknown"
}

// Value is a node in the value graph. Values are referenced by ID.
type Value struct {
	ID   ValueID   `json:"id"`
	Name string    `json:"name,omitempty"`
	Type Type      `json:"type"`
	Kind ValueKind `json:"kind"`

	Const      Const        `json:"const,omitzero"`
	VarRef     VarRef       `json:"var_ref,omitzero"`
	Global     GlobalRef    `json:"global,omitzero"`
	Binary     BinaryOp     `json:"binary,omitzero"`
	Unary      UnaryOp      `json:"unary,omitzero"`
	Compare    CompareOp    `json:"compare,omitzero"`
	Call       CallOp       `json:"call,omitzero"`
	MethodCall MethodCallOp `json:"method_call,omitzero"`
	Load       LoadOp       `json:"load,omitzero"`
	Cast       CastOp       `json:"cast,omitzero"`
	Field      FieldAccess  `json:"field,omitzero"`
	TupleElem  TupleElem    `json:"tuple_elem,omitzero"`
	Index      IndexAccess  `json:"index,omitzero"`
	Tuple      TupleLit     `json:"tuple,omitzero"`
	ArrayAlloc ArrayAlloc   `json:"array_alloc,omitzero"`
	Phi        PhiOp        `json:"phi,omitzero"`
}

// ConstKind distinguishes constant kinds.
type ConstKind uint8

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstBool
	ConstString
	ConstNull
)

// Const represents a literal.
type Const struct {
	Kind ConstKind `json:"kind"`
	// Text preserves the producer's literal spelling when available.
	Text  string  `json:"text,omitempty"`
	Int   int64   `json:"int,omitempty"`
	Float float64 `json:"float,omitempty"`
	Bool  bool    `json:"bool,omitempty"`
	Str   string  `json:"str,omitempty"`
}

type VarRef struct {
	Var string `json:"var"`
}

// GlobalRef names a global. Unit is empty for globals of the current
// compilation unit.
type GlobalRef struct {
	Name string `json:"name"`
	Unit string `json:"unit,omitempty"`
}

type BinaryOp struct {
	Op    BinOp   `json:"op"`
	Left  ValueID `json:"left"`
	Right ValueID `json:"right"`
}

type UnaryOp struct {
	Op UnOp    `json:"op"`
	X  ValueID `json:"x"`
}

type CompareOp struct {
	Op    CmpOp   `json:"op"`
	Left  ValueID `json:"left"`
	Right ValueID `json:"right"`
}

type CallOp struct {
	Callee string    `json:"callee"`
	Args   []ValueID `json:"args,omitempty"`
}

type MethodCallOp struct {
	Receiver ValueID   `json:"receiver"`
	Method   string    `json:"method"`
	Args     []ValueID `json:"args,omitempty"`
}

type LoadOp struct {
	Addr ValueID `json:"addr"`
}

type CastOp struct {
	X      ValueID `json:"x"`
	Target Type    `json:"target"`
}

type FieldAccess struct {
	X     ValueID `json:"x"`
	Field string  `json:"field"`
}

type TupleElem struct {
	Tuple ValueID `json:"tuple"`
	Index int     `json:"index"`
}

type IndexAccess struct {
	X     ValueID `json:"x"`
	Index ValueID `json:"index"`
}

type TupleLit struct {
	Elems []ValueID `json:"elems"`
}

type ArrayAlloc struct {
	Elem Type    `json:"elem"`
	Len  ValueID `json:"len"`
}

type PhiOp struct {
	Incoming []ValueID `json:"incoming,omitempty"`
}

// Operands returns the value IDs referenced by v's definition, in operand order.
func (v *Value) Operands() []ValueID {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case ValueBinary:
		return []ValueID{v.Binary.Left, v.Binary.Right}
	case ValueUnary:
		return []ValueID{v.Unary.X}
	case ValueCompare:
		return []ValueID{v.Compare.Left, v.Compare.Right}
	case ValueCall:
		return v.Call.Args
	case ValueMethodCall:
		out := make([]ValueID, 0, len(v.MethodCall.Args)+1)
		out = append(out, v.MethodCall.Receiver)
		return append(out, v.MethodCall.Args...)
	case ValueLoad:
		return []ValueID{v.Load.Addr}
	case ValueCast:
		return []ValueID{v.Cast.X}
	case ValueField:
		return []ValueID{v.Field.X}
	case ValueTupleElem:
		return []ValueID{v.TupleElem.Tuple}
	case ValueIndex:
		return []ValueID{v.Index.X, v.Index.Index}
	case ValueTuple:
		return v.Tuple.Elems
	case ValueArrayAlloc:
		if v.ArrayAlloc.Len == NoValueID {
			return nil
		}
		return []ValueID{v.ArrayAlloc.Len}
	case ValuePhi:
		return v.Phi.Incoming
	default:
		return nil
	}
}

// HasSideEffect reports whether evaluating v may have an observable effect.
func (v *Value) HasSideEffect() bool {
	return v != nil && (v.Kind == ValueCall || v.Kind == ValueMethodCall)
}
