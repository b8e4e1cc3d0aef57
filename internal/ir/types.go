package ir

import "strings"

type FuncID int32
type BlockID int32
type ValueID int32

const (
	NoFuncID  FuncID  = -1
	NoBlockID BlockID = -1
	NoValueID ValueID = -1
)

// TypeKind classifies IR type descriptors.
type TypeKind uint8

const (
	TypeUnknown TypeKind = iota
	TypeVoid
	TypeBool
	TypeInt
	TypeFloat
	TypeString
	TypeNamed
	TypeTuple
	TypeArray
)

// Type is an IR type descriptor. Mapping it to target syntax is done by
// extern.TypeRenderer; the lowering core only asks whether a type is void.
type Type struct {
	Kind  TypeKind `json:"kind"`
	Name  string   `json:"name,omitempty"`
	Elems []Type   `json:"elems,omitempty"`
}

var (
	VoidType   = Type{Kind: TypeVoid}
	BoolType   = Type{Kind: TypeBool}
	IntType    = Type{Kind: TypeInt}
	FloatType  = Type{Kind: TypeFloat}
	StringType = Type{Kind: TypeString}
)

// NamedType returns a nominal type descriptor.
func NamedType(name string) Type {
	return Type{Kind: TypeNamed, Name: name}
}

// TupleType returns a tuple type with the given element types.
func TupleType(elems ...Type) Type {
	return Type{Kind: TypeTuple, Elems: elems}
}

// ArrayType returns an array type of elem.
func ArrayType(elem Type) Type {
	return Type{Kind: TypeArray, Elems: []Type{elem}}
}

func (t Type) IsVoid() bool {
	return t.Kind == TypeVoid
}

func (t Type) String() string {
	switch t.Kind {
	case TypeVoid:
		return "void"
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeNamed:
		return t.Name
	case TypeTuple:
		parts := make([]string, 0, len(t.Elems))
		for _, e := range t.Elems {
			parts = append(parts, e.String())
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case TypeArray:
		if len(t.Elems) == 0 {
			return "[]?"
		}
		return "[]" + t.Elems[0].String()
	default:
		return "?"
	}
}
