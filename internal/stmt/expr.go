package stmt

import "restruct/internal/ir"

// Expr is an expression node of the structured tree.
type Expr interface {
	exprNode()
}

// Ident names a materialized variable, parameter or global.
type Ident struct {
	Name string
}

// Lit is a literal constant.
type Lit struct {
	Value ir.Const
}

// Paren is explicit grouping inserted around compound operands.
type Paren struct {
	X Expr
}

type Binary struct {
	Op   ir.BinOp
	X, Y Expr
}

type Unary struct {
	Op ir.UnOp
	X  Expr
}

type Compare struct {
	Op   ir.CmpOp
	X, Y Expr
}

// Call invokes a function of the current module or a local callable.
type Call struct {
	Func string
	Args []Expr
}

type MethodCall struct {
	Recv   Expr
	Method string
	Args   []Expr
}

type Field struct {
	X    Expr
	Name string
}

type Index struct {
	X, Index Expr
}

type Cast struct {
	X    Expr
	Type ir.Type
}

type TupleLit struct {
	Elems []Expr
}

// NewArray allocates an array; Len is nil for unsized allocations.
type NewArray struct {
	Elem ir.Type
	Len  Expr
}

// Qualified references a global owned by another compilation unit.
type Qualified struct {
	Unit, Name string
}

// Raw is target text produced by an external name resolver.
type Raw struct {
	Text string
}

func (*Ident) exprNode()      {}
func (*Lit) exprNode()        {}
func (*Paren) exprNode()      {}
func (*Binary) exprNode()     {}
func (*Unary) exprNode()      {}
func (*Compare) exprNode()    {}
func (*Call) exprNode()       {}
func (*MethodCall) exprNode() {}
func (*Field) exprNode()      {}
func (*Index) exprNode()      {}
func (*Cast) exprNode()       {}
func (*TupleLit) exprNode()   {}
func (*NewArray) exprNode()   {}
func (*Qualified) exprNode()  {}
func (*Raw) exprNode()        {}

// IsCompound reports whether e is an operator expression that needs
// grouping when nested inside another operator.
func IsCompound(e Expr) bool {
	switch e.(type) {
	case *Binary, *Unary, *Compare, *Cast:
		return true
	}
	return false
}

// Not negates cond, grouping it when it is compound.
func Not(cond Expr) Expr {
	if IsCompound(cond) {
		cond = &Paren{X: cond}
	}
	return &Unary{Op: ir.OpNot, X: cond}
}
