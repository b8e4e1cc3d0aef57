package stmt

import (
	"restruct/internal/diag"
	"restruct/internal/ir"
)

// Stmt is a statement node of the structured tree.
type Stmt interface {
	stmtNode()
}

// Assign stores Value into Target (an Ident, Index or Field).
type Assign struct {
	Target Expr
	Value  Expr
}

// Destructure assigns tuple elements to several variables at once.
// Targets are ordered by element index; an empty name discards the element.
type Destructure struct {
	Targets []string
	Value   Expr
}

// ExprStmt evaluates X for its side effect.
type ExprStmt struct {
	X Expr
}

type If struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
}

// While is a pre-test loop. Post holds the increment step, which runs after
// Body and before every Continue that targets this loop.
type While struct {
	Label   string
	Labeled bool
	Cond    Expr
	Body    []Stmt
	Post    []Stmt
}

// DoWhile is a post-test loop.
type DoWhile struct {
	Label   string
	Labeled bool
	Body    []Stmt
	Cond    Expr
}

// CaseLabel is either a value label or a pattern label.
type CaseLabel struct {
	Value   Expr
	Pattern *Pattern
}

// CaseGroup is one case body shared by every label that targets it.
type CaseGroup struct {
	Labels []CaseLabel
	Body   []Stmt
}

type Switch struct {
	// Label is printed only when Labeled: a break from a nested loop names it.
	Label     string
	Labeled   bool
	Scrutinee Expr
	Groups    []CaseGroup
	Default   []Stmt
}

// Pattern mirrors ir.Pattern with rendered operand expressions.
type Pattern struct {
	Kind    ir.PatternKind
	Type    ir.Type
	Binding string
	Op      ir.CmpOp
	Value   Expr
	Lo, Hi  Expr
	Elems   []Pattern
}

type Catch struct {
	Type    ir.Type
	Binding string
	Body    []Stmt
}

type TryCatch struct {
	Try        []Stmt
	Catches    []Catch
	HasFinally bool
	Finally    []Stmt
}

type ForEach struct {
	Label      string
	Labeled    bool
	Elem       string
	ElemType   ir.Type
	Collection Expr
	Body       []Stmt
}

// Return exits the function; Value is nil for a bare return.
type Return struct {
	Value Expr
}

// Break leaves the loop named Label, or the innermost loop when Label is empty.
type Break struct {
	Label string
}

// Continue starts the next iteration of the loop named Label, or of the
// innermost loop when Label is empty.
type Continue struct {
	Label string
}

// Foreign is inline code for the platform being targeted.
type Foreign struct {
	Platform string
	Code     string
}

// Placeholder marks a construct that could not be lowered; Diag describes why.
type Placeholder struct {
	Diag diag.Diagnostic
}

func (*Assign) stmtNode()      {}
func (*Destructure) stmtNode() {}
func (*ExprStmt) stmtNode()    {}
func (*If) stmtNode()          {}
func (*While) stmtNode()       {}
func (*DoWhile) stmtNode()     {}
func (*Switch) stmtNode()      {}
func (*TryCatch) stmtNode()    {}
func (*ForEach) stmtNode()     {}
func (*Return) stmtNode()      {}
func (*Break) stmtNode()       {}
func (*Continue) stmtNode()    {}
func (*Foreign) stmtNode()     {}
func (*Placeholder) stmtNode() {}

// Walk calls fn for every statement in body in pre-order, descending into
// nested bodies.
func Walk(body []Stmt, fn func(Stmt)) {
	for _, s := range body {
		fn(s)
		switch s := s.(type) {
		case *If:
			Walk(s.Then, fn)
			Walk(s.Else, fn)
		case *While:
			Walk(s.Body, fn)
			Walk(s.Post, fn)
		case *DoWhile:
			Walk(s.Body, fn)
		case *Switch:
			for i := range s.Groups {
				Walk(s.Groups[i].Body, fn)
			}
			Walk(s.Default, fn)
		case *TryCatch:
			Walk(s.Try, fn)
			for i := range s.Catches {
				Walk(s.Catches[i].Body, fn)
			}
			Walk(s.Finally, fn)
		case *ForEach:
			Walk(s.Body, fn)
		}
	}
}
