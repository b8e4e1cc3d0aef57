// Package extern holds the collaborators the lowering core consults for
// names and types it does not own: calls to functions outside the current
// function and rendering of IR types for declarations.
package extern

import (
	"restruct/internal/ir"
	"restruct/internal/stmt"
)

// Resolver maps external call targets and foreign globals to target
// expressions.
type Resolver interface {
	CanResolve(name string) bool
	// RenderCall returns the expression for calling name with args. A nil
	// args slice asks for a plain reference to name.
	RenderCall(name string, args []stmt.Expr) stmt.Expr
	// RequiredImports lists the imports the rendered expression needs.
	RequiredImports(name string) []string
}

// TypeRenderer renders IR types in target syntax.
type TypeRenderer interface {
	RenderType(t ir.Type) string
}

type none struct{}

func (none) CanResolve(string) bool                   { return false }
func (none) RenderCall(string, []stmt.Expr) stmt.Expr { return nil }
func (none) RequiredImports(string) []string          { return nil }

// None resolves nothing.
var None Resolver = none{}

type chain []Resolver

// Chain consults resolvers in order; the first that can resolve a name owns it.
func Chain(rs ...Resolver) Resolver {
	out := make(chain, 0, len(rs))
	for _, r := range rs {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (c chain) owner(name string) Resolver {
	for _, r := range c {
		if r.CanResolve(name) {
			return r
		}
	}
	return nil
}

func (c chain) CanResolve(name string) bool { return c.owner(name) != nil }

func (c chain) RenderCall(name string, args []stmt.Expr) stmt.Expr {
	if r := c.owner(name); r != nil {
		return r.RenderCall(name, args)
	}
	return nil
}

func (c chain) RequiredImports(name string) []string {
	if r := c.owner(name); r != nil {
		return r.RequiredImports(name)
	}
	return nil
}
