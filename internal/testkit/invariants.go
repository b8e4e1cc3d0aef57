// Package testkit checks properties every lowering result must have. Tests
// of the lowering and driver packages run it on each function they lower.
package testkit

import (
	"errors"
	"fmt"
	"slices"

	"restruct/internal/ir"
	"restruct/internal/lower"
	"restruct/internal/stmt"
)

// CheckResult verifies res against the function it was lowered from:
//  1. Visited equals the number of blocks reachable from entry
//  2. Imports are sorted and free of repeats and empty names
//  3. every Decl names a local of f
//  4. every diagnostic points into f
//  5. every Break and Continue has a target: a loop, or for a Break a
//     switch, and a labeled jump names an enclosing labeled construct
func CheckResult(f *ir.Func, res *lower.Result) error {
	if f == nil || res == nil {
		return errors.New("nil function or result")
	}
	var errs []error
	if want := f.ReachableCount(); res.Visited != want {
		errs = append(errs, fmt.Errorf("visited %d blocks, %d reachable", res.Visited, want))
	}
	if !slices.IsSorted(res.Imports) {
		errs = append(errs, fmt.Errorf("imports not sorted: %v", res.Imports))
	}
	for i, imp := range res.Imports {
		if imp == "" {
			errs = append(errs, errors.New("empty import"))
		}
		if i > 0 && res.Imports[i-1] == imp {
			errs = append(errs, fmt.Errorf("import %q repeated", imp))
		}
	}
	for _, d := range res.Decls {
		if !slices.ContainsFunc(f.Locals, func(l ir.Local) bool { return l.Name == d.Name }) {
			errs = append(errs, fmt.Errorf("decl %q is not a local", d.Name))
		}
	}
	for _, d := range res.Diags {
		if d.Primary.Func != f.Name {
			errs = append(errs, fmt.Errorf("diagnostic %s points at %q", d.Code.ID(), d.Primary.Func))
		}
	}
	jc := &jumpChecker{}
	jc.list(res.Body)
	errs = append(errs, jc.errs...)
	return errors.Join(errs...)
}

type jumpScope struct {
	loop  bool
	label string
}

type jumpChecker struct {
	scopes []jumpScope
	errs   []error
}

func (c *jumpChecker) list(body []stmt.Stmt) {
	for _, s := range body {
		c.stmt(s)
	}
}

func (c *jumpChecker) nested(scope jumpScope, bodies ...[]stmt.Stmt) {
	c.scopes = append(c.scopes, scope)
	for _, b := range bodies {
		c.list(b)
	}
	c.scopes = c.scopes[:len(c.scopes)-1]
}

func scopeLabel(label string, labeled bool) string {
	if labeled {
		return label
	}
	return ""
}

func (c *jumpChecker) stmt(s stmt.Stmt) {
	switch s := s.(type) {
	case *stmt.If:
		c.list(s.Then)
		c.list(s.Else)
	case *stmt.While:
		c.nested(jumpScope{loop: true, label: scopeLabel(s.Label, s.Labeled)}, s.Body)
		// Post runs outside the body's jump scope
		c.list(s.Post)
	case *stmt.DoWhile:
		c.nested(jumpScope{loop: true, label: scopeLabel(s.Label, s.Labeled)}, s.Body)
	case *stmt.ForEach:
		c.nested(jumpScope{loop: true, label: scopeLabel(s.Label, s.Labeled)}, s.Body)
	case *stmt.Switch:
		bodies := make([][]stmt.Stmt, 0, len(s.Groups)+1)
		for _, g := range s.Groups {
			bodies = append(bodies, g.Body)
		}
		c.nested(jumpScope{label: scopeLabel(s.Label, s.Labeled)}, append(bodies, s.Default)...)
	case *stmt.TryCatch:
		c.list(s.Try)
		for _, cc := range s.Catches {
			c.list(cc.Body)
		}
		c.list(s.Finally)
	case *stmt.Break:
		c.jump("break", s.Label, false)
	case *stmt.Continue:
		c.jump("continue", s.Label, true)
	}
}

func (c *jumpChecker) jump(kind, label string, needLoop bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		sc := c.scopes[i]
		switch {
		case label != "":
			if sc.label == label && (sc.loop || !needLoop) {
				return
			}
		case sc.loop || !needLoop:
			return
		}
	}
	if label != "" {
		c.errs = append(c.errs, fmt.Errorf("%s %s has no enclosing construct with that label", kind, label))
		return
	}
	c.errs = append(c.errs, fmt.Errorf("%s outside of any loop", kind))
}
