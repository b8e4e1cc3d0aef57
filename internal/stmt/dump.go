package stmt

import (
	"io"
	"strings"

	"restruct/internal/ir"
)

// DumpOptions configures the pseudo-code dump.
type DumpOptions struct {
	IndentWidth int
	UseTabs     bool
}

func (o DumpOptions) withDefaults() DumpOptions {
	if o.IndentWidth == 0 {
		o.IndentWidth = 4
	}
	return o
}

// Dump writes a C-like pseudo-code rendering of body. It is a debugging view
// of the tree, not a target-language emitter.
func Dump(w io.Writer, body []Stmt, opt DumpOptions) error {
	p := printer{opt: opt.withDefaults()}
	p.block(body)
	_, err := io.WriteString(w, p.sb.String())
	return err
}

// Format returns Dump output as a string.
func Format(body []Stmt) string {
	p := printer{opt: DumpOptions{}.withDefaults()}
	p.block(body)
	return p.sb.String()
}

type printer struct {
	sb    strings.Builder
	opt   DumpOptions
	level int
}

func (p *printer) line(parts ...string) {
	if p.opt.UseTabs {
		p.sb.WriteString(strings.Repeat("\t", p.level))
	} else {
		p.sb.WriteString(strings.Repeat(" ", p.level*p.opt.IndentWidth))
	}
	for _, s := range parts {
		p.sb.WriteString(s)
	}
	p.sb.WriteByte('\n')
}

func (p *printer) nested(body []Stmt) {
	p.level++
	p.block(body)
	p.level--
}

func (p *printer) block(body []Stmt) {
	for _, s := range body {
		p.stmt(s)
	}
}

func labelPrefix(label string, labeled bool) string {
	if !labeled || label == "" {
		return ""
	}
	return label + ": "
}

func (p *printer) stmt(s Stmt) {
	switch s := s.(type) {
	case *Assign:
		p.line(FormatExpr(s.Target), " = ", FormatExpr(s.Value))
	case *Destructure:
		names := make([]string, len(s.Targets))
		for i, n := range s.Targets {
			if n == "" {
				n = "_"
			}
			names[i] = n
		}
		p.line("(", strings.Join(names, ", "), ") = ", FormatExpr(s.Value))
	case *ExprStmt:
		p.line(FormatExpr(s.X))
	case *If:
		p.line("if (", FormatExpr(s.Cond), ") {")
		p.nested(s.Then)
		for len(s.Else) > 0 {
			// else-if chains print flat
			if inner, ok := s.Else[0].(*If); ok && len(s.Else) == 1 {
				p.line("} else if (", FormatExpr(inner.Cond), ") {")
				p.nested(inner.Then)
				s = inner
				continue
			}
			p.line("} else {")
			p.nested(s.Else)
			break
		}
		p.line("}")
	case *While:
		p.line(labelPrefix(s.Label, s.Labeled), "while (", FormatExpr(s.Cond), ") {")
		p.nested(s.Body)
		if len(s.Post) > 0 {
			p.level++
			p.line("// post")
			p.level--
			p.nested(s.Post)
		}
		p.line("}")
	case *DoWhile:
		p.line(labelPrefix(s.Label, s.Labeled), "do {")
		p.nested(s.Body)
		p.line("} while (", FormatExpr(s.Cond), ")")
	case *Switch:
		p.line(labelPrefix(s.Label, s.Labeled), "switch (", FormatExpr(s.Scrutinee), ") {")
		for i := range s.Groups {
			g := &s.Groups[i]
			for _, l := range g.Labels {
				p.line("case ", formatLabel(l), ":")
			}
			p.nested(g.Body)
		}
		p.line("default:")
		p.nested(s.Default)
		p.line("}")
	case *TryCatch:
		p.line("try {")
		p.nested(s.Try)
		for i := range s.Catches {
			c := &s.Catches[i]
			head := c.Type.String()
			if c.Binding != "" {
				head += " " + c.Binding
			}
			p.line("} catch (", head, ") {")
			p.nested(c.Body)
		}
		if s.HasFinally {
			p.line("} finally {")
			p.nested(s.Finally)
		}
		p.line("}")
	case *ForEach:
		p.line(labelPrefix(s.Label, s.Labeled), "foreach (", s.Elem, " in ", FormatExpr(s.Collection), ") {")
		p.nested(s.Body)
		p.line("}")
	case *Return:
		if s.Value == nil {
			p.line("return")
			return
		}
		p.line("return ", FormatExpr(s.Value))
	case *Break:
		if s.Label != "" {
			p.line("break ", s.Label)
			return
		}
		p.line("break")
	case *Continue:
		if s.Label != "" {
			p.line("continue ", s.Label)
			return
		}
		p.line("continue")
	case *Foreign:
		p.line("/* ", s.Platform, " */ ", s.Code)
	case *Placeholder:
		p.line("/* ", s.Diag.Code.String(), ": ", s.Diag.Message, " */")
	default:
		p.line("/* ? */")
	}
}

func formatLabel(l CaseLabel) string {
	if l.Pattern != nil {
		return FormatPattern(l.Pattern)
	}
	return FormatExpr(l.Value)
}

// FormatPattern renders a case pattern.
func FormatPattern(pt *Pattern) string {
	switch pt.Kind {
	case ir.PatternType:
		if pt.Binding != "" {
			return pt.Type.String() + " " + pt.Binding
		}
		return pt.Type.String()
	case ir.PatternRange:
		return FormatExpr(pt.Lo) + ".." + FormatExpr(pt.Hi)
	case ir.PatternCompare:
		return pt.Op.String() + " " + FormatExpr(pt.Value)
	case ir.PatternBind:
		return "var " + pt.Binding
	case ir.PatternConst:
		return FormatExpr(pt.Value)
	case ir.PatternOr:
		parts := make([]string, len(pt.Elems))
		for i := range pt.Elems {
			parts[i] = FormatPattern(&pt.Elems[i])
		}
		return strings.Join(parts, " | ")
	case ir.PatternTuple:
		parts := make([]string, len(pt.Elems))
		for i := range pt.Elems {
			parts[i] = FormatPattern(&pt.Elems[i])
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
	return "?"
}

// FormatExpr renders an expression in pseudo-code syntax.
func FormatExpr(e Expr) string {
	switch e := e.(type) {
	case nil:
		return "<nil>"
	case *Ident:
		return e.Name
	case *Lit:
		return ir.FormatConst(e.Value)
	case *Paren:
		return "(" + FormatExpr(e.X) + ")"
	case *Binary:
		return FormatExpr(e.X) + " " + e.Op.String() + " " + FormatExpr(e.Y)
	case *Unary:
		return e.Op.String() + FormatExpr(e.X)
	case *Compare:
		return FormatExpr(e.X) + " " + e.Op.String() + " " + FormatExpr(e.Y)
	case *Call:
		return e.Func + "(" + formatList(e.Args) + ")"
	case *MethodCall:
		return FormatExpr(e.Recv) + "." + e.Method + "(" + formatList(e.Args) + ")"
	case *Field:
		return FormatExpr(e.X) + "." + e.Name
	case *Index:
		return FormatExpr(e.X) + "[" + FormatExpr(e.Index) + "]"
	case *Cast:
		return "cast<" + e.Type.String() + ">(" + FormatExpr(e.X) + ")"
	case *TupleLit:
		return "(" + formatList(e.Elems) + ")"
	case *NewArray:
		if e.Len == nil {
			return "new " + e.Elem.String() + "[]"
		}
		return "new " + e.Elem.String() + "[" + FormatExpr(e.Len) + "]"
	case *Qualified:
		return e.Unit + "::" + e.Name
	case *Raw:
		return e.Text
	}
	return "<expr?>"
}

func formatList(args []Expr) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = FormatExpr(a)
	}
	return strings.Join(parts, ", ")
}

// CountOccurrences counts non-overlapping occurrences of needle in the
// formatted body. Used by tooling to audit expression duplication.
func CountOccurrences(body []Stmt, needle string) int {
	if needle == "" {
		return 0
	}
	return strings.Count(Format(body), needle)
}
