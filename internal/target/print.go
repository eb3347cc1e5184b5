package target

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Printer renders a lowered program deterministically. Arena base names
// may collide (shared function parameters, same-named variables of
// different scopes); the printer resolves collisions with stable numeric
// suffixes, first claim wins the bare name. The memo table lives on the
// Printer, so concurrent printers never share state.
type Printer struct {
	arena *Arena
	names map[Var]string
	used  map[string]int
	calls map[int]string
}

// NewPrinter returns a printer over the given arena.
func NewPrinter(arena *Arena) *Printer {
	return &Printer{
		arena: arena,
		names: make(map[Var]string),
		used:  make(map[string]int),
	}
}

// VarName returns the printed name of v, assigning a suffix on the first
// use of a colliding base name.
func (p *Printer) VarName(v Var) string {
	if name, ok := p.names[v]; ok {
		return name
	}
	base := p.arena.Name(v)
	name := base
	if n := p.used[base]; n > 0 {
		name = fmt.Sprintf("%s#%d", base, n)
	}
	p.used[base]++
	p.names[v] = name
	return name
}

// Program renders every scope of the program.
func (p *Printer) Program(prog *Program) string {
	var b strings.Builder
	for i, sc := range prog.Scopes {
		if i > 0 {
			b.WriteString("\n")
		}
		p.writeScope(&b, sc)
	}
	return b.String()
}

// Scope renders a single lowered scope.
func (p *Printer) Scope(d *ScopeDecl) string {
	var b strings.Builder
	p.writeScope(&b, d)
	return b.String()
}

func (p *Printer) writeScope(b *strings.Builder, d *ScopeDecl) {
	fmt.Fprintf(b, "scope %s:\n", d.Name)

	// Signature entries claim their names first, so scope variables keep
	// their source names and synthetic helpers get the suffixes.
	for _, e := range d.Sig {
		mode := e.Io.String()
		if e.Condition {
			mode += " condition"
		}
		fmt.Fprintf(b, "  sig %s : %s [%s]\n", p.VarName(e.V), e.Type, mode)
	}

	p.calls = make(map[int]string)
	for _, st := range d.Body {
		if c, ok := st.(*Call); ok {
			p.calls[c.Index] = c.Name
		}
	}

	for _, st := range d.Body {
		switch s := st.(type) {
		case *Define:
			dest := ""
			if s.Dest.Local() {
				dest = p.VarName(s.Dest.V)
			} else {
				dest = p.calls[s.Dest.Call] + "." + p.VarName(s.Dest.V)
			}
			fmt.Fprintf(b, "  let %s : %s = %s\n", dest, s.Type, p.expr(s.E))
		case *Call:
			fmt.Fprintf(b, "  call %s as %s\n", s.Scope, s.Name)
		case *Assert:
			fmt.Fprintf(b, "  assert %s\n", p.expr(s.E))
		}
	}
}

func (p *Printer) expr(e Expr) string {
	switch n := e.(type) {
	case *Lit:
		return renderValue(n.Val)
	case *VarRef:
		return p.VarName(n.V)
	case *SubVarRef:
		return p.calls[n.Call] + "." + p.VarName(n.V)
	case *Empty:
		return "empty"
	case *Default:
		exs := make([]string, len(n.Exceptions))
		for i, ex := range n.Exceptions {
			exs[i] = p.expr(ex)
		}
		return fmt.Sprintf("default([%s], %s, %s)",
			strings.Join(exs, ", "), p.expr(n.Just), p.expr(n.Cons))
	case *ErrorOnEmpty:
		return fmt.Sprintf("error_empty(%s)", p.expr(n.E))
	case *Probe:
		return fmt.Sprintf("probe[%s](%s)", n.Rule, p.expr(n.E))
	case *Func:
		return fmt.Sprintf("(fun %s -> %s)", p.VarName(n.Param), p.expr(n.Body))
	case *App:
		return fmt.Sprintf("%s(%s)", p.expr(n.Fn), p.expr(n.Arg))
	case *If:
		return fmt.Sprintf("(if %s then %s else %s)",
			p.expr(n.Cond), p.expr(n.Then), p.expr(n.Else))
	case *Unary:
		return fmt.Sprintf("%s(%s)", n.Op, p.expr(n.E))
	case *Binary:
		return fmt.Sprintf("(%s %s %s)", p.expr(n.L), n.Op, p.expr(n.R))
	case *CallBuiltin:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = p.expr(a)
		}
		return fmt.Sprintf("%s(%s)", n.Name, strings.Join(args, ", "))
	case *StructLit:
		fields := make([]string, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = fmt.Sprintf("%s = %s", f.Name, p.expr(f.E))
		}
		return fmt.Sprintf("%s{%s}", n.Name, strings.Join(fields, ", "))
	case *Field:
		return fmt.Sprintf("%s.%s", p.expr(n.E), n.Name)
	case *Inject:
		if n.Payload == nil {
			return fmt.Sprintf("%s.%s", n.Enum, n.Case)
		}
		return fmt.Sprintf("%s.%s(%s)", n.Enum, n.Case, p.expr(n.Payload))
	case *Match:
		arms := make([]string, len(n.Arms))
		for i, arm := range n.Arms {
			if arm.Binder == NoVar {
				arms[i] = fmt.Sprintf("%s -> %s", arm.Case, p.expr(arm.Body))
			} else {
				arms[i] = fmt.Sprintf("%s %s -> %s", arm.Case, p.VarName(arm.Binder), p.expr(arm.Body))
			}
		}
		return fmt.Sprintf("match %s { %s }", p.expr(n.E), strings.Join(arms, "; "))
	case *Index:
		return fmt.Sprintf("%s[%s]", p.expr(n.E), p.expr(n.I))
	case *Tuple:
		items := make([]string, len(n.Items))
		for i, it := range n.Items {
			items[i] = p.expr(it)
		}
		return fmt.Sprintf("[%s]", strings.Join(items, ", "))
	}
	return "?"
}

func renderValue(v cty.Value) string {
	if v.IsNull() {
		return "null"
	}
	t := v.Type()
	switch {
	case t == cty.Number:
		return v.AsBigFloat().Text('g', -1)
	case t == cty.String:
		return fmt.Sprintf("%q", v.AsString())
	case t == cty.Bool:
		if v.True() {
			return "true"
		}
		return "false"
	case t.IsTupleType() || t.IsListType():
		var items []string
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			items = append(items, renderValue(ev))
		}
		return fmt.Sprintf("[%s]", strings.Join(items, ", "))
	case t.IsObjectType() || t.IsMapType():
		var items []string
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			items = append(items, fmt.Sprintf("%s = %s", k.AsString(), renderValue(ev)))
		}
		return fmt.Sprintf("{%s}", strings.Join(items, ", "))
	}
	return v.GoString()
}
