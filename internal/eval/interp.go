// Package eval interprets lowered programs. Execution is sequential per
// scope: every Define fills one slot, Call statements seed and run
// subscopes, and assertions check last. The prioritized default rules of
// the calculus surface as ConflictError and NoValueError values.
package eval

import (
	"context"
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"

	"github.com/juris-lang/juris/internal/ctxlog"
	"github.com/juris-lang/juris/internal/model"
	"github.com/juris-lang/juris/internal/target"
)

// Interp executes one lowered program. It is stateless across runs and
// safe to reuse.
type Interp struct {
	prog *target.Program
}

func New(prog *target.Program) *Interp {
	return &Interp{prog: prog}
}

// Result holds the outputs of one entry-scope run.
type Result struct {
	Scope string
	// Order lists output names in declaration order.
	Order  []string
	Values map[string]cty.Value
}

// RunScope executes the named scope as the program entry point. Mandatory
// inputs must all be supplied; unsupplied conditions default to false and
// unsupplied context variables fall back to their own rules.
func (in *Interp) RunScope(ctx context.Context, name string, inputs map[string]cty.Value) (*Result, error) {
	decl, ok := in.prog.Scope(name)
	if !ok {
		return nil, fmt.Errorf("unknown scope %q", name)
	}

	entries := decl.Inputs()
	known := make(map[string]bool, len(entries))
	seeds := make(map[target.Var]Value, len(entries))
	for _, entry := range entries {
		known[entry.Name] = true
		val, supplied := inputs[entry.Name]
		switch {
		case supplied:
			seeds[entry.V] = Ground{V: val}
		case entry.Condition:
			seeds[entry.V] = Ground{V: cty.False}
		case entry.Io.Input == model.Reentrant:
			seeds[entry.V] = EmptyVal{}
		default:
			return nil, &MissingInputError{Scope: name, Var: entry.Name}
		}
	}
	var unknown []string
	for k := range inputs {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("scope %q accepts no input named %q", name, unknown[0])
	}

	fr, err := in.runScope(ctx, decl, seeds)
	if err != nil {
		return nil, err
	}

	res := &Result{Scope: name, Values: make(map[string]cty.Value)}
	for _, entry := range decl.Outputs() {
		switch v := fr.slots[entry.V].(type) {
		case Ground:
			res.Order = append(res.Order, entry.Name)
			res.Values[entry.Name] = v.V
		case Closure:
			return nil, fmt.Errorf("scope %q: output %q is a function and cannot be returned", name, entry.Name)
		default:
			return nil, evalErrf(decl.DeclRange, "internal: output %q was never defined", entry.Name)
		}
	}
	return res, nil
}

// runScope executes a lowered scope body over pre-seeded slots and returns
// the finished frame.
func (in *Interp) runScope(ctx context.Context, decl *target.ScopeDecl, seeds map[target.Var]Value) (*frame, error) {
	fr := newFrame(decl)
	for v, val := range seeds {
		fr.slots[v] = val
	}
	ctxlog.FromContext(ctx).DebugContext(ctx, "running scope",
		"scope", decl.Name, "statements", len(decl.Body))

	for _, stmt := range decl.Body {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch s := stmt.(type) {
		case *target.Define:
			if err := in.execDefine(ctx, s, fr); err != nil {
				return nil, err
			}
		case *target.Call:
			if err := in.execCall(ctx, s, fr); err != nil {
				return nil, err
			}
		case *target.Assert:
			v, err := in.ground(ctx, s.E, fr, nil)
			if err != nil {
				return nil, err
			}
			if v.Type() != cty.Bool {
				return nil, evalErrf(s.E.Range(), "assertion is %s, not bool", v.Type().FriendlyName())
			}
			if v.False() {
				return nil, &AssertError{Pos: s.Range()}
			}
		}
	}
	return fr, nil
}

func (in *Interp) execDefine(ctx context.Context, s *target.Define, fr *frame) error {
	if s.Dest.Local() {
		// A non-empty caller-supplied value wins over the variable's own
		// rules.
		if s.Io.Input == model.Reentrant {
			if cur, ok := fr.slots[s.Dest.V]; ok && !isEmpty(cur) {
				return nil
			}
		}
		v, err := in.eval(ctx, s.E, fr, nil)
		if err != nil {
			return err
		}
		fr.slots[s.Dest.V] = v
		return nil
	}
	v, err := in.eval(ctx, s.E, fr, nil)
	if err != nil {
		return err
	}
	fr.sub(s.Dest.Call)[s.Dest.V] = v
	return nil
}

func (in *Interp) execCall(ctx context.Context, s *target.Call, fr *frame) error {
	callee, ok := in.prog.Scope(s.Scope)
	if !ok {
		return evalErrf(s.Range(), "internal: unknown scope %q", s.Scope)
	}
	sub := fr.sub(s.Index)
	calleeFr, err := in.runScope(ctx, callee, sub)
	if err != nil {
		return fmt.Errorf("call %q (scope %q) at %s: %w", s.Name, s.Scope, s.Range(), err)
	}
	// Callee outputs become readable through the call's slots.
	for _, entry := range callee.Outputs() {
		sub[entry.V] = calleeFr.slots[entry.V]
	}
	return nil
}
