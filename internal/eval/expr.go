package eval

import (
	"context"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/juris-lang/juris/internal/builtins"
	"github.com/juris-lang/juris/internal/ctxlog"
	"github.com/juris-lang/juris/internal/target"
)

// eval reduces one expression to a value. Emptiness flows through
// defaults and probes untouched; every strict construct converts it to a
// NoValueError at its own position.
func (in *Interp) eval(ctx context.Context, e target.Expr, fr *frame, b *bindings) (Value, error) {
	switch e := e.(type) {
	case *target.Lit:
		return Ground{V: e.Val}, nil

	case *target.Empty:
		return EmptyVal{}, nil

	case *target.VarRef:
		if v, ok := b.lookup(e.V); ok {
			return v, nil
		}
		if v, ok := fr.slots[e.V]; ok {
			return v, nil
		}
		return nil, evalErrf(e.Range(), "internal: unbound variable %q", in.prog.Arena.Name(e.V))

	case *target.SubVarRef:
		if v, ok := fr.subSlots[e.Call][e.V]; ok {
			return v, nil
		}
		return nil, evalErrf(e.Range(), "internal: subscope slot %q read before its call", in.prog.Arena.Name(e.V))

	case *target.Default:
		return in.evalDefault(ctx, e, fr, b)

	case *target.ErrorOnEmpty:
		v, err := in.eval(ctx, e.E, fr, b)
		if err != nil {
			return nil, err
		}
		if isEmpty(v) {
			return nil, &NoValueError{Pos: e.Range()}
		}
		return v, nil

	case *target.Probe:
		v, err := in.eval(ctx, e.E, fr, b)
		if err != nil {
			return nil, err
		}
		if g, ok := v.(Ground); ok && g.V.Type() == cty.Bool && g.V.True() {
			ctxlog.FromContext(ctx).DebugContext(ctx, "rule applied",
				"rule", e.Rule, "position", e.Range().String())
		}
		return v, nil

	case *target.Func:
		return Closure{Param: e.Param, Body: e.Body, Env: b}, nil

	case *target.App:
		fn, err := in.eval(ctx, e.Fn, fr, b)
		if err != nil {
			return nil, err
		}
		if isEmpty(fn) {
			return nil, &NoValueError{Pos: e.Fn.Range()}
		}
		cl, ok := fn.(Closure)
		if !ok {
			return nil, evalErrf(e.Fn.Range(), "value is not a function")
		}
		arg, err := in.eval(ctx, e.Arg, fr, b)
		if err != nil {
			return nil, err
		}
		if isEmpty(arg) {
			return nil, &NoValueError{Pos: e.Arg.Range()}
		}
		return in.eval(ctx, cl.Body, fr, cl.Env.bind(cl.Param, arg))

	case *target.If:
		cond, err := in.ground(ctx, e.Cond, fr, b)
		if err != nil {
			return nil, err
		}
		if cond.Type() != cty.Bool {
			return nil, evalErrf(e.Cond.Range(), "condition is %s, not bool", cond.Type().FriendlyName())
		}
		if cond.True() {
			return in.eval(ctx, e.Then, fr, b)
		}
		return in.eval(ctx, e.Else, fr, b)

	case *target.Unary:
		v, err := in.ground(ctx, e.E, fr, b)
		if err != nil {
			return nil, err
		}
		out, err := applyUnary(e, v)
		if err != nil {
			return nil, err
		}
		return Ground{V: out}, nil

	case *target.Binary:
		l, err := in.ground(ctx, e.L, fr, b)
		if err != nil {
			return nil, err
		}
		// Boolean operators short-circuit like their surface counterparts.
		if e.Op == target.OpAnd || e.Op == target.OpOr {
			if l.Type() != cty.Bool {
				return nil, evalErrf(e.L.Range(), "operand of %s is %s, not bool", e.Op, l.Type().FriendlyName())
			}
			if (e.Op == target.OpAnd && l.False()) || (e.Op == target.OpOr && l.True()) {
				return Ground{V: l}, nil
			}
			r, err := in.ground(ctx, e.R, fr, b)
			if err != nil {
				return nil, err
			}
			if r.Type() != cty.Bool {
				return nil, evalErrf(e.R.Range(), "operand of %s is %s, not bool", e.Op, r.Type().FriendlyName())
			}
			return Ground{V: r}, nil
		}
		r, err := in.ground(ctx, e.R, fr, b)
		if err != nil {
			return nil, err
		}
		out, err := applyBinary(e, l, r)
		if err != nil {
			return nil, err
		}
		return Ground{V: out}, nil

	case *target.CallBuiltin:
		args := make([]cty.Value, 0, len(e.Args))
		for _, a := range e.Args {
			v, err := in.ground(ctx, a, fr, b)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
		spec, ok := builtins.Lookup(e.Name)
		if !ok {
			return nil, evalErrf(e.Range(), "internal: unknown builtin %q", e.Name)
		}
		out, err := spec.Call(args)
		if err != nil {
			return nil, evalErrf(e.Range(), "%s: %s", e.Name, err)
		}
		return Ground{V: out}, nil

	case *target.StructLit:
		fields := make(map[string]cty.Value, len(e.Fields))
		for _, f := range e.Fields {
			v, err := in.ground(ctx, f.E, fr, b)
			if err != nil {
				return nil, err
			}
			fields[f.Name] = v
		}
		return Ground{V: cty.ObjectVal(fields)}, nil

	case *target.Field:
		v, err := in.ground(ctx, e.E, fr, b)
		if err != nil {
			return nil, err
		}
		if !v.Type().IsObjectType() || !v.Type().HasAttribute(e.Name) {
			return nil, evalErrf(e.Range(), "value of type %s has no field %q", v.Type().FriendlyName(), e.Name)
		}
		return Ground{V: v.GetAttr(e.Name)}, nil

	case *target.Inject:
		fields := map[string]cty.Value{
			caseAttr: cty.StringVal(e.Case),
		}
		if e.Payload != nil {
			v, err := in.ground(ctx, e.Payload, fr, b)
			if err != nil {
				return nil, err
			}
			fields[payloadAttr] = v
		}
		return Ground{V: cty.ObjectVal(fields)}, nil

	case *target.Match:
		v, err := in.ground(ctx, e.E, fr, b)
		if err != nil {
			return nil, err
		}
		if !v.Type().IsObjectType() || !v.Type().HasAttribute(caseAttr) {
			return nil, evalErrf(e.E.Range(), "match scrutinee is %s, not an enum value", v.Type().FriendlyName())
		}
		name := v.GetAttr(caseAttr).AsString()
		for _, arm := range e.Arms {
			if arm.Case != name {
				continue
			}
			armB := b
			if arm.Binder != target.NoVar {
				if !v.Type().HasAttribute(payloadAttr) {
					return nil, evalErrf(e.Range(), "case %q carries no payload", name)
				}
				armB = b.bind(arm.Binder, Ground{V: v.GetAttr(payloadAttr)})
			}
			return in.eval(ctx, arm.Body, fr, armB)
		}
		return nil, evalErrf(e.Range(), "enum %s has no arm for case %q", e.Enum, name)

	case *target.Index:
		coll, err := in.ground(ctx, e.E, fr, b)
		if err != nil {
			return nil, err
		}
		key, err := in.ground(ctx, e.I, fr, b)
		if err != nil {
			return nil, err
		}
		if !coll.CanIterateElements() {
			return nil, evalErrf(e.Range(), "value of type %s cannot be indexed", coll.Type().FriendlyName())
		}
		if coll.HasIndex(key).False() {
			return nil, evalErrf(e.Range(), "index out of range")
		}
		return Ground{V: coll.Index(key)}, nil

	case *target.Tuple:
		items := make([]cty.Value, 0, len(e.Items))
		for _, item := range e.Items {
			v, err := in.ground(ctx, item, fr, b)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		if len(items) == 0 {
			return Ground{V: cty.EmptyTupleVal}, nil
		}
		return Ground{V: cty.TupleVal(items)}, nil
	}

	return nil, evalErrf(e.Range(), "internal: unhandled expression node %T", e)
}

// Enum values are encoded as two-attribute objects.
const (
	caseAttr    = "case"
	payloadAttr = "payload"
)

// evalDefault is the calculus core: exceptions are tried first, exactly
// one may produce a value, and only when all decline does the
// justification guard the consequence.
func (in *Interp) evalDefault(ctx context.Context, e *target.Default, fr *frame, b *bindings) (Value, error) {
	var winner Value
	var winnerPositions []hcl.Range
	for _, exc := range e.Exceptions {
		v, err := in.eval(ctx, exc, fr, b)
		if err != nil {
			return nil, err
		}
		if isEmpty(v) {
			continue
		}
		winner = v
		winnerPositions = append(winnerPositions, exc.Range())
	}
	if len(winnerPositions) > 1 {
		return nil, &ConflictError{Pos: e.Range(), Positions: winnerPositions}
	}
	if len(winnerPositions) == 1 {
		return winner, nil
	}

	just, err := in.eval(ctx, e.Just, fr, b)
	if err != nil {
		return nil, err
	}
	if isEmpty(just) {
		return EmptyVal{}, nil
	}
	g, ok := just.(Ground)
	if !ok || g.V.Type() != cty.Bool {
		return nil, evalErrf(e.Just.Range(), "justification did not produce a boolean")
	}
	if g.V.False() {
		return EmptyVal{}, nil
	}
	return in.eval(ctx, e.Cons, fr, b)
}

// ground evaluates strictly: the result must be a plain data value.
func (in *Interp) ground(ctx context.Context, e target.Expr, fr *frame, b *bindings) (cty.Value, error) {
	v, err := in.eval(ctx, e, fr, b)
	if err != nil {
		return cty.NilVal, err
	}
	switch v := v.(type) {
	case Ground:
		return v.V, nil
	case EmptyVal:
		return cty.NilVal, &NoValueError{Pos: e.Range()}
	default:
		return cty.NilVal, evalErrf(e.Range(), "function value used where data is required")
	}
}
