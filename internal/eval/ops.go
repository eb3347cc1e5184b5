package eval

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/juris-lang/juris/internal/target"
)

func applyUnary(e *target.Unary, v cty.Value) (cty.Value, error) {
	switch e.Op {
	case target.OpNeg:
		if v.Type() != cty.Number {
			return cty.NilVal, evalErrf(e.Range(), "operand of %s is %s, not number", e.Op, v.Type().FriendlyName())
		}
		return v.Negate(), nil
	case target.OpNot:
		if v.Type() != cty.Bool {
			return cty.NilVal, evalErrf(e.Range(), "operand of %s is %s, not bool", e.Op, v.Type().FriendlyName())
		}
		return v.Not(), nil
	}
	return cty.NilVal, evalErrf(e.Range(), "internal: unhandled unary operator %s", e.Op)
}

func applyBinary(e *target.Binary, l, r cty.Value) (cty.Value, error) {
	switch e.Op {
	case target.OpEq:
		return l.Equals(r), nil
	case target.OpNeq:
		return l.Equals(r).Not(), nil
	}

	// Everything below is numeric.
	if l.Type() != cty.Number {
		return cty.NilVal, evalErrf(e.L.Range(), "operand of %s is %s, not number", e.Op, l.Type().FriendlyName())
	}
	if r.Type() != cty.Number {
		return cty.NilVal, evalErrf(e.R.Range(), "operand of %s is %s, not number", e.Op, r.Type().FriendlyName())
	}

	switch e.Op {
	case target.OpAdd:
		return l.Add(r), nil
	case target.OpSub:
		return l.Subtract(r), nil
	case target.OpMul:
		return l.Multiply(r), nil
	case target.OpDiv:
		if r.AsBigFloat().Sign() == 0 {
			return cty.NilVal, evalErrf(e.Range(), "division by zero")
		}
		return l.Divide(r), nil
	case target.OpMod:
		if r.AsBigFloat().Sign() == 0 {
			return cty.NilVal, evalErrf(e.Range(), "modulo by zero")
		}
		return l.Modulo(r), nil
	case target.OpLt:
		return l.LessThan(r), nil
	case target.OpLte:
		return l.LessThanOrEqualTo(r), nil
	case target.OpGt:
		return l.GreaterThan(r), nil
	case target.OpGte:
		return l.GreaterThanOrEqualTo(r), nil
	}
	return cty.NilVal, evalErrf(e.Range(), "internal: unhandled binary operator %s", e.Op)
}
