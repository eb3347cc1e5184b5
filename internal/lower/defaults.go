package lower

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/juris-lang/juris/internal/model"
	"github.com/juris-lang/juris/internal/target"
)

// synthState threads one definition site's shared function parameter
// through every level of tree synthesis. The parameter is allocated once,
// on the first rule that needs it, so every rule body of a function-typed
// variable binds the same identity.
type synthState struct {
	funcShape bool
	param     target.Var
	hasParam  bool
}

func (st *synthState) sharedParam(sc *scopeCompiler, name string) target.Var {
	if !st.hasParam {
		st.param = sc.c.arena.New(name)
		st.hasParam = true
	}
	return st.param
}

// synthesizeTree converts one rule tree into a single default expression.
// Exceptions are tried first; only when none applies does evaluation fall
// through to the base tier, whose same-priority rules are forced mutually
// exclusive by the false-justification combine.
func (sc *scopeCompiler) synthesizeTree(t *RuleTree, st *synthState) (target.Expr, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	rng := t.Rules[0].DeclRange

	baseDefaults := make([]target.Expr, 0, len(t.Rules))
	for _, r := range t.Rules {
		d, moreDiags := sc.synthesizeRule(r, st)
		diags = append(diags, moreDiags...)
		if d != nil {
			baseDefaults = append(baseDefaults, d)
		}
	}
	tier := &target.Default{
		Mark:       target.At(rng),
		Exceptions: baseDefaults,
		Just:       &target.Lit{Mark: target.At(rng), Val: cty.False},
		Cons:       &target.Empty{Mark: target.At(rng)},
	}
	if len(t.Exceptions) == 0 {
		return tier, diags
	}

	excepts := make([]target.Expr, 0, len(t.Exceptions))
	for _, sub := range t.Exceptions {
		e, moreDiags := sc.synthesizeTree(sub, st)
		diags = append(diags, moreDiags...)
		if e != nil {
			excepts = append(excepts, e)
		}
	}
	return &target.Default{
		Mark:       target.At(rng),
		Exceptions: excepts,
		Just:       &target.Lit{Mark: target.At(rng), Val: cty.True},
		Cons:       tier,
	}, diags
}

// synthesizeRule builds one rule's zero-exception default: the probed
// justification decides whether the consequence fires.
func (sc *scopeCompiler) synthesizeRule(r *model.Rule, st *synthState) (target.Expr, hcl.Diagnostics) {
	env := sc.newEnv()
	if st.funcShape {
		env.locals[r.Param] = st.sharedParam(sc, r.Param)
	}

	var diags hcl.Diagnostics
	var just target.Expr
	if r.Just == nil {
		just = &target.Lit{Mark: target.At(r.DeclRange), Val: cty.True}
	} else {
		var moreDiags hcl.Diagnostics
		just, moreDiags = sc.lowerExpr(r.Just, env)
		diags = append(diags, moreDiags...)
	}
	cons, moreDiags := sc.lowerExpr(r.Cons, env)
	diags = append(diags, moreDiags...)
	if just == nil || cons == nil {
		return nil, diags
	}

	return &target.Default{
		Mark:       target.At(r.DeclRange),
		Exceptions: nil,
		Just:       &target.Probe{Mark: target.At(just.Range()), Rule: r.Name, E: just},
		Cons:       cons,
	}, diags
}

// fallbackTier is the implicit tier of a condition variable: an
// always-true justification proving false, so an undefined condition means
// "not eligible" rather than "no value".
func fallbackTier(rng hcl.Range) target.Expr {
	ruleDefault := &target.Default{
		Mark: target.At(rng),
		Just: &target.Probe{
			Mark: target.At(rng),
			Rule: "default",
			E:    &target.Lit{Mark: target.At(rng), Val: cty.True},
		},
		Cons: &target.Lit{Mark: target.At(rng), Val: cty.False},
	}
	return &target.Default{
		Mark:       target.At(rng),
		Exceptions: []target.Expr{ruleDefault},
		Just:       &target.Lit{Mark: target.At(rng), Val: cty.False},
		Cons:       &target.Empty{Mark: target.At(rng)},
	}
}
