package lower

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/juris-lang/juris/internal/model"
	"github.com/juris-lang/juris/internal/target"
)

// sitePerspective distinguishes the two places a definition site compiles
// from: the defining scope itself, or the caller side of a subscope slot.
// The perspective decides the condition fallback and the empty-escape wrap.
type sitePerspective int

const (
	ownVar sitePerspective = iota
	callerSlot
)

// compileSite synthesizes the complete expression of one definition site:
// shape validation, optional condition fallback, rule forest, combine, and
// the wraps that keep emptiness from escaping where it must not.
func (sc *scopeCompiler) compileSite(def *model.ScopeDef, persp sitePerspective) (target.Expr, hcl.Diagnostics) {
	diags := checkFunctionShape(def)
	if diags.HasErrors() {
		return nil, diags
	}
	funcShape := model.IsFunc(def.Type)

	// The implicit "not eligible unless proven otherwise" fallback belongs
	// to a condition variable in its own scope, and to the caller for
	// input-only condition slots.
	wantFallback := def.Condition &&
		(persp == ownVar || def.Io.Input == model.OnlyInput)

	// Zero rules and no fallback lower to the empty literal directly, never
	// through the tree machinery. A caller slot must stay empty so the
	// callee can detect that no override was supplied, and a function-typed
	// tree would always be defined.
	if len(def.Rules) == 0 && !wantFallback {
		empty := &target.Empty{Mark: target.At(def.DeclRange)}
		if persp == ownVar {
			return &target.ErrorOnEmpty{Mark: target.At(def.DeclRange), E: empty}, diags
		}
		return empty, diags
	}

	st := &synthState{funcShape: funcShape}

	var forestExprs []target.Expr
	if len(def.Rules) > 0 {
		forest, moreDiags := buildRuleForest(def)
		diags = append(diags, moreDiags...)
		if diags.HasErrors() {
			return nil, diags
		}
		for _, tree := range forest {
			e, moreDiags := sc.synthesizeTree(tree, st)
			diags = append(diags, moreDiags...)
			if e != nil {
				forestExprs = append(forestExprs, e)
			}
		}
		if diags.HasErrors() {
			return nil, diags
		}
	}

	at := target.At(def.DeclRange)
	var body target.Expr
	switch {
	case len(forestExprs) == 0:
		body = fallbackTier(def.DeclRange)
	case wantFallback:
		body = &target.Default{
			Mark:       at,
			Exceptions: forestExprs,
			Just:       &target.Lit{Mark: at, Val: cty.True},
			Cons:       fallbackTier(def.DeclRange),
		}
	case len(forestExprs) == 1:
		body = forestExprs[0]
	default:
		// Several top-level base cases and nothing beneath them: force a
		// unique root that falls through to empty.
		body = &target.Default{
			Mark:       at,
			Exceptions: forestExprs,
			Just:       &target.Lit{Mark: at, Val: cty.True},
			Cons:       &target.Empty{Mark: at},
		}
	}

	reentrantSlot := persp == callerSlot && def.Io.Input == model.Reentrant
	switch {
	case funcShape:
		// A function value cannot be "absent"; emptiness converts to an
		// explicit no-value failure inside the shared binder.
		return &target.Func{
			Mark:  at,
			Param: st.param,
			Body:  &target.ErrorOnEmpty{Mark: at, E: body},
		}, diags
	case reentrantSlot:
		// Emptiness is the signal "no caller override"; it must escape.
		return body, diags
	default:
		return &target.ErrorOnEmpty{Mark: at, E: body}, diags
	}
}

// checkFunctionShape validates that every rule of the site agrees with the
// declared type on whether the definition is parameterized.
func checkFunctionShape(def *model.ScopeDef) hcl.Diagnostics {
	funcShape := model.IsFunc(def.Type)
	var offending model.RuleSet
	for _, r := range def.Rules {
		if (r.Param != "") != funcShape {
			offending = append(offending, r)
		}
	}
	if len(offending) == 0 {
		return nil
	}

	var funcs, plains []string
	for _, r := range def.Rules {
		pos := fmt.Sprintf("%s at %s", r.Name, r.DeclRange)
		if r.Param != "" {
			funcs = append(funcs, pos)
		} else {
			plains = append(plains, pos)
		}
	}
	var parts []string
	if len(funcs) > 0 {
		parts = append(parts, "with a parameter: "+strings.Join(funcs, ", "))
	}
	if len(plains) > 0 {
		parts = append(parts, "without: "+strings.Join(plains, ", "))
	}
	shape := "is not a function"
	if funcShape {
		shape = fmt.Sprintf("is a function (%s)", def.Type)
	}
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Mixed function and plain rules",
		Detail: fmt.Sprintf("%s %s, but its rules disagree on taking a parameter. Rules %s.",
			def.Key, shape, strings.Join(parts, "; ")),
		Subject: offending[0].DeclRange.Ptr(),
	}}
}
