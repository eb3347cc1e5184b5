package lower

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"

	"github.com/juris-lang/juris/internal/model"
	"github.com/juris-lang/juris/internal/target"
)

// scopeCompiler lowers one scope. It borrows the program compiler for the
// shared arena, the pre-allocated state chains and the declaration context.
type scopeCompiler struct {
	c  *compiler
	sc *model.Scope
}

func (sc *scopeCompiler) decls() *model.Decls { return sc.c.src.Decls }

func (sc *scopeCompiler) chain(name string) target.StateChain {
	return sc.c.chains[sc.sc.Name][name]
}

func (sc *scopeCompiler) calleeScope(call *model.SubScopeCall) *model.Scope {
	callee, _ := sc.c.src.Scope(call.Scope)
	return callee
}

func (sc *scopeCompiler) calleeChain(call *model.SubScopeCall, varName string) target.StateChain {
	return sc.c.chains[call.Scope][varName]
}

// compile produces the lowered scope: the signature lists every variable
// state in declaration order, the body linearizes definitions and calls in
// dependency order, and assertions come last. Any error is fatal for the
// whole scope.
func (sc *scopeCompiler) compile() (*target.ScopeDecl, hcl.Diagnostics) {
	decl := &target.ScopeDecl{Name: sc.sc.Name, DeclRange: sc.sc.DeclRange}
	for _, vd := range sc.sc.Vars {
		ch := sc.chain(vd.Name)
		if vd.Stateful() {
			for _, sv := range ch.States() {
				decl.Sig = append(decl.Sig, target.SigEntry{
					V:         sv.V,
					Name:      vd.Name,
					State:     sv.State,
					Type:      vd.Type,
					Io:        vd.Io,
					Condition: vd.Condition,
				})
			}
			continue
		}
		v, _ := ch.Whole()
		decl.Sig = append(decl.Sig, target.SigEntry{
			V:         v,
			Name:      vd.Name,
			Type:      vd.Type,
			Io:        vd.Io,
			Condition: vd.Condition,
		})
	}

	order, diags := sc.buildDepGraph().topoOrder()
	if diags.HasErrors() {
		return nil, diags
	}

	for _, vx := range order {
		if vx.isCall() {
			diags = append(diags, sc.emitCall(decl, sc.sc.Calls[vx.call])...)
			continue
		}
		diags = append(diags, sc.emitVar(decl, vx)...)
	}

	for _, a := range sc.sc.Asserts {
		e, moreDiags := sc.lowerExpr(a.Expr, sc.newEnv())
		diags = append(diags, moreDiags...)
		if e == nil {
			continue
		}
		decl.Body = append(decl.Body, &target.Assert{Mark: target.At(a.DeclRange), E: e})
	}

	if diags.HasErrors() {
		return nil, diags
	}
	return decl, diags
}

// emitVar lowers one own-variable state into a Define. Input variables
// contribute nothing: their slot is filled by the caller, and any rule
// targeting them is an error.
func (sc *scopeCompiler) emitVar(decl *target.ScopeDecl, vx vertex) hcl.Diagnostics {
	vd, ok := sc.sc.Var(vx.name)
	if !ok {
		return nil
	}
	def, ok := sc.sc.Def(model.DefKey{Var: vx.name, State: vx.state})
	if !ok {
		return nil
	}

	if vd.Io.Input == model.OnlyInput {
		if len(def.Rules) == 0 {
			return nil
		}
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Input variable redefined",
			Detail: fmt.Sprintf("Variable %q is an input of scope %q; its value comes from the caller and it cannot carry rules. Offending rules: %s.",
				vd.Name, sc.sc.Name, strings.Join(rulePositions(def.Rules), "; ")),
			Subject: def.Rules[0].DeclRange.Ptr(),
		}}
	}

	e, diags := sc.compileSite(def, ownVar)
	if e == nil {
		return diags
	}

	ch := sc.chain(vx.name)
	v := ch.Last()
	if vx.state != "" {
		if sv, found := ch.ForState(vx.state); found {
			v = sv
		}
	}
	decl.Body = append(decl.Body, &target.Define{
		Mark: target.At(def.DeclRange),
		Dest: target.LocalDest(v),
		Type: def.Type,
		Io:   def.Io,
		E:    e,
	})
	return diags
}

// emitCall lowers one subscope call: a Define per caller-suppliable slot of
// the callee, in the callee's declaration order, then the Call statement.
func (sc *scopeCompiler) emitCall(decl *target.ScopeDecl, call *model.SubScopeCall) hcl.Diagnostics {
	callee := sc.calleeScope(call)
	var diags hcl.Diagnostics
	for _, vd := range callee.Vars {
		site, ok := sc.sc.Def(model.DefKey{Call: call.Name, Var: vd.Name})
		if !ok {
			continue
		}
		if vd.Io.Input == model.NoInput {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Forbidden subscope redefinition",
				Detail: fmt.Sprintf("Variable %q of scope %q is %s; callers may only redefine its inputs. Offending rules: %s.",
					vd.Name, callee.Name, vd.Io, strings.Join(rulePositions(site.Rules), "; ")),
				Subject: site.Rules[0].DeclRange.Ptr(),
			})
			continue
		}
		if vd.Io.Input == model.OnlyInput && len(site.Rules) == 0 && !vd.Condition {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Missing subscope input",
				Detail: fmt.Sprintf("Input %q of scope %q must be defined for call %q.",
					vd.Name, call.Scope, call.Name),
				Subject: call.DeclRange.Ptr(),
			})
			continue
		}
		e, moreDiags := sc.compileSite(site, callerSlot)
		diags = append(diags, moreDiags...)
		if e == nil {
			continue
		}
		decl.Body = append(decl.Body, &target.Define{
			Mark: target.At(site.DeclRange),
			Dest: target.SubDest(call.Index, sc.calleeChain(call, vd.Name).First()),
			Type: vd.Type,
			Io:   vd.Io,
			E:    e,
		})
	}
	decl.Body = append(decl.Body, &target.Call{
		Mark:  target.At(call.DeclRange),
		Scope: call.Scope,
		Name:  call.Name,
		Index: call.Index,
	})
	return diags
}

func rulePositions(rules model.RuleSet) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.DeclRange.String())
	}
	return out
}
