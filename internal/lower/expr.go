package lower

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/juris-lang/juris/internal/builtins"
	"github.com/juris-lang/juris/internal/model"
	"github.com/juris-lang/juris/internal/target"
)

// exprEnv carries the names bound inside the expression being lowered:
// the shared rule parameter and match payload binders. Bound names shadow
// scope variables.
type exprEnv struct {
	locals map[string]target.Var
}

func (sc *scopeCompiler) newEnv() *exprEnv {
	return &exprEnv{locals: make(map[string]target.Var)}
}

func (env *exprEnv) child() *exprEnv {
	locals := make(map[string]target.Var, len(env.locals)+1)
	for k, v := range env.locals {
		locals[k] = v
	}
	return &exprEnv{locals: locals}
}

// lowerExpr rewrites one source expression into the lowered calculus,
// remapping every referenced name through the environment and the scope's
// state chains. It is shared verbatim by rule bodies and assertions.
func (sc *scopeCompiler) lowerExpr(expr hcl.Expression, env *exprEnv) (target.Expr, hcl.Diagnostics) {
	switch e := expr.(type) {
	case *hclsyntax.LiteralValueExpr:
		return &target.Lit{Mark: target.At(e.Range()), Val: e.Val}, nil

	case *hclsyntax.TemplateExpr:
		if e.IsStringLiteral() {
			return sc.lowerExpr(e.Parts[0], env)
		}
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unsupported expression",
			Detail:   "String templates are not part of the rules language; build strings with format(...).",
			Subject:  e.Range().Ptr(),
		}}

	case *hclsyntax.TemplateWrapExpr:
		return sc.lowerExpr(e.Wrapped, env)

	case *hclsyntax.ParenthesesExpr:
		return sc.lowerExpr(e.Expression, env)

	case *hclsyntax.ScopeTraversalExpr:
		return sc.lowerTraversal(e.Traversal, env)

	case *hclsyntax.RelativeTraversalExpr:
		base, diags := sc.lowerExpr(e.Source, env)
		if base == nil {
			return nil, diags
		}
		out, moreDiags := sc.applySteps(base, e.Traversal)
		return out, append(diags, moreDiags...)

	case *hclsyntax.FunctionCallExpr:
		return sc.lowerCall(e, env)

	case *hclsyntax.ConditionalExpr:
		cond, diags := sc.lowerExpr(e.Condition, env)
		thn, moreDiags := sc.lowerExpr(e.TrueResult, env)
		diags = append(diags, moreDiags...)
		els, moreDiags := sc.lowerExpr(e.FalseResult, env)
		diags = append(diags, moreDiags...)
		if cond == nil || thn == nil || els == nil {
			return nil, diags
		}
		return &target.If{Mark: target.At(e.Range()), Cond: cond, Then: thn, Else: els}, diags

	case *hclsyntax.IndexExpr:
		coll, diags := sc.lowerExpr(e.Collection, env)
		key, moreDiags := sc.lowerExpr(e.Key, env)
		diags = append(diags, moreDiags...)
		if coll == nil || key == nil {
			return nil, diags
		}
		return &target.Index{Mark: target.At(e.Range()), E: coll, I: key}, diags

	case *hclsyntax.UnaryOpExpr:
		op, ok := unaryOp(e.Op)
		if !ok {
			return nil, unsupportedDiag(e.Range(), "unary operator")
		}
		operand, diags := sc.lowerExpr(e.Val, env)
		if operand == nil {
			return nil, diags
		}
		return &target.Unary{Mark: target.At(e.Range()), Op: op, E: operand}, diags

	case *hclsyntax.BinaryOpExpr:
		op, ok := binaryOp(e.Op)
		if !ok {
			return nil, unsupportedDiag(e.Range(), "binary operator")
		}
		lhs, diags := sc.lowerExpr(e.LHS, env)
		rhs, moreDiags := sc.lowerExpr(e.RHS, env)
		diags = append(diags, moreDiags...)
		if lhs == nil || rhs == nil {
			return nil, diags
		}
		return &target.Binary{Mark: target.At(e.Range()), Op: op, L: lhs, R: rhs}, diags

	case *hclsyntax.TupleConsExpr:
		items := make([]target.Expr, 0, len(e.Exprs))
		var diags hcl.Diagnostics
		for _, item := range e.Exprs {
			out, moreDiags := sc.lowerExpr(item, env)
			diags = append(diags, moreDiags...)
			if out != nil {
				items = append(items, out)
			}
		}
		if diags.HasErrors() {
			return nil, diags
		}
		return &target.Tuple{Mark: target.At(e.Range()), Items: items}, diags

	case *hclsyntax.ObjectConsExpr:
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unsupported expression",
			Detail:   "A bare object has no meaning here; objects appear only as StructName({...}) literals and match(...) arm tables.",
			Subject:  e.Range().Ptr(),
		}}
	}

	return nil, unsupportedDiag(expr.Range(), "expression")
}

func unsupportedDiag(rng hcl.Range, what string) hcl.Diagnostics {
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Unsupported expression",
		Detail:   fmt.Sprintf("This %s is not part of the rules language.", what),
		Subject:  rng.Ptr(),
	}}
}

// lowerTraversal resolves a static reference: a bound local, a scope
// variable (optionally at an explicit state), a subscope result, or a unit
// enum case.
func (sc *scopeCompiler) lowerTraversal(tr hcl.Traversal, env *exprEnv) (target.Expr, hcl.Diagnostics) {
	root := tr.RootName()
	rootRng := tr[0].SourceRange()
	fullRng := tr.SourceRange()

	if v, ok := env.locals[root]; ok {
		return sc.applySteps(&target.VarRef{Mark: target.At(rootRng), V: v}, tr[1:])
	}

	if vd, ok := sc.sc.Var(root); ok {
		chain := sc.chain(root)
		rest := tr[1:]
		v := chain.Last()
		if vd.Stateful() && len(rest) > 0 {
			if idx, isIdx := rest[0].(hcl.TraverseIndex); isIdx && idx.Key.Type() == cty.String {
				if sv, found := chain.ForState(idx.Key.AsString()); found {
					v = sv
					rest = rest[1:]
				}
			}
		}
		return sc.applySteps(&target.VarRef{Mark: target.At(rootRng), V: v}, rest)
	}

	if call, ok := sc.sc.Call(root); ok {
		if len(tr) < 2 {
			return nil, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Invalid subscope reference",
				Detail:   fmt.Sprintf("%q names a call; read one of its outputs as %s.<variable>.", root, root),
				Subject:  fullRng.Ptr(),
			}}
		}
		attr, isAttr := tr[1].(hcl.TraverseAttr)
		if !isAttr {
			return nil, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Invalid subscope reference",
				Detail:   fmt.Sprintf("Read call %q's outputs as %s.<variable>.", root, root),
				Subject:  tr[1].SourceRange().Ptr(),
			}}
		}
		callee := sc.calleeScope(call)
		vd, found := callee.Var(attr.Name)
		if !found {
			var outputs []string
			for _, v := range callee.Vars {
				if v.Io.Output {
					outputs = append(outputs, v.Name)
				}
			}
			return nil, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Unknown subscope variable",
				Detail: fmt.Sprintf("Scope %q (called as %q) declares no variable named %q.%s",
					callee.Name, root, attr.Name, didYouMean(attr.Name, outputs)),
				Subject: attr.SrcRange.Ptr(),
			}}
		}
		if !vd.Io.Output {
			return nil, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Subscope variable is not an output",
				Detail: fmt.Sprintf("Variable %q of scope %q is %s; only outputs are visible to the caller.",
					attr.Name, callee.Name, vd.Io),
				Subject: attr.SrcRange.Ptr(),
			}}
		}
		ref := &target.SubVarRef{
			Mark: target.At(hcl.RangeBetween(rootRng, attr.SrcRange)),
			Call: call.Index,
			V:    sc.calleeChain(call, attr.Name).Last(),
		}
		return sc.applySteps(ref, tr[2:])
	}

	if ed, cd, ok := sc.decls().EnumForCase(root); ok {
		if cd.Payload != nil {
			return nil, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Missing case payload",
				Detail:   fmt.Sprintf("Case %q of enum %q carries a %s payload; construct it as %s(...).", root, ed.Name, cd.Payload, root),
				Subject:  rootRng.Ptr(),
			}}
		}
		return sc.applySteps(&target.Inject{Mark: target.At(rootRng), Enum: ed.Name, Case: root}, tr[1:])
	}

	if ed, ok := sc.decls().Enum(root); ok {
		if len(tr) >= 2 {
			if attr, isAttr := tr[1].(hcl.TraverseAttr); isAttr {
				cd, found := ed.Case(attr.Name)
				if !found {
					var cases []string
					for _, c := range ed.Cases {
						cases = append(cases, c.Name)
					}
					return nil, hcl.Diagnostics{{
						Severity: hcl.DiagError,
						Summary:  "Unknown case",
						Detail:   fmt.Sprintf("Enum %q has no case named %q.%s", ed.Name, attr.Name, didYouMean(attr.Name, cases)),
						Subject:  attr.SrcRange.Ptr(),
					}}
				}
				if cd.Payload != nil {
					return nil, hcl.Diagnostics{{
						Severity: hcl.DiagError,
						Summary:  "Missing case payload",
						Detail:   fmt.Sprintf("Case %q of enum %q carries a %s payload; construct it as %s(...).", attr.Name, ed.Name, cd.Payload, attr.Name),
						Subject:  attr.SrcRange.Ptr(),
					}}
				}
				inj := &target.Inject{
					Mark: target.At(hcl.RangeBetween(rootRng, attr.SrcRange)),
					Enum: ed.Name,
					Case: attr.Name,
				}
				return sc.applySteps(inj, tr[2:])
			}
		}
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid enum reference",
			Detail:   fmt.Sprintf("%q names an enum; reference one of its cases as %s.<case>.", root, root),
			Subject:  fullRng.Ptr(),
		}}
	}

	return nil, hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Unknown reference",
		Detail: fmt.Sprintf("Scope %q declares nothing named %q.%s",
			sc.sc.Name, root, didYouMean(root, sc.referenceNames(env))),
		Subject: rootRng.Ptr(),
	}}
}

// applySteps lowers the remaining traversal steps over an already-lowered
// base: attribute steps become field projections, string keys become field
// projections too, and everything else indexes a list.
func (sc *scopeCompiler) applySteps(base target.Expr, steps hcl.Traversal) (target.Expr, hcl.Diagnostics) {
	out := base
	for _, step := range steps {
		switch s := step.(type) {
		case hcl.TraverseAttr:
			out = &target.Field{
				Mark: target.At(hcl.RangeBetween(out.Range(), s.SrcRange)),
				E:    out,
				Name: s.Name,
			}
		case hcl.TraverseIndex:
			mark := target.At(hcl.RangeBetween(out.Range(), s.SrcRange))
			if s.Key.Type() == cty.String {
				out = &target.Field{Mark: mark, E: out, Name: s.Key.AsString()}
			} else {
				out = &target.Index{
					Mark: mark,
					E:    out,
					I:    &target.Lit{Mark: target.At(s.SrcRange), Val: s.Key},
				}
			}
		default:
			return nil, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Unsupported reference",
				Detail:   "This reference form is not part of the rules language.",
				Subject:  step.SourceRange().Ptr(),
			}}
		}
	}
	return out, nil
}

// lowerCall resolves name(args): the match form, application of a
// function-typed variable, a struct literal, an enum injection, or a
// builtin.
func (sc *scopeCompiler) lowerCall(e *hclsyntax.FunctionCallExpr, env *exprEnv) (target.Expr, hcl.Diagnostics) {
	if e.Name == "match" {
		return sc.lowerMatch(e, env)
	}

	if v, ok := env.locals[e.Name]; ok {
		return sc.lowerApp(e, &target.VarRef{Mark: target.At(e.NameRange), V: v}, env)
	}
	if vd, ok := sc.sc.Var(e.Name); ok {
		if !model.IsFunc(vd.Type) {
			return nil, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Not a function",
				Detail:   fmt.Sprintf("Variable %q has type %s and cannot be applied.", e.Name, vd.Type),
				Subject:  e.NameRange.Ptr(),
			}}
		}
		fn := &target.VarRef{Mark: target.At(e.NameRange), V: sc.chain(e.Name).Last()}
		return sc.lowerApp(e, fn, env)
	}

	if sd, ok := sc.decls().Struct(e.Name); ok {
		return sc.lowerStructLit(e, sd, env)
	}

	if ed, cd, ok := sc.decls().EnumForCase(e.Name); ok {
		if cd.Payload == nil {
			return nil, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Unexpected case payload",
				Detail:   fmt.Sprintf("Case %q of enum %q carries no payload; write it bare.", e.Name, ed.Name),
				Subject:  e.NameRange.Ptr(),
			}}
		}
		if len(e.Args) != 1 {
			return nil, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Wrong argument count",
				Detail:   fmt.Sprintf("Case %q takes exactly one payload argument.", e.Name),
				Subject:  e.Range().Ptr(),
			}}
		}
		payload, diags := sc.lowerExpr(e.Args[0], env)
		if payload == nil {
			return nil, diags
		}
		return &target.Inject{
			Mark:    target.At(e.Range()),
			Enum:    ed.Name,
			Case:    e.Name,
			Payload: payload,
		}, diags
	}

	if spec, ok := builtins.Lookup(e.Name); ok {
		if err := spec.CheckArity(len(e.Args)); err != nil {
			return nil, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Wrong argument count",
				Detail:   fmt.Sprintf("Builtin %q %s.", e.Name, err),
				Subject:  e.Range().Ptr(),
			}}
		}
		args := make([]target.Expr, 0, len(e.Args))
		var diags hcl.Diagnostics
		for _, a := range e.Args {
			out, moreDiags := sc.lowerExpr(a, env)
			diags = append(diags, moreDiags...)
			if out != nil {
				args = append(args, out)
			}
		}
		if diags.HasErrors() {
			return nil, diags
		}
		return &target.CallBuiltin{Mark: target.At(e.Range()), Name: e.Name, Args: args}, diags
	}

	options := append(builtins.Names(), sc.referenceNames(env)...)
	for _, s := range sc.decls().Structs {
		options = append(options, s.Name)
	}
	return nil, hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Unknown function",
		Detail:   fmt.Sprintf("Nothing named %q can be called here.%s", e.Name, didYouMean(e.Name, options)),
		Subject:  e.NameRange.Ptr(),
	}}
}

func (sc *scopeCompiler) lowerApp(e *hclsyntax.FunctionCallExpr, fn target.Expr, env *exprEnv) (target.Expr, hcl.Diagnostics) {
	if len(e.Args) != 1 {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Wrong argument count",
			Detail:   "Function-typed variables take exactly one argument.",
			Subject:  e.Range().Ptr(),
		}}
	}
	arg, diags := sc.lowerExpr(e.Args[0], env)
	if arg == nil {
		return nil, diags
	}
	return &target.App{Mark: target.At(e.Range()), Fn: fn, Arg: arg}, diags
}

func (sc *scopeCompiler) lowerStructLit(e *hclsyntax.FunctionCallExpr, sd *model.StructDecl, env *exprEnv) (target.Expr, hcl.Diagnostics) {
	if len(e.Args) != 1 {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid struct literal",
			Detail:   fmt.Sprintf("Construct %q as %s({field = value, ...}).", sd.Name, sd.Name),
			Subject:  e.Range().Ptr(),
		}}
	}
	obj, ok := e.Args[0].(*hclsyntax.ObjectConsExpr)
	if !ok {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid struct literal",
			Detail:   fmt.Sprintf("Construct %q as %s({field = value, ...}).", sd.Name, sd.Name),
			Subject:  e.Args[0].Range().Ptr(),
		}}
	}

	var diags hcl.Diagnostics
	given := make(map[string]target.Expr, len(obj.Items))
	for _, item := range obj.Items {
		keyVal, keyDiags := item.KeyExpr.Value(nil)
		if keyDiags.HasErrors() || keyVal.Type() != cty.String {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid struct field key",
				Detail:   "Struct literal keys must be plain field names.",
				Subject:  item.KeyExpr.Range().Ptr(),
			})
			continue
		}
		fname := keyVal.AsString()
		if _, declared := sd.Field(fname); !declared {
			var fields []string
			for _, f := range sd.Fields {
				fields = append(fields, f.Name)
			}
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unknown struct field",
				Detail:   fmt.Sprintf("Struct %q has no field named %q.%s", sd.Name, fname, didYouMean(fname, fields)),
				Subject:  item.KeyExpr.Range().Ptr(),
			})
			continue
		}
		if _, dup := given[fname]; dup {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate struct field",
				Detail:   fmt.Sprintf("Field %q is assigned twice.", fname),
				Subject:  item.KeyExpr.Range().Ptr(),
			})
			continue
		}
		val, moreDiags := sc.lowerExpr(item.ValueExpr, env)
		diags = append(diags, moreDiags...)
		if val != nil {
			given[fname] = val
		}
	}

	var missing []string
	fields := make([]target.FieldInit, 0, len(sd.Fields))
	for _, f := range sd.Fields {
		val, present := given[f.Name]
		if !present {
			missing = append(missing, f.Name)
			continue
		}
		fields = append(fields, target.FieldInit{Name: f.Name, E: val})
	}
	if len(missing) > 0 && !diags.HasErrors() {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing struct fields",
			Detail:   fmt.Sprintf("Struct %q requires %s.", sd.Name, strings.Join(missing, ", ")),
			Subject:  e.Range().Ptr(),
		})
	}
	if diags.HasErrors() {
		return nil, diags
	}
	return &target.StructLit{Mark: target.At(e.Range()), Name: sd.Name, Fields: fields}, diags
}

// lowerMatch lowers match(e, { Case = body, ... }): arms are validated
// against the enum owning the first arm's case, must cover every case
// exactly once, and are normalized to declaration order. A payload arm
// binds its value as `payload`.
func (sc *scopeCompiler) lowerMatch(e *hclsyntax.FunctionCallExpr, env *exprEnv) (target.Expr, hcl.Diagnostics) {
	if len(e.Args) != 2 {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid match",
			Detail:   "Write match(value, { Case = result, ... }).",
			Subject:  e.Range().Ptr(),
		}}
	}
	scrutinee, diags := sc.lowerExpr(e.Args[0], env)

	obj, ok := e.Args[1].(*hclsyntax.ObjectConsExpr)
	if !ok {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid match",
			Detail:   "The second argument of match(...) must be an arm table { Case = result, ... }.",
			Subject:  e.Args[1].Range().Ptr(),
		})
		return nil, diags
	}

	type rawArm struct {
		name string
		body hclsyntax.Expression
		rng  hcl.Range
	}
	var raw []rawArm
	seen := make(map[string]bool)
	for _, item := range obj.Items {
		keyVal, keyDiags := item.KeyExpr.Value(nil)
		if keyDiags.HasErrors() || keyVal.Type() != cty.String {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid match arm",
				Detail:   "Match arm keys must be plain case names.",
				Subject:  item.KeyExpr.Range().Ptr(),
			})
			continue
		}
		name := keyVal.AsString()
		if seen[name] {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate match arm",
				Detail:   fmt.Sprintf("Case %q already has an arm.", name),
				Subject:  item.KeyExpr.Range().Ptr(),
			})
			continue
		}
		seen[name] = true
		raw = append(raw, rawArm{name: name, body: item.ValueExpr, rng: item.KeyExpr.Range()})
	}
	if len(raw) == 0 {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid match",
			Detail:   "A match needs at least one arm.",
			Subject:  e.Args[1].Range().Ptr(),
		})
		return nil, diags
	}

	ed, _, ok := sc.decls().EnumForCase(raw[0].name)
	if !ok {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unknown case",
			Detail:   fmt.Sprintf("No enum declares a case named %q.", raw[0].name),
			Subject:  raw[0].rng.Ptr(),
		})
		return nil, diags
	}

	byName := make(map[string]rawArm, len(raw))
	for _, arm := range raw {
		if _, declared := ed.Case(arm.name); !declared {
			var cases []string
			for _, c := range ed.Cases {
				cases = append(cases, c.Name)
			}
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unknown case",
				Detail:   fmt.Sprintf("Enum %q has no case named %q.%s", ed.Name, arm.name, didYouMean(arm.name, cases)),
				Subject:  arm.rng.Ptr(),
			})
			continue
		}
		byName[arm.name] = arm
	}
	var missing []string
	for _, c := range ed.Cases {
		if _, covered := byName[c.Name]; !covered {
			missing = append(missing, c.Name)
		}
	}
	if len(missing) > 0 {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Non-exhaustive match",
			Detail:   fmt.Sprintf("Match over enum %q is missing arms for %s.", ed.Name, strings.Join(missing, ", ")),
			Subject:  e.Range().Ptr(),
		})
	}
	if diags.HasErrors() {
		return nil, diags
	}

	arms := make([]target.MatchArm, 0, len(ed.Cases))
	for _, c := range ed.Cases {
		arm := byName[c.Name]
		armEnv := env
		binder := target.NoVar
		if c.Payload != nil {
			binder = sc.c.arena.New("payload")
			armEnv = env.child()
			armEnv.locals["payload"] = binder
		}
		body, moreDiags := sc.lowerExpr(arm.body, armEnv)
		diags = append(diags, moreDiags...)
		if body == nil {
			continue
		}
		arms = append(arms, target.MatchArm{Case: c.Name, Binder: binder, Body: body})
	}
	if diags.HasErrors() {
		return nil, diags
	}
	return &target.Match{Mark: target.At(e.Range()), E: scrutinee, Enum: ed.Name, Arms: arms}, diags
}

// referenceNames lists everything a bare name could have meant, for
// suggestions.
func (sc *scopeCompiler) referenceNames(env *exprEnv) []string {
	var names []string
	for n := range env.locals {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, v := range sc.sc.Vars {
		names = append(names, v.Name)
	}
	for _, c := range sc.sc.Calls {
		names = append(names, c.Name)
	}
	for _, ed := range sc.decls().Enums {
		for _, c := range ed.Cases {
			names = append(names, c.Name)
		}
	}
	return names
}

func unaryOp(op *hclsyntax.Operation) (target.UnaryOp, bool) {
	switch op {
	case hclsyntax.OpNegate:
		return target.OpNeg, true
	case hclsyntax.OpLogicalNot:
		return target.OpNot, true
	}
	return 0, false
}

func binaryOp(op *hclsyntax.Operation) (target.BinaryOp, bool) {
	switch op {
	case hclsyntax.OpAdd:
		return target.OpAdd, true
	case hclsyntax.OpSubtract:
		return target.OpSub, true
	case hclsyntax.OpMultiply:
		return target.OpMul, true
	case hclsyntax.OpDivide:
		return target.OpDiv, true
	case hclsyntax.OpModulo:
		return target.OpMod, true
	case hclsyntax.OpEqual:
		return target.OpEq, true
	case hclsyntax.OpNotEqual:
		return target.OpNeq, true
	case hclsyntax.OpLessThan:
		return target.OpLt, true
	case hclsyntax.OpLessThanOrEqual:
		return target.OpLte, true
	case hclsyntax.OpGreaterThan:
		return target.OpGt, true
	case hclsyntax.OpGreaterThanOrEqual:
		return target.OpGte, true
	case hclsyntax.OpLogicalAnd:
		return target.OpAnd, true
	case hclsyntax.OpLogicalOr:
		return target.OpOr, true
	}
	return 0, false
}
