package loader

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"

	"github.com/juris-lang/juris/internal/model"
	"github.com/juris-lang/juris/internal/schema"
)

// reservedNames are expression keywords that declarations may not shadow.
var reservedNames = map[string]bool{
	"payload": true,
	"match":   true,
	"list":    true,
	"number":  true,
	"string":  true,
	"bool":    true,
	"true":    true,
	"false":   true,
	"null":    true,
}

func checkDeclName(name string, rng hcl.Range, what string) hcl.Diagnostics {
	if !hclsyntax.ValidIdentifier(name) {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid name",
			Detail:   fmt.Sprintf("%q is not a valid %s name.", name, what),
			Subject:  rng.Ptr(),
		}}
	}
	if reservedNames[name] {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Reserved name",
			Detail:   fmt.Sprintf("%q is reserved and cannot be used as a %s name.", name, what),
			Subject:  rng.Ptr(),
		}}
	}
	return nil
}

func (l *Loader) decodeStruct(decls *model.Decls, blk *hcl.Block) hcl.Diagnostics {
	sd, ok := decls.Struct(blk.Labels[0])
	if !ok {
		return nil
	}
	diags := checkDeclName(sd.Name, blk.DefRange, "struct")

	content, moreDiags := blk.Body.Content(schema.Struct)
	diags = append(diags, moreDiags...)
	for _, fb := range content.Blocks {
		name := fb.Labels[0]
		diags = append(diags, checkDeclName(name, fb.DefRange, "field")...)
		if _, exists := sd.Field(name); exists {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate field",
				Detail:   fmt.Sprintf("Struct %q already has a field named %q.", sd.Name, name),
				Subject:  fb.DefRange.Ptr(),
			})
			continue
		}
		fc, moreDiags := fb.Body.Content(schema.Field)
		diags = append(diags, moreDiags...)
		attr, ok := fc.Attributes[schema.AttrType]
		if !ok {
			continue
		}
		typ, moreDiags := resolveTypeExpr(attr.Expr, decls)
		diags = append(diags, moreDiags...)
		if typ == nil {
			continue
		}
		sd.Fields = append(sd.Fields, &model.FieldDecl{Name: name, Type: typ, DeclRange: fb.DefRange})
	}
	return diags
}

func (l *Loader) decodeEnum(decls *model.Decls, blk *hcl.Block) hcl.Diagnostics {
	ed, ok := decls.Enum(blk.Labels[0])
	if !ok {
		return nil
	}
	diags := checkDeclName(ed.Name, blk.DefRange, "enum")

	content, moreDiags := blk.Body.Content(schema.Enum)
	diags = append(diags, moreDiags...)
	for _, cb := range content.Blocks {
		name := cb.Labels[0]
		diags = append(diags, checkDeclName(name, cb.DefRange, "case")...)
		if _, exists := ed.Case(name); exists {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate case",
				Detail:   fmt.Sprintf("Enum %q already has a case named %q.", ed.Name, name),
				Subject:  cb.DefRange.Ptr(),
			})
			continue
		}
		cc, moreDiags := cb.Body.Content(schema.Case)
		diags = append(diags, moreDiags...)
		var payload model.Type
		if attr, ok := cc.Attributes[schema.AttrType]; ok {
			payload, moreDiags = resolveTypeExpr(attr.Expr, decls)
			diags = append(diags, moreDiags...)
			if payload == nil {
				continue
			}
		}
		ed.Cases = append(ed.Cases, &model.CaseDecl{Name: name, Payload: payload, DeclRange: cb.DefRange})
	}
	return diags
}

// checkCaseNames enforces that enum case names are unique across the whole
// declaration context and distinct from struct names. Both appear as bare
// constructor names in expressions, so any overlap would be ambiguous.
func checkCaseNames(decls *model.Decls) hcl.Diagnostics {
	var diags hcl.Diagnostics
	seen := make(map[string]*model.EnumDecl)
	for _, ed := range decls.Enums {
		for _, c := range ed.Cases {
			if prior, exists := seen[c.Name]; exists {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Ambiguous case name",
					Detail: fmt.Sprintf("Case %q of enum %q is already declared by enum %q; case names must be unique across enums.",
						c.Name, ed.Name, prior.Name),
					Subject: c.DeclRange.Ptr(),
				})
				continue
			}
			seen[c.Name] = ed
			if sd, exists := decls.Struct(c.Name); exists {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Ambiguous case name",
					Detail: fmt.Sprintf("Case %q of enum %q collides with the struct declared at %s; constructor expressions could name either.",
						c.Name, ed.Name, sd.DeclRange),
					Subject: c.DeclRange.Ptr(),
				})
			}
		}
	}
	return diags
}

// claimScopeName rejects a variable or call name that is already taken in
// the scope's expression namespace or that shadows a declared type.
func claimScopeName(decls *model.Decls, sc *model.Scope, name string, rng hcl.Range, what string) hcl.Diagnostics {
	diags := checkDeclName(name, rng, what)
	if prior, exists := sc.Var(name); exists {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Duplicate name",
			Detail:   fmt.Sprintf("Scope %q already declares a variable named %q at %s.", sc.Name, name, prior.DeclRange),
			Subject:  rng.Ptr(),
		})
	}
	if prior, exists := sc.Call(name); exists {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Duplicate name",
			Detail:   fmt.Sprintf("Scope %q already declares a call named %q at %s.", sc.Name, name, prior.DeclRange),
			Subject:  rng.Ptr(),
		})
	}
	if sd, exists := decls.Struct(name); exists {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Name shadows a declaration",
			Detail:   fmt.Sprintf("%q is the struct declared at %s; scope names may not shadow declared types.", name, sd.DeclRange),
			Subject:  rng.Ptr(),
		})
	}
	if ed, exists := decls.Enum(name); exists {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Name shadows a declaration",
			Detail:   fmt.Sprintf("%q is the enum declared at %s; scope names may not shadow declared types.", name, ed.DeclRange),
			Subject:  rng.Ptr(),
		})
	}
	return diags
}

func (l *Loader) decodeVar(decls *model.Decls, sc *model.Scope, blk *hcl.Block) hcl.Diagnostics {
	name := blk.Labels[0]
	diags := claimScopeName(decls, sc, name, blk.DefRange, "variable")
	if diags.HasErrors() {
		return diags
	}

	content, moreDiags := blk.Body.Content(schema.Var)
	diags = append(diags, moreDiags...)

	io := model.Io{}
	switch blk.Type {
	case schema.BlockInput:
		io.Input = model.OnlyInput
	case schema.BlockContext:
		io.Input = model.Reentrant
	case schema.BlockOutput:
		io.Output = true
	}

	if attr, ok := content.Attributes[schema.AttrOutput]; ok {
		if blk.Type != schema.BlockInput && blk.Type != schema.BlockContext {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid output attribute",
				Detail:   fmt.Sprintf("The output attribute only applies to input and context variables; use an output block to declare %q as an output.", name),
				Subject:  attr.Range.Ptr(),
			})
		} else {
			out, moreDiags := staticBool(attr)
			diags = append(diags, moreDiags...)
			io.Output = io.Output || out
		}
	}

	condition := false
	if attr, ok := content.Attributes[schema.AttrCondition]; ok {
		val, moreDiags := staticBool(attr)
		diags = append(diags, moreDiags...)
		if !val {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid condition attribute",
				Detail:   "The condition attribute may only be set to true; omit it for a plain variable.",
				Subject:  attr.Range.Ptr(),
			})
		}
		condition = val
	}

	typeAttr, hasType := content.Attributes[schema.AttrType]
	paramAttr, hasParam := content.Attributes[schema.AttrParam]

	if hasParam && io.Input == model.Reentrant {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Function-typed context variable",
			Detail:   fmt.Sprintf("Variable %q cannot be both a context variable and a function: caller overrides are detected by emptiness and a function value is never empty.", name),
			Subject:  paramAttr.Range.Ptr(),
		})
		return diags
	}

	var typ model.Type
	switch {
	case condition && (hasType || hasParam):
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Conflicting attributes",
			Detail:   fmt.Sprintf("Variable %q is a condition; conditions are boolean and take neither type nor param.", name),
			Subject:  blk.DefRange.Ptr(),
		})
		typ = model.Bool
	case condition:
		typ = model.Bool
	case !hasType:
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing type",
			Detail:   fmt.Sprintf("Variable %q needs a type attribute (or condition = true).", name),
			Subject:  blk.DefRange.Ptr(),
		})
		return diags
	default:
		var moreDiags hcl.Diagnostics
		typ, moreDiags = resolveTypeExpr(typeAttr.Expr, decls)
		diags = append(diags, moreDiags...)
		if typ == nil {
			return diags
		}
		if hasParam {
			paramType, moreDiags := resolveTypeExpr(paramAttr.Expr, decls)
			diags = append(diags, moreDiags...)
			if paramType == nil {
				return diags
			}
			typ = model.FuncType{Param: paramType, Result: typ}
		}
	}

	var states []string
	if attr, ok := content.Attributes[schema.AttrStates]; ok {
		list, moreDiags := staticStringList(attr)
		diags = append(diags, moreDiags...)
		seen := make(map[string]bool, len(list))
		for _, s := range list {
			if !hclsyntax.ValidIdentifier(s) {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Invalid state name",
					Detail:   fmt.Sprintf("%q is not a valid state name.", s),
					Subject:  attr.Expr.Range().Ptr(),
				})
				continue
			}
			if seen[s] {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Duplicate state",
					Detail:   fmt.Sprintf("Variable %q declares state %q twice.", name, s),
					Subject:  attr.Expr.Range().Ptr(),
				})
				continue
			}
			seen[s] = true
			states = append(states, s)
		}
		if len(list) == 0 {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Empty state list",
				Detail:   fmt.Sprintf("Variable %q declares states but names none; omit the attribute for a plain variable.", name),
				Subject:  attr.Expr.Range().Ptr(),
			})
		}
		if len(states) > 0 && io.Input == model.OnlyInput {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Stateful input variable",
				Detail:   fmt.Sprintf("Variable %q takes its value from the caller; refinement states belong to computed variables.", name),
				Subject:  attr.Range.Ptr(),
			})
		}
	}
	if diags.HasErrors() {
		return diags
	}

	vd := &model.VarDecl{
		Name:      name,
		Type:      typ,
		Io:        io,
		Condition: condition,
		States:    states,
		DeclRange: blk.DefRange,
	}
	sc.AddVar(vd)

	// Every own variable gets its definition sites up front (one per state
	// for stateful variables) so the compiler sees zero-rule sites too.
	if vd.Stateful() {
		for _, s := range vd.States {
			key := model.DefKey{Var: name, State: s}
			sc.Defs[key] = &model.ScopeDef{
				Key: key, Type: typ, Io: io, Condition: condition, DeclRange: blk.DefRange,
			}
		}
	} else {
		key := model.DefKey{Var: name}
		sc.Defs[key] = &model.ScopeDef{
			Key: key, Type: typ, Io: io, Condition: condition, DeclRange: blk.DefRange,
		}
	}
	return diags
}

func (l *Loader) decodeCall(prog *model.Program, sc *model.Scope, blk *hcl.Block) hcl.Diagnostics {
	name := blk.Labels[0]
	diags := claimScopeName(prog.Decls, sc, name, blk.DefRange, "call")
	if diags.HasErrors() {
		return diags
	}

	content, moreDiags := blk.Body.Content(schema.Call)
	diags = append(diags, moreDiags...)
	attr, ok := content.Attributes[schema.AttrScope]
	if !ok {
		return diags
	}
	calleeName, moreDiags := staticString(attr)
	diags = append(diags, moreDiags...)
	if moreDiags.HasErrors() {
		return diags
	}

	callee, exists := prog.Scope(calleeName)
	if !exists {
		names := make([]string, 0, len(prog.Scopes))
		for _, s := range prog.Scopes {
			names = append(names, s.Name)
		}
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unknown scope",
			Detail:   fmt.Sprintf("There is no scope named %q.%s", calleeName, suggestionDetail(calleeName, names)),
			Subject:  attr.Expr.Range().Ptr(),
		})
		return diags
	}
	if callee.Name == sc.Name {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Recursive call",
			Detail:   fmt.Sprintf("Scope %q cannot call itself.", sc.Name),
			Subject:  attr.Expr.Range().Ptr(),
		})
		return diags
	}

	sc.AddCall(&model.SubScopeCall{Name: name, Scope: calleeName, DeclRange: blk.DefRange})
	return diags
}

func (l *Loader) decodeRule(prog *model.Program, sc *model.Scope, blk *hcl.Block, seq int) hcl.Diagnostics {
	name := blk.Labels[0]
	diags := checkDeclName(name, blk.DefRange, "rule")

	content, moreDiags := blk.Body.Content(schema.Rule)
	diags = append(diags, moreDiags...)
	if diags.HasErrors() {
		return diags
	}

	definesAttr, ok := content.Attributes[schema.AttrDefines]
	if !ok {
		return diags
	}
	target, moreDiags := staticString(definesAttr)
	diags = append(diags, moreDiags...)
	if moreDiags.HasErrors() {
		return diags
	}

	key, vd, moreDiags := l.resolveDefines(prog, sc, target, definesAttr.Expr.Range())
	diags = append(diags, moreDiags...)
	if vd == nil {
		return diags
	}

	// State attribute: required for stateful own variables, forbidden
	// otherwise. Redefinition sites always feed the callee's first state.
	stateAttr, hasState := content.Attributes[schema.AttrState]
	switch {
	case key.Call != "" && hasState:
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid state attribute",
			Detail:   fmt.Sprintf("Rule %q redefines a subscope variable; redefinitions always feed the first state and take no state attribute.", name),
			Subject:  stateAttr.Range.Ptr(),
		})
		return diags
	case key.Call == "" && vd.Stateful():
		if !hasState {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Missing state attribute",
				Detail: fmt.Sprintf("Variable %q declares states %s; every rule for it must name the state it defines.",
					vd.Name, strings.Join(vd.States, ", ")),
				Subject: blk.DefRange.Ptr(),
			})
			return diags
		}
		state, moreDiags := staticString(stateAttr)
		diags = append(diags, moreDiags...)
		if moreDiags.HasErrors() {
			return diags
		}
		if !vd.HasState(state) {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unknown state",
				Detail: fmt.Sprintf("Variable %q has no state named %q.%s",
					vd.Name, state, suggestionDetail(state, vd.States)),
				Subject: stateAttr.Expr.Range().Ptr(),
			})
			return diags
		}
		key.State = state
	case hasState:
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid state attribute",
			Detail:   fmt.Sprintf("Variable %q declares no states.", vd.Name),
			Subject:  stateAttr.Range.Ptr(),
		})
		return diags
	}

	rule := &model.Rule{
		Name:      name,
		DeclRange: blk.DefRange,
		Seq:       seq,
	}
	if attr, ok := content.Attributes[schema.AttrWhen]; ok {
		rule.Just = attr.Expr
	}
	if attr, ok := content.Attributes[schema.AttrThen]; ok {
		rule.Cons = attr.Expr
	}
	if attr, ok := content.Attributes[schema.AttrParam]; ok {
		param, moreDiags := staticString(attr)
		diags = append(diags, moreDiags...)
		if !moreDiags.HasErrors() {
			if !hclsyntax.ValidIdentifier(param) || reservedNames[param] {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Invalid parameter name",
					Detail:   fmt.Sprintf("%q cannot be used as a rule parameter name.", param),
					Subject:  attr.Expr.Range().Ptr(),
				})
			} else {
				rule.Param = param
			}
		}
	}
	if attr, ok := content.Attributes[schema.AttrLabel]; ok {
		label, moreDiags := staticString(attr)
		diags = append(diags, moreDiags...)
		rule.Label = label
	}
	if attr, ok := content.Attributes[schema.AttrExceptionTo]; ok {
		targets, moreDiags := staticStringList(attr)
		diags = append(diags, moreDiags...)
		rule.ExceptionTo = targets
	}
	if diags.HasErrors() {
		return diags
	}

	def, exists := sc.Def(key)
	if !exists {
		def = &model.ScopeDef{
			Key: key, Type: vd.Type, Io: vd.Io, Condition: vd.Condition, DeclRange: vd.DeclRange,
		}
		sc.Defs[key] = def
	}
	for _, prior := range def.Rules {
		if prior.Name == name {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate rule",
				Detail: fmt.Sprintf("A rule named %q for %s was already declared at %s.",
					name, key, prior.DeclRange),
				Subject: blk.DefRange.Ptr(),
			})
			return diags
		}
	}
	def.Rules = append(def.Rules, rule)
	return diags
}

// resolveDefines resolves a rule's defines target to a definition key and
// the declaration of the variable it feeds (the callee's declaration for
// redefinition sites).
func (l *Loader) resolveDefines(prog *model.Program, sc *model.Scope, target string, rng hcl.Range) (model.DefKey, *model.VarDecl, hcl.Diagnostics) {
	first, rest, isCallSite := strings.Cut(target, ".")

	if !isCallSite {
		if vd, ok := sc.Var(first); ok {
			return model.DefKey{Var: first}, vd, nil
		}
		options := make([]string, 0, len(sc.Vars)+len(sc.Calls))
		for _, v := range sc.Vars {
			options = append(options, v.Name)
		}
		for _, c := range sc.Calls {
			options = append(options, c.Name)
		}
		return model.DefKey{}, nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unknown definition target",
			Detail: fmt.Sprintf("Scope %q declares no variable named %q.%s",
				sc.Name, first, suggestionDetail(first, options)),
			Subject: rng.Ptr(),
		}}
	}

	call, ok := sc.Call(first)
	if !ok {
		options := make([]string, 0, len(sc.Calls))
		for _, c := range sc.Calls {
			options = append(options, c.Name)
		}
		return model.DefKey{}, nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unknown call",
			Detail: fmt.Sprintf("Scope %q declares no call named %q.%s",
				sc.Name, first, suggestionDetail(first, options)),
			Subject: rng.Ptr(),
		}}
	}
	callee, ok := prog.Scope(call.Scope)
	if !ok {
		return model.DefKey{}, nil, nil
	}
	vd, ok := callee.Var(rest)
	if !ok {
		options := make([]string, 0, len(callee.Vars))
		for _, v := range callee.Vars {
			options = append(options, v.Name)
		}
		return model.DefKey{}, nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unknown subscope variable",
			Detail: fmt.Sprintf("Scope %q (called as %q) declares no variable named %q.%s",
				callee.Name, call.Name, rest, suggestionDetail(rest, options)),
			Subject: rng.Ptr(),
		}}
	}
	return model.DefKey{Call: first, Var: rest}, vd, nil
}

func (l *Loader) decodeAssert(sc *model.Scope, blk *hcl.Block) hcl.Diagnostics {
	content, diags := blk.Body.Content(schema.Assert)
	attr, ok := content.Attributes[schema.AttrThat]
	if !ok {
		return diags
	}
	sc.Asserts = append(sc.Asserts, &model.Assertion{Expr: attr.Expr, DeclRange: blk.DefRange})
	return diags
}
