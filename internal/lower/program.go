package lower

import (
	"context"

	"github.com/hashicorp/hcl/v2"

	"github.com/juris-lang/juris/internal/ctxlog"
	"github.com/juris-lang/juris/internal/model"
	"github.com/juris-lang/juris/internal/target"
)

// compiler holds the cross-scope state of one lowering run: the variable
// arena and the pre-allocated state chain of every scope variable.
type compiler struct {
	src    *model.Program
	arena  *target.Arena
	chains map[string]map[string]target.StateChain
}

// Compile lowers a loaded program into the target calculus. Scopes are
// emitted callee-first. Errors in one scope do not stop the others, so a
// single run reports every failing scope; any error yields a nil program.
func Compile(ctx context.Context, src *model.Program) (*target.Program, hcl.Diagnostics) {
	logger := ctxlog.FromContext(ctx)
	c := &compiler{
		src:    src,
		arena:  target.NewArena(),
		chains: make(map[string]map[string]target.StateChain, len(src.Scopes)),
	}

	// Every variable handle is allocated up front so cross-scope
	// references resolve regardless of compile order.
	for _, s := range src.Scopes {
		byVar := make(map[string]target.StateChain, len(s.Vars))
		for _, vd := range s.Vars {
			if vd.Stateful() {
				pairs := make([]target.StateVar, 0, len(vd.States))
				for _, st := range vd.States {
					pairs = append(pairs, target.StateVar{State: st, V: c.arena.New(vd.Name)})
				}
				byVar[vd.Name] = target.StatesChain(pairs)
				continue
			}
			byVar[vd.Name] = target.WholeChain(c.arena.New(vd.Name))
		}
		c.chains[s.Name] = byVar
	}

	out := target.NewProgram(c.arena, src.Decls)
	var diags hcl.Diagnostics
	for _, s := range calleeFirst(src) {
		sc := &scopeCompiler{c: c, sc: s}
		decl, moreDiags := sc.compile()
		diags = append(diags, moreDiags...)
		if decl == nil {
			logger.DebugContext(ctx, "scope lowering failed", "scope", s.Name, "diagnostics", len(moreDiags))
			continue
		}
		logger.DebugContext(ctx, "lowered scope", "scope", s.Name, "statements", len(decl.Body))
		out.AddScope(decl)
	}
	if diags.HasErrors() {
		return nil, diags
	}
	return out, diags
}

// calleeFirst orders scopes so every callee precedes its callers, keeping
// source order among ties. The loader guarantees the call graph is acyclic.
func calleeFirst(src *model.Program) []*model.Scope {
	callees := make(map[string]map[string]bool, len(src.Scopes))
	for _, s := range src.Scopes {
		set := make(map[string]bool, len(s.Calls))
		for _, call := range s.Calls {
			if call.Scope != s.Name {
				set[call.Scope] = true
			}
		}
		callees[s.Name] = set
	}

	placed := make(map[string]bool, len(src.Scopes))
	out := make([]*model.Scope, 0, len(src.Scopes))
	for len(out) < len(src.Scopes) {
		progressed := false
		for _, s := range src.Scopes {
			if placed[s.Name] {
				continue
			}
			ready := true
			for callee := range callees[s.Name] {
				if !placed[callee] {
					ready = false
					break
				}
			}
			if ready {
				placed[s.Name] = true
				out = append(out, s)
				progressed = true
				break
			}
		}
		if !progressed {
			for _, s := range src.Scopes {
				if !placed[s.Name] {
					placed[s.Name] = true
					out = append(out, s)
				}
			}
		}
	}
	return out
}
