package loader

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"

	"github.com/juris-lang/juris/internal/model"
)

type visitColor int

const (
	colorWhite visitColor = iota // unvisited
	colorGrey                    // on the current DFS path
	colorBlack                   // fully explored
)

// checkCallGraph rejects programs whose scopes call themselves transitively.
// Compilation orders scopes callee-first, which only exists for an acyclic
// call graph.
func checkCallGraph(prog *model.Program) hcl.Diagnostics {
	var diags hcl.Diagnostics
	colors := make(map[string]visitColor, len(prog.Scopes))
	var path []string
	var pathCalls []*model.SubScopeCall

	var visit func(sc *model.Scope)
	visit = func(sc *model.Scope) {
		colors[sc.Name] = colorGrey
		path = append(path, sc.Name)
		for _, call := range sc.Calls {
			callee, ok := prog.Scope(call.Scope)
			if !ok {
				continue
			}
			switch colors[callee.Name] {
			case colorGrey:
				diags = append(diags, cycleDiag(path, pathCalls, call, callee.Name))
			case colorWhite:
				pathCalls = append(pathCalls, call)
				visit(callee)
				pathCalls = pathCalls[:len(pathCalls)-1]
			}
		}
		path = path[:len(path)-1]
		colors[sc.Name] = colorBlack
	}

	for _, sc := range prog.Scopes {
		if colors[sc.Name] == colorWhite {
			visit(sc)
		}
	}
	return diags
}

// cycleDiag renders one call cycle, from the first occurrence of the
// repeated scope through the closing call.
func cycleDiag(path []string, pathCalls []*model.SubScopeCall, closing *model.SubScopeCall, repeated string) *hcl.Diagnostic {
	start := 0
	for i, name := range path {
		if name == repeated {
			start = i
			break
		}
	}
	var steps []string
	steps = append(steps, path[start:]...)
	steps = append(steps, repeated)

	var calls []string
	for _, c := range pathCalls[start:] {
		calls = append(calls, fmt.Sprintf("%s at %s", c.Name, c.DeclRange))
	}
	calls = append(calls, fmt.Sprintf("%s at %s", closing.Name, closing.DeclRange))

	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Scope call cycle",
		Detail: fmt.Sprintf("Scopes call each other in a cycle: %s. Calls involved: %s.",
			strings.Join(steps, " -> "), strings.Join(calls, "; ")),
		Subject: closing.DeclRange.Ptr(),
	}
}
