package lower

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/juris-lang/juris/internal/model"
)

// vertex is one node of a scope's dependency graph: a variable at one
// state, or a subscope call.
type vertex struct {
	// call is the call index, or -1 for variables.
	call int
	// name and state identify a variable vertex; empty for calls.
	name  string
	state string
}

func varVertex(name, state string) vertex {
	return vertex{call: -1, name: name, state: state}
}

func callVertex(index int) vertex {
	return vertex{call: index}
}

func (v vertex) isCall() bool {
	return v.call >= 0
}

// depGraph is the adjacency of one scope: edges run from a dependency to
// its dependents, so a topological order evaluates dependencies first.
type depGraph struct {
	sc       *model.Scope
	vertices []vertex
	ordinal  map[vertex]int
	out      map[vertex]map[vertex]bool
}

func (g *depGraph) addEdge(from, to vertex) {
	if _, known := g.ordinal[from]; !known {
		return
	}
	if _, known := g.ordinal[to]; !known {
		return
	}
	set, ok := g.out[from]
	if !ok {
		set = make(map[vertex]bool)
		g.out[from] = set
	}
	set[to] = true
}

// buildDepGraph creates the dependency graph of the compiler's scope:
// one vertex per variable state and per call, one edge per read, plus the
// implicit edge ordering consecutive states of a stateful variable.
func (sc *scopeCompiler) buildDepGraph() *depGraph {
	g := &depGraph{
		sc:      sc.sc,
		ordinal: make(map[vertex]int),
		out:     make(map[vertex]map[vertex]bool),
	}
	add := func(v vertex) {
		g.ordinal[v] = len(g.vertices)
		g.vertices = append(g.vertices, v)
	}

	for _, vd := range sc.sc.Vars {
		if vd.Stateful() {
			for _, s := range vd.States {
				add(varVertex(vd.Name, s))
			}
		} else {
			add(varVertex(vd.Name, ""))
		}
	}
	for _, c := range sc.sc.Calls {
		add(callVertex(c.Index))
	}

	// States are sequential refinement stages: each depends on its
	// predecessor even when no rule reads it explicitly.
	for _, vd := range sc.sc.Vars {
		for i := 1; i < len(vd.States); i++ {
			g.addEdge(varVertex(vd.Name, vd.States[i-1]), varVertex(vd.Name, vd.States[i]))
		}
	}

	for key, def := range sc.sc.Defs {
		var dependent vertex
		if key.Call != "" {
			call, ok := sc.sc.Call(key.Call)
			if !ok {
				continue
			}
			dependent = callVertex(call.Index)
		} else {
			dependent = varVertex(key.Var, key.State)
		}
		for _, read := range sc.defReads(def) {
			g.addEdge(read, dependent)
		}
	}
	return g
}

// defReads resolves every variable reference of the site's rules to the
// vertex it reads. Rule parameters and match binders are bound names, not
// reads; unknown roots are left for expression lowering to report.
func (sc *scopeCompiler) defReads(def *model.ScopeDef) []vertex {
	var reads []vertex
	for _, r := range def.Rules {
		var travs []hcl.Traversal
		if r.Just != nil {
			travs = append(travs, r.Just.Variables()...)
		}
		travs = append(travs, r.Cons.Variables()...)
		for _, tr := range travs {
			root := tr.RootName()
			if root == r.Param || root == "payload" {
				continue
			}
			if v, ok := sc.readVertex(tr); ok {
				reads = append(reads, v)
			}
		}
	}
	return reads
}

// readVertex maps one traversal to the graph vertex it depends on. A bare
// read of a stateful variable means its last state; an explicit state index
// means exactly that state; a call attribute means the call itself.
func (sc *scopeCompiler) readVertex(tr hcl.Traversal) (vertex, bool) {
	root := tr.RootName()
	if vd, ok := sc.sc.Var(root); ok {
		if vd.Stateful() {
			if len(tr) > 1 {
				if idx, isIdx := tr[1].(hcl.TraverseIndex); isIdx && idx.Key.Type() == cty.String {
					if s := idx.Key.AsString(); vd.HasState(s) {
						return varVertex(root, s), true
					}
				}
			}
			return varVertex(root, vd.LastState()), true
		}
		return varVertex(root, ""), true
	}
	if c, ok := sc.sc.Call(root); ok {
		return callVertex(c.Index), true
	}
	return vertex{}, false
}

// topoOrder produces the linearization order: a topological sort with ties
// broken by declaration ordinal, so output is reproducible. A cycle is
// fatal for the whole scope.
func (g *depGraph) topoOrder() ([]vertex, hcl.Diagnostics) {
	indeg := make(map[vertex]int, len(g.vertices))
	for _, v := range g.vertices {
		indeg[v] = 0
	}
	for _, outs := range g.out {
		for to := range outs {
			indeg[to]++
		}
	}

	order := make([]vertex, 0, len(g.vertices))
	emitted := make(map[vertex]bool, len(g.vertices))
	for len(order) < len(g.vertices) {
		picked := false
		for _, v := range g.vertices {
			if emitted[v] || indeg[v] != 0 {
				continue
			}
			emitted[v] = true
			order = append(order, v)
			for to := range g.out[v] {
				indeg[to]--
			}
			picked = true
			break
		}
		if !picked {
			return nil, hcl.Diagnostics{g.cycleDiag(emitted)}
		}
	}
	return order, nil
}

// cycleDiag walks the unemitted remainder of the graph to recover one
// concrete cycle and reports every member's position.
func (g *depGraph) cycleDiag(emitted map[vertex]bool) *hcl.Diagnostic {
	// Every remaining vertex has an unmet dependency, so following incoming
	// edges inside the remainder must revisit a vertex. Keep the lowest
	// ordinal dependency per vertex so the reported path is reproducible.
	incoming := make(map[vertex]vertex)
	for _, from := range g.vertices {
		if emitted[from] {
			continue
		}
		for to := range g.out[from] {
			if emitted[to] {
				continue
			}
			if prev, ok := incoming[to]; !ok || g.ordinal[from] < g.ordinal[prev] {
				incoming[to] = from
			}
		}
	}

	var start vertex
	found := false
	for _, v := range g.vertices {
		if !emitted[v] {
			start = v
			found = true
			break
		}
	}
	if !found {
		return &hcl.Diagnostic{Severity: hcl.DiagError, Summary: "Dependency cycle"}
	}

	seen := make(map[vertex]int)
	var path []vertex
	cur := start
	for {
		if at, ok := seen[cur]; ok {
			path = path[at:]
			break
		}
		seen[cur] = len(path)
		path = append(path, cur)
		next, ok := incoming[cur]
		if !ok {
			break
		}
		cur = next
	}

	// The walk followed incoming edges, so reverse into dependency order.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	var names []string
	var positions []string
	for _, v := range path {
		names = append(names, g.vertexLabel(v))
		positions = append(positions, fmt.Sprintf("%s at %s", g.vertexLabel(v), g.vertexRange(v)))
	}
	names = append(names, names[0])

	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Dependency cycle",
		Detail: fmt.Sprintf("The definitions of scope %q depend on each other in a cycle: %s. Positions: %s.",
			g.sc.Name, strings.Join(names, " -> "), strings.Join(positions, "; ")),
		Subject: g.vertexRange(path[0]).Ptr(),
	}
}

func (g *depGraph) vertexLabel(v vertex) string {
	if v.isCall() {
		return "call " + g.sc.Calls[v.call].Name
	}
	if v.state != "" {
		return fmt.Sprintf("%s[%s]", v.name, v.state)
	}
	return v.name
}

func (g *depGraph) vertexRange(v vertex) hcl.Range {
	if v.isCall() {
		return g.sc.Calls[v.call].DeclRange
	}
	if vd, ok := g.sc.Var(v.name); ok {
		return vd.DeclRange
	}
	return hcl.Range{}
}
