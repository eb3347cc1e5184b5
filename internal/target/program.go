package target

import (
	"github.com/hashicorp/hcl/v2"

	"github.com/juris-lang/juris/internal/model"
)

// SigEntry describes one lowered variable of a scope's signature. Stateful
// source variables contribute one entry per state, in state order, so the
// signature lists every externally addressable slot of the scope.
type SigEntry struct {
	V         Var
	Name      string
	State     string
	Type      model.Type
	Io        model.Io
	Condition bool
}

// ScopeDecl is one lowered scope: the signature and the linearized
// statement body.
type ScopeDecl struct {
	Name      string
	Sig       []SigEntry
	Body      []Stmt
	DeclRange hcl.Range
}

// SeedVar returns the signature entry a caller-supplied value feeds for
// the named variable: its only entry, or the first state.
func (d *ScopeDecl) SeedVar(name string) (SigEntry, bool) {
	for _, e := range d.Sig {
		if e.Name == name {
			return e, true
		}
	}
	return SigEntry{}, false
}

// ResultVar returns the signature entry a reader observes for the named
// variable: its only entry, or the last state.
func (d *ScopeDecl) ResultVar(name string) (SigEntry, bool) {
	found := false
	var last SigEntry
	for _, e := range d.Sig {
		if e.Name == name {
			last = e
			found = true
		}
	}
	return last, found
}

// Inputs returns the seed entry of every caller-suppliable variable, in
// declaration order.
func (d *ScopeDecl) Inputs() []SigEntry {
	var out []SigEntry
	seen := make(map[string]bool)
	for _, e := range d.Sig {
		if e.Io.Input == model.NoInput || seen[e.Name] {
			continue
		}
		seen[e.Name] = true
		out = append(out, e)
	}
	return out
}

// Outputs returns the observable entry of every output variable, in
// declaration order.
func (d *ScopeDecl) Outputs() []SigEntry {
	var names []string
	last := make(map[string]SigEntry)
	for _, e := range d.Sig {
		if !e.Io.Output {
			continue
		}
		if _, seen := last[e.Name]; !seen {
			names = append(names, e.Name)
		}
		last[e.Name] = e
	}
	out := make([]SigEntry, 0, len(names))
	for _, n := range names {
		out = append(out, last[n])
	}
	return out
}

// Program is a whole lowered program: scopes ordered callee-first, the
// shared variable arena, and the declaration context carried through from
// the source program.
type Program struct {
	Scopes []*ScopeDecl
	Arena  *Arena
	Decls  *model.Decls

	scopeIndex map[string]*ScopeDecl
}

// NewProgram returns an empty lowered program sharing the given arena and
// declaration context.
func NewProgram(arena *Arena, decls *model.Decls) *Program {
	return &Program{
		Arena:      arena,
		Decls:      decls,
		scopeIndex: make(map[string]*ScopeDecl),
	}
}

// AddScope appends a lowered scope.
func (p *Program) AddScope(d *ScopeDecl) {
	p.Scopes = append(p.Scopes, d)
	p.scopeIndex[d.Name] = d
}

// Scope looks up a lowered scope by name.
func (p *Program) Scope(name string) (*ScopeDecl, bool) {
	d, ok := p.scopeIndex[name]
	return d, ok
}
