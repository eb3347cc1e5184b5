package model

import (
	"github.com/hashicorp/hcl/v2"
)

// IoInput classifies how a scope variable may be supplied by callers.
type IoInput int

const (
	// NoInput variables are computed by the scope itself and may never be
	// redefined at a call site.
	NoInput IoInput = iota
	// OnlyInput variables must be supplied by the caller and may not carry
	// rules in their own scope.
	OnlyInput
	// Reentrant variables carry their own default rules but may be
	// overridden by the caller before the call executes.
	Reentrant
)

func (m IoInput) String() string {
	switch m {
	case OnlyInput:
		return "input"
	case Reentrant:
		return "context"
	default:
		return "internal"
	}
}

// Io is the input/output mode of one scope variable.
type Io struct {
	Input  IoInput
	Output bool
}

func (io Io) String() string {
	if io.Output && io.Input == NoInput {
		return "output"
	}
	if io.Output {
		return io.Input.String() + "|output"
	}
	return io.Input.String()
}

// VarDecl declares one scope variable.
type VarDecl struct {
	Name      string
	Type      Type
	Io        Io
	Condition bool
	// States is the ordered chain of refinement stages; empty for plain
	// variables.
	States    []string
	DeclRange hcl.Range
	// Seq is the declaration ordinal of this variable within its scope.
	Seq int
}

// Stateful reports whether the variable declares refinement states.
func (d *VarDecl) Stateful() bool { return len(d.States) > 0 }

// FirstState returns the initial state name, or "" for plain variables.
func (d *VarDecl) FirstState() string {
	if len(d.States) == 0 {
		return ""
	}
	return d.States[0]
}

// LastState returns the final (observable) state name, or "" for plain
// variables.
func (d *VarDecl) LastState() string {
	if len(d.States) == 0 {
		return ""
	}
	return d.States[len(d.States)-1]
}

// HasState reports whether name is one of the declared states.
func (d *VarDecl) HasState(name string) bool {
	for _, s := range d.States {
		if s == name {
			return true
		}
	}
	return false
}

// SubScopeCall declares one invocation of another scope.
type SubScopeCall struct {
	// Name is the instance name used in expressions and definition targets.
	Name string
	// Scope is the callee scope name.
	Scope string
	// Index is the call's ordinal among the scope's calls.
	Index     int
	DeclRange hcl.Range
}

// DefKey identifies one definition site: an own variable (or one of its
// states), or a caller-side redefinition slot of a subscope variable.
type DefKey struct {
	// Call is the subscope call name for redefinition sites, "" for own
	// variables.
	Call string
	// Var is the target variable name.
	Var string
	// State is the targeted state for stateful own variables; "" otherwise.
	// Redefinition sites never carry a state: they always feed the callee's
	// first state.
	State string
}

func (k DefKey) String() string {
	s := k.Var
	if k.Call != "" {
		s = k.Call + "." + s
	}
	if k.State != "" {
		s = s + "[" + k.State + "]"
	}
	return s
}

// ScopeDef aggregates everything known about one definition site: the
// competing rules, and the declared type, io mode and condition flag of the
// target variable (the callee's, for redefinition sites).
type ScopeDef struct {
	Key       DefKey
	Rules     RuleSet
	Type      Type
	Io        Io
	Condition bool
	// DeclRange is the target variable's declaration range, used for
	// synthetic rules and site-level diagnostics.
	DeclRange hcl.Range
}

// Assertion is one scope-level assertion expression.
type Assertion struct {
	Expr      hcl.Expression
	DeclRange hcl.Range
}

// Scope is a named unit of computation with independently-defined variables.
// It is produced by the loader and read-only afterwards.
type Scope struct {
	Name      string
	Vars      []*VarDecl
	Calls     []*SubScopeCall
	Defs      map[DefKey]*ScopeDef
	Asserts   []*Assertion
	DeclRange hcl.Range

	varIndex  map[string]*VarDecl
	callIndex map[string]*SubScopeCall
}

// NewScope returns an empty scope with the given name.
func NewScope(name string, rng hcl.Range) *Scope {
	return &Scope{
		Name:      name,
		Defs:      make(map[DefKey]*ScopeDef),
		DeclRange: rng,
		varIndex:  make(map[string]*VarDecl),
		callIndex: make(map[string]*SubScopeCall),
	}
}

// AddVar registers a variable declaration.
func (s *Scope) AddVar(d *VarDecl) {
	d.Seq = len(s.Vars)
	s.Vars = append(s.Vars, d)
	s.varIndex[d.Name] = d
}

// AddCall registers a subscope call declaration.
func (s *Scope) AddCall(c *SubScopeCall) {
	c.Index = len(s.Calls)
	s.Calls = append(s.Calls, c)
	s.callIndex[c.Name] = c
}

// Var looks up a variable declaration by name.
func (s *Scope) Var(name string) (*VarDecl, bool) {
	d, ok := s.varIndex[name]
	return d, ok
}

// Call looks up a subscope call by instance name.
func (s *Scope) Call(name string) (*SubScopeCall, bool) {
	c, ok := s.callIndex[name]
	return c, ok
}

// Def returns the definition site for key, if any rules or declarations
// created one.
func (s *Scope) Def(key DefKey) (*ScopeDef, bool) {
	d, ok := s.Defs[key]
	return d, ok
}

// FieldDecl is one field of a struct declaration.
type FieldDecl struct {
	Name      string
	Type      Type
	DeclRange hcl.Range
}

// StructDecl is a named record type of the shared declaration context.
type StructDecl struct {
	Name      string
	Fields    []*FieldDecl
	DeclRange hcl.Range
}

// Field looks up a struct field by name.
func (d *StructDecl) Field(name string) (*FieldDecl, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// CaseDecl is one alternative of an enum declaration. Payload is nil for
// unit cases.
type CaseDecl struct {
	Name      string
	Payload   Type
	DeclRange hcl.Range
}

// EnumDecl is a named sum type of the shared declaration context.
type EnumDecl struct {
	Name      string
	Cases     []*CaseDecl
	DeclRange hcl.Range
}

// Case looks up an enum case by name.
func (d *EnumDecl) Case(name string) (*CaseDecl, bool) {
	for _, c := range d.Cases {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Decls is the shared struct/enum declaration context. It flows through the
// compiler unchanged and is handed to downstream passes alongside the
// lowered scopes.
type Decls struct {
	Structs []*StructDecl
	Enums   []*EnumDecl

	structIndex map[string]*StructDecl
	enumIndex   map[string]*EnumDecl
}

// NewDecls returns an empty declaration context.
func NewDecls() *Decls {
	return &Decls{
		structIndex: make(map[string]*StructDecl),
		enumIndex:   make(map[string]*EnumDecl),
	}
}

// AddStruct registers a struct declaration.
func (d *Decls) AddStruct(s *StructDecl) {
	d.Structs = append(d.Structs, s)
	d.structIndex[s.Name] = s
}

// AddEnum registers an enum declaration.
func (d *Decls) AddEnum(e *EnumDecl) {
	d.Enums = append(d.Enums, e)
	d.enumIndex[e.Name] = e
}

// Struct looks up a struct declaration by name.
func (d *Decls) Struct(name string) (*StructDecl, bool) {
	s, ok := d.structIndex[name]
	return s, ok
}

// Enum looks up an enum declaration by name.
func (d *Decls) Enum(name string) (*EnumDecl, bool) {
	e, ok := d.enumIndex[name]
	return e, ok
}

// EnumForCase finds the enum declaring a case with the given name. The
// loader rejects programs where two enums share a case name, so at most one
// enum matches.
func (d *Decls) EnumForCase(name string) (*EnumDecl, *CaseDecl, bool) {
	for _, e := range d.Enums {
		if c, ok := e.Case(name); ok {
			return e, c, true
		}
	}
	return nil, nil, false
}

// Program is a whole desugared rules program: every scope plus the shared
// declaration context.
type Program struct {
	// Scopes in declaration order.
	Scopes []*Scope
	Decls  *Decls

	scopeIndex map[string]*Scope
}

// NewProgram returns an empty program.
func NewProgram() *Program {
	return &Program{
		Decls:      NewDecls(),
		scopeIndex: make(map[string]*Scope),
	}
}

// AddScope registers a scope.
func (p *Program) AddScope(s *Scope) {
	p.Scopes = append(p.Scopes, s)
	p.scopeIndex[s.Name] = s
}

// Scope looks up a scope by name.
func (p *Program) Scope(name string) (*Scope, bool) {
	s, ok := p.scopeIndex[name]
	return s, ok
}
