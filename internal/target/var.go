package target

// Var is a handle to one lowered variable. Handles are allocated by an
// Arena and are unique program-wide; the human name they carry is not,
// collisions are resolved only when printing.
type Var int

// NoVar marks the absence of a variable, such as a match arm without a
// payload binder.
const NoVar Var = -1

// Arena allocates lowered variables and remembers their base names.
type Arena struct {
	names []string
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// New allocates a fresh variable with the given base name.
func (a *Arena) New(name string) Var {
	a.names = append(a.names, name)
	return Var(len(a.names) - 1)
}

// Name returns the base name the variable was allocated with.
func (a *Arena) Name(v Var) string {
	return a.names[v]
}

// Len returns the number of allocated variables.
func (a *Arena) Len() int {
	return len(a.names)
}

// StateVar is one step of a state chain: the state name and the lowered
// variable holding the value at that state.
type StateVar struct {
	State string
	V     Var
}

// StateChain maps one source variable to its lowered variables: either a
// single whole-variable handle, or one handle per declared state in
// declaration order.
type StateChain struct {
	whole  Var
	states []StateVar
}

// WholeChain returns the chain of a plain (stateless) variable.
func WholeChain(v Var) StateChain {
	return StateChain{whole: v, states: nil}
}

// StatesChain returns the chain of a stateful variable. The pairs must be
// in declared state order and non-empty.
func StatesChain(pairs []StateVar) StateChain {
	if len(pairs) == 0 {
		panic("target: StatesChain requires at least one state")
	}
	return StateChain{whole: NoVar, states: pairs}
}

// Whole returns the single handle of a plain variable.
func (c StateChain) Whole() (Var, bool) {
	if len(c.states) > 0 {
		return NoVar, false
	}
	return c.whole, true
}

// States returns the ordered state pairs, nil for plain variables.
func (c StateChain) States() []StateVar {
	return c.states
}

// First returns the handle a caller-supplied value feeds: the whole
// variable, or the first declared state.
func (c StateChain) First() Var {
	if len(c.states) == 0 {
		return c.whole
	}
	return c.states[0].V
}

// Last returns the handle a plain read observes: the whole variable, or
// the final declared state.
func (c StateChain) Last() Var {
	if len(c.states) == 0 {
		return c.whole
	}
	return c.states[len(c.states)-1].V
}

// ForState returns the handle of one named state.
func (c StateChain) ForState(name string) (Var, bool) {
	for _, p := range c.states {
		if p.State == name {
			return p.V, true
		}
	}
	return NoVar, false
}
