package eval

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/juris-lang/juris/internal/target"
)

// Value is one runtime value: a ground cty value, a function closure, or
// the distinguished empty that prioritized defaults route around.
type Value interface {
	valueNode()
}

// Ground wraps a plain cty value.
type Ground struct {
	V cty.Value
}

// Closure is a function value: the parameter, the unevaluated body and the
// bindings captured at construction.
type Closure struct {
	Param target.Var
	Body  target.Expr
	Env   *bindings
}

// EmptyVal is the absence of a value. It is not an error by itself; it
// only becomes one when it escapes through an ErrorOnEmpty boundary.
type EmptyVal struct{}

func (Ground) valueNode()   {}
func (Closure) valueNode()  {}
func (EmptyVal) valueNode() {}

func isEmpty(v Value) bool {
	_, ok := v.(EmptyVal)
	return ok
}

// bindings is an immutable chain of lexical bindings: function parameters
// and match payload binders. Lookups walk outward.
type bindings struct {
	v      target.Var
	val    Value
	parent *bindings
}

func (b *bindings) bind(v target.Var, val Value) *bindings {
	return &bindings{v: v, val: val, parent: b}
}

func (b *bindings) lookup(v target.Var) (Value, bool) {
	for cur := b; cur != nil; cur = cur.parent {
		if cur.v == v {
			return cur.val, true
		}
	}
	return nil, false
}

// frame is one scope execution: the slot of every signature variable and
// local definition, plus the seed slots of each subscope call.
type frame struct {
	scope    *target.ScopeDecl
	slots    map[target.Var]Value
	subSlots map[int]map[target.Var]Value
}

func newFrame(scope *target.ScopeDecl) *frame {
	return &frame{
		scope:    scope,
		slots:    make(map[target.Var]Value),
		subSlots: make(map[int]map[target.Var]Value),
	}
}

func (fr *frame) sub(call int) map[target.Var]Value {
	m, ok := fr.subSlots[call]
	if !ok {
		m = make(map[target.Var]Value)
		fr.subSlots[call] = m
	}
	return m
}
