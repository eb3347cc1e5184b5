package target

import (
	"github.com/hashicorp/hcl/v2"

	"github.com/juris-lang/juris/internal/model"
)

// Stmt is one ordered statement of a lowered scope body.
type Stmt interface {
	Range() hcl.Range
	stmtNode()
}

// Dest addresses the slot a Define writes: a scope-local variable, or a
// subscope input slot of one of the scope's calls.
type Dest struct {
	// Call is the call index for subscope slots, or -1 for locals.
	Call int
	// V is the lowered variable: a scope-local handle, or the callee's
	// handle for subscope slots.
	V Var
}

// LocalDest addresses a scope-local variable.
func LocalDest(v Var) Dest {
	return Dest{Call: -1, V: v}
}

// SubDest addresses a subscope input slot.
func SubDest(call int, v Var) Dest {
	return Dest{Call: call, V: v}
}

// Local reports whether the destination is a scope-local variable.
func (d Dest) Local() bool {
	return d.Call < 0
}

// Define binds the value of one synthesized expression.
type Define struct {
	Mark
	Dest Dest
	Type model.Type
	Io   model.Io
	E    Expr
}

// Call runs one subscope: it seeds the callee from the call's slots,
// executes it, and copies the callee's outputs back into the slots.
type Call struct {
	Mark
	// Scope is the callee scope name.
	Scope string
	// Name is the call's instance name.
	Name string
	// Index is the call's index among the scope's calls.
	Index int
}

// Assert checks that an expression holds after the definitions it reads.
type Assert struct {
	Mark
	E Expr
}

func (*Define) stmtNode() {}
func (*Call) stmtNode()   {}
func (*Assert) stmtNode() {}
