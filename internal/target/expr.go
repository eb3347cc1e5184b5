package target

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Expr is one node of a lowered expression tree. Every node carries the
// source range of the construct it was lowered from, so runtime errors and
// traces can point back at the rules that produced them.
type Expr interface {
	Range() hcl.Range
	exprNode()
}

// Mark carries the source position of a lowered node. It is embedded in
// every expression and statement type.
type Mark struct {
	SrcRange hcl.Range
}

// At returns a Mark for the given source range.
func At(rng hcl.Range) Mark {
	return Mark{SrcRange: rng}
}

// Range returns the source range of the construct this node was lowered
// from.
func (m Mark) Range() hcl.Range {
	return m.SrcRange
}

// Lit is a ground literal value.
type Lit struct {
	Mark
	Val cty.Value
}

// VarRef reads a lowered variable of the current scope.
type VarRef struct {
	Mark
	V Var
}

// SubVarRef reads a subscope slot: a caller-side input of the call before
// it runs, or a callee output after.
type SubVarRef struct {
	Mark
	// Call is the call's index among the scope's calls.
	Call int
	// V is the callee's lowered variable held in the slot.
	V Var
}

// Empty is the literal empty value: "no rule applied".
type Empty struct {
	Mark
}

// Default is the prioritized-default primitive. Exceptions are evaluated
// first: more than one defined is a runtime conflict, exactly one decides
// the result, none defers to the justification/consequence pair.
type Default struct {
	Mark
	Exceptions []Expr
	Just       Expr
	Cons       Expr
}

// ErrorOnEmpty turns an empty operand into a runtime no-value error. It
// wraps every lowered toplevel so emptiness never escapes a definition.
type ErrorOnEmpty struct {
	Mark
	E Expr
}

// Probe wraps a rule's justification; the evaluator reports the rule when
// the justification holds. Tracing only, the value passes through.
type Probe struct {
	Mark
	// Rule is the source rule name.
	Rule string
	E    Expr
}

// Func is a single-parameter function literal.
type Func struct {
	Mark
	Param Var
	Body  Expr
}

// App applies a function to one argument.
type App struct {
	Mark
	Fn  Expr
	Arg Expr
}

// If is a strict conditional.
type If struct {
	Mark
	Cond Expr
	Then Expr
	Else Expr
}

// UnaryOp enumerates the unary operators.
type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpNot
)

func (op UnaryOp) String() string {
	switch op {
	case OpNeg:
		return "-"
	case OpNot:
		return "!"
	}
	return "?"
}

// BinaryOp enumerates the binary operators.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAnd
	OpOr
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpEq:
		return "=="
	case OpNeq:
		return "!="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	}
	return "?"
}

// Unary applies a unary operator.
type Unary struct {
	Mark
	Op UnaryOp
	E  Expr
}

// Binary applies a binary operator.
type Binary struct {
	Mark
	Op BinaryOp
	L  Expr
	R  Expr
}

// CallBuiltin invokes a named builtin function.
type CallBuiltin struct {
	Mark
	Name string
	Args []Expr
}

// FieldInit is one field of a struct literal, in declaration order.
type FieldInit struct {
	Name string
	E    Expr
}

// StructLit constructs a declared struct value.
type StructLit struct {
	Mark
	Name   string
	Fields []FieldInit
}

// Field projects one field out of a struct value.
type Field struct {
	Mark
	E    Expr
	Name string
}

// Inject constructs an enum value. Payload is nil for unit cases.
type Inject struct {
	Mark
	Enum    string
	Case    string
	Payload Expr
}

// MatchArm is one alternative of a Match. Binder is NoVar for unit cases.
type MatchArm struct {
	Case   string
	Binder Var
	Body   Expr
}

// Match scrutinizes an enum value. Arms cover every case of the enum, in
// declaration order.
type Match struct {
	Mark
	E    Expr
	Enum string
	Arms []MatchArm
}

// Index projects one element out of a list value.
type Index struct {
	Mark
	E Expr
	I Expr
}

// Tuple constructs a list value.
type Tuple struct {
	Mark
	Items []Expr
}

func (*Lit) exprNode()          {}
func (*VarRef) exprNode()       {}
func (*SubVarRef) exprNode()    {}
func (*Empty) exprNode()        {}
func (*Default) exprNode()      {}
func (*ErrorOnEmpty) exprNode() {}
func (*Probe) exprNode()        {}
func (*Func) exprNode()         {}
func (*App) exprNode()          {}
func (*If) exprNode()           {}
func (*Unary) exprNode()        {}
func (*Binary) exprNode()       {}
func (*CallBuiltin) exprNode()  {}
func (*StructLit) exprNode()    {}
func (*Field) exprNode()        {}
func (*Inject) exprNode()       {}
func (*Match) exprNode()        {}
func (*Index) exprNode()        {}
func (*Tuple) exprNode()        {}
