// Package target defines the lowered calculus that scope compilation
// produces: arena-allocated variables, an expression tree built around the
// prioritized-default primitive, and per-scope statement bodies.
//
// The package is purely structural. Lowering constructs these values,
// the printer renders them, and the evaluator executes them; none of that
// behavior lives here.
package target
