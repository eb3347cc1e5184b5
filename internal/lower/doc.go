// Package lower compiles a desugared rules program into the lowered
// calculus: it orders each variable's competing rules by their exception
// structure, synthesizes one prioritized-default expression per definition
// site, and linearizes every scope into a dependency-ordered statement
// body.
//
// All errors are position-carrying hcl.Diagnostics. A fatal error aborts
// the variable or scope it belongs to; unaffected units keep compiling so
// one run reports as much as possible.
package lower
