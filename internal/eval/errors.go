package eval

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
)

// ConflictError reports that two or more rules of the same priority proved
// their justification for one definition. Positions lists every winning
// rule so the author can see the whole conflict at once.
type ConflictError struct {
	Pos       hcl.Range
	Positions []hcl.Range
}

func (e *ConflictError) Error() string {
	parts := make([]string, 0, len(e.Positions))
	for _, p := range e.Positions {
		parts = append(parts, p.String())
	}
	return fmt.Sprintf("%s: conflicting rules apply at the same priority: %s",
		e.Pos, strings.Join(parts, "; "))
}

// NoValueError reports a definition whose rules all declined and that has
// no fallback, observed at a boundary where a value is mandatory.
type NoValueError struct {
	Pos hcl.Range
}

func (e *NoValueError) Error() string {
	return fmt.Sprintf("%s: no rule applied and no default value exists", e.Pos)
}

// AssertError reports a scope assertion that evaluated to false.
type AssertError struct {
	Pos hcl.Range
}

func (e *AssertError) Error() string {
	return fmt.Sprintf("%s: assertion failed", e.Pos)
}

// MissingInputError reports an entry-scope input the caller did not
// supply.
type MissingInputError struct {
	Scope string
	Var   string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("scope %q: required input %q was not supplied", e.Scope, e.Var)
}

// EvalError is any other expression-level runtime failure, anchored to the
// source position of the failing expression.
type EvalError struct {
	Pos hcl.Range
	Msg string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

func evalErrf(pos hcl.Range, format string, args ...any) *EvalError {
	return &EvalError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
