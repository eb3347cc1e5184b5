package model

import (
	"github.com/hashicorp/hcl/v2"
)

// Rule is one legal definition statement for a scope variable: "if the
// justification holds, the variable is the consequence", possibly declared
// as an exception to other rules of the same variable.
type Rule struct {
	// Name is unique among the rules of one definition site.
	Name string

	// Label groups same-priority rules: all rules sharing a label form one
	// piecewise tier and one vertex of the exception graph. A rule without
	// an explicit label is its own group, addressed by its name.
	Label string

	// Param is the rule's private parameter name when the variable is
	// function-typed, "" otherwise. Parameter presence must agree across
	// all rules of a variable.
	Param string

	// Just is the justification expression; nil means unconditionally true.
	Just hcl.Expression

	// Cons is the consequence expression.
	Cons hcl.Expression

	// ExceptionTo lists the labels (or rule names) this rule overrides.
	// Empty for base cases.
	ExceptionTo []string

	// DeclRange is the rule's position in the source, used in diagnostics
	// and runtime traces.
	DeclRange hcl.Range

	// Seq is the rule's declaration ordinal within its scope, used for
	// deterministic sibling ordering in the rule tree.
	Seq int
}

// GroupLabel returns the label that names this rule's priority group.
func (r *Rule) GroupLabel() string {
	if r.Label != "" {
		return r.Label
	}
	return r.Name
}

// RuleSet is the unordered collection of rules for one definition site.
// The slice keeps declaration order only so that compiled output is
// reproducible; priority is expressed solely through exception edges.
type RuleSet []*Rule
