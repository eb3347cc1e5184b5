package lower

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agext/levenshtein"
	"github.com/hashicorp/hcl/v2"

	"github.com/juris-lang/juris/internal/model"
)

// RuleTree arranges one definition site's rules by priority. Rules carries
// one same-priority group (the base tier); Exceptions holds the subtrees
// that override it. A leaf is a tree with no exceptions.
type RuleTree struct {
	Exceptions []*RuleTree
	Rules      model.RuleSet
}

// ruleGroup is one vertex of the exception graph: every rule sharing one
// priority label, plus the resolved groups it declares itself an exception
// to. Base cases are the groups with no targets.
type ruleGroup struct {
	label   string
	rules   model.RuleSet
	targets []*ruleGroup
}

func (g *ruleGroup) seq() int {
	return g.rules[0].Seq
}

// buildRuleForest constructs the exception graph of one definition site,
// rejects cycles, and returns one rule tree per base group, ordered by
// first declaration.
func buildRuleForest(def *model.ScopeDef) ([]*RuleTree, hcl.Diagnostics) {
	groups, byName, diags := groupRules(def)
	if diags.HasErrors() {
		return nil, diags
	}

	diags = append(diags, resolveExceptionEdges(def, groups, byName)...)
	if diags.HasErrors() {
		return nil, diags
	}

	diags = append(diags, detectExceptionCycles(def, groups)...)
	if diags.HasErrors() {
		return nil, diags
	}

	// Predecessors of a group are the groups declared exceptions to it:
	// they override it, so they become its exception subtrees.
	preds := make(map[*ruleGroup][]*ruleGroup)
	for _, g := range groups {
		for _, tgt := range g.targets {
			preds[tgt] = append(preds[tgt], g)
		}
	}
	for _, ps := range preds {
		sort.Slice(ps, func(i, j int) bool { return ps[i].seq() < ps[j].seq() })
	}

	var subtree func(g *ruleGroup) *RuleTree
	subtree = func(g *ruleGroup) *RuleTree {
		t := &RuleTree{Rules: g.rules}
		for _, p := range preds[g] {
			t.Exceptions = append(t.Exceptions, subtree(p))
		}
		return t
	}

	var forest []*RuleTree
	for _, g := range groups {
		if len(g.targets) == 0 {
			forest = append(forest, subtree(g))
		}
	}
	return forest, diags
}

// groupRules partitions the site's rules into priority groups and indexes
// them by label and by rule name. Rules sharing a label must agree on their
// exception targets, the label is the unit the graph orders.
func groupRules(def *model.ScopeDef) ([]*ruleGroup, map[string]*ruleGroup, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	var groups []*ruleGroup
	byLabel := make(map[string]*ruleGroup)
	byName := make(map[string]*ruleGroup)

	for _, r := range def.Rules {
		label := r.GroupLabel()
		g, ok := byLabel[label]
		if !ok {
			g = &ruleGroup{label: label}
			byLabel[label] = g
			groups = append(groups, g)
		} else if !sameTargets(g.rules[0].ExceptionTo, r.ExceptionTo) {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Inconsistent exception targets",
				Detail: fmt.Sprintf("Rule %q shares label %q with the rule at %s but declares different exception targets; grouped rules form one priority tier and must agree.",
					r.Name, label, g.rules[0].DeclRange),
				Subject: r.DeclRange.Ptr(),
			})
			continue
		}
		g.rules = append(g.rules, r)
		byName[r.Name] = g
	}

	// Labels and rule names resolve in one namespace; map the names last so
	// an explicit label wins over an incidental rule-name collision.
	for name, g := range byLabel {
		byName[name] = g
	}
	return groups, byName, diags
}

func sameTargets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func resolveExceptionEdges(def *model.ScopeDef, groups []*ruleGroup, byName map[string]*ruleGroup) hcl.Diagnostics {
	var diags hcl.Diagnostics
	for _, g := range groups {
		seen := make(map[string]bool, len(g.rules[0].ExceptionTo))
		for _, tname := range g.rules[0].ExceptionTo {
			if seen[tname] {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Duplicate exception target",
					Detail:   fmt.Sprintf("Rule %q lists %q twice; a tier overrides each target once.", g.rules[0].Name, tname),
					Subject:  g.rules[0].DeclRange.Ptr(),
				})
				continue
			}
			seen[tname] = true
			tgt, ok := byName[tname]
			if !ok {
				options := make([]string, 0, len(byName))
				for n := range byName {
					options = append(options, n)
				}
				sort.Strings(options)
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Unknown exception target",
					Detail: fmt.Sprintf("No rule or label named %q defines %s.%s",
						tname, def.Key, didYouMean(tname, options)),
					Subject: g.rules[0].DeclRange.Ptr(),
				})
				continue
			}
			g.targets = append(g.targets, tgt)
		}
	}
	return diags
}

// detectExceptionCycles runs a three-color depth-first search over the
// is-exception-of edges and reports every rule position implicated in a
// cycle.
func detectExceptionCycles(def *model.ScopeDef, groups []*ruleGroup) hcl.Diagnostics {
	var diags hcl.Diagnostics

	const (
		white = iota
		grey
		black
	)
	colors := make(map[*ruleGroup]int, len(groups))
	var stack []*ruleGroup

	var visit func(g *ruleGroup)
	visit = func(g *ruleGroup) {
		colors[g] = grey
		stack = append(stack, g)
		for _, tgt := range g.targets {
			switch colors[tgt] {
			case grey:
				diags = append(diags, exceptionCycleDiag(def, stack, tgt))
			case white:
				visit(tgt)
			}
		}
		stack = stack[:len(stack)-1]
		colors[g] = black
	}

	for _, g := range groups {
		if colors[g] == white {
			visit(g)
		}
	}
	return diags
}

func exceptionCycleDiag(def *model.ScopeDef, stack []*ruleGroup, repeated *ruleGroup) *hcl.Diagnostic {
	start := 0
	for i, g := range stack {
		if g == repeated {
			start = i
			break
		}
	}
	var labels []string
	var positions []string
	for _, g := range stack[start:] {
		labels = append(labels, g.label)
		for _, r := range g.rules {
			positions = append(positions, fmt.Sprintf("%s at %s", r.Name, r.DeclRange))
		}
	}
	labels = append(labels, repeated.label)

	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Exception cycle",
		Detail: fmt.Sprintf("The rules defining %s declare each other as exceptions in a cycle: %s. Rules involved: %s.",
			def.Key, strings.Join(labels, " -> "), strings.Join(positions, "; ")),
		Subject: repeated.rules[0].DeclRange.Ptr(),
	}
}

func didYouMean(given string, options []string) string {
	for _, opt := range options {
		if levenshtein.Distance(given, opt, nil) < 3 {
			return fmt.Sprintf(" Did you mean %q?", opt)
		}
	}
	return ""
}
