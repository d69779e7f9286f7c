package compiler

import (
	"fmt"

	"github.com/nicia-ai/typegraph"
	"github.com/nicia-ai/typegraph/kind"
	"github.com/nicia-ai/typegraph/query"
)

// kindSet expansion (pass 1): widen a single declared kind to the set of
// concrete kinds a query alias should match, honoring expandSubClasses.
func expandNodeKindSet(reg *kind.Registry, k string, expand bool) []string {
	if !expand {
		return []string{k}
	}
	return reg.ExpandSubClasses(k)
}

// expandEdgeKindSet widens a TraversalStep's edge kind per its ExpandMode
// (spec §4.4 pass 1). swapped records whether kind was reached via a
// declared inverse, which obliges a direction swap in the join.
type expandedEdge struct {
	kind    string
	swapped bool
}

func expandEdgeKindSet(reg *kind.Registry, ek string, mode query.ExpandMode) []expandedEdge {
	out := []expandedEdge{{kind: ek, swapped: false}}
	switch mode {
	case query.ExpandNone:
		return out
	case query.ExpandInverse:
		if inv, ok := reg.GetInverseEdge(ek); ok && inv != ek {
			out = append(out, expandedEdge{kind: inv, swapped: true})
		}
	case query.ExpandImplying:
		for _, f := range reg.GetImplyingEdges(ek) {
			out = append(out, expandedEdge{kind: f, swapped: false})
		}
	case query.ExpandAll:
		if inv, ok := reg.GetInverseEdge(ek); ok && inv != ek {
			out = append(out, expandedEdge{kind: inv, swapped: true})
		}
		for _, f := range reg.GetImplyingEdges(ek) {
			out = append(out, expandedEdge{kind: f, swapped: false})
		}
	}
	return out
}

// validateRecursiveSpec enforces the depth bounds spec §4.3 names.
func validateRecursiveSpec(r *query.RecursiveSpec) error {
	if r == nil {
		return nil
	}
	if r.MaxHops > maxExplicitHops {
		return &typegraph.CompilationError{Message: fmt.Sprintf("maxHops %d exceeds the %d cap", r.MaxHops, maxExplicitHops)}
	}
	if r.MinHops < 0 || (r.MaxHops != 0 && r.MinHops > r.MaxHops) {
		return &typegraph.CompilationError{Message: "recursive spec has an inconsistent minHops/maxHops range"}
	}
	return nil
}

// effectiveDepthCap resolves the actual depth a recursive CTE's
// termination condition enforces: the explicit maxHops if set and within
// bounds, else the unbounded-recursion cap.
func effectiveDepthCap(r *query.RecursiveSpec) int {
	if r.MaxHops > 0 {
		return r.MaxHops
	}
	return recursionDepthCap
}

// aliasBinding records where an alias comes from, used by predicate
// hoisting and column pruning.
type aliasBinding struct {
	alias      string
	kind       string // node kind this alias ranges over; empty for edge aliases
	isEdge     bool
	optional   bool // true if this alias was introduced by an Optional traversal step
	stepIndex  int  // index into Query.Steps, -1 for the base FromClause alias
}

// collectAliasBindings walks the Query's From/Steps/Tos to determine,
// for each alias, whether it participates in an optional (LEFT JOIN)
// step — needed so predicate hoisting never turns an outer join back
// into an inner join by mis-placing a filter in WHERE (spec §4.4 pass 2).
func collectAliasBindings(q query.Query) map[string]aliasBinding {
	out := map[string]aliasBinding{
		q.From.Alias: {alias: q.From.Alias, kind: q.From.Kind, stepIndex: -1},
	}
	for i, step := range q.Steps {
		out[step.EdgeAlias] = aliasBinding{alias: step.EdgeAlias, isEdge: true, optional: step.Optional, stepIndex: i}
		to := q.Tos[i]
		out[to.Alias] = aliasBinding{alias: to.Alias, kind: to.Kind, optional: step.Optional, stepIndex: i}
	}
	return out
}

// aliasesOf collects every alias a predicate subtree references.
func aliasesOf(p query.Predicate, into map[string]struct{}) {
	switch p.Kind {
	case query.PredLeaf:
		if p.Left.Alias != "" {
			into[p.Left.Alias] = struct{}{}
		}
		if p.Right.Alias != "" {
			into[p.Right.Alias] = struct{}{}
		}
		for _, v := range p.Values {
			if v.Alias != "" {
				into[v.Alias] = struct{}{}
			}
		}
	default:
		for _, c := range p.Children {
			aliasesOf(c, into)
		}
	}
}

// singleAlias reports the one alias a predicate subtree references, and
// whether it references exactly one (required for safe ON-clause
// hoisting, since a multi-alias or OR-combined predicate could change
// the outer join's row multiplicity if hoisted).
func singleAlias(p query.Predicate) (string, bool) {
	if p.Kind == query.PredOr {
		return "", false
	}
	set := map[string]struct{}{}
	aliasesOf(p, set)
	if len(set) != 1 {
		return "", false
	}
	for a := range set {
		return a, true
	}
	return "", false
}

// hoistPredicates splits a Where tree into: predicates safe to push into
// a specific optional step's ON-clause, and the remainder, which folds
// into the base WHERE (spec §4.4 pass 2).
func hoistPredicates(where *query.Predicate, bindings map[string]aliasBinding) (perStep map[int]*query.Predicate, remainder []query.Predicate) {
	perStep = map[int]*query.Predicate{}
	if where == nil {
		return perStep, nil
	}
	var leaves []query.Predicate
	if where.Kind == query.PredAnd {
		leaves = where.Children
	} else {
		leaves = []query.Predicate{*where}
	}
	for _, leaf := range leaves {
		alias, ok := singleAlias(leaf)
		if !ok {
			remainder = append(remainder, leaf)
			continue
		}
		b, known := bindings[alias]
		if !known || !b.optional {
			remainder = append(remainder, leaf)
			continue
		}
		if existing, has := perStep[b.stepIndex]; has {
			combined := query.And(*existing, leaf)
			perStep[b.stepIndex] = &combined
		} else {
			l := leaf
			perStep[b.stepIndex] = &l
		}
	}
	return perStep, remainder
}
