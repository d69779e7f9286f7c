package compiler

import (
	"github.com/nicia-ai/typegraph"
	"github.com/nicia-ai/typegraph/internal/sqlbuilder"
	"github.com/nicia-ai/typegraph/kind"
	"github.com/nicia-ai/typegraph/query"
)

// Compiled is the result of Compile: dialect SQL text, its positional
// bind arguments, and whether the compiler overfetched by one row to
// compute hasNextPage/hasPrevPage (spec §4.4 pass 5).
type Compiled struct {
	SQL         string
	Args        []any
	Overfetched bool
}

// Compile lowers q into dialect SQL text against the fixed physical
// schema, for the given graph id and parameter bindings (spec §4.4). reg
// supplies the ontology closures pass 1 (kind-set expansion) needs.
func Compile(reg *kind.Registry, graphID string, q query.Query, dialect sqlbuilder.Dialect, bound map[string]any) (*Compiled, error) {
	for _, step := range q.Steps {
		if err := validateRecursiveSpec(step.Recursive); err != nil {
			return nil, err
		}
	}

	bindings := collectAliasBindings(q)
	perStepPredicate, remainder := hoistPredicates(q.Where, bindings)

	sel := sqlbuilder.Select(dialect)
	baseKinds := expandNodeKindSet(reg, q.From.Kind, q.From.ExpandSubClasses)
	sel.From(TableNodes, q.From.Alias)
	sel.Where(sqlbuilder.EQ(q.From.Alias, ColGraphID, graphID))
	sel.Where(kindInPredicate(q.From.Alias, baseKinds))
	sel.Where(temporalPredicate(q.From.Alias, false, q.Temporal))

	recursiveCount := 0
	for i, step := range q.Steps {
		to := q.Tos[i]
		if step.Recursive != nil {
			recursiveCount++
			if recursiveCount > 1 {
				return nil, &typegraph.CompilationError{Message: "this build compiles at most one recursive traversal step per query"}
			}
			if err := compileRecursiveStep(sel, dialect, reg, graphID, q, i, perStepPredicate[i]); err != nil {
				return nil, err
			}
			continue
		}
		if err := compilePlainStep(sel, reg, graphID, step, to, i, bindings, perStepPredicate[i]); err != nil {
			return nil, err
		}
	}

	for _, leaf := range remainder {
		p, err := RenderPredicate(leaf, bound)
		if err != nil {
			return nil, err
		}
		sel.Where(p)
	}

	if err := applyProjection(sel, dialect, q); err != nil {
		return nil, err
	}
	if err := applyGroupByHaving(sel, dialect, q, bound); err != nil {
		return nil, err
	}

	if q.Set != nil {
		return compileSetOp(reg, graphID, q, dialect, bound, sel)
	}

	overfetched := false
	if q.Page != nil {
		var err error
		overfetched, err = applyPagination(sel, dialect, q, bound)
		if err != nil {
			return nil, err
		}
	} else {
		applyOrderBy(sel, dialect, q)
		if q.Limit != nil {
			sel.Limit(*q.Limit)
		}
		if q.Offset != nil {
			sel.Offset(*q.Offset)
		}
	}

	text, args := sel.Query()
	return &Compiled{SQL: text, Args: args, Overfetched: overfetched}, nil
}

func kindInPredicate(alias string, kinds []string) sqlbuilder.Predicate {
	vals := make([]any, len(kinds))
	for i, k := range kinds {
		vals[i] = k
	}
	return sqlbuilder.In(alias, ColKind, vals)
}

// temporalPredicate lowers a query.TemporalMode to the deletion/validity
// filter spec §3 invariant 6 names. isEdge only matters for includeEnded,
// which additionally admits edges whose valid_to has passed.
func temporalPredicate(alias string, isEdge bool, mode query.TemporalMode) sqlbuilder.Predicate {
	switch mode.Mode {
	case "includeTombstones":
		return sqlbuilder.Raw("1 = 1")
	case "includeEnded":
		if isEdge {
			return sqlbuilder.Or(
				sqlbuilder.IsNull(alias, ColDeletedAt),
				sqlbuilder.NotNull(alias, ColValidTo),
			)
		}
		return sqlbuilder.IsNull(alias, ColDeletedAt)
	case "asOf":
		return sqlbuilder.And(
			sqlbuilder.IsNull(alias, ColDeletedAt),
			sqlbuilder.LTE(alias, ColValidFrom, mode.AsOf),
			sqlbuilder.Or(sqlbuilder.IsNull(alias, ColValidTo), sqlbuilder.GT(alias, ColValidTo, mode.AsOf)),
		)
	default: // "current"
		return sqlbuilder.IsNull(alias, ColDeletedAt)
	}
}

func compilePlainStep(sel *sqlbuilder.Selector, reg *kind.Registry, graphID string, step query.TraversalStep, to query.ToClause, stepIdx int, bindings map[string]aliasBinding, onExtra *query.Predicate) error {
	anchor := step.Anchor
	if anchor == "" {
		anchor = previousAlias(stepIdx, bindings)
	}

	edgeKinds := expandEdgeKindSet(reg, step.EdgeKind, step.Expand)
	kinds := make([]any, len(edgeKinds))
	for i, e := range edgeKinds {
		kinds[i] = e.kind
	}

	fromCol, toCol := ColFromID, ColToID
	if step.Direction == query.In {
		fromCol, toCol = ColToID, ColFromID
	}

	edgeOn := sqlbuilder.And(
		sqlbuilder.EQ(step.EdgeAlias, ColGraphID, graphID),
		sqlbuilder.In(step.EdgeAlias, ColKind, kinds),
		sqlbuilder.EQCol(step.EdgeAlias, fromCol, anchor, ColID),
		temporalPredicate(step.EdgeAlias, true, query.TemporalCurrent),
	)

	toKinds := expandNodeKindSet(reg, to.Kind, to.IncludeSubClasses)
	toKindVals := make([]any, len(toKinds))
	for i, k := range toKinds {
		toKindVals[i] = k
	}
	nodeOn := sqlbuilder.And(
		sqlbuilder.EQ(to.Alias, ColGraphID, graphID),
		sqlbuilder.In(to.Alias, ColKind, toKindVals),
		sqlbuilder.EQCol(to.Alias, ColID, step.EdgeAlias, toCol),
		temporalPredicate(to.Alias, false, query.TemporalCurrent),
	)

	if step.Optional {
		sel.LeftJoin(TableEdges, step.EdgeAlias, edgeOn)
		nodeJoinPreds := []sqlbuilder.Predicate{nodeOn}
		if onExtra != nil {
			p, err := RenderPredicate(*onExtra, nil)
			if err != nil {
				return err
			}
			nodeJoinPreds = append(nodeJoinPreds, p)
		}
		sel.LeftJoin(TableNodes, to.Alias, sqlbuilder.And(nodeJoinPreds...))
		return nil
	}

	sel.Join(TableEdges, step.EdgeAlias, edgeOn)
	sel.Join(TableNodes, to.Alias, nodeOn)
	return nil
}

// previousAlias is the default traversal anchor: the most recently bound
// alias (spec §4.3: "traverse from the most recent one" is the default).
func previousAlias(stepIdx int, bindings map[string]aliasBinding) string {
	best := ""
	for _, b := range bindings {
		if b.isEdge {
			continue
		}
		if b.stepIndex < stepIdx || (b.stepIndex == -1 && stepIdx >= 0) {
			if b.stepIndex > bestIndexOf(best, bindings) {
				best = b.alias
			}
		}
	}
	return best
}

func bestIndexOf(alias string, bindings map[string]aliasBinding) int {
	if alias == "" {
		return -2
	}
	return bindings[alias].stepIndex
}
