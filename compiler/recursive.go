package compiler

import (
	"fmt"

	"github.com/nicia-ai/typegraph/internal/sqlbuilder"
	"github.com/nicia-ai/typegraph/kind"
	"github.com/nicia-ai/typegraph/query"
)

// compileRecursiveStep lowers a single RecursiveSpec traversal step into a
// WITH RECURSIVE CTE (spec §4.4 pass 4). The anchor member seeds the walk
// from every node of the anchor alias's kind; the recursive member walks
// one hop across the step's edge kind set per iteration, threading a depth
// counter and a comma-delimited path column cycle prevention checks
// against. A maxHops == 1 spec is flattened to a plain join instead, since
// a single hop needs no recursion.
func compileRecursiveStep(sel *sqlbuilder.Selector, dialect sqlbuilder.Dialect, reg *kind.Registry, graphID string, q query.Query, stepIdx int, onExtra *query.Predicate) error {
	step := q.Steps[stepIdx]
	to := q.Tos[stepIdx]
	r := step.Recursive

	bindings := collectAliasBindings(q)

	if r.MaxHops == 1 {
		plain := step
		plain.Recursive = nil
		return compilePlainStep(sel, reg, graphID, plain, to, stepIdx, bindings, onExtra)
	}

	anchor := step.Anchor
	if anchor == "" {
		anchor = previousAlias(stepIdx, bindings)
	}
	anchorKind := bindings[anchor].kind
	anchorKinds := expandNodeKindSet(reg, anchorKind, false)

	fromCol, toCol := ColFromID, ColToID
	if step.Direction == query.In {
		fromCol, toCol = ColToID, ColFromID
	}
	edges := expandEdgeKindSet(reg, step.EdgeKind, step.Expand)
	edgeKindVals := make([]any, len(edges))
	for i, e := range edges {
		edgeKindVals[i] = e.kind
	}
	anchorKindVals := make([]any, len(anchorKinds))
	for i, k := range anchorKinds {
		anchorKindVals[i] = k
	}

	cteName := recursiveCTEName(to.Alias)
	depthCap := effectiveDepthCap(r)

	baseBody := sqlbuilder.New(dialect)
	baseBody.WriteString("SELECT ")
	baseBody.Ident(ColID).WriteString(" AS root_id, ")
	baseBody.Ident(ColID).WriteString(" AS cur_id, 0 AS depth, ")
	baseBody.WriteString("(',' || CAST(")
	baseBody.Ident(ColID)
	baseBody.WriteString(" AS TEXT) || ',') AS path FROM ")
	baseBody.Ident(TableNodes)
	baseBody.WriteString(" WHERE ")
	sqlbuilder.And(
		sqlbuilder.EQ("", ColGraphID, graphID),
		sqlbuilder.In("", ColKind, anchorKindVals),
		temporalPredicate("", false, query.TemporalCurrent),
	)(baseBody)

	recBody := sqlbuilder.New(dialect)
	recBody.WriteString("SELECT rt.root_id, n.")
	recBody.Ident(ColID)
	recBody.WriteString(" AS cur_id, rt.depth + 1, (rt.path || CAST(n.")
	recBody.Ident(ColID)
	recBody.WriteString(" AS TEXT) || ',') FROM ")
	recBody.Ident(cteName)
	recBody.WriteString(" rt JOIN ")
	recBody.Ident(TableEdges)
	recBody.WriteString(" e ON ")
	sqlbuilder.And(
		sqlbuilder.EQ("e", ColGraphID, graphID),
		sqlbuilder.In("e", ColKind, edgeKindVals),
		sqlbuilder.EQCol("e", fromCol, "rt", "cur_id"),
		temporalPredicate("e", true, query.TemporalCurrent),
	)(recBody)
	recBody.WriteString(" JOIN ")
	recBody.Ident(TableNodes)
	recBody.WriteString(" n ON ")
	sqlbuilder.And(
		sqlbuilder.EQ("n", ColGraphID, graphID),
		sqlbuilder.EQCol("n", ColID, "e", toCol),
		temporalPredicate("n", false, query.TemporalCurrent),
	)(recBody)
	recBody.WriteString(" WHERE rt.depth + 1 <= ")
	recBody.Arg(depthCap)
	if r.CyclePolicy == query.CyclePrevent {
		recBody.WriteString(" AND rt.path NOT LIKE ('%,' || CAST(n.")
		recBody.Ident(ColID)
		recBody.WriteString(" AS TEXT) || ',%')")
	}

	baseSQL, baseArgs := baseBody.Query()
	recSQL, recArgs := recBody.Query()
	cteBody := baseSQL + " UNION ALL " + recSQL
	cteArgs := append(append([]any{}, baseArgs...), recArgs...)
	sel.With(cteName, true, cteBody, cteArgs)

	depthPreds := []sqlbuilder.Predicate{}
	if r.MinHops > 0 {
		depthPreds = append(depthPreds, sqlbuilder.GTE(cteName, "depth", r.MinHops))
	}
	if r.MaxHops > 0 {
		depthPreds = append(depthPreds, sqlbuilder.LTE(cteName, "depth", r.MaxHops))
	}

	joinOn := append([]sqlbuilder.Predicate{sqlbuilder.EQCol(cteName, "root_id", anchor, ColID)}, depthPreds...)
	if step.Optional {
		sel.LeftJoin(cteName, cteName, sqlbuilder.And(joinOn...))
	} else {
		sel.Join(cteName, cteName, sqlbuilder.And(joinOn...))
	}

	toKinds := expandNodeKindSet(reg, to.Kind, to.IncludeSubClasses)
	toKindVals := make([]any, len(toKinds))
	for i, k := range toKinds {
		toKindVals[i] = k
	}
	nodePreds := []sqlbuilder.Predicate{
		sqlbuilder.EQ(to.Alias, ColGraphID, graphID),
		sqlbuilder.In(to.Alias, ColKind, toKindVals),
		sqlbuilder.EQCol(to.Alias, ColID, cteName, "cur_id"),
		temporalPredicate(to.Alias, false, query.TemporalCurrent),
	}
	if onExtra != nil {
		p, err := RenderPredicate(*onExtra, nil)
		if err != nil {
			return fmt.Errorf("typegraph: hoisted predicate on recursive step %d: %w", stepIdx, err)
		}
		nodePreds = append(nodePreds, p)
	}

	if step.Optional {
		sel.LeftJoin(TableNodes, to.Alias, sqlbuilder.And(nodePreds...))
	} else {
		sel.Join(TableNodes, to.Alias, sqlbuilder.And(nodePreds...))
	}
	return nil
}

// recursiveCTEName is the CTE alias a recursive traversal step's destination
// alias is exposed under, shared by compileRecursiveStep and the projection
// pass (Depth/Path projection sources read from this CTE, not from the
// destination node table).
func recursiveCTEName(destAlias string) string { return "rt_" + destAlias }
