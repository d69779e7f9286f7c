package compiler

import (
	"github.com/nicia-ai/typegraph/internal/sqlbuilder"
	"github.com/nicia-ai/typegraph/kind"
	"github.com/nicia-ai/typegraph/query"
)

func setOpText(k query.SetOpKind) string {
	switch k {
	case query.SetUnionAll:
		return "UNION ALL"
	case query.SetIntersect:
		return "INTERSECT"
	case query.SetExcept:
		return "EXCEPT"
	default:
		return "UNION"
	}
}

// compileSetOp composes left (already fully built, minus its own order/
// limit) with q.Set.Other via UNION/UNION ALL/INTERSECT/EXCEPT (spec §4.4
// pass 6). The outer Query's OrderBy/Limit/Offset apply to the combined
// result, not to either side alone, so both sides are wrapped as
// subqueries and the outer ordering/limiting wraps the whole thing —
// emitting order/limit on a bare compound SELECT is ambiguous across
// dialects without the wrap.
//
// This build does not support cursor-based pagination across a set-op
// result (spec §6.4's fingerprint ties a cursor to one query's traversal
// shape, and a combined result has two); a Paginate call on a set-op query
// falls back to a plain LIMIT using First/Last as a row count.
//
// Outer ORDER BY terms are resolved against the combined result's column
// names, which match the default (unprefixed) projection shape column
// names (id, kind, props, ...) or an explicit ProjectionTerm's OutputKey —
// ordering a set-op result by a JSON prop path that wasn't itself
// projected under a matching name isn't supported.
func compileSetOp(reg *kind.Registry, graphID string, q query.Query, dialect sqlbuilder.Dialect, bound params, left *sqlbuilder.Selector) (*Compiled, error) {
	leftSQL, leftArgs := left.Query()

	rightCompiled, err := Compile(reg, graphID, *q.Set.Other, dialect, bound)
	if err != nil {
		return nil, err
	}

	combinedFragment := "(" + leftSQL + ") " + setOpText(q.Set.Kind) + " (" + rightCompiled.SQL + ")"
	combinedArgs := append(append([]any{}, leftArgs...), rightCompiled.Args...)

	wrapper := sqlbuilder.New(dialect)
	wrapper.WriteString("SELECT * FROM (")
	sqlbuilder.Rebind(wrapper, combinedFragment, combinedArgs)
	wrapper.WriteString(") ")
	wrapper.Ident("combined")

	if q.Page != nil {
		n := 0
		if q.Page.First != nil {
			n = *q.Page.First
		} else if q.Page.Last != nil {
			n = *q.Page.Last
		}
		if n > 0 {
			wrapper.WriteString(" LIMIT ")
			wrapper.Arg(n)
		}
		text, args := wrapper.Query()
		return &Compiled{SQL: text, Args: args}, nil
	}

	if len(q.OrderBy) > 0 {
		wrapper.WriteString(" ORDER BY ")
		for i, t := range q.OrderBy {
			if i > 0 {
				wrapper.WriteString(", ")
			}
			col := t.Prop
			if t.Prop == "id" {
				col = ColID
			} else if mc, ok := metaColumn(t.Prop); ok {
				col = mc
			}
			wrapper.Ident("combined").WriteString(".").Ident(col)
			if t.Desc {
				wrapper.WriteString(" DESC")
			} else {
				wrapper.WriteString(" ASC")
			}
		}
	}
	if q.Limit != nil {
		wrapper.WriteString(" LIMIT ")
		wrapper.Arg(*q.Limit)
	}
	if q.Offset != nil {
		wrapper.WriteString(" OFFSET ")
		wrapper.Arg(*q.Offset)
	}

	text, args := wrapper.Query()
	return &Compiled{SQL: text, Args: args}, nil
}
