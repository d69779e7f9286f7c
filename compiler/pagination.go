package compiler

import (
	"github.com/nicia-ai/typegraph"
	"github.com/nicia-ai/typegraph/internal/sqlbuilder"
	"github.com/nicia-ai/typegraph/query"
)

// applyOrderBy applies a Query's OrderBy terms directly (the non-paginated
// path; cursor pagination has its own ordering logic in applyPagination).
func applyOrderBy(sel *sqlbuilder.Selector, dialect sqlbuilder.Dialect, q query.Query) {
	for _, t := range q.OrderBy {
		dir := sqlbuilder.OrderAsc
		if t.Desc {
			dir = sqlbuilder.OrderDesc
		}
		applyOrderTerm(sel, dialect, t, dir)
	}
}

func applyOrderTerm(sel *sqlbuilder.Selector, dialect sqlbuilder.Dialect, t query.OrderTerm, dir sqlbuilder.OrderDirection) {
	if t.Prop == "id" {
		sel.OrderBy(t.Alias, ColID, dir)
		return
	}
	if col, ok := metaColumn(t.Prop); ok {
		sel.OrderBy(t.Alias, col, dir)
		return
	}
	sel.OrderByExpr(exprColumn(dialect, t.Alias, t.Prop), dir)
}

func exprColumn(dialect sqlbuilder.Dialect, alias, prop string) string {
	if prop == "id" {
		return quotedCol(alias, ColID)
	}
	if col, ok := metaColumn(prop); ok {
		return quotedCol(alias, col)
	}
	b := sqlbuilder.New(dialect)
	sqlbuilder.JSONExtract(b, alias, ColProps, prop)
	return b.String()
}

func quotedCol(alias, field string) string {
	b := sqlbuilder.New(sqlbuilder.SQLite) // identifier quoting needs no dialect branch
	b.Ident(alias).WriteString(".").Ident(field)
	return b.String()
}

func exprCmp(expr, op string, v any) sqlbuilder.Predicate {
	return func(b *sqlbuilder.Builder) {
		b.WriteString(expr)
		b.WriteString(" " + op + " ")
		b.Arg(v)
	}
}

func exprEq(expr string, v any) sqlbuilder.Predicate { return exprCmp(expr, "=", v) }

// cmpOp resolves the seek comparison operator for one order column: its
// own ascending/descending sense, combined with whether the cursor scans
// forward or backward (a backward scan walks the result set in reverse,
// so every comparison flips).
func cmpOp(desc, forward bool) string {
	asc := !desc
	switch {
	case forward && asc:
		return ">"
	case forward && !asc:
		return "<"
	case !forward && asc:
		return "<"
	default:
		return ">"
	}
}

// buildSeekPredicate lowers a decoded cursor's value tuple to the
// row-value seek predicate standard keyset pagination uses: for each order
// column in turn, match all prior columns exactly and strictly compare
// that column, OR'd together, with a final all-equal clause tie-broken on
// the primary key (spec §6.4).
func buildSeekPredicate(dialect sqlbuilder.Dialect, orderTerms []query.OrderTerm, values []any, pkAlias string, pk string, forward bool) sqlbuilder.Predicate {
	var clauses []sqlbuilder.Predicate
	for i, t := range orderTerms {
		var conj []sqlbuilder.Predicate
		for j := 0; j < i; j++ {
			conj = append(conj, exprEq(exprColumn(dialect, orderTerms[j].Alias, orderTerms[j].Prop), values[j]))
		}
		expr := exprColumn(dialect, t.Alias, t.Prop)
		conj = append(conj, exprCmp(expr, cmpOp(t.Desc, forward), values[i]))
		clauses = append(clauses, sqlbuilder.And(conj...))
	}
	var allEq []sqlbuilder.Predicate
	for j, t := range orderTerms {
		allEq = append(allEq, exprEq(exprColumn(dialect, t.Alias, t.Prop), values[j]))
	}
	allEq = append(allEq, exprCmp(quotedCol(pkAlias, ColID), cmpOp(false, forward), pk))
	clauses = append(clauses, sqlbuilder.And(allEq...))
	return sqlbuilder.Or(clauses...)
}

// applyPagination lowers cursor-based pagination (spec §4.4 pass 5, §6.4):
// decodes After/Before against the query's fingerprint, rewrites it to a
// seek predicate, orders in scan direction (reversed for a backward page,
// which the store reverses back before returning to the caller), and
// overfetches by one row so the store can report hasNextPage/hasPrevPage
// without a second round trip.
func applyPagination(sel *sqlbuilder.Selector, dialect sqlbuilder.Dialect, q query.Query, bound params) (bool, error) {
	page := q.Page
	forward := true
	limit := 0
	cursorRaw := ""
	if page.Last != nil || page.Before != "" {
		forward = false
	}
	if forward {
		if page.First != nil {
			limit = *page.First
		}
		cursorRaw = page.After
	} else {
		if page.Last != nil {
			limit = *page.Last
		}
		cursorRaw = page.Before
	}
	if limit <= 0 {
		return false, &typegraph.CompilationError{Message: "pagination requires a positive first or last count"}
	}

	orderTerms := q.OrderBy
	if len(orderTerms) == 0 {
		orderTerms = []query.OrderTerm{{Alias: q.From.Alias, Prop: "id"}}
	}

	if cursorRaw != "" {
		dc, err := query.DecodeCursor(q, cursorRaw)
		if err != nil {
			return false, err
		}
		sel.Where(buildSeekPredicate(dialect, orderTerms, dc.Values, q.From.Alias, dc.PrimaryKey, forward))
	}

	for _, t := range orderTerms {
		asc := !t.Desc
		if !forward {
			asc = !asc
		}
		dir := sqlbuilder.OrderDesc
		if asc {
			dir = sqlbuilder.OrderAsc
		}
		applyOrderTerm(sel, dialect, t, dir)
	}
	pkDir := sqlbuilder.OrderAsc
	if !forward {
		pkDir = sqlbuilder.OrderDesc
	}
	sel.OrderBy(q.From.Alias, ColID, pkDir)

	sel.Limit(limit + 1)
	return true, nil
}
