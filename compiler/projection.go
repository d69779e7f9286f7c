package compiler

import (
	"github.com/nicia-ai/typegraph"
	"github.com/nicia-ai/typegraph/internal/sqlbuilder"
	"github.com/nicia-ai/typegraph/query"
)

// metaColumn maps a ProjectionTerm/GroupByTerm's named system field to its
// physical column.
func metaColumn(name string) (string, bool) {
	switch name {
	case "version":
		return ColVersion, true
	case "validFrom":
		return ColValidFrom, true
	case "validTo":
		return ColValidTo, true
	case "createdAt":
		return ColCreatedAt, true
	case "updatedAt":
		return ColUpdatedAt, true
	case "deletedAt":
		return ColDeletedAt, true
	default:
		return "", false
	}
}

// applyProjection lowers a Query's Projection terms to SELECT columns
// (spec §4.3 Projection). An empty projection list defaults to the base
// alias's full row (id, kind, props, and the six temporal/version
// columns) — the common "fetch whole nodes" case (spec §4.4 pass 3, column
// pruning: project only what's asked for, never every joined alias's
// columns).
func applyProjection(sel *sqlbuilder.Selector, dialect sqlbuilder.Dialect, q query.Query) error {
	if len(q.Projection) == 0 {
		defaultNodeColumns(sel, dialect, q.From.Alias, "")
		return nil
	}
	for _, term := range q.Projection {
		if err := applyProjectionTerm(sel, dialect, term); err != nil {
			return err
		}
	}
	return nil
}

func defaultNodeColumns(sel *sqlbuilder.Selector, dialect sqlbuilder.Dialect, alias, prefix string) {
	for _, c := range []string{ColID, ColKind, ColProps, ColVersion, ColValidFrom, ColValidTo, ColCreatedAt, ColUpdatedAt, ColDeletedAt} {
		b := sqlbuilder.New(dialect)
		b.Ident(alias).WriteString(".").Ident(c)
		sel.ColumnAs(b.String(), prefix+c)
	}
}

func applyProjectionTerm(sel *sqlbuilder.Selector, dialect sqlbuilder.Dialect, term query.ProjectionTerm) error {
	switch term.Source {
	case query.ProjectNode, query.ProjectEdge:
		if term.Prop == "" {
			defaultNodeColumns(sel, dialect, term.Alias, term.OutputKey+"_")
			return nil
		}
		b := sqlbuilder.New(dialect)
		sqlbuilder.JSONExtract(b, term.Alias, ColProps, term.Prop)
		sel.ColumnAs(b.String(), term.OutputKey)
	case query.ProjectMeta:
		col, ok := metaColumn(term.MetaField)
		if !ok {
			return &typegraph.CompilationError{Message: "unknown meta projection field " + term.MetaField}
		}
		b := sqlbuilder.New(dialect)
		b.Ident(term.Alias).WriteString(".").Ident(col)
		sel.ColumnAs(b.String(), term.OutputKey)
	case query.ProjectAggregate:
		if term.Aggregate == nil {
			return &typegraph.CompilationError{Message: "aggregate projection term is missing its Aggregate"}
		}
		sel.ColumnAs(renderAggregateExpr(dialect, *term.Aggregate), term.OutputKey)
	case query.ProjectDepth:
		b := sqlbuilder.New(dialect)
		b.Ident(recursiveCTEName(term.Alias)).WriteString(".").Ident("depth")
		sel.ColumnAs(b.String(), term.OutputKey)
	case query.ProjectPath:
		b := sqlbuilder.New(dialect)
		b.Ident(recursiveCTEName(term.Alias)).WriteString(".").Ident("path")
		sel.ColumnAs(b.String(), term.OutputKey)
	case query.ProjectLiteral:
		b := sqlbuilder.New(dialect)
		b.Arg(term.Literal)
		sel.ColumnAs(b.String(), term.OutputKey)
	default:
		return &typegraph.CompilationError{Message: "unsupported projection source"}
	}
	return nil
}

// renderAggregateExpr lowers an Aggregate to a SQL expression string.
// Sum/Avg/Min/Max read a property out of the JSON props column and cast it
// numeric first, since json_extract/jsonb_extract_path_text both yield
// text; Count(*) needs no field at all.
func renderAggregateExpr(dialect sqlbuilder.Dialect, agg query.Aggregate) string {
	b := sqlbuilder.New(dialect)
	switch agg.Kind {
	case query.AggCount:
		b.WriteString("COUNT(")
		if agg.Field == "" {
			b.WriteString("*")
		} else {
			writeNumericProp(b, agg.Alias, agg.Field)
		}
		b.WriteString(")")
	case query.AggSum:
		b.WriteString("SUM(")
		writeNumericProp(b, agg.Alias, agg.Field)
		b.WriteString(")")
	case query.AggAvg:
		b.WriteString("AVG(")
		writeNumericProp(b, agg.Alias, agg.Field)
		b.WriteString(")")
	case query.AggMin:
		b.WriteString("MIN(")
		writeNumericProp(b, agg.Alias, agg.Field)
		b.WriteString(")")
	case query.AggMax:
		b.WriteString("MAX(")
		writeNumericProp(b, agg.Alias, agg.Field)
		b.WriteString(")")
	}
	return b.String()
}

func writeNumericProp(b *sqlbuilder.Builder, alias, field string) {
	cast := "REAL"
	if b.Dialect() == sqlbuilder.Postgres {
		cast = "DOUBLE PRECISION"
	}
	b.WriteString("CAST(")
	sqlbuilder.JSONExtract(b, alias, ColProps, field)
	b.WriteString(" AS " + cast + ")")
}

// applyGroupByHaving lowers GroupBy/Having (spec §4.3 Aggregates,
// GroupByTerm, Having). A GroupByTerm with an empty Prop groups by the
// alias's full node identity (id); otherwise it groups by a JSON prop path
// expression.
func applyGroupByHaving(sel *sqlbuilder.Selector, dialect sqlbuilder.Dialect, q query.Query, bound params) error {
	for _, g := range q.GroupBy {
		if g.Prop == "" {
			b := sqlbuilder.New(dialect)
			b.Ident(g.Alias).WriteString(".").Ident(ColID)
			sel.GroupBy(b.String())
			continue
		}
		b := sqlbuilder.New(dialect)
		sqlbuilder.JSONExtract(b, g.Alias, ColProps, g.Prop)
		sel.GroupBy(b.String())
	}
	if q.Having != nil {
		p, err := RenderPredicate(*q.Having, bound)
		if err != nil {
			return err
		}
		sel.Having(p)
	}
	return nil
}
