package compiler

import (
	"fmt"

	"github.com/nicia-ai/typegraph"
	"github.com/nicia-ai/typegraph/internal/sqlbuilder"
	"github.com/nicia-ai/typegraph/query"
)

// params carries the caller-supplied Param bindings resolved at compile
// time (spec §4.3 Param: "placeholder for prepared-query parameters,
// bound at execute time").
type params map[string]any

func operandValue(o query.Operand, p params) (any, error) {
	switch o.Kind {
	case query.OperandLiteral:
		return o.Literal, nil
	case query.OperandParam:
		v, ok := p[o.Param.Name]
		if !ok {
			return nil, &typegraph.CompilationError{Message: fmt.Sprintf("unbound parameter %q", o.Param.Name)}
		}
		return v, nil
	default:
		return nil, &typegraph.CompilationError{Message: "operand is not a bindable value"}
	}
}

// renderColumn writes the SQL expression addressing an Operand that names
// a column (SystemColumn or PropPath); literal/param operands don't reach
// here since they're always the right-hand side of a comparison.
func renderColumn(b *sqlbuilder.Builder, o query.Operand) {
	switch o.Kind {
	case query.OperandSystemColumn:
		if o.Alias != "" {
			b.Ident(o.Alias).WriteString(".")
		}
		b.Ident(string(o.Column))
	case query.OperandPropPath:
		sqlbuilder.JSONExtract(b, o.Alias, ColProps, o.Path)
	default:
		b.WriteString("NULL")
	}
}

// RenderPredicate lowers a query.Predicate tree to an sqlbuilder.Predicate
// closure, resolving Param operands against bound. It does not decide
// WHERE-vs-ON placement; see hoistPredicates in plan.go for that.
func RenderPredicate(pr query.Predicate, bound params) (sqlbuilder.Predicate, error) {
	switch pr.Kind {
	case query.PredAnd:
		ps, err := renderChildren(pr.Children, bound)
		if err != nil {
			return nil, err
		}
		return sqlbuilder.And(ps...), nil
	case query.PredOr:
		ps, err := renderChildren(pr.Children, bound)
		if err != nil {
			return nil, err
		}
		return sqlbuilder.Or(ps...), nil
	case query.PredNot:
		if len(pr.Children) != 1 {
			return nil, &typegraph.CompilationError{Message: "not() requires exactly one child predicate"}
		}
		child, err := RenderPredicate(pr.Children[0], bound)
		if err != nil {
			return nil, err
		}
		return sqlbuilder.Not(child), nil
	default:
		return renderLeaf(pr, bound)
	}
}

func renderChildren(children []query.Predicate, bound params) ([]sqlbuilder.Predicate, error) {
	out := make([]sqlbuilder.Predicate, len(children))
	for i, c := range children {
		p, err := RenderPredicate(c, bound)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func renderLeaf(pr query.Predicate, bound params) (sqlbuilder.Predicate, error) {
	left := pr.Left
	switch pr.Op {
	case query.OpIsNull:
		return columnPredicate(left, " IS NULL"), nil
	case query.OpIsNotNull:
		return columnPredicate(left, " IS NOT NULL"), nil
	case query.OpArrayIsEmpty:
		return arrayLengthPredicate(left, "= 0"), nil
	case query.OpArrayIsNotEmpty:
		return arrayLengthPredicate(left, "> 0"), nil
	}

	rv, err := operandValue(pr.Right, bound)
	if pr.Op != query.OpBetween && pr.Op != query.OpIn && pr.Op != query.OpNotIn &&
		pr.Op != query.OpArrayContainsAll && pr.Op != query.OpArrayContainsAny {
		if err != nil {
			return nil, err
		}
	}

	switch pr.Op {
	case query.OpEQ:
		return binOp(left, " = ", rv), nil
	case query.OpNEQ:
		return binOp(left, " <> ", rv), nil
	case query.OpGT:
		return binOp(left, " > ", rv), nil
	case query.OpGTE:
		return binOp(left, " >= ", rv), nil
	case query.OpLT:
		return binOp(left, " < ", rv), nil
	case query.OpLTE:
		return binOp(left, " <= ", rv), nil
	case query.OpLike:
		return binOp(left, " LIKE ", rv), nil
	case query.OpILike:
		return func(b *sqlbuilder.Builder) {
			renderColumn(b, left)
			if b.Dialect() == sqlbuilder.Postgres {
				b.WriteString(" ILIKE ")
			} else {
				b.WriteString(" LIKE ")
			}
			b.Arg(rv)
		}, nil
	case query.OpStartsWith:
		return binOp(left, " LIKE ", fmt.Sprintf("%v%%", rv)), nil
	case query.OpEndsWith:
		return binOp(left, " LIKE ", fmt.Sprintf("%%%v", rv)), nil
	case query.OpContains:
		return binOp(left, " LIKE ", fmt.Sprintf("%%%v%%", rv)), nil
	case query.OpArrayLengthGte:
		return arrayLengthPredicate(left, fmt.Sprintf(">= %v", rv)), nil
	case query.OpObjectHasKey:
		key, _ := rv.(string)
		return func(b *sqlbuilder.Builder) {
			sqlbuilder.JSONExtract(b, left.Alias, ColProps, key)
			b.WriteString(" IS NOT NULL")
		}, nil
	case query.OpObjectPathIsNull:
		return func(b *sqlbuilder.Builder) {
			sqlbuilder.JSONExtract(b, left.Alias, ColProps, left.Path)
			b.WriteString(" IS NULL")
		}, nil
	case query.OpObjectPathEquals:
		return func(b *sqlbuilder.Builder) {
			sqlbuilder.JSONExtract(b, left.Alias, ColProps, left.Path)
			b.WriteString(" = ")
			b.Arg(rv)
		}, nil
	case query.OpBetween:
		lo, err := operandValue(pr.Between.Lo, bound)
		if err != nil {
			return nil, err
		}
		hi, err := operandValue(pr.Between.Hi, bound)
		if err != nil {
			return nil, err
		}
		return func(b *sqlbuilder.Builder) {
			renderColumn(b, left)
			b.WriteString(" BETWEEN ")
			b.Arg(lo)
			b.WriteString(" AND ")
			b.Arg(hi)
		}, nil
	case query.OpIn, query.OpNotIn, query.OpArrayContainsAll, query.OpArrayContainsAny:
		vals := make([]any, len(pr.Values))
		for i, v := range pr.Values {
			vv, err := operandValue(v, bound)
			if err != nil {
				return nil, err
			}
			vals[i] = vv
		}
		return setMembershipPredicate(left, pr.Op, vals), nil
	default:
		return nil, &typegraph.CompilationError{Message: "unsupported predicate operator in this build"}
	}
}

func columnPredicate(left query.Operand, suffix string) sqlbuilder.Predicate {
	return func(b *sqlbuilder.Builder) {
		renderColumn(b, left)
		b.WriteString(suffix)
	}
}

func binOp(left query.Operand, op string, rv any) sqlbuilder.Predicate {
	return func(b *sqlbuilder.Builder) {
		renderColumn(b, left)
		b.WriteString(op)
		b.Arg(rv)
	}
}

func arrayLengthPredicate(left query.Operand, cmp string) sqlbuilder.Predicate {
	return func(b *sqlbuilder.Builder) {
		if b.Dialect() == sqlbuilder.Postgres {
			b.WriteString("jsonb_array_length(")
			renderColumn(b, left)
			b.WriteString(") " + cmp)
		} else {
			b.WriteString("json_array_length(")
			renderColumn(b, left)
			b.WriteString(") " + cmp)
		}
	}
}

// setMembershipPredicate renders IN/NOT IN over a scalar column, or a
// disjunction of JSON-contains checks for array containsAll/containsAny —
// SQLite/Postgres have no single portable array-containment operator
// short of extensions (pgvector/JSON1), so this compiles to an OR/AND
// chain of per-value LIKE checks over the array's canonical JSON text.
func setMembershipPredicate(left query.Operand, op query.Op, vals []any) sqlbuilder.Predicate {
	switch op {
	case query.OpIn:
		return func(b *sqlbuilder.Builder) {
			if len(vals) == 0 {
				b.WriteString("1 = 0")
				return
			}
			renderColumn(b, left)
			b.WriteString(" IN (")
			for i, v := range vals {
				if i > 0 {
					b.WriteString(", ")
				}
				b.Arg(v)
			}
			b.WriteString(")")
		}
	case query.OpNotIn:
		return func(b *sqlbuilder.Builder) {
			if len(vals) == 0 {
				b.WriteString("1 = 1")
				return
			}
			renderColumn(b, left)
			b.WriteString(" NOT IN (")
			for i, v := range vals {
				if i > 0 {
					b.WriteString(", ")
				}
				b.Arg(v)
			}
			b.WriteString(")")
		}
	default:
		joiner := " OR "
		if op == query.OpArrayContainsAll {
			joiner = " AND "
		}
		return func(b *sqlbuilder.Builder) {
			b.WriteString("(")
			for i, v := range vals {
				if i > 0 {
					b.WriteString(joiner)
				}
				if b.Dialect() == sqlbuilder.Postgres {
					b.WriteString("strpos(")
					renderColumn(b, left)
					b.WriteString(", ")
					b.Arg(fmt.Sprintf("%v", v))
					b.WriteString(") > 0")
				} else {
					b.WriteString("instr(")
					renderColumn(b, left)
					b.WriteString(", ")
					b.Arg(fmt.Sprintf("%v", v))
					b.WriteString(") > 0")
				}
			}
			b.WriteString(")")
		}
	}
}
