// Package graphql is a thin resolver facade over store.Store and
// query.Predicate for callers wiring TypeGraph behind a gqlgen schema. It
// does not generate a .graphql schema or gqlgen's generated server code
// (that remains the application's own gqlgen toolchain step); it supplies
// the runtime pieces a generated resolver needs: per-request batching
// (loader.go), a GraphQL-args-to-query.Predicate translator (this file), a
// Map scalar for node/edge property bags (scalar.go), and an error
// presenter mapping typegraph's error types to gqlgen's gqlerror shape
// (errors.go).
package graphql

import (
	"fmt"

	"github.com/nicia-ai/typegraph/query"
)

// FilterOp names a comparison a Filter leaf applies, mirroring the
// operator suffixes a gqlgen "WhereInput" schema typically exposes per
// field (fooEQ, fooGT, fooContains, ...).
type FilterOp uint8

const (
	FilterEQ FilterOp = iota
	FilterNEQ
	FilterGT
	FilterGTE
	FilterLT
	FilterLTE
	FilterLike
	FilterILike
	FilterContains
	FilterStartsWith
	FilterEndsWith
	FilterIn
	FilterNotIn
	FilterIsNull
	FilterIsNotNull
)

// Filter is a GraphQL-resolver-facing predicate tree: either a leaf
// comparison against a named property/system column, or a boolean
// combinator over child filters. It is the input-object shape a
// generated gqlgen resolver decodes its "where" argument into, kept
// independent of any particular generated types so this package doesn't
// need a gqlgen code-generation step of its own.
type Filter struct {
	// Field is a property name, or one of the system column names
	// (query.ColID, query.ColKind, ...) for leaf filters.
	Field string
	Op    FilterOp
	Value any
	// Values is used by FilterIn/FilterNotIn in place of Value.
	Values []any

	And []Filter
	Or  []Filter
	Not *Filter
}

var systemColumns = map[string]query.SystemColumn{
	string(query.ColID):        query.ColID,
	string(query.ColKind):      query.ColKind,
	string(query.ColVersion):   query.ColVersion,
	string(query.ColValidFrom): query.ColValidFrom,
	string(query.ColValidTo):   query.ColValidTo,
	string(query.ColCreatedAt): query.ColCreatedAt,
	string(query.ColUpdatedAt): query.ColUpdatedAt,
	string(query.ColDeletedAt): query.ColDeletedAt,
}

// Compile translates f into a query.Predicate comparing against alias
// (the node/edge alias the predicate will run under; store.Store.FindNodes
// compiles its query with alias "n").
func (f Filter) Compile(alias string) (query.Predicate, error) {
	switch {
	case len(f.And) > 0:
		return combine(query.And, alias, f.And)
	case len(f.Or) > 0:
		return combine(query.Or, alias, f.Or)
	case f.Not != nil:
		inner, err := f.Not.Compile(alias)
		if err != nil {
			return query.Predicate{}, err
		}
		return query.Not(inner), nil
	default:
		return f.leaf(alias)
	}
}

func combine(op func(...query.Predicate) query.Predicate, alias string, filters []Filter) (query.Predicate, error) {
	children := make([]query.Predicate, len(filters))
	for i, child := range filters {
		p, err := child.Compile(alias)
		if err != nil {
			return query.Predicate{}, err
		}
		children[i] = p
	}
	return op(children...), nil
}

func (f Filter) leaf(alias string) (query.Predicate, error) {
	if f.Field == "" {
		return query.Predicate{}, fmt.Errorf("graphql: filter leaf missing field")
	}
	left := operand(alias, f.Field)

	switch f.Op {
	case FilterEQ:
		return query.Eq(left, query.Lit(f.Value)), nil
	case FilterNEQ:
		return query.Neq(left, query.Lit(f.Value)), nil
	case FilterGT:
		return query.Gt(left, query.Lit(f.Value)), nil
	case FilterGTE:
		return query.Gte(left, query.Lit(f.Value)), nil
	case FilterLT:
		return query.Lt(left, query.Lit(f.Value)), nil
	case FilterLTE:
		return query.Lte(left, query.Lit(f.Value)), nil
	case FilterLike:
		return query.Like(left, query.Lit(f.Value)), nil
	case FilterILike:
		return query.ILike(left, query.Lit(f.Value)), nil
	case FilterContains:
		return query.Contains(left, query.Lit(f.Value)), nil
	case FilterStartsWith:
		return query.StartsWith(left, query.Lit(f.Value)), nil
	case FilterEndsWith:
		return query.EndsWith(left, query.Lit(f.Value)), nil
	case FilterIn:
		return query.InOp(left, operands(f.Values)...), nil
	case FilterNotIn:
		return query.NotInOp(left, operands(f.Values)...), nil
	case FilterIsNull:
		return query.IsNull(left), nil
	case FilterIsNotNull:
		return query.IsNotNull(left), nil
	default:
		return query.Predicate{}, fmt.Errorf("graphql: unknown filter op %d on field %q", f.Op, f.Field)
	}
}

func operand(alias, field string) query.Operand {
	if col, ok := systemColumns[field]; ok {
		return query.Col(alias, col)
	}
	return query.Prop(alias, field)
}

func operands(values []any) []query.Operand {
	ops := make([]query.Operand, len(values))
	for i, v := range values {
		ops[i] = query.Lit(v)
	}
	return ops
}
