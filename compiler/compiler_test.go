package compiler_test

import (
	"testing"

	"github.com/nicia-ai/typegraph/compiler"
	"github.com/nicia-ai/typegraph/internal/sqlbuilder"
	"github.com/nicia-ai/typegraph/kind"
	"github.com/nicia-ai/typegraph/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func movieRegistry(t *testing.T) *kind.Registry {
	t.Helper()
	nodes := []kind.NodeKind{{Name: "Person"}, {Name: "Robot"}}
	edges := []kind.EdgeKind{{Name: "knows"}}
	rels := []kind.OntologyRelation{
		{Kind: kind.RelInverseOf, A: "knows", B: "knows"},
	}
	r, err := kind.Build(nodes, edges, rels)
	require.NoError(t, err)
	return r
}

func TestCompileSimpleFetch(t *testing.T) {
	reg := movieRegistry(t)
	q := query.From("Person", "p").Where(query.Eq(query.Prop("p", "status"), query.Lit("active")))

	c, err := compiler.Compile(reg, "g1", q, sqlbuilder.SQLite, nil)
	require.NoError(t, err)
	assert.Contains(t, c.SQL, "SELECT")
	assert.Contains(t, c.SQL, `"nodes"`)
	assert.Contains(t, c.SQL, "?")
	assert.Contains(t, c.Args, "g1")
	assert.Contains(t, c.Args, "active")
}

func TestCompilePostgresPlaceholders(t *testing.T) {
	reg := movieRegistry(t)
	q := query.From("Person", "p").Where(query.Gt(query.Prop("p", "age"), query.Lit(18)))

	c, err := compiler.Compile(reg, "g1", q, sqlbuilder.Postgres, nil)
	require.NoError(t, err)
	assert.Contains(t, c.SQL, "$1")
}

func TestCompileTraversalStep(t *testing.T) {
	reg := movieRegistry(t)
	q := query.From("Person", "p").Traverse(
		query.TraversalStep{EdgeKind: "knows", EdgeAlias: "e", Direction: query.Out},
		query.ToClause{Kind: "Person", Alias: "p2"},
	)

	c, err := compiler.Compile(reg, "g1", q, sqlbuilder.SQLite, nil)
	require.NoError(t, err)
	assert.Contains(t, c.SQL, `"edges"`)
	assert.Contains(t, c.SQL, `"e"`)
	assert.Contains(t, c.SQL, `"p2"`)
}

func TestCompileOptionalStepUsesLeftJoin(t *testing.T) {
	reg := movieRegistry(t)
	q := query.From("Person", "p").Traverse(
		query.TraversalStep{EdgeKind: "knows", EdgeAlias: "e", Direction: query.Out, Optional: true},
		query.ToClause{Kind: "Person", Alias: "p2"},
	).Where(query.Eq(query.Prop("p2", "age"), query.Lit(30)))

	c, err := compiler.Compile(reg, "g1", q, sqlbuilder.SQLite, nil)
	require.NoError(t, err)
	assert.Contains(t, c.SQL, "LEFT JOIN")
}

func TestCompileRecursiveStepEmitsCTE(t *testing.T) {
	reg := movieRegistry(t)
	q := query.From("Person", "p").Traverse(
		query.TraversalStep{
			EdgeKind:  "knows",
			EdgeAlias: "e",
			Direction: query.Out,
			Recursive: &query.RecursiveSpec{MaxHops: 5, CyclePolicy: query.CyclePrevent},
		},
		query.ToClause{Kind: "Person", Alias: "p2"},
	)

	c, err := compiler.Compile(reg, "g1", q, sqlbuilder.SQLite, nil)
	require.NoError(t, err)
	assert.Contains(t, c.SQL, "WITH RECURSIVE")
	assert.Contains(t, c.SQL, "rt_p2")
}

func TestCompileRejectsTwoRecursiveSteps(t *testing.T) {
	reg := movieRegistry(t)
	q := query.From("Person", "p").Traverse(
		query.TraversalStep{EdgeKind: "knows", EdgeAlias: "e1", Direction: query.Out, Recursive: &query.RecursiveSpec{MaxHops: 3}},
		query.ToClause{Kind: "Person", Alias: "p2"},
	).Traverse(
		query.TraversalStep{EdgeKind: "knows", EdgeAlias: "e2", Direction: query.Out, Recursive: &query.RecursiveSpec{MaxHops: 3}},
		query.ToClause{Kind: "Person", Alias: "p3"},
	)

	_, err := compiler.Compile(reg, "g1", q, sqlbuilder.SQLite, nil)
	require.Error(t, err)
}

func TestCompileRejectsExcessiveMaxHops(t *testing.T) {
	reg := movieRegistry(t)
	q := query.From("Person", "p").Traverse(
		query.TraversalStep{EdgeKind: "knows", EdgeAlias: "e", Direction: query.Out, Recursive: &query.RecursiveSpec{MaxHops: 5000}},
		query.ToClause{Kind: "Person", Alias: "p2"},
	)

	_, err := compiler.Compile(reg, "g1", q, sqlbuilder.SQLite, nil)
	require.Error(t, err)
}

func TestCompileGroupByAggregate(t *testing.T) {
	reg := movieRegistry(t)
	q := query.From("Person", "p").
		GroupByTerms(query.GroupByTerm{Alias: "p", Prop: "department"}).
		Project(query.ProjectionTerm{
			OutputKey: "headcount",
			Source:    query.ProjectAggregate,
			Aggregate: &query.Aggregate{Kind: query.AggCount, Alias: "p"},
		})

	c, err := compiler.Compile(reg, "g1", q, sqlbuilder.SQLite, nil)
	require.NoError(t, err)
	assert.Contains(t, c.SQL, "GROUP BY")
	assert.Contains(t, c.SQL, "COUNT(*)")
}

func TestCompilePaginationOverfetches(t *testing.T) {
	reg := movieRegistry(t)
	first := 10
	q := query.From("Person", "p").
		Order("p", "createdAt", false).
		Paginate(query.Pagination{First: &first})

	c, err := compiler.Compile(reg, "g1", q, sqlbuilder.SQLite, nil)
	require.NoError(t, err)
	assert.True(t, c.Overfetched)
	assert.Contains(t, c.Args, 11)
}

func TestCompilePaginationWithCursor(t *testing.T) {
	reg := movieRegistry(t)
	first := 5
	q := query.From("Person", "p").Order("p", "createdAt", false)
	cursor, err := query.EncodeCursor(q, []any{"2024-01-01"}, "p1", true)
	require.NoError(t, err)

	paged := q.Paginate(query.Pagination{First: &first, After: cursor})
	c, err := compiler.Compile(reg, "g1", paged, sqlbuilder.SQLite, nil)
	require.NoError(t, err)
	assert.Contains(t, c.SQL, ">")
}

func TestCompileSetOpUnion(t *testing.T) {
	reg := movieRegistry(t)
	left := query.From("Person", "p")
	right := query.From("Robot", "r")
	q := left.Union(right)

	c, err := compiler.Compile(reg, "g1", q, sqlbuilder.SQLite, nil)
	require.NoError(t, err)
	assert.Contains(t, c.SQL, "UNION")
}

func TestCompileUnboundParamErrors(t *testing.T) {
	reg := movieRegistry(t)
	q := query.From("Person", "p").Where(query.Eq(query.Prop("p", "status"), query.ParamOperand("status")))

	_, err := compiler.Compile(reg, "g1", q, sqlbuilder.SQLite, nil)
	require.Error(t, err)
}

func TestCompileBoundParam(t *testing.T) {
	reg := movieRegistry(t)
	q := query.From("Person", "p").Where(query.Eq(query.Prop("p", "status"), query.ParamOperand("status")))

	c, err := compiler.Compile(reg, "g1", q, sqlbuilder.SQLite, map[string]any{"status": "active"})
	require.NoError(t, err)
	assert.Contains(t, c.Args, "active")
}
