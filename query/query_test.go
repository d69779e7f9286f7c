package query_test

import (
	"testing"

	"github.com/nicia-ai/typegraph/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderIsImmutable(t *testing.T) {
	base := query.From("Person", "p")
	withLimit := base.WithLimit(10)

	assert.Nil(t, base.Limit)
	require.NotNil(t, withLimit.Limit)
	assert.Equal(t, 10, *withLimit.Limit)
}

func TestBuilderAppendsDoNotAlias(t *testing.T) {
	base := query.From("Person", "p").Order("p", "name", false)
	withSecond := base.Order("p", "age", true)

	require.Len(t, base.OrderBy, 1)
	require.Len(t, withSecond.OrderBy, 2)
	assert.Equal(t, "name", base.OrderBy[0].Prop)
	assert.Equal(t, "name", withSecond.OrderBy[0].Prop)
	assert.Equal(t, "age", withSecond.OrderBy[1].Prop)
}

func TestWhereCombinesWithAnd(t *testing.T) {
	q := query.From("Person", "p").
		Where(query.Eq(query.Prop("p", "status"), query.Lit("active"))).
		Where(query.Gt(query.Prop("p", "age"), query.Lit(18)))

	require.NotNil(t, q.Where)
	assert.Equal(t, query.PredAnd, q.Where.Kind)
	assert.Len(t, q.Where.Children, 2)
}

func TestTraverseAppendsStepAndTo(t *testing.T) {
	q := query.From("Person", "p").Traverse(
		query.TraversalStep{EdgeKind: "knows", EdgeAlias: "k", Direction: query.Out},
		query.ToClause{Kind: "Person", Alias: "p2"},
	)
	require.Len(t, q.Steps, 1)
	require.Len(t, q.Tos, 1)
	assert.Equal(t, "knows", q.Steps[0].EdgeKind)
	assert.Equal(t, "p2", q.Tos[0].Alias)
}

func TestCursorRoundTrip(t *testing.T) {
	q := query.From("Person", "p").Order("p", "createdAt", true)
	cursor, err := query.EncodeCursor(q, []any{"2024-01-01"}, "p1", true)
	require.NoError(t, err)

	decoded, err := query.DecodeCursor(q, cursor)
	require.NoError(t, err)
	assert.Equal(t, "p1", decoded.PrimaryKey)
	assert.True(t, decoded.Forward)
	assert.Equal(t, []any{"2024-01-01"}, decoded.Values)
}

func TestCursorRejectsMismatchedFingerprint(t *testing.T) {
	q1 := query.From("Person", "p").Order("p", "createdAt", true)
	q2 := query.From("Person", "p").Order("p", "name", false)

	cursor, err := query.EncodeCursor(q1, []any{"2024-01-01"}, "p1", true)
	require.NoError(t, err)

	_, err = query.DecodeCursor(q2, cursor)
	require.Error(t, err)
	var ce *query.CursorError
	require.ErrorAs(t, err, &ce)
}

func TestCursorRejectsGarbage(t *testing.T) {
	q := query.From("Person", "p")
	_, err := query.DecodeCursor(q, "not-a-cursor!!")
	require.Error(t, err)
}

func TestSetOpComposition(t *testing.T) {
	a := query.From("Person", "p")
	b := query.From("Robot", "r")
	u := a.Union(b)
	require.NotNil(t, u.Set)
	assert.Equal(t, query.SetUnion, u.Set.Kind)
	assert.Equal(t, "Robot", u.Set.Other.From.Kind)
}
