package graphql_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicia-ai/typegraph/contrib/graphql"
	"github.com/nicia-ai/typegraph/query"
)

func TestFilterCompileLeaf(t *testing.T) {
	f := graphql.Filter{Field: "age", Op: graphql.FilterGTE, Value: float64(18)}
	p, err := f.Compile("n")
	require.NoError(t, err)

	assert.Equal(t, query.PredLeaf, p.Kind)
	assert.Equal(t, query.OpGTE, p.Op)
	assert.Equal(t, query.OperandPropPath, p.Left.Kind)
	assert.Equal(t, "age", p.Left.Path)
	assert.Equal(t, "n", p.Left.Alias)
	assert.Equal(t, float64(18), p.Right.Literal)
}

func TestFilterCompileSystemColumn(t *testing.T) {
	f := graphql.Filter{Field: "id", Op: graphql.FilterEQ, Value: "abc"}
	p, err := f.Compile("n")
	require.NoError(t, err)

	assert.Equal(t, query.OperandSystemColumn, p.Left.Kind)
	assert.Equal(t, query.ColID, p.Left.Column)
}

func TestFilterCompileAnd(t *testing.T) {
	f := graphql.Filter{And: []graphql.Filter{
		{Field: "age", Op: graphql.FilterGT, Value: float64(10)},
		{Field: "age", Op: graphql.FilterLT, Value: float64(20)},
	}}
	p, err := f.Compile("n")
	require.NoError(t, err)

	assert.Equal(t, query.PredAnd, p.Kind)
	require.Len(t, p.Children, 2)
}

func TestFilterCompileNot(t *testing.T) {
	inner := graphql.Filter{Field: "age", Op: graphql.FilterIsNull}
	f := graphql.Filter{Not: &inner}
	p, err := f.Compile("n")
	require.NoError(t, err)

	assert.Equal(t, query.PredNot, p.Kind)
	require.Len(t, p.Children, 1)
	assert.Equal(t, query.OpIsNull, p.Children[0].Op)
}

func TestFilterCompileIn(t *testing.T) {
	f := graphql.Filter{Field: "name", Op: graphql.FilterIn, Values: []any{"Ada", "Grace"}}
	p, err := f.Compile("n")
	require.NoError(t, err)

	assert.Equal(t, query.OpIn, p.Op)
	require.Len(t, p.Values, 2)
	assert.Equal(t, "Ada", p.Values[0].Literal)
}

func TestFilterCompileMissingFieldErrors(t *testing.T) {
	f := graphql.Filter{Op: graphql.FilterEQ, Value: 1}
	_, err := f.Compile("n")
	assert.Error(t, err)
}

func TestFilterCompileUnknownOpErrors(t *testing.T) {
	f := graphql.Filter{Field: "age", Op: graphql.FilterOp(255)}
	_, err := f.Compile("n")
	assert.Error(t, err)
}
