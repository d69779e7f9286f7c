package graphql_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicia-ai/typegraph/contrib/graphql"
	"github.com/nicia-ai/typegraph/store"
)

func TestResolverNodeByID(t *testing.T) {
	s, reg := newTestResolver(t)
	r := graphql.NewResolver(s, reg)
	ctx := context.Background()

	n, err := s.CreateNode(ctx, "Person", map[string]any{"name": "Ada", "age": float64(30)}, store.CreateOptions{})
	require.NoError(t, err)

	got, err := r.Node(ctx, "Person", n.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Props["name"])
}

func TestResolverNodesBatches(t *testing.T) {
	s, reg := newTestResolver(t)
	r := graphql.NewResolver(s, reg)
	ctx := context.Background()

	a, err := s.CreateNode(ctx, "Person", map[string]any{"name": "Ada"}, store.CreateOptions{})
	require.NoError(t, err)
	b, err := s.CreateNode(ctx, "Person", map[string]any{"name": "Grace"}, store.CreateOptions{})
	require.NoError(t, err)

	got, err := r.Nodes(ctx, "Person", []string{a.ID, b.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestResolverFindNodesWithFilter(t *testing.T) {
	s, reg := newTestResolver(t)
	r := graphql.NewResolver(s, reg)
	ctx := context.Background()

	_, err := s.CreateNode(ctx, "Person", map[string]any{"name": "Ada", "age": float64(30)}, store.CreateOptions{})
	require.NoError(t, err)
	_, err = s.CreateNode(ctx, "Person", map[string]any{"name": "Grace", "age": float64(40)}, store.CreateOptions{})
	require.NoError(t, err)

	got, err := r.FindNodes(ctx, "Person", &graphql.Filter{Field: "age", Op: graphql.FilterGT, Value: float64(35)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Grace", got[0].Props["name"])
}

func TestResolverFindNodesNilFilterReturnsAll(t *testing.T) {
	s, reg := newTestResolver(t)
	r := graphql.NewResolver(s, reg)
	ctx := context.Background()

	_, err := s.CreateNode(ctx, "Person", map[string]any{"name": "Ada"}, store.CreateOptions{})
	require.NoError(t, err)
	_, err = s.CreateNode(ctx, "Person", map[string]any{"name": "Grace"}, store.CreateOptions{})
	require.NoError(t, err)

	got, err := r.FindNodes(ctx, "Person", nil)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestResolverEdgesFromAndTo(t *testing.T) {
	s, reg := newTestResolver(t)
	r := graphql.NewResolver(s, reg)
	ctx := context.Background()

	p, err := s.CreateNode(ctx, "Person", map[string]any{"name": "Ada"}, store.CreateOptions{})
	require.NoError(t, err)
	c, err := s.CreateNode(ctx, "Company", nil, store.CreateOptions{})
	require.NoError(t, err)

	_, err = s.CreateEdge(ctx, "worksAt", store.NodeRef{Kind: "Person", ID: p.ID}, store.NodeRef{Kind: "Company", ID: c.ID}, nil, store.CreateOptions{})
	require.NoError(t, err)

	from, err := r.EdgesFrom(ctx, "worksAt", "Person", p.ID)
	require.NoError(t, err)
	require.Len(t, from, 1)

	to, err := r.EdgesTo(ctx, "worksAt", "Company", c.ID)
	require.NoError(t, err)
	require.Len(t, to, 1)
	assert.Equal(t, from[0].ID, to[0].ID)
}
