package graphql_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicia-ai/typegraph/contrib/graphql"
	"github.com/nicia-ai/typegraph/store"
)

func TestLoaderLoadNode(t *testing.T) {
	s, _ := newTestResolver(t)
	ctx := context.Background()

	n, err := s.CreateNode(ctx, "Person", map[string]any{"name": "Ada"}, store.CreateOptions{})
	require.NoError(t, err)

	loaders := graphql.NewLoaders(s)
	got, err := loaders.LoadNode(ctx, "Person", n.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Props["name"])
}

func TestLoaderLoadNodeMissingErrors(t *testing.T) {
	s, _ := newTestResolver(t)
	loaders := graphql.NewLoaders(s)

	_, err := loaders.LoadNode(context.Background(), "Person", "missing")
	assert.Error(t, err)
}

func TestLoaderLoadNodesBatchesIDs(t *testing.T) {
	s, _ := newTestResolver(t)
	ctx := context.Background()

	a, err := s.CreateNode(ctx, "Person", map[string]any{"name": "Ada"}, store.CreateOptions{})
	require.NoError(t, err)
	b, err := s.CreateNode(ctx, "Person", map[string]any{"name": "Grace"}, store.CreateOptions{})
	require.NoError(t, err)

	loaders := graphql.NewLoaders(s)
	got, err := loaders.LoadNodes(ctx, "Person", []string{a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestWithLoadersRoundTrip(t *testing.T) {
	s, _ := newTestResolver(t)
	loaders := graphql.NewLoaders(s)

	ctx := graphql.WithLoaders(context.Background(), loaders)
	assert.Same(t, loaders, graphql.LoadersFrom(ctx))
}

func TestLoadersFromEmptyContext(t *testing.T) {
	assert.Nil(t, graphql.LoadersFrom(context.Background()))
}
