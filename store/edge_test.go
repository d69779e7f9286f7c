package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicia-ai/typegraph"
	"github.com/nicia-ai/typegraph/store"
)

func TestCreateEdgeAndGetById(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	person, err := s.CreateNode(ctx, "Person", map[string]any{"name": "Ada"}, store.CreateOptions{})
	require.NoError(t, err)
	company, err := s.CreateNode(ctx, "Company", map[string]any{"name": "Acme"}, store.CreateOptions{})
	require.NoError(t, err)

	from := store.NodeRef{Kind: "Person", ID: person.ID}
	to := store.NodeRef{Kind: "Company", ID: company.ID}

	e, err := s.CreateEdge(ctx, "worksAt", from, to, map[string]any{"role": "engineer"}, store.CreateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, e.Meta.Version)

	got, err := s.GetEdge(ctx, "worksAt", e.ID)
	require.NoError(t, err)
	assert.Equal(t, "engineer", got.Props["role"])
}

func TestCreateEdgeRejectsWrongEndpointKind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	person, err := s.CreateNode(ctx, "Person", map[string]any{}, store.CreateOptions{})
	require.NoError(t, err)
	other, err := s.CreateNode(ctx, "Person", map[string]any{}, store.CreateOptions{})
	require.NoError(t, err)

	from := store.NodeRef{Kind: "Person", ID: person.ID}
	to := store.NodeRef{Kind: "Person", ID: other.ID} // worksAt requires a Company target

	_, err = s.CreateEdge(ctx, "worksAt", from, to, nil, store.CreateOptions{})
	var ee *typegraph.EndpointError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "to", ee.Endpoint)
}

func TestCreateEdgeEnforcesCardinalityOne(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	person, err := s.CreateNode(ctx, "Person", map[string]any{}, store.CreateOptions{})
	require.NoError(t, err)
	c1, err := s.CreateNode(ctx, "Company", map[string]any{}, store.CreateOptions{})
	require.NoError(t, err)
	c2, err := s.CreateNode(ctx, "Company", map[string]any{}, store.CreateOptions{})
	require.NoError(t, err)

	from := store.NodeRef{Kind: "Person", ID: person.ID}
	_, err = s.CreateEdge(ctx, "worksAt", from, store.NodeRef{Kind: "Company", ID: c1.ID}, nil, store.CreateOptions{})
	require.NoError(t, err)

	_, err = s.CreateEdge(ctx, "worksAt", from, store.NodeRef{Kind: "Company", ID: c2.ID}, nil, store.CreateOptions{})
	var ce *typegraph.CardinalityError
	require.True(t, errors.As(err, &ce))
}

func TestCreateEdgeEnforcesCardinalityUniquePerPair(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.CreateNode(ctx, "Person", map[string]any{}, store.CreateOptions{})
	require.NoError(t, err)
	b, err := s.CreateNode(ctx, "Person", map[string]any{}, store.CreateOptions{})
	require.NoError(t, err)
	c, err := s.CreateNode(ctx, "Person", map[string]any{}, store.CreateOptions{})
	require.NoError(t, err)

	from := store.NodeRef{Kind: "Person", ID: a.ID}

	// A->B and A->C both succeed: "unique" scopes to the (from, to) pair,
	// not the source, so a single source may carry many unique edges as
	// long as each lands on a distinct target.
	_, err = s.CreateEdge(ctx, "follows", from, store.NodeRef{Kind: "Person", ID: b.ID}, nil, store.CreateOptions{})
	require.NoError(t, err)
	_, err = s.CreateEdge(ctx, "follows", from, store.NodeRef{Kind: "Person", ID: c.ID}, nil, store.CreateOptions{})
	require.NoError(t, err)

	// A second A->B is the actual pair duplicate and must fail.
	_, err = s.CreateEdge(ctx, "follows", from, store.NodeRef{Kind: "Person", ID: b.ID}, nil, store.CreateOptions{})
	var ce *typegraph.CardinalityError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "unique", ce.Cardinality)
}

func TestGetOrCreateEdgeByEndpoints(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	person, err := s.CreateNode(ctx, "Person", map[string]any{}, store.CreateOptions{})
	require.NoError(t, err)
	company, err := s.CreateNode(ctx, "Company", map[string]any{}, store.CreateOptions{})
	require.NoError(t, err)

	from := store.NodeRef{Kind: "Person", ID: person.ID}
	to := store.NodeRef{Kind: "Company", ID: company.ID}

	e1, action1, err := s.GetOrCreateEdgeByEndpoints(ctx, "worksAt", from, to, map[string]any{"role": "engineer"}, nil, store.UpsertReturn)
	require.NoError(t, err)
	assert.Equal(t, store.ActionCreated, action1)

	e2, action2, err := s.GetOrCreateEdgeByEndpoints(ctx, "worksAt", from, to, map[string]any{"role": "engineer"}, nil, store.UpsertReturn)
	require.NoError(t, err)
	assert.Equal(t, store.ActionFound, action2)
	assert.Equal(t, e1.ID, e2.ID)
}

func TestFindEdgesFromAndTo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	person, err := s.CreateNode(ctx, "Person", map[string]any{}, store.CreateOptions{})
	require.NoError(t, err)
	company, err := s.CreateNode(ctx, "Company", map[string]any{}, store.CreateOptions{})
	require.NoError(t, err)

	from := store.NodeRef{Kind: "Person", ID: person.ID}
	to := store.NodeRef{Kind: "Company", ID: company.ID}
	_, err = s.CreateEdge(ctx, "worksAt", from, to, nil, store.CreateOptions{})
	require.NoError(t, err)

	fromEdges, err := s.FindEdgesFrom(ctx, "worksAt", from)
	require.NoError(t, err)
	assert.Len(t, fromEdges, 1)

	toEdges, err := s.FindEdgesTo(ctx, "worksAt", to)
	require.NoError(t, err)
	assert.Len(t, toEdges, 1)
}

func TestDeleteNodeCascadesToEdges(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	person, err := s.CreateNode(ctx, "Person", map[string]any{}, store.CreateOptions{})
	require.NoError(t, err)
	company, err := s.CreateNode(ctx, "Company", map[string]any{}, store.CreateOptions{})
	require.NoError(t, err)

	from := store.NodeRef{Kind: "Person", ID: person.ID}
	to := store.NodeRef{Kind: "Company", ID: company.ID}
	e, err := s.CreateEdge(ctx, "worksAt", from, to, nil, store.CreateOptions{})
	require.NoError(t, err)

	// Person's OnDelete is DeleteCascade, so removing it must tombstone worksAt too.
	require.NoError(t, s.DeleteNode(ctx, "Person", person.ID))

	_, err = s.GetEdge(ctx, "worksAt", e.ID)
	assert.ErrorIs(t, err, typegraph.ErrNotFound)
}

func TestDeleteNodeRestrictedByIncidentEdges(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	person, err := s.CreateNode(ctx, "Person", map[string]any{}, store.CreateOptions{})
	require.NoError(t, err)
	company, err := s.CreateNode(ctx, "Company", map[string]any{}, store.CreateOptions{})
	require.NoError(t, err)

	from := store.NodeRef{Kind: "Person", ID: person.ID}
	to := store.NodeRef{Kind: "Company", ID: company.ID}
	_, err = s.CreateEdge(ctx, "worksAt", from, to, nil, store.CreateOptions{})
	require.NoError(t, err)

	// Company's OnDelete is DeleteRestrict, so it can't be removed while worksAt points to it.
	err = s.DeleteNode(ctx, "Company", company.ID)
	var rde *typegraph.RestrictedDeleteError
	require.True(t, errors.As(err, &rde))
}
