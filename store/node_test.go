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

func TestCreateAndGetById(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.CreateNode(ctx, "Person", map[string]any{"name": "Ada"}, store.CreateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, n.Meta.Version)
	assert.Equal(t, "Ada", n.Props["name"])

	got, err := s.GetNode(ctx, "Person", n.ID)
	require.NoError(t, err)
	assert.Equal(t, n.ID, got.ID)
}

func TestGetNodeNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetNode(context.Background(), "Person", "missing")
	assert.ErrorIs(t, err, typegraph.ErrNotFound)
}

func TestUpdateNodeVersionConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.CreateNode(ctx, "Person", map[string]any{"name": "Ada"}, store.CreateOptions{})
	require.NoError(t, err)

	_, err = s.UpdateNode(ctx, "Person", n.ID, map[string]any{"name": "Ada2"}, n.Meta.Version)
	require.NoError(t, err)

	_, err = s.UpdateNode(ctx, "Person", n.ID, map[string]any{"name": "Ada3"}, n.Meta.Version)
	var vce *typegraph.VersionConflictError
	require.True(t, errors.As(err, &vce))
	assert.Equal(t, n.ID, vce.ID)
}

func TestDeleteNodeThenGetNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.CreateNode(ctx, "Person", map[string]any{"name": "Ada"}, store.CreateOptions{})
	require.NoError(t, err)

	require.NoError(t, s.DeleteNode(ctx, "Person", n.ID))
	_, err = s.GetNode(ctx, "Person", n.ID)
	assert.ErrorIs(t, err, typegraph.ErrNotFound)

	// deleting an already-tombstoned node reports not found, not a raw backend error
	err = s.DeleteNode(ctx, "Person", n.ID)
	assert.ErrorIs(t, err, typegraph.ErrNotFound)
}

func TestUpsertByIdCreatesThenUpdates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n1, action1, err := s.UpsertNodeById(ctx, "Person", "p1", map[string]any{"name": "Ada"}, store.UpsertUpdate)
	require.NoError(t, err)
	assert.Equal(t, store.ActionCreated, action1)
	assert.Equal(t, "p1", n1.ID)

	n2, action2, err := s.UpsertNodeById(ctx, "Person", "p1", map[string]any{"age": 30}, store.UpsertUpdate)
	require.NoError(t, err)
	assert.Equal(t, store.ActionUpdated, action2)
	assert.Equal(t, "Ada", n2.Props["name"])
	assert.EqualValues(t, 30, n2.Props["age"])
}

func TestUpsertByIdReturnsExistingWhenPolicyIsReturn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, _, err := s.UpsertNodeById(ctx, "Person", "p1", map[string]any{"name": "Ada"}, store.UpsertReturn)
	require.NoError(t, err)

	n2, action2, err := s.UpsertNodeById(ctx, "Person", "p1", map[string]any{"name": "Ignored"}, store.UpsertReturn)
	require.NoError(t, err)
	assert.Equal(t, store.ActionFound, action2)
	assert.Equal(t, "Ada", n2.Props["name"])
}

func TestUpsertByIdResurrectsTombstone(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, _, err := s.UpsertNodeById(ctx, "Person", "p1", map[string]any{"name": "Ada"}, store.UpsertUpdate)
	require.NoError(t, err)
	require.NoError(t, s.DeleteNode(ctx, "Person", "p1"))

	n, action, err := s.UpsertNodeById(ctx, "Person", "p1", map[string]any{"name": "Ada2"}, store.UpsertUpdate)
	require.NoError(t, err)
	assert.Equal(t, store.ActionResurrected, action)
	assert.Equal(t, 1, n.Meta.Version)
	assert.Equal(t, "Ada2", n.Props["name"])
}

func TestGetOrCreateByConstraint(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n1, action1, err := s.GetOrCreateNodeByConstraint(ctx, "Person", "person_email", map[string]any{"email": "ada@example.com"}, store.UpsertReturn)
	require.NoError(t, err)
	assert.Equal(t, store.ActionCreated, action1)

	n2, action2, err := s.GetOrCreateNodeByConstraint(ctx, "Person", "person_email", map[string]any{"email": "ada@example.com"}, store.UpsertReturn)
	require.NoError(t, err)
	assert.Equal(t, store.ActionFound, action2)
	assert.Equal(t, n1.ID, n2.ID)
}

func TestCreateDisjointKindsRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateNode(ctx, "Person", map[string]any{}, store.CreateOptions{ID: "shared-id"})
	require.NoError(t, err)

	_, err = s.CreateNode(ctx, "Robot", map[string]any{}, store.CreateOptions{ID: "shared-id"})
	var de *typegraph.DisjointError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "shared-id", de.NodeID)
}

func TestFindNodesNilPredicateReturnsAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateNode(ctx, "Person", map[string]any{"name": "Ada"}, store.CreateOptions{})
	require.NoError(t, err)
	_, err = s.CreateNode(ctx, "Person", map[string]any{"name": "Bea"}, store.CreateOptions{})
	require.NoError(t, err)

	got, err := s.FindNodes(ctx, "Person", nil)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestGetNodes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.CreateNode(ctx, "Person", map[string]any{"name": "Ada"}, store.CreateOptions{})
	require.NoError(t, err)
	b, err := s.CreateNode(ctx, "Person", map[string]any{"name": "Bea"}, store.CreateOptions{})
	require.NoError(t, err)

	got, err := s.GetNodes(ctx, "Person", []string{a.ID, "missing", b.ID})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
