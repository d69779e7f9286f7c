package sqlitedb_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicia-ai/typegraph/adapter"
	"github.com/nicia-ai/typegraph/adapter/sqlitedb"
)

func openTest(t *testing.T) *sqlitedb.Adapter {
	t.Helper()
	a, err := sqlitedb.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestInsertAndGetNode(t *testing.T) {
	a := openTest(t)
	ctx := context.Background()
	now := time.Now().UTC()

	row := adapter.NodeRow{
		GraphID: "g1", Kind: "Person", ID: "p1", Props: []byte(`{"name":"Ada"}`),
		Version: 1, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, a.InsertNode(ctx, row))

	got, err := a.GetNode(ctx, "g1", "Person", "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, 1, got.Version)
}

func TestGetNodeNotFound(t *testing.T) {
	a := openTest(t)
	_, err := a.GetNode(context.Background(), "g1", "Person", "missing")
	assert.ErrorIs(t, err, adapter.ErrNotFoundRow)
}

func TestUpdateNodeVersionGated(t *testing.T) {
	a := openTest(t)
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, a.InsertNode(ctx, adapter.NodeRow{
		GraphID: "g1", Kind: "Person", ID: "p1", Props: []byte(`{}`),
		Version: 1, CreatedAt: now, UpdatedAt: now,
	}))

	err := a.UpdateNode(ctx, "g1", "Person", "p1", map[string]any{"props": []byte(`{"name":"Ada2"}`)}, 1)
	require.NoError(t, err)

	got, err := a.GetNode(ctx, "g1", "Person", "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)

	// stale expected version now fails
	err = a.UpdateNode(ctx, "g1", "Person", "p1", map[string]any{"props": []byte(`{}`)}, 1)
	assert.Error(t, err)
}

func TestSoftDeleteThenHardDelete(t *testing.T) {
	a := openTest(t)
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, a.InsertNode(ctx, adapter.NodeRow{
		GraphID: "g1", Kind: "Person", ID: "p1", Props: []byte(`{}`),
		Version: 1, CreatedAt: now, UpdatedAt: now,
	}))

	require.NoError(t, a.DeleteNode(ctx, "g1", "Person", "p1", false))
	// a second soft delete finds no live row to touch
	err := a.DeleteNode(ctx, "g1", "Person", "p1", false)
	assert.Error(t, err)

	require.NoError(t, a.DeleteNode(ctx, "g1", "Person", "p1", true))
	_, err = a.GetNode(ctx, "g1", "Person", "p1")
	assert.ErrorIs(t, err, adapter.ErrNotFoundRow)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	a := openTest(t)
	ctx := context.Background()
	now := time.Now().UTC()

	err := a.Transaction(ctx, nil, func(tx adapter.Tx) error {
		if err := tx.InsertNode(ctx, adapter.NodeRow{
			GraphID: "g1", Kind: "Person", ID: "p1", Props: []byte(`{}`),
			Version: 1, CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	_, err = a.GetNode(ctx, "g1", "Person", "p1")
	assert.ErrorIs(t, err, adapter.ErrNotFoundRow)
}

func TestUniqueRoundTrip(t *testing.T) {
	a := openTest(t)
	ctx := context.Background()
	require.NoError(t, a.InsertUnique(ctx, adapter.UniqueRow{
		GraphID: "g1", ConstraintName: "email_unique", Kind: "Person", Key: "ada@example.com", NodeID: "p1",
	}))

	id, found, err := a.CheckUnique(ctx, "g1", "email_unique", "ada@example.com")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "p1", id)

	_, found, err = a.CheckUnique(ctx, "g1", "email_unique", "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFindEdgesConnectedTo(t *testing.T) {
	a := openTest(t)
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, a.InsertEdge(ctx, adapter.EdgeRow{
		GraphID: "g1", Kind: "knows", ID: "e1", FromKind: "Person", FromID: "p1",
		ToKind: "Person", ToID: "p2", Props: []byte(`{}`), Version: 1, CreatedAt: now, UpdatedAt: now,
	}))

	edges, err := a.FindEdgesConnectedTo(ctx, "g1", "Person", "p2")
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "e1", edges[0].ID)
}
