package store_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicia-ai/typegraph"
	"github.com/nicia-ai/typegraph/schema"
	"github.com/nicia-ai/typegraph/store"
)

func TestBulkCreateNodesPreservesOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inputs := []map[string]any{
		{"name": "Ada"},
		{"name": "Bea"},
		{"name": "Cid"},
	}
	nodes, err := s.BulkCreateNodes(ctx, "Person", inputs)
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, "Ada", nodes[0].Props["name"])
	assert.Equal(t, "Bea", nodes[1].Props["name"])
	assert.Equal(t, "Cid", nodes[2].Props["name"])
}

func TestBulkUpsertNodesByIdPreservesOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inputs := []store.BulkUpsertByIdInput{
		{ID: "p1", Props: map[string]any{"name": "Ada"}},
		{ID: "p2", Props: map[string]any{"name": "Bea"}},
	}
	nodes, actions, err := s.BulkUpsertNodesById(ctx, "Person", inputs, store.UpsertUpdate)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, store.ActionCreated, actions[0])
	assert.Equal(t, store.ActionCreated, actions[1])
	assert.Equal(t, "p1", nodes[0].ID)
	assert.Equal(t, "p2", nodes[1].ID)
}

func TestBulkCreateNodesAggregatesPerItemErrors(t *testing.T) {
	requireName := schema.ValidatorFunc(func(props map[string]any) (map[string]any, error) {
		if _, ok := props["name"]; !ok {
			return nil, fmt.Errorf("name is required")
		}
		return props, nil
	})
	s := newTestStore(t, store.WithNodeValidator("Person", requireName))
	ctx := context.Background()

	inputs := []map[string]any{
		{"name": "Ada"},
		{"age": 30},       // missing "name", rejected by the validator
		{"age": "thirty"}, // also missing "name"
	}
	nodes, err := s.BulkCreateNodes(ctx, "Person", inputs)
	require.Error(t, err)
	var agg *typegraph.AggregateError
	require.True(t, errors.As(err, &agg))
	assert.Len(t, agg.Errors, 2)
	require.NotNil(t, nodes[0])
	assert.Nil(t, nodes[1])
	assert.Nil(t, nodes[2])
}
