package graphql_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nicia-ai/typegraph/adapter/sqlitedb"
	"github.com/nicia-ai/typegraph/kind"
	"github.com/nicia-ai/typegraph/store"
)

// newTestResolver builds an in-memory SQLite-backed Store over a small
// Person/Company/worksAt registry, reused across this package's test files.
func newTestResolver(t *testing.T) (*store.Store, *kind.Registry) {
	t.Helper()
	a, err := sqlitedb.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	reg, err := kind.Build(
		[]kind.NodeKind{
			{
				Name: "Person",
				Properties: []kind.PropertyDescriptor{
					{Name: "name", Type: kind.ValueString},
					{Name: "age", Type: kind.ValueNumber},
				},
			},
			{Name: "Company"},
		},
		[]kind.EdgeKind{
			{Name: "worksAt", FromKinds: []string{"Person"}, ToKinds: []string{"Company"}, Cardinality: kind.CardinalityMany},
		},
		nil,
	)
	require.NoError(t, err)

	return store.New("graph1", reg, a), reg
}
