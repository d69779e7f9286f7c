package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nicia-ai/typegraph/adapter/sqlitedb"
	"github.com/nicia-ai/typegraph/kind"
	"github.com/nicia-ai/typegraph/store"
)

// newTestStore builds an in-memory SQLite-backed Store over a small
// Person/Company/worksAt registry, reused across node_test.go and
// edge_test.go.
func newTestStore(t *testing.T, opts ...store.Option) *store.Store {
	t.Helper()
	a, err := sqlitedb.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	reg, err := kind.Build(
		[]kind.NodeKind{
			{
				Name:     "Person",
				OnDelete: kind.DeleteCascade,
				Uniques: []kind.UniqueConstraint{
					{Name: "person_email", Fields: []string{"email"}, Scope: kind.ScopeKind},
				},
			},
			{Name: "Company", OnDelete: kind.DeleteRestrict},
			{Name: "Robot", OnDelete: kind.DeleteCascade},
		},
		[]kind.EdgeKind{
			{Name: "worksAt", FromKinds: []string{"Person"}, ToKinds: []string{"Company"}, Cardinality: kind.CardinalityOne},
			{Name: "follows", FromKinds: []string{"Person"}, ToKinds: []string{"Person"}, Cardinality: kind.CardinalityUnique},
		},
		[]kind.OntologyRelation{
			{Kind: kind.RelDisjointWith, A: "Person", B: "Robot"},
		},
	)
	require.NoError(t, err)

	return store.New("graph1", reg, a, opts...)
}
