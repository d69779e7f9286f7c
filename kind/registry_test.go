package kind_test

import (
	"testing"

	"github.com/nicia-ai/typegraph/kind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func movieOntology() ([]kind.NodeKind, []kind.EdgeKind, []kind.OntologyRelation) {
	nodes := []kind.NodeKind{
		{Name: "Person"},
		{Name: "Employee"},
		{Name: "Robot"},
		{Name: "Media"},
		{Name: "Movie"},
		{Name: "Documentary"},
		{Name: "TVShow"},
	}
	edges := []kind.EdgeKind{
		{Name: "knows"},
		{Name: "partnersWith"},
		{Name: "marriedTo"},
		{Name: "watched"},
	}
	rels := []kind.OntologyRelation{
		{Kind: kind.RelSubClassOf, A: "Documentary", B: "Movie"},
		{Kind: kind.RelSubClassOf, A: "Movie", B: "Media"},
		{Kind: kind.RelSubClassOf, A: "TVShow", B: "Media"},
		{Kind: kind.RelDisjointWith, A: "Person", B: "Robot"},
		{Kind: kind.RelInverseOf, A: "knows", B: "knows"},
		{Kind: kind.RelImplies, A: "marriedTo", B: "partnersWith"},
		{Kind: kind.RelImplies, A: "partnersWith", B: "knows"},
	}
	return nodes, edges, rels
}

func TestSubclassClosure(t *testing.T) {
	nodes, edges, rels := movieOntology()
	r, err := kind.Build(nodes, edges, rels)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"Movie", "Media"}, r.Ancestors("Documentary"))
	assert.ElementsMatch(t, []string{"Media"}, r.Ancestors("Movie"))
	assert.ElementsMatch(t, []string{"Documentary", "Movie", "TVShow"}, r.Descendants("Media"))

	assert.True(t, r.IsAssignableTo("Documentary", "Media"))
	assert.True(t, r.IsAssignableTo("Documentary", "Movie"))
	assert.True(t, r.IsAssignableTo("Movie", "Movie"))
	assert.False(t, r.IsAssignableTo("TVShow", "Movie"))

	assert.ElementsMatch(t, []string{"Movie", "Documentary"}, r.ExpandSubClasses("Movie"))
}

func TestDisjointnessInheritance(t *testing.T) {
	nodes, edges, rels := movieOntology()
	nodes = append(nodes, kind.NodeKind{Name: "Android"})
	rels = append(rels, kind.OntologyRelation{Kind: kind.RelSubClassOf, A: "Android", B: "Robot"})
	r, err := kind.Build(nodes, edges, rels)
	require.NoError(t, err)

	assert.True(t, r.AreDisjoint("Person", "Robot"))
	assert.True(t, r.AreDisjoint("Robot", "Person"))
	// Inherited: Android <= Robot, so Person is disjoint with Android too.
	assert.True(t, r.AreDisjoint("Person", "Android"))
	assert.False(t, r.AreDisjoint("Person", "Employee"))
}

func TestEdgeInverseInvolution(t *testing.T) {
	nodes, edges, rels := movieOntology()
	edges = append(edges, kind.EdgeKind{Name: "managedBy"}, kind.EdgeKind{Name: "manages"})
	rels = append(rels, kind.OntologyRelation{Kind: kind.RelInverseOf, A: "managedBy", B: "manages"})
	r, err := kind.Build(nodes, edges, rels)
	require.NoError(t, err)

	inv, ok := r.GetInverseEdge("managedBy")
	require.True(t, ok)
	assert.Equal(t, "manages", inv)

	back, ok := r.GetInverseEdge(inv)
	require.True(t, ok)
	assert.Equal(t, "managedBy", back)

	self, ok := r.GetInverseEdge("knows")
	require.True(t, ok)
	assert.Equal(t, "knows", self)
}

func TestEdgeImplicationClosure(t *testing.T) {
	nodes, edges, rels := movieOntology()
	r, err := kind.Build(nodes, edges, rels)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"partnersWith", "knows"}, r.GetImpliedEdges("marriedTo"))
	assert.ElementsMatch(t, []string{"knows"}, r.GetImpliedEdges("partnersWith"))
	assert.Empty(t, r.GetImpliedEdges("knows"))

	assert.ElementsMatch(t, []string{"partnersWith", "marriedTo"}, r.GetImplyingEdges("knows"))
}

func TestCyclicSubclassRejected(t *testing.T) {
	nodes := []kind.NodeKind{{Name: "A"}, {Name: "B"}}
	rels := []kind.OntologyRelation{
		{Kind: kind.RelSubClassOf, A: "A", B: "B"},
		{Kind: kind.RelSubClassOf, A: "B", B: "A"},
	}
	_, err := kind.Build(nodes, nil, rels)
	require.Error(t, err)
}

func TestCyclicImplicationRejected(t *testing.T) {
	edges := []kind.EdgeKind{{Name: "e1"}, {Name: "e2"}}
	rels := []kind.OntologyRelation{
		{Kind: kind.RelImplies, A: "e1", B: "e2"},
		{Kind: kind.RelImplies, A: "e2", B: "e1"},
	}
	_, err := kind.Build(nil, edges, rels)
	require.Error(t, err)
}

func TestDoubleInverseRejected(t *testing.T) {
	edges := []kind.EdgeKind{{Name: "e1"}, {Name: "e2"}, {Name: "e3"}}
	rels := []kind.OntologyRelation{
		{Kind: kind.RelInverseOf, A: "e1", B: "e2"},
		{Kind: kind.RelInverseOf, A: "e1", B: "e3"},
	}
	_, err := kind.Build(nil, edges, rels)
	require.Error(t, err)
}

func TestUnknownKindRejected(t *testing.T) {
	nodes := []kind.NodeKind{{Name: "A"}}
	rels := []kind.OntologyRelation{
		{Kind: kind.RelSubClassOf, A: "A", B: "Ghost"},
	}
	_, err := kind.Build(nodes, nil, rels)
	require.Error(t, err)
}

func TestWherePredicate(t *testing.T) {
	p := kind.WherePredicate{Field: "email", Op: "notNull"}
	assert.True(t, p.Evaluate(map[string]any{"email": "a@b.com"}))
	assert.False(t, p.Evaluate(map[string]any{}))
	assert.False(t, p.Evaluate(map[string]any{"email": nil}))

	nested := kind.WherePredicate{Field: "address.country", Op: "notNull"}
	assert.True(t, nested.Evaluate(map[string]any{"address": map[string]any{"country": "US"}}))
	assert.False(t, nested.Evaluate(map[string]any{"address": map[string]any{}}))
}
