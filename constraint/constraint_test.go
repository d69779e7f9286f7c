package constraint_test

import (
	"testing"

	"github.com/nicia-ai/typegraph"
	"github.com/nicia-ai/typegraph/constraint"
	"github.com/nicia-ai/typegraph/kind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeUniqueKeyDeterministic(t *testing.T) {
	props := map[string]any{"email": "A@B.com", "tenant": "acme"}
	k1 := constraint.ComputeUniqueKey(props, []string{"email", "tenant"}, kind.CollationCaseInsensitive)
	k2 := constraint.ComputeUniqueKey(props, []string{"email", "tenant"}, kind.CollationCaseInsensitive)
	assert.Equal(t, k1, k2)

	lower := map[string]any{"email": "a@b.com", "tenant": "acme"}
	assert.Equal(t, k1, constraint.ComputeUniqueKey(lower, []string{"email", "tenant"}, kind.CollationCaseInsensitive))

	binary := constraint.ComputeUniqueKey(props, []string{"email", "tenant"}, kind.CollationBinary)
	assert.NotEqual(t, k1, binary)
}

func TestComputeUniqueKeyDistinguishesAbsentFromNull(t *testing.T) {
	withNull := constraint.ComputeUniqueKey(map[string]any{"x": nil}, []string{"x"}, kind.CollationBinary)
	absent := constraint.ComputeUniqueKey(map[string]any{}, []string{"x"}, kind.CollationBinary)
	assert.NotEqual(t, withNull, absent)
}

func TestCheckWherePredicate(t *testing.T) {
	c := kind.UniqueConstraint{Name: "byEmail", Fields: []string{"email"}, Where: &kind.WherePredicate{Field: "email", Op: "notNull"}}
	assert.True(t, constraint.CheckWherePredicate(c, map[string]any{"email": "a@b.com"}))
	assert.False(t, constraint.CheckWherePredicate(c, map[string]any{}))

	noWhere := kind.UniqueConstraint{Name: "byEmail", Fields: []string{"email"}}
	assert.True(t, constraint.CheckWherePredicate(noWhere, map[string]any{}))
}

func buildDisjointRegistry(t *testing.T) *kind.Registry {
	t.Helper()
	reg, err := kind.Build(
		[]kind.NodeKind{{Name: "Person"}, {Name: "Robot"}},
		nil,
		[]kind.OntologyRelation{{Kind: kind.RelDisjointWith, A: "Person", B: "Robot"}},
	)
	require.NoError(t, err)
	return reg
}

func TestCheckDisjointness(t *testing.T) {
	reg := buildDisjointRegistry(t)
	err := constraint.CheckDisjointness(reg, "n1", "Robot", []string{"Person"})
	require.Error(t, err)
	var de *typegraph.DisjointError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "n1", de.NodeID)

	assert.NoError(t, constraint.CheckDisjointness(reg, "n1", "Person", []string{"Person"}))
}

func TestValidateEdgeEndpoints(t *testing.T) {
	reg, err := kind.Build([]kind.NodeKind{{Name: "Person"}, {Name: "Company"}}, nil, nil)
	require.NoError(t, err)
	ek := kind.EdgeKind{Name: "worksAt", FromKinds: []string{"Person"}, ToKinds: []string{"Company"}}

	assert.NoError(t, constraint.ValidateEdgeEndpoints(reg, ek, "Person", "Company"))

	err = constraint.ValidateEdgeEndpoints(reg, ek, "Company", "Company")
	require.Error(t, err)
	var ee *typegraph.EndpointError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "from", ee.Endpoint)
}

func TestCheckCardinality(t *testing.T) {
	assert.NoError(t, constraint.CheckCardinality("e", "Person", "p1", kind.CardinalityMany, 100, true, 100))

	err := constraint.CheckCardinality("e", "Person", "p1", kind.CardinalityOne, 1, false, 0)
	require.Error(t, err)
	var ce *typegraph.CardinalityError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "one", ce.Cardinality)

	assert.NoError(t, constraint.CheckCardinality("e", "Person", "p1", kind.CardinalityOneActive, 5, false, 0))
	err = constraint.CheckCardinality("e", "Person", "p1", kind.CardinalityOneActive, 5, true, 0)
	require.Error(t, err)

	// unique is scoped to the (from, to) pair: many edges from the same
	// source are fine as long as existingCount (source-scoped) doesn't
	// drive the decision for this cardinality.
	assert.NoError(t, constraint.CheckCardinality("e", "Person", "p1", kind.CardinalityUnique, 5, false, 0))
	err = constraint.CheckCardinality("e", "Person", "p1", kind.CardinalityUnique, 5, false, 1)
	require.Error(t, err)
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "unique", ce.Cardinality)
}

func TestPlanCascadeRestrict(t *testing.T) {
	_, err := constraint.PlanCascade("Person", "p1", kind.DeleteRestrict, []kind.Edge{{ID: "e1", Kind: "knows"}})
	require.Error(t, err)
	var rde *typegraph.RestrictedDeleteError
	require.ErrorAs(t, err, &rde)
	assert.Equal(t, 1, rde.EdgeCount)

	plan, err := constraint.PlanCascade("Person", "p1", kind.DeleteRestrict, nil)
	require.NoError(t, err)
	assert.Equal(t, "restrict", plan.Action)
}

func TestPlanCascadeCascadeAndDisconnect(t *testing.T) {
	edges := []kind.Edge{{ID: "e1", Kind: "knows"}, {ID: "e2", Kind: "watched"}}

	plan, err := constraint.PlanCascade("Person", "p1", kind.DeleteCascade, edges)
	require.NoError(t, err)
	assert.Equal(t, "cascade", plan.Action)
	assert.ElementsMatch(t, []string{"e1", "e2"}, plan.EdgeIDs)

	plan, err = constraint.PlanCascade("Person", "p1", kind.DeleteDisconnect, edges)
	require.NoError(t, err)
	assert.Equal(t, "disconnect", plan.Action)
}
