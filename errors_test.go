package typegraph

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsXxxHelpers(t *testing.T) {
	assert.True(t, IsValidationError(&ValidationError{Kind: "Person"}))
	assert.True(t, IsUniquenessError(&UniquenessError{Kind: "Person"}))
	assert.True(t, IsCardinalityError(&CardinalityError{EdgeKind: "knows"}))
	assert.True(t, IsEndpointError(&EndpointError{EdgeKind: "knows"}))
	assert.True(t, IsDisjointError(&DisjointError{NodeID: "a"}))
	assert.True(t, IsRestrictedDeleteError(&RestrictedDeleteError{Kind: "Book"}))
	assert.True(t, IsNodeConstraintNotFoundError(&NodeConstraintNotFoundError{Kind: "Book"}))
	assert.True(t, IsEdgeConstraintNotFoundError(&EdgeConstraintNotFoundError{Kind: "knows"}))
	assert.True(t, IsVersionConflictError(&VersionConflictError{Kind: "Book"}))
	assert.True(t, IsTemporalError(&TemporalError{Message: "bad asOf"}))
	assert.True(t, IsCompilationError(&CompilationError{Message: "cycle"}))
	assert.True(t, IsBackendError(NewBackendError("insertNode", errors.New("boom"))))

	assert.False(t, IsValidationError(nil))
	assert.False(t, IsBackendError(nil))
	assert.Nil(t, NewBackendError("op", nil))
}

func TestBackendErrorUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := NewBackendError("execute", inner)
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "execute")
}

func TestAggregateError(t *testing.T) {
	assert.Nil(t, NewAggregateError())
	assert.Nil(t, NewAggregateError(nil, nil))

	single := NewAggregateError(errors.New("only one"))
	assert.Equal(t, "only one", single.Error())

	multi := NewAggregateError(errors.New("first"), nil, errors.New("second"))
	var agg *AggregateError
	assert.True(t, errors.As(multi, &agg))
	assert.Len(t, agg.Errors, 2)
	assert.Contains(t, multi.Error(), "[1] first")
	assert.Contains(t, multi.Error(), "[2] second")
}

func ExampleIsDisjointError() {
	err := &DisjointError{NodeID: "a", AttemptedKind: "Robot", ConflictingKind: "Person"}
	fmt.Println(IsDisjointError(err))
	// Output: true
}
