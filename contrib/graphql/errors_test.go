package graphql_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/nicia-ai/typegraph"
	tggraphql "github.com/nicia-ai/typegraph/contrib/graphql"
)

func TestPresentErrorAddsCodeForNotFound(t *testing.T) {
	base := &gqlerror.Error{Message: typegraph.ErrNotFound.Error()}
	got := tggraphql.PresentError(context.Background(), base, typegraph.ErrNotFound)
	assert.Equal(t, "NOT_FOUND", got.Extensions["code"])
}

func TestPresentErrorAddsCodeForValidationError(t *testing.T) {
	err := &typegraph.ValidationError{Kind: "Person", Fields: []string{"email"}, Message: "required"}
	base := &gqlerror.Error{Message: err.Error()}
	got := tggraphql.PresentError(context.Background(), base, err)
	assert.Equal(t, "VALIDATION_FAILED", got.Extensions["code"])
}

func TestPresentErrorLeavesUnknownErrorsUntouched(t *testing.T) {
	base := &gqlerror.Error{Message: "boom"}
	got := tggraphql.PresentError(context.Background(), base, assertErr{})
	assert.Nil(t, got.Extensions)
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
