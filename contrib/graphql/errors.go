package graphql

import (
	"context"
	"errors"

	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/nicia-ai/typegraph"
)

// PresentError maps a typegraph error into a *gqlerror.Error carrying a
// stable "code" extension, suitable for wiring as a gqlgen
// graphql.ErrorPresenterFunc:
//
//	srv.SetErrorPresenter(func(ctx context.Context, err error) *gqlerror.Error {
//	    return graphql.PresentError(ctx, graphql.DefaultPresenter(ctx, err), err)
//	})
//
// gqlgen's default presenter has already attached the GraphQL path by the
// time a custom presenter runs; PresentError only adds the extensions
// code, leaving base and path untouched.
func PresentError(ctx context.Context, gqlErr *gqlerror.Error, err error) *gqlerror.Error {
	code, ok := errorCode(err)
	if !ok {
		return gqlErr
	}
	if gqlErr.Extensions == nil {
		gqlErr.Extensions = map[string]any{}
	}
	gqlErr.Extensions["code"] = code
	return gqlErr
}

func errorCode(err error) (string, bool) {
	switch {
	case errors.Is(err, typegraph.ErrNotFound):
		return "NOT_FOUND", true
	case typegraph.IsValidationError(err):
		return "VALIDATION_FAILED", true
	case typegraph.IsUniquenessError(err):
		return "UNIQUENESS_VIOLATION", true
	case typegraph.IsCardinalityError(err):
		return "CARDINALITY_VIOLATION", true
	case typegraph.IsEndpointError(err):
		return "ENDPOINT_NOT_ASSIGNABLE", true
	case typegraph.IsDisjointError(err):
		return "DISJOINT_KIND", true
	case typegraph.IsRestrictedDeleteError(err):
		return "RESTRICTED_DELETE", true
	case typegraph.IsNodeConstraintNotFoundError(err), typegraph.IsEdgeConstraintNotFoundError(err):
		return "CONSTRAINT_NOT_FOUND", true
	case typegraph.IsVersionConflictError(err):
		return "VERSION_CONFLICT", true
	case typegraph.IsTemporalError(err):
		return "TEMPORAL_ERROR", true
	case typegraph.IsCompilationError(err):
		return "COMPILATION_ERROR", true
	case typegraph.IsBackendError(err):
		return "BACKEND_ERROR", true
	default:
		return "", false
	}
}
