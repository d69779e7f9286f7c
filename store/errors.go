package store

import (
	"context"
	"errors"

	"github.com/nicia-ai/typegraph"
	"github.com/nicia-ai/typegraph/adapter"
)

func errTxStarted() error { return typegraph.ErrTxStarted }

// wrapBackend wraps a raw adapter error as a *typegraph.BackendError (spec
// §7); the core never retries it. A unique-constraint failure from
// InsertUnique does not reach here: syncNodeUniques reports it as a
// *typegraph.UniquenessError carrying the winning row's id.
func wrapBackend(op string, err error) error {
	return typegraph.NewBackendError(op, err)
}

// classifyUpdateNodeError disambiguates an UpdateNode failure using a
// follow-up GetNode, since UpdateNode's WHERE clause (graph/kind/id/
// version, live rows only) can match zero rows for three different
// reasons sqlcore itself cannot tell apart (spec §7): the row never
// existed, it was tombstoned since the caller last read it, or its
// version has moved on. row/getErr are the follow-up GetNode's result.
func classifyUpdateNodeError(updateErr error, row *adapter.NodeRow, getErr error, kindName, id string, expectedVersion int) error {
	if errors.Is(getErr, adapter.ErrNotFoundRow) {
		return typegraph.ErrNotFound
	}
	if getErr != nil {
		return wrapBackend("updateNode", updateErr)
	}
	if row.DeletedAt != nil {
		return typegraph.ErrNotFound
	}
	if row.Version != expectedVersion {
		return &typegraph.VersionConflictError{Kind: kindName, ID: id, ExpectedVer: expectedVersion, ActualVer: row.Version}
	}
	return wrapBackend("updateNode", updateErr)
}

// classifyUpdateEdgeError mirrors classifyUpdateNodeError for edges.
func classifyUpdateEdgeError(updateErr error, row *adapter.EdgeRow, getErr error, kindName, id string, expectedVersion int) error {
	if errors.Is(getErr, adapter.ErrNotFoundRow) {
		return typegraph.ErrNotFound
	}
	if getErr != nil {
		return wrapBackend("updateEdge", updateErr)
	}
	if row.DeletedAt != nil {
		return typegraph.ErrNotFound
	}
	if row.Version != expectedVersion {
		return &typegraph.VersionConflictError{Kind: kindName, ID: id, ExpectedVer: expectedVersion, ActualVer: row.Version}
	}
	return wrapBackend("updateEdge", updateErr)
}

// classifyDeleteNodeError disambiguates a DeleteNode failure: not found,
// or already tombstoned (both report typegraph.ErrNotFound; the caller
// doesn't distinguish them since neither is actionable differently).
func classifyDeleteNodeError(ctx context.Context, h adapter.Handle, graphID, kindName, id string, deleteErr error) error {
	row, getErr := h.GetNode(ctx, graphID, kindName, id)
	if errors.Is(getErr, adapter.ErrNotFoundRow) {
		return typegraph.ErrNotFound
	}
	if getErr != nil {
		return wrapBackend("deleteNode", deleteErr)
	}
	if row.DeletedAt != nil {
		return typegraph.ErrNotFound
	}
	return wrapBackend("deleteNode", deleteErr)
}

// classifyDeleteEdgeError mirrors classifyDeleteNodeError for edges.
func classifyDeleteEdgeError(ctx context.Context, h adapter.Handle, graphID, kindName, id string, deleteErr error) error {
	row, getErr := h.GetEdge(ctx, graphID, kindName, id)
	if errors.Is(getErr, adapter.ErrNotFoundRow) {
		return typegraph.ErrNotFound
	}
	if getErr != nil {
		return wrapBackend("deleteEdge", deleteErr)
	}
	if row.DeletedAt != nil {
		return typegraph.ErrNotFound
	}
	return wrapBackend("deleteEdge", deleteErr)
}
