package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nicia-ai/typegraph"
	"github.com/nicia-ai/typegraph/adapter"
	"github.com/nicia-ai/typegraph/compiler"
	"github.com/nicia-ai/typegraph/constraint"
	"github.com/nicia-ai/typegraph/internal/sqlbuilder"
	"github.com/nicia-ai/typegraph/kind"
)

// NodeRef names one endpoint of an edge operation: a kind plus a logical
// id, the (kind, id) half of the edges table's composite from/to columns.
type NodeRef struct {
	Kind string
	ID   string
}

func (s *Store) validateEdge(kindName string, props map[string]any) (map[string]any, error) {
	v, ok := s.edgeValidators[kindName]
	if !ok {
		if props == nil {
			return map[string]any{}, nil
		}
		return props, nil
	}
	out, err := v.Validate(props)
	if err != nil {
		var ve *typegraph.ValidationError
		if errors.As(err, &ve) {
			return nil, ve
		}
		return nil, &typegraph.ValidationError{Kind: kindName, Message: err.Error()}
	}
	return out, nil
}

// countLiveEdgesFrom counts live edges of edgeKind originating at
// (fromKind, fromID), and reports whether any has valid_to IS NULL, the
// two figures constraint.CheckCardinality needs for the "one"/"oneActive"
// cardinalities, which are scoped to the source alone (spec §4.2
// checkCardinality).
func (s *Store) countLiveEdgesFrom(ctx context.Context, h adapter.Handle, edgeKind, fromKind, fromID string) (count int, hasActive bool, err error) {
	return s.countLiveEdgesWhere(ctx, h, edgeKind, fromKind, fromID, "", "")
}

// countLiveEdgesFromTo counts live edges of edgeKind between the exact
// (fromKind, fromID) -> (toKind, toID) pair, the figure CheckCardinality
// needs for "unique", which scopes uniqueness to the endpoint pair rather
// than the source alone: unlike "one", a source may carry many unique
// edges of the same kind as long as each lands on a distinct target.
func (s *Store) countLiveEdgesFromTo(ctx context.Context, h adapter.Handle, edgeKind, fromKind, fromID, toKind, toID string) (count int, err error) {
	count, _, err = s.countLiveEdgesWhere(ctx, h, edgeKind, fromKind, fromID, toKind, toID)
	return count, err
}

// countLiveEdgesWhere is the shared scan behind countLiveEdgesFrom and
// countLiveEdgesFromTo. An empty toKind/toID leaves the to-endpoint
// unconstrained (source-scoped count); non-empty values additionally
// scope the count to that exact target (pair-scoped count).
func (s *Store) countLiveEdgesWhere(ctx context.Context, h adapter.Handle, edgeKind, fromKind, fromID, toKind, toID string) (count int, hasActive bool, err error) {
	q := sqlbuilder.Select(s.dialect, compiler.ColValidTo).
		From(compiler.TableEdges, "t").
		Where(sqlbuilder.EQ("t", compiler.ColGraphID, s.graphID)).
		Where(sqlbuilder.EQ("t", compiler.ColKind, edgeKind)).
		Where(sqlbuilder.EQ("t", compiler.ColFromKind, fromKind)).
		Where(sqlbuilder.EQ("t", compiler.ColFromID, fromID)).
		Where(sqlbuilder.IsNull("t", compiler.ColDeletedAt))
	if toKind != "" || toID != "" {
		q = q.Where(sqlbuilder.EQ("t", compiler.ColToKind, toKind)).
			Where(sqlbuilder.EQ("t", compiler.ColToID, toID))
	}
	text, args := q.Query()

	rows, err := h.Execute(ctx, text, args)
	if err != nil {
		return 0, false, wrapBackend("countEdges", err)
	}
	defer rows.Close()

	for rows.Next() {
		var validTo *time.Time
		if err := rows.Scan(&validTo); err != nil {
			return 0, false, wrapBackend("countEdges", err)
		}
		count++
		if validTo == nil {
			hasActive = true
		}
	}
	return count, hasActive, wrapBackend("countEdges", rows.Err())
}

// edgeColumns is the fixed column order scanEdgeColumns expects, mirroring
// compiler/projection.go's defaultNodeColumns convention for the edges
// table.
var edgeColumns = []string{
	compiler.ColID, compiler.ColKind, compiler.ColFromKind, compiler.ColFromID,
	compiler.ColToKind, compiler.ColToID, compiler.ColProps, compiler.ColVersion,
	compiler.ColValidFrom, compiler.ColValidTo, compiler.ColCreatedAt, compiler.ColUpdatedAt, compiler.ColDeletedAt,
}

func scanEdgeColumns(r scanner) (*kind.Edge, error) {
	var (
		id, rowKind, fromKind, fromID, toKind, toID string
		props                                       []byte
		version                                     int
		validFrom, validTo                          *time.Time
		createdAt, updatedAt                         time.Time
		deletedAt                                    *time.Time
	)
	if err := r.Scan(&id, &rowKind, &fromKind, &fromID, &toKind, &toID, &props, &version, &validFrom, &validTo, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, wrapBackend("query", err)
	}
	decoded, err := decodeProps(props)
	if err != nil {
		return nil, err
	}
	return &kind.Edge{
		Kind: rowKind, ID: id, FromKind: fromKind, FromID: fromID, ToKind: toKind, ToID: toID,
		Props: decoded,
		Meta: kind.Meta{
			Version: version, ValidFrom: validFrom, ValidTo: validTo,
			CreatedAt: createdAt, UpdatedAt: updatedAt, DeletedAt: deletedAt,
		},
	}, nil
}

// findEdges scans every live edge of kindName, applying the optional
// in-Go match against from/to/props (spec §4.5 find for edges: unlike node
// find, which compiles a full query.Predicate through the planner, edge
// lookups are small, locally-scoped scans, so matching happens after the
// decode rather than in SQL).
func (s *Store) findEdges(ctx context.Context, kindName string, match func(*kind.Edge) bool) ([]*kind.Edge, error) {
	text, args := sqlbuilder.Select(s.dialect, edgeColumns...).
		From(compiler.TableEdges, "t").
		Where(sqlbuilder.EQ("t", compiler.ColGraphID, s.graphID)).
		Where(sqlbuilder.EQ("t", compiler.ColKind, kindName)).
		Where(sqlbuilder.IsNull("t", compiler.ColDeletedAt)).
		Query()

	rows, err := s.handle.Execute(ctx, text, args)
	if err != nil {
		return nil, wrapBackend("query", err)
	}
	defer rows.Close()

	var out []*kind.Edge
	for rows.Next() {
		e, err := scanEdgeColumns(rows)
		if err != nil {
			return nil, err
		}
		if match == nil || match(e) {
			out = append(out, e)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, wrapBackend("query", err)
	}
	return out, nil
}

// matchesOn reports whether e's from/to endpoints and the props named by
// fields all equal those of candidate, used by GetOrCreateEdgeByEndpoints to
// recognize an existing edge under a caller-chosen natural key.
func matchesOn(e *kind.Edge, from, to NodeRef, props map[string]any, fields []string) bool {
	if e.FromKind != from.Kind || e.FromID != from.ID || e.ToKind != to.Kind || e.ToID != to.ID {
		return false
	}
	for _, f := range fields {
		if fmt.Sprintf("%v", e.Props[f]) != fmt.Sprintf("%v", props[f]) {
			return false
		}
	}
	return true
}

// insertNewEdge validates endpoints and cardinality against h, then
// inserts the physical row.
func (s *Store) insertNewEdge(ctx context.Context, h adapter.Handle, ek kind.EdgeKind, id string, from, to NodeRef, validated map[string]any, opts CreateOptions) (*kind.Edge, error) {
	if err := constraint.ValidateEdgeEndpoints(s.registry, ek, from.Kind, to.Kind); err != nil {
		return nil, err
	}
	count, hasActive, err := s.countLiveEdgesFrom(ctx, h, ek.Name, from.Kind, from.ID)
	if err != nil {
		return nil, err
	}
	var pairCount int
	if ek.Cardinality == kind.CardinalityUnique {
		pairCount, err = s.countLiveEdgesFromTo(ctx, h, ek.Name, from.Kind, from.ID, to.Kind, to.ID)
		if err != nil {
			return nil, err
		}
	}
	if err := constraint.CheckCardinality(ek.Name, from.Kind, from.ID, ek.Cardinality, count, hasActive, pairCount); err != nil {
		return nil, err
	}

	now := s.now()
	encoded, err := encodeProps(validated)
	if err != nil {
		return nil, err
	}
	row := adapter.EdgeRow{
		GraphID: s.graphID, Kind: ek.Name, ID: id,
		FromKind: from.Kind, FromID: from.ID, ToKind: to.Kind, ToID: to.ID,
		Props: encoded, Version: 1, ValidFrom: opts.ValidFrom, ValidTo: opts.ValidTo, CreatedAt: now, UpdatedAt: now,
	}
	if err := h.InsertEdge(ctx, row); err != nil {
		return nil, wrapBackend("insertEdge", err)
	}
	return &kind.Edge{
		Kind: ek.Name, ID: id, FromKind: from.Kind, FromID: from.ID, ToKind: to.Kind, ToID: to.ID,
		Props: validated,
		Meta:  kind.Meta{Version: 1, ValidFrom: opts.ValidFrom, ValidTo: opts.ValidTo, CreatedAt: now, UpdatedAt: now},
	}, nil
}

// CreateEdge makes a new edge of kindName between from and to (spec §4.5
// create for edges, §8 invariants 3-4).
func (s *Store) CreateEdge(ctx context.Context, kindName string, from, to NodeRef, props map[string]any, opts CreateOptions) (*kind.Edge, error) {
	ek, ok := s.registry.EdgeKind(kindName)
	if !ok {
		return nil, &typegraph.CompilationError{Message: fmt.Sprintf("unknown edge kind %q", kindName)}
	}
	validated, err := s.validateEdge(kindName, props)
	if err != nil {
		return nil, err
	}
	id := opts.ID
	if id == "" {
		id = newID()
	}

	var result *kind.Edge
	err = s.withHandle(ctx, func(h adapter.Handle) error {
		e, err := s.insertNewEdge(ctx, h, ek, id, from, to, validated, opts)
		if err != nil {
			return err
		}
		result = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetOrCreateEdgeByEndpoints looks for a live edge of kindName matching
// (from, to) and, if fields is non-empty, also matching those property
// values, creating one if none is found (spec §4.5 getOrCreateByConstraint
// for edges — edges have no declared UniqueConstraint, so the natural key
// is the caller-supplied endpoint pair plus an optional property subset).
func (s *Store) GetOrCreateEdgeByEndpoints(ctx context.Context, kindName string, from, to NodeRef, props map[string]any, fields []string, ifExists UpsertIfExists) (*kind.Edge, UpsertAction, error) {
	ek, ok := s.registry.EdgeKind(kindName)
	if !ok {
		return nil, "", &typegraph.CompilationError{Message: fmt.Sprintf("unknown edge kind %q", kindName)}
	}
	validated, err := s.validateEdge(kindName, props)
	if err != nil {
		return nil, "", err
	}

	var (
		result *kind.Edge
		action UpsertAction
	)
	err = s.withHandle(ctx, func(h adapter.Handle) error {
		candidates, err := s.findEdges(ctx, kindName, func(e *kind.Edge) bool {
			return matchesOn(e, from, to, validated, fields)
		})
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			e, err := s.insertNewEdge(ctx, h, ek, newID(), from, to, validated, CreateOptions{})
			if err != nil {
				return err
			}
			result, action = e, ActionCreated
			return nil
		}

		existing := candidates[0]
		if ifExists == UpsertReturn {
			result, action = existing, ActionFound
			return nil
		}
		e, err := s.applyEdgeUpdate(ctx, h, ek, existing.ID, existing.Meta.Version, mergeProps(existing.Props, validated))
		if err != nil {
			return err
		}
		result, action = e, ActionUpdated
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return result, action, nil
}

// UpsertEdgeById mirrors UpsertNodeById: creates id between from and to
// if absent or tombstoned, or applies ifExists's policy against the
// existing live row.
func (s *Store) UpsertEdgeById(ctx context.Context, kindName, id string, from, to NodeRef, props map[string]any, ifExists UpsertIfExists) (*kind.Edge, UpsertAction, error) {
	ek, ok := s.registry.EdgeKind(kindName)
	if !ok {
		return nil, "", &typegraph.CompilationError{Message: fmt.Sprintf("unknown edge kind %q", kindName)}
	}
	validated, err := s.validateEdge(kindName, props)
	if err != nil {
		return nil, "", err
	}

	var (
		result *kind.Edge
		action UpsertAction
	)
	err = s.withHandle(ctx, func(h adapter.Handle) error {
		row, getErr := h.GetEdge(ctx, s.graphID, kindName, id)
		switch {
		case errors.Is(getErr, adapter.ErrNotFoundRow):
			e, err := s.insertNewEdge(ctx, h, ek, id, from, to, validated, CreateOptions{ID: id})
			if err != nil {
				return err
			}
			result, action = e, ActionCreated
			return nil
		case getErr != nil:
			return wrapBackend("getEdge", getErr)
		case row.DeletedAt != nil:
			if err := h.DeleteEdge(ctx, s.graphID, kindName, id, true); err != nil {
				return wrapBackend("purgeTombstone", err)
			}
			e, err := s.insertNewEdge(ctx, h, ek, id, from, to, validated, CreateOptions{ID: id})
			if err != nil {
				return err
			}
			result, action = e, ActionResurrected
			return nil
		default:
			existing, err := edgeFromRow(row)
			if err != nil {
				return err
			}
			if ifExists == UpsertReturn {
				result, action = existing, ActionFound
				return nil
			}
			e, err := s.applyEdgeUpdate(ctx, h, ek, id, row.Version, mergeProps(existing.Props, validated))
			if err != nil {
				return err
			}
			result, action = e, ActionUpdated
			return nil
		}
	})
	if err != nil {
		return nil, "", err
	}
	return result, action, nil
}

func (s *Store) applyEdgeUpdate(ctx context.Context, h adapter.Handle, ek kind.EdgeKind, id string, expectedVersion int, merged map[string]any) (*kind.Edge, error) {
	revalidated, err := s.validateEdge(ek.Name, merged)
	if err != nil {
		return nil, err
	}
	encoded, err := encodeProps(revalidated)
	if err != nil {
		return nil, err
	}
	if err := h.UpdateEdge(ctx, s.graphID, ek.Name, id, map[string]any{compiler.ColProps: encoded}, expectedVersion); err != nil {
		row, getErr := h.GetEdge(ctx, s.graphID, ek.Name, id)
		return nil, classifyUpdateEdgeError(err, row, getErr, ek.Name, id, expectedVersion)
	}
	updated, err := h.GetEdge(ctx, s.graphID, ek.Name, id)
	if err != nil {
		return nil, wrapBackend("getEdge", err)
	}
	return edgeFromRow(updated)
}

// UpdateEdge applies partialProps over id's live row at expectedVersion.
func (s *Store) UpdateEdge(ctx context.Context, kindName, id string, partialProps map[string]any, expectedVersion int) (*kind.Edge, error) {
	ek, ok := s.registry.EdgeKind(kindName)
	if !ok {
		return nil, &typegraph.CompilationError{Message: fmt.Sprintf("unknown edge kind %q", kindName)}
	}
	current, err := s.GetEdge(ctx, kindName, id)
	if err != nil {
		return nil, err
	}
	merged := mergeProps(current.Props, partialProps)

	var result *kind.Edge
	err = s.withHandle(ctx, func(h adapter.Handle) error {
		e, err := s.applyEdgeUpdate(ctx, h, ek, id, expectedVersion, merged)
		if err != nil {
			return err
		}
		result = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetEdge fetches a live edge by id, translating a missing or
// tombstoned row to typegraph.ErrNotFound.
func (s *Store) GetEdge(ctx context.Context, kindName, id string) (*kind.Edge, error) {
	row, err := s.handle.GetEdge(ctx, s.graphID, kindName, id)
	if err != nil {
		if errors.Is(err, adapter.ErrNotFoundRow) {
			return nil, typegraph.ErrNotFound
		}
		return nil, wrapBackend("getEdge", err)
	}
	if row.DeletedAt != nil {
		return nil, typegraph.ErrNotFound
	}
	return edgeFromRow(row)
}

// GetEdges fetches several edges in input order, silently omitting
// ids that don't resolve to a live row.
func (s *Store) GetEdges(ctx context.Context, kindName string, ids []string) ([]*kind.Edge, error) {
	out := make([]*kind.Edge, 0, len(ids))
	for _, id := range ids {
		e, err := s.GetEdge(ctx, kindName, id)
		if err != nil {
			if errors.Is(err, typegraph.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// FindEdgesFrom returns every live edge of kindName originating at from.
func (s *Store) FindEdgesFrom(ctx context.Context, kindName string, from NodeRef) ([]*kind.Edge, error) {
	return s.findEdges(ctx, kindName, func(e *kind.Edge) bool {
		return e.FromKind == from.Kind && e.FromID == from.ID
	})
}

// FindEdgesTo returns every live edge of kindName terminating at to.
func (s *Store) FindEdgesTo(ctx context.Context, kindName string, to NodeRef) ([]*kind.Edge, error) {
	return s.findEdges(ctx, kindName, func(e *kind.Edge) bool {
		return e.ToKind == to.Kind && e.ToID == to.ID
	})
}

// DeleteEdge soft-deletes a single edge; edges have no outgoing cascade of
// their own (spec §4.6 only nodes cascade).
func (s *Store) DeleteEdge(ctx context.Context, kindName, id string) error {
	return s.withHandle(ctx, func(h adapter.Handle) error {
		if err := h.DeleteEdge(ctx, s.graphID, kindName, id, false); err != nil {
			return classifyDeleteEdgeError(ctx, h, s.graphID, kindName, id, err)
		}
		return nil
	})
}

// HardDeleteEdge permanently removes an edge row, bypassing the
// soft-delete tombstone.
func (s *Store) HardDeleteEdge(ctx context.Context, kindName, id string) error {
	return s.withHandle(ctx, func(h adapter.Handle) error {
		if err := h.DeleteEdge(ctx, s.graphID, kindName, id, true); err != nil {
			return classifyDeleteEdgeError(ctx, h, s.graphID, kindName, id, err)
		}
		return nil
	})
}
