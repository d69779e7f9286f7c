package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/nicia-ai/typegraph"
	"github.com/nicia-ai/typegraph/adapter"
	"github.com/nicia-ai/typegraph/compiler"
	"github.com/nicia-ai/typegraph/constraint"
	"github.com/nicia-ai/typegraph/kind"
	"github.com/nicia-ai/typegraph/query"
)

// validateNode runs kindName's registered Validator over props, wrapping
// any failure as a *typegraph.ValidationError. A kind with no registered
// validator accepts props unchanged (store.go WithNodeValidator doc).
func (s *Store) validateNode(kindName string, props map[string]any) (map[string]any, error) {
	v, ok := s.nodeValidators[kindName]
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

func mergeProps(base, partial map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(partial))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range partial {
		out[k] = v
	}
	return out
}

// syncNodeUniques checks and registers id's entries in node_uniques for
// every UniqueConstraint nk declares whose Where predicate props
// satisfies (spec §4.2 computeUniqueKey, checkWherePredicate). A
// conflicting key reports a *typegraph.UniquenessError; id's own
// pre-existing entry under a constraint is left untouched.
func (s *Store) syncNodeUniques(ctx context.Context, h adapter.Handle, nk kind.NodeKind, id string, props map[string]any) error {
	for _, u := range nk.Uniques {
		if !constraint.CheckWherePredicate(u, props) {
			continue
		}
		key := constraint.ComputeUniqueKey(props, u.Fields, u.Collation)
		existingID, found, err := h.CheckUnique(ctx, s.graphID, u.Name, key)
		if err != nil {
			return wrapBackend("checkUnique", err)
		}
		if found {
			if existingID == id {
				continue
			}
			return &typegraph.UniquenessError{ConstraintName: u.Name, Kind: nk.Name, Fields: u.Fields, ExistingID: existingID, NewID: id}
		}
		if err := h.InsertUnique(ctx, adapter.UniqueRow{GraphID: s.graphID, ConstraintName: u.Name, Kind: nk.Name, Key: key, NodeID: id}); err != nil {
			if adapter.IsUniqueConstraintError(err) {
				winner, _, _ := h.CheckUnique(ctx, s.graphID, u.Name, key)
				return &typegraph.UniquenessError{ConstraintName: u.Name, Kind: nk.Name, Fields: u.Fields, ExistingID: winner, NewID: id}
			}
			return wrapBackend("insertUnique", err)
		}
	}
	return nil
}

// insertNewNode checks disjointness against id's other live kinds, inserts
// the physical row, and registers its uniqueness keys, all against the
// handle h (which may be a pooled Adapter or a transactional Tx).
func (s *Store) insertNewNode(ctx context.Context, h adapter.Handle, nk kind.NodeKind, id string, validated map[string]any, opts CreateOptions) (*kind.Node, error) {
	existing, err := s.queryKinds(ctx, h, id)
	if err != nil {
		return nil, err
	}
	if err := constraint.CheckDisjointness(s.registry, id, nk.Name, existing); err != nil {
		return nil, err
	}

	now := s.now()
	encoded, err := encodeProps(validated)
	if err != nil {
		return nil, err
	}
	row := adapter.NodeRow{
		GraphID: s.graphID, Kind: nk.Name, ID: id, Props: encoded, Version: 1,
		ValidFrom: opts.ValidFrom, ValidTo: opts.ValidTo, CreatedAt: now, UpdatedAt: now,
	}
	if err := h.InsertNode(ctx, row); err != nil {
		return nil, wrapBackend("insertNode", err)
	}
	if err := s.syncNodeUniques(ctx, h, nk, id, validated); err != nil {
		return nil, err
	}
	return &kind.Node{
		Kind: nk.Name, ID: id, Props: validated,
		Meta: kind.Meta{Version: 1, ValidFrom: opts.ValidFrom, ValidTo: opts.ValidTo, CreatedAt: now, UpdatedAt: now},
	}, nil
}

// CreateNode makes a new node under kindName with a fresh or
// caller-supplied id (spec §4.5 create).
func (s *Store) CreateNode(ctx context.Context, kindName string, props map[string]any, opts CreateOptions) (*kind.Node, error) {
	nk, ok := s.registry.NodeKind(kindName)
	if !ok {
		return nil, &typegraph.CompilationError{Message: fmt.Sprintf("unknown node kind %q", kindName)}
	}
	validated, err := s.validateNode(kindName, props)
	if err != nil {
		return nil, err
	}
	id := opts.ID
	if id == "" {
		id = newID()
	}

	var result *kind.Node
	err = s.withHandle(ctx, func(h adapter.Handle) error {
		n, err := s.insertNewNode(ctx, h, nk, id, validated, opts)
		if err != nil {
			return err
		}
		result = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpsertNodeById creates id if absent (or tombstoned), or applies
// ifExists's policy if a live row already exists (spec §4.5 upsertById).
func (s *Store) UpsertNodeById(ctx context.Context, kindName, id string, props map[string]any, ifExists UpsertIfExists) (*kind.Node, UpsertAction, error) {
	nk, ok := s.registry.NodeKind(kindName)
	if !ok {
		return nil, "", &typegraph.CompilationError{Message: fmt.Sprintf("unknown node kind %q", kindName)}
	}
	validated, err := s.validateNode(kindName, props)
	if err != nil {
		return nil, "", err
	}

	var (
		result *kind.Node
		action UpsertAction
	)
	err = s.withHandle(ctx, func(h adapter.Handle) error {
		row, getErr := h.GetNode(ctx, s.graphID, kindName, id)
		switch {
		case errors.Is(getErr, adapter.ErrNotFoundRow):
			n, err := s.insertNewNode(ctx, h, nk, id, validated, CreateOptions{ID: id})
			if err != nil {
				return err
			}
			result, action = n, ActionCreated
			return nil
		case getErr != nil:
			return wrapBackend("getNode", getErr)
		case row.DeletedAt != nil:
			// Resurrect: the physical row is gone in spirit but still
			// occupies the (graph_id, kind, id) primary key, so purge it
			// outright before re-inserting a fresh live row.
			if err := h.DeleteNode(ctx, s.graphID, kindName, id, true); err != nil {
				return wrapBackend("purgeTombstone", err)
			}
			n, err := s.insertNewNode(ctx, h, nk, id, validated, CreateOptions{ID: id})
			if err != nil {
				return err
			}
			result, action = n, ActionResurrected
			return nil
		default:
			existing, err := nodeFromRow(row)
			if err != nil {
				return err
			}
			if ifExists == UpsertReturn {
				result, action = existing, ActionFound
				return nil
			}
			n, err := s.applyNodeUpdate(ctx, h, nk, id, row.Version, mergeProps(existing.Props, validated))
			if err != nil {
				return err
			}
			result, action = n, ActionUpdated
			return nil
		}
	})
	if err != nil {
		return nil, "", err
	}
	return result, action, nil
}

// GetOrCreateNodeByConstraint looks a node up by a declared
// UniqueConstraint's computed key, creating it if absent (spec §4.5
// getOrCreateByConstraint).
func (s *Store) GetOrCreateNodeByConstraint(ctx context.Context, kindName, constraintName string, props map[string]any, ifExists UpsertIfExists) (*kind.Node, UpsertAction, error) {
	nk, ok := s.registry.NodeKind(kindName)
	if !ok {
		return nil, "", &typegraph.CompilationError{Message: fmt.Sprintf("unknown node kind %q", kindName)}
	}
	u, ok := nk.Unique(constraintName)
	if !ok {
		return nil, "", &typegraph.NodeConstraintNotFoundError{Kind: kindName, Name: constraintName}
	}
	validated, err := s.validateNode(kindName, props)
	if err != nil {
		return nil, "", err
	}
	if !constraint.CheckWherePredicate(u, validated) {
		return nil, "", &typegraph.ValidationError{Kind: kindName, Fields: u.Fields, Message: "properties do not satisfy constraint " + constraintName + "'s partial predicate"}
	}
	key := constraint.ComputeUniqueKey(validated, u.Fields, u.Collation)

	var (
		result *kind.Node
		action UpsertAction
	)
	err = s.withHandle(ctx, func(h adapter.Handle) error {
		existingID, found, err := h.CheckUnique(ctx, s.graphID, constraintName, key)
		if err != nil {
			return wrapBackend("checkUnique", err)
		}
		if !found {
			n, err := s.insertNewNode(ctx, h, nk, newID(), validated, CreateOptions{})
			if err != nil {
				return err
			}
			result, action = n, ActionCreated
			return nil
		}

		row, err := h.GetNode(ctx, s.graphID, kindName, existingID)
		if err != nil {
			return wrapBackend("getNode", err)
		}
		existing, err := nodeFromRow(row)
		if err != nil {
			return err
		}
		if ifExists == UpsertReturn || row.DeletedAt != nil {
			result, action = existing, ActionFound
			return nil
		}
		n, err := s.applyNodeUpdate(ctx, h, nk, existingID, row.Version, mergeProps(existing.Props, validated))
		if err != nil {
			return err
		}
		result, action = n, ActionUpdated
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return result, action, nil
}

// applyNodeUpdate validates merged, writes it over id's live row at
// expectedVersion, re-syncs uniqueness keys, and returns the stored node.
func (s *Store) applyNodeUpdate(ctx context.Context, h adapter.Handle, nk kind.NodeKind, id string, expectedVersion int, merged map[string]any) (*kind.Node, error) {
	revalidated, err := s.validateNode(nk.Name, merged)
	if err != nil {
		return nil, err
	}
	encoded, err := encodeProps(revalidated)
	if err != nil {
		return nil, err
	}
	if err := h.UpdateNode(ctx, s.graphID, nk.Name, id, map[string]any{compiler.ColProps: encoded}, expectedVersion); err != nil {
		row, getErr := h.GetNode(ctx, s.graphID, nk.Name, id)
		return nil, classifyUpdateNodeError(err, row, getErr, nk.Name, id, expectedVersion)
	}
	if err := s.syncNodeUniques(ctx, h, nk, id, revalidated); err != nil {
		return nil, err
	}
	updated, err := h.GetNode(ctx, s.graphID, nk.Name, id)
	if err != nil {
		return nil, wrapBackend("getNode", err)
	}
	return nodeFromRow(updated)
}

// UpdateNode applies partialProps over id's live row at expectedVersion (spec
// §3 invariant 5 optimistic concurrency).
func (s *Store) UpdateNode(ctx context.Context, kindName, id string, partialProps map[string]any, expectedVersion int) (*kind.Node, error) {
	nk, ok := s.registry.NodeKind(kindName)
	if !ok {
		return nil, &typegraph.CompilationError{Message: fmt.Sprintf("unknown node kind %q", kindName)}
	}
	current, err := s.GetNode(ctx, kindName, id)
	if err != nil {
		return nil, err
	}
	merged := mergeProps(current.Props, partialProps)

	var result *kind.Node
	err = s.withHandle(ctx, func(h adapter.Handle) error {
		n, err := s.applyNodeUpdate(ctx, h, nk, id, expectedVersion, merged)
		if err != nil {
			return err
		}
		result = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetNode fetches a live node by id, translating a missing or tombstoned
// row to typegraph.ErrNotFound.
func (s *Store) GetNode(ctx context.Context, kindName, id string) (*kind.Node, error) {
	row, err := s.handle.GetNode(ctx, s.graphID, kindName, id)
	if err != nil {
		if errors.Is(err, adapter.ErrNotFoundRow) {
			return nil, typegraph.ErrNotFound
		}
		return nil, wrapBackend("getNode", err)
	}
	if row.DeletedAt != nil {
		return nil, typegraph.ErrNotFound
	}
	return nodeFromRow(row)
}

// GetNodes fetches several nodes in input order, silently omitting ids
// that don't resolve to a live row (spec §4.5 getByIds).
func (s *Store) GetNodes(ctx context.Context, kindName string, ids []string) ([]*kind.Node, error) {
	out := make([]*kind.Node, 0, len(ids))
	for _, id := range ids {
		n, err := s.GetNode(ctx, kindName, id)
		if err != nil {
			if errors.Is(err, typegraph.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// FindNodeByConstraint looks a node up by a declared UniqueConstraint's
// computed key, returning typegraph.ErrNotFound if no row holds it.
func (s *Store) FindNodeByConstraint(ctx context.Context, kindName, constraintName string, props map[string]any) (*kind.Node, error) {
	nk, ok := s.registry.NodeKind(kindName)
	if !ok {
		return nil, &typegraph.CompilationError{Message: fmt.Sprintf("unknown node kind %q", kindName)}
	}
	u, ok := nk.Unique(constraintName)
	if !ok {
		return nil, &typegraph.NodeConstraintNotFoundError{Kind: kindName, Name: constraintName}
	}
	key := constraint.ComputeUniqueKey(props, u.Fields, u.Collation)
	id, found, err := s.handle.CheckUnique(ctx, s.graphID, constraintName, key)
	if err != nil {
		return nil, wrapBackend("checkUnique", err)
	}
	if !found {
		return nil, typegraph.ErrNotFound
	}
	return s.GetNode(ctx, kindName, id)
}

// FindNodes runs an ad-hoc predicate over a node kind, returning live
// nodes that satisfy it (spec §4.5 find). A nil where returns every live
// node of the kind.
func (s *Store) FindNodes(ctx context.Context, kindName string, where *query.Predicate) ([]*kind.Node, error) {
	q := query.From(kindName, "n")
	if where != nil {
		q = q.Where(*where)
	}
	return s.runNodeQuery(ctx, q)
}

// DeleteNode soft-deletes a node, applying its kind's cascade/restrict/
// disconnect policy to incident edges in the same atomic unit of work
// (spec §4.5 DeleteNode, §4.6).
func (s *Store) DeleteNode(ctx context.Context, kindName, id string) error {
	nk, ok := s.registry.NodeKind(kindName)
	if !ok {
		return &typegraph.CompilationError{Message: fmt.Sprintf("unknown node kind %q", kindName)}
	}
	return s.withHandle(ctx, func(h adapter.Handle) error {
		incidentRows, err := h.FindEdgesConnectedTo(ctx, s.graphID, kindName, id)
		if err != nil {
			return wrapBackend("findEdgesConnectedTo", err)
		}
		incident := make([]kind.Edge, len(incidentRows))
		edgeKindByID := make(map[string]string, len(incidentRows))
		for i, r := range incidentRows {
			e, err := edgeFromRow(&r)
			if err != nil {
				return err
			}
			incident[i] = *e
			edgeKindByID[r.ID] = r.Kind
		}

		plan, err := constraint.PlanCascade(kindName, id, nk.OnDelete, incident)
		if err != nil {
			return err
		}
		for _, eid := range plan.EdgeIDs {
			if err := h.DeleteEdge(ctx, s.graphID, edgeKindByID[eid], eid, false); err != nil {
				return wrapBackend("deleteEdge", err)
			}
		}

		if err := h.DeleteNode(ctx, s.graphID, kindName, id, false); err != nil {
			return classifyDeleteNodeError(ctx, h, s.graphID, kindName, id, err)
		}
		return nil
	})
}

// HardDeleteNode permanently removes a node row, bypassing the
// soft-delete tombstone and any cascade policy (spec §4.5 hardDelete: an
// administrative purge, not a modeled graph mutation).
func (s *Store) HardDeleteNode(ctx context.Context, kindName, id string) error {
	return s.withHandle(ctx, func(h adapter.Handle) error {
		if err := h.DeleteNode(ctx, s.graphID, kindName, id, true); err != nil {
			return classifyDeleteNodeError(ctx, h, s.graphID, kindName, id, err)
		}
		return nil
	})
}
