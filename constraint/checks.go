package constraint

import (
	"github.com/nicia-ai/typegraph"
	"github.com/nicia-ai/typegraph/kind"
)

// CheckDisjointness fails with a *typegraph.DisjointError if the registry
// reports newKind disjoint with any kind the node already carries (spec
// §4.2 checkDisjointness, §8 invariant 1).
func CheckDisjointness(reg *kind.Registry, id, newKind string, existingKinds []string) error {
	for _, existing := range existingKinds {
		if reg.AreDisjoint(newKind, existing) {
			return &typegraph.DisjointError{
				NodeID:          id,
				AttemptedKind:   newKind,
				ConflictingKind: existing,
			}
		}
	}
	return nil
}

// ValidateEdgeEndpoints fails with a *typegraph.EndpointError if either
// endpoint's actual kind is not assignable to any of the edge kind's
// declared endpoint kinds (spec §4.2 validateEdgeEndpoints, §8 invariant 3).
func ValidateEdgeEndpoints(reg *kind.Registry, ek kind.EdgeKind, fromKind, toKind string) error {
	if !assignableToAny(reg, fromKind, ek.FromKinds) {
		return &typegraph.EndpointError{
			EdgeKind:      ek.Name,
			Endpoint:      "from",
			ActualKind:    fromKind,
			ExpectedKinds: ek.FromKinds,
		}
	}
	if !assignableToAny(reg, toKind, ek.ToKinds) {
		return &typegraph.EndpointError{
			EdgeKind:      ek.Name,
			Endpoint:      "to",
			ActualKind:    toKind,
			ExpectedKinds: ek.ToKinds,
		}
	}
	return nil
}

func assignableToAny(reg *kind.Registry, actual string, declared []string) bool {
	for _, d := range declared {
		if reg.IsAssignableTo(actual, d) {
			return true
		}
	}
	return false
}

// CheckCardinality fails with a *typegraph.CardinalityError if adding one
// more live edge of cardinality c from fromId would violate it (spec §4.2
// checkCardinality, §8 invariant 4). existingCount is the number of live
// edges of this kind already originating from fromId, scoping "one" and
// "oneActive" to the source alone; hasActive reports whether one of those
// has valid_to IS NULL. pairCount is the number of live edges of this kind
// already spanning the exact (from, to) pair being inserted, scoping
// "unique" to the endpoint pair rather than the source: a source may carry
// many unique edges of the same kind, one per distinct target, and only a
// second edge to the same target violates it. CardinalityMany never fails.
func CheckCardinality(edgeKind, fromKind, fromID string, c kind.Cardinality, existingCount int, hasActive bool, pairCount int) error {
	var violated bool
	var label string
	var count int
	switch c {
	case kind.CardinalityMany:
		return nil
	case kind.CardinalityOne:
		violated = existingCount >= 1
		label = "one"
		count = existingCount
	case kind.CardinalityUnique:
		violated = pairCount >= 1
		label = "unique"
		count = pairCount
	case kind.CardinalityOneActive:
		violated = hasActive
		label = "oneActive"
		count = existingCount
	}
	if !violated {
		return nil
	}
	return &typegraph.CardinalityError{
		EdgeKind:      edgeKind,
		FromKind:      fromKind,
		FromID:        fromID,
		Cardinality:   label,
		ExistingCount: count,
	}
}

// CascadePlan describes what planCascade decided to do with a node's
// incident edges on delete (spec §4.2 planCascade, §4.6).
type CascadePlan struct {
	// Action is "restrict" (nothing to do, caller should already have
	// failed), "cascade" (soft-delete all incident edges), or "disconnect"
	// (soft-delete incident edges, leave neighbor nodes untouched).
	Action string
	// EdgeIDs lists the incident edges (both directions) the Store must
	// soft-delete in the same transaction. Empty for "restrict".
	EdgeIDs []string
}

// PlanCascade inspects a node's incident edges (both directions, already
// loaded by the caller) and returns either a cascade plan or a
// *typegraph.RestrictedDeleteError (spec §4.2 planCascade).
func PlanCascade(nodeKind, nodeID string, onDelete kind.DeleteBehavior, incident []kind.Edge) (*CascadePlan, error) {
	if onDelete == kind.DeleteRestrict {
		if len(incident) == 0 {
			return &CascadePlan{Action: "restrict"}, nil
		}
		kinds := make([]string, 0, len(incident))
		seen := map[string]struct{}{}
		for _, e := range incident {
			if _, ok := seen[e.Kind]; !ok {
				seen[e.Kind] = struct{}{}
				kinds = append(kinds, e.Kind)
			}
		}
		return nil, &typegraph.RestrictedDeleteError{
			Kind:      nodeKind,
			ID:        nodeID,
			EdgeCount: len(incident),
			EdgeKinds: kinds,
		}
	}

	ids := make([]string, len(incident))
	for i, e := range incident {
		ids[i] = e.ID
	}
	action := "cascade"
	if onDelete == kind.DeleteDisconnect {
		action = "disconnect"
	}
	return &CascadePlan{Action: action, EdgeIDs: ids}, nil
}
