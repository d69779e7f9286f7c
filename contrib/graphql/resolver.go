package graphql

import (
	"context"

	"github.com/nicia-ai/typegraph/kind"
	"github.com/nicia-ai/typegraph/store"
)

// Resolver is the shared dependency a generated gqlgen root resolver
// embeds. It exposes the Store operations a GraphQL schema's Query/Node
// fields need, translated through Filter (filter.go) and batched per
// request through Loaders (loader.go) — the generated resolver methods
// stay thin wrappers over these.
type Resolver struct {
	Store    *store.Store
	Registry *kind.Registry
}

// NewResolver builds a Resolver over s and its compiled registry.
func NewResolver(s *store.Store, reg *kind.Registry) *Resolver {
	return &Resolver{Store: s, Registry: reg}
}

// Node resolves a single node by kind and id, going through the
// request's Loaders if one is attached to ctx (see WithLoaders), so that
// sibling fields in the same GraphQL selection set collapse into one
// batched Store.GetNodes call instead of N individual round trips.
func (r *Resolver) Node(ctx context.Context, kindName, id string) (*kind.Node, error) {
	if l := LoadersFrom(ctx); l != nil {
		return l.LoadNode(ctx, kindName, id)
	}
	return r.Store.GetNode(ctx, kindName, id)
}

// Nodes resolves several nodes of the same kind, batched the same way as
// Node.
func (r *Resolver) Nodes(ctx context.Context, kindName string, ids []string) ([]*kind.Node, error) {
	if l := LoadersFrom(ctx); l != nil {
		return l.LoadNodes(ctx, kindName, ids)
	}
	return r.Store.GetNodes(ctx, kindName, ids)
}

// FindNodes resolves a GraphQL "where" argument against a node kind. A
// nil filter returns every live node of the kind.
func (r *Resolver) FindNodes(ctx context.Context, kindName string, filter *Filter) ([]*kind.Node, error) {
	if filter == nil {
		return r.Store.FindNodes(ctx, kindName, nil)
	}
	pred, err := filter.Compile("n")
	if err != nil {
		return nil, err
	}
	return r.Store.FindNodes(ctx, kindName, &pred)
}

// Edge resolves a single edge by kind and id.
func (r *Resolver) Edge(ctx context.Context, kindName, id string) (*kind.Edge, error) {
	return r.Store.GetEdge(ctx, kindName, id)
}

// EdgesFrom resolves every live edge of kindName incident from the given
// node.
func (r *Resolver) EdgesFrom(ctx context.Context, kindName, fromKind, fromID string) ([]*kind.Edge, error) {
	return r.Store.FindEdgesFrom(ctx, kindName, store.NodeRef{Kind: fromKind, ID: fromID})
}

// EdgesTo resolves every live edge of kindName incident to the given node.
func (r *Resolver) EdgesTo(ctx context.Context, kindName, toKind, toID string) ([]*kind.Edge, error) {
	return r.Store.FindEdgesTo(ctx, kindName, store.NodeRef{Kind: toKind, ID: toID})
}
