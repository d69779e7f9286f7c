package graphql

import (
	"context"
	"sync"

	"github.com/vikstrous/dataloadgen"

	"github.com/nicia-ai/typegraph/contrib/dataloader"
	"github.com/nicia-ai/typegraph/kind"
	"github.com/nicia-ai/typegraph/store"
)

// Loaders holds one per-kind node batcher, created lazily and reused for
// the lifetime of a single request (it must not be shared across
// requests: dataloadgen.Loader caches and batches within one logical
// request window). Build a fresh Loaders per incoming GraphQL request and
// attach it to the request context with WithLoaders.
type Loaders struct {
	store *store.Store

	mu    sync.Mutex
	nodes map[string]*dataloadgen.Loader[string, *kind.Node]
}

// NewLoaders builds a Loaders bound to s.
func NewLoaders(s *store.Store) *Loaders {
	return &Loaders{
		store: s,
		nodes: make(map[string]*dataloadgen.Loader[string, *kind.Node]),
	}
}

// LoadNode batches concurrent-within-request GetNode calls for kindName
// into a single Store.GetNodes round trip, returning dataloader.ErrNotFound
// for an id that doesn't resolve to a live node.
func (l *Loaders) LoadNode(ctx context.Context, kindName, id string) (*kind.Node, error) {
	return l.nodeLoader(kindName).Load(ctx, id)
}

// LoadNodes batches a slice of ids for kindName into a single round trip.
func (l *Loaders) LoadNodes(ctx context.Context, kindName string, ids []string) ([]*kind.Node, error) {
	results, errs := l.nodeLoader(kindName).LoadAll(ctx, ids)
	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

func (l *Loaders) nodeLoader(kindName string) *dataloadgen.Loader[string, *kind.Node] {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ld, ok := l.nodes[kindName]; ok {
		return ld
	}
	ld := dataloadgen.NewLoader(l.batchGetNodes(kindName))
	l.nodes[kindName] = ld
	return ld
}

// batchGetNodes adapts Store.GetNodes (silently-omits-missing, spec
// §4.5 getByIds) into the fetch-errors-per-key shape a DataLoader batch
// function must return, via contrib/dataloader's OrderByKeys. The return
// type is left as a bare func literal (rather than named as
// dataloader.BatchFunc) so it assigns directly into dataloadgen.NewLoader's
// own distinctly-named BatchFunc parameter type.
func (l *Loaders) batchGetNodes(kindName string) func(ctx context.Context, ids []string) ([]*kind.Node, []error) {
	return func(ctx context.Context, ids []string) ([]*kind.Node, []error) {
		found, err := l.store.GetNodes(ctx, kindName, ids)
		if err != nil {
			errs := make([]error, len(ids))
			for i := range errs {
				errs[i] = err
			}
			return make([]*kind.Node, len(ids)), errs
		}
		return dataloader.OrderByKeys(ids, found, func(n *kind.Node) string { return n.ID })
	}
}

// WithLoaders attaches l to ctx for resolvers to retrieve with LoadersFrom.
func WithLoaders(ctx context.Context, l *Loaders) context.Context {
	return dataloader.WithLoaders(ctx, l)
}

// LoadersFrom retrieves the Loaders a WithLoaders call attached to ctx, or
// nil if none was attached.
func LoadersFrom(ctx context.Context) *Loaders {
	return dataloader.For[*Loaders](ctx)
}
